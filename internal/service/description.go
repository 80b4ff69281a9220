package service

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
)

// ==================== 商品描述 ====================

var descriptionTmpl = template.Must(template.New("description").Parse(`<div style="font-family:Arial,Helvetica,sans-serif;max-width:900px;margin:0 auto;color:#333;">
  <div style="background:#1f2937;color:#fff;padding:16px 20px;border-radius:6px 6px 0 0;">
    <h2 style="margin:0;font-size:22px;">{{.Title}}</h2>
  </div>
  <div style="border:1px solid #e5e7eb;border-top:none;padding:16px 20px;">
{{- range .Lines}}
    <p style="font-size:16px;line-height:1.5;margin:6px 0;">{{.}}</p>
{{- end}}
  </div>
  <div style="margin-top:16px;padding:12px 20px;background:#f9fafb;border:1px solid #e5e7eb;border-radius:6px;font-size:14px;">
    <h3 style="margin:0 0 8px;font-size:16px;">Versand</h3>
    <p style="margin:4px 0;">Versand innerhalb von 1-2 Werktagen nach Zahlungseingang. Sorgfältig verpackt.</p>
    <h3 style="margin:12px 0 8px;font-size:16px;">Rückgabe</h3>
    <p style="margin:4px 0;">30 Tage Rückgaberecht. Bitte kontaktieren Sie uns vor der Rücksendung über eBay.</p>
  </div>
</div>`))

type descriptionData struct {
	Title string
	Lines []string
}

// BuildDescription 按固定顺序输出：状态、尺码、颜色、品牌、备注、材质（空行省略）
func BuildDescription(rec *model.ProductRecord, title string) (string, error) {
	entries := [][2]string{
		{"Zustand", rec.Condition},
		{"Größe", rec.Internal.Size},
		{"Farbe", rec.Internal.Color},
		{"Marke", rec.Internal.Brand},
		{"", rec.Internal.Notes},
		{"Material", recordMaterial(rec)},
	}

	data := descriptionData{Title: title}
	for _, e := range entries {
		value := strings.TrimSpace(e[1])
		if value == "" {
			continue
		}
		if e[0] != "" {
			value = e[0] + ": " + value
		}
		data.Lines = append(data.Lines, value)
	}

	var buf bytes.Buffer
	if err := descriptionTmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("生成描述失败: %w", err)
	}
	return buf.String(), nil
}

func recordMaterial(rec *model.ProductRecord) string {
	if rec.Internal.Material != "" {
		return rec.Internal.Material
	}
	for _, name := range []string{"Material", "Obermaterial"} {
		if v := rec.Generated.Required[name]; v != "" {
			return v
		}
		if v := rec.Generated.Optional[name]; v != "" {
			return v
		}
	}
	return ""
}
