package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/stamat12/ecom-platform-v2-sub000/internal/model"
)

// ==================== 提示词构建 ====================

func buildAttributePrompt(schema *model.CategorySchema, current map[string]string, maxValues int) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Du bist ein Experte für eBay-Artikelmerkmale. Kategorie: %s (ID %s).\n",
		schema.CategoryName, schema.CategoryID)
	sb.WriteString("Analysiere die Produktfotos und bestimme die Werte der folgenden Merkmale.\n\n")

	sb.WriteString("Pflichtmerkmale:\n")
	writeAttributeList(&sb, schema.Required, maxValues)
	if len(schema.Optional) > 0 {
		sb.WriteString("\nOptionale Merkmale:\n")
		writeAttributeList(&sb, schema.Optional, maxValues)
	}

	if len(current) > 0 {
		data, _ := json.Marshal(current)
		fmt.Fprintf(&sb, "\nBereits bekannte Werte (nicht ändern): %s\n", data)
	}

	sb.WriteString("\nAntworte ausschließlich mit einem JSON-Objekt {\"Merkmalname\": \"Wert\"}. ")
	sb.WriteString("Verwende wenn möglich einen der erlaubten Werte. Unbekannte Merkmale weglassen.")
	return sb.String()
}

func writeAttributeList(sb *strings.Builder, specs []model.AttributeSpec, maxValues int) {
	for _, a := range specs {
		fmt.Fprintf(sb, "- %s", a.Name)
		if n := len(a.AllowedValues); n > 0 {
			values := a.AllowedValues
			if maxValues > 0 && n > maxValues {
				values = values[:maxValues]
			}
			fmt.Fprintf(sb, " (erlaubt: %s", strings.Join(values, ", "))
			if len(values) < n {
				fmt.Fprintf(sb, ", … %d weitere", n-len(values))
			}
			sb.WriteString(")")
		}
		sb.WriteString("\n")
	}
}

func buildSEOPrompt(rec *model.ProductRecord, title string, withImages bool) string {
	var sb strings.Builder
	if withImages {
		sb.WriteString("Bestimme anhand der Produktfotos SEO-Felder für ein eBay-Angebot.\n")
	} else {
		sb.WriteString("Bestimme SEO-Felder für ein eBay-Angebot. Es gibt noch keine Fotos, nutze nur den Titel.\n")
	}
	fmt.Fprintf(&sb, "Produkt: %s\n", title)
	if rec.Category.Name != "" {
		fmt.Fprintf(&sb, "Kategorie: %s\n", rec.Category.Name)
	}
	sb.WriteString("Felder: product_type (Produktart), product_model (Modellname), keyword_1, keyword_2, keyword_3 ")
	sb.WriteString("(je ein kurzes Suchwort auf Deutsch, keine Marke, keine Farbe, keine Größe).\n")
	sb.WriteString("Antworte ausschließlich mit einem JSON-Objekt mit genau diesen fünf Schlüsseln.")
	return sb.String()
}

func buildManufacturerPrompt(brand string) string {
	return fmt.Sprintf(`Gib die offizielle Herstelleradresse (EU-Produktsicherheitsverordnung) der Marke "%s" an.
Antworte ausschließlich mit JSON: {"company_name":"","street":"","city":"","postal_code":"","country":"","phone":"","email":"","url":""}.
Wenn du die Adresse nicht sicher kennst, gib leere Werte zurück. Erfinde keine Beispieldaten.`, brand)
}

// deriveProductTitle 没有图片时用于 SEO 文本补全的商品描述
func deriveProductTitle(rec *model.ProductRecord) string {
	productType := rec.SEO.ProductType
	if productType == "" {
		productType = rec.Category.Name
	}
	parts := []string{rec.Internal.Brand, productType, rec.SEO.ProductModel, rec.Internal.Color}
	if rec.Internal.Size != "" {
		parts = append(parts, "Größe "+rec.Internal.Size)
	}
	return joinNonEmpty(parts, " ")
}

func joinNonEmpty(parts []string, sep string) string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return strings.Join(out, sep)
}
