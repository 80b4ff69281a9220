package ebay

import (
	"bytes"
	"encoding/xml"
	"strings"
)

// ExtractValue 按元素路径取第一个匹配元素的文本
// 路径是元素名后缀，例如 ("SiteHostedPictureDetails", "FullURL")；
// 找不到或解析失败返回空串
func ExtractValue(body []byte, path ...string) string {
	if len(path) == 0 {
		return ""
	}
	dec := xml.NewDecoder(bytes.NewReader(body))
	var stack []string
	for {
		tok, err := dec.Token()
		if err != nil {
			return ""
		}
		switch t := tok.(type) {
		case xml.StartElement:
			stack = append(stack, t.Name.Local)
			if hasSuffix(stack, path) {
				var text string
				if err := dec.DecodeElement(&text, &t); err != nil {
					return ""
				}
				return strings.TrimSpace(text)
			}
		case xml.EndElement:
			if len(stack) > 0 {
				stack = stack[:len(stack)-1]
			}
		}
	}
}

func hasSuffix(stack, path []string) bool {
	if len(stack) < len(path) {
		return false
	}
	offset := len(stack) - len(path)
	for i, p := range path {
		if stack[offset+i] != p {
			return false
		}
	}
	return true
}
