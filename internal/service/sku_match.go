package service

import (
	"fmt"
	"strconv"
	"strings"
	"unicode"
)

// MaxRangeExpansion 区间 SKU 最多展开的数量
const MaxRangeExpansion = 500

// MatchesSKU 刊登 SKU 是否包含 sku
// 支持三种形式：单个、逗号分隔、闭区间 (JAL00246-JAL00248)；区分大小写，解析失败视为不匹配
func MatchesSKU(listingSKU, sku string) bool {
	listingSKU = strings.TrimSpace(listingSKU)
	sku = strings.TrimSpace(sku)
	if listingSKU == "" || sku == "" {
		return false
	}
	if listingSKU == sku {
		return true
	}

	for _, part := range splitSKUList(listingSKU) {
		if part == sku {
			return true
		}
		if lo, hi, prefix, _, ok := parseSKURange(part); ok {
			p, n, ok := splitSKU(sku)
			if ok && p == prefix && n >= lo && n <= hi {
				return true
			}
		}
	}
	return false
}

// ExpandSKUs 展开为单个 SKU 列表（区间最多 MaxRangeExpansion 个）
func ExpandSKUs(listingSKU string) []string {
	var out []string
	seen := make(map[string]bool)
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}

	for _, part := range splitSKUList(listingSKU) {
		lo, hi, prefix, width, ok := parseSKURange(part)
		if !ok {
			add(part)
			continue
		}
		// lo >= 0，hi-lo 不会溢出；按偏移计数避免 n++ 越过 MaxInt64
		span := hi - lo
		if span >= MaxRangeExpansion {
			span = MaxRangeExpansion - 1
		}
		for i := int64(0); i <= span; i++ {
			add(fmt.Sprintf("%s%0*d", prefix, width, lo+i))
		}
	}
	return out
}

func splitSKUList(s string) []string {
	var parts []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			parts = append(parts, p)
		}
	}
	return parts
}

// parseSKURange 解析 "JAL00246-JAL00248"，两侧前缀必须一致
func parseSKURange(s string) (lo, hi int64, prefix string, width int, ok bool) {
	sides := strings.Split(s, "-")
	if len(sides) != 2 {
		return 0, 0, "", 0, false
	}
	p1, n1, ok1 := splitSKU(strings.TrimSpace(sides[0]))
	p2, n2, ok2 := splitSKU(strings.TrimSpace(sides[1]))
	if !ok1 || !ok2 || p1 != p2 || n1 > n2 {
		return 0, 0, "", 0, false
	}
	width = len(strings.TrimSpace(sides[0])) - len(p1)
	return n1, n2, p1, width, true
}

// splitSKU 拆成 非数字前缀 + 数字后缀
func splitSKU(s string) (string, int64, bool) {
	i := strings.IndexFunc(s, unicode.IsDigit)
	if i < 0 {
		return "", 0, false
	}
	n, err := strconv.ParseInt(s[i:], 10, 64)
	if err != nil {
		return "", 0, false
	}
	return s[:i], n, true
}
