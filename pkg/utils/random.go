package utils

import (
	"crypto/rand"
	"encoding/base64"
)

// GenerateRandomString 生成 URL 安全的随机串（OAuth state）
func GenerateRandomString(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}
