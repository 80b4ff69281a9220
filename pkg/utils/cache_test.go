package utils

import (
	"testing"
	"time"
)

func TestTTLCache_Expiry(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTLCache[string, string](time.Minute)
	c.SetClock(func() time.Time { return now })

	c.Set("EBAY_DE", "77")
	if v, ok := c.Get("EBAY_DE"); !ok || v != "77" {
		t.Fatalf("Get() = %q, %v; want 77, true", v, ok)
	}

	now = now.Add(2 * time.Minute)
	if _, ok := c.Get("EBAY_DE"); ok {
		t.Error("过期后应该取不到")
	}
	if c.Len() != 0 {
		t.Errorf("过期项应被懒删除, Len = %d", c.Len())
	}
}

// Get 判定过期后、懒删除前写入的新值必须保留
func TestTTLCache_LazyDeleteKeepsFreshValue(t *testing.T) {
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	c := NewTTLCache[string, string](time.Minute)
	c.SetClock(func() time.Time { return now })

	c.Set("EBAY_DE", "77")
	now = now.Add(2 * time.Minute)
	c.Set("EBAY_DE", "78")

	c.deleteExpired("EBAY_DE")
	if v, ok := c.Get("EBAY_DE"); !ok || v != "78" {
		t.Errorf("新写入的值被删除: Get() = %q, %v", v, ok)
	}

	now = now.Add(2 * time.Minute)
	c.deleteExpired("EBAY_DE")
	if c.Len() != 0 {
		t.Errorf("真正过期的项应被删除, Len = %d", c.Len())
	}
}

func TestTTLCache_NoExpiry(t *testing.T) {
	now := time.Now()
	c := NewTTLCache[string, float64](0)
	c.SetClock(func() time.Time { return now })

	c.Set("JAL00001", 12.5)
	now = now.Add(24 * 365 * time.Hour)

	if v, ok := c.Get("JAL00001"); !ok || v != 12.5 {
		t.Errorf("ttl=0 不应过期, got %v %v", v, ok)
	}

	c.Delete("JAL00001")
	if _, ok := c.Get("JAL00001"); ok {
		t.Error("Delete 后不应存在")
	}
}

func TestRounding(t *testing.T) {
	tests := []struct {
		in float64
		r2 float64
		r4 float64
	}{
		{25.201680672, 25.20, 25.2017},
		{2.999, 3.00, 2.999},
		{0.123456, 0.12, 0.1235},
	}
	for _, tt := range tests {
		if got := Round2(tt.in); got != tt.r2 {
			t.Errorf("Round2(%v) = %v, want %v", tt.in, got, tt.r2)
		}
		if got := Round4(tt.in); got != tt.r4 {
			t.Errorf("Round4(%v) = %v, want %v", tt.in, got, tt.r4)
		}
	}
}
