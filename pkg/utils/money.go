package utils

import "math"

// Round2 金额保留两位
func Round2(v float64) float64 {
	return roundTo(v, 100)
}

// Round4 百分比保留四位
func Round4(v float64) float64 {
	return roundTo(v, 10000)
}

func roundTo(v, factor float64) float64 {
	return math.Round(v*factor) / factor
}
