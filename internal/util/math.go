package util

import "math"

func MinFloat(a, b float64) float64 {
	if a < b {
		return a
	}
	return b
}

func MaxFloat(a, b float64) float64 {
	if a > b {
		return a
	}
	return b
}

// Clamp01 bounds v to the closed interval [0, 1].
func Clamp01(v float64) float64 {
	return MaxFloat(0, MinFloat(1, v))
}

// Percent converts a ratio in [0, 1] to a rounded percentage.
func Percent(ratio float64) int {
	return int(math.Round(Clamp01(ratio) * 100))
}
