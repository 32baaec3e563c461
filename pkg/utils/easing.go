package utils

// Lerp 线性插值
// t 会被限制在 [0, 1] 内，避免大帧间隔时越过目标
func Lerp(from, to, t float64) float64 {
	return from + (to-from)*Clamp01(t)
}

// Clamp01 将值限制在 0.0 ~ 1.0 范围内
func Clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}

// MaxOf 返回切片中的最大值，空切片返回 fallback
func MaxOf(values []float64, fallback float64) float64 {
	if len(values) == 0 {
		return fallback
	}
	m := values[0]
	for _, v := range values[1:] {
		if v > m {
			m = v
		}
	}
	return m
}
