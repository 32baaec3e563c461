package components

// ChaseStateComponent 死亡线状态
//
// 不变量：运行且未暂停期间 TargetX 单调不减；Speed 不超过 SpeedCap。
type ChaseStateComponent struct {
	TargetX        float64
	CurrentX       float64 // 平滑后的显示位置
	Speed          float64
	SpeedIncrement float64
	SpeedCap       float64
	SmoothingRate  float64
}
