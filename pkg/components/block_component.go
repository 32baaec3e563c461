package components

// BlockComponent 可被玩家触碰的方块（金币、障碍物、终点线……）
type BlockComponent struct {
	TemplateID         string
	Touches            []EffectRef
	RemoveAfterTouches int  // 剩余可触碰次数
	IsRemovable        bool // 配置了触碰次数上限时为 true
	HitSound           string
}
