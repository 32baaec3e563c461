package components

import "github.com/decker502/crossroad/pkg/events"

// EffectRef 一条指向目标的效果引用
type EffectRef struct {
	Target events.Target
	Effect events.Effect
}

// PowerupComponent 限时道具
//
// 生命周期：DurationRemaining 为 0 表示未激活；激活时设为 DurationMax；
// 已激活时再次激活只会补满时间（不叠加、不重复触发激活效果）。
type PowerupComponent struct {
	ID                string
	DurationMax       float64
	DurationRemaining float64
	OnActivate        []EffectRef
	OnExpire          []EffectRef
}

// IsActive 是否处于激活状态
func (p *PowerupComponent) IsActive() bool {
	return p.DurationRemaining > 0
}

// FillRatio 剩余时间比例，用于图标填充
func (p *PowerupComponent) FillRatio() float64 {
	if p.DurationMax <= 0 {
		return 0
	}
	return p.DurationRemaining / p.DurationMax
}
