package systems

import (
	"github.com/decker502/crossroad/pkg/components"
	"github.com/decker502/crossroad/pkg/config"
	"github.com/decker502/crossroad/pkg/events"
)

// resolveEffects 将配置效果列表解析为效果引用
func resolveEffects(specs []config.EffectSpec) ([]components.EffectRef, error) {
	refs := make([]components.EffectRef, 0, len(specs))
	for _, spec := range specs {
		target, effect, err := spec.Resolve()
		if err != nil {
			return nil, err
		}
		refs = append(refs, components.EffectRef{Target: target, Effect: effect})
	}
	return refs, nil
}

// sendAll 依次派发一组效果
// 缺少协作者不是错误，派发器已经记录过警告
func sendAll(d *events.EffectDispatcher, refs []components.EffectRef) {
	if d == nil {
		return
	}
	for _, ref := range refs {
		_ = d.Send(ref.Target, ref.Effect)
	}
}

// send 派发单条效果，忽略缺少协作者
func send(d *events.EffectDispatcher, target events.Target, effect events.Effect) {
	if d == nil {
		return
	}
	_ = d.Send(target, effect)
}

// 界面/音效效果的目标
var (
	soundTarget  = events.Target{Kind: events.TargetSound}
	canvasTarget = events.Target{Kind: events.TargetCanvas}
)
