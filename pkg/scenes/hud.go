package scenes

import (
	"log"
	"sort"

	"github.com/decker502/crossroad/pkg/events"
)

// IconView 道具图标显示状态
type IconView struct {
	ID   string
	Fill float64
}

// HUD 界面与音效协作者
//
// 接收控制器发往 Canvas / Sound 目标的效果并保存显示状态，
// 由 RunScene 绘制。音效交给 AudioManager 合成播放。
type HUD struct {
	audio     *AudioManager
	canvases  map[string]bool
	texts     map[string]int
	icons     map[string]float64
	lastSound string
}

// NewHUD 创建 HUD 并注册为 Canvas 与 Sound 目标的处理者
// am 为 nil 时音效只记录日志
func NewHUD(d *events.EffectDispatcher, am *AudioManager) *HUD {
	h := &HUD{
		audio:    am,
		canvases: make(map[string]bool),
		texts:    make(map[string]int),
		icons:    make(map[string]float64),
	}
	d.RegisterTarget(events.TargetCanvas, h.onCanvas)
	d.RegisterTarget(events.TargetSound, h.onSound)
	return h
}

func (h *HUD) onCanvas(_ events.Target, effect events.Effect) {
	switch effect.Kind {
	case events.EffectShowCanvas:
		h.canvases[effect.Name] = effect.Value != 0
	case events.EffectSetText:
		h.texts[effect.Name] = int(effect.Value)
	case events.EffectShowIcon:
		if effect.Value != 0 {
			h.icons[effect.Name] = 1
		} else {
			delete(h.icons, effect.Name)
		}
	case events.EffectIconFill:
		if _, ok := h.icons[effect.Name]; ok {
			h.icons[effect.Name] = effect.Value
		}
	default:
		log.Printf("[HUD] Warning: unsupported canvas effect %s", effect.Kind)
	}
}

func (h *HUD) onSound(_ events.Target, effect events.Effect) {
	if effect.Kind != events.EffectPlaySound {
		return
	}
	h.lastSound = effect.Name
	if !h.audio.PlaySound(effect.Name) {
		log.Printf("[Sound] play %s (muted)", effect.Name)
	}
}

// Visible 界面是否显示
func (h *HUD) Visible(canvas string) bool {
	return h.canvases[canvas]
}

// Text 文本字段当前值
func (h *HUD) Text(field string) int {
	return h.texts[field]
}

// Icons 当前显示的道具图标（按ID排序）
func (h *HUD) Icons() []IconView {
	icons := make([]IconView, 0, len(h.icons))
	for id, fill := range h.icons {
		icons = append(icons, IconView{ID: id, Fill: fill})
	}
	sort.Slice(icons, func(i, j int) bool { return icons[i].ID < icons[j].ID })
	return icons
}

// LastSound 最近一次播放的音效
func (h *HUD) LastSound() string {
	return h.lastSound
}
