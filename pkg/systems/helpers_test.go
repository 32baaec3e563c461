package systems

import (
	"github.com/decker502/crossroad/pkg/events"
)

type sentEffect struct {
	target events.Target
	effect events.Effect
}

// effectRecorder 记录所有派发到外部目标的效果
type effectRecorder struct {
	sent []sentEffect
}

func newRecordingDispatcher() (*events.EffectDispatcher, *effectRecorder) {
	d := events.NewEffectDispatcher()
	r := &effectRecorder{}
	for _, kind := range []events.TargetKind{
		events.TargetController,
		events.TargetPlayer,
		events.TargetRespawnMarker,
		events.TargetSound,
		events.TargetCanvas,
		events.TargetTouchSource,
	} {
		d.RegisterTarget(kind, func(t events.Target, e events.Effect) {
			r.sent = append(r.sent, sentEffect{target: t, effect: e})
		})
	}
	return d, r
}

func (r *effectRecorder) count(target events.TargetKind, kind events.EffectKind) int {
	n := 0
	for _, s := range r.sent {
		if s.target.Kind == target && s.effect.Kind == kind {
			n++
		}
	}
	return n
}

func (r *effectRecorder) last(target events.TargetKind, kind events.EffectKind) (sentEffect, bool) {
	for i := len(r.sent) - 1; i >= 0; i-- {
		if r.sent[i].target.Kind == target && r.sent[i].effect.Kind == kind {
			return r.sent[i], true
		}
	}
	return sentEffect{}, false
}

func (r *effectRecorder) reset() {
	r.sent = r.sent[:0]
}

// eventRecorder 记录总线上的事件
type eventRecorder struct {
	events []events.GameEvent
}

func newRecordingBus() (*events.EventBus, *eventRecorder) {
	bus := events.NewEventBus()
	r := &eventRecorder{}
	bus.SubscribeAll(func(ev events.GameEvent) {
		r.events = append(r.events, ev)
	})
	return bus, r
}

func (r *eventRecorder) count(t events.EventType) int {
	n := 0
	for _, ev := range r.events {
		if ev.Type == t {
			n++
		}
	}
	return n
}
