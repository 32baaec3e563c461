package game

import (
	"sync"

	"github.com/decker502/crossroad/pkg/ecs"
)

type contactReport struct {
	player int
	entity ecs.EntityID
}

type transformReport struct {
	player   int
	marker   bool
	x, z     float64
	rotation float64
}

// inbox 外部线程提交给游戏循环的消息
// 只在 Tick 开始时统一取出，核心状态本身从不被外部线程直接修改
type inbox struct {
	mu         sync.Mutex
	intents    []Intent
	contacts   []contactReport
	transforms []transformReport
}

func (b *inbox) pushIntent(intent Intent) {
	b.mu.Lock()
	b.intents = append(b.intents, intent)
	b.mu.Unlock()
}

func (b *inbox) pushContact(c contactReport) {
	b.mu.Lock()
	b.contacts = append(b.contacts, c)
	b.mu.Unlock()
}

func (b *inbox) pushTransform(t transformReport) {
	b.mu.Lock()
	b.transforms = append(b.transforms, t)
	b.mu.Unlock()
}

// drain 取出并清空所有消息
func (b *inbox) drain() ([]Intent, []contactReport, []transformReport) {
	b.mu.Lock()
	defer b.mu.Unlock()

	intents, contacts, transforms := b.intents, b.contacts, b.transforms
	b.intents, b.contacts, b.transforms = nil, nil, nil
	return intents, contacts, transforms
}

// clear 丢弃所有未处理的消息（重新开局时）
func (b *inbox) clear() {
	b.mu.Lock()
	b.intents, b.contacts, b.transforms = nil, nil, nil
	b.mu.Unlock()
}
