package game

import (
	"fmt"
	"log"
	"sort"
	"sync"

	"github.com/quasilyte/gdata/v2"
	"gopkg.in/yaml.v3"
)

// 存储路径常量
const (
	countersObject   = "counters"
	countersProperty = "values"
)

// CounterStore 持久化的整数计数器（金币总数、最高分、当前角色、解锁状态）
//
// 开局时读取，结束（游戏结束/胜利）或在商店购买时写入。
// gdataManager 为 nil 时进入降级模式：计数器只保存在内存中。
type CounterStore struct {
	mu           sync.Mutex
	gdataManager *gdata.Manager
	values       map[string]int
	dirty        bool
}

// NewCounterStore 创建计数器存储并加载已保存的数据
// 加载失败不是致命错误，从空计数器开始
func NewCounterStore(gdataManager *gdata.Manager) *CounterStore {
	cs := &CounterStore{
		gdataManager: gdataManager,
		values:       make(map[string]int),
	}
	if err := cs.Load(); err != nil {
		log.Printf("[CounterStore] Warning: Failed to load counters: %v (starting empty)", err)
	}
	return cs
}

// Load 从 gdata 加载计数器
func (cs *CounterStore) Load() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.values = make(map[string]int)
	cs.dirty = false

	// 降级模式
	if cs.gdataManager == nil {
		return nil
	}
	if !cs.gdataManager.ObjectPropExists(countersObject, countersProperty) {
		return nil
	}

	data, err := cs.gdataManager.LoadObjectProp(countersObject, countersProperty)
	if err != nil {
		return fmt.Errorf("failed to load counters: %w", err)
	}

	var loaded map[string]int
	if err := yaml.Unmarshal(data, &loaded); err != nil {
		return fmt.Errorf("failed to unmarshal counters: %w", err)
	}
	for k, v := range loaded {
		cs.values[k] = v
	}

	log.Printf("[CounterStore] Loaded %d counters", len(cs.values))
	return nil
}

// Get 读取计数器，不存在时返回 def
func (cs *CounterStore) Get(key string, def int) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if v, ok := cs.values[key]; ok {
		return v
	}
	return def
}

// Set 设置计数器（仅内存，需调用 Flush 持久化）
func (cs *CounterStore) Set(key string, value int) {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if old, ok := cs.values[key]; ok && old == value {
		return
	}
	cs.values[key] = value
	cs.dirty = true
}

// Add 计数器加上 delta 并返回新值
func (cs *CounterStore) Add(key string, delta int) int {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	cs.values[key] += delta
	cs.dirty = true
	return cs.values[key]
}

// Keys 按字母顺序返回所有键
func (cs *CounterStore) Keys() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	keys := make([]string, 0, len(cs.values))
	for k := range cs.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Flush 将计数器写入 gdata
// 降级模式或没有改动时直接返回 nil
func (cs *CounterStore) Flush() error {
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if cs.gdataManager == nil || !cs.dirty {
		return nil
	}

	data, err := yaml.Marshal(cs.values)
	if err != nil {
		return fmt.Errorf("failed to marshal counters: %w", err)
	}
	if err := cs.gdataManager.SaveObjectProp(countersObject, countersProperty, data); err != nil {
		return fmt.Errorf("failed to save counters: %w", err)
	}

	cs.dirty = false
	return nil
}
