package game

import (
	"errors"
	"fmt"
	"log"

	"github.com/decker502/crossroad/pkg/config"
)

var (
	// ErrNotEnoughCoins 金币不足以解锁
	ErrNotEnoughCoins = errors.New("not enough coins")
	// ErrItemLocked 条目尚未解锁
	ErrItemLocked = errors.New("item locked")
)

// ShopManager 角色商店
//
// 每个条目对应一个可选角色（下标与 players.characters 一致）。
// 解锁状态和金币都保存在 CounterStore 中。
type ShopManager struct {
	store      *CounterStore
	items      []config.ShopItemSpec
	coinsKey   string
	currentKey string
}

// NewShopManager 创建商店
func NewShopManager(store *CounterStore, items []config.ShopItemSpec, keys config.StorageKeys) *ShopManager {
	return &ShopManager{
		store:      store,
		items:      items,
		coinsKey:   keys.Coins,
		currentKey: keys.CurrentPlayer,
	}
}

// Coins 当前金币
func (m *ShopManager) Coins() int {
	return m.store.Get(m.coinsKey, 0)
}

// Current 当前选中的条目
func (m *ShopManager) Current() int {
	return m.store.Get(m.currentKey, 0)
}

// Len 条目数量
func (m *ShopManager) Len() int {
	return len(m.items)
}

// IsUnlocked 条目是否已解锁
func (m *ShopManager) IsUnlocked(i int) bool {
	if i < 0 || i >= len(m.items) {
		return false
	}
	def := 0
	if m.items[i].Unlocked {
		def = 1
	}
	return m.store.Get(m.items[i].UnlockKey, def) > 0
}

// Buy 购买条目：已解锁时直接选中；金币足够时解锁、扣费并选中
func (m *ShopManager) Buy(i int) error {
	if i < 0 || i >= len(m.items) {
		return fmt.Errorf("shop item %d: %w", i, config.ErrIndexOutOfRange)
	}

	if !m.IsUnlocked(i) {
		item := m.items[i]
		coins := m.Coins()
		if item.Cost > coins {
			return fmt.Errorf("%s costs %d, have %d: %w", item.ID, item.Cost, coins, ErrNotEnoughCoins)
		}
		m.store.Set(item.UnlockKey, 1)
		m.store.Set(m.coinsKey, coins-item.Cost)
		log.Printf("[ShopManager] Unlocked %s for %d coins", item.ID, item.Cost)
	}

	return m.Select(i)
}

// Select 选中已解锁的条目并持久化
func (m *ShopManager) Select(i int) error {
	if i < 0 || i >= len(m.items) {
		return fmt.Errorf("shop item %d: %w", i, config.ErrIndexOutOfRange)
	}
	if !m.IsUnlocked(i) {
		return fmt.Errorf("shop item %s is locked: %w", m.items[i].ID, ErrItemLocked)
	}

	m.store.Set(m.currentKey, i)
	return m.store.Flush()
}
