package game

import (
	"errors"
	"testing"

	"github.com/decker502/crossroad/pkg/config"
)

func testShop(coins int) (*ShopManager, *CounterStore) {
	store := NewCounterStore(nil)
	store.Set("Coins", coins)
	items := []config.ShopItemSpec{
		{ID: "chicken", UnlockKey: "Unlock_chicken", Unlocked: true},
		{ID: "cat", Cost: 100, UnlockKey: "Unlock_cat"},
		{ID: "dog", Cost: 250, UnlockKey: "Unlock_dog"},
	}
	return NewShopManager(store, items, config.StorageKeys{Coins: "Coins", CurrentPlayer: "CurrentPlayer"}), store
}

func TestShopBuy(t *testing.T) {
	tests := []struct {
		name        string
		coins       int
		item        int
		wantErr     error
		wantCoins   int
		wantCurrent int
	}{
		{"select unlocked default", 0, 0, nil, 0, 0},
		{"buy with enough coins", 150, 1, nil, 50, 1},
		{"exact cost", 250, 2, nil, 0, 2},
		{"not enough coins", 99, 1, ErrNotEnoughCoins, 99, 0},
		{"out of range", 1000, 3, config.ErrIndexOutOfRange, 1000, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			shop, store := testShop(tt.coins)

			err := shop.Buy(tt.item)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("expected %v, got %v", tt.wantErr, err)
				}
			} else if err != nil {
				t.Fatalf("Buy failed: %v", err)
			}

			if got := shop.Coins(); got != tt.wantCoins {
				t.Errorf("coins: got %d, want %d", got, tt.wantCoins)
			}
			if got := shop.Current(); got != tt.wantCurrent {
				t.Errorf("current: got %d, want %d", got, tt.wantCurrent)
			}
			if tt.wantErr == nil && !shop.IsUnlocked(tt.item) {
				t.Error("purchased item should be unlocked")
			}
			if tt.wantErr == nil && tt.item > 0 && store.Get(shop.items[tt.item].UnlockKey, 0) != 1 {
				t.Error("unlock state should be persisted in the store")
			}
		})
	}
}

func TestShopBuyTwiceChargesOnce(t *testing.T) {
	shop, _ := testShop(300)

	if err := shop.Buy(1); err != nil {
		t.Fatalf("first Buy failed: %v", err)
	}
	if err := shop.Buy(1); err != nil {
		t.Fatalf("second Buy failed: %v", err)
	}
	if shop.Coins() != 200 {
		t.Errorf("expected 200 coins, got %d", shop.Coins())
	}
}

func TestShopSelectLocked(t *testing.T) {
	shop, _ := testShop(0)

	if err := shop.Select(2); !errors.Is(err, ErrItemLocked) {
		t.Errorf("expected ErrItemLocked, got %v", err)
	}
	if shop.IsUnlocked(2) {
		t.Error("dog should still be locked")
	}
	if !shop.IsUnlocked(0) {
		t.Error("default item should be unlocked")
	}
}
