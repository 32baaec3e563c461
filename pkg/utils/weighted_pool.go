package utils

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidWeight 权重必须为正整数
	ErrInvalidWeight = errors.New("invalid weight")
	// ErrEmptyPool 权重池没有任何可抽取的条目
	ErrEmptyPool = errors.New("empty pool")
)

// WeightedEntry 权重池的输入条目
type WeightedEntry[T any] struct {
	Item   T
	Weight int
}

// WeightedPool 展开式权重池
//
// 每个条目按 Weight 次连续重复展开到一个扁平序列中（保持输入顺序），
// 之后的均匀随机抽取即等价于按权重抽取。构建 O(总权重)，抽取 O(1)。
// 重复元素是抽样机制本身，并非冗余。
type WeightedPool[T any] struct {
	items []T
}

// BuildWeightedPool 从 (item, weight) 列表构建权重池
//
// 返回：
//   - ErrInvalidWeight: 任一权重 ≤ 0
//   - ErrEmptyPool: 输入为空
func BuildWeightedPool[T any](entries []WeightedEntry[T]) (*WeightedPool[T], error) {
	if len(entries) == 0 {
		return nil, ErrEmptyPool
	}

	total := 0
	for i, entry := range entries {
		if entry.Weight <= 0 {
			return nil, fmt.Errorf("entry %d: weight %d: %w", i, entry.Weight, ErrInvalidWeight)
		}
		total += entry.Weight
	}

	items := make([]T, 0, total)
	for _, entry := range entries {
		for n := 0; n < entry.Weight; n++ {
			items = append(items, entry.Item)
		}
	}

	return &WeightedPool[T]{items: items}, nil
}

// Len 返回展开后的序列长度（等于权重总和）
func (p *WeightedPool[T]) Len() int {
	if p == nil {
		return 0
	}
	return len(p.items)
}

// At 返回展开序列中第 i 个元素
func (p *WeightedPool[T]) At(i int) T {
	return p.items[i]
}

// SampleUniform 在 [0, Len) 中均匀抽取一个下标并返回对应元素
// 每次抽取恰好调用一次 rng.IntN，给定种子时结果可逐位复现
func (p *WeightedPool[T]) SampleUniform(rng Rand) (T, error) {
	var zero T
	if p.Len() == 0 {
		return zero, ErrEmptyPool
	}
	return p.items[rng.IntN(len(p.items))], nil
}

// NextSequential 循环推进游标并返回游标处的元素
//
// 游标初始值为 -1 时，第一次调用返回下标 0 的元素。
func (p *WeightedPool[T]) NextSequential(cursor *int) (T, error) {
	var zero T
	if p.Len() == 0 {
		return zero, ErrEmptyPool
	}
	if *cursor >= -1 && *cursor < len(p.items)-1 {
		*cursor++
	} else {
		*cursor = 0
	}
	return p.items[*cursor], nil
}
