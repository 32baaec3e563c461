package utils

import (
	"errors"
	"testing"
)

// TestBuildWeightedPoolExpansion 验证展开长度等于权重和，且元素按输入顺序连续出现
func TestBuildWeightedPoolExpansion(t *testing.T) {
	tests := []struct {
		name    string
		entries []WeightedEntry[string]
		want    []string
	}{
		{
			name:    "单条目",
			entries: []WeightedEntry[string]{{Item: "road", Weight: 2}},
			want:    []string{"road", "road"},
		},
		{
			name: "多条目保持顺序",
			entries: []WeightedEntry[string]{
				{Item: "grass", Weight: 1},
				{Item: "road", Weight: 3},
				{Item: "river", Weight: 2},
			},
			want: []string{"grass", "road", "road", "road", "river", "river"},
		},
		{
			name: "重复条目不合并",
			entries: []WeightedEntry[string]{
				{Item: "road", Weight: 1},
				{Item: "grass", Weight: 1},
				{Item: "road", Weight: 1},
			},
			want: []string{"road", "grass", "road"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := BuildWeightedPool(tt.entries)
			if err != nil {
				t.Fatalf("BuildWeightedPool() error: %v", err)
			}

			total := 0
			for _, e := range tt.entries {
				total += e.Weight
			}
			if pool.Len() != total {
				t.Fatalf("Len() = %d, want %d", pool.Len(), total)
			}

			for i, w := range tt.want {
				if got := pool.At(i); got != w {
					t.Errorf("At(%d) = %q, want %q", i, got, w)
				}
			}
		})
	}
}

func TestBuildWeightedPoolErrors(t *testing.T) {
	tests := []struct {
		name    string
		entries []WeightedEntry[int]
		wantErr error
	}{
		{"空输入", nil, ErrEmptyPool},
		{"零权重", []WeightedEntry[int]{{Item: 1, Weight: 1}, {Item: 2, Weight: 0}}, ErrInvalidWeight},
		{"负权重", []WeightedEntry[int]{{Item: 1, Weight: -3}}, ErrInvalidWeight},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pool, err := BuildWeightedPool(tt.entries)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if pool != nil {
				t.Error("pool should be nil on error")
			}
		})
	}
}

// TestSampleUniformFixture 固定 PRNG 夹具：PCG-DXSM，NewPCG(42, 0)
// 池 [A, B, B, B] 的前四次抽取必须为 B, A, B, B
func TestSampleUniformFixture(t *testing.T) {
	pool, err := BuildWeightedPool([]WeightedEntry[string]{
		{Item: "A", Weight: 1},
		{Item: "B", Weight: 3},
	})
	if err != nil {
		t.Fatalf("BuildWeightedPool() error: %v", err)
	}

	rng := NewRand(42)
	want := []string{"B", "A", "B", "B"}
	for i, w := range want {
		got, err := pool.SampleUniform(rng)
		if err != nil {
			t.Fatalf("SampleUniform() error: %v", err)
		}
		if got != w {
			t.Errorf("draw %d = %s, want %s", i, got, w)
		}
	}
}

func TestSampleUniformReproducible(t *testing.T) {
	pool, _ := BuildWeightedPool([]WeightedEntry[int]{
		{Item: 0, Weight: 5},
		{Item: 1, Weight: 7},
		{Item: 2, Weight: 1},
	})

	draw := func(seed uint64) []int {
		rng := NewRand(seed)
		out := make([]int, 200)
		for i := range out {
			out[i], _ = pool.SampleUniform(rng)
		}
		return out
	}

	a, b := draw(7), draw(7)
	for i := range a {
		if a[i] != b[i] {
			t.Fatalf("draw %d differs between identical seeds: %d vs %d", i, a[i], b[i])
		}
	}
}

func TestSampleUniformEmptyPool(t *testing.T) {
	var pool *WeightedPool[string]
	if _, err := pool.SampleUniform(NewRand(1)); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("expected ErrEmptyPool, got %v", err)
	}
	cursor := -1
	if _, err := pool.NextSequential(&cursor); !errors.Is(err, ErrEmptyPool) {
		t.Errorf("expected ErrEmptyPool, got %v", err)
	}
}

func TestNextSequentialCycles(t *testing.T) {
	pool, _ := BuildWeightedPool([]WeightedEntry[string]{
		{Item: "coin", Weight: 2},
		{Item: "gem", Weight: 1},
	})

	cursor := -1
	want := []string{"coin", "coin", "gem", "coin", "coin", "gem"}
	wantCursor := []int{0, 1, 2, 0, 1, 2}
	for i, w := range want {
		got, err := pool.NextSequential(&cursor)
		if err != nil {
			t.Fatalf("NextSequential() error: %v", err)
		}
		if got != w || cursor != wantCursor[i] {
			t.Errorf("step %d = (%s, cursor %d), want (%s, cursor %d)", i, got, cursor, w, wantCursor[i])
		}
	}

	// 越界游标回绕到 0
	cursor = 99
	if got, _ := pool.NextSequential(&cursor); got != "coin" || cursor != 0 {
		t.Errorf("out-of-range cursor should wrap to 0, got (%s, %d)", got, cursor)
	}
}
