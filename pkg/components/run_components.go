package components

// RunScore 一局的分数状态
type RunScore struct {
	Score         int
	Multiplier    int // ≥ 1
	LevelProgress int // 距离下一次升级已累计的金币数
	Level         int // 已升级次数
}

// LivesState 一局的生命状态
type LivesState struct {
	Lives        int
	IsRespawning bool
}
