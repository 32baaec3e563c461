package components

// PlayerComponent 玩家实体的核心可见状态
//
// 移动、碰撞由外部实体自行处理，这里只保存核心需要读取的位置与激活状态。
type PlayerComponent struct {
	Index     int // 玩家序号（0 或 1）
	Character int // 当前角色下标
	X, Z      float64
	Rotation  float64
	IsActive  bool
	Speed     float64 // 最近一次设置的移动速度，0 表示未设置
}

// RespawnMarkerComponent 复活标记
// 玩家死亡后出现在其最后位置，可被移动，复活时玩家回到标记处
type RespawnMarkerComponent struct {
	Player   int
	X, Z     float64
	Rotation float64
	IsActive bool
}
