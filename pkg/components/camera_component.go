package components

// CameraComponent 跟随玩家的镜头代理
//
// 镜头位置即"前沿"：车道生成和死亡线都以它为准，而不是玩家本身。
type CameraComponent struct {
	Player     int     // 跟随的玩家序号
	X          float64 // 前进方向
	Z          float64 // 横向
	FollowRate float64 // 每秒插值系数（原版为 3）
}
