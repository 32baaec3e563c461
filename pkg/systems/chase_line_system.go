package systems

import (
	"github.com/decker502/crossroad/pkg/components"
	"github.com/decker502/crossroad/pkg/config"
	"github.com/decker502/crossroad/pkg/utils"
)

// ChaseLineSystem 死亡线
//
// 目标位置不会落后于最靠前的前沿（所有镜头的最大值），运行期间再匀速前进；
// 显示位置以平滑系数向目标位置插值。
// 玩家落在显示位置之后（含相等）即被追上。
type ChaseLineSystem struct {
	state   components.ChaseStateComponent
	enabled bool
}

// NewChaseLineSystem 创建死亡线
func NewChaseLineSystem(cfg config.ChaseConfig, enabled bool) *ChaseLineSystem {
	return &ChaseLineSystem{
		state: components.ChaseStateComponent{
			TargetX:        cfg.Start(),
			CurrentX:       cfg.Start(),
			Speed:          cfg.Speed(),
			SpeedIncrement: cfg.SpeedIncrement,
			SpeedCap:       cfg.SpeedMax,
			SmoothingRate:  cfg.SmoothingRate,
		},
		enabled: enabled,
	}
}

// Enabled 是否启用
func (s *ChaseLineSystem) Enabled() bool {
	return s.enabled
}

// State 返回当前状态副本
func (s *ChaseLineSystem) State() components.ChaseStateComponent {
	return s.state
}

// Advance 推进死亡线
// edges 为各镜头的前沿位置；isRunning 为 false 时目标位置不变，只做平滑
func (s *ChaseLineSystem) Advance(edges []float64, deltaTime float64, isRunning bool) {
	if !s.enabled {
		return
	}

	// 不落后于最靠前的前沿
	if leading := utils.MaxOf(edges, s.state.TargetX); leading > s.state.TargetX {
		s.state.TargetX = leading
	}

	if isRunning {
		s.state.TargetX += s.state.Speed * deltaTime
	}

	s.state.CurrentX = utils.Lerp(s.state.CurrentX, s.state.TargetX, deltaTime*s.state.SmoothingRate)
}

// Contacts 返回被死亡线追上的位置下标
func (s *ChaseLineSystem) Contacts(positions []float64) []int {
	if !s.enabled {
		return nil
	}
	var hit []int
	for i, x := range positions {
		if x <= s.state.CurrentX {
			hit = append(hit, i)
		}
	}
	return hit
}

// LevelUp 加速一档，不超过上限，返回新速度
func (s *ChaseLineSystem) LevelUp() float64 {
	s.state.Speed = min(s.state.Speed+s.state.SpeedIncrement, s.state.SpeedCap)
	return s.state.Speed
}

// Reset 将目标位置重置到 x（显示位置随后平滑追上）
func (s *ChaseLineSystem) Reset(x float64) {
	s.state.TargetX = x
}
