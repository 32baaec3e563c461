// Package app 提供游戏应用的核心包装器
//
// 该包将游戏初始化逻辑从 main 包提取出来：加载关卡配置、打开持久化存储、
// 创建场景管理器，并实现 ebiten.Game 接口。
package app

import (
	"fmt"
	"image/color"
	"io"
	"log"

	"github.com/decker502/crossroad/pkg/config"
	"github.com/decker502/crossroad/pkg/embedded"
	"github.com/decker502/crossroad/pkg/game"
	"github.com/decker502/crossroad/pkg/scenes"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/quasilyte/gdata/v2"
)

// AppName gdata 存档目录名
const AppName = "crossroad"

// Config 定义应用启动配置
type Config struct {
	// Verbose 启用详细日志输出
	Verbose bool
	// ConfigPath 关卡配置文件路径，为空则使用内置配置
	ConfigPath string
	// Seed 随机种子，0 表示使用配置中的种子（配置也为 0 时按时间取种）
	Seed uint64
	// Players 玩家数量覆盖，0 表示使用配置
	Players int
	// SkipMenu 跳过标题界面直接开始
	SkipMenu bool
	// Mute 不创建音频上下文
	Mute bool
	// Volume 音效音量，0 表示使用默认音量
	Volume float64
}

// App 是游戏应用的核心包装器，实现 ebiten.Game 接口
type App struct {
	sceneManager             *scenes.SceneManager
	store                    *game.CounterStore
	verbose                  bool
	pendingWindowSizeReset   bool // 延迟设置窗口大小标志
	windowSizeResetCountdown int  // 延迟帧数
}

// LoadRunConfig 按启动配置加载关卡配置
func LoadRunConfig(cfg Config) (*config.RunConfig, error) {
	var (
		runCfg *config.RunConfig
		err    error
	)
	if cfg.ConfigPath != "" {
		runCfg, err = config.LoadRunConfig(cfg.ConfigPath)
	} else {
		var data []byte
		data, err = embedded.ReadFile(embedded.DefaultRunConfigPath)
		if err != nil {
			return nil, fmt.Errorf("内置关卡配置读取失败: %w", err)
		}
		runCfg, err = config.ParseRunConfig(data)
	}
	if err != nil {
		return nil, err
	}

	if cfg.Players > 0 {
		if err := runCfg.SetPlayerCount(cfg.Players); err != nil {
			return nil, err
		}
	}
	return runCfg, nil
}

// NewApp 创建并初始化游戏应用
//
// 调用此函数前，必须先调用 embedded.Init() 初始化嵌入资源。
func NewApp(cfg Config) (*App, error) {
	// 配置日志输出
	if !cfg.Verbose {
		log.SetOutput(io.Discard)
		log.SetFlags(0)
	}

	runCfg, err := LoadRunConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("关卡配置加载失败: %w", err)
	}
	log.Printf("[App] Loaded run config %s (%d lanes, %d drops, %d powerups)",
		runCfg.Level, len(runCfg.Lanes), len(runCfg.Drops), len(runCfg.Powerups))

	// 打开存档，失败时降级为内存计数器
	gdataManager, err := gdata.Open(gdata.Config{AppName: AppName})
	if err != nil {
		log.Printf("[App] Warning: failed to open gdata, counters will not persist: %v", err)
		gdataManager = nil
	}
	store := game.NewCounterStore(gdataManager)

	// 每个进程只能创建一个音频上下文
	var audioContext *audio.Context
	if !cfg.Mute {
		audioContext = audio.NewContext(scenes.SampleRate)
	}
	audioManager := scenes.NewAudioManager(audioContext, runCfg.Sounds.Tones)
	if cfg.Volume > 0 {
		audioManager.SetVolume(cfg.Volume)
	}

	sceneManager := scenes.NewSceneManager()
	sceneManager.SetSceneFactory(func(name string) (scenes.Scene, error) {
		switch name {
		case scenes.SceneMenu:
			return scenes.NewMenuScene(runCfg, store, sceneManager), nil
		case scenes.SceneRun:
			return scenes.NewRunScene(runCfg, store, sceneManager, audioManager, cfg.Seed)
		}
		return nil, fmt.Errorf("unknown scene %q", name)
	})

	first := scenes.SceneMenu
	if cfg.SkipMenu {
		log.Printf("[App] SkipMenu enabled, starting run directly")
		first = scenes.SceneRun
	}
	if !sceneManager.Load(first) {
		return nil, fmt.Errorf("无法创建场景 %s", first)
	}

	return &App{
		sceneManager: sceneManager,
		store:        store,
		verbose:      cfg.Verbose,
	}, nil
}

// Update 更新游戏逻辑
// 每个 tick 调用一次（通常每秒 60 次）
func (a *App) Update() error {
	// 延迟设置窗口大小（退出全屏后需要等待几帧才能正确设置）
	if a.pendingWindowSizeReset {
		a.windowSizeResetCountdown--
		if a.windowSizeResetCountdown <= 0 {
			ebiten.SetWindowSize(scenes.ScreenWidth, scenes.ScreenHeight)
			log.Printf("[App] Delayed SetWindowSize(%d, %d)", scenes.ScreenWidth, scenes.ScreenHeight)
			a.pendingWindowSizeReset = false
		}
	}

	// F11 切换全屏
	if inpututil.IsKeyJustPressed(ebiten.KeyF11) {
		if ebiten.IsFullscreen() {
			ebiten.SetFullscreen(false)
			if ebiten.IsWindowMaximized() || ebiten.IsWindowMinimized() {
				ebiten.RestoreWindow()
			}
			a.pendingWindowSizeReset = true
			a.windowSizeResetCountdown = 3
			log.Printf("[App] Exit fullscreen, will reset window size in 3 frames")
		} else {
			ebiten.SetFullscreen(true)
		}
	}

	deltaTime := 1.0 / float64(ebiten.TPS())
	a.sceneManager.Update(deltaTime)
	return nil
}

// Draw 绘制游戏画面
// 每帧调用一次
func (a *App) Draw(screen *ebiten.Image) {
	a.sceneManager.Draw(screen)
}

// DrawFinalScreen 实现 FinalScreenDrawer 接口
// 用于控制全屏时的缩放和 letterbox 颜色
func (a *App) DrawFinalScreen(screen ebiten.FinalScreen, offscreen *ebiten.Image, geoM ebiten.GeoM) {
	screen.Fill(color.Black)
	op := &ebiten.DrawImageOptions{}
	op.GeoM = geoM
	op.Filter = ebiten.FilterLinear
	screen.DrawImage(offscreen, op)
}

// Layout 返回游戏的逻辑屏幕尺寸
// 此尺寸独立于实际窗口大小，Ebitengine 会自动处理缩放
func (a *App) Layout(outsideWidth, outsideHeight int) (int, int) {
	return scenes.ScreenWidth, scenes.ScreenHeight
}

// SaveOnExit 窗口关闭时保存当前场景与计数器
func (a *App) SaveOnExit() bool {
	ok := a.sceneManager.SaveOnExit()
	if err := a.store.Flush(); err != nil {
		log.Printf("[App] Warning: failed to save counters: %v", err)
		return false
	}
	return ok
}

// IsVerbose 返回是否启用了详细日志
func (a *App) IsVerbose() bool {
	return a.verbose
}
