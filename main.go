package main

import (
	"flag"
	"log"
	"os"

	"github.com/decker502/crossroad/pkg/app"
	"github.com/decker502/crossroad/pkg/embedded"
	"github.com/decker502/crossroad/pkg/scenes"
	"github.com/hajimehoshi/ebiten/v2"
)

var (
	verbose    = flag.Bool("verbose", false, "显示详细调试信息")
	configPath = flag.String("config", "", "关卡配置文件路径（默认使用内置配置）")
	seed       = flag.Uint64("seed", 0, "随机种子（0 = 使用配置或按时间取种）")
	players    = flag.Int("players", 0, "玩家数量 1 或 2（0 = 使用配置）")
	skipMenu   = flag.Bool("play", false, "跳过标题界面直接开始")
	mute       = flag.Bool("mute", false, "关闭音效")
	volume     = flag.Float64("volume", scenes.DefaultSoundVolume, "音效音量 (0.0 ~ 1.0)")
)

func main() {
	flag.Parse()

	// 初始化嵌入资源（dataFS 在 embed.go 中声明）
	embedded.Init(dataFS)

	gameApp, err := app.NewApp(app.Config{
		Verbose:    *verbose,
		ConfigPath: *configPath,
		Seed:       *seed,
		Players:    *players,
		SkipMenu:   *skipMenu,
		Mute:       *mute,
		Volume:     *volume,
	})
	if err != nil {
		// NewApp 可能已关闭日志输出
		log.SetOutput(os.Stderr)
		log.Fatalf("游戏初始化失败: %v", err)
	}

	ebiten.SetWindowSize(scenes.ScreenWidth, scenes.ScreenHeight)
	ebiten.SetWindowTitle("Crossroad")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	if err := ebiten.RunGame(gameApp); err != nil && err != ebiten.Termination {
		log.Fatal(err)
	}

	// 窗口关闭后写回计数器
	if !gameApp.SaveOnExit() {
		log.Printf("[Main] Warning: counters may not have been saved")
	}
}
