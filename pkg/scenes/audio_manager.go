package scenes

import (
	"log"
	"math"

	"github.com/decker502/crossroad/pkg/config"
	"github.com/hajimehoshi/ebiten/v2/audio"
)

// SampleRate 音频上下文采样率
const SampleRate = 48000

// DefaultSoundVolume 默认音效音量
const DefaultSoundVolume = 0.4

// 首尾淡入淡出时长（秒）
const toneFade = 0.005

// AudioManager 音效播放器
//
// 没有音频资源文件，每个音效按配置合成一段正弦波，首次播放时生成并缓存播放器。
// context 为 nil 时进入静音模式，PlaySound 总是返回 false。
type AudioManager struct {
	context *audio.Context
	tones   map[string]config.ToneSpec
	players map[string]*audio.Player // 音效播放器缓存（音效ID -> 播放器，nil 表示无法播放）
	volume  float64
}

// NewAudioManager 创建音效播放器
// ctx 可为 nil（静音模式）
func NewAudioManager(ctx *audio.Context, tones map[string]config.ToneSpec) *AudioManager {
	return &AudioManager{
		context: ctx,
		tones:   tones,
		players: make(map[string]*audio.Player),
		volume:  DefaultSoundVolume,
	}
}

// Enabled 是否有可用的音频上下文
func (am *AudioManager) Enabled() bool {
	return am != nil && am.context != nil
}

// SetVolume 设置音效音量 (0.0 ~ 1.0)
func (am *AudioManager) SetVolume(volume float64) {
	am.volume = max(0, min(volume, 1))
	for _, player := range am.players {
		if player != nil {
			player.SetVolume(am.volume)
		}
	}
}

// PlaySound 播放一次音效，返回是否真正发声
func (am *AudioManager) PlaySound(soundID string) bool {
	if !am.Enabled() {
		return false
	}

	player := am.getSoundPlayer(soundID)
	if player == nil {
		return false
	}

	if err := player.Rewind(); err != nil {
		log.Printf("[AudioManager] Warning: Failed to rewind sound %s: %v", soundID, err)
	}
	player.Play()
	return true
}

func (am *AudioManager) getSoundPlayer(soundID string) *audio.Player {
	if player, ok := am.players[soundID]; ok {
		return player
	}

	tone, ok := am.tones[soundID]
	if !ok {
		log.Printf("[AudioManager] Warning: no tone configured for sound %s", soundID)
		am.players[soundID] = nil
		return nil
	}

	player := am.context.NewPlayerFromBytes(SynthesizeTone(tone, SampleRate))
	player.SetVolume(am.volume)
	am.players[soundID] = player
	log.Printf("[AudioManager] Synthesized sound %s (%.0f Hz, %.2fs)", soundID, tone.Frequency, tone.Duration)
	return player
}

// SynthesizeTone 生成 16 位小端立体声 PCM 正弦波
// 首尾各 5ms 线性淡入淡出，避免爆音
func SynthesizeTone(tone config.ToneSpec, sampleRate int) []byte {
	frames := int(tone.Duration * float64(sampleRate))
	if frames <= 0 || tone.Frequency <= 0 {
		return nil
	}
	fade := max(1, int(toneFade*float64(sampleRate)))

	pcm := make([]byte, frames*4)
	for i := 0; i < frames; i++ {
		gain := 1.0
		if i < fade {
			gain = float64(i) / float64(fade)
		} else if rest := frames - 1 - i; rest < fade {
			gain = float64(rest) / float64(fade)
		}

		v := int16(math.Sin(2*math.Pi*tone.Frequency*float64(i)/float64(sampleRate)) * gain * math.MaxInt16)
		lo, hi := byte(v), byte(uint16(v)>>8)
		pcm[4*i] = lo
		pcm[4*i+1] = hi
		pcm[4*i+2] = lo
		pcm[4*i+3] = hi
	}
	return pcm
}
