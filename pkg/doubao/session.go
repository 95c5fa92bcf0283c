package doubao

import (
	"encoding/json"
	"fmt"
	"maps"
	"time"
)

// ================== 会话配置 ==================

// SessionConfig StartSession 的 JSON 载荷
type SessionConfig struct {
	ASR    ASRConfig    `json:"asr" yaml:"asr"`
	TTS    TTSConfig    `json:"tts" yaml:"tts"`
	Dialog DialogConfig `json:"dialog" yaml:"dialog"`
}

// ASRConfig 语音识别配置
type ASRConfig struct {
	Extra map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// TTSConfig 语音合成配置
type TTSConfig struct {
	Speaker     string      `json:"speaker,omitempty" yaml:"speaker,omitempty"`
	AudioConfig AudioConfig `json:"audio_config" yaml:"audio_config"`
}

// AudioConfig 下行音频参数
type AudioConfig struct {
	Channel    int    `json:"channel" yaml:"channel"`
	Format     string `json:"format" yaml:"format"`
	SampleRate int    `json:"sample_rate" yaml:"sample_rate"`
}

// DialogConfig 对话配置
type DialogConfig struct {
	BotName       string         `json:"bot_name,omitempty" yaml:"bot_name,omitempty"`
	SystemRole    string         `json:"system_role,omitempty" yaml:"system_role,omitempty"`
	SpeakingStyle string         `json:"speaking_style,omitempty" yaml:"speaking_style,omitempty"`
	Extra         map[string]any `json:"extra,omitempty" yaml:"extra,omitempty"`
}

// DefaultSessionConfig 默认会话配置
//
// 下行音频为 24kHz 单声道 s16le PCM；端点平滑窗口 1500ms。
func DefaultSessionConfig() *SessionConfig {
	return &SessionConfig{
		ASR: ASRConfig{
			Extra: map[string]any{
				"end_smooth_window_ms": 1500,
				"enable_custom_vad":    false,
				"enable_two_pass":      false,
			},
		},
		TTS: TTSConfig{
			Speaker: "zh_female_vv_jupiter_bigtts",
			AudioConfig: AudioConfig{
				Channel:    1,
				Format:     "pcm_s16le",
				SampleRate: 24000,
			},
		},
		Dialog: DialogConfig{
			BotName: "豆包",
			Extra: map[string]any{
				"model":        "O2.0",
				"input_mod":    "audio",
				"strict_audit": false,
				"recv_timeout": 10,
			},
		},
	}
}

// Clone 返回可独立修改的副本（Extra map 深拷贝）
func (c *SessionConfig) Clone() *SessionConfig {
	out := *c
	out.ASR.Extra = maps.Clone(c.ASR.Extra)
	out.Dialog.Extra = maps.Clone(c.Dialog.Extra)
	return &out
}

// Model 返回对话模型标识
func (c *SessionConfig) Model() string {
	if m, ok := c.Dialog.Extra["model"].(string); ok {
		return m
	}
	return ""
}

// SetModel 设置对话模型标识
func (c *SessionConfig) SetModel(model string) {
	if c.Dialog.Extra == nil {
		c.Dialog.Extra = make(map[string]any)
	}
	c.Dialog.Extra["model"] = model
}

// taskTextPayload 文本任务载荷（input_mod/input_mode 双写兼容两代服务端）
type taskTextPayload struct {
	Text      string `json:"text"`
	InputText string `json:"input_text"`
	InputMod  string `json:"input_mod"`
	InputMode string `json:"input_mode"`
}

// NewSessionID 生成会话 ID：session_<毫秒时间戳>
func NewSessionID() string {
	return fmt.Sprintf("session_%d", time.Now().UnixMilli())
}

// ================== 上行帧构造 ==================

// emptyJSON 空 JSON 载荷
var emptyJSON = []byte("{}")

// NewStartConnectionFrame 构造 StartConnection 帧
func NewStartConnectionFrame() *Frame {
	return &Frame{
		Type:          MsgTypeFullClient,
		Flags:         FlagEvent,
		Serialization: SerializationJSON,
		Compression:   CompressionGzip,
		Event:         EventStartConnection,
		Payload:       emptyJSON,
	}
}

// NewFinishConnectionFrame 构造 FinishConnection 帧
func NewFinishConnectionFrame() *Frame {
	return &Frame{
		Type:          MsgTypeFullClient,
		Flags:         FlagEvent,
		Serialization: SerializationJSON,
		Compression:   CompressionGzip,
		Event:         EventFinishConnection,
		Payload:       emptyJSON,
	}
}

// NewStartSessionFrame 构造 StartSession 帧
func NewStartSessionFrame(sessionID string, config *SessionConfig) (*Frame, error) {
	payload, err := json.Marshal(config)
	if err != nil {
		return nil, fmt.Errorf("marshal session config: %w", err)
	}
	return &Frame{
		Type:          MsgTypeFullClient,
		Flags:         FlagEvent,
		Serialization: SerializationJSON,
		Compression:   CompressionGzip,
		Event:         EventStartSession,
		SessionID:     sessionID,
		Payload:       payload,
	}, nil
}

// NewFinishSessionFrame 构造 FinishSession 帧
func NewFinishSessionFrame(sessionID string) *Frame {
	return &Frame{
		Type:          MsgTypeFullClient,
		Flags:         FlagEvent,
		Serialization: SerializationJSON,
		Compression:   CompressionGzip,
		Event:         EventFinishSession,
		SessionID:     sessionID,
		Payload:       emptyJSON,
	}
}

// NewAudioTaskFrame 构造音频 TaskRequest 帧（原始 PCM，gzip 压缩）
func NewAudioTaskFrame(sessionID string, audio []byte) *Frame {
	return &Frame{
		Type:          MsgTypeAudioOnlyClient,
		Flags:         FlagEvent,
		Serialization: SerializationNone,
		Compression:   CompressionGzip,
		Event:         EventTaskRequest,
		SessionID:     sessionID,
		Payload:       audio,
	}
}

// NewTextTaskFrame 构造文本 TaskRequest 帧
func NewTextTaskFrame(sessionID, text string) (*Frame, error) {
	payload, err := json.Marshal(taskTextPayload{
		Text:      text,
		InputText: text,
		InputMod:  "text",
		InputMode: "text",
	})
	if err != nil {
		return nil, fmt.Errorf("marshal text task: %w", err)
	}
	return &Frame{
		Type:          MsgTypeFullClient,
		Flags:         FlagEvent,
		Serialization: SerializationJSON,
		Compression:   CompressionGzip,
		Event:         EventTaskRequest,
		SessionID:     sessionID,
		Payload:       payload,
	}, nil
}
