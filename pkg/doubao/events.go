package doubao

import "strconv"

// ================== 协议事件 ==================

// 事件 ID（frame 的 event 字段）
const (
	// 连接级事件（客户端 → 服务端）
	EventStartConnection  int32 = 1
	EventFinishConnection int32 = 2

	// 连接级事件（服务端 → 客户端）
	EventConnectionStarted  int32 = 50
	EventConnectionFailed   int32 = 51
	EventConnectionFinished int32 = 52

	// 会话级事件（客户端 → 服务端）
	EventStartSession  int32 = 100
	EventCancelSession int32 = 101
	EventFinishSession int32 = 102

	// 会话级事件（服务端 → 客户端）
	EventSessionStarted  int32 = 150
	EventSessionFinished int32 = 152
	EventSessionFailed   int32 = 153
	EventUsageResponse   int32 = 154

	// 任务事件
	EventTaskRequest int32 = 200
	EventSayHello    int32 = 300

	// TTS 事件
	EventTTSSentenceStart int32 = 350
	EventTTSSentenceEnd   int32 = 351
	EventTTSResponse      int32 = 352
	EventTTSEnded         int32 = 359

	// ASR 事件
	EventASRInfo     int32 = 450
	EventASRResponse int32 = 451
	EventASREnded    int32 = 459

	// 对话事件
	EventChatTTSText  int32 = 500
	EventChatResponse int32 = 550
	EventChatEnded    int32 = 559
)

var eventNames = map[int32]string{
	EventStartConnection:    "StartConnection",
	EventFinishConnection:   "FinishConnection",
	EventConnectionStarted:  "ConnectionStarted",
	EventConnectionFailed:   "ConnectionFailed",
	EventConnectionFinished: "ConnectionFinished",
	EventStartSession:       "StartSession",
	EventCancelSession:      "CancelSession",
	EventFinishSession:      "FinishSession",
	EventSessionStarted:     "SessionStarted",
	EventSessionFinished:    "SessionFinished",
	EventSessionFailed:      "SessionFailed",
	EventUsageResponse:      "UsageResponse",
	EventTaskRequest:        "TaskRequest",
	EventSayHello:           "SayHello",
	EventTTSSentenceStart:   "TTSSentenceStart",
	EventTTSSentenceEnd:     "TTSSentenceEnd",
	EventTTSResponse:        "TTSResponse",
	EventTTSEnded:           "TTSEnded",
	EventASRInfo:            "ASRInfo",
	EventASRResponse:        "ASRResponse",
	EventASREnded:           "ASREnded",
	EventChatTTSText:        "ChatTTSText",
	EventChatResponse:       "ChatResponse",
	EventChatEnded:          "ChatEnded",
}

// EventName 返回事件名（用于日志），未知事件返回十进制数字
func EventName(event int32) string {
	if name, ok := eventNames[event]; ok {
		return name
	}
	return strconv.FormatInt(int64(event), 10)
}
