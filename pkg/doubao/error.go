package doubao

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
)

// Error 豆包实时对话协议错误（来自 ERROR_INFO 帧）
type Error struct {
	// Code 协议错误码
	Code uint32 `json:"code"`

	// Message 错误消息
	Message string `json:"message"`

	// Details 原始 JSON 载荷（若可解析）
	Details map[string]any `json:"details,omitempty"`
}

func (e *Error) Error() string {
	return fmt.Sprintf("doubao: %s (code=%d)", e.Message, e.Code)
}

// AsError 尝试将 error 转换为 *Error
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// ErrorFromFrame 从 ERROR_INFO 帧提取错误
//
// 消息优先取载荷 JSON 的 error、message、code 字段，
// 非 JSON 载荷按 UTF-8 文本处理。
func ErrorFromFrame(f *Frame) *Error {
	e := &Error{Code: f.ErrorCode}

	var details map[string]any
	if len(f.Payload) > 0 && json.Unmarshal(f.Payload, &details) == nil {
		e.Details = details
		switch {
		case stringField(details, "error") != "":
			e.Message = stringField(details, "error")
		case stringField(details, "message") != "":
			e.Message = stringField(details, "message")
		case details["code"] != nil:
			e.Message = fmt.Sprint(details["code"])
		}
	}
	if e.Message == "" {
		if len(f.Payload) > 0 {
			e.Message = f.Text()
		} else {
			e.Message = "error code " + strconv.FormatUint(uint64(f.ErrorCode), 10)
		}
	}
	return e
}

func stringField(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}
