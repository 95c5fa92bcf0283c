package doubao

import (
	"bytes"
	"compress/gzip"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
)

// ================== 协议常量 ==================

// MessageType 消息类型（header 第二字节高 4 位）
type MessageType byte

// Flag 消息标志位（header 第二字节低 4 位）
type Flag byte

// Serialization 序列化方式（header 第三字节高 4 位）
type Serialization byte

// Compression 压缩方式（header 第三字节低 4 位）
type Compression byte

const (
	protocolVersion byte = 0b0001
	headerSizeWords byte = 0b0001 // 单位 4 字节

	// Message Types
	MsgTypeFullClient      MessageType = 0b0001
	MsgTypeAudioOnlyClient MessageType = 0b0010
	MsgTypeFullServer      MessageType = 0b1001
	MsgTypeAudioOnlyServer MessageType = 0b1011
	MsgTypeError           MessageType = 0b1111

	// MsgTypeServerACK 音频应答复用 AudioOnlyServer 类型
	MsgTypeServerACK = MsgTypeAudioOnlyServer

	// Message Type Specific Flags（其余位保留）
	FlagNone     Flag = 0b0000
	FlagSequence Flag = 0b0010
	FlagEvent    Flag = 0b0100

	// Serialization Types
	SerializationNone Serialization = 0b0000
	SerializationJSON Serialization = 0b0001

	// Compression Types
	CompressionNone Compression = 0b0000
	CompressionGzip Compression = 0b0001
)

// 解码错误
var (
	ErrFrameTooShort      = errors.New("doubao: frame too short")
	ErrUnknownMessageType = errors.New("doubao: unknown message type")
)

// ================== 协议帧 ==================

// Frame 协议帧
//
// 协议格式:
// - Header (4 bytes):
//   - (4bits) version + (4bits) header_size
//   - (4bits) message_type + (4bits) flags
//   - (4bits) serialization + (4bits) compression
//   - (8bits) reserved
//
// - Body:
//   - [optional] sequence (4 bytes BE, flags&0b0010)
//   - [optional] event (4 bytes BE, flags&0b0100)
//   - [optional] session_id (int32 BE len + data; 服务端响应恒有该字段)
//   - 错误帧以 error_code (uint32 BE) 取代以上前缀
//   - payload_size (uint32 BE) + payload
type Frame struct {
	Type          MessageType
	Flags         Flag
	Serialization Serialization
	Compression   Compression
	Sequence      int32
	Event         int32
	SessionID     string
	ErrorCode     uint32
	Payload       []byte

	// PayloadCorrupt 标记 gzip 解压失败；此时 Payload 保留原始字节
	PayloadCorrupt bool
}

// PayloadKind Payload 的逻辑类型
type PayloadKind int

const (
	PayloadBinary PayloadKind = iota
	PayloadJSON
	PayloadText
)

// isServerResponse 服务端响应帧恒带 session_id 长度前缀
func isServerResponse(t MessageType) bool {
	return t == MsgTypeFullServer || t == MsgTypeAudioOnlyServer
}

// HasEvent 是否携带事件 ID
func (f *Frame) HasEvent() bool { return f.Flags&FlagEvent != 0 }

// HasSequence 是否携带序号
func (f *Frame) HasSequence() bool { return f.Flags&FlagSequence != 0 }

// PayloadKind 返回 Payload 的逻辑类型：
// 非 JSON 序列化为原始字节；JSON 序列化按内容降级为纯文本
func (f *Frame) PayloadKind() PayloadKind {
	if f.Serialization != SerializationJSON || f.PayloadCorrupt {
		return PayloadBinary
	}
	if json.Valid(f.Payload) {
		return PayloadJSON
	}
	return PayloadText
}

// JSON 解析 Payload 为 JSON
func (f *Frame) JSON(v any) error {
	if err := json.Unmarshal(f.Payload, v); err != nil {
		return fmt.Errorf("doubao: unmarshal payload: %w", err)
	}
	return nil
}

// Text 返回 Payload 的 UTF-8 文本形式
func (f *Frame) Text() string { return string(f.Payload) }

// ================== 编码 ==================

// Marshal 序列化协议帧
//
// 前缀字段顺序固定为 sequence、event、session_id。客户端请求仅在
// session_id 非空时写入该字段；服务端响应类型恒写入（长度可为 0）。
func Marshal(f *Frame) ([]byte, error) {
	buf := new(bytes.Buffer)

	// Header (4 bytes)
	buf.WriteByte(protocolVersion<<4 | headerSizeWords)
	buf.WriteByte(byte(f.Type)<<4 | byte(f.Flags))
	buf.WriteByte(byte(f.Serialization)<<4 | byte(f.Compression))
	buf.WriteByte(0x00) // reserved

	if f.Type == MsgTypeError {
		// 错误帧：error_code 取代全部前缀字段
		if err := binary.Write(buf, binary.BigEndian, f.ErrorCode); err != nil {
			return nil, fmt.Errorf("write error code: %w", err)
		}
	} else {
		if f.Flags&FlagSequence != 0 {
			if err := binary.Write(buf, binary.BigEndian, f.Sequence); err != nil {
				return nil, fmt.Errorf("write sequence: %w", err)
			}
		}
		if f.Flags&FlagEvent != 0 {
			if err := binary.Write(buf, binary.BigEndian, f.Event); err != nil {
				return nil, fmt.Errorf("write event: %w", err)
			}
		}
		if isServerResponse(f.Type) || f.SessionID != "" {
			if err := binary.Write(buf, binary.BigEndian, int32(len(f.SessionID))); err != nil {
				return nil, fmt.Errorf("write session id length: %w", err)
			}
			buf.WriteString(f.SessionID)
		}
	}

	payload := f.Payload
	if f.Compression == CompressionGzip && len(payload) > 0 {
		compressed, err := gzipCompress(payload)
		if err != nil {
			return nil, fmt.Errorf("gzip compress: %w", err)
		}
		payload = compressed
	}

	if err := binary.Write(buf, binary.BigEndian, uint32(len(payload))); err != nil {
		return nil, fmt.Errorf("write payload size: %w", err)
	}
	buf.Write(payload)

	return buf.Bytes(), nil
}

// ================== 解码 ==================

// Unmarshal 反序列化协议帧
//
// 仅识别服务端响应与错误帧；其它类型返回 ErrUnknownMessageType。
// gzip 解压失败不视为错误：保留原始字节并置 PayloadCorrupt。
func Unmarshal(data []byte) (*Frame, error) {
	if len(data) < 8 {
		return nil, fmt.Errorf("%w: %d bytes", ErrFrameTooShort, len(data))
	}

	headerSize := int(data[0] & 0x0f)
	f := &Frame{
		Type:          MessageType(data[1] >> 4),
		Flags:         Flag(data[1] & 0x0f),
		Serialization: Serialization(data[2] >> 4),
		Compression:   Compression(data[2] & 0x0f),
	}

	r := bytes.NewReader(data)
	if _, err := r.Seek(int64(headerSize)*4, io.SeekStart); err != nil {
		return nil, fmt.Errorf("%w: header size %d", ErrFrameTooShort, headerSize)
	}

	switch f.Type {
	case MsgTypeFullServer, MsgTypeAudioOnlyServer:
		if f.Flags&FlagSequence != 0 {
			if err := binary.Read(r, binary.BigEndian, &f.Sequence); err != nil {
				return nil, fmt.Errorf("read sequence: %w", err)
			}
		}
		if f.Flags&FlagEvent != 0 {
			if err := binary.Read(r, binary.BigEndian, &f.Event); err != nil {
				return nil, fmt.Errorf("read event: %w", err)
			}
		}
		// session_id 长度为有符号 int32，0 或负值均视为空
		var sessionIDLen int32
		if err := binary.Read(r, binary.BigEndian, &sessionIDLen); err != nil {
			return nil, fmt.Errorf("read session id length: %w", err)
		}
		if sessionIDLen > 0 {
			if int64(sessionIDLen) > int64(r.Len()) {
				return nil, fmt.Errorf("session id length %d exceeds frame", sessionIDLen)
			}
			sessionID := make([]byte, sessionIDLen)
			if _, err := io.ReadFull(r, sessionID); err != nil {
				return nil, fmt.Errorf("read session id: %w", err)
			}
			f.SessionID = string(sessionID)
		}

	case MsgTypeError:
		if err := binary.Read(r, binary.BigEndian, &f.ErrorCode); err != nil {
			return nil, fmt.Errorf("read error code: %w", err)
		}

	default:
		return nil, fmt.Errorf("%w: 0b%04b", ErrUnknownMessageType, byte(f.Type))
	}

	var payloadSize uint32
	if err := binary.Read(r, binary.BigEndian, &payloadSize); err != nil {
		return nil, fmt.Errorf("read payload size: %w", err)
	}
	if payloadSize > 0 {
		if int64(payloadSize) > int64(r.Len()) {
			return nil, fmt.Errorf("payload size %d exceeds frame", payloadSize)
		}
		f.Payload = make([]byte, payloadSize)
		if _, err := io.ReadFull(r, f.Payload); err != nil {
			return nil, fmt.Errorf("read payload: %w", err)
		}

		if f.Compression == CompressionGzip {
			decompressed, err := gzipDecompress(f.Payload)
			if err != nil {
				f.PayloadCorrupt = true
			} else {
				f.Payload = decompressed
			}
		}
	}

	return f, nil
}

// gzipCompress gzip 压缩
func gzipCompress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	if _, err := w.Write(data); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// gzipDecompress gzip 解压
func gzipDecompress(data []byte) ([]byte, error) {
	r, err := gzip.NewReader(bytes.NewBuffer(data))
	if err != nil {
		return nil, err
	}
	defer r.Close()
	return io.ReadAll(r)
}
