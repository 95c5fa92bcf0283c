// Package doubao 提供豆包端到端实时语音对话协议的编解码与建连
//
// 本包服务于代理场景：只做协议层，不做事件分发。
//
//   - Frame / Marshal / Unmarshal: 二进制协议帧编解码
//   - Client: 握手鉴权头与 WebSocket 建连
//   - SessionConfig 与 New*Frame 构造器: 上行控制帧
//
// # 快速开始
//
// 建立连接并发送 StartConnection：
//
//	client := doubao.NewClient(appID, accessKey, secretKey)
//	conn, err := client.DialContext(ctx, doubao.NewConnectID())
//	if err != nil {
//	    log.Fatal(err)
//	}
//	data, _ := doubao.Marshal(doubao.NewStartConnectionFrame())
//	conn.WriteMessage(websocket.BinaryMessage, data)
//
// 解析服务端帧：
//
//	frame, err := doubao.Unmarshal(data)
//	if err != nil {
//	    // 未知类型或截断帧：丢弃并记录
//	}
//	switch frame.Event {
//	case doubao.EventSessionStarted:
//	    // ...
//	}
package doubao
