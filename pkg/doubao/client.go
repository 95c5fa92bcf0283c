package doubao

import (
	"context"
	"fmt"
	"math/rand/v2"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
)

// ================== 常量 ==================

const (
	// AppKeyRealtime 实时对话固定 App Key
	AppKeyRealtime = "PlgvMymc7f3tQnJ6"

	// ResourceRealtime 实时对话资源 ID
	ResourceRealtime = "volc.speech.dialog"

	// defaultWSURL 默认 WebSocket 地址
	defaultWSURL = "wss://openspeech.bytedance.com"

	// realtimeDialoguePath 实时对话路径
	realtimeDialoguePath = "/api/v3/realtime/dialogue"
)

// ================== 客户端 ==================

// Client 豆包实时对话客户端（仅负责建连与鉴权头）
type Client struct {
	config clientConfig
}

// clientConfig 客户端配置
type clientConfig struct {
	appID     string
	accessKey string
	secretKey string
	wsURL     string
	dialer    *websocket.Dialer
}

// Option 客户端配置选项
type Option func(*clientConfig)

// WithWSURL 设置 WebSocket 地址
func WithWSURL(url string) Option {
	return func(c *clientConfig) {
		c.wsURL = url
	}
}

// WithDialer 设置自定义 Dialer
func WithDialer(d *websocket.Dialer) Option {
	return func(c *clientConfig) {
		c.dialer = d
	}
}

// NewClient 创建客户端
//
// secretKey 仅用于凭证校验与展示，实时对话握手不参与签名。
func NewClient(appID, accessKey, secretKey string, opts ...Option) *Client {
	config := clientConfig{
		appID:     appID,
		accessKey: accessKey,
		secretKey: secretKey,
		wsURL:     defaultWSURL,
		dialer:    websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Client{config: config}
}

// AppID 返回应用 ID
func (c *Client) AppID() string { return c.config.appID }

// getWSHeaders 构建实时对话握手请求头
func (c *Client) getWSHeaders(connectID string) http.Header {
	headers := http.Header{}
	headers.Set("X-Api-App-Key", AppKeyRealtime)
	headers.Set("X-Api-App-ID", c.config.appID)
	headers.Set("X-Api-Access-Key", c.config.accessKey)
	headers.Set("X-Api-Resource-Id", ResourceRealtime)
	headers.Set("X-Api-Connect-Id", connectID)
	return headers
}

// DialContext 建立实时对话 WebSocket 连接
func (c *Client) DialContext(ctx context.Context, connectID string) (*websocket.Conn, error) {
	url := c.config.wsURL + realtimeDialoguePath
	conn, _, err := c.config.dialer.DialContext(ctx, url, c.getWSHeaders(connectID))
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}

// ================== 连接 ID ==================

const connectIDCharset = "0123456789abcdefghijklmnopqrstuvwxyz"

// NewConnectID 生成连接 ID：client_<毫秒时间戳>_<9 位随机串>
func NewConnectID() string {
	b := make([]byte, 9)
	for i := range b {
		b[i] = connectIDCharset[rand.IntN(len(connectIDCharset))]
	}
	return fmt.Sprintf("client_%d_%s", time.Now().UnixMilli(), b)
}
