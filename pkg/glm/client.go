// Package glm 智谱 GLM Realtime API 客户端
//
// GLM 实时接口的鉴权只需要一个 Authorization 请求头，
// 代理侧不做协议翻译，本包仅负责建连。
package glm

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gorilla/websocket"
)

// ================== 常量 ==================

const (
	// defaultWSURL 默认 WebSocket 地址
	defaultWSURL = "wss://open.bigmodel.cn"

	// realtimePath 实时对话路径
	realtimePath = "/api/paas/v4/realtime"
)

// ================== 客户端 ==================

// Client GLM 实时对话客户端（仅负责建连与鉴权头）
type Client struct {
	config clientConfig
}

// clientConfig 客户端配置
type clientConfig struct {
	apiKey string
	wsURL  string
	dialer *websocket.Dialer
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
func NewClient(apiKey string, opts ...Option) *Client {
	config := clientConfig{
		apiKey: apiKey,
		wsURL:  defaultWSURL,
		dialer: websocket.DefaultDialer,
	}
	for _, opt := range opts {
		opt(&config)
	}
	return &Client{config: config}
}

// getWSHeaders 构建握手请求头
func (c *Client) getWSHeaders() http.Header {
	headers := http.Header{}
	headers.Set("Authorization", c.config.apiKey)
	return headers
}

// DialContext 建立实时对话 WebSocket 连接
func (c *Client) DialContext(ctx context.Context) (*websocket.Conn, error) {
	url := c.config.wsURL + realtimePath
	conn, _, err := c.config.dialer.DialContext(ctx, url, c.getWSHeaders())
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	return conn, nil
}
