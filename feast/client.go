// Package feast 从 Feast 在线特征库读取商品 embedding，
// 用于目录中 embedding 不内嵌在 JSON 里、而是由特征平台托管的部署方式。
package feast

import (
	"context"
	"strconv"
	"strings"
	"time"
)

// Client 是 Feast 在线特征读取接口。
type Client interface {
	// GetOnlineFeatures 获取在线特征，每个实体行对应一个 FeatureVector（顺序一致）
	GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error)

	// Close 关闭客户端
	Close() error
}

// GetOnlineFeaturesRequest 获取在线特征请求
type GetOnlineFeaturesRequest struct {
	// Features 特征引用，例如 ["item_embeddings:embedding"]
	Features []string

	// EntityRows 实体行，例如 [{"item_id": 15970}, {"item_id": 39386}]
	EntityRows []map[string]any

	// Project 项目名称（可选，默认使用客户端配置）
	Project string
}

// GetOnlineFeaturesResponse 获取在线特征响应
type GetOnlineFeaturesResponse struct {
	FeatureVectors []FeatureVector
}

// FeatureVector 单个实体的特征值
type FeatureVector struct {
	// Values key 为特征引用；标量为 float64 / string / bool，列表为 []float64 / []string
	Values map[string]any

	EntityRow map[string]any
}

// Embedding 读取名为 feature 的数值列表特征，不存在或不是数值列表时返回 false。
func (fv FeatureVector) Embedding(feature string) ([]float64, bool) {
	v, ok := fv.Values[feature].([]float64)
	return v, ok && len(v) > 0
}

// ClientOption 客户端配置选项
type ClientOption func(*ClientConfig)

// ClientConfig 客户端配置
type ClientConfig struct {
	Endpoint string
	Project  string
	Timeout  time.Duration

	// Token 非空时使用静态 Token 认证
	Token string
	// TLS 是否启用 TLS
	TLS bool
}

// WithTimeout 设置单次请求超时
func WithTimeout(timeout time.Duration) ClientOption {
	return func(c *ClientConfig) {
		c.Timeout = timeout
	}
}

// WithToken 使用静态 Token 认证
func WithToken(token string, tls bool) ClientOption {
	return func(c *ClientConfig) {
		c.Token = token
		c.TLS = tls
	}
}

// ParseEndpoint 解析 "host:port" 或 "grpc://host:port"，未写端口时返回 port 0。
func ParseEndpoint(endpoint string) (string, int) {
	endpoint = strings.TrimPrefix(endpoint, "grpc://")
	host, portStr, found := strings.Cut(endpoint, ":")
	if !found {
		return endpoint, 0
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return endpoint, 0
	}
	return host, port
}
