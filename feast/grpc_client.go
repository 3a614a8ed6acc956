package feast

import (
	"context"
	"fmt"
	"time"

	feastsdk "github.com/feast-dev/feast/sdk/go"
	"github.com/feast-dev/feast/sdk/go/protos/feast/types"

	"github.com/rushteam/wardrobe/core"
)

// DefaultPort 是 Feast Serving 的默认 gRPC 端口。
const DefaultPort = 6565

// GrpcClient 基于官方 Feast Go SDK 的 gRPC 客户端。
type GrpcClient struct {
	client *feastsdk.GrpcClient

	Project  string
	Endpoint string
	Timeout  time.Duration
}

// NewGrpcClient 创建 gRPC 客户端，endpoint 形如 "localhost:6565"。
func NewGrpcClient(endpoint, project string, opts ...ClientOption) (*GrpcClient, error) {
	cfg := &ClientConfig{
		Endpoint: endpoint,
		Project:  project,
		Timeout:  10 * time.Second,
	}
	for _, opt := range opts {
		opt(cfg)
	}

	host, port := ParseEndpoint(endpoint)
	if port == 0 {
		port = DefaultPort
	}

	var (
		client *feastsdk.GrpcClient
		err    error
	)
	if cfg.Token != "" {
		client, err = feastsdk.NewSecureGrpcClient(host, port, feastsdk.SecurityConfig{
			EnableTLS:  cfg.TLS,
			Credential: feastsdk.NewStaticCredential(cfg.Token),
		})
	} else {
		client, err = feastsdk.NewGrpcClient(host, port)
	}
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleFeast, core.ErrorCodeUnavailable, "feast: connect "+endpoint, err)
	}

	return &GrpcClient{
		client:   client,
		Project:  project,
		Endpoint: fmt.Sprintf("%s:%d", host, port),
		Timeout:  cfg.Timeout,
	}, nil
}

// GetOnlineFeatures 实现 Client 接口。
func (c *GrpcClient) GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	if len(req.Features) == 0 {
		return nil, core.NewDomainError(core.ModuleFeast, core.ErrorCodeInvalidInput, "feast: features are required")
	}
	if len(req.EntityRows) == 0 {
		return &GetOnlineFeaturesResponse{}, nil
	}
	project := req.Project
	if project == "" {
		project = c.Project
	}
	if project == "" {
		return nil, core.NewDomainError(core.ModuleFeast, core.ErrorCodeInvalidInput, "feast: project is required")
	}

	entities := make([]feastsdk.Row, len(req.EntityRows))
	for i, row := range req.EntityRows {
		entities[i] = toSDKRow(row)
	}

	if c.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.Timeout)
		defer cancel()
	}

	sdkResp, err := c.client.GetOnlineFeatures(ctx, &feastsdk.OnlineFeaturesRequest{
		Features: req.Features,
		Entities: entities,
		Project:  project,
	})
	if err != nil {
		return nil, core.WrapDomainError(core.ModuleFeast, core.ErrorCodeUnavailable, "feast: get online features", err)
	}

	rows := sdkResp.Rows()
	if len(rows) != len(req.EntityRows) {
		return nil, core.NewDomainError(core.ModuleFeast, core.ErrorCodeInternalError,
			fmt.Sprintf("feast: response row count mismatch: expected %d, got %d", len(req.EntityRows), len(rows)))
	}

	vectors := make([]FeatureVector, len(rows))
	for i, row := range rows {
		values := make(map[string]any, len(req.Features))
		for _, name := range req.Features {
			if v := fromSDKValue(row[name]); v != nil {
				values[name] = v
			}
		}
		vectors[i] = FeatureVector{Values: values, EntityRow: req.EntityRows[i]}
	}
	return &GetOnlineFeaturesResponse{FeatureVectors: vectors}, nil
}

// Close 实现 Client 接口；SDK 连接由 gRPC 管理。
func (c *GrpcClient) Close() error {
	c.client = nil
	return nil
}

func toSDKRow(row map[string]any) feastsdk.Row {
	out := make(feastsdk.Row, len(row))
	for k, v := range row {
		out[k] = toSDKValue(v)
	}
	return out
}

func toSDKValue(v any) *types.Value {
	switch val := v.(type) {
	case string:
		return feastsdk.StrVal(val)
	case int:
		return feastsdk.Int64Val(int64(val))
	case int64:
		return feastsdk.Int64Val(val)
	case int32:
		return feastsdk.Int64Val(int64(val))
	case float64:
		return feastsdk.DoubleVal(val)
	case float32:
		return feastsdk.FloatVal(val)
	case bool:
		return feastsdk.BoolVal(val)
	case []byte:
		return feastsdk.BytesVal(val)
	default:
		return feastsdk.StrVal(fmt.Sprintf("%v", val))
	}
}

// fromSDKValue 把 proto Value 转为 Go 值；数值统一为 float64，数值列表统一为 []float64。
func fromSDKValue(v *types.Value) any {
	if v == nil {
		return nil
	}
	switch val := v.Val.(type) {
	case *types.Value_StringVal:
		return val.StringVal
	case *types.Value_BytesVal:
		return string(val.BytesVal)
	case *types.Value_Int32Val:
		return float64(val.Int32Val)
	case *types.Value_Int64Val:
		return float64(val.Int64Val)
	case *types.Value_FloatVal:
		return float64(val.FloatVal)
	case *types.Value_DoubleVal:
		return val.DoubleVal
	case *types.Value_BoolVal:
		return val.BoolVal
	case *types.Value_DoubleListVal:
		return append([]float64(nil), val.DoubleListVal.GetVal()...)
	case *types.Value_FloatListVal:
		src := val.FloatListVal.GetVal()
		out := make([]float64, len(src))
		for i, f := range src {
			out[i] = float64(f)
		}
		return out
	case *types.Value_Int64ListVal:
		src := val.Int64ListVal.GetVal()
		out := make([]float64, len(src))
		for i, n := range src {
			out[i] = float64(n)
		}
		return out
	case *types.Value_Int32ListVal:
		src := val.Int32ListVal.GetVal()
		out := make([]float64, len(src))
		for i, n := range src {
			out[i] = float64(n)
		}
		return out
	case *types.Value_StringListVal:
		return append([]string(nil), val.StringListVal.GetVal()...)
	}
	return nil
}

var _ Client = (*GrpcClient)(nil)
