package feast

import (
	"context"
	"errors"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/pkg/logging"
	"github.com/rushteam/wardrobe/pkg/metrics"
)

// ResilientConfig 控制 ResilientClient 的限流与熔断。
type ResilientConfig struct {
	Name string
	// RatePerSecond 每秒请求上限，<=0 不限流
	RatePerSecond float64
	Burst         int
	// FailureThreshold 连续失败次数达到后熔断
	FailureThreshold uint32
	// OpenTimeout 熔断后多久进入半开
	OpenTimeout time.Duration
}

// DefaultResilientConfig 返回批量补全时使用的默认值。
func DefaultResilientConfig() ResilientConfig {
	return ResilientConfig{
		Name:             "feast-online",
		RatePerSecond:    20,
		Burst:            5,
		FailureThreshold: 3,
		OpenTimeout:      30 * time.Second,
	}
}

// ResilientClient 为 Client 加上限流与熔断，熔断打开时直接返回 UNAVAILABLE。
type ResilientClient struct {
	inner   Client
	limiter *rate.Limiter
	cb      *gobreaker.CircuitBreaker[*GetOnlineFeaturesResponse]
}

// NewResilientClient 包装 inner。
func NewResilientClient(inner Client, cfg ResilientConfig) *ResilientClient {
	if cfg.Name == "" {
		cfg.Name = "feast-online"
	}
	if cfg.FailureThreshold == 0 {
		cfg.FailureThreshold = 3
	}
	limit := rate.Inf
	if cfg.RatePerSecond > 0 {
		limit = rate.Limit(cfg.RatePerSecond)
	}
	burst := max(cfg.Burst, 1)

	metrics.CircuitBreakerState.WithLabelValues(cfg.Name).Set(0)
	cb := gobreaker.NewCircuitBreaker[*GetOnlineFeaturesResponse](gobreaker.Settings{
		Name:    cfg.Name,
		Timeout: cfg.OpenTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		IsSuccessful: func(err error) bool {
			// 调用方取消不计入失败
			return err == nil || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			logging.Warn().Str("breaker", name).Str("from", from.String()).Str("to", to.String()).
				Msg("feast: circuit breaker state changed")
		},
	})
	return &ResilientClient{
		inner:   inner,
		limiter: rate.NewLimiter(limit, burst),
		cb:      cb,
	}
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}

// State 返回当前熔断状态。
func (c *ResilientClient) State() gobreaker.State {
	return c.cb.State()
}

func (c *ResilientClient) GetOnlineFeatures(ctx context.Context, req *GetOnlineFeaturesRequest) (*GetOnlineFeaturesResponse, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	resp, err := c.cb.Execute(func() (*GetOnlineFeaturesResponse, error) {
		return c.inner.GetOnlineFeatures(ctx, req)
	})
	if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
		return nil, core.WrapDomainError(core.ModuleFeast, core.ErrorCodeUnavailable, "feast: circuit open", err)
	}
	return resp, err
}

func (c *ResilientClient) Close() error {
	return c.inner.Close()
}
