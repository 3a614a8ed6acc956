// Package engine 是推荐引擎的对外入口：推荐、胶囊衣橱、风格洞察、测验抽样与物品查询。
//
// Engine 持有目录快照的 Holder 和两条由配置构建的 Pipeline。
// 每次调用开始时取一次快照，调用期间目录重载不影响结果。Engine 可并发使用。
package engine

import (
	"context"
	"strconv"
	"time"

	"github.com/rushteam/wardrobe/catalog"
	"github.com/rushteam/wardrobe/config"
	_ "github.com/rushteam/wardrobe/config/builders"
	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/pipeline"
	"github.com/rushteam/wardrobe/pkg/dsl"
	"github.com/rushteam/wardrobe/pkg/logging"
	"github.com/rushteam/wardrobe/pkg/metrics"
	"github.com/rushteam/wardrobe/pkg/validation"
	"github.com/rushteam/wardrobe/profile"
	"github.com/rushteam/wardrobe/rerank"
)

type Engine struct {
	holder    *catalog.Holder
	recommend *pipeline.Pipeline
	capsule   *pipeline.Pipeline
	timeout   time.Duration
}

type options struct {
	timeout      time.Duration
	capsule      config.CapsuleOptions
	recommendCfg *pipeline.Config
	capsuleCfg   *pipeline.Config
}

// Option 配置 Engine。
type Option func(*options)

// WithTimeout 为每次调用设置超时，0 表示不限制。
func WithTimeout(d time.Duration) Option {
	return func(o *options) { o.timeout = d }
}

// WithCapsuleOptions 调整默认胶囊衣橱 Pipeline（候选池大小、配额计划、是否包含喜欢过的物品、随机种子）。
func WithCapsuleOptions(c config.CapsuleOptions) Option {
	return func(o *options) { o.capsule = c }
}

// WithRecommendPipeline 用自定义配置替换默认推荐 Pipeline。
func WithRecommendPipeline(cfg *pipeline.Config) Option {
	return func(o *options) { o.recommendCfg = cfg }
}

// WithCapsulePipeline 用自定义配置替换默认胶囊衣橱 Pipeline。
func WithCapsulePipeline(cfg *pipeline.Config) Option {
	return func(o *options) { o.capsuleCfg = cfg }
}

// New 创建 Engine，holder 中可以暂时没有快照（调用时返回 UNAVAILABLE）。
func New(holder *catalog.Holder, opts ...Option) (*Engine, error) {
	o := &options{}
	for _, opt := range opts {
		opt(o)
	}
	if o.recommendCfg == nil {
		o.recommendCfg = config.DefaultRecommend()
	}
	if o.capsuleCfg == nil {
		o.capsuleCfg = config.DefaultCapsule(o.capsule)
	}

	recommend, err := buildPipeline(o.recommendCfg)
	if err != nil {
		return nil, err
	}
	capsule, err := buildPipeline(o.capsuleCfg)
	if err != nil {
		return nil, err
	}
	return &Engine{
		holder:    holder,
		recommend: recommend,
		capsule:   capsule,
		timeout:   o.timeout,
	}, nil
}

func buildPipeline(cfg *pipeline.Config) (*pipeline.Pipeline, error) {
	if err := config.ValidatePipelineConfig(cfg); err != nil {
		return nil, core.WrapDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "invalid pipeline config", err)
	}
	return cfg.BuildPipeline(config.DefaultFactory())
}

// begin 为一次调用准备 ctx：请求 ID 与超时。
func (e *Engine) begin(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx, _ = logging.WithRequestID(ctx, logging.RequestID(ctx))
	if e.timeout > 0 {
		return context.WithTimeout(ctx, e.timeout)
	}
	return context.WithCancel(ctx)
}

func (e *Engine) snapshot() (*catalog.Catalog, error) {
	snap := e.holder.Load()
	if snap == nil {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeUnavailable, "catalog not loaded")
	}
	return snap, nil
}

func invalid(msg string, err error) error {
	return core.WrapDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, msg, err)
}

func checkFilter(expr string) error {
	if expr == "" {
		return nil
	}
	if _, err := dsl.Compile(expr); err != nil {
		return invalid("invalid filter expression", err)
	}
	return nil
}

func status(err error) string {
	switch {
	case err == nil:
		return metrics.StatusOK
	case core.IsInvalidInput(err):
		return metrics.StatusInvalid
	default:
		return metrics.StatusError
	}
}

// Recommend 按探索度返回最多 Limit 个不在喜欢列表中的物品。
func (e *Engine) Recommend(ctx context.Context, req RecommendRequest) (res *RecommendResult, err error) {
	start := time.Now()
	ctx, cancel := e.begin(ctx)
	defer cancel()
	defer func() { metrics.ObserveRequest(metrics.OpRecommend, status(err), start) }()

	if err := validation.ValidateStruct(&req); err != nil {
		return nil, invalid("invalid recommend request", err)
	}
	if err := checkFilter(req.Filter); err != nil {
		return nil, err
	}
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	rctx := &core.RecommendContext{
		RequestID:   logging.RequestID(ctx),
		LikedIDs:    req.LikedIDs,
		User:        profile.Build(req.LikedIDs, snap),
		Snapshot:    snap,
		Serendipity: req.Serendipity,
		Limit:       req.Limit,
		Filter:      req.Filter,
	}
	cands, err := e.recommend.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	metrics.CandidatesScored.WithLabelValues(metrics.OpRecommend).Add(float64(snap.EmbeddedCount()))

	res = &RecommendResult{
		Items:       make([]Recommendation, 0, len(cands)),
		Serendipity: req.Serendipity,
	}
	if lbl, ok := rctx.GetLabel("total_available"); ok {
		res.TotalAvailable, _ = strconv.Atoi(lbl.Value)
	}
	for _, c := range cands {
		res.Items = append(res.Items, Recommendation{
			Item:        c.Item.WithoutEmbedding(),
			Similarity:  c.Similarity,
			Novelty:     c.Novelty,
			Diversity:   c.Diversity,
			Score:       c.Score,
			Explanation: c.Explanation,
		})
	}

	logging.Ctx(ctx).Debug().
		Int("liked", len(req.LikedIDs)).
		Int("profile_items", rctx.User.LikedCount).
		Float64("serendipity", req.Serendipity).
		Int("available", res.TotalAvailable).
		Int("returned", len(res.Items)).
		Dur("took", time.Since(start)).
		Msg("recommend")
	return res, nil
}

// BuildCapsule 按配额计划选出最多 Budget 件物品组成胶囊衣橱。
func (e *Engine) BuildCapsule(ctx context.Context, req CapsuleRequest) (res *Capsule, err error) {
	start := time.Now()
	ctx, cancel := e.begin(ctx)
	defer cancel()
	defer func() { metrics.ObserveRequest(metrics.OpCapsule, status(err), start) }()

	if err := validation.ValidateStruct(&req); err != nil {
		return nil, invalid("invalid capsule request", err)
	}
	if err := checkFilter(req.Filter); err != nil {
		return nil, err
	}
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}

	res = &Capsule{ItemIDs: []int64{}, Items: []CapsuleItem{}}
	if len(req.LikedIDs) == 0 || req.Budget == 0 {
		return res, nil
	}

	rctx := &core.RecommendContext{
		RequestID: logging.RequestID(ctx),
		LikedIDs:  req.LikedIDs,
		User:      profile.Build(req.LikedIDs, snap),
		Snapshot:  snap,
		Budget:    req.Budget,
		Filter:    req.Filter,
	}
	cands, err := e.capsule.Run(ctx, rctx, nil)
	if err != nil {
		return nil, err
	}
	metrics.CandidatesScored.WithLabelValues(metrics.OpCapsule).Add(float64(snap.EmbeddedCount()))

	items := make([]*core.Item, 0, len(cands))
	for _, c := range cands {
		res.ItemIDs = append(res.ItemIDs, c.ID())
		res.Items = append(res.Items, CapsuleItem{
			Item:        c.Item.WithoutEmbedding(),
			Similarity:  c.Similarity,
			Slot:        c.Labels["capsule_slot"].Value,
			Explanation: c.Explanation,
		})
		items = append(items, c.Item)
	}
	res.Stats = rerank.ComputeStats(items)
	_, res.Fallback = rctx.GetLabel("capsule_fallback")

	logging.Ctx(ctx).Debug().
		Int("liked", len(req.LikedIDs)).
		Int("budget", req.Budget).
		Int("selected", len(res.ItemIDs)).
		Int("outfits", res.Stats.OutfitsPossible).
		Bool("fallback", res.Fallback).
		Dur("took", time.Since(start)).
		Msg("capsule")
	return res, nil
}

// Insights 汇总喜欢 / 不喜欢的物品，给出风格洞察。喜欢列表为空时返回空洞察。
func (e *Engine) Insights(ctx context.Context, liked, disliked []int64) (in *profile.Insights, err error) {
	start := time.Now()
	defer func() { metrics.ObserveRequest(metrics.OpInsights, status(err), start) }()
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	return profile.BuildInsights(liked, disliked, snap), nil
}

// Item 按 ID 查询物品（不含 embedding）。
func (e *Engine) Item(id int64) (*core.Item, error) {
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	it, ok := snap.Get(id)
	if !ok {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeNotFound, "item "+strconv.FormatInt(id, 10)+" not found")
	}
	return it.WithoutEmbedding(), nil
}
