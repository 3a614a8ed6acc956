package filter

import (
	"context"
	"fmt"

	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/pipeline"
	"github.com/rushteam/wardrobe/pkg/logging"
	"github.com/rushteam/wardrobe/pkg/utils"
)

// FilterNode 组合多个过滤器，任一过滤器返回 true 的候选被移除。
// 过滤器报错时记录日志并保留该候选，不中断整条链路。
type FilterNode struct {
	Filters []Filter
}

func (n *FilterNode) Name() string {
	return "filter"
}

func (n *FilterNode) Kind() pipeline.Kind {
	return pipeline.KindFilter
}

func (n *FilterNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	cands []*core.Candidate,
) ([]*core.Candidate, error) {
	if len(n.Filters) == 0 || len(cands) == 0 {
		return cands, nil
	}

	out := make([]*core.Candidate, 0, len(cands))
	removed := make(map[string]int, len(n.Filters))
	for _, c := range cands {
		if c == nil || c.Item == nil {
			continue
		}
		reason := ""
		for _, f := range n.Filters {
			hit, err := f.ShouldFilter(ctx, rctx, c)
			if err != nil {
				logging.Ctx(ctx).Warn().Err(err).Str("filter", f.Name()).Int64("item_id", c.ID()).Msg("filter error, keeping candidate")
				continue
			}
			if hit {
				reason = f.Name()
				break
			}
		}
		if reason != "" {
			removed[reason]++
			continue
		}
		out = append(out, c)
	}

	if rctx != nil {
		for name, cnt := range removed {
			rctx.PutLabel("filtered."+name, utils.Label{Value: fmt.Sprint(cnt), Source: "filter"})
		}
	}
	return out, nil
}
