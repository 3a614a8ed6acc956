package engine

import (
	"context"
	"math/rand/v2"
	"time"

	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/pkg/metrics"
)

// QuizItems 为风格测验抽取 count 件物品，尽量覆盖所有子类目：
// 每个子类目先抽 max(1, count/子类目数) 件，不足 count 时从整个目录补齐，去重后截断到 count。
// seed 相同则结果相同，seed 为 0 时按时间取种。
func (e *Engine) QuizItems(ctx context.Context, count int, seed uint64) (items []*core.Item, err error) {
	start := time.Now()
	defer func() { metrics.ObserveRequest(metrics.OpQuiz, status(err), start) }()

	if count <= 0 {
		return nil, core.NewDomainError(core.ModuleEngine, core.ErrorCodeInvalidInput, "quiz count must be > 0")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	snap, err := e.snapshot()
	if err != nil {
		return nil, err
	}
	if seed == 0 {
		seed = uint64(time.Now().UnixNano())
	}
	return sampleQuiz(snap.All(), count, rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))), nil
}

func sampleQuiz(all []*core.Item, count int, r *rand.Rand) []*core.Item {
	// 子类目按在目录中首次出现的顺序
	var order []string
	groups := make(map[string][]*core.Item)
	for _, it := range all {
		if it.SubCategory == "" {
			continue
		}
		if _, ok := groups[it.SubCategory]; !ok {
			order = append(order, it.SubCategory)
		}
		groups[it.SubCategory] = append(groups[it.SubCategory], it)
	}

	out := make([]*core.Item, 0, count)
	seen := make(map[int64]struct{}, count)
	add := func(it *core.Item) {
		if _, dup := seen[it.ID]; dup {
			return
		}
		seen[it.ID] = struct{}{}
		out = append(out, it.WithoutEmbedding())
	}

	if len(order) > 0 {
		perCat := max(1, count/len(order))
		for _, cat := range order {
			g := groups[cat]
			for _, i := range r.Perm(len(g))[:min(perCat, len(g))] {
				add(g[i])
			}
		}
	}
	if len(out) < count {
		for _, i := range r.Perm(len(all)) {
			if len(out) >= count {
				break
			}
			add(all[i])
		}
	}
	if len(out) > count {
		out = out[:count]
	}
	return out
}
