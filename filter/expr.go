package filter

import (
	"context"

	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/pkg/dsl"
)

// ExprFilter 用 CEL 表达式筛选候选：表达式为 true 的候选保留，其余移除。
//
// Expr 为空时使用请求级 rctx.Filter；两者都为空时不过滤。
// 表达式求值出错（例如访问不存在的属性）视为不满足，候选被移除。
//
//	item.gender == "Women" && item.season in ["Summer", "Spring"]
type ExprFilter struct {
	Expr string
}

func (f *ExprFilter) Name() string { return "filter.expr" }

func (f *ExprFilter) ShouldFilter(_ context.Context, rctx *core.RecommendContext, c *core.Candidate) (bool, error) {
	expr := f.Expr
	if expr == "" && rctx != nil {
		expr = rctx.Filter
	}
	if expr == "" {
		return false, nil
	}
	prg, err := dsl.Compile(expr)
	if err != nil {
		return false, err
	}
	ok, err := dsl.Run(prg, c)
	if err != nil {
		return true, nil
	}
	return !ok, nil
}
