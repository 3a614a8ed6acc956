package explain

import (
	"context"

	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/pipeline"
	"github.com/rushteam/wardrobe/pkg/utils"
)

// Mode 选择推荐理由的生成方式。
type Mode string

const (
	ModeRecommend Mode = "recommend"
	ModeCapsule   Mode = "capsule"
)

// Node 为每个候选填写 Explanation，并写入 explain label 记录所用规则。
type Node struct {
	Mode      Mode
	Generator Generator
}

func (n *Node) Name() string        { return "explain." + string(n.Mode) }
func (n *Node) Kind() pipeline.Kind { return pipeline.KindExplain }

func (n *Node) Process(
	_ context.Context,
	rctx *core.RecommendContext,
	cands []*core.Candidate,
) ([]*core.Candidate, error) {
	var (
		user        *core.UserProfile
		serendipity float64
	)
	if rctx != nil {
		user, serendipity = rctx.User, rctx.Serendipity
	}
	for _, c := range cands {
		if c == nil || c.Item == nil {
			continue
		}
		var rule Rule
		if n.Mode == ModeCapsule {
			c.Explanation, rule = n.Generator.Capsule(c, user)
		} else {
			c.Explanation, rule = n.Generator.Recommendation(c, user, serendipity)
		}
		c.PutLabel("explain", utils.Label{Value: string(rule), Source: "explain"})
	}
	return cands, nil
}
