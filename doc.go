// Package wardrobe 是一个基于内容的时尚推荐引擎。
//
// 设计要点：
// - Pipeline-first: 推荐与胶囊衣橱都是 Node 串联（Recall → Filter → Rank → ReRank → Explain）
// - Snapshot: 目录是不可变快照，按请求取用，整体原子替换
// - Labels-first: 召回来源、过滤计数、配额槽位、解释规则通过 labels 全链路透传
//
// 对外入口见 engine 包，命令行见 cmd/wardrobe。
package wardrobe

import "github.com/rushteam/wardrobe/pipeline"

// 轻量 facade：便于直接 import "wardrobe" 使用核心抽象。
type Pipeline = pipeline.Pipeline
type Node = pipeline.Node
type Kind = pipeline.Kind

const (
	KindRecall  = pipeline.KindRecall
	KindFilter  = pipeline.KindFilter
	KindRank    = pipeline.KindRank
	KindReRank  = pipeline.KindReRank
	KindExplain = pipeline.KindExplain
)
