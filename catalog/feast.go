package catalog

import (
	"context"
	"fmt"

	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/feast"
	"github.com/rushteam/wardrobe/pkg/logging"
)

// FeastEnricher 为缺少 embedding 的物品从 Feast 在线特征库补齐 embedding。
type FeastEnricher struct {
	Client feast.Client

	// Feature 特征引用，例如 "item_embeddings:embedding"
	Feature string
	// EntityKey 实体列名，默认 "item_id"
	EntityKey string
	// BatchSize 单次请求的实体数，默认 256
	BatchSize int
}

// Enrich 原地补齐 items 中缺少 embedding 的物品，返回补齐数量。
// 在 New 之前调用；Feast 中不存在的物品保持无 embedding。
func (e *FeastEnricher) Enrich(ctx context.Context, items []*core.Item) (int, error) {
	if e.Client == nil || e.Feature == "" {
		return 0, nil
	}
	entityKey := e.EntityKey
	if entityKey == "" {
		entityKey = "item_id"
	}
	batch := e.BatchSize
	if batch <= 0 {
		batch = 256
	}

	var missing []*core.Item
	for _, it := range items {
		if it != nil && !it.HasEmbedding() {
			missing = append(missing, it)
		}
	}

	filled := 0
	for start := 0; start < len(missing); start += batch {
		chunk := missing[start:min(start+batch, len(missing))]
		rows := make([]map[string]any, len(chunk))
		for i, it := range chunk {
			rows[i] = map[string]any{entityKey: it.ID}
		}
		resp, err := e.Client.GetOnlineFeatures(ctx, &feast.GetOnlineFeaturesRequest{
			Features:   []string{e.Feature},
			EntityRows: rows,
		})
		if err != nil {
			return filled, fmt.Errorf("catalog: feast enrich: %w", err)
		}
		for i, fv := range resp.FeatureVectors {
			if i >= len(chunk) {
				break
			}
			if emb, ok := fv.Embedding(e.Feature); ok {
				chunk[i].Embedding = emb
				filled++
			}
		}
	}
	logging.Info().Int("missing", len(missing)).Int("filled", filled).Str("feature", e.Feature).
		Msg("catalog: feast enrichment done")
	return filled, nil
}
