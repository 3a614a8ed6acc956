package catalog

import (
	"context"
	"fmt"
	"strconv"

	"github.com/goccy/go-json"

	"github.com/rushteam/wardrobe/core"
	"github.com/rushteam/wardrobe/pkg/logging"
)

// DefaultKeyPrefix 是目录在 Store 中的默认 key 前缀。
//
// 存储布局：
//   - {prefix}:items          ID 列表（JSON 数组，保持目录顺序）
//   - {prefix}:item:{id}      单个物品（JSON）
const DefaultKeyPrefix = "wardrobe"

func itemsKey(prefix string) string { return prefix + ":items" }

func itemKey(prefix string, id int64) string {
	return prefix + ":item:" + strconv.FormatInt(id, 10)
}

// SaveToStore 把物品写入 store，返回写入的物品数。
func SaveToStore(ctx context.Context, s core.Store, prefix string, items []*core.Item) (int, error) {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	ids := make([]int64, 0, len(items))
	kvs := make(map[string][]byte, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}
		data, err := json.Marshal(it)
		if err != nil {
			return 0, fmt.Errorf("catalog: encode item %d: %w", it.ID, err)
		}
		kvs[itemKey(prefix, it.ID)] = data
		ids = append(ids, it.ID)
	}
	if err := s.BatchSet(ctx, kvs); err != nil {
		return 0, fmt.Errorf("catalog: save items to %s: %w", s.Name(), err)
	}
	idList, err := json.Marshal(ids)
	if err != nil {
		return 0, fmt.Errorf("catalog: encode id list: %w", err)
	}
	// ID 列表最后写入，读取方看到列表时物品已就绪
	if err := s.Set(ctx, itemsKey(prefix), idList); err != nil {
		return 0, fmt.Errorf("catalog: save id list to %s: %w", s.Name(), err)
	}
	return len(ids), nil
}

// ReadStore 从 store 读取原始物品记录。ID 列表不存在时返回 NOT_FOUND 错误；
// 列表中缺失或无法解析的物品记录告警后跳过。
func ReadStore(ctx context.Context, s core.Store, prefix string) ([]*core.Item, error) {
	if prefix == "" {
		prefix = DefaultKeyPrefix
	}
	raw, err := s.Get(ctx, itemsKey(prefix))
	if err != nil {
		if core.IsStoreNotFound(err) {
			return nil, core.WrapDomainError(core.ModuleCatalog, core.ErrorCodeNotFound,
				"catalog: no catalog under prefix "+prefix, err)
		}
		return nil, fmt.Errorf("catalog: read id list from %s: %w", s.Name(), err)
	}
	var ids []int64
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("catalog: decode id list: %w", err)
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = itemKey(prefix, id)
	}
	vals, err := s.BatchGet(ctx, keys)
	if err != nil {
		return nil, fmt.Errorf("catalog: read items from %s: %w", s.Name(), err)
	}

	items := make([]*core.Item, 0, len(ids))
	for i, key := range keys {
		data, ok := vals[key]
		if !ok {
			logging.Warn().Int64("item_id", ids[i]).Msg("catalog: item listed but missing in store")
			continue
		}
		it := &core.Item{}
		if err := json.Unmarshal(data, it); err != nil {
			logging.Warn().Int64("item_id", ids[i]).Err(err).Msg("catalog: skip malformed item record")
			continue
		}
		items = append(items, it)
	}
	return items, nil
}

// LoadFromStore 从 store 加载并构建目录。
func LoadFromStore(ctx context.Context, s core.Store, prefix string, opts ...Option) (*Catalog, error) {
	items, err := ReadStore(ctx, s, prefix)
	if err != nil {
		return nil, err
	}
	return New(items, opts...)
}
