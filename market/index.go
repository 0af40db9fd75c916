package market

import (
	"fmt"
	"sort"
	"time"

	"github.com/lemconn/exbridge/model"
)

// Index 内部 id 与原生交易对的双向映射
//
// 一次性构建，构建后只读；刷新时整体替换。
type Index struct {
	Exchange string                  `json:"exchange"`
	ByID     map[string]model.Market `json:"by_id"`
	ByNative map[string]string       `json:"by_native"`
	BuiltAt  time.Time               `json:"built_at"`
	// Conflicts 因内部 id 或原生交易对重复而被跳过的原生交易对
	Conflicts []string `json:"conflicts,omitempty"`
}

// BuildIndex 由市场列表构建索引；重复项保留第一个并记录在 Conflicts 中
func BuildIndex(exchange string, markets []model.Market, builtAt time.Time) *Index {
	idx := &Index{
		Exchange: exchange,
		ByID:     make(map[string]model.Market, len(markets)),
		ByNative: make(map[string]string, len(markets)),
		BuiltAt:  builtAt,
	}
	for _, m := range markets {
		_, idTaken := idx.ByID[m.InternalID]
		_, nativeTaken := idx.ByNative[m.NativeSymbol]
		if idTaken || nativeTaken {
			idx.Conflicts = append(idx.Conflicts, m.NativeSymbol)
			continue
		}
		idx.ByID[m.InternalID] = m
		idx.ByNative[m.NativeSymbol] = m.InternalID
	}
	return idx
}

// Indexed 按原顺序保留进入索引的市场，冲突项被剔除
func (i *Index) Indexed(markets []model.Market) []model.Market {
	out := make([]model.Market, 0, len(i.ByID))
	seen := make(map[string]bool, len(i.ByID))
	for _, m := range markets {
		kept, ok := i.ByID[m.InternalID]
		if !ok || kept.NativeSymbol != m.NativeSymbol || seen[m.InternalID] {
			continue
		}
		seen[m.InternalID] = true
		out = append(out, m)
	}
	return out
}

// Validate 检查双向映射一致：每个内部 id 都能往返
func (i *Index) Validate() error {
	if len(i.ByID) != len(i.ByNative) {
		return fmt.Errorf("%s index size mismatch: %d ids, %d native symbols", i.Exchange, len(i.ByID), len(i.ByNative))
	}
	for id, m := range i.ByID {
		if m.InternalID != id {
			return fmt.Errorf("%s index entry %s holds market %s", i.Exchange, id, m.InternalID)
		}
		back, ok := i.ByNative[m.NativeSymbol]
		if !ok || back != id {
			return fmt.Errorf("%s index does not round-trip %s -> %s -> %q", i.Exchange, id, m.NativeSymbol, back)
		}
	}
	return nil
}

// IDs 返回排序后的内部 id
func (i *Index) IDs() []string {
	ids := make([]string, 0, len(i.ByID))
	for id := range i.ByID {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Markets 返回排序后的市场列表（副本）
func (i *Index) Markets() []model.Market {
	ids := i.IDs()
	out := make([]model.Market, 0, len(ids))
	for _, id := range ids {
		out = append(out, i.ByID[id])
	}
	return out
}
