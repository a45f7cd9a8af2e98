package recall

import (
	"context"
	"sort"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

// CategoryBased 是类别偏好召回源：从阅读历史统计类别频次，
// 按频次把名额分摊到各类别。
//
// 类别命中是比矩阵相似度弱的均匀信号，统一给占位分
// DefaultCategoryScore (0.8)。
//
// 名额分摊：perCategory = max(1, limit/类别数)；每个类别拉取
// perCategory*2 候选为过滤留余量；剔除历史中已有的书；按类别排名
// 顺序收集，集满 limit 即止。频次相同的类别保持历史中的首次出现
// 顺序（确定性）。
type CategoryBased struct {
	Catalog core.Catalog
	Store   core.UserStore

	// TopK 返回 TopK 本书（rctx.Limit 未指定时的默认值）
	TopK int
}

func (r *CategoryBased) Name() string {
	return "recall.category"
}

// Recall 实现 Source 接口。历史为空时返回空。
func (r *CategoryBased) Recall(
	ctx context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil || r.Store == nil || rctx == nil || rctx.UserID == "" {
		return nil, nil
	}

	limit := rctx.Limit
	if limit <= 0 {
		limit = r.TopK
	}
	if limit <= 0 {
		limit = 20
	}

	history, err := r.Store.GetHistory(ctx, rctx.UserID)
	if err != nil {
		return nil, err
	}
	if len(history) == 0 {
		return nil, nil
	}

	inHistory := make(map[int64]bool, len(history))
	for _, id := range history {
		inHistory[id] = true
	}

	// 类别频次 + 首次出现顺序（同频次时的确定性 tie-break）
	counts := make(map[string]int)
	var order []string
	for _, id := range history {
		b, ok := r.Catalog.BookByID(id)
		if !ok {
			continue // 过期引用：历史里的书已不在目录中，跳过
		}
		if counts[b.Category] == 0 {
			order = append(order, b.Category)
		}
		counts[b.Category]++
	}
	if len(order) == 0 {
		return nil, nil
	}
	sort.SliceStable(order, func(a, b int) bool {
		return counts[order[a]] > counts[order[b]]
	})

	perCategory := limit / len(order)
	if perCategory < 1 {
		perCategory = 1
	}

	seen := make(map[int64]bool, limit)
	out := make([]*core.Item, 0, limit)
	for _, cat := range order {
		if len(out) >= limit {
			break
		}
		for _, b := range r.Catalog.BooksByCategory(cat, perCategory*2) {
			if len(out) >= limit {
				break
			}
			if inHistory[b.ID] || seen[b.ID] {
				continue
			}
			seen[b.ID] = true
			it := core.NewItem(b.ID)
			it.Score = DefaultCategoryScore
			it.Book = b
			it.PutLabel("recall_source", utils.Label{Value: "category", Source: "recall"})
			it.PutLabel("category", utils.Label{Value: cat, Source: "recall"})
			out = append(out, it)
		}
	}
	return out, nil
}
