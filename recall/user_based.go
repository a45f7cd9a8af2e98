package recall

import (
	"context"
	"sort"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

// UserBased 是基于阅读历史的协同召回源（历史驱动的 u2i）。
//
// 算法流程：
//  1. 取用户阅读历史
//  2. 对历史中每本书取 i2i 近邻（limit*2 候选，为过滤留余量）
//  3. 按候选 book_id 累加相似度（sum，不是 max），跳过历史中已有的书
//  4. 最终分 = 累加和 / |历史|（平均贡献：奖励与多本历史书都相似的书，
//     而不是只与某一本极相似的离群书）
//  5. 按平均分降序，同分按 book_id 升序稳定排序，取前 limit
//
// 历史为空时返回空，兜底策略由调用方（Hybrid）决定。
type UserBased struct {
	Catalog core.Catalog
	Store   core.UserStore

	// TopK 返回 TopK 本书（rctx.Limit 未指定时的默认值）
	TopK int
}

func (r *UserBased) Name() string {
	return "recall.u2i"
}

// Recall 实现 Source 接口。
func (r *UserBased) Recall(
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

	i2i := &ItemSimilarity{Catalog: r.Catalog}

	// 累加相似度：score[book_id] = Σ similarity(历史书, book)
	scores := make(map[int64]float64)
	for _, readID := range history {
		for _, neighbor := range i2i.SimilarBooks(readID, limit*2) {
			if inHistory[neighbor.BookID] {
				continue
			}
			scores[neighbor.BookID] += neighbor.Score
		}
	}
	if len(scores) == 0 {
		return nil, nil
	}

	candidates := make([]int64, 0, len(scores))
	for id := range scores {
		candidates = append(candidates, id)
	}
	sort.Slice(candidates, func(a, b int) bool {
		sa, sb := scores[candidates[a]], scores[candidates[b]]
		if sa != sb {
			return sa > sb
		}
		return candidates[a] < candidates[b]
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}

	out := make([]*core.Item, 0, len(candidates))
	for _, id := range candidates {
		b, ok := r.Catalog.BookByID(id)
		if !ok {
			continue
		}
		it := core.NewItem(id)
		it.Score = scores[id] / float64(len(history)) // 平均贡献
		it.Book = b
		it.PutLabel("recall_source", utils.Label{Value: "u2i", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
