package recall

import (
	"context"
	"sort"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// ItemSimilarity 是基于预计算相似度矩阵的 i2i 召回源（Item-to-Item）。
//
// 核心思想："看了这本书的人，还会看相似的书"——相似度离线算好，
// 在线只做一次行查找 + 排序，实时性好、可解释性强。
//
// 此路径完全确定：固定矩阵 + 固定 book_id 下，重复调用返回完全相同
// 的有序列表（同分时按矩阵索引升序稳定排序，无任何随机性）。
type ItemSimilarity struct {
	Catalog core.Catalog

	// TopK 返回 TopK 本书（rctx.Limit 未指定时的默认值）
	TopK int
}

func (r *ItemSimilarity) Name() string {
	return "recall.i2i"
}

func (r *ItemSimilarity) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *ItemSimilarity) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口，种子书取自 rctx.BookID。
func (r *ItemSimilarity) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if rctx == nil {
		return nil, nil
	}
	limit := rctx.Limit
	if limit <= 0 {
		limit = r.TopK
	}
	return r.SimilarBooks(rctx.BookID, limit), nil
}

// SimilarBooks 返回与 bookID 最相似的 limit 本书（不含它自己）。
//
// book_id 先经 Catalog.MatrixIndex 显式换算为矩阵索引——book_id 不保证
// 从 0 连续，直接当行号用是错的。换算失败或行越界一律返回空，不报错。
func (r *ItemSimilarity) SimilarBooks(bookID int64, limit int) []*core.Item {
	if r.Catalog == nil || limit <= 0 {
		return nil
	}

	idx, ok := r.Catalog.MatrixIndex(bookID)
	if !ok {
		return nil
	}
	row := r.Catalog.SimilarityRow(idx)
	if row == nil {
		return nil
	}

	// 候选为除自身外的全部矩阵索引；按相似度降序，
	// 同分时稳定排序保持矩阵索引升序（确定、可复现）
	order := make([]int, 0, len(row)-1)
	for j := range row {
		if j != idx {
			order = append(order, j)
		}
	}
	sort.SliceStable(order, func(a, b int) bool {
		return row[order[a]] > row[order[b]]
	})

	if len(order) > limit {
		order = order[:limit]
	}

	out := make([]*core.Item, 0, len(order))
	for _, j := range order {
		b, ok := r.Catalog.BookAt(j)
		if !ok {
			continue
		}
		it := core.NewItem(b.ID)
		it.Score = row[j]
		it.Book = b
		it.PutLabel("recall_source", utils.Label{Value: "i2i", Source: "recall"})
		out = append(out, it)
	}
	return out
}
