package recall

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// Popular 是 trending/popular 兜底召回源：全量均匀随机采样，无分层。
// 输入信号缺失（空历史、Hybrid 合并为空）时使用，统一给占位分
// DefaultPopularScore (0.5)。
// Popular 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Popular struct {
	Catalog core.Catalog

	// TopK 返回 TopK 本书（rctx.Limit 未指定时的默认值）
	TopK int

	// Score 为每本书附加的占位分，<= 0 时用 DefaultPopularScore
	Score float64
}

func (r *Popular) Name() string        { return "recall.popular" }
func (r *Popular) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Popular) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Popular) Recall(
	_ context.Context,
	rctx *core.RecommendContext,
) ([]*core.Item, error) {
	if r.Catalog == nil {
		return nil, nil
	}
	limit := r.TopK
	if rctx != nil && rctx.Limit > 0 {
		limit = rctx.Limit
	}
	if limit <= 0 {
		limit = 20
	}
	score := r.Score
	if score <= 0 {
		score = DefaultPopularScore
	}

	books := r.Catalog.RandomBooks(limit)
	out := make([]*core.Item, 0, len(books))
	for _, b := range books {
		it := core.NewItem(b.ID)
		it.Score = score
		it.Book = b
		it.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
