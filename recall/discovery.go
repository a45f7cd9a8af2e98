package recall

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/utils"
)

// Discovery 是无个性化信号场景（空查询、新用户）的发现召回源：
// 分层随机采样，先按类别分桶抽取再全量补齐，保证结果跨类别多样。
// 采样本体在 Catalog.RandomByCategory，每次调用结果不同。
// Discovery 同时实现了 Source 和 Node 接口，可以直接在 Pipeline 中使用。
type Discovery struct {
	Catalog core.Catalog

	// TopK 返回 TopK 本书（rctx.Limit 未指定时的默认值）
	TopK int
}

func (r *Discovery) Name() string        { return "recall.discovery" }
func (r *Discovery) Kind() pipeline.Kind { return pipeline.KindRecall }

// Process 实现 Node 接口，直接调用 Recall
func (r *Discovery) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	_ []*core.Item,
) ([]*core.Item, error) {
	return r.Recall(ctx, rctx)
}

// Recall 实现 Source 接口
func (r *Discovery) Recall(
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

	books := r.Catalog.RandomByCategory(limit)
	out := make([]*core.Item, 0, len(books))
	for _, b := range books {
		it := core.NewItem(b.ID)
		it.Book = b
		it.PutLabel("recall_source", utils.Label{Value: "discovery", Source: "recall"})
		out = append(out, it)
	}
	return out, nil
}
