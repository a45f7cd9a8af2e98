package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// HistoryFilter 是已读过滤器，剔除用户阅读历史中已有的书。
// 推荐出口的最后一道保险：各召回源自身也会排除历史，但经过
// 合并/兜底后仍可能混入已读书。
type HistoryFilter struct {
	Store core.UserStore
}

func (f *HistoryFilter) Name() string {
	return "filter.history"
}

func (f *HistoryFilter) ShouldFilter(
	ctx context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if item == nil {
		return true, nil
	}
	if f.Store == nil || rctx == nil || rctx.UserID == "" {
		return false, nil
	}

	read, err := f.Store.InHistory(ctx, rctx.UserID, item.BookID)
	if err != nil {
		// 存储故障时不过滤：宁可多出一本已读书，也不让推荐面挂掉
		return false, nil
	}
	return read, nil
}
