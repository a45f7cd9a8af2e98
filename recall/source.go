package recall

import (
	"context"

	"github.com/rushteam/bookrec/core"
)

// Source 表示一个可复用的召回源（i2i/u2i/类别/发现/热门/...）。
// 你可以把它理解为“可并发 fan-out 的策略单元”。
type Source interface {
	Name() string
	Recall(ctx context.Context, rctx *core.RecommendContext) ([]*core.Item, error)
}

// 各召回源写入 Score 的占位分数。矩阵相似度是强信号，类别命中与
// 随机兜底是弱信号，用固定占位分表达。
const (
	// DefaultCategoryScore 是类别召回的统一占位相似度
	DefaultCategoryScore = 0.8

	// DefaultPopularScore 是热门/随机兜底的统一占位相似度
	DefaultPopularScore = 0.5
)
