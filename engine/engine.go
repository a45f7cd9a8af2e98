// Package engine 组合 Catalog、UserStore 与各召回源，对外提供五个
// 查询操作（i2i / 用户协同 / 类别 / 混合 / 解释）和若干辅助入口。
//
// 失败语义统一为 fail soft：缺数据、坏索引、存储故障一律降级为
// 空结果或通用文案，绝不向调用方抛硬错误——推荐面在信号残缺时
// 也要保持可用。
package engine

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/recall"
)

// Engine 是推荐引擎。依赖在构造时显式注入：Catalog 只读，
// UserStore 受控可变，二者生命周期由进程入口管理。
type Engine struct {
	catalog core.Catalog
	users   core.UserStore

	i2i      *recall.ItemSimilarity
	userRec  *recall.UserBased
	catRec   *recall.CategoryBased
	popular  *recall.Popular
	discover *recall.Discovery
}

func New(catalog core.Catalog, users core.UserStore) *Engine {
	return &Engine{
		catalog:  catalog,
		users:    users,
		i2i:      &recall.ItemSimilarity{Catalog: catalog},
		userRec:  &recall.UserBased{Catalog: catalog, Store: users},
		catRec:   &recall.CategoryBased{Catalog: catalog, Store: users},
		popular:  &recall.Popular{Catalog: catalog},
		discover: &recall.Discovery{Catalog: catalog},
	}
}

// ItemToItem 返回与 bookID 最相似的 limit 本书（不含它自己），
// 附带矩阵相似度分数。固定输入下结果完全确定。
func (e *Engine) ItemToItem(_ context.Context, bookID int64, limit int) []*core.Item {
	return e.i2i.SimilarBooks(bookID, limit)
}

// ByTitle 按标题子串找到首个命中的书后做 i2i 推荐。未命中返回空。
func (e *Engine) ByTitle(ctx context.Context, title string, limit int) []*core.Item {
	b, ok := e.catalog.BookByTitle(title)
	if !ok {
		return nil
	}
	return e.ItemToItem(ctx, b.ID, limit)
}

// UserBased 基于阅读历史做协同召回。历史为空返回空，
// 兜底由调用方决定（本方法自身不兜底）。
func (e *Engine) UserBased(ctx context.Context, userID string, limit int) []*core.Item {
	if userID == "" || limit <= 0 {
		return nil
	}
	items, err := e.userRec.Recall(ctx, &core.RecommendContext{UserID: userID, Limit: limit})
	if err != nil {
		return nil
	}
	return items
}

// CategoryBased 基于类别偏好召回。历史为空返回空。
func (e *Engine) CategoryBased(ctx context.Context, userID string, limit int) []*core.Item {
	if userID == "" || limit <= 0 {
		return nil
	}
	items, err := e.catRec.Recall(ctx, &core.RecommendContext{UserID: userID, Limit: limit})
	if err != nil {
		return nil
	}
	return items
}

// Hybrid 混合召回：并发跑 UserBased(limit/2) 与 CategoryBased(limit/2)，
// 按 user-based 严格优先合并并按 book_id 去重，直到集满 limit。
//
// 历史为空直接返回空（新用户的 trending 展示由调用方走 PopularBooks）；
// 历史非空但两路都无结果时，兜底为全量随机采样，占位分 0.5。
func (e *Engine) Hybrid(ctx context.Context, userID string, limit int) []*core.Item {
	if userID == "" || limit <= 0 {
		return nil
	}

	history, err := e.users.GetHistory(ctx, userID)
	if err != nil || len(history) == 0 {
		return nil
	}

	half := limit / 2
	var userBased, categoryBased []*core.Item

	// 两路都是纯读，可以并发
	eg, egCtx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		userBased = e.UserBased(egCtx, userID, half)
		return nil
	})
	eg.Go(func() error {
		categoryBased = e.CategoryBased(egCtx, userID, half)
		return nil
	})
	_ = eg.Wait() // 两路内部均 fail soft，不产生错误

	seen := make(map[int64]bool, limit)
	merged := make([]*core.Item, 0, limit)

	// user-based 优先
	for _, it := range userBased {
		if seen[it.BookID] {
			continue
		}
		seen[it.BookID] = true
		merged = append(merged, it)
	}
	for _, it := range categoryBased {
		if len(merged) >= limit {
			break
		}
		if seen[it.BookID] {
			continue
		}
		seen[it.BookID] = true
		merged = append(merged, it)
	}

	// 有历史却两路皆空：兜底随机，占位分 0.5
	if len(merged) == 0 {
		return e.PopularBooks(ctx, limit)
	}
	return merged
}

// PopularBooks 返回全量均匀随机采样的 limit 本书，占位分 0.5。
// 用作新用户 trending 展示与 Hybrid 的最终兜底。
func (e *Engine) PopularBooks(ctx context.Context, limit int) []*core.Item {
	items, err := e.popular.Recall(ctx, &core.RecommendContext{Limit: limit})
	if err != nil {
		return nil
	}
	return items
}

// DiscoverBooks 返回分层随机发现样本（空查询/浏览场景）。
func (e *Engine) DiscoverBooks(ctx context.Context, limit int) []*core.Item {
	items, err := e.discover.Recall(ctx, &core.RecommendContext{Limit: limit})
	if err != nil {
		return nil
	}
	return items
}

// Explain 生成“为什么给这个用户推荐这本书”的人类可读解释：
// 扫描历史找与目标书直接相似度最高的一本，给出书名和相似度百分比。
// 书不存在 / 历史为空 / 相似度全部不可得时依次退化为通用文案。
func (e *Engine) Explain(ctx context.Context, userID string, bookID int64) string {
	book, ok := e.catalog.BookByID(bookID)
	if !ok {
		return "Book not found."
	}

	history, err := e.users.GetHistory(ctx, userID)
	if err != nil {
		return "Recommended for you."
	}
	if len(history) == 0 {
		return fmt.Sprintf("Recommended because '%s' is a popular book in %s.", book.Title, book.Category)
	}

	if targetIdx, ok := e.catalog.MatrixIndex(bookID); ok {
		maxSimilarity := 0.0
		var mostSimilar *core.Book
		for _, readID := range history {
			idx, ok := e.catalog.MatrixIndex(readID)
			if !ok {
				continue // 过期引用，跳过
			}
			row := e.catalog.SimilarityRow(idx)
			if row == nil || targetIdx >= len(row) {
				continue
			}
			if sim := row[targetIdx]; sim > maxSimilarity {
				if b, ok := e.catalog.BookByID(readID); ok {
					maxSimilarity = sim
					mostSimilar = b
				}
			}
		}
		if mostSimilar != nil {
			return fmt.Sprintf("Recommended because you read '%s' and this book is %.1f%% similar.",
				mostSimilar.Title, maxSimilarity*100)
		}
	}

	return fmt.Sprintf("Recommended based on your interest in %s books.", book.Category)
}
