// Package builders 在 init 中注册全部内置 Node 的构建器。
// 配置驱动的入口需要 import _ 本包，并先调用 Bind 注入目录与用户存储
// （Catalog/UserStore 是运行期对象，没法写进 YAML）。
package builders

import (
	"fmt"
	"sync"

	"github.com/rushteam/bookrec/config"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/filter"
	"github.com/rushteam/bookrec/pipeline"
	"github.com/rushteam/bookrec/pkg/conv"
	"github.com/rushteam/bookrec/recall"
	"github.com/rushteam/bookrec/rerank"
)

var (
	mu           sync.RWMutex
	boundCatalog core.Catalog
	boundUsers   core.UserStore
)

// Bind 注入构建 Node 所需的运行期依赖。必须在 BuildPipeline 之前调用。
func Bind(catalog core.Catalog, users core.UserStore) {
	mu.Lock()
	defer mu.Unlock()
	boundCatalog = catalog
	boundUsers = users
}

func deps() (core.Catalog, core.UserStore, error) {
	mu.RLock()
	defer mu.RUnlock()
	if boundCatalog == nil {
		return nil, nil, fmt.Errorf("builders: catalog not bound, call builders.Bind first")
	}
	return boundCatalog, boundUsers, nil
}

func init() {
	config.Register("recall.i2i", buildItemSimilarity)
	config.Register("recall.u2i", buildUserBased)
	config.Register("recall.category", buildCategoryBased)
	config.Register("recall.discovery", buildDiscovery)
	config.Register("recall.popular", buildPopular)
	config.Register("recall.fanout", buildFanout)
	config.Register("filter", buildFilter)
	config.Register("rerank.topn", buildTopN)
	config.Register("rerank.diversity", buildDiversity)
}

func buildItemSimilarity(cfg map[string]any) (pipeline.Node, error) {
	catalog, _, err := deps()
	if err != nil {
		return nil, err
	}
	return &recall.ItemSimilarity{
		Catalog: catalog,
		TopK:    conv.ConfigGetInt(cfg, "topk", 20),
	}, nil
}

func buildDiscovery(cfg map[string]any) (pipeline.Node, error) {
	catalog, _, err := deps()
	if err != nil {
		return nil, err
	}
	return &recall.Discovery{
		Catalog: catalog,
		TopK:    conv.ConfigGetInt(cfg, "topk", 20),
	}, nil
}

func buildPopular(cfg map[string]any) (pipeline.Node, error) {
	catalog, _, err := deps()
	if err != nil {
		return nil, err
	}
	return &recall.Popular{
		Catalog: catalog,
		TopK:    conv.ConfigGetInt(cfg, "topk", 20),
		Score:   conv.ConfigGetFloat(cfg, "score", recall.DefaultPopularScore),
	}, nil
}

// buildUserBased / buildCategoryBased 构建的是 Source，包装成 Fanout 单源 Node 使用。
func buildUserBased(cfg map[string]any) (pipeline.Node, error) {
	catalog, users, err := deps()
	if err != nil {
		return nil, err
	}
	src := &recall.UserBased{
		Catalog: catalog,
		Store:   users,
		TopK:    conv.ConfigGetInt(cfg, "topk", 20),
	}
	return &recall.Fanout{Sources: []recall.Source{src}, Dedup: true}, nil
}

func buildCategoryBased(cfg map[string]any) (pipeline.Node, error) {
	catalog, users, err := deps()
	if err != nil {
		return nil, err
	}
	src := &recall.CategoryBased{
		Catalog: catalog,
		Store:   users,
		TopK:    conv.ConfigGetInt(cfg, "topk", 20),
	}
	return &recall.Fanout{Sources: []recall.Source{src}, Dedup: true}, nil
}

func buildFanout(cfg map[string]any) (pipeline.Node, error) {
	catalog, users, err := deps()
	if err != nil {
		return nil, err
	}

	sourcesCfg, ok := cfg["sources"].([]any)
	if !ok {
		return nil, fmt.Errorf("builders: fanout sources not found or invalid")
	}

	sources := make([]recall.Source, 0, len(sourcesCfg))
	for _, sc := range sourcesCfg {
		sourceMap, ok := sc.(map[string]any)
		if !ok {
			continue
		}
		topk := conv.ConfigGetInt(sourceMap, "topk", 20)
		switch sourceType := conv.ConfigGet[string](sourceMap, "type", ""); sourceType {
		case "u2i":
			sources = append(sources, &recall.UserBased{Catalog: catalog, Store: users, TopK: topk})
		case "category":
			sources = append(sources, &recall.CategoryBased{Catalog: catalog, Store: users, TopK: topk})
		case "discovery":
			sources = append(sources, &recall.Discovery{Catalog: catalog, TopK: topk})
		case "popular":
			sources = append(sources, &recall.Popular{Catalog: catalog, TopK: topk})
		default:
			return nil, fmt.Errorf("builders: unknown fanout source type: %s", sourceType)
		}
	}

	return &recall.Fanout{
		Sources:       sources,
		Dedup:         conv.ConfigGet[bool](cfg, "dedup", true),
		MergeStrategy: conv.ConfigGet[string](cfg, "merge", "first"),
	}, nil
}

func buildFilter(cfg map[string]any) (pipeline.Node, error) {
	_, users, err := deps()
	if err != nil {
		return nil, err
	}

	var filters []filter.Filter
	if conv.ConfigGet[bool](cfg, "history", false) {
		filters = append(filters, &filter.HistoryFilter{Store: users})
	}
	if rules, ok := cfg["rules"].([]any); ok {
		for _, r := range rules {
			expr, ok := r.(string)
			if !ok {
				continue
			}
			rf, err := filter.NewRuleFilter(expr)
			if err != nil {
				return nil, fmt.Errorf("builders: rule %q: %w", expr, err)
			}
			filters = append(filters, rf)
		}
	}
	return &filter.FilterNode{Filters: filters}, nil
}

func buildTopN(cfg map[string]any) (pipeline.Node, error) {
	return &rerank.TopNNode{N: conv.ConfigGetInt(cfg, "n", 0)}, nil
}

func buildDiversity(_ map[string]any) (pipeline.Node, error) {
	return &rerank.CategoryDiversity{}, nil
}
