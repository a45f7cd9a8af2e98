package rerank

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

// CategoryDiversity 是一个简单的多样性 ReRank：按类别去重，
// 每个类别保留首个（即分数最高的）候选。类别来源优先级：
// - item.Book.Category
// - label["category"].Value
type CategoryDiversity struct{}

func (n *CategoryDiversity) Name() string {
	return "rerank.diversity"
}

func (n *CategoryDiversity) Kind() pipeline.Kind {
	return pipeline.KindReRank
}

func (n *CategoryDiversity) Process(
	_ context.Context,
	_ *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if len(items) == 0 {
		return items, nil
	}

	seen := make(map[string]bool, 16)
	out := make([]*core.Item, 0, len(items))
	for _, it := range items {
		if it == nil {
			continue
		}

		cate := ""
		if it.Book != nil {
			cate = it.Book.Category
		}
		if cate == "" && it.Labels != nil {
			if lbl, ok := it.Labels["category"]; ok {
				cate = lbl.Value
			}
		}

		if cate == "" {
			out = append(out, it)
			continue
		}
		if seen[cate] {
			continue
		}
		seen[cate] = true
		out = append(out, it)
	}
	return out, nil
}
