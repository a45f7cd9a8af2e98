package core

import "github.com/rushteam/bookrec/pkg/utils"

// Book 是目录中的一本书。book_id 由外部数据集分配，稳定但不保证从 0 连续，
// 因此绝不能把它当作相似度矩阵的行号使用（见 Catalog.MatrixIndex）。
// Book 一经加载即不可变，由 Catalog 独占持有。
type Book struct {
	ID          int64
	Title       string
	Category    string
	Description string
}

// Item 是推荐链路中的统一承载结构：候选书、相似度分数、标签。
// Labels 用于解释与策略驱动；Score 用于排序决策，取值范围 [0,1]。
type Item struct {
	BookID int64
	Score  float64

	// Book 是候选对应的书目详情，由召回源或 Engine 在出口处补全。
	Book *Book

	Labels map[string]utils.Label
}

func NewItem(bookID int64) *Item {
	return &Item{
		BookID: bookID,
		Labels: make(map[string]utils.Label),
	}
}

// PutLabel 写入 Label；若已存在同名 key，则按默认 Merge 规则累积。
func (it *Item) PutLabel(key string, lbl utils.Label) {
	if it.Labels == nil {
		it.Labels = make(map[string]utils.Label)
	}
	if old, ok := it.Labels[key]; ok {
		it.Labels[key] = utils.MergeLabel(old, lbl)
		return
	}
	it.Labels[key] = lbl
}
