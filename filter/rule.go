package filter

import (
	"context"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/dsl"
)

// RuleFilter 是规则过滤器：用 CEL 表达式描述“哪些候选要剔除”。
// 表达式求值为 true 的候选被过滤。
//
// 示例：
//   - `book.category == "Horror"` → 剔除 Horror 类
//   - `item.score < 0.3 && label.recall_source == "popular"` → 剔除低分兜底
type RuleFilter struct {
	Expr string

	prg *dsl.Program
}

// NewRuleFilter 预编译表达式；编译失败直接返回错误（规则写错应在装配期暴露）。
func NewRuleFilter(expr string) (*RuleFilter, error) {
	prg, err := dsl.Compile(expr)
	if err != nil {
		return nil, err
	}
	return &RuleFilter{Expr: expr, prg: prg}, nil
}

func (f *RuleFilter) Name() string {
	return "filter.rule"
}

func (f *RuleFilter) ShouldFilter(
	_ context.Context,
	rctx *core.RecommendContext,
	item *core.Item,
) (bool, error) {
	if f.prg == nil || item == nil {
		return false, nil
	}
	return f.prg.EvalItem(item, rctx)
}
