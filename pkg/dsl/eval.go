// Package dsl 是基于 CEL (Common Expression Language) 的规则表达式解释器，
// 用于策略驱动的候选过滤。CEL 类型安全、高性能、线程安全。
//
// 表达式语法（CEL 标准语法）：
//   - 基础：book.category == "Fantasy" / label.recall_source == "popular"
//   - 数值：item.score > 0.7 / item.score >= 0.5
//   - 逻辑：book.category == "Horror" && item.score < 0.6
//   - 包含：book.title.contains("Moby")
//
// 示例：
//   - `label.recall_source.contains("popular")` → 召回来源包含 "popular"
//   - `book.category == "Horror"` → 候选类别为 Horror
package dsl

import (
	"fmt"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/rushteam/bookrec/core"
)

var (
	// celEnv 是全局的 CEL 环境，线程安全，可复用
	celEnv     *cel.Env
	celEnvErr  error
	celEnvOnce sync.Once
)

// initCELEnv 初始化 CEL 环境，定义变量
func getCELEnv() (*cel.Env, error) {
	celEnvOnce.Do(func() {
		celEnv, celEnvErr = cel.NewEnv(
			cel.Variable("item", cel.DynType),
			cel.Variable("book", cel.DynType),
			cel.Variable("label", cel.DynType),
			cel.Variable("rctx", cel.DynType),
		)
	})
	return celEnv, celEnvErr
}

// Program 是编译缓存后的规则表达式，可对任意多个候选重复求值。
type Program struct {
	prg cel.Program
}

// Compile 编译一条规则表达式。表达式必须返回布尔值。
func Compile(expr string) (*Program, error) {
	if expr == "" {
		return nil, fmt.Errorf("dsl: empty expression")
	}
	env, err := getCELEnv()
	if err != nil {
		return nil, fmt.Errorf("dsl: env: %w", err)
	}

	ast, issues := env.Compile(expr)
	if issues != nil && issues.Err() != nil {
		return nil, fmt.Errorf("dsl: compile error: %v", issues.Err())
	}
	prg, err := env.Program(ast)
	if err != nil {
		return nil, fmt.Errorf("dsl: program error: %v", err)
	}
	return &Program{prg: prg}, nil
}

// EvalItem 对单个候选求值，返回布尔结果。
func (p *Program) EvalItem(item *core.Item, rctx *core.RecommendContext) (bool, error) {
	out, _, err := p.prg.Eval(buildInput(item, rctx))
	if err != nil {
		// 不存在的 key 在 CEL 中是求值错误；存在性应使用 `"key" in label` 判断
		return false, fmt.Errorf("dsl: eval error: %v", err)
	}
	result, ok := out.Value().(bool)
	if !ok {
		return false, fmt.Errorf("dsl: expression must return boolean, got %T", out.Value())
	}
	return result, nil
}

// buildInput 构建 CEL 表达式的输入数据
func buildInput(item *core.Item, rctx *core.RecommendContext) map[string]any {
	itemMap := map[string]any{}
	bookMap := map[string]any{}
	labelMap := map[string]any{}
	rctxMap := map[string]any{}

	if item != nil {
		itemMap["book_id"] = item.BookID
		itemMap["score"] = item.Score
		if item.Book != nil {
			bookMap["id"] = item.Book.ID
			bookMap["title"] = item.Book.Title
			bookMap["category"] = item.Book.Category
		}
		for k, lbl := range item.Labels {
			labelMap[k] = lbl.Value
		}
	}
	if rctx != nil {
		rctxMap["user_id"] = rctx.UserID
		rctxMap["query"] = rctx.Query
		rctxMap["limit"] = rctx.Limit
	}

	return map[string]any{
		"item":  itemMap,
		"book":  bookMap,
		"label": labelMap,
		"rctx":  rctxMap,
	}
}
