package dsl

import (
	"testing"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pkg/utils"
)

func sample() (*core.Item, *core.RecommendContext) {
	it := core.NewItem(42)
	it.Score = 0.75
	it.Book = &core.Book{ID: 42, Title: "Moby Dick", Category: "Classic"}
	it.PutLabel("recall_source", utils.Label{Value: "popular", Source: "recall"})
	rctx := &core.RecommendContext{UserID: "u1", Query: "whale", Limit: 10}
	return it, rctx
}

func TestEvalItem(t *testing.T) {
	it, rctx := sample()

	tests := []struct {
		expr string
		want bool
	}{
		{`item.book_id == 42`, true},
		{`item.score > 0.7`, true},
		{`item.score > 0.8`, false},
		{`book.title.contains("Moby")`, true},
		{`book.category == "Classic"`, true},
		{`label.recall_source == "popular"`, true},
		{`label.recall_source.contains("pop") && item.score >= 0.5`, true},
		{`rctx.user_id == "u1"`, true},
		{`rctx.limit > 5`, true},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			prg, err := Compile(tt.expr)
			if err != nil {
				t.Fatalf("Compile: %v", err)
			}
			got, err := prg.EvalItem(it, rctx)
			if err != nil || got != tt.want {
				t.Fatalf("EvalItem = (%v, %v), want %v", got, err, tt.want)
			}
		})
	}
}

func TestCompileErrors(t *testing.T) {
	for _, expr := range []string{"", "item.score >", "((("} {
		if _, err := Compile(expr); err == nil {
			t.Errorf("Compile(%q) succeeded, want error", expr)
		}
	}
}

// 非布尔表达式在求值时报错，而不是静默转换。
func TestEvalRequiresBoolean(t *testing.T) {
	prg, err := Compile(`item.score`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	it, rctx := sample()
	if _, err := prg.EvalItem(it, rctx); err == nil {
		t.Fatal("expected error for non-boolean expression")
	}
}

// 访问不存在的 key 是求值错误；存在性要用 `in` 判断。
func TestEvalMissingKey(t *testing.T) {
	prg, err := Compile(`label.no_such_key == "x"`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	it, rctx := sample()
	if _, err := prg.EvalItem(it, rctx); err == nil {
		t.Fatal("expected eval error for missing key")
	}

	prg, err = Compile(`"no_such_key" in label`)
	if err != nil {
		t.Fatalf("Compile: %v", err)
	}
	got, err := prg.EvalItem(it, rctx)
	if err != nil || got {
		t.Fatalf("membership check = (%v, %v), want false", got, err)
	}
}
