package config

import (
	"context"
	"testing"

	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/pipeline"
)

type noopNode struct{}

func (noopNode) Name() string        { return "noop" }
func (noopNode) Kind() pipeline.Kind { return pipeline.KindReRank }
func (noopNode) Process(ctx context.Context, rctx *core.RecommendContext, items []*core.Item) ([]*core.Item, error) {
	return items, nil
}

func TestRegisterAndFactory(t *testing.T) {
	Register("test.noop", func(cfg map[string]any) (pipeline.Node, error) {
		return noopNode{}, nil
	})
	// 空类型名和 nil builder 静默忽略
	Register("", func(cfg map[string]any) (pipeline.Node, error) { return noopNode{}, nil })
	Register("test.nil", nil)

	found := false
	for _, typ := range SupportedTypes() {
		if typ == "test.noop" {
			found = true
		}
		if typ == "" || typ == "test.nil" {
			t.Fatalf("invalid registration leaked into SupportedTypes: %q", typ)
		}
	}
	if !found {
		t.Fatal("test.noop not in SupportedTypes")
	}

	node, err := DefaultFactory().Build("test.noop", nil)
	if err != nil || node == nil {
		t.Fatalf("Build = (%v, %v)", node, err)
	}
}

func TestValidatePipelineConfig(t *testing.T) {
	Register("test.noop", func(cfg map[string]any) (pipeline.Node, error) {
		return noopNode{}, nil
	})

	cfg := &pipeline.Config{}
	cfg.Pipeline.Nodes = []pipeline.NodeConfig{{Type: "test.noop"}}
	if err := ValidatePipelineConfig(cfg); err != nil {
		t.Fatalf("ValidatePipelineConfig: %v", err)
	}

	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, pipeline.NodeConfig{Type: "test.unknown"})
	if err := ValidatePipelineConfig(cfg); err == nil {
		t.Fatal("expected error for unknown node type")
	}

	if err := ValidatePipelineConfig(nil); err != nil {
		t.Fatalf("ValidatePipelineConfig(nil) = %v", err)
	}
}
