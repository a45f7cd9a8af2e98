package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/rushteam/bookrec/core"
)

// stubNode 往结果里追加一个固定 book_id，用于验证链式执行顺序。
type stubNode struct {
	id  int64
	err error
}

func (n *stubNode) Name() string { return "stub" }
func (n *stubNode) Kind() Kind   { return KindRecall }

func (n *stubNode) Process(
	ctx context.Context,
	rctx *core.RecommendContext,
	items []*core.Item,
) ([]*core.Item, error) {
	if n.err != nil {
		return nil, n.err
	}
	return append(items, core.NewItem(n.id)), nil
}

func TestPipelineRunChainsNodes(t *testing.T) {
	p := &Pipeline{Nodes: []Node{&stubNode{id: 1}, &stubNode{id: 2}, &stubNode{id: 3}}}

	items, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	want := []int64{1, 2, 3}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i, it := range items {
		if it.BookID != want[i] {
			t.Errorf("items[%d] = %d, want %d", i, it.BookID, want[i])
		}
	}
}

func TestPipelineRunStopsOnError(t *testing.T) {
	boom := errors.New("boom")
	p := &Pipeline{Nodes: []Node{&stubNode{id: 1}, &stubNode{err: boom}, &stubNode{id: 3}}}

	items, err := p.Run(context.Background(), &core.RecommendContext{}, nil)
	if !errors.Is(err, boom) || items != nil {
		t.Fatalf("Run = (%v, %v), want boom", items, err)
	}
}

const yamlConfig = `
pipeline:
  name: test-feed
  nodes:
    - type: recall.discovery
      config:
        topk: 10
    - type: rerank.topn
      config:
        n: 5
`

func TestLoadFromYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pipeline.yaml")
	if err := os.WriteFile(path, []byte(yamlConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromYAML(path)
	if err != nil {
		t.Fatalf("LoadFromYAML: %v", err)
	}
	if cfg.Pipeline.Name != "test-feed" || len(cfg.Pipeline.Nodes) != 2 {
		t.Fatalf("cfg = %+v", cfg)
	}
	if cfg.Pipeline.Nodes[0].Type != "recall.discovery" {
		t.Fatalf("nodes[0].Type = %q", cfg.Pipeline.Nodes[0].Type)
	}
	if cfg.Pipeline.Nodes[1].Config["n"] != 5 {
		t.Fatalf("nodes[1].Config = %v", cfg.Pipeline.Nodes[1].Config)
	}
}

func TestLoadFromJSON(t *testing.T) {
	const jsonConfig = `{
  "pipeline": {
    "name": "test-feed",
    "nodes": [
      {"type": "rerank.topn", "config": {"n": 5}}
    ]
  }
}`
	path := filepath.Join(t.TempDir(), "pipeline.json")
	if err := os.WriteFile(path, []byte(jsonConfig), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromJSON(path)
	if err != nil {
		t.Fatalf("LoadFromJSON: %v", err)
	}
	if cfg.Pipeline.Name != "test-feed" || len(cfg.Pipeline.Nodes) != 1 {
		t.Fatalf("cfg = %+v", cfg)
	}
}

func TestLoadErrors(t *testing.T) {
	if _, err := LoadFromYAML(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
	path := filepath.Join(t.TempDir(), "bad.yaml")
	if err := os.WriteFile(path, []byte(":\n  - not yaml ["), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromYAML(path); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestNodeFactory(t *testing.T) {
	f := NewNodeFactory()
	f.Register("stub", func(cfg map[string]any) (Node, error) {
		return &stubNode{id: 7}, nil
	})

	node, err := f.Build("stub", nil)
	if err != nil || node == nil {
		t.Fatalf("Build = (%v, %v)", node, err)
	}
	if _, err := f.Build("nope", nil); err == nil {
		t.Fatal("expected error for unknown node type")
	}
}

func TestBuildPipeline(t *testing.T) {
	f := NewNodeFactory()
	f.Register("stub", func(cfg map[string]any) (Node, error) {
		return &stubNode{id: 7}, nil
	})

	cfg := &Config{}
	cfg.Pipeline.Nodes = []NodeConfig{{Type: "stub"}, {Type: "stub"}}
	p, err := cfg.BuildPipeline(f)
	if err != nil || len(p.Nodes) != 2 {
		t.Fatalf("BuildPipeline = (%v, %v)", p, err)
	}

	cfg.Pipeline.Nodes = append(cfg.Pipeline.Nodes, NodeConfig{Type: "nope"})
	if _, err := cfg.BuildPipeline(f); err == nil {
		t.Fatal("expected error for unregistered node type")
	}
}
