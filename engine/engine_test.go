package engine

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/rushteam/bookrec/catalog"
	"github.com/rushteam/bookrec/core"
	"github.com/rushteam/bookrec/userstore"
)

// 固定的小目录：3 个类别，矩阵对称且对角线为 1。
// alice 的历史是 Dune(1) 和 The Hobbit(3)。
func newFixture(t *testing.T) (*Engine, *userstore.MemoryStore) {
	t.Helper()
	books := []*core.Book{
		{ID: 1, Title: "Dune", Category: "Sci-Fi"},
		{ID: 2, Title: "Foundation", Category: "Sci-Fi"},
		{ID: 3, Title: "The Hobbit", Category: "Fantasy"},
		{ID: 4, Title: "Mistborn", Category: "Fantasy"},
		{ID: 5, Title: "Gone Girl", Category: "Thriller"},
		{ID: 6, Title: "Hyperion", Category: "Sci-Fi"},
	}
	matrix := [][]float64{
		{1.00, 0.90, 0.10, 0.20, 0.05, 0.80},
		{0.90, 1.00, 0.10, 0.30, 0.05, 0.70},
		{0.10, 0.10, 1.00, 0.85, 0.20, 0.10},
		{0.20, 0.30, 0.85, 1.00, 0.20, 0.10},
		{0.05, 0.05, 0.20, 0.20, 1.00, 0.05},
		{0.80, 0.70, 0.10, 0.10, 0.05, 1.00},
	}
	c, err := catalog.New(books, matrix)
	if err != nil {
		t.Fatalf("catalog.New: %v", err)
	}
	s := userstore.NewMemoryStore()
	ctx := context.Background()
	if _, err := s.CreateUser(ctx, "alice", "alice"); err != nil {
		t.Fatal(err)
	}
	_ = s.AddHistory(ctx, "alice", 1)
	_ = s.AddHistory(ctx, "alice", 3)
	return New(c, s), s
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestItemToItem(t *testing.T) {
	eng, _ := newFixture(t)
	ctx := context.Background()

	items := eng.ItemToItem(ctx, 1, 3)
	want := []struct {
		id    int64
		score float64
	}{
		{2, 0.90},
		{6, 0.80},
		{4, 0.20},
	}
	if len(items) != len(want) {
		t.Fatalf("got %d items, want %d", len(items), len(want))
	}
	for i, w := range want {
		if items[i].BookID != w.id || !almostEqual(items[i].Score, w.score) {
			t.Errorf("items[%d] = (%d, %v), want (%d, %v)",
				i, items[i].BookID, items[i].Score, w.id, w.score)
		}
	}

	if items := eng.ItemToItem(ctx, 999, 3); items != nil {
		t.Fatalf("ItemToItem(unknown) = %v, want nil", items)
	}
}

func TestByTitle(t *testing.T) {
	eng, _ := newFixture(t)
	ctx := context.Background()

	items := eng.ByTitle(ctx, "dune", 2)
	if len(items) != 2 || items[0].BookID != 2 || items[1].BookID != 6 {
		t.Fatalf("ByTitle(dune) = %v, want [2 6]", items)
	}
	if items := eng.ByTitle(ctx, "no such book", 2); items != nil {
		t.Fatalf("ByTitle(miss) = %v, want nil", items)
	}
}

func TestUserBased(t *testing.T) {
	eng, _ := newFixture(t)
	ctx := context.Background()

	// 对历史 [1, 3] 的累加相似度（÷ 历史数 2）：
	//   4: (0.20 + 0.85) / 2 = 0.525
	//   2: (0.90 + 0.10) / 2 = 0.500
	//   6: (0.80 + 0.10) / 2 = 0.450
	//   5: (0.05 + 0.20) / 2 = 0.125
	items := eng.UserBased(ctx, "alice", 4)
	want := []struct {
		id    int64
		score float64
	}{
		{4, 0.525},
		{2, 0.500},
		{6, 0.450},
		{5, 0.125},
	}
	if len(items) != len(want) {
		t.Fatalf("got %v, want %d items", items, len(want))
	}
	for i, w := range want {
		if items[i].BookID != w.id || !almostEqual(items[i].Score, w.score) {
			t.Errorf("items[%d] = (%d, %v), want (%d, %v)",
				i, items[i].BookID, items[i].Score, w.id, w.score)
		}
	}
	for _, it := range items {
		if it.BookID == 1 || it.BookID == 3 {
			t.Fatal("history book leaked into recommendations")
		}
	}
}

func TestCategoryBased(t *testing.T) {
	eng, _ := newFixture(t)
	ctx := context.Background()

	items := eng.CategoryBased(ctx, "alice", 2)
	// 每个类别 1 个名额：Sci-Fi 里未读的首本是 2，Fantasy 里是 4
	if len(items) != 2 || items[0].BookID != 2 || items[1].BookID != 4 {
		t.Fatalf("CategoryBased = %v, want [2 4]", items)
	}
	for _, it := range items {
		if !almostEqual(it.Score, 0.8) {
			t.Fatalf("placeholder score = %v, want 0.8", it.Score)
		}
	}
}

func TestHybridUserBasedWinsAndDedups(t *testing.T) {
	eng, _ := newFixture(t)
	ctx := context.Background()

	// 两路各取 limit/2 = 2：user-based [4, 2]，category [2, 4]——完全重叠。
	// 合并后 user-based 严格优先，重复只留一份，矩阵分数不被占位分覆盖。
	items := eng.Hybrid(ctx, "alice", 4)
	if len(items) != 2 {
		t.Fatalf("Hybrid = %v, want 2 items", items)
	}
	if items[0].BookID != 4 || items[1].BookID != 2 {
		t.Fatalf("Hybrid order = [%d %d], want [4 2]", items[0].BookID, items[1].BookID)
	}
	if !almostEqual(items[0].Score, 0.525) || !almostEqual(items[1].Score, 0.5) {
		t.Fatalf("Hybrid scores = [%v %v], want user-based scores kept",
			items[0].Score, items[1].Score)
	}
	for _, it := range items {
		if it.Labels["recall_source"].Value != "u2i" {
			t.Fatalf("recall_source = %q, want u2i", it.Labels["recall_source"].Value)
		}
	}
}

func TestHybridEmptyHistory(t *testing.T) {
	eng, s := newFixture(t)
	ctx := context.Background()
	if _, err := s.CreateUser(ctx, "bob", "bob"); err != nil {
		t.Fatal(err)
	}

	// 空历史不兜底：trending 展示由调用方自己走 PopularBooks
	if items := eng.Hybrid(ctx, "bob", 4); items != nil {
		t.Fatalf("Hybrid(no history) = %v, want nil", items)
	}
}

func TestHybridFallsBackToPopular(t *testing.T) {
	eng, s := newFixture(t)
	ctx := context.Background()

	// alice 读完全部 6 本：两路召回都只剩历史书，合并为空，
	// 兜底为全量随机采样，占位分 0.5
	for _, id := range []int64{2, 4, 5, 6} {
		_ = s.AddHistory(ctx, "alice", id)
	}

	items := eng.Hybrid(ctx, "alice", 4)
	if len(items) != 4 {
		t.Fatalf("Hybrid fallback = %v, want 4 items", items)
	}
	for _, it := range items {
		if !almostEqual(it.Score, 0.5) {
			t.Fatalf("fallback score = %v, want 0.5", it.Score)
		}
	}
}

func TestHybridGuards(t *testing.T) {
	eng, _ := newFixture(t)
	ctx := context.Background()

	if items := eng.Hybrid(ctx, "", 4); items != nil {
		t.Fatalf("Hybrid(empty user) = %v", items)
	}
	if items := eng.Hybrid(ctx, "alice", 0); items != nil {
		t.Fatalf("Hybrid(limit=0) = %v", items)
	}
	if items := eng.Hybrid(ctx, "ghost", 4); items != nil {
		t.Fatalf("Hybrid(unknown user) = %v", items)
	}
}

func TestPopularAndDiscover(t *testing.T) {
	eng, _ := newFixture(t)
	ctx := context.Background()

	for round := 0; round < 10; round++ {
		items := eng.PopularBooks(ctx, 3)
		if len(items) != 3 {
			t.Fatalf("PopularBooks = %d items, want 3", len(items))
		}
		items = eng.DiscoverBooks(ctx, 3)
		if len(items) != 3 {
			t.Fatalf("DiscoverBooks = %d items, want 3", len(items))
		}
		seen := make(map[int64]bool)
		for _, it := range items {
			if seen[it.BookID] {
				t.Fatalf("duplicate book %d in discover sample", it.BookID)
			}
			seen[it.BookID] = true
		}
	}
}

// brokenStore 模拟存储故障：所有读路径报错。
type brokenStore struct {
	*userstore.MemoryStore
}

func (b *brokenStore) GetHistory(ctx context.Context, userID string) ([]int64, error) {
	return nil, errors.New("store down")
}

func TestExplain(t *testing.T) {
	eng, s := newFixture(t)
	ctx := context.Background()

	if _, err := s.CreateUser(ctx, "bob", "bob"); err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateUser(ctx, "carol", "carol"); err != nil {
		t.Fatal(err)
	}
	_ = s.AddHistory(ctx, "carol", 999) // 历史里只有已下架的书

	tests := []struct {
		name   string
		userID string
		bookID int64
		want   string
	}{
		{
			name:   "unknown book",
			userID: "alice",
			bookID: 999,
			want:   "Book not found.",
		},
		{
			name:   "empty history names the category",
			userID: "bob",
			bookID: 2,
			want:   "Recommended because 'Foundation' is a popular book in Sci-Fi.",
		},
		{
			// alice 读过 Dune(相似度 0.9) 和 The Hobbit(0.1)，取最高
			name:   "names the closest book read",
			userID: "alice",
			bookID: 2,
			want:   "Recommended because you read 'Dune' and this book is 90.0% similar.",
		},
		{
			name:   "stale history falls back to category interest",
			userID: "carol",
			bookID: 4,
			want:   "Recommended based on your interest in Fantasy books.",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := eng.Explain(ctx, tt.userID, tt.bookID); got != tt.want {
				t.Errorf("Explain = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestExplainStoreFault(t *testing.T) {
	books := []*core.Book{{ID: 1, Title: "Dune", Category: "Sci-Fi"}}
	c, err := catalog.New(books, [][]float64{{1}})
	if err != nil {
		t.Fatal(err)
	}
	eng := New(c, &brokenStore{userstore.NewMemoryStore()})

	if got := eng.Explain(context.Background(), "alice", 1); got != "Recommended for you." {
		t.Fatalf("Explain under store fault = %q", got)
	}
}

func TestHybridStoreFaultFailsSoft(t *testing.T) {
	books := []*core.Book{{ID: 1, Title: "Dune", Category: "Sci-Fi"}}
	c, err := catalog.New(books, [][]float64{{1}})
	if err != nil {
		t.Fatal(err)
	}
	eng := New(c, &brokenStore{userstore.NewMemoryStore()})

	if items := eng.Hybrid(context.Background(), "alice", 4); items != nil {
		t.Fatalf("Hybrid under store fault = %v, want nil", items)
	}
}
