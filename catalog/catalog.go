package catalog

import (
	"fmt"
	"math/rand"
	"strings"

	"github.com/rushteam/bookrec/core"
)

// Catalog 是 core.Catalog 的内存实现：书目元数据 + 稠密相似度矩阵 +
// 显式的 book_id ↔ 矩阵索引 / 标题 ↔ 矩阵索引 双向映射。
//
// 进程启动时一次性构建，之后只读，可被任意多个 goroutine 并发查询。
// 采样方法内部使用全局随机源，每次调用结果不同（刻意不设种子）。
type Catalog struct {
	books        []*core.Book // 按矩阵索引排列，books[i] 即矩阵第 i 行对应的书
	byID         map[int64]*core.Book
	idToIndex    map[int64]int  // book_id -> 矩阵索引
	titleToIndex map[string]int // 小写标题 -> 矩阵索引
	matrix       [][]float64
	embeddings   [][]float64 // 可选工件，当前没有任何打分路径消费它
	categories   []string    // 去重后的类别标签，按首次出现顺序
}

// New 以矩阵索引顺序的书目和稠密方阵构建 Catalog。
// books[i] 对应 matrix 第 i 行；book_id 可以是任意稳定整数，不要求连续。
func New(books []*core.Book, matrix [][]float64) (*Catalog, error) {
	if len(books) == 0 {
		return nil, fmt.Errorf("catalog: empty book metadata")
	}
	if len(matrix) != len(books) {
		return nil, fmt.Errorf("catalog: matrix rows %d != books %d", len(matrix), len(books))
	}
	for i, row := range matrix {
		if len(row) != len(matrix) {
			return nil, fmt.Errorf("catalog: matrix is not square at row %d", i)
		}
	}

	c := &Catalog{
		books:        books,
		byID:         make(map[int64]*core.Book, len(books)),
		idToIndex:    make(map[int64]int, len(books)),
		titleToIndex: make(map[string]int, len(books)),
		matrix:       matrix,
	}

	seenCategory := make(map[string]bool)
	for i, b := range books {
		if b == nil {
			return nil, fmt.Errorf("catalog: nil book at index %d", i)
		}
		if _, dup := c.idToIndex[b.ID]; dup {
			return nil, fmt.Errorf("catalog: duplicate book_id %d", b.ID)
		}
		c.byID[b.ID] = b
		c.idToIndex[b.ID] = i
		// 标题重复时保留首个（与“首个命中”的查询语义一致）
		key := strings.ToLower(b.Title)
		if _, ok := c.titleToIndex[key]; !ok {
			c.titleToIndex[key] = i
		}
		if !seenCategory[b.Category] {
			seenCategory[b.Category] = true
			c.categories = append(c.categories, b.Category)
		}
	}
	return c, nil
}

var _ core.Catalog = (*Catalog)(nil)

// BookByID 按 book_id 查书。
func (c *Catalog) BookByID(id int64) (*core.Book, bool) {
	b, ok := c.byID[id]
	return b, ok
}

// BookByTitle 按标题子串（大小写不敏感）查书，按矩阵索引顺序返回首个命中。
func (c *Catalog) BookByTitle(title string) (*core.Book, bool) {
	if title == "" {
		return nil, false
	}
	needle := strings.ToLower(title)
	// 先查精确映射，再退化为子串扫描
	if idx, ok := c.titleToIndex[needle]; ok {
		return c.books[idx], true
	}
	for _, b := range c.books {
		if strings.Contains(strings.ToLower(b.Title), needle) {
			return b, true
		}
	}
	return nil, false
}

// BooksByCategory 按类别子串（大小写不敏感）查书，最多 limit 本。
func (c *Catalog) BooksByCategory(category string, limit int) []*core.Book {
	if category == "" || limit <= 0 {
		return nil
	}
	needle := strings.ToLower(category)
	out := make([]*core.Book, 0, limit)
	for _, b := range c.books {
		if strings.Contains(strings.ToLower(b.Category), needle) {
			out = append(out, b)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// SearchBooks 按标题或类别子串搜索；query 为空时返回分层随机发现样本。
func (c *Catalog) SearchBooks(query string, limit int) []*core.Book {
	if limit <= 0 {
		return nil
	}
	query = strings.TrimSpace(query)
	if query == "" {
		return c.RandomByCategory(limit)
	}
	needle := strings.ToLower(query)
	out := make([]*core.Book, 0, limit)
	for _, b := range c.books {
		if strings.Contains(strings.ToLower(b.Title), needle) ||
			strings.Contains(strings.ToLower(b.Category), needle) {
			out = append(out, b)
			if len(out) >= limit {
				break
			}
		}
	}
	return out
}

// MatrixIndex 将 book_id 显式换算为矩阵索引。
// 这是所有相似度查询的必经入口：book_id 不保证从 0 连续，
// 直接拿它当行号用是错误的。
func (c *Catalog) MatrixIndex(bookID int64) (int, bool) {
	idx, ok := c.idToIndex[bookID]
	return idx, ok
}

// BookAt 按矩阵索引取书；越界返回 false。
func (c *Catalog) BookAt(matrixIndex int) (*core.Book, bool) {
	if matrixIndex < 0 || matrixIndex >= len(c.books) {
		return nil, false
	}
	return c.books[matrixIndex], true
}

// SimilarityRow 返回指定矩阵索引的相似度行；索引越界时返回 nil。
// 返回的切片为内部数据，调用方不得修改。
func (c *Catalog) SimilarityRow(matrixIndex int) []float64 {
	if matrixIndex < 0 || matrixIndex >= len(c.matrix) {
		return nil
	}
	return c.matrix[matrixIndex]
}

// Categories 返回全部去重后的类别标签（按首次出现顺序）。
func (c *Catalog) Categories() []string {
	out := make([]string, len(c.categories))
	copy(out, c.categories)
	return out
}

// RowCount 返回矩阵行数（等于书目数）。
func (c *Catalog) RowCount() int {
	return len(c.books)
}

// HasEmbeddings 报告可选的 embedding 工件是否已加载。
// 该工件目前只是预留扩展点，没有打分路径消费它。
func (c *Catalog) HasEmbeddings() bool {
	return c.embeddings != nil
}

// Stats 返回数据集概览统计。
func (c *Catalog) Stats() core.CatalogStats {
	return core.CatalogStats{
		TotalBooks:      len(c.books),
		TotalCategories: len(c.categories),
		MatrixRows:      len(c.matrix),
		HasEmbeddings:   c.embeddings != nil,
	}
}

// RandomByCategory 是分层随机采样（带补齐）：
//  1. 打乱类别顺序（每次调用都重新打乱）
//  2. perCategory = max(1, limit/类别数)
//  3. 逐类别无放回均匀抽取 min(perCategory, 类别内可用数, 剩余名额) 本，
//     跳过本次调用已选中的 book_id
//  4. 收集满 limit 本提前停止
//  5. 补齐：仍不足 limit 时从全量未选中的书里均匀补抽
//
// 保证：结果无重复 book_id；数量 ≤ limit；只有当目录本身不足 limit 本时
// 数量才会小于 limit。
func (c *Catalog) RandomByCategory(limit int) []*core.Book {
	if limit <= 0 || len(c.books) == 0 {
		return nil
	}

	cats := make([]string, len(c.categories))
	copy(cats, c.categories)
	rand.Shuffle(len(cats), func(i, j int) { cats[i], cats[j] = cats[j], cats[i] })

	perCategory := limit / len(cats)
	if perCategory < 1 {
		perCategory = 1
	}

	selected := make([]*core.Book, 0, limit)
	used := make(map[int64]bool, limit)

	for _, cat := range cats {
		if len(selected) >= limit {
			break
		}

		pool := c.booksInCategory(cat)
		remaining := limit - len(selected)
		sampleSize := perCategory
		if sampleSize > len(pool) {
			sampleSize = len(pool)
		}
		if sampleSize > remaining {
			sampleSize = remaining
		}
		if sampleSize <= 0 {
			continue
		}

		rand.Shuffle(len(pool), func(i, j int) { pool[i], pool[j] = pool[j], pool[i] })
		for _, b := range pool[:sampleSize] {
			if used[b.ID] || len(selected) >= limit {
				continue
			}
			selected = append(selected, b)
			used[b.ID] = true
		}
	}

	// 补齐：从未选中的全量书目里均匀补抽
	if len(selected) < limit {
		rest := make([]*core.Book, 0, len(c.books)-len(selected))
		for _, b := range c.books {
			if !used[b.ID] {
				rest = append(rest, b)
			}
		}
		rand.Shuffle(len(rest), func(i, j int) { rest[i], rest[j] = rest[j], rest[i] })
		for _, b := range rest {
			if len(selected) >= limit {
				break
			}
			selected = append(selected, b)
			used[b.ID] = true
		}
	}

	return selected
}

// RandomBooks 从全量书目均匀随机抽取 min(limit, 书目数) 本，无分层。
func (c *Catalog) RandomBooks(limit int) []*core.Book {
	if limit <= 0 || len(c.books) == 0 {
		return nil
	}
	n := limit
	if n > len(c.books) {
		n = len(c.books)
	}
	out := make([]*core.Book, 0, n)
	for _, i := range rand.Perm(len(c.books))[:n] {
		out = append(out, c.books[i])
	}
	return out
}

// booksInCategory 返回类别完全相等的书（分层采样的桶划分用精确匹配）。
func (c *Catalog) booksInCategory(category string) []*core.Book {
	var out []*core.Book
	for _, b := range c.books {
		if b.Category == category {
			out = append(out, b)
		}
	}
	return out
}
