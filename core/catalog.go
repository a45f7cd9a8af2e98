package core

// Catalog 是书目与相似度矩阵的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（catalog）实现
//   - 进程启动时一次性加载，之后只读，因此查询不携带 context
//   - 任何缺数据/越界的查询返回空结果，不报错
//
// 矩阵索引（matrix index）是相似度矩阵的行/列号，从 0 连续；book_id
// 是外部分配的稳定 id，二者是两个独立的编号空间。所有相似度查询必须
// 先经 MatrixIndex 显式换算，严禁假设 book_id == matrix index。
type Catalog interface {
	// BookByID 按 book_id 查书
	BookByID(id int64) (*Book, bool)

	// BookByTitle 按标题子串（大小写不敏感）查书，返回首个命中
	BookByTitle(title string) (*Book, bool)

	// BooksByCategory 按类别子串（大小写不敏感）查书，最多 limit 本
	BooksByCategory(category string, limit int) []*Book

	// SearchBooks 按标题或类别子串搜索；query 为空时返回分层随机发现样本
	SearchBooks(query string, limit int) []*Book

	// MatrixIndex 将 book_id 换算为矩阵索引
	MatrixIndex(bookID int64) (int, bool)

	// BookAt 按矩阵索引取书
	BookAt(matrixIndex int) (*Book, bool)

	// SimilarityRow 返回指定矩阵索引的相似度行；索引越界时返回 nil
	SimilarityRow(matrixIndex int) []float64

	// Categories 返回全部去重后的类别标签
	Categories() []string

	// RowCount 返回矩阵行数（等于书目数）
	RowCount() int

	// RandomByCategory 分层随机采样：打乱类别后逐类抽取并补齐（冷启动/浏览用）
	RandomByCategory(limit int) []*Book

	// RandomBooks 全量均匀随机采样（trending/popular 兜底用）
	RandomBooks(limit int) []*Book
}

// CatalogStats 是数据集的概览统计。
type CatalogStats struct {
	TotalBooks      int
	TotalCategories int
	MatrixRows      int
	HasEmbeddings   bool
}
