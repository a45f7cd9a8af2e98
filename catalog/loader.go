package catalog

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/rushteam/bookrec/core"
)

// 数据目录中的工件文件名。矩阵与索引映射由离线任务产出，
// 本包只负责加载，不负责训练。
const (
	MetadataFile   = "book_metadata.csv"
	MatrixFile     = "similarity_matrix.csv"
	IndexFile      = "book_index.csv"
	EmbeddingsFile = "book_embeddings.csv" // 可选
)

// Load 从数据目录加载全部工件并构建 Catalog。
//
// 必需工件：
//   - book_metadata.csv：header 为 book_id,title,category,description
//   - similarity_matrix.csv：稠密方阵，每行逗号分隔的浮点数
//   - book_index.csv：header 为 book_id,matrix_index，显式的 id ↔ 行号映射
//
// 可选工件：
//   - book_embeddings.csv：缺失时静默跳过（预留扩展点，当前无消费方）
//
// 任何必需工件缺失或损坏都是致命的启动错误。
func Load(dir string) (*Catalog, error) {
	meta, err := loadMetadata(filepath.Join(dir, MetadataFile))
	if err != nil {
		return nil, fmt.Errorf("catalog: load metadata: %w", err)
	}

	matrix, err := loadMatrix(filepath.Join(dir, MatrixFile))
	if err != nil {
		return nil, fmt.Errorf("catalog: load similarity matrix: %w", err)
	}

	index, err := loadIndex(filepath.Join(dir, IndexFile))
	if err != nil {
		return nil, fmt.Errorf("catalog: load index mapping: %w", err)
	}

	// 按映射把每本书放到它的矩阵行号位置上
	books := make([]*core.Book, len(matrix))
	for _, b := range meta {
		idx, ok := index[b.ID]
		if !ok {
			return nil, fmt.Errorf("catalog: book_id %d missing from index mapping", b.ID)
		}
		if idx < 0 || idx >= len(books) {
			return nil, fmt.Errorf("catalog: book_id %d maps to out-of-range index %d", b.ID, idx)
		}
		if books[idx] != nil {
			return nil, fmt.Errorf("catalog: matrix index %d mapped twice", idx)
		}
		books[idx] = b
	}
	for i, b := range books {
		if b == nil {
			return nil, fmt.Errorf("catalog: matrix row %d has no book metadata", i)
		}
	}

	c, err := New(books, matrix)
	if err != nil {
		return nil, err
	}

	// embeddings 是可选工件：缺失非致命，存在但损坏则报错
	embPath := filepath.Join(dir, EmbeddingsFile)
	if _, statErr := os.Stat(embPath); statErr == nil {
		emb, err := loadFloatRows(embPath)
		if err != nil {
			return nil, fmt.Errorf("catalog: load embeddings: %w", err)
		}
		c.embeddings = emb
	}

	return c, nil
}

func loadMetadata(path string) ([]*core.Book, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 4

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 {
		return nil, fmt.Errorf("%s: missing header", path)
	}
	if records[0][0] != "book_id" {
		return nil, fmt.Errorf("%s: unexpected header %v", path, records[0])
	}

	books := make([]*core.Book, 0, len(records)-1)
	for i, rec := range records[1:] {
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: bad book_id %q", path, i+2, rec[0])
		}
		books = append(books, &core.Book{
			ID:          id,
			Title:       rec[1],
			Category:    rec[2],
			Description: rec[3],
		})
	}
	return books, nil
}

func loadIndex(path string) (map[int64]int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = 2

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 1 || records[0][0] != "book_id" {
		return nil, fmt.Errorf("%s: unexpected header", path)
	}

	index := make(map[int64]int, len(records)-1)
	for i, rec := range records[1:] {
		id, err := strconv.ParseInt(rec[0], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: bad book_id %q", path, i+2, rec[0])
		}
		idx, err := strconv.Atoi(rec[1])
		if err != nil {
			return nil, fmt.Errorf("%s: row %d: bad matrix_index %q", path, i+2, rec[1])
		}
		index[id] = idx
	}
	return index, nil
}

func loadMatrix(path string) ([][]float64, error) {
	rows, err := loadFloatRows(path)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: empty matrix", path)
	}
	return rows, nil
}

// loadFloatRows 读取一个无 header 的数值 CSV（矩阵/embedding 通用）。
func loadFloatRows(path string) ([][]float64, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	records, err := r.ReadAll()
	if err != nil {
		return nil, err
	}

	rows := make([][]float64, 0, len(records))
	for i, rec := range records {
		row := make([]float64, len(rec))
		for j, cell := range rec {
			v, err := strconv.ParseFloat(cell, 64)
			if err != nil {
				return nil, fmt.Errorf("%s: row %d col %d: bad value %q", path, i+1, j+1, cell)
			}
			row[j] = v
		}
		rows = append(rows, row)
	}
	return rows, nil
}
