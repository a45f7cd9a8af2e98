package userstore

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/rushteam/bookrec/core"
)

// 数据目录中的三个追加式日志文件。
const (
	UsersFile     = "users.csv"
	HistoryFile   = "user_history.csv"
	FavoritesFile = "user_favorites.csv"
)

// CSVStore 是 CSV 追加日志实现的 UserStore。
//
// 写入模型：
//   - 新增 = 追加一行；删除 = 读全量、过滤、整文件重写（临时文件 + rename）
//   - 同一 store 的写操作由互斥锁串行化，读走读锁
//   - (user_id, book_id) 去重在写入时完成，读侧再防御性去重一次，
//     保证手工编辑过的日志也不会在打分中重复计数
//
// 文件不存在时创建空文件并写入 header 行。
type CSVStore struct {
	mu            sync.RWMutex
	usersFile     string
	historyFile   string
	favoritesFile string
}

// NewCSVStore 在 dir 下打开（或初始化）三个日志文件。
func NewCSVStore(dir string) (*CSVStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, faultErr("init", err)
	}
	s := &CSVStore{
		usersFile:     filepath.Join(dir, UsersFile),
		historyFile:   filepath.Join(dir, HistoryFile),
		favoritesFile: filepath.Join(dir, FavoritesFile),
	}
	if err := ensureFile(s.usersFile, []string{"id", "username", "created_at"}); err != nil {
		return nil, err
	}
	if err := ensureFile(s.historyFile, []string{"user_id", "book_id", "timestamp"}); err != nil {
		return nil, err
	}
	if err := ensureFile(s.favoritesFile, []string{"user_id", "book_id", "timestamp"}); err != nil {
		return nil, err
	}
	return s, nil
}

var _ core.UserStore = (*CSVStore)(nil)

func (s *CSVStore) Name() string { return "csv" }

func (s *CSVStore) Close() error { return nil }

func (s *CSVStore) CreateUser(ctx context.Context, id, username string) (*core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	users, err := s.readUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == id {
			return nil, core.ErrUserExists
		}
	}

	u := &core.User{ID: id, Username: username, CreatedAt: time.Now()}
	err = appendRow(s.usersFile, []string{u.ID, u.Username, u.CreatedAt.Format(time.RFC3339)})
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *CSVStore) GetUser(ctx context.Context, id string) (*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getUserLocked(id)
}

func (s *CSVStore) getUserLocked(id string) (*core.User, error) {
	users, err := s.readUsers()
	if err != nil {
		return nil, err
	}
	for _, u := range users {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, core.ErrUserNotFound
}

func (s *CSVStore) AllUsers(ctx context.Context) ([]*core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.readUsers()
}

func (s *CSVStore) AddHistory(ctx context.Context, userID string, bookID int64) error {
	return s.appendEntry(s.historyFile, userID, bookID)
}

func (s *CSVStore) RemoveHistory(ctx context.Context, userID string, bookID int64) error {
	return s.removeEntry(s.historyFile, userID, bookID)
}

func (s *CSVStore) GetHistory(ctx context.Context, userID string) ([]int64, error) {
	return s.listBooks(s.historyFile, userID)
}

func (s *CSVStore) InHistory(ctx context.Context, userID string, bookID int64) (bool, error) {
	return s.contains(s.historyFile, userID, bookID)
}

func (s *CSVStore) AddFavorite(ctx context.Context, userID string, bookID int64) error {
	return s.appendEntry(s.favoritesFile, userID, bookID)
}

func (s *CSVStore) RemoveFavorite(ctx context.Context, userID string, bookID int64) error {
	return s.removeEntry(s.favoritesFile, userID, bookID)
}

func (s *CSVStore) GetFavorites(ctx context.Context, userID string) ([]int64, error) {
	return s.listBooks(s.favoritesFile, userID)
}

func (s *CSVStore) IsFavorite(ctx context.Context, userID string, bookID int64) (bool, error) {
	return s.contains(s.favoritesFile, userID, bookID)
}

func (s *CSVStore) UserStats(ctx context.Context, userID string) (*core.UserStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, err := s.getUserLocked(userID)
	if err != nil {
		return nil, err
	}
	history, err := s.listBooksLocked(s.historyFile, userID)
	if err != nil {
		return nil, err
	}
	return &core.UserStats{
		UserID:         u.ID,
		Username:       u.Username,
		CreatedAt:      u.CreatedAt,
		BooksRead:      len(history),
		ReadingHistory: history,
	}, nil
}

func (s *CSVStore) SystemStats(ctx context.Context) (*core.SystemStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	users, err := s.readUsers()
	if err != nil {
		return nil, err
	}
	entries, err := readEntries(s.historyFile)
	if err != nil {
		return nil, err
	}
	return &core.SystemStats{
		TotalUsers:          len(users),
		TotalReadingEntries: len(entries),
	}, nil
}

// appendEntry 追加一条交互记录；用户必须存在，重复写入静默幂等。
func (s *CSVStore) appendEntry(path, userID string, bookID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.getUserLocked(userID); err != nil {
		return err
	}

	entries, err := readEntries(path)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if e.UserID == userID && e.BookID == bookID {
			return nil
		}
	}

	return appendRow(path, []string{
		userID,
		strconv.FormatInt(bookID, 10),
		time.Now().Format(time.RFC3339),
	})
}

// removeEntry 删除一条交互记录：过滤后整文件重写。
func (s *CSVStore) removeEntry(path, userID string, bookID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := readEntries(path)
	if err != nil {
		return err
	}

	kept := make([]core.InteractionEntry, 0, len(entries))
	for _, e := range entries {
		if e.UserID == userID && e.BookID == bookID {
			continue
		}
		kept = append(kept, e)
	}
	return rewriteEntries(path, kept)
}

func (s *CSVStore) listBooks(path, userID string) ([]int64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.listBooksLocked(path, userID)
}

func (s *CSVStore) listBooksLocked(path, userID string) ([]int64, error) {
	entries, err := readEntries(path)
	if err != nil {
		return nil, err
	}
	seen := make(map[int64]bool)
	var out []int64
	for _, e := range entries {
		if e.UserID != userID || seen[e.BookID] {
			continue
		}
		seen[e.BookID] = true
		out = append(out, e.BookID)
	}
	return out, nil
}

func (s *CSVStore) contains(path, userID string, bookID int64) (bool, error) {
	books, err := s.listBooks(path, userID)
	if err != nil {
		return false, err
	}
	for _, id := range books {
		if id == bookID {
			return true, nil
		}
	}
	return false, nil
}

func (s *CSVStore) readUsers() ([]*core.User, error) {
	records, err := readDataRows(s.usersFile, 3)
	if err != nil {
		return nil, err
	}
	users := make([]*core.User, 0, len(records))
	for _, rec := range records {
		created, err := time.Parse(time.RFC3339, rec[2])
		if err != nil {
			// 时间戳损坏的行保留但置零，避免一行坏数据拖垮整张表
			created = time.Time{}
		}
		users = append(users, &core.User{ID: rec[0], Username: rec[1], CreatedAt: created})
	}
	return users, nil
}

func readEntries(path string) ([]core.InteractionEntry, error) {
	records, err := readDataRows(path, 3)
	if err != nil {
		return nil, err
	}
	entries := make([]core.InteractionEntry, 0, len(records))
	for _, rec := range records {
		bookID, err := strconv.ParseInt(rec[1], 10, 64)
		if err != nil {
			continue // 跳过损坏行
		}
		ts, _ := time.Parse(time.RFC3339, rec[2])
		entries = append(entries, core.InteractionEntry{
			UserID:    rec[0],
			BookID:    bookID,
			Timestamp: ts,
		})
	}
	return entries, nil
}

// readDataRows 读取 CSV 并去掉 header 行。
func readDataRows(path string, fields int) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, faultErr("read", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = fields

	records, err := r.ReadAll()
	if err != nil {
		return nil, faultErr("read", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}
	return records[1:], nil
}

func appendRow(path string, record []string) error {
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return faultErr("append", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(record); err != nil {
		return faultErr("append", err)
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return faultErr("append", err)
	}
	return nil
}

// rewriteEntries 把过滤后的集合写入临时文件再 rename，避免重写途中崩溃丢数据。
func rewriteEntries(path string, entries []core.InteractionEntry) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), ".rewrite-*")
	if err != nil {
		return faultErr("rewrite", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write([]string{"user_id", "book_id", "timestamp"}); err != nil {
		tmp.Close()
		return faultErr("rewrite", err)
	}
	for _, e := range entries {
		rec := []string{e.UserID, strconv.FormatInt(e.BookID, 10), e.Timestamp.Format(time.RFC3339)}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return faultErr("rewrite", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return faultErr("rewrite", err)
	}
	if err := tmp.Close(); err != nil {
		return faultErr("rewrite", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return faultErr("rewrite", err)
	}
	return nil
}

func ensureFile(path string, header []string) error {
	if _, err := os.Stat(path); err == nil {
		return nil
	}
	f, err := os.Create(path)
	if err != nil {
		return faultErr("init", err)
	}
	defer f.Close()

	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		return faultErr("init", err)
	}
	w.Flush()
	return w.Error()
}

func faultErr(op string, err error) error {
	return core.NewDomainError(core.ModuleUserStore, core.ErrorCodeStoreFault,
		fmt.Sprintf("userstore: %s: %v", op, err))
}
