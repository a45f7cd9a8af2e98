package userstore

import (
	"context"
	"sync"
	"time"

	"github.com/rushteam/bookrec/core"
)

// MemoryStore 是内存实现的 UserStore，用于测试/开发/原型。
// 语义与 CSVStore 完全一致（写时去重、插入有序），但进程重启后数据丢失。
type MemoryStore struct {
	mu        sync.RWMutex
	users     map[string]*core.User
	userOrder []string
	history   map[string][]int64 // user_id -> 按插入顺序的 book_id
	favorites map[string][]int64
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		users:     make(map[string]*core.User),
		history:   make(map[string][]int64),
		favorites: make(map[string][]int64),
	}
}

var _ core.UserStore = (*MemoryStore)(nil)

func (m *MemoryStore) Name() string { return "memory" }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) CreateUser(ctx context.Context, id, username string) (*core.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[id]; ok {
		return nil, core.ErrUserExists
	}
	u := &core.User{ID: id, Username: username, CreatedAt: time.Now()}
	m.users[id] = u
	m.userOrder = append(m.userOrder, id)
	return u, nil
}

func (m *MemoryStore) GetUser(ctx context.Context, id string) (*core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[id]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	return u, nil
}

func (m *MemoryStore) AllUsers(ctx context.Context) ([]*core.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*core.User, 0, len(m.userOrder))
	for _, id := range m.userOrder {
		out = append(out, m.users[id])
	}
	return out, nil
}

func (m *MemoryStore) AddHistory(ctx context.Context, userID string, bookID int64) error {
	return m.add(m.history, userID, bookID)
}

func (m *MemoryStore) RemoveHistory(ctx context.Context, userID string, bookID int64) error {
	return m.remove(m.history, userID, bookID)
}

func (m *MemoryStore) GetHistory(ctx context.Context, userID string) ([]int64, error) {
	return m.list(m.history, userID)
}

func (m *MemoryStore) InHistory(ctx context.Context, userID string, bookID int64) (bool, error) {
	return m.has(m.history, userID, bookID)
}

func (m *MemoryStore) AddFavorite(ctx context.Context, userID string, bookID int64) error {
	return m.add(m.favorites, userID, bookID)
}

func (m *MemoryStore) RemoveFavorite(ctx context.Context, userID string, bookID int64) error {
	return m.remove(m.favorites, userID, bookID)
}

func (m *MemoryStore) GetFavorites(ctx context.Context, userID string) ([]int64, error) {
	return m.list(m.favorites, userID)
}

func (m *MemoryStore) IsFavorite(ctx context.Context, userID string, bookID int64) (bool, error) {
	return m.has(m.favorites, userID, bookID)
}

func (m *MemoryStore) UserStats(ctx context.Context, userID string) (*core.UserStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	u, ok := m.users[userID]
	if !ok {
		return nil, core.ErrUserNotFound
	}
	history := append([]int64(nil), m.history[userID]...)
	return &core.UserStats{
		UserID:         u.ID,
		Username:       u.Username,
		CreatedAt:      u.CreatedAt,
		BooksRead:      len(history),
		ReadingHistory: history,
	}, nil
}

func (m *MemoryStore) SystemStats(ctx context.Context) (*core.SystemStats, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	total := 0
	for _, books := range m.history {
		total += len(books)
	}
	return &core.SystemStats{
		TotalUsers:          len(m.users),
		TotalReadingEntries: total,
	}, nil
}

func (m *MemoryStore) add(table map[string][]int64, userID string, bookID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[userID]; !ok {
		return core.ErrUserNotFound
	}
	for _, id := range table[userID] {
		if id == bookID {
			return nil
		}
	}
	table[userID] = append(table[userID], bookID)
	return nil
}

func (m *MemoryStore) remove(table map[string][]int64, userID string, bookID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	books := table[userID]
	kept := books[:0]
	for _, id := range books {
		if id != bookID {
			kept = append(kept, id)
		}
	}
	table[userID] = kept
	return nil
}

func (m *MemoryStore) list(table map[string][]int64, userID string) ([]int64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]int64(nil), table[userID]...), nil
}

func (m *MemoryStore) has(table map[string][]int64, userID string, bookID int64) (bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, id := range table[userID] {
		if id == bookID {
			return true, nil
		}
	}
	return false, nil
}
