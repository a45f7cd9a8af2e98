package core

import "context"

// UserStore 是用户交互状态的领域接口。
//
// 设计原则：
//   - 定义在领域层（core），由基础设施层（userstore）实现
//   - 写入遵循 append-then-read-consistent：写入对下一次读立即可见，
//     实现内部不得对历史/收藏做 write-behind 缓存
//   - 同一 store 的写操作需串行化，避免丢失更新；读可并发
//   - 同一 (user_id, book_id) 在历史/收藏中至多生效一次（写入时去重）
//
// 实现：
//   - userstore.CSVStore（追加式 CSV 日志，删除时整文件重写）
//   - userstore.MemoryStore（测试/原型）
//   - userstore.RedisStore（生产环境可用）
type UserStore interface {
	// Name 返回存储后端名称（用于日志/监控）
	Name() string

	// CreateUser 创建用户；id 已存在时返回 ErrUserExists
	CreateUser(ctx context.Context, id, username string) (*User, error)

	// GetUser 按 id 查用户；不存在时返回 ErrUserNotFound
	GetUser(ctx context.Context, id string) (*User, error)

	// AllUsers 返回全部用户
	AllUsers(ctx context.Context) ([]*User, error)

	// AddHistory 向用户阅读历史追加一本书；重复追加静默幂等
	AddHistory(ctx context.Context, userID string, bookID int64) error

	// RemoveHistory 从阅读历史移除一本书（重写底层集合）
	RemoveHistory(ctx context.Context, userID string, bookID int64) error

	// GetHistory 返回用户阅读历史的 book_id 列表，保持插入顺序、已去重
	GetHistory(ctx context.Context, userID string) ([]int64, error)

	// InHistory 判断某本书是否在用户历史中
	InHistory(ctx context.Context, userID string, bookID int64) (bool, error)

	// AddFavorite 收藏一本书；重复收藏静默幂等
	AddFavorite(ctx context.Context, userID string, bookID int64) error

	// RemoveFavorite 取消收藏
	RemoveFavorite(ctx context.Context, userID string, bookID int64) error

	// GetFavorites 返回用户收藏的 book_id 列表，保持插入顺序、已去重
	GetFavorites(ctx context.Context, userID string) ([]int64, error)

	// IsFavorite 判断某本书是否已被收藏
	IsFavorite(ctx context.Context, userID string, bookID int64) (bool, error)

	// UserStats 返回单个用户的统计
	UserStats(ctx context.Context, userID string) (*UserStats, error)

	// SystemStats 返回全局统计
	SystemStats(ctx context.Context) (*SystemStats, error)

	// Close 关闭连接/释放资源
	Close() error
}
