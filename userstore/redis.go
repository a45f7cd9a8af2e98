package userstore

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/rushteam/bookrec/core"
)

// RedisStore 是 Redis 实现的 UserStore，生产环境常用。
//
// 数据布局：
//   - user:{id}            Hash：username / created_at
//   - users                Set：全部 user id
//   - user:history:{id}    ZSet：member 为 book_id，score 为写入时刻（纳秒），
//     ZADD NX 天然实现写时去重，按 score 升序即插入顺序
//   - user:favorites:{id}  ZSet：同上
//
// 写操作由 Redis 服务端原子命令串行化，无需进程内锁。
type RedisStore struct {
	client *redis.Client
}

func NewRedisStore(addr string, db int) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{
		Addr: addr,
		DB:   db,
	})
	if err := client.Ping(context.Background()).Err(); err != nil {
		return nil, err
	}
	return &RedisStore{client: client}, nil
}

var _ core.UserStore = (*RedisStore)(nil)

func (r *RedisStore) Name() string { return "redis" }

func (r *RedisStore) Close() error { return r.client.Close() }

func userKey(id string) string      { return "user:" + id }
func historyKey(id string) string   { return "user:history:" + id }
func favoritesKey(id string) string { return "user:favorites:" + id }

func (r *RedisStore) CreateUser(ctx context.Context, id, username string) (*core.User, error) {
	u := &core.User{ID: id, Username: username, CreatedAt: time.Now()}

	// HSETNX 占位字段保证并发创建只有一个成功
	ok, err := r.client.HSetNX(ctx, userKey(id), "username", username).Result()
	if err != nil {
		return nil, faultErr("create user", err)
	}
	if !ok {
		return nil, core.ErrUserExists
	}
	pipe := r.client.Pipeline()
	pipe.HSet(ctx, userKey(id), "created_at", u.CreatedAt.Format(time.RFC3339))
	pipe.SAdd(ctx, "users", id)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, faultErr("create user", err)
	}
	return u, nil
}

func (r *RedisStore) GetUser(ctx context.Context, id string) (*core.User, error) {
	fields, err := r.client.HGetAll(ctx, userKey(id)).Result()
	if err != nil {
		return nil, faultErr("get user", err)
	}
	if len(fields) == 0 {
		return nil, core.ErrUserNotFound
	}
	created, _ := time.Parse(time.RFC3339, fields["created_at"])
	return &core.User{ID: id, Username: fields["username"], CreatedAt: created}, nil
}

func (r *RedisStore) AllUsers(ctx context.Context) ([]*core.User, error) {
	ids, err := r.client.SMembers(ctx, "users").Result()
	if err != nil {
		return nil, faultErr("all users", err)
	}
	out := make([]*core.User, 0, len(ids))
	for _, id := range ids {
		u, err := r.GetUser(ctx, id)
		if err != nil {
			if core.IsNotFound(err) {
				continue
			}
			return nil, err
		}
		out = append(out, u)
	}
	return out, nil
}

func (r *RedisStore) AddHistory(ctx context.Context, userID string, bookID int64) error {
	return r.addEntry(ctx, historyKey(userID), userID, bookID)
}

func (r *RedisStore) RemoveHistory(ctx context.Context, userID string, bookID int64) error {
	return r.removeEntry(ctx, historyKey(userID), bookID)
}

func (r *RedisStore) GetHistory(ctx context.Context, userID string) ([]int64, error) {
	return r.listEntries(ctx, historyKey(userID))
}

func (r *RedisStore) InHistory(ctx context.Context, userID string, bookID int64) (bool, error) {
	return r.hasEntry(ctx, historyKey(userID), bookID)
}

func (r *RedisStore) AddFavorite(ctx context.Context, userID string, bookID int64) error {
	return r.addEntry(ctx, favoritesKey(userID), userID, bookID)
}

func (r *RedisStore) RemoveFavorite(ctx context.Context, userID string, bookID int64) error {
	return r.removeEntry(ctx, favoritesKey(userID), bookID)
}

func (r *RedisStore) GetFavorites(ctx context.Context, userID string) ([]int64, error) {
	return r.listEntries(ctx, favoritesKey(userID))
}

func (r *RedisStore) IsFavorite(ctx context.Context, userID string, bookID int64) (bool, error) {
	return r.hasEntry(ctx, favoritesKey(userID), bookID)
}

func (r *RedisStore) UserStats(ctx context.Context, userID string) (*core.UserStats, error) {
	u, err := r.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	history, err := r.GetHistory(ctx, userID)
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

func (r *RedisStore) SystemStats(ctx context.Context) (*core.SystemStats, error) {
	ids, err := r.client.SMembers(ctx, "users").Result()
	if err != nil {
		return nil, faultErr("system stats", err)
	}
	total := 0
	for _, id := range ids {
		n, err := r.client.ZCard(ctx, historyKey(id)).Result()
		if err != nil {
			return nil, faultErr("system stats", err)
		}
		total += int(n)
	}
	return &core.SystemStats{TotalUsers: len(ids), TotalReadingEntries: total}, nil
}

func (r *RedisStore) addEntry(ctx context.Context, key, userID string, bookID int64) error {
	exists, err := r.client.Exists(ctx, userKey(userID)).Result()
	if err != nil {
		return faultErr("add entry", err)
	}
	if exists == 0 {
		return core.ErrUserNotFound
	}
	// NX：已存在的 member 不更新 score，保持首次插入时刻即插入顺序
	err = r.client.ZAddNX(ctx, key, redis.Z{
		Score:  float64(time.Now().UnixNano()),
		Member: strconv.FormatInt(bookID, 10),
	}).Err()
	if err != nil {
		return faultErr("add entry", err)
	}
	return nil
}

func (r *RedisStore) removeEntry(ctx context.Context, key string, bookID int64) error {
	if err := r.client.ZRem(ctx, key, strconv.FormatInt(bookID, 10)).Err(); err != nil {
		return faultErr("remove entry", err)
	}
	return nil
}

func (r *RedisStore) listEntries(ctx context.Context, key string) ([]int64, error) {
	// score 升序 = 插入顺序
	members, err := r.client.ZRange(ctx, key, 0, -1).Result()
	if err != nil {
		return nil, faultErr("list entries", err)
	}
	out := make([]int64, 0, len(members))
	for _, m := range members {
		if id, err := strconv.ParseInt(m, 10, 64); err == nil {
			out = append(out, id)
		}
	}
	return out, nil
}

func (r *RedisStore) hasEntry(ctx context.Context, key string, bookID int64) (bool, error) {
	_, err := r.client.ZScore(ctx, key, strconv.FormatInt(bookID, 10)).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, faultErr("has entry", err)
	}
	return true, nil
}
