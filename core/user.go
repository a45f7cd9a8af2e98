package core

import "time"

// User 是通过显式动作创建的用户，创建后不再变更（不支持改名/删除）。
type User struct {
	ID        string
	Username  string
	CreatedAt time.Time
}

// InteractionEntry 是一条用户与书的交互记录（阅读历史或收藏）。
// 同一 (UserID, BookID) 在有效数据中至多出现一次。
type InteractionEntry struct {
	UserID    string
	BookID    int64
	Timestamp time.Time
}

// UserStats 是单个用户的统计信息。
type UserStats struct {
	UserID         string
	Username       string
	CreatedAt      time.Time
	BooksRead      int
	ReadingHistory []int64
}

// SystemStats 是用户侧的全局统计信息。
type SystemStats struct {
	TotalUsers          int
	TotalReadingEntries int
}
