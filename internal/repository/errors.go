package repository

import "errors"

// 通用的存储库错误
var (
	// ErrNotFound 表示请求的记录未找到
	ErrNotFound = errors.New("repository: record not found")
	// ErrCleanupIncomplete 表示房间存在标记已删除，但成员集合或历史记录的清理失败，需要重试
	ErrCleanupIncomplete = errors.New("repository: room cleanup incomplete")
)

// 特定资源的错误
var (
	ErrRoomNotFound = ErrNotFound
)
