package cache

import (
	"context"
	"errors"
)

// Store 负责管理磁盘缓存的读写。磁盘布局遵循：
//
//	<CacheDir>/<querystring 转义(url 去掉 scheme://)>
//
// 每个条目仅由正文文件组成，不保存 ETag/时间戳等元数据。
type Store interface {
	// Get 返回缓存正文。文件不存在（或路径是目录）时返回 ErrNotFound。
	Get(ctx context.Context, rawURL string) ([]byte, error)

	// Put 覆盖写入缓存正文。实现需通过临时文件 + rename 保证写入原子性，
	// 并在失败时清理临时文件。
	Put(ctx context.Context, rawURL string, content []byte) (*Entry, error)

	// Path 返回 URL 对应的缓存文件绝对路径，不做任何 I/O。
	Path(rawURL string) (string, error)

	// Dir 返回缓存根目录。
	Dir() string
}

// Entry 描述一次成功写入的缓存条目。
type Entry struct {
	URL       string `json:"url"`
	FilePath  string `json:"file_path"`
	SizeBytes int64  `json:"size_bytes"`
}

var (
	// ErrNotFound 表示缓存不存在。
	ErrNotFound = errors.New("cache entry not found")

	// ErrInvalidURL 表示 URL 无法映射为缓存文件名。
	ErrInvalidURL = errors.New("url cannot be mapped to a cache entry")
)
