package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultName 是缓存子目录名。
	DefaultName = "https-loader"
	// DefaultNamespace 是项目根目录下存放各类工具缓存的目录。
	DefaultNamespace = "node_modules/.cache"
)

// DefaultMarkers 标识项目根目录的文件名。
var DefaultMarkers = []string{"package.json"}

var (
	// ErrRootNotFound 表示从起点向上未找到任何标记文件。
	ErrRootNotFound = errors.New("project root not found")

	// ErrCacheUnavailable 表示无法确定或创建缓存目录。
	ErrCacheUnavailable = errors.New("Cache directory not found")
)

// LocateOptions 控制缓存目录的发现方式。Dir 非空时直接使用，不再向上查找。
type LocateOptions struct {
	Dir       string
	Start     string
	Markers   []string
	Namespace string
	Name      string
}

// FindRoot 从 start 开始逐级向上，返回第一个包含任一 marker 文件的目录。
func FindRoot(start string, markers []string) (string, error) {
	if len(markers) == 0 {
		markers = DefaultMarkers
	}
	if start == "" {
		wd, err := os.Getwd()
		if err != nil {
			return "", fmt.Errorf("resolve working directory: %w", err)
		}
		start = wd
	}

	cur, err := filepath.Abs(start)
	if err != nil {
		return "", fmt.Errorf("resolve start path: %w", err)
	}

	for {
		for _, marker := range markers {
			info, err := os.Stat(filepath.Join(cur, marker))
			if err == nil && !info.IsDir() {
				return cur, nil
			}
		}

		parent := filepath.Dir(cur)
		if parent == cur {
			break
		}
		cur = parent
	}

	return "", fmt.Errorf("%w from %s", ErrRootNotFound, start)
}

// Locate 返回（必要时创建）缓存目录，重复或并发调用都是安全的。
func Locate(opts LocateOptions) (string, error) {
	dir := opts.Dir
	if dir == "" {
		root, err := FindRoot(opts.Start, opts.Markers)
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
		}
		namespace := opts.Namespace
		if namespace == "" {
			namespace = DefaultNamespace
		}
		name := opts.Name
		if name == "" {
			name = DefaultName
		}
		dir = filepath.Join(root, filepath.FromSlash(namespace), name)
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("%w: %w", ErrCacheUnavailable, err)
	}
	return abs, nil
}
