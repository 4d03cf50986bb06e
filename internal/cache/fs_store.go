package cache

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// NewStore 以 dir 为根目录构建磁盘缓存，目录不存在时自动创建。
func NewStore(dir string) (Store, error) {
	if dir == "" {
		return nil, errors.New("cache directory required")
	}

	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve cache directory: %w", err)
	}

	if err := os.MkdirAll(abs, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	return &fileStore{basePath: abs}, nil
}

// fileStore 不做任何内存索引，也不加锁：同一 URL 的并发写入依赖 rename 保证文件完整。
type fileStore struct {
	basePath string
}

func (s *fileStore) Dir() string {
	return s.basePath
}

func (s *fileStore) Get(ctx context.Context, rawURL string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath, err := s.Path(rawURL)
	if err != nil {
		return nil, err
	}

	info, err := os.Stat(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	if info.IsDir() {
		return nil, ErrNotFound
	}

	data, err := os.ReadFile(filePath)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return data, nil
}

func (s *fileStore) Put(ctx context.Context, rawURL string, content []byte) (*Entry, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	filePath, err := s.Path(rawURL)
	if err != nil {
		return nil, err
	}

	// 缓存目录可能在运行期间被外部清理。
	if err := os.MkdirAll(s.basePath, 0o755); err != nil {
		return nil, err
	}

	tempFile, err := os.CreateTemp(s.basePath, ".cache-*")
	if err != nil {
		return nil, err
	}
	tempName := tempFile.Name()

	written, err := tempFile.Write(content)
	closeErr := tempFile.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(tempName)
		return nil, err
	}

	if err := os.Rename(tempName, filePath); err != nil {
		os.Remove(tempName)
		return nil, err
	}

	return &Entry{
		URL:       rawURL,
		FilePath:  filePath,
		SizeBytes: int64(written),
	}, nil
}

func (s *fileStore) Path(rawURL string) (string, error) {
	name, err := EntryName(rawURL)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, name), nil
}

// EntryName 去掉 `<scheme>://` 前缀后整体转义，得到单层安全文件名，
// 例如 https://example.test/a.mjs → example.test%2Fa.mjs。
// 转义规则与 Node 的 querystring.escape 一致（保留 `!'()*`，空格写作 %20），
// 因此与 Node 版加载器共用同一缓存目录。
func EntryName(rawURL string) (string, error) {
	idx := strings.Index(rawURL, "://")
	if idx <= 0 {
		return "", fmt.Errorf("%w: missing scheme in %q", ErrInvalidURL, rawURL)
	}
	rest := rawURL[idx+len("://"):]
	if rest == "" {
		return "", fmt.Errorf("%w: empty location in %q", ErrInvalidURL, rawURL)
	}

	name := escapeEntryName(rest)
	if name == "." || name == ".." {
		return "", fmt.Errorf("%w: %q", ErrInvalidURL, rawURL)
	}
	return name, nil
}

const upperHex = "0123456789ABCDEF"

// escapeEntryName 按字节做百分号编码，只保留字母数字与 `-_.!~*'()`。
func escapeEntryName(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if isUnreserved(c) {
			b.WriteByte(c)
			continue
		}
		b.WriteByte('%')
		b.WriteByte(upperHex[c>>4])
		b.WriteByte(upperHex[c&0x0f])
	}
	return b.String()
}

func isUnreserved(c byte) bool {
	switch {
	case 'a' <= c && c <= 'z', 'A' <= c && c <= 'Z', '0' <= c && c <= '9':
		return true
	}
	switch c {
	case '-', '_', '.', '!', '~', '*', '\'', '(', ')':
		return true
	}
	return false
}
