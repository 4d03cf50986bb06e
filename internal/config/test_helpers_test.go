package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func testConfigPath(t *testing.T, name string) string {
	t.Helper()
	return filepath.Join("testdata", name)
}

// writeTempConfig 把 content 写入临时目录下的 config.toml，返回其路径。
func writeTempConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(strings.TrimSpace(content)+"\n"), 0o600); err != nil {
		t.Fatalf("写入临时配置失败: %v", err)
	}
	return path
}

// writeLoaderConfig 只写入 [Loader] 段，其余字段走默认值。
func writeLoaderConfig(t *testing.T, lines ...string) string {
	t.Helper()
	return writeTempConfig(t, "[Loader]\n"+strings.Join(lines, "\n"))
}

// mustLoad 加载配置，失败时立即终止测试。
func mustLoad(t *testing.T, path string) *Config {
	t.Helper()
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load(%q) 返回错误: %v", path, err)
	}
	return cfg
}

// loadDefaultsIn 在空的临时工作目录中以默认路径加载，隔离仓库内可能存在的 config.toml。
func loadDefaultsIn(t *testing.T) *Config {
	t.Helper()
	t.Chdir(t.TempDir())
	return mustLoad(t, "")
}
