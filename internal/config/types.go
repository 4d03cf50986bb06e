package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Duration 提供更灵活的反序列化能力，同时兼容纯秒整数与 Go Duration 字符串。
type Duration time.Duration

// UnmarshalText 使 Viper 可以识别诸如 "30s"、"5m" 或纯数字秒值等配置写法。
func (d *Duration) UnmarshalText(text []byte) error {
	raw := strings.TrimSpace(string(text))
	if raw == "" {
		*d = Duration(0)
		return nil
	}

	if seconds, err := time.ParseDuration(raw); err == nil {
		*d = Duration(seconds)
		return nil
	}

	if intVal, err := parseInt(raw); err == nil {
		*d = Duration(time.Duration(intVal) * time.Second)
		return nil
	}

	return fmt.Errorf("invalid duration value: %s", raw)
}

// DurationValue 返回真实的 time.Duration，便于调用方计算。
func (d Duration) DurationValue() time.Duration {
	return time.Duration(d)
}

// parseInt 支持十进制或 0x 前缀的十六进制字符串解析。
func parseInt(value string) (int64, error) {
	if strings.HasPrefix(value, "0x") || strings.HasPrefix(value, "0X") {
		return strconv.ParseInt(value, 0, 64)
	}
	return strconv.ParseInt(value, 10, 64)
}

// 加载模式：cache 要求缓存目录存在；auto 找不到项目根目录时退化为直连；live 从不读写缓存。
const (
	ModeCache = "cache"
	ModeAuto  = "auto"
	ModeLive  = "live"
)

// GlobalConfig 描述日志与 HTTP 服务等进程级参数。
type GlobalConfig struct {
	ListenPort    int    `mapstructure:"ListenPort"`
	LogLevel      string `mapstructure:"LogLevel"`
	LogFormat     string `mapstructure:"LogFormat"`
	LogFilePath   string `mapstructure:"LogFilePath"`
	LogMaxSize    int    `mapstructure:"LogMaxSize"`
	LogMaxBackups int    `mapstructure:"LogMaxBackups"`
	LogCompress   bool   `mapstructure:"LogCompress"`
}

// LoaderConfig 决定加载流水线如何定位缓存、识别 URL 以及回源。
type LoaderConfig struct {
	Mode           string   `mapstructure:"Mode"`
	Schemes        []string `mapstructure:"Schemes"`
	CacheDir       string   `mapstructure:"CacheDir"`
	CacheName      string   `mapstructure:"CacheName"`
	CacheNamespace string   `mapstructure:"CacheNamespace"`
	RootMarkers    []string `mapstructure:"RootMarkers"`
	FetchTimeout   Duration `mapstructure:"FetchTimeout"`
	MaxRedirects   int      `mapstructure:"MaxRedirects"`
	MaxBodySize    int64    `mapstructure:"MaxBodySize"`
}

// Config 是 TOML 文件映射的整体结构。
type Config struct {
	Global GlobalConfig `mapstructure:",squash"`
	Loader LoaderConfig `mapstructure:"Loader"`
}

// CacheEnabled 表示当前模式是否会尝试使用磁盘缓存。
func (l LoaderConfig) CacheEnabled() bool {
	return l.Mode != ModeLive
}
