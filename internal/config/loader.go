package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
)

// DefaultPath 是未显式指定配置文件时尝试读取的路径；不存在时使用内置默认值。
const DefaultPath = "config.toml"

// EnvPrefix 为环境变量覆盖前缀，例如 HTTPS_LOADER_LOADER_MODE=live。
const EnvPrefix = "HTTPS_LOADER"

// Load 读取并解析 TOML 配置文件，同时注入默认值、环境变量覆盖与校验逻辑。
// path 为空时读取 DefaultPath，文件缺失不视为错误；显式指定的文件必须存在。
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if _, err := os.Stat(path); err == nil || explicit {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("读取配置失败: %w", err)
		}
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("读取配置失败: %w", err)
	}

	var cfg Config
	hook := mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
	if err := v.Unmarshal(&cfg, viper.DecodeHook(hook)); err != nil {
		return nil, fmt.Errorf("解析配置失败: %w", err)
	}

	applyGlobalDefaults(&cfg.Global)
	applyLoaderDefaults(&cfg.Loader)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Loader.CacheDir != "" {
		absCache, err := filepath.Abs(cfg.Loader.CacheDir)
		if err != nil {
			return nil, fmt.Errorf("无法解析缓存目录: %w", err)
		}
		cfg.Loader.CacheDir = absCache
	}

	return &cfg, nil
}

// Default 返回仅包含默认值的配置，供测试与嵌入场景使用。
func Default() *Config {
	cfg := &Config{}
	applyGlobalDefaults(&cfg.Global)
	applyLoaderDefaults(&cfg.Loader)
	return cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ListenPort", 5000)
	v.SetDefault("LogLevel", "info")
	v.SetDefault("LogFormat", "json")
	v.SetDefault("LogFilePath", "")
	v.SetDefault("LogMaxSize", 100)
	v.SetDefault("LogMaxBackups", 10)
	v.SetDefault("LogCompress", true)
	v.SetDefault("Loader.Mode", ModeCache)
	v.SetDefault("Loader.Schemes", []string{"https"})
	v.SetDefault("Loader.CacheDir", "")
	v.SetDefault("Loader.CacheName", "https-loader")
	v.SetDefault("Loader.CacheNamespace", "node_modules/.cache")
	v.SetDefault("Loader.RootMarkers", []string{"package.json"})
	v.SetDefault("Loader.FetchTimeout", "30s")
	v.SetDefault("Loader.MaxRedirects", 10)
	v.SetDefault("Loader.MaxBodySize", 0)
}

func applyGlobalDefaults(g *GlobalConfig) {
	if g.ListenPort == 0 {
		g.ListenPort = 5000
	}
	if g.LogLevel == "" {
		g.LogLevel = "info"
	}
	g.LogFormat = strings.ToLower(strings.TrimSpace(g.LogFormat))
	if g.LogFormat == "" {
		g.LogFormat = "json"
	}
}

func applyLoaderDefaults(l *LoaderConfig) {
	l.Mode = strings.ToLower(strings.TrimSpace(l.Mode))
	if l.Mode == "" {
		l.Mode = ModeCache
	}
	l.Schemes = normalizeList(l.Schemes, true)
	if len(l.Schemes) == 0 {
		l.Schemes = []string{"https"}
	}
	l.RootMarkers = normalizeList(l.RootMarkers, false)
	if len(l.RootMarkers) == 0 {
		l.RootMarkers = []string{"package.json"}
	}
	if strings.TrimSpace(l.CacheName) == "" {
		l.CacheName = "https-loader"
	}
	if strings.TrimSpace(l.CacheNamespace) == "" {
		l.CacheNamespace = "node_modules/.cache"
	}
	if l.MaxRedirects == 0 {
		l.MaxRedirects = 10
	}
}

func normalizeList(items []string, lower bool) []string {
	out := make([]string, 0, len(items))
	seen := make(map[string]struct{}, len(items))
	for _, item := range items {
		item = strings.TrimSpace(item)
		if lower {
			item = strings.ToLower(item)
		}
		if item == "" {
			continue
		}
		if _, ok := seen[item]; ok {
			continue
		}
		seen[item] = struct{}{}
		out = append(out, item)
	}
	return out
}

func durationDecodeHook() mapstructure.DecodeHookFunc {
	targetType := reflect.TypeOf(Duration(0))

	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != targetType {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			if v == "" {
				return Duration(0), nil
			}
			if parsed, err := time.ParseDuration(v); err == nil {
				return Duration(parsed), nil
			}
			if seconds, err := strconv.ParseFloat(v, 64); err == nil {
				return Duration(time.Duration(seconds * float64(time.Second))), nil
			}
			return nil, fmt.Errorf("无法解析 Duration 字段: %s", v)
		case int:
			return Duration(time.Duration(v) * time.Second), nil
		case int64:
			return Duration(time.Duration(v) * time.Second), nil
		case float64:
			return Duration(time.Duration(v * float64(time.Second))), nil
		case time.Duration:
			return Duration(v), nil
		case Duration:
			return v, nil
		default:
			return nil, fmt.Errorf("不支持的 Duration 类型: %T", v)
		}
	}
}
