package config

import (
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"
)

var supportedModes = map[string]struct{}{
	ModeCache: {},
	ModeAuto:  {},
	ModeLive:  {},
}

const supportedModeList = "cache|auto|live"

// RFC 3986 scheme 语法。
var schemePattern = regexp.MustCompile(`^[a-z][a-z0-9+.-]*$`)

// Validate 针对语义级别做进一步校验，防止非法配置启动加载器。
func (c *Config) Validate() error {
	if c == nil {
		return errors.New("配置为空")
	}

	g := c.Global
	if g.ListenPort <= 0 || g.ListenPort > 65535 {
		return newFieldError("Global.ListenPort", "必须在 1-65535")
	}
	if _, err := logrus.ParseLevel(g.LogLevel); err != nil {
		return newFieldError("Global.LogLevel", fmt.Sprintf("无法识别: %s", g.LogLevel))
	}
	if g.LogFormat != "" && g.LogFormat != "json" && g.LogFormat != "text" {
		return newFieldError("Global.LogFormat", "仅支持 json/text")
	}
	if g.LogMaxSize < 0 || g.LogMaxBackups < 0 {
		return newFieldError("Global.LogMaxSize/LogMaxBackups", "不能为负数")
	}

	return c.Loader.validate()
}

func (l *LoaderConfig) validate() error {
	mode := strings.ToLower(strings.TrimSpace(l.Mode))
	if _, ok := supportedModes[mode]; !ok {
		return newFieldError(loaderField("Mode"), "仅支持 "+supportedModeList)
	}
	l.Mode = mode

	if len(l.Schemes) == 0 {
		return newFieldError(loaderField("Schemes"), "至少需要一个 scheme")
	}
	for _, scheme := range l.Schemes {
		if !schemePattern.MatchString(scheme) {
			return newFieldError(loaderField("Schemes"), fmt.Sprintf("非法 scheme: %q", scheme))
		}
	}

	if err := validateSegment(l.CacheName); err != nil {
		return fmt.Errorf("%s: %w", loaderField("CacheName"), err)
	}
	if strings.TrimSpace(l.CacheNamespace) == "" {
		return newFieldError(loaderField("CacheNamespace"), "不能为空")
	}
	if len(l.RootMarkers) == 0 {
		return newFieldError(loaderField("RootMarkers"), "至少需要一个标记文件")
	}
	for _, marker := range l.RootMarkers {
		if err := validateSegment(marker); err != nil {
			return fmt.Errorf("%s: %w", loaderField("RootMarkers"), err)
		}
	}

	if l.FetchTimeout.DurationValue() < 0 {
		return newFieldError(loaderField("FetchTimeout"), "不能为负数")
	}
	if l.MaxRedirects < 0 {
		return newFieldError(loaderField("MaxRedirects"), "不能为负数")
	}
	if l.MaxBodySize < 0 {
		return newFieldError(loaderField("MaxBodySize"), "不能为负数")
	}
	return nil
}

// validateSegment 确保名称是单层目录/文件名。
func validateSegment(name string) error {
	if strings.TrimSpace(name) == "" {
		return errors.New("不能为空")
	}
	if strings.ContainsAny(name, `/\`) {
		return errors.New("不允许包含路径分隔符")
	}
	if name == "." || name == ".." {
		return errors.New("不允许使用 . 或 ..")
	}
	return nil
}
