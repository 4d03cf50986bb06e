package logging

import "github.com/sirupsen/logrus"

// BaseFields 构建 action + 配置路径等基础字段，便于不同入口复用。
func BaseFields(action, configPath string) logrus.Fields {
	return logrus.Fields{
		"action":     action,
		"configPath": configPath,
	}
}

// LoadFields 提供 url/format/来源/模式字段，供加载流水线日志复用。
func LoadFields(url, format, origin, mode string) logrus.Fields {
	return logrus.Fields{
		"url":       url,
		"format":    format,
		"origin":    origin,
		"mode":      mode,
		"cache_hit": origin == "cache",
	}
}
