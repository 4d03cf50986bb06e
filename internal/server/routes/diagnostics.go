package routes

import (
	"errors"
	"io/fs"
	"os"
	"strings"

	"github.com/gofiber/fiber/v3"

	"github.com/any-hub/https-loader/internal/cache"
	"github.com/any-hub/https-loader/internal/loader"
)

// RegisterDiagnosticRoutes 暴露 /-/formats 与 /-/cache 诊断接口，便于排查类型映射与缓存落盘位置。
func RegisterDiagnosticRoutes(app *fiber.App, l *loader.Loader) {
	if app == nil || l == nil {
		return
	}

	app.Get("/-/formats", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"default_type": loader.DefaultType,
			"fallback":     string(loader.FallbackFormat),
			"formats":      encodeFormats(loader.Formats()),
		})
	})

	app.Get("/-/cache", func(c fiber.Ctx) error {
		rawURL := strings.TrimSpace(c.Query("url"))
		if rawURL == "" {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "url_required"})
		}
		payload, err := inspectCache(l, rawURL)
		if errors.Is(err, cache.ErrInvalidURL) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_url", "message": err.Error()})
		}
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{
				"error":   "cache_unavailable",
				"message": err.Error(),
			})
		}
		return c.JSON(payload)
	})
}

type formatPayload struct {
	Type        string `json:"type"`
	ContentType string `json:"content_type"`
}

type cachePayload struct {
	URL     string `json:"url"`
	Mode    string `json:"mode"`
	Handled bool   `json:"handled"`
	Enabled bool   `json:"enabled"`
	Dir     string `json:"dir,omitempty"`
	Path    string `json:"path,omitempty"`
	Exists  bool   `json:"exists"`
	Size    int64  `json:"size_bytes,omitempty"`
}

func encodeFormats(formats []loader.Format) []formatPayload {
	result := make([]formatPayload, 0, len(formats))
	for _, f := range formats {
		result = append(result, formatPayload{Type: string(f), ContentType: f.ContentType()})
	}
	return result
}

func inspectCache(l *loader.Loader, rawURL string) (cachePayload, error) {
	payload := cachePayload{
		URL:     rawURL,
		Mode:    string(l.Mode()),
		Handled: l.Handles(rawURL),
	}
	if !payload.Handled {
		return payload, nil
	}

	store, err := l.Store()
	if err != nil {
		return payload, err
	}
	if store == nil {
		return payload, nil
	}
	payload.Enabled = true
	payload.Dir = store.Dir()

	path, err := store.Path(rawURL)
	if err != nil {
		return payload, err
	}
	payload.Path = path

	info, err := os.Stat(path)
	switch {
	case err == nil && !info.IsDir():
		payload.Exists = true
		payload.Size = info.Size()
	case err != nil && !errors.Is(err, fs.ErrNotExist):
		return payload, err
	}
	return payload, nil
}
