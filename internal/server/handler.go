package server

import (
	"errors"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/https-loader/internal/cache"
	"github.com/any-hub/https-loader/internal/fetch"
	"github.com/any-hub/https-loader/internal/integrity"
	"github.com/any-hub/https-loader/internal/loader"
)

type handler struct {
	logger *logrus.Logger
	loader *loader.Loader
}

// load 处理 GET /load?url=&type=&integrity=，成功时直接返回模块源码。
func (h *handler) load(c fiber.Ctx) error {
	rawURL := strings.TrimSpace(c.Query("url"))
	if rawURL == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "url_required"})
	}

	attrs := loader.Attributes{
		Integrity: c.Query("integrity"),
		Type:      c.Query("type"),
	}

	result, err := h.loader.Load(requestContext(c), rawURL, attrs, nil)
	if err != nil {
		return h.renderLoadError(c, rawURL, err)
	}

	c.Set(fiber.HeaderContentType, result.Format.ContentType())
	c.Set("X-Module-Format", string(result.Format))
	c.Set("X-Module-Origin", string(result.Origin))
	return c.Status(fiber.StatusOK).Send(result.Source)
}

// resolve 处理 GET /resolve?specifier=&parent=。
func (h *handler) resolve(c fiber.Ctx) error {
	specifier := strings.TrimSpace(c.Query("specifier"))
	if specifier == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "specifier_required"})
	}

	res, err := h.loader.Resolve(requestContext(c), specifier, c.Query("parent"), nil)
	if err != nil {
		if errors.Is(err, loader.ErrNotHandled) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": "not_handled"})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "invalid_specifier",
			"message": err.Error(),
		})
	}
	return c.JSON(fiber.Map{
		"url":          res.URL,
		"shortCircuit": res.ShortCircuit,
	})
}

func (h *handler) renderLoadError(c fiber.Ctx, rawURL string, err error) error {
	status, body := classifyLoadError(err)
	h.logger.WithFields(logrus.Fields{
		"action":     "http_load",
		"url":        rawURL,
		"status":     status,
		"request_id": RequestID(c),
	}).WithError(err).Warn("http_load_failed")
	return c.Status(status).JSON(body)
}

// classifyLoadError maps loader errors onto HTTP status codes.
func classifyLoadError(err error) (int, fiber.Map) {
	var mismatch *integrity.MismatchError
	if errors.As(err, &mismatch) {
		return fiber.StatusBadGateway, fiber.Map{
			"error":     "integrity_mismatch",
			"algorithm": mismatch.Algorithm,
			"expected":  mismatch.Expected,
			"actual":    mismatch.Actual,
			"message":   err.Error(),
		}
	}

	var persist *loader.PersistError
	var fetchErr *fetch.Error
	var statusErr *fetch.StatusError
	switch {
	case errors.Is(err, loader.ErrNotHandled):
		return fiber.StatusNotFound, fiber.Map{"error": "not_handled"}
	case errors.Is(err, integrity.ErrInvalidFormat):
		return fiber.StatusBadRequest, fiber.Map{"error": "invalid_integrity", "message": err.Error()}
	case errors.Is(err, integrity.ErrUnsupportedAlgorithm):
		return fiber.StatusBadRequest, fiber.Map{"error": "unsupported_algorithm", "message": err.Error()}
	case errors.As(err, &persist):
		return fiber.StatusInternalServerError, fiber.Map{"error": "cache_write_failed", "message": err.Error()}
	case errors.Is(err, cache.ErrCacheUnavailable):
		return fiber.StatusServiceUnavailable, fiber.Map{"error": "cache_unavailable", "message": err.Error()}
	case errors.As(err, &statusErr):
		return fiber.StatusBadGateway, fiber.Map{
			"error":           "fetch_failed",
			"upstream_status": statusErr.StatusCode,
			"message":         err.Error(),
		}
	case errors.As(err, &fetchErr):
		return fiber.StatusBadGateway, fiber.Map{"error": "fetch_failed", "message": err.Error()}
	default:
		return fiber.StatusInternalServerError, fiber.Map{"error": "load_failed", "message": err.Error()}
	}
}
