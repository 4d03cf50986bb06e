// Package loader implements the load hook for network module URLs: pass
// through anything it does not own, otherwise serve from the on-disk cache
// when the cached copy verifies, and fall back to a live fetch that is
// verified and written through to the cache.
package loader

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/sirupsen/logrus"

	"github.com/any-hub/https-loader/internal/cache"
	"github.com/any-hub/https-loader/internal/integrity"
	"github.com/any-hub/https-loader/internal/logging"
)

// Mode selects the cache behaviour of a Loader.
type Mode string

const (
	// ModeCache requires a cache directory; failing to locate one is fatal.
	ModeCache Mode = "cache"
	// ModeAuto uses the cache when a project root is found and loads live
	// otherwise.
	ModeAuto Mode = "auto"
	// ModeLive never reads or writes the cache.
	ModeLive Mode = "live"
)

// Origin records where a result's source came from.
type Origin string

const (
	OriginCache   Origin = "cache"
	OriginNetwork Origin = "network"
	OriginNext    Origin = "next"
)

// Attributes are the import attributes attached to a load request.
type Attributes struct {
	Integrity string
	Type      string
}

// Result is what a load hands back to the host.
type Result struct {
	Format       Format
	ShortCircuit bool
	Source       []byte
	Origin       Origin
}

// NextFunc is the next load handler in the host chain.
type NextFunc func(ctx context.Context, rawURL string, attrs Attributes) (*Result, error)

// Fetcher retrieves the body of a URL.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) ([]byte, error)
}

// Options configures a Loader.
type Options struct {
	Mode    Mode
	Schemes []string
	Cache   cache.LocateOptions
	// Store bypasses cache discovery when set. Ignored in ModeLive.
	Store   cache.Store
	Fetcher Fetcher
	Logger  *logrus.Logger
}

// Loader runs the cache/fetch/verify pipeline. It keeps no per-URL state and
// is safe for concurrent use.
type Loader struct {
	mode     Mode
	schemes  []string
	locate   cache.LocateOptions
	store    cache.Store
	fetcher  Fetcher
	logger   *logrus.Logger
	openFunc func(cache.LocateOptions) (cache.Store, error)
}

// New validates opts and builds a Loader.
func New(opts Options) (*Loader, error) {
	if opts.Fetcher == nil {
		return nil, errors.New("fetcher is required")
	}
	mode := opts.Mode
	if mode == "" {
		mode = ModeCache
	}
	switch mode {
	case ModeCache, ModeAuto, ModeLive:
	default:
		return nil, fmt.Errorf("unsupported loader mode: %s", mode)
	}

	schemes := make([]string, 0, len(opts.Schemes))
	for _, s := range opts.Schemes {
		if s = strings.ToLower(strings.TrimSpace(s)); s != "" {
			schemes = append(schemes, s)
		}
	}
	if len(schemes) == 0 {
		schemes = []string{"https"}
	}

	logger := opts.Logger
	if logger == nil {
		logger = logging.Discard()
	}

	return &Loader{
		mode:     mode,
		schemes:  schemes,
		locate:   opts.Cache,
		store:    opts.Store,
		fetcher:  opts.Fetcher,
		logger:   logger,
		openFunc: openStore,
	}, nil
}

func openStore(opts cache.LocateOptions) (cache.Store, error) {
	dir, err := cache.Locate(opts)
	if err != nil {
		return nil, err
	}
	return cache.NewStore(dir)
}

// Mode reports the configured mode.
func (l *Loader) Mode() Mode {
	return l.mode
}

// Handles reports whether rawURL uses one of the network schemes this loader
// owns.
func (l *Loader) Handles(rawURL string) bool {
	idx := strings.Index(rawURL, "://")
	if idx <= 0 {
		return false
	}
	scheme := strings.ToLower(rawURL[:idx])
	for _, s := range l.schemes {
		if s == scheme {
			return true
		}
	}
	return false
}

// Store returns the cache store that a load would use right now, or nil when
// caching is off or unavailable in ModeAuto.
func (l *Loader) Store() (cache.Store, error) {
	if l.mode == ModeLive {
		return nil, nil
	}
	if l.store != nil {
		return l.store, nil
	}
	store, err := l.openFunc(l.locate)
	if err != nil {
		if l.mode == ModeAuto {
			l.logger.WithFields(logrus.Fields{
				"action": "cache_locate",
				"mode":   string(l.mode),
			}).WithError(err).Debug("cache_unavailable")
			return nil, nil
		}
		return nil, err
	}
	return store, nil
}

// Load handles one load request. URLs outside the network schemes go to next
// untouched. For the rest, the cache is advisory: any read or integrity
// failure on the cached copy falls through to a live fetch, while errors on
// the live path are returned verbatim and next is never called.
func (l *Loader) Load(ctx context.Context, rawURL string, attrs Attributes, next NextFunc) (*Result, error) {
	if !l.Handles(rawURL) {
		if next == nil {
			return nil, fmt.Errorf("%w: %s", ErrNotHandled, rawURL)
		}
		return next(ctx, rawURL, attrs)
	}

	started := time.Now()
	format := ResolveFormat(attrs.Type)

	var spec *integrity.Spec
	if attrs.Integrity != "" {
		parsed, err := integrity.Parse(attrs.Integrity)
		if err != nil {
			l.logFailure(rawURL, format, started, err)
			return nil, err
		}
		spec = &parsed
	}

	store, err := l.Store()
	if err != nil {
		l.logFailure(rawURL, format, started, err)
		return nil, err
	}

	if store != nil {
		if source, ok := l.readCache(ctx, store, rawURL, spec); ok {
			result := &Result{Format: format, ShortCircuit: true, Source: source, Origin: OriginCache}
			l.logResult(rawURL, result, started)
			return result, nil
		}
	}

	source, err := l.fetcher.Fetch(ctx, rawURL)
	if err != nil {
		l.logFailure(rawURL, format, started, err)
		return nil, err
	}

	if spec != nil {
		if err := integrity.Verify(source, *spec); err != nil {
			l.logFailure(rawURL, format, started, err)
			return nil, err
		}
	}

	if store != nil {
		if _, err := store.Put(ctx, rawURL, source); err != nil {
			perr := &PersistError{URL: rawURL, Err: err}
			l.logFailure(rawURL, format, started, perr)
			return nil, perr
		}
	}

	result := &Result{Format: format, ShortCircuit: true, Source: source, Origin: OriginNetwork}
	l.logResult(rawURL, result, started)
	return result, nil
}

// readCache returns the cached source only when it exists and verifies.
func (l *Loader) readCache(ctx context.Context, store cache.Store, rawURL string, spec *integrity.Spec) ([]byte, bool) {
	source, err := store.Get(ctx, rawURL)
	if err != nil {
		entry := l.logger.WithFields(logrus.Fields{"action": "cache_read", "url": rawURL})
		if errors.Is(err, cache.ErrNotFound) {
			entry.Debug("cache_read_miss")
		} else {
			entry.WithError(err).Warn("cache_read_failed")
		}
		return nil, false
	}
	if spec != nil {
		if err := integrity.Verify(source, *spec); err != nil {
			l.logger.WithFields(logrus.Fields{
				"action": "cache_verify",
				"url":    rawURL,
			}).WithError(err).Warn("cache_verify_failed")
			return nil, false
		}
	}
	return source, true
}

func (l *Loader) logResult(rawURL string, result *Result, started time.Time) {
	fields := logging.LoadFields(rawURL, string(result.Format), string(result.Origin), string(l.mode))
	fields["action"] = "load"
	fields["bytes"] = len(result.Source)
	fields["content_digest"] = digest.FromBytes(result.Source).String()
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	l.logger.WithFields(fields).Info("load_complete")
}

func (l *Loader) logFailure(rawURL string, format Format, started time.Time, err error) {
	fields := logging.LoadFields(rawURL, string(format), "", string(l.mode))
	fields["action"] = "load"
	fields["elapsed_ms"] = time.Since(started).Milliseconds()
	fields["error"] = err.Error()
	l.logger.WithFields(fields).Error("load_failed")
}
