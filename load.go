package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/any-hub/https-loader/internal/cache"
	"github.com/any-hub/https-loader/internal/config"
	"github.com/any-hub/https-loader/internal/fetch"
	"github.com/any-hub/https-loader/internal/loader"
)

// maxParallelLoads 限制 CLI 同时发起的加载数量。
const maxParallelLoads = 8

// buildLoader 按“配置 → http.Client → fetch.Client → Loader”顺序组装加载流水线。
func buildLoader(cfg *config.Config, logger *logrus.Logger) (*loader.Loader, error) {
	httpClient := fetch.NewHTTPClient(fetch.ClientOptions{
		Timeout:      cfg.Loader.FetchTimeout.DurationValue(),
		MaxRedirects: cfg.Loader.MaxRedirects,
	})
	fetcher := fetch.NewClient(fetch.Options{
		HTTPClient:   httpClient,
		MaxBodyBytes: cfg.Loader.MaxBodySize,
	})

	return loader.New(loader.Options{
		Mode:    loader.Mode(cfg.Loader.Mode),
		Schemes: cfg.Loader.Schemes,
		Cache: cache.LocateOptions{
			Dir:       cfg.Loader.CacheDir,
			Markers:   cfg.Loader.RootMarkers,
			Namespace: cfg.Loader.CacheNamespace,
			Name:      cfg.Loader.CacheName,
		},
		Fetcher: fetcher,
		Logger:  logger,
	})
}

// loadAll 并发加载全部 URL，成功后按参数顺序输出源码；多个 URL 时每段前带一行标题。
func loadAll(ctx context.Context, l *loader.Loader, opts cliOptions) error {
	attrs := loader.Attributes{Integrity: opts.integrity, Type: opts.moduleType}
	results := make([]*loader.Result, len(opts.urls))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxParallelLoads)
	for i, rawURL := range opts.urls {
		g.Go(func() error {
			res, err := l.Load(gctx, rawURL, attrs, nil)
			if err != nil {
				if errors.Is(err, loader.ErrNotHandled) {
					return fmt.Errorf("不支持的 URL: %s", rawURL)
				}
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	multi := len(results) > 1
	for i, res := range results {
		if multi {
			fmt.Fprintf(stdOut, "// ==> %s (%s, %s) <==\n", opts.urls[i], res.Format, res.Origin)
		}
		if _, err := stdOut.Write(res.Source); err != nil {
			return err
		}
		if multi && len(res.Source) > 0 && res.Source[len(res.Source)-1] != '\n' {
			fmt.Fprintln(stdOut)
		}
	}
	return nil
}

// printCachePaths 输出每个 URL 在缓存中的文件路径，不触发任何网络请求。
func printCachePaths(l *loader.Loader, urls []string) error {
	store, err := l.Store()
	if err != nil {
		return err
	}
	if store == nil {
		return fmt.Errorf("缓存未启用（mode=%s）", l.Mode())
	}
	for _, rawURL := range urls {
		if !l.Handles(rawURL) {
			return fmt.Errorf("不支持的 URL: %s", rawURL)
		}
		path, err := store.Path(rawURL)
		if err != nil {
			return err
		}
		fmt.Fprintln(stdOut, path)
	}
	return nil
}
