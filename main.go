package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"

	"github.com/spf13/pflag"

	"github.com/any-hub/https-loader/internal/config"
	"github.com/any-hub/https-loader/internal/logging"
	"github.com/any-hub/https-loader/internal/version"
)

// cliOptions 汇总 CLI 标志解析后的结果，便于在测试中注入。
type cliOptions struct {
	configPath  string
	checkOnly   bool
	showVersion bool
	serve       bool
	mode        string
	moduleType  string
	integrity   string
	printPath   bool
	urls        []string
}

// configEnv 可替代 --config 指定配置文件。
const configEnv = "HTTPS_LOADER_CONFIG"

var (
	stdOut io.Writer = os.Stdout
	stdErr io.Writer = os.Stderr
)

func main() {
	opts, err := parseCLIFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintln(stdErr, err.Error())
		os.Exit(2)
	}
	os.Exit(run(opts))
}

// run 根据解析到的 CLI 选项执行业务流程，并返回退出码，方便测试。
func run(opts cliOptions) int {
	if opts.showVersion {
		printVersion()
		return 0
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stdErr, "加载配置失败: %v\n", err)
		return 1
	}
	if opts.mode != "" {
		cfg.Loader.Mode = opts.mode
	}

	logger, err := logging.InitLogger(cfg.Global)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化日志失败: %v\n", err)
		return 1
	}

	if opts.checkOnly {
		fields := logging.BaseFields("check_config", opts.configPath)
		fields["mode"] = cfg.Loader.Mode
		fields["schemes"] = cfg.Loader.Schemes
		fields["cache_enabled"] = cfg.Loader.CacheEnabled()
		fields["result"] = "ok"
		logger.WithFields(fields).Info("配置校验通过")
		return 0
	}

	l, err := buildLoader(cfg, logger)
	if err != nil {
		fmt.Fprintf(stdErr, "初始化加载器失败: %v\n", err)
		return 1
	}

	fields := logging.BaseFields("startup", opts.configPath)
	fields["mode"] = cfg.Loader.Mode
	fields["urls"] = len(opts.urls)
	fields["version"] = version.Full()
	logger.WithFields(fields).Debug("配置加载完成")

	if opts.serve {
		if err := startHTTPServer(cfg, l, logger); err != nil {
			fmt.Fprintf(stdErr, "HTTP 服务启动失败: %v\n", err)
			return 1
		}
		return 0
	}

	if opts.printPath {
		if err := printCachePaths(l, opts.urls); err != nil {
			fmt.Fprintf(stdErr, "%v\n", err)
			return 1
		}
		return 0
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := loadAll(ctx, l, opts); err != nil {
		fmt.Fprintf(stdErr, "%v\n", err)
		return 1
	}
	return 0
}

// parseCLIFlags 解析 CLI 参数，并结合环境变量计算最终的配置路径。
// 未指定时返回空路径，由 config.Load 读取可选的 ./config.toml。
func parseCLIFlags(args []string) (cliOptions, error) {
	fs := pflag.NewFlagSet("https-loader", pflag.ContinueOnError)
	fs.SetOutput(io.Discard)

	var opts cliOptions
	var configFlag string

	fs.StringVarP(&configFlag, "config", "c", "", "配置文件路径（默认 ./config.toml，可被 HTTPS_LOADER_CONFIG 覆盖）")
	fs.BoolVar(&opts.checkOnly, "check-config", false, "仅校验配置后退出")
	fs.BoolVar(&opts.showVersion, "version", false, "显示版本信息")
	fs.BoolVar(&opts.serve, "serve", false, "以 HTTP 服务方式运行")
	fs.StringVarP(&opts.mode, "mode", "m", "", "缓存模式：cache、auto 或 live（覆盖配置）")
	fs.StringVarP(&opts.moduleType, "type", "t", "", "模块类型属性，例如 module、json、commonjs")
	fs.StringVarP(&opts.integrity, "integrity", "i", "", "SRI 校验值，例如 sha384-<base64>")
	fs.BoolVar(&opts.printPath, "print-path", false, "只输出 URL 对应的缓存文件路径")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, fmt.Errorf("解析参数失败: %w", err)
	}

	opts.mode = strings.ToLower(strings.TrimSpace(opts.mode))
	switch opts.mode {
	case "", config.ModeCache, config.ModeAuto, config.ModeLive:
	default:
		return cliOptions{}, fmt.Errorf("解析参数失败: 不支持的模式 %q", opts.mode)
	}

	opts.configPath = os.Getenv(configEnv)
	if configFlag != "" {
		opts.configPath = configFlag
	}

	opts.urls = fs.Args()
	if opts.showVersion || opts.checkOnly || opts.serve {
		return opts, nil
	}
	if len(opts.urls) == 0 {
		return cliOptions{}, fmt.Errorf("解析参数失败: 至少需要一个 URL")
	}
	if opts.integrity != "" && len(opts.urls) > 1 {
		return cliOptions{}, fmt.Errorf("解析参数失败: --integrity 只能用于单个 URL")
	}
	return opts, nil
}
