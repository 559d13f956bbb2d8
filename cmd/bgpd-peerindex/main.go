// Package main 提供 bgpd-peerindex 命令行入口
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/dep2p/go-bgpd"
	"github.com/dep2p/go-bgpd/config"
	"github.com/dep2p/go-bgpd/pkg/lib/log"
)

var logger = log.Logger("bgpd/cmd")

// ═══════════════════════════════════════════════════════════════════════════
// 命令行参数
// ═══════════════════════════════════════════════════════════════════════════
//
//   命令行参数：运行时覆盖
//   JSON 配置文件：邻居列表与长期配置
//
// ═══════════════════════════════════════════════════════════════════════════
var (
	configFile  = flag.String("config", "", "配置文件路径（JSON）")
	listenAddrs = flag.String("listen", "", "监听地址，逗号分隔（覆盖配置文件）")
	logFile     = flag.String("log", "", "日志文件路径（默认输出到 stderr）")
	metricsAddr = flag.String("metrics", "", "Prometheus 指标监听地址（设置即启用）")
	fxDebug     = flag.Bool("fx-debug", false, "输出依赖注入事件日志")
	showVersion = flag.Bool("version", false, "显示版本信息")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "错误: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	flag.Parse()

	if *showVersion {
		fmt.Println(bgpd.VersionInfo())
		return nil
	}

	logFileHandle, err := setupLogging(*logFile)
	if err != nil {
		fmt.Fprintf(os.Stderr, "警告: %v\n", err)
		fmt.Fprintln(os.Stderr, "将继续使用控制台输出日志")
	}
	if logFileHandle != nil {
		defer func() { _ = logFileHandle.Close() }()
	}

	cfg, err := buildConfig()
	if err != nil {
		return fmt.Errorf("配置错误: %w", err)
	}

	var opts []bgpd.Option
	if *fxDebug {
		opts = append(opts, bgpd.WithFxDebug())
	}

	logger.Info("启动 bgpd 对端索引", "version", bgpd.Version, "commit", bgpd.GitCommit)

	d, err := bgpd.New(cfg, opts...)
	if err != nil {
		return fmt.Errorf("创建失败: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := d.Start(ctx); err != nil {
		return fmt.Errorf("启动失败: %w", err)
	}
	defer func() { _ = d.Close() }()

	printDaemonInfo(d, cfg)

	fmt.Println("已启动，按 Ctrl+C 退出")
	waitForSignal()

	fmt.Println("\n正在关闭...")
	return nil
}

// buildConfig 构建配置
//
// 配置优先级（从高到低）：
//  1. 命令行参数
//  2. 环境变量（BGPD_* 前缀）
//  3. 配置文件
//  4. 默认值
func buildConfig() (*config.Config, error) {
	cfg := config.NewConfig()
	if *configFile != "" {
		loaded, err := config.LoadFile(*configFile)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败: %w", err)
		}
		cfg = loaded
	}

	if err := config.ApplyEnv(cfg); err != nil {
		return nil, err
	}

	if *listenAddrs != "" {
		cfg.Listen.Addrs = splitList(*listenAddrs)
	}
	if *metricsAddr != "" {
		cfg.Metrics.Enable = true
		cfg.Metrics.ListenAddr = *metricsAddr
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// waitForSignal 等待退出信号
func waitForSignal() {
	signals := make(chan os.Signal, 1)
	signal.Notify(signals, syscall.SIGINT, syscall.SIGTERM)
	<-signals
}

// setupLogging 设置日志输出
//
// path 为空时日志输出到 stderr。
func setupLogging(path string) (*os.File, error) {
	if path == "" {
		return nil, nil
	}
	if err := os.MkdirAll(filepath.Dir(path), 0750); err != nil {
		return nil, fmt.Errorf("创建日志目录失败: %w", err)
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600) //nolint:gosec // G304: 日志路径由运维指定
	if err != nil {
		return nil, fmt.Errorf("打开日志文件失败: %w", err)
	}
	log.SetOutput(file)
	return file, nil
}

// printDaemonInfo 打印监听地址与邻居表
func printDaemonInfo(d *bgpd.Daemon, cfg *config.Config) {
	fmt.Printf("📦 %s\n", bgpd.VersionInfo())
	for _, a := range d.ListenAddrs() {
		fmt.Printf("  监听: %s\n", a)
	}
	if cfg.Metrics.Enable {
		fmt.Printf("  指标: http://%s%s\n", cfg.Metrics.ListenAddr, cfg.Metrics.Path)
	}

	st := d.Index().Stats()
	fmt.Printf("  条目池: %d/%d\n", st.InUse, st.Capacity)

	for _, n := range d.Neighbors() {
		state := "enabled"
		if v, ok := d.Index().SeekID(n.ID()); ok && v.Disabled {
			state = "shutdown"
		}
		fmt.Printf("  %-4s %-40s %-10s %s\n", n.ID(), n.Address(), state, n.Name())
	}
}
