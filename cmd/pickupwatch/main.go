package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"pickupwatch/pkg/apple"
	"pickupwatch/pkg/config"
	"pickupwatch/pkg/logger"
	"pickupwatch/pkg/monitor"
	"pickupwatch/pkg/notifier"
	"pickupwatch/pkg/setup"
	"pickupwatch/pkg/transport"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// probeSpacing keeps consecutive stock lookups at least this far apart.
const probeSpacing = time.Second

var errUsage = errors.New("usage")

type command struct {
	name        string
	configPath  string
	catalogPath string
}

func parseArgs(args []string, stderr io.Writer) (command, error) {
	fs := flag.NewFlagSet("pickupwatch", flag.ContinueOnError)
	fs.SetOutput(stderr)
	configPath := fs.String("config", config.DefaultConfigPath, "配置文件路径 (.json/.yaml)")
	catalogPath := fs.String("catalog", setup.DefaultCatalogPath, "商品目录文件路径，仅 configure 使用")
	fs.Usage = func() {}

	if err := fs.Parse(args); err != nil {
		return command{}, errUsage
	}
	if fs.NArg() != 1 {
		return command{}, errUsage
	}

	switch name := fs.Arg(0); name {
	case "configure", "start":
		return command{name: name, configPath: *configPath, catalogPath: *catalogPath}, nil
	default:
		return command{}, errUsage
	}
}

func printUsage(w io.Writer) {
	fmt.Fprintln(w, `Usage: pickupwatch [-config path] [-catalog path] <command>

Commands:
  configure   交互式生成监测配置（商品、取货区域、通知渠道）
  start       按配置开始监测`)
}

func main() {
	cmd, err := parseArgs(os.Args[1:], os.Stderr)
	if err != nil {
		printUsage(os.Stderr)
		os.Exit(1)
	}

	switch cmd.name {
	case "configure":
		err = runConfigure(cmd)
	case "start":
		err = runStart(cmd)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func transportOptions(cfg *config.MonitorConfig) transport.Options {
	return transport.Options{
		Timeout:    cfg.HTTP.TimeoutDuration(),
		RetryDelay: cfg.HTTP.RetryDelayDuration(),
		MaxRetries: cfg.HTTP.MaxRetries,
	}
}

func runConfigure(cmd command) error {
	if err := logger.InitLogger(true, "", "warn"); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	catalog, err := setup.LoadCatalog(cmd.catalogPath)
	if err != nil {
		return err
	}

	opts := transportOptions(config.NewMonitorConfig())
	opts.MinInterval = probeSpacing
	client, err := transport.New(opts)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	wizard := setup.NewWizard(os.Stdin, os.Stdout, apple.NewAPI(client), catalog)
	cfg, err := wizard.Run(ctx)
	if err != nil {
		return err
	}

	if err := config.SaveConfig(cfg, cmd.configPath); err != nil {
		return err
	}
	fmt.Println("--------------------")
	fmt.Printf("扫描配置已生成，并已写入到%s文件中\n请使用 pickupwatch -config %s start 命令启动监测\n", cmd.configPath, cmd.configPath)
	return nil
}

func runStart(cmd command) error {
	cfg, err := config.LoadConfig(cmd.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid config %s: %w", cmd.configPath, err)
	}

	if err := logger.InitLogger(cfg.App.Development, cfg.App.LogFile, cfg.App.LogLevel); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	runID := uuid.New().String()
	ctx, cancel := context.WithCancel(logger.WithRunID(context.Background(), runID))
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		logger.Info("🛑 Shutdown signal received")
		cancel()
	}()

	opts := transportOptions(cfg)
	channels, err := notifier.NewChannels(cfg.Notification, opts)
	if err != nil {
		return err
	}
	dispatcher := notifier.NewDispatcher(channels...)

	probeOpts := opts
	probeOpts.MinInterval = probeSpacing
	probeClient, err := transport.New(probeOpts)
	if err != nil {
		return err
	}
	prober := apple.NewProber(cfg, apple.NewAPI(probeClient))

	logger.Info("🍎 Pickup availability monitor",
		zap.String("run_id", runID),
		zap.String("config", cmd.configPath),
		zap.Int("channels", dispatcher.ConfiguredCount()))
	if dispatcher.ConfiguredCount() == 0 {
		logger.Warn("No notification channel configured, hits will only be logged")
	}
	logger.Info("Press Ctrl+C to stop")

	return monitor.New(cfg, prober, dispatcher).Run(ctx)
}
