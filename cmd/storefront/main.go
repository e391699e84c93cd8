package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/spec-kit/grocery-storefront/internal/config"
	"github.com/spec-kit/grocery-storefront/internal/observability"
	"github.com/spec-kit/grocery-storefront/internal/persistence"
	"github.com/spec-kit/grocery-storefront/internal/storefront/gateway"
	"github.com/spec-kit/grocery-storefront/internal/storefront/tokenstore"
)

func main() {
	verbose := flag.Bool("v", false, "log debug output to stderr")
	flag.Usage = func() { printUsage(flag.CommandLine.Output()) }
	flag.Parse()
	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	cfg.Logger.Encoding = "console"
	cfg.Logger.Output = "stderr"
	cfg.Logger.Level = "warn"
	if *verbose {
		cfg.Logger.Level = "debug"
	}
	logger, err := observability.NewLogger(cfg.Logger)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logger.Sync() //nolint:errcheck

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var tokens tokenstore.Store
	switch cfg.Storefront.TokenStore {
	case "redis":
		rdb := persistence.NewRedis(ctx, cfg.Redis, logger)
		defer rdb.Close()
		tokens = tokenstore.NewRedis(rdb.Client, cfg.Storefront.TokenKey)
	default:
		tokens = tokenstore.NewFile(cfg.Storefront.TokenFile, cfg.Storefront.TokenKey)
	}

	gw := gateway.New(cfg.Storefront.APIBaseURL, gateway.WithTimeout(cfg.Storefront.SyncTimeout()))
	sh := newShell(gw, tokens, cfg.Storefront, logger, os.Stdout)

	code := 0
	if err := sh.run(ctx, flag.Args()); err != nil {
		if !sh.wasReported() {
			fmt.Fprintln(os.Stderr, "error:", err)
		}
		logger.Debug("command failed", zap.String("command", flag.Arg(0)), zap.Error(err))
		code = 1
	}
	if err := sh.shutdown(ctx); err != nil {
		logger.Warn("cart sync did not finish", zap.Error(err))
		code = 1
	}
	if code != 0 {
		logger.Sync() //nolint:errcheck
		os.Exit(code)
	}
}
