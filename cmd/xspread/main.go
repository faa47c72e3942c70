package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"xspread/internal/infrastructure/config"
	"xspread/internal/infrastructure/logger"
	"xspread/internal/infrastructure/svc"
	"xspread/internal/interfaces/console"
)

const shutdownNoticeTimeout = 5 * time.Second

func main() {
	logger.Setup()

	configPath := flag.String("config", "configs/config.toml", "path to config.toml")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatal().Err(err).Str("config", *configPath).Msg("load config failed")
	}

	logCloser, err := logger.Configure(logger.Options{
		Level:      cfg.Log.Level,
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		MaxAgeDays: cfg.Log.MaxAgeDays,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("configure logger failed")
	}
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	sc, err := svc.New(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("service context initialization failed")
	}

	streams := sc.StartStreams(ctx)
	log.Info().
		Str("config", *configPath).
		Strs("venues", cfg.Venues.Enabled).
		Bool("dexscreener", cfg.Venues.CheckDexScreener).
		Int("streams", streams).
		Dur("interval", cfg.UpdateInterval()).
		Msg("xspread started")

	// 启动时还没有任务，只有固定接收方能收到
	sc.Manager.Broadcast(ctx, sc.Manager.Formatter().Restarted(), sc.NoticeChats()...)

	g, gctx := errgroup.WithContext(ctx)
	if bot := sc.NewBot(); bot != nil {
		g.Go(func() error { return bot.Run(gctx) })
	} else {
		repl := console.NewREPL(os.Stdin, sc.Console, sc.Router)
		g.Go(func() error { return repl.Run(gctx) })
	}
	if err := g.Wait(); err != nil {
		log.Error().Err(err).Msg("command loop exited")
	}
	<-ctx.Done()
	log.Info().Msg("shutting down")

	// 通知发出去之后再停止跟踪任务
	nctx, cancel := context.WithTimeout(context.Background(), shutdownNoticeTimeout)
	sent := sc.Manager.Broadcast(nctx, sc.Manager.Formatter().ShuttingDown(), sc.NoticeChats()...)
	cancel()
	log.Info().Int("chats", sent).Msg("shutdown notice sent")

	sc.Manager.StopEverything()
	if err := sc.Close(); err != nil {
		log.Error().Err(err).Msg("close service context failed")
	}
	log.Info().Msg("xspread stopped")
}
