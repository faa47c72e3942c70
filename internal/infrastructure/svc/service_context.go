package svc

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"xspread/internal/application/port"
	"xspread/internal/application/service"
	"xspread/internal/application/usecase/tracking"
	domainservice "xspread/internal/domain/service"
	"xspread/internal/infrastructure/config"
	"xspread/internal/infrastructure/exchange"
	"xspread/internal/infrastructure/storage/composite"
	pgrepo "xspread/internal/infrastructure/storage/postgres"
	redisrepo "xspread/internal/infrastructure/storage/redis"
	sqliterepo "xspread/internal/infrastructure/storage/sqlite"
	"xspread/internal/interfaces/command"
	"xspread/internal/interfaces/console"
	"xspread/internal/interfaces/telegram"
)

// runner 带后台连接的适配器（例如 WebSocket 行情流）
type runner interface {
	Run(ctx context.Context)
}

type ServiceContext struct {
	Ctx    context.Context
	Config *config.Config

	// 基础设施层（第一层初始化）
	adapters []port.VenueAdapter
	repo     *composite.Repo

	// 输出端口：Telegram 启用时为 Telegram，否则为控制台
	Notifier port.Notifier
	Telegram *telegram.Client
	Console  *console.Sink

	// 应用业务组件（依赖基础设施）
	Aggregator *service.MarketAggregator
	Manager    *tracking.Manager
	Router     *command.Router

	// 资源管理
	streams     sync.WaitGroup
	closerChain []func() error
}

// New 创建并初始化 ServiceContext
// 这是应用启动的唯一入口点，所有依赖初始化都在这里完成
func New(ctx context.Context, cfg *config.Config) (*ServiceContext, error) {
	sc := &ServiceContext{
		Ctx:         ctx,
		Config:      cfg,
		closerChain: make([]func() error, 0),
	}

	// 初始化所有组件，按依赖顺序
	if err := sc.initializeComponents(); err != nil {
		// 清理已初始化的资源
		_ = sc.Close()
		return nil, err
	}
	return sc, nil
}

// initializeComponents 初始化所有应用组件
// 按照依赖关系有序初始化，确保不会有循环依赖
func (sc *ServiceContext) initializeComponents() error {
	// 0. 存储层
	if err := sc.initializeStorage(); err != nil {
		return fmt.Errorf("%w: %w", ErrStorageInitFailed, err)
	}

	// 1. 交易所适配器 + 聚合器
	venues := sc.Config.GetEnabledExchanges()
	if len(venues) == 0 {
		return ErrNoVenuesEnabled
	}
	adapters, err := exchange.Build(venues, sc.Config)
	if err != nil {
		return err
	}
	sc.adapters = adapters
	sc.Aggregator = service.NewMarketAggregator(adapters, service.AggregatorConfig{
		CallTimeout: sc.Config.CallTimeout(),
		MaxParallel: sc.Config.App.MaxParallelVenues,
	})

	// 2. 输出端口
	sc.initializeNotifier()

	// 3. 跟踪管理 + 命令路由
	sc.Manager = tracking.NewManager(tracking.ManagerDeps{
		Source:   sc.Aggregator,
		Links:    sc.Aggregator,
		Notifier: sc.Notifier,
		Repo:     sc.repo,
		Policy: domainservice.ThrottlePolicy{
			MinChange: sc.Config.Spread.MinChange,
			MinValue:  sc.Config.Spread.MinValue,
		},
		Interval: sc.Config.UpdateInterval(),
		Venues:   sc.Aggregator.Venues(),
	})
	sc.Router = command.NewRouter(sc.Manager, sc.Aggregator, sc.Manager.Formatter())

	log.Info().
		Int("venues", len(adapters)).
		Int("stores", sc.repo.Len()).
		Bool("telegram", sc.Telegram != nil).
		Msg("✓ All components initialized")
	return nil
}

// initializeStorage 初始化存储层 (SQLite / Redis / Postgres)，全部关闭时信号不落库
func (sc *ServiceContext) initializeStorage() error {
	var repos []port.SignalRepository

	if sc.Config.Storage.SQLite.Enabled {
		repo, err := sqliterepo.New(sc.Config.Storage.SQLite.Path)
		if err != nil {
			return fmt.Errorf("sqlite: %w", err)
		}
		repos = append(repos, repo)
		log.Info().Str("path", sc.Config.Storage.SQLite.Path).Msg("✓ SQLite initialized")
	}

	if sc.Config.Storage.Redis.Enabled {
		rc := sc.Config.Storage.Redis
		ctx, cancel := context.WithTimeout(sc.Ctx, 5*time.Second)
		rdb, err := redisrepo.Dial(ctx, rc.Addr, rc.Password, rc.DB)
		cancel()
		if err != nil {
			sc.closeRepos(repos)
			return err
		}
		ttl := time.Duration(rc.TTLSeconds) * time.Second
		repos = append(repos, redisrepo.New(rdb, rc.Prefix, ttl, rc.SignalStream, rc.SignalChannel))
		log.Info().Str("addr", rc.Addr).Int("db", rc.DB).Msg("✓ Redis initialized")
	}

	if sc.Config.Storage.Postgres.Enabled {
		repo, err := pgrepo.New(sc.Config.Storage.Postgres.DSN)
		if err != nil {
			sc.closeRepos(repos)
			return fmt.Errorf("postgres: %w", err)
		}
		repos = append(repos, repo)
		log.Info().Msg("✓ Postgres initialized")
	}

	sc.repo = composite.New(repos...)
	// 注册关闭回调
	sc.closerChain = append(sc.closerChain, func() error {
		log.Info().Msg("closing signal stores")
		return sc.repo.Close()
	})
	return nil
}

func (sc *ServiceContext) closeRepos(repos []port.SignalRepository) {
	for _, r := range repos {
		_ = r.Close()
	}
}

func (sc *ServiceContext) initializeNotifier() {
	sc.Console = console.NewSink(os.Stdout)
	if !sc.Config.Telegram.Enabled {
		sc.Notifier = sc.Console
		log.Warn().Msg("telegram disabled by config, notifications go to console")
		return
	}
	poll := time.Duration(sc.Config.Telegram.PollTimeoutSec) * time.Second
	sc.Telegram = telegram.NewClient(sc.Config.Telegram.APIURL, sc.Config.Telegram.Token, poll)
	sc.Notifier = sc.Telegram
}

// NoticeChats 启动/关闭通知的固定接收方：Telegram 取配置，控制台模式为控制台会话
func (sc *ServiceContext) NoticeChats() []int64 {
	if sc.Telegram == nil {
		return []int64{console.ChatID}
	}
	return append([]int64(nil), sc.Config.Telegram.NoticeChats...)
}

// NewBot Telegram 未启用时返回 nil
func (sc *ServiceContext) NewBot() *telegram.Bot {
	if sc.Telegram == nil {
		return nil
	}
	poll := time.Duration(sc.Config.Telegram.PollTimeoutSec) * time.Second
	return telegram.NewBot(sc.Telegram, sc.Router, poll)
}

// StartStreams 启动带后台连接的适配器，ctx 结束后由 Close 等待退出
func (sc *ServiceContext) StartStreams(ctx context.Context) int {
	started := 0
	for _, a := range sc.adapters {
		r, ok := a.(runner)
		if !ok {
			continue
		}
		started++
		sc.streams.Add(1)
		go func(venue string) {
			defer sc.streams.Done()
			r.Run(ctx)
			log.Info().Str("venue", venue).Msg("venue stream stopped")
		}(string(a.Venue()))
	}
	return started
}

// Close 关闭 ServiceContext 中的所有资源
// 应该在 ctx 结束、所有跟踪任务停止之后调用
func (sc *ServiceContext) Close() error {
	sc.streams.Wait()

	// 按照相反的顺序关闭所有资源
	for i := len(sc.closerChain) - 1; i >= 0; i-- {
		if err := sc.closerChain[i](); err != nil {
			log.Error().Err(err).Msg("error closing resource")
		}
	}
	sc.closerChain = nil
	return nil
}
