package tracking

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"xspread/internal/application/port"
	"xspread/internal/domain/model"
	dsvc "xspread/internal/domain/service"
)

const defaultUpdateInterval = 10 * time.Second

// ErrorHandler 接收一轮更新的错误，ctx 为跟踪任务自身的 context
type ErrorHandler func(ctx context.Context, err error)

type TrackerDeps struct {
	Source   PriceSource
	Notifier port.Notifier
	Repo     port.SignalRepository
	Format   *Formatter
	Policy   dsvc.ThrottlePolicy
	Interval time.Duration
	OnError  ErrorHandler
}

// Tracker 一个跟踪任务：发送启动消息，立即执行一轮，然后按固定间隔轮询
type Tracker struct {
	id     string
	key    string
	params model.TrackingParams
	deps   TrackerDeps

	throttle *dsvc.Throttle

	mu     sync.Mutex
	state  State
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func NewTracker(params model.TrackingParams, deps TrackerDeps) *Tracker {
	if deps.Interval <= 0 {
		deps.Interval = defaultUpdateInterval
	}
	if deps.Repo == nil {
		deps.Repo = NewNoopRepo()
	}
	if deps.Format == nil {
		deps.Format = NewFormatter(nil)
	}
	if deps.OnError == nil {
		deps.OnError = func(ctx context.Context, err error) {}
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Tracker{
		id:       uuid.NewString(),
		key:      params.Key(),
		params:   params,
		deps:     deps,
		throttle: dsvc.NewThrottle(deps.Policy),
		state:    StateStarting,
		ctx:      ctx,
		cancel:   cancel,
	}
}

func (t *Tracker) ID() string  { return t.id }
func (t *Tracker) Key() string { return t.key }

func (t *Tracker) State() State {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Info 对外展示的任务信息
func (t *Tracker) Info() model.TrackingInfo {
	info := model.TrackingInfo{ID: t.id, Key: t.key, Params: t.params}
	if v, ok := t.throttle.Baseline(); ok {
		info.LastSpread = &v
	}
	return info
}

// Start 发送启动消息并同步执行第一轮更新，随后进入轮询
// 启动消息发送失败时返回错误；第一轮更新失败只交给 OnError
// ctx 只约束启动阶段，轮询由 Stop 结束
func (t *Tracker) Start(ctx context.Context) error {
	if !t.acquire() {
		return ErrTrackerStopped
	}
	defer t.wg.Done()

	detach := context.AfterFunc(ctx, t.cancel)
	defer detach()

	log.Info().Str("tracker", t.id).Int64("chat", t.params.ChatID).Str("key", t.key).Msg("tracker starting")

	if err := t.send(t.ctx, t.deps.Format.TrackingStarted(t.params)); err != nil {
		t.halt()
		return err
	}

	t.runCycle(t.ctx)

	t.mu.Lock()
	if t.state == StateStopped || t.ctx.Err() != nil {
		t.state = StateStopped
		t.mu.Unlock()
		if err := ctx.Err(); err != nil {
			return err
		}
		return ErrTrackerStopped
	}
	t.state = StatePolling
	t.wg.Add(1)
	t.mu.Unlock()

	go t.poll()
	return nil
}

// Stop 取消并等待轮询协程退出；返回后不会再发送任何消息。可重复调用
func (t *Tracker) Stop() {
	first := t.halt()
	t.wg.Wait()
	if first {
		log.Info().Str("tracker", t.id).Str("key", t.key).Msg("tracker stopped")
	}
}

// halt 进入 Stopped 并取消 context，不等待；返回是否为第一次
func (t *Tracker) halt() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	first := t.state != StateStopped
	t.state = StateStopped
	t.cancel()
	return first
}

// acquire 在未停止时登记一个进行中的操作，保证 Stop 能等到它结束
func (t *Tracker) acquire() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state == StateStopped {
		return false
	}
	t.wg.Add(1)
	return true
}

func (t *Tracker) poll() {
	defer t.wg.Done()

	ticker := time.NewTicker(t.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-t.ctx.Done():
			return
		case <-ticker.C:
			t.runCycle(t.ctx)
		}
	}
}

func (t *Tracker) runCycle(ctx context.Context) {
	err := t.cycle(ctx)
	if err == nil || ctx.Err() != nil {
		return
	}
	log.Warn().Str("tracker", t.id).Str("key", t.key).Err(err).Msg("tracking cycle failed")
	t.deps.OnError(ctx, &CycleError{Key: t.key, Err: err})
}

func (t *Tracker) cycle(ctx context.Context) error {
	if t.params.Ultra {
		return t.ultraCycle(ctx)
	}
	return t.regularCycle(ctx)
}

// ultraCycle 所有交易所所有市场的报价 -> 最优买卖 -> 节流 -> 通知
func (t *Tracker) ultraCycle(ctx context.Context) error {
	quotes, err := t.deps.Source.GetAllPrices(ctx, t.params.Symbol, t.params.Venues)
	if err != nil {
		return err
	}
	view, err := dsvc.Analyze(quotes)
	if err != nil {
		return err
	}

	now := time.Now()
	for _, q := range quotes {
		if err := t.deps.Repo.UpsertLatestQuote(ctx, q, now.UnixMilli()); err != nil {
			log.Debug().Str("venue", string(q.Venue)).Err(err).Msg("store latest quote failed")
			break
		}
	}

	prev := t.baseline()
	if ctx.Err() != nil || !t.approve(view.SpreadPercent) {
		return nil
	}

	msg := t.deps.Format.Ultra(view, prev)
	return t.deliver(ctx, msg, model.Signal{
		Symbol:        t.params.Symbol,
		SpreadPercent: view.SpreadPercent,
		BuyVenue:      view.BestAsk.Venue,
		SellVenue:     view.BestBid.Venue,
		Time:          now,
	})
}

// regularCycle 普通模式：两交易所现货价差
func (t *Tracker) regularCycle(ctx context.Context) error {
	data, err := t.deps.Source.CalculateSpread(ctx, t.params.Symbol, t.params.Market1, t.params.Market2, t.params.Venues)
	if err != nil {
		return err
	}

	prev := t.baseline()
	if ctx.Err() != nil || !t.approve(data.SpreadPercent) {
		return nil
	}

	msg := t.deps.Format.Spread(data, prev)
	return t.deliver(ctx, msg, model.Signal{
		Symbol:        t.params.Symbol,
		SpreadPercent: data.SpreadPercent,
		BuyVenue:      data.AskVenue,
		SellVenue:     data.BidVenue,
		Time:          time.Now(),
	})
}

func (t *Tracker) baseline() *float64 {
	if v, ok := t.throttle.Baseline(); ok {
		return &v
	}
	return nil
}

func (t *Tracker) approve(spread float64) bool {
	ok := t.throttle.Evaluate(spread, t.params.MinSpreadPercent)
	if !ok {
		log.Debug().Str("key", t.key).Float64("spread", spread).Msg("spread update throttled")
	}
	return ok
}

// deliver 发送通知，成功后才推进 baseline 并记录信号；记录失败不影响本轮结果
func (t *Tracker) deliver(ctx context.Context, msg string, sig model.Signal) error {
	if err := t.send(ctx, msg); err != nil {
		return err
	}
	t.throttle.Commit(sig.SpreadPercent)

	sig.ID = uuid.NewString()
	sig.ChatID = t.params.ChatID
	sig.TrackingKey = t.key
	sig.Message = msg
	if err := t.deps.Repo.InsertSignal(ctx, sig); err != nil {
		log.Warn().Str("key", t.key).Err(err).Msg("store signal failed")
	}
	return nil
}

func (t *Tracker) send(ctx context.Context, msg string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	return t.deps.Notifier.SendMessage(ctx, t.params.ChatID, msg)
}
