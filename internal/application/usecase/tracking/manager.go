package tracking

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"xspread/internal/application/port"
	"xspread/internal/domain/model"
	dsvc "xspread/internal/domain/service"
)

type ManagerDeps struct {
	Source   PriceSource
	Links    LinkResolver
	Notifier port.Notifier
	Repo     port.SignalRepository
	Policy   dsvc.ThrottlePolicy
	Interval time.Duration
	// Venues 已启用的交易所；非空时任务的交易所集合会与它取交集
	Venues []model.Venue
}

// Manager 跟踪任务注册表：chat -> key -> Tracker
// 同一个 (chat, key) 最多只有一个运行中的 Tracker
type Manager struct {
	deps ManagerDeps
	fmt  *Formatter

	mu       sync.Mutex
	trackers map[int64]map[string]*Tracker
}

func NewManager(deps ManagerDeps) *Manager {
	if deps.Repo == nil {
		deps.Repo = NewNoopRepo()
	}
	return &Manager{
		deps:     deps,
		fmt:      NewFormatter(deps.Links),
		trackers: make(map[int64]map[string]*Tracker),
	}
}

func (m *Manager) Formatter() *Formatter { return m.fmt }

// StartTracking 校验参数并启动一个新的跟踪任务；相同键的旧任务先停止再替换
func (m *Manager) StartTracking(ctx context.Context, params model.TrackingParams) (model.TrackingInfo, error) {
	params.Normalize()
	if len(m.deps.Venues) > 0 {
		params.Venues = enabledOnly(params.Venues, m.deps.Venues)
	}
	if err := params.Validate(); err != nil {
		return model.TrackingInfo{}, err
	}

	chatID, symbol := params.ChatID, params.Symbol
	t := NewTracker(params, TrackerDeps{
		Source:   m.deps.Source,
		Notifier: m.deps.Notifier,
		Repo:     m.deps.Repo,
		Format:   m.fmt,
		Policy:   m.deps.Policy,
		Interval: m.deps.Interval,
		OnError: func(ctx context.Context, err error) {
			m.handleTrackingError(ctx, chatID, symbol, err)
		},
	})

	m.mu.Lock()
	chat, ok := m.trackers[chatID]
	if !ok {
		chat = make(map[string]*Tracker)
		m.trackers[chatID] = chat
	}
	old := chat[t.Key()]
	chat[t.Key()] = t
	m.mu.Unlock()

	if old != nil {
		log.Info().Int64("chat", chatID).Str("key", t.Key()).Msg("replacing existing tracker")
		old.Stop()
	}

	if err := t.Start(ctx); err != nil {
		m.remove(chatID, t)
		t.Stop()
		return model.TrackingInfo{}, err
	}
	return t.Info(), nil
}

// StopTracking 停止一个任务，返回是否存在
func (m *Manager) StopTracking(chatID int64, key string) bool {
	m.mu.Lock()
	t, ok := m.trackers[chatID][key]
	if ok {
		m.detach(chatID, key)
	}
	m.mu.Unlock()

	if ok {
		t.Stop()
	}
	return ok
}

// StopSymbol 停止某个交易对的所有模式，返回停止的数量
func (m *Manager) StopSymbol(chatID int64, symbol string) int {
	m.mu.Lock()
	var stopped []*Tracker
	for key, t := range m.trackers[chatID] {
		if t.params.Symbol == symbol {
			stopped = append(stopped, t)
			m.detach(chatID, key)
		}
	}
	m.mu.Unlock()

	for _, t := range stopped {
		t.Stop()
	}
	return len(stopped)
}

// StopAllTracking 停止某个会话的全部任务
func (m *Manager) StopAllTracking(chatID int64) int {
	m.mu.Lock()
	chat := m.trackers[chatID]
	delete(m.trackers, chatID)
	m.mu.Unlock()

	for _, t := range chat {
		t.Stop()
	}
	return len(chat)
}

// StopEverything 关闭时停止所有任务
func (m *Manager) StopEverything() {
	m.mu.Lock()
	all := m.trackers
	m.trackers = make(map[int64]map[string]*Tracker)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, chat := range all {
		for _, t := range chat {
			wg.Add(1)
			go func(t *Tracker) {
				defer wg.Done()
				t.Stop()
			}(t)
		}
	}
	wg.Wait()
}

// ListTrackings 某个会话的任务，按键排序
func (m *Manager) ListTrackings(chatID int64) []model.TrackingInfo {
	m.mu.Lock()
	list := make([]*Tracker, 0, len(m.trackers[chatID]))
	for _, t := range m.trackers[chatID] {
		list = append(list, t)
	}
	m.mu.Unlock()

	out := make([]model.TrackingInfo, 0, len(list))
	for _, t := range list {
		out = append(out, t.Info())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// ActiveChatIDs 至少有一个任务的会话
func (m *Manager) ActiveChatIDs() []int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]int64, 0, len(m.trackers))
	for id, chat := range m.trackers {
		if len(chat) > 0 {
			out = append(out, id)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Broadcast 向所有活跃会话以及 extra 中的会话发送同一条消息（去重），返回成功数量
func (m *Manager) Broadcast(ctx context.Context, text string, extra ...int64) int {
	ids := m.ActiveChatIDs()
	seen := make(map[int64]bool, len(ids)+len(extra))
	for _, id := range ids {
		seen[id] = true
	}
	for _, id := range extra {
		if id != 0 && !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}

	sent := 0
	for _, id := range ids {
		if err := m.deps.Notifier.SendMessage(ctx, id, text); err != nil {
			log.Warn().Int64("chat", id).Err(err).Msg("broadcast failed")
			continue
		}
		sent++
	}
	return sent
}

// enabledOnly 保留 want 中已启用的交易所，顺序不变
func enabledOnly(want, enabled []model.Venue) []model.Venue {
	on := make(map[model.Venue]bool, len(enabled))
	for _, v := range enabled {
		on[v] = true
	}
	out := make([]model.Venue, 0, len(want))
	for _, v := range want {
		if on[v] {
			out = append(out, v)
		}
	}
	return out
}

// remove 只在注册表里仍是同一个 Tracker 时删除（可能已被替换）
func (m *Manager) remove(chatID int64, t *Tracker) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.trackers[chatID][t.Key()] == t {
		m.detach(chatID, t.Key())
	}
}

// detach 调用方持有 m.mu
func (m *Manager) detach(chatID int64, key string) {
	chat := m.trackers[chatID]
	delete(chat, key)
	if len(chat) == 0 {
		delete(m.trackers, chatID)
	}
}

func (m *Manager) handleTrackingError(ctx context.Context, chatID int64, symbol string, err error) {
	cause := err
	var ce *CycleError
	if errors.As(err, &ce) {
		cause = ce.Err
	}
	log.Error().Int64("chat", chatID).Str("symbol", symbol).Err(cause).Msg("tracking error")

	if ctx.Err() != nil {
		return
	}
	if sendErr := m.deps.Notifier.SendMessage(ctx, chatID, m.fmt.Error(symbol, cause)); sendErr != nil {
		log.Warn().Int64("chat", chatID).Err(sendErr).Msg("send error message failed")
	}
}
