package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"xspread/internal/application/port"
	"xspread/internal/domain/model"
)

type Repo struct {
	rdb          *redis.Client
	ttl          time.Duration
	keyLatest    string // prefix + ":latest:" + symbol
	signalStream string
	signalChan   string
}

func New(rdb *redis.Client, prefix string, ttl time.Duration, signalStream, signalChan string) *Repo {
	if strings.TrimSpace(signalStream) == "" {
		signalStream = prefix + ":signals"
	}
	if strings.TrimSpace(signalChan) == "" {
		signalChan = prefix + ":signals:pub"
	}
	return &Repo{
		rdb:          rdb,
		ttl:          ttl,
		keyLatest:    prefix + ":latest:",
		signalStream: signalStream,
		signalChan:   signalChan,
	}
}

// Dial 连接并 PING 一次
func Dial(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{Addr: addr, Password: password, DB: db})
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return rdb, nil
}

type latestQuote struct {
	model.VenueQuote
	Ts int64 `json:"ts"`
}

func (r *Repo) latestKey(symbol string) string { return r.keyLatest + symbol }

func quoteField(q model.VenueQuote) string {
	// Hash: field = "gate:futures" -> json
	return fmt.Sprintf("%s:%s", q.Venue, q.Market)
}

func (r *Repo) UpsertLatestQuote(ctx context.Context, q model.VenueQuote, ts int64) error {
	if q.Bid <= 0 || q.Ask <= 0 {
		return nil
	}
	b, err := json.Marshal(latestQuote{VenueQuote: q, Ts: ts})
	if err != nil {
		return err
	}

	key := r.latestKey(q.Symbol)
	pipe := r.rdb.Pipeline()
	pipe.HSet(ctx, key, quoteField(q), string(b))
	if r.ttl > 0 {
		pipe.Expire(ctx, key, r.ttl)
	}
	_, err = pipe.Exec(ctx)
	return err
}

func signalValues(s model.Signal) map[string]any {
	return map[string]any{
		"id":           s.ID,
		"chat_id":      s.ChatID,
		"tracking_key": s.TrackingKey,
		"symbol":       s.Symbol,
		"spread":       s.SpreadPercent,
		"buy_venue":    string(s.BuyVenue),
		"sell_venue":   string(s.SellVenue),
		"ts_ms":        s.Time.UnixMilli(),
	}
}

func (r *Repo) InsertSignal(ctx context.Context, s model.Signal) error {
	// 1) Stream: XADD <stream> * fields...
	_, err := r.rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: r.signalStream,
		Values: signalValues(s),
	}).Result()
	if err != nil {
		return err
	}

	// 2) PubSub: PUBLISH <channel> json
	msg, err := json.Marshal(s)
	if err != nil {
		return err
	}
	return r.rdb.Publish(ctx, r.signalChan, msg).Err()
}

func (r *Repo) Close() error { return r.rdb.Close() }

var _ port.SignalRepository = (*Repo)(nil)
