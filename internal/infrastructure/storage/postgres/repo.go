package postgres

import (
	"context"
	"database/sql"

	_ "github.com/jackc/pgx/v5/stdlib"

	"xspread/internal/application/port"
	"xspread/internal/domain/model"
)

type Repo struct {
	db *sql.DB
}

func New(dsn string) (*Repo, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	r := &Repo{db: db}
	if err := r.migrate(context.Background()); err != nil {
		_ = db.Close()
		return nil, err
	}
	return r, nil
}

func (r *Repo) Close() error { return r.db.Close() }

func (r *Repo) migrate(ctx context.Context) error {
	_, err := r.db.ExecContext(ctx, `
CREATE TABLE IF NOT EXISTS signals (
  id TEXT PRIMARY KEY,
  chat_id BIGINT NOT NULL,
  tracking_key TEXT NOT NULL,
  symbol TEXT NOT NULL,
  spread DOUBLE PRECISION NOT NULL,
  buy_venue TEXT NOT NULL,
  sell_venue TEXT NOT NULL,
  message TEXT NOT NULL,
  ts_ms BIGINT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(ts_ms);
CREATE INDEX IF NOT EXISTS idx_signals_symbol ON signals(symbol);
`)
	return err
}

func (r *Repo) UpsertLatestQuote(ctx context.Context, q model.VenueQuote, ts int64) error {
	// 最新报价只放在 sqlite / redis
	return nil
}

func (r *Repo) InsertSignal(ctx context.Context, s model.Signal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO signals(id, chat_id, tracking_key, symbol, spread, buy_venue, sell_venue, message, ts_ms)
		VALUES($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING
	`, s.ID, s.ChatID, s.TrackingKey, s.Symbol, s.SpreadPercent,
		string(s.BuyVenue), string(s.SellVenue), s.Message, s.Time.UnixMilli())
	return err
}

var _ port.SignalRepository = (*Repo)(nil)
