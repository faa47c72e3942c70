package sqlite

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"

	_ "modernc.org/sqlite"

	"xspread/internal/application/port"
	"xspread/internal/domain/model"
)

type Repo struct {
	db *sql.DB
}

func New(path string) (*Repo, error) {
	// ensure directory exists
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		_ = os.MkdirAll(dir, 0o755)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)

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
CREATE TABLE IF NOT EXISTS latest_quotes (
  venue TEXT NOT NULL,
  market TEXT NOT NULL,
  symbol TEXT NOT NULL,
  bid REAL NOT NULL,
  ask REAL NOT NULL,
  funding REAL,
  deposit INTEGER,
  withdraw INTEGER,
  ts_ms INTEGER NOT NULL,
  PRIMARY KEY(venue, market, symbol)
);
CREATE INDEX IF NOT EXISTS idx_latest_symbol ON latest_quotes(symbol);

CREATE TABLE IF NOT EXISTS signals (
  id TEXT PRIMARY KEY,
  chat_id INTEGER NOT NULL,
  tracking_key TEXT NOT NULL,
  symbol TEXT NOT NULL,
  spread REAL NOT NULL,
  buy_venue TEXT NOT NULL,
  sell_venue TEXT NOT NULL,
  message TEXT NOT NULL,
  ts_ms INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_signals_ts ON signals(ts_ms);
CREATE INDEX IF NOT EXISTS idx_signals_symbol ON signals(symbol);
`)
	return err
}

func (r *Repo) UpsertLatestQuote(ctx context.Context, q model.VenueQuote, ts int64) error {
	var funding sql.NullFloat64
	if q.Funding != nil {
		funding = sql.NullFloat64{Float64: *q.Funding, Valid: true}
	}
	var deposit, withdraw sql.NullBool
	if q.TokenStatus != nil {
		deposit = sql.NullBool{Bool: q.TokenStatus.Deposit, Valid: true}
		withdraw = sql.NullBool{Bool: q.TokenStatus.Withdraw, Valid: true}
	}

	_, err := r.db.ExecContext(ctx, `
		INSERT INTO latest_quotes(venue, market, symbol, bid, ask, funding, deposit, withdraw, ts_ms)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(venue, market, symbol) DO UPDATE SET
		bid=excluded.bid, ask=excluded.ask, funding=excluded.funding,
		deposit=excluded.deposit, withdraw=excluded.withdraw, ts_ms=excluded.ts_ms
	`, string(q.Venue), string(q.Market), q.Symbol, q.Bid, q.Ask, funding, deposit, withdraw, ts)
	return err
}

func (r *Repo) InsertSignal(ctx context.Context, s model.Signal) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO signals(id, chat_id, tracking_key, symbol, spread, buy_venue, sell_venue, message, ts_ms)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, s.ID, s.ChatID, s.TrackingKey, s.Symbol, s.SpreadPercent,
		string(s.BuyVenue), string(s.SellVenue), s.Message, s.Time.UnixMilli())
	return err
}

var _ port.SignalRepository = (*Repo)(nil)
