package tracking

import (
	"context"

	"xspread/internal/application/port"
	"xspread/internal/domain/model"
)

type noopRepo struct{}

// NewNoopRepo 未启用任何存储时使用
func NewNoopRepo() port.SignalRepository { return &noopRepo{} }

func (n *noopRepo) UpsertLatestQuote(ctx context.Context, q model.VenueQuote, ts int64) error {
	return nil
}
func (n *noopRepo) InsertSignal(ctx context.Context, s model.Signal) error {
	return nil
}
func (n *noopRepo) Close() error { return nil }
