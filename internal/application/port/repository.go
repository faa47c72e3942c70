package port

import (
	"context"

	"xspread/internal/domain/model"
)

// SignalRepository 通知与最新报价的落库（审计用途，不用于恢复跟踪任务）
type SignalRepository interface {
	// UpsertLatestQuote 保存某交易所某市场的最新报价
	UpsertLatestQuote(ctx context.Context, q model.VenueQuote, ts int64) error

	// InsertSignal 保存一条已发送的价差通知
	InsertSignal(ctx context.Context, s model.Signal) error

	// Connection management
	Close() error
}
