package composite

import (
	"context"
	"errors"

	"xspread/internal/application/port"
	"xspread/internal/domain/model"
)

type Repo struct {
	repos []port.SignalRepository
}

func New(repos ...port.SignalRepository) *Repo {
	// nil repos are allowed; filter in constructor for safety
	out := make([]port.SignalRepository, 0, len(repos))
	for _, r := range repos {
		if r != nil {
			out = append(out, r)
		}
	}
	return &Repo{repos: out}
}

// Len 实际生效的存储数量
func (r *Repo) Len() int { return len(r.repos) }

func (r *Repo) UpsertLatestQuote(ctx context.Context, q model.VenueQuote, ts int64) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.UpsertLatestQuote(ctx, q, ts); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

func (r *Repo) InsertSignal(ctx context.Context, s model.Signal) error {
	var firstErr error
	for _, repo := range r.repos {
		if err := repo.InsertSignal(ctx, s); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// Close 关闭全部存储，返回合并后的错误
func (r *Repo) Close() error {
	var errs []error
	for _, repo := range r.repos {
		if err := repo.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

var _ port.SignalRepository = (*Repo)(nil)
