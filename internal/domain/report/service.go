package report

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/bloodlink/bloodlink/internal/domain/bloodtype"
	"github.com/bloodlink/bloodlink/internal/platform/cache"
)

const statsCacheKey = "reports:stats"

// Cache is the subset of cache.Client the reports use.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) error
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
}

type Service struct {
	repo   Repository
	cache  Cache
	ttl    time.Duration
	logger zerolog.Logger
	now    func() time.Time
}

// NewService builds the report service. A nil cache or a zero ttl disables
// caching.
func NewService(repo Repository, c Cache, ttl time.Duration, logger zerolog.Logger) *Service {
	return &Service{repo: repo, cache: c, ttl: ttl, logger: logger, now: time.Now}
}

func (s *Service) caching() bool {
	return s.cache != nil && s.ttl > 0
}

// Stats returns the dashboard counters, from cache when fresh.
func (s *Service) Stats(ctx context.Context) (*Stats, error) {
	if s.caching() {
		var cached Stats
		err := s.cache.GetJSON(ctx, statsCacheKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, cache.ErrMiss) {
			s.logger.Warn().Err(err).Msg("stats cache read failed")
		}
	}

	stats, err := s.gather(ctx)
	if err != nil {
		return nil, err
	}

	if s.caching() {
		if err := s.cache.SetJSON(ctx, statsCacheKey, stats, s.ttl); err != nil {
			s.logger.Warn().Err(err).Msg("stats cache write failed")
		}
	}
	return stats, nil
}

func (s *Service) gather(ctx context.Context) (*Stats, error) {
	now := s.now()
	stats := &Stats{GeneratedAt: now}
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		m, err := s.repo.AccountsByRole(ctx)
		stats.AccountsByRole = m
		return err
	})
	g.Go(func() error {
		m, err := s.repo.EventsByStatus(ctx)
		stats.EventsByStatus = m
		return err
	})
	g.Go(func() error {
		m, err := s.repo.RegistrationsByStatus(ctx)
		stats.RegistrationsByStatus = m
		return err
	})
	g.Go(func() error {
		rows, err := s.repo.Stock(ctx, now)
		for _, r := range rows {
			stats.AvailableUnits += r.Units
		}
		return err
	})

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return stats, nil
}

// BloodStock returns every blood type and component combination with its
// available units, zero when there are none.
func (s *Service) BloodStock(ctx context.Context) ([]StockLevel, error) {
	rows, err := s.repo.Stock(ctx, s.now())
	if err != nil {
		return nil, err
	}
	type key struct{ bt, c int }
	found := make(map[key]StockRow, len(rows))
	for _, r := range rows {
		found[key{r.BloodTypeID, r.ComponentID}] = r
	}

	types := bloodtype.All()
	components := bloodtype.Components()
	out := make([]StockLevel, 0, len(types)*len(components))
	for _, t := range types {
		for _, c := range components {
			r := found[key{t.ID(), c.ID()}]
			out = append(out, StockLevel{
				BloodTypeID: t.ID(),
				BloodType:   t,
				ComponentID: c.ID(),
				Component:   c,
				Units:       r.Units,
				VolumeML:    r.VolumeML,
			})
		}
	}
	return out, nil
}
