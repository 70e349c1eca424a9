package poller

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"warrantfeed/internal/application/port"
	"warrantfeed/internal/domain"
)

const DefaultInterval = 60 * time.Second

type ServiceDeps struct {
	Catalog     port.InstrumentCatalog
	Fetcher     port.QuoteFetcher
	Broadcaster port.Broadcaster
	// Sink receives each batch after the broadcast. Optional.
	Sink     port.QuoteSink
	Interval time.Duration
	Cache    *domain.LastCloseCache
	Now      func() time.Time
}

// Service runs the fetch, normalize and broadcast cycle on a fixed cadence.
// Cycles never overlap; the cache is only touched from the Run goroutine.
type Service struct {
	deps       ServiceDeps
	normalizer *domain.Normalizer
	status     *Status

	symbols []string
	names   domain.NameIndex
}

func NewService(deps ServiceDeps) *Service {
	if deps.Interval <= 0 {
		deps.Interval = DefaultInterval
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	if deps.Cache == nil {
		deps.Cache = domain.NewLastCloseCache()
	}
	return &Service{
		deps:       deps,
		normalizer: domain.NewNormalizer(deps.Cache),
		status:     &Status{},
	}
}

func (s *Service) Status() Snapshot { return s.status.Snapshot() }

// Load reads the catalog once. The result is reused by every cycle.
func (s *Service) Load(ctx context.Context) error {
	instruments, err := s.deps.Catalog.Load(ctx)
	if err != nil {
		if !errors.Is(err, domain.ErrCatalogUnavailable) {
			err = fmt.Errorf("%w: %v", domain.ErrCatalogUnavailable, err)
		}
		return err
	}
	if len(instruments) == 0 {
		return fmt.Errorf("%w: no instruments", domain.ErrCatalogUnavailable)
	}

	s.symbols = domain.Symbols(instruments)
	s.names = domain.NewNameIndex(instruments)
	s.status.setInstruments(len(s.symbols))

	log.Info().Int("instruments", len(s.symbols)).Msg("catalog loaded")
	return nil
}

// Run executes one cycle immediately and then one per interval until ctx is
// done. Ticks that fire while a cycle is running are dropped.
func (s *Service) Run(ctx context.Context) error {
	if s.symbols == nil {
		if err := s.Load(ctx); err != nil {
			return err
		}
	}

	s.status.setRunning(true)
	defer s.status.setRunning(false)

	log.Info().Dur("interval", s.deps.Interval).Msg("poll loop started")

	s.cycle(ctx)

	ticker := time.NewTicker(s.deps.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("poll loop stopped")
			return ctx.Err()
		case <-ticker.C:
			s.cycle(ctx)
		}
	}
}

func (s *Service) cycle(ctx context.Context) {
	start := s.deps.Now()
	if err := s.RunCycle(ctx); err != nil {
		if ctx.Err() != nil {
			return
		}
		log.Warn().Err(err).Dur("took", s.deps.Now().Sub(start)).Msg("poll cycle skipped")
	}
}

// RunCycle performs a single fetch, normalize and broadcast pass. A fetch
// error abandons the cycle before the cache is touched.
func (s *Service) RunCycle(ctx context.Context) error {
	if s.symbols == nil {
		return fmt.Errorf("%w: catalog not loaded", domain.ErrCatalogUnavailable)
	}

	entries, err := s.deps.Fetcher.Fetch(ctx, s.symbols)
	if err != nil {
		s.status.failure(s.deps.Now(), err)
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	quotes, issues := s.normalizer.Normalize(entries, s.names)
	s.logIssues(issues)
	for _, q := range quotes {
		if _, ok := s.names[q.Symbol]; !ok {
			log.Warn().Str("symbol", q.Symbol).Msg("upstream symbol not in catalog")
		}
	}

	delivered := 0
	if len(quotes) > 0 {
		delivered = s.deps.Broadcaster.Broadcast(ctx, quotes)
		if s.deps.Sink != nil {
			if err := s.deps.Sink.Publish(ctx, quotes); err != nil {
				log.Warn().Err(err).Msg("quote sink publish failed")
			}
		}
	} else {
		log.Warn().Int("entries", len(entries)).Msg("no quotes produced this cycle")
	}

	s.status.success(s.deps.Now(), len(quotes), delivered, s.deps.Cache.Len())
	log.Debug().
		Int("entries", len(entries)).
		Int("quotes", len(quotes)).
		Int("skipped", len(issues)).
		Int("clients", delivered).
		Msg("poll cycle done")
	return nil
}

func (s *Service) logIssues(issues []domain.EntryIssue) {
	for _, is := range issues {
		if errors.Is(is, domain.ErrEntryMalformed) {
			log.Warn().Int("index", is.Index).Str("symbol", is.Symbol).Err(is.Err).Msg("skipping malformed entry")
			continue
		}
		log.Debug().Str("symbol", is.Symbol).Err(is.Err).Msg("no quote for entry")
	}
}
