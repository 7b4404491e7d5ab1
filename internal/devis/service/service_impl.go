package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/catalog"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/clock"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/config"
	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/format"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/observability/metrics"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/pricing"
	"github.com/patrickmn/go-cache"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Lifecycle fx.Lifecycle `optional:"true"`
	Repo      devisdomain.Repository
	Catalog   *catalog.Catalog
	Config    *config.DevisConfigHolder
	Clock     clock.Clock
	Log       *zap.Logger
	Metrics   *metrics.DevisMetrics `optional:"true"`
	Uploader  devisdomain.Uploader  `optional:"true"`
	Sequence  format.SequenceFunc   `optional:"true"`
}

// Service opens editing sessions and keeps them in a TTL registry keyed by
// quote id. An idle session expires and is reloaded from storage on the
// next Open.
type Service struct {
	repo     devisdomain.Repository
	catalog  *catalog.Catalog
	config   *config.DevisConfigHolder
	clock    clock.Clock
	log      *zap.Logger
	metrics  *metrics.DevisMetrics
	uploader devisdomain.Uploader
	sequence format.SequenceFunc
	sessions *cache.Cache

	// pending counts the writes of every session, including sessions that
	// were closed or expired while a write was in flight.
	pending sync.WaitGroup
}

func New(p Params) *Service {
	ttl := p.Config.Get().SessionTTL
	if ttl <= 0 {
		ttl = config.DefaultDevisConfig().SessionTTL
	}

	svc := &Service{
		repo:     p.Repo,
		catalog:  p.Catalog,
		config:   p.Config,
		clock:    p.Clock,
		log:      p.Log.Named("devis.service"),
		metrics:  p.Metrics,
		uploader: p.Uploader,
		sequence: p.Sequence,
		sessions: cache.New(ttl, ttl/2),
	}
	svc.sessions.OnEvicted(func(id string, _ interface{}) {
		svc.metrics.SetOpenSessions(svc.sessions.ItemCount())
		svc.log.Debug("session evicted", zap.String("quote_id", id))
	})

	if p.Lifecycle != nil {
		p.Lifecycle.Append(fx.Hook{OnStop: svc.drain})
	}
	return svc
}

// Create stores a new draft quote seeded with the catalog rooms and opens
// it.
func (s *Service) Create(ctx context.Context, req devisdomain.CreateRequest) (devisdomain.Session, error) {
	projectID := strings.TrimSpace(req.ProjectID)
	if projectID == "" {
		return nil, devisdomain.ErrInvalidProject
	}
	userID := strings.TrimSpace(req.UserID)
	if userID == "" {
		return nil, devisdomain.ErrInvalidUser
	}

	rate := pricing.DefaultTaxRatePercent
	if req.DefaultTaxRatePercent != nil {
		if !nonNegative(*req.DefaultTaxRatePercent) {
			return nil, devisdomain.ErrInvalidTaxRate
		}
		rate = *req.DefaultTaxRatePercent
	}

	now := s.clock.Now()
	number := format.NewQuoteNumber(now, s.sequence)
	title := strings.TrimSpace(req.Title)
	if title == "" {
		title = "Devis " + number
	}

	cfg := devisdomain.QuoteConfiguration{
		ProjectID:             projectID,
		UserID:                userID,
		Title:                 title,
		Number:                number,
		DefaultTaxRatePercent: rate,
		Status:                devisdomain.StatusDraft,
		Pieces:                DefaultRooms(s.catalog.RoomNames()),
		SurfaceData:           []devisdomain.SurfaceRecord{},
		SelectedItems:         []devisdomain.LineItem{},
		CreatedAt:             now,
		UpdatedAt:             now,
	}

	id, err := s.repo.Create(ctx, &cfg)
	if err != nil {
		return nil, fmt.Errorf("create quote: %w", err)
	}
	cfg.ID = id

	s.log.Info("quote created",
		zap.String("quote_id", id),
		zap.String("project_id", projectID),
		zap.String("number", number),
	)
	return s.register(cfg), nil
}

// Open returns the live session of a quote, loading it when none is held.
func (s *Service) Open(ctx context.Context, id string) (devisdomain.Session, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, devisdomain.ErrNotFound
	}
	if cached, ok := s.sessions.Get(id); ok {
		store := cached.(*Store)
		s.sessions.SetDefault(id, store)
		return store, nil
	}

	stored, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("load quote %s: %w", id, err)
	}
	if stored == nil {
		return nil, fmt.Errorf("%w: %s", devisdomain.ErrNotFound, id)
	}
	if stored.ID == "" {
		stored.ID = id
	}

	cfg := normalizeStored(*stored, s.catalog.RoomNames())
	return s.register(cfg), nil
}

// Close drops a session from the registry. In-flight writes still complete.
func (s *Service) Close(id string) {
	s.sessions.Delete(strings.TrimSpace(id))
}

func (s *Service) register(cfg devisdomain.QuoteConfiguration) *Store {
	store := newStore(storeDeps{
		repo:     s.repo,
		clock:    s.clock,
		log:      s.log,
		metrics:  s.metrics,
		catalog:  s.catalog,
		uploader: s.uploader,
		taxRates: s.config.Get().StandardTaxRates,
		pending:  &s.pending,
	}, cfg)

	// Two concurrent opens of an unloaded quote race here; the first
	// registered session wins.
	if err := s.sessions.Add(cfg.ID, store, cache.DefaultExpiration); err != nil {
		if cached, ok := s.sessions.Get(cfg.ID); ok {
			return cached.(*Store)
		}
		s.sessions.SetDefault(cfg.ID, store)
	}
	s.metrics.SetOpenSessions(s.sessions.ItemCount())
	return store
}

// drain waits for the in-flight writes of every session opened by this
// service, held or not.
func (s *Service) drain(ctx context.Context) error {
	start := time.Now()
	if err := waitGroup(ctx, &s.pending); err != nil {
		return err
	}
	s.log.Info("sessions drained", zap.Int("sessions", s.sessions.ItemCount()), zap.Duration("took", time.Since(start)))
	return nil
}

var _ devisdomain.Service = (*Service)(nil)
