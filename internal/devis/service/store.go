package service

import (
	"context"
	"sync"
	"time"

	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/catalog"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/clock"
	devisdomain "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/devis/domain"
	obscontext "github.com/JunelAmelon/Saas-aximotravo-sub000/internal/observability/context"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/observability/logger"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/observability/metrics"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/internal/observability/tracing"
	"github.com/JunelAmelon/Saas-aximotravo-sub000/pkg/telemetry/correlation"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

// Store is the single writer of one quote's configuration for the length
// of an editing session. Every mutation goes through SetField, which
// updates local state first and persists the field in the background.
type Store struct {
	id           string
	repo         devisdomain.Repository
	clock        clock.Clock
	log          *zap.Logger
	tracer       trace.Tracer
	metrics      *metrics.DevisMetrics
	catalog      *catalog.Catalog
	catalogRooms []string
	uploader     devisdomain.Uploader
	taxRates     []float64
	pending      *sync.WaitGroup

	// editMu is held from Get to SetField by item and surface edits.
	editMu sync.Mutex

	mu       sync.Mutex
	cfg      devisdomain.QuoteConfiguration
	loaded   bool
	seq      uint64
	latest   map[devisdomain.Field]uint64
	unsynced map[devisdomain.Field]struct{}
	inflight int
	writes   sync.WaitGroup
}

type storeDeps struct {
	repo     devisdomain.Repository
	clock    clock.Clock
	log      *zap.Logger
	metrics  *metrics.DevisMetrics
	catalog  *catalog.Catalog
	uploader devisdomain.Uploader
	taxRates []float64
	pending  *sync.WaitGroup
}

func newStore(deps storeDeps, cfg devisdomain.QuoteConfiguration) *Store {
	var rooms []string
	if deps.catalog != nil {
		rooms = deps.catalog.RoomNames()
	}
	log := deps.log
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{
		id:           cfg.ID,
		repo:         deps.repo,
		clock:        deps.clock,
		log:          log.Named("devis.store").With(zap.String("quote_id", cfg.ID)),
		tracer:       otel.Tracer("devis/store"),
		metrics:      deps.metrics,
		catalog:      deps.catalog,
		catalogRooms: rooms,
		uploader:     deps.uploader,
		taxRates:     deps.taxRates,
		pending:      deps.pending,
		cfg:          cfg.Clone(),
		loaded:       true,
		latest:       map[devisdomain.Field]uint64{},
		unsynced:     map[devisdomain.Field]struct{}{},
	}
}

func (s *Store) ID() string {
	return s.id
}

// Get returns a copy of the current configuration.
func (s *Store) Get() devisdomain.QuoteConfiguration {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg.Clone()
}

// State is Dirty while a write is in flight or a field's latest write
// failed.
func (s *Store) State() devisdomain.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case !s.loaded:
		return devisdomain.StateUninitialized
	case s.inflight > 0 || len(s.unsynced) > 0:
		return devisdomain.StateDirty
	default:
		return devisdomain.StateLoaded
	}
}

// UnsyncedFields lists the fields whose latest write failed.
func (s *Store) UnsyncedFields() []devisdomain.Field {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]devisdomain.Field, 0, len(s.unsynced))
	for field := range s.unsynced {
		out = append(out, field)
	}
	return out
}

// SetField replaces one top-level field. Invalid values fail synchronously
// and leave state untouched. A valid value is applied locally, then written
// by a background goroutine; writes are neither ordered nor cancelled, so
// the last one to complete is what the store keeps.
func (s *Store) SetField(ctx context.Context, field devisdomain.Field, value any) (devisdomain.Ack, error) {
	if s == nil || !s.loaded {
		return nil, devisdomain.ErrNotLoaded
	}
	canonical, err := s.normalizeFieldValue(field, value)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	if field == devisdomain.FieldPieces {
		canonical = keepOmittedRooms(canonical.([]devisdomain.Room), s.cfg.Pieces, s.catalogRooms)
	}
	now := s.clock.Now()
	applyField(&s.cfg, field, canonical)
	s.cfg.UpdatedAt = now
	s.seq++
	seq := s.seq
	s.latest[field] = seq
	s.inflight++
	s.writes.Add(1)
	if s.pending != nil {
		s.pending.Add(1)
	}
	s.mu.Unlock()

	ack := newPendingWrite()
	go s.persist(context.WithoutCancel(ctx), field, canonical, now, seq, ack)
	return ack, nil
}

func (s *Store) persist(ctx context.Context, field devisdomain.Field, value any, updatedAt time.Time, seq uint64, ack *pendingWrite) {
	defer s.writes.Done()
	if s.pending != nil {
		defer s.pending.Done()
	}

	ctx = obscontext.WithQuoteID(ctx, s.id)
	ctx, cid := correlation.EnsureCorrelationID(ctx)
	ctx, span := s.tracer.Start(ctx, "devis.store.SetField", trace.WithAttributes(tracing.SafeAttributes(
		attribute.String("quote_id", s.id),
		attribute.String("devis.field", string(field)),
		attribute.Int64("devis.write_seq", int64(seq)),
	)...))
	defer span.End()

	start := time.Now()
	err := s.repo.UpdateField(ctx, s.id, field, value, updatedAt)
	s.metrics.ObserveFieldWrite(string(field), time.Since(start), err)

	s.mu.Lock()
	s.inflight--
	if s.latest[field] == seq {
		if err != nil {
			s.unsynced[field] = struct{}{}
		} else {
			delete(s.unsynced, field)
		}
	}
	s.mu.Unlock()

	log := logger.WithContext(ctx, s.log).With(
		zap.String("field", string(field)),
		zap.Uint64("write_seq", seq),
		zap.String("correlation_id", cid),
	)
	if err != nil {
		span.RecordError(tracing.SafeError(err))
		span.SetStatus(codes.Error, "field write failed")
		log.Warn("field write failed", zap.Error(err))
	} else {
		log.Debug("field written")
	}
	ack.resolve(err)
}

// Drain waits for every in-flight write of this session.
func (s *Store) Drain(ctx context.Context) error {
	return waitGroup(ctx, &s.writes)
}

func waitGroup(ctx context.Context, wg *sync.WaitGroup) error {
	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type pendingWrite struct {
	done chan struct{}
	err  error
}

func newPendingWrite() *pendingWrite {
	return &pendingWrite{done: make(chan struct{})}
}

func (w *pendingWrite) resolve(err error) {
	w.err = err
	close(w.done)
}

func (w *pendingWrite) Done() <-chan struct{} {
	return w.done
}

// Wait blocks until the write completes and returns its error. Giving up
// on ctx does not stop the write.
func (w *pendingWrite) Wait(ctx context.Context) error {
	select {
	case <-w.done:
		return w.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

var (
	_ devisdomain.Session = (*Store)(nil)
	_ devisdomain.Ack     = (*pendingWrite)(nil)
)
