package readiness

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	combinedrepo "github.com/ovaphlow/pitchfork/service-readiness-go/internal/combined/repo"
	"github.com/ovaphlow/pitchfork/service-readiness-go/internal/metrics"
	source "github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/entity"
	sourcerepo "github.com/ovaphlow/pitchfork/service-readiness-go/internal/source/repo"
	"github.com/ovaphlow/pitchfork/service-readiness-go/pkg/database"
)

// CombinedSource is the batch source name recorded for rebuilds.
const CombinedSource = "Combined"

var (
	ErrNotPropagated  = errors.New("source does not propagate into combined records")
	ErrUnknownField   = errors.New("unknown field")
	ErrInvalidValue   = errors.New("invalid field value")
	ErrAnchorMismatch = errors.New("combined row count does not match access row count")
)

// Service runs imports, rebuilds and propagation against one session.
type Service struct {
	session *database.Session
	logger  *zap.SugaredLogger
	metrics metrics.Recorder
	labels  *labeler
	now     func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithMetrics sets the recorder operation outcomes are reported to.
func WithMetrics(r metrics.Recorder) Option {
	return func(s *Service) {
		if r != nil {
			s.metrics = r
		}
	}
}

// WithClock overrides the time source used for audit stamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

func NewService(session *database.Session, logger *zap.SugaredLogger, opts ...Option) *Service {
	if logger == nil {
		logger = zap.NewNop().Sugar()
	}
	s := &Service{
		session: session,
		logger:  logger,
		metrics: metrics.Nop{},
		labels:  &labeler{},
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// EnsureSchema creates every table the service uses.
func (s *Service) EnsureSchema(ctx context.Context) error {
	return s.session.WithWriteTx(ctx, "ensure schema", func(tx *sqlx.Tx) error {
		if err := sourcerepo.NewSet(tx).EnsureTables(ctx); err != nil {
			return err
		}
		return combinedrepo.NewCombinedRepo(tx).EnsureTable(ctx)
	})
}

// Clear deletes every row of one source store.
func (s *Service) Clear(ctx context.Context, src source.Source) (int64, error) {
	start := time.Now()
	var n int64
	err := s.session.WithWriteTx(ctx, "clear "+string(src), func(tx *sqlx.Tx) error {
		var err error
		n, err = sourcerepo.NewSet(tx).Clear(ctx, src)
		return err
	})
	s.observe(ctx, "clear", start, err)
	if err != nil {
		return 0, err
	}
	s.logger.Infow("source cleared", "op", "clear", "source", src, "deleted", n)
	return n, nil
}

// ClearCombined deletes every combined row.
func (s *Service) ClearCombined(ctx context.Context) (int64, error) {
	start := time.Now()
	var n int64
	err := s.session.WithWriteTx(ctx, "clear combined", func(tx *sqlx.Tx) error {
		var err error
		n, err = combinedrepo.NewCombinedRepo(tx).DeleteAll(ctx)
		return err
	})
	s.observe(ctx, "clear", start, err)
	if err != nil {
		return 0, err
	}
	s.metrics.CombinedRows(0)
	s.logger.Infow("combined cleared", "op", "clear", "source", CombinedSource, "deleted", n)
	return n, nil
}

// Summary holds the row count of every store.
type Summary struct {
	Sources  map[source.Source]int `json:"sources"`
	Combined int                   `json:"combined"`
}

// Summary counts rows in every store from one snapshot.
func (s *Service) Summary(ctx context.Context) (*Summary, error) {
	out := &Summary{Sources: make(map[source.Source]int, len(source.Sources))}
	err := s.session.WithReadTx(ctx, "summary", func(tx *sqlx.Tx) error {
		set := sourcerepo.NewSet(tx)
		for _, src := range source.Sources {
			n, err := set.Count(ctx, src)
			if err != nil {
				return err
			}
			out.Sources[src] = n
		}
		n, err := combinedrepo.NewCombinedRepo(tx).Count(ctx)
		if err != nil {
			return err
		}
		out.Combined = n
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Batches lists recorded import and rebuild batches, newest first.
func (s *Service) Batches(ctx context.Context, limit int) ([]source.ImportBatch, error) {
	var out []source.ImportBatch
	err := s.session.WithReadTx(ctx, "list batches", func(tx *sqlx.Tx) error {
		var err error
		out, err = sourcerepo.NewBatchRepo(tx).List(ctx, limit)
		return err
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Service) observe(ctx context.Context, op string, start time.Time, err error) {
	s.metrics.Observe(ctx, op, err == nil, time.Since(start))
}

// labeler hands out batch labels of the form <Source>_Import_<timestamp>.
// Timestamps are strictly increasing within the process, so labels sort in
// the order the batches ran.
type labeler struct {
	mu   sync.Mutex
	last time.Time
}

const labelLayout = "20060102_150405.000"

func (l *labeler) next(src string, now time.Time) (string, time.Time) {
	l.mu.Lock()
	defer l.mu.Unlock()
	ts := now.UTC().Truncate(time.Millisecond)
	if !ts.After(l.last) {
		ts = l.last.Add(time.Millisecond)
	}
	l.last = ts
	return fmt.Sprintf("%s_Import_%s", src, ts.Format(labelLayout)), ts
}
