// Package service provides the core business service that implements
// the dependencies required by the HTTP API and the CLI.
package service

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	eventqueue "github.com/okian/fixturedensity/internal/adapters/mq/queue"
	workerpool "github.com/okian/fixturedensity/internal/adapters/mq/worker"
	"github.com/okian/fixturedensity/internal/domain/advisor"
	"github.com/okian/fixturedensity/internal/domain/bucket"
	"github.com/okian/fixturedensity/internal/domain/impact"
	"github.com/okian/fixturedensity/internal/domain/memo"
	"github.com/okian/fixturedensity/internal/domain/model"
	"github.com/okian/fixturedensity/internal/domain/normalize"
	"github.com/okian/fixturedensity/internal/domain/overlap"
	"github.com/okian/fixturedensity/internal/domain/scoring"
	"github.com/okian/fixturedensity/internal/domain/types"
	"github.com/okian/fixturedensity/pkg/logger"
	"github.com/okian/fixturedensity/pkg/metrics"
)

// Service runs the density pipeline: normalize, bucket, measure, score,
// rank and project. Requests are independent; the only shared state is the
// memo cache, the sweep worker pool and the supersession tracker.
type Service struct {
	mu sync.RWMutex

	// Core components
	detector  *overlap.Detector
	scorer    *scoring.Scorer
	projector *impact.Projector
	cache     memo.Cache
	tracker   *advisor.Tracker
	advisor   *advisor.Advisor
	taskQueue *eventqueue.InMemoryQueue
	pool      *workerpool.Pool

	// Configuration
	workerCount      int
	queueSize        int
	memoSize         int
	maxEvents        int
	windowDays       int
	margin           time.Duration
	radiusKm         float64
	loc              *time.Location
	defaultDuration  time.Duration
	sportDurations   map[string]time.Duration
	scoringOpts      []scoring.Option
	staffMultipliers map[string]float64
	impactOpts       []impact.Option

	// State
	started   bool
	stopPool  context.CancelFunc
	requests  atomic.Int64
	skipped   atomic.Int64
	normCount atomic.Int64

	// Logging
	logger logger.Logger
}

// New constructs a Service. It evaluates candidates inline until Start
// brings up the worker pool.
func New(opts ...Option) *Service {
	s := &Service{
		workerCount: runtime.NumCPU(),
		queueSize:   1024,
		memoSize:    4096,
		maxEvents:   50_000,
		windowDays:  advisor.DefaultWindowDays,
		margin:      overlap.DefaultMargin,
		radiusKm:    overlap.DefaultRadiusKm,
		loc:         time.UTC,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.detector = overlap.New(overlap.WithMargin(s.margin), overlap.WithDefaultRadius(s.radiusKm))
	s.scorer = scoring.New(s.scoringOpts...)
	projectorOpts := []impact.Option{impact.WithScorer(s.scorer)}
	if len(s.staffMultipliers) > 0 {
		byBand := make(map[scoring.Band]float64, len(s.staffMultipliers))
		for name, m := range s.staffMultipliers {
			byBand[scoring.Band(strings.ToLower(name))] = m
		}
		projectorOpts = append(projectorOpts, impact.WithStaffMultipliers(byBand))
	}
	s.projector = impact.New(append(projectorOpts, s.impactOpts...)...)
	if s.memoSize > 0 {
		s.cache = memo.NewInMemoryCache(memo.WithMaxSize(s.memoSize))
	}
	s.tracker = advisor.NewTracker()
	s.advisor = s.buildAdvisor(nil)
	return s
}

func (s *Service) buildAdvisor(executor advisor.Executor) *advisor.Advisor {
	opts := []advisor.Option{
		advisor.WithDetector(s.detector),
		advisor.WithScorer(s.scorer),
		advisor.WithProjector(s.projector),
		advisor.WithWindowDays(s.windowDays),
	}
	if s.cache != nil {
		opts = append(opts, advisor.WithCache(s.cache))
	}
	if executor != nil {
		opts = append(opts, advisor.WithExecutor(executor))
	}
	return advisor.New(opts...)
}

func (s *Service) log() logger.Logger {
	s.mu.RLock()
	l := s.logger
	s.mu.RUnlock()
	if l == nil {
		return logger.Get()
	}
	return l
}

// Start brings up the sweep worker pool. Workers outlive ctx and stop on Stop.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.started {
		return nil
	}
	if s.logger == nil {
		s.logger = logger.Get()
	}
	s.logger.Info(ctx, "starting density service...")

	s.taskQueue = eventqueue.NewInMemoryQueue(eventqueue.WithCapacity(s.queueSize))
	s.pool = workerpool.NewPool(s.workerCount, s.taskQueue)
	runCtx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	s.stopPool = cancel
	s.pool.Start(runCtx)
	s.advisor = s.buildAdvisor(s.pool)

	s.started = true
	s.logger.Info(ctx, "density service started",
		logger.Int("workers", s.pool.Size()),
		logger.Int("queueSize", s.queueSize),
		logger.Int("memoSize", s.memoSize),
		logger.Int("windowDays", s.windowDays),
		logger.String("timezone", s.loc.String()),
	)
	return nil
}

// Stop drains the worker pool and reverts to inline evaluation.
func (s *Service) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.started {
		return
	}
	ctx := context.Background()
	s.logger.Info(ctx, "stopping density service...")

	s.advisor = s.buildAdvisor(nil)
	if err := s.pool.Shutdown(ctx); err != nil {
		s.logger.Error(ctx, "worker pool shutdown failed", logger.Error(err))
	}
	s.stopPool()

	s.started = false
	s.logger.Info(ctx, "density service stopped")
}

// prepared is a request after validation and normalization.
type prepared struct {
	events  []model.Event
	loc     *time.Location
	now     time.Time
	skipped int
}

// prepare validates req and normalizes its events. Invalid events are
// skipped with a warning.
func (s *Service) prepare(ctx context.Context, req types.ScoreRequest) (prepared, error) {
	s.requests.Add(1)
	if s.maxEvents > 0 && len(req.Events) > s.maxEvents {
		return prepared{}, fmt.Errorf("%w: %d events exceed the limit of %d", ErrInvalidRequest, len(req.Events), s.maxEvents)
	}

	p := prepared{loc: s.loc}
	if tz := strings.TrimSpace(req.Timezone); tz != "" {
		loc, err := time.LoadLocation(tz)
		if err != nil {
			return prepared{}, fmt.Errorf("%w: timezone %q: %v", ErrInvalidRequest, tz, err)
		}
		p.loc = loc
	}
	if req.Now != "" {
		now, err := time.Parse(time.RFC3339, req.Now)
		if err != nil {
			return prepared{}, fmt.Errorf("%w: now must be RFC3339: %v", ErrInvalidRequest, err)
		}
		p.now = now
	} else {
		p.now = time.Now()
	}

	normOpts := []normalize.Option{normalize.WithLocation(p.loc)}
	if s.defaultDuration > 0 {
		normOpts = append(normOpts, normalize.WithDefaultDuration(s.defaultDuration))
	}
	if s.sportDurations != nil {
		normOpts = append(normOpts, normalize.WithSportDurations(s.sportDurations))
	}
	events, skipped := normalize.New(normOpts...).NormalizeAll(req.Events)

	l := s.log()
	for _, err := range skipped {
		var ie *normalize.InvalidEventError
		if errors.As(err, &ie) {
			l.Warn(ctx, "skipping invalid event",
				logger.Int("index", ie.Index),
				logger.String("id", ie.ID),
				logger.String("reason", ie.Reason),
			)
			continue
		}
		l.Warn(ctx, "skipping invalid event", logger.Error(err))
	}
	metrics.RecordEventsNormalized(len(events))
	metrics.RecordEventsInvalid(len(skipped))
	s.normCount.Add(int64(len(events)))
	s.skipped.Add(int64(len(skipped)))

	p.events = events
	p.skipped = len(skipped)
	return p, nil
}

func (s *Service) filter(req types.ScoreRequest) overlap.SpatialFilter {
	return overlap.SpatialFilter{Bounds: req.Bounds, Anchor: req.AnchorLocation, RadiusKm: req.RadiusKm}
}

// advise runs one candidate sweep under last-request-wins for req.SessionID.
func (s *Service) advise(ctx context.Context, req types.ScoreRequest) (advisor.Result, prepared, error) {
	if strings.TrimSpace(req.TargetKey) == "" {
		return advisor.Result{}, prepared{}, fmt.Errorf("%w: missing targetKey", ErrInvalidRequest)
	}
	sweepCtx, done := s.tracker.Begin(ctx, req.SessionID)
	defer done()

	p, err := s.prepare(ctx, req)
	if err != nil {
		return advisor.Result{}, prepared{}, err
	}

	s.mu.RLock()
	adv := s.advisor
	s.mu.RUnlock()

	start := time.Now()
	res, err := adv.Advise(sweepCtx, advisor.Request{
		Events:     p.events,
		Target:     strings.TrimSpace(req.TargetKey),
		Anchor:     req.AnchorLocation,
		Bounds:     req.Bounds,
		RadiusKm:   req.RadiusKm,
		WindowDays: req.DecisionWindowDays,
		Now:        p.now,
		Location:   p.loc,
	})
	if err != nil {
		if errors.Is(err, advisor.ErrSuperseded) {
			metrics.RecordSweepSuperseded()
			s.log().Debug(ctx, "sweep superseded", logger.String("session", req.SessionID))
		} else {
			metrics.RecordErrorByComponent("advisor", "sweep")
		}
		return advisor.Result{}, prepared{}, err
	}

	metrics.RecordSweepLatency(float64(time.Since(start).Microseconds()) / 1000)
	metrics.RecordCandidateEvaluations(res.Evaluated, res.CacheHits)
	metrics.RecordFinalScore(res.Target.FinalScore)
	return res, p, nil
}

// Score evaluates the target key and its alternatives.
func (s *Service) Score(ctx context.Context, req types.ScoreRequest) (types.ScoreResponse, error) {
	res, p, err := s.advise(ctx, req)
	if err != nil {
		return types.ScoreResponse{}, err
	}
	return types.ScoreResponse{
		Kind: string(res.Kind),
		Risk: res.Target,
		Rank: types.Rank{
			Rank:       res.Position.Rank,
			Percentile: res.Position.Percentile,
			Total:      res.Position.Total,
		},
		Impact:        res.Impact,
		Alternatives:  res.Alternatives,
		Best:          res.Best,
		TargetIsBest:  res.TargetIsBest,
		SkippedEvents: p.skipped,
	}, nil
}

// Alternatives returns only the ranked candidate list for the target.
func (s *Service) Alternatives(ctx context.Context, req types.ScoreRequest) (types.AlternativesResponse, error) {
	res, p, err := s.advise(ctx, req)
	if err != nil {
		return types.AlternativesResponse{}, err
	}
	return types.AlternativesResponse{
		TargetKey:     res.Target.Key,
		Alternatives:  res.Alternatives,
		Best:          res.Best,
		SkippedEvents: p.skipped,
	}, nil
}

// Congestion computes the Congestion Index over the (spatially filtered)
// events, optionally grouped by venue, region, city or sport.
func (s *Service) Congestion(ctx context.Context, req types.ScoreRequest) (types.CongestionResponse, error) {
	by, err := scoring.ParseGroupBy(req.GroupBy)
	if err != nil {
		return types.CongestionResponse{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	p, err := s.prepare(ctx, req)
	if err != nil {
		return types.CongestionResponse{}, err
	}
	events := s.detector.Filter(p.events, s.filter(req))

	resp := types.CongestionResponse{
		Overall:       scoring.CongestionReport(events, p.loc),
		SkippedEvents: p.skipped,
	}
	if by != scoring.GroupNone {
		resp.Groups = scoring.GroupCongestion(events, p.loc, by)
	}
	return resp, nil
}

// OverlapIndex buckets the (spatially filtered) events and computes the
// Overlap Index. Granularity defaults to hour.
func (s *Service) OverlapIndex(ctx context.Context, req types.ScoreRequest) (types.OverlapResponse, error) {
	g := bucket.Hour
	if req.Granularity != "" {
		parsed, err := bucket.ParseGranularity(req.Granularity)
		if err != nil {
			return types.OverlapResponse{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
		}
		g = parsed
	}
	p, err := s.prepare(ctx, req)
	if err != nil {
		return types.OverlapResponse{}, err
	}
	events := s.detector.Filter(p.events, s.filter(req))

	report, err := scoring.OverlapReport(events, p.loc, g)
	if err != nil {
		return types.OverlapResponse{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	return types.OverlapResponse{Report: report, SkippedEvents: p.skipped}, nil
}

// GetStats returns service statistics for monitoring.
func (s *Service) GetStats() map[string]interface{} {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]interface{}{
		"started":          s.started,
		"workerCount":      s.workerCount,
		"queueSize":        s.queueSize,
		"memoSize":         s.memoSize,
		"windowDays":       s.windowDays,
		"timezone":         s.loc.String(),
		"requests":         s.requests.Load(),
		"eventsNormalized": s.normCount.Load(),
		"eventsSkipped":    s.skipped.Load(),
		"activeSweeps":     s.tracker.Active(),
		"supersededSweeps": s.tracker.Superseded(),
	}
	if s.cache != nil {
		st := s.cache.Stats()
		stats["memoEntries"] = s.cache.Size()
		stats["memoHits"] = st.Hits
		stats["memoMisses"] = st.Misses
		stats["memoEvictions"] = st.Evictions
	}
	if s.started {
		queueLen := s.taskQueue.Len()
		stats["queueLength"] = queueLen
		metrics.UpdateQueueSize(queueLen)
	}
	return stats
}
