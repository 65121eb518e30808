// Package advisor evaluates every candidate in a decision window through the
// scoring pipeline, ranks them, and surfaces the best alternative to a target.
package advisor

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/okian/fixturedensity/internal/domain/impact"
	"github.com/okian/fixturedensity/internal/domain/memo"
	"github.com/okian/fixturedensity/internal/domain/model"
	"github.com/okian/fixturedensity/internal/domain/overlap"
	"github.com/okian/fixturedensity/internal/domain/rank"
	"github.com/okian/fixturedensity/internal/domain/scoring"
	"github.com/okian/fixturedensity/internal/domain/types"
)

// DefaultWindowDays is the decision window used when none is configured.
const DefaultWindowDays = 30

// Executor runs sweep tasks. Submit may reject a task, in which case the
// advisor runs it inline.
type Executor interface {
	Submit(ctx context.Context, task func()) error
}

// Request is one scoring invocation over already normalized events.
type Request struct {
	Events     []model.Event
	Target     string
	Anchor     *model.LatLng
	Bounds     *model.Bounds
	RadiusKm   float64
	WindowDays int // 0 uses the advisor default
	Now        time.Time
	Location   *time.Location
}

func (r Request) filter() overlap.SpatialFilter {
	return overlap.SpatialFilter{Bounds: r.Bounds, Anchor: r.Anchor, RadiusKm: r.RadiusKm}
}

// Result is the outcome of one sweep.
type Result struct {
	Target       types.RiskResult        `json:"target"`
	Position     rank.Position           `json:"position"` // by final score
	Impact       types.ImpactProjection  `json:"impact"`
	Alternatives []types.CandidateOption `json:"alternatives"` // ascending by score
	Best         types.CandidateOption   `json:"best"`
	TargetIsBest bool                    `json:"targetIsBest"`
	Candidates   []types.RiskResult      `json:"-"`
	Kind         model.CandidateKind     `json:"kind"`
	Evaluated    int                     `json:"-"`
	CacheHits    int                     `json:"-"`
}

// Advisor runs candidate sweeps. It is safe for concurrent use.
type Advisor struct {
	detector   *overlap.Detector
	scorer     *scoring.Scorer
	projector  *impact.Projector
	cache      memo.Cache
	executor   Executor
	windowDays int
}

// New creates an Advisor with default collaborators.
func New(opts ...Option) *Advisor {
	a := &Advisor{windowDays: DefaultWindowDays}
	for _, opt := range opts {
		opt(a)
	}
	if a.detector == nil {
		a.detector = overlap.New()
	}
	if a.scorer == nil {
		a.scorer = scoring.New()
	}
	if a.projector == nil {
		a.projector = impact.New(impact.WithScorer(a.scorer))
	}
	return a
}

// Scorer returns the composite scorer in use.
func (a *Advisor) Scorer() *scoring.Scorer { return a.scorer }

// Detector returns the overlap detector in use.
func (a *Advisor) Detector() *overlap.Detector { return a.detector }

type evaluation struct {
	features overlap.Features
	hit      bool
}

// Advise scores the target and every alternative in the decision window.
// It returns ErrSuperseded if ctx was cancelled by a newer request.
func (a *Advisor) Advise(ctx context.Context, req Request) (Result, error) {
	if req.Target == "" {
		return Result{}, ErrUnknownCandidate
	}
	loc, days, now := a.resolve(req)
	target := model.Candidate{Kind: KindOf(req.Target, loc), Key: req.Target}
	candidates := Candidates(target, req.Events, now, days, loc)
	decision := Window(now, days, loc)

	evals, err := a.sweep(ctx, req, candidates, decision, loc)
	if err != nil {
		return Result{}, err
	}

	bases := make([]int, len(evals))
	for i, e := range evals {
		bases[i] = a.scorer.Base(e.features)
	}
	positions := rank.All(bases)

	res := Result{Kind: target.Kind, Evaluated: len(evals)}
	res.Candidates = make([]types.RiskResult, len(evals))
	targetIdx := -1
	for i, e := range evals {
		if e.hit {
			res.CacheHits++
		}
		res.Candidates[i] = a.scorer.Risk(candidates[i].Key, e.features, positions[i].Percentile)
		if candidates[i].Key == target.Key {
			targetIdx = i
		}
	}
	res.Target = res.Candidates[targetIdx]

	finals := make([]int, 0, len(evals)-1)
	for i, r := range res.Candidates {
		if i != targetIdx {
			finals = append(finals, r.FinalScore)
		}
	}
	res.Position = rank.Of(res.Target.FinalScore, finals)
	res.Impact = a.projector.Project(res.Target.FinalScore)

	res.Alternatives = make([]types.CandidateOption, len(res.Candidates))
	for i, r := range res.Candidates {
		res.Alternatives[i] = types.CandidateOption{
			Key:   r.Key,
			Score: r.FinalScore,
			Delta: r.FinalScore - res.Target.FinalScore,
		}
	}
	sort.SliceStable(res.Alternatives, func(i, j int) bool {
		if res.Alternatives[i].Score != res.Alternatives[j].Score {
			return res.Alternatives[i].Score < res.Alternatives[j].Score
		}
		return res.Alternatives[i].Key < res.Alternatives[j].Key
	})
	res.Best = res.Alternatives[0]
	res.TargetIsBest = res.Best.Key == target.Key
	return res, nil
}

// Evaluate computes the raw features of a single candidate.
func (a *Advisor) Evaluate(c model.Candidate, req Request) overlap.Features {
	loc, days, now := a.resolve(req)
	scope := Scope(c, req.Events, Window(now, days, loc), loc)
	return a.detector.Measure(scope, req.filter())
}

// resolve fills request defaults.
func (a *Advisor) resolve(req Request) (*time.Location, int, time.Time) {
	loc := req.Location
	if loc == nil {
		loc = time.UTC
	}
	days := req.WindowDays
	if days <= 0 {
		days = a.windowDays
	}
	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}
	return loc, days, now
}

// sweep evaluates every candidate, in parallel when an executor is set.
func (a *Advisor) sweep(ctx context.Context, req Request, candidates []model.Candidate, decision model.TimeWindow, loc *time.Location) ([]evaluation, error) {
	out := make([]evaluation, len(candidates))
	var eventsHash uint64
	if a.cache != nil {
		eventsHash = memo.EventsHash(req.Events)
	}
	filter := req.filter()

	var aborted atomic.Bool
	evaluate := func(i int) {
		if aborted.Load() || ctx.Err() != nil {
			aborted.Store(true)
			return
		}
		c := candidates[i]
		var key uint64
		if a.cache != nil {
			key = memo.Key(memo.KeyParts{
				EventsHash:   eventsHash,
				CandidateKey: string(c.Kind) + ":" + c.Key,
				Bounds:       req.Bounds,
				Anchor:       req.Anchor,
				RadiusKm:     req.RadiusKm,
				Timezone:     loc.String(),
				Margin:       a.detector.Margin(),
				Window:       decision,
			})
			if f, ok := a.cache.Get(ctx, key); ok {
				out[i] = evaluation{features: f, hit: true}
				return
			}
		}
		f := a.detector.Measure(Scope(c, req.Events, decision, loc), filter)
		out[i] = evaluation{features: f}
		if a.cache != nil {
			a.cache.Put(ctx, key, f)
		}
	}

	if a.executor == nil {
		for i := range candidates {
			evaluate(i)
		}
		if err := ctx.Err(); err != nil || aborted.Load() {
			return nil, cause(ctx)
		}
		return out, nil
	}

	var wg sync.WaitGroup
	for i := range candidates {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			evaluate(i)
		}
		if err := a.executor.Submit(ctx, task); err != nil {
			task()
		}
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		return nil, cause(ctx)
	}
	if ctx.Err() != nil || aborted.Load() {
		return nil, cause(ctx)
	}
	return out, nil
}

// cause maps a cancelled context onto the advisor's errors.
func cause(ctx context.Context) error {
	if errors.Is(context.Cause(ctx), ErrSuperseded) {
		return ErrSuperseded
	}
	return fmt.Errorf("sweep cancelled: %w", ctx.Err())
}
