package tower

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"time"

	"github.com/google/uuid"

	"tower/internal/trace"
)

// Stats describes one resolution attempt.
type Stats struct {
	Attempt   uuid.UUID
	Steps     int
	Groups    int
	Levels    int
	Receivers int
	// Early is set when a Resolved group stopped the traversal.
	Early   bool
	Elapsed time.Duration
}

// Outcome is the result of Resolve. Applicability is meaningless when
// Candidates is empty.
type Outcome[C any] struct {
	Candidates    []C
	Applicability Applicability
	Stats         Stats
}

// RunResolve drives p across the tower of tctx and returns the best group.
// With useOrder false every step's groups are merged before ranking.
func RunResolve[C any](ctx context.Context, tctx Context[C], p Processor[C], useOrder bool) []C {
	return Resolve(ctx, tctx, p, useOrder).Candidates
}

// Resolve is RunResolve with statistics.
func Resolve[C any](ctx context.Context, tctx Context[C], p Processor[C], useOrder bool) Outcome[C] {
	tracer := trace.FromContext(ctx)
	stats := Stats{Attempt: uuid.New()}
	start := time.Now()

	span := trace.Begin(tracer, trace.ScopeQuery, "resolve", trace.CurrentSpan(ctx))
	span.WithExtra("name", string(tctx.Name())).
		WithExtra("attempt", stats.Attempt.String()).
		WithExtra("ordered", strconv.FormatBool(useOrder))

	r := &run[C]{
		tctx:      tctx,
		processor: p,
		useOrder:  useOrder,
		collector: resultCollector[C]{ctx: tctx},
		tracer:    tracer,
		span:      span.ID(),
		stats:     &stats,
	}
	r.drive()

	stats.Elapsed = time.Since(start)
	out := Outcome[C]{
		Candidates:    r.collector.candidates,
		Applicability: r.collector.level,
		Stats:         stats,
	}
	detail := "empty"
	if len(out.Candidates) > 0 {
		detail = out.Applicability.String()
	}
	span.WithExtra("candidates", strconv.Itoa(len(out.Candidates))).
		WithExtra("steps", strconv.Itoa(stats.Steps)).
		End(detail)
	return out
}

type run[C any] struct {
	tctx      Context[C]
	processor Processor[C]
	useOrder  bool
	collector resultCollector[C]
	tracer    trace.Tracer
	span      uint64
	stats     *Stats
}

func (r *run[C]) drive() {
	// an explicit receiver may already have produced members
	if r.step(event{kind: eventInitial}) {
		return
	}
	tower := r.tctx.ScopeTower()
	receivers := tower.ImplicitReceivers()
	for level := range tower.Levels() {
		r.stats.Levels++
		if r.step(event{kind: eventLevel, level: level}) {
			return
		}
		for _, receiver := range receivers {
			r.stats.Receivers++
			if r.step(event{kind: eventImplicitReceiver, receiver: receiver}) {
				return
			}
		}
	}
}

// step feeds e and reports whether a Resolved group ended the traversal.
func (r *run[C]) step(e event) bool {
	r.stats.Steps++
	applyEvent(r.processor, e)

	groups := r.processor.CandidatesGroups()
	if !r.useOrder && len(groups) > 1 {
		var flat []C
		for _, g := range groups {
			flat = append(flat, g...)
		}
		groups = single(flat)
	}

	r.tracePoint(e, groups)
	for _, g := range groups {
		r.stats.Groups++
		r.collector.push(g)
		if r.collector.resolved() {
			r.stats.Early = true
			return true
		}
	}
	return false
}

func (r *run[C]) tracePoint(e event, groups [][]C) {
	if !r.tracer.Enabled() || !r.tracer.Level().ShouldEmit(trace.ScopeStep) {
		return
	}
	var detail string
	switch e.kind {
	case eventInitial:
		detail = "initial"
	case eventLevel:
		detail = e.level.String()
	case eventImplicitReceiver:
		detail = fmt.Sprintf("implicit(%s)", e.receiver)
	}
	sizes := make([]int, len(groups))
	for i, g := range groups {
		sizes[i] = len(g)
	}
	trace.Point(r.tracer, trace.ScopeStep, "step", r.span, detail, map[string]string{
		"groups": fmt.Sprint(sizes),
	})
}

// resultCollector keeps the best group seen so far. A group replaces it only
// when strictly better, so the first group at a tier wins.
type resultCollector[C any] struct {
	ctx        Context[C]
	candidates []C
	level      Applicability
	set        bool
}

func (rc *resultCollector[C]) push(group []C) {
	if len(group) == 0 {
		return
	}
	levels := make([]Applicability, len(group))
	for i, c := range group {
		levels[i] = applicability(rc.ctx, c)
	}
	minimal := slices.Min(levels)
	if rc.set && rc.level <= minimal {
		return
	}
	rc.set = true
	rc.level = minimal
	rc.candidates = rc.candidates[:0:0]
	for i, c := range group {
		if levels[i] == minimal {
			rc.candidates = append(rc.candidates, c)
		}
	}
}

func (rc *resultCollector[C]) resolved() bool {
	return rc.set && rc.level == Resolved
}
