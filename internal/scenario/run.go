package scenario

import (
	"context"
	"fmt"
	"runtime"
	"strconv"

	"golang.org/x/sync/errgroup"

	"tower/internal/descriptors"
	"tower/internal/diag"
	"tower/internal/policy"
	"tower/internal/symbols"
	"tower/internal/tower"
	"tower/internal/trace"
)

// Result is the outcome of one query.
type Result struct {
	Query   *Query
	Outcome tower.Outcome[*policy.Candidate]
	// Err is set when the query could not be run; Outcome is then empty.
	Err error
	// Mismatches lists how the outcome differs from the expectation.
	Mismatches []string
}

// Passed reports a query that ran and met its expectation.
func (r *Result) Passed() bool { return r.Err == nil && len(r.Mismatches) == 0 }

// Checked reports whether the query carried an expectation.
func (r *Result) Checked() bool { return r.Query.Expect != nil }

// Run resolves q. With ordered false the groups of one step are ranked
// together, as is a query marked unordered.
func (u *Universe) Run(ctx context.Context, q *Query, ordered bool) Result {
	res := Result{Query: q}
	opts, value, err := u.options(q)
	if err != nil {
		res.Err = err
		return res
	}
	pctx := policy.New(descriptors.Name(q.ID), opts)

	var p tower.Processor[*policy.Candidate]
	switch q.Shape {
	case ShapeVariable:
		p = tower.NewVariableProcessor[*policy.Candidate](pctx, opts.ExplicitReceiver)
	case ShapeFunction:
		p = tower.NewFunctionProcessor[*policy.Candidate](pctx, opts.ExplicitReceiver)
	case ShapeCall:
		p = tower.NewCallProcessor[*policy.Candidate](pctx, opts.ExplicitReceiver)
	case ShapeInvoke:
		p = tower.NewInvokeProcessor[*policy.Candidate](pctx, opts.ExplicitReceiver)
	case ShapeInvokeExtension:
		p = tower.NewInvokeExtensionProcessor[*policy.Candidate](pctx, explicitValue(opts.ExplicitReceiver))
	case ShapeExplicitInvoke:
		p = tower.NewExplicitInvokeProcessor[*policy.Candidate](pctx, value, explicitValue(opts.ExplicitReceiver))
	default:
		res.Err = fixtureError(diag.FixInvalid, q.Pos, q.Subject(), "unknown shape %q", q.Shape)
		return res
	}

	res.Outcome = tower.Resolve[*policy.Candidate](ctx, pctx, p, ordered && !q.Unordered)
	res.Mismatches = q.Expect.check(res.Outcome)
	return res
}

// explicitValue keeps an absent receiver a nil interface.
func explicitValue(r descriptors.Receiver) descriptors.ReceiverValue {
	if v, ok := r.(descriptors.ReceiverValue); ok {
		return v
	}
	return nil
}

func (u *Universe) options(q *Query) (tower.Options, descriptors.ReceiverValue, error) {
	scope := u.innermost
	if q.At != "" {
		id, ok := u.scopes[q.At]
		if !ok {
			return tower.Options{}, nil, fixtureError(diag.FixUnknownName, q.Pos, q.Subject(), "unknown scope %q", q.At)
		}
		scope = id
	}

	var explicit descriptors.Receiver
	switch {
	case q.Receiver != "":
		id, err := u.receiver(q.Receiver)
		if err != nil {
			return tower.Options{}, nil, &Error{Code: diag.FixUnknownName, Pos: q.Pos, Subject: q.Subject(), Err: err}
		}
		explicit = u.Table.Receiver(id)
	case q.Qualifier != "":
		qualifier, err := u.qualifier(q.Qualifier)
		if err != nil {
			return tower.Options{}, nil, &Error{Code: diag.FixUnknownName, Pos: q.Pos, Subject: q.Subject(), Err: err}
		}
		explicit = qualifier
	}

	var value descriptors.ReceiverValue
	if q.Value != "" {
		id, err := u.receiver(q.Value)
		if err != nil {
			return tower.Options{}, nil, &Error{Code: diag.FixUnknownName, Pos: q.Pos, Subject: q.Subject(), Err: err}
		}
		value = u.Table.Receiver(id)
	}

	return tower.Options{
		Scope:            u.Table.LexicalScope(scope),
		ExplicitReceiver: explicit,
		Location:         descriptors.Location(q.Subject()),
		DataFlow:         u.Flow,
		Visibility:       symbols.VisibilityRules{},
		Invokes:          u.Table,
	}, value, nil
}

// qualifier resolves a package (the fixture or an import scope) or a class
// path.
func (u *Universe) qualifier(name string) (descriptors.Qualifier, error) {
	if scope, ok := u.packages[name]; ok {
		return u.Table.PackageQualifier(name, scope), nil
	}
	class, err := u.types.class(name)
	if err != nil {
		return nil, err
	}
	return u.Table.ClassQualifier(class), nil
}

// RunAll runs every query of the fixture on up to jobs goroutines. Results
// keep fixture order.
func RunAll(ctx context.Context, u *Universe, jobs int, ordered bool) ([]Result, error) {
	queries := u.Fixture.Queries
	if len(queries) == 0 {
		return nil, nil
	}
	if jobs <= 0 {
		jobs = runtime.GOMAXPROCS(0)
	}

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "run", trace.CurrentSpan(ctx))
	span.WithExtra("fixture", u.Fixture.Name).WithExtra("queries", strconv.Itoa(len(queries)))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	// indexes are unique per goroutine, no lock needed
	results := make([]Result, len(queries))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(jobs, len(queries)))
	for i := range queries {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			results[i] = u.Run(gctx, &queries[i], ordered)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("run %s: %w", u.Fixture.Name, err)
	}
	return results, nil
}
