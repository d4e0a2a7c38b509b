package events

import (
	"context"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/leaseboost/internal/dedup"
	"github.com/sells-group/leaseboost/internal/metrics"
	"github.com/sells-group/leaseboost/internal/model"
)

// DefaultMaxResults caps the merged event list.
const DefaultMaxResults = 20

// Messages returned alongside an empty result.
const (
	MessageNotConfigured = "No event API configured. Add APIFY_API_TOKEN, MEETUP_API_KEY, FACEBOOK_ACCESS_TOKEN, PREDICTHQ_API_TOKEN, TICKETMASTER_API_KEY or GOOGLE_PLACES_API_KEY to .env"
	MessageNoEvents      = "No events found near this location"
)

// Result is the merged output of one search.
type Result struct {
	Events   []model.Event
	Source   string
	Message  string
	Outcomes []model.Outcome[model.Event]
}

// Orchestrator runs the primary providers concurrently, merges their records
// in priority order, and consults the fallback providers only when the
// primaries found nothing. It holds no per-request state.
type Orchestrator struct {
	primary    []Provider
	fallback   []Provider
	maxResults int
	metrics    *metrics.Metrics
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithFallback sets the providers tried, in order, when every primary
// provider came back empty.
func WithFallback(providers ...Provider) Option {
	return func(o *Orchestrator) {
		o.fallback = providers
	}
}

// WithMaxResults overrides DefaultMaxResults.
func WithMaxResults(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.maxResults = n
		}
	}
}

// WithMetrics records provider outcomes.
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// NewOrchestrator creates an Orchestrator over primary providers listed in
// priority order.
func NewOrchestrator(primary []Provider, opts ...Option) *Orchestrator {
	o := &Orchestrator{primary: primary, maxResults: DefaultMaxResults}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Search finds events around q.Center. Provider failures never fail the
// search unless every enabled provider failed.
func (o *Orchestrator) Search(ctx context.Context, q Query) (*Result, error) {
	if !q.Center.Valid() {
		return nil, model.InvalidInput("Latitude and longitude are required")
	}
	if q.RadiusMeters <= 0 {
		return nil, model.InvalidInput("Radius must be positive")
	}

	outcomes := o.runAll(ctx, o.primary, q)
	merged := collect(outcomes)

	if len(merged) == 0 && len(o.fallback) > 0 {
		zap.L().Info("events: primary providers empty, trying fallback")
		for _, p := range o.fallback {
			out := o.invoke(ctx, p, q)
			outcomes = append(outcomes, out)
			merged = append(merged, out.Records...)
		}
	}

	events := dedup.Cap(dedup.Events(merged), o.maxResults)
	res := &Result{Events: events, Outcomes: outcomes, Source: sourceOf(events)}

	if len(events) == 0 {
		if allFailed(outcomes) {
			return nil, model.Unavailable("Failed to fetch events")
		}
		res.Events = []model.Event{}
		res.Source = SourceNone
		res.Message = MessageNoEvents
		if allSkipped(outcomes) {
			res.Message = MessageNotConfigured
		}
	}

	zap.L().Info("events: search complete",
		zap.Int("events", len(res.Events)),
		zap.String("source", res.Source),
		zap.Int("radius_m", q.RadiusMeters),
	)
	return res, nil
}

// runAll invokes providers concurrently and returns outcomes in the order the
// providers were given, whatever order they finish in.
func (o *Orchestrator) runAll(ctx context.Context, providers []Provider, q Query) []model.Outcome[model.Event] {
	outcomes := make([]model.Outcome[model.Event], len(providers))
	g, gctx := errgroup.WithContext(ctx)
	for i, p := range providers {
		g.Go(func() error {
			outcomes[i] = o.invoke(gctx, p, q)
			return nil
		})
	}
	_ = g.Wait()
	return outcomes
}

func (o *Orchestrator) invoke(ctx context.Context, p Provider, q Query) model.Outcome[model.Event] {
	if !p.Enabled() {
		o.metrics.ObserveProvider(p.Name(), string(model.OutcomeSkipped), 0, 0)
		return model.Skipped[model.Event](p.Name())
	}

	start := time.Now()
	records, err := p.Fetch(ctx, q)
	elapsed := time.Since(start)

	var out model.Outcome[model.Event]
	if err != nil {
		zap.L().Warn("events: provider failed",
			zap.String("provider", p.Name()),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		out = model.Failure[model.Event](p.Name(), err)
	} else {
		for i := range records {
			if records[i].Source == "" {
				records[i].Source = p.Name()
			}
		}
		out = model.Success(p.Name(), records)
		zap.L().Debug("events: provider finished",
			zap.String("provider", p.Name()),
			zap.String("outcome", string(out.Status)),
			zap.Int("records", len(records)),
			zap.Duration("elapsed", elapsed),
		)
	}
	o.metrics.ObserveProvider(p.Name(), string(out.Status), len(out.Records), elapsed)
	return out
}

func collect(outcomes []model.Outcome[model.Event]) []model.Event {
	var merged []model.Event
	for _, out := range outcomes {
		merged = append(merged, out.Records...)
	}
	return merged
}

// sourceOf names the providers that contributed to events, in first-seen order.
func sourceOf(events []model.Event) string {
	var names []string
	seen := make(map[string]bool)
	for _, e := range events {
		if e.Source == "" || seen[e.Source] {
			continue
		}
		seen[e.Source] = true
		names = append(names, e.Source)
	}
	return strings.Join(names, "+")
}

func allFailed(outcomes []model.Outcome[model.Event]) bool {
	enabled := 0
	for _, out := range outcomes {
		switch out.Status {
		case model.OutcomeSkipped:
			continue
		case model.OutcomeFailure:
			enabled++
		default:
			return false
		}
	}
	return enabled > 0
}

func allSkipped(outcomes []model.Outcome[model.Event]) bool {
	for _, out := range outcomes {
		if out.Status != model.OutcomeSkipped {
			return false
		}
	}
	return true
}
