package pipeline

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"reviewsheet/internal"
	"reviewsheet/internal/catalog"
	"reviewsheet/internal/config"
	"reviewsheet/internal/observability"
)

type Service struct {
	cfg     config.Config
	dir     *catalog.Directory
	log     zerolog.Logger
	metrics *observability.Metrics
	now     func() time.Time
}

func NewService(cfg config.Config, dir *catalog.Directory, log zerolog.Logger, metrics *observability.Metrics) *Service {
	if dir == nil {
		dir = catalog.Default()
	}
	return &Service{cfg: cfg, dir: dir, log: log, metrics: metrics, now: time.Now}
}

// SetClock fixes "now" for relative dates.
func (s *Service) SetClock(now func() time.Time) {
	if now != nil {
		s.now = now
	}
}

func (s *Service) Directory() *catalog.Directory { return s.dir }

type RunRequest struct {
	// Platform may be empty when the source or the bundles name it.
	Platform  internal.Platform
	Source    BundleSource
	Overrides Overrides
}

type RunResult struct {
	TraceID      string            `json:"traceId"`
	Platform     internal.Platform `json:"platform"`
	ProposedCity string            `json:"proposedCity"`
	Records      []internal.Record `json:"records"`
	Stats        AssembleStats     `json:"stats"`
	Table        string            `json:"-"`
	QuoteReview  bool              `json:"-"`
}

// Run waits for the settle delay, reads the bundles and assembles them
// into a TSV table. An empty result returns ErrNothingFound together with
// the stats. A cancelled run returns ctx's error and no records.
func (s *Service) Run(ctx context.Context, req RunRequest) (RunResult, error) {
	start := time.Now()
	res := RunResult{TraceID: traceID()}
	log := s.log.With().Str("trace", res.TraceID).Logger()

	fail := func(platform string, err error) (RunResult, error) {
		s.metrics.ObserveRun(platform, observability.RunFailed, time.Since(start))
		log.Error().Err(err).Str("platform", platform).Msg("run failed")
		return RunResult{TraceID: res.TraceID}, err
	}

	if err := s.settle(ctx); err != nil {
		return fail(labelFor(req.Platform), err)
	}
	if req.Source == nil {
		return fail(labelFor(req.Platform), fmt.Errorf("%w: no bundle source", ErrUnsupportedInput))
	}
	doc, err := req.Source.Bundles(ctx)
	if err != nil {
		return fail(labelFor(req.Platform), err)
	}
	if len(doc.Bundles) == 0 {
		s.metrics.ObserveRun(labelFor(req.Platform), observability.RunEmpty, time.Since(start))
		log.Warn().Str("platform", labelFor(req.Platform)).Msg("nothing found")
		return RunResult{TraceID: res.TraceID, Platform: req.Platform}, ErrNothingFound
	}

	platform, err := resolveRunPlatform(req.Platform, doc)
	if err != nil {
		return fail(labelFor(req.Platform), err)
	}
	policy, err := PolicyFor(platform)
	if err != nil {
		return fail(string(platform), err)
	}
	res.Platform = platform
	res.QuoteReview = policy.QuoteReview

	asm := NewAssembler(s.dir, policy,
		WithClock(s.now),
		WithLogger(log),
		WithMetrics(s.metrics),
	)
	ov := req.Overrides
	if ov.City == "" {
		ov.City = doc.City
	}
	res.ProposedCity = asm.ProposeCity(doc.Bundles)
	res.Records, res.Stats = asm.Assemble(doc.Bundles, ov)

	if err := ctx.Err(); err != nil {
		return fail(string(platform), err)
	}
	if len(res.Records) == 0 {
		s.metrics.ObserveRun(string(platform), observability.RunEmpty, time.Since(start))
		log.Warn().Str("platform", string(platform)).Int("bundles", res.Stats.Input).Int("dropped", res.Stats.Dropped).Msg("nothing found")
		return RunResult{TraceID: res.TraceID, Platform: platform, ProposedCity: res.ProposedCity, Stats: res.Stats}, ErrNothingFound
	}

	res.Table, err = FormatTSV(res.Records, TableOptions{QuoteReview: policy.QuoteReview})
	if err != nil {
		return fail(string(platform), err)
	}

	s.metrics.ObserveRun(string(platform), observability.RunExported, time.Since(start))
	log.Info().
		Str("platform", string(platform)).
		Int("records", len(res.Records)).
		Int("dropped", res.Stats.Dropped).
		Dur("took", time.Since(start)).
		Msg("run exported")
	return res, nil
}

// Proposal is the city the resolver would pick for a dump, before the
// operator confirms it.
type Proposal struct {
	Platform internal.Platform `json:"platform"`
	City     string            `json:"city"`
	Bundles  int               `json:"bundles"`
}

// Propose reads the bundles and resolves the platform the same way Run
// does, without assembling or exporting anything.
func (s *Service) Propose(ctx context.Context, req RunRequest) (Proposal, error) {
	if req.Source == nil {
		return Proposal{}, fmt.Errorf("%w: no bundle source", ErrUnsupportedInput)
	}
	doc, err := req.Source.Bundles(ctx)
	if err != nil {
		return Proposal{}, err
	}
	platform, err := resolveRunPlatform(req.Platform, doc)
	if err != nil {
		return Proposal{}, err
	}
	policy, err := PolicyFor(platform)
	if err != nil {
		return Proposal{}, err
	}
	return Proposal{
		Platform: platform,
		City:     NewAssembler(s.dir, policy, WithLogger(s.log)).ProposeCity(doc.Bundles),
		Bundles:  len(doc.Bundles),
	}, nil
}

func (s *Service) settle(ctx context.Context) error {
	if s.cfg.SettleDelayMs <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(time.Duration(s.cfg.SettleDelayMs) * time.Millisecond)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func resolveRunPlatform(requested internal.Platform, doc BundleDocument) (internal.Platform, error) {
	if requested != "" {
		return requested, nil
	}
	if p, ok := internal.ParsePlatform(doc.Platform); ok {
		return p, nil
	}
	for _, b := range doc.Bundles {
		if p, ok := internal.ParsePlatform(b.SourcePlatform); ok {
			return p, nil
		}
	}
	return "", errors.Join(ErrUnknownPlatform, errors.New("no platform given and none named by the bundles"))
}

func labelFor(p internal.Platform) string {
	if p == "" {
		return "unknown"
	}
	return string(p)
}

func traceID() string {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return fmt.Sprintf("run-%d", time.Now().UnixNano())
	}
	return hex.EncodeToString(b[:])
}
