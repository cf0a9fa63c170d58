package pipeline

import (
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"reviewsheet/internal"
	"reviewsheet/internal/catalog"
	"reviewsheet/internal/observability"
	"reviewsheet/internal/util"
)

// Overrides carry caller decisions that win over resolution, e.g. a city
// the operator confirmed after seeing ProposeCity.
type Overrides struct {
	City string `json:"city,omitempty"`
}

type BundleFault struct {
	Index int    `json:"index"`
	Cause string `json:"cause"`
}

type AssembleStats struct {
	Input     int           `json:"input"`
	Assembled int           `json:"assembled"`
	Dropped   int           `json:"dropped"`
	Faults    []BundleFault `json:"faults,omitempty"`
}

type Assembler struct {
	dir     *catalog.Directory
	policy  Policy
	now     func() time.Time
	log     zerolog.Logger
	metrics *observability.Metrics
}

type AssemblerOption func(*Assembler)

func WithClock(now func() time.Time) AssemblerOption {
	return func(a *Assembler) {
		if now != nil {
			a.now = now
		}
	}
}

func WithLogger(log zerolog.Logger) AssemblerOption {
	return func(a *Assembler) { a.log = log }
}

func WithMetrics(m *observability.Metrics) AssemblerOption {
	return func(a *Assembler) { a.metrics = m }
}

func NewAssembler(dir *catalog.Directory, policy Policy, opts ...AssemblerOption) *Assembler {
	if dir == nil {
		dir = catalog.Default()
	}
	a := &Assembler{
		dir:    dir,
		policy: policy,
		now:    time.Now,
		log:    zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Assembler) Policy() Policy { return a.policy }

// Assemble builds one record per bundle, keeping input order. A bundle that
// faults is logged, counted and skipped; the rest of the batch goes on.
func (a *Assembler) Assemble(bundles []internal.RawFieldBundle, ov Overrides) ([]internal.Record, AssembleStats) {
	stats := AssembleStats{Input: len(bundles)}
	records := make([]internal.Record, 0, len(bundles))
	platform := string(a.policy.Platform)

	for i, b := range bundles {
		rec, err := a.safeAssemble(b, ov)
		if err != nil {
			stats.Dropped++
			stats.Faults = append(stats.Faults, BundleFault{Index: i, Cause: err.Error()})
			a.metrics.ObserveRecord(platform, observability.OutcomeDropped)
			a.log.Warn().Err(err).Int("bundle", i).Str("platform", platform).Msg("bundle dropped")
			continue
		}
		records = append(records, rec)
		stats.Assembled++
		a.metrics.ObserveRecord(platform, observability.OutcomeAssembled)
	}
	return records, stats
}

func (a *Assembler) safeAssemble(b internal.RawFieldBundle, ov Overrides) (rec internal.Record, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return a.assembleOne(b, ov)
}

func (a *Assembler) assembleOne(b internal.RawFieldBundle, ov Overrides) (internal.Record, error) {
	if src := strings.TrimSpace(b.SourcePlatform); src != "" {
		if p, ok := internal.ParsePlatform(src); ok && p != a.policy.Platform {
			return internal.Record{}, fmt.Errorf("bundle from %s fed to %s policy", p, a.policy.Platform)
		}
	}

	now := a.now()
	date := util.NormalizeDate(b.RawDate, now)
	clock := util.NormalizeTime(b.RawTime)
	if strings.TrimSpace(b.RawDateTime) != "" {
		d, c := util.SplitDateTime(b.RawDateTime, now)
		date = util.FirstNonEmpty(date, d)
		clock = util.FirstNonEmpty(clock, c)
	}

	rec := internal.Record{
		Date:     date,
		Time:     clock,
		Rating:   a.rating(b.RawRatingIndicator),
		Tour:     a.tour(b.RawTourTitle),
		City:     a.city(b, ov),
		Language: util.NormalizeLanguage(b.RawLanguageCode),
		Platform: a.policy.Literal,
		Review:   util.CleanReviewText(b.RawReviewText),
	}
	if a.policy.ResolveGuide {
		rec.Guide = a.guide(b)
	}
	return rec, nil
}

// guide trusts a dedicated attribution when there is one; the review body is
// only searched for bundles that carry none.
func (a *Assembler) guide(b internal.RawFieldBundle) string {
	if strings.TrimSpace(b.RawGuideHintText) != "" {
		return a.dir.ResolveGuide(b.RawGuideHintText)
	}
	return a.dir.ResolveGuide(b.RawReviewText)
}

func (a *Assembler) rating(raw string) string {
	if v, ok := util.ParseRating(raw); ok {
		return v
	}
	return a.policy.DefaultRating
}

func (a *Assembler) tour(raw string) string {
	if a.policy.MapTour {
		return a.dir.ResolveTour(raw)
	}
	return a.dir.CleanTitle(raw)
}

func (a *Assembler) city(b internal.RawFieldBundle, ov Overrides) string {
	if c := strings.ToLower(strings.TrimSpace(ov.City)); c != "" {
		return c
	}
	if a.policy.ResolveCity {
		if c := a.resolveCity(b); c != "" {
			return c
		}
	}
	return a.policy.DefaultCity
}

func (a *Assembler) resolveCity(b internal.RawFieldBundle) string {
	if c := a.dir.ResolveCity(b.RawTourTitle); c != "" {
		return c
	}
	if a.policy.CityFromReview {
		return a.dir.ResolveCityInText(b.RawReviewText)
	}
	return ""
}

// ProposeCity returns the city the resolver would pick for the batch, so a
// caller can confirm or replace it before assembling.
func (a *Assembler) ProposeCity(bundles []internal.RawFieldBundle) string {
	if a.policy.ResolveCity {
		for _, b := range bundles {
			if c := a.dir.ResolveCity(b.RawTourTitle); c != "" {
				return c
			}
		}
		if a.policy.CityFromReview {
			for _, b := range bundles {
				if c := a.dir.ResolveCityInText(b.RawReviewText); c != "" {
					return c
				}
			}
		}
	}
	return a.policy.DefaultCity
}
