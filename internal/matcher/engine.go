package matcher

import (
	"context"
	"time"

	"automated-identity-matching/internal/models"
	"automated-identity-matching/internal/validation"
	errs "automated-identity-matching/pkg/errors"
	"automated-identity-matching/pkg/geo"
	"automated-identity-matching/pkg/logging"
	"automated-identity-matching/pkg/metrics"
)

// ReferenceSource supplies the raw reference rows for one invocation.
type ReferenceSource interface {
	FetchReferenceRows(ctx context.Context) ([]models.ReferenceRow, error)
}

// Config tunes the engine. Zero values are replaced with defaults.
type Config struct {
	RadiusKm          float64 // proximity radius for the street pre-filter
	StreetScoreCutoff int     // token-sort ratio cutoff, 0-100 scale
}

// DefaultConfig returns the production thresholds.
func DefaultConfig() Config {
	return Config{
		RadiusKm:          80,
		StreetScoreCutoff: 80,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.RadiusKm <= 0 {
		c.RadiusKm = d.RadiusKm
	}
	if c.StreetScoreCutoff <= 0 {
		c.StreetScoreCutoff = d.StreetScoreCutoff
	}
	return c
}

// Engine resolves identity claims against the reference population. It
// is stateless across invocations: each Match loads a fresh reference
// snapshot, so concurrent Match calls are safe as long as the source
// and zip table are.
type Engine struct {
	src  ReferenceSource
	zips geo.ZipTable
	cfg  Config
	log  *logging.ComponentLogger

	mInvocations *metrics.Counter
	mRowsDropped *metrics.Counter
	mNameDOB     *metrics.Counter
	mStreet      *metrics.Counter
	mPhone       *metrics.Counter
	mLatency     *metrics.Histogram
}

// NewEngine creates a matching engine over the given reference source
// and zip-geo table.
func NewEngine(src ReferenceSource, zips geo.ZipTable, cfg Config, log *logging.Logger) *Engine {
	e := &Engine{
		src:  src,
		zips: zips,
		cfg:  cfg.withDefaults(),

		mInvocations: metrics.Default.Counter("match_invocations_total", "Match invocations"),
		mRowsDropped: metrics.Default.Counter("match_rows_dropped_total", "Reference rows dropped as malformed"),
		mNameDOB:     metrics.Default.Counter("match_name_dob_total", "Invocations with a name+dob match"),
		mStreet:      metrics.Default.Counter("match_street_total", "Invocations with a street match"),
		mPhone:       metrics.Default.Counter("match_phone_total", "Invocations with a phone match"),
		mLatency:     metrics.Default.Histogram("match_latency_ms", "Match invocation latency (ms)", []float64{50, 100, 250, 500, 1000, 2500, 5000}),
	}
	if log != nil {
		e.log = log.WithComponent("matcher")
	}
	return e
}

// Match resolves one query against a fresh reference snapshot and
// returns the per-category match sets. A query with no matchable
// fields fails with a ValidationError; a reference fetch failure is
// fatal to the invocation and yields no partial result. Per-row
// preprocessing failures are absorbed, logged and counted.
func (e *Engine) Match(ctx context.Context, q models.QueryIdentity) (*models.MatchResult, error) {
	defer e.mLatency.Start().Observe()
	e.mInvocations.Inc(1)

	if err := validation.ValidateQuery(q); err != nil {
		return nil, err
	}

	start := time.Now()
	rows, err := e.src.FetchReferenceRows(ctx)
	if err != nil {
		return nil, errs.NewDB("matcher.Match", "fetching reference rows", err)
	}
	fetchDur := time.Since(start)

	records, rowErrs := Preprocess(rows)
	if len(rowErrs) > 0 {
		e.mRowsDropped.Inc(int64(len(rowErrs)))
		if e.log != nil {
			for _, re := range rowErrs {
				e.log.Warn("reference row excluded", logging.Error(re))
			}
		}
	}

	nearCount := ApplyProximity(records, q.Zipcode, e.zips, e.cfg.RadiusKm)

	result := &models.MatchResult{
		NameDOB: MatchNameDOB(records, q).sorted(),
		Street:  MatchStreet(records, q, e.cfg.StreetScoreCutoff).sorted(),
		Phone:   MatchPhone(records, q).sorted(),
	}

	if len(result.NameDOB) > 0 {
		e.mNameDOB.Inc(1)
	}
	if len(result.Street) > 0 {
		e.mStreet.Inc(1)
	}
	if len(result.Phone) > 0 {
		e.mPhone.Inc(1)
	}

	if e.log != nil {
		e.log.Info("match complete",
			logging.Int("reference_rows", len(rows)),
			logging.Int("records", len(records)),
			logging.Int("rows_dropped", len(rowErrs)),
			logging.Int("near_records", nearCount),
			logging.Int("name_dob_matches", len(result.NameDOB)),
			logging.Int("street_matches", len(result.Street)),
			logging.Int("phone_matches", len(result.Phone)),
			logging.Duration("fetch_duration", fetchDur),
		)
	}

	return result, nil
}
