// Package fixtures runs a complete draw: generation, home/away balancing and
// verification, or balancing alone over an existing match list.
package fixtures

import (
	"errors"
	"fmt"
	"math/rand"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/derekprior/pooldraw/internal/balance"
	"github.com/derekprior/pooldraw/internal/draw"
	"github.com/derekprior/pooldraw/internal/verify"
)

// ErrInvalidInput is returned for input no draw can be made from.
var ErrInvalidInput = errors.New("invalid input")

// State is a step of a run. A run only ever moves forward.
type State string

const (
	Unstarted          State = "unstarted"
	Generating         State = "generating"
	Balancing          State = "balancing"
	Verified           State = "verified"
	Complete           State = "complete"
	ReportedIncomplete State = "reported_incomplete"
)

// Options configure a run.
type Options struct {
	MatchesPerPlayer int

	// Seed fixes the random stream. Nil draws a seed from the OS; the seed
	// used is always returned in Result.Seed.
	Seed *int64

	AllowOverQuota bool

	// Strategies limits balancing to the named strategies.
	Strategies []string

	// Existing matches kept by Generate; new fixtures fill the remaining
	// slots.
	Existing []draw.Match

	Logger *zerolog.Logger
}

// Stage is a balancing stage run on one pool.
type Stage struct {
	Pool string
	balance.Stage
}

// PlayerMetrics holds per-player draw statistics.
type PlayerMetrics struct {
	Matches    int
	Home       int
	Away       int
	Violations []string
}

// Result is the output of a run.
type Result struct {
	RunID    string
	Seed     int64
	Matches  []draw.Match
	Report   verify.Report
	Stages   []Stage
	Pools    []draw.PoolStats // empty for Rebalance
	Warnings []string
	Metrics  map[string]*PlayerMetrics
	Trace    []State
	State    State
}

type run struct {
	players []draw.Player
	opts    Options
	log     zerolog.Logger
	sources map[string]*rand.Rand
	res     *Result
}

func newRun(players []draw.Player, opts Options) (*run, error) {
	if opts.MatchesPerPlayer < 1 {
		return nil, fmt.Errorf("%w: matches per player must be at least 1, got %d", ErrInvalidInput, opts.MatchesPerPlayer)
	}
	if len(players) == 0 {
		return nil, fmt.Errorf("%w: no players", ErrInvalidInput)
	}
	for _, name := range opts.Strategies {
		if _, err := balance.Get(name); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
		}
	}

	seed := draw.EntropySeed()
	if opts.Seed != nil {
		seed = *opts.Seed
	}
	log := zerolog.Nop()
	if opts.Logger != nil {
		log = *opts.Logger
	}

	r := &run{
		players: players,
		opts:    opts,
		sources: make(map[string]*rand.Rand),
		res: &Result{
			RunID: uuid.NewString(),
			Seed:  seed,
			State: Unstarted,
			Trace: []State{Unstarted},
		},
	}
	r.log = log.With().Str("run_id", r.res.RunID).Logger()
	return r, nil
}

// source hands out one stream per pool, shared by generation and balancing.
func (r *run) source(pool string) draw.Source {
	src, ok := r.sources[pool]
	if !ok {
		src = draw.PoolSource(r.res.Seed, pool)
		r.sources[pool] = src
	}
	return src
}

func (r *run) advance(s State) {
	r.res.State = s
	r.res.Trace = append(r.res.Trace, s)
	r.log.Debug().Str("state", string(s)).Msg("run state")
}

// Generate draws fixtures for every pool, balances them and verifies the
// outcome. An incomplete or imbalanced draw is reported, not returned as an
// error.
func Generate(players []draw.Player, opts Options) (*Result, error) {
	r, err := newRun(players, opts)
	if err != nil {
		return nil, err
	}

	r.advance(Generating)
	gen := draw.Generator{
		MatchesPerPlayer: opts.MatchesPerPlayer,
		AllowOverQuota:   opts.AllowOverQuota,
		Source:           r.source,
		Log:              r.log,
	}
	out, err := gen.Generate(players, opts.Existing)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	r.res.Pools = out.Stats
	for _, id := range out.OverQuota {
		r.res.Warnings = append(r.res.Warnings, fmt.Sprintf("%s was drawn past the match target", id))
	}

	if err := r.balance(out.Ledgers); err != nil {
		return nil, err
	}
	return r.finish(out.Ledgers)
}

// Rebalance repairs the home/away split of an existing match list without
// changing who plays whom.
func Rebalance(players []draw.Player, matches []draw.Match, opts Options) (*Result, error) {
	r, err := newRun(players, opts)
	if err != nil {
		return nil, err
	}

	ledgers, err := draw.BuildLedgers(players, matches)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}
	if err := r.balance(ledgers); err != nil {
		return nil, err
	}
	return r.finish(ledgers)
}

func (r *run) balance(ledgers []*draw.Ledger) error {
	r.advance(Balancing)
	for _, l := range ledgers {
		b := balance.New(r.source(l.Pool), r.log)
		b.Strategies = r.opts.Strategies
		stages, err := b.Run(l)
		if err != nil {
			return fmt.Errorf("balancing pool %q: %w", l.Pool, err)
		}
		for _, st := range stages {
			r.res.Stages = append(r.res.Stages, Stage{Pool: l.Pool, Stage: st})
		}
	}
	return nil
}

func (r *run) finish(ledgers []*draw.Ledger) (*Result, error) {
	res := r.res
	res.Matches = draw.Renumber(draw.Collect(ledgers))
	res.Report = verify.Verify(r.players, res.Matches, r.opts.MatchesPerPlayer)
	r.advance(Verified)

	if err := res.Report.Err(); err != nil {
		// Matches and report stay available for diagnosis.
		return res, fmt.Errorf("verifying draw: %w", err)
	}

	r.buildMetrics()
	if res.Report.OK {
		r.advance(Complete)
	} else {
		r.advance(ReportedIncomplete)
	}

	r.log.Info().
		Int64("seed", res.Seed).
		Int("players", len(r.players)).
		Int("matches", len(res.Matches)).
		Int("deficiencies", len(res.Report.Deficiencies)).
		Int("imbalanced", len(res.Report.ResidualImbalance)).
		Str("state", string(res.State)).
		Msg("draw finished")
	return res, nil
}

func (r *run) buildMetrics() {
	res := r.res
	res.Metrics = make(map[string]*PlayerMetrics, len(r.players))
	for _, s := range res.Report.Standings {
		res.Metrics[s.PlayerID] = &PlayerMetrics{
			Matches: s.Total(),
			Home:    s.Home,
			Away:    s.Away,
		}
	}

	for _, d := range res.Report.Deficiencies {
		w := fmt.Sprintf("%s has %d of %d matches (%s)", d.PlayerID, d.Matches, d.Want, d.Kind)
		res.Warnings = append(res.Warnings, w)
		res.Metrics[d.PlayerID].Violations = append(res.Metrics[d.PlayerID].Violations, w)
	}
	for _, im := range res.Report.ResidualImbalance {
		w := fmt.Sprintf("%s is %d home / %d away", im.PlayerID, im.Home, im.Away)
		res.Warnings = append(res.Warnings, w)
		res.Metrics[im.PlayerID].Violations = append(res.Metrics[im.PlayerID].Violations, w)
	}
}
