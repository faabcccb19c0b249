package simulation

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"

	"valuation-lab/internal/distribution"
	"valuation-lab/internal/domain"
	"valuation-lab/internal/metrics"
	"valuation-lab/internal/valuation"
)

const progressBuffer = 64

// streamBlock is the number of consecutive iterations drawn from one RNG substream.
// It is fixed so the outcome population depends only on the seed.
const streamBlock = 512

// Simulation is the handle to a single run.
type Simulation struct {
	id     string
	plan   *plan
	cancel context.CancelFunc

	progress chan float64
	done     chan struct{}

	mu       sync.Mutex
	status   domain.RunStatus
	result   *domain.SimulationResult
	outcomes []*domain.ScenarioOutcome
	err      error

	// notifyMu serialises progress callbacks, which may call back into the handle.
	// progressMu guards lastProgress only and is never held during a callback.
	notifyMu     sync.Mutex
	progressMu   sync.Mutex
	lastProgress float64

	completed atomic.Int64
	failed    atomic.Int64
	processed atomic.Int64
}

func newSimulation(id string, p *plan, cancel context.CancelFunc) *Simulation {
	return &Simulation{
		id:       id,
		plan:     p,
		cancel:   cancel,
		progress: make(chan float64, progressBuffer),
		done:     make(chan struct{}),
		status:   domain.StatusIdle,
	}
}

// ID returns the run identifier.
func (s *Simulation) ID() string { return s.id }

// Formula returns the model being simulated.
func (s *Simulation) Formula() domain.Formula { return s.plan.formula }

// Seed returns the seed driving the run, generated when none was configured.
func (s *Simulation) Seed() uint64 { return s.plan.seed }

// Stop requests cancellation. The run observes it before its next iteration.
// Stopping a finished run has no effect.
func (s *Simulation) Stop() { s.cancel() }

// Done is closed once the run reaches a terminal state.
func (s *Simulation) Done() <-chan struct{} { return s.done }

// Wait blocks until the run finishes.
func (s *Simulation) Wait() (*domain.SimulationResult, error) {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.result, s.err
}

// Progress streams completion fractions. Slow readers miss intermediate values.
// The channel is closed when the run finishes.
func (s *Simulation) Progress() <-chan float64 { return s.progress }

// Status returns the current lifecycle state.
func (s *Simulation) Status() domain.RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.status
}

// Fraction returns the last reported completion fraction.
func (s *Simulation) Fraction() float64 {
	s.progressMu.Lock()
	defer s.progressMu.Unlock()
	return s.lastProgress
}

// Outcomes returns the population of a completed run when it was requested with
// KeepOutcomes. Otherwise nil.
func (s *Simulation) Outcomes() []*domain.ScenarioOutcome {
	<-s.done
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.outcomes
}

func (s *Simulation) counts() (completed, failed int) {
	return int(s.completed.Load()), int(s.failed.Load())
}

func (s *Simulation) setStatus(st domain.RunStatus) {
	s.mu.Lock()
	s.status = st
	s.mu.Unlock()
}

// execute drives the run to a terminal state and returns its wall time.
// The caller closes the handle afterwards.
func (s *Simulation) execute(ctx context.Context, now func() time.Time) (elapsed time.Duration) {
	p := s.plan
	s.setStatus(domain.StatusRunning)
	startedAt := now()
	defer func() { elapsed = now().Sub(startedAt) }()

	log.WithField("simulation", s.id).Infof("starting %s run: iterations=%d workers=%d seed=%d",
		p.formula, p.cfg.Iterations, p.cfg.Workers, p.seed)

	outcomes := make([]*domain.ScenarioOutcome, p.cfg.Iterations)
	err := s.iterate(ctx, outcomes)

	completed, failed := s.counts()
	runErr := func(kind error) error {
		return &RunError{Kind: kind, Iterations: p.cfg.Iterations, Completed: completed, Failed: failed}
	}

	if err != nil || ctx.Err() != nil {
		s.finish(domain.StatusCancelled, nil, nil, runErr(ErrCancelled))
		log.WithField("simulation", s.id).Infof("run cancelled after %d iterations", completed+failed)
		return
	}

	population := make([]*domain.ScenarioOutcome, 0, completed)
	for _, o := range outcomes {
		if o != nil {
			population = append(population, o)
		}
	}

	if len(population) == 0 {
		s.finish(domain.StatusFailed, nil, nil, runErr(ErrEmptyPopulation))
		log.WithField("simulation", s.id).Errorf("no iteration produced a valid outcome (failed=%d)", failed)
		return
	}
	if maxRate := *p.cfg.MaxFailureRate; float64(failed)/float64(p.cfg.Iterations) > maxRate {
		s.finish(domain.StatusFailed, nil, nil, runErr(ErrExcessiveEvaluationFailures))
		log.WithField("simulation", s.id).Errorf("failure rate %.3f exceeds %.3f",
			float64(failed)/float64(p.cfg.Iterations), maxRate)
		return
	}

	analysis, err := metrics.Reduce(population, p.cfg.ConfidenceLevel)
	if err != nil {
		s.finish(domain.StatusFailed, nil, nil, runErr(err))
		return
	}

	finishedAt := now()
	result := &domain.SimulationResult{
		ID:              s.id,
		Formula:         p.formula,
		Status:          domain.StatusCompleted,
		Iterations:      p.cfg.Iterations,
		Completed:       completed,
		Failed:          failed,
		RandomSeed:      p.seed,
		ConfidenceLevel: p.cfg.ConfidenceLevel,
		StartedAt:       startedAt,
		FinishedAt:      finishedAt,
		DurationMs:      finishedAt.Sub(startedAt).Milliseconds(),
		Analysis:        analysis,
	}

	var kept []*domain.ScenarioOutcome
	if p.keepOutcomes {
		kept = population
	}
	s.finish(domain.StatusCompleted, result, kept, nil)

	if failed > 0 {
		log.WithField("simulation", s.id).Warnf("%d of %d iterations dropped", failed, p.cfg.Iterations)
	}
	log.WithField("simulation", s.id).Infof("run completed in %dms", result.DurationMs)
	return
}

// close releases progress readers and waiters.
func (s *Simulation) close() {
	close(s.progress)
	close(s.done)
}

func (s *Simulation) finish(st domain.RunStatus, res *domain.SimulationResult, outcomes []*domain.ScenarioOutcome, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status = st
	s.result = res
	s.outcomes = outcomes
	s.err = err
}

// iterate evaluates all blocks. Block b draws from its own PCG stream keyed by
// (seed, b), so outcomes depend on neither the worker count nor the progress batch.
func (s *Simulation) iterate(ctx context.Context, outcomes []*domain.ScenarioOutcome) error {
	p := s.plan
	chunks := (p.cfg.Iterations + streamBlock - 1) / streamBlock

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.cfg.Workers)

	for c := 0; c < chunks; c++ {
		if gctx.Err() != nil {
			break
		}
		lo := c * streamBlock
		hi := min(lo+streamBlock, p.cfg.Iterations)
		chunk := uint64(c)
		g.Go(func() error {
			return s.runChunk(gctx, chunk, outcomes[lo:hi], lo)
		})
	}
	return g.Wait()
}

func (s *Simulation) runChunk(ctx context.Context, chunk uint64, dst []*domain.ScenarioOutcome, offset int) error {
	p := s.plan
	rng := rand.New(rand.NewPCG(p.seed, chunk))
	u := make([]float64, len(p.vars))

	for i := range dst {
		if ctx.Err() != nil {
			return ErrCancelled
		}

		for j := range u {
			u[j] = distribution.UnitDraw(rng)
		}
		draws := u
		if p.transform != nil {
			draws = p.transform.Couple(u)
		}

		sampled := make(map[string]float64, len(p.vars)+len(p.fixed))
		for name, v := range p.fixed {
			sampled[name] = v
		}
		for j, v := range p.vars {
			sampled[v.Name] = v.Dist.Quantile(draws[j])
		}

		outcome, err := valuation.Evaluate(p.formula, p.base, sampled)
		if err != nil {
			if !errors.Is(err, valuation.ErrEvaluation) {
				log.WithError(err).Warnf("iteration %d: unexpected evaluation error", offset+i)
			}
			s.failed.Add(1)
		} else {
			outcome.Iteration = offset + i
			dst[i] = outcome
			s.completed.Add(1)
		}

		// Progress fires every ProgressBatch iterations across all workers, and on the last one.
		if n := s.processed.Add(1); n%int64(p.cfg.ProgressBatch) == 0 || n == int64(p.cfg.Iterations) {
			s.report(float64(n) / float64(p.cfg.Iterations))
		}
	}
	return nil
}

// report forwards a fraction if it advances the last one.
func (s *Simulation) report(fraction float64) {
	s.notifyMu.Lock()
	defer s.notifyMu.Unlock()

	s.progressMu.Lock()
	if fraction <= s.lastProgress {
		s.progressMu.Unlock()
		return
	}
	s.lastProgress = fraction
	s.progressMu.Unlock()

	if s.plan.onProgress != nil {
		s.plan.onProgress(fraction)
	}
	select {
	case s.progress <- fraction:
	default:
	}
}
