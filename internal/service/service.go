// Package service coordinates simulation runs with caching, persistence and metrics.
// Flow: cache lookup → engine run → persist result and outcomes → cache store
package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"valuation-lab/internal/cache"
	"valuation-lab/internal/config"
	"valuation-lab/internal/domain"
	"valuation-lab/internal/idhash"
	"valuation-lab/internal/logging"
	"valuation-lab/internal/observability"
	"valuation-lab/internal/reporting"
	"valuation-lab/internal/simulation"
	"valuation-lab/internal/storage"
)

var log = logging.Component("service")

const persistTimeout = 30 * time.Second

// ResultCache stores finished results by job fingerprint. Get returns cache.ErrMiss
// when nothing is stored.
type ResultCache interface {
	Get(ctx context.Context, jobID string) (*domain.SimulationResult, error)
	Set(ctx context.Context, jobID string, r *domain.SimulationResult) error
}

// Options for creating a Service.
type Options struct {
	// Required
	Engine   *simulation.Engine
	RunStore storage.SimulationStore

	// Optional
	OutcomeStore storage.OutcomeStore
	Cache        ResultCache
	Metrics      *observability.Metrics

	Defaults config.SimulationConfig
}

// Service runs jobs and tracks them until they are persisted.
type Service struct {
	engine   *simulation.Engine
	runs     storage.SimulationStore
	outcomes storage.OutcomeStore
	cache    ResultCache
	metrics  *observability.Metrics
	defaults config.SimulationConfig

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	mu       sync.Mutex
	trackers map[string]*tracker
	finished map[string]*RunView
}

// New creates a Service. Runs are bound to the service lifetime, not to the
// context of the call that submitted them.
func New(opts Options) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		engine:   opts.Engine,
		runs:     opts.RunStore,
		outcomes: opts.OutcomeStore,
		cache:    opts.Cache,
		metrics:  opts.Metrics,
		defaults: opts.Defaults,
		ctx:      ctx,
		cancel:   cancel,
		trackers: make(map[string]*tracker),
		finished: make(map[string]*RunView),
	}
}

// Submission is the handle returned by Submit.
type Submission struct {
	ID     string
	Cached bool

	done   chan struct{}
	result *domain.SimulationResult
	err    error
}

// Wait blocks until the run is finished and persisted.
func (s *Submission) Wait() (*domain.SimulationResult, error) {
	<-s.done
	return s.result, s.err
}

// Submit starts a job in the background. Seeded jobs already in the cache complete
// immediately with the cached result.
func (s *Service) Submit(ctx context.Context, job *config.Job) (*Submission, error) {
	job.ApplyDefaults(s.defaults)

	jobID, cacheable, err := idhash.ComputeJobID(job.Formula, job.BaseInputs, job.Distributions, job.Options)
	if err != nil {
		return nil, err
	}

	if cacheable && s.cache != nil {
		if res, ok := s.lookupCache(ctx, jobID); ok {
			sub := &Submission{ID: res.ID, Cached: true, done: make(chan struct{}), result: res}
			close(sub.done)
			return sub, nil
		}
	}

	t := newTracker()
	sim, err := s.engine.Start(s.ctx, simulation.Request{
		Formula:       job.Formula,
		BaseInputs:    job.BaseInputs,
		Distributions: job.Distributions,
		Config:        job.Options,
		OnProgress:    t.progress,
		KeepOutcomes:  s.outcomes != nil && s.defaults.KeepOutcomes,
	})
	if err != nil {
		return nil, err
	}
	t.setID(sim.ID())

	s.mu.Lock()
	s.trackers[sim.ID()] = t
	s.mu.Unlock()

	sub := &Submission{ID: sim.ID(), done: make(chan struct{})}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(sub.done)
		sub.result, sub.err = s.complete(sim, t, jobID, cacheable)
	}()

	log.WithField("simulation", sim.ID()).Infof("submitted %s job (seed=%d cacheable=%v)", job.Formula, sim.Seed(), cacheable)
	return sub, nil
}

// Run submits a job and waits for it.
func (s *Service) Run(ctx context.Context, job *config.Job) (*domain.SimulationResult, error) {
	sub, err := s.Submit(ctx, job)
	if err != nil {
		return nil, err
	}
	select {
	case <-sub.done:
		return sub.result, sub.err
	case <-ctx.Done():
		_ = s.Stop(sub.ID)
		<-sub.done
		return nil, sub.err
	}
}

func (s *Service) lookupCache(ctx context.Context, jobID string) (*domain.SimulationResult, bool) {
	res, err := s.cache.Get(ctx, jobID)
	if err != nil {
		if !errors.Is(err, cache.ErrMiss) {
			log.WithError(err).Warnf("result cache lookup failed for job %s", jobID)
		}
		s.recordCache(false)
		return nil, false
	}
	s.recordCache(true)

	// A cache hit may come from another process; make it visible to run lookups here.
	if err := s.runs.Insert(ctx, res); err != nil && !errors.Is(err, storage.ErrDuplicateKey) {
		log.WithError(err).Warnf("failed to record cached run %s", res.ID)
	}
	return res, true
}

// complete waits for the run and persists its result.
func (s *Service) complete(sim *simulation.Simulation, t *tracker, jobID string, cacheable bool) (*domain.SimulationResult, error) {
	res, runErr := sim.Wait()
	id := sim.ID()

	defer func() {
		s.mu.Lock()
		delete(s.trackers, id)
		s.mu.Unlock()
	}()

	if runErr != nil {
		status := sim.Status()
		s.remember(&RunView{Update: Update{ID: id, Status: status, Fraction: sim.Fraction(), Error: runErr.Error()}})
		t.finish(status, runErr)
		return nil, runErr
	}

	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	if err := s.persist(ctx, res, sim.Outcomes()); err != nil {
		log.WithError(err).Errorf("run %s finished but was not stored", id)
		s.remember(&RunView{
			Update: Update{ID: id, Status: res.Status, Fraction: 1, Error: err.Error()},
			Result: res,
		})
		t.finish(domain.StatusCompleted, nil)
		return res, err
	}

	if cacheable && s.cache != nil {
		if err := s.cache.Set(ctx, jobID, res); err != nil {
			log.WithError(err).Warnf("failed to cache result of job %s", jobID)
		}
	}

	t.finish(domain.StatusCompleted, nil)
	return res, nil
}

func (s *Service) persist(ctx context.Context, res *domain.SimulationResult, outcomes []*domain.ScenarioOutcome) error {
	start := time.Now()
	err := s.runs.Insert(ctx, res)
	s.recordDB("runs", "insert", start, err)
	if err != nil {
		return fmt.Errorf("persist run %s: %w", res.ID, err)
	}

	if s.outcomes != nil && len(outcomes) > 0 {
		start = time.Now()
		err = s.outcomes.InsertBulk(ctx, res.ID, outcomes)
		s.recordDB("outcomes", "insert_bulk", start, err)
		if err != nil {
			return fmt.Errorf("persist outcomes of %s: %w", res.ID, err)
		}
	}
	return nil
}

// remember keeps the state of runs that never reached the run store.
func (s *Service) remember(v *RunView) {
	s.mu.Lock()
	s.finished[v.ID] = v
	s.mu.Unlock()
}

// RunView is the externally visible state of a run.
type RunView struct {
	Update
	Result *domain.SimulationResult `json:"result,omitempty"`
}

// Status reports a run's state, live or persisted. Returns storage.ErrNotFound for
// unknown IDs.
func (s *Service) Status(ctx context.Context, id string) (*RunView, error) {
	s.mu.Lock()
	t, live := s.trackers[id]
	view, unstored := s.finished[id]
	s.mu.Unlock()

	if live {
		t.mu.Lock()
		u := t.last
		t.mu.Unlock()
		u.ID = id
		return &RunView{Update: u}, nil
	}
	if unstored {
		v := *view
		return &v, nil
	}

	res, err := s.runs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return &RunView{
		Update: Update{ID: id, Status: res.Status, Fraction: 1},
		Result: res,
	}, nil
}

// Subscribe streams progress for a live run. Finished runs yield one terminal update.
func (s *Service) Subscribe(ctx context.Context, id string) (<-chan Update, func(), error) {
	s.mu.Lock()
	t, live := s.trackers[id]
	s.mu.Unlock()

	if live {
		ch, cancel := t.subscribe()
		return ch, cancel, nil
	}

	view, err := s.Status(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	ch := make(chan Update, 1)
	ch <- view.Update
	close(ch)
	return ch, func() {}, nil
}

// Stop cancels a running simulation.
func (s *Service) Stop(id string) error {
	return s.engine.Stop(id)
}

// List returns persisted runs, optionally for one formula.
func (s *Service) List(ctx context.Context, formula domain.Formula) ([]*domain.SimulationResult, error) {
	if formula == "" {
		return s.runs.GetAll(ctx)
	}
	return s.runs.GetByFormula(ctx, formula)
}

// Outcomes returns the persisted population of a run. Empty when outcomes are not kept.
func (s *Service) Outcomes(ctx context.Context, id string) ([]*domain.ScenarioOutcome, error) {
	if s.outcomes == nil {
		return nil, nil
	}
	return s.outcomes.GetBySimulationID(ctx, id)
}

// Report builds a cross-run report.
func (s *Service) Report(ctx context.Context, formula domain.Formula) (*reporting.Report, error) {
	return reporting.NewGenerator(s.runs).Generate(ctx, formula)
}

// Close cancels outstanding runs and waits for their persistence to finish.
func (s *Service) Close() {
	s.cancel()
	s.wg.Wait()
}

func (s *Service) recordCache(hit bool) {
	if s.metrics != nil {
		s.metrics.RecordCacheLookup(hit)
	}
}

func (s *Service) recordDB(database, op string, start time.Time, err error) {
	if s.metrics != nil {
		s.metrics.RecordDBQuery(database, op, time.Since(start), err)
	}
}

var _ simulation.Observer = (*observability.Metrics)(nil)
var _ ResultCache = (*cache.ResultCache)(nil)
