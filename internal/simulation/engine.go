package simulation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/google/uuid"

	"valuation-lab/internal/correlation"
	"valuation-lab/internal/distribution"
	"valuation-lab/internal/domain"
	"valuation-lab/internal/logging"
)

var log = logging.Component("simulation")

// Observer is notified of run lifecycle events.
type Observer interface {
	RunStarted(formula domain.Formula)
	RunFinished(formula domain.Formula, status domain.RunStatus, elapsed time.Duration, completed, failed int)
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithObserver registers a lifecycle observer.
func WithObserver(o Observer) EngineOption {
	return func(e *Engine) { e.observer = o }
}

// WithClock overrides the time source used for run timestamps.
func WithClock(now func() time.Time) EngineOption {
	return func(e *Engine) { e.now = now }
}

// Engine starts simulations and tracks the ones still running.
// Each run owns its state; the engine holds only handles.
type Engine struct {
	mu       sync.Mutex
	runs     map[string]*Simulation
	observer Observer
	now      func() time.Time
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{
		runs: make(map[string]*Simulation),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start validates the request and launches the run in the background.
// Invalid distributions, a non positive definite correlation matrix and out-of-range
// settings are reported here, before any sampling.
//
// The run is bound to ctx: cancelling it has the same effect as Simulation.Stop.
func (e *Engine) Start(ctx context.Context, req Request) (*Simulation, error) {
	p, err := e.prepare(req)
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	sim := newSimulation(uuid.NewString(), p, cancel)

	e.mu.Lock()
	e.runs[sim.id] = sim
	e.mu.Unlock()

	if e.observer != nil {
		e.observer.RunStarted(p.formula)
	}

	go func() {
		defer cancel()
		elapsed := sim.execute(runCtx, e.now)

		e.mu.Lock()
		delete(e.runs, sim.id)
		e.mu.Unlock()
		sim.close()

		if e.observer != nil {
			completed, failed := sim.counts()
			e.observer.RunFinished(p.formula, sim.Status(), elapsed, completed, failed)
		}
	}()

	return sim, nil
}

// Run starts a simulation and blocks until it reaches a terminal state.
func (e *Engine) Run(ctx context.Context, req Request) (*domain.SimulationResult, error) {
	sim, err := e.Start(ctx, req)
	if err != nil {
		return nil, err
	}
	return sim.Wait()
}

// RunDCFSimulation runs the DCF model over the given inputs.
func (e *Engine) RunDCFSimulation(ctx context.Context, base map[string]float64, dists map[string]domain.DistributionSpec, opts Options) (*domain.SimulationResult, error) {
	return e.Run(ctx, opts.request(domain.FormulaDCF, base, dists))
}

// RunLBOSimulation runs the LBO model over the given inputs.
func (e *Engine) RunLBOSimulation(ctx context.Context, base map[string]float64, dists map[string]domain.DistributionSpec, opts Options) (*domain.SimulationResult, error) {
	return e.Run(ctx, opts.request(domain.FormulaLBO, base, dists))
}

// Stop cancels the active run with the given ID.
func (e *Engine) Stop(id string) error {
	sim, ok := e.Get(id)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownSimulation, id)
	}
	sim.Stop()
	return nil
}

// Get returns the active run with the given ID.
func (e *Engine) Get(id string) (*Simulation, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	sim, ok := e.runs[id]
	return sim, ok
}

// Active returns the number of runs in progress.
func (e *Engine) Active() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.runs)
}

// RunDCFSimulation runs the DCF model on a private engine.
func RunDCFSimulation(ctx context.Context, base map[string]float64, dists map[string]domain.DistributionSpec, opts Options) (*domain.SimulationResult, error) {
	return NewEngine().RunDCFSimulation(ctx, base, dists, opts)
}

// RunLBOSimulation runs the LBO model on a private engine.
func RunLBOSimulation(ctx context.Context, base map[string]float64, dists map[string]domain.DistributionSpec, opts Options) (*domain.SimulationResult, error) {
	return NewEngine().RunLBOSimulation(ctx, base, dists, opts)
}

// plan is the validated, immutable description of a run shared by all workers.
type plan struct {
	formula      domain.Formula
	base         map[string]float64
	vars         []distribution.Variable
	fixed        map[string]float64
	transform    *correlation.Transform
	cfg          domain.SimulationConfig
	seed         uint64
	onProgress   ProgressFunc
	keepOutcomes bool
}

func (e *Engine) prepare(req Request) (*plan, error) {
	req, err := req.withDefaults()
	if err != nil {
		return nil, err
	}

	set, err := distribution.NewSet(req.Distributions)
	if err != nil {
		return nil, err
	}

	base := make(map[string]float64, len(req.BaseInputs))
	for k, v := range req.BaseInputs {
		base[k] = v
	}

	p := &plan{
		formula:      req.Formula,
		base:         base,
		vars:         set.Sampled,
		fixed:        set.Fixed,
		cfg:          req.Config,
		onProgress:   req.OnProgress,
		keepOutcomes: req.KeepOutcomes,
	}

	if m := req.Config.CorrelationMatrix; m.Dim() > 0 {
		if m.Dim() != len(p.vars) {
			log.Warnf("correlation matrix dimension %d does not match %d enabled variables, sampling independently",
				m.Dim(), len(p.vars))
		} else {
			t, err := correlation.New(m)
			if err != nil {
				return nil, err
			}
			if len(m.Variables) > 0 {
				if p.vars, err = orderByLabels(p.vars, m.Variables); err != nil {
					return nil, err
				}
			}
			p.transform = t
		}
	}

	if req.Config.RandomSeed != nil {
		p.seed = *req.Config.RandomSeed
	} else {
		p.seed = rand.Uint64()
	}
	return p, nil
}

// orderByLabels arranges vars to follow the matrix row labels.
func orderByLabels(vars []distribution.Variable, labels []string) ([]distribution.Variable, error) {
	byName := make(map[string]distribution.Variable, len(vars))
	for _, v := range vars {
		byName[v.Name] = v
	}
	ordered := make([]distribution.Variable, 0, len(labels))
	for _, name := range labels {
		v, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: label %q is not an enabled variable", correlation.ErrInvalidMatrix, name)
		}
		delete(byName, name)
		ordered = append(ordered, v)
	}
	return ordered, nil
}
