// Package optimizer finds the Sharpe-maximizing long-only, fully invested
// weight vector of a ReturnMatrix.
//
// The simplex constraint (Σw = 1, 0 ≤ w ≤ 1) is enforced exactly by solving
// over unconstrained logits z with w = softmax(z). z = 0 is the uniform
// allocation, which seeds every run, so results are deterministic.
package optimizer

import (
	"errors"
	"fmt"
	"math"
	"time"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/optimize"

	"github.com/wonny/frontier/internal/contracts"
	"github.com/wonny/frontier/internal/metrics"
	"github.com/wonny/frontier/pkg/logger"
)

// Method selects the gonum local optimizer
type Method string

const (
	MethodBFGS       Method = "bfgs"
	MethodNelderMead Method = "neldermead"
)

const (
	// SnapThreshold: weights below it are set to zero before renormalizing
	SnapThreshold = 1e-7

	// StallGradientTolerance: a line-search stall is accepted as converged
	// when the logit gradient inf-norm is at most this value
	StallGradientTolerance = 1e-6

	// NelderMeadIterationsPerAsset sizes the simplex search before BFGS refinement
	NelderMeadIterationsPerAsset = 500
)

// Config holds solver settings
type Config struct {
	Method            Method
	MaxIterations     int
	GradientThreshold float64
}

// DefaultConfig returns BFGS with 1000 major iterations
func DefaultConfig() Config {
	return Config{
		Method:            MethodBFGS,
		MaxIterations:     1000,
		GradientThreshold: 1e-9,
	}
}

// Result is a converged allocation
type Result struct {
	Weights contracts.WeightVector
	Metrics contracts.PortfolioMetrics
	Solver  contracts.SolverInfo
}

// Optimizer maximizes the Sharpe ratio. It holds no per-run state.
type Optimizer struct {
	cfg    Config
	logger *logger.Logger
}

// New creates an Optimizer; zero config fields fall back to DefaultConfig
func New(cfg Config, log *logger.Logger) *Optimizer {
	def := DefaultConfig()
	if cfg.Method == "" {
		cfg.Method = def.Method
	}
	if cfg.MaxIterations <= 0 {
		cfg.MaxIterations = def.MaxIterations
	}
	if cfg.GradientThreshold <= 0 {
		cfg.GradientThreshold = def.GradientThreshold
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Optimizer{cfg: cfg, logger: log.WithComponent("optimizer")}
}

// Optimize returns the max-Sharpe weights of rm or an error wrapping
// contracts.ErrOptimizationFailed. It never retries and never returns
// partial weights.
func (o *Optimizer) Optimize(rm *contracts.ReturnMatrix) (*Result, error) {
	if rm == nil {
		return nil, contracts.Preconditionf("nil return matrix")
	}

	calc := metrics.NewCalculator(rm)
	n := calc.Assets()

	if n == 1 {
		w := contracts.EqualWeights(1)
		return &Result{
			Weights: w,
			Metrics: calc.Evaluate(w.Values()),
			Solver:  contracts.SolverInfo{Method: string(o.cfg.Method), Status: "SingleAsset"},
		}, nil
	}

	method, err := o.method()
	if err != nil {
		return nil, err
	}

	obj := newObjective(calc)
	problem := optimize.Problem{
		Func: obj.value,
		Grad: obj.grad,
	}

	start := time.Now()
	x0 := make([]float64, n)
	iterations, evaluations := 0, 0
	status := ""

	// Nelder-Mead only locates the basin; BFGS finishes from its point
	if o.cfg.Method == MethodNelderMead {
		nm, err := optimize.Minimize(problem, x0, o.settings(o.nelderMeadIterations(n)), method)
		if nm == nil {
			return nil, fmt.Errorf("%w: %v", contracts.ErrOptimizationFailed, err)
		}
		iterations, evaluations = nm.MajorIterations, nm.FuncEvaluations
		status = nm.Status.String() + "+"
		x0 = nm.X
		method = &optimize.BFGS{}
	}

	res, err := optimize.Minimize(problem, x0, o.settings(o.cfg.MaxIterations), method)
	if res == nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrOptimizationFailed, err)
	}

	info := contracts.SolverInfo{
		Method:      string(o.cfg.Method),
		Status:      status + res.Status.String(),
		Iterations:  iterations + res.MajorIterations,
		Evaluations: evaluations + res.FuncEvaluations,
		Runtime:     time.Since(start),
	}

	if err := o.accept(res, err, obj); err != nil {
		o.logger.WithFields(map[string]interface{}{
			"status":     info.Status,
			"iterations": info.Iterations,
		}).WithError(err).Warn("Optimizer did not converge")
		return nil, err
	}

	w, err := snap(softmax(nil, res.X))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrOptimizationFailed, err)
	}

	m := calc.Evaluate(w.Values())
	o.logger.WithFields(map[string]interface{}{
		"assets":     n,
		"status":     info.Status,
		"iterations": info.Iterations,
		"sharpe":     m.Sharpe,
	}).Debug("Optimizer converged")

	return &Result{Weights: w, Metrics: m, Solver: info}, nil
}

func (o *Optimizer) settings(iterations int) *optimize.Settings {
	return &optimize.Settings{
		GradientThreshold: o.cfg.GradientThreshold,
		MajorIterations:   iterations,
		Converger: &optimize.FunctionConverge{
			Absolute:   1e-12,
			Relative:   1e-12,
			Iterations: 100,
		},
	}
}

// nelderMeadIterations grows the simplex budget with the dimension
func (o *Optimizer) nelderMeadIterations(n int) int {
	return max(o.cfg.MaxIterations, NelderMeadIterationsPerAsset*n)
}

func (o *Optimizer) method() (optimize.Method, error) {
	switch o.cfg.Method {
	case MethodBFGS:
		return &optimize.BFGS{}, nil
	case MethodNelderMead:
		return &optimize.NelderMead{}, nil
	default:
		return nil, contracts.Preconditionf("unknown optimizer method %q", o.cfg.Method)
	}
}

var successStatuses = map[optimize.Status]bool{
	optimize.Success:             true,
	optimize.GradientThreshold:   true,
	optimize.FunctionConvergence: true,
	optimize.StepConvergence:     true,
	optimize.MethodConverge:      true,
}

// accept decides whether the solver result is a converged optimum
func (o *Optimizer) accept(res *optimize.Result, err error, obj *objective) error {
	if err == nil && successStatuses[res.Status] {
		return nil
	}

	// A line search that cannot improve an already flat point is an optimum.
	if errors.Is(err, optimize.ErrLinesearcherFailure) || errors.Is(err, optimize.ErrNoProgress) {
		g := make([]float64, len(res.X))
		obj.grad(g, res.X)
		if floats.Norm(g, math.Inf(1)) <= StallGradientTolerance {
			return nil
		}
	}

	if err != nil {
		return fmt.Errorf("%w: status %s after %d iterations: %v",
			contracts.ErrOptimizationFailed, res.Status, res.MajorIterations, err)
	}
	return fmt.Errorf("%w: status %s after %d iterations",
		contracts.ErrOptimizationFailed, res.Status, res.MajorIterations)
}

// objective is −Sharpe(softmax(z))
type objective struct {
	calc *metrics.Calculator
	w    []float64
	g    []float64
}

func newObjective(calc *metrics.Calculator) *objective {
	n := calc.Assets()
	return &objective{calc: calc, w: make([]float64, n), g: make([]float64, n)}
}

func (f *objective) value(z []float64) float64 {
	softmax(f.w, z)
	return -f.calc.Evaluate(f.w).Sharpe
}

// grad applies the softmax Jacobian: ∂(−S)/∂z_k = −w_k (g_k − w·g)
func (f *objective) grad(dst, z []float64) {
	softmax(f.w, z)
	f.calc.SharpeGradient(f.g, f.w)
	wg := floats.Dot(f.w, f.g)
	for k := range dst {
		dst[k] = -f.w[k] * (f.g[k] - wg)
	}
}

// softmax writes exp(z)/Σexp(z) into dst (allocated when nil)
func softmax(dst, z []float64) []float64 {
	if dst == nil {
		dst = make([]float64, len(z))
	}
	zmax := floats.Max(z)
	sum := 0.0
	for i, v := range z {
		dst[i] = math.Exp(v - zmax)
		sum += dst[i]
	}
	floats.Scale(1/sum, dst)
	return dst
}

// snap zeroes negligible weights and renormalizes onto the simplex
func snap(w []float64) (contracts.WeightVector, error) {
	for i, v := range w {
		if v < SnapThreshold {
			w[i] = 0
		}
	}
	sum := floats.Sum(w)
	if sum <= 0 {
		return contracts.WeightVector{}, errors.New("all weights vanished")
	}
	floats.Scale(1/sum, w)
	for i, v := range w {
		w[i] = math.Min(v, 1)
	}
	return contracts.NewWeightVector(w)
}
