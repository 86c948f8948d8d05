package validation

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"math/rand/v2"
	"strconv"

	"github.com/DataDog/sketches-go/ddsketch"
	"github.com/keilerkonzept/ams"
)

// errorsRelativeAccuracy is the relative accuracy of the error quantiles.
const errorsRelativeAccuracy = 0.01

// Config describes a validation experiment: Runs independent sketches each observe
// items 0..N-1, every item Repeat times.
type Config struct {
	K       int
	N       int
	Lambda  float64
	Epsilon float64
	Runs    int
	Repeat  int64
	Hash    ams.HashFunc
	Rand    *rand.Rand // Seed source; nil uses the process-wide source.
}

// Result is a single run's estimate and the exact moment.
type Result struct {
	Estimate float64
	Actual   float64
}

// Error returns |Estimate - Actual|.
func (r Result) Error() float64 { return math.Abs(r.Estimate - r.Actual) }

// Report holds the results of a validation experiment and their error summary.
type Report struct {
	Config
	Width   int
	Depth   int
	Results []Result

	// MeanError is the mean absolute error over all runs.
	MeanError float64
	// MedianError is the median absolute error over all runs.
	MedianError float64
	// ErrorProportion is the fraction of runs whose error exceeds Lambda*Actual.
	ErrorProportion float64

	errors *ddsketch.DDSketch
}

// Run executes the experiment described by cfg.
func Run(cfg Config) (*Report, error) {
	if cfg.Runs < 1 || cfg.Repeat < 1 {
		return nil, fmt.Errorf("%w: runs=%d and repeat=%d must be at least 1", ams.ErrInvalidParameter, cfg.Runs, cfg.Repeat)
	}
	width, depth, err := ams.Dimensions(cfg.K, cfg.N, cfg.Lambda, cfg.Epsilon)
	if err != nil {
		return nil, err
	}
	errs, err := ddsketch.NewDefaultDDSketch(errorsRelativeAccuracy)
	if err != nil {
		return nil, err
	}

	out := Report{
		Config:  cfg,
		Width:   width,
		Depth:   depth,
		Results: make([]Result, 0, cfg.Runs),
		errors:  errs,
	}

	for range cfg.Runs {
		r, err := cfg.trial()
		if err != nil {
			return nil, err
		}
		out.Results = append(out.Results, r)
	}

	if err := out.summarize(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (cfg Config) trial() (Result, error) {
	sketch, err := ams.New(cfg.K, cfg.N, cfg.Lambda, cfg.Epsilon, ams.WithHash(cfg.Hash), ams.WithRand(cfg.Rand))
	if err != nil {
		return Result{}, err
	}
	exact := NewExact[uint64](cfg.K)

	// Add(x, c) leaves the same counters as c calls of Update(x).
	for i := range uint64(cfg.N) {
		if err := sketch.Add(i, cfg.Repeat); err != nil {
			return Result{}, err
		}
		exact.Add(i, cfg.Repeat)
	}

	return Result{Estimate: sketch.Estimate(), Actual: exact.Moment()}, nil
}

func (me *Report) summarize() error {
	errs := make([]float64, len(me.Results))
	var exceeded int
	var sum float64
	for i, r := range me.Results {
		errs[i] = r.Error()
		if math.IsNaN(errs[i]) || math.IsInf(errs[i], 0) {
			return fmt.Errorf("run %d: estimate %v and actual %v have no finite error", i, r.Estimate, r.Actual)
		}
		if errs[i] > me.Lambda*r.Actual {
			exceeded++
		}
		sum += errs[i]
		if err := me.errors.Add(errs[i]); err != nil {
			return fmt.Errorf("run %d: %w", i, err)
		}
	}
	me.MeanError = sum / float64(len(me.Results))
	me.MedianError = ams.Median(errs)
	me.ErrorProportion = float64(exceeded) / float64(len(me.Results))
	return nil
}

// ErrorQuantile returns the approximate q-quantile of the absolute errors.
func (me *Report) ErrorQuantile(q float64) (float64, error) {
	return me.errors.GetValueAtQuantile(q)
}

// WriteCSV writes one "estimate,actual" row per run, after a header row.
func (me *Report) WriteCSV(w io.Writer) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"estimate", "actual"}); err != nil {
		return err
	}
	for _, r := range me.Results {
		row := []string{
			strconv.FormatFloat(r.Estimate, 'g', -1, 64),
			strconv.FormatFloat(r.Actual, 'g', -1, 64),
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}
