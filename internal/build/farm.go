package build

import (
	"context"
	"fmt"
	"runtime"
	"sync"
	"time"

	"github.com/conneroisu/bundler/internal/asset"
	"github.com/conneroisu/bundler/internal/errors"
	"github.com/conneroisu/bundler/internal/interfaces"
	"github.com/conneroisu/bundler/internal/logging"
	"github.com/conneroisu/bundler/internal/types"
)

var _ interfaces.Farm = (*Farm)(nil)

// job is one unit of farm work: reconstruct an asset from (path, pkg,
// options) and run its pipeline to completion.
type job struct {
	ctx     context.Context
	path    string
	pkg     types.Package
	options types.ProcessOptions
	result  chan jobResult
}

type jobResult struct {
	result types.ProcessedResult
	err    error
}

// Farm is the worker farm (C4): a fixed pool of goroutines, each
// isolated in the sense that it only ever sees (path, pkg, options) and
// reconstructs its own *asset.Asset rather than sharing the
// coordinator's graph state, per spec.md §4.3. The pool shape (buffered
// job channel, context-cancellable workers, WaitGroup drain on End)
// is the teacher's WorkerManager pattern retargeted from compiling
// templ components to running asset.Registry.GetAsset(...).Process.
type Farm struct {
	jobs   chan job
	wg     sync.WaitGroup
	cancel context.CancelFunc

	closeOnce sync.Once
	closed    bool
	mu        sync.Mutex

	metrics interfaces.BuildMetrics // may be nil: no throughput tracking
	log     logging.Logger
}

// NewFarm starts a Farm with the given number of workers (0 means
// runtime.NumCPU()). metrics may be nil.
func NewFarm(workers int, metrics interfaces.BuildMetrics, log logging.Logger) *Farm {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	ctx, cancel := context.WithCancel(context.Background())
	f := &Farm{
		jobs:    make(chan job, workers*4),
		cancel:  cancel,
		metrics: metrics,
		log:     log.WithComponent("farm"),
	}

	for i := 0; i < workers; i++ {
		f.wg.Add(1)
		go f.worker(ctx)
	}
	return f
}

func (f *Farm) worker(ctx context.Context) {
	defer f.wg.Done()
	for {
		select {
		case <-ctx.Done():
			return
		case j, ok := <-f.jobs:
			if !ok {
				return
			}
			f.runJob(j)
		}
	}
}

func (f *Farm) runJob(j job) {
	start := time.Now()
	result, err := f.process(j)
	if err != nil && errors.Is(err, errors.ErrorTypeWorkerCrashed) {
		// A WorkerCrashed error is retried exactly once (spec.md §7).
		result, err = f.process(j)
	}
	if f.metrics != nil {
		f.metrics.RecordJob(time.Since(start), err == nil)
	}
	j.result <- jobResult{result: result, err: err}
}

func (f *Farm) process(j job) (result types.ProcessedResult, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.WorkerCrashed(j.path, fmt.Errorf("panic: %v", r))
		}
	}()

	registry := asset.RegistryFromOptions(j.options)
	a := registry.GetAsset(j.path, j.pkg, j.options)
	return a.Process(j.ctx)
}

// Run implements interfaces.Farm: dispatch one asset to the pool and
// block for its result.
func (f *Farm) Run(ctx context.Context, path string, pkg types.Package, options types.ProcessOptions) (types.ProcessedResult, error) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return types.ProcessedResult{}, errors.FarmClosed()
	}
	f.mu.Unlock()

	resultCh := make(chan jobResult, 1)
	j := job{ctx: ctx, path: path, pkg: pkg, options: options, result: resultCh}

	select {
	case f.jobs <- j:
	case <-ctx.Done():
		return types.ProcessedResult{}, ctx.Err()
	}

	select {
	case r := <-resultCh:
		return r.result, r.err
	case <-ctx.Done():
		return types.ProcessedResult{}, ctx.Err()
	}
}

// End implements interfaces.Farm, stopping every worker and waiting for
// in-flight jobs to drain.
func (f *Farm) End() error {
	f.closeOnce.Do(func() {
		f.mu.Lock()
		f.closed = true
		f.mu.Unlock()

		f.cancel()
		f.wg.Wait()
	})
	return nil
}
