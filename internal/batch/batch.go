// Package batch runs one metadata operation over many paths.
package batch

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"sync"
	"time"

	"github.com/On-Jun9/ShutterMeta/internal/log"
	"github.com/On-Jun9/ShutterMeta/pkg/types"
	"github.com/sourcegraph/conc/pool"
)

// Operations is the subset of the metadata service a batch needs.
type Operations interface {
	GetAllMetadata(path string) (types.AllMetadata, error)
	GetCatalogMetadata(path string) (*types.CatalogRecord, error)
	GetOverlayMetadata(path string) (*types.OverlayRecord, error)
}

type Runner struct {
	ops              Operations
	jobs             int
	logger           *log.Logger
	progressCallback ProgressCallback
}

// New uses runtime.NumCPU() workers when jobs is not positive.
func New(ops Operations, jobs int, logger *log.Logger) *Runner {
	if jobs <= 0 {
		jobs = runtime.NumCPU()
	}
	if logger == nil {
		logger = log.Nop()
	}
	return &Runner{ops: ops, jobs: jobs, logger: logger}
}

func (r *Runner) SetProgressCallback(cb ProgressCallback) {
	r.progressCallback = cb
}

// Run applies op to every path. Results keep the input order; a failed path
// does not stop the others.
func (r *Runner) Run(op types.Op, paths []string) ([]types.BatchResult, *types.BatchSummary, error) {
	call, err := r.operation(op)
	if err != nil {
		return nil, nil, err
	}

	startTime := time.Now()
	r.logger.Info("Starting " + string(op) + " on " + strconv.Itoa(len(paths)) + " files")

	if r.progressCallback != nil {
		r.progressCallback(ProgressUpdate{
			Type:    "status",
			Message: "reading metadata",
			Total:   len(paths),
		})
	}

	results := make([]types.BatchResult, len(paths))
	var mu sync.Mutex
	processed := 0

	p := pool.New().WithMaxGoroutines(r.jobs)
	for i, path := range paths {
		p.Go(func() {
			res := types.BatchResult{Path: path}
			value, err := call(path)
			if err != nil {
				res.Error = err.Error()
				res.Kind = string(types.KindOf(err))
			} else {
				res.Value = value
			}
			results[i] = res

			mu.Lock()
			processed++
			current := processed
			r.logger.Progress(current, len(paths), filepath.Base(path))
			if r.progressCallback != nil {
				r.progressCallback(ProgressUpdate{
					Type:     "progress",
					Current:  current,
					Total:    len(paths),
					Filename: filepath.Base(path),
					Error:    res.Error,
				})
			}
			mu.Unlock()
		})
	}
	p.Wait()

	summary := &types.BatchSummary{
		Op:        op,
		Total:     len(paths),
		StartTime: startTime,
	}
	for _, res := range results {
		switch {
		case res.Error == "":
			summary.Succeeded++
		case res.Kind == string(types.ErrorKindNotFound):
			summary.NotFound++
			summary.Failed++
		default:
			summary.Failed++
		}
	}
	summary.EndTime = time.Now()
	summary.Duration = summary.EndTime.Sub(startTime)

	r.logger.Summary(*summary)

	if r.progressCallback != nil {
		r.progressCallback(ProgressUpdate{
			Type:    "complete",
			Summary: summary,
		})
	}
	return results, summary, nil
}

func (r *Runner) operation(op types.Op) (func(string) (any, error), error) {
	switch op {
	case types.OpGetAllMetadata:
		return func(path string) (any, error) {
			v, err := r.ops.GetAllMetadata(path)
			if err != nil {
				return nil, err
			}
			return v, nil
		}, nil
	case types.OpGetCatalogMetadata:
		return func(path string) (any, error) {
			v, err := r.ops.GetCatalogMetadata(path)
			if err != nil {
				return nil, err
			}
			return v, nil
		}, nil
	case types.OpGetOverlayMetadata:
		return func(path string) (any, error) {
			v, err := r.ops.GetOverlayMetadata(path)
			if err != nil {
				return nil, err
			}
			return v, nil
		}, nil
	}
	return nil, fmt.Errorf("unknown operation: %s", op)
}
