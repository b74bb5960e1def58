// Package batch discovers recordings in a folder and audits them through a
// bounded worker pool. One bad call never stops the batch; the coordinator
// records the failure and moves on.
package batch

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"call-audit-go/internal/domain"
	"call-audit-go/internal/logger"
	"call-audit-go/internal/pipeline"
	"call-audit-go/internal/store"
)

// ErrNoAudioFiles is returned by Run when the folder holds nothing to audit.
var ErrNoAudioFiles = errors.New("no audio files found")

// audioExtensions are the recording formats the scanner admits.
var audioExtensions = map[string]bool{
	".wav":  true,
	".mp3":  true,
	".m4a":  true,
	".flac": true,
	".ogg":  true,
	".opus": true,
}

// Options configure one batch run.
type Options struct {
	Depth domain.AnalysisDepth
	// Workers bounds pipeline concurrency. Values below one collapse to
	// sequential processing.
	Workers int
	// Timeout bounds the whole batch. Zero means no batch deadline.
	Timeout time.Duration
	// MinScore is the QA score a call must reach to count as passed.
	MinScore float64
}

// Coordinator fans calls out to the orchestrator and folds the results into
// one BatchResult.
type Coordinator struct {
	orch    *pipeline.Orchestrator
	results *store.Store
	opts    Options
	log     *logger.Logger
}

// NewCoordinator builds a coordinator. The result store may be nil when
// persistence is disabled.
func NewCoordinator(orch *pipeline.Orchestrator, results *store.Store, opts Options) *Coordinator {
	if opts.Workers < 1 {
		opts.Workers = 1
	}
	if opts.MinScore <= 0 {
		opts.MinScore = domain.DefaultPassThreshold
	}
	if opts.Depth == "" {
		opts.Depth = domain.DepthStandard
	}
	return &Coordinator{orch: orch, results: results, opts: opts, log: logger.New()}
}

// validateAudio rejects unreadable or empty recordings before the call
// enters the pipeline state machine.
func validateAudio(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("unreadable audio file: %v", err)
	}
	if info.Size() == 0 {
		return fmt.Errorf("empty audio file: %s", path)
	}
	return nil
}

// Scan lists the audio files directly inside folder, sorted by name.
func Scan(folder string) ([]string, error) {
	entries, err := os.ReadDir(folder)
	if err != nil {
		return nil, fmt.Errorf("read folder %s: %w", folder, err)
	}
	var paths []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		if audioExtensions[strings.ToLower(filepath.Ext(e.Name()))] {
			paths = append(paths, filepath.Join(folder, e.Name()))
		}
	}
	sort.Strings(paths)
	return paths, nil
}

// Run audits every recording in folder and returns the aggregated batch.
// An error is returned only when the folder itself cannot be processed;
// per-call failures land in the batch result.
func (c *Coordinator) Run(ctx context.Context, folder string) (*domain.BatchResult, error) {
	paths, err := Scan(folder)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoAudioFiles, folder)
	}

	// The batch deadline bounds admission only. A call already handed to a
	// worker finishes or times out under its own stage timeouts; the
	// caller's context still cancels in-flight work on interrupt.
	admitCtx := ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		admitCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	batchID := uuid.NewString()
	start := time.Now()
	log := c.log.WithField("batch_id", batchID)
	log.WithField("calls", len(paths)).WithField("workers", c.opts.Workers).Info("batch started")

	calls := make([]*domain.Call, len(paths))
	for i, p := range paths {
		calls[i] = domain.NewCall(p, c.opts.Depth)
	}

	results := c.processAll(ctx, admitCtx, batchID, calls)

	batch := c.aggregate(batchID, calls, results, time.Since(start))
	log.WithField("completed", batch.CompletedCalls).
		WithField("failed", len(batch.FailedCalls)).
		WithField("approval_rate", batch.ApprovalRate()).
		Info("batch finished")
	return batch, nil
}

// processAll runs the pool. Workers process under ctx; admitCtx carries the
// batch deadline and gates admission only. Results come back indexed like
// calls.
func (c *Coordinator) processAll(ctx, admitCtx context.Context, batchID string, calls []*domain.Call) []*domain.AuditResult {
	results := make([]*domain.AuditResult, len(calls))

	jobs := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < c.opts.Workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range jobs {
				results[i] = c.processOne(ctx, batchID, calls[i])
			}
		}()
	}

admit:
	for i := range calls {
		select {
		case <-admitCtx.Done():
			break admit
		case jobs <- i:
		}
	}
	close(jobs)
	wg.Wait()

	// Calls never admitted fail without a result document.
	for i, call := range calls {
		if results[i] == nil {
			call.SetFailed(fmt.Sprintf("not started: %v", context.Cause(admitCtx)))
			results[i] = &domain.AuditResult{Call: call, GeneratedAt: time.Now().UTC()}
		}
	}
	return results
}

func (c *Coordinator) processOne(ctx context.Context, batchID string, call *domain.Call) *domain.AuditResult {
	var result *domain.AuditResult
	if err := validateAudio(call.AudioPath); err != nil {
		call.SetFailed(err.Error())
		result = &domain.AuditResult{Call: call, GeneratedAt: time.Now().UTC()}
	} else {
		result = c.orch.Process(ctx, call)
	}
	if c.results != nil {
		if err := c.results.Save(context.WithoutCancel(ctx), batchID, result); err != nil {
			c.log.WithCall(call.ID, call.Filename).WithField("error", err.Error()).Warn("result not persisted")
		}
	}
	return result
}

func (c *Coordinator) aggregate(batchID string, calls []*domain.Call, results []*domain.AuditResult, elapsed time.Duration) *domain.BatchResult {
	batch := &domain.BatchResult{
		BatchID:               batchID,
		Results:               results,
		TotalCalls:            len(calls),
		ProcessingTimeSeconds: elapsed.Seconds(),
		GeneratedAt:           time.Now().UTC(),
	}

	var qaSum float64
	var qaCount int
	for _, r := range results {
		if r.Call.Status == domain.StatusFailed {
			batch.FailedCalls = append(batch.FailedCalls, domain.FailedCall{
				CallID:   r.Call.ID,
				Filename: r.Call.Filename,
				Error:    r.Call.ErrorMessage,
			})
			continue
		}
		batch.CompletedCalls++
		if r.IsPassing(c.opts.MinScore) {
			batch.PassedCalls++
		}
		batch.CriticalFindingsCount += len(r.CriticalFindings())
		if qa := r.QAScore(); qa != nil {
			qaSum += *qa
			qaCount++
		}
	}
	if qaCount > 0 {
		batch.AvgQAScore = qaSum / float64(qaCount)
	}
	return batch
}
