package pipeline

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"github.com/gofflab/Lincer-1/internal/novel"
	"github.com/gofflab/Lincer-1/internal/sample"
)

// workItem holds one sample queued for the per-sample stage.
type workItem struct {
	Seq    int
	Sample sample.Sample
}

// workResult holds the per-sample stage output for one sample.
type workResult struct {
	Seq    int
	Sample sample.Sample
	Rows   []novel.Row
	Keep   map[string]bool
	Err    error
}

// runSampleStage filters every sample using a pool of workers. Each
// worker's comparator invocation is isolated in its own temporary
// directory, so samples are safe to process concurrently; results are
// collected in sample-sheet order regardless of completion order.
func (p *Pipeline) runSampleStage(ctx context.Context, samples []sample.Sample, refGTF string) error {
	workers := p.Workers
	if workers < 1 {
		workers = 1
	}
	if workers > len(samples) {
		workers = len(samples)
	}

	items := make(chan workItem, len(samples))
	for i, s := range samples {
		items <- workItem{Seq: i, Sample: s}
	}
	close(items)

	results := make(chan workResult, workers)

	var wg sync.WaitGroup
	wg.Add(workers)
	for i := 0; i < workers; i++ {
		go func() {
			defer wg.Done()
			for item := range items {
				rows, keep, err := p.processSample(ctx, item.Sample, refGTF)
				results <- workResult{
					Seq:    item.Seq,
					Sample: item.Sample,
					Rows:   rows,
					Keep:   keep,
					Err:    err,
				}
			}
		}()
	}

	go func() {
		wg.Wait()
		close(results)
	}()

	return p.collectSampleResults(results)
}

// collectSampleResults consumes results in sequence order, buffering
// out-of-order arrivals, and reports each sample as it completes. The
// first error wins; remaining results are drained so the workers can
// finish.
func (p *Pipeline) collectSampleResults(results <-chan workResult) error {
	pending := make(map[int]workResult)
	nextSeq := 0
	var firstErr error

	handle := func(r workResult) {
		if r.Err != nil {
			if firstErr == nil {
				firstErr = r.Err
			}
			return
		}
		if firstErr != nil {
			return
		}

		p.logger.Info("processed sample",
			zap.String("sample", r.Sample.Name),
			zap.Int("transcripts", len(r.Rows)),
			zap.Int("novel", len(r.Keep)))

		if p.Audit != nil {
			if err := p.Audit.WriteSampleRows(r.Sample.Name, r.Rows, r.Keep); err != nil {
				firstErr = err
			}
		}
	}

	for r := range results {
		pending[r.Seq] = r
		for {
			next, ok := pending[nextSeq]
			if !ok {
				break
			}
			delete(pending, nextSeq)
			nextSeq++
			handle(next)
		}
	}

	for _, r := range pending {
		if r.Err != nil && firstErr == nil {
			firstErr = r.Err
		}
	}

	return firstErr
}
