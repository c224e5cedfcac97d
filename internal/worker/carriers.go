package worker

import (
	"context"
	"fmt"

	"github.com/ppiankov/vibecheck/internal/model"
)

// CarrierScorer researches one carrier and scores it
type CarrierScorer interface {
	ScoreCarrier(ctx context.Context, carrier model.Carrier) (*model.Research, model.CHIResult, error)
}

// CarrierJob scores a single carrier
type CarrierJob struct {
	Carrier model.Carrier
	Scorer  CarrierScorer
}

// Execute executes the carrier job
func (j *CarrierJob) Execute(ctx context.Context) Result {
	research, chi, err := j.Scorer.ScoreCarrier(ctx, j.Carrier)
	if err != nil {
		return &CarrierResult{
			Carrier: j.Carrier,
			Error:   fmt.Errorf("score %s: %w", j.Carrier.ID, err),
		}
	}
	return &CarrierResult{
		Carrier:  j.Carrier,
		Research: research,
		CHI:      chi,
	}
}

// CarrierResult is the outcome of one carrier job
type CarrierResult struct {
	Carrier  model.Carrier
	Research *model.Research
	CHI      model.CHIResult
	Error    error
}

// GetError returns the error from the carrier result
func (r *CarrierResult) GetError() error {
	return r.Error
}

// BatchProcessor scores several carriers concurrently
type BatchProcessor struct {
	scorer      CarrierScorer
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(scorer CarrierScorer, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		scorer:      scorer,
		concurrency: concurrency,
	}
}

// ScoreCarriers returns one result per carrier, in input order.
// Carriers skipped because ctx was cancelled carry ctx's error.
func (b *BatchProcessor) ScoreCarriers(ctx context.Context, carriers []model.Carrier) []*CarrierResult {
	if len(carriers) == 0 {
		return []*CarrierResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	for _, c := range carriers {
		if !pool.Submit(&CarrierJob{Carrier: c, Scorer: b.scorer}) {
			break
		}
	}

	results := pool.Wait()

	out := make([]*CarrierResult, len(carriers))
	for i, c := range carriers {
		if i < len(results) && results[i] != nil {
			out[i] = results[i].(*CarrierResult)
			continue
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		out[i] = &CarrierResult{Carrier: c, Error: fmt.Errorf("score %s: %w", c.ID, err)}
	}

	return out
}

// FirstError returns the first failed result's error, if any
func FirstError(results []*CarrierResult) error {
	for _, r := range results {
		if r.Error != nil {
			return r.Error
		}
	}
	return nil
}
