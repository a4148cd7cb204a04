// Package runner drives one action over a batch of input items.
//
// Items are processed one at a time, in order. Each item's processing yields
// a Result; the Runner's ContinueOnFail policy decides whether a failed Result
// aborts the batch or is turned into an {"error": message} output paired to
// the item and the batch moves on.
package runner

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

var mailItemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "mail_items_total",
	Help: "Total input items processed by outcome",
}, []string{"outcome"})

const (
	outcomeSuccess  = "success"
	outcomeCaptured = "captured"
	outcomeAborted  = "aborted"
)

// Processor executes the action for one item and returns its output records.
type Processor func(ctx context.Context, index int, item map[string]any) ([]map[string]any, error)

// Result is the outcome of one item: records on success, Err on failure.
type Result struct {
	Index   int
	Records []map[string]any
	Err     error
}

// Failed reports whether the item failed.
func (r Result) Failed() bool {
	return r.Err != nil
}

// Output is one output record paired to the index of the item that produced it.
type Output struct {
	JSON       map[string]any `json:"json"`
	PairedItem int            `json:"pairedItem"`
}

// ItemError is returned when a failed item aborts the batch.
type ItemError struct {
	Index int
	Err   error
}

// Error implements the error interface.
func (e *ItemError) Error() string {
	return fmt.Sprintf("item %d: %v", e.Index, e.Err)
}

// Unwrap implements error unwrapping for errors.Is/As.
func (e *ItemError) Unwrap() error {
	return e.Err
}

// Runner applies the failure policy over a batch.
type Runner struct {
	// ContinueOnFail captures item failures as outputs instead of aborting.
	ContinueOnFail bool

	logger zerolog.Logger
}

// New creates a runner.
func New(continueOnFail bool) *Runner {
	return &Runner{
		ContinueOnFail: continueOnFail,
		logger:         log.With().Str("component", "runner").Logger(),
	}
}

// Process runs proc for a single item.
func (r *Runner) Process(ctx context.Context, index int, item map[string]any, proc Processor) Result {
	records, err := proc(ctx, index, item)
	if err != nil {
		return Result{Index: index, Err: err}
	}
	return Result{Index: index, Records: records}
}

// Run processes items sequentially. Without ContinueOnFail the first failure
// is returned as *ItemError and no outputs are returned.
func (r *Runner) Run(ctx context.Context, items []map[string]any, proc Processor) ([]Output, error) {
	logger := r.logger.With().
		Str("execution_id", uuid.NewString()).
		Int("items", len(items)).
		Bool("continue_on_fail", r.ContinueOnFail).
		Logger()

	outputs := make([]Output, 0, len(items))
	failed := 0

	for i, item := range items {
		res := r.Process(ctx, i, item, proc)

		if !res.Failed() {
			mailItemsTotal.WithLabelValues(outcomeSuccess).Inc()
			for _, rec := range res.Records {
				outputs = append(outputs, Output{JSON: rec, PairedItem: i})
			}
			continue
		}

		if !r.ContinueOnFail {
			mailItemsTotal.WithLabelValues(outcomeAborted).Inc()
			logger.Error().Err(res.Err).Int("item_index", i).Msg("Item failed, aborting batch")
			return nil, &ItemError{Index: i, Err: res.Err}
		}

		failed++
		mailItemsTotal.WithLabelValues(outcomeCaptured).Inc()
		logger.Warn().Err(res.Err).Int("item_index", i).Msg("Item failed, continuing")
		outputs = append(outputs, Output{
			JSON:       map[string]any{"error": res.Err.Error()},
			PairedItem: i,
		})
	}

	logger.Info().
		Int("outputs", len(outputs)).
		Int("failed", failed).
		Msg("Batch complete")

	return outputs, nil
}
