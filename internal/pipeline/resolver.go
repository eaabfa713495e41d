package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/ternarybob/arbor"

	"github.com/ternarybob/congrego/internal/directory"
	"github.com/ternarybob/congrego/internal/interfaces"
	"github.com/ternarybob/congrego/internal/models"
	"github.com/ternarybob/congrego/internal/parser"
)

// Delayer is the resolver's backpressure policy, applied between consecutive
// batches. The fixed-sleep implementation matches the directory service's
// rate ceiling; swapping in a token bucket touches nothing else.
type Delayer interface {
	Delay(ctx context.Context) error
}

type fixedDelayer struct {
	d time.Duration
}

// NewFixedDelayer returns a Delayer that sleeps a fixed duration,
// waking early on context cancellation.
func NewFixedDelayer(d time.Duration) Delayer {
	return &fixedDelayer{d: d}
}

func (f *fixedDelayer) Delay(ctx context.Context) error {
	if f.d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(f.d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// FailedIdentifier pairs an identifier with the reason it did not resolve
type FailedIdentifier struct {
	Identifier *parser.ParsedIdentifier
	Reason     string
}

// BatchOutcome is one batch's classified result
type BatchOutcome struct {
	Resolved []models.ResolvedGroup
	Failed   []FailedIdentifier
}

// ResolveResult aggregates every batch processed before the run ended
type ResolveResult struct {
	Resolved []models.ResolvedGroup
	Failed   []FailedIdentifier
}

// BatchResolver maps parsed identifiers to canonical descriptors through the
// directory service, one fixed-size batch per call, sequentially.
type BatchResolver struct {
	directory interfaces.GroupDirectory
	batchSize int
	delayer   Delayer
	logger    arbor.ILogger
}

// NewBatchResolver creates a resolver. batchSize is clamped to the directory
// service's own per-call limit.
func NewBatchResolver(dir interfaces.GroupDirectory, batchSize int, delayer Delayer, logger arbor.ILogger) *BatchResolver {
	if batchSize <= 0 || batchSize > directory.MaxBatchSize {
		batchSize = directory.MaxBatchSize
	}
	return &BatchResolver{
		directory: dir,
		batchSize: batchSize,
		delayer:   delayer,
		logger:    logger,
	}
}

// Resolve processes the identifiers batch by batch. onBatch, when non-nil,
// observes each batch's outcome as it lands.
//
// A fatal directory error (rate limit, quota, auth) aborts the remaining
// batches; completed batches are NOT rolled back and are returned alongside
// the error so the caller can persist partial progress. Any other per-batch
// error marks that whole batch failed and the loop continues.
func (r *BatchResolver) Resolve(ctx context.Context, identifiers []*parser.ParsedIdentifier, onBatch func(*BatchOutcome)) (*ResolveResult, error) {
	result := &ResolveResult{}

	for start := 0; start < len(identifiers); start += r.batchSize {
		if start > 0 {
			if err := r.delayer.Delay(ctx); err != nil {
				return result, err
			}
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}

		end := start + r.batchSize
		if end > len(identifiers) {
			end = len(identifiers)
		}
		batch := identifiers[start:end]

		outcome, err := r.resolveBatch(ctx, batch)
		if err != nil {
			if isFatalResolveError(err) {
				r.logger.Error().Err(err).
					Int("batch_start", start).
					Msg("Fatal directory error, aborting remaining batches")
				return result, err
			}

			// Isolated partial failure: the whole batch is marked
			// failed and the loop continues.
			r.logger.Warn().Err(err).
				Int("batch_start", start).
				Int("batch_size", len(batch)).
				Msg("Batch resolution failed, continuing with next batch")
			outcome = &BatchOutcome{}
			for _, ident := range batch {
				outcome.Failed = append(outcome.Failed, FailedIdentifier{Identifier: ident, Reason: err.Error()})
			}
		}

		result.Resolved = append(result.Resolved, outcome.Resolved...)
		result.Failed = append(result.Failed, outcome.Failed...)
		if onBatch != nil {
			onBatch(outcome)
		}
	}

	return result, nil
}

// resolveBatch issues one directory call and matches the response back to
// the identifiers. Identifiers absent from the response were not found or
// are inaccessible.
func (r *BatchResolver) resolveBatch(ctx context.Context, batch []*parser.ParsedIdentifier) (*BatchOutcome, error) {
	refs := make([]string, len(batch))
	for i, ident := range batch {
		refs[i] = ident.Ref()
	}

	groups, err := r.directory.ResolveGroups(ctx, refs)
	if err != nil {
		return nil, err
	}

	byID := make(map[int64]models.ResolvedGroup, len(groups))
	byName := make(map[string]models.ResolvedGroup, len(groups))
	for _, g := range groups {
		byID[g.ExternalID] = g
		if g.ScreenName != "" {
			byName[strings.ToLower(g.ScreenName)] = g
		}
	}

	outcome := &BatchOutcome{}
	for _, ident := range batch {
		if g, ok := byID[ident.ID]; ok && ident.ID > 0 {
			outcome.Resolved = append(outcome.Resolved, g)
			continue
		}
		if g, ok := byName[strings.ToLower(ident.ScreenName)]; ok && ident.ScreenName != "" {
			outcome.Resolved = append(outcome.Resolved, g)
			continue
		}
		outcome.Failed = append(outcome.Failed, FailedIdentifier{
			Identifier: ident,
			Reason:     "not found or inaccessible",
		})
	}
	return outcome, nil
}

// isFatalResolveError reports whether the error class must abort the run
func isFatalResolveError(err error) bool {
	var rateErr *directory.RateLimitError
	var authErr *directory.AuthError
	return errors.As(err, &rateErr) || errors.As(err, &authErr)
}
