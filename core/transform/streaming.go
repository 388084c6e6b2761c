package transform

import (
	"context"

	"github.com/YuminosukeSato/adaptgo/pkg/errors"
)

// AdaptBatches runs a full adapt pass over the given batches: previous
// state is discarded, every batch is accumulated, and the state is
// finalized. Passing no batches returns ErrEmptyData.
func AdaptBatches(t StreamingAdapter, batches ...*Batch) error {
	if len(batches) == 0 {
		return errors.Wrap(errors.ErrEmptyData, t.Name()+".AdaptBatches")
	}

	t.ResetState()
	for _, b := range batches {
		if err := t.UpdateState(b); err != nil {
			return err
		}
	}
	return t.FinalizeState()
}

// AdaptChunks adapts a transform from a channel of batches.
// Accumulation continues until the channel is closed, then the state is
// finalized. If the context is canceled before the channel closes, the
// transform is left unadapted and the context error is returned.
func AdaptChunks(ctx context.Context, t StreamingAdapter, chunks <-chan *Batch) error {
	t.ResetState()

	received := 0
	for {
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), t.Name()+".AdaptChunks")
		case b, ok := <-chunks:
			if !ok {
				if received == 0 {
					return errors.Wrap(errors.ErrEmptySample, t.Name()+".AdaptChunks")
				}
				return t.FinalizeState()
			}
			if err := t.UpdateState(b); err != nil {
				return err
			}
			received++
		}
	}
}
