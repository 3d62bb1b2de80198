// Package playback paces the presentation of an already computed timeline.
// It never recomputes or reorders anything.
package playback

import (
	"context"
	"time"

	"github.com/me/schedsim/pkg/model"
)

// DefaultDelay matches the pacing of the original browser animation.
const DefaultDelay = 500 * time.Millisecond

// StepFunc receives each record in order. Returning an error stops playback.
type StepFunc func(i int, rec model.ExecutionRecord) error

// Replay calls fn for every record, waiting delay between consecutive
// records. A non-positive delay replays without pausing. It returns the
// number of records shown and ctx.Err() when cancelled part way.
func Replay(ctx context.Context, records []model.ExecutionRecord, delay time.Duration, fn StepFunc) (int, error) {
	if len(records) == 0 {
		return 0, ctx.Err()
	}

	var tick <-chan time.Time
	if delay > 0 {
		ticker := time.NewTicker(delay)
		defer ticker.Stop()
		tick = ticker.C
	}

	shown := 0
	for i, rec := range records {
		if i > 0 && tick != nil {
			select {
			case <-ctx.Done():
				return shown, ctx.Err()
			case <-tick:
			}
		} else if err := ctx.Err(); err != nil {
			return shown, err
		}

		if err := fn(i, rec); err != nil {
			return shown, err
		}
		shown++
	}
	return shown, nil
}
