package cli

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/me/schedsim/internal/playback"
	"github.com/me/schedsim/pkg/model"
)

// replayResult walks the timeline at delay per slice, describing each slice
// on a progress bar written to w.
func replayResult(ctx context.Context, w io.Writer, res *model.Result, delay time.Duration) error {
	if len(res.Execution) == 0 {
		return nil
	}
	if ctx == nil {
		ctx = context.Background()
	}

	bar := progressbar.NewOptions(len(res.Execution),
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(resultTitle(res)),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "█",
			SaucerHead:    "█",
			SaucerPadding: "░",
			BarStart:      "",
			BarEnd:        "",
		}),
		progressbar.OptionClearOnFinish(),
	)

	_, err := playback.Replay(ctx, res.Execution, delay, func(i int, rec model.ExecutionRecord) error {
		bar.Describe(describeSlice(rec, snapshotAt(res.QueueHistory, rec)))
		return bar.Add(1)
	})
	if err != nil {
		return fmt.Errorf("replay: %w", err)
	}
	return bar.Finish()
}

func describeSlice(rec model.ExecutionRecord, queue []string) string {
	desc := fmt.Sprintf("t=%d-%d %s", rec.Start, rec.Finish, rec.Name)
	if len(queue) > 0 {
		desc += " | ready: " + strings.Join(queue, " ")
	}
	return desc
}

// snapshotAt returns the ready queue recorded when rec was dispatched.
func snapshotAt(history []model.QueueSnapshot, rec model.ExecutionRecord) []string {
	for _, snap := range history {
		if snap.Time == rec.Start && snap.Executing == rec.Name {
			return snap.Queue
		}
	}
	return nil
}
