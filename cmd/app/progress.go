package main

import (
	"context"
	"fmt"
	"io"
	"math"

	"FaceScan/internal/entity"
	"FaceScan/internal/stage"

	"github.com/schollz/progressbar/v3"
)

// progressValue maps a snapshot to a 0-100 bar value and a description.
// Before scanning the bar tracks face alignment; during the scan it tracks
// how many colors have been shown.
func progressValue(s stage.Snapshot, colors int) (int, string) {
	switch s.Stage {
	case entity.StageScanning:
		if colors == 0 {
			return 0, "Scanning"
		}
		done := float64(s.Scan.CurrentColorIndex) / float64(colors)
		return int(math.Round(done * 100)), fmt.Sprintf("Scanning %d/%d", s.Scan.CurrentColorIndex, colors)
	case entity.StageCompleted:
		return 100, "Completed"
	default:
		desc := s.Guidance.Text
		if s.Error != "" {
			desc = s.Error
		}
		if desc == "" {
			desc = s.Stage.String()
		}
		return int(math.Round(s.AlignmentProgress)), desc
	}
}

func watchProgress(ctx context.Context, board *stage.Board, out io.Writer) {
	bar := progressbar.NewOptions(100,
		progressbar.OptionSetDescription("Waiting for start"),
		progressbar.OptionSetWriter(out),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionClearOnFinish(),
	)

	snapshots, unsubscribe := board.Subscribe()
	defer unsubscribe()

	for {
		select {
		case <-ctx.Done():
			return
		case s, ok := <-snapshots:
			if !ok {
				return
			}
			value, desc := progressValue(s, len(entity.ScanColors))
			bar.Describe(desc)
			_ = bar.Set(value)
		}
	}
}
