package evaluator

import "math"

const ScanReadyProgress = 98.0

// AlignmentProgress maps an unadjusted face size ratio to 0..100. Ratios below
// InitialMinFaceSizeRatio reset progress to 0.
func AlignmentProgress(rawSizeRatio float64) float64 {
	if rawSizeRatio < InitialMinFaceSizeRatio {
		return 0
	}

	normalized := (rawSizeRatio - InitialMinFaceSizeRatio) /
		(FinalMinFaceSizeRatio - InitialMinFaceSizeRatio)

	return math.Min(100, math.Max(0, math.Pow(normalized, 1.5)*100))
}

// ReadyToScan is the moving-closer exit condition.
func ReadyToScan(e Evaluation, progress float64) bool {
	return progress >= ScanReadyProgress &&
		e.IsFaceInsideBoundary &&
		e.Status.IsFaceAlignedWithOverlay &&
		!e.Status.IsFaceTooClose &&
		!e.Status.IsFaceFar
}
