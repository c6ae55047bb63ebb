package entity

import "time"

const (
	DurationPerColor = 700 * time.Millisecond
	ScanHeight       = 5.0
	ScanPositionMax  = 100.0

	// ColorChangeThreshold is the scan position at which a color counts as captured.
	ColorChangeThreshold = 97.0

	SimulatedScanStep = 20.0

	Transparent = "transparent"
)

// ScanColors is flashed in order. The transparent entries mark the start,
// middle and end of the sequence.
var ScanColors = []string{
	"#00000000",
	"#000000",
	"#0000FF",
	"#FFFF00",
	"#00FF00",
	"#00000000",
	"#FF0000",
	"#0000FF",
	"#00FFFF",
	"#00FF00",
	"#00000000",
}

type ScanSample struct {
	CurrentColorIndex int     `json:"currentColorIndex"`
	ScanPosition      float64 `json:"scanPosition"`
	PreviousColor     string  `json:"previousColor"`
}

func InitialScanSample() ScanSample {
	return ScanSample{
		CurrentColorIndex: 0,
		ScanPosition:      -ScanHeight,
		PreviousColor:     Transparent,
	}
}

// ColorAt returns the sequence color at index, or transparent outside the sequence.
func ColorAt(index int) string {
	if index < 0 || index >= len(ScanColors) {
		return Transparent
	}
	return ScanColors[index]
}

type TimelineMode uint8

const (
	TimelineModeFrame     TimelineMode = 0
	TimelineModeSimulated TimelineMode = 1
)

var TimelineModeMap = map[TimelineMode]string{
	TimelineModeFrame:     "frame",
	TimelineModeSimulated: "simulated",
}

func (m TimelineMode) String() string {
	return TimelineModeMap[m]
}

func ParseTimelineMode(s string) (TimelineMode, bool) {
	for mode, name := range TimelineModeMap {
		if name == s {
			return mode, true
		}
	}
	return TimelineModeFrame, false
}
