package entity

// Wire event names exchanged with the remote peer.
const (
	EventVideoStart     = "video_start"
	EventVideoChunk     = "video_chunk"
	EventVideoEnd       = "video_end"
	EventColorChange    = "color_change"
	EventUserID         = "user_id"
	EventVideoProcessed = "video_processed"
)

// PreferredMimeTypes is tried in order when capture starts.
var PreferredMimeTypes = []string{
	"video/webm;codecs=vp9",
	"video/webm;codecs=vp8",
	"video/webm",
	"video/mp4;codecs=h264",
	"video/mp4",
}

type VideoChunk struct {
	StartTime int64  `json:"startTime"`
	EndTime   int64  `json:"endTime"`
	Sequence  int    `json:"sequence"`
	MimeType  string `json:"mimeType"`
	IsFinal   bool   `json:"fromEnd"`
	Payload   []byte `json:"-"`
}

type ColorChangeEvent struct {
	PreviousColor  string `json:"previousColor"`
	NewColor       string `json:"newColor"`
	Timestamp      int64  `json:"timestamp"`
	VideoStartTime int64  `json:"video_start_time"`
	ColorIndex     int    `json:"colorIndex"`
	IsLastColor    bool   `json:"isLastColor"`
}

type VideoStart struct {
	Timestamp int64  `json:"timestamp"`
	MimeType  string `json:"mimeType"`
}

type VideoEnd struct {
	FinalColorIndex int `json:"finalColorIndex"`
}
