package media

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"
	"time"

	"FaceScan/internal/entity"
	"FaceScan/internal/event"
	"FaceScan/pkg/utils"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"
)

const DefaultBitrate = 2_500_000

type RecorderConfig struct {
	FFmpegPath    string
	FrameRate     int
	Bitrate       int
	FlushInterval time.Duration
}

// FrameSource delivers JPEG frames until the returned cancel func is called,
// after which the channel is closed.
type FrameSource interface {
	Frames() (<-chan []byte, func())
}

type encoding struct {
	codec  string
	format string
	extra  []string
}

var encodings = map[string]encoding{
	"video/webm;codecs=vp9": {codec: "libvpx-vp9", format: "webm"},
	"video/webm;codecs=vp8": {codec: "libvpx", format: "webm"},
	"video/webm":            {codec: "libvpx", format: "webm"},
	"video/mp4;codecs=h264": {codec: "libx264", format: "mp4", extra: []string{"-movflags", "frag_keyframe+empty_moov"}},
	"video/mp4":             {codec: "libx264", format: "mp4", extra: []string{"-movflags", "frag_keyframe+empty_moov"}},
}

func normalizeMime(mimeType string) string {
	return strings.ToLower(strings.ReplaceAll(mimeType, " ", ""))
}

// Recorder encodes frames from a FrameSource with ffmpeg and posts the
// encoded output as event.ChunkReady once per flush interval. Stopping
// closes the encoder input; whatever ffmpeg writes after that is posted as a
// single chunk followed by event.RecorderStopped.
type Recorder struct {
	cfg    RecorderConfig
	source FrameSource
	poster event.Poster
	clock  clockwork.Clock
	log    *logrus.Logger

	listEncoders func() (string, error)
	probeOnce    sync.Once
	encoders     map[string]bool

	mu          sync.Mutex
	recording   bool
	stopping    bool
	buf         bytes.Buffer
	unsubscribe func()
	done        chan struct{}
}

func NewRecorder(cfg RecorderConfig, source FrameSource, poster event.Poster, clock clockwork.Clock, logger *logrus.Logger) *Recorder {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 30
	}
	if cfg.Bitrate <= 0 {
		cfg.Bitrate = DefaultBitrate
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = time.Second
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	r := &Recorder{
		cfg:    cfg,
		source: source,
		poster: poster,
		clock:  clock,
		log:    logger,
	}
	r.listEncoders = r.ffmpegEncoders
	return r
}

func (r *Recorder) ffmpegEncoders() (string, error) {
	cmd := utils.NewSafeCommand(context.Background(), r.cfg.FFmpegPath, "-hide_banner", "-encoders")
	out, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("listing encoders: %w: %s", err, cmd.Stderr())
	}
	return string(out), nil
}

// parseEncoders reads the encoder names out of `ffmpeg -encoders` output.
func parseEncoders(listing string) map[string]bool {
	names := make(map[string]bool)
	scanner := bufio.NewScanner(strings.NewReader(listing))
	inTable := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !inTable {
			inTable = strings.HasPrefix(line, "------")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			names[fields[1]] = true
		}
	}
	return names
}

// Supports reports whether the local ffmpeg can produce mimeType.
func (r *Recorder) Supports(mimeType string) bool {
	enc, ok := encodings[normalizeMime(mimeType)]
	if !ok {
		return false
	}

	r.probeOnce.Do(func() {
		listing, err := r.listEncoders()
		if err != nil {
			r.log.Warnf("[media.Recorder] encoder probe failed: %v", err)
			r.encoders = map[string]bool{}
			return
		}
		r.encoders = parseEncoders(listing)
	})
	return r.encoders[enc.codec]
}

func (r *Recorder) args(enc encoding) []string {
	args := []string{
		"-hide_banner", "-loglevel", "error",
		"-f", "mjpeg",
		"-framerate", strconv.Itoa(r.cfg.FrameRate),
		"-i", "pipe:0",
		"-an",
		"-c:v", enc.codec,
		"-b:v", strconv.Itoa(r.cfg.Bitrate),
	}
	args = append(args, enc.extra...)
	return append(args, "-f", enc.format, "pipe:1")
}

func (r *Recorder) Start(mimeType string) error {
	enc, ok := encodings[normalizeMime(mimeType)]
	if !ok {
		return fmt.Errorf("%w: unsupported mime type %s", entity.ErrCaptureUnavailable, mimeType)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.recording || r.done != nil {
		return fmt.Errorf("%w: recorder already running", entity.ErrCaptureUnavailable)
	}

	cmd := utils.NewSafeCommand(context.Background(), r.cfg.FFmpegPath, r.args(enc)...)
	stdin, err := cmd.StdinPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrCaptureUnavailable, err)
	}
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		return fmt.Errorf("%w: %v", entity.ErrCaptureUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		return fmt.Errorf("%w: %v", entity.ErrCaptureUnavailable, err)
	}

	frames, unsubscribe := r.source.Frames()
	r.begin(unsubscribe)

	go r.feed(frames, stdin)
	go r.drain(stdout, func() error {
		if err := cmd.Wait(); err != nil {
			return fmt.Errorf("encoder exited: %w: %s", err, cmd.Stderr())
		}
		return nil
	})

	r.log.WithFields(logrus.Fields{
		"mime_type": mimeType,
		"codec":     enc.codec,
		"bitrate":   r.cfg.Bitrate,
	}).Info("[media.Recorder] recording started")
	return nil
}

// begin resets the buffer and arms the flush ticker. Callers hold r.mu.
func (r *Recorder) begin(unsubscribe func()) {
	r.buf.Reset()
	r.recording = true
	r.stopping = false
	r.unsubscribe = unsubscribe
	r.done = make(chan struct{})
	go r.flushLoop(r.clock.NewTicker(r.cfg.FlushInterval), r.done)
}

func (r *Recorder) feed(frames <-chan []byte, stdin io.WriteCloser) {
	defer stdin.Close()
	for frame := range frames {
		if _, err := stdin.Write(frame); err != nil {
			r.log.Debugf("[media.Recorder] encoder input closed: %v", err)
			for range frames {
			}
			return
		}
	}
}

func (r *Recorder) flushLoop(ticker clockwork.Ticker, done <-chan struct{}) {
	defer ticker.Stop()
	for {
		select {
		case <-done:
			return
		case now := <-ticker.Chan():
			r.flush(now)
		}
	}
}

func (r *Recorder) flush(now time.Time) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopping || r.buf.Len() == 0 {
		return
	}
	r.poster.Post(event.ChunkReady{Data: r.take(), At: now})
}

// take empties the buffer. Callers hold r.mu.
func (r *Recorder) take() []byte {
	data := make([]byte, r.buf.Len())
	copy(data, r.buf.Bytes())
	r.buf.Reset()
	return data
}

func (r *Recorder) drain(out io.Reader, wait func() error) {
	chunk := make([]byte, 32<<10)
	for {
		n, err := out.Read(chunk)
		if n > 0 {
			r.mu.Lock()
			r.buf.Write(chunk[:n])
			r.mu.Unlock()
		}
		if err != nil {
			break
		}
	}
	waitErr := wait()

	r.mu.Lock()
	defer r.mu.Unlock()

	r.stopping = true
	r.recording = false
	if r.unsubscribe != nil {
		r.unsubscribe()
		r.unsubscribe = nil
	}
	close(r.done)
	r.done = nil

	if r.buf.Len() > 0 {
		r.poster.Post(event.ChunkReady{Data: r.take(), At: r.clock.Now(), Final: true})
	}
	r.poster.Post(event.RecorderStopped{Err: waitErr})

	if waitErr != nil {
		r.log.Warnf("[media.Recorder] %v", waitErr)
	} else {
		r.log.Info("[media.Recorder] recording finished")
	}
}

// Stop closes the encoder input. It returns immediately; the tail of the
// recording arrives as events.
func (r *Recorder) Stop() error {
	r.mu.Lock()
	if !r.recording {
		r.mu.Unlock()
		return nil
	}
	r.recording = false
	r.stopping = true
	unsubscribe := r.unsubscribe
	r.unsubscribe = nil
	r.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	return nil
}

func (r *Recorder) Recording() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.recording
}
