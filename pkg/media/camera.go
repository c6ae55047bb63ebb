package media

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"sync"
	"time"

	"FaceScan/internal/entity"
	"FaceScan/pkg/log"
	"FaceScan/pkg/utils"

	"github.com/sirupsen/logrus"
)

const (
	maxFrameSize     = 16 << 20
	firstFrameWindow = 5 * time.Second
)

type CameraConfig struct {
	FFmpegPath  string
	InputFormat string
	Device      string
	FrameRate   int
	Width       int
	Height      int
}

// Camera reads an MJPEG stream from a capture device through ffmpeg. It
// keeps the most recent frame for screenshots and fans every frame out to
// subscribers such as the Recorder.
type Camera struct {
	cfg   CameraConfig
	log   *logrus.Logger
	utils utils.IUtils

	mu      sync.Mutex
	cmd     *utils.SafeCommand
	cancel  context.CancelFunc
	latest  []byte
	running bool
	subs    map[int]chan []byte
	nextSub int
	first   chan struct{}
	exited  chan struct{}
}

func NewCamera(cfg CameraConfig, logger *logrus.Logger, u utils.IUtils) *Camera {
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}
	if cfg.FrameRate <= 0 {
		cfg.FrameRate = 30
	}
	return &Camera{
		cfg:   cfg,
		log:   logger,
		utils: u,
		subs:  make(map[int]chan []byte),
	}
}

func (c *Camera) args() []string {
	args := []string{"-hide_banner", "-loglevel", "error"}
	if c.cfg.InputFormat != "" {
		args = append(args, "-f", c.cfg.InputFormat)
	}
	args = append(args,
		"-framerate", strconv.Itoa(c.cfg.FrameRate),
		"-i", c.cfg.Device,
		"-f", "image2pipe",
		"-vcodec", "mjpeg",
		"-",
	)
	return args
}

// Ready starts the device process if it is not running and waits for the
// first frame.
func (c *Camera) Ready() error {
	c.mu.Lock()
	if c.running {
		c.mu.Unlock()
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	cmd := utils.NewSafeCommand(ctx, c.cfg.FFmpegPath, c.args()...)
	stdout, err := cmd.StdoutPipe()
	if err != nil {
		cancel()
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", entity.ErrCameraUnavailable, err)
	}
	if err := cmd.Start(); err != nil {
		cancel()
		c.mu.Unlock()
		return fmt.Errorf("%w: %v", entity.ErrCameraUnavailable, err)
	}

	c.cmd = cmd
	c.cancel = cancel
	c.running = true
	c.latest = nil
	first := make(chan struct{})
	exited := make(chan struct{})
	c.first = first
	c.exited = exited
	c.mu.Unlock()

	go func() {
		defer close(exited)
		c.consume(stdout, first)
		waitErr := cmd.Wait()

		c.mu.Lock()
		if c.cmd == cmd {
			c.running = false
			c.cmd = nil
		}
		c.mu.Unlock()

		if waitErr != nil && ctx.Err() == nil {
			c.log.WithFields(log.Fields{
				"device": c.cfg.Device,
				"stderr": cmd.Stderr(),
			}).Warnf("[media.Camera] capture process exited: %v", waitErr)
		}
	}()

	timer := time.NewTimer(firstFrameWindow)
	defer timer.Stop()

	select {
	case <-first:
		c.log.WithFields(log.Fields{
			"device": c.cfg.Device,
			"format": c.cfg.InputFormat,
		}).Info("[media.Camera] camera ready")
		return nil
	case <-exited:
		return fmt.Errorf("%w: %s", entity.ErrCameraUnavailable, cmd.Stderr())
	case <-timer.C:
		_ = c.Release()
		return fmt.Errorf("%w: no frame within %s", entity.ErrCameraUnavailable, firstFrameWindow)
	}
}

// consume splits r into frames until EOF. first is closed on the first
// frame.
func (c *Camera) consume(r io.Reader, first chan struct{}) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 1<<20), maxFrameSize)
	scanner.Split(SplitJpeg)

	seen := false
	for scanner.Scan() {
		frame := make([]byte, len(scanner.Bytes()))
		copy(frame, scanner.Bytes())

		c.mu.Lock()
		c.latest = frame
		for _, ch := range c.subs {
			select {
			case ch <- frame:
			default:
			}
		}
		c.mu.Unlock()

		if !seen {
			seen = true
			close(first)
		}
	}
	if err := scanner.Err(); err != nil && !errors.Is(err, io.ErrClosedPipe) {
		c.log.Debugf("[media.Camera] frame reader stopped: %v", err)
	}
}

// Screenshot returns the latest frame scaled to the canvas size.
func (c *Camera) Screenshot() ([]byte, error) {
	c.mu.Lock()
	frame := c.latest
	c.mu.Unlock()

	if frame == nil {
		return nil, entity.ErrCameraUnavailable
	}
	if c.cfg.Width <= 0 || c.cfg.Height <= 0 {
		return frame, nil
	}
	return c.utils.ScaleJPEG(frame, c.cfg.Width, c.cfg.Height)
}

// Frames subscribes to the raw frame stream. Slow subscribers miss frames.
func (c *Camera) Frames() (<-chan []byte, func()) {
	ch := make(chan []byte, 8)

	c.mu.Lock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = ch
	c.mu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			c.mu.Lock()
			delete(c.subs, id)
			c.mu.Unlock()
			close(ch)
		})
	}
}

// Release stops the device process. It is safe to call when not running.
func (c *Camera) Release() error {
	c.mu.Lock()
	cancel := c.cancel
	exited := c.exited
	c.cancel = nil
	c.cmd = nil
	c.running = false
	c.latest = nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()
	<-exited
	c.log.Info("[media.Camera] camera released")
	return nil
}
