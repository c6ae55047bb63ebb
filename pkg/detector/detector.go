// Package detector runs the face detection model in a child process and
// talks to it over a length-prefixed binary protocol.
package detector

import (
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"FaceScan/internal/entity"
	"FaceScan/pkg/log"
	"FaceScan/pkg/utils"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const maxResponseSize = 1 << 20

type Config struct {
	// Command is the worker command line, for example
	// "python3 -u detector/worker.py --model blaze_face_short_range.tflite".
	Command string
}

type response struct {
	Detections []entity.Detection `json:"detections"`
	Error      string             `json:"error,omitempty"`
}

// Worker owns one detector process. Requests are serialized. A worker that
// fails to start, or whose process dies, stays unavailable.
type Worker struct {
	cfg Config
	log *logrus.Logger

	loadOnce sync.Once
	loadErr  error

	mu       sync.Mutex
	cmd      *utils.SafeCommand
	Stdin    io.WriteCloser
	DataPipe io.ReadCloser
	broken   error
}

func New(cfg Config, logger *logrus.Logger) *Worker {
	return &Worker{
		cfg: cfg,
		log: logger,
	}
}

// Ready loads the model on first use.
func (w *Worker) Ready() error {
	w.loadOnce.Do(func() {
		if w.Stdin != nil && w.DataPipe != nil {
			return
		}
		w.loadErr = w.start()
		if w.loadErr != nil {
			w.log.WithFields(log.Fields{
				"command": w.cfg.Command,
				"error":   w.loadErr.Error(),
			}).Error("[detector.Ready] failed to load face detector")
		}
	})
	return w.loadErr
}

func (w *Worker) start() error {
	argv := strings.Fields(w.cfg.Command)
	if len(argv) == 0 {
		return fmt.Errorf("%w: no detector command configured", entity.ErrDetectorUnavailable)
	}

	cmd := utils.NewSafeCommand(context.Background(), argv[0], argv[1:]...)

	// The child writes responses to FD 3 so its stdout stays free for logs.
	r, pw, err := os.Pipe()
	if err != nil {
		return fmt.Errorf("%w: failed to create pipe: %v", entity.ErrDetectorUnavailable, err)
	}
	cmd.ExtraFiles = []*os.File{pw}

	stdin, err := cmd.StdinPipe()
	if err != nil {
		pw.Close()
		r.Close()
		return fmt.Errorf("%w: failed to create stdin pipe: %v", entity.ErrDetectorUnavailable, err)
	}

	if err := cmd.Start(); err != nil {
		pw.Close()
		r.Close()
		return fmt.Errorf("%w: %v", entity.ErrDetectorUnavailable, err)
	}
	pw.Close()

	w.mu.Lock()
	w.cmd = cmd
	w.Stdin = stdin
	w.DataPipe = r
	w.mu.Unlock()

	w.log.WithFields(log.Fields{
		"command": w.cfg.Command,
		"pid":     cmd.Process.Pid,
	}).Info("[detector.Ready] face detector started")
	return nil
}

// Detect sends one JPEG frame and returns the first detected face, or nil.
func (w *Worker) Detect(ctx context.Context, frame []byte) (*entity.BoundingBox, error) {
	if err := w.Ready(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.broken != nil {
		return nil, w.broken
	}

	body, err := w.communicate(time.Now().UnixMilli(), frame)
	if err != nil {
		w.broken = fmt.Errorf("%w: %v%s", entity.ErrDetectorUnavailable, err, w.stderr())
		return nil, w.broken
	}

	var resp response
	if err := jsoniter.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("decoding detector response: %w", err)
	}
	if resp.Error != "" {
		return nil, errors.New(resp.Error)
	}
	if len(resp.Detections) == 0 {
		return nil, nil
	}

	box := resp.Detections[0].BoundingBox
	return &box, nil
}

// communicate writes [len uint32][timestamp uint64][frame] and reads
// [len uint32][json] back from the data pipe. Callers hold w.mu.
func (w *Worker) communicate(timestampMs int64, frame []byte) ([]byte, error) {
	if err := binary.Write(w.Stdin, binary.BigEndian, uint32(len(frame))); err != nil {
		return nil, err
	}
	if err := binary.Write(w.Stdin, binary.BigEndian, uint64(timestampMs)); err != nil {
		return nil, err
	}
	if _, err := w.Stdin.Write(frame); err != nil {
		return nil, err
	}

	header := make([]byte, 4)
	if _, err := io.ReadFull(w.DataPipe, header); err != nil {
		return nil, err
	}

	respLen := binary.BigEndian.Uint32(header)
	if respLen > maxResponseSize {
		return nil, fmt.Errorf("response too large: %d bytes", respLen)
	}
	respBody := make([]byte, respLen)
	_, err := io.ReadFull(w.DataPipe, respBody)
	return respBody, err
}

func (w *Worker) stderr() string {
	if w.cmd == nil {
		return ""
	}
	if s := w.cmd.Stderr(); s != "" {
		return ": " + s
	}
	return ""
}

func (w *Worker) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.Stdin != nil {
		w.Stdin.Close()
	}
	if w.DataPipe != nil {
		w.DataPipe.Close()
	}
	if w.cmd != nil {
		if err := w.cmd.Wait(); err != nil {
			w.log.Debugf("[detector.Close] worker exited: %v", err)
		}
		w.cmd = nil
	}
}
