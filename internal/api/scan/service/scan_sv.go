package scanService

import (
	"context"

	"FaceScan/internal/api/scan"
	"FaceScan/internal/entity"
	"FaceScan/internal/event"
	"FaceScan/internal/stage"
	contextPkg "FaceScan/pkg/context"
	"FaceScan/pkg/log"
)

func (s *scanService) Status() stage.Snapshot {
	return s.board.Current()
}

// Start asks the controller to leave the initial stage. The returned snapshot
// is the one current at the time of the request; the transition itself is
// observed through Watch.
func (s *scanService) Start(ctx context.Context, viewport string) (stage.Snapshot, error) {
	current := s.board.Current()
	if current.Stage != entity.StageInitial {
		return current, scan.ErrScanInProgress
	}

	vp := s.defaultViewport
	if viewport != "" {
		parsed, ok := entity.ParseViewport(viewport)
		if !ok {
			return current, scan.ErrUnknownViewport
		}
		vp = parsed
	}

	s.log.WithFields(log.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"session_id": current.SessionID,
		"viewport":   vp.String(),
	}).Info("[scanService.Start] start requested")

	s.poster.Post(event.UserStart{Viewport: vp})
	return current, nil
}

func (s *scanService) Restart(ctx context.Context) (stage.Snapshot, error) {
	current := s.board.Current()

	s.log.WithFields(log.Fields{
		"request_id": contextPkg.GetRequestID(ctx),
		"session_id": current.SessionID,
		"stage":      current.Stage.String(),
	}).Info("[scanService.Restart] restart requested")

	s.poster.Post(event.Restart{})
	return current, nil
}

func (s *scanService) Watch() (<-chan stage.Snapshot, func()) {
	return s.board.Subscribe()
}
