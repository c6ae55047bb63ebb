package scanService

import (
	"context"

	"FaceScan/internal/entity"
	"FaceScan/internal/event"
	"FaceScan/internal/stage"
	"github.com/sirupsen/logrus"
)

type IScanService interface {
	Status() stage.Snapshot
	Start(ctx context.Context, viewport string) (stage.Snapshot, error)
	Restart(ctx context.Context) (stage.Snapshot, error)
	Watch() (<-chan stage.Snapshot, func())
}

type scanService struct {
	log             *logrus.Logger
	poster          event.Poster
	board           *stage.Board
	defaultViewport entity.Viewport
}

func New(
	log *logrus.Logger,
	poster event.Poster,
	board *stage.Board,
	defaultViewport entity.Viewport,
) IScanService {
	return &scanService{
		log:             log,
		poster:          poster,
		board:           board,
		defaultViewport: defaultViewport,
	}
}
