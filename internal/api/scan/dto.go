package scan

import "FaceScan/internal/stage"

type StartRequest struct {
	Viewport string `json:"viewport" validate:"omitempty,oneof=mobile desktop"`
}

type StatusResponse struct {
	Data stage.Snapshot `json:"data"`
}

type ActionResponse struct {
	Message   string `json:"message"`
	SessionID string `json:"sessionId"`
	Stage     string `json:"stage"`
}
