package scan

import (
	"FaceScan/pkg/response"
	"net/http"
)

var (
	ErrInternalServerError = response.NewError(http.StatusInternalServerError, "internal server error")
	ErrBadRequest          = response.NewError(http.StatusBadRequest, "bad request")
	ErrScanInProgress      = response.NewError(http.StatusConflict, "a scan is already in progress")
	ErrUnknownViewport     = response.NewError(http.StatusBadRequest, "unknown viewport")
)
