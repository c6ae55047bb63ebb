package entity

import "time"

// ScanSession identifies one scan run. A restart creates a new one.
type ScanSession struct {
	ID        string
	Viewport  Viewport
	StartedAt time.Time
}

type Viewport uint8

const (
	ViewportDesktop Viewport = 0
	ViewportMobile  Viewport = 1
)

var ViewportMap = map[Viewport]string{
	ViewportDesktop: "desktop",
	ViewportMobile:  "mobile",
}

func (v Viewport) String() string {
	return ViewportMap[v]
}

func ParseViewport(s string) (Viewport, bool) {
	for viewport, name := range ViewportMap {
		if name == s {
			return viewport, true
		}
	}
	return ViewportDesktop, false
}

// MobileBreakpoint is the widest viewport treated as mobile.
const MobileBreakpoint = 800

func ViewportForWidth(width int) Viewport {
	if width <= MobileBreakpoint {
		return ViewportMobile
	}
	return ViewportDesktop
}
