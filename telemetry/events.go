// Package telemetry provides performance tracking, window statistics and
// event logging for the particle field.
package telemetry

import (
	"fmt"
	"log/slog"
)

// EventType identifies telemetry events.
type EventType string

const (
	EventModeChange    EventType = "mode_change"
	EventSelection     EventType = "selection"
	EventImageSwitch   EventType = "image_switch"
	EventLibrary       EventType = "library"
	EventDecodeFailure EventType = "decode_failure"
	EventMotionStart   EventType = "motion_start"
	EventMotionEnd     EventType = "motion_end"
	EventWebcam        EventType = "webcam"
	EventScreenshot    EventType = "screenshot"
)

// Event represents a single discrete change in the simulation.
type Event struct {
	Tick    int32     `csv:"tick"`
	SimTime float64   `csv:"sim_time"`
	Type    EventType `csv:"type"`
	From    string    `csv:"from"`
	To      string    `csv:"to"`
	Detail  string    `csv:"detail"`
}

// NewModeChangeEvent records a change of the active mode.
func NewModeChangeEvent(tick int32, dt float32, from, to string, overridden bool) Event {
	detail := "auto"
	if overridden {
		detail = "motion"
	}
	return Event{
		Tick:    tick,
		SimTime: float64(tick) * float64(dt),
		Type:    EventModeChange,
		From:    from,
		To:      to,
		Detail:  detail,
	}
}

// NewSelectionEvent records a user selection change.
func NewSelectionEvent(tick int32, dt float32, from, to string) Event {
	return Event{
		Tick:    tick,
		SimTime: float64(tick) * float64(dt),
		Type:    EventSelection,
		From:    from,
		To:      to,
	}
}

// NewImageSwitchEvent records a successful image switch.
func NewImageSwitchEvent(tick int32, dt float32, from, to, fieldKind string) Event {
	return Event{
		Tick:    tick,
		SimTime: float64(tick) * float64(dt),
		Type:    EventImageSwitch,
		From:    from,
		To:      to,
		Detail:  fieldKind,
	}
}

// NewLibraryEvent records a new image folder being loaded.
func NewLibraryEvent(tick int32, dt float32, from, to, dir string) Event {
	return Event{
		Tick:    tick,
		SimTime: float64(tick) * float64(dt),
		Type:    EventLibrary,
		From:    from,
		To:      to,
		Detail:  dir,
	}
}

// NewDecodeFailureEvent records an aborted image switch.
func NewDecodeFailureEvent(tick int32, dt float32, kept, failed string, err error) Event {
	return Event{
		Tick:    tick,
		SimTime: float64(tick) * float64(dt),
		Type:    EventDecodeFailure,
		From:    kept,
		To:      failed,
		Detail:  err.Error(),
	}
}

// NewMotionEvent records the motion signal rising or falling.
func NewMotionEvent(tick int32, dt float32, active bool, level float64) Event {
	typ := EventMotionEnd
	if active {
		typ = EventMotionStart
	}
	return Event{
		Tick:    tick,
		SimTime: float64(tick) * float64(dt),
		Type:    typ,
		Detail:  fmt.Sprintf("%.4f", level),
	}
}

// NewWebcamEvent records the webcam being toggled.
func NewWebcamEvent(tick int32, dt float32, on bool, detail string) Event {
	to := "off"
	if on {
		to = "on"
	}
	return Event{
		Tick:    tick,
		SimTime: float64(tick) * float64(dt),
		Type:    EventWebcam,
		To:      to,
		Detail:  detail,
	}
}

// NewScreenshotEvent records a screenshot file.
func NewScreenshotEvent(tick int32, dt float32, path string) Event {
	return Event{
		Tick:    tick,
		SimTime: float64(tick) * float64(dt),
		Type:    EventScreenshot,
		To:      path,
	}
}

// LogEvent logs the event using slog.
func (e Event) LogEvent() {
	slog.Info("event",
		"type", string(e.Type),
		"tick", e.Tick,
		"from", e.From,
		"to", e.To,
		"detail", e.Detail,
	)
}
