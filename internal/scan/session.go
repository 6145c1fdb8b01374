package scan

import (
	"playground-checkin/internal/frame"
)

type Mode string

const (
	ModeCamera Mode = "camera"
	ModeUpload Mode = "upload"
)

type State string

const (
	StateIdle     State = "idle"
	StateStarting State = "starting"
	StateScanning State = "scanning"
	StateFound    State = "found"
	StateStopped  State = "stopped"
	StateError    State = "error"
)

// Session is the consolidated live state of one scanner lifecycle. The
// controller is the only writer; callers get copies via Controller.Session.
type Session struct {
	Mode           Mode
	State          State
	ActiveStrategy string
	CameraIndex    int
	Cameras        []frame.Device
	LastError      error
}
