package consumer

import "time"

// State — состояние цикла потребления.
type State int32

const (
	StateRunning State = iota
	StateStopping
	StateTerminated
)

func (s State) String() string {
	switch s {
	case StateRunning:
		return "RUNNING"
	case StateStopping:
		return "STOPPING"
	case StateTerminated:
		return "TERMINATED"
	default:
		return "UNKNOWN"
	}
}

// RunState — снимок состояния запуска (безопасно читать из других горутин).
type RunState struct {
	Queue     string    `json:"queue"`
	State     string    `json:"state"`
	Processed uint64    `json:"processed"`
	StartedAt time.Time `json:"started_at"`
}

// Report — итог запуска.
type Report struct {
	Processed uint64
	Flushes   uint64
	Reason    StopReason
	StartedAt time.Time
	Duration  time.Duration
}
