package adapter

import (
	"fmt"
	"strings"
)

// Mode represents the host the application runs
type Mode int

const (
	ModeUnknown Mode = iota
	ModeHTTPServer
	ModeCDP
)

// ParseMode maps a configured mode name onto a Mode.
func ParseMode(name string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "http":
		return ModeHTTPServer, nil
	case "cdp":
		return ModeCDP, nil
	default:
		return ModeUnknown, fmt.Errorf("unsupported mode: %s", name)
	}
}

func (m Mode) String() string {
	switch m {
	case ModeHTTPServer:
		return "http"
	case ModeCDP:
		return "cdp"
	default:
		return "unknown"
	}
}
