// Package plugin discovers and runs external cue players. A plugin is an
// executable that reads one JSON Request on stdin and answers with one JSON
// Response on stdout.
package plugin

import "encoding/json"

// Actions understood by cue plugins.
const (
	ActionPlay  = "play"
	ActionSpeak = "speak"
)

// Manifest is the plugin.json found in each plugin directory.
type Manifest struct {
	Name         string          `json:"name"`
	Version      string          `json:"version"`
	Description  string          `json:"description"`
	Executable   string          `json:"executable"`
	Actions      []string        `json:"actions"`
	ConfigSchema json.RawMessage `json:"configSchema,omitempty"`
}

// Supports reports whether the manifest lists action. A manifest without
// actions accepts everything.
func (m Manifest) Supports(action string) bool {
	if len(m.Actions) == 0 {
		return true
	}
	for _, a := range m.Actions {
		if a == action {
			return true
		}
	}
	return false
}

// Params carries the cue details for play and speak.
type Params struct {
	Cue        string  `json:"cue,omitempty"`  // audio file for play
	Text       string  `json:"text,omitempty"` // words for speak
	Confidence float64 `json:"confidence,omitempty"`
}

// Request is sent to a plugin on stdin.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config,omitempty"`
	Params  Params          `json:"params"`
}

// Response is read from a plugin's stdout.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Plugin is a discovered plugin.
type Plugin struct {
	Manifest   Manifest
	Path       string
	Executable string
}
