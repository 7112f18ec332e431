// Command audio-cue plays gesture cue files and speaks gesture labels using
// whatever player the host provides.
package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
)

// Request mirrors the executor's request.
type Request struct {
	Action  string          `json:"action"`
	Gesture string          `json:"gesture"`
	Config  json.RawMessage `json:"config"`
	Params  Params          `json:"params"`
}

// Params holds the cue details.
type Params struct {
	Cue  string `json:"cue"`
	Text string `json:"text"`
}

// Response mirrors the executor's response.
type Response struct {
	Success bool            `json:"success"`
	Error   string          `json:"error,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// command is one candidate invocation.
type command struct {
	name string
	args []string
}

var errNoPlayer = errors.New("no audio player found")

// lookPath is replaced in tests.
var lookPath = exec.LookPath

func main() {
	var req Request
	if err := json.NewDecoder(os.Stdin).Decode(&req); err != nil {
		writeErrorResponse(fmt.Sprintf("failed to decode request: %v", err))
		return
	}

	cmd, err := plan(req, runtime.GOOS)
	if err != nil {
		writeErrorResponse(err.Error())
		return
	}

	out, err := exec.Command(cmd.name, cmd.args...).CombinedOutput()
	if err != nil {
		writeErrorResponse(fmt.Sprintf("%s failed: %v: %s", cmd.name, err, out))
		return
	}

	data, _ := json.Marshal(map[string]string{"player": cmd.name, "gesture": req.Gesture})
	writeResponse(Response{Success: true, Data: data})
}

// plan picks the command that carries out req on goos.
func plan(req Request, goos string) (command, error) {
	switch req.Action {
	case "play":
		if req.Params.Cue == "" {
			return command{}, errors.New("play requires params.cue")
		}
		cue := req.Params.Cue
		if !filepath.IsAbs(cue) {
			if wd, err := os.Getwd(); err == nil {
				cue = filepath.Join(wd, cue)
			}
		}
		if _, err := os.Stat(cue); err != nil {
			return command{}, fmt.Errorf("cue not found: %s", req.Params.Cue)
		}
		return first(players(goos, cue))
	case "speak":
		text := req.Params.Text
		if text == "" {
			text = req.Gesture
		}
		if text == "" {
			return command{}, errors.New("speak requires params.text or gesture")
		}
		return first(speakers(goos, text))
	default:
		return command{}, fmt.Errorf("unknown action: %s", req.Action)
	}
}

func players(goos, file string) []command {
	if goos == "darwin" {
		return []command{{"afplay", []string{file}}}
	}
	return []command{
		{"paplay", []string{file}},
		{"aplay", []string{"-q", file}},
		{"ffplay", []string{"-nodisp", "-autoexit", "-loglevel", "quiet", file}},
	}
}

func speakers(goos, text string) []command {
	if goos == "darwin" {
		return []command{{"say", []string{"-v", "Monica", text}}}
	}
	return []command{
		{"espeak-ng", []string{"-v", "es", text}},
		{"espeak", []string{"-v", "es", text}},
		{"spd-say", []string{"-l", "es", "-w", text}},
	}
}

// first returns the first candidate installed on the host.
func first(candidates []command) (command, error) {
	for _, c := range candidates {
		if path, err := lookPath(c.name); err == nil {
			c.name = path
			return c, nil
		}
	}
	return command{}, errNoPlayer
}

func writeErrorResponse(msg string) {
	writeResponse(Response{Success: false, Error: msg})
}

func writeResponse(resp Response) {
	json.NewEncoder(os.Stdout).Encode(resp)
}
