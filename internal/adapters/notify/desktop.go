package notify

import (
	"bytes"
	"os/exec"
	"runtime"
	"strings"
	"time"

	"github.com/example/labctl/internal/ports/secondary"
)

// DesktopSink delivers notifications through the platform's notifier tool:
// alerter or osascript on macOS, notify-send elsewhere. The tool is resolved
// once at construction; a missing tool yields a nop sink so delivery never
// becomes a hard dependency.
type DesktopSink struct {
	tool string

	// responsesPath receives replies typed into an alerter banner. Empty
	// for tools with no reply channel.
	responsesPath string
}

var _ secondary.NotificationSink = (*DesktopSink)(nil)

// alerter sounds per level, matching macOS system sound names.
var alerterSounds = map[string]string{
	LevelInfo:    "Glass",
	LevelSuccess: "Hero",
	LevelWarning: "Basso",
	LevelError:   "Sosumi",
}

// NewDesktopSink resolves the platform notifier. The second return value
// reports whether a tool was found; a false value is not an error, delivery
// just falls back to the log alone.
func NewDesktopSink(responsesPath string) (secondary.NotificationSink, bool) {
	if runtime.GOOS == "darwin" {
		if path, err := exec.LookPath("alerter"); err == nil {
			return &DesktopSink{tool: path, responsesPath: responsesPath}, true
		}
		if path, err := exec.LookPath("osascript"); err == nil {
			return &DesktopSink{tool: path}, true
		}
		return NopSink{}, false
	}

	if path, err := exec.LookPath("notify-send"); err == nil {
		return &DesktopSink{tool: path}, true
	}
	return NopSink{}, false
}

// Notify fires the platform tool and returns without waiting for it, so a
// slow notifier daemon or an open reply prompt cannot stall a lifecycle
// operation. Replies typed into an alerter banner are appended to the
// responses log in the background.
func (s *DesktopSink) Notify(message, level, source string) error {
	switch {
	case strings.HasSuffix(s.tool, "alerter"):
		return s.notifyAlerter(message, level, source)
	case strings.HasSuffix(s.tool, "osascript"):
		script := `display notification "` + escapeAppleScript(message) +
			`" with title "lab: ` + escapeAppleScript(source) + `"`
		return exec.Command(s.tool, "-e", script).Start()
	default:
		return exec.Command(s.tool, "lab: "+source, message).Start()
	}
}

// escapeAppleScript makes a string safe to embed in a double-quoted
// AppleScript literal.
func escapeAppleScript(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}

func (s *DesktopSink) notifyAlerter(message, level, source string) error {
	sound, ok := alerterSounds[level]
	if !ok {
		sound = alerterSounds[LevelInfo]
	}
	cmd := exec.Command(s.tool,
		"-title", "lab",
		"-subtitle", "From: "+source,
		"-message", message,
		"-sound", sound,
		"-timeout", "30",
		"-reply", "-dropdownLabel", "Quick Reply",
	)
	var stdout bytes.Buffer
	cmd.Stdout = &stdout

	if err := cmd.Start(); err != nil {
		return err
	}

	go func() {
		if err := cmd.Wait(); err != nil {
			return
		}
		reply := strings.TrimSpace(stdout.String())
		// alerter reports dismissals as @TIMEOUT / @CLOSED / @CONTENTCLICKED.
		if reply == "" || strings.HasPrefix(reply, "@") || s.responsesPath == "" {
			return
		}
		_ = AppendResponse(s.responsesPath, Response{
			Timestamp:       time.Now().UTC(),
			Source:          source,
			OriginalMessage: message,
			Reply:           reply,
		})
	}()
	return nil
}
