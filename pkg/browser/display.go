package browser

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"time"

	"github.com/entrhq/replay/pkg/types"
)

// DisplayMode is the resolved display strategy for a browser session.
type DisplayMode string

const (
	// DisplayVisible runs the browser on the native display server.
	DisplayVisible DisplayMode = "visible"

	// DisplayVirtual runs the browser on a session-owned virtual framebuffer.
	DisplayVirtual DisplayMode = "virtual"

	// DisplayHeadless runs the browser without any display. Interaction
	// capture still works at the DOM level but nothing is shown to the
	// user, so this is only used when explicitly requested.
	DisplayHeadless DisplayMode = "headless"
)

// ResolveDisplayMode decides how the browser for a recording session will be
// displayed. Recording wants a visible browser; the fallback chain is
// native display, then virtual display (when allowed), then headless (only
// when explicitly opted in and not overridden by forceVisible). Anything
// else fails the start request rather than degrading silently.
func ResolveDisplayMode(settings types.RecordingSettings, haveDisplay bool) (DisplayMode, error) {
	if haveDisplay {
		return DisplayVisible, nil
	}
	if settings.UseVirtualDisplay {
		return DisplayVirtual, nil
	}
	if settings.Headless && !settings.ForceVisible {
		return DisplayHeadless, nil
	}
	return "", &ResourceError{
		Op:          "resolve display",
		Cause:       errors.New("no display server available"),
		Remediation: "run under a display server, enable useVirtualDisplay, or allow headless capture",
	}
}

// HasNativeDisplay reports whether a display server is reachable for this
// process. On macOS and Windows a display is always assumed.
func HasNativeDisplay() bool {
	if runtime.GOOS == "darwin" || runtime.GOOS == "windows" {
		return true
	}
	return os.Getenv("DISPLAY") != "" || os.Getenv("WAYLAND_DISPLAY") != ""
}

// virtualDisplay is one Xvfb process owned by a single browser session.
type virtualDisplay struct {
	display string
	cmd     *exec.Cmd
}

const (
	xvfbStartTimeout = 5 * time.Second
	xvfbPollInterval = 100 * time.Millisecond
)

// candidate display numbers; each session takes the first free one.
var xvfbDisplayNumbers = []int{99, 100, 101, 102}

// startVirtualDisplay spins up an Xvfb framebuffer and waits until its X11
// socket is accepting before returning. Display numbers already in use are
// skipped and retried with the next candidate.
func startVirtualDisplay(ctx context.Context) (*virtualDisplay, error) {
	var lastErr error
	for _, num := range xvfbDisplayNumbers {
		display := fmt.Sprintf(":%d", num)
		socket := fmt.Sprintf("/tmp/.X11-unix/X%d", num)

		if _, err := os.Stat(socket); err == nil {
			// display number already taken
			continue
		}

		cmd := exec.Command("Xvfb", display, "-screen", "0", "1920x1080x24", "-nolisten", "tcp")
		if err := cmd.Start(); err != nil {
			if errors.Is(err, exec.ErrNotFound) {
				return nil, &ResourceError{
					Op:          "start virtual display",
					Cause:       err,
					Remediation: "install the xvfb package or disable useVirtualDisplay",
				}
			}
			lastErr = err
			continue
		}

		vd := &virtualDisplay{display: display, cmd: cmd}
		if err := vd.waitReady(ctx, socket); err != nil {
			vd.Stop()
			lastErr = err
			continue
		}
		return vd, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no free display number")
	}
	return nil, &ResourceError{
		Op:          "start virtual display",
		Cause:       lastErr,
		Remediation: "check for stale Xvfb processes or stale /tmp/.X11-unix sockets",
	}
}

// waitReady polls for the X11 socket until it appears or the deadline hits.
func (v *virtualDisplay) waitReady(ctx context.Context, socket string) error {
	deadline := time.Now().Add(xvfbStartTimeout)
	for time.Now().Before(deadline) {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(xvfbPollInterval):
		}
		if _, err := os.Stat(socket); err == nil {
			return nil
		}
	}
	return fmt.Errorf("virtual display %s did not come up within %s", v.display, xvfbStartTimeout)
}

// Display returns the DISPLAY value for this framebuffer, e.g. ":99".
func (v *virtualDisplay) Display() string {
	return v.display
}

// Stop terminates the Xvfb process. Safe to call on an already-dead display.
func (v *virtualDisplay) Stop() {
	if v == nil || v.cmd == nil || v.cmd.Process == nil {
		return
	}
	_ = v.cmd.Process.Kill()
	_ = v.cmd.Wait()
}
