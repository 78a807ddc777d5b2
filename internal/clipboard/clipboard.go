// Package clipboard copies assembled context to the system clipboard via
// the platform's copy command.
package clipboard

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// ErrClipboardUnavailable is returned when no copy command is installed.
var ErrClipboardUnavailable = errors.New("clipboard unavailable")

// candidates lists copy commands per GOOS in order of preference.
var candidates = map[string][][]string{
	"darwin":  {{"pbcopy"}},
	"windows": {{"clip.exe"}},
	"linux": {
		{"wl-copy"},
		{"xclip", "-selection", "clipboard"},
		{"xsel", "--clipboard", "--input"},
	},
}

// lookPath is swapped in tests.
var lookPath = exec.LookPath

// command returns the argv of the first usable copy command for goos.
// wl-copy is only chosen inside a Wayland session.
func command(goos string) ([]string, error) {
	for _, argv := range candidates[goos] {
		if argv[0] == "wl-copy" && os.Getenv("WAYLAND_DISPLAY") == "" {
			continue
		}
		if _, err := lookPath(argv[0]); err == nil {
			return argv, nil
		}
	}
	return nil, ErrClipboardUnavailable
}

// IsAvailable reports whether Copy can work on this system.
func IsAvailable() bool {
	_, err := command(runtime.GOOS)
	return err == nil
}

// Copy places text on the system clipboard.
// Returns ErrClipboardUnavailable if no copy command is installed.
func Copy(ctx context.Context, text string) error {
	argv, err := command(runtime.GOOS)
	if err != nil {
		return err
	}

	cmd := exec.CommandContext(ctx, argv[0], argv[1:]...)
	cmd.Stdin = strings.NewReader(text)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", argv[0], err, strings.TrimSpace(string(out)))
	}
	return nil
}
