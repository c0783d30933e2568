// Package editor hands the current image to an external editor (Gimp,
// Siril, ...) and pulls the result back in: export to a scratch file,
// run the editor command on it, and reload the file if the editor
// rewrote it.
package editor

import(
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/equinoxlab/astropost/pkg/eimage"
	"github.com/equinoxlab/astropost/pkg/eio"
)

// ErrNotModified means the editor exited without rewriting the file.
var ErrNotModified = errors.New("editor did not modify the image")

// Placeholder in the command template that gets replaced by the
// scratch file path. When absent, the path is appended as a final
// argument.
const Placeholder = "$"

// RoundTrip exports the image to a scratch file, runs the editor
// command on it, and returns the reloaded result. depth picks the
// scratch format: 8 or 16 writes TIFF, 32 writes Radiance .hdr (full
// float, lossless round trip). The editor must keep the image
// dimensions; anything else is an error. The input image is never
// modified.
func RoundTrip(ctx context.Context, im *eimage.Image, command string, depth int) (*eimage.Image, error) {
	var ext string
	switch depth {
	case 8, 16:
		ext = ".tif"
	case 32:
		ext = ".hdr"
	default:
		return nil, fmt.Errorf("editor depth must be 8, 16 or 32, got %d", depth)
	}

	dir, err := os.MkdirTemp("", "astropost-edit-")
	if err != nil {
		return nil, fmt.Errorf("editor scratch dir: %v", err)
	}
	defer os.RemoveAll(dir)

	scratch := filepath.Join(dir, "edit"+ext)
	if err := eio.Save(im, scratch, depth); err != nil {
		return nil, fmt.Errorf("editor export: %v", err)
	}
	before, err := os.Stat(scratch)
	if err != nil {
		return nil, fmt.Errorf("editor stat: %v", err)
	}

	args := buildArgs(command, scratch)
	if len(args) == 0 {
		return nil, fmt.Errorf("empty editor command")
	}
	log.Printf("Running editor: %s", strings.Join(args, " "))
	cmd := exec.CommandContext(ctx, args[0], args[1:]...)
	cmd.Stdout, cmd.Stderr = os.Stdout, os.Stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("editor %q: %v", args[0], err)
	}

	after, err := os.Stat(scratch)
	if err != nil {
		return nil, fmt.Errorf("editor removed the scratch file: %v", err)
	}
	if !after.ModTime().After(before.ModTime()) && after.Size() == before.Size() {
		return nil, ErrNotModified
	}

	edited, err := eio.Load(scratch)
	if err != nil {
		return nil, fmt.Errorf("editor reload: %v", err)
	}
	w, h := im.Size()
	ew, eh := edited.Size()
	if w != ew || h != eh {
		return nil, fmt.Errorf("editor changed the image size from %dx%d to %dx%d", w, h, ew, eh)
	}
	return edited, nil
}

// buildArgs splits the command template on whitespace and substitutes
// the scratch path for the $ placeholder, appending it when the
// template has none.
func buildArgs(command, scratch string) []string {
	args := strings.Fields(command)
	substituted := false
	for i, a := range args {
		if strings.Contains(a, Placeholder) {
			args[i] = strings.ReplaceAll(a, Placeholder, scratch)
			substituted = true
		}
	}
	if !substituted && len(args) > 0 {
		args = append(args, scratch)
	}
	return args
}
