package changelog

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ariel-frischer/issuelog/internal/fsutil"
)

// Write emits text. With an empty path it goes to stdout; otherwise it is
// prepended to the file's existing content (see Prepend) and the file is
// replaced atomically, keeping its mode.
//
// Write itself creates a missing file. The issuelog command never gets here
// with one: it requires --file to exist, as the file's mtime is the default
// cutoff.
func Write(path, text string, stdout io.Writer) error {
	if path == "" {
		if _, err := io.WriteString(stdout, text); err != nil {
			return fmt.Errorf("writing to stdout: %w", err)
		}
		return nil
	}

	perm := os.FileMode(0o644)
	existing, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		existing = nil
	case err != nil:
		return fmt.Errorf("reading output file: %w", err)
	default:
		if info, statErr := os.Stat(path); statErr == nil {
			perm = info.Mode().Perm()
		}
	}

	if err := fsutil.AtomicWrite(path, Prepend(text, existing), perm); err != nil {
		return fmt.Errorf("writing output file: %w", err)
	}
	return nil
}

// Prepend returns text followed by existing, separated by exactly one blank
// line. Trailing newlines of text and leading newlines of existing are folded
// into that separator. Empty text leaves existing unchanged.
func Prepend(text string, existing []byte) []byte {
	head := strings.TrimRight(text, "\n")
	tail := bytes.TrimLeft(existing, "\n")
	switch {
	case len(tail) == 0:
		return []byte(text)
	case head == "":
		return existing
	}
	out := make([]byte, 0, len(head)+2+len(tail))
	out = append(out, head...)
	out = append(out, "\n\n"...)
	return append(out, tail...)
}
