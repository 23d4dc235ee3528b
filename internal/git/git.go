// Package git reads the local checkout to find which hosted repository it
// belongs to. It uses the go-git library, so no git binary is required.
package git

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"sort"
	"strings"

	"github.com/go-git/go-git/v5"
)

// DefaultRemote is the remote consulted first when detecting the repository.
const DefaultRemote = "origin"

var (
	// ErrNotRepository is returned when path is not inside a git checkout.
	ErrNotRepository = errors.New("not a git checkout")
	// ErrNoRemote is returned when the repository has no usable remote.
	ErrNoRemote = errors.New("no remote configured")
)

// debugLogger is a function that logs debug messages when debug mode is enabled.
// By default, it's a no-op. Set it via SetDebugLogger to enable debug output.
var debugLogger func(format string, args ...any)

// SetDebugLogger configures the debug logger for git operations.
// Pass nil to disable debug logging. The logger function should format
// and output the message (similar to log.Printf signature).
func SetDebugLogger(logger func(format string, args ...any)) {
	debugLogger = logger
}

// logDebug logs a debug message if the debug logger is set.
func logDebug(format string, args ...any) {
	if debugLogger != nil {
		debugLogger(format, args...)
	}
}

// openRepo opens a git repository at the specified path or current working directory.
// It uses go-git's PlainOpenWithOptions with DetectDotGit enabled to traverse
// up the directory tree to find the repository root.
// If path is empty, the current working directory is used.
func openRepo(path string) (*git.Repository, error) {
	if path == "" {
		var err error
		path, err = os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("getting current directory: %w", err)
		}
	}

	logDebug("[git] opening repository at %s", path)

	repo, err := git.PlainOpenWithOptions(path, &git.PlainOpenOptions{
		DetectDotGit: true,
	})
	if err != nil {
		return nil, fmt.Errorf("opening repository at %s: %w", path, err)
	}
	return repo, nil
}

// IsGitRepository checks if path (or the current directory) is within a git repository.
func IsGitRepository(path string) bool {
	_, err := openRepo(path)
	result := err == nil
	logDebug("[git] IsGitRepository: %v", result)
	return result
}

// RemoteURL returns the first URL of the named remote, falling back to the
// alphabetically first remote when name is not configured.
func RemoteURL(path, name string) (string, error) {
	repo, err := openRepo(path)
	if err != nil {
		return "", err
	}

	if remote, err := repo.Remote(name); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			return urls[0], nil
		}
	}

	remotes, err := repo.Remotes()
	if err != nil {
		return "", fmt.Errorf("listing remotes: %w", err)
	}
	sort.Slice(remotes, func(i, j int) bool {
		return remotes[i].Config().Name < remotes[j].Config().Name
	})
	for _, r := range remotes {
		if urls := r.Config().URLs; len(urls) > 0 {
			logDebug("[git] remote %q not found, using %q", name, r.Config().Name)
			return urls[0], nil
		}
	}
	return "", ErrNoRemote
}

// DetectRepository returns the owner and name of the hosted repository the
// checkout at path was cloned from. It fails with ErrNotRepository outside a
// checkout and with ErrNoRemote when no remote is configured.
func DetectRepository(path string) (owner, repo string, err error) {
	if !IsGitRepository(path) {
		return "", "", ErrNotRepository
	}
	remoteURL, err := RemoteURL(path, DefaultRemote)
	if err != nil {
		return "", "", err
	}
	owner, repo, err = ParseRepository(remoteURL)
	if err != nil {
		return "", "", err
	}
	logDebug("[git] DetectRepository: %s/%s", owner, repo)
	return owner, repo, nil
}

// ParseRepository extracts owner and name from a remote URL. It accepts
// scp-like SSH (git@host:owner/repo.git), ssh://, git:// and http(s)://
// forms; the last two path segments are the owner and the name.
func ParseRepository(remoteURL string) (owner, repo string, err error) {
	raw := strings.TrimSpace(remoteURL)
	if raw == "" {
		return "", "", fmt.Errorf("empty remote URL")
	}

	var path string
	if strings.Contains(raw, "://") {
		u, err := url.Parse(raw)
		if err != nil {
			return "", "", fmt.Errorf("parsing remote URL %q: %w", raw, err)
		}
		path = u.Path
	} else if _, after, ok := strings.Cut(raw, ":"); ok {
		path = after
	} else {
		return "", "", fmt.Errorf("unrecognized remote URL %q", raw)
	}

	path = strings.TrimSuffix(strings.Trim(path, "/"), ".git")
	parts := strings.Split(path, "/")
	if len(parts) < 2 || parts[len(parts)-2] == "" || parts[len(parts)-1] == "" {
		return "", "", fmt.Errorf("remote URL %q has no owner/repository path", raw)
	}
	return parts[len(parts)-2], parts[len(parts)-1], nil
}
