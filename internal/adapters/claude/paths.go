// Package claude reads the Claude Code session archive: per-project
// directories of append-only JSONL files under ~/.claude/projects.
package claude

import (
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

const (
	// SessionFileExt is the extension of session log files.
	SessionFileExt = ".jsonl"

	// agentFilePrefix marks sub-task logs that are excluded from indexing.
	agentFilePrefix = "agent-"
)

// DefaultProjectsDir returns the archive root, <home>/.claude/projects.
func DefaultProjectsDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".claude", "projects"), nil
}

// IsSessionFile reports whether a filename names an indexable session log:
// a *.jsonl file whose basename does not start with "agent-".
func IsSessionFile(name string) bool {
	base := filepath.Base(name)
	if !strings.HasSuffix(base, SessionFileExt) {
		return false
	}
	return !strings.HasPrefix(base, agentFilePrefix)
}

// SessionIDFromFile derives the session id from a session file path
// (the filename stem).
func SessionIDFromFile(path string) string {
	return strings.TrimSuffix(filepath.Base(path), SessionFileExt)
}

// EncodeProjectPath converts a workspace path to the directory name Claude
// uses under the projects root: path separators become dashes.
func EncodeProjectPath(projectPath string) string {
	return strings.ReplaceAll(filepath.Clean(projectPath), "/", "-")
}

// DecodeProjectDirName reverses EncodeProjectPath as far as possible.
// The encoding is lossy (dashes inside path segments are indistinguishable
// from separators), so the result is a heuristic used only when no cwd was
// observed inside the session file.
func DecodeProjectDirName(dirName string) string {
	return strings.ReplaceAll(dirName, "-", "/")
}

// FindSessionFile walks the project subdirectories under projectsDir looking
// for <sessionID>.jsonl. It returns the first match, or "" with
// fs.ErrNotExist when no project directory holds the session.
func FindSessionFile(projectsDir, sessionID string) (string, error) {
	target := sessionID + SessionFileExt

	entries, err := os.ReadDir(projectsDir)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fs.ErrNotExist
		}
		return "", err
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		candidate := filepath.Join(projectsDir, entry.Name(), target)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	return "", fs.ErrNotExist
}

// ListSessionFiles returns the indexable session files directly inside one
// project directory, skipping agent logs and nested directories.
func ListSessionFiles(projectDir string) ([]string, error) {
	entries, err := os.ReadDir(projectDir)
	if err != nil {
		return nil, err
	}

	var files []string
	for _, entry := range entries {
		if entry.IsDir() || !IsSessionFile(entry.Name()) {
			continue
		}
		files = append(files, filepath.Join(projectDir, entry.Name()))
	}
	return files, nil
}
