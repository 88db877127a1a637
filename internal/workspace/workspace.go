// Package workspace owns the transient files of a single download request.
//
// Every request gets its own directory under the configured base dir, so a
// cleanup never touches files of another request running at the same time.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/miikaoskari/dc-bot/internal/logging"
)

const (
	OutputExt = ".mp4"

	dirPermissions = 0o755
)

// Suffixes the downloader leaves on unfinished files.
var partialSuffixes = []string{".part", ".ytdl", ".temp"}

const fragmentMarker = ".part-Frag"

type Workspace struct {
	ID         string
	Dir        string
	OutputPath string
}

// New creates <baseDir>/<id>/ and returns a workspace whose output file is <id>.mp4 inside it.
func New(baseDir, id string) (*Workspace, error) {
	if id == "" || strings.ContainsAny(id, `/\`) || id == "." || id == ".." {
		return nil, fmt.Errorf("invalid workspace id %q", id)
	}
	dir := filepath.Join(baseDir, id)
	if err := os.MkdirAll(dir, dirPermissions); err != nil {
		return nil, fmt.Errorf("failed to create workspace dir %q: %w", dir, err)
	}
	return &Workspace{
		ID:         id,
		Dir:        dir,
		OutputPath: filepath.Join(dir, id+OutputExt),
	}, nil
}

// IsPartialArtifact reports whether name looks like an unfinished download.
func IsPartialArtifact(name string) bool {
	if strings.Contains(name, fragmentMarker) {
		return true
	}
	for _, suffix := range partialSuffixes {
		if strings.HasSuffix(name, suffix) {
			return true
		}
	}
	return false
}

// Cleanup removes the output file, every partial artifact and the workspace
// directory. It is best-effort: failures are logged and never returned, and
// calling it again on a removed workspace is a no-op.
func (w *Workspace) Cleanup(ctx context.Context) {
	log := logging.FromContextS(ctx)
	if err := removeIfExists(w.OutputPath); err != nil {
		log.Debugf("Failed to remove output file %q: %v", w.OutputPath, err)
	}
	removed := Sweep(ctx, w.Dir)
	if err := os.RemoveAll(w.Dir); err != nil {
		log.Debugf("Failed to remove workspace dir %q: %v", w.Dir, err)
	}
	log.Debugw("Workspace cleaned up",
		"workspace_dir", w.Dir,
		"partial_removed", removed,
	)
}

// Sweep deletes every partial artifact directly inside dir and returns how
// many were removed. A missing dir is not an error.
func Sweep(ctx context.Context, dir string) (removed int) {
	log := logging.FromContextS(ctx)
	entries, err := os.ReadDir(dir)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			log.Debugf("Failed to read dir %q for sweeping: %v", dir, err)
		}
		return 0
	}
	for _, e := range entries {
		if e.IsDir() || !IsPartialArtifact(e.Name()) {
			continue
		}
		path := filepath.Join(dir, e.Name())
		if err := removeIfExists(path); err != nil {
			log.Debugf("Failed to remove partial file %q: %v", path, err)
			continue
		}
		removed++
	}
	return removed
}

func removeIfExists(path string) error {
	if err := os.Remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}
