package persistence

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"sync/atomic"
	"time"

	"github.com/hupe1980/dbow/internal/fs"
)

var tmpSeq atomic.Uint64

// WriteFileAtomic writes data to path through a temporary file in the same
// directory, then renames it into place. On failure the previous content of
// path is untouched and the temporary file is removed.
func WriteFileAtomic(fsys fs.FileSystem, path string, data []byte) error {
	if fsys == nil {
		fsys = fs.Default
	}
	dir := filepath.Dir(path)
	if err := fsys.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("persistence: failed to create directory %s: %w", dir, err)
	}

	tmp := path + ".tmp-" + strconv.FormatInt(time.Now().UnixNano(), 36) + "-" + strconv.FormatUint(tmpSeq.Add(1), 36)
	f, err := fsys.OpenFile(tmp, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("persistence: failed to create temp file for %s: %w", path, err)
	}
	committed := false
	defer func() {
		if !committed {
			_ = fsys.Remove(tmp)
		}
	}()

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return fmt.Errorf("persistence: failed to write %s: %w", path, err)
	}
	if err := f.Sync(); err != nil {
		_ = f.Close()
		return fmt.Errorf("persistence: failed to sync %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("persistence: failed to close %s: %w", path, err)
	}
	if err := fsys.Rename(tmp, path); err != nil {
		return fmt.Errorf("persistence: failed to rename %s: %w", path, err)
	}
	committed = true
	return nil
}

// ReadFile reads the whole file at path.
func ReadFile(fsys fs.FileSystem, path string) ([]byte, error) {
	if fsys == nil {
		fsys = fs.Default
	}
	return fs.ReadFile(fsys, path)
}
