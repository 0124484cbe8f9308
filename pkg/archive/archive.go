// Package archive packs a mirrored asset tree into a single archive and restores it.
package archive

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mholt/archives"

	pkgerrors "github.com/cperrin88/assetmirror/pkg/errors"
	"github.com/cperrin88/assetmirror/pkg/fsutil"
)

// Manager handles archive extraction and creation operations.
type Manager struct{}

// NewManager creates a new Manager instance.
func NewManager() *Manager {
	return &Manager{}
}

// Extensions accepted by Create, mapped to their archive formats.
var formats = map[string]archives.Archiver{
	".tar.gz":  archives.CompressedArchive{Compression: archives.Gz{}, Archival: archives.Tar{}},
	".tgz":     archives.CompressedArchive{Compression: archives.Gz{}, Archival: archives.Tar{}},
	".tar.zst": archives.CompressedArchive{Compression: archives.Zstd{}, Archival: archives.Tar{}},
	".tar":     archives.Tar{},
	".zip":     archives.Zip{},
}

func formatFor(archivePath string) (archives.Archiver, error) {
	name := strings.ToLower(filepath.Base(archivePath))
	for ext, format := range formats {
		if strings.HasSuffix(name, ext) {
			return format, nil
		}
	}
	return nil, fmt.Errorf("unsupported archive extension %q, use .tar.gz, .tgz, .tar.zst, .tar or .zip", filepath.Base(archivePath))
}

// isPartial reports whether name is a download that never finished.
func isPartial(name string) bool {
	base := filepath.Base(name)
	return strings.HasPrefix(base, ".dl-") && strings.HasSuffix(base, ".tmp")
}

// Create packs every file under sourceDir into archivePath and returns the number of
// files written. The format follows the archive extension.
func (am *Manager) Create(ctx context.Context, sourceDir, archivePath string) (int, error) {
	format, err := formatFor(archivePath)
	if err != nil {
		return 0, err
	}
	absolutePath, err := filepath.Abs(sourceDir)
	if err != nil {
		return 0, fmt.Errorf("failed to get absolute path for source directory: %w", err)
	}
	if info, err := os.Stat(absolutePath); err != nil || !info.IsDir() {
		return 0, fmt.Errorf("%w: %s is not a directory", pkgerrors.ErrInvalidPath, sourceDir)
	}
	absArchive, err := filepath.Abs(archivePath)
	if err != nil {
		return 0, fmt.Errorf("failed to get absolute path for archive: %w", err)
	}
	if fsutil.IsWithin(absolutePath, absArchive) {
		return 0, fmt.Errorf("%w: archive %s must not be inside %s", pkgerrors.ErrInvalidPath, archivePath, sourceDir)
	}

	found, err := archives.FilesFromDisk(ctx, nil, map[string]string{
		absolutePath + string(os.PathSeparator): "",
	})
	if err != nil {
		return 0, fmt.Errorf("failed to read files from disk: %w", err)
	}
	files := make([]archives.FileInfo, 0, len(found))
	count := 0
	for _, f := range found {
		if isPartial(f.NameInArchive) {
			continue
		}
		if !f.IsDir() {
			count++
		}
		files = append(files, f)
	}

	if err := fsutil.EnsureFileDir(absArchive); err != nil {
		return 0, err
	}
	file, err := os.Create(absArchive)
	if err != nil {
		return 0, fmt.Errorf("failed to create output file %s: %w", archivePath, err)
	}
	defer func() {
		_ = file.Sync()
		_ = file.Close()
	}()

	if err := format.Archive(ctx, file, files); err != nil {
		_ = os.Remove(absArchive)
		return 0, fmt.Errorf("failed to create archive: %w", err)
	}
	return count, nil
}

// ExtractAll restores every regular file of an archive under destDir and returns how
// many were written. Entries that would land outside destDir, and links, are refused.
func (am *Manager) ExtractAll(ctx context.Context, archivePath, destDir string) (int, error) {
	fsys, err := archives.FileSystem(ctx, archivePath, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to open archive file: %w", err)
	}
	if closer, ok := fsys.(io.Closer); ok {
		defer func() { _ = closer.Close() }()
	}

	root, err := filepath.Abs(destDir)
	if err != nil {
		return 0, fmt.Errorf("failed to get absolute path for destination: %w", err)
	}
	if err := fsutil.EnsureDir(root); err != nil {
		return 0, err
	}

	count := 0
	err = fs.WalkDir(fsys, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if path == "." {
			return nil
		}
		written, err := am.extractEntry(fsys, path, root, d)
		if written {
			count++
		}
		return err
	})
	return count, err
}

// extractEntry writes a single archive entry below root.
func (am *Manager) extractEntry(fsys fs.FS, path, root string, d fs.DirEntry) (bool, error) {
	targetPath := filepath.Join(root, filepath.FromSlash(path))
	if !fsutil.IsWithin(root, targetPath) {
		return false, fmt.Errorf("%w: archive entry %s escapes %s", pkgerrors.ErrInvalidPath, path, root)
	}
	if d.IsDir() {
		return false, fsutil.EnsureDir(targetPath)
	}

	info, err := d.Info()
	if err != nil {
		return false, fmt.Errorf("failed to get file info for %s: %w", path, err)
	}
	if !info.Mode().IsRegular() {
		return false, fmt.Errorf("%w: archive entry %s is not a regular file", pkgerrors.ErrInvalidPath, path)
	}
	return true, am.writeRegularFile(fsys, path, targetPath, info)
}

// writeRegularFile writes a regular file from the archive entry to targetPath and preserves its mtime.
func (am *Manager) writeRegularFile(fsys fs.FS, path, targetPath string, info fs.FileInfo) error {
	srcFile, err := fsys.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open source file %s: %w", path, err)
	}
	defer func() { _ = srcFile.Close() }()

	if err := fsutil.EnsureFileDir(targetPath); err != nil {
		return err
	}
	dstFile, err := fsutil.CreateFilePerm(targetPath, fsutil.FileModeDefault)
	if err != nil {
		return fmt.Errorf("failed to create destination file %s: %w", targetPath, err)
	}
	if _, err := io.Copy(dstFile, srcFile); err != nil {
		_ = dstFile.Close()
		return fmt.Errorf("failed to copy file %s: %w", path, err)
	}
	if err := dstFile.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", targetPath, err)
	}
	if err := os.Chtimes(targetPath, info.ModTime(), info.ModTime()); err != nil {
		return fmt.Errorf("failed to set modification time for %s: %w", targetPath, err)
	}
	return nil
}
