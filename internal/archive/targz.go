// Package archive builds the compressed backup artifact.
package archive

import (
	"archive/tar"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// Writer streams entries into a tar.gz archive.
type Writer struct {
	gz  *gzip.Writer
	tw  *tar.Writer
	err error
}

// NewWriter wraps w in a gzip-compressed tar stream.
func NewWriter(w io.Writer) *Writer {
	gz := gzip.NewWriter(w)
	return &Writer{
		gz: gz,
		tw: tar.NewWriter(gz),
	}
}

// AddDir walks sourceDir and adds its contents under prefix inside the
// archive. Files and directories whose base name matches one of the
// exclude patterns are skipped (directories are skipped recursively).
func (w *Writer) AddDir(sourceDir, prefix string, excludePatterns []string) error {
	info, err := os.Stat(sourceDir)
	if err != nil {
		return fmt.Errorf("source directory does not exist: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("source path is not a directory: %s", sourceDir)
	}

	return filepath.Walk(sourceDir, func(filePath string, fileInfo os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if filePath == sourceDir {
			return nil
		}

		if matchesAny(excludePatterns, filepath.Base(filePath)) {
			if fileInfo.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}

		relPath, err := filepath.Rel(sourceDir, filePath)
		if err != nil {
			return fmt.Errorf("failed to get relative path: %w", err)
		}

		header, err := tar.FileInfoHeader(fileInfo, "")
		if err != nil {
			return fmt.Errorf("failed to create tar header: %w", err)
		}
		header.Name = filepath.ToSlash(filepath.Join(prefix, relPath))

		if err := w.tw.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write tar header: %w", err)
		}

		if fileInfo.Mode().IsRegular() {
			f, err := os.Open(filePath)
			if err != nil {
				return fmt.Errorf("failed to open file: %w", err)
			}
			defer f.Close()

			if _, err := io.Copy(w.tw, f); err != nil {
				return fmt.Errorf("failed to write file contents: %w", err)
			}
		}

		return nil
	})
}

// AddFile adds a single file to the archive under the given name.
func (w *Writer) AddFile(path, name string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}

	header, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return fmt.Errorf("failed to create tar header: %w", err)
	}
	header.Name = name

	if err := w.tw.WriteHeader(header); err != nil {
		return fmt.Errorf("failed to write tar header: %w", err)
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	if _, err := io.Copy(w.tw, f); err != nil {
		return fmt.Errorf("failed to write file contents: %w", err)
	}

	return nil
}

// Close flushes the tar and gzip streams.
func (w *Writer) Close() error {
	if err := w.tw.Close(); err != nil {
		w.gz.Close()
		return err
	}
	return w.gz.Close()
}

// Create builds an archive at outputPath through the build callback.
// The archive is written to a temporary sibling first and renamed into
// place only when the build completed, so a failed run never leaves a
// partial archive at the final location.
func Create(outputPath string, build func(*Writer) error) error {
	tmpPath := outputPath + ".tmp"

	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("failed to create archive: %w", err)
	}

	w := NewWriter(f)
	if err := build(w); err != nil {
		w.Close()
		f.Close()
		os.Remove(tmpPath)
		return err
	}

	if err := w.Close(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize archive: %w", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("failed to sync archive: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to close archive: %w", err)
	}

	if err := os.Rename(tmpPath, outputPath); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to finalize archive: %w", err)
	}

	return nil
}

func matchesAny(patterns []string, name string) bool {
	for _, pattern := range patterns {
		matched, err := filepath.Match(pattern, name)
		if err == nil && matched {
			return true
		}
	}
	return false
}
