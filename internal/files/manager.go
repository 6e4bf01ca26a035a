package files

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"syscall"

	apperrors "ruccli/internal/errors"
)

// SafeWriter writes output files that may be held open by another program,
// typically a spreadsheet application locking the previous run's workbook.
//
// The write is attempted on the target first. On a lock conflict the data goes
// to a temporary file next to the target, which then replaces the target with
// a rename. If the replace is refused as well the temporary file is removed and
// a PERMISSION error is returned; the target is never left half written because
// callers hand over fully serialized bytes.
type SafeWriter struct {
	tempName string
	logger   *slog.Logger

	writeFile func(name string, data []byte, perm fs.FileMode) error
	remove    func(name string) error
	rename    func(oldpath, newpath string) error
}

// WriteResult describes a completed write.
type WriteResult struct {
	Path         string
	Bytes        int
	UsedFallback bool
}

// NewSafeWriter creates a SafeWriter whose fallback file is tempName (a bare
// file name) in the target's directory, with its extension replaced by the
// target's: "_temp_output.xlsx" becomes "_temp_output.png" for a PNG target.
func NewSafeWriter(tempName string, logger *slog.Logger) *SafeWriter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SafeWriter{
		tempName:  tempName,
		logger:    logger,
		writeFile: os.WriteFile,
		remove:    os.Remove,
		rename:    os.Rename,
	}
}

// Write stores data at target.
func (w *SafeWriter) Write(target string, data []byte) (*WriteResult, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, apperrors.NewStorageError("failed to create output directory", err).WithContext("path", dir)
	}

	err := w.writeFile(target, data, 0644)
	if err == nil {
		w.logger.Info("Output written",
			slog.String("path", target),
			slog.Int("size_bytes", len(data)))
		return &WriteResult{Path: target, Bytes: len(data)}, nil
	}
	if !IsLockConflict(err) {
		return nil, apperrors.NewStorageError("failed to write output", err).WithContext("path", target)
	}

	w.logger.Warn("Output file is locked, writing through temporary file",
		slog.String("path", target),
		slog.String("error", err.Error()))

	temp := w.tempPath(target)
	if err := w.writeFile(temp, data, 0644); err != nil {
		return nil, apperrors.NewStorageError("failed to write temporary output", err).WithContext("path", temp)
	}

	if err := w.remove(target); err != nil && !errors.Is(err, fs.ErrNotExist) {
		w.logger.Warn("Output file is open, forcing replace",
			slog.String("path", target),
			slog.String("error", err.Error()))
	}

	if err := w.rename(temp, target); err != nil {
		if rmErr := w.remove(temp); rmErr != nil && !errors.Is(rmErr, fs.ErrNotExist) {
			w.logger.Warn("Failed to discard temporary output",
				slog.String("path", temp),
				slog.String("error", rmErr.Error()))
		}
		if IsLockConflict(err) {
			return nil, apperrors.NewPermissionError("output file is open in another program", err).
				WithContext("path", target)
		}
		return nil, apperrors.NewStorageError("failed to replace output", err).WithContext("path", target)
	}

	w.logger.Info("Output written through temporary file",
		slog.String("path", target),
		slog.Int("size_bytes", len(data)))

	return &WriteResult{Path: target, Bytes: len(data), UsedFallback: true}, nil
}

func (w *SafeWriter) tempPath(target string) string {
	stem := strings.TrimSuffix(w.tempName, filepath.Ext(w.tempName))
	return filepath.Join(filepath.Dir(target), stem+filepath.Ext(target))
}

// IsLocked reports whether err is the unresolved lock conflict returned by Write.
func IsLocked(err error) bool {
	return apperrors.IsType(err, apperrors.ErrTypePermission)
}

// IsLockConflict reports whether err means another process holds the file.
func IsLockConflict(err error) bool {
	if err == nil {
		return false
	}
	return errors.Is(err, fs.ErrPermission) ||
		errors.Is(err, syscall.EBUSY) ||
		errors.Is(err, syscall.ETXTBSY) ||
		isSharingViolation(err)
}
