package validation

import (
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	apperrors "ruccli/internal/errors"
	"ruccli/internal/files"
)

// Accepted extensions per file role.
var (
	RegistryExtensions = []string{".csv", ".txt", ".tsv", ".xlsx", ".xlsm"}
	BoundaryExtensions = []string{".geojson", ".json"}
)

// FileValidator checks a run's input and output paths before any work is
// done, so a bad path fails the run in a second instead of after rendering.
type FileValidator struct {
	logger *slog.Logger
}

// NewFileValidator creates a new file validator
func NewFileValidator(logger *slog.Logger) *FileValidator {
	if logger == nil {
		logger = slog.Default()
	}
	return &FileValidator{
		logger: logger,
	}
}

// ValidateInput checks that path is a readable regular file with one of the
// given extensions. A missing file yields NOT_FOUND carrying the listing of
// its directory.
func (v *FileValidator) ValidateInput(path string, extensions ...string) error {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		v.logger.Error("Input file does not exist", slog.String("file", path))
		return missing(path)
	}
	if err != nil {
		return apperrors.NewStorageError("failed to stat input", err).WithContext("path", path)
	}
	if info.IsDir() {
		return apperrors.NewValidationError("input is a directory, not a file").WithContext("path", path)
	}

	if err := checkExtension(path, extensions); err != nil {
		return err
	}
	if strings.HasPrefix(filepath.Base(path), "~$") {
		return apperrors.NewValidationError("input is a spreadsheet lock file").WithContext("path", path)
	}

	file, err := os.Open(path)
	if err != nil {
		v.logger.Error("File is not readable",
			slog.String("file", path),
			slog.String("error", err.Error()))
		return apperrors.NewPermissionError("input is not readable", err).WithContext("path", path)
	}
	file.Close()

	v.logger.Debug("Input validated",
		slog.String("file", path),
		slog.Int64("size", info.Size()))
	return nil
}

// ValidateOutput ensures the directory of path exists and is writable and
// that path carries the expected extension. The output itself is not
// touched: an existing file may be open in another program, which the writer
// deals with.
func (v *FileValidator) ValidateOutput(path string, extensions ...string) error {
	if err := checkExtension(path, extensions); err != nil {
		return err
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		v.logger.Error("Failed to create output directory",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewStorageError("failed to create output directory", err).WithContext("path", dir)
	}

	// Verify it's writable by creating a probe file
	probe, err := os.CreateTemp(dir, ".write_test*")
	if err != nil {
		v.logger.Error("Output directory is not writable",
			slog.String("directory", dir),
			slog.String("error", err.Error()))
		return apperrors.NewPermissionError("output directory is not writable", err).WithContext("path", dir)
	}
	name := probe.Name()
	probe.Close()
	os.Remove(name)

	v.logger.Debug("Output directory validated", slog.String("directory", dir))
	return nil
}

func checkExtension(path string, extensions []string) error {
	if len(extensions) == 0 {
		return nil
	}
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range extensions {
		if ext == e {
			return nil
		}
	}
	return apperrors.NewValidationError("unsupported file type "+ext).
		WithContext("path", path).
		WithContext("allowed", extensions)
}

func missing(path string) error {
	dir := filepath.Dir(path)
	appErr := apperrors.NewNotFoundError(path).
		WithContext("path", path).
		WithContext("directory", dir)

	listing, err := files.ListDirectory(dir)
	if err != nil {
		return appErr.WithContext("listing_error", err.Error())
	}
	return appErr.WithContext("directory_listing", listing)
}
