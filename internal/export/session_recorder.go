package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/jengzang/activity-detection-go/internal/models"
)

// FITSessionRecorder writes a FIT file for every activity the detector
// opens and closes. Files land in Dir as <device>_<activity>.fit.
type FITSessionRecorder struct {
	dir    string
	logger *slog.Logger

	mu   sync.Mutex
	open map[string]struct{}
}

// NewFITSessionRecorder creates the output directory if needed
func NewFITSessionRecorder(dir string, logger *slog.Logger) (*FITSessionRecorder, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create export directory: %w", err)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FITSessionRecorder{
		dir:    dir,
		logger: logger.With("component", "fit_recorder"),
		open:   make(map[string]struct{}),
	}, nil
}

// StartSession marks the beginning of a recording
func (r *FITSessionRecorder) StartSession(_ context.Context, rec *models.ActivityRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.open[rec.ID]; ok {
		return fmt.Errorf("session %s already recording", rec.ID)
	}
	r.open[rec.ID] = struct{}{}
	return nil
}

// StopSession finalizes the recording and writes the FIT file
func (r *FITSessionRecorder) StopSession(_ context.Context, rec *models.ActivityRecord) error {
	r.mu.Lock()
	_, ok := r.open[rec.ID]
	delete(r.open, rec.ID)
	r.mu.Unlock()
	if !ok {
		return fmt.Errorf("session %s was not started", rec.ID)
	}

	path := r.Path(rec)
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create FIT file: %w", err)
	}
	if err := WriteActivityFIT(f, rec); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("failed to close FIT file: %w", err)
	}

	r.logger.Info("fit session written", "activity_id", rec.ID, "path", path)
	return nil
}

// Path returns where a record's FIT file is written
func (r *FITSessionRecorder) Path(rec *models.ActivityRecord) string {
	return filepath.Join(r.dir, fmt.Sprintf("%s_%s.fit", sanitize(rec.DeviceID), sanitize(rec.ID)))
}

func sanitize(s string) string {
	out := []rune(s)
	for i, c := range out {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '-', c == '_':
		default:
			out[i] = '_'
		}
	}
	return string(out)
}
