package archive

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Record is one archived webhook delivery: the raw payload plus enough
// envelope to replay or audit it later.
type Record struct {
	ReceivedAt time.Time              `json:"received_at"`
	EventKind  string                 `json:"event_kind"`
	Headers    map[string]string      `json:"headers,omitempty"`
	Payload    map[string]interface{} `json:"payload"`
}

// FileArchiver writes each webhook delivery to its own JSON file.
// Archiving is best-effort: callers log failures and keep processing,
// since losing an archive copy must never fail the delivery.
type FileArchiver struct {
	dir    string
	logger *zap.Logger
	now    func() time.Time
}

func NewFileArchiver(dir string, logger *zap.Logger) *FileArchiver {
	return &FileArchiver{
		dir:    dir,
		logger: logger,
		now:    time.Now,
	}
}

// WithArchiveClock overrides the archiver's time source.
func (a *FileArchiver) WithArchiveClock(now func() time.Time) *FileArchiver {
	a.now = now
	return a
}

// Archive persists one delivery. Files are opened O_EXCL so an archive is
// never silently overwritten; a duplicate name gets a numeric suffix.
func (a *FileArchiver) Archive(rec Record) error {
	if a.dir == "" {
		return nil
	}

	if err := os.MkdirAll(a.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create archive directory: %w", err)
	}

	if rec.ReceivedAt.IsZero() {
		rec.ReceivedAt = a.now()
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode webhook archive: %w", err)
	}

	status, _ := rec.Payload["status"].(string)
	invoiceID, _ := rec.Payload["id"].(string)
	base := fmt.Sprintf("webhook_%s_%s_%s_%s",
		rec.ReceivedAt.Format("2006-01-02_15-04-05"),
		sanitize(rec.EventKind),
		sanitize(status),
		sanitize(invoiceID))

	for attempt := 0; attempt < 10; attempt++ {
		name := base + ".json"
		if attempt > 0 {
			name = fmt.Sprintf("%s_%d.json", base, attempt)
		}
		path := filepath.Join(a.dir, name)

		f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if os.IsExist(err) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to create archive file: %w", err)
		}

		_, werr := f.Write(data)
		cerr := f.Close()
		if werr != nil {
			return fmt.Errorf("failed to write archive file: %w", werr)
		}
		if cerr != nil {
			return fmt.Errorf("failed to close archive file: %w", cerr)
		}

		a.logger.Debug("webhook archived", zap.String("path", path))
		return nil
	}

	return fmt.Errorf("failed to find free archive name for %s", base)
}

// sanitize keeps filename components to a safe character set.
func sanitize(s string) string {
	if s == "" {
		return "none"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '-' || r == '_' || r == '.':
			return r
		default:
			return '-'
		}
	}, s)
}
