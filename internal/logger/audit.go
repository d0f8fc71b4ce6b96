package logger

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Transaction audit statuses
const (
	TxStatusSigned    = "signed"
	TxStatusSubmitted = "submitted"
	TxStatusFailed    = "failed"
)

// TxRecord is one line of the transaction audit log
type TxRecord struct {
	Timestamp    time.Time `json:"timestamp"`
	Address      string    `json:"address"`
	Digest       string    `json:"digest"`
	Status       string    `json:"status"`
	Signature    string    `json:"signature,omitempty"`
	ErrorMessage string    `json:"error_message,omitempty"`
}

// TxSummary aggregates records written since the audit log was opened
type TxSummary struct {
	Signed    int `json:"signed"`
	Submitted int `json:"submitted"`
	Failed    int `json:"failed"`
}

// AuditLogger appends transaction records to daily JSONL files
type AuditLogger struct {
	baseDir string
	logger  *Logger
	now     func() time.Time

	mu      sync.Mutex
	summary TxSummary
}

// NewAuditLogger creates baseDir and returns an audit logger writing into it
func NewAuditLogger(baseDir string, logger *Logger) (*AuditLogger, error) {
	if err := os.MkdirAll(baseDir, 0700); err != nil {
		return nil, fmt.Errorf("failed to create audit log directory: %w", err)
	}

	return &AuditLogger{
		baseDir: baseDir,
		logger:  logger,
		now:     time.Now,
	}, nil
}

// Record appends rec to today's file
func (al *AuditLogger) Record(rec TxRecord) error {
	if rec.Timestamp.IsZero() {
		rec.Timestamp = al.now()
	}

	line, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal tx record: %w", err)
	}

	al.mu.Lock()
	defer al.mu.Unlock()

	file, err := os.OpenFile(al.FilePath(rec.Timestamp), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0600)
	if err != nil {
		return fmt.Errorf("failed to open audit log file: %w", err)
	}
	defer file.Close()

	if _, err := file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("failed to write tx record: %w", err)
	}

	switch rec.Status {
	case TxStatusSigned:
		al.summary.Signed++
	case TxStatusSubmitted:
		al.summary.Submitted++
	case TxStatusFailed:
		al.summary.Failed++
	}

	al.logger.WithFields(map[string]interface{}{
		"event":  "tx_recorded",
		"digest": rec.Digest,
		"status": rec.Status,
	}).Debug("Transaction recorded")

	return nil
}

// FilePath returns the audit file used for records written at t
func (al *AuditLogger) FilePath(t time.Time) string {
	return filepath.Join(al.baseDir, fmt.Sprintf("transactions_%s.jsonl", t.Format("2006-01-02")))
}

// Summary returns counts of records written so far
func (al *AuditLogger) Summary() TxSummary {
	al.mu.Lock()
	defer al.mu.Unlock()
	return al.summary
}

// LogSummary writes the running summary to the main logger
func (al *AuditLogger) LogSummary() {
	s := al.Summary()
	al.logger.WithFields(map[string]interface{}{
		"event":     "tx_summary",
		"signed":    s.Signed,
		"submitted": s.Submitted,
		"failed":    s.Failed,
	}).Info("Transaction summary")
}
