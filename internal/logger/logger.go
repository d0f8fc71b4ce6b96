package logger

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// Logger represents the application logger
type Logger struct {
	*logrus.Logger
	config  LogConfig
	logFile *os.File
}

// LogConfig contains logger configuration
type LogConfig struct {
	Level       string
	Format      string // "json", "text" or anything else for the console format
	LogToFile   bool
	LogFilePath string
	AuditLogDir string
}

// NewLogger creates a new logger instance
func NewLogger(config LogConfig) (*Logger, error) {
	log := logrus.New()

	level, err := logrus.ParseLevel(config.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %s: %w", config.Level, err)
	}
	log.SetLevel(level)
	log.SetOutput(os.Stdout)

	switch strings.ToLower(config.Format) {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: time.RFC3339,
			FieldMap: logrus.FieldMap{
				logrus.FieldKeyTime:  "timestamp",
				logrus.FieldKeyLevel: "level",
				logrus.FieldKeyMsg:   "message",
			},
		})
	case "text":
		log.SetFormatter(&logrus.TextFormatter{
			FullTimestamp:   true,
			TimestampFormat: "2006-01-02 15:04:05.000",
			DisableQuote:    true,
		})
	default:
		log.SetFormatter(&CustomFormatter{})
	}

	l := &Logger{Logger: log, config: config}

	if config.LogToFile && config.LogFilePath != "" {
		logDir := filepath.Dir(config.LogFilePath)
		if err := os.MkdirAll(logDir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create log directory %s: %w", logDir, err)
		}

		file, err := os.OpenFile(config.LogFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file %s: %w", config.LogFilePath, err)
		}
		l.logFile = file
		log.SetOutput(io.MultiWriter(os.Stdout, file))
	}

	return l, nil
}

// NewNop returns a logger that discards everything; used by tests and library callers
func NewNop() *Logger {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return &Logger{Logger: log}
}

// Close releases the log file, if any
func (l *Logger) Close() error {
	if l.logFile == nil {
		return nil
	}
	err := l.logFile.Close()
	l.logFile = nil
	l.Logger.SetOutput(os.Stdout)
	return err
}

// CustomFormatter provides a clean, timestamped format for console output
type CustomFormatter struct{}

func (f *CustomFormatter) Format(entry *logrus.Entry) ([]byte, error) {
	timestamp := entry.Time.Format("2006-01-02 15:04:05.000")
	level := strings.ToUpper(entry.Level.String())

	var levelColor string
	switch entry.Level {
	case logrus.DebugLevel, logrus.TraceLevel:
		levelColor = "\033[36m" // Cyan
	case logrus.InfoLevel:
		levelColor = "\033[32m" // Green
	case logrus.WarnLevel:
		levelColor = "\033[33m" // Yellow
	case logrus.ErrorLevel, logrus.FatalLevel, logrus.PanicLevel:
		levelColor = "\033[31m" // Red
	default:
		levelColor = "\033[0m"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "%s [%s%s\033[0m] %s", timestamp, levelColor, level, entry.Message)

	if len(entry.Data) > 0 {
		b.WriteString(" |")
		for key, value := range entry.Data {
			fmt.Fprintf(&b, " %s=%v", key, value)
		}
	}

	b.WriteByte('\n')
	return []byte(b.String()), nil
}

// WithComponent returns a logger with component context
func (l *Logger) WithComponent(component string) *logrus.Entry {
	return l.WithField("component", component)
}

// WithTransaction returns a logger with transaction digest context
func (l *Logger) WithTransaction(digest string) *logrus.Entry {
	return l.WithField("digest", digest)
}

// Wallet events. Key material, seeds and mnemonics never go through these.

// LogWalletLoaded logs the active address once key material is loaded
func (l *Logger) LogWalletLoaded(address, scheme, source string) {
	l.WithFields(logrus.Fields{
		"event":   "wallet_loaded",
		"address": address,
		"scheme":  scheme,
		"source":  source,
	}).Info("Wallet loaded")
}

// LogSigned logs a produced transaction signature
func (l *Logger) LogSigned(digest, address string, duration time.Duration) {
	l.WithFields(logrus.Fields{
		"event":       "tx_signed",
		"digest":      digest,
		"address":     address,
		"duration_us": duration.Microseconds(),
	}).Debug("Transaction signed")
}

// LogSubmitted logs the outcome of handing a signed transaction to the network
func (l *Logger) LogSubmitted(digest string, err error) {
	entry := l.WithFields(logrus.Fields{
		"event":  "tx_submitted",
		"digest": digest,
	})
	if err != nil {
		entry.WithError(err).Warn("Transaction submission failed")
		return
	}
	entry.Info("Transaction submitted")
}

// LogBalance logs a balance lookup
func (l *Logger) LogBalance(address, coinType, totalMist string) {
	l.WithFields(logrus.Fields{
		"event":     "balance_check",
		"address":   address,
		"coin_type": coinType,
		"balance":   totalMist,
	}).Info("Wallet balance")
}

// LogError logs general errors with context
func (l *Logger) LogError(component, operation string, err error, fields logrus.Fields) {
	logFields := logrus.Fields{
		"event":     "error",
		"component": component,
		"operation": operation,
	}
	for k, v := range fields {
		logFields[k] = v
	}

	l.WithFields(logFields).WithError(err).Error("Component error")
}

// LogStartup logs application startup information
func (l *Logger) LogStartup(version, network, rpcURL string) {
	l.WithFields(logrus.Fields{
		"event":   "startup",
		"version": version,
		"network": network,
		"rpc_url": rpcURL,
	}).Info("Wallet starting up")
}

// LogShutdown logs application shutdown information
func (l *Logger) LogShutdown(reason string) {
	l.WithFields(logrus.Fields{
		"event":  "shutdown",
		"reason": reason,
	}).Info("Wallet shutting down")
}

// LogLatency logs operation latency
func (l *Logger) LogLatency(operation string, duration time.Duration) {
	l.WithFields(logrus.Fields{
		"event":     "latency",
		"operation": operation,
		"duration":  duration.Milliseconds(),
		"unit":      "ms",
	}).Debug("Operation latency")
}
