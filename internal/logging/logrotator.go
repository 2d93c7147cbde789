package logging

import (
	"compress/gzip"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

const filePrefix = "modesrx"

// LogRotator hands out the current day's message log and rotates it at
// the date boundary, gzip-compressing the previous file.
type LogRotator struct {
	logDir      string
	useUTC      bool
	logger      *logrus.Logger
	currentFile *os.File
	currentDate string
	mutex       sync.RWMutex
}

// NewLogRotator creates the log directory if needed and opens the
// current day's file.
func NewLogRotator(logDir string, useUTC bool, logger *logrus.Logger) (*LogRotator, error) {
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	r := &LogRotator{
		logDir: logDir,
		useUTC: useUTC,
		logger: logger,
	}
	if err := r.rotate(); err != nil {
		return nil, fmt.Errorf("failed to initialize log file: %w", err)
	}
	return r, nil
}

// Start watches for date changes until ctx is cancelled.
func (r *LogRotator) Start(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			r.logger.Info("Log rotator stopping")
			return
		case <-ticker.C:
			r.mutex.Lock()
			if r.currentDate != r.today() {
				r.logger.WithField("new_date", r.today()).Info("Rotating log file")
				if err := r.rotate(); err != nil {
					r.logger.WithError(err).Error("Failed to rotate log file")
				}
			}
			r.mutex.Unlock()
		}
	}
}

func (r *LogRotator) today() string {
	now := time.Now()
	if r.useUTC {
		now = now.UTC()
	}
	return now.Format("2006-01-02")
}

func (r *LogRotator) logPath(date string) string {
	return filepath.Join(r.logDir, fmt.Sprintf("%s_%s.log", filePrefix, date))
}

// rotate closes and compresses the previous file and opens the current
// day's. Callers hold the mutex except during construction.
func (r *LogRotator) rotate() error {
	if r.currentFile != nil {
		oldDate := r.currentDate
		if err := r.currentFile.Close(); err != nil {
			r.logger.WithError(err).Error("Failed to close old log file")
		}
		go r.compress(oldDate)
	}

	date := r.today()
	file, err := os.OpenFile(r.logPath(date), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to create log file: %w", err)
	}

	r.currentFile = file
	r.currentDate = date
	r.logger.WithField("file", r.logPath(date)).Info("Opened log file")
	return nil
}

// compress gzips a rotated-out log file and removes the original.
func (r *LogRotator) compress(date string) {
	logFile := r.logPath(date)
	gzipFile := logFile + ".gz"

	src, err := os.Open(logFile)
	if err != nil {
		r.logger.WithError(err).WithField("file", logFile).Error("Failed to open log file for compression")
		return
	}
	defer src.Close()

	dst, err := os.Create(gzipFile)
	if err != nil {
		r.logger.WithError(err).WithField("file", gzipFile).Error("Failed to create compressed file")
		return
	}
	defer dst.Close()

	gz := gzip.NewWriter(dst)
	gz.Name = filepath.Base(logFile)
	gz.ModTime = time.Now()

	if _, err := io.Copy(gz, src); err != nil {
		r.logger.WithError(err).Error("Failed to compress log file")
		return
	}
	if err := gz.Close(); err != nil {
		r.logger.WithError(err).Error("Failed to flush compressed file")
		return
	}

	if err := os.Remove(logFile); err != nil {
		r.logger.WithError(err).WithField("file", logFile).Error("Failed to remove original log file")
		return
	}
	r.logger.WithField("file", gzipFile).Info("Log file compressed")
}

// GetWriter returns the current log writer.
func (r *LogRotator) GetWriter() (io.Writer, error) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.currentFile == nil {
		return nil, fmt.Errorf("no current log file")
	}
	return r.currentFile, nil
}

// CurrentLogFile returns the path of the active log file.
func (r *LogRotator) CurrentLogFile() string {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	if r.currentDate == "" {
		return ""
	}
	return r.logPath(r.currentDate)
}

// Close flushes and closes the active log file.
func (r *LogRotator) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	if r.currentFile == nil {
		return nil
	}
	err := r.currentFile.Close()
	r.currentFile = nil
	return err
}
