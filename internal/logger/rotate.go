package logger

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// RotatingFile is a log file that rotates by size and age. It implements
// zapcore.WriteSyncer.
type RotatingFile struct {
	config Config
	now    func() time.Time

	mu   sync.Mutex
	file *os.File
}

// OpenRotatingFile opens config.FilePath for appending, rotating it first
// if it is already too large or too old
func OpenRotatingFile(config Config) (*RotatingFile, error) {
	if config.MaxSize <= 0 {
		config.MaxSize = DefaultConfig().MaxSize
	}
	if config.MaxBackups <= 0 {
		config.MaxBackups = DefaultConfig().MaxBackups
	}

	logDir := filepath.Dir(config.FilePath)
	if err := os.MkdirAll(logDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}

	r := &RotatingFile{config: config, now: time.Now}
	file, err := r.open()
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	r.file = file

	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.rotateIfNeededLocked(0); err != nil {
		file.Close()
		return nil, err
	}
	return r, nil
}

func (r *RotatingFile) open() (*os.File, error) {
	return os.OpenFile(r.config.FilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
}

// Write appends p, rotating first when p would push the file over MaxSize
func (r *RotatingFile) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return 0, os.ErrClosed
	}
	if err := r.rotateIfNeededLocked(int64(len(p))); err != nil {
		return 0, err
	}
	return r.file.Write(p)
}

// Sync flushes the file to disk
func (r *RotatingFile) Sync() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	return r.file.Sync()
}

// Close closes the file
func (r *RotatingFile) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.file == nil {
		return nil
	}
	err := r.file.Close()
	r.file = nil
	return err
}

func (r *RotatingFile) rotateIfNeededLocked(incoming int64) error {
	info, err := r.file.Stat()
	if err != nil {
		return err
	}
	if info.Size() == 0 {
		return nil
	}

	// Check size
	if info.Size()+incoming > r.config.MaxSize {
		return r.rotateLocked()
	}

	// Check age
	if r.config.MaxAge > 0 && r.now().Sub(info.ModTime()) > time.Duration(r.config.MaxAge)*24*time.Hour {
		return r.rotateLocked()
	}

	return nil
}

func (r *RotatingFile) rotateLocked() error {
	r.file.Close()

	// Rotate existing backups; the oldest falls off the end
	path := r.config.FilePath
	os.Remove(fmt.Sprintf("%s.%d", path, r.config.MaxBackups))
	for i := r.config.MaxBackups - 1; i >= 1; i-- {
		os.Rename(fmt.Sprintf("%s.%d", path, i), fmt.Sprintf("%s.%d", path, i+1))
	}

	// Move current log to .1
	if _, err := os.Stat(path); err == nil {
		if err := os.Rename(path, path+".1"); err != nil {
			return err
		}
	}

	file, err := r.open()
	if err != nil {
		r.file = nil
		return err
	}
	r.file = file
	return nil
}
