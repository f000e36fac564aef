// Package logging routes the process log through an optional rotating file.
package logging

import (
	"io"
	"log"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// Options controls where log output goes.
type Options struct {
	// File enables rotation when set; output always also goes to stderr.
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Setup configures the standard logger. It returns a closer for the
// rotating file, or a no-op when logging stays on stderr only.
func Setup(opts Options) io.Closer {
	log.SetFlags(log.LstdFlags | log.Lmsgprefix)

	if opts.File == "" {
		log.SetOutput(os.Stderr)
		return nopCloser{}
	}

	rotator := &lumberjack.Logger{
		Filename:   opts.File,
		MaxSize:    opts.MaxSizeMB,
		MaxBackups: opts.MaxBackups,
		MaxAge:     opts.MaxAgeDays,
		Compress:   true,
	}
	log.SetOutput(io.MultiWriter(os.Stderr, rotator))
	return rotator
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
