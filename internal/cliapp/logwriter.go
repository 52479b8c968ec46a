package cliapp

import (
	"bytes"
	"log/slog"
	"sync"
)

// lineWriter splits writes into lines and hands each complete line to emit.
// A trailing partial line is held until the next write or Flush.
type lineWriter struct {
	mu   sync.Mutex
	buf  []byte
	emit func(string)
}

func newLineWriter(emit func(string)) *lineWriter {
	return &lineWriter{emit: emit}
}

// newLogWriter logs every line at info level with a source attribute.
func newLogWriter(logger *slog.Logger, source string) *lineWriter {
	return newLineWriter(func(line string) {
		logger.Info(line, "source", source)
	})
}

func (w *lineWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.buf = append(w.buf, p...)
	for {
		i := bytes.IndexByte(w.buf, '\n')
		if i < 0 {
			break
		}
		line := string(bytes.TrimRight(w.buf[:i], "\r"))
		w.buf = w.buf[i+1:]
		if line != "" {
			w.emit(line)
		}
	}
	return len(p), nil
}

func (w *lineWriter) Flush() {
	w.mu.Lock()
	defer w.mu.Unlock()
	if len(w.buf) > 0 {
		w.emit(string(w.buf))
		w.buf = nil
	}
}
