package imap

import (
	"io"
	"log"
)

// WithDebug returns a ConnectionOptions.Debug sink that mirrors sent and
// received traffic through the standard log package, one log call per Write
// (a Connection writes the "C[<id>]: " / "S[<id>]: " label and the bytes
// as separate Writes), the
// same way the teacher corpus logs IMAP traffic with log.Printf rather than
// a structured logger (this package's wire protocol is the log line; there
// is no structured field to attach beyond the raw bytes).
func WithDebug(prefix string) io.Writer {
	return &logWriter{prefix: prefix}
}

type logWriter struct{ prefix string }

func (w *logWriter) Write(p []byte) (int, error) {
	log.Print(w.prefix, string(p))
	return len(p), nil
}
