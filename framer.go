package imap

import (
	"errors"
	"io"
	"time"

	"github.com/eslider/goimap/internal/wire"
)

// framer owns the raw byte stream and turns it into Responses, and turns
// command text into bytes on the wire. It knows nothing about IMAP command
// semantics (that's Connection/Client/Session) or grammar (that's Parse) —
// it only buffers reads, drives re-parsing on IncompleteError, and mirrors
// traffic to an optional debug sink. Grounded on the teacher's
// imapClient.readLine/readExact buffered-read loop, generalized from
// line-at-a-time to the byte-level Parse/Incomplete protocol so literals
// never need a special-cased read path.
type framer struct {
	conn io.ReadWriteCloser
	buf  []byte // unconsumed bytes read so far; grows until a full Response parses

	readTimeout time.Duration

	debug      io.Writer
	debugLabel func(sent bool) string
}

func newFramer(conn io.ReadWriteCloser) *framer {
	return &framer{conn: conn, buf: make([]byte, 0, 4096)}
}

type deadlineSetter interface {
	SetReadDeadline(t time.Time) error
	SetWriteDeadline(t time.Time) error
}

// readResponse blocks until a complete Response is available and returns
// it, consuming the bytes it occupied from buf. Returns *IOError on stream
// failure.
func (f *framer) readResponse() (*Response, error) {
	for {
		resp, n, err := Parse(f.buf)
		if err == nil {
			f.buf = f.buf[n:]
			return resp, nil
		}
		if !isIncomplete(err) {
			return nil, err
		}
		if readErr := f.fill(); readErr != nil {
			return nil, readErr
		}
	}
}

// fill reads at least one more chunk from the connection into buf.
func (f *framer) fill() error {
	if ds, ok := f.conn.(deadlineSetter); ok && f.readTimeout > 0 {
		ds.SetReadDeadline(time.Now().Add(f.readTimeout))
	}
	tmp := make([]byte, 8192)
	n, err := f.conn.Read(tmp)
	if n > 0 {
		f.buf = append(f.buf, tmp[:n]...)
		if f.debug != nil {
			f.writeDebug(false, tmp[:n])
		}
	}
	if err != nil {
		return wrapIO(err)
	}
	return nil
}

// writeLine sends one CRLF-terminated command line.
func (f *framer) writeLine(line string) error {
	return f.writeRaw([]byte(line + "\r\n"))
}

// writeRaw sends raw bytes (a literal payload, or a pre-built command line).
func (f *framer) writeRaw(b []byte) error {
	if ds, ok := f.conn.(deadlineSetter); ok && f.readTimeout > 0 {
		ds.SetWriteDeadline(time.Now().Add(f.readTimeout))
	}
	if _, err := f.conn.Write(b); err != nil {
		return wrapIO(err)
	}
	if f.debug != nil {
		f.writeDebug(true, b)
	}
	return nil
}

func (f *framer) writeDebug(sent bool, b []byte) {
	var prefix string
	if f.debugLabel != nil {
		prefix = f.debugLabel(sent)
	} else if sent {
		prefix = "C: "
	} else {
		prefix = "S: "
	}
	f.debug.Write([]byte(prefix))
	f.debug.Write(b)
	if len(b) == 0 || b[len(b)-1] != '\n' {
		f.debug.Write([]byte("\n"))
	}
}

func (f *framer) close() error {
	return f.conn.Close()
}

func isIncomplete(err error) bool {
	var ie *wire.IncompleteError
	return errors.As(err, &ie)
}
