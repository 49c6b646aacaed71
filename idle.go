package imap

import (
	"errors"
	"net"
	"time"
)

// idleKeepaliveInterval is the default re-issue period RFC 2177 §3
// recommends (safely under the common 30-minute server inactivity timeout)
// so a long-lived IDLE survives NATs and proxies that drop quiet
// connections.
const idleKeepaliveInterval = 29 * time.Minute

// IdleHandle represents one open IDLE command (RFC 2177). While held, the
// Session is marked busy and ordinary commands fail fast with
// ErrConnectionBusy — Go has no borrow checker to enforce "don't use the
// connection while IDLE is open" at compile time, so this is the runtime
// equivalent. Next is a blocking pull, matching the rest of this package's
// single-threaded-per-connection command loop rather than handing events to
// a background goroutine.
type IdleHandle struct {
	s       *Session
	tag     string
	timeout time.Duration
	deadline time.Time
	stopped bool
}

// Idle issues the IDLE command and blocks until the server's "+ idling"
// continuation arrives, then returns a handle for reading unsolicited
// events with Next until Stop is called. timeout, if non-zero, overrides
// the default keepalive re-issue period.
func (s *Session) Idle(timeout time.Duration) (*IdleHandle, error) {
	if s.busy.Swap(true) {
		return nil, ErrConnectionBusy
	}
	if timeout <= 0 {
		timeout = idleKeepaliveInterval
	}
	s.mu.Lock()

	tag := s.conn.tags.Next()
	if err := s.conn.f.writeLine(tag + " IDLE"); err != nil {
		s.mu.Unlock()
		s.busy.Store(false)
		return nil, err
	}
	resp, err := s.conn.f.readResponse()
	if err != nil {
		s.mu.Unlock()
		s.busy.Store(false)
		return nil, err
	}
	if resp.Kind != KindContinuation {
		s.mu.Unlock()
		s.busy.Store(false)
		return nil, newParseError(0, "IDLE", errMalformed("expected '+ idling' continuation"))
	}

	return &IdleHandle{s: s, tag: tag, timeout: timeout, deadline: time.Now().Add(timeout)}, nil
}

// Next blocks until the server pushes an unsolicited event (EXISTS,
// EXPUNGE, FETCH(FLAGS), ...) and returns it, transparently sending DONE
// and re-issuing IDLE when the keepalive deadline is reached in the
// meantime. Callers typically loop on Next from their own goroutine until
// they decide to Stop.
func (h *IdleHandle) Next() (*Response, error) {
	for {
		remaining := time.Until(h.deadline)
		if remaining <= 0 {
			if err := h.reissue(); err != nil {
				return nil, err
			}
			remaining = h.timeout
		}
		h.s.conn.f.readTimeout = remaining
		resp, err := h.s.conn.f.readResponse()
		if err != nil {
			if isTimeoutErr(err) {
				continue
			}
			return nil, err
		}
		h.s.applyMailboxTracking(resp)
		return resp, nil
	}
}

// reissue sends DONE, awaits the tagged completion for the expiring IDLE,
// then opens a fresh one and resets the keepalive deadline.
func (h *IdleHandle) reissue() error {
	h.s.conn.f.readTimeout = 0
	if err := h.s.conn.f.writeLine("DONE"); err != nil {
		return err
	}
	if err := h.awaitTagged(); err != nil {
		return err
	}
	h.tag = h.s.conn.tags.Next()
	if err := h.s.conn.f.writeLine(h.tag + " IDLE"); err != nil {
		return err
	}
	resp, err := h.s.conn.f.readResponse()
	if err != nil {
		return err
	}
	if resp.Kind != KindContinuation {
		return newParseError(0, "IDLE", errMalformed("expected '+ idling' continuation on re-issue"))
	}
	h.deadline = time.Now().Add(h.timeout)
	return nil
}

func (h *IdleHandle) awaitTagged() error {
	for {
		resp, err := h.s.conn.f.readResponse()
		if err != nil {
			return err
		}
		if resp.Kind == KindDone && resp.Done.Tag == h.tag {
			if resp.Done.Status != StatusOK {
				return &CommandError{Status: resp.Done.Status, Text: resp.Done.Text, Code: resp.Done.Code}
			}
			return nil
		}
		h.s.applyMailboxTracking(resp)
		h.s.routeUnsolicited(resp)
	}
}

// Stop sends DONE, waits for the tagged completion, and releases the
// Session for ordinary commands again. Safe to call once; a second call is
// a no-op returning nil.
func (h *IdleHandle) Stop() error {
	if h.stopped {
		return nil
	}
	h.stopped = true
	h.s.conn.f.readTimeout = 0
	defer func() {
		h.s.mu.Unlock()
		h.s.busy.Store(false)
	}()
	if err := h.s.conn.f.writeLine("DONE"); err != nil {
		return err
	}
	return h.awaitTagged()
}

func isTimeoutErr(err error) bool {
	var ne net.Error
	if errors.As(err, &ne) {
		return ne.Timeout()
	}
	return false
}
