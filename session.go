package imap

import (
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"github.com/eslider/goimap/internal/wire"
)

// ConnState is the Authenticated-side state machine (§3): a Session starts
// in Auth, SELECT/EXAMINE moves it to Selected, CLOSE/UNSELECT moves it back
// to Auth, and LOGOUT moves it to Logout permanently.
type ConnState int

const (
	StateAuth ConnState = iota
	StateSelected
	StateLogout
)

func (s ConnState) String() string {
	switch s {
	case StateAuth:
		return "Auth"
	case StateSelected:
		return "Selected"
	case StateLogout:
		return "Logout"
	default:
		return "Unknown"
	}
}

// UnsolicitedPolicy controls what a Session does with untagged data that
// arrives outside the response of the command that provoked it — most
// commonly EXISTS/EXPUNGE/FETCH(FLAGS) notifications a server sends at any
// time once a mailbox is selected (§4.E).
type UnsolicitedPolicy int

const (
	// UnsolicitedEnqueue buffers unsolicited responses for later retrieval
	// via Session.PollUnsolicited. This is the default.
	UnsolicitedEnqueue UnsolicitedPolicy = iota
	// UnsolicitedDiscard drops unsolicited responses immediately.
	UnsolicitedDiscard
	// UnsolicitedCallback invokes Session.OnUnsolicited synchronously, on
	// the goroutine that is running the command loop.
	UnsolicitedCallback
)

// Session is the authenticated connection: it owns the command pipeline
// (tag, write, read-until-tagged-completion), the current mailbox state
// once SELECTed, and unsolicited-response routing. Exactly one command runs
// at a time — RFC 3501 §5.1 requires a client not pipeline commands that
// depend on each other's untagged data, and this package additionally never
// issues two commands concurrently on one connection, matching the
// blocking single-threaded shape of the teacher's imapClient.command.
type Session struct {
	conn *Connection

	mu    sync.Mutex // serializes the command pipeline
	state ConnState

	// poisonErr is set once a command sees an I/O failure, a parse failure,
	// or a BYE: per §7 those leave the stream in an unknown or closed state,
	// so every later command must fail fast on poisonErr instead of writing
	// to or reading from a connection that may be desynchronized. An
	// ordinary *CommandError (NO/BAD) does not poison — the connection is
	// still in a well-defined state and the caller may retry.
	poisonErr error

	mailbox *Mailbox

	Policy        UnsolicitedPolicy
	OnUnsolicited func(*Response)

	unsolicitedMu sync.Mutex
	unsolicited   []*Response

	// busy is held for the duration of an open-ended IDLE so ordinary
	// commands fail fast with ErrConnectionBusy instead of racing IDLE's
	// reader for the next response (Go has no borrow checker to enforce
	// this statically).
	busy atomic.Bool
}

func newSession(conn *Connection) *Session {
	return &Session{conn: conn, state: StateAuth}
}

// NewAuthenticatedSession adopts a Connection that greeted with PREAUTH,
// skipping Client/Login entirely (§4.C).
func NewAuthenticatedSession(conn *Connection) *Session {
	return newSession(conn)
}

// State returns the current Auth/Selected/Logout state.
func (s *Session) State() ConnState { return s.state }

// Mailbox returns the most recent SELECT/EXAMINE snapshot, or nil if no
// mailbox is currently selected.
func (s *Session) Mailbox() *Mailbox { return s.mailbox }

// Capabilities returns the cached capability list, fetching it if unknown.
func (s *Session) Capabilities() ([]string, error) {
	if caps := s.conn.Capabilities(); caps != nil {
		return caps, nil
	}
	var caps []string
	_, err := s.runCommand("CAPABILITY", nil, func(resp *Response) bool {
		if resp.Kind == KindCapabilities {
			caps = resp.Capabilities
			return true
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	s.conn.capabilities = caps
	return caps, nil
}

func (s *Session) hasCapability(name string) bool {
	caps, err := s.Capabilities()
	if err != nil {
		return false
	}
	for _, c := range caps {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// PollUnsolicited drains and returns any responses buffered under
// UnsolicitedEnqueue since the last call.
func (s *Session) PollUnsolicited() []*Response {
	s.unsolicitedMu.Lock()
	defer s.unsolicitedMu.Unlock()
	out := s.unsolicited
	s.unsolicited = nil
	return out
}

func (s *Session) routeUnsolicited(resp *Response) {
	switch s.Policy {
	case UnsolicitedDiscard:
		return
	case UnsolicitedCallback:
		if s.OnUnsolicited != nil {
			s.OnUnsolicited(resp)
			return
		}
		fallthrough
	default:
		s.unsolicitedMu.Lock()
		s.unsolicited = append(s.unsolicited, resp)
		s.unsolicitedMu.Unlock()
	}
}

// applyMailboxTracking updates s.mailbox for EXISTS/RECENT/EXPUNGE
// notifications that arrive on an already-selected mailbox, whether they
// are solicited (e.g. from NOOP) or truly unsolicited.
func (s *Session) applyMailboxTracking(resp *Response) {
	if s.mailbox == nil || resp.Kind != KindMailboxData {
		return
	}
	switch resp.Mailbox.Kind {
	case MailboxExists:
		s.mailbox.Exists = resp.Mailbox.Count
	case MailboxRecent:
		s.mailbox.Recent = resp.Mailbox.Count
	case MailboxExpunge:
		if s.mailbox.Exists > 0 {
			s.mailbox.Exists--
		}
	}
}

// cmdArg is one command argument as it goes on the wire: either inline text
// or (for values needing a literal) inline text followed by a payload that
// requires a continuation round-trip unless LITERAL+ is active.
type cmdArg struct {
	inline  string
	literal []byte
}

func (s *Session) encodeArg(raw string) cmdArg {
	literalPlus := s.hasCapabilityCached("LITERAL+")
	inline, payload, isLiteral := wire.EncodeArg(raw, literalPlus)
	if !isLiteral {
		return cmdArg{inline: inline}
	}
	return cmdArg{inline: inline, literal: payload}
}

// hasCapabilityCached avoids a network round trip from inside command
// encoding; callers that need certainty should call Capabilities() first.
func (s *Session) hasCapabilityCached(name string) bool {
	for _, c := range s.conn.Capabilities() {
		if strings.EqualFold(c, name) {
			return true
		}
	}
	return false
}

// runCommand sends "TAG VERB args..." (args pre-encoded as cmdArgs, joined
// by single spaces) and reads responses until the tagged completion. onData
// is called for every untagged response other than BYE, after mailbox-state
// tracking has been applied to it; returning true means "I consumed this",
// false routes it to the unsolicited policy instead. onData may be nil for commands with no
// meaningful untagged data (e.g. LOGOUT).
func (s *Session) runCommand(verb string, args []cmdArg, onData func(*Response) bool) (*DoneData, error) {
	if s.busy.Load() {
		return nil, ErrConnectionBusy
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateLogout {
		return nil, ErrSessionClosed
	}
	if s.poisonErr != nil {
		return nil, s.poisonErr
	}

	tag := s.conn.tags.Next()
	if err := s.writeCommand(tag, verb, args); err != nil {
		return nil, s.poison(err)
	}

	for {
		resp, err := s.conn.f.readResponse()
		if err != nil {
			return nil, s.poison(err)
		}
		if resp.Kind == KindDone {
			if resp.Done.Tag != tag {
				// Stray tagged response for an earlier, already-completed
				// command; keep reading for ours.
				continue
			}
			if resp.Done.Status == StatusBad {
				return resp.Done, &CommandError{Status: StatusBad, Text: resp.Done.Text, Code: resp.Done.Code}
			}
			if resp.Done.Status == StatusNo {
				return resp.Done, &CommandError{Status: StatusNo, Text: resp.Done.Text, Code: resp.Done.Code}
			}
			return resp.Done, nil
		}
		if resp.Kind == KindStatus && resp.Status.Status == StatusBye {
			s.state = StateLogout
			return nil, s.poison(&ByeError{Text: resp.Status.Text})
		}

		s.applyMailboxTracking(resp)
		consumed := false
		if onData != nil {
			consumed = onData(resp)
		}
		if !consumed {
			s.routeUnsolicited(resp)
		}
	}
}

// poison records err on the session if it reflects a stream-level failure
// (I/O, parse, or the server hanging up with BYE) rather than an ordinary
// command rejection, per §7: those three kinds leave the connection in an
// unknown or closed state, so every subsequent command must fail fast
// instead of touching the stream again. It always returns err unchanged, so
// callers can write `return nil, s.poison(err)`.
func (s *Session) poison(err error) error {
	if isPoisoning(err) {
		s.poisonErr = err
	}
	return err
}

func isPoisoning(err error) bool {
	var ioErr *IOError
	var parseErr *ParseError
	var byeErr *ByeError
	return errors.As(err, &ioErr) || errors.As(err, &parseErr) || errors.As(err, &byeErr)
}

// writeCommand sends "tag verb args...", flushing and waiting for a "+"
// continuation before each non-LITERAL+ literal payload, per RFC 3501 §7.5:
// a literal interrupts the command line, so everything written before it
// must end in CRLF and everything after it resumes on the same logical
// line.
func (s *Session) writeCommand(tag, verb string, args []cmdArg) error {
	var b strings.Builder
	b.WriteString(tag)
	b.WriteByte(' ')
	b.WriteString(verb)
	for _, a := range args {
		b.WriteByte(' ')
		b.WriteString(a.inline)
		if a.literal == nil {
			continue
		}
		if err := s.conn.f.writeRaw([]byte(b.String() + "\r\n")); err != nil {
			return err
		}
		b.Reset()
		if !strings.HasSuffix(a.inline, "+}") {
			if err := s.awaitContinuation(tag); err != nil {
				return err
			}
		}
		if err := s.conn.f.writeRaw(a.literal); err != nil {
			return err
		}
	}
	return s.conn.f.writeLine(b.String())
}

// awaitContinuation reads responses while waiting for the "+" request that
// must precede a synchronizing literal's payload (§7.5). A server may
// instead abort the command outright — a tagged NO/BAD completion, or an
// untagged BYE — rather than request the literal; per the Open Questions
// resolution, that abort is surfaced as the real *CommandError/*ByeError
// instead of being mistaken for a malformed response. Untagged data seen
// while waiting (mailbox updates, other advisory responses) is folded in
// exactly as runCommand's main loop does, rather than rejected.
func (s *Session) awaitContinuation(tag string) error {
	for {
		resp, err := s.conn.f.readResponse()
		if err != nil {
			return err
		}
		switch {
		case resp.Kind == KindContinuation:
			return nil
		case resp.Kind == KindDone:
			if resp.Done.Tag != tag {
				// Stray tagged response for an earlier command; keep
				// waiting for our continuation or completion.
				continue
			}
			switch resp.Done.Status {
			case StatusBad:
				return &CommandError{Status: StatusBad, Text: resp.Done.Text, Code: resp.Done.Code}
			case StatusNo:
				return &CommandError{Status: StatusNo, Text: resp.Done.Text, Code: resp.Done.Code}
			default:
				// An OK here is a protocol violation: the server claimed
				// success for a command whose literal was never sent.
				return newParseError(0, "literal-continuation", errMalformed("server sent tagged OK before the literal was written"))
			}
		case resp.Kind == KindStatus && resp.Status.Status == StatusBye:
			s.state = StateLogout
			return &ByeError{Text: resp.Status.Text}
		default:
			s.applyMailboxTracking(resp)
			s.routeUnsolicited(resp)
		}
	}
}
