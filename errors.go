package imap

import (
	"fmt"

	"github.com/rotisserie/eris"
)

// Sentinel errors for errors.Is checks against the kinds named in the error
// handling design: Io, Parse, No, Bad, Bye, ConnectionLost, TlsHandshake,
// Tls, Append, AuthFailed. Each concrete error type below wraps one of these
// via eris so a caller printing "%+v" also gets a stack trace pointing at
// the call that produced it — useful for Parse errors in particular, since
// the protocol has no resync point and the caller needs to know exactly
// where the decode failed.
var (
	ErrIO             = eris.New("imap: i/o error")
	ErrParse          = eris.New("imap: parse error")
	ErrNo             = eris.New("imap: command rejected (NO)")
	ErrBad            = eris.New("imap: protocol error (BAD)")
	ErrBye            = eris.New("imap: server said BYE")
	ErrConnectionLost = eris.New("imap: connection lost")
	ErrTLSHandshake   = eris.New("imap: TLS handshake failed")
	ErrTLS            = eris.New("imap: TLS error")
	ErrAppend         = eris.New("imap: invalid APPEND argument")
	ErrAuthFailed     = eris.New("imap: authentication failed")
	ErrConnectionBusy = eris.New("imap: connection busy (IDLE in progress)")
	ErrSessionClosed  = eris.New("imap: session closed (logged out)")
)

// ParseError reports a malformed response: an offset into the response
// buffer and a short grammar-rule hint. Parse errors are non-recoverable
// for the response that produced them — RFC 3501 offers no resync point, so
// the connection must be closed.
type ParseError struct {
	Offset int
	Rule   string
	cause  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("imap: parse error at offset %d (%s): %v", e.Offset, e.Rule, e.cause)
}

func (e *ParseError) Unwrap() error { return e.cause }
func (e *ParseError) Is(target error) bool { return target == ErrParse }

func newParseError(offset int, rule string, cause error) *ParseError {
	return &ParseError{Offset: offset, Rule: rule, cause: eris.Wrap(cause, rule)}
}

// CommandError reports a tagged NO or BAD completion. Status is Status.NO or
// Status.BAD. Code is the parsed response code, if any (e.g. AUTHENTICATIONFAILED).
type CommandError struct {
	Status Status
	Text   string
	Code   ResponseCode
}

func (e *CommandError) Error() string {
	if e.Code != nil {
		return fmt.Sprintf("imap: %s [%s] %s", e.Status, e.Code.Name(), e.Text)
	}
	return fmt.Sprintf("imap: %s %s", e.Status, e.Text)
}

func (e *CommandError) Unwrap() error {
	if e.Status == StatusBad {
		return ErrBad
	}
	return ErrNo
}

// ByeError reports an untagged BYE — the server closed the connection
// cleanly. The Session transitions to Logout.
type ByeError struct {
	Text string
}

func (e *ByeError) Error() string { return "imap: BYE: " + e.Text }
func (e *ByeError) Unwrap() error { return ErrBye }

// AuthFailedError wraps a LOGIN/AUTHENTICATE rejection. The caller's
// *Client is still usable for a retry with different credentials.
type AuthFailedError struct {
	Text string
	Code ResponseCode
}

func (e *AuthFailedError) Error() string { return "imap: auth failed: " + e.Text }
func (e *AuthFailedError) Unwrap() error { return ErrAuthFailed }

// IOError wraps an underlying stream failure, including a deadline timeout.
type IOError struct {
	cause error
}

func (e *IOError) Error() string { return "imap: i/o: " + e.cause.Error() }
func (e *IOError) Unwrap() error { return e.cause }
func (e *IOError) Is(target error) bool { return target == ErrIO }

func wrapIO(err error) error {
	if err == nil {
		return nil
	}
	return &IOError{cause: eris.Wrap(err, "stream i/o")}
}
