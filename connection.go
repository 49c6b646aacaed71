package imap

import (
	"crypto/tls"
	"io"
	"net"
	"strings"
	"time"

	"github.com/google/uuid"
)

// TLSUpgrader swaps a plaintext connection for a TLS-protected one in place,
// used for STARTTLS. Production callers pass a function that wraps conn in
// *tls.Conn and performs the handshake; tests can substitute a fake to
// observe the upgrade without a real certificate.
type TLSUpgrader func(conn io.ReadWriteCloser, serverName string) (io.ReadWriteCloser, error)

// DefaultTLSUpgrader performs a standard crypto/tls client handshake.
func DefaultTLSUpgrader(conn io.ReadWriteCloser, serverName string) (io.ReadWriteCloser, error) {
	tc := tls.Client(conn.(net.Conn), &tls.Config{ServerName: serverName})
	if err := tc.Handshake(); err != nil {
		return nil, &IOError{cause: err}
	}
	return tc, nil
}

// ConnectionOptions configures dialing and the initial greeting handshake.
type ConnectionOptions struct {
	// ServerName is used for TLS SNI/verification, both for an
	// already-TLS-wrapped conn and for a subsequent STARTTLS upgrade.
	ServerName string
	// ReadTimeout bounds every individual read/write on the connection.
	// Zero means no deadline.
	ReadTimeout time.Duration
	// TagPrefix overrides the default "a" command tag prefix.
	TagPrefix string
	// Debug, if set, receives a mirror of every byte sent and received.
	Debug io.Writer
	// TLSUpgrader is invoked by Connection.StartTLS; defaults to
	// DefaultTLSUpgrader.
	TLSUpgrader TLSUpgrader
}

// Connection is the pre-authentication state (RFC 3501 §3): a freshly
// dialed socket that has exchanged the initial greeting but has not yet
// authenticated. From here the caller either wraps it with NewClient and
// calls Login/Authenticate to reach a Session in the Authenticated state, or
// — if the server greeted with PREAUTH — goes straight to an authenticated
// Session.
type Connection struct {
	f    *framer
	tags *tagGenerator
	opts ConnectionOptions

	// Greeting is the server's initial status response.
	Greeting *StatusData
	// PreAuthenticated is true when the greeting was PREAUTH: the
	// connection is already authenticated (e.g. by an external trust
	// mechanism) and the caller should go straight to NewAuthenticatedSession.
	PreAuthenticated bool

	capabilities []string

	// connID correlates this connection's debug log lines across a
	// process talking to many servers at once; it has no role in the
	// wire protocol itself.
	connID string
}

// newConnID generates a connection-correlation ID for debug logging,
// preferring a time-ordered UUIDv7 and falling back to a random UUIDv4 if
// the clock-sequence source is unavailable.
func newConnID() string {
	if id, err := uuid.NewV7(); err == nil {
		return id.String()
	}
	return uuid.New().String()
}

// Dial connects to addr ("host:port") and performs the greeting handshake.
// If opts.TLSUpgrader (or the default) is desired before any plaintext
// command is sent, wrap conn yourself and pass it to NewConnection instead —
// Dial is for the common plaintext-then-maybe-STARTTLS case.
func Dial(addr string, opts ConnectionOptions) (*Connection, error) {
	conn, err := net.DialTimeout("tcp", addr, 30*time.Second)
	if err != nil {
		return nil, wrapIO(err)
	}
	return NewConnection(conn, opts)
}

// DialTLS connects to addr and immediately wraps it in TLS before reading
// the greeting, for implicit-TLS ports (e.g. 993).
func DialTLS(addr string, opts ConnectionOptions) (*Connection, error) {
	conn, err := net.DialTimeout("tcp", addr, 30*time.Second)
	if err != nil {
		return nil, wrapIO(err)
	}
	tc := tls.Client(conn, &tls.Config{ServerName: opts.ServerName})
	if err := tc.Handshake(); err != nil {
		conn.Close()
		return nil, &IOError{cause: err}
	}
	return NewConnection(tc, opts)
}

// NewConnection wraps an already-established stream (plaintext or TLS) and
// reads the server's greeting per §4.C: OK transitions to the
// not-yet-authenticated Connection state returned here; PREAUTH sets
// PreAuthenticated; BYE fails with a *ByeError (unwraps to ErrBye) carrying
// the server's text.
func NewConnection(conn io.ReadWriteCloser, opts ConnectionOptions) (*Connection, error) {
	f := newFramer(conn)
	f.readTimeout = opts.ReadTimeout
	f.debug = opts.Debug

	connID := newConnID()
	f.debugLabel = func(sent bool) string {
		if sent {
			return "C[" + connID + "]: "
		}
		return "S[" + connID + "]: "
	}

	c := &Connection{
		f:      f,
		tags:   newTagGenerator(opts.TagPrefix),
		opts:   opts,
		connID: connID,
	}

	resp, err := f.readResponse()
	if err != nil {
		conn.Close()
		return nil, err
	}
	if resp.Kind != KindStatus {
		conn.Close()
		return nil, newParseError(0, "greeting", errMalformed("expected greeting status, got %s", resp.Kind))
	}
	switch resp.Status.Status {
	case StatusOK:
		c.Greeting = resp.Status
		if cc, ok := resp.Status.Code.(CodeCapability); ok {
			c.capabilities = cc.Capabilities
		}
	case StatusPreAuth:
		c.Greeting = resp.Status
		c.PreAuthenticated = true
		if cc, ok := resp.Status.Code.(CodeCapability); ok {
			c.capabilities = cc.Capabilities
		}
	case StatusBye:
		conn.Close()
		return nil, &ByeError{Text: resp.Status.Text}
	default:
		conn.Close()
		return nil, newParseError(0, "greeting", errMalformed("unexpected greeting status %s", resp.Status.Status))
	}
	return c, nil
}

// StartTLS issues the STARTTLS command and, on success, upgrades the
// underlying stream in place via opts.TLSUpgrader (DefaultTLSUpgrader if
// unset). The command's own capability cache is discarded per RFC 3501 §6.2.1
// — a server must not advertise post-TLS capabilities before the handshake.
func (c *Connection) StartTLS() error {
	tag := c.tags.Next()
	if err := c.f.writeLine(tag + " STARTTLS"); err != nil {
		return err
	}
	resp, err := c.f.readResponse()
	if err != nil {
		return err
	}
	if resp.Kind != KindDone || resp.Done.Tag != tag {
		return newParseError(0, "STARTTLS", errMalformed("unexpected response to STARTTLS"))
	}
	if resp.Done.Status != StatusOK {
		return &CommandError{Status: resp.Done.Status, Text: resp.Done.Text, Code: resp.Done.Code}
	}

	upgrader := c.opts.TLSUpgrader
	if upgrader == nil {
		upgrader = DefaultTLSUpgrader
	}
	upgraded, err := upgrader(c.f.conn, c.opts.ServerName)
	if err != nil {
		return err
	}
	c.f.conn = upgraded
	c.f.buf = c.f.buf[:0]
	c.capabilities = nil
	return nil
}

// ConnID returns the connection-correlation ID used to tag this
// connection's debug log lines.
func (c *Connection) ConnID() string { return c.connID }

// Capabilities returns the most recently learned capability list (from the
// greeting, a CAPABILITY command, or a response code), or nil if none has
// been observed yet.
func (c *Connection) Capabilities() []string { return c.capabilities }

// hasCapability reports whether name is present in the most recently
// learned capability list. It never issues a CAPABILITY command itself —
// callers that need certainty before the first greeting/LOGIN response
// code arrives should fetch capabilities explicitly first.
func (c *Connection) hasCapability(name string) bool {
	for _, got := range c.capabilities {
		if strings.EqualFold(got, name) {
			return true
		}
	}
	return false
}

// Close closes the underlying stream without sending LOGOUT; callers that
// have reached a Client or Session should prefer their Logout method.
func (c *Connection) Close() error { return c.f.close() }
