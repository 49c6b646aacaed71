package imap

import "strings"

// Client is the not-yet-authenticated state reached from a Connection once
// any desired STARTTLS upgrade is done. Its only job is to get the caller to
// an authenticated Session via Login or Authenticate (§4.D).
type Client struct {
	conn *Connection
}

// NewClient adopts a Connection that has completed (or skipped) STARTTLS
// and is ready to authenticate. Calling this on a PREAUTH Connection is a
// caller error; use NewAuthenticatedSession directly in that case.
func NewClient(conn *Connection) *Client {
	return &Client{conn: conn}
}

// Capabilities returns the server capability list, issuing a CAPABILITY
// command if none has been observed yet from the greeting or a prior
// command's response code.
func (c *Client) Capabilities() ([]string, error) {
	if caps := c.conn.Capabilities(); caps != nil {
		return caps, nil
	}
	return c.fetchCapabilities()
}

func (c *Client) fetchCapabilities() ([]string, error) {
	tag := c.conn.tags.Next()
	if err := c.conn.f.writeLine(tag + " CAPABILITY"); err != nil {
		return nil, err
	}
	var caps []string
	for {
		resp, err := c.conn.f.readResponse()
		if err != nil {
			return nil, err
		}
		if resp.Kind == KindCapabilities {
			caps = resp.Capabilities
			continue
		}
		if resp.Kind == KindDone && resp.Done.Tag == tag {
			if resp.Done.Status != StatusOK {
				return nil, &CommandError{Status: resp.Done.Status, Text: resp.Done.Text, Code: resp.Done.Code}
			}
			break
		}
	}
	c.conn.capabilities = caps
	return caps, nil
}

// StartTLS delegates to the underlying Connection. Must be called before
// Login/Authenticate if the deployment requires TLS before credentials are
// sent on the wire.
func (c *Client) StartTLS() error {
	return c.conn.StartTLS()
}

// Login authenticates with a plaintext LOGIN command (RFC 3501 §6.2.3). On
// success it returns a Session in the Authenticated state. On a tagged NO it
// returns *AuthFailedError — the Client itself remains valid for retrying
// with different credentials.
func (c *Client) Login(user, pass string) (*Session, error) {
	tag := c.conn.tags.Next()
	line := tag + " LOGIN " + encodeLoginArg(user) + " " + encodeLoginArg(pass)
	if err := c.conn.f.writeLine(line); err != nil {
		return nil, err
	}
	return c.finishAuth(tag)
}

// encodeLoginArg quotes a LOGIN argument as a quoted-string with escapes.
// Credentials are short enough that the literal path (used for message
// bodies in APPEND) is never needed here.
func encodeLoginArg(s string) string {
	return quoteWithEscapes(s)
}

// Authenticate drives a - possibly multi-round - SASL exchange via the
// AUTHENTICATE command (RFC 3501 §6.2.2). a.Start's initial response, if
// any, is sent inline on the AUTHENTICATE line only when the server has
// advertised SASL-IR (RFC 4959); otherwise it is held back and sent as the
// reply to the server's first "+" continuation instead, since a server that
// never advertised SASL-IR is not required to accept — and may reject — an
// inline initial response.
func (c *Client) Authenticate(a Authenticator) (*Session, error) {
	mechanism, initial, err := a.Start()
	if err != nil {
		return nil, err
	}
	inline := initial != nil && c.conn.hasCapability("SASL-IR")
	// sentInitial tracks whether initial has already reached the server:
	// inline on the command line, or trivially true because Start returned
	// none and the first continuation is a genuine server challenge.
	sentInitial := inline || initial == nil

	tag := c.conn.tags.Next()
	line := tag + " AUTHENTICATE " + mechanism
	if inline {
		line += " " + base64Encode(initial)
	}
	if err := c.conn.f.writeLine(line); err != nil {
		return nil, err
	}
	for {
		resp, err := c.conn.f.readResponse()
		if err != nil {
			return nil, err
		}
		switch resp.Kind {
		case KindContinuation:
			var reply []byte
			if !sentInitial {
				reply = initial
				sentInitial = true
			} else {
				challenge, derr := base64Decode(resp.Continuation.Text)
				if derr != nil {
					return nil, newParseError(0, "authenticate", derr)
				}
				next, aerr := a.Next(challenge)
				if aerr != nil {
					return nil, aerr
				}
				reply = next
			}
			if err := c.conn.f.writeLine(base64Encode(reply)); err != nil {
				return nil, err
			}
		case KindDone:
			if resp.Done.Tag != tag {
				continue
			}
			return c.finishDone(resp.Done)
		default:
			// Capability/other untagged data arriving mid-exchange; ignore
			// and keep reading toward the tagged completion.
		}
	}
}

func (c *Client) finishAuth(tag string) (*Session, error) {
	for {
		resp, err := c.conn.f.readResponse()
		if err != nil {
			return nil, err
		}
		if resp.Kind == KindCapabilities {
			c.conn.capabilities = resp.Capabilities
			continue
		}
		if resp.Kind == KindDone && resp.Done.Tag == tag {
			return c.finishDone(resp.Done)
		}
	}
}

func (c *Client) finishDone(done *DoneData) (*Session, error) {
	if done.Status != StatusOK {
		return nil, &AuthFailedError{Text: done.Text, Code: done.Code}
	}
	if cc, ok := done.Code.(CodeCapability); ok {
		c.conn.capabilities = cc.Capabilities
	} else {
		// RFC 3501 §6.2.3: a server that doesn't send [CAPABILITY ...] on
		// the LOGIN OK requires the client to ask explicitly, since
		// capabilities commonly change across the authentication boundary.
		c.conn.capabilities = nil
	}
	return newSession(c.conn), nil
}

func quoteWithEscapes(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		if s[i] == '"' || s[i] == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
	b.WriteByte('"')
	return b.String()
}
