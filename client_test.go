package imap

import (
	"testing"
	"time"

	"github.com/eslider/goimap/internal/imaptest"
)

// dialScript runs script over an in-process pipe and returns the Connection
// on the client side, along with the server's outcome channel.
func dialScript(t *testing.T, script *imaptest.Script) (*Connection, <-chan error) {
	t.Helper()
	srv := imaptest.NewServer(script)
	conn, errc := srv.Pipe()
	c, err := NewConnection(conn, ConnectionOptions{ReadTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	return c, errc
}

func drainServer(t *testing.T, errc <-chan error) {
	t.Helper()
	select {
	case err := <-errc:
		if err != nil {
			t.Fatalf("server script: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("server script did not complete")
	}
}

func TestConnectionGreetingOK(t *testing.T) {
	script, err := imaptest.LoadScript([]byte(`
name: greeting
steps:
  - send:
      - "* OK [CAPABILITY IMAP4rev1 STARTTLS] goimap ready"
`))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	c, errc := dialScript(t, script)
	defer c.Close()
	if c.PreAuthenticated {
		t.Fatal("expected not pre-authenticated")
	}
	caps := c.Capabilities()
	if len(caps) != 2 || caps[1] != "STARTTLS" {
		t.Fatalf("caps = %v", caps)
	}
	drainServer(t, errc)
}

func TestConnectionGreetingPreAuth(t *testing.T) {
	script, err := imaptest.LoadScript([]byte(`
name: preauth
steps:
  - send:
      - "* PREAUTH server logged in as smith"
`))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	c, errc := dialScript(t, script)
	defer c.Close()
	if !c.PreAuthenticated {
		t.Fatal("expected PreAuthenticated")
	}
	drainServer(t, errc)
}

func TestClientLoginSuccess(t *testing.T) {
	script, err := imaptest.LoadScript([]byte(`
name: login-ok
steps:
  - send:
      - "* OK goimap ready"
  - expect: "a0001 LOGIN *"
    send:
      - "a0001 OK [CAPABILITY IMAP4rev1 IDLE] LOGIN completed"
`))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	c, errc := dialScript(t, script)
	cl := NewClient(c)
	sess, err := cl.Login("smith", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if sess.State() != StateAuth {
		t.Fatalf("state = %v", sess.State())
	}
	drainServer(t, errc)
}

func TestClientLoginFailure(t *testing.T) {
	script, err := imaptest.LoadScript([]byte(`
name: login-fail
steps:
  - send:
      - "* OK goimap ready"
  - expect: "a0001 LOGIN *"
    send:
      - "a0001 NO LOGIN failed"
`))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	c, errc := dialScript(t, script)
	cl := NewClient(c)
	_, err = cl.Login("smith", "wrong")
	if err == nil {
		t.Fatal("expected login failure")
	}
	if _, ok := err.(*AuthFailedError); !ok {
		t.Fatalf("got %T: %v", err, err)
	}
	drainServer(t, errc)
}

func TestClientLoginThenSelect(t *testing.T) {
	script, err := imaptest.LoadScript([]byte(`
name: login-select
steps:
  - send:
      - "* OK goimap ready"
  - expect: "a0001 LOGIN *"
    send:
      - "a0001 OK LOGIN completed"
  - expect: "a0002 SELECT INBOX"
    send:
      - "* 172 EXISTS"
      - "* 1 RECENT"
      - "* OK [UIDVALIDITY 3857529045] UIDs valid"
      - "* OK [UIDNEXT 4392] Predicted next UID"
      - "* FLAGS (\\Answered \\Flagged \\Deleted \\Seen \\Draft)"
      - "a0002 OK [READ-WRITE] SELECT completed"
`))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	c, errc := dialScript(t, script)
	cl := NewClient(c)
	sess, err := cl.Login("smith", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	mb, err := sess.Select("INBOX")
	if err != nil {
		t.Fatalf("Select: %v", err)
	}
	if mb.Exists != 172 || mb.Recent != 1 {
		t.Fatalf("got %+v", mb)
	}
	if mb.UIDValidity != 3857529045 || mb.UIDNext != 4392 {
		t.Fatalf("got %+v", mb)
	}
	if sess.State() != StateSelected {
		t.Fatalf("state = %v", sess.State())
	}
	drainServer(t, errc)
}
