package imap

import (
	"testing"

	"github.com/eslider/goimap/internal/imaptest"
)

// TestClientAuthenticateSASLIR covers the SASL-IR-advertised branch: the
// PLAIN initial response is sent inline on the AUTHENTICATE line, and the
// server accepts without any continuation round trip.
func TestClientAuthenticateSASLIR(t *testing.T) {
	script, err := imaptest.LoadScript([]byte(`
name: authenticate-sasl-ir
steps:
  - send:
      - "* OK [CAPABILITY IMAP4rev1 AUTH=PLAIN SASL-IR] goimap ready"
  - expect: "a0001 AUTHENTICATE PLAIN AHNtaXRoAHNlY3JldA=="
    send:
      - "a0001 OK AUTHENTICATE completed"
`))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	c, errc := dialScript(t, script)
	cl := NewClient(c)
	sess, err := cl.Authenticate(PlainAuth("smith", "secret"))
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if sess.State() != StateAuth {
		t.Fatalf("state = %v", sess.State())
	}
	drainServer(t, errc)
}

// TestClientAuthenticateWithoutSASLIR covers the fallback branch: the server
// never advertised SASL-IR, so the AUTHENTICATE line carries no inline
// argument and the initial response instead goes out as the reply to the
// server's first "+" continuation.
func TestClientAuthenticateWithoutSASLIR(t *testing.T) {
	script, err := imaptest.LoadScript([]byte(`
name: authenticate-no-sasl-ir
steps:
  - send:
      - "* OK [CAPABILITY IMAP4rev1 AUTH=PLAIN] goimap ready"
  - expect: "a0001 AUTHENTICATE PLAIN"
    send:
      - "+ "
  - expect: "AHNtaXRoAHNlY3JldA=="
    send:
      - "a0001 OK AUTHENTICATE completed"
`))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	c, errc := dialScript(t, script)
	cl := NewClient(c)
	sess, err := cl.Authenticate(PlainAuth("smith", "secret"))
	if err != nil {
		t.Fatalf("Authenticate: %v", err)
	}
	if sess.State() != StateAuth {
		t.Fatalf("state = %v", sess.State())
	}
	drainServer(t, errc)
}

// TestClientAuthenticateFailure covers a tagged NO completing the exchange
// with *AuthFailedError.
func TestClientAuthenticateFailure(t *testing.T) {
	script, err := imaptest.LoadScript([]byte(`
name: authenticate-fail
steps:
  - send:
      - "* OK [CAPABILITY IMAP4rev1 AUTH=PLAIN SASL-IR] goimap ready"
  - expect: "a0001 AUTHENTICATE PLAIN *"
    send:
      - "a0001 NO [AUTHENTICATIONFAILED] invalid credentials"
`))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	c, errc := dialScript(t, script)
	cl := NewClient(c)
	_, err = cl.Authenticate(PlainAuth("smith", "wrong"))
	if err == nil {
		t.Fatal("expected authenticate failure")
	}
	if _, ok := err.(*AuthFailedError); !ok {
		t.Fatalf("got %T: %v", err, err)
	}
	drainServer(t, errc)
}
