package imap

import (
	"testing"
	"time"

	"github.com/eslider/goimap/internal/imaptest"
)

func TestIdleWakesOnExists(t *testing.T) {
	sess, errc := loginSelectedSession(t, `
  - expect: "a0003 IDLE"
    send:
      - "+ idling"
      - "* 6 EXISTS"
  - expect: "DONE"
    send:
      - "a0003 OK IDLE terminated"
`)
	handle, err := sess.Idle(2 * time.Second)
	if err != nil {
		t.Fatalf("Idle: %v", err)
	}
	resp, err := handle.Next()
	if err != nil {
		t.Fatalf("Next: %v", err)
	}
	if resp.Kind != KindMailboxData || resp.Mailbox.Kind != MailboxExists || resp.Mailbox.Count != 6 {
		t.Fatalf("got %+v", resp)
	}
	if sess.Mailbox().Exists != 6 {
		t.Fatalf("mailbox exists = %d, want 6", sess.Mailbox().Exists)
	}
	if err := handle.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	drainServer(t, errc)
}

func TestIdleBusyRejectsOrdinaryCommand(t *testing.T) {
	script, err := imaptest.LoadScript([]byte(`
name: idle-busy
steps:
  - send:
      - "* OK goimap ready"
  - expect: "a0001 LOGIN *"
    send:
      - "a0001 OK LOGIN completed"
  - expect: "a0002 IDLE"
    send:
      - "+ idling"
  - expect: "DONE"
    send:
      - "a0002 OK IDLE terminated"
`))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	srv := imaptest.NewServer(script)
	conn, errc := srv.Pipe()
	c, err := NewConnection(conn, ConnectionOptions{ReadTimeout: 5 * time.Second})
	if err != nil {
		t.Fatalf("NewConnection: %v", err)
	}
	cl := NewClient(c)
	sess, err := cl.Login("smith", "secret")
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	handle, err := sess.Idle(2 * time.Second)
	if err != nil {
		t.Fatalf("Idle: %v", err)
	}
	if err := sess.Noop(); err != ErrConnectionBusy {
		t.Fatalf("expected ErrConnectionBusy, got %v", err)
	}
	if err := handle.Stop(); err != nil {
		t.Fatalf("Stop: %v", err)
	}
	drainServer(t, errc)
}
