package imap

import (
	"errors"
	"testing"
	"time"

	"github.com/eslider/goimap/internal/imaptest"
)

func loginSelectedSession(t *testing.T, extraSteps string) (*Session, <-chan error) {
	t.Helper()
	script, err := imaptest.LoadScript([]byte(`
name: session-fixture
steps:
  - send:
      - "* OK goimap ready"
  - expect: "a0001 LOGIN *"
    send:
      - "a0001 OK LOGIN completed"
  - expect: "a0002 SELECT INBOX"
    send:
      - "* 5 EXISTS"
      - "* 0 RECENT"
      - "a0002 OK [READ-WRITE] SELECT completed"
` + extraSteps))
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
	if _, err := sess.Select("INBOX"); err != nil {
		t.Fatalf("Select: %v", err)
	}
	return sess, errc
}

func TestSessionFetchWithLiteral(t *testing.T) {
	sess, errc := loginSelectedSession(t, `
  - expect: "a0003 FETCH 1 BODY[]"
    send:
      - "* 1 FETCH (BODY[] {11}"
      - "Hello world)"
      - "a0003 OK FETCH completed"
`)
	data, err := sess.Fetch(SeqNum(1), []string{"BODY[]"})
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if len(data) != 1 {
		t.Fatalf("got %d messages", len(data))
	}
	body, ok := data[0].BodySection("")
	if !ok || string(body) != "Hello world" {
		t.Fatalf("got %q ok=%v", body, ok)
	}
	drainServer(t, errc)
}

func TestSessionUnsolicitedExpungeUpdatesMailbox(t *testing.T) {
	sess, errc := loginSelectedSession(t, `
  - expect: "a0003 NOOP"
    send:
      - "* 4 EXPUNGE"
      - "* 5 EXISTS"
      - "a0003 OK NOOP completed"
`)
	if err := sess.Noop(); err != nil {
		t.Fatalf("Noop: %v", err)
	}
	mb := sess.Mailbox()
	if mb.Exists != 5 {
		t.Fatalf("exists = %d, want 5", mb.Exists)
	}
	drainServer(t, errc)
}

func TestSessionSearchReturnsUIDs(t *testing.T) {
	sess, errc := loginSelectedSession(t, `
  - expect: "a0003 UID SEARCH UNSEEN"
    send:
      - "* SEARCH 12 18 25"
      - "a0003 OK UID SEARCH completed"
`)
	nums, err := sess.UIDSearch(SearchCriteria("UNSEEN"), "")
	if err != nil {
		t.Fatalf("UIDSearch: %v", err)
	}
	if len(nums) != 3 || nums[2] != 25 {
		t.Fatalf("got %v", nums)
	}
	drainServer(t, errc)
}

func TestSessionStoreSilent(t *testing.T) {
	sess, errc := loginSelectedSession(t, `
  - expect: "a0003 STORE 1 +FLAGS.SILENT (\\Deleted)"
    send:
      - "a0003 OK STORE completed"
`)
	_, err := sess.Store(SeqNum(1), StoreAdd, []string{`\Deleted`}, true)
	if err != nil {
		t.Fatalf("Store: %v", err)
	}
	drainServer(t, errc)
}

func TestSessionLoginFailureThenRetry(t *testing.T) {
	script, err := imaptest.LoadScript([]byte(`
name: retry-login
steps:
  - send:
      - "* OK goimap ready"
  - expect: "a0001 LOGIN *"
    send:
      - "a0001 NO LOGIN failed"
  - expect: "a0002 LOGIN *"
    send:
      - "a0002 OK LOGIN completed"
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
	if _, err := cl.Login("smith", "wrong"); err == nil {
		t.Fatal("expected first login to fail")
	}
	sess, err := cl.Login("smith", "secret")
	if err != nil {
		t.Fatalf("retry Login: %v", err)
	}
	if sess.State() != StateAuth {
		t.Fatalf("state = %v", sess.State())
	}
	drainServer(t, errc)
}

func TestSessionAppendUID(t *testing.T) {
	body := `He said "hi"`
	sess, errc := loginSelectedSession(t, `
  - expect: "a0003 APPEND Drafts (\\Seen) {12}"
    send:
      - "+ Ready"
  - expect: "He said \"hi\""
    send:
      - "a0003 OK [APPENDUID 38505 3955] APPEND completed"
`)
	outcome, err := sess.Append("Drafts", []byte(body)).Flags(`\Seen`).Finish()
	if err != nil {
		t.Fatalf("Append: %v", err)
	}
	if !outcome.HasUID || outcome.UID != 3955 || outcome.UIDValidity != 38505 {
		t.Fatalf("got %+v", outcome)
	}
	drainServer(t, errc)
}

// TestSessionAppendAbortedByTaggedNo covers the case where a server rejects
// a literal-bearing command outright, with its tagged completion, instead of
// sending the "+" continuation the client is waiting for. That completion
// must surface as the server's real *CommandError, not a fabricated parse
// error.
func TestSessionAppendAbortedByTaggedNo(t *testing.T) {
	body := `He said "hi"`
	sess, errc := loginSelectedSession(t, `
  - expect: "a0003 APPEND Drafts (\\Seen) {12}"
    send:
      - "a0003 NO [CANNOT] Over quota"
`)
	_, err := sess.Append("Drafts", []byte(body)).Flags(`\Seen`).Finish()
	if err == nil {
		t.Fatal("expected APPEND to fail")
	}
	cmdErr, ok := err.(*CommandError)
	if !ok {
		t.Fatalf("got %T: %v", err, err)
	}
	if cmdErr.Status != StatusNo {
		t.Fatalf("status = %v", cmdErr.Status)
	}
	drainServer(t, errc)
}

// TestSessionPoisonedAfterIOError covers §7's poisoned-session rule: once a
// command sees a stream-level I/O failure, the session must fail every
// later command immediately with that same error rather than attempting a
// real write/read against the now-unusable stream.
func TestSessionPoisonedAfterIOError(t *testing.T) {
	sess, errc := loginSelectedSession(t, `
  - expect: "a0003 NOOP"
`)
	err := sess.Noop()
	if err == nil {
		t.Fatal("expected NOOP to fail when the server closes the stream")
	}
	if !errors.Is(err, ErrIO) {
		t.Fatalf("got %v, want ErrIO", err)
	}
	err2 := sess.Noop()
	if err2 != err {
		t.Fatalf("second call = %v, want the same poisoned error %v", err2, err)
	}
	drainServer(t, errc)
}

// TestSessionNotPoisonedByCommandError confirms ordinary NO/BAD rejections
// do not poison the session: ErrNo/ErrBad are ordinary per-command
// outcomes, and the connection remains usable afterward.
func TestSessionNotPoisonedByCommandError(t *testing.T) {
	sess, errc := loginSelectedSession(t, `
  - expect: "a0003 STORE 1 +FLAGS.SILENT (\\Deleted)"
    send:
      - "a0003 NO cannot modify"
  - expect: "a0004 NOOP"
    send:
      - "a0004 OK NOOP completed"
`)
	_, err := sess.Store(SeqNum(1), StoreAdd, []string{`\Deleted`}, true)
	if err == nil {
		t.Fatal("expected STORE to fail")
	}
	if !errors.Is(err, ErrNo) {
		t.Fatalf("got %v, want ErrNo", err)
	}
	if err := sess.Noop(); err != nil {
		t.Fatalf("Noop after a plain NO rejection should still succeed: %v", err)
	}
	drainServer(t, errc)
}
