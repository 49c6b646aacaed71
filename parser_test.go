package imap

import (
	"errors"
	"testing"

	"github.com/eslider/goimap/internal/wire"
)

func mustParse(t *testing.T, s string) (*Response, int) {
	t.Helper()
	resp, n, err := Parse([]byte(s))
	if err != nil {
		t.Fatalf("Parse(%q) error: %v", s, err)
	}
	return resp, n
}

func TestParseTaggedOK(t *testing.T) {
	resp, n := mustParse(t, "a0001 OK LOGIN completed\r\n")
	if resp.Kind != KindDone {
		t.Fatalf("kind = %v", resp.Kind)
	}
	if resp.Done.Tag != "a0001" || resp.Done.Status != StatusOK || resp.Done.Text != "LOGIN completed" {
		t.Fatalf("got %+v", resp.Done)
	}
	if n != len("a0001 OK LOGIN completed\r\n") {
		t.Fatalf("consumed %d bytes", n)
	}
}

func TestParseTaggedNoWithCode(t *testing.T) {
	resp, _ := mustParse(t, "a0002 NO [ALREADYEXISTS] Mailbox exists\r\n")
	if resp.Done.Status != StatusNo {
		t.Fatalf("status = %v", resp.Done.Status)
	}
	code, ok := resp.Done.Code.(CodeOther)
	if !ok || code.CodeName != "ALREADYEXISTS" {
		t.Fatalf("code = %+v", resp.Done.Code)
	}
	if resp.Done.Text != "Mailbox exists" {
		t.Fatalf("text = %q", resp.Done.Text)
	}
}

func TestParseContinuation(t *testing.T) {
	resp, _ := mustParse(t, "+ idling\r\n")
	if resp.Kind != KindContinuation || resp.Continuation.Text != "idling" {
		t.Fatalf("got %+v", resp)
	}
}

func TestParseGreetingWithCapability(t *testing.T) {
	resp, _ := mustParse(t, "* OK [CAPABILITY IMAP4rev1 IDLE] server ready\r\n")
	if resp.Status.Status != StatusOK {
		t.Fatalf("status = %v", resp.Status.Status)
	}
	cc, ok := resp.Status.Code.(CodeCapability)
	if !ok || len(cc.Capabilities) != 2 || cc.Capabilities[0] != "IMAP4rev1" {
		t.Fatalf("code = %+v", resp.Status.Code)
	}
}

func TestParseExistsRecentExpunge(t *testing.T) {
	resp, _ := mustParse(t, "* 23 EXISTS\r\n")
	if resp.Mailbox.Kind != MailboxExists || resp.Mailbox.Count != 23 {
		t.Fatalf("got %+v", resp.Mailbox)
	}
	resp, _ = mustParse(t, "* 3 RECENT\r\n")
	if resp.Mailbox.Kind != MailboxRecent || resp.Mailbox.Count != 3 {
		t.Fatalf("got %+v", resp.Mailbox)
	}
	resp, _ = mustParse(t, "* 5 EXPUNGE\r\n")
	if resp.Mailbox.Kind != MailboxExpunge || resp.Mailbox.Count != 5 {
		t.Fatalf("got %+v", resp.Mailbox)
	}
}

func TestParseSearch(t *testing.T) {
	resp, _ := mustParse(t, "* SEARCH 2 10 23\r\n")
	if resp.Mailbox.Kind != MailboxSearch {
		t.Fatalf("kind = %v", resp.Mailbox.Kind)
	}
	want := []uint32{2, 10, 23}
	if len(resp.Mailbox.SeqNums) != len(want) {
		t.Fatalf("got %v", resp.Mailbox.SeqNums)
	}
	for i, n := range want {
		if resp.Mailbox.SeqNums[i] != n {
			t.Fatalf("got %v, want %v", resp.Mailbox.SeqNums, want)
		}
	}
}

// TestParseSearchWithModseq covers RFC 7162 §3.1.5's extended SEARCH form,
// where a CONDSTORE server appends a parenthesized "(MODSEQ n)" after the
// matched sequence numbers. That group isn't modeled, but it must be
// tolerated rather than hard-failing the parse.
func TestParseSearchWithModseq(t *testing.T) {
	resp, _ := mustParse(t, "* SEARCH 2 10 23 (MODSEQ 917162500)\r\n")
	if resp.Mailbox.Kind != MailboxSearch {
		t.Fatalf("kind = %v", resp.Mailbox.Kind)
	}
	want := []uint32{2, 10, 23}
	if len(resp.Mailbox.SeqNums) != len(want) {
		t.Fatalf("got %v", resp.Mailbox.SeqNums)
	}
	for i, n := range want {
		if resp.Mailbox.SeqNums[i] != n {
			t.Fatalf("got %v, want %v", resp.Mailbox.SeqNums, want)
		}
	}
}

func TestParseSortWithModseq(t *testing.T) {
	resp, _ := mustParse(t, "* SORT 5 3 1 (MODSEQ 917162500)\r\n")
	if resp.Mailbox.Kind != MailboxSort {
		t.Fatalf("kind = %v", resp.Mailbox.Kind)
	}
	want := []uint32{5, 3, 1}
	if len(resp.Mailbox.SeqNums) != len(want) {
		t.Fatalf("got %v", resp.Mailbox.SeqNums)
	}
	for i, n := range want {
		if resp.Mailbox.SeqNums[i] != n {
			t.Fatalf("got %v, want %v", resp.Mailbox.SeqNums, want)
		}
	}
}

func TestParseListData(t *testing.T) {
	resp, _ := mustParse(t, `* LIST (\HasNoChildren) "/" INBOX`+"\r\n")
	ld := resp.Mailbox.List
	if ld.Name != "INBOX" || ld.Delimiter != "/" || !ld.HasDelimiter {
		t.Fatalf("got %+v", ld)
	}
	if len(ld.Attrs) != 1 || ld.Attrs[0] != `\HasNoChildren` {
		t.Fatalf("attrs = %v", ld.Attrs)
	}
}

func TestParseListDataNilDelimiter(t *testing.T) {
	resp, _ := mustParse(t, `* LIST () NIL "Foo"`+"\r\n")
	ld := resp.Mailbox.List
	if ld.HasDelimiter {
		t.Fatalf("expected no delimiter, got %q", ld.Delimiter)
	}
	if ld.Name != "Foo" {
		t.Fatalf("name = %q", ld.Name)
	}
}

func TestParseFetchUIDFlagsSize(t *testing.T) {
	resp, _ := mustParse(t, `* 12 FETCH (UID 345 FLAGS (\Seen \Flagged) RFC822.SIZE 4096)`+"\r\n")
	md := resp.Message
	if md.Seq != 12 {
		t.Fatalf("seq = %d", md.Seq)
	}
	uid, ok := md.UID()
	if !ok || uid != 345 {
		t.Fatalf("uid = %d ok=%v", uid, ok)
	}
	flags, ok := md.FlagsAttr()
	if !ok || len(flags) != 2 || flags[0] != `\Seen` {
		t.Fatalf("flags = %v", flags)
	}
}

func TestParseFetchBodySectionLiteral(t *testing.T) {
	raw := "* 1 FETCH (BODY[TEXT] {5}\r\nhello)\r\n"
	resp, n := mustParse(t, raw)
	if n != len(raw) {
		t.Fatalf("consumed %d, want %d", n, len(raw))
	}
	data, ok := resp.Message.BodySection("TEXT")
	if !ok || string(data) != "hello" {
		t.Fatalf("got %q ok=%v", data, ok)
	}
}

func TestParseFetchBodySectionNilLiteral(t *testing.T) {
	resp, _ := mustParse(t, "* 1 FETCH (BODY[TEXT] NIL)\r\n")
	data, ok := resp.Message.BodySection("TEXT")
	if !ok || len(data) != 0 {
		t.Fatalf("got %q ok=%v", data, ok)
	}
}

func TestParseIncompleteLiteralRequestsMoreBytes(t *testing.T) {
	_, _, err := Parse([]byte("* 1 FETCH (BODY[TEXT] {10}\r\nhel"))
	var ie *wire.IncompleteError
	if !errors.As(err, &ie) {
		t.Fatalf("expected IncompleteError, got %v", err)
	}
}

func TestParseVanished(t *testing.T) {
	resp, _ := mustParse(t, "* VANISHED (EARLIER) 300:310,405\r\n")
	vd := resp.Mailbox.Vanished
	if !vd.Earlier || vd.Set != "300:310,405" {
		t.Fatalf("got %+v", vd)
	}
}

func TestParseUnknownUntaggedStaysInSync(t *testing.T) {
	raw := "* NAMESPACE ((\"\" \"/\")) NIL NIL\r\n" + "a0001 OK done\r\n"
	resp1, n1 := mustParse(t, raw)
	if resp1.Kind != KindOtherUntagged || resp1.OtherUntagged.Keyword != "NAMESPACE" {
		t.Fatalf("got %+v", resp1)
	}
	resp2, _, err := Parse([]byte(raw)[n1:])
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if resp2.Kind != KindDone || resp2.Done.Tag != "a0001" {
		t.Fatalf("got %+v", resp2)
	}
}

func TestParseEnvelope(t *testing.T) {
	raw := `* 1 FETCH (ENVELOPE ("Mon, 1 Jan 2024 00:00:00 +0000" "Hi" ` +
		`(("A" NIL "a" "example.com")) (("A" NIL "a" "example.com")) ` +
		`(("A" NIL "a" "example.com")) (("B" NIL "b" "example.com")) NIL NIL NIL "<id@example.com>"))` + "\r\n"
	resp, _ := mustParse(t, raw)
	var env *Envelope
	for _, item := range resp.Message.Items {
		if item.Kind == AttrEnvelope {
			env = item.Envelope
		}
	}
	if env == nil {
		t.Fatal("no envelope attr parsed")
	}
	if env.Subject == nil || *env.Subject != "Hi" {
		t.Fatalf("subject = %v", env.Subject)
	}
	if len(env.From) != 1 || env.From[0].Mailbox == nil || *env.From[0].Mailbox != "a" {
		t.Fatalf("from = %+v", env.From)
	}
}

func TestParseBodyStructureBasic(t *testing.T) {
	raw := `* 1 FETCH (BODY ("TEXT" "PLAIN" ("CHARSET" "UTF-8") NIL NIL "7BIT" 100 5))` + "\r\n"
	resp, _ := mustParse(t, raw)
	var bs *BodyStructure
	for _, item := range resp.Message.Items {
		if item.Kind == AttrBody {
			bs = item.Body
		}
	}
	if bs == nil {
		t.Fatal("no body attr parsed")
	}
	if bs.Kind != BodyText || bs.MediaType != "text" || bs.MediaSubtype != "plain" {
		t.Fatalf("got %+v", bs)
	}
	if bs.Lines != 5 || bs.Size != 100 {
		t.Fatalf("lines/size = %d/%d", bs.Lines, bs.Size)
	}
	if bs.Params["charset"] != "UTF-8" {
		t.Fatalf("params = %v", bs.Params)
	}
}

func TestParseBodyStructureMultipart(t *testing.T) {
	raw := `* 1 FETCH (BODY (("TEXT" "PLAIN" NIL NIL NIL "7BIT" 10 1)("TEXT" "HTML" NIL NIL NIL "7BIT" 20 2) "ALTERNATIVE"))` + "\r\n"
	resp, _ := mustParse(t, raw)
	var bs *BodyStructure
	for _, item := range resp.Message.Items {
		if item.Kind == AttrBody {
			bs = item.Body
		}
	}
	if bs == nil || bs.Kind != BodyMultipart || bs.MediaSubtype != "alternative" {
		t.Fatalf("got %+v", bs)
	}
	if len(bs.Parts) != 2 || bs.Parts[0].MediaSubtype != "plain" || bs.Parts[1].MediaSubtype != "html" {
		t.Fatalf("parts = %+v", bs.Parts)
	}
}

func TestParseStatusData(t *testing.T) {
	resp, _ := mustParse(t, `* STATUS INBOX (MESSAGES 231 UIDNEXT 44292 UIDVALIDITY 1)`+"\r\n")
	if resp.Mailbox.StatusMailbox != "INBOX" {
		t.Fatalf("mailbox = %q", resp.Mailbox.StatusMailbox)
	}
	if resp.Mailbox.StatusAttrs["MESSAGES"] != 231 {
		t.Fatalf("attrs = %v", resp.Mailbox.StatusAttrs)
	}
}

func TestParseACL(t *testing.T) {
	resp, _ := mustParse(t, `* ACL INBOX alice lrswipkxtecda bob lr`+"\r\n")
	ad := resp.ACL
	if ad.Mailbox != "INBOX" || len(ad.Entries) != 2 {
		t.Fatalf("got %+v", ad)
	}
	if ad.Entries[0].Identifier != "alice" || ad.Entries[0].Rights != "lrswipkxtecda" {
		t.Fatalf("entry0 = %+v", ad.Entries[0])
	}
}

func TestParseQuota(t *testing.T) {
	resp, _ := mustParse(t, `* QUOTA "" (STORAGE 510 1024)`+"\r\n")
	qd := resp.Quota
	if qd.Root != "" || len(qd.Resources) != 1 {
		t.Fatalf("got %+v", qd)
	}
	if qd.Resources[0].Name != "STORAGE" || qd.Resources[0].Usage != 510 || qd.Resources[0].Limit != 1024 {
		t.Fatalf("resource = %+v", qd.Resources[0])
	}
}

func TestParseGmailExtensionAttrs(t *testing.T) {
	resp, _ := mustParse(t, `* 1 FETCH (X-GM-THRID 12345 X-GM-MSGID 67890 X-GM-LABELS (\Inbox "Work"))`+"\r\n")
	var thrid, msgid uint64
	var labels []string
	for _, item := range resp.Message.Items {
		switch item.Kind {
		case AttrGmailThrID:
			thrid = item.GmailThrID
		case AttrGmailMsgID:
			msgid = item.GmailMsgID
		case AttrGmailLabels:
			labels = item.GmailLabels
		}
	}
	if thrid != 12345 || msgid != 67890 {
		t.Fatalf("thrid=%d msgid=%d", thrid, msgid)
	}
	if len(labels) != 2 || labels[1] != "Work" {
		t.Fatalf("labels = %v", labels)
	}
}
