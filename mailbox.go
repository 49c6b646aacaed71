package imap

// Mailbox is the aggregated outcome of a SELECT/EXAMINE: an immutable
// snapshot built by folding untagged responses (FLAGS, EXISTS, RECENT, and
// the OK-code fields UIDVALIDITY/UIDNEXT/UNSEEN/PERMANENTFLAGS/
// HIGHESTMODSEQ) until the tagged OK completes the command.
type Mailbox struct {
	Name string

	Flags          []string
	PermanentFlags []string

	Exists uint32
	Recent uint32

	Unseen      uint32
	UnseenValid bool

	UIDNext      uint32
	UIDNextValid bool

	UIDValidity      uint32
	UIDValidityValid bool

	HighestModSeq      uint64
	HighestModSeqValid bool

	ReadWrite bool
}

// mailboxBuilder accumulates untagged responses during SELECT/EXAMINE.
type mailboxBuilder struct {
	mb Mailbox
}

func newMailboxBuilder(name string) *mailboxBuilder {
	return &mailboxBuilder{mb: Mailbox{Name: name}}
}

// applyMailboxData folds one MailboxData response (FLAGS/EXISTS/RECENT).
func (b *mailboxBuilder) applyMailboxData(md *MailboxData) {
	switch md.Kind {
	case MailboxFlags:
		b.mb.Flags = md.Flags
	case MailboxExists:
		b.mb.Exists = md.Count
	case MailboxRecent:
		b.mb.Recent = md.Count
	}
}

// applyCode folds one response code observed on an untagged OK (or the
// final tagged OK) during SELECT/EXAMINE.
func (b *mailboxBuilder) applyCode(code ResponseCode) {
	switch c := code.(type) {
	case CodeUIDValidity:
		b.mb.UIDValidity = c.Value
		b.mb.UIDValidityValid = true
	case CodeUIDNext:
		b.mb.UIDNext = c.Value
		b.mb.UIDNextValid = true
	case CodeUnseen:
		b.mb.Unseen = c.Value
		b.mb.UnseenValid = true
	case CodePermanentFlags:
		b.mb.PermanentFlags = c.Flags
	case CodeHighestModSeq:
		b.mb.HighestModSeq = c.Value
		b.mb.HighestModSeqValid = true
	case codeSimple:
		switch c {
		case CodeReadWrite:
			b.mb.ReadWrite = true
		case CodeReadOnly:
			b.mb.ReadWrite = false
		}
	}
}

func (b *mailboxBuilder) build() Mailbox { return b.mb }
