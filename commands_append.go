package imap

import (
	"time"

	"github.com/eslider/goimap/internal/wire"
)

// AppendOutcome reports the UIDPLUS (RFC 4315) [APPENDUID] code, when the
// server sends one, for the message just appended.
type AppendOutcome struct {
	UIDValidity uint32
	UID         uint32
	HasUID      bool
}

// AppendBuilder accumulates the optional flag-list and internal-date
// arguments to APPEND (§6.3.11) before Finish sends the command with the
// message body as a literal.
type AppendBuilder struct {
	s            *Session
	mailbox      string
	flags        []string
	internalDate time.Time
	hasDate      bool
	body         []byte
}

// Append begins building an APPEND command targeting mailbox.
func (s *Session) Append(mailbox string, body []byte) *AppendBuilder {
	return &AppendBuilder{s: s, mailbox: mailbox, body: body}
}

// Flags sets the flag list the appended message is stored with.
func (b *AppendBuilder) Flags(flags ...string) *AppendBuilder {
	b.flags = flags
	return b
}

// InternalDate sets the server-side INTERNALDATE for the appended message;
// omitted, the server uses the time it received the command.
func (b *AppendBuilder) InternalDate(t time.Time) *AppendBuilder {
	b.internalDate = t
	b.hasDate = true
	return b
}

// Finish sends the APPEND command and returns the UIDPLUS outcome, if the
// server provided one.
func (b *AppendBuilder) Finish() (AppendOutcome, error) {
	if len(b.body) == 0 {
		return AppendOutcome{}, &CommandError{Status: StatusBad, Text: "imap: APPEND body must not be empty"}
	}
	args := []cmdArg{b.s.encodeArg(b.mailbox)}
	if len(b.flags) > 0 {
		args = append(args, cmdArg{inline: "(" + joinUpper(b.flags) + ")"})
	}
	if b.hasDate {
		args = append(args, cmdArg{inline: quoteWithEscapes(formatInternalDate(b.internalDate))})
	}
	args = append(args, cmdArg{inline: wire.LiteralHeader(len(b.body), b.s.hasCapabilityCached("LITERAL+")), literal: b.body})

	var outcome AppendOutcome
	done, err := b.s.runCommand("APPEND", args, nil)
	if err != nil {
		return AppendOutcome{}, err
	}
	if cu, ok := done.Code.(CodeAppendUID); ok {
		outcome = AppendOutcome{UIDValidity: cu.UIDValidity, UID: cu.UID, HasUID: true}
	}
	return outcome, nil
}

func formatInternalDate(t time.Time) string {
	return t.Format("02-Jan-2006 15:04:05 -0700")
}
