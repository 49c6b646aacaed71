package imap

// Envelope is the parsed form of a FETCH ENVELOPE response item (RFC 3501
// §7.4.2): a fixed 10-field parenthesized structure. Nil pointer fields mean
// the server sent NIL, distinct from a present-but-empty string.
type Envelope struct {
	Date      *string
	Subject   *string
	From      []Address
	Sender    []Address
	ReplyTo   []Address
	To        []Address
	Cc        []Address
	Bcc       []Address
	InReplyTo *string
	MessageID *string
}

// Address is one RFC 3501 address structure: (name adl mailbox host). A nil
// field is NIL on the wire; mailbox == nil && host == nil marks an
// RFC 822 group boundary ("start-group:" / "end-group;").
type Address struct {
	Name    *string
	ADL     *string
	Mailbox *string
	Host    *string
}

// String renders the address as "name <mailbox@host>" for display,
// preferring the decoded display name when present.
func (a Address) String() string {
	mailbox := ""
	if a.Mailbox != nil {
		mailbox = *a.Mailbox
	}
	host := ""
	if a.Host != nil {
		host = *a.Host
	}
	addr := mailbox
	if host != "" {
		addr += "@" + host
	}
	if a.Name != nil && *a.Name != "" {
		return *a.Name + " <" + addr + ">"
	}
	return addr
}
