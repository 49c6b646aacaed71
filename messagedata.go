package imap

import "time"

// MessageAttrKind discriminates a single FETCH response data item.
type MessageAttrKind int

const (
	AttrUID MessageAttrKind = iota
	AttrFlags
	AttrInternalDate
	AttrRFC822Size
	AttrEnvelope
	AttrBody
	AttrBodySection
	AttrModSeq
	AttrGmailThrID
	AttrGmailMsgID
	AttrGmailLabels
)

// BodySectionData is one "BODY[section]<origin>" FETCH response item.
type BodySectionData struct {
	Section string // e.g. "", "1", "1.2", "HEADER", "HEADER.FIELDS (FROM TO)", "TEXT"
	Origin  *uint32
	Data    []byte
}

// MessageAttr is one heterogeneous attribute of a FETCH response; exactly
// one field is populated according to Kind.
type MessageAttr struct {
	Kind MessageAttrKind

	UID          uint32
	Flags        []string
	InternalDate time.Time
	RFC822Size   uint64
	Envelope     *Envelope
	Body         *BodyStructure
	Section      *BodySectionData
	ModSeq       uint64
	GmailThrID   uint64
	GmailMsgID   uint64
	GmailLabels  []string
}

// MessageData is an untagged "* N FETCH (...)" response: the sequence
// number plus an ordered list of attributes (servers mirror the caller's
// requested item ordering).
type MessageData struct {
	Seq   uint32
	Items []MessageAttr
}

// UID returns the UID attribute if present.
func (m *MessageData) UID() (uint32, bool) {
	for _, it := range m.Items {
		if it.Kind == AttrUID {
			return it.UID, true
		}
	}
	return 0, false
}

// FlagsAttr returns the FLAGS attribute if present.
func (m *MessageData) FlagsAttr() ([]string, bool) {
	for _, it := range m.Items {
		if it.Kind == AttrFlags {
			return it.Flags, true
		}
	}
	return nil, false
}

// BodySection returns the first BODY[section] data matching section exactly.
func (m *MessageData) BodySection(section string) ([]byte, bool) {
	for _, it := range m.Items {
		if it.Kind == AttrBodySection && it.Section != nil && it.Section.Section == section {
			return it.Section.Data, true
		}
	}
	return nil, false
}
