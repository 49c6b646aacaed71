package imap

import "strings"

// Fetch retrieves message data items for the messages in seqSet (§6.4.5).
// Responses are delivered in FETCH order via the returned slice, keyed by
// the server's reported sequence number (not UID, even in UID FETCH — see
// UIDFetch).
func (s *Session) Fetch(seqSet SequenceSet, items []string) ([]MessageData, error) {
	return s.fetch("FETCH", seqSet, items)
}

// UIDFetch is FETCH addressed by UID instead of sequence number (§6.4.8).
// The server always includes UID in each response regardless of whether it
// was requested, per RFC 3501; Fetch results are still indexed by Seq.
func (s *Session) UIDFetch(uidSet SequenceSet, items []string) ([]MessageData, error) {
	return s.fetch("UID FETCH", uidSet, items)
}

func (s *Session) fetch(verb string, set SequenceSet, items []string) ([]MessageData, error) {
	if set.Empty() {
		return nil, nil
	}
	args := []cmdArg{{inline: set.String()}, {inline: wrapItems(items)}}
	var out []MessageData
	_, err := s.runCommand(verb, args, func(resp *Response) bool {
		if resp.Kind == KindMessageData {
			out = append(out, *resp.Message)
			return true
		}
		return false
	})
	return out, err
}

func wrapItems(items []string) string {
	if len(items) == 1 {
		return items[0]
	}
	return "(" + strings.Join(items, " ") + ")"
}

// StoreMode selects how Store applies flags: Replace overwrites the flag
// set, Add/Remove add or remove the given flags (§6.4.6).
type StoreMode int

const (
	StoreReplace StoreMode = iota
	StoreAdd
	StoreRemove
)

// Store changes message flags for seqSet. silent suppresses the server's
// FETCH(FLAGS) acknowledgment (".SILENT" suffix); results holds whatever
// untagged FETCH data the server does send regardless (nil if none).
func (s *Session) Store(seqSet SequenceSet, mode StoreMode, flags []string, silent bool) ([]MessageData, error) {
	return s.store("STORE", seqSet, mode, flags, silent)
}

// UIDStore is STORE addressed by UID (§6.4.8).
func (s *Session) UIDStore(uidSet SequenceSet, mode StoreMode, flags []string, silent bool) ([]MessageData, error) {
	return s.store("UID STORE", uidSet, mode, flags, silent)
}

func (s *Session) store(verb string, set SequenceSet, mode StoreMode, flags []string, silent bool) ([]MessageData, error) {
	if set.Empty() {
		return nil, nil
	}
	item := storeModeItem(mode)
	if silent {
		item += ".SILENT"
	}
	args := []cmdArg{{inline: set.String()}, {inline: item}, {inline: "(" + strings.Join(flags, " ") + ")"}}
	var out []MessageData
	_, err := s.runCommand(verb, args, func(resp *Response) bool {
		if resp.Kind == KindMessageData {
			out = append(out, *resp.Message)
			return true
		}
		return false
	})
	return out, err
}

func storeModeItem(mode StoreMode) string {
	switch mode {
	case StoreAdd:
		return "+FLAGS"
	case StoreRemove:
		return "-FLAGS"
	default:
		return "FLAGS"
	}
}

// Copy copies seqSet into mailbox, leaving the source untouched (§6.4.7).
func (s *Session) Copy(seqSet SequenceSet, mailbox string) error {
	return s.copyOrMove("COPY", seqSet, mailbox)
}

// UIDCopy is COPY addressed by UID.
func (s *Session) UIDCopy(uidSet SequenceSet, mailbox string) error {
	return s.copyOrMove("UID COPY", uidSet, mailbox)
}

// Move copies seqSet into mailbox and removes it from the source in one
// atomic server-side operation (RFC 6851), instead of the
// COPY+STORE+EXPUNGE dance MOVE replaces.
func (s *Session) Move(seqSet SequenceSet, mailbox string) error {
	return s.copyOrMove("MOVE", seqSet, mailbox)
}

// UIDMove is MOVE addressed by UID.
func (s *Session) UIDMove(uidSet SequenceSet, mailbox string) error {
	return s.copyOrMove("UID MOVE", uidSet, mailbox)
}

func (s *Session) copyOrMove(verb string, set SequenceSet, mailbox string) error {
	if set.Empty() {
		return nil
	}
	args := []cmdArg{{inline: set.String()}, s.encodeArg(mailbox)}
	_, err := s.runCommand(verb, args, nil)
	return err
}

// Expunge permanently removes all \Deleted messages from the selected
// mailbox (§6.4.3), returning the sequence numbers reported via untagged
// EXPUNGE.
func (s *Session) Expunge() ([]uint32, error) {
	var seqs []uint32
	_, err := s.runCommand("EXPUNGE", nil, func(resp *Response) bool {
		if resp.Kind == KindMailboxData && resp.Mailbox.Kind == MailboxExpunge {
			seqs = append(seqs, resp.Mailbox.Count)
			return true
		}
		return false
	})
	return seqs, err
}

// UIDExpunge is EXPUNGE restricted to a UID set (RFC 4315 UIDPLUS), so a
// client that only wants to purge a known batch of \Deleted messages
// doesn't also expunge others marked \Deleted concurrently by another
// connection.
func (s *Session) UIDExpunge(uidSet SequenceSet) ([]uint32, error) {
	if uidSet.Empty() {
		return nil, nil
	}
	var seqs []uint32
	_, err := s.runCommand("UID EXPUNGE", []cmdArg{{inline: uidSet.String()}}, func(resp *Response) bool {
		if resp.Kind == KindMailboxData && resp.Mailbox.Kind == MailboxExpunge {
			seqs = append(seqs, resp.Mailbox.Count)
			return true
		}
		return false
	})
	return seqs, err
}

// SearchCriteria is a pre-built SEARCH query string (e.g. `UNSEEN`,
// `FROM "alice@example.com" SINCE 1-Jan-2024`); this package does not model
// a query builder, matching the spec's boundary of accepting raw search-key
// text.
type SearchCriteria string

// Search runs SEARCH and returns matching sequence numbers (§6.4.4).
func (s *Session) Search(criteria SearchCriteria, charset string) ([]uint32, error) {
	return s.search("SEARCH", criteria, charset)
}

// UIDSearch is SEARCH addressed by, and returning, UIDs (§6.4.8).
func (s *Session) UIDSearch(criteria SearchCriteria, charset string) ([]uint32, error) {
	return s.search("UID SEARCH", criteria, charset)
}

func (s *Session) search(verb string, criteria SearchCriteria, charset string) ([]uint32, error) {
	var args []cmdArg
	if charset != "" {
		args = append(args, cmdArg{inline: "CHARSET " + charset})
	}
	args = append(args, cmdArg{inline: string(criteria)})
	var nums []uint32
	_, err := s.runCommand(verb, args, func(resp *Response) bool {
		if resp.Kind == KindMailboxData && resp.Mailbox.Kind == MailboxSearch {
			nums = resp.Mailbox.SeqNums
			return true
		}
		return false
	})
	return nums, err
}

// Sort runs the SORT extension (RFC 5256): like SEARCH but additionally
// orders the results by sortKeys (e.g. "ARRIVAL", "REVERSE SUBJECT").
func (s *Session) Sort(sortKeys []string, charset string, criteria SearchCriteria) ([]uint32, error) {
	return s.sort("SORT", sortKeys, charset, criteria)
}

// UIDSort is SORT addressed by, and returning, UIDs.
func (s *Session) UIDSort(sortKeys []string, charset string, criteria SearchCriteria) ([]uint32, error) {
	return s.sort("UID SORT", sortKeys, charset, criteria)
}

func (s *Session) sort(verb string, sortKeys []string, charset string, criteria SearchCriteria) ([]uint32, error) {
	args := []cmdArg{
		{inline: "(" + strings.Join(sortKeys, " ") + ")"},
		{inline: charset},
		{inline: string(criteria)},
	}
	var nums []uint32
	_, err := s.runCommand(verb, args, func(resp *Response) bool {
		if resp.Kind == KindMailboxData && resp.Mailbox.Kind == MailboxSort {
			nums = resp.Mailbox.SeqNums
			return true
		}
		return false
	})
	return nums, err
}
