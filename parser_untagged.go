package imap

import (
	"strconv"
	"strings"

	"github.com/eslider/goimap/internal/wire"
)

func parseUntagged(sc *wire.Scanner) (*Response, error) {
	sc.Advance(1) // '*'
	if !sc.SkipSpace() {
		if sc.AtEnd() {
			return nil, &wire.IncompleteError{Need: 1}
		}
		return nil, newParseError(sc.Pos(), "response-data", errMalformed("expected SP after '*'"))
	}

	tok, err := sc.ReadAtom()
	if err != nil {
		return nil, err
	}
	word := string(tok)

	if n, ok := parseAllDigits(word); ok {
		if !sc.SkipSpace() {
			return nil, newParseError(sc.Pos(), "response-data", errMalformed("expected SP after sequence number"))
		}
		return parseNumberedUntagged(sc, n)
	}

	switch strings.ToUpper(word) {
	case "OK", "NO", "BAD", "BYE", "PREAUTH":
		status, code, text, err := parseStatusLineFromWord(sc, word)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindStatus, Status: &StatusData{Status: status, Code: code, Text: text}}, nil
	case "CAPABILITY":
		line, err := restOfLine(sc)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindCapabilities, Capabilities: strings.Fields(line)}, nil
	case "FLAGS":
		flags, err := readFlagList(sc)
		if err != nil {
			return nil, err
		}
		if err := sc.ReadCRLF(); err != nil {
			return nil, err
		}
		return &Response{Kind: KindMailboxData, Mailbox: &MailboxData{Kind: MailboxFlags, Flags: flags}}, nil
	case "LIST", "LSUB":
		ld, err := parseListData(sc)
		if err != nil {
			return nil, err
		}
		kind := MailboxList
		if strings.ToUpper(word) == "LSUB" {
			kind = MailboxLsub
		}
		return &Response{Kind: KindMailboxData, Mailbox: &MailboxData{Kind: kind, List: ld}}, nil
	case "STATUS":
		mailbox, attrs, err := parseStatusData(sc)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindMailboxData, Mailbox: &MailboxData{Kind: MailboxStatus, StatusMailbox: mailbox, StatusAttrs: attrs}}, nil
	case "SEARCH":
		nums, err := readTrailingNumbers(sc)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindMailboxData, Mailbox: &MailboxData{Kind: MailboxSearch, SeqNums: nums}}, nil
	case "SORT":
		nums, err := readTrailingNumbers(sc)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindMailboxData, Mailbox: &MailboxData{Kind: MailboxSort, SeqNums: nums}}, nil
	case "VANISHED":
		vd, err := parseVanished(sc)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindMailboxData, Mailbox: &MailboxData{Kind: MailboxVanished, Vanished: vd}}, nil
	case "ACL":
		ad, err := parseACL(sc)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindACL, ACL: ad}, nil
	case "LISTRIGHTS":
		lr, err := parseListRights(sc)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindListRights, ListRights: lr}, nil
	case "MYRIGHTS":
		mr, err := parseMyRights(sc)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindMyRights, MyRights: mr}, nil
	case "QUOTA":
		q, err := parseQuota(sc)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindQuota, Quota: q}, nil
	case "QUOTAROOT":
		qr, err := parseQuotaRoot(sc)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindQuotaRoot, QuotaRoot: qr}, nil
	case "ENABLED":
		line, err := restOfLine(sc)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindEnabled, Enabled: strings.Fields(line)}, nil
	case "ID":
		id, err := parseIDResponse(sc)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindID, ID: id}, nil
	default:
		// Unrecognized/unhandled extension (NAMESPACE, THREAD, ...): consume
		// the rest of the line so the stream stays in sync, but surface
		// nothing structured beyond the raw keyword and line.
		line, err := restOfLine(sc)
		if err != nil {
			return nil, err
		}
		return &Response{Kind: KindOtherUntagged, OtherUntagged: &OtherUntaggedData{Keyword: word, Line: line}}, nil
	}
}

func parseNumberedUntagged(sc *wire.Scanner, n uint32) (*Response, error) {
	tok, err := sc.ReadAtom()
	if err != nil {
		return nil, err
	}
	switch strings.ToUpper(string(tok)) {
	case "EXISTS":
		if err := sc.ReadCRLF(); err != nil {
			return nil, err
		}
		return &Response{Kind: KindMailboxData, Mailbox: &MailboxData{Kind: MailboxExists, Count: n}}, nil
	case "RECENT":
		if err := sc.ReadCRLF(); err != nil {
			return nil, err
		}
		return &Response{Kind: KindMailboxData, Mailbox: &MailboxData{Kind: MailboxRecent, Count: n}}, nil
	case "EXPUNGE":
		if err := sc.ReadCRLF(); err != nil {
			return nil, err
		}
		return &Response{Kind: KindMailboxData, Mailbox: &MailboxData{Kind: MailboxExpunge, Count: n}}, nil
	case "FETCH":
		if !sc.SkipSpace() {
			return nil, newParseError(sc.Pos(), "message-data", errMalformed("expected SP after FETCH"))
		}
		items, err := parseFetchItems(sc)
		if err != nil {
			return nil, err
		}
		if err := sc.ReadCRLF(); err != nil {
			return nil, err
		}
		return &Response{Kind: KindMessageData, Message: &MessageData{Seq: n, Items: items}}, nil
	default:
		return nil, newParseError(sc.Pos(), "message-data", errMalformed("unknown numbered response %q", tok))
	}
}

func parseAllDigits(s string) (uint32, bool) {
	if s == "" {
		return 0, false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return 0, false
		}
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false
	}
	return uint32(n), true
}

// restOfLine reads to the trailing CRLF and returns the text in between,
// used for status-text-shaped lines that never embed a literal.
func restOfLine(sc *wire.Scanner) (string, error) {
	if sc.SkipSpace() {
		line, err := sc.ReadLine()
		if err != nil {
			return "", err
		}
		return string(line), nil
	}
	if err := sc.ReadCRLF(); err != nil {
		return "", err
	}
	return "", nil
}

func readTrailingNumbers(sc *wire.Scanner) ([]uint32, error) {
	var nums []uint32
	for {
		sc.SkipSpaces()
		if b, ok := sc.Peek(); !ok {
			return nil, &wire.IncompleteError{Need: 1}
		} else if b == '\r' {
			break
		}
		if sc.PeekIsList() {
			// Extension data we don't model, e.g. RFC 7162 §3.1.5's trailing
			// "(MODSEQ 12345)" on an extended SEARCH/SORT response. Skip the
			// balanced group rather than attempting to read it as a number.
			if err := skipParenGroup(sc); err != nil {
				return nil, err
			}
			continue
		}
		tok, err := sc.ReadAtom()
		if err != nil {
			return nil, err
		}
		n, err := strconv.ParseUint(string(tok), 10, 32)
		if err != nil {
			return nil, newParseError(sc.Pos(), "search-sort-data", err)
		}
		nums = append(nums, uint32(n))
	}
	if err := sc.ReadCRLF(); err != nil {
		return nil, err
	}
	return nums, nil
}

// parseStatusLineFromWord parses the remainder of a status response whose
// leading keyword (OK/NO/BAD/BYE/PREAUTH) has already been consumed.
func parseStatusLineFromWord(sc *wire.Scanner, word string) (Status, ResponseCode, string, error) {
	status, _ := parseStatusWord(word)
	rest, err := restOfLine(sc)
	if err != nil {
		return 0, nil, "", err
	}
	code, text := splitResponseCode(rest)
	return status, code, text, nil
}
