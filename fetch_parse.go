package imap

import (
	"strconv"
	"strings"
	"time"

	"github.com/eslider/goimap/internal/wire"
)

// parseFetchItems parses the parenthesized "(attr value attr value ...)"
// list of a FETCH response.
func parseFetchItems(sc *wire.Scanner) ([]MessageAttr, error) {
	if err := sc.ReadListOpen(); err != nil {
		return nil, err
	}
	var items []MessageAttr
	first := true
	for {
		sc.SkipSpaces()
		if b, ok := sc.Peek(); ok && b == ')' {
			sc.Advance(1)
			return items, nil
		}
		if !first {
			// Items are separated by exactly one SP; SkipSpaces above is
			// lenient but the grammar requires at least one was present
			// unless this is the first item.
		}
		first = false
		attr, err := parseFetchItem(sc)
		if err != nil {
			return nil, err
		}
		items = append(items, attr)
	}
}

func parseFetchItem(sc *wire.Scanner) (MessageAttr, error) {
	name, err := readFetchItemName(sc)
	if err != nil {
		return MessageAttr{}, err
	}
	upper := strings.ToUpper(name)

	switch {
	case upper == "UID":
		if !sc.SkipSpace() {
			return MessageAttr{}, newParseError(sc.Pos(), "msg-att", errMalformed("expected SP after UID"))
		}
		n, err := readUint32(sc)
		if err != nil {
			return MessageAttr{}, err
		}
		return MessageAttr{Kind: AttrUID, UID: n}, nil

	case upper == "FLAGS":
		if !sc.SkipSpace() {
			return MessageAttr{}, newParseError(sc.Pos(), "msg-att", errMalformed("expected SP after FLAGS"))
		}
		flags, err := readFlagList(sc)
		if err != nil {
			return MessageAttr{}, err
		}
		return MessageAttr{Kind: AttrFlags, Flags: flags}, nil

	case upper == "INTERNALDATE":
		if !sc.SkipSpace() {
			return MessageAttr{}, newParseError(sc.Pos(), "msg-att", errMalformed("expected SP after INTERNALDATE"))
		}
		raw, err := sc.ReadQuoted()
		if err != nil {
			return MessageAttr{}, err
		}
		t, perr := time.Parse("02-Jan-2006 15:04:05 -0700", string(raw))
		if perr != nil {
			return MessageAttr{}, newParseError(sc.Pos(), "date-time", perr)
		}
		return MessageAttr{Kind: AttrInternalDate, InternalDate: t}, nil

	case upper == "RFC822.SIZE":
		if !sc.SkipSpace() {
			return MessageAttr{}, newParseError(sc.Pos(), "msg-att", errMalformed("expected SP after RFC822.SIZE"))
		}
		n, err := readUint64(sc)
		if err != nil {
			return MessageAttr{}, err
		}
		return MessageAttr{Kind: AttrRFC822Size, RFC822Size: n}, nil

	case upper == "ENVELOPE":
		if !sc.SkipSpace() {
			return MessageAttr{}, newParseError(sc.Pos(), "msg-att", errMalformed("expected SP after ENVELOPE"))
		}
		env, err := parseEnvelope(sc)
		if err != nil {
			return MessageAttr{}, err
		}
		return MessageAttr{Kind: AttrEnvelope, Envelope: env}, nil

	case upper == "BODY" || upper == "BODYSTRUCTURE":
		if !sc.SkipSpace() {
			return MessageAttr{}, newParseError(sc.Pos(), "msg-att", errMalformed("expected SP after BODY"))
		}
		bs, err := parseBodyStructure(sc)
		if err != nil {
			return MessageAttr{}, err
		}
		return MessageAttr{Kind: AttrBody, Body: bs}, nil

	case strings.HasPrefix(upper, "BODY[") || strings.HasPrefix(upper, "BODY.PEEK["):
		section, origin := parseSectionSuffix(name)
		if !sc.SkipSpace() {
			return MessageAttr{}, newParseError(sc.Pos(), "msg-att", errMalformed("expected SP after BODY[...]"))
		}
		data, isNil, err := readNString(sc)
		if err != nil {
			return MessageAttr{}, err
		}
		if isNil {
			data = []byte{}
		}
		return MessageAttr{Kind: AttrBodySection, Section: &BodySectionData{Section: section, Origin: origin, Data: data}}, nil

	case upper == "RFC822" || upper == "RFC822.HEADER" || upper == "RFC822.TEXT":
		if !sc.SkipSpace() {
			return MessageAttr{}, newParseError(sc.Pos(), "msg-att", errMalformed("expected SP after %s", upper))
		}
		data, isNil, err := readNString(sc)
		if err != nil {
			return MessageAttr{}, err
		}
		if isNil {
			data = []byte{}
		}
		return MessageAttr{Kind: AttrBodySection, Section: &BodySectionData{Section: upper, Data: data}}, nil

	case upper == "MODSEQ":
		if !sc.SkipSpace() {
			return MessageAttr{}, newParseError(sc.Pos(), "msg-att", errMalformed("expected SP after MODSEQ"))
		}
		if err := sc.ReadListOpen(); err != nil {
			return MessageAttr{}, err
		}
		n, err := readUint64(sc)
		if err != nil {
			return MessageAttr{}, err
		}
		if err := sc.ReadListClose(); err != nil {
			return MessageAttr{}, err
		}
		return MessageAttr{Kind: AttrModSeq, ModSeq: n}, nil

	case upper == "X-GM-THRID":
		if !sc.SkipSpace() {
			return MessageAttr{}, newParseError(sc.Pos(), "msg-att", errMalformed("expected SP after X-GM-THRID"))
		}
		n, err := readUint64(sc)
		if err != nil {
			return MessageAttr{}, err
		}
		return MessageAttr{Kind: AttrGmailThrID, GmailThrID: n}, nil

	case upper == "X-GM-MSGID":
		if !sc.SkipSpace() {
			return MessageAttr{}, newParseError(sc.Pos(), "msg-att", errMalformed("expected SP after X-GM-MSGID"))
		}
		n, err := readUint64(sc)
		if err != nil {
			return MessageAttr{}, err
		}
		return MessageAttr{Kind: AttrGmailMsgID, GmailMsgID: n}, nil

	case upper == "X-GM-LABELS":
		if !sc.SkipSpace() {
			return MessageAttr{}, newParseError(sc.Pos(), "msg-att", errMalformed("expected SP after X-GM-LABELS"))
		}
		labels, err := readFlagList(sc)
		if err != nil {
			return MessageAttr{}, err
		}
		return MessageAttr{Kind: AttrGmailLabels, GmailLabels: labels}, nil

	default:
		return MessageAttr{}, newParseError(sc.Pos(), "msg-att", errMalformed("unknown FETCH attribute %q", name))
	}
}

// readFetchItemName reads an attribute name: an atom that may contain a
// bracketed section ("BODY[1.2.HEADER]<0>" or "BODY.PEEK[TEXT]"). '[' is an
// atom-char but ']' is atom-special, so plain ReadAtom stops inside the
// section (at ']' or at the SP of a header field list); the rest of the
// section through ']' is consumed here.
func readFetchItemName(sc *wire.Scanner) (string, error) {
	start := sc.Pos()
	// Read the leading atom (e.g. "BODY", "UID", "X-GM-THRID", "BODY[TEXT").
	tok, err := sc.ReadAtom()
	if err != nil {
		return "", err
	}
	if strings.IndexByte(string(tok), '[') >= 0 {
		for {
			c, ok := sc.Peek()
			if !ok {
				return "", &wire.IncompleteError{Need: 1}
			}
			sc.Advance(1)
			if c == ']' {
				break
			}
		}
		// Optional partial-fetch "<origin>" suffix on the name itself is
		// only meaningful in the request direction; in a response it
		// appears after the closing bracket as "<origin>" before the SP.
		if b2, ok := sc.Peek(); ok && b2 == '<' {
			for {
				c, ok := sc.Peek()
				if !ok {
					return "", &wire.IncompleteError{Need: 1}
				}
				sc.Advance(1)
				if c == '>' {
					break
				}
			}
		}
	}
	return string(sc.SliceFrom(start)), nil
}

// parseSectionSuffix splits "BODY[1.2.HEADER]<0>" into ("1.2.HEADER", &0).
func parseSectionSuffix(name string) (section string, origin *uint32) {
	open := strings.IndexByte(name, '[')
	closeIdx := strings.IndexByte(name, ']')
	if open >= 0 && closeIdx > open {
		section = name[open+1 : closeIdx]
	}
	if lt := strings.IndexByte(name, '<'); lt >= 0 {
		gt := strings.IndexByte(name, '>')
		if gt > lt {
			if n, err := strconv.ParseUint(name[lt+1:gt], 10, 32); err == nil {
				v := uint32(n)
				origin = &v
			}
		}
	}
	return section, origin
}

func readUint32(sc *wire.Scanner) (uint32, error) {
	tok, err := sc.ReadAtom()
	if err != nil {
		return 0, err
	}
	n, perr := strconv.ParseUint(string(tok), 10, 32)
	if perr != nil {
		return 0, newParseError(sc.Pos(), "number", perr)
	}
	return uint32(n), nil
}

func readUint64(sc *wire.Scanner) (uint64, error) {
	tok, err := sc.ReadAtom()
	if err != nil {
		return 0, err
	}
	n, perr := strconv.ParseUint(string(tok), 10, 64)
	if perr != nil {
		return 0, newParseError(sc.Pos(), "number", perr)
	}
	return n, nil
}
