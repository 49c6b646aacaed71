package imap

import (
	"strconv"
	"strings"

	"github.com/eslider/goimap/internal/wire"
)

// parseListData parses "(attrs) SP delimiter SP name" for LIST/LSUB.
func parseListData(sc *wire.Scanner) (*ListData, error) {
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "mailbox-list", errMalformed("expected SP"))
	}
	attrs, err := readFlagList(sc)
	if err != nil {
		return nil, err
	}
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "mailbox-list", errMalformed("expected SP"))
	}
	var delim string
	hasDelim := false
	if sc.IsNIL() {
		if err := sc.ReadNIL(); err != nil {
			return nil, err
		}
	} else {
		d, err := sc.ReadQuoted()
		if err != nil {
			return nil, err
		}
		delim = string(d)
		hasDelim = true
	}
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "mailbox-list", errMalformed("expected SP"))
	}
	name, err := readAString(sc)
	if err != nil {
		return nil, err
	}
	if err := sc.ReadCRLF(); err != nil {
		return nil, err
	}
	return &ListData{Attrs: attrs, Delimiter: delim, HasDelimiter: hasDelim, Name: string(name)}, nil
}

// parseStatusData parses "mailbox (STATUS-ATT value ...)" for STATUS.
func parseStatusData(sc *wire.Scanner) (string, map[string]uint64, error) {
	if !sc.SkipSpace() {
		return "", nil, newParseError(sc.Pos(), "status-data", errMalformed("expected SP"))
	}
	name, err := readAString(sc)
	if err != nil {
		return "", nil, err
	}
	if !sc.SkipSpace() {
		return "", nil, newParseError(sc.Pos(), "status-data", errMalformed("expected SP"))
	}
	if err := sc.ReadListOpen(); err != nil {
		return "", nil, err
	}
	attrs := map[string]uint64{}
	for {
		sc.SkipSpaces()
		if b, ok := sc.Peek(); ok && b == ')' {
			sc.Advance(1)
			break
		}
		key, err := sc.ReadAtom()
		if err != nil {
			return "", nil, err
		}
		if !sc.SkipSpace() {
			return "", nil, newParseError(sc.Pos(), "status-att", errMalformed("expected SP"))
		}
		val, err := sc.ReadAtom()
		if err != nil {
			return "", nil, err
		}
		n, convErr := strconv.ParseUint(string(val), 10, 64)
		if convErr != nil {
			return "", nil, newParseError(sc.Pos(), "status-att-value", convErr)
		}
		attrs[strings.ToUpper(string(key))] = n
	}
	if err := sc.ReadCRLF(); err != nil {
		return "", nil, err
	}
	return string(name), attrs, nil
}

// parseVanished parses "[(EARLIER)] uid-set" for QRESYNC VANISHED.
func parseVanished(sc *wire.Scanner) (*VanishedData, error) {
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "vanished", errMalformed("expected SP"))
	}
	earlier := false
	if sc.PeekIsList() {
		if err := sc.ReadListOpen(); err != nil {
			return nil, err
		}
		tag, err := sc.ReadAtom()
		if err != nil {
			return nil, err
		}
		if strings.ToUpper(string(tag)) == "EARLIER" {
			earlier = true
		}
		if err := sc.ReadListClose(); err != nil {
			return nil, err
		}
		if !sc.SkipSpace() {
			return nil, newParseError(sc.Pos(), "vanished", errMalformed("expected SP"))
		}
	}
	line, err := sc.ReadLine()
	if err != nil {
		return nil, err
	}
	return &VanishedData{Earlier: earlier, Set: string(line)}, nil
}

// parseACL parses "mailbox (identifier rights identifier rights ...)".
func parseACL(sc *wire.Scanner) (*ACLData, error) {
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "acl-data", errMalformed("expected SP"))
	}
	mailbox, err := readAString(sc)
	if err != nil {
		return nil, err
	}
	var entries []ACLEntry
	for {
		if !sc.SkipSpace() {
			break
		}
		id, err := readAString(sc)
		if err != nil {
			return nil, err
		}
		if !sc.SkipSpace() {
			return nil, newParseError(sc.Pos(), "acl-data", errMalformed("expected SP"))
		}
		rights, err := readAString(sc)
		if err != nil {
			return nil, err
		}
		entries = append(entries, ACLEntry{Identifier: string(id), Rights: string(rights)})
	}
	if err := sc.ReadCRLF(); err != nil {
		return nil, err
	}
	return &ACLData{Mailbox: string(mailbox), Entries: entries}, nil
}

// parseListRights parses "mailbox identifier required optional...".
func parseListRights(sc *wire.Scanner) (*ListRightsData, error) {
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "listrights-data", errMalformed("expected SP"))
	}
	mailbox, err := readAString(sc)
	if err != nil {
		return nil, err
	}
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "listrights-data", errMalformed("expected SP"))
	}
	id, err := readAString(sc)
	if err != nil {
		return nil, err
	}
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "listrights-data", errMalformed("expected SP"))
	}
	required, err := readAString(sc)
	if err != nil {
		return nil, err
	}
	var optional []string
	for sc.SkipSpace() {
		tok, err := readAString(sc)
		if err != nil {
			return nil, err
		}
		optional = append(optional, string(tok))
	}
	if err := sc.ReadCRLF(); err != nil {
		return nil, err
	}
	return &ListRightsData{Mailbox: string(mailbox), Identifier: string(id), Required: string(required), Optional: optional}, nil
}

// parseMyRights parses "mailbox rights".
func parseMyRights(sc *wire.Scanner) (*MyRightsData, error) {
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "myrights-data", errMalformed("expected SP"))
	}
	mailbox, err := readAString(sc)
	if err != nil {
		return nil, err
	}
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "myrights-data", errMalformed("expected SP"))
	}
	rights, err := readAString(sc)
	if err != nil {
		return nil, err
	}
	if err := sc.ReadCRLF(); err != nil {
		return nil, err
	}
	return &MyRightsData{Mailbox: string(mailbox), Rights: string(rights)}, nil
}

// parseQuota parses "root (resource usage limit ...)".
func parseQuota(sc *wire.Scanner) (*QuotaData, error) {
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "quota-data", errMalformed("expected SP"))
	}
	root, err := readAString(sc)
	if err != nil {
		return nil, err
	}
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "quota-data", errMalformed("expected SP"))
	}
	if err := sc.ReadListOpen(); err != nil {
		return nil, err
	}
	var resources []QuotaResource
	for {
		sc.SkipSpaces()
		if b, ok := sc.Peek(); ok && b == ')' {
			sc.Advance(1)
			break
		}
		name, err := sc.ReadAtom()
		if err != nil {
			return nil, err
		}
		if !sc.SkipSpace() {
			return nil, newParseError(sc.Pos(), "quota-resource", errMalformed("expected SP"))
		}
		usageTok, err := sc.ReadAtom()
		if err != nil {
			return nil, err
		}
		if !sc.SkipSpace() {
			return nil, newParseError(sc.Pos(), "quota-resource", errMalformed("expected SP"))
		}
		limitTok, err := sc.ReadAtom()
		if err != nil {
			return nil, err
		}
		usage, _ := strconv.ParseUint(string(usageTok), 10, 64)
		limit, _ := strconv.ParseUint(string(limitTok), 10, 64)
		resources = append(resources, QuotaResource{Name: strings.ToUpper(string(name)), Usage: usage, Limit: limit})
	}
	if err := sc.ReadCRLF(); err != nil {
		return nil, err
	}
	return &QuotaData{Root: string(root), Resources: resources}, nil
}

// parseQuotaRoot parses "mailbox root ...".
func parseQuotaRoot(sc *wire.Scanner) (*QuotaRootData, error) {
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "quotaroot-data", errMalformed("expected SP"))
	}
	mailbox, err := readAString(sc)
	if err != nil {
		return nil, err
	}
	var roots []string
	for sc.SkipSpace() {
		tok, err := readAString(sc)
		if err != nil {
			return nil, err
		}
		roots = append(roots, string(tok))
	}
	if err := sc.ReadCRLF(); err != nil {
		return nil, err
	}
	return &QuotaRootData{Mailbox: string(mailbox), Roots: roots}, nil
}

// parseIDResponse parses "(key value key value ...)" or NIL for RFC 2971 ID.
func parseIDResponse(sc *wire.Scanner) (map[string]string, error) {
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "id-response", errMalformed("expected SP"))
	}
	if sc.IsNIL() {
		if err := sc.ReadNIL(); err != nil {
			return nil, err
		}
		if err := sc.ReadCRLF(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err := sc.ReadListOpen(); err != nil {
		return nil, err
	}
	id := map[string]string{}
	for {
		sc.SkipSpaces()
		if b, ok := sc.Peek(); ok && b == ')' {
			sc.Advance(1)
			break
		}
		key, err := readAString(sc)
		if err != nil {
			return nil, err
		}
		if !sc.SkipSpace() {
			return nil, newParseError(sc.Pos(), "id-response", errMalformed("expected SP"))
		}
		val, isNil, err := readNString(sc)
		if err != nil {
			return nil, err
		}
		if !isNil {
			id[string(key)] = string(val)
		}
	}
	if err := sc.ReadCRLF(); err != nil {
		return nil, err
	}
	return id, nil
}
