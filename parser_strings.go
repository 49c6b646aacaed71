package imap

import "github.com/eslider/goimap/internal/wire"

// readNString reads an RFC 3501 nstring: NIL, a quoted string, or a
// literal. isNil is true (with val == nil) when the server sent NIL.
func readNString(sc *wire.Scanner) (val []byte, isNil bool, err error) {
	if sc.IsNIL() {
		if err := sc.ReadNIL(); err != nil {
			return nil, false, err
		}
		return nil, true, nil
	}
	if sc.PeekIsLiteral() {
		n, _, err := sc.ReadLiteralHeader()
		if err != nil {
			return nil, false, err
		}
		lit, err := sc.ReadLiteral(n)
		if err != nil {
			return nil, false, err
		}
		return lit, false, nil
	}
	v, err := sc.ReadQuoted()
	if err != nil {
		return nil, false, err
	}
	return v, false, nil
}

// readNStringPtr is readNString adapted to the *string convention used by
// Envelope/BodyStructure fields (nil means NIL).
func readNStringPtr(sc *wire.Scanner) (*string, error) {
	v, isNil, err := readNString(sc)
	if err != nil {
		return nil, err
	}
	if isNil {
		return nil, nil
	}
	s := string(v)
	return &s, nil
}

// readAString reads an RFC 3501 astring: an atom, a quoted string, or a
// literal (never NIL).
func readAString(sc *wire.Scanner) ([]byte, error) {
	if sc.PeekIsQuoted() {
		return sc.ReadQuoted()
	}
	if sc.PeekIsLiteral() {
		n, _, err := sc.ReadLiteralHeader()
		if err != nil {
			return nil, err
		}
		return sc.ReadLiteral(n)
	}
	return sc.ReadAtom()
}

// readFlagList reads a parenthesized, possibly empty, space-separated list
// of flag atoms: "(\Seen \Answered)" or "()". Quoted members, as in Gmail's
// X-GM-LABELS ("(\Inbox "Work")"), are also accepted.
func readFlagList(sc *wire.Scanner) ([]string, error) {
	if err := sc.ReadListOpen(); err != nil {
		return nil, err
	}
	var flags []string
	for {
		sc.SkipSpaces()
		if b, ok := sc.Peek(); ok && b == ')' {
			sc.Advance(1)
			return flags, nil
		}
		var tok []byte
		var err error
		if sc.PeekIsQuoted() {
			tok, err = sc.ReadQuoted()
		} else {
			tok, err = readFlagAtom(sc)
		}
		if err != nil {
			return nil, err
		}
		flags = append(flags, string(tok))
	}
}

// readFlagAtom reads a flag, which may be prefixed with a backslash
// (system flags like \Seen, \Answered, \*) — atoms exclude '\\' normally,
// so flags get their own reader.
func readFlagAtom(sc *wire.Scanner) ([]byte, error) {
	start := sc.Pos()
	if b, ok := sc.Peek(); ok && b == '\\' {
		sc.Advance(1)
	}
	if _, err := sc.ReadAtom(); err != nil {
		return nil, err
	}
	return sc.SliceFrom(start), nil
}
