package imap

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/eslider/goimap/internal/wire"
)

// Parse attempts to parse one complete response from the head of data. On
// success it returns the Response and the number of bytes consumed. If data
// does not yet contain a complete response, it returns a *wire.IncompleteError
// (via errors.As) and the caller should read more bytes and call Parse again
// from the same offset — Parse carries no state of its own between calls, so
// re-invoking on a longer buffer is always safe and always restarts from
// scratch (§4.A).
func Parse(data []byte) (*Response, int, error) {
	if len(data) == 0 {
		return nil, 0, &wire.IncompleteError{Need: 1}
	}
	sc := wire.NewScanner(data)
	resp, err := parseOne(sc)
	if err != nil {
		return nil, 0, err
	}
	return resp, sc.Pos(), nil
}

func parseOne(sc *wire.Scanner) (*Response, error) {
	b, ok := sc.Peek()
	if !ok {
		return nil, &wire.IncompleteError{Need: 1}
	}
	switch b {
	case '+':
		return parseContinuation(sc)
	case '*':
		return parseUntagged(sc)
	default:
		return parseTagged(sc)
	}
}

func parseContinuation(sc *wire.Scanner) (*Response, error) {
	sc.Advance(1) // '+'
	sc.SkipSpaces()
	line, err := sc.ReadLine()
	if err != nil {
		return nil, err
	}
	return &Response{Kind: KindContinuation, Continuation: &ContinuationData{Text: string(line)}}, nil
}

func parseTagged(sc *wire.Scanner) (*Response, error) {
	tag, err := sc.ReadAtom()
	if err != nil {
		return nil, err
	}
	if !sc.SkipSpace() {
		if sc.AtEnd() {
			return nil, &wire.IncompleteError{Need: 1}
		}
		return nil, newParseError(sc.Pos(), "tagged-response", errMalformed("expected SP after tag"))
	}
	status, code, text, err := parseStatusLine(sc)
	if err != nil {
		return nil, err
	}
	return &Response{Kind: KindDone, Done: &DoneData{Tag: string(tag), Status: status, Code: code, Text: text}}, nil
}

// parseStatusLine parses "STATUS-ATOM [SP [code] text]" through the
// trailing CRLF. Status text never embeds a literal (RFC 3501 §7.1), so it
// is always safe to read the rest of the line in one shot.
func parseStatusLine(sc *wire.Scanner) (Status, ResponseCode, string, error) {
	atom, err := sc.ReadAtom()
	if err != nil {
		return 0, nil, "", err
	}
	status, ok := parseStatusWord(string(atom))
	if !ok {
		return 0, nil, "", newParseError(sc.Pos(), "resp-cond-state", errMalformed("unknown status %q", atom))
	}
	rest := ""
	if sc.SkipSpace() {
		line, err := sc.ReadLine()
		if err != nil {
			return 0, nil, "", err
		}
		rest = string(line)
	} else {
		if err := sc.ReadCRLF(); err != nil {
			return 0, nil, "", err
		}
	}
	code, text := splitResponseCode(rest)
	return status, code, text, nil
}

func parseStatusWord(s string) (Status, bool) {
	switch strings.ToUpper(s) {
	case "OK":
		return StatusOK, true
	case "NO":
		return StatusNo, true
	case "BAD":
		return StatusBad, true
	case "BYE":
		return StatusBye, true
	case "PREAUTH":
		return StatusPreAuth, true
	}
	return 0, false
}

// splitResponseCode splits "[CODE args] free text" into (ResponseCode, text).
// If there is no bracketed code, code is nil and text is the whole string.
func splitResponseCode(s string) (ResponseCode, string) {
	if !strings.HasPrefix(s, "[") {
		return nil, s
	}
	end := strings.IndexByte(s, ']')
	if end < 0 {
		return nil, s
	}
	inner := s[1:end]
	text := ""
	if end+1 < len(s) {
		text = strings.TrimPrefix(s[end+1:], " ")
	}
	name, arg, _ := strings.Cut(inner, " ")
	nameUpper := strings.ToUpper(name)
	switch nameUpper {
	case "ALERT":
		return CodeAlert, text
	case "PARSE":
		return CodeParse, text
	case "READ-ONLY":
		return CodeReadOnly, text
	case "READ-WRITE":
		return CodeReadWrite, text
	case "TRYCREATE":
		return CodeTryCreate, text
	case "UIDNOTSTICKY":
		return CodeUIDNotSticky, text
	case "BADCHARSET":
		return CodeBadCharset{Charsets: parseParenList(arg)}, text
	case "CAPABILITY":
		return CodeCapability{Capabilities: strings.Fields(arg)}, text
	case "PERMANENTFLAGS":
		return CodePermanentFlags{Flags: parseParenList(arg)}, text
	case "UIDNEXT":
		n, _ := strconv.ParseUint(arg, 10, 32)
		return CodeUIDNext{Value: uint32(n)}, text
	case "UIDVALIDITY":
		n, _ := strconv.ParseUint(arg, 10, 32)
		return CodeUIDValidity{Value: uint32(n)}, text
	case "UNSEEN":
		n, _ := strconv.ParseUint(arg, 10, 32)
		return CodeUnseen{Value: uint32(n)}, text
	case "APPENDUID":
		fields := strings.Fields(arg)
		if len(fields) == 2 {
			uv, _ := strconv.ParseUint(fields[0], 10, 32)
			uid, _ := strconv.ParseUint(fields[1], 10, 32)
			return CodeAppendUID{UIDValidity: uint32(uv), UID: uint32(uid)}, text
		}
	case "COPYUID":
		fields := strings.Fields(arg)
		if len(fields) == 3 {
			uv, _ := strconv.ParseUint(fields[0], 10, 32)
			return CodeCopyUID{UIDValidity: uint32(uv), Source: fields[1], Dest: fields[2]}, text
		}
	case "HIGHESTMODSEQ":
		n, _ := strconv.ParseUint(arg, 10, 64)
		return CodeHighestModSeq{Value: n}, text
	case "MODIFIED":
		return CodeModified{Set: arg}, text
	}
	return CodeOther{CodeName: nameUpper, Argument: arg}, text
}

// parseParenList splits "(a b c)" or "a b c" into its whitespace-separated
// members, ignoring surrounding parens if present.
func parseParenList(s string) []string {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "(")
	s = strings.TrimSuffix(s, ")")
	if s == "" {
		return nil
	}
	return strings.Fields(s)
}

func errMalformed(format string, args ...any) error {
	return malformedError{msg: fmt.Sprintf(format, args...)}
}

type malformedError struct{ msg string }

func (e malformedError) Error() string { return e.msg }
