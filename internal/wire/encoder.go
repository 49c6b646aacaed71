package wire

import (
	"strconv"
	"strings"
)

// maxQuotedLen is the longest argument the encoder will send as a quoted
// string before falling back to a literal (RFC 3501 §4.3 places no hard
// cap, but servers commonly truncate or reject very long quoted lines).
const maxQuotedLen = 1024

// NeedsLiteral reports whether s cannot be safely sent as a quoted string:
// non-ASCII-printable, too long, or containing a quote/backslash/CR/LF.
func NeedsLiteral(s string) bool {
	if len(s) > maxQuotedLen {
		return true
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' || c == '\r' || c == '\n' {
			return true
		}
		if c < 0x20 || c > 0x7e {
			return true
		}
	}
	return false
}

// IsPlainAtom reports whether s can be sent unquoted as a bare atom.
// 8-bit bytes are never atom-chars.
func IsPlainAtom(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if isAtomSpecial(s[i]) || s[i] > 0x7e {
			return false
		}
	}
	return true
}

// QuoteString renders s as an RFC 3501 quoted-string, escaping '"' and '\'.
func QuoteString(s string) string {
	var b strings.Builder
	b.Grow(len(s) + 2)
	b.WriteByte('"')
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '"' || c == '\\' {
			b.WriteByte('\\')
		}
		b.WriteByte(c)
	}
	b.WriteByte('"')
	return b.String()
}

// LiteralHeader renders the "{N}" or "{N+}" announcement for a literal of
// the given length. nonSync is only honored when the caller has confirmed
// the server advertised LITERAL+.
func LiteralHeader(n int, nonSync bool) string {
	if nonSync {
		return "{" + strconv.Itoa(n) + "+}"
	}
	return "{" + strconv.Itoa(n) + "}"
}

// EncodeArg chooses the wire representation for a single string argument:
// atom, quoted string, or literal. literalPlus is true when the server has
// advertised LITERAL+ (so synchronizing literals can use "{N+}" and skip the
// continuation round-trip).
//
// Returns the inline text to append to the command line, and — only for the
// literal case — the payload bytes that follow once the continuation (or
// immediately, for "{N+}") is satisfied.
func EncodeArg(s string, literalPlus bool) (inline string, literal []byte, isLiteral bool) {
	if IsPlainAtom(s) {
		return s, nil, false
	}
	if !NeedsLiteral(s) {
		return QuoteString(s), nil, false
	}
	return LiteralHeader(len(s), literalPlus), []byte(s), true
}

// SeqRange is a single element of a sequence-set: either one number, a
// low:high range, or "*" (Star, meaning the highest numbered item).
type SeqRange struct {
	Low, High uint32
	StarLow   bool // Low is "*"
	StarHigh  bool // High is "*" (a lone "*" is Single with StarLow)
	Single    bool // true: just Low (no colon), ignoring High
}

// EncodeSeqSet renders a sequence of sequence numbers into RFC 3501
// sequence-set syntax, coalescing runs of consecutive numbers into ranges
// for compactness (e.g. [3,4,5,7,8,10] -> "3:5,7:8,10").
func EncodeSeqSet(nums []uint32) string {
	if len(nums) == 0 {
		return ""
	}
	sorted := append([]uint32(nil), nums...)
	for i := 1; i < len(sorted); i++ {
		for j := i; j > 0 && sorted[j-1] > sorted[j]; j-- {
			sorted[j-1], sorted[j] = sorted[j], sorted[j-1]
		}
	}
	var parts []string
	i := 0
	for i < len(sorted) {
		j := i
		for j+1 < len(sorted) && sorted[j+1] == sorted[j]+1 {
			j++
		}
		if j == i {
			parts = append(parts, strconv.FormatUint(uint64(sorted[i]), 10))
		} else {
			parts = append(parts, strconv.FormatUint(uint64(sorted[i]), 10)+":"+strconv.FormatUint(uint64(sorted[j]), 10))
		}
		i = j + 1
	}
	return strings.Join(parts, ",")
}

// EncodeSeqSetWithStar renders a sequence-set that may include a literal "*"
// sentinel for the highest item, e.g. for "start:*" ranges used by UID
// FETCH/SEARCH since-last-sync queries.
func EncodeSeqSetWithStar(ranges []SeqRange) string {
	parts := make([]string, 0, len(ranges))
	for _, r := range ranges {
		switch {
		case r.Single:
			parts = append(parts, numOrStar(r.Low, r.StarLow))
		default:
			parts = append(parts, numOrStar(r.Low, r.StarLow)+":"+numOrStar(r.High, r.StarHigh))
		}
	}
	return strings.Join(parts, ",")
}

func numOrStar(n uint32, star bool) string {
	if star {
		return "*"
	}
	return strconv.FormatUint(uint64(n), 10)
}

// EncodeList parenthesizes items for a FETCH/STORE item list, preserving
// caller order (servers mirror the caller's ordering in their response).
func EncodeList(items []string) string {
	if len(items) == 1 {
		return items[0]
	}
	return "(" + strings.Join(items, " ") + ")"
}
