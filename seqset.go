package imap

import (
	"strconv"
	"strings"

	"github.com/eslider/goimap/internal/wire"
	"github.com/rotisserie/eris"
)

// SequenceSet is an RFC 3501 sequence-set: a comma-separated list of single
// numbers or low:high ranges, where either endpoint of a range (or a bare
// entry) may be "*" meaning "the highest numbered message/UID in the
// mailbox". It is the argument type for FETCH/STORE/COPY/MOVE/SEARCH's
// UID/sequence-number set parameter.
type SequenceSet struct {
	ranges []wire.SeqRange
}

// SeqNum builds a SequenceSet of plain, already-sorted sequence numbers,
// coalescing consecutive runs into ranges on encode.
func SeqNum(nums ...uint32) SequenceSet {
	ranges := make([]wire.SeqRange, len(nums))
	for i, n := range nums {
		ranges[i] = wire.SeqRange{Low: n, Single: true}
	}
	return SequenceSet{ranges: ranges}
}

// SeqRange appends a low:high range to the set.
func (s SequenceSet) SeqRange(low, high uint32) SequenceSet {
	s.ranges = append(append([]wire.SeqRange(nil), s.ranges...), wire.SeqRange{Low: low, High: high})
	return s
}

// Star returns a SequenceSet containing only "*" (the highest item).
func Star() SequenceSet {
	return SequenceSet{ranges: []wire.SeqRange{{StarLow: true, Single: true}}}
}

// SeqRangeToStar appends a "low:*" range (from low through the highest item).
func (s SequenceSet) SeqRangeToStar(low uint32) SequenceSet {
	s.ranges = append(append([]wire.SeqRange(nil), s.ranges...), wire.SeqRange{Low: low, StarHigh: true})
	return s
}

// Empty reports whether the set has no members; per §8 boundary behavior,
// commands built from an empty set must not be sent to the server.
func (s SequenceSet) Empty() bool { return len(s.ranges) == 0 }

// String renders the RFC 3501 sequence-set text, coalescing adjacent plain
// numbers into ranges (e.g. SeqNum(3,4,5,7,8,10).String() == "3:5,7:8,10").
func (s SequenceSet) String() string {
	if len(s.ranges) == 0 {
		return ""
	}
	// Coalesce only the contiguous run of plain (non-star) single numbers;
	// explicit ranges and star entries pass through unchanged and in order.
	var out []string
	i := 0
	for i < len(s.ranges) {
		r := s.ranges[i]
		if r.Single && !r.StarLow {
			j := i
			for j+1 < len(s.ranges) {
				nr := s.ranges[j+1]
				if !nr.Single || nr.StarLow || nr.Low != s.ranges[j].Low+1 {
					break
				}
				j++
			}
			if j == i {
				out = append(out, strconv.FormatUint(uint64(r.Low), 10))
			} else {
				out = append(out, strconv.FormatUint(uint64(r.Low), 10)+":"+strconv.FormatUint(uint64(s.ranges[j].Low), 10))
			}
			i = j + 1
			continue
		}
		out = append(out, wire.EncodeSeqSetWithStar([]wire.SeqRange{r}))
		i++
	}
	return strings.Join(out, ",")
}

// ParseSequenceSet parses RFC 3501 sequence-set text back into a
// SequenceSet, e.g. for interpreting a VANISHED uid-set.
func ParseSequenceSet(s string) (SequenceSet, error) {
	if s == "" {
		return SequenceSet{}, nil
	}
	var ranges []wire.SeqRange
	for _, part := range strings.Split(s, ",") {
		if part == "" {
			return SequenceSet{}, newParseError(0, "sequence-set", errEmptySeqSetMember)
		}
		if colon := strings.IndexByte(part, ':'); colon >= 0 {
			lowStr, highStr := part[:colon], part[colon+1:]
			low, lowStar, err := parseSeqNumOrStar(lowStr)
			if err != nil {
				return SequenceSet{}, err
			}
			high, highStar, err := parseSeqNumOrStar(highStr)
			if err != nil {
				return SequenceSet{}, err
			}
			ranges = append(ranges, wire.SeqRange{Low: low, High: high, StarLow: lowStar, StarHigh: highStar})
			continue
		}
		n, star, err := parseSeqNumOrStar(part)
		if err != nil {
			return SequenceSet{}, err
		}
		ranges = append(ranges, wire.SeqRange{Low: n, StarLow: star, Single: true})
	}
	return SequenceSet{ranges: ranges}, nil
}

func parseSeqNumOrStar(s string) (uint32, bool, error) {
	if s == "*" {
		return 0, true, nil
	}
	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, false, newParseError(0, "sequence-set", err)
	}
	return uint32(n), false, nil
}

var errEmptySeqSetMember = eris.New("imap: empty sequence-set member")
