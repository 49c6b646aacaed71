package imap

import (
	"fmt"
	"io"
	"mime"
	"strings"

	// Side-effecting import: registers additional charset decoders (beyond
	// golang.org/x/text's htmlindex coverage) into the mime package, the
	// same way the teacher corpus's PST importer pulls in emersion's
	// charset table (internal/sync/pst/pst.go).
	_ "github.com/emersion/go-message/charset"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// envelopeWordDecoder decodes RFC 2047 encoded-words ("=?UTF-8?B?...?=")
// that appear inside ENVELOPE string fields (Subject, address display
// names). This is header decoding, not MIME body decoding, so it stays
// inside the "no MIME body decoding" non-goal boundary.
var envelopeWordDecoder = &mime.WordDecoder{
	CharsetReader: func(charset string, input io.Reader) (io.Reader, error) {
		cs := strings.ToLower(strings.TrimSpace(charset))
		if cs == "utf-8" || cs == "us-ascii" || cs == "ascii" || cs == "" {
			return input, nil
		}
		enc, err := htmlindex.Get(cs)
		if err != nil {
			return nil, fmt.Errorf("imap: unsupported envelope charset %q: %w", charset, err)
		}
		return transform.NewReader(input, enc.NewDecoder()), nil
	},
}

// decodeEnvelopeField best-effort RFC-2047-decodes an envelope string
// field. On any decode error it returns the original value unchanged —
// servers occasionally send already-decoded or malformed encoded-words, and
// a best-effort display string beats a hard failure for a field that is
// purely informational.
func decodeEnvelopeField(s *string) *string {
	if s == nil || *s == "" {
		return s
	}
	decoded, err := envelopeWordDecoder.DecodeHeader(*s)
	if err != nil {
		return s
	}
	return &decoded
}

// DecodeHeaderValue exposes the same RFC 2047 decoding used internally for
// Envelope fields, for callers decoding raw header bytes obtained via
// BODY[HEADER.FIELDS (...)].
func DecodeHeaderValue(raw string) string {
	decoded, err := envelopeWordDecoder.DecodeHeader(raw)
	if err != nil {
		return raw
	}
	return decoded
}
