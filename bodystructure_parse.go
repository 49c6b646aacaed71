package imap

import (
	"strings"

	"github.com/eslider/goimap/internal/wire"
)

// parseBodyStructure parses a BODY/BODYSTRUCTURE response item (RFC 3501
// §7.4.2): a recursive, acyclic tree. A multipart node is "(" part... SP
// subtype [extension] ")"; a single-part node is "(" type SP subtype SP
// params SP id SP description SP encoding SP size [type-specific] [extension] ")".
func parseBodyStructure(sc *wire.Scanner) (*BodyStructure, error) {
	if err := sc.ReadListOpen(); err != nil {
		return nil, err
	}
	// Multipart bodies start with a nested list (the first child part);
	// single-part bodies start with the media type string.
	if sc.PeekIsList() {
		return parseMultipartBody(sc)
	}
	return parseSinglePartBody(sc)
}

func parseMultipartBody(sc *wire.Scanner) (*BodyStructure, error) {
	bs := &BodyStructure{Kind: BodyMultipart}
	for sc.PeekIsList() {
		part, err := parseBodyStructure(sc)
		if err != nil {
			return nil, err
		}
		bs.Parts = append(bs.Parts, part)
	}
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "body-type-mpart", errMalformed("expected SP before subtype"))
	}
	subtype, err := readAString(sc)
	if err != nil {
		return nil, err
	}
	bs.MediaType = "multipart"
	bs.MediaSubtype = strings.ToLower(string(subtype))

	if err := parseBodyExtensionMultipart(sc, bs); err != nil {
		return nil, err
	}
	if err := sc.ReadListClose(); err != nil {
		return nil, err
	}
	return bs, nil
}

func parseSinglePartBody(sc *wire.Scanner) (*BodyStructure, error) {
	mediaType, err := readAString(sc)
	if err != nil {
		return nil, err
	}
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "body-fields", errMalformed("expected SP after type"))
	}
	subtype, err := readAString(sc)
	if err != nil {
		return nil, err
	}
	bs := &BodyStructure{MediaType: strings.ToLower(string(mediaType)), MediaSubtype: strings.ToLower(string(subtype))}

	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "body-fields", errMalformed("expected SP after subtype"))
	}
	if bs.Params, err = parseBodyParams(sc); err != nil {
		return nil, err
	}
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "body-fields", errMalformed("expected SP after params"))
	}
	if bs.ID, err = readNStringPtr(sc); err != nil {
		return nil, err
	}
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "body-fields", errMalformed("expected SP after id"))
	}
	if bs.Description, err = readNStringPtr(sc); err != nil {
		return nil, err
	}
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "body-fields", errMalformed("expected SP after description"))
	}
	enc, err := readNStringPtr(sc)
	if err != nil {
		return nil, err
	}
	if enc != nil {
		bs.Encoding = *enc
	}
	if !sc.SkipSpace() {
		return nil, newParseError(sc.Pos(), "body-fields", errMalformed("expected SP after encoding"))
	}
	size, err := readUint32(sc)
	if err != nil {
		return nil, err
	}
	bs.Size = size

	isText := bs.MediaType == "text"
	isMessageRFC822 := bs.MediaType == "message" && bs.MediaSubtype == "rfc822"

	switch {
	case isMessageRFC822:
		bs.Kind = BodyMessage
		if !sc.SkipSpace() {
			return nil, newParseError(sc.Pos(), "body-type-msg", errMalformed("expected SP before envelope"))
		}
		env, err := parseEnvelope(sc)
		if err != nil {
			return nil, err
		}
		bs.Envelope = env
		if !sc.SkipSpace() {
			return nil, newParseError(sc.Pos(), "body-type-msg", errMalformed("expected SP before nested body"))
		}
		nested, err := parseBodyStructure(sc)
		if err != nil {
			return nil, err
		}
		bs.BodyStruct = nested
		if !sc.SkipSpace() {
			return nil, newParseError(sc.Pos(), "body-type-msg", errMalformed("expected SP before line count"))
		}
		lines, err := readUint32(sc)
		if err != nil {
			return nil, err
		}
		bs.Lines = lines
	case isText:
		bs.Kind = BodyText
		if !sc.SkipSpace() {
			return nil, newParseError(sc.Pos(), "body-type-text", errMalformed("expected SP before line count"))
		}
		lines, err := readUint32(sc)
		if err != nil {
			return nil, err
		}
		bs.Lines = lines
	default:
		bs.Kind = BodyBasic
	}

	if err := parseBodyExtensionSinglePart(sc, bs); err != nil {
		return nil, err
	}
	if err := sc.ReadListClose(); err != nil {
		return nil, err
	}
	return bs, nil
}

// parseBodyParams parses "NIL" or "(attr value attr value ...)".
func parseBodyParams(sc *wire.Scanner) (map[string]string, error) {
	if sc.IsNIL() {
		return nil, sc.ReadNIL()
	}
	if err := sc.ReadListOpen(); err != nil {
		return nil, err
	}
	params := map[string]string{}
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
			return nil, newParseError(sc.Pos(), "body-fld-param", errMalformed("expected SP"))
		}
		val, err := readAString(sc)
		if err != nil {
			return nil, err
		}
		params[strings.ToLower(string(key))] = string(val)
	}
	return params, nil
}

// parseBodyExtensionSinglePart parses the optional extension data that may
// follow a single-part body's fixed fields: MD5, disposition, language,
// location. Each is optional and, per RFC 3501, the server may stop early —
// so every step tolerates hitting ')' immediately.
func parseBodyExtensionSinglePart(sc *wire.Scanner, bs *BodyStructure) error {
	if !sc.SkipSpace() {
		return nil
	}
	bs.HasExtension = true
	md5, err := readNStringPtr(sc)
	if err != nil {
		return err
	}
	bs.MD5 = md5
	if !sc.SkipSpace() {
		return nil
	}
	return parseBodyExtensionCommon(sc, bs)
}

func parseBodyExtensionMultipart(sc *wire.Scanner, bs *BodyStructure) error {
	if !sc.SkipSpace() {
		return nil
	}
	bs.HasExtension = true
	// Multipart extension begins with body parameters, not MD5.
	params, err := parseBodyParams(sc)
	if err != nil {
		return err
	}
	bs.Params = params
	if !sc.SkipSpace() {
		return nil
	}
	return parseBodyExtensionCommon(sc, bs)
}

// parseBodyExtensionCommon parses the disposition/language/location tail
// shared by both single-part and multipart extension data.
func parseBodyExtensionCommon(sc *wire.Scanner, bs *BodyStructure) error {
	disp, err := parseDisposition(sc)
	if err != nil {
		return err
	}
	bs.Disposition = disp
	if !sc.SkipSpace() {
		return nil
	}
	lang, err := parseLanguage(sc)
	if err != nil {
		return err
	}
	bs.Language = lang
	if !sc.SkipSpace() {
		return nil
	}
	loc, err := readNStringPtr(sc)
	if err != nil {
		return err
	}
	bs.Location = loc
	// Any further server extension fields are ignored; consume up to ')'.
	for {
		b, ok := sc.Peek()
		if !ok {
			return &wire.IncompleteError{Need: 1}
		}
		if b == ')' {
			return nil
		}
		if b == ' ' {
			sc.Advance(1)
			continue
		}
		if sc.PeekIsList() {
			if err := skipParenGroup(sc); err != nil {
				return err
			}
			continue
		}
		if _, _, err := readNString(sc); err != nil {
			return err
		}
	}
}

func parseDisposition(sc *wire.Scanner) (*ContentDisposition, error) {
	if sc.IsNIL() {
		return nil, sc.ReadNIL()
	}
	if err := sc.ReadListOpen(); err != nil {
		return nil, err
	}
	typ, err := readAString(sc)
	if err != nil {
		return nil, err
	}
	var params map[string]string
	if sc.SkipSpace() {
		params, err = parseBodyParams(sc)
		if err != nil {
			return nil, err
		}
	}
	if err := sc.ReadListClose(); err != nil {
		return nil, err
	}
	return &ContentDisposition{Type: strings.ToLower(string(typ)), Params: params}, nil
}

func parseLanguage(sc *wire.Scanner) ([]string, error) {
	if sc.IsNIL() {
		return nil, sc.ReadNIL()
	}
	if sc.PeekIsList() {
		if err := sc.ReadListOpen(); err != nil {
			return nil, err
		}
		var langs []string
		for {
			sc.SkipSpaces()
			if b, ok := sc.Peek(); ok && b == ')' {
				sc.Advance(1)
				break
			}
			tok, err := readAString(sc)
			if err != nil {
				return nil, err
			}
			langs = append(langs, string(tok))
		}
		return langs, nil
	}
	tok, err := readAString(sc)
	if err != nil {
		return nil, err
	}
	return []string{string(tok)}, nil
}

// skipParenGroup consumes a balanced "(...)" group without interpreting it,
// used to tolerate unmodeled trailing extension fields.
func skipParenGroup(sc *wire.Scanner) error {
	depth := 0
	for {
		b, ok := sc.Peek()
		if !ok {
			return &wire.IncompleteError{Need: 1}
		}
		switch b {
		case '(':
			depth++
			sc.Advance(1)
		case ')':
			depth--
			sc.Advance(1)
			if depth == 0 {
				return nil
			}
		case '"':
			if _, err := sc.ReadQuoted(); err != nil {
				return err
			}
		default:
			sc.Advance(1)
		}
	}
}
