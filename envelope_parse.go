package imap

import "github.com/eslider/goimap/internal/wire"

// parseEnvelope parses the fixed 10-field ENVELOPE structure (RFC 3501
// §7.4.2): (date subject from sender reply-to to cc bcc in-reply-to message-id).
func parseEnvelope(sc *wire.Scanner) (*Envelope, error) {
	if sc.IsNIL() {
		if err := sc.ReadNIL(); err != nil {
			return nil, err
		}
		return nil, nil
	}
	if err := sc.ReadListOpen(); err != nil {
		return nil, err
	}
	env := &Envelope{}
	var err error
	if env.Date, err = readEnvelopeField(sc); err != nil {
		return nil, err
	}
	if env.Subject, err = readEnvelopeField(sc); err != nil {
		return nil, err
	}
	if env.From, err = parseAddressList(sc); err != nil {
		return nil, err
	}
	if env.Sender, err = parseAddressList(sc); err != nil {
		return nil, err
	}
	if env.ReplyTo, err = parseAddressList(sc); err != nil {
		return nil, err
	}
	if env.To, err = parseAddressList(sc); err != nil {
		return nil, err
	}
	if env.Cc, err = parseAddressList(sc); err != nil {
		return nil, err
	}
	if env.Bcc, err = parseAddressList(sc); err != nil {
		return nil, err
	}
	if env.InReplyTo, err = readEnvelopeField(sc); err != nil {
		return nil, err
	}
	if env.MessageID, err = readEnvelopeField(sc); err != nil {
		return nil, err
	}
	if err := sc.ReadListClose(); err != nil {
		return nil, err
	}
	return env, nil
}

// readEnvelopeField reads one nstring field and consumes the SP separator
// after it when one is present; for the last field (message-id) there is
// none, and the caller reads the closing ')' with ReadListClose.
func readEnvelopeField(sc *wire.Scanner) (*string, error) {
	v, err := readNStringPtr(sc)
	if err != nil {
		return nil, err
	}
	if b, ok := sc.Peek(); ok && b == ' ' {
		sc.Advance(1)
	}
	return decodeEnvelopeField(v), nil
}

// parseAddressList parses "nil" or "(" 1*address ")".
func parseAddressList(sc *wire.Scanner) ([]Address, error) {
	if sc.IsNIL() {
		if err := sc.ReadNIL(); err != nil {
			return nil, err
		}
		if b, ok := sc.Peek(); ok && b == ' ' {
			sc.Advance(1)
		}
		return nil, nil
	}
	if err := sc.ReadListOpen(); err != nil {
		return nil, err
	}
	var addrs []Address
	for {
		sc.SkipSpaces()
		if b, ok := sc.Peek(); ok && b == ')' {
			sc.Advance(1)
			break
		}
		a, err := parseAddress(sc)
		if err != nil {
			return nil, err
		}
		addrs = append(addrs, a)
	}
	if b, ok := sc.Peek(); ok && b == ' ' {
		sc.Advance(1)
	}
	return addrs, nil
}

func parseAddress(sc *wire.Scanner) (Address, error) {
	if err := sc.ReadListOpen(); err != nil {
		return Address{}, err
	}
	var a Address
	var err error
	if a.Name, err = readNStringPtr(sc); err != nil {
		return Address{}, err
	}
	sc.SkipSpace()
	if a.ADL, err = readNStringPtr(sc); err != nil {
		return Address{}, err
	}
	sc.SkipSpace()
	if a.Mailbox, err = readNStringPtr(sc); err != nil {
		return Address{}, err
	}
	sc.SkipSpace()
	if a.Host, err = readNStringPtr(sc); err != nil {
		return Address{}, err
	}
	a.Name = decodeEnvelopeField(a.Name)
	if err := sc.ReadListClose(); err != nil {
		return Address{}, err
	}
	return a, nil
}
