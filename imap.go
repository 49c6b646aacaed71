// Package imap implements an IMAP4rev1 client (RFC 3501) plus the IDLE,
// UIDPLUS, QRESYNC/CONDSTORE, SORT, ACL, QUOTA, LIST-STATUS, ENABLE, ID and
// X-GM-EXT-1 extensions. Callers either supply an already-connected byte
// stream (an io.ReadWriteCloser, typically the result of net.Dial or
// tls.Dial) to NewConnection, or use the Dial and DialTLS conveniences, and
// get back a Client/Session pair that issues tagged commands and threads
// untagged/unsolicited responses back to the caller. STARTTLS hands the
// stream to a replaceable TLSUpgrader (DefaultTLSUpgrader uses crypto/tls).
//
// The package does not mint OAuth2 tokens; XOAUTH2Auth only consumes tokens
// from a caller-supplied oauth2.TokenSource.
package imap

// ProtocolVersion identifies the dialect this package speaks on the wire.
const ProtocolVersion = "IMAP4rev1"
