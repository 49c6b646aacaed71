package imap

import (
	"encoding/base64"

	"golang.org/x/oauth2"
)

// Authenticator drives a SASL mechanism's continuation exchange for the
// AUTHENTICATE command (RFC 3501 §6.2.2). Start returns the mechanism name
// and the initial response (nil to require the server's first challenge).
// Client.Authenticate sends that initial response inline only when the
// server advertised SASL-IR (RFC 4959); otherwise it holds the bytes back
// and sends them as the reply to the server's first "+" itself, so Next is
// never asked to reproduce them. Next receives each subsequent server
// challenge (already base64-decoded) and returns the client's reply; it is
// not called again after the server sends the tagged completion.
type Authenticator interface {
	Start() (mechanism string, initialResponse []byte, err error)
	Next(challenge []byte) (response []byte, err error)
}

// plainAuthenticator implements SASL PLAIN (RFC 4616): a single message of
// the form "authzid\x00authcid\x00passwd", sent as the initial response so
// the exchange never needs a second round trip.
type plainAuthenticator struct {
	authzid, user, pass string
}

// PlainAuth returns an Authenticator for SASL PLAIN.
func PlainAuth(user, pass string) Authenticator {
	return &plainAuthenticator{user: user, pass: pass}
}

func (a *plainAuthenticator) Start() (string, []byte, error) {
	msg := a.authzid + "\x00" + a.user + "\x00" + a.pass
	return "PLAIN", []byte(msg), nil
}

func (a *plainAuthenticator) Next(challenge []byte) ([]byte, error) {
	// PLAIN never expects a second challenge; one is a protocol violation on
	// the server's part, reported as ErrAuthFailed.
	return nil, ErrAuthFailed
}

// xoauth2Authenticator implements SASL XOAUTH2 (Google/Microsoft), per
// https://developers.google.com/gmail/imap/xoauth2-protocol: the initial
// response is "user=<email>\x01auth=Bearer <token>\x01\x01". This package
// only consumes tokens; minting/refreshing them is the caller's
// responsibility via golang.org/x/oauth2, matching how the teacher corpus
// uses oauth2.Config/TokenSource for its web login providers
// (internal/auth/oauth.go) without this package depending on any particular
// provider's exchange flow.
type xoauth2Authenticator struct {
	user string
	src  oauth2.TokenSource
}

// XOAUTH2Auth returns an Authenticator that pulls a fresh bearer token from
// src on each attempt (so a caller can supply an auto-refreshing
// oauth2.TokenSource and this package never sees or stores a refresh token).
// oauth2.TokenSource itself takes no context — callers needing a bounded
// token fetch should use a context-scoped http.Client via
// context.WithValue(ctx, oauth2.HTTPClient, ...) when constructing src.
func XOAUTH2Auth(user string, src oauth2.TokenSource) Authenticator {
	return &xoauth2Authenticator{user: user, src: src}
}

func (a *xoauth2Authenticator) Start() (string, []byte, error) {
	tok, err := a.src.Token()
	if err != nil {
		return "", nil, &AuthFailedError{Text: err.Error()}
	}
	msg := "user=" + a.user + "\x01auth=Bearer " + tok.AccessToken + "\x01\x01"
	return "XOAUTH2", []byte(msg), nil
}

func (a *xoauth2Authenticator) Next(challenge []byte) ([]byte, error) {
	// A challenge here means the server rejected the token and sent a JSON
	// error as a SASL continuation; RFC says the client must respond with an
	// empty message to complete the exchange and let the tagged NO surface.
	return []byte{}, nil
}

// base64Decode/base64Encode wrap the standard encoding used for every SASL
// continuation payload on the wire (RFC 3501 §6.2.2 "base64 used").
func base64Decode(s string) ([]byte, error) {
	return base64.StdEncoding.DecodeString(s)
}

func base64Encode(b []byte) string {
	return base64.StdEncoding.EncodeToString(b)
}
