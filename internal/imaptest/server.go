// Package imaptest provides a scripted, in-process IMAP server for testing
// this module's client against canned exchanges, without opening a real
// socket or running a container. A script is a YAML list of steps: each
// step may expect a client command line (by exact text or prefix) and then
// send one or more server lines verbatim.
package imaptest

import (
	"bufio"
	"fmt"
	"net"
	"strings"

	"gopkg.in/yaml.v3"
)

// Step is one scripted exchange. Either field may be empty; when both are
// set, Expect is checked first and Send is written after it. Send may hold
// multiple lines (e.g. untagged data followed by the tagged completion).
type Step struct {
	// Expect, if set, is the client command line this step requires next.
	// A trailing "*" matches any suffix (e.g. "a0001 LOGIN *" ignores the
	// credentials).
	Expect string `yaml:"expect"`
	// Send is the literal server line(s) to write in response, one YAML list
	// item per line; each is sent with a trailing CRLF.
	Send []string `yaml:"send"`
}

// Script is a named, ordered list of Steps, e.g. loaded from a testdata
// YAML fixture via LoadScript.
type Script struct {
	Name  string `yaml:"name"`
	Steps []Step `yaml:"steps"`
}

// LoadScript parses a Script from YAML text.
func LoadScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("imaptest: parse script: %w", err)
	}
	return &s, nil
}

// Server runs a Script against one side of a net.Pipe, in its own goroutine
// started by Pipe, while the test uses the other side as a plain net.Conn to
// exercise imap.NewConnection.
type Server struct {
	script *Script
}

// NewServer returns a Server that will play script once Pipe is called.
func NewServer(script *Script) *Server {
	return &Server{script: script}
}

// Pipe returns a connected in-process net.Conn pair and starts serving
// script on one end in a background goroutine; the caller gets the other
// end. errc receives the server goroutine's outcome (nil on a script that
// runs to completion) once, after the connection is closed or the script is
// exhausted.
func (srv *Server) Pipe() (clientConn net.Conn, errc <-chan error) {
	serverConn, client := net.Pipe()
	ch := make(chan error, 1)
	go func() {
		ch <- srv.serve(serverConn)
	}()
	return client, ch
}

func (srv *Server) serve(conn net.Conn) error {
	defer conn.Close()
	r := bufio.NewReader(conn)
	for _, step := range srv.script.Steps {
		if step.Expect != "" {
			line, err := r.ReadString('\n')
			if err != nil {
				return fmt.Errorf("imaptest: reading expected %q: %w", step.Expect, err)
			}
			line = strings.TrimRight(line, "\r\n")
			if !matchExpect(step.Expect, line) {
				return fmt.Errorf("imaptest: expected %q, got %q", step.Expect, line)
			}
		}
		for _, l := range step.Send {
			if _, err := conn.Write([]byte(l + "\r\n")); err != nil {
				return fmt.Errorf("imaptest: writing %q: %w", l, err)
			}
		}
	}
	return nil
}

func matchExpect(pattern, line string) bool {
	if strings.HasSuffix(pattern, "*") {
		return strings.HasPrefix(line, strings.TrimSuffix(pattern, "*"))
	}
	return pattern == line
}
