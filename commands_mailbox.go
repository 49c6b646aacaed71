package imap

// Select opens mailbox for read-write access (RFC 3501 §6.3.1), replacing
// any previously selected mailbox and moving the Session to StateSelected.
func (s *Session) Select(mailbox string) (Mailbox, error) {
	return s.selectOrExamine("SELECT", mailbox)
}

// Examine is identical to Select but opens the mailbox read-only (§6.3.2).
func (s *Session) Examine(mailbox string) (Mailbox, error) {
	return s.selectOrExamine("EXAMINE", mailbox)
}

func (s *Session) selectOrExamine(verb, mailbox string) (Mailbox, error) {
	b := newMailboxBuilder(mailbox)
	done, err := s.runCommand(verb, []cmdArg{s.encodeArg(mailbox)}, func(resp *Response) bool {
		if resp.Kind == KindMailboxData {
			b.applyMailboxData(resp.Mailbox)
			return true
		}
		if resp.Kind == KindStatus && resp.Status.Code != nil {
			b.applyCode(resp.Status.Code)
			return true
		}
		return false
	})
	if err != nil {
		return Mailbox{}, err
	}
	if done.Code != nil {
		b.applyCode(done.Code)
	}
	mb := b.build()
	s.mailbox = &mb
	s.state = StateSelected
	return mb, nil
}

// Create creates a new mailbox (§6.3.3).
func (s *Session) Create(mailbox string) error {
	_, err := s.runCommand("CREATE", []cmdArg{s.encodeArg(mailbox)}, nil)
	return err
}

// Delete removes a mailbox (§6.3.4).
func (s *Session) Delete(mailbox string) error {
	_, err := s.runCommand("DELETE", []cmdArg{s.encodeArg(mailbox)}, nil)
	return err
}

// Rename renames a mailbox (§6.3.5).
func (s *Session) Rename(from, to string) error {
	_, err := s.runCommand("RENAME", []cmdArg{s.encodeArg(from), s.encodeArg(to)}, nil)
	return err
}

// Subscribe adds mailbox to the active subscription list (§6.3.6).
func (s *Session) Subscribe(mailbox string) error {
	_, err := s.runCommand("SUBSCRIBE", []cmdArg{s.encodeArg(mailbox)}, nil)
	return err
}

// Unsubscribe removes mailbox from the active subscription list (§6.3.7).
func (s *Session) Unsubscribe(mailbox string) error {
	_, err := s.runCommand("UNSUBSCRIBE", []cmdArg{s.encodeArg(mailbox)}, nil)
	return err
}

// List returns mailboxes matching reference/pattern (§6.3.8). An optional
// trailing "RETURN (STATUS (...))" per RFC 5819 LIST-STATUS is requested
// automatically when statusItems is non-empty and the server advertises
// LIST-STATUS; callers should not assume StatusAttrs is populated
// otherwise.
func (s *Session) List(reference, pattern string, statusItems []string) ([]ListData, error) {
	args := []cmdArg{s.encodeArg(reference), s.encodeArg(pattern)}
	if len(statusItems) > 0 && s.hasCapabilityCached("LIST-STATUS") {
		args = append(args, cmdArg{inline: "RETURN (STATUS (" + joinUpper(statusItems) + "))"})
	}
	var out []ListData
	var statuses []MailboxData
	_, err := s.runCommand("LIST", args, func(resp *Response) bool {
		if resp.Kind != KindMailboxData {
			return false
		}
		switch resp.Mailbox.Kind {
		case MailboxList:
			out = append(out, *resp.Mailbox.List)
			return true
		case MailboxStatus:
			statuses = append(statuses, *resp.Mailbox)
			return true
		}
		return false
	})
	if err != nil {
		return nil, err
	}
	for i := range out {
		for _, st := range statuses {
			if st.StatusMailbox == out[i].Name {
				out[i].StatusAttrs = st.StatusAttrs
			}
		}
	}
	return out, nil
}

// Lsub is identical to List but queries the subscription list (§6.3.9).
func (s *Session) Lsub(reference, pattern string) ([]ListData, error) {
	var out []ListData
	_, err := s.runCommand("LSUB", []cmdArg{s.encodeArg(reference), s.encodeArg(pattern)}, func(resp *Response) bool {
		if resp.Kind == KindMailboxData && resp.Mailbox.Kind == MailboxLsub {
			out = append(out, *resp.Mailbox.List)
			return true
		}
		return false
	})
	return out, err
}

// Status retrieves mailbox attributes without selecting it (§6.3.10).
func (s *Session) Status(mailbox string, items []string) (map[string]uint64, error) {
	args := []cmdArg{s.encodeArg(mailbox), {inline: "(" + joinUpper(items) + ")"}}
	var attrs map[string]uint64
	_, err := s.runCommand("STATUS", args, func(resp *Response) bool {
		if resp.Kind == KindMailboxData && resp.Mailbox.Kind == MailboxStatus {
			attrs = resp.Mailbox.StatusAttrs
			return true
		}
		return false
	})
	return attrs, err
}

// Noop allows the server to send pending unsolicited data without any other
// side effect (§6.1.2). Any EXISTS/EXPUNGE/FETCH notifications it provokes
// are delivered through the normal unsolicited-response path.
func (s *Session) Noop() error {
	_, err := s.runCommand("NOOP", nil, nil)
	return err
}

// Check requests a mailbox checkpoint (§6.4.1); servers generally treat it
// as a no-op synonym for NOOP plus an implementation-defined housekeeping
// pass.
func (s *Session) Check() error {
	_, err := s.runCommand("CHECK", nil, nil)
	return err
}

// Close closes the selected mailbox, expunging \Deleted messages without
// sending individual EXPUNGE responses, and returns to StateAuth (§6.4.2).
func (s *Session) Close() error {
	_, err := s.runCommand("CLOSE", nil, nil)
	if err == nil {
		s.mailbox = nil
		s.state = StateAuth
	}
	return err
}

// Unselect is CLOSE without the implicit expunge (RFC 3691).
func (s *Session) Unselect() error {
	_, err := s.runCommand("UNSELECT", nil, nil)
	if err == nil {
		s.mailbox = nil
		s.state = StateAuth
	}
	return err
}

// Logout sends LOGOUT and moves the Session to StateLogout; the connection
// should be closed by the caller afterward.
func (s *Session) Logout() error {
	_, err := s.runCommand("LOGOUT", nil, nil)
	s.state = StateLogout
	if berr, ok := err.(*ByeError); ok {
		_ = berr
		return nil
	}
	return err
}

func joinUpper(items []string) string {
	out := ""
	for i, it := range items {
		if i > 0 {
			out += " "
		}
		out += it
	}
	return out
}
