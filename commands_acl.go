package imap

import "strings"

// SetACL sets rights for identifier on mailbox (RFC 4314 §3.1). rights may
// be prefixed with "+" or "-" to add/remove from the existing set instead of
// replacing it outright.
func (s *Session) SetACL(mailbox, identifier, rights string) error {
	args := []cmdArg{s.encodeArg(mailbox), s.encodeArg(identifier), s.encodeArg(rights)}
	_, err := s.runCommand("SETACL", args, nil)
	return err
}

// DeleteACL removes identifier's rights entry from mailbox (§3.2).
func (s *Session) DeleteACL(mailbox, identifier string) error {
	args := []cmdArg{s.encodeArg(mailbox), s.encodeArg(identifier)}
	_, err := s.runCommand("DELETEACL", args, nil)
	return err
}

// GetACL retrieves the full ACL for mailbox (§3.3).
func (s *Session) GetACL(mailbox string) (*ACLData, error) {
	var out *ACLData
	_, err := s.runCommand("GETACL", []cmdArg{s.encodeArg(mailbox)}, func(resp *Response) bool {
		if resp.Kind == KindACL {
			out = resp.ACL
			return true
		}
		return false
	})
	return out, err
}

// ListRights returns the rights identifier could be granted on mailbox,
// split into Required (always granted) and Optional (§3.4).
func (s *Session) ListRights(mailbox, identifier string) (*ListRightsData, error) {
	var out *ListRightsData
	args := []cmdArg{s.encodeArg(mailbox), s.encodeArg(identifier)}
	_, err := s.runCommand("LISTRIGHTS", args, func(resp *Response) bool {
		if resp.Kind == KindListRights {
			out = resp.ListRights
			return true
		}
		return false
	})
	return out, err
}

// MyRights returns the rights the current user has on mailbox (§3.5).
func (s *Session) MyRights(mailbox string) (*MyRightsData, error) {
	var out *MyRightsData
	_, err := s.runCommand("MYRIGHTS", []cmdArg{s.encodeArg(mailbox)}, func(resp *Response) bool {
		if resp.Kind == KindMyRights {
			out = resp.MyRights
			return true
		}
		return false
	})
	return out, err
}

// GetQuota retrieves the resource usage/limit pairs for a quota root (RFC
// 9208 §4.2).
func (s *Session) GetQuota(root string) (*QuotaData, error) {
	var out *QuotaData
	_, err := s.runCommand("GETQUOTA", []cmdArg{s.encodeArg(root)}, func(resp *Response) bool {
		if resp.Kind == KindQuota {
			out = resp.Quota
			return true
		}
		return false
	})
	return out, err
}

// GetQuotaRoot retrieves the quota roots for mailbox and their current
// usage (§4.3).
func (s *Session) GetQuotaRoot(mailbox string) (*QuotaRootData, []QuotaData, error) {
	var root *QuotaRootData
	var quotas []QuotaData
	_, err := s.runCommand("GETQUOTAROOT", []cmdArg{s.encodeArg(mailbox)}, func(resp *Response) bool {
		switch resp.Kind {
		case KindQuotaRoot:
			root = resp.QuotaRoot
			return true
		case KindQuota:
			quotas = append(quotas, *resp.Quota)
			return true
		}
		return false
	})
	return root, quotas, err
}

// Enable declares the listed capabilities in use for the rest of the
// connection (RFC 5161), returning the subset the server acknowledged.
func (s *Session) Enable(capabilities ...string) ([]string, error) {
	var enabled []string
	args := []cmdArg{{inline: strings.Join(capabilities, " ")}}
	_, err := s.runCommand("ENABLE", args, func(resp *Response) bool {
		if resp.Kind == KindEnabled {
			enabled = resp.Enabled
			return true
		}
		return false
	})
	return enabled, err
}

// ID exchanges implementation identification with the server (RFC 2971).
// Passing a nil map sends "ID NIL".
func (s *Session) ID(clientID map[string]string) (map[string]string, error) {
	var serverID map[string]string
	_, err := s.runCommand("ID", []cmdArg{{inline: encodeIDParams(clientID)}}, func(resp *Response) bool {
		if resp.Kind == KindID {
			serverID = resp.ID
			return true
		}
		return false
	})
	return serverID, err
}

func encodeIDParams(m map[string]string) string {
	if m == nil {
		return "NIL"
	}
	var b strings.Builder
	b.WriteByte('(')
	first := true
	for k, v := range m {
		if !first {
			b.WriteByte(' ')
		}
		first = false
		b.WriteString(quoteWithEscapes(k))
		b.WriteByte(' ')
		b.WriteString(quoteWithEscapes(v))
	}
	b.WriteByte(')')
	return b.String()
}
