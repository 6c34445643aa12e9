package parser

import (
	"errors"
	"regexp"
	"strings"

	"featurepolicy-admin/internal/utils"
)

// ErrInvalidSource is returned when any token of a sources field is neither a
// scheme marker nor a host expression.
var ErrInvalidSource = errors.New("invalid domain or protocol provided")

var sourceSeparator = regexp.MustCompile(`,?\s+`)

// SplitSources splits raw sources text on an optional comma followed by
// whitespace. Empty tokens are dropped; order and duplicates are kept.
func SplitSources(raw string) []string {
	var tokens []string
	for _, tok := range sourceSeparator.Split(raw, -1) {
		if tok != "" {
			tokens = append(tokens, tok)
		}
	}
	return tokens
}

// ValidateSources splits raw and checks every token. A single bad token
// rejects the whole field.
func ValidateSources(raw string) ([]string, error) {
	tokens := SplitSources(raw)
	for _, tok := range tokens {
		if !IsSchemeMarker(tok) && !IsValidHost(tok) {
			return nil, ErrInvalidSource
		}
	}
	return tokens, nil
}

// IsSchemeMarker reports whether tok is a bare scheme such as "https:".
// Only lowercase letters are accepted.
func IsSchemeMarker(tok string) bool {
	if len(tok) < 2 || tok[len(tok)-1] != ':' {
		return false
	}
	for i := 0; i < len(tok)-1; i++ {
		if !utils.IsLower(tok[i]) {
			return false
		}
	}
	return true
}

// IsValidHost verifies the syntax of a host expression:
//
//	[http:// | https://] (domain | [ipv6]) [:port] [(/ | ?) path]
//
// Unlike a full URL check the scheme can only be http or https, domains need
// at least two segments and neither a query string nor a fragment is allowed.
// Matching is case-insensitive.
func IsValidHost(tok string) bool {
	s := hostScanner{in: tok}
	s.scheme()
	if !s.ipv6() && !s.domain() {
		return false
	}
	if !s.port() || !s.path() {
		return false
	}
	return s.done()
}

type hostScanner struct {
	in  string
	pos int
}

func (s *hostScanner) done() bool {
	return s.pos == len(s.in)
}

func (s *hostScanner) peek() (byte, bool) {
	if s.done() {
		return 0, false
	}
	return s.in[s.pos], true
}

func (s *hostScanner) scheme() {
	rest := s.in[s.pos:]
	switch {
	case utils.HasPrefixFold(rest, "https://"):
		s.pos += len("https://")
	case utils.HasPrefixFold(rest, "http://"):
		s.pos += len("http://")
	}
}

// domain consumes an optional "*." wildcard and a run of label units, each a
// character from [a-z0-9.-] or a %XX escape. The run must hold a dot that is
// neither its first nor its last unit, so at least two segments are present.
func (s *hostScanner) domain() bool {
	if strings.HasPrefix(s.in[s.pos:], "*.") {
		s.pos += 2
	}
	var dots []bool
	for !s.done() {
		c := s.in[s.pos]
		switch {
		case utils.IsAlnum(c) || c == '-' || c == '.':
			dots = append(dots, c == '.')
			s.pos++
		case utils.PercentEncodedAt(s.in, s.pos):
			dots = append(dots, false)
			s.pos += 3
		default:
			return hasInnerDot(dots)
		}
	}
	return hasInnerDot(dots)
}

func hasInnerDot(dots []bool) bool {
	for i := 1; i < len(dots)-1; i++ {
		if dots[i] {
			return true
		}
	}
	return false
}

// ipv6 consumes a bracketed token shaped like an IPv6 literal: groups of at
// most four hex digits separated by colons. Only the shape is checked.
func (s *hostScanner) ipv6() bool {
	if c, ok := s.peek(); !ok || c != '[' {
		return false
	}
	end := strings.IndexByte(s.in[s.pos:], ']')
	if end < 0 {
		return false
	}
	for _, group := range strings.Split(s.in[s.pos+1:s.pos+end], ":") {
		if len(group) > 4 {
			return false
		}
		for i := 0; i < len(group); i++ {
			if !utils.IsHex(group[i]) {
				return false
			}
		}
	}
	s.pos += end + 1
	return true
}

func (s *hostScanner) port() bool {
	if c, ok := s.peek(); !ok || c != ':' {
		return true
	}
	s.pos++
	start := s.pos
	for {
		c, ok := s.peek()
		if !ok || !utils.IsDigit(c) {
			break
		}
		s.pos++
	}
	return s.pos > start
}

// pathPunct lists the punctuation allowed in a path besides letters, digits
// and underscore. '=', '&' and '#' are left out so that query strings and
// fragments never validate.
const pathPunct = "!:.+@$'~*,;/()[]-"

func (s *hostScanner) path() bool {
	if c, ok := s.peek(); !ok || (c != '/' && c != '?') {
		return true
	}
	s.pos++
	for !s.done() {
		c := s.in[s.pos]
		switch {
		case utils.IsAlnum(c) || c == '_' || strings.IndexByte(pathPunct, c) >= 0:
			s.pos++
		case utils.PercentEncodedAt(s.in, s.pos):
			s.pos += 3
		default:
			return false
		}
	}
	return true
}
