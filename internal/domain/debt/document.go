package debt

import (
	"strings"
	"unicode"
)

// DocumentIDLength is the number of digits of a complete national id.
const DocumentIDLength = 11

// minPartialDigits is the shortest digit run accepted as a partial id search.
const minPartialDigits = 3

// NormalizeDocumentID strips every non-digit character.
func NormalizeDocumentID(raw string) string {
	var b strings.Builder
	b.Grow(len(raw))
	for _, r := range raw {
		if r >= '0' && r <= '9' {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// FormatDocumentID renders a complete id as DDD.DDD.DDD-DD. Anything that is
// not exactly 11 digits is returned unchanged.
func FormatDocumentID(id string) string {
	digits := NormalizeDocumentID(id)
	if len(digits) != DocumentIDLength || len(digits) != len(id) {
		return id
	}
	return digits[0:3] + "." + digits[3:6] + "." + digits[6:9] + "-" + digits[9:11]
}

// ParseDocumentID validates a user supplied id and returns its stored form.
func ParseDocumentID(raw string) (string, error) {
	digits := NormalizeDocumentID(raw)
	if len(digits) != DocumentIDLength {
		return "", ErrInvalidDocumentID
	}
	for _, r := range strings.TrimSpace(raw) {
		if !unicode.IsDigit(r) && r != '.' && r != '-' && r != ' ' {
			return "", ErrInvalidDocumentID
		}
	}
	return digits, nil
}

// DocumentMatch is the kind of lookup a search input resolves to.
type DocumentMatch int

const (
	DocumentMatchNone DocumentMatch = iota
	DocumentMatchExact
	DocumentMatchPartial
)

// DocumentQuery is a classified document id search input.
type DocumentQuery struct {
	Raw    string
	Digits string
	Match  DocumentMatch
}

// ParseDocumentQuery classifies a free-text search input. Eleven digits is an
// exact lookup, three to ten digits a substring lookup, anything else matches
// nothing.
func ParseDocumentQuery(raw string) DocumentQuery {
	raw = strings.TrimSpace(raw)
	q := DocumentQuery{Raw: raw, Digits: NormalizeDocumentID(raw)}
	switch n := len(q.Digits); {
	case n == DocumentIDLength:
		q.Match = DocumentMatchExact
	case n >= minPartialDigits && n < DocumentIDLength:
		q.Match = DocumentMatchPartial
	default:
		q.Match = DocumentMatchNone
	}
	return q
}

// Terms returns the values a stored id is compared against: equality terms
// for an exact query, substring terms for a partial one.
func (q DocumentQuery) Terms() []string {
	var terms []string
	switch q.Match {
	case DocumentMatchExact:
		terms = []string{q.Digits, FormatDocumentID(q.Digits)}
	case DocumentMatchPartial:
		terms = []string{q.Digits}
		if q.Raw != q.Digits {
			terms = append(terms, q.Raw)
		}
	}
	return terms
}

// Matches reports whether a stored id satisfies the query.
func (q DocumentQuery) Matches(stored string) bool {
	for _, term := range q.Terms() {
		switch q.Match {
		case DocumentMatchExact:
			if stored == term {
				return true
			}
		case DocumentMatchPartial:
			if strings.Contains(stored, term) {
				return true
			}
		}
	}
	return false
}
