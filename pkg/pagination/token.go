package pagination

import (
	"strconv"
	"strings"
)

// TokenKind tags the continuation carried by a Token.
type TokenKind int

const (
	// TokenNone means the server reported no further pages.
	TokenNone TokenKind = iota
	// TokenCursor carries an opaque provider-issued cursor.
	TokenCursor
	// TokenPage carries the server's current and last page numbers.
	TokenPage
)

// Token is the continuation extracted from one envelope.
type Token struct {
	Kind    TokenKind
	Cursor  string
	Current int
	Last    int
}

// CursorToken returns a cursor token, or the none token for an empty cursor.
func CursorToken(cursor string) Token {
	if cursor == "" {
		return Token{}
	}
	return Token{Kind: TokenCursor, Cursor: cursor}
}

// PageToken returns a page token.
func PageToken(current, last int) Token {
	return Token{Kind: TokenPage, Current: current, Last: last}
}

// Exhausted reports whether no further page should be requested.
func (t Token) Exhausted() bool {
	switch t.Kind {
	case TokenCursor:
		return t.Cursor == ""
	case TokenPage:
		return t.Current >= t.Last
	default:
		return true
	}
}

// Style extracts continuation tokens from envelopes and turns them into the
// value of the continuation query parameter.
type Style interface {
	// Param is the query parameter carrying the continuation; empty for
	// unpaginated resources.
	Param() string

	// Extract reads the continuation from a response envelope.
	Extract(env Envelope) Token

	// Next returns the continuation value for the following request, or false
	// when the token is exhausted.
	Next(tok Token) (string, bool)
}

var (
	// CursorStyle paginates with data.pagination.next_cursor.
	CursorStyle Style = cursorStyle{}

	// PageStyle paginates with data.pagination.current_page / last_page.
	PageStyle Style = pageStyle{}

	// Unpaginated resources return the full list in one response.
	Unpaginated Style = unpaginated{}
)

type cursorStyle struct{}

func (cursorStyle) Param() string { return "cursor" }

func (cursorStyle) Extract(env Envelope) Token {
	p := paginationObject(env)
	if p == nil {
		return Token{}
	}
	cursor, _ := p["next_cursor"].(string)
	return CursorToken(strings.TrimSpace(cursor))
}

func (cursorStyle) Next(tok Token) (string, bool) {
	if tok.Kind != TokenCursor || tok.Exhausted() {
		return "", false
	}
	return tok.Cursor, true
}

type pageStyle struct{}

func (pageStyle) Param() string { return "page" }

func (pageStyle) Extract(env Envelope) Token {
	p := paginationObject(env)
	if p == nil {
		return Token{}
	}
	current, okCurrent := asInt(p["current_page"])
	last, okLast := asInt(p["last_page"])
	if !okCurrent || !okLast {
		return Token{}
	}
	return PageToken(current, last)
}

// Next derives the page from the server's current_page so a renumbered
// listing is followed rather than a locally incremented counter.
func (pageStyle) Next(tok Token) (string, bool) {
	if tok.Kind != TokenPage || tok.Exhausted() {
		return "", false
	}
	return strconv.Itoa(tok.Current + 1), true
}

type unpaginated struct{}

func (unpaginated) Param() string             { return "" }
func (unpaginated) Extract(Envelope) Token    { return Token{} }
func (unpaginated) Next(Token) (string, bool) { return "", false }

// asInt accepts the numeric shapes a decoded JSON value can take.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		return int(n), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		return i, err == nil
	case interface{ Int64() (int64, error) }:
		i, err := n.Int64()
		return int(i), err == nil
	default:
		return 0, false
	}
}
