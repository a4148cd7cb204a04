package pagination

import (
	"encoding/json"
	"testing"
)

func TestToken_Exhausted(t *testing.T) {
	tests := []struct {
		name string
		tok  Token
		want bool
	}{
		{"none", Token{}, true},
		{"cursor", CursorToken("abc"), false},
		{"empty cursor is none", CursorToken(""), true},
		{"first of three", PageToken(1, 3), false},
		{"last page", PageToken(3, 3), true},
		{"past last page", PageToken(4, 3), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.tok.Exhausted(); got != tt.want {
				t.Errorf("Exhausted() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCursorStyle(t *testing.T) {
	env := Envelope{"data": map[string]any{"pagination": map[string]any{"next_cursor": " c2 "}}}

	tok := CursorStyle.Extract(env)
	if tok.Kind != TokenCursor || tok.Cursor != "c2" {
		t.Fatalf("Extract() = %+v, want cursor c2", tok)
	}

	next, ok := CursorStyle.Next(tok)
	if !ok || next != "c2" {
		t.Errorf("Next() = %q, %v, want c2, true", next, ok)
	}

	if _, ok := CursorStyle.Next(PageToken(1, 2)); ok {
		t.Error("cursor style must not continue from a page token")
	}
	if CursorStyle.Param() != "cursor" {
		t.Errorf("Param() = %q", CursorStyle.Param())
	}
}

func TestPageStyle(t *testing.T) {
	tests := []struct {
		name       string
		pagination map[string]any
		wantNext   string
		wantMore   bool
	}{
		{"json numbers", map[string]any{"current_page": json.Number("1"), "last_page": json.Number("3")}, "2", true},
		{"floats", map[string]any{"current_page": float64(2), "last_page": float64(3)}, "3", true},
		{"last page", map[string]any{"current_page": 3, "last_page": 3}, "", false},
		{"missing last_page", map[string]any{"current_page": 1}, "", false},
		{"non numeric", map[string]any{"current_page": "x", "last_page": 3}, "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := Envelope{"data": map[string]any{"pagination": tt.pagination}}
			next, more := PageStyle.Next(PageStyle.Extract(env))
			if next != tt.wantNext || more != tt.wantMore {
				t.Errorf("Next() = %q, %v, want %q, %v", next, more, tt.wantNext, tt.wantMore)
			}
		})
	}
}

func TestUnpaginated(t *testing.T) {
	if Unpaginated.Param() != "" {
		t.Error("unpaginated style has no continuation parameter")
	}
	if Domains.Paginated() || Webhooks.Paginated() {
		t.Error("domains and webhooks are not paginated server-side")
	}
	if !Emails.Paginated() || !Templates.Paginated() {
		t.Error("emails and templates are paginated")
	}
	if (Resource{Name: "x"}).Paginated() {
		t.Error("nil style should be treated as unpaginated")
	}
}

func TestListEntries(t *testing.T) {
	if got, err := ListEntries(Envelope{}, "emails"); err != nil || len(got) != 0 {
		t.Errorf("missing data = %v, %v, want empty", got, err)
	}

	env := Envelope{"data": map[string]any{"emails": []any{map[string]any{"id": "e1"}, "oops"}}}
	if _, err := ListEntries(env, "emails"); err == nil {
		t.Error("non-object entry should be rejected")
	}
}
