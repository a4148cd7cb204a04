package pagination

import (
	"errors"
	"fmt"
)

// Record is one list entry, passed through unmodified.
type Record = map[string]any

// Envelope is a decoded provider response: a data object holding the list
// field and an optional pagination object.
type Envelope = map[string]any

// ErrMalformedEnvelope is returned when the list field is not a JSON array of objects.
var ErrMalformedEnvelope = errors.New("malformed envelope")

// Resource describes one provider list endpoint.
type Resource struct {
	// Name is used in logs and metrics
	Name string

	// Path of the list endpoint, e.g. "/emails"
	Path string

	// ListField is the key under data holding the entries
	ListField string

	// Style is the continuation style
	Style Style
}

// Paginated reports whether the resource supports server-side pagination.
func (r Resource) Paginated() bool {
	return r.Style != nil && r.Style.Param() != ""
}

// Provider list endpoints.
var (
	Emails = Resource{Name: "email", Path: "/emails", ListField: "emails", Style: CursorStyle}

	Templates = Resource{Name: "template", Path: "/templates", ListField: "templates", Style: PageStyle}

	Domains = Resource{Name: "domain", Path: "/domains", ListField: "domains", Style: Unpaginated}

	Webhooks = Resource{Name: "webhook", Path: "/webhooks", ListField: "webhooks", Style: Unpaginated}
)

func dataObject(env Envelope) map[string]any {
	data, _ := env["data"].(map[string]any)
	return data
}

func paginationObject(env Envelope) map[string]any {
	p, _ := dataObject(env)["pagination"].(map[string]any)
	return p
}

// ListEntries returns data.<field> of an envelope. A missing data object or
// list field yields an empty list.
func ListEntries(env Envelope, field string) ([]Record, error) {
	raw, ok := dataObject(env)[field]
	if !ok || raw == nil {
		return []Record{}, nil
	}

	list, ok := raw.([]any)
	if !ok {
		return nil, fmt.Errorf("%w: data.%s is %T, want array", ErrMalformedEnvelope, field, raw)
	}

	records := make([]Record, 0, len(list))
	for i, entry := range list {
		rec, ok := entry.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("%w: data.%s[%d] is %T, want object", ErrMalformedEnvelope, field, i, entry)
		}
		records = append(records, rec)
	}
	return records, nil
}

// synthesizeEnvelope builds {data: {<field>: entries}} without pagination metadata.
func synthesizeEnvelope(field string, entries []Record) Envelope {
	return Envelope{"data": map[string]any{field: toList(entries)}}
}

// withList returns a shallow copy of env whose data.<field> is replaced by entries.
func withList(env Envelope, field string, entries []Record) Envelope {
	out := make(Envelope, len(env))
	for k, v := range env {
		out[k] = v
	}

	data := make(map[string]any)
	for k, v := range dataObject(env) {
		data[k] = v
	}
	data[field] = toList(entries)
	out["data"] = data

	return out
}

func toList(entries []Record) []any {
	list := make([]any, len(entries))
	for i, e := range entries {
		list[i] = e
	}
	return list
}
