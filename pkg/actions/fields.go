package actions

import (
	"bytes"
	"strings"

	"github.com/goccy/go-json"
)

// fieldKind selects how an optional parameter is read and when it counts as present.
type fieldKind int

const (
	kindString fieldKind = iota
	kindInt
	kindRecipients
	kindJSONObject
	kindJSONArray
)

// optionalField maps an item parameter to its wire field.
type optionalField struct {
	Param string
	Wire  string
	Kind  fieldKind
}

// sendOptionalFields are attached to POST /emails only when supplied.
var sendOptionalFields = []optionalField{
	{Param: "html", Wire: "html", Kind: kindString},
	{Param: "text", Wire: "text", Kind: kindString},
	{Param: "templateSlug", Wire: "template_slug", Kind: kindString},
	{Param: "fromName", Wire: "from_name", Kind: kindString},
	{Param: "replyTo", Wire: "reply_to", Kind: kindString},
	{Param: "replyToName", Wire: "reply_to_name", Kind: kindString},
	{Param: "ampHtml", Wire: "amp_html", Kind: kindString},
	{Param: "projectId", Wire: "project_id", Kind: kindString},
	{Param: "templateVersion", Wire: "template_version", Kind: kindInt},
	{Param: "campaignId", Wire: "campaign_id", Kind: kindString},
	{Param: "cc", Wire: "cc", Kind: kindRecipients},
	{Param: "bcc", Wire: "bcc", Kind: kindRecipients},
	{Param: "metadata", Wire: "metadata", Kind: kindJSONObject},
	{Param: "substitutionData", Wire: "substitution_data", Kind: kindJSONObject},
	{Param: "options", Wire: "options", Kind: kindJSONObject},
	{Param: "attachments", Wire: "attachments", Kind: kindJSONArray},
}

// buildBody copies every supplied optional field of item into body under its
// wire name. Absent or empty parameters are skipped.
func buildBody(item Item, fields []optionalField, body map[string]any) error {
	for _, f := range fields {
		v, present, err := f.read(item)
		if err != nil {
			return err
		}
		if present {
			body[f.Wire] = v
		}
	}
	return nil
}

func (f optionalField) read(item Item) (any, bool, error) {
	if _, ok := item.Value(f.Param); !ok {
		return nil, false, nil
	}

	switch f.Kind {
	case kindString:
		s, err := item.scalar(f.Param)
		return s, s != "", err
	case kindInt:
		s, err := item.scalar(f.Param)
		if err != nil {
			return nil, false, err
		}
		if strings.TrimSpace(s) == "" {
			return nil, false, nil
		}
		n, err := item.Int(f.Param, 0)
		return n, err == nil, err
	case kindRecipients:
		list, err := item.recipients(f.Param)
		return list, len(list) > 0, err
	case kindJSONObject:
		return readJSON[map[string]any](item, f.Param, "must be a JSON object")
	case kindJSONArray:
		return readJSON[[]any](item, f.Param, "must be a JSON array")
	}
	return nil, false, nil
}

// readJSON accepts either an already decoded value or JSON text holding exactly
// one value. Blank text and empty structures count as absent.
func readJSON[T map[string]any | []any](item Item, name, shape string) (any, bool, error) {
	v, _ := item.Value(name)

	if text, ok := v.(string); ok {
		text = strings.TrimSpace(text)
		if text == "" {
			return nil, false, nil
		}
		// Unmarshal rejects trailing data after the value
		var raw json.RawMessage
		if err := json.Unmarshal([]byte(text), &raw); err != nil {
			return nil, false, invalidParam(name, "is not valid JSON: "+err.Error())
		}

		var decoded T
		dec := json.NewDecoder(bytes.NewReader(raw))
		dec.UseNumber()
		if err := dec.Decode(&decoded); err != nil {
			return nil, false, invalidParam(name, shape)
		}
		return decoded, len(decoded) > 0, nil
	}

	decoded, ok := v.(T)
	if !ok {
		return nil, false, invalidParam(name, shape)
	}
	return decoded, len(decoded) > 0, nil
}
