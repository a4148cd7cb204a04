package actions

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"reflect"
	"strings"
	"testing"

	"github.com/Sternrassler/mail-connector/pkg/client"
	"github.com/Sternrassler/mail-connector/pkg/pagination"
	"github.com/Sternrassler/mail-connector/pkg/runner"
)

type recordedRequest struct {
	Method string
	Path   string
	Body   map[string]any
	Query  url.Values
}

// fakeRequester records requests and replays responses in order.
type fakeRequester struct {
	requests  []recordedRequest
	responses []map[string]any
	err       error
}

func (f *fakeRequester) Request(ctx context.Context, method, path string, body any, query url.Values) (map[string]any, error) {
	rec := recordedRequest{Method: method, Path: path, Query: query}
	if b, ok := body.(map[string]any); ok {
		rec.Body = b
	}
	f.requests = append(f.requests, rec)

	if f.err != nil {
		return nil, f.err
	}
	if len(f.responses) == 0 {
		return map[string]any{}, nil
	}
	resp := f.responses[0]
	f.responses = f.responses[1:]
	return resp, nil
}

func process(t *testing.T, req *fakeRequester, resource, operation string, item Item) ([]map[string]any, error) {
	t.Helper()
	proc, err := NewConnector(req, pagination.DefaultConfig()).Processor(resource, operation)
	if err != nil {
		t.Fatalf("Processor(%s, %s) failed: %v", resource, operation, err)
	}
	return proc(context.Background(), 0, item)
}

func TestSendEmail_BodyHasOnlySuppliedFields(t *testing.T) {
	req := &fakeRequester{responses: []map[string]any{{"data": map[string]any{"id": "em_1"}}}}

	records, err := process(t, req, "email", "send", Item{
		"from":            "sender@x.com",
		"to":              "a@x.com, b@x.com;c@x.com\nd@x.com",
		"subject":         "Hello",
		"html":            "<p>hi</p>",
		"text":            "",
		"fromName":        "Sender",
		"templateVersion": "3",
		"cc":              "cc@x.com",
		"bcc":             " ; ",
		"metadata":        `{"order": 42}`,
		"options":         "",
		"attachments":     []any{map[string]any{"filename": "a.txt"}},
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	if len(req.requests) != 1 {
		t.Fatalf("requests = %d, want 1", len(req.requests))
	}
	got := req.requests[0]
	if got.Method != http.MethodPost || got.Path != "/emails" {
		t.Errorf("request = %s %s, want POST /emails", got.Method, got.Path)
	}

	wantKeys := []string{"attachments", "cc", "from", "from_name", "html", "metadata", "subject", "template_version", "to"}
	var keys []string
	for k := range got.Body {
		keys = append(keys, k)
	}
	if !sameSet(keys, wantKeys) {
		t.Errorf("body keys = %v, want %v", keys, wantKeys)
	}

	if !reflect.DeepEqual(got.Body["to"], []string{"a@x.com", "b@x.com", "c@x.com", "d@x.com"}) {
		t.Errorf("to = %v", got.Body["to"])
	}
	if !reflect.DeepEqual(got.Body["cc"], []string{"cc@x.com"}) {
		t.Errorf("cc = %v", got.Body["cc"])
	}
	if got.Body["template_version"] != 3 {
		t.Errorf("template_version = %#v, want 3", got.Body["template_version"])
	}
	if meta, ok := got.Body["metadata"].(map[string]any); !ok || meta["order"] == nil {
		t.Errorf("metadata = %#v, want decoded object", got.Body["metadata"])
	}

	if len(records) != 1 || records[0]["data"] == nil {
		t.Errorf("records = %v, want the provider response", records)
	}
}

func TestSendEmail_TemplateOnly(t *testing.T) {
	req := &fakeRequester{}

	_, err := process(t, req, "email", "send", Item{
		"from":             "sender@x.com",
		"to":               "a@x.com",
		"subject":          "Hello",
		"templateSlug":     "welcome",
		"substitutionData": map[string]any{"name": "Ada"},
	})
	if err != nil {
		t.Fatalf("send failed: %v", err)
	}

	body := req.requests[0].Body
	if body["template_slug"] != "welcome" {
		t.Errorf("template_slug = %v", body["template_slug"])
	}
	if _, ok := body["substitution_data"].(map[string]any); !ok {
		t.Errorf("substitution_data = %#v", body["substitution_data"])
	}
	if _, ok := body["html"]; ok {
		t.Error("html should be omitted when not supplied")
	}
}

func TestSendEmail_ValidationBeforeRequest(t *testing.T) {
	valid := func() Item {
		return Item{"from": "s@x.com", "to": "a@x.com", "subject": "Hi", "text": "body"}
	}

	tests := []struct {
		name      string
		mutate    func(Item)
		wantParam string
	}{
		{"no content", func(it Item) { delete(it, "text") }, "html"},
		{"blank content", func(it Item) { it["text"] = ""; it["html"] = "" }, "html"},
		{"missing from", func(it Item) { delete(it, "from") }, "from"},
		{"empty recipients", func(it Item) { it["to"] = " ,; \n" }, "to"},
		{"missing recipients", func(it Item) { delete(it, "to") }, "to"},
		{"missing subject", func(it Item) { it["subject"] = "" }, "subject"},
		{"malformed metadata", func(it Item) { it["metadata"] = "{not json" }, "metadata"},
		{"metadata not an object", func(it Item) { it["metadata"] = `[1,2]` }, "metadata"},
		{"attachments not an array", func(it Item) { it["attachments"] = map[string]any{"a": 1} }, "attachments"},
		{"metadata trailing text", func(it Item) { it["metadata"] = `{"a":1} garbage` }, "metadata"},
		{"metadata extra brace", func(it Item) { it["metadata"] = `{"a":1}}` }, "metadata"},
		{"attachments trailing value", func(it Item) { it["attachments"] = `[1,2] [3]` }, "attachments"},
		{"nil recipient entry", func(it Item) { it["to"] = []any{"a@x.com", nil} }, "to"},
		{"object cc entry", func(it Item) { it["cc"] = []any{map[string]any{"email": "b@x.com"}} }, "cc"},
		{"object from name", func(it Item) { it["fromName"] = map[string]any{"name": "S"} }, "fromName"},
		{"list subject", func(it Item) { it["subject"] = []any{"Hi"} }, "subject"},
		{"bad template version", func(it Item) { it["templateVersion"] = "v2" }, "templateVersion"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			item := valid()
			tt.mutate(item)
			req := &fakeRequester{}

			_, err := process(t, req, "email", "send", item)

			var vErr *ValidationError
			if !errors.As(err, &vErr) {
				t.Fatalf("err = %v, want *ValidationError", err)
			}
			if vErr.Param != tt.wantParam {
				t.Errorf("Param = %q, want %q (%v)", vErr.Param, tt.wantParam, err)
			}
			if len(req.requests) != 0 {
				t.Errorf("requests = %d, want none before validation passes", len(req.requests))
			}
		})
	}
}

func TestSendEmail_ContentMessage(t *testing.T) {
	_, err := process(t, &fakeRequester{}, "email", "send", Item{"from": "s@x.com", "to": "a@x.com", "subject": "Hi"})
	if err == nil || !strings.Contains(err.Error(), "text, templateSlug") {
		t.Errorf("err = %v, want message naming the content parameters", err)
	}
}

func TestGetEmail(t *testing.T) {
	req := &fakeRequester{responses: []map[string]any{{"data": map[string]any{"id": "em 1"}}}}

	records, err := process(t, req, "email", "get", Item{"emailId": "em 1"})
	if err != nil {
		t.Fatalf("get failed: %v", err)
	}
	if req.requests[0].Path != "/emails/em%201" || req.requests[0].Method != http.MethodGet {
		t.Errorf("request = %s %s", req.requests[0].Method, req.requests[0].Path)
	}
	if len(records) != 1 {
		t.Errorf("records = %d, want 1", len(records))
	}

	req = &fakeRequester{}
	if _, err := process(t, req, "email", "get", Item{}); !IsValidationError(err) || len(req.requests) != 0 {
		t.Errorf("missing emailId: err = %v, requests = %d", err, len(req.requests))
	}
}

func TestEmailGetAll_Filters(t *testing.T) {
	req := &fakeRequester{responses: []map[string]any{
		{"data": map[string]any{"emails": []any{map[string]any{"id": "e1"}}}},
	}}

	records, err := process(t, req, "email", "getAll", Item{
		"limit":      10,
		"recipients": "a@x.com",
		"dateFrom":   "2024-01-01",
		"dateTo":     "",
		"cursor":     "c0",
	})
	if err != nil {
		t.Fatalf("getAll failed: %v", err)
	}

	q := req.requests[0].Query
	want := url.Values{
		"recipients": {"a@x.com"},
		"from":       {"2024-01-01"},
		"per_page":   {"10"},
		"cursor":     {"c0"},
	}
	if !reflect.DeepEqual(q, want) {
		t.Errorf("query = %v, want %v", q, want)
	}
	if len(records) != 1 || records[0]["id"] != "e1" {
		t.Errorf("records = %v", records)
	}
}

func TestEmailGetAll_RecipientList(t *testing.T) {
	tests := []struct {
		name       string
		recipients any
		want       string
	}{
		{"list", []any{"a@x.com", "b@x.com"}, "a@x.com,b@x.com"},
		{"delimited text", "a@x.com; b@x.com", "a@x.com,b@x.com"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := &fakeRequester{responses: []map[string]any{
				{"data": map[string]any{"emails": []any{map[string]any{"id": "e1"}}}},
			}}

			if _, err := process(t, req, "email", "getAll", Item{"recipients": tt.recipients}); err != nil {
				t.Fatalf("getAll failed: %v", err)
			}
			if got := req.requests[0].Query.Get("recipients"); got != tt.want {
				t.Errorf("recipients = %q, want %q", got, tt.want)
			}
		})
	}

	req := &fakeRequester{}
	_, err := process(t, req, "email", "getAll", Item{"recipients": []any{"a@x.com", map[string]any{"email": "b@x.com"}}})
	if !IsValidationError(err) || len(req.requests) != 0 {
		t.Errorf("object entry: err = %v, requests = %d", err, len(req.requests))
	}
}

func TestTemplateGetAll_ReturnAll(t *testing.T) {
	req := &fakeRequester{responses: []map[string]any{
		{"data": map[string]any{
			"templates":  []any{map[string]any{"id": "t1"}},
			"pagination": map[string]any{"current_page": 1, "last_page": 2},
		}},
		{"data": map[string]any{
			"templates":  []any{map[string]any{"id": "t2"}},
			"pagination": map[string]any{"current_page": 2, "last_page": 2},
		}},
	}}

	records, err := process(t, req, "template", "getAll", Item{
		"returnAll": true,
		"simplify":  false,
		"projectId": "p1",
	})
	if err != nil {
		t.Fatalf("getAll failed: %v", err)
	}

	if len(req.requests) != 2 {
		t.Fatalf("requests = %d, want 2", len(req.requests))
	}
	if req.requests[1].Query.Get("page") != "2" || req.requests[1].Query.Get("project_id") != "p1" {
		t.Errorf("second query = %v", req.requests[1].Query)
	}
	if len(records) != 1 {
		t.Fatalf("records = %d, want one synthesized envelope", len(records))
	}
	data := records[0]["data"].(map[string]any)
	if list := data["templates"].([]any); len(list) != 2 {
		t.Errorf("templates = %v, want 2 entries", list)
	}
}

func TestDomainGetAll_TruncatesClientSide(t *testing.T) {
	var domains []any
	for _, id := range []string{"d1", "d2", "d3", "d4", "d5"} {
		domains = append(domains, map[string]any{"id": id})
	}
	req := &fakeRequester{responses: []map[string]any{{"data": map[string]any{"domains": domains}}}}

	records, err := process(t, req, "domain", "getAll", Item{"limit": "2"})
	if err != nil {
		t.Fatalf("getAll failed: %v", err)
	}
	if len(records) != 2 || records[0]["id"] != "d1" || records[1]["id"] != "d2" {
		t.Errorf("records = %v, want d1, d2", records)
	}
	if len(req.requests[0].Query) != 0 {
		t.Errorf("query = %v, want none for an unpaginated resource", req.requests[0].Query)
	}
}

func TestGetAll_LimitValidation(t *testing.T) {
	for _, limit := range []any{0, 251, "-1"} {
		req := &fakeRequester{}
		_, err := process(t, req, "webhook", "getAll", Item{"limit": limit})
		if !IsValidationError(err) {
			t.Errorf("limit %v: err = %v, want validation error", limit, err)
		}
		if len(req.requests) != 0 {
			t.Errorf("limit %v: requests = %d, want 0", limit, len(req.requests))
		}
	}

	// limit is ignored when returning everything
	req := &fakeRequester{}
	if _, err := process(t, req, "webhook", "getAll", Item{"limit": 0, "returnAll": "true"}); err != nil {
		t.Errorf("returnAll with limit 0 failed: %v", err)
	}
}

func TestProcessor_UnknownOperation(t *testing.T) {
	c := NewConnector(&fakeRequester{}, pagination.DefaultConfig())

	for _, op := range [][2]string{{"domain", "send"}, {"email", "delete"}, {"contact", "getAll"}} {
		if _, err := c.Processor(op[0], op[1]); !errors.Is(err, ErrUnknownOperation) {
			t.Errorf("Processor(%s, %s) err = %v, want ErrUnknownOperation", op[0], op[1], err)
		}
	}

	for _, op := range Operations() {
		if _, err := c.Processor(op.Resource, op.Operation); err != nil {
			t.Errorf("Processor(%s) failed: %v", op, err)
		}
	}
}

func TestSend_ContinueOnFailCapturesProviderError(t *testing.T) {
	apiErr := &client.APIError{
		StatusCode: http.StatusUnprocessableEntity,
		Method:     http.MethodPost,
		Path:       "/emails",
		ErrorClass: client.ErrorClassClient,
		Message:    "sender domain not verified",
	}
	req := &fakeRequester{err: apiErr}

	proc, err := NewConnector(req, pagination.DefaultConfig()).Processor("email", "send")
	if err != nil {
		t.Fatal(err)
	}
	items := []map[string]any{
		{"from": "s@x.com", "to": "a@x.com", "subject": "1", "text": "t"},
		{"from": "s@x.com", "to": "b@x.com", "subject": "2", "text": "t"},
	}

	outputs, err := runner.New(true).Run(context.Background(), items, proc)
	if err != nil {
		t.Fatalf("Run() failed: %v", err)
	}
	if len(outputs) != 2 || len(req.requests) != 2 {
		t.Fatalf("outputs = %d, requests = %d, want 2 and 2", len(outputs), len(req.requests))
	}
	for i, out := range outputs {
		if out.PairedItem != i || out.JSON["error"] != apiErr.Error() {
			t.Errorf("outputs[%d] = %+v, want captured provider error", i, out)
		}
	}
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	seen := make(map[string]int, len(a))
	for _, s := range a {
		seen[s]++
	}
	for _, s := range b {
		if seen[s] == 0 {
			return false
		}
		seen[s]--
	}
	return true
}
