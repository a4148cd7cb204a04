package actions

import (
	"context"
	"net/url"
	"strings"

	"github.com/Sternrassler/mail-connector/pkg/pagination"
)

// Defaults of the common list options.
const (
	DefaultReturnAll = false
	DefaultLimit     = 50
	DefaultSimplify  = true
)

// listAction describes one getAll operation.
type listAction struct {
	resource pagination.Resource

	// filters become query parameters when supplied
	filters []optionalField

	// seedParam names the item parameter holding the starting cursor or page
	seedParam string
}

var (
	emailList = listAction{
		resource: pagination.Emails,
		filters: []optionalField{
			{Param: "recipients", Wire: "recipients", Kind: kindRecipients},
			{Param: "dateFrom", Wire: "from", Kind: kindString},
			{Param: "dateTo", Wire: "to", Kind: kindString},
		},
		seedParam: "cursor",
	}

	templateList = listAction{
		resource: pagination.Templates,
		filters: []optionalField{
			{Param: "projectId", Wire: "project_id", Kind: kindString},
		},
		seedParam: "page",
	}

	domainList  = listAction{resource: pagination.Domains}
	webhookList = listAction{resource: pagination.Webhooks}
)

type limitInput struct {
	Limit int `param:"limit" validate:"gte=1,lte=250"`
}

// listRequest reads the common list options and the action's filters.
func (a listAction) listRequest(item Item) (pagination.Request, error) {
	var req pagination.Request

	returnAll, err := item.Bool("returnAll", DefaultReturnAll)
	if err != nil {
		return req, err
	}
	simplify, err := item.Bool("simplify", DefaultSimplify)
	if err != nil {
		return req, err
	}
	limit, err := item.Int("limit", DefaultLimit)
	if err != nil {
		return req, err
	}
	if !returnAll {
		if err := validateStruct(limitInput{Limit: limit}); err != nil {
			return req, err
		}
	}

	filters, err := buildQuery(item, a.filters)
	if err != nil {
		return req, err
	}

	req = pagination.Request{
		ReturnAll: returnAll,
		Limit:     limit,
		Simplify:  simplify,
		Filters:   filters,
	}
	if a.seedParam != "" {
		req.Seed = item.String(a.seedParam, "")
	}
	return req, nil
}

// buildQuery is buildBody for query parameters. Recipient lists are sent
// comma separated.
func buildQuery(item Item, fields []optionalField) (url.Values, error) {
	body := make(map[string]any, len(fields))
	if err := buildBody(item, fields, body); err != nil {
		return nil, err
	}

	query := url.Values{}
	for wire, v := range body {
		if list, ok := v.([]string); ok {
			query.Set(wire, strings.Join(list, ","))
			continue
		}
		query.Set(wire, Item(body).String(wire, ""))
	}
	return query, nil
}

func (c *Connector) list(ctx context.Context, a listAction, item Item) ([]pagination.Record, error) {
	req, err := a.listRequest(item)
	if err != nil {
		return nil, err
	}
	return c.fetcher.Collect(ctx, a.resource, req)
}
