package actions

import (
	"context"
	"net/http"
	"net/url"

	"github.com/Sternrassler/mail-connector/pkg/pagination"
)

const emailsPath = "/emails"

type sendInput struct {
	From         string   `param:"from" validate:"required"`
	To           []string `param:"to" validate:"required,min=1"`
	Subject      string   `param:"subject" validate:"required"`
	HTML         string   `param:"html" validate:"required_without_all=Text TemplateSlug"`
	Text         string   `param:"text" validate:"required_without_all=HTML TemplateSlug"`
	TemplateSlug string   `param:"templateSlug" validate:"required_without_all=HTML Text"`
}

type getInput struct {
	EmailID string `param:"emailId" validate:"required"`
}

// sendEmail posts one email. The response object is the single output record.
func (c *Connector) sendEmail(ctx context.Context, item Item) ([]pagination.Record, error) {
	var in sendInput
	var err error
	for _, field := range []struct {
		param string
		dst   *string
	}{
		{"from", &in.From},
		{"subject", &in.Subject},
		{"html", &in.HTML},
		{"text", &in.Text},
		{"templateSlug", &in.TemplateSlug},
	} {
		if *field.dst, err = item.scalar(field.param); err != nil {
			return nil, err
		}
	}
	if in.To, err = item.recipients("to"); err != nil {
		return nil, err
	}
	if in.To == nil {
		in.To = []string{}
	}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	body := map[string]any{
		"from":    in.From,
		"to":      in.To,
		"subject": in.Subject,
	}
	if err := buildBody(item, sendOptionalFields, body); err != nil {
		return nil, err
	}

	resp, err := c.requester.Request(ctx, http.MethodPost, emailsPath, body, nil)
	if err != nil {
		return nil, err
	}
	return []pagination.Record{resp}, nil
}

// getEmail fetches one email by id.
func (c *Connector) getEmail(ctx context.Context, item Item) ([]pagination.Record, error) {
	id, err := item.scalar("emailId")
	if err != nil {
		return nil, err
	}
	in := getInput{EmailID: id}
	if err := validateStruct(in); err != nil {
		return nil, err
	}

	resp, err := c.requester.Request(ctx, http.MethodGet, emailsPath+"/"+url.PathEscape(in.EmailID), nil, nil)
	if err != nil {
		return nil, err
	}
	return []pagination.Record{resp}, nil
}
