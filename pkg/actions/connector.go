// Package actions implements the connector's resource and operation surface:
// sending and fetching emails and listing emails, domains, templates and
// webhooks. Each operation turns one input Item into output records.
package actions

import (
	"context"
	"errors"
	"fmt"

	"github.com/Sternrassler/mail-connector/pkg/pagination"
	"github.com/Sternrassler/mail-connector/pkg/runner"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// ErrUnknownOperation is returned for a resource/operation pair that does not exist.
var ErrUnknownOperation = errors.New("unknown operation")

// Operation names one resource/operation pair.
type Operation struct {
	Resource  string `json:"resource"`
	Operation string `json:"operation"`
}

func (o Operation) String() string {
	return o.Resource + "." + o.Operation
}

type handler func(c *Connector, ctx context.Context, item Item) ([]pagination.Record, error)

func listHandler(a listAction) handler {
	return func(c *Connector, ctx context.Context, item Item) ([]pagination.Record, error) {
		return c.list(ctx, a, item)
	}
}

var handlers = map[Operation]handler{
	{"email", "send"}:      (*Connector).sendEmail,
	{"email", "get"}:       (*Connector).getEmail,
	{"email", "getAll"}:    listHandler(emailList),
	{"domain", "getAll"}:   listHandler(domainList),
	{"template", "getAll"}: listHandler(templateList),
	{"webhook", "getAll"}:  listHandler(webhookList),
}

// Operations lists the supported resource/operation pairs.
func Operations() []Operation {
	return []Operation{
		{"email", "send"},
		{"email", "get"},
		{"email", "getAll"},
		{"domain", "getAll"},
		{"template", "getAll"},
		{"webhook", "getAll"},
	}
}

// Connector binds the operations to one provider account.
type Connector struct {
	requester pagination.Requester
	fetcher   *pagination.Fetcher
	logger    zerolog.Logger
}

// NewConnector creates a connector issuing requests through requester.
func NewConnector(requester pagination.Requester, config pagination.Config) *Connector {
	return &Connector{
		requester: requester,
		fetcher:   pagination.NewFetcher(requester, config),
		logger:    log.With().Str("component", "actions").Logger(),
	}
}

// Processor returns the item processor for resource and operation.
func (c *Connector) Processor(resource, operation string) (runner.Processor, error) {
	op := Operation{Resource: resource, Operation: operation}
	h, ok := handlers[op]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownOperation, op)
	}

	return func(ctx context.Context, index int, item map[string]any) ([]map[string]any, error) {
		c.logger.Debug().
			Str("resource", resource).
			Str("operation", operation).
			Int("item_index", index).
			Msg("Processing item")
		return h(c, ctx, Item(item))
	}, nil
}
