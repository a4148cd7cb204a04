package main

import (
	"context"
	"fmt"
	"io"

	"github.com/Sternrassler/mail-connector/pkg/actions"
	"github.com/Sternrassler/mail-connector/pkg/runner"
	"github.com/goccy/go-json"
)

// runAction reads a JSON array of items from in, runs resource/operation over
// them and writes the outputs to out as a JSON array.
func runAction(ctx context.Context, connector *actions.Connector, resource, operation string, continueOnFail bool, in io.Reader, out io.Writer) error {
	proc, err := connector.Processor(resource, operation)
	if err != nil {
		return err
	}

	var items []map[string]any
	dec := json.NewDecoder(in)
	dec.UseNumber()
	if err := dec.Decode(&items); err != nil {
		return fmt.Errorf("decode items: %w", err)
	}

	outputs, err := runner.New(continueOnFail).Run(ctx, items, proc)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(outputs)
}
