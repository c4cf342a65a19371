// Copyright 2026 Canonical.

package condb

import (
	"context"
	"fmt"

	"github.com/condb/condb/internal/errors"
	"github.com/condb/condb/internal/resolve"
	"github.com/condb/condb/internal/servermon"
	"github.com/condb/condb/internal/validate"
)

// Validate checks the schema and instances of the given ref and returns
// the problems found.
func (c *ConDB) Validate(ctx context.Context, databaseID, ref string) (*validate.Result, error) {
	const op = errors.Op("condb.Validate")

	view, err := c.ResolveView(ctx, databaseID, ref)
	if err != nil {
		return nil, errors.E(op, err)
	}
	result := validate.View(resolve.NewPayloadView(&view.Payload))
	if n := len(result.Errors); n > 0 {
		servermon.ValidationProblemCount.WithLabelValues(databaseID, "error").Add(float64(n))
	}
	if n := len(result.Warnings); n > 0 {
		servermon.ValidationProblemCount.WithLabelValues(databaseID, "warning").Add(float64(n))
	}
	return &result, nil
}

// ValidateInstance checks a single instance of the given ref against
// the ref's schema.
func (c *ConDB) ValidateInstance(ctx context.Context, databaseID, ref, id string) (*validate.Result, error) {
	const op = errors.Op("condb.ValidateInstance")

	view, err := c.ResolveView(ctx, databaseID, ref)
	if err != nil {
		return nil, errors.E(op, err)
	}
	pv := resolve.NewPayloadView(&view.Payload)
	inst := pv.Instance(id)
	if inst == nil {
		return nil, errors.E(op, errors.CodeNotFound, fmt.Sprintf("instance %q not found", id))
	}
	result := validate.Instance(pv, inst)
	if n := len(result.Errors); n > 0 {
		servermon.ValidationProblemCount.WithLabelValues(databaseID, "error").Add(float64(n))
	}
	if n := len(result.Warnings); n > 0 {
		servermon.ValidationProblemCount.WithLabelValues(databaseID, "warning").Add(float64(n))
	}
	return &result, nil
}
