package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/autopar/internal/ir"
)

// marshalConjunction converts a conjunction to JSON TEXT for storage.
// Go's json.Marshal is deterministic over struct fields, so the stored body
// is stable for identical input.
func marshalConjunction(c *ir.Conjunction) (string, error) {
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("marshal conjunction %s: %w", c.ID, err)
	}
	return string(data), nil
}

// unmarshalConjunction parses a stored conjunction body and validates its
// goal structure before handing it to analysis.
func unmarshalConjunction(body string) (ir.Conjunction, error) {
	var c ir.Conjunction
	if err := json.Unmarshal([]byte(body), &c); err != nil {
		return ir.Conjunction{}, fmt.Errorf("unmarshal conjunction: %w", err)
	}
	for i := range c.Goals {
		if err := c.Goals[i].Validate(); err != nil {
			return ir.Conjunction{}, fmt.Errorf("conjunction %s: %w", c.ID, err)
		}
	}
	if c.EntryCount < 0 {
		return ir.Conjunction{}, fmt.Errorf("conjunction %s: negative entry count %d", c.ID, c.EntryCount)
	}
	return c, nil
}
