package store

import (
	"context"
	"fmt"

	"github.com/roach88/autopar/internal/ir"
	"github.com/roach88/autopar/internal/profile"
)

// WriteProfile stores a complete profile: program name, conjunction
// structure in program order, and per-site measurements. Used by the
// collector toolchain and by test fixtures; the analysis pipeline never
// writes.
//
// The whole profile goes in one transaction so a reader never observes a
// partially written database.
func (s *Store) WriteProfile(ctx context.Context, program ir.Program, measurements map[string]profile.Measurement) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("write profile: begin tx: %w", err)
	}
	defer tx.Rollback() // No-op if committed

	if _, err := tx.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, metaProgramName, program.Name); err != nil {
		return fmt.Errorf("write program name: %w", err)
	}

	for ord := range program.Conjunctions {
		conj := &program.Conjunctions[ord]
		body, err := marshalConjunction(conj)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO conjunctions (ord, body) VALUES (?, ?)
			ON CONFLICT(ord) DO UPDATE SET body = excluded.body
		`, ord, body); err != nil {
			return fmt.Errorf("write conjunction %s: %w", conj.ID, err)
		}
	}

	// Deterministic write order is not required for correctness (reads are
	// keyed), but map iteration must not decide anything observable, so
	// measurements are validated before any row lands.
	for path, m := range measurements {
		if err := m.Validate(); err != nil {
			return fmt.Errorf("call site %s: %w", path, err)
		}
	}
	for path, m := range measurements {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO call_sites (path, calls, total_cost) VALUES (?, ?, ?)
			ON CONFLICT(path) DO UPDATE SET
				calls = excluded.calls,
				total_cost = excluded.total_cost
		`, path, m.Calls, m.TotalCost); err != nil {
			return fmt.Errorf("write call site %s: %w", path, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("write profile: commit: %w", err)
	}
	return nil
}
