package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/autopar/internal/ir"
	"github.com/roach88/autopar/internal/profile"
)

// ReadModel loads the whole profile into memory.
//
// Conjunctions are read in program (ord) order so analysis output is
// deterministic regardless of how the collector batched its writes.
func (s *Store) ReadModel(ctx context.Context) (*profile.Model, error) {
	name, err := s.programName(ctx)
	if err != nil {
		return nil, err
	}

	measurements, err := s.readMeasurements(ctx)
	if err != nil {
		return nil, err
	}

	program, err := s.readProgram(ctx, name)
	if err != nil {
		return nil, err
	}

	return profile.NewModel(program, measurements), nil
}

func (s *Store) programName(ctx context.Context) (string, error) {
	var name string
	err := s.db.QueryRowContext(ctx,
		"SELECT value FROM meta WHERE key = ?", metaProgramName,
	).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", fmt.Errorf("profile database has no program name")
	}
	if err != nil {
		return "", fmt.Errorf("read program name: %w", err)
	}
	return name, nil
}

func (s *Store) readMeasurements(ctx context.Context) (map[string]profile.Measurement, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT path, calls, total_cost FROM call_sites",
	)
	if err != nil {
		return nil, fmt.Errorf("read call sites: %w", err)
	}
	defer rows.Close()

	measurements := map[string]profile.Measurement{}
	for rows.Next() {
		var path string
		var m profile.Measurement
		if err := rows.Scan(&path, &m.Calls, &m.TotalCost); err != nil {
			return nil, fmt.Errorf("scan call site: %w", err)
		}
		if err := m.Validate(); err != nil {
			return nil, fmt.Errorf("call site %s: %w", path, err)
		}
		measurements[path] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read call sites: %w", err)
	}
	return measurements, nil
}

func (s *Store) readProgram(ctx context.Context, name string) (ir.Program, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT body FROM conjunctions ORDER BY ord",
	)
	if err != nil {
		return ir.Program{}, fmt.Errorf("read conjunctions: %w", err)
	}
	defer rows.Close()

	program := ir.Program{Name: name}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return ir.Program{}, fmt.Errorf("scan conjunction: %w", err)
		}
		conj, err := unmarshalConjunction(body)
		if err != nil {
			return ir.Program{}, err
		}
		program.Conjunctions = append(program.Conjunctions, conj)
	}
	if err := rows.Err(); err != nil {
		return ir.Program{}, fmt.Errorf("read conjunctions: %w", err)
	}
	return program, nil
}
