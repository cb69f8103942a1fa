package dictsource

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"kanaconv/internal/dictionary"
)

// CreateSchema creates dict_entries if it does not already exist. Column
// types are kept to the lowest common denominator the four engines all
// accept (TEXT/INTEGER), matching SQLite's type affinity rules so the
// same DDL runs unmodified against every engine this package supports.
func (s *Source) CreateSchema(ctx context.Context) error {
	stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
		reading TEXT NOT NULL,
		surface TEXT NOT NULL,
		lid INTEGER NOT NULL,
		rid INTEGER NOT NULL,
		wcost INTEGER NOT NULL,
		is_spelling_correction INTEGER NOT NULL DEFAULT 0,
		is_suffix_dictionary INTEGER NOT NULL DEFAULT 0,
		no_variants_expansion INTEGER NOT NULL DEFAULT 0
	)`, dictTable)
	if _, err := s.db.ExecContext(ctx, stmt); err != nil {
		return errors.Wrapf(err, "dictsource: create schema on %s", s.engine)
	}
	return nil
}

// InsertMany seeds tokens into dict_entries inside one transaction,
// rolling back on the first failure.
func (s *Source) InsertMany(ctx context.Context, tokens []dictionary.Token) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrapf(err, "dictsource: begin transaction on %s", s.engine)
	}

	query := fmt.Sprintf(
		`INSERT INTO %s (reading, surface, lid, rid, wcost, is_spelling_correction, is_suffix_dictionary, no_variants_expansion)
		 VALUES (%s, %s, %s, %s, %s, %s, %s, %s)`,
		dictTable,
		s.ph.arg(1), s.ph.arg(2), s.ph.arg(3), s.ph.arg(4), s.ph.arg(5), s.ph.arg(6), s.ph.arg(7), s.ph.arg(8),
	)
	for _, tok := range tokens {
		if _, err := tx.ExecContext(ctx, query,
			tok.Key, tok.Value, tok.LID, tok.RID, tok.WCost,
			boolToInt(tok.IsSpellingCorrection), boolToInt(tok.IsSuffixDictionary), boolToInt(tok.NoVariantsExpansion),
		); err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "dictsource: insert token %q on %s", tok.Key, s.engine)
		}
	}
	if err := tx.Commit(); err != nil {
		return errors.Wrapf(err, "dictsource: commit seed transaction on %s", s.engine)
	}
	return nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
