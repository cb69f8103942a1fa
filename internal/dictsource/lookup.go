package dictsource

import (
	"context"
	"fmt"

	"github.com/pkg/errors"

	"kanaconv/internal/dictionary"
	"kanaconv/internal/request"
)

func (s *Source) selectQuery(where string) string {
	return fmt.Sprintf(
		`SELECT reading, surface, lid, rid, wcost, is_spelling_correction, is_suffix_dictionary, no_variants_expansion
		 FROM %s WHERE %s`, dictTable, where)
}

func (s *Source) queryTokens(ctx context.Context, where string, arg any) ([]dictionary.Token, error) {
	rows, err := s.db.QueryContext(ctx, s.selectQuery(where), arg)
	if err != nil {
		return nil, errors.Wrapf(err, "dictsource: query on %s", s.engine)
	}
	defer rows.Close()

	var toks []dictionary.Token
	for rows.Next() {
		var tok dictionary.Token
		var spelling, suffix, noVariants int
		if err := rows.Scan(&tok.Key, &tok.Value, &tok.LID, &tok.RID, &tok.WCost, &spelling, &suffix, &noVariants); err != nil {
			return nil, errors.Wrapf(err, "dictsource: scan row on %s", s.engine)
		}
		tok.IsSpellingCorrection = spelling != 0
		tok.IsSuffixDictionary = suffix != 0
		tok.NoVariantsExpansion = noVariants != 0
		toks = append(toks, tok)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.Wrapf(err, "dictsource: iterate rows on %s", s.engine)
	}
	return toks, nil
}

// LookupPrefix queries every byte-offset prefix of key against reading,
// shortest first, as InMemoryDictionary.LookupPrefix does. Unlike that
// implementation, a ResultNextKey reply skips the remaining tokens of the
// current prefix.
func (s *Source) LookupPrefix(ctx context.Context, key string, _ *request.Request, cb dictionary.LookupCallback) error {
prefixes:
	for i := 1; i <= len(key); i++ {
		prefix := key[:i]
		toks, err := s.queryTokens(ctx, "reading = "+s.ph.arg(1), prefix)
		if err != nil {
			return err
		}
		for _, tok := range toks {
			switch cb(key, prefix, tok) {
			case dictionary.ResultDone:
				return nil
			case dictionary.ResultNextKey:
				continue prefixes
			}
		}
	}
	return nil
}

// LookupPredictive matches every reading that starts with key.
func (s *Source) LookupPredictive(ctx context.Context, key string, _ *request.Request, cb dictionary.LookupCallback) error {
	toks, err := s.queryTokens(ctx, "reading LIKE "+s.ph.arg(1), key+"%")
	if err != nil {
		return err
	}
	for _, tok := range toks {
		switch cb(key, tok.Key, tok) {
		case dictionary.ResultDone:
			return nil
		}
	}
	return nil
}

// LookupReverse matches every entry whose surface form equals key.
func (s *Source) LookupReverse(ctx context.Context, key string, _ *request.Request, cb dictionary.LookupCallback) error {
	toks, err := s.queryTokens(ctx, "surface = "+s.ph.arg(1), key)
	if err != nil {
		return err
	}
	for _, tok := range toks {
		switch cb(key, tok.Key, tok) {
		case dictionary.ResultDone:
			return nil
		}
	}
	return nil
}

// PopulateReverseLookupCache and ClearReverseLookupCache are no-ops: a SQL
// backend answers LookupReverse directly from its surface index rather
// than maintaining an in-process cache.
func (s *Source) PopulateReverseLookupCache(string) {}
func (s *Source) ClearReverseLookupCache()          {}
