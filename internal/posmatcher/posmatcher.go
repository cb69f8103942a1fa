// Package posmatcher defines the POS-class predicate interface the
// converter core consumes. The real table (built from the dictionary's POS
// id space) is an out-of-scope external collaborator; StaticPosMatcher is a
// FlatSet-backed reference implementation used by this module's own tests
// and by the cmd/kanaconv demo.
package posmatcher

import "kanaconv/internal/container"

// PosMatcher answers POS-class membership questions by numeric id. Every
// method must be a pure, total function of id: implementations are shared
// read-only across concurrent converter instances.
type PosMatcher interface {
	IsNumber(id uint16) bool
	IsKanjiNumber(id uint16) bool
	IsCounterSuffixWord(id uint16) bool
	IsUniqueNoun(id uint16) bool
	IsFunctional(id uint16) bool
	IsSuffixWord(id uint16) bool
	IsContentNoun(id uint16) bool
	IsPronoun(id uint16) bool
	IsAcceptableParticleAtBeginOfSegment(id uint16) bool
	IsKagyoTaConnectionVerb(id uint16) bool
	IsWagyoRenyoConnectionVerb(id uint16) bool
	IsTeSuffix(id uint16) bool
	IsVerbSuffix(id uint16) bool
	IsWeakCompoundFillerPrefix(id uint16) bool
	IsWeakCompoundNounPrefix(id uint16) bool
	IsWeakCompoundNounSuffix(id uint16) bool
	IsWeakCompoundVerbPrefix(id uint16) bool
	IsWeakCompoundVerbSuffix(id uint16) bool
	IsIsolatedWord(id uint16) bool
	IsGeneralSymbol(id uint16) bool

	GetLastNameID() uint16
	GetFirstNameID() uint16
	GetNumberID() uint16
	GetUnknownID() uint16
}

func cmpU16(a, b uint16) int { return int(a) - int(b) }

// Sets groups the id lists that configure a StaticPosMatcher. Each field
// is the full list of ids belonging to that class; StaticPosMatcher sorts
// and dedups them into a FlatSet at construction.
type Sets struct {
	Number                      []uint16
	KanjiNumber                 []uint16
	CounterSuffixWord           []uint16
	UniqueNoun                  []uint16
	Functional                  []uint16
	SuffixWord                  []uint16
	ContentNoun                 []uint16
	Pronoun                     []uint16
	AcceptableParticleAtBegin   []uint16
	KagyoTaConnectionVerb       []uint16
	WagyoRenyoConnectionVerb    []uint16
	TeSuffix                    []uint16
	VerbSuffix                  []uint16
	WeakCompoundFillerPrefix    []uint16
	WeakCompoundNounPrefix      []uint16
	WeakCompoundNounSuffix      []uint16
	WeakCompoundVerbPrefix      []uint16
	WeakCompoundVerbSuffix      []uint16
	IsolatedWord                []uint16
	GeneralSymbol               []uint16

	LastNameID  uint16
	FirstNameID uint16
	NumberID    uint16
	UnknownID   uint16
}

// StaticPosMatcher is a FlatSet-per-predicate implementation of PosMatcher.
type StaticPosMatcher struct {
	sets        Sets
	number      *container.FlatSet[uint16]
	kanjiNumber *container.FlatSet[uint16]
	counterSfx  *container.FlatSet[uint16]
	uniqueNoun  *container.FlatSet[uint16]
	functional  *container.FlatSet[uint16]
	suffixWord  *container.FlatSet[uint16]
	contentNoun *container.FlatSet[uint16]
	pronoun     *container.FlatSet[uint16]
	acceptPart  *container.FlatSet[uint16]
	kagyoTa     *container.FlatSet[uint16]
	wagyoRenyo  *container.FlatSet[uint16]
	teSuffix    *container.FlatSet[uint16]
	verbSuffix  *container.FlatSet[uint16]
	wcFillerPfx *container.FlatSet[uint16]
	wcNounPfx   *container.FlatSet[uint16]
	wcNounSfx   *container.FlatSet[uint16]
	wcVerbPfx   *container.FlatSet[uint16]
	wcVerbSfx   *container.FlatSet[uint16]
	isolated    *container.FlatSet[uint16]
	generalSym  *container.FlatSet[uint16]
}

func buildSet(ids []uint16) *container.FlatSet[uint16] {
	return container.NewFlatSet(ids, cmpU16)
}

// NewStaticPosMatcher builds a StaticPosMatcher from sets.
func NewStaticPosMatcher(sets Sets) *StaticPosMatcher {
	return &StaticPosMatcher{
		sets:        sets,
		number:      buildSet(sets.Number),
		kanjiNumber: buildSet(sets.KanjiNumber),
		counterSfx:  buildSet(sets.CounterSuffixWord),
		uniqueNoun:  buildSet(sets.UniqueNoun),
		functional:  buildSet(sets.Functional),
		suffixWord:  buildSet(sets.SuffixWord),
		contentNoun: buildSet(sets.ContentNoun),
		pronoun:     buildSet(sets.Pronoun),
		acceptPart:  buildSet(sets.AcceptableParticleAtBegin),
		kagyoTa:     buildSet(sets.KagyoTaConnectionVerb),
		wagyoRenyo:  buildSet(sets.WagyoRenyoConnectionVerb),
		teSuffix:    buildSet(sets.TeSuffix),
		verbSuffix:  buildSet(sets.VerbSuffix),
		wcFillerPfx: buildSet(sets.WeakCompoundFillerPrefix),
		wcNounPfx:   buildSet(sets.WeakCompoundNounPrefix),
		wcNounSfx:   buildSet(sets.WeakCompoundNounSuffix),
		wcVerbPfx:   buildSet(sets.WeakCompoundVerbPrefix),
		wcVerbSfx:   buildSet(sets.WeakCompoundVerbSuffix),
		isolated:    buildSet(sets.IsolatedWord),
		generalSym:  buildSet(sets.GeneralSymbol),
	}
}

func (m *StaticPosMatcher) IsNumber(id uint16) bool            { return m.number.Contains(id) }
func (m *StaticPosMatcher) IsKanjiNumber(id uint16) bool        { return m.kanjiNumber.Contains(id) }
func (m *StaticPosMatcher) IsCounterSuffixWord(id uint16) bool  { return m.counterSfx.Contains(id) }
func (m *StaticPosMatcher) IsUniqueNoun(id uint16) bool         { return m.uniqueNoun.Contains(id) }
func (m *StaticPosMatcher) IsFunctional(id uint16) bool         { return m.functional.Contains(id) }
func (m *StaticPosMatcher) IsSuffixWord(id uint16) bool         { return m.suffixWord.Contains(id) }
func (m *StaticPosMatcher) IsContentNoun(id uint16) bool        { return m.contentNoun.Contains(id) }
func (m *StaticPosMatcher) IsPronoun(id uint16) bool            { return m.pronoun.Contains(id) }
func (m *StaticPosMatcher) IsAcceptableParticleAtBeginOfSegment(id uint16) bool {
	return m.acceptPart.Contains(id)
}
func (m *StaticPosMatcher) IsKagyoTaConnectionVerb(id uint16) bool    { return m.kagyoTa.Contains(id) }
func (m *StaticPosMatcher) IsWagyoRenyoConnectionVerb(id uint16) bool { return m.wagyoRenyo.Contains(id) }
func (m *StaticPosMatcher) IsTeSuffix(id uint16) bool                 { return m.teSuffix.Contains(id) }
func (m *StaticPosMatcher) IsVerbSuffix(id uint16) bool               { return m.verbSuffix.Contains(id) }
func (m *StaticPosMatcher) IsWeakCompoundFillerPrefix(id uint16) bool { return m.wcFillerPfx.Contains(id) }
func (m *StaticPosMatcher) IsWeakCompoundNounPrefix(id uint16) bool   { return m.wcNounPfx.Contains(id) }
func (m *StaticPosMatcher) IsWeakCompoundNounSuffix(id uint16) bool   { return m.wcNounSfx.Contains(id) }
func (m *StaticPosMatcher) IsWeakCompoundVerbPrefix(id uint16) bool   { return m.wcVerbPfx.Contains(id) }
func (m *StaticPosMatcher) IsWeakCompoundVerbSuffix(id uint16) bool   { return m.wcVerbSfx.Contains(id) }
func (m *StaticPosMatcher) IsIsolatedWord(id uint16) bool             { return m.isolated.Contains(id) }
func (m *StaticPosMatcher) IsGeneralSymbol(id uint16) bool            { return m.generalSym.Contains(id) }

func (m *StaticPosMatcher) GetLastNameID() uint16  { return m.sets.LastNameID }
func (m *StaticPosMatcher) GetFirstNameID() uint16 { return m.sets.FirstNameID }
func (m *StaticPosMatcher) GetNumberID() uint16    { return m.sets.NumberID }
func (m *StaticPosMatcher) GetUnknownID() uint16   { return m.sets.UnknownID }
