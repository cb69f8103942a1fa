package main

import (
	"kanaconv/internal/connector"
	"kanaconv/internal/convert"
	"kanaconv/internal/dictionary"
	"kanaconv/internal/posmatcher"
	"kanaconv/internal/segmenter"
)

// demoPosIDs. Zero is reserved for BOS/EOS in the lattice package; the rest
// are arbitrary small ids distinct enough to exercise POS-aware behavior
// (the number class in particular) without a real id table.
const (
	posNoun     uint16 = 1
	posVerb     uint16 = 2
	posParticle uint16 = 3
	posNumber   uint16 = 4
	posUnknown  uint16 = 5
)

// demoTokens is a small hand-picked vocabulary, enough to show multi-
// segment conversion and homophone competition without needing a real
// dictionary source wired in (see internal/dictsource for that).
var demoTokens = []dictionary.Token{
	{Key: "わたし", Value: "私", LID: posNoun, RID: posNoun, WCost: 500},
	{Key: "わたし", Value: "渡し", LID: posNoun, RID: posNoun, WCost: 3000},
	{Key: "は", Value: "は", LID: posParticle, RID: posParticle, WCost: 200},
	{Key: "にほん", Value: "日本", LID: posNoun, RID: posNoun, WCost: 400},
	{Key: "ご", Value: "語", LID: posNoun, RID: posNoun, WCost: 600},
	{Key: "を", Value: "を", LID: posParticle, RID: posParticle, WCost: 200},
	{Key: "はなす", Value: "話す", LID: posVerb, RID: posVerb, WCost: 700},
	{Key: "きょう", Value: "今日", LID: posNoun, RID: posNoun, WCost: 450},
	{Key: "きょう", Value: "京", LID: posNoun, RID: posNoun, WCost: 4200},
}

// newDemoConverter wires a Converter from the fixed vocabulary above plus
// static POS/segmenter/connector tables with every transition left at zero
// cost: the demo's purpose is to show lattice construction and candidate
// packaging, not to reproduce a real language model's rankings.
func newDemoConverter() *convert.Converter {
	dict := dictionary.NewInMemoryDictionary(demoTokens)
	pos := posmatcher.NewStaticPosMatcher(posmatcher.Sets{
		Number:    []uint16{posNumber},
		NumberID:  posNumber,
		UnknownID: posUnknown,
	})
	seg := segmenter.NewStaticSegmenter(nil, nil, nil)
	conn := connector.NewMatrix(make([]int16, 8*8), 8, 1)
	return &convert.Converter{Dict: dict, Conn: conn, Pos: pos, Segmenter: seg}
}
