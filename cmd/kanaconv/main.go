// Command kanaconv is a small demo/smoke-test CLI over the converter
// core: it converts a reading into ranked kanji candidates and can print a
// per-segment summary of the result (segment count, total candidates, and
// each segment's key and top candidate). It is not the production entry point
// for any real IME — it exists to drive internal/convert end to end with
// a human in the loop.
//
// Dispatch follows the manual os.Args style used elsewhere in this
// toolchain: no flag package, a small alias table, --help/--version
// handled before any subcommand logic runs.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"kanaconv/internal/candidate"
	"kanaconv/internal/request"
)

const version = "0.1.0"

var commandAliases = map[string]string{
	"c": "convert",
	"d": "lattice-dump",
	"p": "predict",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		showUsage()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "--help", "-h", "help":
		showUsage()
	case "--version", "-v", "version":
		fmt.Println("kanaconv", version)
	case "convert":
		runConvert(args[1:], request.Conversion)
	case "predict":
		runConvert(args[1:], request.Prediction)
	case "lattice-dump":
		runLatticeDump(args[1:])
	default:
		fmt.Fprintf(os.Stderr, "kanaconv: unknown command %q\n\n", args[0])
		showUsage()
		os.Exit(1)
	}
}

func showUsage() {
	fmt.Println(`kanaconv - lattice-based reading-to-kanji conversion demo

Usage:
  kanaconv convert <reading>       convert a reading to ranked candidates
  kanaconv predict <reading>       same, using the prediction search path
  kanaconv lattice-dump <reading>  show each segment's key and top candidate
  kanaconv version
  kanaconv help

Aliases: c=convert, p=predict, d=lattice-dump`)
}

func colorize(code, s string) string {
	if !isatty.IsTerminal(os.Stdout.Fd()) {
		return s
	}
	return "\x1b[" + code + "m" + s + "\x1b[0m"
}

func runConvert(args []string, reqType request.Type) {
	reading := joinReading(args)
	if reading == "" {
		fmt.Fprintln(os.Stderr, "kanaconv: need a reading to convert")
		os.Exit(1)
	}

	c := newDemoConverter()
	req := request.New(reqType)
	segs := &candidate.Segments{Conversion: []candidate.Segment{{Key: reading, Type: candidate.Free}}}

	if err := c.ConvertForRequest(context.Background(), req, segs); err != nil {
		fmt.Fprintln(os.Stderr, colorize("31", "kanaconv: conversion failed: "+err.Error()))
		os.Exit(1)
	}

	for i, seg := range segs.Conversion {
		fmt.Printf("segment %d %q (%s):\n", i, seg.Key, humanize.Comma(int64(len(seg.Candidates))))
		for j, cand := range seg.Candidates {
			marker := "  "
			if j == 0 {
				marker = colorize("32", "->")
			}
			fmt.Printf("  %s %2d. %-12s cost=%s\n", marker, j+1, cand.Value, humanize.Comma(int64(cand.Cost)))
		}
	}
}

func runLatticeDump(args []string) {
	reading := joinReading(args)
	if reading == "" {
		fmt.Fprintln(os.Stderr, "kanaconv: need a reading to dump")
		os.Exit(1)
	}

	c := newDemoConverter()
	req := request.New(request.Conversion)
	segs := &candidate.Segments{Conversion: []candidate.Segment{{Key: reading, Type: candidate.Free}}}

	if err := c.ConvertForRequest(context.Background(), req, segs); err != nil {
		fmt.Fprintln(os.Stderr, colorize("31", "kanaconv: lattice build failed: "+err.Error()))
		os.Exit(1)
	}

	total := 0
	for _, seg := range segs.Conversion {
		total += len(seg.Candidates)
	}
	fmt.Printf("reading %q -> %d segment(s), %s candidate slot(s) total\n",
		reading, len(segs.Conversion), humanize.Comma(int64(total)))
	for i, seg := range segs.Conversion {
		top := "(no candidates)"
		if len(seg.Candidates) > 0 {
			top = seg.Candidates[0].Value
		}
		fmt.Printf("  segment %d: key=%q top=%s\n", i, seg.Key, top)
	}
}

func joinReading(args []string) string {
	out := ""
	for i, a := range args {
		if i > 0 {
			out += " "
		}
		out += a
	}
	return out
}
