package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/wudi/jxlkit/decode"
)

type options struct {
	inPath  string
	outPath string
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "extract_icc: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "extract_icc: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	fs := flag.NewFlagSet("extract_icc", flag.ContinueOnError)
	fs.Usage = func() {
		fmt.Fprintf(fs.Output(), "Usage: extract_icc <in.jxl> <out.icc>\n")
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() != 2 {
		fs.Usage()
		return options{}, errors.New("expected input and output paths")
	}
	return options{inPath: fs.Arg(0), outPath: fs.Arg(1)}, nil
}

func run(opts options) error {
	data, err := os.ReadFile(opts.inPath)
	if err != nil {
		return fmt.Errorf("read input: %w", err)
	}
	info, err := decode.New(decode.Config{}).Probe(context.Background(), data)
	if err != nil {
		return fmt.Errorf("probe: %w", err)
	}
	if err := os.WriteFile(opts.outPath, info.ICC, 0o644); err != nil {
		return fmt.Errorf("write profile: %w", err)
	}
	name := "unparseable"
	if p, err := info.Profile(); err == nil {
		name = p.Name()
	}
	fmt.Printf("Extracted ICC profile: %d bytes (%s)\n", len(info.ICC), name)
	return nil
}
