package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/wudi/jxlkit/cmm"
)

type options struct {
	encoding string
	outPath  string
	goPkg    string
	goVar    string
}

func main() {
	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		fmt.Fprintf(os.Stderr, "gen_icc: %v\n", err)
		os.Exit(2)
	}
	if err := run(opts, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "gen_icc: %v\n", err)
		os.Exit(1)
	}
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("gen_icc", flag.ContinueOnError)
	fs.StringVar(&opts.encoding, "encoding", "srgb", "Profile to synthesize: srgb, linear or linear-gray")
	fs.StringVar(&opts.outPath, "o", "", "Write the profile to this .icc file instead of printing Go source")
	fs.StringVar(&opts.goPkg, "package", "profiles", "Package name of the generated Go source")
	fs.StringVar(&opts.goVar, "var", "ICCProfile", "Variable name of the generated Go source")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if fs.NArg() != 0 {
		return options{}, errors.New("unexpected arguments")
	}
	if _, err := encodingFor(opts.encoding); err != nil {
		return options{}, err
	}
	return opts, nil
}

func encodingFor(name string) (cmm.ColorEncoding, error) {
	switch name {
	case "srgb":
		return cmm.SRGB(), nil
	case "linear":
		return cmm.LinearSRGB(false), nil
	case "linear-gray":
		return cmm.LinearSRGB(true), nil
	}
	return cmm.ColorEncoding{}, fmt.Errorf("unknown encoding %q", name)
}

func run(opts options, stdout io.Writer) error {
	enc, err := encodingFor(opts.encoding)
	if err != nil {
		return err
	}
	data, err := enc.ICC()
	if err != nil {
		return fmt.Errorf("synthesize %s: %w", enc.Description(), err)
	}
	if opts.outPath != "" {
		return os.WriteFile(opts.outPath, data, 0o644)
	}
	writeGoSource(stdout, opts.goPkg, opts.goVar, enc.Description(), data)
	return nil
}

func writeGoSource(w io.Writer, pkg, name, desc string, data []byte) {
	fmt.Fprintf(w, "// Code generated by gen_icc; DO NOT EDIT.\n\npackage %s\n\n", pkg)
	fmt.Fprintf(w, "// %s is the %s profile.\nvar %s = []byte{", name, desc, name)
	for i, b := range data {
		if i%12 == 0 {
			fmt.Fprintf(w, "\n\t")
		}
		fmt.Fprintf(w, "0x%02x, ", b)
	}
	fmt.Fprintf(w, "\n}\n")
}
