package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/meenmo/credlib/cmd/cdsprice/internal/portfolio"
	"github.com/meenmo/credlib/cmd/cdsprice/internal/sensitivity"
	"github.com/meenmo/credlib/cmd/cdsprice/internal/single"
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		usage(stderr)
		return 2
	}

	switch strings.ToLower(strings.TrimSpace(args[0])) {
	case "single":
		return single.Run(args[1:], stdin, stdout, stderr)
	case "basket":
		return portfolio.Run(args[1:], stdin, stdout, stderr)
	case "jacobian", "jac":
		return sensitivity.Run(args[1:], stdin, stdout, stderr)
	case "-h", "--help", "help":
		usage(stdout)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n\n", args[0])
		usage(stderr)
		return 2
	}
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage: cdsprice <command> [options]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Commands:")
	fmt.Fprintln(w, "  single    Value one CDS, calibrating to its quote")
	fmt.Fprintln(w, "  basket    Value a weighted CDS basket")
	fmt.Fprintln(w, "  jacobian  Discount-curve Jacobian of PV or FairPremium")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Run `cdsprice <command> -h` for command-specific help.")
}
