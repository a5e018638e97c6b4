// Package single values one CDS, calibrating to its market quote when given.
package single

import (
	"fmt"
	"io"

	"github.com/meenmo/credlib/cmd/cdsprice/internal/cli"
	"github.com/meenmo/credlib/measure"
	"github.com/meenmo/credlib/utils"
)

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	env, code, done := cli.Parse("single", args, stdin, stdout, stderr, usage)
	if done {
		return code
	}

	ws, err := env.Doc.Build()
	if err != nil {
		return cli.WriteError(stdout, err.Error())
	}
	p, err := ws.Pricer(env.Doc.Target)
	if err != nil {
		return cli.WriteError(stdout, err.Error())
	}

	var ms *measure.Set
	if env.Replay {
		ms, err = env.Replayed(p.Name(), ws.ValuationDate)
		if err != nil {
			return cli.WriteError(stdout, fmt.Sprintf("failed to replay %s: %v", p.Name(), err))
		}
	} else {
		ms, err = p.Value(ws.ValuationDate, env.Config.Pricer, ws.Market, env.Config.Calibration)
		if err != nil {
			return cli.WriteError(stdout, fmt.Sprintf("failed to value %s: %v", p.Name(), err))
		}
		env.Persist(p.Name(), ws.ValuationDate, ms)
	}

	return cli.Write(stdout, &cli.Output{
		Target:        p.Name(),
		ValuationDate: utils.FormatDate(ws.ValuationDate),
		Measures:      cli.Round(ms, env.Doc.Measures),
	})
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  cdsprice single < input.json")
	fmt.Fprintln(w, "  cdsprice single -input /path/to/input.yaml [-config credlib.yaml] [-record | -replay]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Value one CDS (the input's target, or its only instrument). When the instrument")
	fmt.Fprintln(w, "is quoted the hazard curve is calibrated and Market* measures are added.")
	fmt.Fprintln(w, "With -replay the last recorded measures for the target and valuation date are printed.")
}
