// Package portfolio values a weighted basket of CDS.
package portfolio

import (
	"fmt"
	"io"

	"github.com/meenmo/credlib/basket"
	"github.com/meenmo/credlib/cmd/cdsprice/internal/cli"
	"github.com/meenmo/credlib/utils"
)

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	env, code, done := cli.Parse("basket", args, stdin, stdout, stderr, usage)
	if done {
		return code
	}

	ws, err := env.Doc.Build()
	if err != nil {
		return cli.WriteError(stdout, err.Error())
	}
	b, err := ws.Basket(env.Doc.Basket)
	if err != nil {
		return cli.WriteError(stdout, err.Error())
	}
	mp, err := basket.ParseMissingPolicy(env.Config.Basket.MissingPolicy)
	if err != nil {
		return cli.WriteError(stdout, err.Error())
	}
	b.WithMissingPolicy(mp)

	ms, err := b.Value(ws.ValuationDate, env.Config.Pricer, ws.Market, env.Config.Calibration)
	if err != nil {
		return cli.WriteError(stdout, fmt.Sprintf("failed to value basket %s: %v", b.Name(), err))
	}
	env.Persist(b.Name(), ws.ValuationDate, ms)

	return cli.Write(stdout, &cli.Output{
		Target:        b.Name(),
		ValuationDate: utils.FormatDate(ws.ValuationDate),
		Measures:      cli.Round(ms, env.Doc.Measures),
	})
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  cdsprice basket < input.json")
	fmt.Fprintln(w, "  cdsprice basket -input /path/to/input.yaml [-config credlib.yaml] [-record]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Value every basket component and aggregate: additive measures are summed,")
	fmt.Fprintln(w, "intensive ones weighted. Without a basket section all instruments weigh equally.")
}
