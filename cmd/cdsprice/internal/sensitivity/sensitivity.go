// Package sensitivity prints discount-curve Jacobians of PV or FairPremium.
package sensitivity

import (
	"fmt"
	"io"

	"github.com/meenmo/credlib/basket"
	"github.com/meenmo/credlib/cmd/cdsprice/internal/cli"
	"github.com/meenmo/credlib/jacobian"
	"github.com/meenmo/credlib/utils"
)

func Run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	env, code, done := cli.Parse("jacobian", args, stdin, stdout, stderr, usage)
	if done {
		return code
	}

	ws, err := env.Doc.Build()
	if err != nil {
		return cli.WriteError(stdout, err.Error())
	}
	name := env.Doc.Measure
	if name == "" {
		name = "PV"
	}

	var (
		target string
		jac    *jacobian.Jacobian
	)
	if env.Doc.Basket != nil && (env.Doc.Target == "" || env.Doc.Target == env.Doc.Basket.Name) {
		b, err := ws.Basket(env.Doc.Basket)
		if err != nil {
			return cli.WriteError(stdout, err.Error())
		}
		mp, err := basket.ParseMissingPolicy(env.Config.Basket.MissingPolicy)
		if err != nil {
			return cli.WriteError(stdout, err.Error())
		}
		target = b.Name()
		jac, err = b.WithMissingPolicy(mp).Jacobian(ws.ValuationDate, env.Config.Pricer, ws.Market, name)
		if err != nil {
			return cli.WriteError(stdout, fmt.Sprintf("failed to compute %s Jacobian: %v", name, err))
		}
	} else {
		p, err := ws.Pricer(env.Doc.Target)
		if err != nil {
			return cli.WriteError(stdout, err.Error())
		}
		target = p.Name()
		jac, err = p.ComputeJacobian(ws.ValuationDate, env.Config.Pricer, ws.Market, name)
		if err != nil {
			return cli.WriteError(stdout, fmt.Sprintf("failed to compute %s Jacobian: %v", name, err))
		}
	}

	return cli.Write(stdout, &cli.Output{
		Target:        target,
		ValuationDate: utils.FormatDate(ws.ValuationDate),
		Jacobian:      cli.RoundVector(jac.Values()),
	})
}

func usage(w io.Writer) {
	fmt.Fprintln(w, "Usage:")
	fmt.Fprintln(w, "  cdsprice jacobian < input.json")
	fmt.Fprintln(w, "  cdsprice jacobian -input /path/to/input.yaml [-config credlib.yaml]")
	fmt.Fprintln(w)
	fmt.Fprintln(w, "Print d(measure)/d(discount zero rate) per curve node. measure is PV (default)")
	fmt.Fprintln(w, "or FairPremium; target may name an instrument or the basket.")
}
