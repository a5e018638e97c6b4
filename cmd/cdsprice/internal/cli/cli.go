// Package cli holds the flag handling and JSON output shared by cdsprice subcommands.
package cli

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/meenmo/credlib/cmd/cdsprice/internal/input"
	"github.com/meenmo/credlib/config"
	"github.com/meenmo/credlib/logging"
	"github.com/meenmo/credlib/measure"
	"github.com/meenmo/credlib/recorder"
	"github.com/meenmo/credlib/utils"
)

// Places is the number of decimals kept in printed measures.
const Places = 8

// Env is what a subcommand works with after flag parsing.
type Env struct {
	Doc    *input.Document
	Config config.Config
	Record bool
	Replay bool
}

// Output is the JSON result schema shared by all subcommands.
type Output struct {
	Target        string                     `json:"target,omitempty"`
	ValuationDate string                     `json:"valuation_date,omitempty"`
	Measures      map[string]decimal.Decimal `json:"measures,omitempty"`
	Jacobian      []decimal.Decimal          `json:"jacobian,omitempty"`
	Error         string                     `json:"error,omitempty"`
}

// Parse handles -input, -config, -record, -replay and -h for the named subcommand. done is
// true when the caller should return code immediately.
func Parse(name string, args []string, stdin io.Reader, stdout, stderr io.Writer, usage func(io.Writer)) (env *Env, code int, done bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(stderr)
	inputPath := fs.String("input", "", "JSON or YAML input path (optional; if set, ignores stdin)")
	configPath := fs.String("config", "", "config file (TOML, YAML or JSON)")
	record := fs.Bool("record", false, "persist results with the configured recorder")
	replay := fs.Bool("replay", false, "print the last recorded measures instead of valuing")
	help := fs.Bool("h", false, "Show help")
	fs.BoolVar(help, "help", false, "Show help")

	if err := fs.Parse(args); err != nil {
		return nil, 2, true
	}
	if *help {
		usage(stderr)
		return nil, 0, true
	}

	path := strings.TrimSpace(*inputPath)
	if path == "" {
		if f, ok := stdin.(*os.File); ok {
			if stat, err := f.Stat(); err == nil && (stat.Mode()&os.ModeCharDevice) != 0 {
				usage(stderr)
				return nil, 2, true
			}
		}
	}

	cfg, err := config.Load(strings.TrimSpace(*configPath))
	if err != nil {
		return nil, WriteError(stdout, fmt.Sprintf("failed to load config: %v", err)), true
	}
	config.SetConfig(cfg)
	if err := logging.Init(cfg.Logging); err != nil {
		return nil, WriteError(stdout, fmt.Sprintf("failed to init logging: %v", err)), true
	}

	data, err := input.Read(stdin, path)
	if err != nil {
		return nil, WriteError(stdout, fmt.Sprintf("failed to read input: %v", err)), true
	}
	doc, err := input.Decode(data, path)
	if err != nil {
		return nil, WriteError(stdout, err.Error()), true
	}
	return &Env{Doc: doc, Config: cfg, Record: *record, Replay: *replay}, 0, false
}

// Round renders ms as decimals rounded to Places, keeping only names in filter
// when filter is non-empty.
func Round(ms *measure.Set, filter []string) map[string]decimal.Decimal {
	keep := make(map[string]bool, len(filter))
	for _, f := range filter {
		keep[strings.ToLower(f)] = true
	}
	out := make(map[string]decimal.Decimal, ms.Len())
	ms.Each(func(name string, value float64) {
		if len(keep) > 0 && !keep[strings.ToLower(name)] {
			return
		}
		out[name] = decimal.NewFromFloat(value).Round(Places)
	})
	return out
}

// RoundVector renders v as decimals rounded to Places.
func RoundVector(v []float64) []decimal.Decimal {
	out := make([]decimal.Decimal, len(v))
	for i, x := range v {
		out[i] = decimal.NewFromFloat(x).Round(Places)
	}
	return out
}

// Persist records ms when recording was requested. Failures are logged, not fatal.
func (e *Env) Persist(target string, valuationDate time.Time, ms *measure.Set) {
	if !e.Record {
		return
	}
	rc := e.Config.Recorder
	rc.Enabled = true
	rec, err := recorder.New(rc)
	if err != nil {
		logging.Get().Warn("recorder unavailable", "error", err)
		return
	}
	defer rec.Close()
	if err := rec.Record(context.Background(), &recorder.Valuation{
		RunAt:         time.Now(),
		Instrument:    target,
		ValuationDate: valuationDate,
		Measures:      ms,
	}); err != nil {
		logging.Get().Warn("record failed", "target", target, "error", err)
	}
}

// Replayed loads the most recent recorded measures of target on valuationDate from
// the configured SQL recorder.
func (e *Env) Replayed(target string, valuationDate time.Time) (*measure.Set, error) {
	rec, err := recorder.NewSQLRecorder(e.Config.Recorder.Driver, e.Config.Recorder.DSN)
	if err != nil {
		return nil, err
	}
	defer rec.Close()
	ms, err := rec.Load(context.Background(), target, valuationDate)
	if err != nil {
		return nil, err
	}
	if ms.Len() == 0 {
		return nil, fmt.Errorf("no recorded valuation of %s on %s", target, utils.FormatDate(valuationDate))
	}
	return ms, nil
}

// Write prints out as one JSON line.
func Write(stdout io.Writer, out *Output) int {
	outputBytes, _ := json.Marshal(out)
	fmt.Fprintln(stdout, string(outputBytes))
	return 0
}

// WriteError prints {"error": msg} and returns exit code 1.
func WriteError(stdout io.Writer, msg string) int {
	outputBytes, _ := json.Marshal(Output{Error: msg})
	fmt.Fprintln(stdout, string(outputBytes))
	return 1
}
