package cli

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/leofalp/sdtt/core/overview"
	"github.com/leofalp/sdtt/core/report"
	"github.com/leofalp/sdtt/internal/render"
	"github.com/leofalp/sdtt/pkg/sdtt"
)

// listToken is the value of a bare --presets or --schemas flag.
const listToken = "\x00list"

var (
	errNoInput       = errors.New("no input: use --url or --file (see --help)")
	errURLAndFile    = errors.New("use either --url or --file, not both")
	errBothBareFlags = errors.New("arguments are ambiguous when both --presets and --schemas have no value; use --presets=... or --schemas=...")
)

type testCmd struct {
	*globals

	urls    []string
	file    string
	presets []string
	schemas []string
	output  string
	verbose bool
}

func (t *testCmd) bindFlags(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringArrayVarP(&t.urls, "url", "u", nil, "URL to test (repeatable)")
	f.StringVarP(&t.file, "file", "f", "", "local HTML file to test")
	f.StringSliceVarP(&t.presets, "presets", "p", nil, "comma-separated presets; without a value, list them")
	f.StringSliceVarP(&t.schemas, "schemas", "s", nil, "comma-separated schemas (format:Name); without a value, list them")
	f.StringVarP(&t.output, "output", "o", "text", "output format: text or json")
	f.BoolVarP(&t.verbose, "verbose", "V", false, "print the value of every present field")

	f.Lookup("presets").NoOptDefVal = listToken
	f.Lookup("schemas").NoOptDefVal = listToken
}

// selections splits the flag values into tokens and listing requests.
// Positional arguments belong to the one bare list flag, so that
// "-p SocialMedia" works like "-p=SocialMedia".
func (t *testCmd) selections(args []string) (presets, schemas []string, listPresets, listSchemas bool, err error) {
	presets, barePresets := stripList(t.presets)
	schemas, bareSchemas := stripList(t.schemas)

	switch {
	case len(args) == 0:
	case barePresets && bareSchemas:
		return nil, nil, false, false, errBothBareFlags
	case barePresets:
		presets = append(presets, args...)
		barePresets = false
	case bareSchemas:
		schemas = append(schemas, args...)
		bareSchemas = false
	default:
		return nil, nil, false, false, fmt.Errorf("unexpected arguments %q", args)
	}
	return presets, schemas, barePresets, bareSchemas, nil
}

func stripList(values []string) (tokens []string, bare bool) {
	for _, v := range values {
		if v == listToken {
			bare = true
			continue
		}
		tokens = append(tokens, v)
	}
	return tokens, bare
}

func (t *testCmd) run(cmd *cobra.Command, args []string) error {
	format, err := render.ParseFormat(t.output)
	if err != nil {
		return err
	}
	presets, schemas, listPresets, listSchemas, err := t.selections(args)
	if err != nil {
		return err
	}

	_, _, client, err := t.setup(slog.LevelWarn)
	if err != nil {
		return err
	}
	defer client.Close()

	if listPresets || listSchemas {
		if len(presets) > 0 || len(schemas) > 0 || len(t.urls) > 0 || t.file != "" {
			return errors.New("listing takes no other input; drop the value-less --presets or --schemas")
		}
		return t.list(client, format, listPresets, listSchemas)
	}

	if len(t.urls) > 0 && t.file != "" {
		return errURLAndFile
	}
	if len(t.urls) == 0 && t.file == "" {
		return errNoInput
	}

	// Every bad token is reported before anything is loaded, followed by
	// what is available.
	if _, err := client.Selections(presets, schemas); err != nil {
		color := render.ColorEnabled(t.stderr)
		render.Errors(t.stderr, flatten(err), color)
		fmt.Fprintln(t.stderr)
		_ = t.list(client, render.FormatText, true, true)
		return errReported
	}

	reqs := make([]sdtt.Request, 0, len(t.urls)+1)
	for _, u := range t.urls {
		reqs = append(reqs, sdtt.Request{URL: u, Presets: presets, Schemas: schemas, Render: t.render})
	}
	if t.file != "" {
		reqs = append(reqs, sdtt.Request{File: t.file, Presets: presets, Schemas: schemas})
	}

	if len(reqs) == 1 {
		return t.single(cmd.Context(), client, reqs[0], format)
	}
	return t.batch(cmd.Context(), client, reqs, format)
}

func (t *testCmd) single(ctx context.Context, client *sdtt.Client, req sdtt.Request, format render.Format) error {
	rep, err := client.Test(ctx, req)
	var failed *report.ValidationFailedError
	if err != nil && !errors.As(err, &failed) {
		return err
	}
	opts := render.Options{Color: render.ColorEnabled(t.stdout), Verbose: t.verbose}
	if rerr := render.Report(t.stdout, rep, format, opts); rerr != nil {
		return rerr
	}
	if err != nil {
		return errReported
	}
	return nil
}

// batchOutput is the JSON form of a multi-URL run.
type batchOutput struct {
	Passed  bool             `json:"passed"`
	Totals  overview.Totals  `json:"totals"`
	Reports []*report.Report `json:"reports"`
	Errors  []batchError     `json:"errors,omitempty"`
}

type batchError struct {
	Input report.Input `json:"input"`
	Error string       `json:"error"`
}

func (t *testCmd) batch(ctx context.Context, client *sdtt.Client, reqs []sdtt.Request, format render.Format) error {
	summary := &overview.Overview{}
	ctx = summary.ToContext(ctx)
	results := client.TestMany(ctx, reqs)

	var failed *report.ValidationFailedError
	if format == render.FormatJSON {
		out := batchOutput{Passed: summary.Passed(), Totals: summary.Totals()}
		for _, res := range results {
			if res.Report != nil {
				out.Reports = append(out.Reports, res.Report)
			}
			if res.Err != nil && !errors.As(res.Err, &failed) {
				out.Errors = append(out.Errors, batchError{Input: res.Request.Input(), Error: res.Err.Error()})
			}
		}
		if err := render.JSON(t.stdout, out); err != nil {
			return err
		}
	} else {
		opts := render.Options{Color: render.ColorEnabled(t.stdout), Verbose: t.verbose}
		for i, res := range results {
			if i > 0 {
				fmt.Fprintln(t.stdout)
			}
			if res.Report != nil {
				if err := render.Report(t.stdout, res.Report, render.FormatText, opts); err != nil {
					return err
				}
			}
			if res.Err != nil && !errors.As(res.Err, &failed) {
				fmt.Fprintf(t.stdout, "Testing %s\n", res.Request.Input())
				render.Errors(t.stdout, []error{res.Err}, opts.Color)
			}
		}
		totals := summary.Totals()
		fmt.Fprintf(t.stdout, "\nRuns: %d passed, %d failed, %d errors in %s\n",
			totals.Passed, totals.Failed, totals.Errors, summary.ExecutionDuration().Round(time.Millisecond))
	}

	if !summary.Passed() {
		return errReported
	}
	return nil
}

func (t *testCmd) list(client *sdtt.Client, format render.Format, presets, schemas bool) error {
	if presets {
		if reg := client.Presets(); reg != nil {
			if err := render.Presets(t.stdout, reg, format); err != nil {
				return err
			}
		}
	}
	if presets && schemas && format == render.FormatText {
		fmt.Fprintln(t.stdout)
	}
	if schemas {
		return render.Schemas(t.stdout, client.Schemas(), format)
	}
	return nil
}

// flatten expands joined errors into their leaves.
func flatten(err error) []error {
	if joined, ok := err.(interface{ Unwrap() []error }); ok {
		var out []error
		for _, e := range joined.Unwrap() {
			out = append(out, flatten(e)...)
		}
		return out
	}
	return []error{err}
}
