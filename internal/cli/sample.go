package cli

import (
	"context"
	"fmt"
	"strings"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/canon/internal/canon"
	"github.com/calvinalkan/canon/internal/catalog"
	"github.com/calvinalkan/canon/internal/sample"
)

// SampleCmd returns the sample command.
func SampleCmd(app *App) *Command {
	flags := flag.NewFlagSet("sample", flag.ContinueOnError)
	addOutputFlag(flags)
	flags.StringArrayP("function", "f", nil, "Sample only function `name` (repeatable)")
	flags.Bool("list", false, "List the built-in functions and exit")

	return &Command{
		Flags: flags,
		Usage: "sample [flags]",
		Short: "Sample built-in activation functions",
		Long: `Evaluate the built-in activation functions over a fixed grid and print
assertions for the results. Parameterless functions are sampled at
x = -1, -0.75, ..., 1. Functions with one or two parameters are also swept
over five values per parameter. Functions with more parameters are skipped.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execSample(ctx, o, app, flags)
		},
	}
}

func execSample(ctx context.Context, o *IO, app *App, flags *flag.FlagSet) error {
	if list, _ := flags.GetBool("list"); list {
		for _, fn := range catalog.Builtin() {
			o.Printf("%-20s %s\n", fn.Name, signature(fn))
		}

		return nil
	}

	names, _ := flags.GetStringArray("function")

	fns, err := catalog.Select(names)
	if err != nil {
		return err
	}

	acc := canon.New(app.Config.Options(app.Logger))
	out := newOutput(app.Config.RenderStyle())

	report, err := sample.New(acc, out.add, app.Logger).Run(ctx, fns)
	if err != nil {
		return err
	}

	// Only functions requested by name warn when skipped.
	if len(names) > 0 {
		for _, name := range report.Skipped {
			o.Warn(name+" skipped", "functions with more than two parameters cannot be sampled")
		}
	}

	app.Logger.Debug("sampled functions",
		"sampled", report.Sampled, "calls", report.Calls, "skipped", len(report.Skipped))

	return out.commit(o, app.FS, outputPath(app, flags))
}

// signature renders fn as e.g. "(x, tilt in [-1, 1] uniform)".
func signature(fn catalog.Function) string {
	parts := []string{"x"}

	for _, p := range fn.Params {
		init := string(p.InitType)
		if init == "" {
			init = string(catalog.InitUniform)
		}

		parts = append(parts, fmt.Sprintf("%s in [%g, %g] %s", p.Name, p.Min, p.Max, init))
	}

	return "(" + strings.Join(parts, ", ") + ")"
}
