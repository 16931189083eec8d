package cli

import (
	"context"
	"strconv"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(app *App) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			return execPrintConfig(o, app)
		},
	}
}

func execPrintConfig(o *IO, app *App) error {
	cfg := app.Config
	opts := cfg.Options(nil)

	o.Println("effective_cwd=" + cfg.EffectiveCwd)
	o.Println("style=" + string(cfg.RenderStyle()))
	o.Println("label_prefix=" + strconv.Quote(cfg.LabelPrefix))
	o.Println("norm_epsilon=" + strconv.FormatFloat(opts.NormEpsilon, 'g', -1, 64))
	o.Println("dedupe_literals=" + strconv.FormatBool(opts.DedupeLiterals))

	if cfg.OutputAbs != "" {
		o.Println("output=" + cfg.OutputAbs)
	} else {
		o.Println("output=-")
	}

	o.Println("")
	o.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		o.Println("(defaults only)")
	} else {
		if cfg.Sources.Global != "" {
			o.Println("global_config=" + cfg.Sources.Global)
		}

		if cfg.Sources.Project != "" {
			o.Println("project_config=" + cfg.Sources.Project)
		}
	}

	return nil
}
