package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/canon/internal/canon"
	"github.com/calvinalkan/canon/internal/source"
)

var errNoStdin = errors.New("no stdin available")

// GenCmd returns the gen command.
func GenCmd(app *App) *Command {
	flags := flag.NewFlagSet("gen", flag.ContinueOnError)
	addOutputFlag(flags)
	flags.String("format", "", "Input `format`: jsonl or yaml (default: by extension, jsonl for stdin)")

	return &Command{
		Flags: flags,
		Usage: "gen [flags] [file...]",
		Short: "Reduce recorded results to assertions",
		Long: `Read recorded (label, value, inputs) results and print the minimal set of
assertions covering them.

JSONL input has one {"label": ..., "value": ..., "inputs": [...]} object per
line and {"flush": true} between batches. YAML input has a top-level
"batches" list of {name, records}. Non-finite values are written as the
strings "nan", "inf" and "-inf". Every file ends a batch. With no file, or
"-", records are read from stdin.

Nothing is written if any result fails a consistency check.`,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			return execGen(ctx, o, app, flags, args)
		},
	}
}

func execGen(ctx context.Context, o *IO, app *App, flags *flag.FlagSet, args []string) error {
	formatName, _ := flags.GetString("format")

	format, err := source.ParseFormat(formatName)
	if err != nil {
		return err
	}

	if len(args) == 0 {
		args = []string{"-"}
	}

	var events []source.Event

	for _, arg := range args {
		evs, err := readSource(app, arg, format)
		if err != nil {
			return fmt.Errorf("%s: %w", arg, err)
		}

		if countRecords(evs) == 0 {
			o.Warn(arg+": no records", "check the input path and format")
		}

		events = append(events, evs...)
	}

	acc := canon.New(app.Config.Options(app.Logger))
	out := newOutput(app.Config.RenderStyle())

	if err := feed(ctx, acc, events, out.add); err != nil {
		return err
	}

	app.Logger.Debug("generated assertions",
		"records", countRecords(events), "lines", len(out.lines), "assertions", out.assertions())

	return out.commit(o, app.FS, outputPath(app, flags))
}

func readSource(app *App, arg string, format source.Format) ([]source.Event, error) {
	if arg == "-" {
		if app.Stdin == nil {
			return nil, errNoStdin
		}

		return source.Read(app.Stdin, format)
	}

	if format == "" {
		format = source.DetectFormat(arg)
	}

	path := arg
	if !filepath.IsAbs(path) {
		path = filepath.Join(app.Config.EffectiveCwd, path)
	}

	f, err := app.FS.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return source.Read(f, format)
}

// feed replays events into acc. Errors are fatal.
func feed(ctx context.Context, acc *canon.Accumulator, events []source.Event, emit func([]canon.Line)) error {
	for _, ev := range events {
		if ev.Flush {
			if err := ctx.Err(); err != nil {
				return err
			}

			lines, err := acc.Flush()
			if err != nil {
				return err
			}

			emit(lines)

			continue
		}

		lines, err := acc.Accept(ev.Record.Label, ev.Record.Value, ev.Record.Inputs)
		if err != nil {
			return fmt.Errorf("%s: %w", ev.Record.Label, err)
		}

		emit(lines)
	}

	return nil
}

func countRecords(events []source.Event) int {
	n := 0

	for _, ev := range events {
		if !ev.Flush {
			n++
		}
	}

	return n
}
