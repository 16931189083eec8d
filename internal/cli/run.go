// Package cli implements the canon command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/google/uuid"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/canon/internal/config"
	"github.com/calvinalkan/canon/internal/fs"
)

// App is what commands share once global flags and config are resolved.
// Commands are constructed before that happens and read it at Exec time.
type App struct {
	Config config.Config
	Logger *slog.Logger
	Stdin  io.Reader
	Env    map[string]string
	FS     fs.FS
}

func commands(app *App) []*Command {
	return []*Command{
		GenCmd(app),
		SampleCmd(app),
		ReplCmd(app),
		PrintConfigCmd(app),
	}
}

func globalFlagSet() *flag.FlagSet {
	flags := flag.NewFlagSet("canon", flag.ContinueOnError)
	flags.SetInterspersed(false)
	flags.SetOutput(&strings.Builder{})

	flags.StringP("cwd", "C", "", "Run as if started in `dir`")
	flags.StringP("config", "c", "", "Use config `file` instead of .canon.json")
	flags.String("style", "", "Output `style`: assert, python or go")
	flags.String("prefix", "", "Prepend `prefix` to every label")
	flags.BoolP("verbose", "v", false, "Log debug output to stderr")
	flags.BoolP("help", "h", false, "Show help")

	return flags
}

// Run is the main entry point. Returns exit code.
func Run(stdin io.Reader, out io.Writer, errOut io.Writer, args []string, env map[string]string, sigCh <-chan os.Signal) int {
	app := &App{Stdin: stdin, Env: env, FS: fs.NewReal()}
	cmds := commands(app)
	globals := globalFlagSet()

	if len(args) < 2 {
		printUsage(out, globals, cmds)
		return 0
	}

	if err := globals.Parse(args[1:]); err != nil {
		fprintln(errOut, "error:", err)
		fprintln(errOut)
		printUsage(errOut, globals, cmds)

		return 1
	}

	if help, _ := globals.GetBool("help"); help {
		printUsage(out, globals, cmds)
		return 0
	}

	rest := globals.Args()
	if len(rest) == 0 {
		fprintln(errOut, "error: no command given")
		fprintln(errOut)
		printUsage(errOut, globals, cmds)

		return 1
	}

	var cmd *Command

	for _, c := range cmds {
		if c.Name() == rest[0] {
			cmd = c
			break
		}
	}

	if cmd == nil {
		fprintln(errOut, "error: unknown command:", rest[0])
		fprintln(errOut)
		printUsage(errOut, globals, cmds)

		return 1
	}

	cfg, err := config.Load(config.LoadInput{
		WorkDirOverride: stringFlag(globals, "cwd"),
		ConfigPath:      stringFlag(globals, "config"),
		Overrides: config.Overrides{
			Style:       changedString(globals, "style"),
			LabelPrefix: changedString(globals, "prefix"),
		},
		Env: env,
		FS:  app.FS,
	})
	if err != nil {
		fprintln(errOut, "error:", err)
		return 1
	}

	app.Config = cfg
	app.Logger = newLogger(errOut, globals)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		select {
		case sig, ok := <-sigCh:
			if ok {
				app.Logger.Warn("interrupted", "signal", sig)
				cancel()
			}
		case <-ctx.Done():
		}
	}()

	o := NewIO(out, errOut)

	if code := cmd.Run(ctx, o, rest[1:]); code != 0 {
		return code
	}

	return o.Finish()
}

// newLogger returns the operational logger: text on stderr, warnings only
// unless -v, every record tagged with a per-run id.
func newLogger(w io.Writer, globals *flag.FlagSet) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := globals.GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))

	if id, err := uuid.NewV7(); err == nil {
		logger = logger.With("run_id", id.String())
	}

	return logger
}

func stringFlag(flags *flag.FlagSet, name string) string {
	v, _ := flags.GetString(name)
	return v
}

func changedString(flags *flag.FlagSet, name string) *string {
	if !flags.Changed(name) {
		return nil
	}

	v := stringFlag(flags, name)

	return &v
}

func printUsage(w io.Writer, globals *flag.FlagSet, cmds []*Command) {
	fprintln(w, "canon - reduce sampled floating point results to test assertions")
	fprintln(w)
	fprintln(w, "Usage: canon [global flags] <command> [args]")
	fprintln(w)
	fprintln(w, "Commands:")

	for _, c := range cmds {
		fprintln(w, c.HelpLine())
	}

	fprintln(w)
	fprintln(w, "Global flags:")
	fmt.Fprint(w, globals.FlagUsages())
	fprintln(w)
	fprintln(w, "Run 'canon <command> --help' for command flags.")
}

func fprintln(w io.Writer, a ...any) {
	_, _ = fmt.Fprintln(w, a...)
}
