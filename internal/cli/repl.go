package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/peterh/liner"
	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/canon/internal/canon"
	"github.com/calvinalkan/canon/internal/render"
)

var errQuit = errors.New("quit")

var replCommands = []string{"accept", "flush", "pending", "help", "quit", "exit"}

// ReplCmd returns the repl command.
func ReplCmd(app *App) *Command {
	return &Command{
		Flags: flag.NewFlagSet("repl", flag.ContinueOnError),
		Usage: "repl",
		Short: "Feed results interactively",
		Long: `Start a shell that accepts results one at a time and prints assertions as
they become available:

  accept <label> <value> [inputs...]   Accept one result
  flush                                End the batch and print its assertions
  pending                              Show how many results await a flush
  help                                 Show this help
  quit                                 Flush and exit

Values may be nan, inf, -inf or -0. End of input flushes like quit.`,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			return execRepl(ctx, o, app)
		},
	}
}

func execRepl(ctx context.Context, o *IO, app *App) error {
	next, done, err := replInput(app)
	if err != nil {
		return err
	}
	defer done()

	s := &session{
		acc:   canon.New(app.Config.Options(app.Logger)),
		style: app.Config.RenderStyle(),
		o:     o,
	}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		line, err := next()
		if errors.Is(err, io.EOF) {
			break
		}

		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		err = s.exec(line)
		if errors.Is(err, errQuit) {
			break
		}

		if err != nil {
			return err
		}
	}

	return s.flush()
}

// replInput returns a line source: liner when the process's stdin is a
// terminal, a plain scanner otherwise.
func replInput(app *App) (func() (string, error), func(), error) {
	if app.Stdin == nil {
		return nil, nil, errNoStdin
	}

	if f, ok := app.Stdin.(*os.File); ok && f == os.Stdin && isTerminal(f.Fd()) {
		return linerInput(app.Env)
	}

	scanner := bufio.NewScanner(app.Stdin)
	next := func() (string, error) {
		if scanner.Scan() {
			return scanner.Text(), nil
		}

		if err := scanner.Err(); err != nil {
			return "", err
		}

		return "", io.EOF
	}

	return next, func() {}, nil
}

func linerInput(env map[string]string) (func() (string, error), func(), error) {
	state := liner.NewLiner()
	state.SetCtrlCAborts(true)
	state.SetCompleter(completeReplCommand)

	history := historyFile(env)
	if f, err := os.Open(history); err == nil {
		_, _ = state.ReadHistory(f)
		f.Close()
	}

	next := func() (string, error) {
		line, err := state.Prompt("canon> ")
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", io.EOF
		}

		if err == nil && strings.TrimSpace(line) != "" {
			state.AppendHistory(line)
		}

		return line, err
	}

	done := func() {
		if history != "" {
			if f, err := os.Create(history); err == nil {
				_, _ = state.WriteHistory(f)
				f.Close()
			}
		}

		state.Close()
	}

	return next, done, nil
}

func historyFile(env map[string]string) string {
	if home := env["HOME"]; home != "" {
		return filepath.Join(home, ".canon_history")
	}

	return ""
}

func completeReplCommand(line string) []string {
	var out []string

	lower := strings.ToLower(line)
	for _, c := range replCommands {
		if strings.HasPrefix(c, lower) {
			out = append(out, c)
		}
	}

	return out
}

// session holds the accumulator of one repl run.
type session struct {
	acc   *canon.Accumulator
	style render.Style
	o     *IO
}

// exec runs one input line. Typos are reported on stderr and the session
// goes on; a returned error ends it.
func (s *session) exec(line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 || strings.HasPrefix(fields[0], "#") {
		return nil
	}

	switch cmd, args := strings.ToLower(fields[0]), fields[1:]; cmd {
	case "accept", "a":
		return s.accept(args)
	case "flush", "f":
		return s.flush()
	case "pending":
		s.o.Println(s.acc.Pending(), "pending")
	case "help", "?":
		s.printHelp()
	case "quit", "exit", "q":
		return errQuit
	default:
		s.o.ErrPrintln("unknown command:", cmd, "(type 'help' for commands)")
	}

	return nil
}

func (s *session) accept(args []string) error {
	if len(args) < 2 {
		s.o.ErrPrintln("usage: accept <label> <value> [inputs...]")
		return nil
	}

	values := make([]float64, len(args)-1)

	for i, arg := range args[1:] {
		v, err := strconv.ParseFloat(arg, 64)
		if err != nil {
			s.o.ErrPrintln("not a number:", arg)
			return nil
		}

		values[i] = v
	}

	lines, err := s.acc.Accept(args[0], values[0], values[1:])
	if err != nil {
		return fmt.Errorf("%s: %w", args[0], err)
	}

	s.print(lines)

	return nil
}

func (s *session) flush() error {
	lines, err := s.acc.Flush()
	if err != nil {
		return err
	}

	s.print(lines)

	return nil
}

func (s *session) print(lines []canon.Line) {
	for _, l := range lines {
		s.o.Println(render.Line(s.style, l))
	}
}

func (s *session) printHelp() {
	s.o.Println("Commands:")
	s.o.Println("  accept <label> <value> [inputs...]   Accept one result")
	s.o.Println("  flush                                End the batch and print its assertions")
	s.o.Println("  pending                              Show how many results await a flush")
	s.o.Println("  help                                 Show this help")
	s.o.Println("  quit                                 Flush and exit")
}
