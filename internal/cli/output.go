package cli

import (
	"bytes"
	"fmt"
	"path/filepath"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/canon/internal/canon"
	"github.com/calvinalkan/canon/internal/fs"
	"github.com/calvinalkan/canon/internal/render"
)

const (
	filePerms = 0o644
	dirPerms  = 0o755
)

// output buffers every line of a run and writes them in one go once the run
// succeeded, so a fatal error leaves stdout empty and the output file as it
// was.
type output struct {
	style render.Style
	lines []canon.Line
}

func newOutput(style render.Style) *output {
	return &output{style: style}
}

func (w *output) add(lines []canon.Line) {
	w.lines = append(w.lines, lines...)
}

func (w *output) assertions() int {
	n := 0

	for _, l := range w.lines {
		if l.IsAssertion() {
			n++
		}
	}

	return n
}

// commit renders the buffered lines to path, or to stdout if path is empty.
func (w *output) commit(o *IO, fsys fs.FS, path string) error {
	var buf bytes.Buffer

	if err := render.Write(&buf, w.style, w.lines); err != nil {
		return err
	}

	if path == "" {
		_, err := o.Stdout().Write(buf.Bytes())
		return err
	}

	if err := fsys.MkdirAll(filepath.Dir(path), dirPerms); err != nil {
		return fmt.Errorf("creating output directory: %w", err)
	}

	if err := fsys.WriteFileAtomic(path, buf.Bytes(), filePerms); err != nil {
		return fmt.Errorf("writing %s: %w", path, err)
	}

	return nil
}

func addOutputFlag(flags *flag.FlagSet) {
	flags.StringP("output", "o", "", "Write to `file` instead of stdout (replaced atomically)")
}

// outputPath is the -o flag if given, else the configured output.
func outputPath(app *App, flags *flag.FlagSet) string {
	if !flags.Changed("output") {
		return app.Config.OutputAbs
	}

	v, _ := flags.GetString("output")

	return app.Config.ResolvePath(v)
}
