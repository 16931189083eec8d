package cli_test

import (
	"testing"

	"github.com/calvinalkan/canon/internal/cli"
)

const negatedPair = `{"label": "A", "value": 0.333333314, "inputs": [0.5]}
{"label": "B", "value": -0.333333314, "inputs": [-0.5]}
`

func runGen(t *testing.T, c *cli.CLI, stdin string, args ...string) string {
	t.Helper()

	stdout, stderr, code := c.RunWithInput(stdin, append([]string{"gen"}, args...)...)
	if code != 0 {
		t.Fatalf("gen %v failed with exit code %d\nstderr: %s", args, code, stderr)
	}

	return stdout
}

func Test_Gen_Styles_When_Invoked(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name   string
		global []string
		want   string
	}{
		{name: "default", want: "ASSERT A == -1 * B\n"},
		{name: "python", global: []string{"--style", "python"}, want: "assert_almost_equal(A,-1*B)\n"},
		{name: "go", global: []string{"--style=go"}, want: "assert.InDelta(t, -1*B, A, 1e-6)\n"},
		{name: "prefix", global: []string{"--prefix", "m."}, want: "ASSERT m.A == -1 * m.B\n"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := cli.NewCLI(t)
			stdout, stderr, code := c.RunWithInput(negatedPair, append(tt.global, "gen")...)

			if got, want := code, 0; got != want {
				t.Fatalf("exitCode=%d, want=%d\nstderr: %s", got, want, stderr)
			}

			if got, want := stdout, tt.want; got != want {
				t.Errorf("stdout=%q, want=%q", got, want)
			}
		})
	}
}

func Test_Gen_Equal_Literals_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := runGen(t, c, `{"label": "A", "value": 1.0, "inputs": [0.0]}
{"label": "B", "value": 1.0, "inputs": [0.0]}
`)

	if got, want := stdout, "ASSERT A == 1.0\n# Skipping B with result 1.0 (same inputs as A)\n"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}
}

func Test_Gen_Dedupe_Disabled_By_Config_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".canon.json", `{"dedupe_literals": false}`)

	stdout := runGen(t, c, `{"label": "A", "value": 1.0, "inputs": [0.0]}
{"label": "B", "value": 1.0, "inputs": [0.0]}
`)

	if got, want := stdout, "ASSERT A == 1.0\nASSERT B == 1.0\n"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}
}

func Test_Gen_Flush_Marker_Splits_Batches_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)

	together := runGen(t, c, `{"label": "A", "value": 0.123456789, "inputs": [0.5]}
{"label": "B", "value": 0.123456789, "inputs": [0.25]}
`)
	if got, want := together, "ASSERT A == B\n"; got != want {
		t.Errorf("one batch: stdout=%q, want=%q", got, want)
	}

	split := runGen(t, c, `{"label": "A", "value": 0.123456789, "inputs": [0.5]}
{"flush": true}
{"label": "B", "value": 0.123456789, "inputs": [0.25]}
`)
	if got, want := split, "ASSERT A == 0.123456789\nASSERT B == 0.123456789\n"; got != want {
		t.Errorf("two batches: stdout=%q, want=%q", got, want)
	}
}

func Test_Gen_Each_File_Ends_A_Batch_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("a.jsonl", `{"label": "A", "value": 0.123456789, "inputs": [0.5]}`)
	c.WriteFile("b.jsonl", `{"label": "B", "value": 0.123456789, "inputs": [0.25]}`)

	stdout := c.MustRun("gen", "a.jsonl", "b.jsonl")
	if got, want := stdout, "ASSERT A == 0.123456789\nASSERT B == 0.123456789"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}
}

func Test_Gen_YAML_File_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("records.yaml", `batches:
  - name: tanh
    records:
      - {label: A, value: 0.333333314, inputs: [0.5]}
      - {label: B, value: -0.333333314, inputs: [-0.5]}
  - name: literals
    records:
      - {label: C, value: 0.5, inputs: [1.0]}
`)

	stdout := c.MustRun("gen", "records.yaml")
	if got, want := stdout, "ASSERT A == -1 * B\nASSERT C == 0.5"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}
}

func Test_Gen_YAML_Stdin_With_Format_Flag_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout := runGen(t, c, "batches:\n  - records:\n      - {label: C, value: .inf}\n", "--format", "yaml")

	if got, want := stdout, "ASSERT C == inf\n"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}
}

func Test_Gen_Output_File_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("in.jsonl", negatedPair)

	stdout := c.MustRun("gen", "-o", "out/asserts.txt", "in.jsonl")
	if got, want := stdout, ""; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	if got, want := c.ReadFile("out/asserts.txt"), "ASSERT A == -1 * B\n"; got != want {
		t.Errorf("file=%q, want=%q", got, want)
	}
}

func Test_Gen_Output_From_Config_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile(".canon.json", `{"output": "asserts.py", "style": "python"}`)
	c.WriteFile("in.jsonl", negatedPair)

	c.MustRun("gen", "in.jsonl")

	if got, want := c.ReadFile("asserts.py"), "assert_almost_equal(A,-1*B)\n"; got != want {
		t.Errorf("file=%q, want=%q", got, want)
	}

	// -o - forces stdout over the configured file.
	stdout := c.MustRun("gen", "-o", "-", "in.jsonl")
	if got, want := stdout, "assert_almost_equal(A,-1*B)"; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}
}

const lengthMismatch = `{"label": "A", "value": 0.1234567891234, "inputs": [0.5]}
{"label": "B", "value": 0.1234567891234, "inputs": [0.5, 1]}
{"label": "C", "value": 0.1234567891234, "inputs": [1]}
`

func Test_Gen_Fatal_Error_Writes_Nothing_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	c.WriteFile("in.jsonl", `{"label": "Z", "value": 0.5, "inputs": [0]}
{"flush": true}
`+lengthMismatch)

	stderr := c.MustFail("gen", "in.jsonl")
	cli.AssertContains(t, stderr, "error:")
	cli.AssertContains(t, stderr, "input length mismatch")

	c.WriteFile("out.txt", "old\n")

	c.MustFail("gen", "-o", "out.txt", "in.jsonl")

	if got, want := c.ReadFile("out.txt"), "old\n"; got != want {
		t.Errorf("file=%q, want=%q", got, want)
	}

	c.MustFail("gen", "-o", "new.txt", "in.jsonl")

	if c.Exists("new.txt") {
		t.Error("new.txt created by a failed run")
	}
}

func Test_Gen_Input_Errors_When_Invoked(t *testing.T) {
	t.Parallel()

	for _, tt := range []struct {
		name    string
		args    []string
		stdin   string
		wantErr string
	}{
		{name: "bad record", stdin: `{"label": "A"}`, wantErr: "line 1: invalid record: A: value is required"},
		{name: "missing file", args: []string{"nope.jsonl"}, wantErr: "nope.jsonl"},
		{name: "bad format", args: []string{"--format", "csv"}, wantErr: "unknown input format"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			c := cli.NewCLI(t)
			stdout, stderr, code := c.RunWithInput(tt.stdin, append([]string{"gen"}, tt.args...)...)

			if got, want := code, 1; got != want {
				t.Errorf("exitCode=%d, want=%d", got, want)
			}

			if got, want := stdout, ""; got != want {
				t.Errorf("stdout=%q, want=%q", got, want)
			}

			cli.AssertContains(t, stderr, tt.wantErr)
		})
	}
}

func Test_Gen_Empty_Input_Warns_When_Invoked(t *testing.T) {
	t.Parallel()

	c := cli.NewCLI(t)
	stdout, stderr, code := c.RunWithInput("# nothing here\n", "gen")

	if got, want := code, 1; got != want {
		t.Errorf("exitCode=%d, want=%d", got, want)
	}

	if got, want := stdout, ""; got != want {
		t.Errorf("stdout=%q, want=%q", got, want)
	}

	cli.AssertContains(t, stderr, "warning: -: no records")
}
