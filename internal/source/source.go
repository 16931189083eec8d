// Package source decodes record streams for the canonicalizer.
//
// A stream is a sequence of [Event] values: records to accept and batch
// boundaries at which the accumulator is flushed. The end of a stream is
// always a boundary.
package source

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/calvinalkan/canon/internal/canon"
)

// Format names a stream encoding.
type Format string

// Supported formats.
const (
	FormatJSONL Format = "jsonl"
	FormatYAML  Format = "yaml"
)

var (
	ErrUnknownFormat = errors.New("unknown input format")
	ErrInvalidRecord = errors.New("invalid record")
)

// maxLineSize bounds a single JSONL line.
const maxLineSize = 4 << 20

// Event is either a record or a batch boundary.
type Event struct {
	Flush  bool
	Batch  string // batch name, set on boundaries read from YAML
	Record canon.Record
}

// ParseFormat validates a format name. Empty means "detect".
func ParseFormat(name string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(name))); f {
	case "", FormatJSONL, FormatYAML:
		return f, nil
	case "yml":
		return FormatYAML, nil
	default:
		return "", fmt.Errorf("%w: %q (want jsonl or yaml)", ErrUnknownFormat, name)
	}
}

// DetectFormat picks a format from a file name: .yaml and .yml are YAML,
// everything else (including stdin) is JSONL.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSONL
	}
}

// Read decodes a whole stream.
func Read(r io.Reader, format Format) ([]Event, error) {
	var (
		events []Event
		err    error
	)

	switch format {
	case FormatJSONL, "":
		events, err = readJSONL(r)
	case FormatYAML:
		events, err = readYAML(r)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFormat, format)
	}

	if err != nil {
		return nil, err
	}

	if n := len(events); n > 0 && !events[n-1].Flush {
		events = append(events, Event{Flush: true})
	}

	return events, nil
}

type jsonLine struct {
	Label  *string `json:"label"`
	Value  *Float  `json:"value"`
	Inputs []Float `json:"inputs"`
	Flush  bool    `json:"flush"`
}

func readJSONL(r io.Reader) ([]Event, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	var events []Event

	lineNo := 0

	for scanner.Scan() {
		lineNo++

		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 || line[0] == '#' || bytes.HasPrefix(line, []byte("//")) {
			continue
		}

		ev, err := decodeJSONLine(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}

		events = append(events, ev)
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("reading line %d: %w", lineNo+1, err)
	}

	return events, nil
}

func decodeJSONLine(line []byte) (Event, error) {
	dec := json.NewDecoder(bytes.NewReader(line))
	dec.DisallowUnknownFields()

	var jl jsonLine
	if err := dec.Decode(&jl); err != nil {
		return Event{}, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	if jl.Flush {
		if jl.Label != nil || jl.Value != nil || jl.Inputs != nil {
			return Event{}, fmt.Errorf("%w: flush marker cannot carry record fields", ErrInvalidRecord)
		}

		return Event{Flush: true}, nil
	}

	if jl.Label == nil || *jl.Label == "" {
		return Event{}, fmt.Errorf("%w: label is required", ErrInvalidRecord)
	}

	if jl.Value == nil {
		return Event{}, fmt.Errorf("%w: %s: value is required", ErrInvalidRecord, *jl.Label)
	}

	inputs := make([]float64, len(jl.Inputs))
	for i, in := range jl.Inputs {
		inputs[i] = float64(in)
	}

	return Event{Record: canon.Record{Label: *jl.Label, Value: float64(*jl.Value), Inputs: inputs}}, nil
}

type yamlDoc struct {
	Batches []yamlBatch `yaml:"batches"`
}

type yamlBatch struct {
	Name    string       `yaml:"name"`
	Records []yamlRecord `yaml:"records"`
}

type yamlRecord struct {
	Label  string    `yaml:"label"`
	Value  *float64  `yaml:"value"`
	Inputs []float64 `yaml:"inputs"`
}

func readYAML(r io.Reader) ([]Event, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var doc yamlDoc
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}

		return nil, fmt.Errorf("%w: %w", ErrInvalidRecord, err)
	}

	var events []Event

	for bi, batch := range doc.Batches {
		for ri, rec := range batch.Records {
			if rec.Label == "" {
				return nil, fmt.Errorf("%w: batch %d record %d: label is required", ErrInvalidRecord, bi+1, ri+1)
			}

			if rec.Value == nil {
				return nil, fmt.Errorf("%w: batch %d record %d (%s): value is required",
					ErrInvalidRecord, bi+1, ri+1, rec.Label)
			}

			events = append(events, Event{Record: canon.Record{Label: rec.Label, Value: *rec.Value, Inputs: rec.Inputs}})
		}

		events = append(events, Event{Flush: true, Batch: batch.Name})
	}

	return events, nil
}

// Float is a float64 that also decodes from the JSON strings "nan", "inf",
// "-inf" and any other string strconv.ParseFloat accepts, since JSON numbers
// cannot express non-finite values.
type Float float64

// UnmarshalJSON implements [json.Unmarshaler].
func (f *Float) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}

		switch strings.ToLower(strings.TrimSpace(s)) {
		case "nan":
			*f = Float(math.NaN())
		case "inf", "+inf", "infinity":
			*f = Float(math.Inf(1))
		case "-inf", "-infinity":
			*f = Float(math.Inf(-1))
		default:
			v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
			if err != nil {
				return fmt.Errorf("not a number: %q", s)
			}

			*f = Float(v)
		}

		return nil
	}

	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}

	*f = Float(v)

	return nil
}
