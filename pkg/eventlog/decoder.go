package eventlog

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"strconv"
)

// DefaultMaxLineBytes bounds a single event line. Physical-plan
// descriptions can run long, so the cap is generous.
const DefaultMaxLineBytes = 16 << 20

// ErrLineTooLong is returned when a single event line exceeds the cap.
var ErrLineTooLong = errors.New("event line exceeds max bytes")

// Decoder reads one event-log line at a time.
//
// Next returns io.EOF at the end of input. A line that is not valid JSON
// or carries no discriminant yields a *RecordError so callers can skip
// it and keep scanning.
type Decoder struct {
	r            *bufio.Reader
	maxLineBytes int
	line         int
}

func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: bufio.NewReader(r), maxLineBytes: DefaultMaxLineBytes}
}

func (d *Decoder) SetMaxLineBytes(n int) {
	if n <= 0 {
		d.maxLineBytes = DefaultMaxLineBytes
		return
	}
	d.maxLineBytes = n
}

// RecordError reports a single undecodable line.
type RecordError struct {
	Line int
	Err  error
}

func (e *RecordError) Error() string {
	return "eventlog: bad record at line " + strconv.Itoa(e.Line) + ": " + e.Err.Error()
}

func (e *RecordError) Unwrap() error {
	return e.Err
}

// Next returns the next event record.
//
// Blank lines are skipped. Errors of type *RecordError are recoverable;
// any other error ends the scan.
func (d *Decoder) Next() (Record, error) {
	for {
		line, err := readLineLimited(d.r, d.maxLineBytes)
		if err != nil {
			return Record{}, err
		}
		d.line++

		trimmed := bytes.TrimSpace(line)
		if len(trimmed) == 0 {
			continue
		}

		var env envelope
		if err := json.Unmarshal(trimmed, &env); err != nil {
			return Record{}, &RecordError{Line: d.line, Err: err}
		}
		if env.Event == "" {
			return Record{}, &RecordError{Line: d.line, Err: errors.New("missing Event discriminant")}
		}

		raw := make(json.RawMessage, len(trimmed))
		copy(raw, trimmed)
		return Record{Kind: env.Event, Raw: raw}, nil
	}
}

// Line returns the number of lines consumed so far.
func (d *Decoder) Line() int {
	return d.line
}

func readLineLimited(r *bufio.Reader, maxBytes int) ([]byte, error) {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxLineBytes
	}

	var out []byte
	for {
		frag, err := r.ReadSlice('\n')
		out = append(out, frag...)
		if len(out) > maxBytes {
			return nil, ErrLineTooLong
		}
		if err == nil {
			return bytes.TrimSuffix(out, []byte("\n")), nil
		}
		if errors.Is(err, bufio.ErrBufferFull) {
			continue
		}
		if errors.Is(err, io.EOF) {
			if len(out) == 0 {
				return nil, io.EOF
			}
			return out, nil
		}
		return nil, err
	}
}
