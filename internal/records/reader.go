package records

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/goccy/go-json"

	"github.com/cadu1996/Sparkfy/internal/datasource/file"
)

// maxLineBytes bounds a single NDJSON line.
const maxLineBytes = 16 << 20

// MalformedRecordError reports a line that is not a JSON object. Line is
// 1-based; Path is empty when the input did not come from a file.
type MalformedRecordError struct {
	Path string
	Line int
	Err  error
}

func (e *MalformedRecordError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("malformed record at line %d: %v", e.Line, e.Err)
	}
	return fmt.Sprintf("malformed record at %s:%d: %v", e.Path, e.Line, e.Err)
}

func (e *MalformedRecordError) Unwrap() error { return e.Err }

var errNotObject = errors.New("top-level value is not a JSON object")

// Decoder reads one JSON object per line. Blank lines are skipped but still
// counted, so Line always matches the position in the source file.
type Decoder struct {
	sc   *bufio.Scanner
	line int
}

// NewDecoder returns a Decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Decoder{sc: sc}
}

// Line returns the 1-based number of the line last returned by Next.
func (d *Decoder) Line() int { return d.line }

// Next returns the next record. It returns io.EOF when the input is
// exhausted and a *MalformedRecordError for a line that does not hold exactly
// one JSON object.
func (d *Decoder) Next() (Record, error) {
	for d.sc.Scan() {
		d.line++
		raw := bytes.TrimSpace(d.sc.Bytes())
		if len(raw) == 0 {
			continue
		}
		rec, err := decodeLine(raw)
		if err != nil {
			return nil, &MalformedRecordError{Line: d.line, Err: err}
		}
		return rec, nil
	}
	if err := d.sc.Err(); err != nil {
		return nil, &MalformedRecordError{Line: d.line + 1, Err: err}
	}
	return nil, io.EOF
}

func decodeLine(raw []byte) (Record, error) {
	if !json.Valid(raw) {
		return nil, errors.New("invalid JSON")
	}
	if raw[0] != '{' {
		return nil, errNotObject
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var m map[string]any
	if err := dec.Decode(&m); err != nil {
		return nil, err
	}
	return Record(m), nil
}

// Entry is a decoded record with the 1-based source line it came from.
type Entry struct {
	Line   int
	Record Record
}

// ReadEntries decodes every record in r, in source order, keeping line
// numbers. name is used only for error reporting. The first malformed line
// aborts the read.
func ReadEntries(name string, r io.Reader) ([]Entry, error) {
	dec := NewDecoder(r)
	var out []Entry
	for {
		rec, err := dec.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			var me *MalformedRecordError
			if errors.As(err, &me) {
				me.Path = name
			}
			return nil, err
		}
		out = append(out, Entry{Line: dec.Line(), Record: rec})
	}
}

// Read is ReadEntries without line numbers.
func Read(name string, r io.Reader) ([]Record, error) {
	entries, err := ReadEntries(name, r)
	if err != nil {
		return nil, err
	}
	out := make([]Record, len(entries))
	for i, e := range entries {
		out[i] = e.Record
	}
	return out, nil
}

// ReadFile opens path through the local file source and decodes all of its
// records.
func ReadFile(ctx context.Context, path string) ([]Entry, error) {
	rc, err := file.NewLocal(path).Open(ctx)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return ReadEntries(path, rc)
}
