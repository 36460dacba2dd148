// Package extract projects decoded source records onto the star-schema row
// types. Extraction is pure: no I/O, no state beyond the field table.
//
// Free-text values that take part in the catalog lookup (song titles and
// artist names, on both the catalog and the event side) are NFC-normalized
// so that precomposed and decomposed spellings of the same name compare
// equal.
package extract

import (
	"fmt"
	"strings"

	"golang.org/x/text/unicode/norm"

	"github.com/cadu1996/Sparkfy/internal/records"
)

// DefaultPlaybackPage is the page value that marks a song being played.
const DefaultPlaybackPage = "NextSong"

// MissingFieldError reports a required field that is absent, null, or of the
// wrong type. Field names the role, Keys the record keys that were tried.
type MissingFieldError struct {
	Field Role
	Keys  []string
}

func (e *MissingFieldError) Error() string {
	return fmt.Sprintf("missing required field %q (keys tried: %s)", e.Field, strings.Join(e.Keys, ", "))
}

// Extractor holds the field table and playback marker used for every record.
type Extractor struct {
	fields   Fields
	playback string
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithFields replaces the default field table.
func WithFields(f Fields) Option {
	return func(x *Extractor) {
		if len(f) > 0 {
			x.fields = f
		}
	}
}

// WithPlaybackPage sets the page value that marks playback events.
func WithPlaybackPage(page string) Option {
	return func(x *Extractor) {
		if page != "" {
			x.playback = page
		}
	}
}

// New returns an Extractor with DefaultFields and DefaultPlaybackPage unless
// overridden.
func New(opts ...Option) *Extractor {
	x := &Extractor{fields: DefaultFields(), playback: DefaultPlaybackPage}
	for _, o := range opts {
		o(x)
	}
	return x
}

// key returns the first candidate key for role that is present and non-null
// in rec.
func (x *Extractor) key(rec records.Record, role Role) (string, bool) {
	for _, k := range x.fields[role] {
		if rec.Has(k) {
			return k, true
		}
	}
	return "", false
}

func (x *Extractor) missing(role Role) error {
	return &MissingFieldError{Field: role, Keys: x.fields[role]}
}

func (x *Extractor) optString(rec records.Record, role Role) string {
	k, ok := x.key(rec, role)
	if !ok {
		return ""
	}
	s, _ := rec.String(k)
	return s
}

// reqString fails when role is absent, null, or not a scalar. An empty
// string is a value.
func (x *Extractor) reqString(rec records.Record, role Role) (string, error) {
	k, ok := x.key(rec, role)
	if !ok {
		return "", x.missing(role)
	}
	s, ok := rec.String(k)
	if !ok {
		return "", x.missing(role)
	}
	return s, nil
}

func (x *Extractor) optFloat(rec records.Record, role Role) *float64 {
	k, ok := x.key(rec, role)
	if !ok {
		return nil
	}
	f, ok := rec.Float(k)
	if !ok {
		return nil
	}
	return &f
}

func (x *Extractor) reqFloat(rec records.Record, role Role) (float64, error) {
	k, ok := x.key(rec, role)
	if !ok {
		return 0, x.missing(role)
	}
	f, ok := rec.Float(k)
	if !ok {
		return 0, x.missing(role)
	}
	return f, nil
}

func (x *Extractor) optInt(rec records.Record, role Role) int64 {
	k, ok := x.key(rec, role)
	if !ok {
		return 0
	}
	i, _ := rec.Int(k)
	return i
}

func (x *Extractor) reqInt(rec records.Record, role Role) (int64, error) {
	k, ok := x.key(rec, role)
	if !ok {
		return 0, x.missing(role)
	}
	i, ok := rec.Int(k)
	if !ok {
		return 0, x.missing(role)
	}
	return i, nil
}

func normalizeText(s string) string {
	return norm.NFC.String(s)
}
