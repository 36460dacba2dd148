// Package resolve looks up the catalog entry a playback event refers to. The
// event log carries only free text (song title, artist name, track length),
// so the lookup joins songs to artists on natural attributes.
package resolve

import (
	"context"
	"errors"
	"fmt"

	"github.com/cadu1996/Sparkfy/internal/store"
)

// Match is a resolved catalog entry. Both ids are always set together.
type Match struct {
	SongID   string
	ArtistID string
}

// Resolver runs the catalog lookup.
type Resolver struct {
	// MatchDuration additionally requires the song duration to equal the
	// logged track length. Events without a length never match when it is
	// set.
	MatchDuration bool

	dialect store.Dialect
}

// New returns a Resolver rendering SQL for d.
func New(d store.Dialect, matchDuration bool) *Resolver {
	return &Resolver{MatchDuration: matchDuration, dialect: d}
}

// Query returns the lookup statement. Arguments are title, artist name and,
// with MatchDuration, the duration. Ties between several catalog entries are
// broken by the smallest song_id so the result is stable across runs.
func (r *Resolver) Query() string {
	d := r.dialect
	q := func(s string) string { return d.QuoteIdent(s) }

	rest := fmt.Sprintf("FROM %s s JOIN %s a ON s.%s = a.%s WHERE s.%s = %s AND a.%s = %s",
		q("songs"), q("artists"), q("artist_id"), q("artist_id"),
		q("title"), d.Placeholder(1), q("name"), d.Placeholder(2))
	if r.MatchDuration {
		rest += fmt.Sprintf(" AND s.%s = %s", q("duration"), d.Placeholder(3))
	}
	rest += fmt.Sprintf(" ORDER BY s.%s", q("song_id"))
	return d.SelectFirst(fmt.Sprintf("s.%s, a.%s", q("song_id"), q("artist_id")), rest)
}

// Resolve finds the catalog entry for (title, artist[, duration]). ok is
// false when nothing matches, which is not an error. duration may be nil.
func (r *Resolver) Resolve(ctx context.Context, tx store.Tx, title, artist string, duration *float64) (Match, bool, error) {
	if title == "" || artist == "" {
		return Match{}, false, nil
	}
	args := []any{title, artist}
	if r.MatchDuration {
		if duration == nil {
			return Match{}, false, nil
		}
		args = append(args, *duration)
	}

	var m Match
	err := tx.QueryRow(ctx, r.Query(), args...).Scan(&m.SongID, &m.ArtistID)
	if errors.Is(err, store.ErrNoRows) {
		return Match{}, false, nil
	}
	if err != nil {
		return Match{}, false, fmt.Errorf("resolve %q by %q: %w", title, artist, err)
	}
	return m, true, nil
}
