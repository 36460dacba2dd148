package extract

import (
	"fmt"
	"sort"
	"strings"
)

// Role names the semantic meaning of a source field, independent of the key
// a particular export uses for it.
type Role string

// Catalog roles.
const (
	SongID          Role = "song_id"
	Title           Role = "title"
	ArtistID        Role = "artist_id"
	Year            Role = "year"
	Duration        Role = "duration"
	ArtistName      Role = "artist_name"
	ArtistLocation  Role = "artist_location"
	ArtistLatitude  Role = "artist_latitude"
	ArtistLongitude Role = "artist_longitude"
)

// Event roles.
const (
	Page       Role = "page"
	Timestamp  Role = "ts"
	UserID     Role = "user_id"
	FirstName  Role = "first_name"
	LastName   Role = "last_name"
	Gender     Role = "gender"
	Level      Role = "level"
	SongTitle  Role = "song"
	SongArtist Role = "artist"
	Length     Role = "length"
	SessionID  Role = "session_id"
	Location   Role = "location"
	UserAgent  Role = "user_agent"
)

// Fields maps each role to the record keys that may carry it, tried in order.
type Fields map[Role][]string

// DefaultFields returns the key table for the Million Song Dataset catalog
// export and the Sparkify event log, including the spellings used by older
// exports.
func DefaultFields() Fields {
	return Fields{
		SongID:          {"song_id"},
		Title:           {"title"},
		ArtistID:        {"artist_id"},
		Year:            {"year"},
		Duration:        {"duration"},
		ArtistName:      {"artist_name", "name"},
		ArtistLocation:  {"artist_location", "location"},
		ArtistLatitude:  {"artist_latitude", "latitude"},
		ArtistLongitude: {"artist_longitude", "longitude"},

		Page:       {"page", "action"},
		Timestamp:  {"ts"},
		UserID:     {"userId", "user_id"},
		FirstName:  {"firstName", "first_name"},
		LastName:   {"lastName", "last_name"},
		Gender:     {"gender"},
		Level:      {"level"},
		SongTitle:  {"song"},
		SongArtist: {"artist"},
		Length:     {"length", "duration"},
		SessionID:  {"sessionId", "session_id"},
		Location:   {"location"},
		UserAgent:  {"userAgent", "user_agent"},
	}
}

// WithOverrides returns a copy of f where each role named in overrides uses
// the given keys instead of the defaults. Unknown roles and empty key lists
// are rejected so a typo in configuration cannot silently disable a field.
func (f Fields) WithOverrides(overrides map[string][]string) (Fields, error) {
	out := make(Fields, len(f))
	for r, keys := range f {
		out[r] = append([]string(nil), keys...)
	}

	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		role := Role(strings.TrimSpace(name))
		if _, ok := f[role]; !ok {
			return nil, fmt.Errorf("extract: unknown field role %q", name)
		}
		keys := overrides[name]
		if len(keys) == 0 {
			return nil, fmt.Errorf("extract: field role %q has no keys", name)
		}
		out[role] = append([]string(nil), keys...)
	}
	return out, nil
}
