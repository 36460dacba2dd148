// Package domain holds the row types of the Sparkify star schema. Values are
// built once from a source record by the extractors and handed to the upsert
// executor; nothing mutates them afterwards.
package domain

import "time"

// Song is one row of the songs dimension.
type Song struct {
	SongID   string
	Title    string
	ArtistID string
	Year     int64
	Duration float64
}

// Artist is one row of the artists dimension. Latitude and Longitude are nil
// when the catalog does not know them.
type Artist struct {
	ArtistID  string
	Name      string
	Location  string
	Latitude  *float64
	Longitude *float64
}

// User is one row of the users dimension. Level is the only attribute that
// legitimately changes between events.
type User struct {
	UserID    int64
	FirstName string
	LastName  string
	Gender    string
	Level     string
}

// Time is one row of the time dimension. Every field except StartTime is
// derived from StartTime.
type Time struct {
	StartTime time.Time
	Hour      int
	Day       int
	Week      int
	Month     int
	Year      int
	Weekday   int
}

// SongPlay is one row of the songplays fact table. SongID and ArtistID are
// either both nil (the catalog lookup found nothing) or both set.
type SongPlay struct {
	SongPlayID int64
	StartTime  time.Time
	UserID     int64
	Level      string
	SongID     *string
	ArtistID   *string
	SessionID  int64
	Location   string
	UserAgent  string
}

// Relation names as stored.
const (
	TableSongs     = "songs"
	TableArtists   = "artists"
	TableUsers     = "users"
	TableTime      = "time"
	TableSongPlays = "songplays"
)

// Values returns the song as an ordered row for the songs relation.
func (s Song) Values() []any {
	return []any{s.SongID, s.Title, s.ArtistID, s.Year, s.Duration}
}

// Values returns the artist as an ordered row for the artists relation.
func (a Artist) Values() []any {
	return []any{a.ArtistID, a.Name, a.Location, nullable(a.Latitude), nullable(a.Longitude)}
}

// Values returns the user as an ordered row for the users relation.
func (u User) Values() []any {
	return []any{u.UserID, u.FirstName, u.LastName, u.Gender, u.Level}
}

// Values returns the time row for the time relation.
func (t Time) Values() []any {
	return []any{t.StartTime, t.Hour, t.Day, t.Week, t.Month, t.Year, t.Weekday}
}

// Values returns the songplay as an ordered row for the songplays relation.
func (p SongPlay) Values() []any {
	return []any{
		p.SongPlayID, p.StartTime, p.UserID, p.Level,
		nullable(p.SongID), nullable(p.ArtistID),
		p.SessionID, p.Location, p.UserAgent,
	}
}

// nullable turns a nil pointer into an untyped nil so every driver binds SQL
// NULL, and dereferences everything else.
func nullable[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}
