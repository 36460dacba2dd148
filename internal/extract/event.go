package extract

import (
	"strconv"
	"time"

	"github.com/zeebo/xxh3"

	"github.com/cadu1996/Sparkfy/internal/domain"
	"github.com/cadu1996/Sparkfy/internal/records"
)

// Playback is everything one playback event contributes: its time and user
// dimension rows, the fact row without catalog references, and the free-text
// lookup keys for the catalog resolver.
type Playback struct {
	Time domain.Time
	User domain.User
	Play domain.SongPlay

	// Song and Artist are the normalized title and artist name as logged;
	// empty when the event does not carry them.
	Song   string
	Artist string
	// Length is the logged track length in seconds, nil when absent.
	Length *float64
}

// IsPlayback reports whether rec is a playback event. Events for any other
// page never reach the event extractors.
func (x *Extractor) IsPlayback(rec records.Record) bool {
	return x.optString(rec, Page) == x.playback
}

// TimeFromMillis decomposes an epoch-millisecond timestamp in UTC.
//
// Calendar convention: Week is the ISO-8601 week number (1..53) and Weekday
// counts from Monday=0 to Sunday=6. Day is the day of the month.
func TimeFromMillis(ms int64) domain.Time {
	t := time.UnixMilli(ms).UTC()
	_, week := t.ISOWeek()
	return domain.Time{
		StartTime: t,
		Hour:      t.Hour(),
		Day:       t.Day(),
		Week:      week,
		Month:     int(t.Month()),
		Year:      t.Year(),
		Weekday:   (int(t.Weekday()) + 6) % 7,
	}
}

// Time extracts the time dimension row of an event.
func (x *Extractor) Time(rec records.Record) (domain.Time, error) {
	ts, err := x.reqInt(rec, Timestamp)
	if err != nil {
		return domain.Time{}, err
	}
	return TimeFromMillis(ts), nil
}

// User extracts the users dimension row of an event. userId and level are
// required; userId may be logged as a string or a number.
func (x *Extractor) User(rec records.Record) (domain.User, error) {
	id, err := x.reqInt(rec, UserID)
	if err != nil {
		return domain.User{}, err
	}
	level, err := x.reqString(rec, Level)
	if err != nil {
		return domain.User{}, err
	}
	return domain.User{
		UserID:    id,
		FirstName: x.optString(rec, FirstName),
		LastName:  x.optString(rec, LastName),
		Gender:    x.optString(rec, Gender),
		Level:     level,
	}, nil
}

// Playback extracts all rows of one playback event. The fact row's
// SongPlayID is derived from the event content (see SongPlayID), so loading
// the same event twice targets the same fact row.
func (x *Extractor) Playback(rec records.Record) (Playback, error) {
	ts, err := x.reqInt(rec, Timestamp)
	if err != nil {
		return Playback{}, err
	}
	user, err := x.User(rec)
	if err != nil {
		return Playback{}, err
	}
	tm := TimeFromMillis(ts)
	session := x.optInt(rec, SessionID)

	return Playback{
		Time: tm,
		User: user,
		Play: domain.SongPlay{
			SongPlayID: SongPlayID(user.UserID, ts, session),
			StartTime:  tm.StartTime,
			UserID:     user.UserID,
			Level:      user.Level,
			SessionID:  session,
			Location:   x.optString(rec, Location),
			UserAgent:  x.optString(rec, UserAgent),
		},
		Song:   normalizeText(x.optString(rec, SongTitle)),
		Artist: normalizeText(x.optString(rec, SongArtist)),
		Length: x.optFloat(rec, Length),
	}, nil
}

// SongPlayID derives the fact key from (user, timestamp, session) with
// xxh3-64, bit-cast to a signed 64-bit integer for BIGINT columns.
func SongPlayID(userID, tsMillis, sessionID int64) int64 {
	buf := make([]byte, 0, 64)
	buf = strconv.AppendInt(buf, userID, 10)
	buf = append(buf, '|')
	buf = strconv.AppendInt(buf, tsMillis, 10)
	buf = append(buf, '|')
	buf = strconv.AppendInt(buf, sessionID, 10)
	return int64(xxh3.Hash(buf))
}
