package extract

import (
	"github.com/cadu1996/Sparkfy/internal/domain"
	"github.com/cadu1996/Sparkfy/internal/records"
)

// Song projects a catalog record onto a songs row. song_id, title and
// duration are required; artist_id and year default to empty/zero.
func (x *Extractor) Song(rec records.Record) (domain.Song, error) {
	id, err := x.reqString(rec, SongID)
	if err != nil {
		return domain.Song{}, err
	}
	title, err := x.reqString(rec, Title)
	if err != nil {
		return domain.Song{}, err
	}
	dur, err := x.reqFloat(rec, Duration)
	if err != nil {
		return domain.Song{}, err
	}
	return domain.Song{
		SongID:   id,
		Title:    normalizeText(title),
		ArtistID: x.optString(rec, ArtistID),
		Year:     x.optInt(rec, Year),
		Duration: dur,
	}, nil
}

// Artist projects a catalog record onto an artists row. artist_id and the
// artist name are required; coordinates stay nil when unknown.
func (x *Extractor) Artist(rec records.Record) (domain.Artist, error) {
	id, err := x.reqString(rec, ArtistID)
	if err != nil {
		return domain.Artist{}, err
	}
	name, err := x.reqString(rec, ArtistName)
	if err != nil {
		return domain.Artist{}, err
	}
	return domain.Artist{
		ArtistID:  id,
		Name:      normalizeText(name),
		Location:  x.optString(rec, ArtistLocation),
		Latitude:  x.optFloat(rec, ArtistLatitude),
		Longitude: x.optFloat(rec, ArtistLongitude),
	}, nil
}
