// Package schema declares the five relations of the star schema and creates
// them on a store that does not have them yet. It is bootstrap only: an
// existing table is left as it is.
package schema

import (
	"context"
	"fmt"

	"github.com/cadu1996/Sparkfy/internal/ddl"
	"github.com/cadu1996/Sparkfy/internal/domain"
	"github.com/cadu1996/Sparkfy/internal/store"
)

// Column orders below match the Values methods in package domain.

var songs = ddl.TableDef{Name: domain.TableSongs, Columns: []ddl.ColumnDef{
	{Name: "song_id", Kind: ddl.KindKey, PrimaryKey: true},
	{Name: "title", Kind: ddl.KindText},
	{Name: "artist_id", Kind: ddl.KindKey, Nullable: true},
	{Name: "year", Kind: ddl.KindInt, Nullable: true},
	{Name: "duration", Kind: ddl.KindFloat},
}}

var artists = ddl.TableDef{Name: domain.TableArtists, Columns: []ddl.ColumnDef{
	{Name: "artist_id", Kind: ddl.KindKey, PrimaryKey: true},
	{Name: "name", Kind: ddl.KindText},
	{Name: "location", Kind: ddl.KindText, Nullable: true},
	{Name: "latitude", Kind: ddl.KindFloat, Nullable: true},
	{Name: "longitude", Kind: ddl.KindFloat, Nullable: true},
}}

var users = ddl.TableDef{Name: domain.TableUsers, Columns: []ddl.ColumnDef{
	{Name: "user_id", Kind: ddl.KindBigInt, PrimaryKey: true},
	{Name: "first_name", Kind: ddl.KindText, Nullable: true},
	{Name: "last_name", Kind: ddl.KindText, Nullable: true},
	{Name: "gender", Kind: ddl.KindText, Nullable: true},
	{Name: "level", Kind: ddl.KindText, Nullable: true},
}}

var timeTable = ddl.TableDef{Name: domain.TableTime, Columns: []ddl.ColumnDef{
	{Name: "start_time", Kind: ddl.KindTimestamp, PrimaryKey: true},
	{Name: "hour", Kind: ddl.KindInt, Nullable: true},
	{Name: "day", Kind: ddl.KindInt, Nullable: true},
	{Name: "week", Kind: ddl.KindInt, Nullable: true},
	{Name: "month", Kind: ddl.KindInt, Nullable: true},
	{Name: "year", Kind: ddl.KindInt, Nullable: true},
	{Name: "weekday", Kind: ddl.KindInt, Nullable: true},
}}

var songplays = ddl.TableDef{Name: domain.TableSongPlays, Columns: []ddl.ColumnDef{
	{Name: "songplay_id", Kind: ddl.KindBigInt, PrimaryKey: true},
	{Name: "start_time", Kind: ddl.KindTimestamp},
	{Name: "user_id", Kind: ddl.KindBigInt},
	{Name: "level", Kind: ddl.KindText, Nullable: true},
	{Name: "song_id", Kind: ddl.KindKey, Nullable: true},
	{Name: "artist_id", Kind: ddl.KindKey, Nullable: true},
	{Name: "session_id", Kind: ddl.KindBigInt, Nullable: true},
	{Name: "location", Kind: ddl.KindText, Nullable: true},
	{Name: "user_agent", Kind: ddl.KindText, Nullable: true},
}}

// Tables returns the relation definitions, dimensions first.
func Tables() []ddl.TableDef {
	return []ddl.TableDef{songs, artists, users, timeTable, songplays}
}

// Table returns the definition of the named relation.
func Table(name string) (ddl.TableDef, bool) {
	for _, t := range Tables() {
		if t.Name == name {
			return t, true
		}
	}
	return ddl.TableDef{}, false
}

// Ensure creates every relation that does not exist yet.
func Ensure(ctx context.Context, db store.DB) error {
	d := db.Dialect()
	for _, t := range Tables() {
		q, err := d.CreateTable(t)
		if err != nil {
			return fmt.Errorf("schema: render %s: %w", t.Name, err)
		}
		if err := db.Exec(ctx, q); err != nil {
			return fmt.Errorf("schema: create %s: %w", t.Name, err)
		}
	}
	return nil
}
