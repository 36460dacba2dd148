// Package pipeline loads the song catalog and the event logs into the star
// schema. It runs two ordered phases: DIMENSION over every song file, then
// FACT over every log file. Each file is applied in its own transaction, so
// a failure never leaves part of a file behind.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/cadu1996/Sparkfy/internal/domain"
	"github.com/cadu1996/Sparkfy/internal/extract"
	"github.com/cadu1996/Sparkfy/internal/metrics"
	"github.com/cadu1996/Sparkfy/internal/records"
	"github.com/cadu1996/Sparkfy/internal/resolve"
	"github.com/cadu1996/Sparkfy/internal/schema"
	"github.com/cadu1996/Sparkfy/internal/store"
	"github.com/cadu1996/Sparkfy/internal/upsert"
)

// Phase names a pipeline phase.
type Phase string

const (
	PhaseDimension Phase = "dimension"
	PhaseFact      Phase = "fact"
)

// DefaultJob labels metrics when Options.Job is empty.
const DefaultJob = "sparkify_etl"

// FileError reports the file, and when known the 1-based record line, at
// which a phase failed. The file's transaction has been rolled back.
type FileError struct {
	Phase Phase
	Path  string
	Line  int
	Err   error
}

func (e *FileError) Error() string {
	var me *records.MalformedRecordError
	if errors.As(e.Err, &me) && me.Path == e.Path && me.Line == e.Line {
		return fmt.Sprintf("pipeline: %s phase: %v", e.Phase, e.Err)
	}
	if e.Line > 0 {
		return fmt.Sprintf("pipeline: %s phase: %s:%d: %v", e.Phase, e.Path, e.Line, e.Err)
	}
	return fmt.Sprintf("pipeline: %s phase: %s: %v", e.Phase, e.Path, e.Err)
}

func (e *FileError) Unwrap() error { return e.Err }

// Options tune a Pipeline. The zero value uses the default extractor and
// conflict policies.
type Options struct {
	// Job labels emitted metrics.
	Job string
	// Extractor maps source records to rows. Nil means extract.New().
	Extractor *extract.Extractor
	// Policies sets the conflict policy per relation. Nil means
	// upsert.DefaultPolicies().
	Policies upsert.Policies
	// MatchDuration additionally requires the logged length to equal the
	// catalog duration when resolving songs.
	MatchDuration bool
	// ContinueOnError skips a failed file instead of aborting the run. Run
	// still returns every failure, joined.
	ContinueOnError bool
}

// Counts tallies rows applied per relation, plus playback events with no
// catalog match and events that were not playbacks. A row is applied when its
// statement ran; under IgnoreDuplicate that includes rows the store already
// held, so a rerun reports the same counts as the first run.
type Counts struct {
	Songs      int
	Artists    int
	Users      int
	Time       int
	SongPlays  int
	Unresolved int
	Skipped    int
}

func (c *Counts) add(o Counts) {
	c.Songs += o.Songs
	c.Artists += o.Artists
	c.Users += o.Users
	c.Time += o.Time
	c.SongPlays += o.SongPlays
	c.Unresolved += o.Unresolved
	c.Skipped += o.Skipped
}

func (c Counts) fields() []zap.Field {
	return []zap.Field{
		zap.Int("songs", c.Songs),
		zap.Int("artists", c.Artists),
		zap.Int("users", c.Users),
		zap.Int("time", c.Time),
		zap.Int("songplays", c.SongPlays),
		zap.Int("unresolved", c.Unresolved),
		zap.Int("skipped", c.Skipped),
	}
}

// Pipeline applies source files to a store.
type Pipeline struct {
	db       store.DB
	log      *zap.Logger
	opts     Options
	x        *extract.Extractor
	exec     *upsert.Executor
	resolver *resolve.Resolver
	rels     map[string]upsert.Relation
}

// New returns a Pipeline writing to db. The caller owns db. A nil logger
// discards log output.
func New(db store.DB, logger *zap.Logger, opts Options) *Pipeline {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.Job == "" {
		opts.Job = DefaultJob
	}
	if opts.Policies == nil {
		opts.Policies = upsert.DefaultPolicies()
	}
	x := opts.Extractor
	if x == nil {
		x = extract.New()
	}
	rels := make(map[string]upsert.Relation)
	for _, t := range schema.Tables() {
		rels[t.Name] = upsert.RelationOf(t)
	}
	d := db.Dialect()
	return &Pipeline{
		db:       db,
		log:      logger,
		opts:     opts,
		x:        x,
		exec:     upsert.New(d),
		resolver: resolve.New(d, opts.MatchDuration),
		rels:     rels,
	}
}

// Run loads every song file, then every log file, in the order given. It
// returns the total counts of the files that committed.
//
// Without ContinueOnError the first failure stops the run and is returned
// as a *FileError. With it, failed files are skipped and the failures are
// returned together through errors.Join.
func (p *Pipeline) Run(ctx context.Context, songFiles, logFiles []string) (Counts, error) {
	var total Counts
	var errs []error

	phases := []struct {
		phase Phase
		files []string
		load  func(context.Context, string) (Counts, error)
	}{
		{PhaseDimension, songFiles, p.LoadSongFile},
		{PhaseFact, logFiles, p.LoadLogFile},
	}
	for _, ph := range phases {
		n := len(ph.files)
		for i, path := range ph.files {
			if err := ctx.Err(); err != nil {
				return total, errors.Join(append(errs, err)...)
			}
			c, err := ph.load(ctx, path)
			if err != nil {
				if !p.opts.ContinueOnError {
					return total, err
				}
				errs = append(errs, err)
				continue
			}
			total.add(c)
			p.log.Info(fmt.Sprintf("%d/%d files processed", i+1, n),
				append([]zap.Field{zap.String("phase", string(ph.phase)), zap.String("file", path)}, c.fields()...)...)
		}
	}

	p.log.Info("run complete", append(total.fields(), zap.Int("failed_files", len(errs)))...)
	return total, errors.Join(errs...)
}

// LoadSongFile applies one catalog file: a songs row and an artists row per
// record.
func (p *Pipeline) LoadSongFile(ctx context.Context, path string) (Counts, error) {
	return p.loadFile(ctx, PhaseDimension, path, p.applySong)
}

// LoadLogFile applies one event log file. Each playback event yields a time
// row, a users row and a songplays row; other events are skipped.
func (p *Pipeline) LoadLogFile(ctx context.Context, path string) (Counts, error) {
	return p.loadFile(ctx, PhaseFact, path, p.applyEvent)
}

type applyFunc func(ctx context.Context, tx store.Tx, rec records.Record, c *Counts) error

func (p *Pipeline) loadFile(ctx context.Context, phase Phase, path string, apply applyFunc) (c Counts, err error) {
	start := time.Now()
	defer func() {
		metrics.RecordFile(p.opts.Job, string(phase), err, time.Since(start))
		if err != nil {
			var fe *FileError
			if errors.As(err, &fe) {
				p.log.Error("file failed", zap.String("phase", string(phase)), zap.String("file", path), zap.Int("line", fe.Line), zap.Error(fe.Err))
			}
		}
	}()

	entries, err := records.ReadFile(ctx, path)
	if err != nil {
		fe := &FileError{Phase: phase, Path: path, Err: err}
		var me *records.MalformedRecordError
		if errors.As(err, &me) {
			fe.Line = me.Line
		}
		return Counts{}, fe
	}

	tx, err := p.db.BeginTx(ctx)
	if err != nil {
		return Counts{}, &FileError{Phase: phase, Path: path, Err: err}
	}
	defer func() {
		if rbErr := tx.Rollback(ctx); rbErr != nil {
			p.log.Warn("rollback failed", zap.String("phase", string(phase)), zap.String("file", path), zap.Error(rbErr))
		}
	}()

	for _, e := range entries {
		if err := apply(ctx, tx, e.Record, &c); err != nil {
			return Counts{}, &FileError{Phase: phase, Path: path, Line: e.Line, Err: err}
		}
	}
	if err := tx.Commit(ctx); err != nil {
		return Counts{}, &FileError{Phase: phase, Path: path, Err: fmt.Errorf("commit: %w", err)}
	}

	metrics.RecordRows(p.opts.Job, domain.TableSongs, int64(c.Songs))
	metrics.RecordRows(p.opts.Job, domain.TableArtists, int64(c.Artists))
	metrics.RecordRows(p.opts.Job, domain.TableUsers, int64(c.Users))
	metrics.RecordRows(p.opts.Job, domain.TableTime, int64(c.Time))
	metrics.RecordRows(p.opts.Job, domain.TableSongPlays, int64(c.SongPlays))
	metrics.RecordUnresolved(p.opts.Job, int64(c.Unresolved))
	return c, nil
}

func (p *Pipeline) write(ctx context.Context, tx store.Tx, relation string, row []any) (int, error) {
	return p.exec.Apply(ctx, tx, p.rels[relation], p.opts.Policies.For(relation), row)
}

func (p *Pipeline) applySong(ctx context.Context, tx store.Tx, rec records.Record, c *Counts) error {
	song, err := p.x.Song(rec)
	if err != nil {
		return err
	}
	artist, err := p.x.Artist(rec)
	if err != nil {
		return err
	}

	n, err := p.write(ctx, tx, domain.TableSongs, song.Values())
	if err != nil {
		return err
	}
	c.Songs += n
	n, err = p.write(ctx, tx, domain.TableArtists, artist.Values())
	if err != nil {
		return err
	}
	c.Artists += n
	return nil
}

func (p *Pipeline) applyEvent(ctx context.Context, tx store.Tx, rec records.Record, c *Counts) error {
	if !p.x.IsPlayback(rec) {
		c.Skipped++
		return nil
	}
	pb, err := p.x.Playback(rec)
	if err != nil {
		return err
	}

	n, err := p.write(ctx, tx, domain.TableTime, pb.Time.Values())
	if err != nil {
		return err
	}
	c.Time += n
	n, err = p.write(ctx, tx, domain.TableUsers, pb.User.Values())
	if err != nil {
		return err
	}
	c.Users += n

	m, ok, err := p.resolver.Resolve(ctx, tx, pb.Song, pb.Artist, pb.Length)
	if err != nil {
		return err
	}
	play := pb.Play
	if ok {
		play.SongID, play.ArtistID = &m.SongID, &m.ArtistID
	} else {
		c.Unresolved++
	}

	n, err = p.write(ctx, tx, domain.TableSongPlays, play.Values())
	if err != nil {
		return err
	}
	c.SongPlays += n
	return nil
}
