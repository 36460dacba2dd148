package upsert

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cadu1996/Sparkfy/internal/domain"
	"github.com/cadu1996/Sparkfy/internal/store"
)

// Policy says what happens when an inserted row's key already exists.
type Policy struct {
	conflict store.OnConflict
	update   []string
}

var (
	// RejectDuplicate lets the store refuse the row; the caller sees a
	// *store.ConstraintViolationError.
	RejectDuplicate = Policy{conflict: store.ConflictFail}
	// IgnoreDuplicate keeps the stored row; the first write wins.
	IgnoreDuplicate = Policy{conflict: store.ConflictIgnore}
)

// MergeOn overwrites cols of the stored row with the incoming values; the
// last write wins for those columns and the rest keep their first value.
func MergeOn(cols ...string) Policy {
	return Policy{conflict: store.ConflictUpdate, update: append([]string(nil), cols...)}
}

// Update returns the columns a MergeOn policy overwrites.
func (p Policy) Update() []string { return append([]string(nil), p.update...) }

func (p Policy) String() string {
	switch p.conflict {
	case store.ConflictFail:
		return "reject"
	case store.ConflictIgnore:
		return "ignore"
	case store.ConflictUpdate:
		return "merge:" + strings.Join(p.update, ",")
	}
	return fmt.Sprintf("policy(%d)", p.conflict)
}

// ParsePolicy reads the textual form used in configuration:
//
//	reject
//	ignore
//	merge:col1,col2
func ParsePolicy(s string) (Policy, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch {
	case s == "reject":
		return RejectDuplicate, nil
	case s == "ignore":
		return IgnoreDuplicate, nil
	case strings.HasPrefix(s, "merge:"):
		var cols []string
		for _, c := range strings.Split(strings.TrimPrefix(s, "merge:"), ",") {
			if c = strings.TrimSpace(c); c != "" {
				cols = append(cols, c)
			}
		}
		if len(cols) == 0 {
			return Policy{}, fmt.Errorf("upsert: policy %q names no columns", s)
		}
		return MergeOn(cols...), nil
	}
	return Policy{}, fmt.Errorf("upsert: unknown policy %q (want reject, ignore or merge:<cols>)", s)
}

// Policies maps a relation name to its conflict policy.
type Policies map[string]Policy

// DefaultPolicies returns the per-relation table:
//
//	songs, artists     ignore     first load wins
//	users              merge:level  latest subscription tier wins
//	time               ignore     rows are a function of the key
//	songplays          ignore     the key is derived from the event
func DefaultPolicies() Policies {
	return Policies{
		domain.TableSongs:     IgnoreDuplicate,
		domain.TableArtists:   IgnoreDuplicate,
		domain.TableUsers:     MergeOn("level"),
		domain.TableTime:      IgnoreDuplicate,
		domain.TableSongPlays: IgnoreDuplicate,
	}
}

// For returns the policy of relation, RejectDuplicate when none is set.
func (ps Policies) For(relation string) Policy {
	if p, ok := ps[relation]; ok {
		return p
	}
	return RejectDuplicate
}

// WithOverrides returns a copy of ps with the textual policies in overrides
// applied. Unknown relations are rejected.
func (ps Policies) WithOverrides(overrides map[string]string) (Policies, error) {
	out := make(Policies, len(ps))
	for k, v := range ps {
		out[k] = v
	}
	names := make([]string, 0, len(overrides))
	for n := range overrides {
		names = append(names, n)
	}
	sort.Strings(names)
	for _, n := range names {
		if _, ok := ps[n]; !ok {
			return nil, fmt.Errorf("upsert: unknown relation %q", n)
		}
		p, err := ParsePolicy(overrides[n])
		if err != nil {
			return nil, fmt.Errorf("upsert: relation %s: %w", n, err)
		}
		out[n] = p
	}
	return out, nil
}
