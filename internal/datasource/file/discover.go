package file

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
)

// Discover returns the absolute paths of all files under root, at any depth,
// whose name ends in ext (e.g. ".json"). Results are sorted so a run visits
// files in the same order every time.
func Discover(root, ext string) ([]string, error) {
	if strings.TrimSpace(root) == "" {
		return nil, fmt.Errorf("discover: root must not be empty")
	}
	if ext == "" {
		return nil, fmt.Errorf("discover: extension must not be empty")
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}

	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("discover %s: not a directory", root)
	}

	pattern := "**/*" + escapeMeta(ext)
	matches, err := doublestar.Glob(os.DirFS(abs), pattern, doublestar.WithFilesOnly())
	if err != nil {
		return nil, fmt.Errorf("discover %s: %w", root, err)
	}

	out := make([]string, 0, len(matches))
	for _, m := range matches {
		out = append(out, filepath.Join(abs, filepath.FromSlash(m)))
	}
	sort.Strings(out)
	return out, nil
}

// DiscoverAll runs Discover for each root concurrently. The i-th result holds
// the files of roots[i]; the first error cancels the rest.
func DiscoverAll(ctx context.Context, ext string, roots ...string) ([][]string, error) {
	out := make([][]string, len(roots))
	g, ctx := errgroup.WithContext(ctx)
	for i, root := range roots {
		i, root := i, root
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			files, err := Discover(root, ext)
			if err != nil {
				return err
			}
			out[i] = files
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// escapeMeta escapes glob metacharacters in a literal suffix.
func escapeMeta(s string) string {
	var b strings.Builder
	for _, r := range s {
		switch r {
		case '*', '?', '[', ']', '{', '}', '\\':
			b.WriteByte('\\')
		}
		b.WriteRune(r)
	}
	return b.String()
}
