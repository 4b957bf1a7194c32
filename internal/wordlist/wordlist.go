package wordlist

import (
	"bufio"
	"fmt"
	"os"
	"strings"
)

// Load returns the de-duplicated entries of the given wordlist files in
// order. Blank lines and "#" comments are skipped, and an entry that
// appears in several files is kept only at its first position.
func Load(paths ...string) ([]string, error) {
	var result []string
	err := each(paths, func(entry, _ string) {
		result = append(result, entry)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Origins maps each merged entry to the wordlist it was first read from.
type Origins map[string]string

// Merge concatenates the wordlists into dst, one de-duplicated entry per
// line, and reports where each entry came from.
func Merge(dst string, paths ...string) (Origins, error) {
	f, err := os.Create(dst)
	if err != nil {
		return nil, fmt.Errorf("creating merged wordlist: %w", err)
	}
	w := bufio.NewWriter(f)
	origins := make(Origins)
	err = each(paths, func(entry, path string) {
		origins[entry] = path
		w.WriteString(entry)
		w.WriteByte('\n')
	})
	if err != nil {
		f.Close()
		return nil, err
	}
	if err := w.Flush(); err != nil {
		f.Close()
		return nil, fmt.Errorf("writing merged wordlist: %w", err)
	}
	if err := f.Close(); err != nil {
		return nil, fmt.Errorf("writing merged wordlist: %w", err)
	}
	return origins, nil
}

// each calls fn for every distinct entry of paths, in order, with the
// file it was first seen in.
func each(paths []string, fn func(entry, path string)) error {
	seen := make(map[string]struct{})
	for _, path := range paths {
		f, err := os.Open(path)
		if err != nil {
			return fmt.Errorf("reading wordlist %s: %w", path, err)
		}
		sc := bufio.NewScanner(f)
		sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for sc.Scan() {
			line := strings.TrimSpace(sc.Text())
			if line == "" || strings.HasPrefix(line, "#") {
				continue
			}
			if _, ok := seen[line]; !ok {
				seen[line] = struct{}{}
				fn(line, path)
			}
		}
		err = sc.Err()
		f.Close()
		if err != nil {
			return fmt.Errorf("reading wordlist %s: %w", path, err)
		}
	}
	return nil
}

// Existing returns the subset of paths that are regular files, and the
// ones that are not.
func Existing(paths []string) (found, missing []string) {
	for _, p := range paths {
		if fi, err := os.Stat(p); err == nil && fi.Mode().IsRegular() {
			found = append(found, p)
		} else {
			missing = append(missing, p)
		}
	}
	return found, missing
}
