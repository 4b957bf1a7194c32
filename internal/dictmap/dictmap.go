// Package dictmap resolves detected technologies to wordlist files.
package dictmap

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/maxvaer/intervention/internal/config"
)

// Mapper maps technology identifiers to wordlist paths under a dictionary
// root for one mode. It is immutable after New.
type Mapper struct {
	root        string
	mode        string
	defaultPath string
	table       map[string][]string
	onDisk      map[string]map[string]string // stem -> mode -> path
}

// New returns a Mapper over the built-in table merged with extra entries
// and the <stem>_<short|long>.txt files found in root. Extra entries
// replace built-in ones with the same key. A non-empty defaultList
// replaces the generic wordlist.
func New(root, mode string, extra map[string][]string, defaultList string) (*Mapper, error) {
	if mode != config.ModeShort && mode != config.ModeLong {
		return nil, fmt.Errorf("%w: unknown wordlist mode %q", config.ErrInvalidConfig, mode)
	}
	table := make(map[string][]string, len(defaultTable)+len(extra))
	for k, v := range defaultTable {
		table[k] = v
	}
	for k, v := range extra {
		k = strings.ToLower(strings.TrimSpace(k))
		if k == "" || len(v) == 0 {
			continue
		}
		table[k] = append([]string(nil), v...)
	}

	onDisk, err := scan(root)
	if err != nil {
		return nil, err
	}
	return &Mapper{root: root, mode: mode, defaultPath: defaultList, table: table, onDisk: onDisk}, nil
}

// scan indexes the wordlists in root by stem and mode. A missing root
// yields an empty index.
func scan(root string) (map[string]map[string]string, error) {
	entries, err := os.ReadDir(root)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]map[string]string{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: reading dictionary dir: %v", config.ErrInvalidConfig, err)
	}

	index := make(map[string]map[string]string)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := strings.ToLower(e.Name())
		for _, mode := range []string{config.ModeShort, config.ModeLong} {
			stem, ok := strings.CutSuffix(name, "_"+mode+".txt")
			if !ok || stem == "" {
				continue
			}
			if index[stem] == nil {
				index[stem] = make(map[string]string, 2)
			}
			index[stem][mode] = filepath.Join(root, e.Name())
		}
	}
	return index, nil
}

// Default returns the generic wordlist path.
func (m *Mapper) Default() string {
	if m.defaultPath != "" {
		return m.defaultPath
	}
	return m.resolve(DefaultStem)
}

// Known reports whether tech resolves to at least one wordlist.
func (m *Mapper) Known(tech string) bool {
	return len(m.Lookup(tech)) > 0
}

// Lookup returns the wordlist stems for tech. The identifier itself is
// tried first, then each "-"-separated token in order, so
// "wordpress-login-panel" resolves like "wordpress". The table and its
// aliases are searched for every candidate before wordlist files on disk.
func (m *Mapper) Lookup(tech string) []string {
	if tech == "" {
		return nil
	}
	candidates := append([]string{tech}, strings.Split(tech, "-")...)
	for _, key := range candidates {
		if stems, ok := m.table[key]; ok {
			return stems
		}
		if target, ok := aliases[key]; ok {
			return m.table[target]
		}
	}
	for _, key := range candidates {
		if _, ok := m.onDisk[key]; ok && key != DefaultStem {
			return []string{key}
		}
	}
	return nil
}

// Paths returns the wordlist paths for one technology, or nil.
func (m *Mapper) Paths(tech string) []string {
	stems := m.Lookup(tech)
	if len(stems) == 0 {
		return nil
	}
	paths := make([]string, len(stems))
	for i, stem := range stems {
		paths[i] = m.resolve(stem)
	}
	return paths
}

// Map returns the ordered, duplicate-free wordlist paths for techs.
// Unknown technologies are ignored. The result is never empty: without
// any match it holds only the default wordlist.
func (m *Mapper) Map(techs []string) []string {
	seen := make(map[string]struct{})
	var paths []string
	for _, tech := range techs {
		for _, p := range m.Paths(tech) {
			if _, ok := seen[p]; ok {
				continue
			}
			seen[p] = struct{}{}
			paths = append(paths, p)
		}
	}
	if len(paths) == 0 {
		return []string{m.Default()}
	}
	return paths
}

// Technologies returns the sorted keys of the mapping table together with
// the stems of the wordlists found on disk.
func (m *Mapper) Technologies() []string {
	set := make(map[string]struct{}, len(m.table)+len(m.onDisk))
	for k := range m.table {
		set[k] = struct{}{}
	}
	for k := range m.onDisk {
		set[k] = struct{}{}
	}
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// resolve picks the on-disk file for stem in the configured mode, then in
// the other mode, and otherwise the nominal path for the configured mode.
func (m *Mapper) resolve(stem string) string {
	if files, ok := m.onDisk[stem]; ok {
		if p, ok := files[m.mode]; ok {
			return p
		}
		for _, p := range files {
			return p
		}
	}
	return filepath.Join(m.root, stem+"_"+m.mode+".txt")
}
