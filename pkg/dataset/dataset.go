// Package dataset manages corpora on disk: enumerating convertible
// files, deterministic train/val/test splits, name-prefix
// classification, and the pruning helpers used to balance a labeled
// dataset before training.
package dataset

import (
	"fmt"
	"io"
	"io/fs"
	"math/rand"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Entry pairs a file with its directory-derived category label.
type Entry struct {
	Path     string
	Category string
}

// Scan lists files under root carrying one of the given extensions
// (case-insensitive, with leading dot), in lexical order. A file's
// category is its first directory component under root, or
// "uncategorized" for files directly in root.
func Scan(root string, exts []string) ([]Entry, error) {
	want := make(map[string]bool, len(exts))
	for _, e := range exts {
		want[strings.ToLower(e)] = true
	}
	var out []Entry
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !want[strings.ToLower(filepath.Ext(path))] {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		category := "uncategorized"
		if parts := strings.Split(filepath.ToSlash(rel), "/"); len(parts) > 1 {
			category = parts[0]
		}
		out = append(out, Entry{Path: path, Category: category})
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// SplitResult partitions file paths for training.
type SplitResult struct {
	Train []string
	Val   []string
	Test  []string
}

// Split shuffles files with the given seed and cuts them into
// train/val/test partitions. The same files, fractions, and seed
// always produce the same partition. Fractions must be non-negative
// and sum to at most 1; the remainder becomes the test set.
func Split(files []string, trainFrac, valFrac float64, seed int64) (SplitResult, error) {
	if trainFrac < 0 || valFrac < 0 || trainFrac+valFrac > 1 {
		return SplitResult{}, fmt.Errorf("invalid split fractions %g/%g", trainFrac, valFrac)
	}
	shuffled := append([]string{}, files...)
	sort.Strings(shuffled)
	rng := rand.New(rand.NewSource(seed))
	rng.Shuffle(len(shuffled), func(i, j int) {
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	})

	nTrain := int(float64(len(shuffled)) * trainFrac)
	nVal := int(float64(len(shuffled)) * valFrac)
	return SplitResult{
		Train: shuffled[:nTrain],
		Val:   shuffled[nTrain : nTrain+nVal],
		Test:  shuffled[nTrain+nVal:],
	}, nil
}

// CategoryOf derives a category from a file name: the portion before
// the first underscore, or "other" when the name has none. CAD corpora
// commonly encode the part family that way ("bracket_0042.step").
func CategoryOf(name string) string {
	base := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	if i := strings.Index(base, "_"); i > 0 {
		return base[:i]
	}
	return "other"
}

// ClassifyByName moves every file directly under dir into a
// subdirectory named after its name-prefix category. Returns per-
// category move counts.
func ClassifyByName(dir string) (map[string]int, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		cat := CategoryOf(e.Name())
		catDir := filepath.Join(dir, cat)
		if err := os.MkdirAll(catDir, 0o755); err != nil {
			return counts, err
		}
		if err := os.Rename(filepath.Join(dir, e.Name()), filepath.Join(catDir, e.Name())); err != nil {
			return counts, err
		}
		counts[cat]++
	}
	return counts, nil
}

// CopyBySuffix copies files under src ending in suffix into dst,
// flattened. Returns the number of files copied.
func CopyBySuffix(src, dst, suffix string) (int, error) {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return 0, err
	}
	n := 0
	err := filepath.WalkDir(src, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, suffix) {
			return err
		}
		if err := copyFile(path, filepath.Join(dst, filepath.Base(path))); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// DeleteBySuffix removes files under root ending in suffix. Returns
// the number removed.
func DeleteBySuffix(root, suffix string) (int, error) {
	n := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, suffix) {
			return err
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// DeleteLargeFiles removes files under root larger than maxBytes,
// trimming outlier models that dominate batch memory. Returns the
// number removed.
func DeleteLargeFiles(root string, maxBytes int64) (int, error) {
	n := 0
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.Size() <= maxBytes {
			return nil
		}
		if err := os.Remove(path); err != nil {
			return err
		}
		n++
		return nil
	})
	return n, err
}

// CountBySubfolder counts files per immediate subdirectory of root.
func CountBySubfolder(root string) (map[string]int, error) {
	dirs, err := os.ReadDir(root)
	if err != nil {
		return nil, err
	}
	counts := make(map[string]int)
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		n := 0
		err := filepath.WalkDir(filepath.Join(root, d.Name()), func(_ string, e fs.DirEntry, err error) error {
			if err == nil && !e.IsDir() {
				n++
			}
			return err
		})
		if err != nil {
			return nil, err
		}
		counts[d.Name()] = n
	}
	return counts, nil
}

// DeleteSparseFolders removes immediate subdirectories of root holding
// fewer than minFiles files; categories that thin cannot be learned
// from. Returns the number of directories removed.
func DeleteSparseFolders(root string, minFiles int) (int, error) {
	counts, err := CountBySubfolder(root)
	if err != nil {
		return 0, err
	}
	removed := 0
	names := make([]string, 0, len(counts))
	for name := range counts {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if counts[name] >= minFiles {
			continue
		}
		if err := os.RemoveAll(filepath.Join(root, name)); err != nil {
			return removed, err
		}
		removed++
	}
	return removed, nil
}

// Balance deletes a seeded-random surplus from every immediate
// subdirectory of root so none keeps more than maxPerCategory files.
// Returns the number of files removed.
func Balance(root string, maxPerCategory int, seed int64) (int, error) {
	dirs, err := os.ReadDir(root)
	if err != nil {
		return 0, err
	}
	rng := rand.New(rand.NewSource(seed))
	removed := 0
	for _, d := range dirs {
		if !d.IsDir() {
			continue
		}
		dir := filepath.Join(root, d.Name())
		entries, err := os.ReadDir(dir)
		if err != nil {
			return removed, err
		}
		var files []string
		for _, e := range entries {
			if !e.IsDir() {
				files = append(files, e.Name())
			}
		}
		if len(files) <= maxPerCategory {
			continue
		}
		sort.Strings(files)
		rng.Shuffle(len(files), func(i, j int) {
			files[i], files[j] = files[j], files[i]
		})
		for _, name := range files[maxPerCategory:] {
			if err := os.Remove(filepath.Join(dir, name)); err != nil {
				return removed, err
			}
			removed++
		}
	}
	return removed, nil
}
