package library

import (
	"bufio"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// maxSampleFiles caps the files listed per sampled folder.
const maxSampleFiles = 12

// Report describes an output root without modifying it.
type Report struct {
	Root    string
	Exists  bool
	Strm    int
	NFO     int
	Artwork int
	Other   int
	Samples []Sample
}

// Sample is one item folder picked for display.
type Sample struct {
	Dir   string
	Files []SampleFile
	// More counts files beyond the listed ones.
	More int
}

// SampleFile is a file inside a sample. URL holds the first line of a .strm.
type SampleFile struct {
	Path string
	URL  string
}

// Inspect counts the files below root and samples up to n item folders. With
// categories set, item folders are looked for one level deeper.
func Inspect(root string, n int, categories bool) (Report, error) {
	rep := Report{Root: root}
	if _, err := os.Stat(root); errors.Is(err, os.ErrNotExist) {
		return rep, nil
	} else if err != nil {
		return rep, err
	}
	rep.Exists = true

	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		switch ext := strings.ToLower(filepath.Ext(path)); {
		case ext == StrmExt:
			rep.Strm++
		case ext == ".nfo":
			rep.NFO++
		case sidecarExts[ext]:
			rep.Artwork++
		default:
			rep.Other++
		}
		return nil
	})
	if err != nil {
		return rep, err
	}

	dirs, err := itemDirs(root, categories)
	if err != nil {
		return rep, err
	}
	if n < len(dirs) {
		dirs = dirs[:max(n, 0)]
	}
	for _, dir := range dirs {
		s, err := sample(dir)
		if err != nil {
			return rep, err
		}
		rep.Samples = append(rep.Samples, s)
	}
	return rep, nil
}

func itemDirs(root string, categories bool) ([]string, error) {
	top, err := subdirs(root)
	if err != nil || !categories {
		return top, err
	}
	var out []string
	for _, cat := range top {
		items, err := subdirs(cat)
		if err != nil {
			return nil, err
		}
		out = append(out, items...)
	}
	return out, nil
}

func subdirs(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, e := range entries {
		if e.IsDir() {
			out = append(out, filepath.Join(dir, e.Name()))
		}
	}
	sort.Strings(out)
	return out, nil
}

func sample(dir string) (Sample, error) {
	s := Sample{Dir: dir}
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		if len(s.Files) >= maxSampleFiles {
			s.More++
			return nil
		}
		rel, _ := filepath.Rel(dir, path)
		f := SampleFile{Path: filepath.ToSlash(rel)}
		if strings.EqualFold(filepath.Ext(path), StrmExt) {
			f.URL = firstLine(path)
		}
		s.Files = append(s.Files, f)
		return nil
	})
	return s, err
}

func firstLine(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()
	sc := bufio.NewScanner(f)
	if sc.Scan() {
		return strings.TrimSpace(sc.Text())
	}
	return ""
}
