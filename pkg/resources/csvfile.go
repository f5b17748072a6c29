package resources

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strconv"
	"strings"
)

// table is the decoded contents of the resources file
type table struct {
	rows []Resource
	// missing lists header columns absent from the file
	missing []string
}

func (t *table) indexOf(id string) int {
	for i := range t.rows {
		if t.rows[i].ID == id {
			return i
		}
	}
	return -1
}

// ensureFile creates the parent directory and a header-only file when path does not exist.
// It reports whether the file was created.
func ensureFile(path string) (bool, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return false, fmt.Errorf("failed to create data directory: %w", err)
		}
	}
	if _, err := os.Stat(path); err == nil {
		return false, nil
	} else if !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("failed to stat resources file: %w", err)
	}
	if err := writeTable(path, nil); err != nil {
		return false, err
	}
	return true, nil
}

func readTable(path string) (*table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open resources file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1

	header, err := r.Read()
	if errors.Is(err, io.EOF) {
		return &table{missing: append([]string(nil), Columns...)}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read resources header: %w", err)
	}

	pos := make(map[string]int, len(header))
	for i, name := range header {
		pos[strings.TrimSpace(strings.TrimPrefix(name, "\ufeff"))] = i
	}

	t := &table{}
	for _, col := range Columns {
		if _, ok := pos[col]; !ok {
			t.missing = append(t.missing, col)
		}
	}

	field := func(rec []string, col string) (string, bool) {
		i, ok := pos[col]
		if !ok || i >= len(rec) {
			return "", false
		}
		return rec[i], true
	}

	line := 1
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return nil, fmt.Errorf("failed to read resources row %d: %w", line, err)
		}

		var res Resource
		res.ID, _ = field(rec, "id")
		res.Title, _ = field(rec, "title")
		if d, ok := field(rec, "description"); ok && d != "" {
			res.Description = &d
		}
		if v, _ := field(rec, "access_count"); v != "" {
			if res.AccessCount, err = parseCount(v); err != nil {
				return nil, fmt.Errorf("invalid access_count on row %d: %w", line, err)
			}
		}
		if v, _ := field(rec, "student_count"); v != "" {
			if res.StudentCount, err = parseCount(v); err != nil {
				return nil, fmt.Errorf("invalid student_count on row %d: %w", line, err)
			}
		}
		t.rows = append(t.rows, res)
	}

	return t, nil
}

// parseCount accepts plain integers and integral floats such as "12.0"
func parseCount(v string) (int, error) {
	v = strings.TrimSpace(v)
	if n, err := strconv.Atoi(v); err == nil {
		return n, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || f != math.Trunc(f) {
		return 0, fmt.Errorf("%q is not an integer", v)
	}
	return int(f), nil
}

// writeTable replaces the file at path with rows. The new contents are
// written to a temporary file in the same directory and renamed into place,
// keeping the permissions of the file being replaced.
func writeTable(path string, rows []Resource) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	w := csv.NewWriter(tmp)
	if err := w.Write(Columns); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write resources header: %w", err)
	}
	for _, r := range rows {
		desc := ""
		if r.Description != nil {
			desc = *r.Description
		}
		rec := []string{
			r.ID,
			r.Title,
			desc,
			strconv.Itoa(r.AccessCount),
			strconv.Itoa(r.StudentCount),
		}
		if err := w.Write(rec); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to write resource %s: %w", r.ID, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to flush resources file: %w", err)
	}
	mode := os.FileMode(0644)
	if fi, err := os.Stat(path); err == nil {
		mode = fi.Mode().Perm()
	}
	if err := tmp.Chmod(mode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to set resources file mode: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to replace resources file: %w", err)
	}
	return nil
}
