// Package spreadsheet persists the season grid as an xlsx workbook.
package spreadsheet

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/omarshaarawi/poolpicks/internal/pool"
)

type Store struct {
	path   string
	sheet  string
	layout pool.Layout
}

func NewStore(path, sheet string, layout pool.Layout) *Store {
	return &Store{path: path, sheet: sheet, layout: layout}
}

func (s *Store) Path() string {
	return s.path
}

func (s *Store) Exists() bool {
	_, err := os.Stat(s.path)
	return err == nil
}

// Load reads the grid sheet. A missing workbook yields an error wrapping
// fs.ErrNotExist.
func (s *Store) Load() (*pool.Grid, error) {
	f, err := excelize.OpenFile(s.path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", s.path, err)
	}
	defer f.Close()

	idx, err := f.GetSheetIndex(s.sheet)
	if err != nil || idx < 0 {
		return nil, fmt.Errorf("workbook %s has no sheet %q", s.path, s.sheet)
	}

	rows, err := f.GetRows(s.sheet)
	if err != nil {
		return nil, fmt.Errorf("reading sheet %q: %w", s.sheet, err)
	}

	return pool.GridFromRows(s.layout, rows)
}

// LoadOrCreate loads the workbook, or starts an empty season grid when the
// file does not exist yet.
func (s *Store) LoadOrCreate(participant string) (*pool.Grid, error) {
	grid, err := s.Load()
	if errors.Is(err, fs.ErrNotExist) {
		slog.Info("Workbook not found, starting a new season grid", "path", s.path)
		return pool.NewGrid(s.layout, participant), nil
	}
	return grid, err
}

// Save writes every grid cell into the sheet, keeping other sheets and
// formatting of an existing workbook. The file is replaced by rename so a
// failed write never leaves a truncated workbook behind.
func (s *Store) Save(grid *pool.Grid) error {
	f, err := s.openOrNew()
	if err != nil {
		return err
	}
	defer f.Close()

	for r, row := range grid.Rows() {
		for c, value := range row {
			cell, err := excelize.CoordinatesToCellName(c+1, r+1)
			if err != nil {
				return fmt.Errorf("naming cell: %w", err)
			}
			if err := f.SetCellValue(s.sheet, cell, cellValue(value)); err != nil {
				return fmt.Errorf("writing %s: %w", cell, err)
			}
		}
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("creating workbook directory: %w", err)
		}
	}

	tmp := s.path + ".tmp.xlsx"
	if err := f.SaveAs(tmp); err != nil {
		return fmt.Errorf("saving workbook: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replacing workbook: %w", err)
	}
	return nil
}

func (s *Store) openOrNew() (*excelize.File, error) {
	if s.Exists() {
		f, err := excelize.OpenFile(s.path)
		if err != nil {
			return nil, fmt.Errorf("opening workbook %s: %w", s.path, err)
		}
		if idx, err := f.GetSheetIndex(s.sheet); err != nil || idx < 0 {
			if _, err := f.NewSheet(s.sheet); err != nil {
				f.Close()
				return nil, fmt.Errorf("adding sheet %q: %w", s.sheet, err)
			}
		}
		return f, nil
	}

	f := excelize.NewFile()
	if err := f.SetSheetName("Sheet1", s.sheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("naming sheet %q: %w", s.sheet, err)
	}
	return f, nil
}

// Backup copies the current workbook to path. It is a no-op when there is
// nothing to back up yet.
func (s *Store) Backup(path string) (string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("reading workbook for backup: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", fmt.Errorf("creating backup directory: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return "", fmt.Errorf("writing backup: %w", err)
	}
	slog.Info("Workbook backed up", "path", path)
	return path, nil
}

// Header labels are numbers; keep them numeric in the sheet.
func cellValue(value string) any {
	if n, err := strconv.Atoi(value); err == nil {
		return n
	}
	return value
}
