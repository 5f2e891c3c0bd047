package pool

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

var ErrNotValidated = errors.New("pick set has not been validated")

// Cell is a 1-based (row, column) position in the workbook.
type Cell struct {
	Row int
	Col int
}

// String renders the cell in A1 notation.
func (c Cell) String() string {
	return columnName(c.Col) + strconv.Itoa(c.Row)
}

func columnName(col int) string {
	var name []byte
	for col > 0 {
		col--
		name = append([]byte{byte('A' + col%26)}, name...)
		col /= 26
	}
	return string(name)
}

// Layout fixes where the interior of the grid starts and how large it is.
// The default mirrors the organizer's workbook: week numbers in row 1, the
// participant row in row 2, confidence labels in column A.
type Layout struct {
	HeaderRows    int
	HeaderCols    int
	ConfidenceMax int
	WeekMin       int
	WeekMax       int
	// Scales overrides ConfidenceMax for individual weeks.
	Scales map[int]int
}

func DefaultLayout() Layout {
	return Layout{
		HeaderRows:    2,
		HeaderCols:    1,
		ConfidenceMax: DefaultConfidenceMax,
		WeekMin:       1,
		WeekMax:       18,
	}
}

func (l Layout) Validate() error {
	if l.HeaderRows < 0 || l.HeaderCols < 0 {
		return fmt.Errorf("layout: negative header size")
	}
	if l.ConfidenceMax <= 0 {
		return fmt.Errorf("layout: %w", ErrInvalidConfidenceMax)
	}
	if l.WeekMin > l.WeekMax {
		return fmt.Errorf("layout: week range %d..%d is empty", l.WeekMin, l.WeekMax)
	}
	for week, scale := range l.Scales {
		if scale <= 0 || scale > l.ConfidenceMax {
			return fmt.Errorf("layout: week %d scale %d outside 1..%d", week, scale, l.ConfidenceMax)
		}
	}
	return nil
}

func (l Layout) Rows() int {
	return l.HeaderRows + l.ConfidenceMax
}

func (l Layout) Cols() int {
	return l.HeaderCols + l.WeekMax - l.WeekMin + 1
}

// ScaleFor returns the confidence max in force for a week.
func (l Layout) ScaleFor(week int) int {
	if scale, ok := l.Scales[week]; ok {
		return scale
	}
	return l.ConfidenceMax
}

func (l Layout) checkWeek(week int) error {
	if week < l.WeekMin || week > l.WeekMax {
		return &WeekOutOfRangeError{Week: week, Min: l.WeekMin, Max: l.WeekMax}
	}
	return nil
}

func (l Layout) checkScale(confidenceMax int) error {
	if confidenceMax <= 0 || confidenceMax > l.ConfidenceMax {
		return &ConfidenceOutOfRangeError{Confidence: confidenceMax, Max: l.ConfidenceMax}
	}
	return nil
}

// CellFor maps a confidence value and week to the cell holding that pick.
// confidenceMax lands on the first interior row and 1 on the row
// confidenceMax-1 below it; weeks run left to right from WeekMin.
func (l Layout) CellFor(confidence, week, confidenceMax int) (Cell, error) {
	if err := l.checkScale(confidenceMax); err != nil {
		return Cell{}, err
	}
	if !inRange(confidence, confidenceMax) {
		return Cell{}, &ConfidenceOutOfRangeError{Confidence: confidence, Max: confidenceMax}
	}
	if err := l.checkWeek(week); err != nil {
		return Cell{}, err
	}
	return Cell{
		Row: l.HeaderRows + 1 + confidenceMax - confidence,
		Col: l.HeaderCols + 1 + week - l.WeekMin,
	}, nil
}

// CellFor maps (confidence, week) using the default header offsets.
func CellFor(confidence, week, confidenceMax, weekMin, weekMax int) (Cell, error) {
	l := DefaultLayout()
	l.ConfidenceMax = confidenceMax
	l.WeekMin = weekMin
	l.WeekMax = weekMax
	return l.CellFor(confidence, week, confidenceMax)
}

// CellChange records one cell rewritten by Apply.
type CellChange struct {
	Cell   Cell
	Before string
	After  string
}

type Diff []CellChange

func (d Diff) Cells() []Cell {
	cells := make([]Cell, len(d))
	for i, c := range d {
		cells[i] = c.Cell
	}
	return cells
}

// Grid is the in-memory copy of the season workbook.
type Grid struct {
	layout Layout
	cells  [][]string
}

// NewGrid builds an empty season grid with its header rows and label column
// filled in.
func NewGrid(layout Layout, participant string) *Grid {
	g := &Grid{layout: layout, cells: blankCells(layout.Rows(), layout.Cols())}

	if layout.HeaderRows >= 1 {
		for week := layout.WeekMin; week <= layout.WeekMax; week++ {
			g.cells[0][layout.HeaderCols+week-layout.WeekMin] = strconv.Itoa(week)
		}
	}
	if layout.HeaderRows >= 2 && layout.HeaderCols >= 1 {
		g.cells[1][0] = "Name:"
		if layout.Cols() > layout.HeaderCols {
			g.cells[1][layout.HeaderCols] = participant
		}
	}
	if layout.HeaderCols >= 1 {
		for i := 0; i < layout.ConfidenceMax; i++ {
			g.cells[layout.HeaderRows+i][0] = strconv.Itoa(layout.ConfidenceMax - i)
		}
	}

	return g
}

// GridFromRows wraps rows read from a workbook. Rows shorter than the layout
// are padded; anything beyond it is kept so saving does not lose it.
func GridFromRows(layout Layout, rows [][]string) (*Grid, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	height := max(layout.Rows(), len(rows))
	width := layout.Cols()
	for _, row := range rows {
		width = max(width, len(row))
	}

	g := &Grid{layout: layout, cells: blankCells(height, width)}
	for r, row := range rows {
		copy(g.cells[r], row)
	}
	return g, nil
}

func blankCells(rows, cols int) [][]string {
	cells := make([][]string, rows)
	for r := range cells {
		cells[r] = make([]string, cols)
	}
	return cells
}

func (g *Grid) Layout() Layout {
	return g.layout
}

func (g *Grid) Cell(c Cell) string {
	if c.Row < 1 || c.Col < 1 || c.Row > len(g.cells) || c.Col > len(g.cells[c.Row-1]) {
		return ""
	}
	return g.cells[c.Row-1][c.Col-1]
}

func (g *Grid) set(c Cell, value string) {
	g.cells[c.Row-1][c.Col-1] = value
}

// Rows returns a copy of every row, headers included.
func (g *Grid) Rows() [][]string {
	rows := make([][]string, len(g.cells))
	for r, row := range g.cells {
		rows[r] = append([]string(nil), row...)
	}
	return rows
}

func (g *Grid) Clone() *Grid {
	return &Grid{layout: g.layout, cells: g.Rows()}
}

// Apply writes a validated pick set into the week's column. Every target
// cell is resolved before anything is written, so on error the grid is left
// exactly as it was. Interior rows beyond a shortened week's scale are
// cleared. The returned Diff lists only cells whose value changed.
func (g *Grid) Apply(week int, set PickSet) (Diff, error) {
	if set.confidenceMax <= 0 || len(set.picks) == 0 {
		return nil, ErrNotValidated
	}
	if err := g.layout.checkWeek(week); err != nil {
		return nil, err
	}
	scale := g.layout.ScaleFor(week)
	if set.confidenceMax != scale {
		return nil, fmt.Errorf("week %d uses %d points, pick set uses %d: %w", week, scale, set.confidenceMax, ErrScaleMismatch)
	}

	planned := make(map[Cell]string, g.layout.ConfidenceMax)
	for _, p := range set.picks {
		cell, err := g.layout.CellFor(p.Confidence, week, scale)
		if err != nil {
			return nil, fmt.Errorf("placing %s: %w", gameLabel(p.Game), err)
		}
		planned[cell] = strings.TrimSpace(p.Team)
	}

	col := g.layout.HeaderCols + 1 + week - g.layout.WeekMin
	for row := g.layout.HeaderRows + 1 + scale; row <= g.layout.Rows(); row++ {
		planned[Cell{Row: row, Col: col}] = ""
	}

	var diff Diff
	for row := g.layout.HeaderRows + 1; row <= g.layout.Rows(); row++ {
		cell := Cell{Row: row, Col: col}
		after, ok := planned[cell]
		if !ok {
			continue
		}
		if before := g.Cell(cell); before != after {
			diff = append(diff, CellChange{Cell: cell, Before: before, After: after})
		}
	}

	for _, change := range diff {
		g.set(change.Cell, change.After)
	}
	return diff, nil
}

// Extract reads a week's column back as picks, highest confidence first.
// Game and Reasoning are not stored in the grid and come back empty; a cell
// that was never written yields an empty Team.
func (g *Grid) Extract(week, confidenceMax int) ([]Pick, error) {
	if err := g.layout.checkScale(confidenceMax); err != nil {
		return nil, err
	}
	if err := g.layout.checkWeek(week); err != nil {
		return nil, err
	}

	picks := make([]Pick, 0, confidenceMax)
	for c := confidenceMax; c >= 1; c-- {
		cell, err := g.layout.CellFor(c, week, confidenceMax)
		if err != nil {
			return nil, err
		}
		picks = append(picks, Pick{Team: strings.TrimSpace(g.Cell(cell)), Confidence: c})
	}
	return picks, nil
}

// Compare lists every cell that differs between two grids, row by row.
func Compare(before, after *Grid) Diff {
	var diff Diff
	rows := max(len(before.cells), len(after.cells))
	for r := 1; r <= rows; r++ {
		cols := 0
		if r <= len(before.cells) {
			cols = len(before.cells[r-1])
		}
		if r <= len(after.cells) {
			cols = max(cols, len(after.cells[r-1]))
		}
		for c := 1; c <= cols; c++ {
			cell := Cell{Row: r, Col: c}
			if b, a := before.Cell(cell), after.Cell(cell); b != a {
				diff = append(diff, CellChange{Cell: cell, Before: b, After: a})
			}
		}
	}
	return diff
}
