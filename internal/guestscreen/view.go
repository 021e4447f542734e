package guestscreen

import (
	"fmt"
	"io"
	"strings"

	"github.com/dukerupert/giftledger/internal/amount"
	"github.com/dukerupert/giftledger/internal/model"
)

// DefaultColumns is the number of cells on one page of the gift book.
const DefaultColumns = 12

// Cell is one slot on the gift book page. Empty cells are placeholders.
type Cell struct {
	Empty  bool
	Name   string
	Amount string
	Latest bool
}

// Page is a rendered gift book page.
type Page struct {
	Title      string
	ThemeClass string
	Cells      []Cell
}

// ThemeClass maps a stored theme to its display class. Unknown themes fall
// back to festive; a "theme-" prefix is accepted.
func ThemeClass(t model.Theme) string {
	name := model.Theme(strings.TrimPrefix(string(t), "theme-"))
	if !name.Valid() {
		name = model.ThemeFestive
	}
	return "theme-" + string(name)
}

// View lays snap out as one page of columns cells. The page shown is the one
// holding the latest gift, and only that gift is marked Latest.
func View(snap model.Snapshot, columns int) Page {
	if columns <= 0 {
		columns = DefaultColumns
	}
	page := Page{
		Title:      snap.EventName,
		ThemeClass: ThemeClass(snap.Theme),
		Cells:      make([]Cell, columns),
	}

	latest := snap.LatestIndex()
	start := 0
	if latest >= 0 {
		start = latest / columns * columns
	}
	for i := range page.Cells {
		idx := start + i
		if idx >= len(snap.Gifts) {
			page.Cells[i] = Cell{Empty: true}
			continue
		}
		g := snap.Gifts[idx]
		page.Cells[i] = Cell{
			Name:   DisplayName(g.Name),
			Amount: amount.ToChinese(g.Amount),
			Latest: idx == latest,
		}
	}
	return page
}

// DisplayName spaces a two-character name with an ideographic space so it
// fills the cell like longer names do.
func DisplayName(name string) string {
	r := []rune(name)
	if len(r) == 2 {
		return string(r[0]) + "　" + string(r[1])
	}
	return name
}

// Render writes page as plain text, one cell per line.
func Render(w io.Writer, page Page) error {
	if _, err := fmt.Fprintf(w, "%s [%s]\n", page.Title, page.ThemeClass); err != nil {
		return err
	}
	for i, c := range page.Cells {
		var err error
		switch {
		case c.Empty:
			_, err = fmt.Fprintf(w, "%2d  +\n", i+1)
		case c.Latest:
			_, err = fmt.Fprintf(w, "%2d  %s  %s  *\n", i+1, c.Name, c.Amount)
		default:
			_, err = fmt.Fprintf(w, "%2d  %s  %s\n", i+1, c.Name, c.Amount)
		}
		if err != nil {
			return err
		}
	}
	return nil
}
