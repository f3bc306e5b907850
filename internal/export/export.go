// Package export writes recipes out as CSV or XLSX and reads recipe cards
// back out of a rendered gallery page.
package export

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/poku-e/whisk/internal/recipe"
)

const (
	SourceCatalog  = "catalog"
	SourceBaseline = "baseline"
)

// Entry is one gallery row. ID is the render-scoped catalog position; it is
// -1 for baseline recipes.
type Entry struct {
	ID     int    `json:"id"`
	Source string `json:"source"`
	recipe.Recipe
}

// CatalogEntries tags a catalog list with its current positions.
func CatalogEntries(list []recipe.Recipe) []Entry {
	out := make([]Entry, len(list))
	for i, r := range list {
		out[i] = Entry{ID: i, Source: SourceCatalog, Recipe: r}
	}
	return out
}

var header = []string{"id", "source", "title", "author", "description", "ingredients", "instructions", "image"}

func record(e Entry) []string {
	id := ""
	if e.ID >= 0 {
		id = strconv.Itoa(e.ID)
	}
	return []string{
		id, e.Source, e.Title, e.Author, e.Description,
		strings.Join(e.Ingredients, ", "),
		strings.Join(e.Instructions, "\n"),
		imageCell(e.Image),
	}
}

// inline images are far beyond a spreadsheet cell limit
func imageCell(img string) string {
	if strings.HasPrefix(img, "data:") {
		if i := strings.IndexByte(img, ';'); i > 0 {
			return "inline " + img[len("data:"):i]
		}
		return "inline"
	}
	return img
}

// ---------- Output writers ----------
func WriteCSV(w io.Writer, entries []Entry) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, e := range entries {
		if err := cw.Write(record(e)); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func WriteXLSX(w io.Writer, entries []Entry) error {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Sheet1"
	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return err
	}
	row := make([]interface{}, len(header))
	for i, h := range header {
		row[i] = h
	}
	if err := sw.SetRow("A1", row); err != nil {
		return err
	}
	for i, e := range entries {
		rec := record(e)
		row := make([]interface{}, len(rec))
		for j, v := range rec {
			row[j] = v
		}
		cellAddr, _ := excelize.CoordinatesToCellName(1, i+2) // A2, A3, ...
		if err := sw.SetRow(cellAddr, row); err != nil {
			return err
		}
	}
	if err := sw.Flush(); err != nil {
		return err
	}
	_, err = f.WriteTo(w)
	return err
}

// WriteFile picks the format from the extension of path.
func WriteFile(path string, entries []Entry) error {
	var write func(io.Writer, []Entry) error
	switch {
	case strings.HasSuffix(strings.ToLower(path), ".csv"):
		write = WriteCSV
	case strings.HasSuffix(strings.ToLower(path), ".xlsx"):
		write = WriteXLSX
	default:
		return errors.New("out must end with .csv or .xlsx")
	}

	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f, entries); err != nil {
		f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
