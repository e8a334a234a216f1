package view

import (
	"fmt"
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

const (
	nameWidth    = 32
	addressWidth = 36
)

// WriteTable prints v as an aligned text table. Column widths are measured in
// terminal cells so names like "Æblehaven" or "寿司" line up.
func WriteTable(w io.Writer, v View) error {
	if v.Error != "" {
		if _, err := fmt.Fprintf(w, "error: %s\n", v.Error); err != nil {
			return err
		}
	}
	if v.Message != "" {
		if _, err := fmt.Fprintln(w, v.Message); err != nil {
			return err
		}
	}
	if len(v.Items) == 0 {
		return nil
	}

	header := fmt.Sprintf("%3s  %s  %-7s  %-5s  %-9s  %s",
		"#", pad("Name", nameWidth), "Rating", "Price", "Distance", "Address")
	if _, err := fmt.Fprintln(w, header); err != nil {
		return err
	}
	if _, err := fmt.Fprintln(w, strings.Repeat("─", runewidth.StringWidth(header))); err != nil {
		return err
	}

	for _, it := range v.Items {
		line := fmt.Sprintf("%3d  %s  %s  %-5s  %s  %s",
			it.Index+1,
			pad(it.Name, nameWidth),
			pad(it.RatingText, 7),
			it.Price,
			pad(it.DistanceText, 9),
			runewidth.Truncate(it.Address, addressWidth, "…"),
		)
		if _, err := fmt.Fprintln(w, strings.TrimRight(line, " ")); err != nil {
			return err
		}
	}

	_, err := fmt.Fprintf(w, "\n%d of %d restaurants", v.Count, v.Total)
	if err == nil && v.SortMethod != "" {
		_, err = fmt.Fprintf(w, ", sorted by %s", v.SortMethod)
	}
	if err == nil {
		_, err = fmt.Fprintln(w)
	}
	return err
}

func pad(s string, width int) string {
	return runewidth.FillRight(runewidth.Truncate(s, width, "…"), width)
}
