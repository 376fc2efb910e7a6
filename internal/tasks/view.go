package tasks

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/dustin/go-humanize/english"
)

const (
	AppTitle        = "Mini To-Do"
	EmptyListText   = "No tasks found"
	timestampLayout = "Jan 2, 03:04 PM"
	captionLayout   = "January 2006"
)

// FormatTimestamp renders t as "Jul 5, 02:30 PM" in t's location.
func FormatTimestamp(t time.Time) string {
	return t.Format(timestampLayout)
}

// MonthCaption renders the header caption, e.g. "July 2024".
func MonthCaption(t time.Time) string {
	return t.Format(captionLayout)
}

// TotalLabel renders "1 task total" / "3 tasks total".
func TotalLabel(n int) string {
	return english.Plural(n, "task", "") + " total"
}

func CompletedLabel(n int) string {
	return fmt.Sprintf("%d completed", n)
}

type Row struct {
	ID        string
	Text      string
	Completed bool
	CreatedAt string
	Age       string
}

type FilterTab struct {
	Filter Filter
	Label  string
	Active bool
}

// Page is everything one render of the list needs.
type Page struct {
	Title          string
	Caption        string
	Draft          string
	Filter         Filter
	Tabs           []FilterTab
	Rows           []Row
	Empty          bool
	EmptyText      string
	TotalLabel     string
	CompletedLabel string
}

// BuildPage projects the full list through f. Counts in the footer always
// cover the unfiltered list. Times are shown in loc.
func BuildPage(list []Task, f Filter, draft string, now time.Time, loc *time.Location) Page {
	if loc == nil {
		loc = time.Local
	}
	visible := f.Apply(list)
	rows := make([]Row, 0, len(visible))
	for _, t := range visible {
		rows = append(rows, Row{
			ID:        t.ID,
			Text:      t.Text,
			Completed: t.Completed,
			CreatedAt: FormatTimestamp(t.CreatedAt.In(loc)),
			Age:       humanize.RelTime(t.CreatedAt, now, "ago", "from now"),
		})
	}

	tabs := make([]FilterTab, 0, len(Filters))
	for _, v := range Filters {
		tabs = append(tabs, FilterTab{Filter: v, Label: v.Label(), Active: v == f})
	}

	sum := Summarize(list)
	return Page{
		Title:          AppTitle,
		Caption:        MonthCaption(now.In(loc)),
		Draft:          draft,
		Filter:         f,
		Tabs:           tabs,
		Rows:           rows,
		Empty:          len(rows) == 0,
		EmptyText:      EmptyListText,
		TotalLabel:     TotalLabel(sum.Total),
		CompletedLabel: CompletedLabel(sum.Completed),
	}
}
