package presenter

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/lox/runsafetonight/internal/htmlutil"
)

// WriteText prints the rendered conditions and pulse sections of p.
func WriteText(w io.Writer, p *Page) error {
	text := func(id string) string {
		el, ok := p.Element(id)
		if !ok {
			return ""
		}
		if t := el.Text(); t != "" {
			return t
		}
		return htmlutil.ToText(el.HTML())
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TONIGHT'S CONDITIONS")
	rows := []struct{ label, id string }{
		{"Sunset", idSunset},
		{"Temperature", idTemp},
		{"Wind", idWind},
		{"Visibility", idVisibility},
		{"Moon", idMoon},
		{"Streets", idStreets},
	}
	for _, r := range rows {
		fmt.Fprintf(tw, "  %s\t%s\n", r.label, text(r.id))
	}
	fmt.Fprintf(tw, "\n%s\n", text(idVerdictText))
	if el, ok := p.Element(idTips); ok && el.HTML() != "" {
		fmt.Fprintf(tw, "%s\n", htmlutil.ToText(el.HTML()))
	}

	fmt.Fprintln(tw, "\nCOMMUNITY PULSE")
	stats := []struct{ label, id string }{
		{"Runners tonight", idRunners},
		{"Routes this week", idRoutes},
		{"Safety notes", idNotes},
		{"Group runs tonight", idGroupRuns},
	}
	for _, s := range stats {
		fmt.Fprintf(tw, "  %s\t%s\n", s.label, text(s.id))
	}
	if el, ok := p.Element(idFeed); ok {
		if feed, ok := el.(*PageElement); ok {
			fmt.Fprintln(tw)
			for _, item := range feed.ChildHTML() {
				fmt.Fprintf(tw, "  %s\n", htmlutil.ToText(item))
			}
		}
	}
	return tw.Flush()
}
