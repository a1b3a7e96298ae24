// Package facrtest renders synthetic fotbal.cz match report pages for tests.
package facrtest

import (
	"fmt"
	"html"
	"strings"
)

// Goal is one timeline event.
type Goal struct {
	Scorer string
	Home   bool
}

// Report describes a match report page. Empty strings omit the
// corresponding element, which lets tests exercise degraded documents.
type Report struct {
	Kickoff      string
	Round        string
	Home         string
	Guest        string
	MatchNumber  string
	Venue        string
	Spectators   string
	Halftime     string
	Final        string
	HomeHeading  string
	GuestHeading string
	HomeSquad    []string
	GuestSquad   []string
	Goals        []Goal
}

// Default returns a complete, valid 2:1 report between two clubs.
func Default() Report {
	return Report{
		Kickoff:     "2. 9. 2023 10:15",
		Round:       "1. kolo",
		Home:        "TJ Sokol Lísek",
		Guest:       "FC Žďár",
		MatchNumber: "2023110A1A0101",
		Venue:       "Sportovní areál Lísek",
		Spectators:  "412",
		Halftime:    "1:0",
		Final:       "2:1",
		HomeSquad:   []string{"Eva Nováková [K]", "Jana Dvořáková", "Petra Malá"},
		GuestSquad:  []string{"Lucie Černá", "Tereza Bílá [B]"},
		Goals: []Goal{
			{Scorer: "Eva Nováková", Home: true},
			{Scorer: "Lucie Černá", Home: false},
			{Scorer: "Eva Nováková", Home: true},
		},
	}
}

// HTML renders the report the way the federation site structures it.
func (r Report) HTML() []byte {
	var b strings.Builder
	b.WriteString("<!DOCTYPE html><html lang=\"cs\"><head><meta charset=\"utf-8\"><title>Zápas</title></head><body>\n")

	if r.Kickoff != "" || r.Round != "" {
		b.WriteString(`<h1 class="Match-meta">`)
		if r.Kickoff != "" {
			fmt.Fprintf(&b, "<span>%s</span>", html.EscapeString(r.Kickoff))
		}
		if r.Round != "" {
			fmt.Fprintf(&b, "\n  <span>%s</span>", html.EscapeString(r.Round))
		}
		b.WriteString("</h1>\n")
	}

	b.WriteString(`<div class="Match-teams">`)
	for _, name := range []string{r.Home, r.Guest} {
		if name == "" {
			continue
		}
		fmt.Fprintf(&b, `<div class="Match-team"><a href="/club/%s">%s</a></div>`, html.EscapeString(name), html.EscapeString(name))
	}
	b.WriteString("</div>\n")

	b.WriteString(`<div class="Match-result">`)
	if r.Final != "" {
		fmt.Fprintf(&b, "<strong>%s</strong>", html.EscapeString(r.Final))
	}
	if r.Halftime != "" {
		fmt.Fprintf(&b, "<p>(%s)</p>", html.EscapeString(r.Halftime))
	}
	b.WriteString("</div>\n")

	b.WriteString(`<div class="Match-detailsContainer">`)
	if r.MatchNumber != "" {
		fmt.Fprintf(&b, "<p><strong>Číslo utkání:</strong> %s</p>", html.EscapeString(r.MatchNumber))
	}
	if r.Venue != "" {
		fmt.Fprintf(&b, "<p><strong>Hřiště:</strong> %s. </p>", html.EscapeString(r.Venue))
	}
	if r.Spectators != "" {
		fmt.Fprintf(&b, "<p><strong>Diváků:</strong> %s</p>", html.EscapeString(r.Spectators))
	}
	b.WriteString("</div>\n")

	b.WriteString(`<div class="Match-statsGrid">`)
	writeSquad(&b, firstNonEmpty(r.HomeHeading, r.Home), r.HomeSquad)
	writeSquad(&b, firstNonEmpty(r.GuestHeading, r.Guest), r.GuestSquad)
	b.WriteString("</div>\n")

	b.WriteString(`<ul class="MatchTimeline">`)
	for i, g := range r.Goals {
		class := "MatchTimeline-item MatchTimeline-item--away"
		if g.Home {
			class = "MatchTimeline-item MatchTimeline-item--home"
		}
		fmt.Fprintf(&b, `<li class="%s"><span class="MatchTimeline-minute">%d'</span><p>%s</p></li>`, class, 10*(i+1), html.EscapeString(g.Scorer))
	}
	b.WriteString("</ul>\n</body></html>\n")

	return []byte(b.String())
}

func writeSquad(b *strings.Builder, heading string, squad []string) {
	b.WriteString("<section>")
	fmt.Fprintf(b, "<h2>%s</h2>", html.EscapeString(heading))
	b.WriteString("<table><thead><tr><th>#</th><th>Post</th><th>Jméno</th></tr></thead><tbody>")
	for i, name := range squad {
		fmt.Fprintf(b, "<tr><td>%d</td><td>H</td><td>%s</td></tr>", i+1, html.EscapeString(name))
	}
	b.WriteString("</tbody></table></section>")
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
