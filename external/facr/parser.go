package facr

import (
	"bytes"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"

	"github.com/riskibarqy/facr-ledger/internal/domain/game"
	"github.com/riskibarqy/facr-ledger/internal/domain/match"
	"github.com/riskibarqy/facr-ledger/internal/domain/player"
	"github.com/riskibarqy/facr-ledger/internal/domain/team"
	"github.com/riskibarqy/facr-ledger/internal/platform/slug"
)

const (
	selMeta     = "h1.Match-meta"
	selTeams    = ".Match-teams .Match-team a"
	selDetails  = ".Match-detailsContainer"
	selHalftime = ".Match-result p"
	selFinal    = ".Match-result strong"
	selSquads   = ".Match-statsGrid section"
	selTimeline = ".MatchTimeline-item"

	homeEventClass = "MatchTimeline-item--home"
)

var (
	reMatchNumber = regexp.MustCompile(`Číslo utkání:\s*([0-9A-Z.]+)`)
	reVenue       = regexp.MustCompile(`Hřiště:\s*([^.]+)`)
	reSpectators  = regexp.MustCompile(`Diváků:\s*(\d+)`)
	reAnnotation  = regexp.MustCompile(`\s*\[.*?\]`)

	kickoffLayouts = []string{"2. 1. 2006 15:04", "2.1.2006 15:04", "2. 1. 2006 15.04"}
)

// Parser turns fotbal.cz match report pages into match records.
// It holds no state and is safe for concurrent use.
type Parser struct{}

func NewParser() *Parser {
	return &Parser{}
}

// Parse extracts one match record from raw. source is only used to label
// errors and the resulting record.
func (p *Parser) Parse(raw []byte, source string) (match.Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(raw))
	if err != nil {
		return match.Record{}, match.NewParseError(source, "read document", err)
	}

	date, round, err := parseMeta(doc)
	if err != nil {
		return match.Record{}, match.NewParseError(source, "meta block", err)
	}

	home, guest, err := parseTeams(doc)
	if err != nil {
		return match.Record{}, match.NewParseError(source, "teams", err)
	}

	details := textNodes(doc.Find(selDetails).First(), " ")
	facrID := firstGroup(reMatchNumber, details)
	if facrID == "" {
		return match.Record{}, match.NewParseError(source, "match number not found in details", nil)
	}
	venue := strings.TrimSpace(firstGroup(reVenue, details))
	spectators := 0
	if count := firstGroup(reSpectators, details); count != "" {
		if n, convErr := strconv.Atoi(count); convErr == nil {
			spectators = n
		}
	}

	halftime := strings.Trim(compactText(doc.Find(selHalftime).First()), "()")
	halftime = strings.TrimSpace(halftime)
	final := compactText(doc.Find(selFinal).First())
	homeGoals, guestGoals := splitScore(final)

	g := game.Game{
		ID:             fmt.Sprintf("%s_%s_%s_%s", home.ID, guest.ID, date, round),
		FACRGameID:     facrID,
		Date:           date,
		Round:          round,
		HomeTeamID:     home.ID,
		GuestTeamID:    guest.ID,
		Venue:          venue,
		Spectators:     spectators,
		HalftimeScore:  halftime,
		FinalScore:     final,
		HomeTeamGoals:  homeGoals,
		GuestTeamGoals: guestGoals,
	}

	acc := newRoster(g)
	if err := parseSquads(doc, home, guest, acc); err != nil {
		return match.Record{}, match.NewParseError(source, "squads", err)
	}
	if err := parseTimeline(doc, home, guest, acc); err != nil {
		return match.Record{}, match.NewParseError(source, "timeline", err)
	}

	return match.Record{
		Source:  source,
		Game:    g,
		Teams:   []team.Team{home, guest},
		Players: acc.players,
		Goals:   acc.goals,
	}, nil
}

func parseMeta(doc *goquery.Document) (string, string, error) {
	meta := doc.Find(selMeta).First()
	if meta.Length() == 0 {
		return "", "", fmt.Errorf("%s not found", selMeta)
	}

	parts := strings.Split(textNodes(meta, ","), ",")
	kickoff := strings.Join(strings.Fields(parts[0]), " ")
	if kickoff == "" {
		return "", "", fmt.Errorf("kickoff time is empty")
	}
	round := ""
	if len(parts) > 1 {
		round = strings.TrimSpace(parts[1])
	}

	var lastErr error
	for _, layout := range kickoffLayouts {
		at, err := time.Parse(layout, kickoff)
		if err == nil {
			return at.Format("2006-01-02"), round, nil
		}
		lastErr = err
	}
	return "", "", fmt.Errorf("parse kickoff %q: %w", kickoff, lastErr)
}

func parseTeams(doc *goquery.Document) (team.Team, team.Team, error) {
	links := doc.Find(selTeams)
	if links.Length() < 2 {
		return team.Team{}, team.Team{}, fmt.Errorf("expected two team links, found %d", links.Length())
	}

	out := make([]team.Team, 0, 2)
	for i := 0; i < 2; i++ {
		name := compactText(links.Eq(i))
		id := slug.Normalize(name)
		if id == "" {
			return team.Team{}, team.Team{}, fmt.Errorf("team %d name %q yields an empty id", i+1, name)
		}
		out = append(out, team.Team{ID: id, Name: name})
	}
	if out[0].ID == out[1].ID {
		return team.Team{}, team.Team{}, fmt.Errorf("home %q and guest %q resolve to the same team id %q", out[0].Name, out[1].Name, out[0].ID)
	}
	return out[0], out[1], nil
}

func parseSquads(doc *goquery.Document, home, guest team.Team, acc *roster) error {
	var err error
	doc.Find(selSquads).EachWithBreak(func(i int, section *goquery.Selection) bool {
		side, ok := resolveSection(section, i, home, guest)
		if !ok {
			err = fmt.Errorf("squad section %d (%q) matches neither participant", i, compactText(section.Find("h2").First()))
			return false
		}

		section.Find("tbody tr").EachWithBreak(func(_ int, row *goquery.Selection) bool {
			cells := row.Find("td")
			if cells.Length() < 3 {
				return true
			}
			name := strings.TrimSpace(reAnnotation.ReplaceAllString(compactText(cells.Eq(2)), ""))
			if name == "" {
				return true
			}
			if addErr := acc.add(name, side); addErr != nil {
				err = addErr
				return false
			}
			return true
		})
		return err == nil
	})
	return err
}

// resolveSection maps a squad section to a participant by its heading and
// falls back to position when the heading names neither team.
func resolveSection(section *goquery.Selection, index int, home, guest team.Team) (team.Team, bool) {
	switch slug.Normalize(compactText(section.Find("h2").First())) {
	case home.ID:
		return home, true
	case guest.ID:
		return guest, true
	}
	switch index {
	case 0:
		return home, true
	case 1:
		return guest, true
	}
	return team.Team{}, false
}

func parseTimeline(doc *goquery.Document, home, guest team.Team, acc *roster) error {
	var err error
	doc.Find(selTimeline).EachWithBreak(func(i int, item *goquery.Selection) bool {
		name := compactText(item.Find("p").First())
		if name == "" {
			err = fmt.Errorf("timeline entry %d has no scorer", i)
			return false
		}
		side := guest
		if item.HasClass(homeEventClass) {
			side = home
		}
		if scoreErr := acc.score(name, side); scoreErr != nil {
			err = scoreErr
			return false
		}
		return true
	})
	return err
}

type rosterKey struct {
	playerID string
	teamID   string
}

// roster accumulates players and goal counts keyed by (player, team) while
// keeping first-seen order, so equal input always yields an equal record.
type roster struct {
	game    game.Game
	index   map[rosterKey]int
	players []player.Player
	goals   []game.GoalEntry
}

func newRoster(g game.Game) *roster {
	return &roster{game: g, index: make(map[rosterKey]int)}
}

func (r *roster) add(name string, t team.Team) error {
	_, err := r.entry(name, t)
	return err
}

func (r *roster) score(name string, t team.Team) error {
	idx, err := r.entry(name, t)
	if err != nil {
		return err
	}
	r.goals[idx].GoalsScored++
	return nil
}

func (r *roster) entry(name string, t team.Team) (int, error) {
	id := slug.Normalize(name)
	if id == "" {
		return 0, fmt.Errorf("player name %q yields an empty id", name)
	}
	key := rosterKey{playerID: id, teamID: t.ID}
	if idx, ok := r.index[key]; ok {
		return idx, nil
	}

	r.players = append(r.players, player.Player{ID: id, Name: name, TeamID: t.ID, TeamName: t.Name})
	r.goals = append(r.goals, game.GoalEntry{
		GameID:     r.game.ID,
		FACRGameID: r.game.FACRGameID,
		PlayerID:   id,
		TeamID:     t.ID,
	})
	idx := len(r.players) - 1
	r.index[key] = idx
	return idx, nil
}

// textNodes joins the trimmed, non-blank text nodes under sel with sep.
func textNodes(sel *goquery.Selection, sep string) string {
	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			if text := strings.TrimSpace(n.Data); text != "" {
				parts = append(parts, text)
			}
			return
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	for _, n := range sel.Nodes {
		walk(n)
	}
	return strings.Join(parts, sep)
}

func compactText(sel *goquery.Selection) string {
	return strings.Join(strings.Fields(sel.Text()), " ")
}

func firstGroup(re *regexp.Regexp, text string) string {
	m := re.FindStringSubmatch(text)
	if len(m) < 2 {
		return ""
	}
	return m[1]
}

func splitScore(final string) (*int, *int) {
	parts := strings.Split(final, ":")
	if len(parts) != 2 {
		return nil, nil
	}
	home, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return nil, nil
	}
	guest, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return nil, nil
	}
	return &home, &guest
}
