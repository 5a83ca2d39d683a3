package podds

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/richard-senior/podds-au/internal/logger"
	"github.com/richard-senior/podds-au/pkg/transport"
	"github.com/richard-senior/podds-au/pkg/util"
)

// Fetcher retrieves the raw body of a page
type Fetcher func(ctx context.Context, url string) ([]byte, error)

// HTMLResultsSource scrapes played fixtures from a results page.
// The page holds a table.results whose rows carry td.home, td.score ("2-1"),
// td.away and optionally td.date.
type HTMLResultsSource struct {
	URL    string
	League string
	// Known teams used to resolve names on the page to ids
	Known          map[TeamID]*Team
	Fetch          Fetcher
	FuzzyThreshold float64
}

// NewHTMLResultsSource reads url with transport.GetHTML
func NewHTMLResultsSource(url, league string, known map[TeamID]*Team) *HTMLResultsSource {
	return &HTMLResultsSource{
		URL:            url,
		League:         league,
		Known:          known,
		Fetch:          transport.GetHTML,
		FuzzyThreshold: Config.FuzzyMatchThreshold,
	}
}

// Load implements DataSource. Teams holds only names that did not match a known team.
func (s *HTMLResultsSource) Load(ctx context.Context) (*Dataset, error) {
	fetch := s.Fetch
	if fetch == nil {
		fetch = transport.GetHTML
	}
	body, err := fetch(ctx, s.URL)
	if err != nil {
		return nil, sourceError("results page "+s.URL, err)
	}
	matches, teams, err := ParseResultsHTML(bytes.NewReader(body), s.League, s.Known, s.FuzzyThreshold)
	if err != nil {
		return nil, sourceError("results page "+s.URL, err)
	}
	for i := range matches {
		matches[i].Source = s.URL
	}
	return &Dataset{Matches: matches, Teams: teams}, nil
}

var scorePattern = regexp.MustCompile(`^\s*(\d+)\s*[-–:]\s*(\d+)\s*$`)

var resultDateFormats = []string{
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02 Jan 2006",
	"2 Jan 2006",
	"Mon 2 Jan 2006",
}

// ParseResultsHTML reads every played fixture of a results table in page order.
// Each fixture yields the home then the away perspective. Unplayed rows are skipped.
func ParseResultsHTML(r io.Reader, league string, known map[TeamID]*Team, threshold float64) ([]MatchRecord, map[TeamID]*Team, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, nil, fmt.Errorf("error parsing HTML: %w", err)
	}
	table := doc.Find("table.results")
	if table.Length() == 0 {
		return nil, nil, fmt.Errorf("could not find a results table")
	}

	resolver := newTeamResolver(known, threshold)
	var matches []MatchRecord
	table.Find("tr").Each(func(i int, row *goquery.Selection) {
		homeName := strings.TrimSpace(row.Find("td.home").First().Text())
		awayName := strings.TrimSpace(row.Find("td.away").First().Text())
		score := row.Find("td.score").First().Text()
		if homeName == "" || awayName == "" {
			return
		}
		groups := scorePattern.FindStringSubmatch(score)
		if groups == nil {
			logger.Debug("Skipping unplayed fixture", homeName, awayName)
			return
		}
		homeGoals, herr := strconv.Atoi(groups[1])
		awayGoals, aerr := strconv.Atoi(groups[2])
		if herr != nil || aerr != nil {
			logger.Warn("Skipping fixture with an unreadable score", homeName, awayName, score)
			return
		}

		var playedAt time.Time
		if d := strings.TrimSpace(row.Find("td.date").First().Text()); d != "" {
			t, err := parseResultDate(d)
			if err != nil {
				logger.Warn("Could not parse fixture date", d, err)
			}
			playedAt = t
		}

		home := resolver.resolve(homeName)
		away := resolver.resolve(awayName)
		matches = append(matches, NewFixtureRecords(league, home, away, homeGoals, awayGoals, playedAt)...)
	})
	return matches, resolver.discovered, nil
}

func parseResultDate(s string) (time.Time, error) {
	loc, err := time.LoadLocation("Australia/Sydney")
	if err != nil {
		loc = time.UTC
	}
	var lastErr error
	for _, layout := range resultDateFormats {
		t, err := time.ParseInLocation(layout, s, loc)
		if err == nil {
			return t.UTC(), nil
		}
		lastErr = err
	}
	return time.Time{}, fmt.Errorf("could not parse date from %s: %w", s, lastErr)
}

// teamResolver maps names on a page onto team ids
type teamResolver struct {
	known      map[TeamID]*Team
	threshold  float64
	cache      map[string]TeamID
	discovered map[TeamID]*Team
}

func newTeamResolver(known map[TeamID]*Team, threshold float64) *teamResolver {
	return &teamResolver{
		known:      known,
		threshold:  threshold,
		cache:      map[string]TeamID{},
		discovered: map[TeamID]*Team{},
	}
}

// resolve tries an exact name, then the closest fuzzy name at or above the
// threshold among known teams and then teams already seen on the page, and
// finally falls back to a slug of the name
func (r *teamResolver) resolve(name string) TeamID {
	key := util.NormalizeName(name)
	if id, ok := r.cache[key]; ok {
		return id
	}

	id, ok := r.closest(r.known, key)
	if !ok {
		id, ok = r.closest(r.discovered, key)
	}
	if !ok {
		id = TeamID(util.Slugify(name))
		if _, known := r.known[id]; !known {
			if _, seen := r.discovered[id]; !seen {
				r.discovered[id] = &Team{ID: id, Name: name}
			}
		}
	}
	r.cache[key] = id
	return id
}

// closest returns the best scoring team in teams when it reaches the threshold
func (r *teamResolver) closest(teams map[TeamID]*Team, key string) (TeamID, bool) {
	var bestID TeamID
	bestScore := -1.0
	for id, t := range teams {
		candidate := util.NormalizeName(t.DisplayName())
		if candidate == key {
			return id, true
		}
		score := util.FuzzyMatchScore(candidate, key)
		// map order is random, ties go to the smaller id
		if score > bestScore || (score == bestScore && id < bestID) {
			bestID, bestScore = id, score
		}
	}
	if bestScore >= r.threshold && bestScore > 0 {
		return bestID, true
	}
	return "", false
}
