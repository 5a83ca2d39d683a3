package tools

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"sort"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/richard-senior/podds-au/internal/logger"
	"github.com/richard-senior/podds-au/pkg/protocol"
	"github.com/richard-senior/podds-au/pkg/transport"
	"github.com/richard-senior/podds-au/pkg/util/podds"
)

// MaxPreviewLength caps the markdown preview returned by au_results_import
const MaxPreviewLength = 10000

func ResultsImportTool() protocol.Tool {
	return protocol.Tool{
		Name: "au_results_import",
		Description: `
		Fetches a results page, reads the played fixtures from its results table and appends them
		to the local match history so later predictions use them.
		Team names on the page are matched to known teams, unknown names become new teams.
		Also returns the page converted to Markdown so the user can check what was read.
		`,
		InputSchema: protocol.InputSchema{
			Type: "object",
			Properties: map[string]protocol.ToolProperty{
				"url": {
					Type:        "string",
					Description: "The URL of the results page ie. https://www.example.com/a-league/results",
				},
				"league": {
					Type:        "string",
					Description: "The league code the results belong to",
				},
			},
			Required: []string{"url", "league"},
		},
	}
}

// ImportSummary is the result of au_results_import
type ImportSummary struct {
	URL      string   `json:"url"`
	League   string   `json:"league"`
	Records  int      `json:"records"`
	Fixtures int      `json:"fixtures"`
	NewTeams []string `json:"newTeams"`
	Title    string   `json:"title"`
	Markdown string   `json:"markdown"`
}

func (ts *Toolset) HandleResultsImport(params any) (any, error) {
	args, err := arguments(params)
	if err != nil {
		return nil, err
	}
	pageURL, err := stringArg(args, "url")
	if err != nil {
		return nil, err
	}
	if pageURL == "" {
		return nil, fmt.Errorf("no url was passed")
	}
	league, err := stringArg(args, "league")
	if err != nil {
		return nil, err
	}
	ctx, cancel := ts.context()
	defer cancel()
	return ts.ImportResults(ctx, pageURL, league)
}

// ImportResults fetches pageURL once, stores the fixtures it holds and
// previews the page as markdown
func (ts *Toolset) ImportResults(ctx context.Context, pageURL, league string) (*ImportSummary, error) {
	if ts.Store == nil {
		return nil, errors.New("no match store is configured")
	}
	lc, err := ts.Service.League(league)
	if err != nil {
		return nil, err
	}
	known, err := ts.Store.Teams(ctx)
	if err != nil {
		return nil, err
	}

	fetch := ts.Fetch
	if fetch == nil {
		fetch = transport.GetHTML
	}
	var body []byte
	src := podds.NewHTMLResultsSource(pageURL, lc.Code, known)
	src.FuzzyThreshold = ts.Service.Config().FuzzyMatchThreshold
	src.Fetch = func(ctx context.Context, u string) ([]byte, error) {
		b, err := fetch(ctx, u)
		body = b
		return b, err
	}
	ds, err := src.Load(ctx)
	if err != nil {
		return nil, err
	}
	if err := ts.Store.ImportDataset(ctx, ds); err != nil {
		return nil, err
	}

	newTeams := make([]string, 0, len(ds.Teams))
	for id := range ds.Teams {
		newTeams = append(newTeams, string(id))
	}
	sort.Strings(newTeams)
	logger.Info("Imported results from", pageURL, len(ds.Matches), "records")

	return &ImportSummary{
		URL:      pageURL,
		League:   lc.Code,
		Records:  len(ds.Matches),
		Fixtures: len(ds.Matches) / 2,
		NewTeams: newTeams,
		Title:    extractTitle(string(body)),
		Markdown: toMarkdown(pageURL, string(body)),
	}, nil
}

// toMarkdown converts a page for display, a failed conversion yields an empty preview
func toMarkdown(pageURL, html string) string {
	domain, err := extractDomain(pageURL)
	if err != nil {
		logger.Warn("Failed to extract domain from URL:", err)
		domain = "unknown"
	}
	markdown, err := htmltomarkdown.ConvertString(html, converter.WithDomain(domain))
	if err != nil {
		logger.Error("Failed to convert HTML to Markdown:", err)
		return ""
	}
	return truncatePreview(markdown)
}

// truncatePreview cuts s to MaxPreviewLength bytes without splitting a rune
func truncatePreview(s string) string {
	if len(s) <= MaxPreviewLength {
		return s
	}
	cut := MaxPreviewLength
	for cut > 0 && !utf8.RuneStart(s[cut]) {
		cut--
	}
	return s[:cut] + "\n\n... (content truncated due to size)"
}

// extractTitle attempts to extract the title from HTML content
func extractTitle(html string) string {
	titleStart := strings.Index(html, "<title>")
	if titleStart == -1 {
		return ""
	}
	titleStart += len("<title>")
	titleEnd := strings.Index(html[titleStart:], "</title>")
	if titleEnd == -1 {
		return ""
	}
	return strings.TrimSpace(html[titleStart : titleStart+titleEnd])
}

// extractDomain extracts the scheme and host from a URL string
func extractDomain(urlString string) (string, error) {
	if !strings.HasPrefix(urlString, "http://") && !strings.HasPrefix(urlString, "https://") {
		urlString = "https://" + urlString
	}
	parsedURL, err := url.Parse(urlString)
	if err != nil {
		return "", fmt.Errorf("failed to parse URL: %v", err)
	}
	if parsedURL.Hostname() == "" {
		return "", fmt.Errorf("no host in URL: %s", urlString)
	}
	return parsedURL.Scheme + "://" + parsedURL.Hostname(), nil
}
