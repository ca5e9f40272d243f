package demo

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const (
	searchEndpoint = "https://html.duckduckgo.com/html/"

	// userAgent is sent on every outgoing request; the search endpoint
	// rejects the default Go client string.
	userAgent = "Mozilla/5.0 (X11; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/115.0"

	wrapWidth = 80
)

// SearchResult is a fetched web page handed to the model as context. Zero
// fields mean the search found nothing or the page could not be fetched.
type SearchResult struct {
	URL  string `json:"url"`
	Text string `json:"text"`
}

// Searcher retrieves web context for the search tool. Tests substitute a
// canned implementation.
type Searcher interface {
	Search(ctx context.Context, query string) (SearchResult, error)
}

// DuckDuckGoSearcher implements Searcher against the DuckDuckGo HTML
// endpoint: it submits the query, follows the first hit, and returns that
// page's cleaned text.
type DuckDuckGoSearcher struct {
	client   *http.Client
	endpoint string
}

// NewDuckDuckGoSearcher creates a DuckDuckGoSearcher. A nil client means
// http.DefaultClient.
func NewDuckDuckGoSearcher(client *http.Client) *DuckDuckGoSearcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &DuckDuckGoSearcher{
		client:   client,
		endpoint: searchEndpoint,
	}
}

// Search implements Searcher. A failure to fetch the chosen page degrades to
// a result with empty Text rather than an error, so the caller still sees
// which page was chosen.
func (d *DuckDuckGoSearcher) Search(ctx context.Context, query string) (SearchResult, error) {
	form := url.Values{"q": {query}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return SearchResult{}, fmt.Errorf("failed to create search request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", userAgent)

	res, err := d.client.Do(req)
	if err != nil {
		return SearchResult{}, fmt.Errorf("failed to search: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return SearchResult{}, fmt.Errorf("search returned status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return SearchResult{}, fmt.Errorf("failed to parse search results: %w", err)
	}

	href, ok := doc.Find(".result__a").First().Attr("href")
	if !ok {
		return SearchResult{}, nil
	}
	pageURL, err := resolveResultURL(href)
	if err != nil {
		return SearchResult{}, nil
	}

	text, err := d.pageText(ctx, pageURL)
	if err != nil {
		return SearchResult{URL: pageURL}, nil
	}

	return SearchResult{URL: pageURL, Text: text}, nil
}

// resolveResultURL unwraps the redirect DuckDuckGo wraps result links in,
// which carries the target in the uddg query parameter.
func resolveResultURL(href string) (string, error) {
	if strings.HasPrefix(href, "//") {
		href = "https:" + href
	}
	u, err := url.Parse(href)
	if err != nil {
		return "", fmt.Errorf("failed to parse result link: %w", err)
	}
	if target := u.Query().Get("uddg"); target != "" {
		return target, nil
	}
	return u.String(), nil
}

func (d *DuckDuckGoSearcher) pageText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create page request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	res, err := d.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch page: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("page returned status %d", res.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(res.Body)
	if err != nil {
		return "", fmt.Errorf("failed to parse page: %w", err)
	}

	body := doc.Find("body")
	body.Find("script, style, noscript").Remove()

	return cleanText(body.Text(), wrapWidth), nil
}

var spaceRE = regexp.MustCompile(`\s+`)

// cleanText normalizes typographic quotes and dashes, collapses runs of
// whitespace inside each paragraph, and wraps paragraphs at width columns.
// Paragraphs come out separated by blank lines.
func cleanText(text string, width int) string {
	r := strings.NewReplacer(
		"“", `"`, "”", `"`,
		"‘", "'", "’", "'",
		"–", "-", "—", "-",
	)
	text = r.Replace(text)

	var paragraphs []string
	for _, p := range strings.Split(text, "\n") {
		p = strings.TrimSpace(spaceRE.ReplaceAllString(p, " "))
		if p == "" {
			continue
		}
		paragraphs = append(paragraphs, wrapText(p, width))
	}

	return strings.Join(paragraphs, "\n\n")
}

func wrapText(p string, width int) string {
	words := strings.Fields(p)
	var b strings.Builder
	lineLen := 0
	for i, word := range words {
		if i == 0 {
			b.WriteString(word)
			lineLen = len(word)
			continue
		}
		if lineLen+1+len(word) > width {
			b.WriteByte('\n')
			b.WriteString(word)
			lineLen = len(word)
			continue
		}
		b.WriteByte(' ')
		b.WriteString(word)
		lineLen += 1 + len(word)
	}
	return b.String()
}
