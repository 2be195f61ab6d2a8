package loader

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"

	"docqa/types"
)

const (
	DefaultTimeout  = 10 * time.Second
	wikipediaAPI    = "https://en.wikipedia.org/w/api.php"
	wikipediaPages  = "https://en.wikipedia.org/wiki/"
	defaultAgent    = "docqa/1.0 (document question answering)"
	maxPageBodySize = 20 << 20
)

// Fetcher downloads web pages and Wikipedia articles.
type Fetcher struct {
	client    *http.Client
	wikiAPI   string
	wikiPages string
}

func NewFetcher(timeout time.Duration) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Fetcher{
		client:    &http.Client{Timeout: timeout},
		wikiAPI:   wikipediaAPI,
		wikiPages: wikipediaPages,
	}
}

// WithWikipedia points the fetcher at another MediaWiki installation.
func (f *Fetcher) WithWikipedia(apiURL, pagesURL string) *Fetcher {
	f.wikiAPI = apiURL
	f.wikiPages = pagesURL
	return f
}

var defaultFetcher = NewFetcher(DefaultTimeout)

func FetchURL(ctx context.Context, rawURL string) (types.Document, error) {
	return defaultFetcher.FetchURL(ctx, rawURL)
}

func FetchWikipedia(ctx context.Context, title string) (types.Document, error) {
	return defaultFetcher.FetchWikipedia(ctx, title)
}

// FetchURL returns the visible text of an HTML page, one trimmed line per
// text block. Source and URL are both the requested address.
func (f *Fetcher) FetchURL(ctx context.Context, rawURL string) (types.Document, error) {
	body, err := f.get(ctx, rawURL)
	if err != nil {
		return types.Document{}, err
	}
	defer body.Close()

	text, err := htmlText(io.LimitReader(body, maxPageBodySize))
	if err != nil {
		return types.Document{}, fmt.Errorf("parse %s: %w", rawURL, err)
	}
	return types.Document{Source: rawURL, URL: rawURL, Text: text}, nil
}

type parseResponse struct {
	Parse struct {
		Title string `json:"title"`
		Text  string `json:"text"`
	} `json:"parse"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// FetchWikipedia renders an article through the MediaWiki parse API and
// strips it down to text. Spaces in the title become underscores.
func (f *Fetcher) FetchWikipedia(ctx context.Context, title string) (types.Document, error) {
	title = strings.ReplaceAll(strings.TrimSpace(title), " ", "_")
	if title == "" {
		return types.Document{}, errors.New("empty wikipedia title")
	}

	q := url.Values{}
	q.Set("action", "parse")
	q.Set("page", title)
	q.Set("prop", "text")
	q.Set("redirects", "1")
	q.Set("format", "json")
	q.Set("formatversion", "2")

	body, err := f.get(ctx, f.wikiAPI+"?"+q.Encode())
	if err != nil {
		return types.Document{}, err
	}
	defer body.Close()

	var resp parseResponse
	if err := json.NewDecoder(body).Decode(&resp); err != nil {
		return types.Document{}, fmt.Errorf("decode wikipedia response: %w", err)
	}
	if resp.Error != nil {
		return types.Document{}, fmt.Errorf("wikipedia %s: %s: %s", title, resp.Error.Code, resp.Error.Info)
	}

	text, err := htmlText(strings.NewReader(resp.Parse.Text), "mw-editsection", "reference", "navbox")
	if err != nil {
		return types.Document{}, fmt.Errorf("parse wikipedia %s: %w", title, err)
	}
	return types.Document{
		Source: "wikipedia:" + title,
		URL:    f.wikiPages + title,
		Text:   text,
	}, nil
}

func (f *Fetcher) get(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", defaultAgent)

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", rawURL, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: status %d", rawURL, resp.StatusCode)
	}
	return resp.Body, nil
}

// htmlText collects text nodes line by line, skipping script, style and
// noscript elements and any element carrying one of skipClasses.
func htmlText(r io.Reader, skipClasses ...string) (string, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return "", err
	}

	var parts []string
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch n.Data {
			case "script", "style", "noscript", "template":
				return
			}
			if hasClass(n, skipClasses) {
				return
			}
		}
		if n.Type == html.TextNode {
			parts = append(parts, n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(doc)

	var lines []string
	for _, line := range strings.Split(strings.Join(parts, "\n"), "\n") {
		if line = strings.TrimSpace(line); line != "" {
			lines = append(lines, line)
		}
	}
	return strings.Join(lines, "\n"), nil
}

func hasClass(n *html.Node, classes []string) bool {
	if len(classes) == 0 {
		return false
	}
	for _, a := range n.Attr {
		if a.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(a.Val) {
			for _, want := range classes {
				if c == want {
					return true
				}
			}
		}
	}
	return false
}
