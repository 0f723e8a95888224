package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"studyagent/internal/domain"
)

// Companion markdown files worth folding into the capture besides README.
var importantMarkdown = map[string]bool{
	"README.md":       true,
	"ARCHITECTURE.md": true,
	"CONTRIBUTING.md": true,
	"DEVELOPMENT.md":  true,
	"SETUP.md":        true,
	"INSTALL.md":      true,
	"USAGE.md":        true,
	"API.md":          true,
	"CHANGELOG.md":    true,
}

var repoPathExpr = regexp.MustCompile(`github\.com/([^/]+)/([^/?#]+)`)

// GitHubParser captures repository metadata from the HTML page and pulls
// README plus companion markdown files through the contents API.
type GitHubParser struct {
	client   *http.Client
	pageBase string
	apiBase  string
}

// NewGitHubParser wires an HTTP client; nil falls back to the default.
func NewGitHubParser(client *http.Client) *GitHubParser {
	if client == nil {
		client = defaultClient()
	}
	return &GitHubParser{
		client:   client,
		pageBase: "https://github.com",
		apiBase:  "https://api.github.com",
	}
}

func (p *GitHubParser) Host() string              { return "github.com" }
func (p *GitHubParser) Source() domain.SourceKind { return domain.SourceGitHub }

// Parse canonicalizes the URL to owner/repo and captures the repository.
func (p *GitHubParser) Parse(ctx context.Context, url string) (domain.ContentRecord, error) {
	match := repoPathExpr.FindStringSubmatch(url)
	if match == nil {
		return domain.ContentRecord{}, fmt.Errorf("%w: expected github.com/owner/repo, got %s", domain.ErrFetchFailed, url)
	}
	owner, repo := match[1], strings.TrimSuffix(match[2], "/")

	repoURL := fmt.Sprintf("%s/%s/%s", p.pageBase, owner, repo)
	doc, err := fetchDocument(ctx, p.client, repoURL)
	if err != nil {
		return domain.ContentRecord{}, err
	}

	content := p.markdownContent(ctx, owner, repo)
	if content == "" {
		// API miss; fall back to the rendered README on the page.
		content = githubReadme(doc)
	}
	content = truncate(collapseBlankLines(content), maxContentLength*2)

	return domain.ContentRecord{
		URL:           repoURL,
		Source:        domain.SourceGitHub,
		Title:         fmt.Sprintf("%s/%s", owner, repo),
		Author:        owner,
		RepoStars:     githubStars(doc),
		RepoLanguage:  githubLanguage(doc),
		RepoDesc:      strings.TrimSpace(doc.Find("p.f4").First().Text()),
		Content:       content,
		ContentLength: len([]rune(content)),
	}, nil
}

type contentEntry struct {
	Name        string `json:"name"`
	Path        string `json:"path"`
	Type        string `json:"type"`
	DownloadURL string `json:"download_url"`
}

func (p *GitHubParser) markdownContent(ctx context.Context, owner, repo string) string {
	entries := p.listMarkdown(ctx, fmt.Sprintf("%s/repos/%s/%s/contents", p.apiBase, owner, repo))
	entries = append(entries, p.listMarkdown(ctx, fmt.Sprintf("%s/repos/%s/%s/contents/docs", p.apiBase, owner, repo))...)

	var parts []string
	for _, entry := range entries {
		body := p.download(ctx, entry.DownloadURL)
		if body == "" {
			continue
		}
		parts = append(parts, fmt.Sprintf("=== %s ===\n%s", entry.Path, body))
	}
	return strings.Join(parts, "\n\n")
}

func (p *GitHubParser) listMarkdown(ctx context.Context, apiURL string) []contentEntry {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/vnd.github.v3+json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil
	}

	var entries []contentEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil
	}

	var picked []contentEntry
	for _, entry := range entries {
		if entry.Type != "file" || entry.DownloadURL == "" {
			continue
		}
		if importantMarkdown[entry.Name] || strings.HasSuffix(strings.ToLower(entry.Name), ".md") && strings.HasPrefix(entry.Path, "docs/") {
			picked = append(picked, entry)
		}
	}
	return picked
}

func (p *GitHubParser) download(ctx context.Context, rawURL string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return ""
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := p.client.Do(req)
	if err != nil {
		return ""
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return ""
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ""
	}
	return strings.TrimSpace(string(body))
}

func githubStars(doc *goquery.Document) string {
	text := strings.TrimSpace(doc.Find("a[href*='/stargazers']").First().Text())
	if match := regexp.MustCompile(`[\d,.]+[kK]?`).FindString(text); match != "" {
		return match
	}
	return "0"
}

func githubLanguage(doc *goquery.Document) string {
	return strings.TrimSpace(doc.Find("span[itemprop='programmingLanguage']").First().Text())
}

func githubReadme(doc *goquery.Document) string {
	readme := doc.Find("article.markdown-body").First()
	if readme.Length() == 0 {
		return ""
	}
	readme.Find("script, style, svg, img").Remove()
	return strings.TrimSpace(readme.Text())
}
