package mitre

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/net/html"

	"threatkit/internal/domain"
)

var techniqueHrefPattern = regexp.MustCompile(`/techniques/(T\d+)(/\d+)?`)

// ScrapeTechniques lists the technique and sub-technique rows of an ATT&CK techniques page
func (c *Client) ScrapeTechniques(ctx context.Context, pageURL string) ([]domain.PageTechnique, error) {
	body, err := c.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return ParseTechniquePage(bytes.NewReader(body), c.SiteURL())
}

// ScrapeTactics lists the rows of an ATT&CK tactics page
func (c *Client) ScrapeTactics(ctx context.Context, pageURL string) ([]domain.Tactic, error) {
	body, err := c.FetchPage(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	return ParseTacticPage(bytes.NewReader(body), c.SiteURL())
}

// ParseTechniquePage reads rows classed "technique" or "sub technique" and
// derives each ID from the first link: /techniques/T1059/001 becomes T1059.001.
// Rows are returned in page order, duplicates included.
func ParseTechniquePage(r io.Reader, siteURL string) ([]domain.PageTechnique, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse techniques page: %w", err)
	}

	var out []domain.PageTechnique
	walk(doc, func(n *html.Node) bool {
		if !isElement(n, "tr") || !hasClass(n, "technique") {
			return true
		}
		link := findFirst(n, func(c *html.Node) bool {
			return isElement(c, "a") && getAttr(c, "href") != ""
		})
		if link == nil {
			return false
		}
		href := getAttr(link, "href")
		m := techniqueHrefPattern.FindStringSubmatch(href)
		if m == nil {
			return false
		}
		id := m[1]
		if m[2] != "" {
			id += strings.Replace(m[2], "/", ".", 1)
		}
		out = append(out, domain.PageTechnique{ID: id, URL: siteURL + href})
		return false
	})
	return out, nil
}

// TechniqueIDs collapses scraped rows into a set of IDs
func TechniqueIDs(rows []domain.PageTechnique) map[string]struct{} {
	ids := make(map[string]struct{}, len(rows))
	for _, row := range rows {
		ids[row.ID] = struct{}{}
	}
	return ids
}

// ParseTacticPage reads "tbody tr" rows whose first cell links to the tactic
// and whose second cell holds its name.
func ParseTacticPage(r io.Reader, siteURL string) ([]domain.Tactic, error) {
	doc, err := html.Parse(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse tactics page: %w", err)
	}

	var out []domain.Tactic
	walk(doc, func(n *html.Node) bool {
		if !isElement(n, "tbody") {
			return true
		}
		walk(n, func(row *html.Node) bool {
			if !isElement(row, "tr") {
				return true
			}
			cells := children(row, "td")
			if len(cells) < 2 {
				return false
			}
			link := findFirst(cells[0], func(c *html.Node) bool {
				return isElement(c, "a") && getAttr(c, "href") != ""
			})
			if link == nil {
				return false
			}
			name := textContent(cells[1])
			out = append(out, domain.Tactic{
				ID:        textContent(cells[0]),
				Name:      name,
				URL:       siteURL + getAttr(link, "href"),
				ShortName: strings.ReplaceAll(strings.ToLower(name), " ", "-"),
			})
			return false
		})
		return false
	})
	return out, nil
}

// walk visits n and its descendants depth-first. Returning false from visit
// skips the node's children.
func walk(n *html.Node, visit func(*html.Node) bool) {
	if !visit(n) {
		return
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		walk(c, visit)
	}
}

func findFirst(n *html.Node, match func(*html.Node) bool) *html.Node {
	var found *html.Node
	walk(n, func(c *html.Node) bool {
		if found != nil {
			return false
		}
		if c != n && match(c) {
			found = c
			return false
		}
		return true
	})
	return found
}

func children(n *html.Node, tag string) []*html.Node {
	var out []*html.Node
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if isElement(c, tag) {
			out = append(out, c)
		}
	}
	return out
}

func isElement(n *html.Node, tag string) bool {
	return n.Type == html.ElementNode && n.Data == tag
}

func hasClass(n *html.Node, class string) bool {
	for _, token := range strings.Fields(getAttr(n, "class")) {
		if token == class {
			return true
		}
	}
	return false
}

func getAttr(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

// textContent concatenates the trimmed text nodes under n
func textContent(n *html.Node) string {
	var sb strings.Builder
	walk(n, func(c *html.Node) bool {
		if c.Type == html.TextNode {
			sb.WriteString(strings.TrimSpace(c.Data))
		}
		return true
	})
	return sb.String()
}
