package fetch

import (
	"fmt"
	"net/url"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-shiori/go-readability"
	"golang.org/x/net/html"
)

const (
	DefaultMaxTextBytes = 24000
	minArticleChars     = 200
)

// Strategies, in the order they are tried.
const (
	StrategyTable   = "table"
	StrategySwiper  = "swiper"
	StrategyPlan    = "plan"
	StrategyArticle = "article"
	StrategyBody    = "body"
)

const noiseSelector = "script, style, svg, noscript, iframe, header, footer, nav"

// Section is one plan container found on the page.
type Section struct {
	Kind string
	Text string
}

// Page is the model-ready view of a fetched document.
type Page struct {
	URL       string
	Title     string
	Text      string
	Sections  []Section
	Strategy  string
	Truncated bool
}

// Extract reduces raw HTML to plan content. maxText <= 0 uses
// DefaultMaxTextBytes.
func Extract(rawURL, rawHTML string, maxText int) (*Page, error) {
	if maxText <= 0 {
		maxText = DefaultMaxTextBytes
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rawHTML))
	if err != nil {
		return nil, fmt.Errorf("fetch: failed to parse HTML: %w", err)
	}

	page := &Page{
		URL:   rawURL,
		Title: normalizeText(doc.Find("title").First().Text()),
	}

	doc.Find(noiseSelector).Remove()

	page.Sections = planSections(doc)
	switch {
	case len(page.Sections) > 0:
		page.Strategy = page.Sections[0].Kind
		parts := make([]string, 0, len(page.Sections))
		for _, s := range page.Sections {
			parts = append(parts, s.Text)
		}
		page.Text = strings.Join(parts, "\n\n")
	default:
		if text := articleText(rawURL, rawHTML); len(text) >= minArticleChars {
			page.Strategy = StrategyArticle
			page.Text = text
		} else {
			page.Strategy = StrategyBody
			var b strings.Builder
			for _, n := range doc.Find("body").Nodes {
				visibleText(n, &b)
			}
			page.Text = normalizeText(b.String())
		}
	}

	page.Text, page.Truncated = truncate(page.Text, maxText)
	return page, nil
}

// planSections collects pricing tables, swiper slides and plan cards, in
// that priority.
func planSections(doc *goquery.Document) []Section {
	var out []Section
	seen := make(map[string]bool)
	add := func(kind, text string) {
		if text == "" || seen[text] {
			return
		}
		seen[text] = true
		out = append(out, Section{Kind: kind, Text: text})
	}

	doc.Find("table.table").Each(func(_ int, s *goquery.Selection) {
		add(StrategyTable, tableText(s))
	})
	doc.Find("table").Not(".table").Each(func(_ int, s *goquery.Selection) {
		add(StrategyTable, tableText(s))
	})
	doc.Find("div.swiper .swiper-slide").Each(func(_ int, s *goquery.Selection) {
		add(StrategySwiper, normalizeText(s.Text()))
	})
	doc.Find(`[class*="plan"]`).Each(func(_ int, s *goquery.Selection) {
		// innermost plan containers only
		if s.Find(`[class*="plan"]`).Length() > 0 {
			return
		}
		text := normalizeText(s.Text())
		if strings.ContainsAny(text, "$0123456789") {
			add(StrategyPlan, text)
		}
	})
	return out
}

func tableText(s *goquery.Selection) string {
	var rows []string
	s.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
			if text := normalizeText(cell.Text()); text != "" {
				cells = append(cells, text)
			}
		})
		if len(cells) > 0 {
			rows = append(rows, strings.Join(cells, " | "))
		}
	})
	return strings.Join(rows, "\n")
}

func articleText(rawURL, rawHTML string) string {
	parsedURL, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	parser := readability.NewParser()
	article, err := parser.Parse(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return ""
	}
	return normalizeText(article.TextContent)
}

// visibleText appends the text of n, skipping nodes a browser would not
// render.
func visibleText(n *html.Node, b *strings.Builder) {
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style", "svg", "noscript", "template", "head":
			return
		}
	}
	if n.Type == html.TextNode {
		b.WriteString(n.Data)
		b.WriteString("\n")
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		visibleText(c, b)
	}
}

// normalizeText collapses every run of whitespace, newlines included, into a
// single space. Lines of any length are kept whole.
func normalizeText(input string) string {
	return strings.Join(strings.Fields(input), " ")
}

func truncate(text string, limit int) (string, bool) {
	text = strings.TrimSpace(text)
	if limit <= 0 || len(text) <= limit {
		return text, false
	}
	cut := limit
	// back off to a rune boundary
	for cut > 0 && !utf8.RuneStart(text[cut]) {
		cut--
	}
	return text[:cut] + " ... (truncated)", true
}
