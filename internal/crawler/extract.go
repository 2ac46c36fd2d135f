package crawler

import (
	"log/slog"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/antchfx/htmlquery"
	"golang.org/x/net/html"

	"github.com/pagesift/pagesift/internal/types"
)

// ParsedPage holds the two views the extractor queries: the raw node tree
// for XPath scans and a goquery wrapper for CSS probes. Both share a single
// parse of the page.
type ParsedPage struct {
	Root *html.Node
	Doc  *goquery.Document
}

// ParsePage parses raw page markup once for all downstream queries.
func ParsePage(rawHTML string) (*ParsedPage, error) {
	root, err := html.Parse(strings.NewReader(rawHTML))
	if err != nil {
		return nil, &types.OtherError{Err: err}
	}
	return &ParsedPage{Root: root, Doc: goquery.NewDocumentFromNode(root)}, nil
}

// PageExtractor pulls dates, titles and pagination links out of parsed
// pages.
type PageExtractor struct {
	logger *slog.Logger
}

func NewPageExtractor(logger *slog.Logger) *PageExtractor {
	return &PageExtractor{logger: logger.With("component", "extractor")}
}

// Dates returns the page's last-modified and published dates as exposed in
// meta tags, falling back to the first time[datetime] element for the
// published date. The first hit per category wins; either value may be
// empty.
func (e *PageExtractor) Dates(page *ParsedPage) (lastModified, published string) {
	metas, err := htmlquery.QueryAll(page.Root, "//meta")
	if err != nil {
		return "", ""
	}
	for _, meta := range metas {
		content := strings.TrimSpace(htmlquery.SelectAttr(meta, "content"))
		if content == "" {
			continue
		}
		switch htmlquery.SelectAttr(meta, "property") {
		case "article:modified_time", "article:updated_time":
			if lastModified == "" {
				lastModified = content
			}
		case "article:published_time":
			if published == "" {
				published = content
			}
		}
		switch htmlquery.SelectAttr(meta, "name") {
		case "last-modified", "date-modified":
			if lastModified == "" {
				lastModified = content
			}
		case "publish-date", "publication-date", "date":
			if published == "" {
				published = content
			}
		}
		if lastModified != "" && published != "" {
			return lastModified, published
		}
	}
	if published == "" {
		if t, err := htmlquery.Query(page.Root, "//time[@datetime]"); err == nil && t != nil {
			published = strings.TrimSpace(htmlquery.SelectAttr(t, "datetime"))
		}
	}
	return lastModified, published
}

// Title returns the inner text of the page's first title element, or empty
// when the page has none.
func (e *PageExtractor) Title(page *ParsedPage) (string, error) {
	node, err := htmlquery.Query(page.Root, "//title")
	if err != nil {
		return "", &types.SelectorError{Expr: "//title", Err: err}
	}
	if node == nil {
		return "", nil
	}
	return strings.TrimSpace(htmlquery.InnerText(node)), nil
}

// paginationProbes are tried in priority order. The CSS probes cover common
// class and attribute conventions; the text probes catch plain "Next" style
// links that carry no usable class.
var paginationProbes = []paginationProbe{
	cssProbe("a.next"),
	cssProbe("a.pagination-next"),
	cssProbe(`a[rel='next']`),
	textProbe("Next"),
	textProbe("next"),
	textProbe("»"),
	cssProbe("a.pagination__next"),
	cssProbe("li.next a"),
	cssProbe("div.pagination a:last-child"),
	cssProbe(`.pagination a[aria-label='Next']`),
}

type paginationProbe struct {
	name string
	find func(doc *goquery.Document) *goquery.Selection
}

func cssProbe(selector string) paginationProbe {
	return paginationProbe{
		name: selector,
		find: func(doc *goquery.Document) *goquery.Selection {
			return doc.Find(selector)
		},
	}
}

func textProbe(needle string) paginationProbe {
	return paginationProbe{
		name: "a containing '" + needle + "'",
		find: func(doc *goquery.Document) *goquery.Selection {
			return doc.Find("a").FilterFunction(func(_ int, s *goquery.Selection) bool {
				return strings.Contains(s.Text(), needle)
			})
		},
	}
}

// NextPageURL finds the most likely next-page link and resolves it against
// the page's own URL. Only the first element each probe yields is
// considered; a probe whose element has no usable href falls through to the
// next one.
func (e *PageExtractor) NextPageURL(page *ParsedPage, current *url.URL) (*url.URL, bool) {
	for _, probe := range paginationProbes {
		sel := probe.find(page.Doc)
		if sel.Length() == 0 {
			continue
		}
		href, ok := sel.First().Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			continue
		}
		next, err := current.Parse(href)
		if err != nil {
			e.logger.Debug("skipping unresolvable pagination link",
				"probe", probe.name, "href", href, "error", err)
			continue
		}
		return next, true
	}
	return nil, false
}
