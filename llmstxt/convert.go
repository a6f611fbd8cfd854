package llmstxt

import (
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
	"github.com/skilldhq/skilld"
)

// mainContentSelectors, in priority order. Navigation and chrome outside
// these containers is dropped before conversion.
var mainContentSelectors = []string{"main", "article", "[role=main]"}

// htmlToMarkdown extracts the main content of an HTML page and converts it
// to markdown.
func htmlToMarkdown(html string) (string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", skilld.Errorf(skilld.EINVALID, "unparseable HTML: %v", err)
	}

	content := html
	for _, selector := range mainContentSelectors {
		sel := doc.Find(selector).First()
		if sel.Length() == 0 {
			continue
		}
		if extracted, err := goquery.OuterHtml(sel); err == nil {
			content = extracted
			break
		}
	}

	md, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		return "", skilld.Errorf(skilld.EINVALID, "markdown conversion failed: %v", err)
	}

	return strings.TrimSpace(md) + "\n", nil
}
