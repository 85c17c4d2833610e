package markdown

import (
	"fmt"
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/PuerkitoBio/goquery"
)

// Transformer converts article HTML to Markdown and pulls out the lead
// image when the body carries one.
type Transformer struct{}

func NewTransformer() *Transformer {
	return &Transformer{}
}

type Result struct {
	Markdown  string
	LeadImage string // URL of the first image in the body, empty when none
}

var (
	htmlCommentRe   = regexp.MustCompile(`(?s)<!--.*?-->`)
	blankRunsRe     = regexp.MustCompile(`\n{3,}`)
	trailingSpaceRe = regexp.MustCompile(`[ \t]+\n`)
)

func (t *Transformer) Run(html string) (Result, error) {
	if strings.TrimSpace(html) == "" {
		return Result{}, fmt.Errorf("HTML content is empty")
	}

	html = htmlCommentRe.ReplaceAllString(html, "")

	lead := leadImage(html)

	md, err := htmltomarkdown.ConvertString(html)
	if err != nil {
		return Result{}, fmt.Errorf("failed to convert HTML to Markdown: %w", err)
	}

	md = cleanup(md)

	if lead != "" {
		md = stripLeadingImage(md, lead)
	}

	return Result{Markdown: md, LeadImage: lead}, nil
}

func cleanup(md string) string {
	md = trailingSpaceRe.ReplaceAllString(md, "\n")
	md = blankRunsRe.ReplaceAllString(md, "\n\n")
	return strings.TrimSpace(md)
}

func leadImage(html string) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	src, _ := doc.Find("img").First().Attr("src")
	return src
}

// stripLeadingImage removes an image from the start of the Markdown when
// it repeats the extracted lead, so the published event does not show it
// twice (once via the image tag, once inline).
func stripLeadingImage(md, lead string) string {
	first, rest, _ := strings.Cut(md, "\n")
	if strings.HasPrefix(first, "![") && strings.Contains(first, "("+lead+")") {
		return strings.TrimLeft(rest, "\n")
	}
	return md
}
