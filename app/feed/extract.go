package feed

import (
	"bytes"
	"fmt"
	"net/url"

	readability "github.com/go-shiori/go-readability"
)

// extractBody pulls the main article HTML out of a fetched page.
func extractBody(data []byte, pageURL string) (string, error) {
	if len(data) == 0 {
		return "", fmt.Errorf("page is empty")
	}

	parsed, _ := url.Parse(pageURL)

	article, err := readability.FromReader(bytes.NewReader(data), parsed)
	if err != nil {
		return "", fmt.Errorf("failed to extract content: %w", err)
	}
	if article.Content == "" {
		return "", fmt.Errorf("no content extracted from %s", pageURL)
	}

	return article.Content, nil
}
