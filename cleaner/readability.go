package cleaner

import (
	nurl "net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// minContentLength is the minimum TextContent length (in characters) for
// readability output to count as the main body of a page.
const minContentLength = 50

// ReadableText runs the Mozilla Readability algorithm on rawHTML and returns
// the plain text of the main content block.
//
// The boolean is false when the URL is invalid, readability fails, or the
// extracted text is shorter than minContentLength. Callers treat that as
// "no value" rather than an error.
func ReadableText(rawHTML string, sourceURL string) (string, bool) {
	parsedURL, err := nurl.Parse(sourceURL)
	if err != nil {
		return "", false
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), parsedURL)
	if err != nil {
		return "", false
	}

	text := Normalize(article.TextContent)
	if len(text) < minContentLength {
		return "", false
	}
	return text, true
}
