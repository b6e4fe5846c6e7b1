package engine

import (
	"net/url"
	"strings"

	"golang.org/x/net/html"
)

// Paths the site serves instead of content when it wants a signed-in or
// verified session.
var wallPaths = []string{"/authwall", "/login", "/signup", "/checkpoint", "/uas/login"}

// minBodyText is the smallest amount of visible text a real page has.
const minBodyText = 200

// CheckPage rejects results that are technically successful but useless
// for extraction: sign-in redirects and empty JavaScript shells. The
// dispatcher escalates to the next engine on either.
func CheckPage(res *FetchResult) error {
	if isWall(res.FinalURL) {
		return ErrAuthWall
	}
	if visibleTextLen(res.HTML) < minBodyText {
		return ErrEmptyShell
	}
	return nil
}

func isWall(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	for _, p := range wallPaths {
		if strings.HasPrefix(u.Path, p) {
			return true
		}
	}
	return false
}

// visibleTextLen counts non-space bytes of text outside script and style.
func visibleTextLen(body string) int {
	tokenizer := html.NewTokenizer(strings.NewReader(body))
	n := 0
	skip := 0
	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return n
		case html.StartTagToken:
			if tn, _ := tokenizer.TagName(); isRawText(tn) {
				skip++
			}
		case html.EndTagToken:
			if tn, _ := tokenizer.TagName(); isRawText(tn) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				n += len(strings.Join(strings.Fields(string(tokenizer.Text())), ""))
			}
		}
	}
}

func isRawText(tag []byte) bool {
	t := string(tag)
	return t == "script" || t == "style" || t == "noscript"
}
