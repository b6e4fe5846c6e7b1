package cleaner

import (
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
)

// mdConverter is shared by every caller; html-to-markdown converters are
// goroutine-safe once built.
var mdConverter = newMarkdownConverter()

// newMarkdownConverter builds a converter for job-posting bodies:
//
//   - base plugin: drops script, style, iframe, noscript and comments.
//   - commonmark plugin: lists, headings and emphasis, which is most of what
//     a posting uses.
//   - table plugin: compensation tables survive as pipe tables.
func newMarkdownConverter() *converter.Converter {
	return converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(
				table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
			),
		),
	)
}

// ToMarkdown converts an HTML fragment to Markdown. Relative links are
// resolved against domain.
func ToMarkdown(htmlContent string, domain string) (string, error) {
	if strings.TrimSpace(htmlContent) == "" {
		return "", nil
	}
	md, err := mdConverter.ConvertString(htmlContent, converter.WithDomain(domain))
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(md), nil
}
