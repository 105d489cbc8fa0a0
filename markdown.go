package fetchkit

import (
	"fmt"
	"net/url"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"

	"fetchkit/internal/ferrors"
)

// markdownConverter wraps a reusable, goroutine-safe html-to-markdown
// Converter. Building one per engine (rather than one global converter)
// keeps engine construction free of shared mutable state.
type markdownConverter struct {
	conv *converter.Converter
}

func newMarkdownConverter() *markdownConverter {
	return &markdownConverter{
		conv: converter.NewConverter(
			converter.WithPlugins(
				base.NewBasePlugin(),
				commonmark.NewCommonmarkPlugin(),
				table.NewTablePlugin(
					table.WithCellPaddingBehavior(table.CellPaddingBehaviorMinimal),
				),
			),
		),
	}
}

// convert renders htmlContent to Markdown, resolving relative links/images
// against finalURL's host.
func (m *markdownConverter) convert(htmlContent, finalURL string) (string, error) {
	domain := ""
	if u, err := url.Parse(finalURL); err == nil {
		domain = u.Hostname()
	}

	md, err := m.conv.ConvertString(htmlContent, converter.WithDomain(domain))
	if err != nil {
		return "", ferrors.Wrap(ferrors.ErrMarkdownConversionNonHTML, fmt.Sprintf("markdown conversion failed for %s", finalURL), err)
	}
	return md, nil
}
