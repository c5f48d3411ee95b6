package media

import (
	"strings"

	"github.com/debemdeboas/inkwell/internal/dom"
	"github.com/gomarkdown/markdown"
	md_html "github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
	"golang.org/x/net/html"
)

// MarkdownToHTML renders pasted Markdown into body markup.
func MarkdownToHTML(md []byte) []byte {
	md = markdown.NormalizeNewlines(md)
	doc := parser.NewWithExtensions(
		parser.CommonExtensions | parser.NoIntraEmphasis | parser.Strikethrough,
	).Parse(md)
	opts := md_html.RendererOptions{
		Flags: md_html.CommonFlags | md_html.HrefTargetBlank | md_html.NoopenerLinks,
	}
	return markdown.Render(doc, md_html.NewRenderer(opts))
}

// InsertMarkdown converts src and inserts the resulting blocks at the caret.
func (i *Inserter) InsertMarkdown(src string) error {
	if strings.TrimSpace(src) == "" {
		return ErrEmptyPaste
	}
	nodes, err := dom.ParseFragment(string(MarkdownToHTML([]byte(src))))
	if err != nil {
		return err
	}
	Sanitize(nodes)

	var blocks []*html.Node
	for _, n := range nodes {
		if n.Type == html.TextNode && strings.TrimSpace(n.Data) == "" {
			continue
		}
		if dom.IsElement(n, "pre") {
			dom.AddClass(n, "code-block")
			dom.SetAttr(n, "data-language", codeLanguage(n))
			dom.SetMediaID(n)
		}
		blocks = append(blocks, n)
	}
	i.insert(blocks...)
	return nil
}

// codeLanguage reads the fence info string the renderer stores on the inner code element.
func codeLanguage(pre *html.Node) string {
	for c := pre.FirstChild; c != nil; c = c.NextSibling {
		if cls, ok := dom.ClassWithPrefix(c, "language-"); ok {
			return CanonicalLanguage(strings.TrimPrefix(cls, "language-"))
		}
	}
	return plainText
}
