package media

import (
	"strings"

	"github.com/debemdeboas/inkwell/internal/dom"
	"golang.org/x/net/html"
)

var urlAttrs = map[string]bool{"href": true, "src": true, "action": true, "formaction": true, "xlink:href": true}

// scriptScheme reports whether a URL would execute script when followed. Browsers ignore
// whitespace and control characters inside the scheme.
func scriptScheme(v string) bool {
	var b strings.Builder
	for _, r := range v {
		if r <= ' ' {
			continue
		}
		b.WriteRune(r)
		if b.Len() >= len("javascript:") {
			break
		}
	}
	s := strings.ToLower(b.String())
	return strings.HasPrefix(s, "javascript:") || strings.HasPrefix(s, "vbscript:")
}

// Sanitize removes event handler attributes and script URLs from every element under the nodes.
func Sanitize(nodes []*html.Node) {
	for _, n := range nodes {
		dom.Walk(n, func(c *html.Node) bool {
			if c.Type != html.ElementNode {
				return true
			}
			kept := c.Attr[:0]
			for _, a := range c.Attr {
				key := strings.ToLower(a.Key)
				if strings.HasPrefix(key, "on") || (urlAttrs[key] && scriptScheme(a.Val)) {
					mediaLogger.Debug().Str("tag", c.Data).Str("attr", a.Key).Msg("Dropped unsafe attribute")
					continue
				}
				kept = append(kept, a)
			}
			c.Attr = kept
			return true
		})
	}
}

// SanitizeHTML parses src, sanitises it and serialises it back.
func SanitizeHTML(src string) (string, error) {
	nodes, err := dom.ParseFragment(src)
	if err != nil {
		return "", err
	}
	Sanitize(nodes)
	wrapper := dom.Element("div")
	for _, n := range nodes {
		wrapper.AppendChild(n)
	}
	return dom.InnerHTML(wrapper), nil
}

// InsertEmbed wraps sanitised third-party markup in an embed container.
func (i *Inserter) InsertEmbed(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return "", ErrEmptyEmbed
	}
	nodes, err := dom.ParseFragment(raw)
	if err != nil {
		return "", err
	}
	Sanitize(nodes)

	container := dom.Element("div", "class", "embed-container")
	id := dom.SetMediaID(container)
	for _, n := range nodes {
		container.AppendChild(n)
	}
	container.AppendChild(caption(captionPlaceholder))
	i.insert(container)
	return id, nil
}
