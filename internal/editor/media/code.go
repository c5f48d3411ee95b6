package media

import (
	"strings"

	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/debemdeboas/inkwell/internal/dom"
)

const plainText = "plaintext"

// CanonicalLanguage maps a language name or alias to the lower-case name of its lexer. Unknown
// languages become plaintext.
func CanonicalLanguage(lang string) string {
	lang = strings.TrimSpace(lang)
	if lang == "" {
		return plainText
	}
	lexer := lexers.Get(lang)
	if lexer == nil {
		return plainText
	}
	return strings.ToLower(lexer.Config().Name)
}

// InsertCodeBlock inserts code as the text of a preformatted block. The code is escaped when the
// body is serialised.
func (i *Inserter) InsertCodeBlock(code, language string) (string, error) {
	if strings.TrimSpace(code) == "" {
		return "", ErrEmptyCode
	}
	pre := dom.Element("pre", "class", "code-block", "data-language", CanonicalLanguage(language))
	id := dom.SetMediaID(pre)
	pre.AppendChild(dom.Text(code))
	i.insert(pre)
	return id, nil
}

func (i *Inserter) InsertDivider() string {
	hr := dom.Element("hr", "class", "content-divider")
	id := dom.SetMediaID(hr)
	i.insert(hr)
	return id
}
