package dom

import "github.com/rs/zerolog"

var domLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	domLogger = l
}
