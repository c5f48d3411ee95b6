package server

import (
	"net/http"
	"strings"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/routes"
	"github.com/rs/zerolog"
)

type Options struct {
	Handler *Handler
	// RequireToken guards the unsafe requests.
	RequireToken func(http.Handler) http.Handler
	// Uploads serves stored media under UploadsPrefix. It is optional.
	Uploads       http.Handler
	UploadsPrefix string
	Logger        zerolog.Logger
}

// New assembles the routes and wraps them with token checking, security headers and request
// logging.
func New(opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET "+routes.RobotsPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, config.CTypeText)
		w.Write([]byte("User-agent: *\nDisallow: /Posts/\n"))
	})
	mux.HandleFunc("GET "+routes.HealthPath, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set(config.HCType, config.CTypeText)
		w.Write([]byte("ok\n"))
	})

	opts.Handler.Register(mux)

	if opts.Uploads != nil {
		prefix := opts.UploadsPrefix
		if prefix == "" {
			prefix = routes.Uploads
		}
		prefix = "/" + strings.Trim(prefix, "/") + "/"
		mux.Handle("GET "+prefix, http.StripPrefix(strings.TrimSuffix(prefix, "/"), opts.Uploads))
	}

	var h http.Handler = noCache(mux)
	if opts.RequireToken != nil {
		h = opts.RequireToken(h)
	}
	return withLogger(opts.Logger, secureHeaders(h))
}
