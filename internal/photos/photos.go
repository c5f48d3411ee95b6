// Package photos proxies photo searches to an Unsplash style API so the access key never reaches
// the editor.
package photos

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/rs/zerolog"
)

var photosLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	photosLogger = l
}

var (
	ErrNotConfigured = errors.New("photo search is not configured")
	ErrEmptyQuery    = errors.New("search query cannot be empty")
)

type Options struct {
	BaseURL   string
	AccessKey string
	PerPage   int
	CacheTTL  time.Duration
	Client    *http.Client
	// Now is used for cache expiry. It defaults to time.Now.
	Now func() time.Time
}

type Proxy struct {
	base      string
	accessKey string
	perPage   int
	client    *http.Client
	results   *cache.Expiring[string, model.PhotoSearchResponse]
}

func NewProxy(opts Options) *Proxy {
	if opts.PerPage <= 0 {
		opts.PerPage = 12
	}
	if opts.Client == nil {
		opts.Client = &http.Client{Timeout: 10 * time.Second}
	}
	return &Proxy{
		base:      strings.TrimRight(opts.BaseURL, "/"),
		accessKey: opts.AccessKey,
		perPage:   opts.PerPage,
		client:    opts.Client,
		results:   cache.NewExpiring[string, model.PhotoSearchResponse](opts.CacheTTL, opts.Now),
	}
}

type upstreamPhoto struct {
	ID             string          `json:"id"`
	Description    string          `json:"description"`
	AltDescription string          `json:"alt_description"`
	URLs           model.PhotoURLs `json:"urls"`
	User           struct {
		Name  string `json:"name"`
		Links struct {
			HTML string `json:"html"`
		} `json:"links"`
	} `json:"user"`
}

type upstreamResult struct {
	Total      int             `json:"total"`
	TotalPages int             `json:"total_pages"`
	Results    []upstreamPhoto `json:"results"`
}

// SearchPhotos returns one page of results. Results are cached per query and page.
func (p *Proxy) SearchPhotos(ctx context.Context, req model.PhotoSearchRequest) (model.PhotoSearchResponse, error) {
	query := strings.TrimSpace(req.Query)
	if query == "" {
		return model.PhotoSearchResponse{}, ErrEmptyQuery
	}
	if p.accessKey == "" || p.base == "" {
		return model.PhotoSearchResponse{}, ErrNotConfigured
	}
	page := req.Page
	if page < 1 {
		page = 1
	}

	key := strings.ToLower(query) + "|" + strconv.Itoa(page)
	if resp, ok := p.results.Get(key); ok {
		photosLogger.Debug().Str("query", query).Int("page", page).Msg("Photo search served from cache")
		return resp, nil
	}

	params := url.Values{
		"query":    {query},
		"page":     {strconv.Itoa(page)},
		"per_page": {strconv.Itoa(p.perPage)},
	}
	hreq, err := http.NewRequestWithContext(ctx, http.MethodGet, p.base+"/search/photos?"+params.Encode(), nil)
	if err != nil {
		return model.PhotoSearchResponse{}, fmt.Errorf("failed to build photo search request: %w", err)
	}
	hreq.Header.Set("Accept-Version", "v1")
	hreq.Header.Set("Authorization", "Client-ID "+p.accessKey)

	hresp, err := p.client.Do(hreq)
	if err != nil {
		return model.PhotoSearchResponse{}, fmt.Errorf("photo search request failed: %w", err)
	}
	defer hresp.Body.Close()

	if hresp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(hresp.Body, 4096))
		return model.PhotoSearchResponse{}, fmt.Errorf("photo API error: %s", hresp.Status)
	}

	var up upstreamResult
	if err := json.NewDecoder(hresp.Body).Decode(&up); err != nil {
		return model.PhotoSearchResponse{}, fmt.Errorf("failed to decode photo search response: %w", err)
	}

	resp := model.PhotoSearchResponse{
		Success:    true,
		Results:    make([]model.Photo, 0, len(up.Results)),
		TotalPages: up.TotalPages,
	}
	for _, r := range up.Results {
		desc := r.Description
		if desc == "" {
			desc = r.AltDescription
		}
		resp.Results = append(resp.Results, model.Photo{
			ID:          r.ID,
			URLs:        r.URLs,
			Description: desc,
			AuthorName:  r.User.Name,
			AuthorLink:  r.User.Links.HTML,
		})
	}

	p.results.Set(key, resp)
	photosLogger.Debug().Str("query", query).Int("page", page).Int("results", len(resp.Results)).Msg("Photo search completed")
	return resp, nil
}

// Prune drops expired cached searches.
func (p *Proxy) Prune() int {
	return p.results.Prune()
}
