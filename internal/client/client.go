// Package client talks to the post endpoints on behalf of an editor session. It implements the
// uploader, autosaver, photo searcher and submitter collaborators.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/debemdeboas/inkwell/internal/auth"
	"github.com/debemdeboas/inkwell/internal/editor/media"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/routes"
	"github.com/rs/zerolog"
)

var clientLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	clientLogger = l
}

const (
	// TokenHeader carries the anti-forgery token on every state-changing request.
	TokenHeader = auth.HeaderName

	DefaultTimeout = 30 * time.Second
)

var ErrMissingToken = errors.New("anti-forgery token is missing")

// StatusError is returned when an endpoint answers with a non-success status and no JSON body.
type StatusError struct {
	Path string
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s: unexpected status %d: %s", e.Path, e.Code, e.Body)
}

type Client struct {
	base  string
	token string
	http  *http.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		c.http = h
	}
}

// New returns a client for the server at baseURL. Requests fail with ErrMissingToken when token is
// empty.
func New(baseURL, token string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("invalid base url %q: scheme and host are required", baseURL)
	}

	c := &Client{
		base:  strings.TrimRight(u.String(), "/"),
		token: strings.TrimSpace(token),
		http:  &http.Client{Timeout: DefaultTimeout},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) post(ctx context.Context, path, contentType string, body io.Reader) (*http.Response, error) {
	if c.token == "" {
		return nil, ErrMissingToken
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	req.Header.Set(TokenHeader, c.token)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", path, err)
	}
	clientLogger.Debug().
		Str("path", path).
		Int("status", resp.StatusCode).
		Dur("took", time.Since(start)).
		Msg("Request completed")
	return resp, nil
}

// decode reads a JSON reply into v. JSON error bodies are decoded too, since the endpoints report
// rejections through their success flag.
func decode(path string, resp *http.Response, v any) error {
	defer resp.Body.Close()

	isJSON := strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json")
	if resp.StatusCode >= 300 && !isJSON {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Path: path, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	return nil
}

// Tags lists the tags a post can be filed under.
func (c *Client) Tags(ctx context.Context) ([]model.Tag, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+routes.Tags, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request to %s failed: %w", routes.Tags, err)
	}
	var tags []model.Tag
	if err := decode(routes.Tags, resp, &tags); err != nil {
		return nil, err
	}
	return tags, nil
}

// Upload sends f as the mediaFile part of a multipart form.
func (c *Client) Upload(ctx context.Context, f media.File, kind model.MediaKind) (model.UploadResponse, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="mediaFile"; filename=%q`, f.Name))
	ct := media.ContentType(f)
	if ct == "" {
		ct = "application/octet-stream"
	}
	h.Set("Content-Type", ct)

	part, err := w.CreatePart(h)
	if err != nil {
		return model.UploadResponse{}, err
	}
	if _, err := part.Write(f.Data); err != nil {
		return model.UploadResponse{}, err
	}
	if err := w.WriteField("mediaType", string(kind)); err != nil {
		return model.UploadResponse{}, err
	}
	if err := w.Close(); err != nil {
		return model.UploadResponse{}, err
	}

	resp, err := c.post(ctx, routes.UploadMedia, w.FormDataContentType(), &buf)
	if err != nil {
		return model.UploadResponse{}, err
	}
	var out model.UploadResponse
	if err := decode(routes.UploadMedia, resp, &out); err != nil {
		return model.UploadResponse{}, err
	}
	return out, nil
}

func (c *Client) AutoSave(ctx context.Context, req model.AutoSaveRequest) (model.AutoSaveResponse, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return model.AutoSaveResponse{}, err
	}
	resp, err := c.post(ctx, routes.AutoSave, "application/json", bytes.NewReader(body))
	if err != nil {
		return model.AutoSaveResponse{}, err
	}
	var out model.AutoSaveResponse
	if err := decode(routes.AutoSave, resp, &out); err != nil {
		return model.AutoSaveResponse{}, err
	}
	return out, nil
}

func (c *Client) SearchPhotos(ctx context.Context, req model.PhotoSearchRequest) (model.PhotoSearchResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	form := url.Values{
		"query": {req.Query},
		"page":  {strconv.Itoa(page)},
	}
	resp, err := c.post(ctx, routes.SearchPhotos, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return model.PhotoSearchResponse{}, err
	}
	var out model.PhotoSearchResponse
	if err := decode(routes.SearchPhotos, resp, &out); err != nil {
		return model.PhotoSearchResponse{}, err
	}
	return out, nil
}

// SubmissionForm encodes sub the way the post form is posted. Every selected tag is sent as its
// own tagIds value.
func SubmissionForm(sub model.Submission) url.Values {
	form := url.Values{
		"Title":       {sub.Title},
		"Description": {sub.Description},
		"Content":     {sub.Content},
		"Url":         {sub.URL},
		"Tags":        {sub.Tags},
		"action":      {string(sub.Action)},
	}
	if !sub.PostID.IsNew() {
		form.Set("PostId", strconv.FormatInt(int64(sub.PostID), 10))
	}
	for _, id := range sub.TagIDs {
		form.Add("tagIds", string(id))
	}
	return form
}

// Submit posts the form. The server answers with a redirect that the HTTP client follows, so any
// final status below 400 is a success.
func (c *Client) Submit(ctx context.Context, sub model.Submission) error {
	form := SubmissionForm(sub)
	resp, err := c.post(ctx, routes.Create, "application/x-www-form-urlencoded", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &StatusError{Path: routes.Create, Code: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}
