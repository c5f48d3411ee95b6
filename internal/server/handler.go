// Package server implements the post endpoints the editor talks to.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/debemdeboas/inkwell/internal/auth"
	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/editor/form"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/photos"
	"github.com/debemdeboas/inkwell/internal/repository"
	"github.com/debemdeboas/inkwell/internal/routes"
	"github.com/debemdeboas/inkwell/internal/storage"
	"github.com/debemdeboas/inkwell/internal/util"
	"github.com/gabriel-vasile/mimetype"
	"github.com/rs/zerolog"
)

var serverLogger zerolog.Logger

func SetLogger(l zerolog.Logger) {
	serverLogger = l
}

// maxJSONBody bounds autosave payloads.
const maxJSONBody = 8 << 20

type PhotoSearcher interface {
	SearchPhotos(ctx context.Context, req model.PhotoSearchRequest) (model.PhotoSearchResponse, error)
}

type Handler struct {
	posts     repository.PostRepository
	media     storage.MediaStore
	photos    PhotoSearcher
	maxUpload int64
}

// NewHandler returns the post endpoints. photos may be nil, in which case searches report that the
// feature is not configured.
func NewHandler(posts repository.PostRepository, media storage.MediaStore, photos PhotoSearcher, maxUpload int64) *Handler {
	return &Handler{
		posts:     posts,
		media:     media,
		photos:    photos,
		maxUpload: maxUpload,
	}
}

func (h *Handler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST "+routes.UploadMedia, h.UploadMedia)
	mux.HandleFunc("POST "+routes.AutoSave, h.AutoSave)
	mux.HandleFunc("POST "+routes.SearchPhotos, h.SearchPhotos)
	mux.HandleFunc("POST "+routes.Create, h.Create)
	mux.HandleFunc("GET "+routes.Drafts, h.Drafts)
	mux.HandleFunc("GET "+routes.Tags, h.Tags)
	mux.HandleFunc("GET "+routes.Post, h.Post)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set(config.HCType, config.CTypeJSON)
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		serverLogger.Error().Err(err).Msg("Failed to encode response")
	}
}

type result struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

func fail(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, result{Success: false, Message: msg})
}

var invalidTypeMessages = map[model.MediaKind]string{
	model.MediaImage:    "Invalid file type. Only JPG, PNG, GIF and WEBP are allowed.",
	model.MediaVideo:    "Invalid file type. Only MP4, WebM, and OGG video formats are allowed.",
	model.MediaDocument: "Invalid file type. Only PDF and Word documents are allowed.",
}

// contentType returns the declared type of a part without parameters. Parts declared as generic
// binary are sniffed.
func contentType(declared string, data []byte) string {
	ct := strings.ToLower(strings.TrimSpace(declared))
	if i := strings.IndexByte(ct, ';'); i >= 0 {
		ct = strings.TrimSpace(ct[:i])
	}
	if ct == "" || ct == "application/octet-stream" {
		ct = mimetype.Detect(data).String()
		if i := strings.IndexByte(ct, ';'); i >= 0 {
			ct = ct[:i]
		}
	}
	return ct
}

func (h *Handler) UploadMedia(w http.ResponseWriter, r *http.Request) {
	l := zerolog.Ctx(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			fail(w, http.StatusRequestEntityTooLarge, "File is too large")
			return
		}
		fail(w, http.StatusOK, "No file was uploaded")
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("mediaFile")
	if err != nil {
		fail(w, http.StatusOK, "No file was uploaded")
		return
	}
	defer file.Close()

	kind, err := model.ParseMediaKind(strings.ToLower(strings.TrimSpace(r.FormValue("mediaType"))))
	if err != nil {
		fail(w, http.StatusOK, "Invalid media type specified.")
		return
	}

	data, err := io.ReadAll(file)
	if err != nil || len(data) == 0 {
		fail(w, http.StatusOK, "No file was uploaded")
		return
	}

	ct := contentType(header.Header.Get(config.HCType), data)
	if !kind.Allows(ct) {
		l.Info().Str("media_type", string(kind)).Str("content_type", ct).Msg("Rejected upload")
		fail(w, http.StatusOK, invalidTypeMessages[kind])
		return
	}

	url, err := h.media.Save(r.Context(), kind, header.Filename, ct, data)
	if err != nil {
		l.Error().Err(err).Str("file", header.Filename).Msg("Failed to store upload")
		fail(w, http.StatusInternalServerError, fmt.Sprintf("Error uploading media: %v", err))
		return
	}

	l.Info().Str("url", url).Str("content_type", ct).Int("size", len(data)).Msg("Media uploaded")
	writeJSON(w, http.StatusOK, model.UploadResponse{
		Success:   true,
		MediaURL:  url,
		MediaType: kind,
		FileName:  header.Filename,
		Message:   fmt.Sprintf("%s uploaded successfully", kind),
	})
}

func postFromFields(id model.PostID, title, description, content, url string, tags []model.TagID) *model.Post {
	if strings.TrimSpace(title) == "" {
		title = "Untitled"
	}
	if strings.TrimSpace(url) == "" {
		url = util.Slugify(title)
	}
	return &model.Post{
		ID:          id,
		Title:       title,
		Description: description,
		Content:     content,
		URL:         url,
		Tags:        tags,
	}
}

func (h *Handler) AutoSave(w http.ResponseWriter, r *http.Request) {
	l := zerolog.Ctx(r.Context())

	var req model.AutoSaveRequest
	if err := json.NewDecoder(io.LimitReader(r.Body, maxJSONBody)).Decode(&req); err != nil {
		fail(w, http.StatusBadRequest, "Invalid request")
		return
	}
	if strings.TrimSpace(req.Title) == "" && strings.TrimSpace(req.Content) == "" {
		writeJSON(w, http.StatusOK, result{Success: false, Message: "Nothing to save"})
		return
	}

	post := postFromFields(req.PostID, req.Title, req.Description, req.Content, req.URL, req.TagIDs)
	id, created, err := h.posts.AutoSaveDraft(r.Context(), post)
	if errors.Is(err, repository.ErrPostNotFound) {
		fail(w, http.StatusOK, "Draft not found")
		return
	} else if err != nil {
		l.Error().Err(err).Int64("post_id", int64(req.PostID)).Msg("Failed to autosave draft")
		fail(w, http.StatusOK, "Failed to save draft")
		return
	}

	resp := model.AutoSaveResponse{Success: true, Message: "Draft saved"}
	if created {
		resp.PostID = id
	}
	l.Debug().Int64("post_id", int64(id)).Bool("created", created).Msg("Draft autosaved")
	writeJSON(w, http.StatusOK, resp)
}

func (h *Handler) SearchPhotos(w http.ResponseWriter, r *http.Request) {
	if h.photos == nil {
		fail(w, http.StatusOK, "Photo search is not configured")
		return
	}

	query := r.PostFormValue("query")
	page, err := strconv.Atoi(r.PostFormValue("page"))
	if err != nil || page < 1 {
		page = 1
	}

	resp, err := h.photos.SearchPhotos(r.Context(), model.PhotoSearchRequest{Query: query, Page: page})
	switch {
	case errors.Is(err, photos.ErrEmptyQuery):
		fail(w, http.StatusOK, "Search query cannot be empty")
		return
	case errors.Is(err, photos.ErrNotConfigured):
		fail(w, http.StatusOK, "Photo search is not configured")
		return
	case err != nil:
		zerolog.Ctx(r.Context()).Warn().Err(err).Str("query", query).Msg("Photo search failed")
		fail(w, http.StatusOK, fmt.Sprintf("Photo search error: %v", err))
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// publishProblems repeats the editor's publish validation for form posts that bypass it.
func publishProblems(title, content string, tags []model.TagID) []string {
	var problems []string
	if len(tags) == 0 {
		problems = append(problems, form.NoTagsMessage)
	}
	if strings.TrimSpace(title) == "" {
		problems = append(problems, form.NoTitleMessage)
	}
	if strings.TrimSpace(content) == "" {
		problems = append(problems, form.NoContentMessage)
	}
	return problems
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	l := zerolog.Ctx(r.Context())

	if err := r.ParseForm(); err != nil {
		http.Error(w, "Invalid form", http.StatusBadRequest)
		return
	}

	action, ok := model.ParseAction(r.PostFormValue("action"))
	if !ok {
		http.Error(w, "Unknown action", http.StatusBadRequest)
		return
	}

	var id model.PostID
	if raw := strings.TrimSpace(r.PostFormValue("PostId")); raw != "" {
		n, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, "Invalid post id", http.StatusBadRequest)
			return
		}
		id = model.PostID(n)
	}

	var tags []model.TagID
	for _, t := range r.PostForm["tagIds"] {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, model.TagID(t))
		}
	}

	title, content := r.PostFormValue("Title"), r.PostFormValue("Content")
	post := postFromFields(id, title, r.PostFormValue("Description"), content, r.PostFormValue("Url"), tags)

	var err error
	switch action {
	case model.ActionSaveDraft:
		id, err = h.posts.SaveDraft(r.Context(), post)
	case model.ActionPublish:
		if problems := publishProblems(title, content, tags); len(problems) > 0 {
			http.Error(w, strings.Join(problems, "\n"), http.StatusBadRequest)
			return
		}
		id, err = h.posts.Publish(r.Context(), post)
	}
	if errors.Is(err, repository.ErrPostNotFound) {
		http.NotFound(w, r)
		return
	} else if err != nil {
		l.Error().Err(err).Str("action", string(action)).Msg("Failed to save post")
		http.Error(w, config.HTTPErrInternal, http.StatusInternalServerError)
		return
	}

	l.Info().
		Int64("post_id", int64(id)).
		Str("action", string(action)).
		Bool("token_verified", auth.VerifiedFromContext(r.Context())).
		Msg("Post submitted")
	target := routes.Drafts
	if action == model.ActionPublish {
		target = routes.PostPath(int64(id))
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

type postView struct {
	ID          model.PostID  `json:"id"`
	Title       string        `json:"title"`
	Description string        `json:"description"`
	Content     string        `json:"content,omitempty"`
	URL         string        `json:"url"`
	Tags        []model.TagID `json:"tagIds"`
	IsDraft     bool          `json:"isDraft"`
	IsPublished bool          `json:"isPublished"`
	Modified    string        `json:"lastModified"`
}

func viewOf(p *model.Post, withContent bool) postView {
	v := postView{
		ID:          p.ID,
		Title:       p.Title,
		Description: p.Description,
		URL:         p.URL,
		Tags:        p.Tags,
		IsDraft:     p.IsDraft,
		IsPublished: p.IsPublished,
		Modified:    p.ModifiedDate.UTC().Format("2006-01-02T15:04:05Z07:00"),
	}
	if v.Tags == nil {
		v.Tags = []model.TagID{}
	}
	if withContent {
		v.Content = p.Content
	}
	return v
}

func (h *Handler) Drafts(w http.ResponseWriter, r *http.Request) {
	drafts, err := h.posts.ListDrafts(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to list drafts")
		http.Error(w, config.HTTPErrInternal, http.StatusInternalServerError)
		return
	}
	views := make([]postView, 0, len(drafts))
	for i := range drafts {
		views = append(views, viewOf(&drafts[i], false))
	}
	writeJSON(w, http.StatusOK, views)
}

func (h *Handler) Post(w http.ResponseWriter, r *http.Request) {
	n, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.NotFound(w, r)
		return
	}
	post, err := h.posts.GetPost(r.Context(), model.PostID(n))
	if errors.Is(err, repository.ErrPostNotFound) {
		http.NotFound(w, r)
		return
	} else if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Int64("post_id", n).Msg("Failed to read post")
		http.Error(w, config.HTTPErrInternal, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, viewOf(post, true))
}

func (h *Handler) Tags(w http.ResponseWriter, r *http.Request) {
	tags, err := h.posts.Tags(r.Context())
	if err != nil {
		zerolog.Ctx(r.Context()).Error().Err(err).Msg("Failed to list tags")
		http.Error(w, config.HTTPErrInternal, http.StatusInternalServerError)
		return
	}
	if tags == nil {
		tags = []model.Tag{}
	}
	writeJSON(w, http.StatusOK, tags)
}
