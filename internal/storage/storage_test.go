package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/rs/zerolog"
)

func init() {
	SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))
}

func TestObjectKey(t *testing.T) {
	tests := []struct {
		name        string
		kind        model.MediaKind
		file        string
		contentType string
		pattern     string
	}{
		{"Extension from the content type", model.MediaImage, "photo.jpeg", "image/jpeg", `^images/[0-9a-f-]{36}\.jpg$`},
		{"Video directory", model.MediaVideo, "clip", "video/webm", `^videos/[0-9a-f-]{36}\.webm$`},
		{"File name extension as a fallback", model.MediaDocument, "Report.DOCX", "application/x-unknown", `^documents/[0-9a-f-]{36}\.docx$`},
		{"Path components are ignored", model.MediaImage, "../../etc/passwd", "", `^images/[0-9a-f-]{36}$`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			key := objectKey(tt.kind, tt.file, tt.contentType)
			if !regexp.MustCompile(tt.pattern).MatchString(key) {
				t.Errorf("Key %q does not match %s", key, tt.pattern)
			}
		})
	}
}

func TestFSMediaStore(t *testing.T) {
	root := t.TempDir()
	store := NewFSMediaStore(root, "/uploads/")

	url, err := store.Save(context.Background(), model.MediaImage, "cat.png", "image/png", []byte("png-bytes"))
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.HasPrefix(url, "/uploads/images/") || !strings.HasSuffix(url, ".png") {
		t.Fatalf("Unexpected url %q", url)
	}

	rel := strings.TrimPrefix(url, "/uploads/")
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	if err != nil || string(data) != "png-bytes" {
		t.Fatalf("Expected stored file, got %q, %v", data, err)
	}

	t.Run("Handler serves stored files", func(t *testing.T) {
		srv := httptest.NewServer(http.StripPrefix("/uploads", store.Handler()))
		defer srv.Close()

		resp, err := http.Get(srv.URL + url)
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		defer resp.Body.Close()
		body, _ := io.ReadAll(resp.Body)
		if resp.StatusCode != http.StatusOK || string(body) != "png-bytes" {
			t.Errorf("Expected the file back, got %d %q", resp.StatusCode, body)
		}
	})

	t.Run("Cancelled context writes nothing", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		if _, err := store.Save(ctx, model.MediaImage, "x.png", "image/png", nil); err == nil {
			t.Error("Expected an error")
		}
	})
}

type fakeS3 struct {
	in  *s3.PutObjectInput
	err error
}

func (f *fakeS3) PutObject(ctx context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.in = in
	return &s3.PutObjectOutput{}, f.err
}

func TestS3MediaStore(t *testing.T) {
	t.Run("Object is put under the kind prefix", func(t *testing.T) {
		api := &fakeS3{}
		store := NewS3MediaStore(api, "media", "https://cdn.example.com/")

		url, err := store.Save(context.Background(), model.MediaVideo, "clip.mp4", "video/mp4", []byte("mp4"))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}
		key := aws.ToString(api.in.Key)
		if !strings.HasPrefix(key, "videos/") || aws.ToString(api.in.Bucket) != "media" {
			t.Errorf("Unexpected object %s/%s", aws.ToString(api.in.Bucket), key)
		}
		if aws.ToString(api.in.ContentType) != "video/mp4" || aws.ToInt64(api.in.ContentLength) != 3 {
			t.Errorf("Unexpected object metadata %+v", api.in)
		}
		if url != "https://cdn.example.com/"+key {
			t.Errorf("Unexpected url %q", url)
		}
	})

	t.Run("Upload errors are returned", func(t *testing.T) {
		store := NewS3MediaStore(&fakeS3{err: io.ErrUnexpectedEOF}, "media", "https://cdn.example.com")
		if _, err := store.Save(context.Background(), model.MediaImage, "a.png", "image/png", nil); err == nil {
			t.Error("Expected an error")
		}
	})

	t.Run("Real client talks to an S3 compatible endpoint", func(t *testing.T) {
		var (
			mu     sync.Mutex
			method string
			path   string
			body   []byte
		)
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			mu.Lock()
			defer mu.Unlock()
			method, path = r.Method, r.URL.Path
			body, _ = io.ReadAll(r.Body)
			w.WriteHeader(http.StatusOK)
		}))
		defer srv.Close()

		client, err := NewS3Client(context.Background(), S3Options{
			Endpoint:        srv.URL,
			Region:          "us-east-1",
			AccessKeyID:     "key",
			SecretAccessKey: "secret",
			PathStyle:       true,
		})
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		store := NewS3MediaStore(client, "media", srv.URL+"/media")
		url, err := store.Save(context.Background(), model.MediaImage, "a.gif", "image/gif", []byte("GIF89a"))
		if err != nil {
			t.Fatalf("Unexpected error: %v", err)
		}

		mu.Lock()
		defer mu.Unlock()
		if method != http.MethodPut || !strings.HasPrefix(path, "/media/images/") {
			t.Errorf("Unexpected request %s %s", method, path)
		}
		if !strings.Contains(string(body), "GIF89a") {
			t.Errorf("Expected the payload in the request body, got %q", body)
		}
		if url != srv.URL+path {
			t.Errorf("Expected url %q, got %q", srv.URL+path, url)
		}
	})
}
