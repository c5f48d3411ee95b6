package draft

import (
	"context"
	"net"
	"os"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"

	"github.com/debemdeboas/inkwell/internal/config"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/util/compression"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

func sqliteStore(t *testing.T, codec compression.Compressor) *SQLiteStore {
	t.Helper()
	db.SetLogger(zerolog.New(os.Stdout).Level(zerolog.ErrorLevel))
	d := db.NewSQLite(db.MemoryPath)
	if err := d.InitDb(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	t.Cleanup(func() { d.Close() })
	return NewSQLiteStore(d, codec)
}

func redisStore(t *testing.T, mr *miniredis.Miniredis, namespace string, ttl time.Duration) *RedisStore {
	t.Helper()
	client := redis.NewClient(&redis.Options{Addr: mr.Addr(), DisableIdentity: true})
	t.Cleanup(func() { client.Close() })
	return NewRedisStore(client, namespace, ttl)
}

func TestLocalStores(t *testing.T) {
	stores := map[string]func(t *testing.T) LocalStore{
		"memory":              func(t *testing.T) LocalStore { return NewMemoryStore() },
		"sqlite with zstd":    func(t *testing.T) LocalStore { return sqliteStore(t, compression.ZstdCompressor{}) },
		"sqlite uncompressed": func(t *testing.T) LocalStore { return sqliteStore(t, nil) },
		"redis": func(t *testing.T) LocalStore {
			return redisStore(t, miniredis.RunT(t), "kiosk", 0)
		},
	}

	snap := model.DraftSnapshot{
		Title:       "Title",
		Description: "Sub",
		Content:     "<p>body</p>",
		TagIDs:      []model.TagID{"1", "3"},
		Timestamp:   epoch,
		PostID:      42,
	}

	for name, open := range stores {
		t.Run(name, func(t *testing.T) {
			s := open(t)
			ctx := context.Background()

			if _, ok, err := s.Get(ctx, Key(42)); ok || err != nil {
				t.Fatalf("Expected a missing draft, got %v %v", ok, err)
			}
			if err := s.Put(ctx, Key(42), snap); err != nil {
				t.Fatal(err)
			}
			got, ok, err := s.Get(ctx, Key(42))
			if err != nil || !ok {
				t.Fatalf("Expected the draft back, got %v %v", ok, err)
			}
			if !got.Timestamp.Equal(snap.Timestamp) {
				t.Errorf("Expected timestamp %v, got %v", snap.Timestamp, got.Timestamp)
			}
			got.Timestamp = snap.Timestamp
			if !reflect.DeepEqual(got, snap) {
				t.Errorf("Expected %+v, got %+v", snap, got)
			}

			updated := snap
			updated.Title = "Updated"
			if err := s.Put(ctx, Key(42), updated); err != nil {
				t.Fatal(err)
			}
			if got, _, _ := s.Get(ctx, Key(42)); got.Title != "Updated" {
				t.Errorf("Expected the draft to be overwritten, got %q", got.Title)
			}

			_ = s.Put(ctx, Key(0), snap)
			keys, err := s.Keys(ctx)
			if err != nil {
				t.Fatal(err)
			}
			if !reflect.DeepEqual(keys, []string{Key(42), Key(0)}) {
				t.Errorf("Unexpected keys %v", keys)
			}

			if err := s.Delete(ctx, Key(42), Key(0), "missing"); err != nil {
				t.Fatal(err)
			}
			if keys, _ := s.Keys(ctx); len(keys) != 0 {
				t.Errorf("Expected no keys, got %v", keys)
			}
		})
	}
}

func TestSQLiteStoreCompresses(t *testing.T) {
	s := sqliteStore(t, compression.ZstdCompressor{})
	ctx := context.Background()
	snap := model.DraftSnapshot{Title: "T", Content: "<p>" + string(make([]byte, 4096)) + "</p>", Timestamp: epoch}
	if err := s.Put(ctx, Key(1), snap); err != nil {
		t.Fatal(err)
	}
	var size int
	if err := s.db.QueryRow(`SELECT length(payload) FROM local_drafts WHERE key = ?`, Key(1)).Scan(&size); err != nil {
		t.Fatal(err)
	}
	if size >= 4096 {
		t.Errorf("Expected a compressed payload, got %d bytes", size)
	}
}

func TestRedisStore(t *testing.T) {
	t.Run("keys are namespaced", func(t *testing.T) {
		r := NewRedisStore(nil, "kiosk", 0)
		if got := r.key(Key(3)); got != "kiosk:inkwell_draft_3" {
			t.Errorf("Unexpected key %q", got)
		}
		if got := NewRedisStore(nil, "", 0).key(Key(0)); got != "inkwell_draft_new" {
			t.Errorf("Unexpected key %q", got)
		}
		if err := r.Delete(context.Background()); err != nil {
			t.Errorf("Expected deleting nothing to succeed, got %v", err)
		}
	})

	t.Run("namespaces share one server without mixing", func(t *testing.T) {
		mr := miniredis.RunT(t)
		ctx := context.Background()
		a := redisStore(t, mr, "kiosk-a", time.Hour)
		b := redisStore(t, mr, "kiosk-b", 0)
		if err := mr.Set("inkwell_draft_9", "not ours"); err != nil {
			t.Fatal(err)
		}

		if err := a.Put(ctx, Key(1), model.DraftSnapshot{Title: "A", Timestamp: epoch}); err != nil {
			t.Fatal(err)
		}
		if err := b.Put(ctx, Key(2), model.DraftSnapshot{Title: "B", Timestamp: epoch}); err != nil {
			t.Fatal(err)
		}
		if keys, _ := a.Keys(ctx); !reflect.DeepEqual(keys, []string{Key(1)}) {
			t.Errorf("Expected only kiosk-a keys, got %v", keys)
		}
		if _, ok, _ := b.Get(ctx, Key(1)); ok {
			t.Error("Expected kiosk-b not to see kiosk-a drafts")
		}
		if ttl := mr.TTL("kiosk-a:" + Key(1)); ttl != time.Hour {
			t.Errorf("Expected a one hour ttl, got %v", ttl)
		}
		if ttl := mr.TTL("kiosk-b:" + Key(2)); ttl != 0 {
			t.Errorf("Expected no ttl, got %v", ttl)
		}

		mr.FastForward(2 * time.Hour)
		if _, ok, err := a.Get(ctx, Key(1)); ok || err != nil {
			t.Errorf("Expected the draft to expire, got %v %v", ok, err)
		}
	})

	t.Run("corrupt payloads are reported", func(t *testing.T) {
		mr := miniredis.RunT(t)
		r := redisStore(t, mr, "kiosk", 0)
		if err := mr.Set("kiosk:"+Key(4), "{not json"); err != nil {
			t.Fatal(err)
		}
		if _, ok, err := r.Get(context.Background(), Key(4)); err == nil || ok {
			t.Errorf("Expected a decode error, got %v %v", ok, err)
		}
	})

	t.Run("an unreachable server surfaces errors", func(t *testing.T) {
		l, err := net.Listen("tcp", "127.0.0.1:0")
		if err != nil {
			t.Fatal(err)
		}
		addr := l.Addr().String()
		l.Close()

		client := redis.NewClient(&redis.Options{Addr: addr, MaxRetries: -1, DialTimeout: 200 * time.Millisecond})
		defer client.Close()
		r := NewRedisStore(client, "test", time.Hour)
		ctx := context.Background()

		if _, ok, err := r.Get(ctx, Key(1)); err == nil || ok {
			t.Errorf("Expected a read error, got %v %v", ok, err)
		}
		if err := r.Put(ctx, Key(1), model.DraftSnapshot{Title: "T"}); err == nil {
			t.Error("Expected a write error")
		}
	})
}

func TestOpenStore(t *testing.T) {
	ctx := context.Background()
	d := db.NewSQLite(db.MemoryPath)
	if err := d.InitDb(); err != nil {
		t.Fatalf("Failed to initialize database: %v", err)
	}
	defer d.Close()

	tests := []struct {
		name    string
		cfg     config.DraftsConfig
		d       db.Db
		want    string
		wantErr bool
	}{
		{"Memory backend", config.DraftsConfig{Backend: "memory"}, nil, "*draft.MemoryStore", false},
		{"SQLite backend", config.DraftsConfig{Backend: "sqlite"}, d, "*draft.SQLiteStore", false},
		{"SQLite backend without a database", config.DraftsConfig{Backend: "sqlite"}, nil, "", true},
		{"Redis backend", config.DraftsConfig{Backend: "redis", Redis: config.RedisConfig{Addr: miniredis.RunT(t).Addr(), Namespace: "test"}}, nil, "*draft.RedisStore", false},
		{"Unreachable redis", config.DraftsConfig{Backend: "redis", Redis: config.RedisConfig{Addr: "127.0.0.1:1"}}, nil, "", true},
		{"Unknown backend", config.DraftsConfig{Backend: "cookies"}, nil, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, closeFn, err := OpenStore(ctx, tt.cfg, tt.d, compression.NoopCompressor{})
			if (err != nil) != tt.wantErr {
				t.Fatalf("OpenStore() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil {
				return
			}
			defer closeFn()
			if got := reflect.TypeOf(s).String(); got != tt.want {
				t.Errorf("Expected %s, got %s", tt.want, got)
			}
		})
	}
}
