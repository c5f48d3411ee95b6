package draft

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/util/compression"
	"github.com/redis/go-redis/v9"
)

// KeyPrefix starts every local draft key.
const KeyPrefix = "inkwell_draft_"

// Key returns the local storage key of the draft of id. Posts without an id share the "new" key.
func Key(id model.PostID) string {
	if id.IsNew() {
		return KeyPrefix + "new"
	}
	return fmt.Sprintf("%s%d", KeyPrefix, id)
}

// LocalStore persists draft snapshots on the writer's side.
type LocalStore interface {
	Get(ctx context.Context, key string) (model.DraftSnapshot, bool, error)
	Put(ctx context.Context, key string, snap model.DraftSnapshot) error
	Delete(ctx context.Context, keys ...string) error
	Keys(ctx context.Context) ([]string, error)
}

func encode(snap model.DraftSnapshot) ([]byte, error) {
	return json.Marshal(snap)
}

func decode(key string, data []byte) (model.DraftSnapshot, error) {
	var snap model.DraftSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return model.DraftSnapshot{}, fmt.Errorf("corrupt draft %s: %w", key, err)
	}
	return snap, nil
}

// MemoryStore keeps encoded snapshots in process, the way a browser's local storage would.
type MemoryStore struct {
	drafts sync.Map
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) Get(_ context.Context, key string) (model.DraftSnapshot, bool, error) {
	v, ok := m.drafts.Load(key)
	if !ok {
		return model.DraftSnapshot{}, false, nil
	}
	snap, err := decode(key, v.([]byte))
	if err != nil {
		return model.DraftSnapshot{}, false, err
	}
	return snap, true, nil
}

func (m *MemoryStore) Put(_ context.Context, key string, snap model.DraftSnapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	m.drafts.Store(key, data)
	return nil
}

func (m *MemoryStore) Delete(_ context.Context, keys ...string) error {
	for _, k := range keys {
		m.drafts.Delete(k)
	}
	return nil
}

func (m *MemoryStore) Keys(_ context.Context) ([]string, error) {
	var keys []string
	m.drafts.Range(func(k, _ any) bool {
		keys = append(keys, k.(string))
		return true
	})
	sort.Strings(keys)
	return keys, nil
}

// SQLiteStore keeps compressed snapshots in the local_drafts table.
type SQLiteStore struct {
	db    db.Db
	codec compression.Compressor
}

// NewSQLiteStore expects an initialised database. A nil codec stores payloads uncompressed.
func NewSQLiteStore(d db.Db, codec compression.Compressor) *SQLiteStore {
	if codec == nil {
		codec = compression.NoopCompressor{}
	}
	return &SQLiteStore{db: d, codec: codec}
}

func (s *SQLiteStore) Get(ctx context.Context, key string) (model.DraftSnapshot, bool, error) {
	var payload []byte
	err := s.db.Get().QueryRowContext(ctx, `SELECT payload FROM local_drafts WHERE key = ?`, key).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return model.DraftSnapshot{}, false, nil
	}
	if err != nil {
		return model.DraftSnapshot{}, false, fmt.Errorf("failed to read draft %s: %w", key, err)
	}
	data, err := s.codec.Decompress(payload)
	if err != nil {
		return model.DraftSnapshot{}, false, fmt.Errorf("failed to decompress draft %s: %w", key, err)
	}
	snap, err := decode(key, data)
	if err != nil {
		return model.DraftSnapshot{}, false, err
	}
	return snap, true, nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, snap model.DraftSnapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	payload, err := s.codec.Compress(data)
	if err != nil {
		return fmt.Errorf("failed to compress draft %s: %w", key, err)
	}
	_, err = s.db.Get().ExecContext(ctx, `
        INSERT INTO local_drafts (key, payload, updated_at) VALUES (?, ?, ?)
        ON CONFLICT(key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`,
		key, payload, snap.Timestamp.UTC())
	if err != nil {
		return fmt.Errorf("failed to write draft %s: %w", key, err)
	}
	return nil
}

func (s *SQLiteStore) Delete(ctx context.Context, keys ...string) error {
	for _, k := range keys {
		if _, err := s.db.Get().ExecContext(ctx, `DELETE FROM local_drafts WHERE key = ?`, k); err != nil {
			return fmt.Errorf("failed to delete draft %s: %w", k, err)
		}
	}
	return nil
}

func (s *SQLiteStore) Keys(ctx context.Context) ([]string, error) {
	rows, err := s.db.Get().QueryContext(ctx, `SELECT key FROM local_drafts ORDER BY key`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// RedisStore shares drafts between the machines of a kiosk or a newsroom.
type RedisStore struct {
	client    redis.Cmdable
	namespace string
	ttl       time.Duration
}

// NewRedisStore scopes every key under namespace. A zero ttl keeps drafts until deleted.
func NewRedisStore(client redis.Cmdable, namespace string, ttl time.Duration) *RedisStore {
	if namespace != "" && !strings.HasSuffix(namespace, ":") {
		namespace += ":"
	}
	return &RedisStore{client: client, namespace: namespace, ttl: ttl}
}

func (r *RedisStore) key(k string) string {
	return r.namespace + k
}

func (r *RedisStore) Get(ctx context.Context, key string) (model.DraftSnapshot, bool, error) {
	data, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.DraftSnapshot{}, false, nil
	}
	if err != nil {
		return model.DraftSnapshot{}, false, fmt.Errorf("failed to read draft %s: %w", key, err)
	}
	snap, err := decode(key, data)
	if err != nil {
		return model.DraftSnapshot{}, false, err
	}
	return snap, true, nil
}

func (r *RedisStore) Put(ctx context.Context, key string, snap model.DraftSnapshot) error {
	data, err := encode(snap)
	if err != nil {
		return err
	}
	if err := r.client.Set(ctx, r.key(key), data, r.ttl).Err(); err != nil {
		return fmt.Errorf("failed to write draft %s: %w", key, err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = r.key(k)
	}
	return r.client.Del(ctx, full...).Err()
}

func (r *RedisStore) Keys(ctx context.Context) ([]string, error) {
	var keys []string
	seen := make(map[string]bool)
	iter := r.client.Scan(ctx, 0, r.key(KeyPrefix)+"*", 100).Iterator()
	for iter.Next(ctx) {
		// SCAN may return a key more than once.
		k := strings.TrimPrefix(iter.Val(), r.namespace)
		if !seen[k] {
			seen[k] = true
			keys = append(keys, k)
		}
	}
	if err := iter.Err(); err != nil {
		return nil, err
	}
	sort.Strings(keys)
	return keys, nil
}
