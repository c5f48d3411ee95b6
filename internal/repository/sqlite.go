package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/debemdeboas/inkwell/internal/cache"
	"github.com/debemdeboas/inkwell/internal/db"
	"github.com/debemdeboas/inkwell/internal/model"
	"github.com/debemdeboas/inkwell/internal/util"
	"github.com/debemdeboas/inkwell/internal/util/compression"
)

type writeMode int

const (
	// modeAutoSave keeps the publication flags of existing posts.
	modeAutoSave writeMode = iota
	modeDraft
	modePublish
)

const postColumns = `id, title, description, url, content, content_hash, is_draft, is_published, created_at, modified_at`

type SQLitePostRepository struct { // implements PostRepository
	db         db.Db
	compressor compression.Compressor
	posts      *cache.Cache[model.PostID, *model.Post]

	now func() time.Time
}

func NewSQLitePostRepository(d db.Db, c compression.Compressor) *SQLitePostRepository {
	if c == nil {
		c = compression.ZstdCompressor{}
	}
	return &SQLitePostRepository{
		db:         d,
		compressor: c,
		posts:      cache.NewCache[model.PostID, *model.Post](),
		now:        time.Now,
	}
}

func (r *SQLitePostRepository) AutoSaveDraft(ctx context.Context, post *model.Post) (model.PostID, bool, error) {
	return r.write(ctx, post, modeAutoSave)
}

func (r *SQLitePostRepository) SaveDraft(ctx context.Context, post *model.Post) (model.PostID, error) {
	id, _, err := r.write(ctx, post, modeDraft)
	return id, err
}

func (r *SQLitePostRepository) Publish(ctx context.Context, post *model.Post) (model.PostID, error) {
	id, _, err := r.write(ctx, post, modePublish)
	return id, err
}

func (r *SQLitePostRepository) write(ctx context.Context, post *model.Post, mode writeMode) (model.PostID, bool, error) {
	compressed, err := r.compressor.Compress([]byte(post.Content))
	if err != nil {
		return 0, false, fmt.Errorf("error compressing content: %w", err)
	}
	hash := util.ContentHashString(post.Content)
	now := r.now().UTC()
	isDraft, isPublished := mode != modePublish, mode == modePublish

	id := post.ID
	created := id.IsNew()
	err = db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		if created {
			res, err := tx.ExecContext(ctx,
				`INSERT INTO posts (title, description, url, content, content_hash, is_draft, is_published, created_at, modified_at)
				 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				post.Title, post.Description, post.URL, compressed, hash, isDraft, isPublished, now, now,
			)
			if err != nil {
				return fmt.Errorf("error inserting post: %w", err)
			}
			n, err := res.LastInsertId()
			if err != nil {
				return fmt.Errorf("error reading new post id: %w", err)
			}
			id = model.PostID(n)
			post.CreatedDate = now
		} else {
			var oldHash string
			err := tx.QueryRowContext(ctx, `SELECT content_hash FROM posts WHERE id = ?`, id).Scan(&oldHash)
			if errors.Is(err, sql.ErrNoRows) {
				return fmt.Errorf("%w: %d", ErrPostNotFound, id)
			} else if err != nil {
				return fmt.Errorf("error reading post: %w", err)
			}

			query := `UPDATE posts SET title = ?, description = ?, url = ?, modified_at = ?`
			args := []interface{}{post.Title, post.Description, post.URL, now}
			if oldHash != hash {
				query += `, content = ?, content_hash = ?`
				args = append(args, compressed, hash)
			}
			if mode != modeAutoSave {
				query += `, is_draft = ?, is_published = ?`
				args = append(args, isDraft, isPublished)
			}
			query += ` WHERE id = ?`
			if _, err := tx.ExecContext(ctx, query, append(args, id)...); err != nil {
				return fmt.Errorf("error updating post: %w", err)
			}
		}

		if _, err := tx.ExecContext(ctx, `DELETE FROM post_tags WHERE post_id = ?`, id); err != nil {
			return fmt.Errorf("error clearing post tags: %w", err)
		}
		for _, tag := range post.Tags {
			// Unknown tags are skipped rather than failing the save.
			if _, err := tx.ExecContext(ctx,
				`INSERT OR IGNORE INTO post_tags (post_id, tag_id) SELECT ?, id FROM tags WHERE id = ?`, id, tag,
			); err != nil {
				return fmt.Errorf("error tagging post: %w", err)
			}
		}
		return nil
	})
	if err != nil {
		return 0, false, err
	}

	post.ID = id
	post.ContentHash = hash
	post.ModifiedDate = now
	r.posts.Delete(id)

	repoLogger.Debug().
		Int64("post_id", int64(id)).
		Bool("created", created).
		Bool("published", isPublished).
		Msg("Post written")
	return id, created, nil
}

func (r *SQLitePostRepository) scanPost(row interface{ Scan(...any) error }) (*model.Post, error) {
	var (
		post       model.Post
		compressed []byte
	)
	err := row.Scan(&post.ID, &post.Title, &post.Description, &post.URL, &compressed, &post.ContentHash,
		&post.IsDraft, &post.IsPublished, &post.CreatedDate, &post.ModifiedDate)
	if err != nil {
		return nil, err
	}
	content, err := r.compressor.Decompress(compressed)
	if err != nil {
		return nil, fmt.Errorf("error decompressing content: %w", err)
	}
	post.Content = string(content)
	return &post, nil
}

func (r *SQLitePostRepository) postTags(ctx context.Context, ids ...model.PostID) (map[model.PostID][]model.TagID, error) {
	tags := make(map[model.PostID][]model.TagID, len(ids))
	if len(ids) == 0 {
		return tags, nil
	}
	rows, err := r.db.Get().QueryContext(ctx, `SELECT post_id, tag_id FROM post_tags ORDER BY tag_id`)
	if err != nil {
		return nil, fmt.Errorf("error querying post tags: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			id  model.PostID
			tag model.TagID
		)
		if err := rows.Scan(&id, &tag); err != nil {
			return nil, fmt.Errorf("error scanning post tag: %w", err)
		}
		if slices.Contains(ids, id) {
			tags[id] = append(tags[id], tag)
		}
	}
	return tags, rows.Err()
}

func clonePost(p *model.Post) *model.Post {
	c := *p
	c.Tags = slices.Clone(p.Tags)
	return &c
}

func (r *SQLitePostRepository) GetPost(ctx context.Context, id model.PostID) (*model.Post, error) {
	if post, ok := r.posts.Get(id); ok {
		return clonePost(post), nil
	}

	row := r.db.Get().QueryRowContext(ctx, `SELECT `+postColumns+` FROM posts WHERE id = ?`, id)
	post, err := r.scanPost(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %d", ErrPostNotFound, id)
	} else if err != nil {
		return nil, fmt.Errorf("error scanning post: %w", err)
	}

	tags, err := r.postTags(ctx, id)
	if err != nil {
		return nil, err
	}
	post.Tags = tags[id]

	r.posts.Set(id, post)
	return clonePost(post), nil
}

// ListDrafts returns unpublished drafts, most recently modified first.
func (r *SQLitePostRepository) ListDrafts(ctx context.Context) ([]model.Post, error) {
	rows, err := r.db.Get().QueryContext(ctx,
		`SELECT `+postColumns+` FROM posts WHERE is_draft = 1 ORDER BY modified_at DESC, id DESC`)
	if err != nil {
		return nil, fmt.Errorf("error querying drafts: %w", err)
	}

	posts := make([]model.Post, 0)
	ids := make([]model.PostID, 0)
	for rows.Next() {
		post, err := r.scanPost(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("error scanning draft: %w", err)
		}
		posts = append(posts, *post)
		ids = append(ids, post.ID)
	}
	err = rows.Err()
	// The tag query needs the connection back.
	rows.Close()
	if err != nil {
		return nil, err
	}

	tags, err := r.postTags(ctx, ids...)
	if err != nil {
		return nil, err
	}
	for i := range posts {
		posts[i].Tags = tags[posts[i].ID]
	}
	return posts, nil
}

func (r *SQLitePostRepository) DeletePost(ctx context.Context, id model.PostID) error {
	res, err := r.db.Get().ExecContext(ctx, `DELETE FROM posts WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("error deleting post: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %d", ErrPostNotFound, id)
	}
	r.posts.Delete(id)
	repoLogger.Info().Int64("post_id", int64(id)).Msg("Post deleted")
	return nil
}

func (r *SQLitePostRepository) Tags(ctx context.Context) ([]model.Tag, error) {
	rows, err := r.db.Get().QueryContext(ctx, `SELECT id, name FROM tags ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("error querying tags: %w", err)
	}
	defer rows.Close()

	tags := make([]model.Tag, 0)
	for rows.Next() {
		var tag model.Tag
		if err := rows.Scan(&tag.ID, &tag.Name); err != nil {
			return nil, fmt.Errorf("error scanning tag: %w", err)
		}
		tags = append(tags, tag)
	}
	return tags, rows.Err()
}

// SaveTags inserts tags or renames existing ones.
func (r *SQLitePostRepository) SaveTags(ctx context.Context, tags ...model.Tag) error {
	return db.WithTx(ctx, r.db, func(tx *sql.Tx) error {
		for _, tag := range tags {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO tags (id, name) VALUES (?, ?) ON CONFLICT(id) DO UPDATE SET name = excluded.name`,
				tag.ID, tag.Name,
			); err != nil {
				return fmt.Errorf("error saving tag %q: %w", tag.ID, err)
			}
		}
		return nil
	})
}
