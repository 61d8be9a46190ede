package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pgvector/pgvector-go"
	pgxvector "github.com/pgvector/pgvector-go/pgx"

	"github.com/jobpulse/jobpulse-go/internal/model"
)

// uniqueViolation is the SQLSTATE for a unique-constraint conflict.
// It is the sole concurrency safety net against duplicate-insert races.
const uniqueViolation = "23505"

// postingColumns is the select list shared by every posting query.
const postingColumns = `id, title, description, company, tags, experience_level,
	salary_min, salary_max, currency, work_type, location, contact_info,
	raw_text, source_channel_id, source_message_id, embedding,
	is_active, is_spam, is_featured, created_at`

// Postgres is a Store backed by PostgreSQL with the pgvector extension.
// Embeddings live in the same rows as the postings so similarity
// queries, the uniqueness check, and the channel counter all commit
// under one transaction.
type Postgres struct {
	pool *pgxpool.Pool
}

// NewPostgres connects to databaseURL, registers the pgvector codecs on
// every pooled connection, and bootstraps the schema for the given
// embedding dimensionality.
func NewPostgres(ctx context.Context, databaseURL string, dimensions int) (*Postgres, error) {
	cfg, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("storage: parse database url: %w", err)
	}
	cfg.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		return pgxvector.RegisterTypes(ctx, conn)
	}

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("storage: connect: %w", err)
	}

	s := &Postgres{pool: pool}
	if err := s.ensureSchema(ctx, dimensions); err != nil {
		pool.Close()
		return nil, err
	}
	return s, nil
}

// ensureSchema creates the extension, tables, and indexes if missing.
// The DDL is idempotent; migration tooling beyond this is out of scope.
func (s *Postgres) ensureSchema(ctx context.Context, dimensions int) error {
	if dimensions <= 0 {
		dimensions = 1536
	}
	ddl := fmt.Sprintf(`
CREATE EXTENSION IF NOT EXISTS vector;

CREATE TABLE IF NOT EXISTS channels (
    id             UUID PRIMARY KEY,
    external_id    BIGINT NOT NULL UNIQUE,
    title          TEXT NOT NULL,
    handle         TEXT NOT NULL DEFAULT '',
    is_active      BOOLEAN NOT NULL DEFAULT TRUE,
    job_count      INTEGER NOT NULL DEFAULT 0,
    last_parsed_at TIMESTAMPTZ,
    created_at     TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS job_postings (
    id                UUID PRIMARY KEY,
    title             TEXT NOT NULL,
    description       TEXT NOT NULL,
    company           TEXT NOT NULL DEFAULT '',
    tags              TEXT[] NOT NULL DEFAULT '{}',
    experience_level  TEXT NOT NULL DEFAULT '',
    salary_min        BIGINT,
    salary_max        BIGINT,
    currency          TEXT NOT NULL DEFAULT '',
    work_type         TEXT NOT NULL DEFAULT '',
    location          TEXT NOT NULL DEFAULT '',
    contact_info      TEXT NOT NULL DEFAULT '',
    raw_text          TEXT NOT NULL DEFAULT '',
    source_channel_id UUID REFERENCES channels(id),
    source_message_id INTEGER,
    embedding         vector(%d),
    is_active         BOOLEAN NOT NULL DEFAULT TRUE,
    is_spam           BOOLEAN NOT NULL DEFAULT FALSE,
    is_featured       BOOLEAN NOT NULL DEFAULT FALSE,
    created_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE UNIQUE INDEX IF NOT EXISTS idx_job_postings_source
    ON job_postings (source_channel_id, source_message_id)
    WHERE source_channel_id IS NOT NULL;

CREATE INDEX IF NOT EXISTS idx_job_postings_created
    ON job_postings (created_at DESC);

CREATE TABLE IF NOT EXISTS processed_messages (
    channel_external_id BIGINT NOT NULL,
    message_id          INTEGER NOT NULL,
    processed_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (channel_external_id, message_id)
);

CREATE TABLE IF NOT EXISTS user_profiles (
    user_id          UUID PRIMARY KEY,
    tags             TEXT[] NOT NULL DEFAULT '{}',
    experience_level TEXT NOT NULL DEFAULT '',
    salary_min       BIGINT,
    salary_max       BIGINT,
    currency         TEXT NOT NULL DEFAULT 'USD',
    work_type        TEXT NOT NULL DEFAULT '',
    city             TEXT NOT NULL DEFAULT '',
    embedding        vector(%d),
    is_complete      BOOLEAN NOT NULL DEFAULT FALSE
);

CREATE TABLE IF NOT EXISTS saved_jobs (
    user_id    UUID NOT NULL,
    job_id     UUID NOT NULL REFERENCES job_postings(id),
    created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
    PRIMARY KEY (user_id, job_id)
);
`, dimensions, dimensions)

	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("storage: ensure schema: %w", err)
	}
	return nil
}

// Close releases the connection pool.
func (s *Postgres) Close() {
	s.pool.Close()
}

// Ping verifies database connectivity. Used by readiness probes.
func (s *Postgres) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

// ChannelByExternalID returns the channel row for externalID.
func (s *Postgres) ChannelByExternalID(ctx context.Context, externalID int64) (*model.Channel, error) {
	var c model.Channel
	err := s.pool.QueryRow(ctx,
		`SELECT id, external_id, title, handle, is_active, job_count, last_parsed_at, created_at
		 FROM channels WHERE external_id = $1`, externalID,
	).Scan(&c.ID, &c.ExternalID, &c.Title, &c.Handle, &c.IsActive, &c.JobCount, &c.LastParsedAt, &c.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: channel by external id: %w", err)
	}
	return &c, nil
}

// EnsureChannel resolves or creates the channel row, refreshing title
// and handle when a non-empty observed value differs from the stored one.
func (s *Postgres) EnsureChannel(ctx context.Context, externalID int64, title, handle string) (*model.Channel, error) {
	insertTitle := title
	if insertTitle == "" {
		insertTitle = model.PlaceholderTitle(externalID)
	}

	// Single round trip: insert if unseen, otherwise refresh non-empty
	// metadata that drifted. NULLIF keeps empty observations from
	// clobbering known values.
	var c model.Channel
	err := s.pool.QueryRow(ctx,
		`INSERT INTO channels (id, external_id, title, handle)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (external_id) DO UPDATE SET
		     title  = COALESCE(NULLIF($5, ''), channels.title),
		     handle = COALESCE(NULLIF($4, ''), channels.handle)
		 RETURNING id, external_id, title, handle, is_active, job_count, last_parsed_at, created_at`,
		uuid.New(), externalID, insertTitle, handle, title,
	).Scan(&c.ID, &c.ExternalID, &c.Title, &c.Handle, &c.IsActive, &c.JobCount, &c.LastParsedAt, &c.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("storage: ensure channel %d: %w", externalID, err)
	}
	return &c, nil
}

// WasProcessed reports whether the pair is in the processed ledger.
func (s *Postgres) WasProcessed(ctx context.Context, channelExternalID int64, messageID int) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS (
		     SELECT 1 FROM processed_messages
		     WHERE channel_external_id = $1 AND message_id = $2)`,
		channelExternalID, messageID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("storage: was processed: %w", err)
	}
	return exists, nil
}

// MarkProcessed records the pair in the ledger; replays are a no-op.
func (s *Postgres) MarkProcessed(ctx context.Context, channelExternalID int64, messageID int) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO processed_messages (channel_external_id, message_id)
		 VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		channelExternalID, messageID)
	if err != nil {
		return fmt.Errorf("storage: mark processed: %w", err)
	}
	return nil
}

// CreatePosting writes the posting, channel counter update, and
// processed-message record in one transaction. A unique violation on
// the source pair (or the ledger) rolls everything back and returns
// ErrAlreadyProcessed.
func (s *Postgres) CreatePosting(ctx context.Context, p *model.JobPosting, channelExternalID int64) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("storage: begin: %w", err)
	}
	defer tx.Rollback(ctx)

	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	now := time.Now().UTC()
	p.CreatedAt = now

	var emb *pgvector.Vector
	if p.Embedding != nil {
		v := pgvector.NewVector(p.Embedding)
		emb = &v
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO job_postings (`+postingColumns+`)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)`,
		p.ID, p.Title, p.Description, p.Company, p.Tags, p.Experience,
		p.SalaryMin, p.SalaryMax, p.Currency, p.WorkType, p.Location, p.ContactInfo,
		p.RawText, p.SourceChannelID, p.SourceMessageID, emb,
		p.IsActive, p.IsSpam, p.IsFeatured, p.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrAlreadyProcessed
		}
		return fmt.Errorf("storage: insert posting: %w", err)
	}

	if p.SourceChannelID != nil {
		_, err = tx.Exec(ctx,
			`UPDATE channels SET job_count = job_count + 1, last_parsed_at = $2 WHERE id = $1`,
			*p.SourceChannelID, now)
		if err != nil {
			return fmt.Errorf("storage: bump channel counter: %w", err)
		}

		if p.SourceMessageID != nil {
			_, err = tx.Exec(ctx,
				`INSERT INTO processed_messages (channel_external_id, message_id) VALUES ($1, $2)`,
				channelExternalID, *p.SourceMessageID)
			if err != nil {
				if isUniqueViolation(err) {
					return ErrAlreadyProcessed
				}
				return fmt.Errorf("storage: ledger insert: %w", err)
			}
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("storage: commit posting: %w", err)
	}
	return nil
}

// NearestPosting returns the closest eligible posting and its cosine
// distance, or (nil, 0, nil) when the catalog has no eligible rows.
func (s *Postgres) NearestPosting(ctx context.Context, embedding []float32) (*model.JobPosting, float64, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+postingColumns+`, embedding <=> $1 AS distance
		 FROM job_postings
		 WHERE is_active AND NOT is_spam AND embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT 1`,
		pgvector.NewVector(embedding))
	if err != nil {
		return nil, 0, fmt.Errorf("storage: nearest posting: %w", err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, 0, rows.Err()
	}
	var distance float64
	p, err := scanPosting(rows, &distance)
	if err != nil {
		return nil, 0, err
	}
	return p, distance, rows.Err()
}

// TopKByEmbedding returns up to k eligible postings by ascending
// cosine distance.
func (s *Postgres) TopKByEmbedding(ctx context.Context, embedding []float32, k int) ([]model.JobPosting, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT `+postingColumns+`, embedding <=> $1 AS distance
		 FROM job_postings
		 WHERE is_active AND NOT is_spam AND embedding IS NOT NULL
		 ORDER BY embedding <=> $1
		 LIMIT $2`,
		pgvector.NewVector(embedding), k)
	if err != nil {
		return nil, fmt.Errorf("storage: top-k postings: %w", err)
	}
	defer rows.Close()

	return collectPostings(rows, true)
}

// SearchByTags runs one substring query per term (OR semantics) and
// merges the results by identity, newest first.
func (s *Postgres) SearchByTags(ctx context.Context, terms []string, limit int) ([]model.JobPosting, error) {
	if len(terms) == 0 {
		return nil, nil
	}

	merged := make(map[uuid.UUID]model.JobPosting, limit)
	var ordered []model.JobPosting

	for _, term := range terms {
		rows, err := s.pool.Query(ctx,
			`SELECT `+postingColumns+`
			 FROM job_postings
			 WHERE is_active AND NOT is_spam AND (
			     EXISTS (SELECT 1 FROM unnest(tags) AS t WHERE t ILIKE '%'||$1||'%')
			     OR title ILIKE '%'||$1||'%'
			     OR description ILIKE '%'||$1||'%')
			 ORDER BY created_at DESC
			 LIMIT $2`,
			term, limit)
		if err != nil {
			return nil, fmt.Errorf("storage: search by tags: %w", err)
		}

		matches, err := collectPostings(rows, false)
		if err != nil {
			return nil, err
		}
		for _, p := range matches {
			if _, seen := merged[p.ID]; !seen {
				merged[p.ID] = p
				ordered = append(ordered, p)
			}
		}
	}

	sortByCreatedDesc(ordered)
	if len(ordered) > limit {
		ordered = ordered[:limit]
	}
	return ordered, nil
}

// RecentPostings returns one page of eligible postings created at or
// after since, newest first, plus the total count.
func (s *Postgres) RecentPostings(ctx context.Context, since time.Time, pageNum, pageSize int) ([]model.JobPosting, int, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM job_postings
		 WHERE is_active AND NOT is_spam AND created_at >= $1`, since,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("storage: recent count: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+postingColumns+`
		 FROM job_postings
		 WHERE is_active AND NOT is_spam AND created_at >= $1
		 ORDER BY created_at DESC
		 OFFSET $2 LIMIT $3`,
		since, offset(pageNum, pageSize), pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("storage: recent page: %w", err)
	}
	defer rows.Close()

	items, err := collectPostings(rows, false)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// SavePosting links the posting into the user's saved list; saving the
// same posting twice is a no-op.
func (s *Postgres) SavePosting(ctx context.Context, userID, postingID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO saved_jobs (user_id, job_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, postingID)
	if err != nil {
		return fmt.Errorf("storage: save posting: %w", err)
	}
	return nil
}

// UnsavePosting removes the saved-list link if present.
func (s *Postgres) UnsavePosting(ctx context.Context, userID, postingID uuid.UUID) error {
	_, err := s.pool.Exec(ctx,
		`DELETE FROM saved_jobs WHERE user_id = $1 AND job_id = $2`,
		userID, postingID)
	if err != nil {
		return fmt.Errorf("storage: unsave posting: %w", err)
	}
	return nil
}

// SavedPostings returns one page of the user's saved postings, newest
// first, plus the total count.
func (s *Postgres) SavedPostings(ctx context.Context, userID uuid.UUID, pageNum, pageSize int) ([]model.JobPosting, int, error) {
	var total int
	err := s.pool.QueryRow(ctx,
		`SELECT count(*) FROM saved_jobs sj
		 JOIN job_postings j ON j.id = sj.job_id
		 WHERE sj.user_id = $1`, userID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("storage: saved count: %w", err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT `+qualify(postingColumns, "j")+`
		 FROM saved_jobs sj
		 JOIN job_postings j ON j.id = sj.job_id
		 WHERE sj.user_id = $1
		 ORDER BY j.created_at DESC
		 OFFSET $2 LIMIT $3`,
		userID, offset(pageNum, pageSize), pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("storage: saved page: %w", err)
	}
	defer rows.Close()

	items, err := collectPostings(rows, false)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Profile returns the user's profile row.
func (s *Postgres) Profile(ctx context.Context, userID uuid.UUID) (*model.UserProfile, error) {
	var p model.UserProfile
	var emb *pgvector.Vector
	err := s.pool.QueryRow(ctx,
		`SELECT user_id, tags, experience_level, salary_min, salary_max,
		        currency, work_type, city, embedding, is_complete
		 FROM user_profiles WHERE user_id = $1`, userID,
	).Scan(&p.UserID, &p.Tags, &p.Experience, &p.SalaryMin, &p.SalaryMax,
		&p.Currency, &p.WorkType, &p.City, &emb, &p.IsComplete)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("storage: profile: %w", err)
	}
	if emb != nil {
		p.Embedding = emb.Slice()
	}
	return &p, nil
}

// UpsertProfile creates or replaces the profile row.
func (s *Postgres) UpsertProfile(ctx context.Context, p *model.UserProfile) error {
	var emb *pgvector.Vector
	if p.Embedding != nil {
		v := pgvector.NewVector(p.Embedding)
		emb = &v
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO user_profiles
		     (user_id, tags, experience_level, salary_min, salary_max,
		      currency, work_type, city, embedding, is_complete)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 ON CONFLICT (user_id) DO UPDATE SET
		     tags = $2, experience_level = $3, salary_min = $4, salary_max = $5,
		     currency = $6, work_type = $7, city = $8, embedding = $9, is_complete = $10`,
		p.UserID, p.Tags, p.Experience, p.SalaryMin, p.SalaryMax,
		p.Currency, p.WorkType, p.City, emb, p.IsComplete)
	if err != nil {
		return fmt.Errorf("storage: upsert profile: %w", err)
	}
	return nil
}

// scanPosting reads one posting row. When distance is non-nil the row is
// expected to carry a trailing distance column.
func scanPosting(rows pgx.Rows, distance *float64) (*model.JobPosting, error) {
	var p model.JobPosting
	var emb *pgvector.Vector

	dest := []any{
		&p.ID, &p.Title, &p.Description, &p.Company, &p.Tags, &p.Experience,
		&p.SalaryMin, &p.SalaryMax, &p.Currency, &p.WorkType, &p.Location, &p.ContactInfo,
		&p.RawText, &p.SourceChannelID, &p.SourceMessageID, &emb,
		&p.IsActive, &p.IsSpam, &p.IsFeatured, &p.CreatedAt,
	}
	if distance != nil {
		dest = append(dest, distance)
	}

	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("storage: scan posting: %w", err)
	}
	if emb != nil {
		p.Embedding = emb.Slice()
	}
	return &p, nil
}

// collectPostings drains rows into a slice. withDistance must match the
// query's select list.
func collectPostings(rows pgx.Rows, withDistance bool) ([]model.JobPosting, error) {
	defer rows.Close()

	var out []model.JobPosting
	for rows.Next() {
		var distance float64
		var dptr *float64
		if withDistance {
			dptr = &distance
		}
		p, err := scanPosting(rows, dptr)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("storage: rows: %w", err)
	}
	return out, nil
}

// qualify prefixes every column in a comma-separated select list with
// the given table alias.
func qualify(columns, alias string) string {
	parts := strings.Split(columns, ",")
	for i, c := range parts {
		parts[i] = alias + "." + strings.TrimSpace(c)
	}
	return strings.Join(parts, ", ")
}

// isUniqueViolation reports whether err is a unique-constraint conflict.
func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}
