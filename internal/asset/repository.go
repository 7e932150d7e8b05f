package asset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/abduss/assethost/internal/auth"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/minio/minio-go/v7"
)

const repoTimeout = 5 * time.Second

// database is the part of pgxpool.Pool the repository uses.
type database interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

type objectStore interface {
	PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error)
	GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error)
	StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error)
}

// Repository persists asset metadata in PostgreSQL and chunk bytes in the
// object store. Chunk objects are named by the SHA-256 of their bytes, so
// identical chunks are written once and carried-forward encodings cost nothing.
type Repository struct {
	pool         database
	objects      objectStore
	objectBucket string
}

// NewRepository builds an asset repository.
func NewRepository(pool database, objects objectStore, objectBucket string) *Repository {
	return &Repository{pool: pool, objects: objects, objectBucket: objectBucket}
}

type encodingRecord struct {
	Objects     []string  `json:"objects"`
	TotalLength uint64    `json:"total_length"`
	SHA256      string    `json:"sha256"`
	Modified    time.Time `json:"modified"`
}

// Get loads the metadata row of the asset at fullPath. Chunk bytes stay in
// the object store until Chunk asks for them.
func (r *Repository) Get(ctx context.Context, fullPath string) (Asset, error) {
	queryCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
SELECT full_path, collection, owner, token, name, description, headers, encodings, created_at, updated_at
FROM assets
WHERE full_path = $1;`

	var (
		a             Asset
		owner         string
		token         *string
		description   *string
		headersJSON   []byte
		encodingsJSON []byte
	)
	err := r.pool.QueryRow(queryCtx, query, fullPath).Scan(
		&a.Key.FullPath,
		&a.Key.Collection,
		&owner,
		&token,
		&a.Key.Name,
		&description,
		&headersJSON,
		&encodingsJSON,
		&a.CreatedAt,
		&a.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Asset{}, ErrAssetNotFound
		}
		return Asset{}, fmt.Errorf("get asset: %w", err)
	}
	a.Key.Owner = auth.Principal(owner)
	if token != nil {
		a.Key.Token = *token
	}
	if description != nil {
		a.Key.Description = *description
	}

	if err := json.Unmarshal(headersJSON, &a.Headers); err != nil {
		return Asset{}, fmt.Errorf("decode asset headers: %w", err)
	}

	var records map[string]encodingRecord
	if err := json.Unmarshal(encodingsJSON, &records); err != nil {
		return Asset{}, fmt.Errorf("decode asset encodings: %w", err)
	}

	a.Encodings = make(map[string]Encoding, len(records))
	for label, rec := range records {
		enc, err := rec.encoding()
		if err != nil {
			return Asset{}, fmt.Errorf("decode encoding %q: %w", label, err)
		}
		a.Encodings[label] = enc
	}
	return a, nil
}

// Chunk fetches one chunk object of an encoding returned by Get.
func (r *Repository) Chunk(ctx context.Context, enc Encoding, index int) ([]byte, error) {
	if chunk, ok := enc.loadedChunk(index); ok {
		return chunk, nil
	}
	if index < 0 || index >= len(enc.chunkRefs) {
		return nil, ErrChunkNotFound
	}

	object, err := r.objects.GetObject(ctx, r.objectBucket, enc.chunkRefs[index], minio.GetObjectOptions{})
	if err != nil {
		return nil, chunkObjectError(err)
	}
	defer object.Close()

	data, err := io.ReadAll(object)
	if err != nil {
		return nil, chunkObjectError(err)
	}
	return data, nil
}

// Put writes any missing chunk objects, then upserts the metadata row.
func (r *Repository) Put(ctx context.Context, a Asset) error {
	records := make(map[string]encodingRecord, len(a.Encodings))
	for label, enc := range a.Encodings {
		rec, err := r.storeEncoding(ctx, enc)
		if err != nil {
			return fmt.Errorf("store encoding %q: %w", label, err)
		}
		records[label] = rec
	}

	headers := a.Headers
	if headers == nil {
		headers = []HeaderField{}
	}
	headersJSON, err := json.Marshal(headers)
	if err != nil {
		return fmt.Errorf("encode asset headers: %w", err)
	}
	encodingsJSON, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("encode asset encodings: %w", err)
	}

	queryCtx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	query := `
INSERT INTO assets (full_path, collection, owner, token, name, description, headers, encodings, created_at, updated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (full_path) DO UPDATE SET
    collection  = EXCLUDED.collection,
    owner       = EXCLUDED.owner,
    token       = EXCLUDED.token,
    name        = EXCLUDED.name,
    description = EXCLUDED.description,
    headers     = EXCLUDED.headers,
    encodings   = EXCLUDED.encodings,
    updated_at  = EXCLUDED.updated_at;`

	_, err = r.pool.Exec(queryCtx, query,
		a.Key.FullPath,
		a.Key.Collection,
		string(a.Key.Owner),
		nullable(a.Key.Token),
		a.Key.Name,
		nullable(a.Key.Description),
		headersJSON,
		encodingsJSON,
		a.CreatedAt,
		a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("upsert asset: %w", err)
	}
	return nil
}

// Ping checks the metadata database.
func (r *Repository) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, repoTimeout)
	defer cancel()

	if err := r.pool.Ping(ctx); err != nil {
		return fmt.Errorf("ping postgres: %w", err)
	}
	return nil
}

func (r *Repository) storeEncoding(ctx context.Context, enc Encoding) (encodingRecord, error) {
	rec := encodingRecord{
		TotalLength: enc.TotalLength,
		SHA256:      enc.Digest(),
		Modified:    enc.Modified,
	}

	// carried forward from Get: the objects are already stored
	if enc.ContentChunks == nil && len(enc.chunkRefs) > 0 {
		rec.Objects = append([]string(nil), enc.chunkRefs...)
		return rec, nil
	}

	rec.Objects = make([]string, 0, len(enc.ContentChunks))
	for _, chunk := range enc.ContentChunks {
		name := chunkObjectName(chunk)
		rec.Objects = append(rec.Objects, name)

		_, statErr := r.objects.StatObject(ctx, r.objectBucket, name, minio.StatObjectOptions{})
		if statErr == nil {
			continue
		}
		if minio.ToErrorResponse(statErr).Code != "NoSuchKey" {
			return encodingRecord{}, fmt.Errorf("stat chunk object: %w", statErr)
		}

		_, err := r.objects.PutObject(ctx, r.objectBucket, name, bytes.NewReader(chunk), int64(len(chunk)), minio.PutObjectOptions{
			ContentType: "application/octet-stream",
		})
		if err != nil {
			return encodingRecord{}, fmt.Errorf("store chunk object: %w", err)
		}
	}
	return rec, nil
}

func (rec encodingRecord) encoding() (Encoding, error) {
	enc := Encoding{
		TotalLength: rec.TotalLength,
		Modified:    rec.Modified,
		chunkRefs:   rec.Objects,
	}

	digest, err := hex.DecodeString(rec.SHA256)
	if err != nil || len(digest) != sha256.Size {
		return Encoding{}, fmt.Errorf("invalid stored digest %q", rec.SHA256)
	}
	copy(enc.SHA256[:], digest)
	return enc, nil
}

func chunkObjectError(err error) error {
	if minio.ToErrorResponse(err).Code == "NoSuchKey" {
		return fmt.Errorf("%w: %v", ErrChunkNotFound, err)
	}
	return fmt.Errorf("fetch chunk object: %w", err)
}

func chunkObjectName(chunk []byte) string {
	sum := sha256.Sum256(chunk)
	return "chunks/" + hex.EncodeToString(sum[:])
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
