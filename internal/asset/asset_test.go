package asset

import (
	"bytes"
	"context"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
	"reflect"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/minio/minio-go/v7"
)

func TestNewEncodingHashesChunksInOrder(t *testing.T) {
	chunks := [][]byte{[]byte("hello"), []byte(" world")}
	modified := time.Unix(100, 0)

	enc := NewEncoding(chunks, modified)

	want := sha256.Sum256([]byte("hello world"))
	if enc.SHA256 != want {
		t.Fatalf("digest mismatch: %x vs %x", enc.SHA256, want)
	}
	if enc.TotalLength != 11 {
		t.Fatalf("unexpected total length: %d", enc.TotalLength)
	}
	if enc.ChunkCount() != 2 {
		t.Fatalf("unexpected chunk count: %d", enc.ChunkCount())
	}
	if !enc.Modified.Equal(modified) {
		t.Fatalf("unexpected modified: %v", enc.Modified)
	}
}

func TestResolveEncoding(t *testing.T) {
	label, err := ResolveEncoding("")
	if err != nil || label != EncodingIdentity {
		t.Fatalf("expected identity default, got %q %v", label, err)
	}
	for _, supported := range SupportedEncodings() {
		if _, err := ResolveEncoding(supported); err != nil {
			t.Fatalf("expected %q to be supported: %v", supported, err)
		}
	}
	if _, err := ResolveEncoding("zstd"); !errors.Is(err, ErrUnsupportedEncoding) {
		t.Fatalf("expected ErrUnsupportedEncoding, got %v", err)
	}
}

func TestGetPublicHonoursToken(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	_ = store.Put(ctx, Asset{Key: Key{FullPath: "/secret.txt", Token: "T"}})
	_ = store.Put(ctx, Asset{Key: Key{FullPath: "/open.txt"}})

	cases := []struct {
		name  string
		path  string
		token string
		found bool
	}{
		{"protected with matching token", "/secret.txt", "T", true},
		{"protected without token", "/secret.txt", "", false},
		{"protected with wrong token", "/secret.txt", "t", false},
		{"protected with prefix token", "/secret.txt", "TT", false},
		{"public without token", "/open.txt", "", true},
		{"public ignores token", "/open.txt", "whatever", true},
		{"missing asset", "/missing.txt", "", false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			a, ok, err := GetPublic(ctx, store, tc.path, tc.token)
			if err != nil {
				t.Fatalf("GetPublic returned error: %v", err)
			}
			if ok != tc.found {
				t.Fatalf("expected found=%v, got %v", tc.found, ok)
			}
			if ok && a.Key.FullPath != tc.path {
				t.Fatalf("unexpected asset %q", a.Key.FullPath)
			}
		})
	}
}

func TestGetPublicPropagatesStoreErrors(t *testing.T) {
	boom := errors.New("boom")
	_, ok, err := GetPublic(context.Background(), failingStore{err: boom}, "/a", "")
	if !errors.Is(err, boom) || ok {
		t.Fatalf("expected store error, got ok=%v err=%v", ok, err)
	}
}

func TestMemoryStoreIsolatesCallers(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	original := Asset{
		Key:       Key{FullPath: "/a.txt"},
		Headers:   []HeaderField{{Name: "Content-Type", Value: "text/plain"}},
		Encodings: map[string]Encoding{EncodingIdentity: NewEncoding([][]byte{[]byte("x")}, time.Now())},
	}
	if err := store.Put(ctx, original); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	original.Headers[0].Value = "mutated"
	delete(original.Encodings, EncodingIdentity)

	got, err := store.Get(ctx, "/a.txt")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if got.Headers[0].Value != "text/plain" {
		t.Fatalf("stored headers were mutated: %v", got.Headers)
	}
	if _, ok := got.Encodings[EncodingIdentity]; !ok {
		t.Fatalf("stored encodings were mutated")
	}
	if _, err := store.Get(ctx, "/b.txt"); !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestRepositoryStoresChunksOnceByContent(t *testing.T) {
	ctx := context.Background()
	objects := newFakeObjectStore()
	repo := NewRepository(newFakeDatabase(), objects, "assets")

	enc := NewEncoding([][]byte{[]byte("abc"), []byte("def"), []byte("abc")}, time.Unix(5, 0))

	rec, err := repo.storeEncoding(ctx, enc)
	if err != nil {
		t.Fatalf("storeEncoding returned error: %v", err)
	}
	if len(rec.Objects) != 3 {
		t.Fatalf("expected 3 object refs, got %d", len(rec.Objects))
	}
	if objects.puts != 2 {
		t.Fatalf("expected identical chunks stored once, got %d puts", objects.puts)
	}

	loaded, err := rec.encoding()
	if err != nil {
		t.Fatalf("encoding returned error: %v", err)
	}
	if loaded.SHA256 != enc.SHA256 || loaded.TotalLength != enc.TotalLength || loaded.ChunkCount() != 3 {
		t.Fatalf("metadata mismatch after round trip")
	}

	var content []byte
	for i := 0; i < loaded.ChunkCount(); i++ {
		chunk, err := repo.Chunk(ctx, loaded, i)
		if err != nil {
			t.Fatalf("Chunk(%d) returned error: %v", i, err)
		}
		content = append(content, chunk...)
	}
	if string(content) != "abcdefabc" {
		t.Fatalf("unexpected content: %q", content)
	}
}

func TestRepositoryGetLoadsNoChunkBytes(t *testing.T) {
	ctx := context.Background()
	objects := newFakeObjectStore()
	repo := NewRepository(newFakeDatabase(), objects, "assets")

	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	err := repo.Put(ctx, Asset{
		Key:     Key{FullPath: "/big.bin", Collection: "blobs", Owner: "alice", Token: "T", Name: "big.bin"},
		Headers: []HeaderField{{Name: "Content-Type", Value: "application/octet-stream"}},
		Encodings: map[string]Encoding{
			EncodingIdentity: NewEncoding([][]byte{[]byte("one"), []byte("two"), []byte("three")}, created),
			EncodingGzip:     NewEncoding([][]byte{[]byte("gz")}, created),
		},
		CreatedAt: created,
		UpdatedAt: created,
	})
	if err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	got, err := repo.Get(ctx, "/big.bin")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	if objects.gets != 0 {
		t.Fatalf("Get fetched %d chunk objects", objects.gets)
	}
	if got.Key.Owner != "alice" || got.Key.Token != "T" || got.Key.Description != "" || !got.CreatedAt.Equal(created) {
		t.Fatalf("unexpected key %+v created %v", got.Key, got.CreatedAt)
	}
	if len(got.Headers) != 1 || got.Headers[0].Value != "application/octet-stream" {
		t.Fatalf("unexpected headers %+v", got.Headers)
	}

	enc := got.Encodings[EncodingIdentity]
	if enc.ChunkCount() != 3 || enc.TotalLength != 11 {
		t.Fatalf("unexpected encoding metadata %+v", enc)
	}
	chunk, err := repo.Chunk(ctx, enc, 2)
	if err != nil || string(chunk) != "three" {
		t.Fatalf("expected chunk \"three\", got %q %v", chunk, err)
	}
	if objects.gets != 1 {
		t.Fatalf("expected one object read, got %d", objects.gets)
	}
	if _, err := repo.Chunk(ctx, enc, 3); !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("expected ErrChunkNotFound past the end, got %v", err)
	}

	if _, err := repo.Get(ctx, "/missing.bin"); !errors.Is(err, ErrAssetNotFound) {
		t.Fatalf("expected ErrAssetNotFound, got %v", err)
	}
}

func TestRepositoryCarriesEncodingsForwardWithoutRewriting(t *testing.T) {
	ctx := context.Background()
	objects := newFakeObjectStore()
	repo := NewRepository(newFakeDatabase(), objects, "assets")

	now := time.Unix(10, 0)
	if err := repo.Put(ctx, Asset{
		Key:       Key{FullPath: "/app.js", Collection: "site"},
		Encodings: map[string]Encoding{EncodingIdentity: NewEncoding([][]byte{[]byte("plain")}, now)},
	}); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}

	existing, err := repo.Get(ctx, "/app.js")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	putsBefore := objects.puts
	existing.Encodings[EncodingGzip] = NewEncoding([][]byte{[]byte("gzipped")}, now)
	if err := repo.Put(ctx, existing); err != nil {
		t.Fatalf("Put returned error: %v", err)
	}
	if objects.puts != putsBefore+1 {
		t.Fatalf("expected only the new chunk written, got %d puts", objects.puts-putsBefore)
	}
	if objects.gets != 0 {
		t.Fatalf("carrying an encoding forward read %d objects", objects.gets)
	}

	updated, err := repo.Get(ctx, "/app.js")
	if err != nil {
		t.Fatalf("Get returned error: %v", err)
	}
	for label, want := range map[string]string{EncodingIdentity: "plain", EncodingGzip: "gzipped"} {
		chunk, err := repo.Chunk(ctx, updated.Encodings[label], 0)
		if err != nil || string(chunk) != want {
			t.Fatalf("%s: expected %q, got %q %v", label, want, chunk, err)
		}
	}
}

func TestRepositoryChunkMissingObject(t *testing.T) {
	ctx := context.Background()
	objects := newFakeObjectStore()
	repo := NewRepository(newFakeDatabase(), objects, "assets")

	rec, err := repo.storeEncoding(ctx, NewEncoding([][]byte{[]byte("x")}, time.Now()))
	if err != nil {
		t.Fatalf("storeEncoding returned error: %v", err)
	}
	delete(objects.objects, rec.Objects[0])

	enc, _ := rec.encoding()
	if _, err := repo.Chunk(ctx, enc, 0); !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("expected ErrChunkNotFound, got %v", err)
	}
}

func TestMemoryStoreChunk(t *testing.T) {
	store := NewMemoryStore()
	enc := NewEncoding([][]byte{[]byte("a"), []byte("b")}, time.Now())

	chunk, err := store.Chunk(context.Background(), enc, 1)
	if err != nil || string(chunk) != "b" {
		t.Fatalf("expected chunk \"b\", got %q %v", chunk, err)
	}
	if _, err := store.Chunk(context.Background(), enc, 2); !errors.Is(err, ErrChunkNotFound) {
		t.Fatalf("expected ErrChunkNotFound, got %v", err)
	}
}

// --- fakes ---

type failingStore struct {
	err error
}

func (f failingStore) Get(ctx context.Context, fullPath string) (Asset, error) { return Asset{}, f.err }
func (f failingStore) Put(ctx context.Context, a Asset) error                  { return f.err }
func (f failingStore) Chunk(ctx context.Context, enc Encoding, index int) ([]byte, error) {
	return nil, f.err
}

type fakeDatabase struct {
	rows map[string][]any
}

func newFakeDatabase() *fakeDatabase {
	return &fakeDatabase{rows: make(map[string][]any)}
}

// Exec keeps the upsert arguments keyed by full_path; they are in column order.
func (f *fakeDatabase) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	f.rows[args[0].(string)] = args
	return pgconn.CommandTag{}, nil
}

func (f *fakeDatabase) QueryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	values, ok := f.rows[args[0].(string)]
	if !ok {
		return fakeRow{err: pgx.ErrNoRows}
	}
	return fakeRow{values: values}
}

func (f *fakeDatabase) Ping(ctx context.Context) error { return nil }

type fakeRow struct {
	values []any
	err    error
}

func (r fakeRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	if len(dest) != len(r.values) {
		return fmt.Errorf("scan: %d destinations for %d columns", len(dest), len(r.values))
	}
	for i, d := range dest {
		reflect.ValueOf(d).Elem().Set(reflect.ValueOf(r.values[i]))
	}
	return nil
}

type fakeObjectStore struct {
	objects map[string][]byte
	puts    int
	gets    int
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (f *fakeObjectStore) PutObject(ctx context.Context, bucketName, objectName string, reader io.Reader, objectSize int64, opts minio.PutObjectOptions) (minio.UploadInfo, error) {
	data, err := io.ReadAll(reader)
	if err != nil {
		return minio.UploadInfo{}, err
	}
	f.puts++
	f.objects[objectName] = data
	return minio.UploadInfo{Size: int64(len(data))}, nil
}

func (f *fakeObjectStore) GetObject(ctx context.Context, bucketName, objectName string, opts minio.GetObjectOptions) (io.ReadCloser, error) {
	f.gets++
	data, ok := f.objects[objectName]
	if !ok {
		return nil, minio.ErrorResponse{Code: "NoSuchKey"}
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjectStore) StatObject(ctx context.Context, bucketName, objectName string, opts minio.StatObjectOptions) (minio.ObjectInfo, error) {
	data, ok := f.objects[objectName]
	if !ok {
		return minio.ObjectInfo{}, minio.ErrorResponse{Code: "NoSuchKey"}
	}
	return minio.ObjectInfo{Key: objectName, Size: int64(len(data))}, nil
}
