package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/go-redis/redis/v8"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runStoreContract exercises the behaviour every DocumentStore shares
func runStoreContract(t *testing.T, store DocumentStore) {
	ctx := context.Background()

	var missing []ScrapItem
	err := store.GetCollection(ctx, CollectionItems, &missing)
	require.ErrorIs(t, err, ErrCollectionNotFound)

	items := []ScrapItem{
		{ID: "a", Type: TypeTicket, Metadata: Metadata{Title: "Dune", Config: &TicketConfig{Seat: "F12", Cinema: "CGV"}}, ScopeKey: "2024-03-15", Position: Position{Z: 11, Scale: 0.5}},
		{ID: "b", Type: TypeNote, Metadata: Metadata{Title: "memo", Config: &NoteConfig{Text: "hello"}}, ScopeKey: "2024-03", IsFavorite: true},
	}
	require.NoError(t, store.PutCollection(ctx, CollectionItems, items))

	var got []ScrapItem
	require.NoError(t, store.GetCollection(ctx, CollectionItems, &got))
	assert.Equal(t, items, got)

	// last full write wins
	require.NoError(t, store.PutCollection(ctx, CollectionItems, items[:1]))
	got = nil
	require.NoError(t, store.GetCollection(ctx, CollectionItems, &got))
	assert.Len(t, got, 1)

	style := DiaryStyle{CoverColor: "#ff0000", CoverPattern: PatternDenim, Keyring: "k"}
	require.NoError(t, store.PutCollection(ctx, CollectionStyle, style))
	var gotStyle DiaryStyle
	require.NoError(t, store.GetCollection(ctx, CollectionStyle, &gotStyle))
	assert.Equal(t, style, gotStyle)
}

func TestMemoryStore(t *testing.T) {
	runStoreContract(t, NewMemoryStore())
}

func TestFileStore(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "data")
	store, err := NewFileStore(dir)
	require.NoError(t, err)

	runStoreContract(t, store)

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	assert.ElementsMatch(t, []string{"items.json", "style.json"}, names, "no temp files left behind")
}

func TestFileStoreCorruptRecord(t *testing.T) {
	dir := t.TempDir()
	store, err := NewFileStore(dir)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "items.json"), []byte("{not json"), 0644))

	var items []ScrapItem
	err = store.GetCollection(context.Background(), CollectionItems, &items)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrCollectionNotFound)
}

func TestRedisStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	ctx := context.Background()
	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })
	require.NoError(t, client.Ping(ctx).Err())

	prefix := "scrapboard-test-" + t.Name()
	t.Cleanup(func() {
		keys, _ := client.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			client.Del(ctx, keys...)
		}
	})

	runStoreContract(t, NewRedisStore(client, prefix))

	members, err := client.SMembers(ctx, prefix+":collections").Result()
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{CollectionItems, CollectionStyle}, members)
}

func TestOpenDocumentStore(t *testing.T) {
	ctx := context.Background()

	store, err := OpenDocumentStore(ctx, StorageSettings{Backend: "memory"})
	require.NoError(t, err)
	assert.IsType(t, &MemoryStore{}, store)

	store, err = OpenDocumentStore(ctx, StorageSettings{Backend: "file", Directory: t.TempDir()})
	require.NoError(t, err)
	assert.IsType(t, &FileStore{}, store)

	_, err = OpenDocumentStore(ctx, StorageSettings{Backend: "sqlite"})
	assert.Error(t, err)
}

func TestNewRedisStoreDefaultPrefix(t *testing.T) {
	store := NewRedisStore(nil, "")
	assert.Equal(t, "scrapboard:collection:items", store.key(CollectionItems))
}

func TestAppCloseReleasesRedisClient(t *testing.T) {
	store := NewRedisStore(redis.NewClient(&redis.Options{Addr: "127.0.0.1:0"}), "")
	app := &App{Store: store}

	require.NoError(t, app.Close())
	assert.ErrorIs(t, store.Close(), redis.ErrClosed, "client already closed by the app")

	assert.NoError(t, (&App{Store: NewMemoryStore()}).Close(), "stores without connections close cleanly")
}
