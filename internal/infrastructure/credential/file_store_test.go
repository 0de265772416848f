package credential

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kitsbundles/backend/internal/domain/credential"
	"github.com/kitsbundles/backend/internal/domain/shared"
)

func newTestStore(t *testing.T) *FileStore {
	t.Helper()
	return NewFileStore(filepath.Join(t.TempDir(), ".auth-data.json"))
}

func auth(url, token string) *credential.AuthData {
	return &credential.AuthData{SaleorAPIURL: url, Token: token, AppID: "app"}
}

const shopURL = "https://shop.saleor.cloud/graphql/"

func TestNewFileStore_DefaultPath(t *testing.T) {
	assert.Equal(t, DefaultFilePath, NewFileStore("").path)
}

func TestFileStore_MissingFile(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	assert.NoError(t, store.IsReady(ctx))

	_, err := store.Get(ctx, shopURL)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFileStore_Lifecycle(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Set(ctx, auth(shopURL, "one")))
	require.NoError(t, store.Set(ctx, auth(shopURL, "two")))

	got, err := store.Get(ctx, shopURL)
	require.NoError(t, err)
	assert.Equal(t, "two", got.Token)

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, store.Delete(ctx, shopURL))
	_, err = store.Get(ctx, shopURL)
	assert.ErrorIs(t, err, shared.ErrNotFound)

	require.NoError(t, store.Activate(ctx, shopURL))
	got, err = store.Get(ctx, shopURL)
	require.NoError(t, err)
	assert.Equal(t, "two", got.Token)

	assert.NoError(t, store.Delete(ctx, "https://unknown/graphql/"))
	assert.ErrorIs(t, store.Activate(ctx, "https://unknown/graphql/"), shared.ErrNotFound)
}

func TestFileStore_PersistsAcrossInstances(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	ctx := context.Background()

	require.NoError(t, NewFileStore(path).Set(ctx, auth(shopURL, "persisted")))

	got, err := NewFileStore(path).Get(ctx, shopURL)
	require.NoError(t, err)
	assert.Equal(t, "persisted", got.Token)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestFileStore_GetAllKeepsInsertionOrder(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	urls := []string{"https://c/graphql/", "https://a/graphql/", "https://b/graphql/"}
	for _, u := range urls {
		require.NoError(t, store.Set(ctx, auth(u, "t")))
	}

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 3)
	for i, u := range urls {
		assert.Equal(t, u, all[i].SaleorAPIURL)
	}
}

func TestFileStore_RejectsInvalidData(t *testing.T) {
	store := newTestStore(t)
	err := store.Set(context.Background(), &credential.AuthData{SaleorAPIURL: shopURL})
	assert.ErrorIs(t, err, shared.ErrInvalidInput)
}

func TestFileStore_CorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "auth.json")
	require.NoError(t, os.WriteFile(path, []byte("{broken"), 0o600))
	store := NewFileStore(path)

	assert.Error(t, store.IsReady(context.Background()))
	_, err := store.Get(context.Background(), shopURL)
	assert.Error(t, err)
	assert.NotErrorIs(t, err, shared.ErrNotFound)
}

func TestFileStore_ConcurrentWrites(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			url := "https://shop-" + string(rune('a'+i)) + "/graphql/"
			assert.NoError(t, store.Set(ctx, auth(url, "t")))
		}(i)
	}
	wg.Wait()

	all, err := store.GetAll(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 20)
}
