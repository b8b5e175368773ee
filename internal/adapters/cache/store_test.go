package cache_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.trai.ch/chainload/internal/adapters/cache"
	"go.trai.ch/chainload/internal/core/domain"
	"go.trai.ch/chainload/internal/core/ports/mocks"
	"go.uber.org/mock/gomock"
)

func sampleEntries() map[string]domain.CacheEntry[domain.PluginMetadata] {
	return map[string]domain.CacheEntry[domain.PluginMetadata]{
		"/plugins/a.so": {
			Path:      "/plugins/a.so",
			Timestamp: 1700000000123456789,
			Items: []domain.PluginMetadata{
				{
					GUID: "com.example.a", Name: "A", Version: "1.0.0",
					TypeName: "a.Plugin", Location: "/plugins/a.so",
					Dependencies: []domain.Dependency{{GUID: "com.example.b", Flags: domain.SoftDependency}},
				},
				{
					GUID: "com.example.a2", Name: "A2", Version: "0.1.0",
					TypeName: "a.Second", Location: "/plugins/a.so",
					Processes: []string{"game.exe", "editor.exe"},
				},
			},
		},
		"/plugins/empty.so": {
			Path:      "/plugins/empty.so",
			Timestamp: 42,
		},
	}
}

func TestStore_RoundTrip(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)

	dir := t.TempDir()
	store := cache.NewStore[domain.PluginMetadata](dir, log)

	want := sampleEntries()
	store.Save("chainloader", want)

	assert.FileExists(t, filepath.Join(dir, "chainloader_typeloader.dat"))

	got, ok := store.Load("chainloader")
	require.True(t, ok)
	assert.Equal(t, want, got)
}

func TestStore_RoundTrip_Empty(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := cache.NewStore[domain.PatcherMetadata](t.TempDir(), mocks.NewMockLogger(ctrl))

	store.Save("preloader", map[string]domain.CacheEntry[domain.PatcherMetadata]{})

	got, ok := store.Load("preloader")
	require.True(t, ok)
	assert.Empty(t, got)
}

func TestStore_Save_Overwrites(t *testing.T) {
	ctrl := gomock.NewController(t)
	store := cache.NewStore[domain.PluginMetadata](t.TempDir(), mocks.NewMockLogger(ctrl))

	store.Save("chainloader", sampleEntries())
	store.Save("chainloader", map[string]domain.CacheEntry[domain.PluginMetadata]{
		"/plugins/b.so": {Path: "/plugins/b.so", Timestamp: 7},
	})

	got, ok := store.Load("chainloader")
	require.True(t, ok)
	require.Len(t, got, 1)
	assert.Equal(t, int64(7), got["/plugins/b.so"].Timestamp)
}

func TestStore_Load_Missing(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Debug(gomock.Any()).Times(1)

	store := cache.NewStore[domain.PluginMetadata](t.TempDir(), log)

	got, ok := store.Load("chainloader")
	assert.False(t, ok)
	assert.Nil(t, got)
}

func TestStore_Load_Corrupt(t *testing.T) {
	valid := func(t *testing.T) []byte {
		t.Helper()
		ctrl := gomock.NewController(t)
		dir := t.TempDir()
		store := cache.NewStore[domain.PluginMetadata](dir, mocks.NewMockLogger(ctrl))
		store.Save("x", sampleEntries())
		data, err := os.ReadFile(store.Path("x"))
		require.NoError(t, err)
		return data
	}

	tests := []struct {
		name    string
		corrupt func(data []byte) []byte
	}{
		{
			name:    "empty file",
			corrupt: func([]byte) []byte { return nil },
		},
		{
			name:    "truncated",
			corrupt: func(data []byte) []byte { return data[:len(data)/2] },
		},
		{
			name: "bad magic",
			corrupt: func(data []byte) []byte {
				data[0] = 'X'
				return data
			},
		},
		{
			name: "version mismatch",
			corrupt: func(data []byte) []byte {
				data[4] = byte(cache.FormatVersion + 1)
				return data
			},
		},
		{
			name: "payload bit flip",
			corrupt: func(data []byte) []byte {
				data[10] ^= 0xff
				return data
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := gomock.NewController(t)
			log := mocks.NewMockLogger(ctrl)
			log.EXPECT().Warn(gomock.Any()).Times(1)

			dir := t.TempDir()
			store := cache.NewStore[domain.PluginMetadata](dir, log)

			//nolint:gosec // test file
			require.NoError(t, os.WriteFile(store.Path("chainloader"), tt.corrupt(valid(t)), 0o644))

			got, ok := store.Load("chainloader")
			assert.False(t, ok)
			assert.Nil(t, got)
		})
	}
}

func TestStore_Save_FailureIsWarned(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	log.EXPECT().Warn(gomock.Any()).Times(1)

	dir := t.TempDir()
	store := cache.NewStore[domain.PluginMetadata](dir, log)

	// A non-empty directory in place of the cache file makes the final rename fail.
	blocker := store.Path("chainloader")
	require.NoError(t, os.MkdirAll(filepath.Join(blocker, "keep"), 0o750))

	store.Save("chainloader", sampleEntries())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Len(t, entries, 1, "temporary file must be cleaned up")
	assert.True(t, entries[0].IsDir())
}

func TestStore_Remove(t *testing.T) {
	ctrl := gomock.NewController(t)
	log := mocks.NewMockLogger(ctrl)
	store := cache.NewStore[domain.PluginMetadata](t.TempDir(), log)

	require.NoError(t, store.Remove("chainloader"), "missing file is not an error")

	store.Save("chainloader", sampleEntries())
	require.FileExists(t, store.Path("chainloader"))

	require.NoError(t, store.Remove("chainloader"))
	assert.NoFileExists(t, store.Path("chainloader"))
}

func TestFactory(t *testing.T) {
	ctrl := gomock.NewController(t)
	f := cache.NewFactory(mocks.NewMockLogger(ctrl))
	dir := t.TempDir()

	assert.Equal(t, filepath.Join(dir, "chainloader_typeloader.dat"), f.Plugins(dir).Path("chainloader"))
	assert.Equal(t, filepath.Join(dir, "preloader_typeloader.dat"), f.Patchers(dir).Path("preloader"))
}
