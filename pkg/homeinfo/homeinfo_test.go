package homeinfo_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bft-labs/homeinfo/internal/adapters/fs"
	"github.com/bft-labs/homeinfo/internal/adapters/memory"
	"github.com/bft-labs/homeinfo/internal/domain"
	"github.com/bft-labs/homeinfo/pkg/homeinfo"
)

func waitSettled(t *testing.T, c *homeinfo.Client) {
	t.Helper()
	select {
	case <-c.Settled():
	case <-time.After(5 * time.Second):
		t.Fatal("fetch did not settle")
	}
}

func staticFetcher(res homeinfo.Resource, err error) homeinfo.FetcherFunc {
	return func(context.Context) (homeinfo.Resource, error) { return res, err }
}

func TestConfig_SetDefaults(t *testing.T) {
	cfg := homeinfo.Config{}
	cfg.SetDefaults()

	assert.NotEmpty(t, cfg.CacheDir)
	assert.Equal(t, homeinfo.DefaultCacheKey, cfg.CacheKey)
	assert.Equal(t, homeinfo.DefaultPath, cfg.Path)
	assert.Equal(t, homeinfo.DefaultHTTPTimeout, cfg.HTTPTimeout)
	assert.Equal(t, homeinfo.DefaultDebounceDelay, cfg.DebounceDelay)

	custom := homeinfo.Config{CacheKey: "custom", HTTPTimeout: time.Second}
	custom.SetDefaults()
	assert.Equal(t, "custom", custom.CacheKey)
	assert.Equal(t, time.Second, custom.HTTPTimeout)
}

func TestConfig_Validate(t *testing.T) {
	valid := homeinfo.DefaultConfig()
	valid.ServiceURL = "https://api.example.com"

	tests := []struct {
		name    string
		mutate  func(*homeinfo.Config)
		wantErr bool
	}{
		{name: "valid", mutate: func(*homeinfo.Config) {}},
		{name: "missing service url", mutate: func(c *homeinfo.Config) { c.ServiceURL = "" }, wantErr: true},
		{name: "missing cache dir", mutate: func(c *homeinfo.Config) { c.CacheDir = "" }, wantErr: true},
		{name: "key with separator", mutate: func(c *homeinfo.Config) { c.CacheKey = "a/b" }, wantErr: true},
		{name: "dot key", mutate: func(c *homeinfo.Config) { c.CacheKey = ".." }, wantErr: true},
		{name: "negative timeout", mutate: func(c *homeinfo.Config) { c.HTTPTimeout = -time.Second }, wantErr: true},
		{name: "negative debounce", mutate: func(c *homeinfo.Config) { c.DebounceDelay = -time.Second }, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.ErrorIs(t, err, homeinfo.ErrInvalidConfig)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestNew_RequiresServiceURLWithoutFetcher(t *testing.T) {
	cfg := homeinfo.Config{CacheDir: t.TempDir()}

	_, err := homeinfo.New(cfg)
	assert.ErrorIs(t, err, homeinfo.ErrInvalidConfig)

	client, err := homeinfo.New(cfg, homeinfo.WithFetcher(staticFetcher(nil, nil)))
	require.NoError(t, err)
	assert.NotNil(t, client)
}

func TestNew_StorageWithoutSubscriber(t *testing.T) {
	storage := struct{ homeinfo.Storage }{memory.New()}

	_, err := homeinfo.New(homeinfo.Config{CacheDir: t.TempDir()},
		homeinfo.WithFetcher(staticFetcher(nil, nil)),
		homeinfo.WithStorage(storage),
	)
	assert.ErrorIs(t, err, homeinfo.ErrInvalidConfig)

	_, err = homeinfo.New(homeinfo.Config{CacheDir: t.TempDir()},
		homeinfo.WithFetcher(staticFetcher(nil, nil)),
		homeinfo.WithStorage(storage),
		homeinfo.WithSubscriber(memory.New()),
	)
	assert.NoError(t, err)
}

func TestClient_FetchesOverHTTPAndWritesBack(t *testing.T) {
	auth := make(chan string, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case auth <- r.Header.Get("Authorization"):
		default:
		}
		if r.URL.Path != homeinfo.DefaultPath {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"id":1,"name":"home"}`))
	}))
	defer server.Close()

	dir := t.TempDir()
	client, err := homeinfo.New(homeinfo.Config{
		CacheDir:   dir,
		ServiceURL: server.URL,
		AuthKey:    "secret",
	})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Mount(context.Background()))
	waitSettled(t, client)

	st := client.State()
	require.NoError(t, st.Err)
	assert.False(t, st.Loading)
	assert.Equal(t, homeinfo.Object{"id": float64(1), "name": "home"}, st.Resource)
	assert.Equal(t, "Bearer secret", <-auth)

	raw, err := os.ReadFile(filepath.Join(dir, homeinfo.DefaultCacheKey+".json"))
	require.NoError(t, err)
	assert.Equal(t, st.Resource, domain.ParseSnapshot(raw))
}

func TestClient_SeedsFromCacheThenReportsFailure(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		http.Error(w, "unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()
	unblock := sync.OnceFunc(func() { close(release) })
	defer unblock()

	dir := t.TempDir()
	seed := fs.NewFileStorage(dir, nil)
	require.NoError(t, seed.Set(context.Background(), homeinfo.DefaultCacheKey, []byte(`{"data":{"id":1},"timestamp":1}`)))

	client, err := homeinfo.New(homeinfo.Config{CacheDir: dir, ServiceURL: server.URL})
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Mount(context.Background()))
	st := client.State()
	assert.Equal(t, homeinfo.Object{"id": float64(1)}, st.Resource)
	assert.False(t, st.Loading)

	unblock()
	waitSettled(t, client)
	st = client.State()
	assert.Nil(t, st.Resource)
	assert.False(t, st.Loading)
	require.Error(t, st.Err)
	assert.Contains(t, st.Err.Error(), "503")
}

func TestClient_EmptyResultReportsNoResults(t *testing.T) {
	client, err := homeinfo.New(homeinfo.Config{CacheDir: t.TempDir()},
		homeinfo.WithFetcher(staticFetcher(homeinfo.Object{}, nil)))
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Mount(context.Background()))
	waitSettled(t, client)

	st := client.State()
	assert.ErrorIs(t, st.Err, homeinfo.ErrNoResults)
	assert.Nil(t, st.Resource)
}

func TestClient_MirrorsChangesFromAnotherProcess(t *testing.T) {
	dir := t.TempDir()
	cfg := homeinfo.Config{CacheDir: dir, DebounceDelay: 10 * time.Millisecond}

	observer, err := homeinfo.New(cfg, homeinfo.WithFetcher(staticFetcher(nil, errors.New("offline"))))
	require.NoError(t, err)
	defer observer.Close()
	require.NoError(t, observer.Mount(context.Background()))
	waitSettled(t, observer)

	writer, err := homeinfo.New(cfg, homeinfo.WithFetcher(staticFetcher(homeinfo.Object{"name": "home"}, nil)))
	require.NoError(t, err)
	defer writer.Close()
	require.NoError(t, writer.Mount(context.Background()))
	waitSettled(t, writer)

	require.Eventually(t, func() bool {
		r, _ := observer.State().Resource.(homeinfo.Object)
		return r["name"] == "home"
	}, 5*time.Second, 10*time.Millisecond)
	assert.EqualError(t, observer.State().Err, "offline")

	// An external clear leaves the observer silently empty of a resource.
	require.NoError(t, fs.NewFileStorage(dir, nil).Remove(context.Background(), homeinfo.DefaultCacheKey))
	require.Eventually(t, func() bool {
		return observer.State().Resource == nil
	}, 5*time.Second, 10*time.Millisecond)
	assert.EqualError(t, observer.State().Err, "offline")
}

func TestClient_MountUnmountErrors(t *testing.T) {
	client, err := homeinfo.New(homeinfo.Config{CacheDir: t.TempDir()},
		homeinfo.WithFetcher(staticFetcher(homeinfo.Object{"id": 1}, nil)))
	require.NoError(t, err)

	assert.ErrorIs(t, client.Unmount(), homeinfo.ErrNotMounted)
	require.NoError(t, client.Mount(context.Background()))
	assert.True(t, client.Mounted())
	assert.ErrorIs(t, client.Mount(context.Background()), homeinfo.ErrAlreadyMounted)

	require.NoError(t, client.Close())
	assert.False(t, client.Mounted())
	require.NoError(t, client.Close(), "Close is idempotent")
}

type recordingHandler struct {
	homeinfo.BaseEventHandler

	mu      sync.Mutex
	reasons []string
}

func (h *recordingHandler) OnStateChange(event homeinfo.StateChangeEvent) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.reasons = append(h.reasons, event.Reason)
}

func (h *recordingHandler) Reasons() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string{}, h.reasons...)
}

func TestClient_EventHandler(t *testing.T) {
	handler := &recordingHandler{}
	storage := memory.New()

	client, err := homeinfo.New(homeinfo.Config{CacheDir: t.TempDir()},
		homeinfo.WithFetcher(staticFetcher(homeinfo.Object{"id": 1}, nil)),
		homeinfo.WithStorage(storage),
		homeinfo.WithEventHandler(handler),
	)
	require.NoError(t, err)
	defer client.Close()

	require.NoError(t, client.Mount(context.Background()))
	waitSettled(t, client)

	storage.Emit(homeinfo.ChangeEvent{Key: homeinfo.DefaultCacheKey, Removed: true})

	assert.Equal(t, []string{"mount", "fetch succeeded", "changed in another context"}, handler.Reasons())
}
