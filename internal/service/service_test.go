package service

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"dataframe-gateway/internal/model"
	"dataframe-gateway/internal/provider"
	"dataframe-gateway/internal/provider/httpprovider"
	"dataframe-gateway/internal/provider/parsers"
	"dataframe-gateway/internal/repository"
	"dataframe-gateway/internal/security"
)

type fixture struct {
	repo    repository.SourceRepository
	sources SourceService
	loads   LoadService
	stats   *LoadStatsCollector
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(&model.Source{}))

	vault, err := security.NewCredentialVaultFromPassphrase("test-master-key")
	require.NoError(t, err)

	loader := httpprovider.NewProvider(
		httpprovider.NewBuilder(parsers.NewRegistry(), time.Second),
		httpprovider.NewFetcher(nil, nil),
		1,
	)

	repo := repository.NewSourceRepository(db)
	sources := NewSourceService(repo, loader, vault)
	stats := NewLoadStatsCollector(time.Hour)
	sources.OnDelete(stats.Forget)

	return &fixture{
		repo:    repo,
		sources: sources,
		loads:   NewLoadService(sources, loader, stats),
		stats:   stats,
	}
}

func basicAuthServer(t *testing.T) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if user, pass, ok := r.BasicAuth(); !ok || user != "ann" || pass != "pw" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Write([]byte(`{"data":[{"id":1,"name":"a"},{"id":2,"name":"b"}]}`))
	}))
	t.Cleanup(server.Close)
	return server
}

func sourceConfig(url string) model.SourceConfig {
	return model.SourceConfig{
		"url":      url,
		"username": "ann",
		"password": "pw",
		"property": "data",
	}
}

func TestCreateSourceSealsAndMasks(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.sources.CreateSource(ctx, "acme", "u1", &CreateSourceRequest{
		Name:   " orders ",
		Config: sourceConfig("http://example.com/api"),
	})
	require.NoError(t, err)

	assert.Equal(t, "orders", created.Name)
	assert.Equal(t, model.SourceTypeHTTP, created.Type)
	assert.Equal(t, "******", created.Config["password"])

	stored, err := f.repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(stored.Config["password"].(string), "enc:v1:"))

	resolved, err := f.sources.ResolveSource(ctx, "acme", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "pw", resolved.Config["password"])
}

func TestCreateSourceRejections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.sources.CreateSource(ctx, "acme", "", &CreateSourceRequest{
		Name:   "bad",
		Config: model.SourceConfig{"url": "http://example.com"},
	})
	assert.True(t, errors.Is(err, provider.ErrConfiguration))

	_, err = f.sources.CreateSource(ctx, "acme", "", &CreateSourceRequest{
		Name:   "jdbc",
		Type:   "jdbc",
		Config: sourceConfig("http://example.com"),
	})
	assert.True(t, errors.Is(err, ErrUnsupportedSource))

	req := &CreateSourceRequest{Name: "dup", Config: sourceConfig("http://example.com")}
	_, err = f.sources.CreateSource(ctx, "acme", "", req)
	require.NoError(t, err)
	_, err = f.sources.CreateSource(ctx, "acme", "", req)
	assert.ErrorIs(t, err, repository.ErrSourceExists)

	_, err = f.sources.CreateSource(ctx, "other", "", req)
	assert.NoError(t, err)
}

func TestSourceLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	created, err := f.sources.CreateSource(ctx, "acme", "", &CreateSourceRequest{
		Name:   "orders",
		Config: sourceConfig("http://example.com"),
	})
	require.NoError(t, err)

	_, err = f.sources.GetSource(ctx, "other", created.ID)
	assert.ErrorIs(t, err, repository.ErrSourceNotFound)
	_, err = f.sources.GetSource(ctx, "acme", "not-a-uuid")
	assert.ErrorIs(t, err, repository.ErrInvalidUUID)

	available, err := f.sources.CheckName(ctx, "acme", &CheckNameRequest{Name: "orders"})
	require.NoError(t, err)
	assert.False(t, available)
	available, err = f.sources.CheckName(ctx, "acme", &CheckNameRequest{Name: "orders", ExcludeID: created.ID})
	require.NoError(t, err)
	assert.True(t, available)

	name := "orders-v2"
	updated, err := f.sources.UpdateSource(ctx, "acme", created.ID, &UpdateSourceRequest{Name: &name})
	require.NoError(t, err)
	assert.Equal(t, "orders-v2", updated.Name)

	resolved, err := f.sources.ResolveSource(ctx, "acme", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "pw", resolved.Config["password"], "update without config keeps secrets")

	require.NoError(t, f.sources.DeleteSource(ctx, "acme", created.ID, true))
	active, err := f.sources.ListSources(ctx, "acme", false)
	require.NoError(t, err)
	assert.Empty(t, active)
	archived, err := f.sources.ListSources(ctx, "acme", true)
	require.NoError(t, err)
	require.Len(t, archived, 1)
	assert.Equal(t, "******", archived[0].Config["password"])

	require.NoError(t, f.sources.UnarchiveSource(ctx, "acme", created.ID))
	require.NoError(t, f.sources.DeleteSource(ctx, "acme", created.ID, false))
	_, err = f.sources.GetSource(ctx, "acme", created.ID)
	assert.ErrorIs(t, err, repository.ErrSourceNotFound)
}

func TestUpdateSourceWithMaskedConfig(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	server := basicAuthServer(t)

	created, err := f.sources.CreateSource(ctx, "acme", "", &CreateSourceRequest{
		Name:   "orders",
		Config: sourceConfig(server.URL),
	})
	require.NoError(t, err)

	got, err := f.sources.GetSource(ctx, "acme", created.ID)
	require.NoError(t, err)
	require.Equal(t, security.MaskPlaceholder, got.Config["password"])

	echoed := got.Config.Clone()
	echoed["property"] = "data"
	_, err = f.sources.UpdateSource(ctx, "acme", created.ID, &UpdateSourceRequest{Config: &echoed})
	require.NoError(t, err)

	resolved, err := f.sources.ResolveSource(ctx, "acme", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "pw", resolved.Config["password"])

	resp, err := f.loads.LoadSource(ctx, "acme", created.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Metadata.RowCount)

	changed := got.Config.Clone()
	changed["password"] = "rotated"
	_, err = f.sources.UpdateSource(ctx, "acme", created.ID, &UpdateSourceRequest{Config: &changed})
	require.NoError(t, err)

	resolved, err = f.sources.ResolveSource(ctx, "acme", created.ID)
	require.NoError(t, err)
	assert.Equal(t, "rotated", resolved.Config["password"])
}

func TestLoadSource(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	server := basicAuthServer(t)

	created, err := f.sources.CreateSource(ctx, "acme", "", &CreateSourceRequest{
		Name:   "orders",
		Config: sourceConfig(server.URL),
	})
	require.NoError(t, err)

	resp, err := f.loads.LoadSource(ctx, "acme", created.ID)
	require.NoError(t, err)
	require.Len(t, resp.Dataframes, 1)
	assert.Equal(t, 2, resp.Metadata.RowCount)
	assert.Equal(t, created.ID, resp.Metadata.SourceID)

	stats, err := f.loads.SourceStats(ctx, "acme", created.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), stats.SuccessfulLoads)
	assert.Equal(t, int64(2), stats.TotalRows)

	require.NoError(t, f.sources.DeleteSource(ctx, "acme", created.ID, true))
	_, err = f.loads.LoadSource(ctx, "acme", created.ID)
	assert.ErrorIs(t, err, ErrSourceArchived)

	require.NoError(t, f.sources.DeleteSource(ctx, "acme", created.ID, false))
	_, err = f.stats.SourceStats(created.ID)
	assert.ErrorIs(t, err, ErrSourceStatsNotFound)
}

func TestTestConfig(t *testing.T) {
	f := newFixture(t)
	server := basicAuthServer(t)

	resp, err := f.loads.TestConfig(context.Background(), sourceConfig(server.URL))
	require.NoError(t, err)
	assert.Equal(t, 1, resp.Metadata.SchemaCount)
	assert.Empty(t, resp.Metadata.SourceID)

	config := sourceConfig(server.URL)
	config["password"] = "wrong"
	_, err = f.loads.TestConfig(context.Background(), config)
	assert.True(t, errors.Is(err, provider.ErrFetch))

	summary := f.loads.Summary()
	assert.Equal(t, int64(2), summary.Global.TotalLoads)
	assert.Equal(t, int64(1), summary.Global.FailedLoads)
	assert.Equal(t, 0.5, summary.SuccessRate)

	adHoc, err := f.stats.SourceStats(adHocSourceID)
	require.NoError(t, err)
	assert.Equal(t, "FETCH_FAILED", adHoc.LastErrorCode)
}

func TestLoadStatsCleanup(t *testing.T) {
	stats := NewLoadStatsCollector(time.Hour)
	old := time.Now().Add(-3 * time.Hour)
	stats.Record(LoadRecord{SourceID: "a", Success: true, Timestamp: old, Duration: time.Millisecond})
	stats.Record(LoadRecord{SourceID: "b", Success: true, Duration: time.Millisecond})
	stats.Record(LoadRecord{SourceID: "b", Success: false, Duration: time.Millisecond})

	assert.Equal(t, []string{"b", "a"}, stats.Summary(5).TopSources)

	stats.CleanupOldStats(time.Now())
	a, err := stats.SourceStats("a")
	require.NoError(t, err)
	assert.Empty(t, a.LoadsByHour)

	stats.Forget("a")
	_, err = stats.SourceStats("a")
	assert.ErrorIs(t, err, ErrSourceStatsNotFound)
}
