package app

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/digitull/SocialWave-sub001/internal/analytics"
	"github.com/digitull/SocialWave-sub001/internal/config"
	swerrors "github.com/digitull/SocialWave-sub001/internal/errors"
	"github.com/digitull/SocialWave-sub001/internal/lifecycle"
	"github.com/digitull/SocialWave-sub001/internal/registry"
	"github.com/digitull/SocialWave-sub001/internal/storage/s3test"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T, dataDir, storageType string) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = dataDir
	cfg.HTTP.Addr = "127.0.0.1:0"
	cfg.HTTP.ShutdownTimeout = 5 * time.Second
	cfg.Storage.Type = storageType
	return cfg
}

func startApp(t *testing.T, cfg *config.Config) *App {
	t.Helper()
	a, err := New(cfg, WithLogger(zerolog.Nop()))
	require.NoError(t, err)
	require.NoError(t, a.Start(context.Background()))
	return a
}

func TestNew_InvalidConfig(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	cfg.Storage.Type = "tape"

	_, err := New(cfg)
	require.Error(t, err)
	assert.Equal(t, swerrors.ErrCategoryValidation, swerrors.GetCategory(err))
	assert.Equal(t, swerrors.CodeInvalidConfig, swerrors.GetCode(err))
}

func TestApp_RestartPreservesState(t *testing.T) {
	for _, storageType := range []string{config.StorageLocal, config.StorageSQLite, config.StorageS3} {
		t.Run(storageType, func(t *testing.T) {
			dir := t.TempDir()
			var bucket *s3test.Server
			if storageType == config.StorageS3 {
				bucket = s3test.NewServer(t, "socialwave")
			}
			newConfig := func() *config.Config {
				cfg := testConfig(t, dir, storageType)
				if bucket != nil {
					cfg.Storage.S3.Bucket = bucket.Bucket
					cfg.Storage.S3.Endpoint = bucket.URL
					cfg.Storage.S3.UsePathStyle = true
				}
				return cfg
			}

			first := startApp(t, newConfig())
			assert.Equal(t, lifecycle.StateWarm, first.Lifecycle().State())

			body, err := json.Marshal(map[string]string{
				"event_type": "content_view", "content_id": "c1", "user_id": "u1", "platform": "tiktok",
			})
			require.NoError(t, err)
			resp, err := http.Post("http://"+first.Addr()+"/v1/events", "application/json", bytes.NewReader(body))
			require.NoError(t, err)
			resp.Body.Close()
			require.Equal(t, http.StatusCreated, resp.StatusCode)

			_, err = first.Registry().StoreModel("alice", registry.ModelRequest{Name: "captioner", Version: "1.0"})
			require.NoError(t, err)

			require.NoError(t, first.Stop(context.Background()))
			assert.Equal(t, lifecycle.StateDrained, first.Lifecycle().State())

			second := startApp(t, newConfig())
			defer second.Stop(context.Background())

			perf, err := second.Events().GetContentPerformance("c1")
			require.NoError(t, err)
			assert.Equal(t, uint64(1), perf.Views)
			assert.Equal(t, 1, second.Registry().GetStats().Models)

			// Identifiers continue after the restored sequence.
			id, err := second.Events().TrackEvent(analytics.EventInput{Type: "view", ContentID: "c2"})
			require.NoError(t, err)
			assert.Equal(t, "event_2", id)
		})
	}
}

func TestApp_StartTwice(t *testing.T) {
	a := startApp(t, testConfig(t, t.TempDir(), config.StorageLocal))
	defer a.Stop(context.Background())

	assert.Error(t, a.Start(context.Background()))
}

func TestApp_RejectsCallsAfterStop(t *testing.T) {
	a := startApp(t, testConfig(t, t.TempDir(), config.StorageLocal))
	addr := a.Addr()
	require.NoError(t, a.Stop(context.Background()))

	_, err := http.Get("http://" + addr + "/health")
	assert.Error(t, err, "server must be closed after stop")
	assert.NoError(t, a.Stop(context.Background()), "stop is idempotent")
}

func TestApp_ScheduledTrendDetection(t *testing.T) {
	cfg := testConfig(t, t.TempDir(), config.StorageLocal)
	cfg.Registry.TrendSchedule = "@every 1s"
	cfg.Registry.SeedTrends = []config.TrendSeed{{Topic: "Live shopping", Score: 0.9}}

	a := startApp(t, cfg)
	defer a.Stop(context.Background())

	require.Eventually(t, func() bool {
		return a.Registry().GetStats().Trends > 0
	}, 3*time.Second, 50*time.Millisecond)

	trends := a.Registry().GetTrendingTopics(1)
	require.Len(t, trends, 1)
	assert.Equal(t, "Live shopping", trends[0].Topic)
}

func TestApp_CheckpointConcurrentWithStatus(t *testing.T) {
	a := startApp(t, testConfig(t, t.TempDir(), config.StorageLocal))
	defer a.Stop(context.Background())

	for i := 0; i < 50; i++ {
		_, err := a.Events().TrackEvent(analytics.EventInput{Type: "content_view", ContentID: "c1", UserID: "u1"})
		require.NoError(t, err)
	}

	ctx := context.Background()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			assert.Equal(t, string(lifecycle.StateWarm), a.Events().GetStatus().State)
		}()
		go func() {
			defer wg.Done()
			_, err := a.Lifecycle().Checkpoint(ctx)
			assert.NoError(t, err)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("concurrent checkpoints and status reads did not finish")
	}
}
