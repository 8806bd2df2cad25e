package storage

import (
	"context"
	"net/url"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/erp/stockledger/internal/infrastructure/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func validConfig() *config.StorageConfig {
	return &config.StorageConfig{
		Endpoint:        "localhost:9000",
		Region:          "eu-west-1",
		Bucket:          "ledger-exports",
		AccessKeyID:     "test-key",
		SecretAccessKey: "test-secret",
		UsePathStyle:    true,
	}
}

func TestNewS3Archive_Validation(t *testing.T) {
	ctx := context.Background()

	t.Run("nil config", func(t *testing.T) {
		_, err := NewS3Archive(ctx, nil)
		assert.ErrorContains(t, err, "configuration is required")
	})

	t.Run("missing bucket", func(t *testing.T) {
		cfg := validConfig()
		cfg.Bucket = ""
		_, err := NewS3Archive(ctx, cfg)
		assert.ErrorContains(t, err, "bucket is required")
	})

	t.Run("half a credential pair", func(t *testing.T) {
		cfg := validConfig()
		cfg.SecretAccessKey = ""
		_, err := NewS3Archive(ctx, cfg)
		assert.ErrorContains(t, err, "go together")
	})

	t.Run("defaults", func(t *testing.T) {
		a, err := NewS3Archive(ctx, validConfig(), WithLogger(zaptest.NewLogger(t)))
		require.NoError(t, err)
		assert.Equal(t, "ledger-exports", a.Bucket())
		assert.Equal(t, defaultPresignExpiry, a.presignExpiry)
	})
}

func TestS3Archive_GenerateDownloadURL(t *testing.T) {
	ctx := context.Background()
	cfg := validConfig()
	cfg.PresignExpiry = 5 * time.Minute
	a, err := NewS3Archive(ctx, cfg)
	require.NoError(t, err)

	link, expiresAt, err := a.GenerateDownloadURL(ctx, "exports/movements/a.xlsx", 0)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(5*time.Minute), expiresAt, 5*time.Second)

	u, err := url.Parse(link)
	require.NoError(t, err)
	assert.Equal(t, "https", u.Scheme)
	assert.Equal(t, "localhost:9000", u.Host)
	assert.Equal(t, "/ledger-exports/exports/movements/a.xlsx", u.Path)
	assert.Equal(t, "300", u.Query().Get("X-Amz-Expires"))
	assert.NotEmpty(t, u.Query().Get("X-Amz-Signature"))

	_, _, err = a.GenerateDownloadURL(ctx, "", time.Minute)
	assert.ErrorContains(t, err, "storage key is required")
}

func TestS3Archive_EmptyKeys(t *testing.T) {
	ctx := context.Background()
	a, err := NewS3Archive(ctx, validConfig())
	require.NoError(t, err)

	assert.ErrorContains(t, a.Upload(ctx, "", []byte("x"), "text/plain"), "storage key is required")
	assert.ErrorContains(t, a.DeleteObject(ctx, ""), "storage key is required")
	_, err = a.ObjectExists(ctx, "")
	assert.ErrorContains(t, err, "storage key is required")
}

// Runs against a local MinIO or RustFS when STORAGE_TEST_ENDPOINT is set
func TestS3Archive_Integration(t *testing.T) {
	endpoint := os.Getenv("STORAGE_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("STORAGE_TEST_ENDPOINT not set")
	}
	ctx := context.Background()
	cfg := &config.StorageConfig{
		Endpoint:        endpoint,
		Bucket:          "ledger-exports-test",
		AccessKeyID:     os.Getenv("STORAGE_TEST_ACCESS_KEY"),
		SecretAccessKey: os.Getenv("STORAGE_TEST_SECRET_KEY"),
		UsePathStyle:    true,
	}
	a, err := NewS3Archive(ctx, cfg)
	require.NoError(t, err)
	require.NoError(t, a.EnsureBucket(ctx))

	key := "it/" + strings.ReplaceAll(t.Name(), "/", "_") + ".txt"
	require.NoError(t, a.Upload(ctx, key, []byte("ledger"), "text/plain"))
	t.Cleanup(func() { _ = a.DeleteObject(context.Background(), key) })

	ok, err := a.ObjectExists(ctx, key)
	require.NoError(t, err)
	assert.True(t, ok)
}
