package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pataalerta/config"
	"pataalerta/internal/kv"
	"pataalerta/internal/photo/imghost"
)

func TestNewApp_Memory(t *testing.T) {
	cfg := config.Default()
	cfg.LocalStore.Path = filepath.Join(t.TempDir(), "device.db")

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.gormDB)
	assert.Nil(t, a.subs)
	assert.Nil(t, a.workers)
	id := a.identity.DeviceID()
	assert.True(t, strings.HasPrefix(id, "dev_"), id)
	assert.Equal(t, id, a.identity.DeviceID())
	assert.Equal(t, 3, a.siteConfig.Load(context.Background()).DailyLimit)
}

func TestNewApp_SQLiteWithPush(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Driver = "sqlite"
	cfg.Database.DSN = filepath.Join(t.TempDir(), "remote.db")
	cfg.Push.PublicKey = "pub"
	cfg.Push.PrivateKey = "priv"
	cfg.Photo.Host = "imghost"
	cfg.Photo.ImgHost = config.ImgHostConfig{Endpoint: "https://img.example/upload", APIKey: "k"}

	a, err := newApp(context.Background(), cfg)
	require.NoError(t, err)
	defer a.Close()

	require.NotNil(t, a.gormDB)
	assert.NotNil(t, a.subs)
	assert.NotNil(t, a.workers)
	assert.Equal(t, "pub", a.webpush.VAPIDPublicKey)

	opts := a.routerOptions()
	assert.Equal(t, 12, opts.PageSize)
	assert.Equal(t, 10.0, opts.RateLimit)
}

func TestNewApp_Errors(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*config.Config)
		want   string
	}{
		{"unknown photo host", func(c *config.Config) { c.Photo.Host = "ftp" }, `unknown photo host "ftp"`},
		{"s3 without bucket", func(c *config.Config) { c.Photo.Host = "s3" }, "s3 bucket required"},
		{"bad timezone", func(c *config.Config) { c.LocalStore.Timezone = "Mars/Olympus" }, "invalid local_store.timezone"},
		{"bad driver", func(c *config.Config) { c.Database.Driver = "mongo" }, "unsupported database driver"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.mutate(cfg)
			_, err := newApp(context.Background(), cfg)
			assert.ErrorContains(t, err, tt.want)
		})
	}
}

func TestNewPhotoHost(t *testing.T) {
	h, err := newPhotoHost(context.Background(), config.PhotoConfig{Host: "imghost"})
	require.NoError(t, err)
	assert.IsType(t, &imghost.Host{}, h)
	assert.False(t, h.Configured())

	h, err = newPhotoHost(context.Background(), config.PhotoConfig{})
	require.NoError(t, err)
	assert.Nil(t, h)
}

func TestOpenLocalStore_Unavailable(t *testing.T) {
	dir := t.TempDir()
	s := openLocalStore(config.LocalStoreConfig{Path: filepath.Join(dir, "missing", "device.db")})
	assert.IsType(t, kv.Unavailable{}, s)
}

func TestCommands(t *testing.T) {
	dir := t.TempDir()
	cfgFile := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgFile, []byte(`
database:
  driver: sqlite
  dsn: `+filepath.Join(dir, "remote.db")+`
local_store:
  path: `+filepath.Join(dir, "device.db")+`
`), 0o600))
	docFile := filepath.Join(dir, "site.json")
	require.NoError(t, os.WriteFile(docFile, []byte(`{"neighborhoods":["Boa Vista","Centro"],"dailyLimit":4}`), 0o600))

	run := func(args ...string) string {
		var out bytes.Buffer
		rootCmd.SetOut(&out)
		rootCmd.SetArgs(append([]string{"--config", cfgFile}, args...))
		require.NoError(t, rootCmd.Execute())
		return out.String()
	}

	id := strings.TrimSpace(run("device-id"))
	assert.True(t, strings.HasPrefix(id, "dev_"), id)
	assert.Equal(t, id, strings.TrimSpace(run("device-id")))

	assert.Equal(t, "published 2 neighborhoods\n", run("config", "publish", docFile))
	assert.Contains(t, run("config", "show"), `"dailyLimit": 4`)
	assert.Equal(t, "expired 0 alerts\n", run("sweep"))
}
