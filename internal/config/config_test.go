package config_test

import (
	"os"
	"path/filepath"
	"testing"

	qt "github.com/frankban/quicktest"

	"github.com/greenroom-sh/greenroom/internal/config"
)

// clearStoreEnv unsets the store override variables for the duration of the test.
func clearStoreEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{"REDIS_HOST", "REDIS_PORT", "REDIS_PASSWORD", "REDIS_DB", "QWELLO_API_KEY", "OPENAI_API_KEY"} {
		t.Setenv(k, "")
		os.Unsetenv(k)
	}
}

func TestDefault_HappyPath(t *testing.T) {
	c := qt.New(t)
	cfg := config.Default()
	c.Assert(cfg, qt.IsNotNil)
	c.Assert(cfg.Store.Host, qt.Equals, "127.0.0.1")
	c.Assert(cfg.Store.Port, qt.Equals, 6379)
	c.Assert(cfg.Store.Password, qt.Equals, "")
	c.Assert(cfg.Store.DB, qt.Equals, 0)
	c.Assert(cfg.Store.ConnectTimeoutMs, qt.Equals, 3000)
	c.Assert(cfg.Store.OpTimeoutMs, qt.Equals, 2000)
	c.Assert(cfg.Namespace, qt.Equals, "default")
	c.Assert(cfg.Structurer.Model, qt.Equals, "gpt-4")
}

func TestStoreConfig_Addr(t *testing.T) {
	c := qt.New(t)
	cfg := config.Default()
	c.Assert(cfg.Store.Addr(), qt.Equals, "127.0.0.1:6379")
}

func TestLoad_HappyPath(t *testing.T) {
	c := qt.New(t)
	clearStoreEnv(t)

	c.Run("non-existent file returns defaults without error", func(c *qt.C) {
		cfg, err := config.Load("/nonexistent/config.yaml")
		c.Assert(err, qt.IsNil)
		c.Assert(cfg, qt.IsNotNil)
		c.Assert(cfg.Store.Host, qt.Equals, "127.0.0.1")
		c.Assert(cfg.Namespace, qt.Equals, "default")
	})

	tests := []struct {
		name          string
		yaml          string
		wantHost      string
		wantPort      int
		wantNamespace string
		wantConnectMs int
	}{
		{
			name:          "full store section overrides all fields",
			yaml:          "store:\n  host: 172.28.0.2\n  port: 6380\n  connect_timeout_ms: 500\n",
			wantHost:      "172.28.0.2",
			wantPort:      6380,
			wantNamespace: "default",
			wantConnectMs: 500,
		},
		{
			name:          "namespace override",
			yaml:          "namespace: studio\n",
			wantHost:      "127.0.0.1",
			wantPort:      6379,
			wantNamespace: "studio",
			wantConnectMs: 3000,
		},
		{
			name:          "partial store section retains defaults",
			yaml:          "store:\n  host: redis.internal\n",
			wantHost:      "redis.internal",
			wantPort:      6379,
			wantNamespace: "default",
			wantConnectMs: 3000,
		},
	}

	for _, tt := range tests {
		c.Run(tt.name, func(c *qt.C) {
			tmp := t.TempDir()
			path := filepath.Join(tmp, "config.yaml")
			err := os.WriteFile(path, []byte(tt.yaml), 0o600)
			c.Assert(err, qt.IsNil)

			cfg, err := config.Load(path)
			c.Assert(err, qt.IsNil)
			c.Assert(cfg.Store.Host, qt.Equals, tt.wantHost)
			c.Assert(cfg.Store.Port, qt.Equals, tt.wantPort)
			c.Assert(cfg.Namespace, qt.Equals, tt.wantNamespace)
			c.Assert(cfg.Store.ConnectTimeoutMs, qt.Equals, tt.wantConnectMs)
		})
	}
}

func TestLoad_EnvOverridesFile(t *testing.T) {
	c := qt.New(t)
	clearStoreEnv(t)

	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	err := os.WriteFile(path, []byte("store:\n  host: from-file\n  port: 7000\n"), 0o600)
	c.Assert(err, qt.IsNil)

	t.Setenv("REDIS_HOST", "from-env")
	t.Setenv("REDIS_PORT", "7001")
	t.Setenv("REDIS_PASSWORD", "hunter2")
	t.Setenv("REDIS_DB", "3")

	cfg, err := config.Load(path)
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Store.Host, qt.Equals, "from-env")
	c.Assert(cfg.Store.Port, qt.Equals, 7001)
	c.Assert(cfg.Store.Password, qt.Equals, "hunter2")
	c.Assert(cfg.Store.DB, qt.Equals, 3)
}

func TestLoad_APIKeysFromEnv(t *testing.T) {
	c := qt.New(t)
	clearStoreEnv(t)

	t.Setenv("QWELLO_API_KEY", "qw-test")
	t.Setenv("OPENAI_API_KEY", "sk-test")

	cfg, err := config.Load("/nonexistent/config.yaml")
	c.Assert(err, qt.IsNil)
	c.Assert(cfg.Research.APIKey, qt.Equals, "qw-test")
	c.Assert(cfg.Structurer.APIKey, qt.Equals, "sk-test")
}

func TestLoad_BadYAML(t *testing.T) {
	c := qt.New(t)

	tmp := t.TempDir()
	path := filepath.Join(tmp, "config.yaml")
	err := os.WriteFile(path, []byte(":\n\t not yaml"), 0o600)
	c.Assert(err, qt.IsNil)

	_, err = config.Load(path)
	c.Assert(err, qt.IsNotNil)
}
