// FILE: lixenwraith/layered/loader_test.go
package layered

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestFileLoading tests file sources in every supported format
func TestFileLoading(t *testing.T) {
	tmpDir := t.TempDir()

	t.Run("ValidTOMLFile", func(t *testing.T) {
		configFile := filepath.Join(tmpDir, "valid.toml")
		content := `
# Server configuration
[server]
host = "example.com"
port = 9000
enabled = true

[server.tls]
cert = "/path/to/cert.pem"

[database]
tags = ["primary", "replica"]
`
		require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

		source, err := LoadFile(configFile)
		require.NoError(t, err)

		r := New(WithSources(source))
		host, _ := r.Get("server.host")
		assert.Equal(t, "example.com", host)

		port, _ := r.Get("server.port")
		assert.Equal(t, int64(9000), port)

		cert, _ := r.Get("server.tls.cert")
		assert.Equal(t, "/path/to/cert.pem", cert)

		tag, _ := r.Get("database.tags.1")
		assert.Equal(t, "replica", tag)
	})

	t.Run("JSONPreservesNumbers", func(t *testing.T) {
		configFile := filepath.Join(tmpDir, "config.json")
		require.NoError(t, os.WriteFile(configFile, []byte(`{"server":{"port":9000,"ratio":0.5}}`), 0644))

		source, err := LoadFile(configFile)
		require.NoError(t, err)

		r := New(WithSources(source))
		port, _ := r.Get("server.port")
		assert.Equal(t, json.Number("9000"), port)

		n, err := r.Int64("server.port")
		require.NoError(t, err)
		assert.Equal(t, int64(9000), n)
	})

	t.Run("YAMLFile", func(t *testing.T) {
		configFile := filepath.Join(tmpDir, "config.yml")
		content := "server:\n  host: yaml.example.com\n  port: 7000\n"
		require.NoError(t, os.WriteFile(configFile, []byte(content), 0644))

		source, err := LoadFile(configFile)
		require.NoError(t, err)

		r := New(WithSources(source))
		host, _ := r.String("server.host")
		assert.Equal(t, "yaml.example.com", host)
		port, _ := r.Int64("server.port")
		assert.Equal(t, int64(7000), port)
	})

	t.Run("ContentDetection", func(t *testing.T) {
		files := map[string]string{
			"json.conf": `{"name": "from-json"}`,
			"toml.conf": `name = "from-toml"`,
			"yaml.conf": "name: from-yaml\n",
		}
		for file, content := range files {
			path := filepath.Join(tmpDir, file)
			require.NoError(t, os.WriteFile(path, []byte(content), 0644))

			source, err := LoadFile(path)
			require.NoError(t, err, file)
			assert.Equal(t, "from-"+strings.TrimSuffix(file, ".conf"), source["name"])
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		_, err := LoadFile(filepath.Join(tmpDir, "nonexistent.toml"))
		assert.ErrorIs(t, err, ErrConfigNotFound)
	})

	t.Run("InvalidTOML", func(t *testing.T) {
		configFile := filepath.Join(tmpDir, "invalid.toml")
		require.NoError(t, os.WriteFile(configFile, []byte("[server\nhost = "), 0644))

		_, err := LoadFile(configFile)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrConfigNotFound)
		assert.Contains(t, err.Error(), "TOML")
	})

	t.Run("UnknownFormat", func(t *testing.T) {
		_, err := ParseSource("ini", []byte("a=1"))
		assert.Error(t, err)
	})
}

// TestEnvironmentLoading tests environment sources
func TestEnvironmentLoading(t *testing.T) {
	t.Run("DefaultTransform", func(t *testing.T) {
		t.Setenv("APP_SERVER_HOST", "env.example.com")
		t.Setenv("APP_SERVER_ENABLED", "true")
		t.Setenv("APP_LOG_LEVEL", `"debug"`)

		source, err := EnvSource("APP_", nil, []string{"server.host", "server.enabled", "server.port", "log-level"})
		require.NoError(t, err)

		assert.Equal(t, Source{
			"server":    map[string]any{"host": "env.example.com", "enabled": true},
			"log-level": "debug",
		}, source)
	})

	t.Run("CustomTransform", func(t *testing.T) {
		t.Setenv("PORT", "8443")

		source, err := EnvSource("", func(path string) string {
			if path == "server.port" {
				return "PORT"
			}
			return ""
		}, []string{"server.port"})
		require.NoError(t, err)

		r := New(WithSources(source))
		port, err := r.Int64("server.port")
		require.NoError(t, err)
		assert.Equal(t, int64(8443), port)
	})

	t.Run("ResolverPaths", func(t *testing.T) {
		t.Setenv("SVC_DB_HOST", "db.internal")

		r := New(WithSources(Source{
			"db":    map[string]any{"host": "localhost", "port": 5432},
			"debug": false,
		}))
		assert.Equal(t, []string{"db.host", "db.port", "debug"}, r.Paths())

		env, err := r.EnvSource("SVC_", nil)
		require.NoError(t, err)
		require.NoError(t, r.Add(env))

		// The env layer replaces the whole db section
		host, _ := r.Get("db.host")
		assert.Equal(t, "db.internal", host)
		_, err = r.Get("db.port")
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("OversizedValue", func(t *testing.T) {
		t.Setenv("BIG_BLOB", strings.Repeat("x", MaxValueSize+1))
		_, err := EnvSource("BIG_", nil, []string{"blob"})
		assert.ErrorIs(t, err, ErrValueSize)
	})
}

// TestCLIParsing tests command-line sources
func TestCLIParsing(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		expected Source
	}{
		{
			name:     "SpaceSeparated",
			args:     []string{"--server.port", "9090"},
			expected: Source{"server": map[string]any{"port": "9090"}},
		},
		{
			name:     "EqualsSeparated",
			args:     []string{"--server.host=cli.example.com"},
			expected: Source{"server": map[string]any{"host": "cli.example.com"}},
		},
		{
			name:     "BareFlags",
			args:     []string{"--debug", "--verbose"},
			expected: Source{"debug": true, "verbose": true},
		},
		{
			name:     "ExplicitFalse",
			args:     []string{"--debug=false"},
			expected: Source{"debug": false},
		},
		{
			name:     "QuotedValue",
			args:     []string{`--name="with space"`},
			expected: Source{"name": "with space"},
		},
		{
			name:     "PositionalSkipped",
			args:     []string{"serve", "--", "--log-level", "warn", "extra"},
			expected: Source{"log-level": "warn"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			source, err := ArgsSource(tt.args)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, source)
		})
	}

	t.Run("InvalidSegment", func(t *testing.T) {
		_, err := ArgsSource([]string{"--server..port", "1"})
		assert.ErrorIs(t, err, ErrCLIParse)

		_, err = ArgsSource([]string{"--bad key=1"})
		assert.ErrorIs(t, err, ErrCLIParse)
	})

	t.Run("OversizedValue", func(t *testing.T) {
		_, err := ArgsSource([]string{"--blob=" + strings.Repeat("x", MaxValueSize+1)})
		assert.ErrorIs(t, err, ErrValueSize)
	})
}

// TestStructSource tests conversion of struct defaults into sources
func TestStructSource(t *testing.T) {
	type tls struct {
		Cert string `toml:"cert"`
	}
	type server struct {
		Host    string        `toml:"host"`
		Port    int           `toml:"port"`
		Timeout time.Duration `toml:"timeout"`
		Started time.Time     `toml:"started"`
		TLS     *tls          `toml:"tls"`
		Secret  string        `toml:"-"`
		Plain   string
		hidden  string
	}
	type root struct {
		Server server `toml:"server,omitempty"`
		Name   string `toml:"name" json:"app_name"`
	}

	started := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	in := root{
		Server: server{Host: "localhost", Port: 8080, Timeout: time.Second, Started: started, Secret: "s", hidden: "h"},
		Name:   "svc",
	}

	t.Run("TomlTags", func(t *testing.T) {
		source, err := StructSource(&in, "")
		require.NoError(t, err)

		assert.Equal(t, Source{
			"server": Source{
				"host":    "localhost",
				"port":    8080,
				"timeout": time.Second,
				"started": started,
				"Plain":   "",
			},
			"name": "svc",
		}, source)
	})

	t.Run("PointerSection", func(t *testing.T) {
		withTLS := in
		withTLS.Server.TLS = &tls{Cert: "/c.pem"}
		source, err := StructSource(withTLS, "toml")
		require.NoError(t, err)

		r := New(WithSources(source))
		cert, _ := r.Get("server.tls.cert")
		assert.Equal(t, "/c.pem", cert)
	})

	t.Run("OtherTag", func(t *testing.T) {
		source, err := StructSource(in, "json")
		require.NoError(t, err)
		assert.Equal(t, "svc", source["app_name"])
		assert.Contains(t, source, "Server")
	})

	t.Run("MapPassthrough", func(t *testing.T) {
		m := map[string]any{"k": 1}
		source, err := StructSource(m, "")
		require.NoError(t, err)
		assert.True(t, sameSource(m, source))
	})

	t.Run("Invalid", func(t *testing.T) {
		_, err := StructSource(42, "")
		assert.Error(t, err)
		_, err = StructSource((*root)(nil), "")
		assert.Error(t, err)
	})
}
