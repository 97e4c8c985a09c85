/*
 * Copyright 2025 Carver Automation Corporation.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *     http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/carverauto/camshim/pkg/logger"
	"github.com/carverauto/camshim/pkg/models"
)

var errPortRequired = errors.New("port is required")

type nested struct {
	Host string `json:"host"`
	Port int    `json:"port"`
}

type testConfig struct {
	Name     string                 `json:"name"`
	Enabled  bool                   `json:"enabled"`
	Timeout  models.Duration        `json:"timeout"`
	Wait     time.Duration          `json:"wait"`
	Models   []string               `json:"models"`
	Era      models.FirmwareEra     `json:"era"`
	Codes    map[string]string      `json:"codes"`
	Server   nested                 `json:"server"`
	Optional *nested                `json:"optional,omitempty"`
	Security *models.SecurityConfig `json:"security,omitempty"`
	Secret   string                 `json:"-"`
}

func (c *testConfig) Validate() error {
	if c.Server.Port == 0 {
		return errPortRequired
	}

	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "camshim.json")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoadAndValidate_File(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "")

	path := writeFile(t, `{
		"name": "bridge",
		"timeout": "15s",
		"models": ["HL_CAM4"],
		"era": "post_cutoff",
		"server": {"host": "0.0.0.0", "port": 8080},
		"security": {"mode": "mtls", "cert_dir": "/etc/camshim/certs",
			"tls": {"cert_file": "client.pem", "key_file": "/abs/key.pem", "ca_file": "ca.pem"}}
	}`)

	var cfg testConfig

	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), path, &cfg))

	assert.Equal(t, "bridge", cfg.Name)
	assert.Equal(t, models.Duration(15*time.Second), cfg.Timeout)
	assert.Equal(t, models.FirmwareEraPostCutoff, cfg.Era)
	assert.Equal(t, "/etc/camshim/certs/client.pem", cfg.Security.TLS.CertFile)
	assert.Equal(t, "/abs/key.pem", cfg.Security.TLS.KeyFile)
	assert.Equal(t, "/etc/camshim/certs/ca.pem", cfg.Security.TLS.CAFile)
}

func TestLoadAndValidate_FileErrors(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "file")

	c := NewConfig(nil)

	var cfg testConfig

	err := c.LoadAndValidate(context.Background(), filepath.Join(t.TempDir(), "missing.json"), &cfg)
	require.Error(t, err)

	err = c.LoadAndValidate(context.Background(), writeFile(t, `{"nmae": "typo"}`), &cfg)
	require.Error(t, err, "unknown fields are rejected")

	err = c.LoadAndValidate(context.Background(), writeFile(t, `{"name": "x"}`), &cfg)
	require.ErrorIs(t, err, errPortRequired)
}

func TestLoadAndValidate_InvalidSource(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "kv")

	var cfg testConfig

	err := NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), "", &cfg)
	require.ErrorIs(t, err, errInvalidConfigSource)
}

func TestLoadAndValidate_Env(t *testing.T) {
	t.Setenv("CONFIG_SOURCE", "env")
	t.Setenv("CONFIG_ENV_PREFIX", "")
	t.Setenv("CAMSHIM_NAME", "from-env")
	t.Setenv("CAMSHIM_ENABLED", "true")
	t.Setenv("CAMSHIM_TIMEOUT", "3s")
	t.Setenv("CAMSHIM_WAIT", "250ms")
	t.Setenv("CAMSHIM_MODELS", "HL_CAM4, WYZEDB3")
	t.Setenv("CAMSHIM_ERA", "pre_cutoff")
	t.Setenv("CAMSHIM_CODES", `{"-13":"timeout"}`)
	t.Setenv("CAMSHIM_SERVER_HOST", "127.0.0.1")
	t.Setenv("CAMSHIM_SERVER_PORT", "9090")
	t.Setenv("CAMSHIM_SECURITY_MODE", "mtls")
	t.Setenv("CAMSHIM_SECURITY_CERT_DIR", "/certs")
	t.Setenv("CAMSHIM_SECURITY_TLS_CA_FILE", "ca.pem")

	var cfg testConfig

	require.NoError(t, NewConfig(logger.NewTestLogger()).LoadAndValidate(context.Background(), "", &cfg))

	assert.Equal(t, "from-env", cfg.Name)
	assert.True(t, cfg.Enabled)
	assert.Equal(t, models.Duration(3*time.Second), cfg.Timeout)
	assert.Equal(t, 250*time.Millisecond, cfg.Wait)
	assert.Equal(t, []string{"HL_CAM4", "WYZEDB3"}, cfg.Models)
	assert.Equal(t, models.FirmwareEraPreCutoff, cfg.Era)
	assert.Equal(t, map[string]string{"-13": "timeout"}, cfg.Codes)
	assert.Equal(t, nested{Host: "127.0.0.1", Port: 9090}, cfg.Server)
	assert.Nil(t, cfg.Optional, "untouched pointer structs stay nil")
	require.NotNil(t, cfg.Security)
	assert.Equal(t, "/certs/ca.pem", cfg.Security.TLS.CAFile)
}

func TestEnvLoader_ConfigJSON(t *testing.T) {
	env := map[string]string{
		"APP_CONFIG_JSON": `{"name": "json", "server": {"port": 1}}`,
		"APP_NAME":        "ignored",
	}

	l := NewEnvConfigLoader(logger.NewTestLogger(), "APP_")
	l.lookup = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	var cfg testConfig

	require.NoError(t, l.Load(context.Background(), "", &cfg))
	assert.Equal(t, "json", cfg.Name)
	assert.Equal(t, 1, cfg.Server.Port)
}

func TestEnvLoader_Errors(t *testing.T) {
	env := map[string]string{"X_SERVER_PORT": "not-a-number", "X_ENABLED": "maybe"}

	l := NewEnvConfigLoader(logger.NewTestLogger(), "X_")
	l.lookup = func(k string) (string, bool) {
		v, ok := env[k]
		return v, ok
	}

	var cfg testConfig

	err := l.Load(context.Background(), "", &cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "X_SERVER_PORT")
	assert.Contains(t, err.Error(), "X_ENABLED")

	require.ErrorIs(t, l.Load(context.Background(), "", cfg), ErrDstMustBeNonNilPointer)

	s := "x"
	require.ErrorIs(t, l.Load(context.Background(), "", &s), ErrDstMustBePointerToStruct)
}

func TestNormalizeTLSPaths(t *testing.T) {
	tls := models.TLSConfig{CertFile: "a.pem", KeyFile: "/k.pem"}

	NormalizeTLSPaths(&tls, "/d")
	assert.Equal(t, "/d/a.pem", tls.CertFile)
	assert.Equal(t, "/k.pem", tls.KeyFile)
	assert.Empty(t, tls.CAFile)

	tls = models.TLSConfig{CertFile: "a.pem"}
	NormalizeTLSPaths(&tls, "")
	assert.Equal(t, "a.pem", tls.CertFile)
}
