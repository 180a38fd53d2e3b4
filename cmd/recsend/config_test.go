package main

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tls-recsend/minitls"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(nil)
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:4433", cfg.Addr)
	assert.Equal(t, "tcp", cfg.Transport)
	assert.Equal(t, uint16(minitls.VersionTLS13), cfg.Version)
	assert.Equal(t, uint16(minitls.TLS_AES_128_GCM_SHA256), cfg.Suite)
	assert.Empty(t, cfg.PSK)
	assert.Equal(t, 50*time.Millisecond, cfg.WriteTimeout)
	assert.Equal(t, *minitls.DefaultConfig(), cfg.Record)
	assert.False(t, cfg.Listen)
}

func TestLoadConfigFlagsOverrideEnv(t *testing.T) {
	t.Setenv("RECSEND_ADDR", "10.0.0.1:443")
	t.Setenv("RECSEND_VERSION", "tls12")
	t.Setenv("RECSEND_PSK", "00112233")
	t.Setenv("RECORD_BYTES_OUT_THRESHOLD", "1048576")
	t.Setenv("RECORD_IDLE_MILLIS_THRESHOLD", "250")
	t.Setenv("RECORD_MAX_FRAGMENT_SIZE", "8192")
	t.Setenv("RECSEND_RATE", "1e6")

	cfg, err := LoadConfig([]string{"-addr", "10.0.0.2:443", "-max-fragment-size", "4096"})
	require.NoError(t, err)

	assert.Equal(t, "10.0.0.2:443", cfg.Addr)
	assert.Equal(t, uint16(minitls.VersionTLS12), cfg.Version)
	assert.Equal(t, uint16(minitls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256), cfg.Suite)
	assert.Equal(t, []byte{0x00, 0x11, 0x22, 0x33}, cfg.PSK)
	assert.Equal(t, 1e6, cfg.Rate)
	assert.Equal(t, minitls.Config{
		BytesOutThreshold:   1 << 20,
		IdleMillisThreshold: 250,
		MaxFragmentSize:     4096,
	}, cfg.Record)
}

func TestLoadConfigCipherSuite(t *testing.T) {
	cfg, err := LoadConfig([]string{"-version", "tls10", "-cipher", "ECDHE-RSA-AES256-SHA"})
	require.NoError(t, err)
	assert.Equal(t, uint16(minitls.TLS_ECDHE_RSA_WITH_AES_256_CBC_SHA), cfg.Suite)

	cfg, err = LoadConfig([]string{"-version", "TLS11"})
	require.NoError(t, err)
	assert.Equal(t, uint16(minitls.TLS_RSA_WITH_AES_128_CBC_SHA), cfg.Suite)
}

func TestLoadConfigErrors(t *testing.T) {
	testCases := []struct {
		name string
		args []string
	}{
		{"unknown transport", []string{"-transport", "udp"}},
		{"unknown version", []string{"-version", "ssl3"}},
		{"suite not valid for version", []string{"-version", "tls13", "-cipher", "AES128-SHA"}},
		{"unknown suite", []string{"-cipher", "RC4-MD5"}},
		{"bad psk", []string{"-psk", "xyz"}},
		{"zero max fragment", []string{"-max-fragment-size", "0"}},
		{"max fragment too large", []string{"-max-fragment-size", "16385"}},
		{"max fragment overflows", []string{"-max-fragment-size", "70000"}},
		{"negative rate", []string{"-rate", "-1"}},
		{"zero chunk", []string{"-chunk", "0"}},
		{"unknown flag", []string{"-nope"}},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := LoadConfig(tc.args)
			require.Error(t, err)
		})
	}
}

func TestNewRecordWriter(t *testing.T) {
	randoms, err := newSessionRandoms()
	require.NoError(t, err)

	testCases := []struct {
		name    string
		version uint16
		suite   uint16
		psk     []byte
		kind    minitls.CipherKind
	}{
		{"no psk", minitls.VersionTLS12, minitls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256, nil, minitls.CipherNull},
		{"tls10 cbc", minitls.VersionTLS10, minitls.TLS_RSA_WITH_AES_128_CBC_SHA, []byte("secret"), minitls.CipherBlock},
		{"tls12 gcm", minitls.VersionTLS12, minitls.TLS_ECDHE_RSA_WITH_AES_256_GCM_SHA384, []byte("secret"), minitls.CipherAEAD},
		{"tls13 chacha", minitls.VersionTLS13, minitls.TLS_CHACHA20_POLY1305_SHA256, []byte("secret"), minitls.CipherAEAD},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := &Config{Version: tc.version, Suite: tc.suite, PSK: tc.psk}
			w, err := newRecordWriter(cfg, randoms)
			require.NoError(t, err)
			assert.Equal(t, tc.kind, w.CipherKind())
			assert.Equal(t, tc.version, w.Version())
		})
	}
}
