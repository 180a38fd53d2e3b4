package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"strings"
	"time"

	"tls-recsend/minitls"
	"tls-recsend/shared"
)

// Config holds everything recsend needs to open a transport and protect
// records. Environment variables provide the defaults; flags override them.
type Config struct {
	Addr      string
	Transport string // tcp, fd, ws or vsock
	FD        int
	VsockCID  uint32
	VsockPort uint32

	Version uint16
	Suite   uint16
	PSK     []byte // empty sends records unprotected

	Rate         float64 // bytes per second, 0 for unlimited
	WriteTimeout time.Duration
	ChunkSize    int
	Listen       bool

	Record minitls.Config
}

var versionNames = map[string]uint16{
	"tls10": minitls.VersionTLS10,
	"tls11": minitls.VersionTLS11,
	"tls12": minitls.VersionTLS12,
	"tls13": minitls.VersionTLS13,
}

// defaultSuites picks a suite when none is configured.
var defaultSuites = map[uint16]uint16{
	minitls.VersionTLS10: minitls.TLS_RSA_WITH_AES_128_CBC_SHA,
	minitls.VersionTLS11: minitls.TLS_RSA_WITH_AES_128_CBC_SHA,
	minitls.VersionTLS12: minitls.TLS_ECDHE_RSA_WITH_AES_128_GCM_SHA256,
	minitls.VersionTLS13: minitls.TLS_AES_128_GCM_SHA256,
}

func parseVersion(s string) (uint16, error) {
	v, ok := versionNames[strings.ToLower(s)]
	if !ok {
		return 0, fmt.Errorf("unknown TLS version %q (want tls10, tls11, tls12 or tls13)", s)
	}
	return v, nil
}

// LoadConfig reads the environment and then parses args on top of it.
func LoadConfig(args []string) (*Config, error) {
	defaults := minitls.DefaultConfig()

	fs := flag.NewFlagSet("recsend", flag.ContinueOnError)
	addr := fs.String("addr", shared.GetEnvOrDefault("RECSEND_ADDR", "127.0.0.1:4433"), "Address to send to or, with -listen, to listen on. A ws:// URL for the ws transport")
	transportName := fs.String("transport", shared.GetEnvOrDefault("RECSEND_TRANSPORT", "tcp"), "Transport: tcp, fd, ws or vsock")
	fd := fs.Int("fd", shared.GetEnvIntOrDefault("RECSEND_FD", 1), "File descriptor for the fd transport")
	vsockCID := fs.Uint("vsock-cid", uint(shared.GetEnvUint32OrDefault("VSOCK_CID", 3)), "Context id for the vsock transport")
	vsockPort := fs.Uint("vsock-port", uint(shared.GetEnvUint32OrDefault("VSOCK_PORT", 5000)), "Port for the vsock transport")
	version := fs.String("version", shared.GetEnvOrDefault("RECSEND_VERSION", "tls13"), "Protocol version: tls10, tls11, tls12 or tls13")
	cipherSuite := fs.String("cipher", shared.GetEnvOrDefault("RECSEND_CIPHER", ""), "Cipher suite name or 0x hex id. Empty picks one for the version")
	psk := fs.String("psk", shared.GetEnvOrDefault("RECSEND_PSK", ""), "Hex pre-shared key. Empty sends unprotected records")
	rate := fs.Float64("rate", shared.GetEnvFloatOrDefault("RECSEND_RATE", 0), "Throttle to this many bytes per second, 0 for unlimited")
	writeTimeout := fs.Duration("write-timeout", 50*time.Millisecond, "Per-write deadline for socket transports, 0 to block")
	chunkSize := fs.Int("chunk", shared.GetEnvIntOrDefault("RECSEND_CHUNK", 32*1024), "Bytes read from stdin per Send call")
	listen := fs.Bool("listen", shared.GetEnvBoolOrDefault("RECSEND_LISTEN", false), "Accept connections and summarize the records received")
	bytesOut := fs.Uint("bytes-out-threshold", uint(shared.GetEnvUint32OrDefault("RECORD_BYTES_OUT_THRESHOLD", defaults.BytesOutThreshold)), "Application bytes before records grow")
	idleMillis := fs.Uint("idle-millis-threshold", uint(shared.GetEnvUint32OrDefault("RECORD_IDLE_MILLIS_THRESHOLD", defaults.IdleMillisThreshold)), "Idle milliseconds before records shrink")
	maxFrag := fs.Uint("max-fragment-size", uint(shared.GetEnvUint16OrDefault("RECORD_MAX_FRAGMENT_SIZE", defaults.MaxFragmentSize)), "Largest record fragment")

	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	cfg := &Config{
		Addr:         *addr,
		Transport:    strings.ToLower(*transportName),
		FD:           *fd,
		VsockCID:     uint32(*vsockCID),
		VsockPort:    uint32(*vsockPort),
		Rate:         *rate,
		WriteTimeout: *writeTimeout,
		ChunkSize:    *chunkSize,
		Listen:       *listen,
		Record: minitls.Config{
			BytesOutThreshold:   uint32(*bytesOut),
			IdleMillisThreshold: uint32(*idleMillis),
			MaxFragmentSize:     uint16(*maxFrag),
		},
	}

	switch cfg.Transport {
	case "tcp", "fd", "ws", "vsock":
	default:
		return nil, fmt.Errorf("unknown transport %q", *transportName)
	}
	if cfg.ChunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", cfg.ChunkSize)
	}
	if cfg.Rate < 0 {
		return nil, fmt.Errorf("rate must not be negative, got %g", cfg.Rate)
	}
	if *maxFrag > minitls.MaxFragmentLength {
		return nil, fmt.Errorf("max fragment size %d exceeds %d", *maxFrag, minitls.MaxFragmentLength)
	}
	if err := cfg.Record.Validate(); err != nil {
		return nil, fmt.Errorf("invalid record config: %w", err)
	}

	v, err := parseVersion(*version)
	if err != nil {
		return nil, err
	}
	cfg.Version = v

	cfg.Suite = defaultSuites[v]
	if *cipherSuite != "" {
		if cfg.Suite, err = minitls.ParseCipherSuite(*cipherSuite); err != nil {
			return nil, err
		}
	}
	if _, err := minitls.LookupCipherSuite(cfg.Suite, cfg.Version); err != nil {
		return nil, err
	}

	if *psk != "" {
		if cfg.PSK, err = hex.DecodeString(*psk); err != nil {
			return nil, fmt.Errorf("invalid PSK: %w", err)
		}
	}

	return cfg, nil
}
