package main

import (
	"crypto/rand"
	"fmt"

	"golang.org/x/crypto/hkdf"

	"tls-recsend/minitls"
)

// Session randoms stand in for the hello randoms a handshake would have
// exchanged. A peer holding the PSK and these values can rebuild the keys.
type sessionRandoms struct {
	client [32]byte
	server [32]byte
}

func newSessionRandoms() (*sessionRandoms, error) {
	r := &sessionRandoms{}
	if _, err := rand.Read(r.client[:]); err != nil {
		return nil, fmt.Errorf("failed to generate client random: %w", err)
	}
	if _, err := rand.Read(r.server[:]); err != nil {
		return nil, fmt.Errorf("failed to generate server random: %w", err)
	}
	return r, nil
}

// newRecordWriter builds the client write state from the PSK: the PSK is the
// pre-master secret below TLS 1.3 and the HKDF input key material for the
// traffic secret in TLS 1.3.
func newRecordWriter(cfg *Config, randoms *sessionRandoms) (*minitls.RecordWriter, error) {
	if len(cfg.PSK) == 0 {
		return minitls.NewRecordWriter(cfg.Version, nil), nil
	}

	info, err := minitls.LookupCipherSuite(cfg.Suite, cfg.Version)
	if err != nil {
		return nil, err
	}

	if cfg.Version >= minitls.VersionTLS13 {
		secret := hkdf.Extract(info.Hash, cfg.PSK, randoms.client[:])
		cs, err := minitls.NewTLS13Cipher(cfg.Suite, secret)
		if err != nil {
			return nil, err
		}
		return minitls.NewRecordWriter(cfg.Version, cs), nil
	}

	master, err := minitls.DeriveMasterSecret(cfg.Version, cfg.Suite, cfg.PSK, randoms.client[:], randoms.server[:])
	if err != nil {
		return nil, err
	}
	keyBlock, err := minitls.DeriveKeyBlock(cfg.Version, cfg.Suite, master, randoms.server[:], randoms.client[:])
	if err != nil {
		return nil, err
	}
	cs, err := minitls.NewWriteCipher(cfg.Version, cfg.Suite, keyBlock, true)
	if err != nil {
		return nil, err
	}
	return minitls.NewRecordWriter(cfg.Version, cs), nil
}
