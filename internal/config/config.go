// Package config is the only place in the engine that reads environment
// variables. It turns them into a plain Config struct that every
// constructor downstream takes as a value, the same shape the wiring
// layer of a CLI app builds before handing it to the rest of the program.
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/flammafex/rendezvous/internal/logging"
)

// Config holds everything needed to wire a running instance.
type Config struct {
	// InstanceName identifies this instance in federation records.
	InstanceName string

	// InstanceIDHex, when set, pins this instance's federation identity
	// across restarts; left empty, the wiring layer generates a fresh one
	// at startup, which is fine for a single-run or test instance but
	// means peers see a new identity on every restart.
	InstanceIDHex string

	// DataDir is where the postgres DSN's migrations or any on-disk state
	// would live; unused by the in-memory store.
	DataDir string

	// ListenAddr is where the federation grpc transport listens for
	// inbound peer streams.
	ListenAddr string

	// PeerSeeds is the set of peers dialed at startup to join the
	// federation, each formatted "instance_id_hex@host:port".
	PeerSeeds []string

	// PostgresDSN selects the postgres store when non-empty; the
	// in-memory store otherwise.
	PostgresDSN string

	LogEnv logging.Env

	FederationSyncInterval time.Duration
	SchedulerInterval      time.Duration
	PrivacyDelayMin        time.Duration
	PrivacyDelayMax        time.Duration

	TokenIssuerID     string
	TokenSigningKey   []byte
	TokenTTL          time.Duration

	AttestationNetworkID string
	AttestationWitnesses int
	AttestationThreshold int
}

// Load reads Config from the environment, filling in defaults for
// anything unset.
func Load() (Config, error) {
	cfg := Config{
		InstanceName:            getEnv("RENDEZVOUS_INSTANCE_NAME", "rendezvous"),
		InstanceIDHex:           getEnv("RENDEZVOUS_INSTANCE_ID", ""),
		DataDir:                 getEnv("RENDEZVOUS_DATA_DIR", "./data"),
		ListenAddr:              getEnv("RENDEZVOUS_LISTEN_ADDR", ":7443"),
		PostgresDSN:             getEnv("RENDEZVOUS_POSTGRES_DSN", ""),
		LogEnv:                  logging.Env(getEnv("RENDEZVOUS_LOG_ENV", string(logging.EnvProduction))),
		TokenIssuerID:           getEnv("RENDEZVOUS_TOKEN_ISSUER_ID", "rendezvous-issuer"),
		AttestationNetworkID:    getEnv("RENDEZVOUS_ATTEST_NETWORK_ID", "rendezvous-net"),
	}

	if seeds := os.Getenv("RENDEZVOUS_PEERS"); seeds != "" {
		for _, s := range strings.Split(seeds, ",") {
			if s = strings.TrimSpace(s); s != "" {
				cfg.PeerSeeds = append(cfg.PeerSeeds, s)
			}
		}
	}

	var err error
	if cfg.FederationSyncInterval, err = getDuration("RENDEZVOUS_FEDERATION_SYNC_INTERVAL", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.SchedulerInterval, err = getDuration("RENDEZVOUS_SCHEDULER_INTERVAL", 60*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PrivacyDelayMin, err = getDuration("RENDEZVOUS_PRIVACY_DELAY_MIN", 30*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.PrivacyDelayMax, err = getDuration("RENDEZVOUS_PRIVACY_DELAY_MAX", 180*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.TokenTTL, err = getDuration("RENDEZVOUS_TOKEN_TTL", 10*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.AttestationWitnesses, err = getInt("RENDEZVOUS_ATTEST_WITNESS_COUNT", 3); err != nil {
		return Config{}, err
	}
	if cfg.AttestationThreshold, err = getInt("RENDEZVOUS_ATTEST_THRESHOLD", 2); err != nil {
		return Config{}, err
	}

	key := getEnv("RENDEZVOUS_TOKEN_SIGNING_KEY", "")
	if key == "" {
		key = cfg.InstanceName + "-dev-signing-key"
	}
	cfg.TokenSigningKey = []byte(key)

	return cfg, nil
}

func getEnv(name, fallback string) string {
	if v := os.Getenv(name); v != "" {
		return v
	}
	return fallback
}

func getDuration(name string, fallback time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", name, err)
	}
	return d, nil
}

func getInt(name string, fallback int) (int, error) {
	v := os.Getenv(name)
	if v == "" {
		return fallback, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("parsing %s: %w", name, err)
	}
	return n, nil
}
