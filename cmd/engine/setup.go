package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/rs/zerolog"

	"engage-engine/internal/config"
	"engage-engine/internal/logging"
	"engage-engine/internal/runlock"
	"engage-engine/internal/secrets"
)

// runtime is what every command that touches the fleet needs.
type runtime struct {
	dir  string
	cfg  config.Config
	env  config.Env
	log  zerolog.Logger
	logs io.Closer
	lock *runlock.Lock
}

func (rt *runtime) Close() {
	_ = rt.lock.Release()
	if rt.logs != nil {
		_ = rt.logs.Close()
	}
}

// prepare loads env and config, opens the run log and takes the run lock
// for profile. runlock.ErrLocked reports an overlapping run.
func prepare(profile string, instant bool) (*runtime, error) {
	env, err := config.LoadEnv()
	if err != nil {
		return nil, err
	}
	keyringErr := secrets.Fill(env.Secrets())

	dir := dataDir
	if dir == "" {
		dir = env.DataDir
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}

	path := cfgFile
	if path == "" {
		if path, err = config.EnsureUserConfig(dir); err != nil {
			return nil, fmt.Errorf("config bootstrap: %w", err)
		}
	}
	cfg, err := config.Load(path)
	if err != nil {
		return nil, fmt.Errorf("config load (%s): %w", path, err)
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	cfg, v := config.NormalizeAndValidate(cfg)
	if !v.OK() {
		return nil, errors.New("invalid config:\n- " + strings.Join(v.Errors, "\n- "))
	}
	cfg.Store.SQLitePath = under(dir, cfg.Store.SQLitePath)
	env.GoogleCredentialsFile = under(dir, env.GoogleCredentialsFile)

	logDir := cfg.Log.Dir
	if instant {
		logDir = cfg.Log.InstantDir
	}
	log, logs, err := logging.Setup(logging.Options{
		Dir:     under(dir, logDir),
		Instant: instant,
		Level:   cfg.Log.Level,
		Pretty:  cfg.Log.Pretty,
	})
	if err != nil {
		return nil, err
	}
	rt := &runtime{dir: dir, cfg: cfg, env: env, log: log, logs: logs}

	for _, w := range v.Warnings {
		log.Warn().Str("config", path).Msg(w)
	}
	if keyringErr != nil {
		log.Warn().Err(keyringErr).Msg("keyring unavailable, using environment only")
	}

	lock, err := runlock.Acquire(under(dir, profile+"-"+cfg.Run.LockFile))
	if err != nil {
		rt.Close()
		return nil, err
	}
	rt.lock = lock
	return rt, nil
}

// under resolves relative paths against the data directory.
func under(dir, p string) string {
	if p == "" || filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(dir, p)
}
