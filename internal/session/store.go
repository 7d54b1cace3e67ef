// Package session persists per-account credentials as one small
// protobuf-encoded file per account. The wire layout is a fixed external
// format shared with other tools reading the same files, so the field
// numbers here must never change.
package session

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/sodachi/mangetsu/internal/km"
	"github.com/sodachi/mangetsu/internal/mu"
)

const (
	kmPrefix = "km"
	muPrefix = "mu"
	fileExt  = ".tmconf"
)

// ErrNotFound is returned when no session file exists for an id.
var ErrNotFound = errors.New("session: not found")

// ErrUnknownVariant is returned when a session file's type tag does not
// match any known credential variant. It is fatal for that file only;
// bulk loads skip the file and keep going.
var ErrUnknownVariant = errors.New("session: unknown config variant")

// MUSession is a stored credential record for the protobuf source.
type MUSession struct {
	ID      string
	Session string
	Device  mu.Platform
}

// Options configures a Store.
type Options struct {
	// Dir is the directory session files live in. Empty means
	// ~/.mangetsu.
	Dir    string
	Logger *zap.Logger
}

// Store reads and writes session files in one directory. Writes are
// whole-file replacements; concurrent processes writing the same
// account id race, which is a documented limitation.
type Store struct {
	dir string
	log *zap.Logger
}

// NewStore opens (and creates if needed) the session directory.
func NewStore(opts Options) (*Store, error) {
	dir := opts.Dir
	if dir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("session: resolve home dir: %w", err)
		}
		dir = filepath.Join(home, ".mangetsu")
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("session: create dir: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Store{dir: dir, log: logger}, nil
}

// Dir returns the session directory path.
func (s *Store) Dir() string { return s.dir }

// NewID returns a fresh random account id.
func NewID() string {
	var buf [16]byte
	if _, err := rand.Read(buf[:]); err != nil {
		panic(err)
	}
	return hex.EncodeToString(buf[:])
}

func (s *Store) path(prefix, id string) string {
	return filepath.Join(s.dir, prefix+"."+id+fileExt)
}

// SaveKM writes one cookie-source credential record. The config must
// carry a non-empty account id.
func (s *Store) SaveKM(cfg km.Config) error {
	if cfg.AccountKey() == "" {
		return fmt.Errorf("session: config has no account id")
	}

	data, err := encodeKM(cfg)
	if err != nil {
		return err
	}

	path := s.path(kmPrefix, cfg.AccountKey())
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return fmt.Errorf("session: write %s: %w", path, err)
	}

	s.log.Debug("session saved", zap.String("path", path))
	return nil
}

// LoadKM reads one cookie-source credential record by account id.
func (s *Store) LoadKM(id string) (km.Config, error) {
	path := s.path(kmPrefix, id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: read %s: %w", path, err)
	}

	return decodeKM(data)
}

// LoadAllKM reads every cookie-source credential record. Files that
// fail to decode are logged and skipped, so one bad file never hides
// the other accounts.
func (s *Store) LoadAllKM() ([]km.Config, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, kmPrefix+".*"+fileExt))
	if err != nil {
		return nil, fmt.Errorf("session: glob: %w", err)
	}

	var configs []km.Config
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn("skipping unreadable session file", zap.String("path", path), zap.Error(err))
			continue
		}

		cfg, err := decodeKM(data)
		if err != nil {
			s.log.Warn("skipping undecodable session file", zap.String("path", path), zap.Error(err))
			continue
		}

		configs = append(configs, cfg)
	}

	return configs, nil
}

// DeleteKM removes one cookie-source credential record.
func (s *Store) DeleteKM(id string) error {
	if err := os.Remove(s.path(kmPrefix, id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}

// SaveMU writes one protobuf-source credential record, assigning a
// fresh id when the record has none.
func (s *Store) SaveMU(rec *MUSession) error {
	if rec.ID == "" {
		rec.ID = NewID()
	}

	path := s.path(muPrefix, rec.ID)
	if err := os.WriteFile(path, encodeMU(rec), 0o600); err != nil {
		return fmt.Errorf("session: write %s: %w", path, err)
	}

	s.log.Debug("session saved", zap.String("path", path))
	return nil
}

// LoadMU reads one protobuf-source credential record by account id.
func (s *Store) LoadMU(id string) (*MUSession, error) {
	path := s.path(muPrefix, id)
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("session: read %s: %w", path, err)
	}

	return decodeMU(data)
}

// LoadAllMU reads every protobuf-source credential record, skipping
// files that fail to decode.
func (s *Store) LoadAllMU() ([]*MUSession, error) {
	paths, err := filepath.Glob(filepath.Join(s.dir, muPrefix+".*"+fileExt))
	if err != nil {
		return nil, fmt.Errorf("session: glob: %w", err)
	}

	var records []*MUSession
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			s.log.Warn("skipping unreadable session file", zap.String("path", path), zap.Error(err))
			continue
		}

		rec, err := decodeMU(data)
		if err != nil {
			s.log.Warn("skipping undecodable session file", zap.String("path", path), zap.Error(err))
			continue
		}

		records = append(records, rec)
	}

	return records, nil
}

// DeleteMU removes one protobuf-source credential record.
func (s *Store) DeleteMU(id string) error {
	if err := os.Remove(s.path(muPrefix, id)); err != nil {
		if os.IsNotExist(err) {
			return ErrNotFound
		}
		return fmt.Errorf("session: delete: %w", err)
	}
	return nil
}
