// Package keystore keeps encrypted files in a directory, protected by one
// password.
//
// The directory holds a .passhash file with the exported password hash and one
// file per entry, each encrypted with the hash's CipherSet. Writes go through a
// temporary file and a rename so a crash never leaves a torn entry.
package keystore

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"github.com/opd-ai/envelope/crypto"
	"github.com/opd-ai/envelope/cryptoerr"
	"github.com/opd-ai/envelope/passwordhash"
	"github.com/sirupsen/logrus"
	"go.uber.org/atomic"
)

const (
	// HashFile holds the exported password hash.
	HashFile = ".passhash"

	tmpSuffix   = ".tmp"
	rekeySuffix = ".rekey" + tmpSuffix
)

// Store is a password-protected directory of encrypted entries.
type Store struct {
	provider crypto.Provider
	cfg      crypto.Config
	dataDir  string
	hashFile string

	mu   sync.RWMutex
	hash *passwordhash.PasswordHash

	reads   atomic.Uint64
	writes  atomic.Uint64
	deletes atomic.Uint64
}

// Stats counts store operations since Open.
type Stats struct {
	Reads   uint64
	Writes  uint64
	Deletes uint64
}

// Open opens the store in dataDir, creating it with password when it has no
// hash file yet. A wrong password returns cryptoerr.ErrWrongPassword. The
// password is zeroed before Open returns.
func Open(provider crypto.Provider, cfg crypto.Config, dataDir string, password []byte) (*Store, error) {
	logger := crypto.NewPackageLogger("keystore", "Open").WithField("data_dir", dataDir)

	if len(password) == 0 {
		return nil, cryptoerr.Logicf("password cannot be empty")
	}
	if err := os.MkdirAll(dataDir, 0o700); err != nil {
		crypto.ZeroBytes(password)
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}

	s := &Store{
		provider: provider,
		cfg:      cfg,
		dataDir:  dataDir,
		hashFile: filepath.Join(dataDir, HashFile),
	}

	blob, err := os.ReadFile(s.hashFile)
	switch {
	case err == nil:
		s.hash, err = passwordhash.Open(provider, cfg, blob, password)
		if err != nil {
			logger.WithError(err, "open").Warn("Failed to unlock key store")
			return nil, err
		}
		logger.Debug("Key store unlocked")
	case os.IsNotExist(err):
		s.hash, err = passwordhash.New(provider, cfg, password)
		if err != nil {
			return nil, err
		}
		if err := s.writeAtomic(s.hashFile, s.hash.Bytes()); err != nil {
			s.hash.Destroy()
			return nil, err
		}
		logger.WithFields(crypto.OperationFields("create", "success")).Info("Key store created")
	default:
		crypto.ZeroBytes(password)
		return nil, fmt.Errorf("failed to read password hash: %w", err)
	}
	return s, nil
}

// entryPath validates name and returns its path.
func (s *Store) entryPath(name string) (string, error) {
	if name == "" || name == HashFile || strings.HasSuffix(name, tmpSuffix) ||
		strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return "", cryptoerr.Logicf("invalid entry name %q", name)
	}
	return filepath.Join(s.dataDir, name), nil
}

func (s *Store) unlocked() (*passwordhash.PasswordHash, error) {
	if s.hash == nil {
		return nil, cryptoerr.Logicf("key store closed")
	}
	return s.hash, nil
}

// writeAtomic writes through a temporary file and a rename.
func (s *Store) writeAtomic(path string, data []byte) error {
	tmpFile := path + tmpSuffix
	if err := os.WriteFile(tmpFile, data, 0o600); err != nil {
		return fmt.Errorf("failed to write temporary file: %w", err)
	}
	if err := os.Rename(tmpFile, path); err != nil {
		os.Remove(tmpFile)
		return fmt.Errorf("failed to rename file: %w", err)
	}
	return nil
}

// Put stores plaintext under a fresh random name and returns the name.
func (s *Store) Put(plaintext []byte) (string, error) {
	name := uuid.NewString()
	if err := s.WriteEncrypted(name, plaintext); err != nil {
		return "", err
	}
	return name, nil
}

// WriteEncrypted encrypts plaintext and writes it as entry name, replacing any
// previous content.
func (s *Store) WriteEncrypted(name string, plaintext []byte) error {
	path, err := s.entryPath(name)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	ph, err := s.unlocked()
	if err != nil {
		return err
	}
	ct, err := ph.EncryptBytes(plaintext)
	if err != nil {
		return err
	}
	if err := s.writeAtomic(path, ct); err != nil {
		return err
	}
	s.writes.Inc()
	return nil
}

// ReadEncrypted reads and decrypts entry name. Corrupt content fails with a
// cryptoerr.ErrData error.
func (s *Store) ReadEncrypted(name string) ([]byte, error) {
	path, err := s.entryPath(name)
	if err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	ph, err := s.unlocked()
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	plaintext, err := ph.DecryptBytes(data)
	if err != nil {
		crypto.NewPackageLogger("keystore", "ReadEncrypted").
			WithField("entry", name).
			WithError(err, "read").
			Warn("Entry failed to decrypt")
		return nil, err
	}
	s.reads.Inc()
	return plaintext, nil
}

// DeleteEncrypted overwrites entry name with zeros and removes it. Deleting a
// missing entry is not an error.
func (s *Store) DeleteEncrypted(name string) error {
	path, err := s.entryPath(name)
	if err != nil {
		return err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := deleteFile(path); err != nil {
		return err
	}
	s.deletes.Inc()
	return nil
}

func deleteFile(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to stat file: %w", err)
	}

	// Best effort; the file is removed either way.
	zeros := make([]byte, info.Size())
	_ = os.WriteFile(path, zeros, 0o600)
	return os.Remove(path)
}

// List returns the entry names in lexical order.
func (s *Store) List() ([]string, error) {
	entries, err := os.ReadDir(s.dataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to list files: %w", err)
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || name == HashFile || strings.HasSuffix(name, tmpSuffix) {
			continue
		}
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// ChangePassword re-encrypts every entry under a hash of newPassword. The
// re-encrypted entries are staged next to the originals and only replace them
// once the new hash file is written; on failure the store keeps working with
// the old password. newPassword is zeroed before ChangePassword returns.
func (s *Store) ChangePassword(newPassword []byte) error {
	logger := crypto.NewPackageLogger("keystore", "ChangePassword")
	logger.Entry("re-encrypting entries")
	defer logger.Exit()
	if len(newPassword) == 0 {
		return cryptoerr.Logicf("new password cannot be empty")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	old, err := s.unlocked()
	if err != nil {
		crypto.ZeroBytes(newPassword)
		return err
	}

	names, err := s.List()
	if err != nil {
		crypto.ZeroBytes(newPassword)
		return err
	}
	plaintexts := make(map[string][]byte, len(names))
	defer func() {
		for _, p := range plaintexts {
			crypto.ZeroBytes(p)
		}
	}()
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(s.dataDir, name))
		if err != nil {
			crypto.ZeroBytes(newPassword)
			return fmt.Errorf("failed to read %s: %w", name, err)
		}
		p, err := old.DecryptBytes(data)
		if err != nil {
			crypto.ZeroBytes(newPassword)
			return fmt.Errorf("failed to decrypt %s: %w", name, err)
		}
		plaintexts[name] = p
	}

	next, err := passwordhash.New(s.provider, s.cfg, newPassword)
	if err != nil {
		return err
	}

	staged := make(map[string]string, len(names))
	discard := func() {
		for _, tmp := range staged {
			os.Remove(tmp)
		}
		next.Destroy()
	}
	for _, name := range names {
		tmp := filepath.Join(s.dataDir, name+rekeySuffix)
		ct, err := next.EncryptBytes(plaintexts[name])
		if err == nil {
			err = os.WriteFile(tmp, ct, 0o600)
		}
		if err != nil {
			discard()
			return fmt.Errorf("failed to stage %s: %w", name, err)
		}
		staged[name] = tmp
	}

	if err := s.writeAtomic(s.hashFile, next.Bytes()); err != nil {
		discard()
		logger.WithError(err, "change_password").Warn("Password change aborted")
		return err
	}

	committed := make([]string, 0, len(names))
	for _, name := range names {
		if err := os.Rename(staged[name], filepath.Join(s.dataDir, name)); err != nil {
			if rbErr := s.restore(old, committed, plaintexts); rbErr != nil {
				logger.WithError(rbErr, "rollback").Error("Failed to restore old password")
			}
			discard()
			return fmt.Errorf("failed to commit %s: %w", name, err)
		}
		committed = append(committed, name)
	}

	old.Destroy()
	s.hash = next
	logger.WithFields(crypto.OperationFields("change_password", "success", logrus.Fields{
		"entries": len(names),
	})).Info("Key store password changed")
	return nil
}

// restore re-encrypts names under old and puts its hash file back.
func (s *Store) restore(old *passwordhash.PasswordHash, names []string, plaintexts map[string][]byte) error {
	for _, name := range names {
		ct, err := old.EncryptBytes(plaintexts[name])
		if err == nil {
			err = s.writeAtomic(filepath.Join(s.dataDir, name), ct)
		}
		if err != nil {
			return fmt.Errorf("failed to restore %s: %w", name, err)
		}
	}
	return s.writeAtomic(s.hashFile, old.Bytes())
}

// Stats returns the operation counters.
func (s *Store) Stats() Stats {
	return Stats{
		Reads:   s.reads.Load(),
		Writes:  s.writes.Load(),
		Deletes: s.deletes.Load(),
	}
}

// Close wipes the key material. The store cannot be used afterwards.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hash == nil {
		return cryptoerr.Logicf("key store already closed")
	}
	s.hash.Destroy()
	s.hash = nil
	return nil
}
