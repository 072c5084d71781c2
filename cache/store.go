// Package cache stores generated source on disk, one file per type, and
// decides whether a stored file is still valid for the running version.
//
// Validity is read from the file itself on every lookup: the first line must
// be "// GEN_VERSION = <version>". Anything else found at a looked-up path is
// stale and is removed.
package cache

import (
	"bufio"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/sghaida/autocode/typename"
)

// FileSuffix marks files owned by the store.
const FileSuffix = ".gen.go"

var headerTag = regexp.MustCompile(`^// GEN_VERSION = (.+)$`)

// ConfigurationError reports a generation root that cannot be used.
type ConfigurationError struct {
	Root string
	Err  error
}

func (e *ConfigurationError) Error() string {
	return "cache: generation root " + e.Root + " is not writable: " + e.Err.Error()
}

func (e *ConfigurationError) Unwrap() error { return e.Err }

// Entry is a stored file and the tag read from its header.
type Entry struct {
	Path string
	Tag  string
}

// Valid reports whether the entry was written by version.
func (e Entry) Valid(version string) bool { return e.Tag == version }

// tempFile abstracts an os.File for testability.
type tempFile interface {
	Name() string
	Write([]byte) (int, error)
	Close() error
}

// fileOps are the filesystem calls the store makes, overridden in tests.
type fileOps struct {
	createTemp func(dir, pattern string) (tempFile, error)
	chmod      func(name string, mode os.FileMode) error
	rename     func(oldpath, newpath string) error
	remove     func(name string) error
	mkdirAll   func(path string, perm os.FileMode) error
	open       func(name string) (io.ReadCloser, error)
}

func osFileOps() fileOps {
	return fileOps{
		createTemp: func(dir, pattern string) (tempFile, error) { return os.CreateTemp(dir, pattern) },
		chmod:      os.Chmod,
		rename:     os.Rename,
		remove:     os.Remove,
		mkdirAll:   os.MkdirAll,
		open:       func(name string) (io.ReadCloser, error) { return os.Open(name) },
	}
}

// Store is the on-disk artifact cache rooted at a generation directory.
type Store struct {
	root    string
	version string
	perm    os.FileMode
	ops     fileOps
}

// Option configures a Store.
type Option func(*Store)

// WithFileMode sets the permission bits of written files (default 0644).
func WithFileMode(perm os.FileMode) Option {
	return func(s *Store) { s.perm = perm }
}

// NewStore returns a store rooted at root. The root is created if missing and
// must be writable, otherwise a *ConfigurationError is returned.
func NewStore(root, version string, opts ...Option) (*Store, error) {
	if strings.TrimSpace(version) == "" {
		return nil, errors.New("cache: empty version tag")
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, &ConfigurationError{Root: root, Err: err}
	}

	s := &Store{root: abs, version: version, perm: 0o644, ops: osFileOps()}
	for _, opt := range opts {
		opt(s)
	}

	if err := s.probe(); err != nil {
		return nil, &ConfigurationError{Root: abs, Err: err}
	}
	return s, nil
}

// probe creates and removes a scratch file in the root.
func (s *Store) probe() error {
	if err := s.ops.mkdirAll(s.root, 0o755); err != nil {
		return err
	}
	f, err := s.ops.createTemp(s.root, ".autocode-probe-*")
	if err != nil {
		return err
	}
	name := f.Name()
	closeErr := f.Close()
	removeErr := s.ops.remove(name)
	if closeErr != nil {
		return closeErr
	}
	return removeErr
}

func (s *Store) Root() string    { return s.root }
func (s *Store) Version() string { return s.version }

// Path maps a type name to its file: root/<namespace dirs>/<Name>.gen.go.
// The name is kept verbatim so distinct types never share a file.
func (s *Store) Path(tn typename.TypeName) string {
	return filepath.Join(s.root, filepath.FromSlash(tn.Namespace), tn.Name+FileSuffix)
}

// Lookup returns the entry at path if it exists and is valid.
//
// A file with a missing, unparseable or mismatched tag is deleted and
// reported as a miss. Deletion is best-effort.
func (s *Store) Lookup(path string) (Entry, bool) {
	tag, exists, err := s.readTag(path)
	if !exists {
		return Entry{}, false
	}
	if err != nil || tag != s.version {
		_ = s.ops.remove(path)
		return Entry{}, false
	}
	return Entry{Path: path, Tag: tag}, true
}

// readTag reads the version tag from the first line of path.
func (s *Store) readTag(path string) (tag string, exists bool, err error) {
	f, err := s.ops.open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", false, nil
		}
		return "", true, err
	}
	defer f.Close()

	line, err := bufio.NewReader(io.LimitReader(f, 4096)).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", true, err
	}
	m := headerTag.FindStringSubmatch(strings.TrimRight(line, "\r\n"))
	if m == nil {
		return "", true, errors.Newf("cache: %s has no version header", path)
	}
	return m[1], true, nil
}

// validAt reports whether path currently holds a file for this version.
func (s *Store) validAt(path string) bool {
	tag, exists, err := s.readTag(path)
	return exists && err == nil && tag == s.version
}

// Write persists content at path atomically.
//
// Parent directories are created as needed; a directory created concurrently
// by someone else is fine. If another writer got there first with a valid
// file, before or after our rename, the write counts as done.
func (s *Store) Write(path string, content []byte) error {
	if err := s.ops.mkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrapf(err, "cache: create directory for %s", path)
	}
	if s.validAt(path) {
		return nil
	}
	if err := s.writeFileAtomic(path, content); err != nil {
		if s.validAt(path) {
			return nil
		}
		return errors.Wrapf(err, "cache: write %s", path)
	}
	return nil
}

// writeFileAtomic writes to a temporary file in the same directory and then
// renames it over the target path, so readers never observe partial writes.
func (s *Store) writeFileAtomic(targetPath string, data []byte) (err error) {
	tmpFile, err := s.ops.createTemp(filepath.Dir(targetPath), filepath.Base(targetPath)+".tmp-*")
	if err != nil {
		return err
	}
	tmpPath := tmpFile.Name()

	defer func() {
		if err != nil {
			_ = s.ops.remove(tmpPath)
		}
	}()

	if _, err = tmpFile.Write(data); err != nil {
		_ = tmpFile.Close()
		return err
	}
	if err = tmpFile.Close(); err != nil {
		return err
	}
	if err = s.ops.chmod(tmpPath, s.perm); err != nil {
		return err
	}
	return s.ops.rename(tmpPath, targetPath)
}

// Clean removes every file under the root that carries a version header with
// another tag, and returns the removed paths. Files without the header belong
// to someone else and are left alone, whatever their suffix.
func (s *Store) Clean() ([]string, error) {
	var removed []string
	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() || !strings.HasSuffix(path, FileSuffix) {
			return nil
		}
		tag, exists, err := s.readTag(path)
		if !exists || err != nil || tag == s.version {
			return nil
		}
		if err := s.ops.remove(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		removed = append(removed, path)
		return nil
	})
	if err != nil {
		return removed, errors.Wrapf(err, "cache: clean %s", s.root)
	}
	return removed, nil
}
