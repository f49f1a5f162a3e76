// Package ori implements the repository engine: a working tree tracked as
// an immutable history of commits over a content-addressed object store,
// with tree diffs, three-way merge and replication on top.
package ori

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/user"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/juju/fslock"
	"github.com/sirupsen/logrus"

	"github.com/pipcet/ori/internal/core/objects"
	"github.com/pipcet/ori/internal/core/store"
	"github.com/pipcet/ori/internal/core/treediff"
)

// FormatVersion is the on-disk repository format version.
const FormatVersion = "ORI1.0"

// LargeFileMinimum is the file size at and above which files are chunked
// into a LargeBlob rather than stored as a single Blob.
const LargeFileMinimum = 1024 * 1024

// Repository file names under <root>/.ori.
const (
	oriDirName     = ".ori"
	versionFile    = "version"
	idFile         = "id"
	headFile       = "HEAD"
	dirstateFile   = "dirstate"
	logFile        = "log"
	lockFile       = "lock"
	mergeStateFile = "mergestate"
	configFile     = "config"
)

var (
	// ErrNotRepository indicates no .ori directory at or above the path.
	ErrNotRepository = errors.New("not an ori repository")
	// ErrLocked indicates the repository lock is held by another process.
	ErrLocked = errors.New("repository is locked")
	// ErrNothingToCommit indicates an empty working-directory diff.
	ErrNothingToCommit = errors.New("nothing to commit")
	// ErrMergeConflict indicates unresolved conflicts block the operation.
	ErrMergeConflict = errors.New("unresolved merge conflicts")
)

// Repository is a working tree with its object store and metadata.
type Repository struct {
	root   string
	oriDir string
	store  *store.Store
	lock   *fslock.Lock
	locked bool
	log    *logrus.Logger
	logOut io.Closer
}

// Init creates the .ori layout under path and returns the open repository.
func Init(path string) (*Repository, error) {
	root, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	oriDir := filepath.Join(root, oriDirName)
	if _, err := os.Stat(filepath.Join(oriDir, versionFile)); err == nil {
		return nil, fmt.Errorf("repository already exists at %s", root)
	}

	if err := os.MkdirAll(oriDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create %s: %w", oriDir, err)
	}

	st := store.New(oriDir)
	if err := st.Init(); err != nil {
		return nil, err
	}

	files := map[string]string{
		versionFile: FormatVersion + "\n",
		idFile:      uuid.NewString() + "\n",
		headFile:    objects.EmptyCommit.String() + "\n",
	}
	for name, content := range files {
		if err := os.WriteFile(filepath.Join(oriDir, name), []byte(content), 0644); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", name, err)
		}
	}

	return Open(root)
}

// Open opens the repository containing path, searching upward for the .ori
// directory.
func Open(path string) (*Repository, error) {
	root, err := FindRoot(path)
	if err != nil {
		return nil, err
	}
	oriDir := filepath.Join(root, oriDirName)

	version, err := os.ReadFile(filepath.Join(oriDir, versionFile))
	if err != nil {
		return nil, fmt.Errorf("%w: %s has no version file", ErrNotRepository, root)
	}
	if v := strings.TrimSpace(string(version)); v != FormatVersion {
		return nil, fmt.Errorf("unsupported repository version %q", v)
	}

	r := &Repository{
		root:   root,
		oriDir: oriDir,
		store:  store.New(oriDir),
		lock:   fslock.New(filepath.Join(oriDir, lockFile)),
	}
	if err := r.openLog(); err != nil {
		return nil, err
	}

	return r, nil
}

// FindRoot walks upward from path to the directory holding .ori.
func FindRoot(path string) (string, error) {
	dir, err := filepath.Abs(path)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", path, err)
	}

	for {
		if info, err := os.Stat(filepath.Join(dir, oriDirName)); err == nil && info.IsDir() {
			return dir, nil
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", fmt.Errorf("%w: searched from %s", ErrNotRepository, path)
		}
		dir = parent
	}
}

// Close releases the lock if held and closes the operation log.
func (r *Repository) Close() error {
	if r.locked {
		r.Unlock()
	}
	if r.logOut != nil {
		return r.logOut.Close()
	}
	return nil
}

// Root returns the working tree root.
func (r *Repository) Root() string {
	return r.root
}

// OriDir returns the .ori metadata directory.
func (r *Repository) OriDir() string {
	return r.oriDir
}

// UUID returns the repository id.
func (r *Repository) UUID() (string, error) {
	raw, err := os.ReadFile(filepath.Join(r.oriDir, idFile))
	if err != nil {
		return "", fmt.Errorf("failed to read repository id: %w", err)
	}
	return strings.TrimSpace(string(raw)), nil
}

// Lock takes the exclusive repository lock. Every mutating operation runs
// under it; a lock held elsewhere fails with ErrLocked.
func (r *Repository) Lock() error {
	if r.locked {
		return nil
	}
	if err := r.lock.TryLock(); err != nil {
		if errors.Is(err, fslock.ErrLocked) {
			return ErrLocked
		}
		return fmt.Errorf("failed to lock repository: %w", err)
	}
	r.locked = true
	return nil
}

// Unlock releases the repository lock.
func (r *Repository) Unlock() {
	if !r.locked {
		return
	}
	r.lock.Unlock()
	r.locked = false
}

// openLog attaches the structured operation log appending to .ori/log.
func (r *Repository) openLog() error {
	f, err := os.OpenFile(filepath.Join(r.oriDir, logFile), os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("failed to open operation log: %w", err)
	}

	log := logrus.New()
	log.SetOutput(f)
	log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})

	r.log = log
	r.logOut = f
	return nil
}

// Log returns the repository's operation logger.
func (r *Repository) Log() *logrus.Logger {
	return r.log
}

// Author returns the commit author string, from ORI_AUTHOR or the current
// user and hostname.
func Author() string {
	if a := os.Getenv("ORI_AUTHOR"); a != "" {
		return a
	}

	name := "unknown"
	if u, err := user.Current(); err == nil {
		name = u.Username
	}
	host, err := os.Hostname()
	if err != nil {
		host = "localhost"
	}
	return name + "@" + host
}

// Store access.

// Get returns the object for hash.
func (r *Repository) Get(hash objects.ObjectHash) (objects.Object, error) {
	return r.store.Get(hash)
}

// Has reports whether hash is present locally.
func (r *Repository) Has(hash objects.ObjectHash) bool {
	return r.store.Has(hash)
}

// Verify re-hashes the stored payload for hash.
func (r *Repository) Verify(hash objects.ObjectHash) error {
	return r.store.Verify(hash)
}

// AddBlob stores data as a blob and returns its hash.
func (r *Repository) AddBlob(data []byte) (objects.ObjectHash, error) {
	obj := objects.NewBlob(data)
	if err := r.store.AddObject(obj); err != nil {
		return objects.ObjectHash{}, err
	}
	return obj.Info.Hash, nil
}

// AddTree stores a tree object and returns its hash.
func (r *Repository) AddTree(tree *objects.Tree) (objects.ObjectHash, error) {
	data, err := tree.Marshal()
	if err != nil {
		return objects.ObjectHash{}, err
	}
	obj := objects.NewObject(objects.KindTree, data)
	if err := r.store.AddObject(obj); err != nil {
		return objects.ObjectHash{}, err
	}
	return obj.Info.Hash, nil
}

// AddCommit stores a commit object and returns its hash.
func (r *Repository) AddCommit(c *objects.Commit) (objects.ObjectHash, error) {
	data, err := c.Marshal()
	if err != nil {
		return objects.ObjectHash{}, err
	}
	obj := objects.NewObject(objects.KindCommit, data)
	if err := r.store.AddObject(obj); err != nil {
		return objects.ObjectHash{}, err
	}
	return obj.Info.Hash, nil
}

// GetTree fetches and parses a tree object.
func (r *Repository) GetTree(hash objects.ObjectHash) (*objects.Tree, error) {
	obj, err := r.store.Get(hash)
	if err != nil {
		return nil, err
	}
	if obj.Info.Kind != objects.KindTree {
		return nil, fmt.Errorf("%w: %s is a %s, not a tree", objects.ErrCorrupt, hash.Short(), obj.Info.Kind)
	}
	return objects.UnmarshalTree(obj.Payload)
}

// GetCommit fetches and parses a commit object.
func (r *Repository) GetCommit(hash objects.ObjectHash) (*objects.Commit, error) {
	obj, err := r.store.Get(hash)
	if err != nil {
		return nil, err
	}
	if obj.Info.Kind != objects.KindCommit {
		return nil, fmt.Errorf("%w: %s is a %s, not a commit", objects.ErrCorrupt, hash.Short(), obj.Info.Kind)
	}
	return objects.UnmarshalCommit(obj.Payload)
}

// GetLargeBlob fetches and parses a LargeBlob manifest.
func (r *Repository) GetLargeBlob(hash objects.ObjectHash) (*objects.LargeBlob, error) {
	obj, err := r.store.Get(hash)
	if err != nil {
		return nil, err
	}
	if obj.Info.Kind != objects.KindLargeBlob {
		return nil, fmt.Errorf("%w: %s is a %s, not a largeblob", objects.ErrCorrupt, hash.Short(), obj.Info.Kind)
	}
	return objects.UnmarshalLargeBlob(obj.Payload)
}

// Parents implements the commit-graph interface for LCA traversal.
func (r *Repository) Parents(hash objects.ObjectHash) ([]objects.ObjectHash, error) {
	c, err := r.GetCommit(hash)
	if err != nil {
		return nil, err
	}
	return c.Parents(), nil
}

// Protocol backend.

// ListInfos enumerates the info records of all stored objects.
func (r *Repository) ListInfos() ([]objects.ObjectInfo, error) {
	return r.store.List()
}

// ListCommitBlobs returns the canonical bytes of every stored commit.
func (r *Repository) ListCommitBlobs() ([][]byte, error) {
	infos, err := r.store.List()
	if err != nil {
		return nil, err
	}

	var blobs [][]byte
	for _, info := range infos {
		if info.Kind != objects.KindCommit {
			continue
		}
		obj, err := r.store.Get(info.Hash)
		if err != nil {
			return nil, err
		}
		blobs = append(blobs, obj.Payload)
	}
	return blobs, nil
}

// GetRaw returns an object's header and stored payload for replication.
func (r *Repository) GetRaw(hash objects.ObjectHash) (objects.ObjectInfo, []byte, error) {
	return r.store.GetRaw(hash)
}

// AddRaw stores an object received in transfer form, verifying it first.
func (r *Repository) AddRaw(info objects.ObjectInfo, stored []byte) error {
	return r.store.AddRaw(info, stored)
}

var (
	_ treediff.TreeSource = (*Repository)(nil)
	_ treediff.TreeAdder  = (*Repository)(nil)
)
