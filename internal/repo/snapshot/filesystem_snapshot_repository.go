package snapshot

import (
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/mkrupp/homecase-gameapp/internal/domain"
	"github.com/mkrupp/homecase-gameapp/internal/infra/logging"
)

const fileExt = "xml"

// FileSystemSnapshotRepositoryConfig holds configuration for the filesystem snapshot repository.
type FileSystemSnapshotRepositoryConfig struct {
	// Basedir is the directory snapshot files are written to
	Basedir string `env:"BASEDIR" default:"var/storage/sessions"`
}

// FileSystemSnapshotRepositoryFactory creates a RepositoryFactory for FileSystemRepository.
func FileSystemSnapshotRepositoryFactory(cfg FileSystemSnapshotRepositoryConfig) RepositoryFactory {
	return func(ctx context.Context) (Repository, error) {
		return NewFileSystemSnapshotRepository(ctx, cfg)
	}
}

// FileSystemRepository implements Repository with one XML file per user.
type FileSystemRepository struct {
	cfg FileSystemSnapshotRepositoryConfig
	log logging.Logger
	m   *sync.Mutex
}

var _ Repository = (*FileSystemRepository)(nil)

// NewFileSystemSnapshotRepository creates the base directory and returns the repository.
func NewFileSystemSnapshotRepository(
	ctx context.Context,
	cfg FileSystemSnapshotRepositoryConfig,
) (*FileSystemRepository, error) {
	repo := &FileSystemRepository{
		cfg: cfg,
		log: logging.GetLogger("repo.snapshot.filesystem_repository").With(
			logging.Group("repo", "basedir", cfg.Basedir),
		),
		m: new(sync.Mutex),
	}

	if err := repo.initStorage(ctx); err != nil {
		return nil, fmt.Errorf("init repo: %w", err)
	}

	return repo, nil
}

func (fsRepo *FileSystemRepository) initStorage(ctx context.Context) (err error) {
	defer func() {
		if err != nil {
			fsRepo.log.ErrorContext(ctx, "init storage failed", "error", err)
		} else {
			fsRepo.log.DebugContext(ctx, "init storage")
		}
	}()

	if err := os.MkdirAll(fsRepo.cfg.Basedir, 0o755); err != nil {
		return fmt.Errorf("mkdir all: %w", err)
	}

	return nil
}

// GetFilename returns the path of the snapshot file of the user.
func (fsRepo *FileSystemRepository) GetFilename(userID int64) string {
	return filepath.Join(fsRepo.cfg.Basedir, strconv.FormatInt(userID, 10)+"."+fileExt)
}

// Store implements Repository.Store. The file is replaced atomically.
func (fsRepo *FileSystemRepository) Store(ctx context.Context, snapshot *domain.SessionSnapshot) (err error) {
	filename := fsRepo.GetFilename(snapshot.UserID)

	defer func() {
		log := fsRepo.log.With(logging.Group("snapshot", "userId", snapshot.UserID, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "snapshot store failed", "error", err)
		} else {
			log.DebugContext(ctx, "snapshot stored")
		}
	}()

	body, err := xml.MarshalIndent(snapshot, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}

	fsRepo.m.Lock()
	defer fsRepo.m.Unlock()

	tmp, err := os.CreateTemp(fsRepo.cfg.Basedir, ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.WriteString(xml.Header); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("write header: %w", err)
	}

	if _, err := tmp.Write(body); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("write: %w", err)
	}

	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()

		return fmt.Errorf("sync: %w", err)
	}

	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close: %w", err)
	}

	if err := os.Rename(tmp.Name(), filename); err != nil {
		return fmt.Errorf("rename: %w", err)
	}

	return nil
}

// Fetch implements Repository.Fetch.
func (fsRepo *FileSystemRepository) Fetch(
	ctx context.Context,
	userID int64,
) (snapshot *domain.SessionSnapshot, err error) {
	filename := fsRepo.GetFilename(userID)

	defer func() {
		log := fsRepo.log.With(logging.Group("snapshot", "userId", userID, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "snapshot fetch failed", "error", err)
		} else {
			log.DebugContext(ctx, "snapshot fetched")
		}
	}()

	fsRepo.m.Lock()
	defer fsRepo.m.Unlock()

	body, err := os.ReadFile(filename)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = errors.Join(domain.ErrSnapshotNotFound, err)
		}

		return nil, fmt.Errorf("read: %w", err)
	}

	snapshot = new(domain.SessionSnapshot)
	if err := xml.Unmarshal(body, snapshot); err != nil {
		return nil, fmt.Errorf("unmarshal: %w", err)
	}

	if snapshot.Games == nil {
		snapshot.Games = []domain.SnapshotGameRef{}
	}

	return snapshot, nil
}

// Exists implements Repository.Exists.
func (fsRepo *FileSystemRepository) Exists(_ context.Context, userID int64) bool {
	fsRepo.m.Lock()
	defer fsRepo.m.Unlock()

	_, err := os.Stat(fsRepo.GetFilename(userID))

	return err == nil
}

// Delete implements Repository.Delete.
func (fsRepo *FileSystemRepository) Delete(ctx context.Context, userID int64) (err error) {
	filename := fsRepo.GetFilename(userID)

	defer func() {
		log := fsRepo.log.With(logging.Group("snapshot", "userId", userID, "filename", filename))
		if err != nil {
			log.ErrorContext(ctx, "snapshot delete failed", "error", err)
		} else {
			log.DebugContext(ctx, "snapshot deleted")
		}
	}()

	fsRepo.m.Lock()
	defer fsRepo.m.Unlock()

	if err := os.Remove(filename); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			err = errors.Join(domain.ErrSnapshotNotFound, err)
		}

		return fmt.Errorf("remove: %w", err)
	}

	return nil
}

// Prune implements Repository.Prune using the modification time of the snapshot files.
func (fsRepo *FileSystemRepository) Prune(ctx context.Context, cutoff time.Time) (removed int, err error) {
	defer func() {
		log := fsRepo.log.With(logging.Group("prune", "cutoff", cutoff, "removed", removed))
		if err != nil {
			log.ErrorContext(ctx, "snapshot prune failed", "error", err)
		} else {
			log.DebugContext(ctx, "snapshots pruned")
		}
	}()

	fsRepo.m.Lock()
	defer fsRepo.m.Unlock()

	entries, err := os.ReadDir(fsRepo.cfg.Basedir)
	if err != nil {
		return 0, fmt.Errorf("read dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), "."+fileExt) {
			continue
		}

		info, err := entry.Info()
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}

			return removed, fmt.Errorf("stat %s: %w", entry.Name(), err)
		}

		if !info.ModTime().Before(cutoff) {
			continue
		}

		if err := os.Remove(filepath.Join(fsRepo.cfg.Basedir, entry.Name())); err != nil {
			return removed, fmt.Errorf("remove %s: %w", entry.Name(), err)
		}

		removed++
	}

	return removed, nil
}
