package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github/itish2003/notevault/extract"
	"github/itish2003/notevault/storage"
)

// Importer keeps an on-disk directory and the document corpus in sync.
// Files become documents keyed by their path; the stored content hash
// decides whether a file needs re-importing. All mutations go through the
// Documents service so they run under the usual per-document locks.
type Importer struct {
	documents *Documents
	store     *storage.DocumentStore
	dir       string
}

func NewImporter(documents *Documents, store *storage.DocumentStore, dir string) *Importer {
	return &Importer{documents: documents, store: store, dir: dir}
}

// Scan walks the import directory once: new and changed files are
// imported, documents whose files are gone are deleted. Per-file failures
// are logged and skipped.
func (s *Importer) Scan(ctx context.Context) {
	log.Printf("INDEXER: Starting directory scan for: %s", s.dir)

	imported, err := s.store.AllImported()
	if err != nil {
		log.Printf("INDEXER ERROR: Could not load imported documents: %v", err)
		return
	}
	log.Printf("INDEXER: Found %d files currently imported.", len(imported))

	localFiles := make(map[string]bool)
	err = filepath.Walk(s.dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !extract.Supported(path) {
			return nil
		}
		localFiles[path] = true
		if err := s.importFile(ctx, path); err != nil {
			log.Printf("INDEXER ERROR: Failed to import file %s: %v", path, err)
		}
		return nil
	})
	if err != nil {
		log.Printf("INDEXER ERROR: Error walking the path %s: %v", s.dir, err)
	}

	for _, doc := range imported {
		if localFiles[doc.SourcePath] {
			continue
		}
		log.Printf("INDEXER: File deleted: %s. Removing document...", doc.SourcePath)
		if err := s.documents.DeleteBySourcePath(ctx, doc.SourcePath); err != nil {
			log.Printf("INDEXER ERROR: Failed to delete document for %s: %v", doc.SourcePath, err)
		}
	}
	log.Println("INDEXER: Directory scan finished.")
}

// Watch blocks watching the import directory until the context ends.
// Editors often save by writing a temp file and renaming, so Create and
// Write are handled identically.
func (s *Importer) Watch(ctx context.Context) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		log.Printf("WATCHER ERROR: Failed to create file watcher: %v", err)
		return
	}
	defer watcher.Close()

	go func() {
		for {
			select {
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !extract.Supported(event.Name) {
					continue
				}

				log.Printf("WATCHER EVENT: %s", event)

				if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
					log.Printf("WATCHER: File modified/created: %s. Re-importing...", event.Name)
					if err := s.importFile(ctx, event.Name); err != nil {
						log.Printf("WATCHER ERROR: Failed to import file %s: %v", event.Name, err)
					}
				} else if event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename) {
					log.Printf("WATCHER: File removed/renamed: %s. Removing document...", event.Name)
					if err := s.documents.DeleteBySourcePath(ctx, event.Name); err != nil {
						log.Printf("WATCHER ERROR: Failed to delete document for %s: %v", event.Name, err)
					}
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("WATCHER ERROR: %v", err)
			case <-ctx.Done():
				log.Println("WATCHER: Context cancelled, shutting down watcher.")
				return
			}
		}
	}()

	log.Printf("WATCHER: Watching directory: %s", s.dir)
	if err := watcher.Add(s.dir); err != nil {
		log.Printf("WATCHER ERROR: Failed to add path to watcher: %v", err)
	}

	<-ctx.Done()
}

func (s *Importer) importFile(ctx context.Context, path string) error {
	hash, err := fileHash(path)
	if err != nil {
		return err
	}
	if existing, err := s.store.GetBySourcePath(path); err == nil && existing.ContentHash == hash {
		return nil
	}
	content, err := extract.TextFromFile(path)
	if err != nil {
		return err
	}
	_, err = s.documents.UpsertFromFile(ctx, path, titleFromPath(path), content, hash)
	return err
}

func titleFromPath(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func fileHash(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()
	hash := sha256.New()
	if _, err := io.Copy(hash, file); err != nil {
		return "", err
	}
	return hex.EncodeToString(hash.Sum(nil)), nil
}
