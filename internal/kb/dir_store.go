package kb

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
)

// DirStore reads knowledge base documents from a local directory.
type DirStore struct {
	dir string
}

func NewDirStore(dir string) *DirStore {
	return &DirStore{dir: dir}
}

func (s *DirStore) Load(_ context.Context, domain string) (*Document, error) {
	path := filepath.Join(s.dir, DocumentKey(domain))

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to read knowledge base file: %w", err)
	}

	return decodeDocument(data)
}

// Domains lists every domain that has a document in the directory.
func (s *DirStore) Domains() ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list knowledge base directory: %w", err)
	}

	var domains []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if len(name) > len("knowledge-base-.json") &&
			name[:len("knowledge-base-")] == "knowledge-base-" &&
			filepath.Ext(name) == ".json" {
			domains = append(domains, name[len("knowledge-base-"):len(name)-len(".json")])
		}
	}
	return domains, nil
}
