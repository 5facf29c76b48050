package recipient

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"SignalDesk/internal/model"
)

// Store persists recipients keyed by id.
type Store interface {
	Get(id string) (model.Recipient, bool, error)
	Upsert(r model.Recipient) error
	List() ([]model.Recipient, error)
}

// FileStore keeps every recipient in one JSON document. Each write replaces
// the whole document; concurrent writers resolve as last-write-wins.
type FileStore struct {
	mu       sync.Mutex
	filePath string
}

// NewFileStore returns a store backed by filePath. The file is created on first write.
func NewFileStore(filePath string) *FileStore {
	return &FileStore{filePath: filePath}
}

func (s *FileStore) Get(id string) (model.Recipient, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := loadDocument(s.filePath)
	if err != nil {
		return model.Recipient{}, false, err
	}
	r, ok := doc[id]
	if ok {
		r.ID = id
	}
	return r, ok, nil
}

func (s *FileStore) Upsert(r model.Recipient) error {
	if r.ID == "" {
		return fmt.Errorf("upsert recipient: empty id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := loadDocument(s.filePath)
	if err != nil {
		return err
	}
	doc[r.ID] = r
	return saveDocument(s.filePath, doc)
}

// List returns all recipients ordered by id.
func (s *FileStore) List() ([]model.Recipient, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, err := loadDocument(s.filePath)
	if err != nil {
		return nil, err
	}
	out := make([]model.Recipient, 0, len(doc))
	for id, r := range doc {
		r.ID = id
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

// loadDocument reads the recipient document. A missing file is an empty registry.
func loadDocument(filePath string) (map[string]model.Recipient, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return map[string]model.Recipient{}, nil
		}
		return nil, fmt.Errorf("read recipients: %w", err)
	}
	doc := map[string]model.Recipient{}
	if len(data) == 0 {
		return doc, nil
	}
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode recipients: %w", err)
	}
	return doc, nil
}

func saveDocument(filePath string, doc map[string]model.Recipient) error {
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("create recipients dir: %w", err)
		}
	}
	tmp := filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write recipients: %w", err)
	}
	return os.Rename(tmp, filePath)
}
