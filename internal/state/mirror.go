package state

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/natefinch/atomic"

	"github.com/five82/codecks-bot/internal/codecks"
)

var (
	// ErrMirrorNotFound reports that no mirror has been written yet.
	ErrMirrorNotFound = errors.New("project mirror not found")

	// ErrMirrorCorrupt reports a mirror that exists but cannot be decoded.
	ErrMirrorCorrupt = errors.New("project mirror corrupt")
)

// Mirror persists the snapshot outside process memory.
type Mirror interface {
	Load(ctx context.Context) (Document, error)
	Save(ctx context.Context, doc Document) error
}

// Document is the serialized snapshot.
type Document struct {
	Decks      map[string]Deck `json:"decks"`
	Cards      map[string]Card `json:"cards"`
	LastUpdate string          `json:"last_update"`
}

func newDocument(decks map[string]Deck, cards map[string]Card, lastUpdate time.Time) Document {
	return Document{
		Decks:      decks,
		Cards:      cards,
		LastUpdate: lastUpdate.UTC().Format(codecks.TimestampLayout),
	}
}

// ParsedLastUpdate returns the stored timestamp.
func (d Document) ParsedLastUpdate() (time.Time, error) {
	t, err := time.Parse(codecks.TimestampLayout, d.LastUpdate)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse last_update %q: %w", d.LastUpdate, err)
	}
	return t.UTC(), nil
}

func encodeDocument(doc Document) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode mirror: %w", err)
	}
	return data, nil
}

func decodeDocument(data []byte) (Document, error) {
	var doc Document
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMirrorCorrupt, err)
	}
	if _, err := doc.ParsedLastUpdate(); err != nil {
		return Document{}, fmt.Errorf("%w: %v", ErrMirrorCorrupt, err)
	}
	if doc.Decks == nil {
		doc.Decks = map[string]Deck{}
	}
	if doc.Cards == nil {
		doc.Cards = map[string]Card{}
	}
	return doc, nil
}

// FileMirror stores the snapshot as <dir>/<account>/codecks.json.
type FileMirror struct {
	path string
}

const mirrorFileName = "codecks.json"

// NewFileMirror builds a FileMirror namespaced by account.
func NewFileMirror(dataDir, account string) (*FileMirror, error) {
	if err := validateAccount(account); err != nil {
		return nil, err
	}
	if strings.TrimSpace(dataDir) == "" {
		return nil, fmt.Errorf("data dir is empty")
	}
	return &FileMirror{path: filepath.Join(dataDir, account, mirrorFileName)}, nil
}

// Path returns the mirror file location.
func (m *FileMirror) Path() string { return m.path }

// Load reads and decodes the mirror file.
func (m *FileMirror) Load(_ context.Context) (Document, error) {
	data, err := os.ReadFile(m.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return Document{}, ErrMirrorNotFound
		}
		return Document{}, fmt.Errorf("read mirror: %w", err)
	}
	return decodeDocument(data)
}

// Save replaces the mirror file atomically so a crash never leaves a torn file.
func (m *FileMirror) Save(_ context.Context, doc Document) error {
	data, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(m.path), 0o755); err != nil {
		return fmt.Errorf("create mirror dir: %w", err)
	}
	if err := atomic.WriteFile(m.path, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("write mirror: %w", err)
	}
	return nil
}

func validateAccount(account string) error {
	trimmed := strings.TrimSpace(account)
	if trimmed == "" {
		return fmt.Errorf("account is empty")
	}
	if trimmed != account || strings.ContainsAny(account, `/\:`) || account == "." || account == ".." {
		return fmt.Errorf("account %q is not a valid namespace", account)
	}
	return nil
}
