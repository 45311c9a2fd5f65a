package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
)

var (
	ErrNotFound      = errors.New("document not found")
	ErrUnknownDriver = errors.New("unknown store driver")
)

// Store persists documents keyed by "<type>-<id>".
type Store interface {
	// Save upserts all documents in one batch.
	Save(ctx context.Context, docs ...Document) error
	// Fetch decodes a single document into out.
	Fetch(ctx context.Context, docType, id string, out any) error
	// QueryByType returns all documents of a type.
	QueryByType(ctx context.Context, docType string) ([]RawDocument, error)
	// Delete removes documents by key. Missing keys are ignored.
	Delete(ctx context.Context, keys ...string) error
	Close(ctx context.Context) error
}

// RawDocument is a stored document that has not been decoded yet.
type RawDocument struct {
	Key    string
	Type   string
	decode func(out any) error
}

// Decode unmarshals the document body into out.
func (r RawDocument) Decode(out any) error {
	return r.decode(out)
}

func jsonDocument(key, docType string, body []byte) RawDocument {
	return RawDocument{
		Key:  key,
		Type: docType,
		decode: func(out any) error {
			return json.Unmarshal(body, out)
		},
	}
}

// Options select and configure a Store backend.
type Options struct {
	Driver   string // memory, mongo, sqlite3 or pgx
	MongoURI string
	MongoDB  string
	SQLDSN   string
}

// Open creates the configured store.
func Open(ctx context.Context, opts Options) (Store, error) {
	switch opts.Driver {
	case "", "memory":
		return NewMemory(), nil
	case "mongo":
		return NewMongo(ctx, opts.MongoURI, opts.MongoDB)
	case "sqlite3", "pgx":
		return NewSQL(ctx, opts.Driver, opts.SQLDSN)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownDriver, opts.Driver)
	}
}

// Query decodes all documents of a type into T.
func Query[T any](ctx context.Context, s Store, docType string) ([]T, error) {
	docs, err := s.QueryByType(ctx, docType)
	if err != nil {
		return nil, err
	}
	records := make([]T, 0, len(docs))
	for _, d := range docs {
		var rec T
		if err := d.Decode(&rec); err != nil {
			return nil, fmt.Errorf("decode %s: %w", d.Key, err)
		}
		records = append(records, rec)
	}
	return records, nil
}
