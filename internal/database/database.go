package database

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/mattn/go-sqlite3"
	log "github.com/sirupsen/logrus"
)

// SQLStore keeps documents as JSON in a single table. Works with sqlite3 and pgx.
type SQLStore struct {
	db         *sql.DB
	m          *sync.Mutex
	driver     string
	table_name string
}

var tableName = "documents"

// NewSQL opens the database and creates the documents table.
func NewSQL(ctx context.Context, driver, dsn string) (*SQLStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, err
	}
	if driver == "sqlite3" {
		// sqlite allows one writer; a single connection also keeps :memory: databases alive
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}

	sqlStmt := `
	create table if not exists ` + tableName + ` (
		doc_key text not null primary key,
		doc_type text not null,
		body text not null
	);
	`
	if _, err := db.ExecContext(ctx, sqlStmt); err != nil {
		db.Close()
		return nil, err
	}
	if _, err := db.ExecContext(ctx, "create index if not exists documents_type on "+tableName+" (doc_type)"); err != nil {
		db.Close()
		return nil, err
	}

	log.Infof("SQL store ready (%s).", driver)
	return &SQLStore{
		db:         db,
		m:          &sync.Mutex{},
		driver:     driver,
		table_name: tableName,
	}, nil
}

// rebind turns ? placeholders into $n for postgres.
func (s *SQLStore) rebind(query string) string {
	if s.driver != "pgx" {
		return query
	}
	var b strings.Builder
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			fmt.Fprintf(&b, "$%d", n)
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

func (s *SQLStore) Save(ctx context.Context, docs ...Document) error {
	if len(docs) == 0 {
		return nil
	}
	s.m.Lock()
	defer s.m.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, s.rebind("INSERT INTO "+s.table_name+
		" (doc_key, doc_type, body) VALUES (?, ?, ?)"+
		" ON CONFLICT (doc_key) DO UPDATE SET doc_type = excluded.doc_type, body = excluded.body"))
	if err != nil {
		return err
	}
	defer stmt.Close()

	for _, d := range docs {
		body, err := json.Marshal(d)
		if err != nil {
			return err
		}
		if _, err := stmt.ExecContext(ctx, KeyOf(d), d.DocType(), string(body)); err != nil {
			return fmt.Errorf("save %s: %w", KeyOf(d), err)
		}
	}
	return tx.Commit()
}

func (s *SQLStore) Fetch(ctx context.Context, docType, id string, out any) error {
	s.m.Lock()
	defer s.m.Unlock()
	var body string
	err := s.db.QueryRowContext(ctx, s.rebind("SELECT body FROM "+s.table_name+" WHERE doc_key = ?"), Key(docType, id)).Scan(&body)
	if err == sql.ErrNoRows {
		return ErrNotFound
	}
	if err != nil {
		return err
	}
	return json.Unmarshal([]byte(body), out)
}

func (s *SQLStore) QueryByType(ctx context.Context, docType string) ([]RawDocument, error) {
	s.m.Lock()
	defer s.m.Unlock()
	rows, err := s.db.QueryContext(ctx, s.rebind("SELECT doc_key, body FROM "+s.table_name+" WHERE doc_type = ? ORDER BY doc_key"), docType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []RawDocument
	for rows.Next() {
		var key, body string
		if err := rows.Scan(&key, &body); err != nil {
			return nil, err
		}
		results = append(results, jsonDocument(key, docType, []byte(body)))
	}
	return results, rows.Err()
}

func (s *SQLStore) Delete(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	s.m.Lock()
	defer s.m.Unlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(keys)), ", ")
	args := make([]any, len(keys))
	for i, k := range keys {
		args[i] = k
	}
	_, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM "+s.table_name+" WHERE doc_key IN ("+placeholders+")"), args...)
	return err
}

func (s *SQLStore) Close(ctx context.Context) error {
	return s.db.Close()
}
