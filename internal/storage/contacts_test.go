package storage

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/lib/pq"

	"github.com/Ametist3d/jobhunter/internal/config"
	"github.com/Ametist3d/jobhunter/pkg/types"
)

// stubDriver records every executed statement and can fail upcoming
// executions with scripted errors.
type stubDriver struct {
	mu    sync.Mutex
	calls []stubCall
	errs  []error
}

type stubCall struct {
	query string
	args  []driver.Value
}

func (d *stubDriver) Open(string) (driver.Conn, error) { return &stubConn{d: d}, nil }

func (d *stubDriver) reset() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.calls = nil
	d.errs = nil
}

func (d *stubDriver) failNext(err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.errs = append(d.errs, err)
}

func (d *stubDriver) recorded() []stubCall {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]stubCall(nil), d.calls...)
}

type stubConn struct{ d *stubDriver }

func (c *stubConn) Prepare(string) (driver.Stmt, error) {
	return nil, errors.New("prepare unsupported")
}

func (c *stubConn) Close() error { return nil }

func (c *stubConn) Begin() (driver.Tx, error) {
	return nil, errors.New("transactions unsupported")
}

func (c *stubConn) ExecContext(_ context.Context, query string, named []driver.NamedValue) (driver.Result, error) {
	c.d.mu.Lock()
	defer c.d.mu.Unlock()
	args := make([]driver.Value, len(named))
	for i, nv := range named {
		args[i] = nv.Value
	}
	c.d.calls = append(c.d.calls, stubCall{query: query, args: args})
	if len(c.d.errs) > 0 {
		err := c.d.errs[0]
		c.d.errs = c.d.errs[1:]
		if err != nil {
			return nil, err
		}
	}
	return driver.RowsAffected(1), nil
}

var stub = &stubDriver{}

func init() {
	sql.Register("stubpg", stub)
}

func newTestStore(t *testing.T, autoMigrate bool) *ContactStore {
	t.Helper()
	stub.reset()
	store, err := NewContactStore(config.SQLConfig{
		Driver:      "stubpg",
		DSN:         "stub://contacts",
		AutoMigrate: autoMigrate,
	}, slog.New(slog.NewTextHandler(io.Discard, nil)))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestNewContactStoreRequiresDSN(t *testing.T) {
	_, err := NewContactStore(config.SQLConfig{Driver: "stubpg"}, nil)
	if err == nil {
		t.Fatal("expected error for empty dsn")
	}
}

func TestSaveResultUpsertsContactsAndContext(t *testing.T) {
	store := newTestStore(t, false)

	result := types.CrawlResult{
		Website:      "https://firma.de",
		Emails:       []string{"info@firma.de", "jobs@firma.de"},
		EvidenceURLs: []string{"https://firma.de/kontakt", "https://firma.de/impressum"},
		SiteContext:  &types.SiteContext{Title: "Firma GmbH", Language: "de"},
	}
	if err := store.SaveResult(context.Background(), result); err != nil {
		t.Fatalf("save: %v", err)
	}

	calls := stub.recorded()
	if len(calls) != 3 {
		t.Fatalf("expected 3 statements, got %d", len(calls))
	}

	for rank, email := range result.Emails {
		call := calls[rank]
		if !strings.Contains(call.query, "INSERT INTO contacts") {
			t.Fatalf("expected contact upsert, got %q", call.query)
		}
		if call.args[0] != "https://firma.de" || call.args[1] != email {
			t.Fatalf("unexpected contact args: %v", call.args)
		}
		if call.args[2] != int64(rank) {
			t.Fatalf("expected rank %d for %s, got %v", rank, email, call.args[2])
		}
		// Evidence is the first page an address was found on.
		if call.args[3] != "https://firma.de/kontakt" {
			t.Fatalf("unexpected evidence url: %v", call.args[3])
		}
	}

	ctxCall := calls[2]
	if !strings.Contains(ctxCall.query, "INSERT INTO site_contexts") {
		t.Fatalf("expected context upsert, got %q", ctxCall.query)
	}
	raw, ok := ctxCall.args[1].([]byte)
	if !ok {
		t.Fatalf("expected JSON bytes for context, got %T", ctxCall.args[1])
	}
	var decoded types.SiteContext
	if err := json.Unmarshal(raw, &decoded); err != nil {
		t.Fatalf("decode stored context: %v", err)
	}
	if decoded.Title != "Firma GmbH" || decoded.Language != "de" {
		t.Fatalf("unexpected stored context: %+v", decoded)
	}
}

func TestSaveResultWithoutContext(t *testing.T) {
	store := newTestStore(t, false)

	result := types.CrawlResult{
		Website: "https://firma.de",
		Emails:  []string{"info@firma.de"},
	}
	if err := store.SaveResult(context.Background(), result); err != nil {
		t.Fatalf("save: %v", err)
	}

	calls := stub.recorded()
	if len(calls) != 1 {
		t.Fatalf("expected 1 statement, got %d", len(calls))
	}
	if calls[0].args[3] != "" {
		t.Fatalf("expected empty evidence url, got %v", calls[0].args[3])
	}
}

func TestSaveResultCreatesSchemaOnMissingTable(t *testing.T) {
	store := newTestStore(t, true)
	stub.failNext(&pq.Error{Code: "42P01"})

	result := types.CrawlResult{
		Website: "https://firma.de",
		Emails:  []string{"info@firma.de"},
	}
	if err := store.SaveResult(context.Background(), result); err != nil {
		t.Fatalf("save after schema retry: %v", err)
	}

	// Construction migrated once, then: failed upsert, schema, retried upsert.
	calls := stub.recorded()
	if len(calls) != 4 {
		t.Fatalf("expected 4 statements, got %d", len(calls))
	}
	if !strings.Contains(calls[0].query, "CREATE TABLE") {
		t.Fatalf("expected migration first, got %q", calls[0].query)
	}
	if !strings.Contains(calls[1].query, "INSERT INTO contacts") {
		t.Fatalf("expected failing upsert, got %q", calls[1].query)
	}
	if !strings.Contains(calls[2].query, "CREATE TABLE") {
		t.Fatalf("expected schema creation after missing table, got %q", calls[2].query)
	}
	if !strings.Contains(calls[3].query, "INSERT INTO contacts") {
		t.Fatalf("expected retried upsert, got %q", calls[3].query)
	}
}

func TestSaveResultPropagatesForeignErrors(t *testing.T) {
	store := newTestStore(t, false)
	stub.failNext(errors.New("connection reset"))

	result := types.CrawlResult{
		Website: "https://firma.de",
		Emails:  []string{"info@firma.de"},
	}
	err := store.SaveResult(context.Background(), result)
	if err == nil || !strings.Contains(err.Error(), "save contact") {
		t.Fatalf("expected wrapped save error, got %v", err)
	}
	if len(stub.recorded()) != 1 {
		t.Fatalf("expected no retry without a missing-table error, got %d statements", len(stub.recorded()))
	}
}
