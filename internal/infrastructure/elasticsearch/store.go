// Package elasticsearch stores identity documents in one index per
// collection. Index terms are a keyword field; the document itself is kept
// unindexed. Writes use refresh=wait_for so a committed change is visible to
// the next query.
//
// Commits are atomic per document only: a session staging several documents
// can fail half way.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/go-identity-docstore/internal/domain"
	"github.com/oksasatya/go-identity-docstore/internal/domain/repository"
)

// maxWindow is the default index.max_result_window.
const maxWindow = 10000

const refresh = "wait_for"

var errSessionClosed = errors.New("session closed")

const indexMapping = `{
  "mappings": {
    "dynamic": "strict",
    "properties": {
      "doc_id":  {"type": "keyword"},
      "version": {"type": "long"},
      "terms":   {"type": "keyword"},
      "body":    {"type": "object", "enabled": false}
    }
  }
}`

// source is the stored _source of a document.
type source struct {
	DocID   string          `json:"doc_id"`
	Version int64           `json:"version"`
	Terms   []string        `json:"terms"`
	Body    json.RawMessage `json:"body"`
}

type getResponse struct {
	Found       bool   `json:"found"`
	SeqNo       int    `json:"_seq_no"`
	PrimaryTerm int    `json:"_primary_term"`
	Source      source `json:"_source"`
}

type searchResponse struct {
	Hits struct {
		Hits []struct {
			Source source `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Store opens sessions against one collection. es is usually an
// *elasticsearch.Client.
type Store[T repository.Document] struct {
	es    esapi.Transport
	coll  repository.Collection[T]
	index string
	newID repository.IDGenerator
}

func NewStore[T repository.Document](es esapi.Transport, coll repository.Collection[T], prefix string, newID repository.IDGenerator) *Store[T] {
	return &Store[T]{es: es, coll: coll, index: prefix + coll.Name, newID: newID}
}

// Index returns the name of the backing index.
func (s *Store[T]) Index() string { return s.index }

// EnsureIndex creates the index with its mapping when it does not exist.
func (s *Store[T]) EnsureIndex(ctx context.Context) error {
	const op = "elasticsearch.EnsureIndex"
	res, err := esapi.IndicesExistsRequest{Index: []string{s.index}}.Do(ctx, s.es)
	if err != nil {
		return domain.StoreFailure(op, err)
	}
	drain(res)
	if res.StatusCode == http.StatusOK {
		return nil
	}
	res, err = esapi.IndicesCreateRequest{Index: s.index, Body: strings.NewReader(indexMapping)}.Do(ctx, s.es)
	if err != nil {
		return domain.StoreFailure(op, err)
	}
	defer drain(res)
	if res.IsError() {
		// lost a race with another creator
		if res.StatusCode == http.StatusBadRequest && strings.Contains(readAll(res), "resource_already_exists_exception") {
			return nil
		}
		return domain.StoreFailure(op, fmt.Errorf("create index %s: %s", s.index, res.Status()))
	}
	return nil
}

func (s *Store[T]) OpenSession(ctx context.Context) (repository.Session[T], error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return &session[T]{store: s}, nil
}

func (s *Store[T]) decode(src source) (T, error) {
	doc := s.coll.New()
	if err := json.Unmarshal(src.Body, doc); err != nil {
		var zero T
		return zero, err
	}
	doc.SetDocumentVersion(src.Version)
	return doc, nil
}

// get returns the stored document, or nil when it does not exist.
func (s *Store[T]) get(ctx context.Context, id string) (*getResponse, error) {
	res, err := esapi.GetRequest{Index: s.index, DocumentID: id}.Do(ctx, s.es)
	if err != nil {
		return nil, err
	}
	defer drain(res)
	if res.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if res.IsError() {
		return nil, fmt.Errorf("get %s/%s: %s", s.index, id, res.Status())
	}
	var g getResponse
	if err := json.NewDecoder(res.Body).Decode(&g); err != nil {
		return nil, err
	}
	if !g.Found {
		return nil, nil
	}
	return &g, nil
}

type session[T repository.Document] struct {
	store   *Store[T]
	pending []repository.Pending[T]
	closed  bool
}

func (s *session[T]) Store(ctx context.Context, doc T, opts ...repository.StoreOption) error {
	if s.closed {
		return domain.StoreFailure("elasticsearch.Store", errSessionClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if doc.DocumentID() == "" {
		doc.AssignDocumentID(s.store.newID())
	}
	o := repository.ApplyStoreOptions(opts)
	s.pending = repository.Stage(s.pending, repository.Pending[T]{
		ID:       doc.DocumentID(),
		Doc:      doc,
		Expected: doc.DocumentVersion(),
		Check:    o.ExpectVersion,
	})
	return nil
}

func (s *session[T]) Delete(ctx context.Context, id string) error {
	if s.closed {
		return domain.StoreFailure("elasticsearch.Delete", errSessionClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	s.pending = repository.Stage(s.pending, repository.Pending[T]{ID: id, Deleted: true})
	return nil
}

func (s *session[T]) Load(ctx context.Context, id string) (T, error) {
	const op = "elasticsearch.Load"
	var zero T
	if s.closed {
		return zero, domain.StoreFailure(op, errSessionClosed)
	}
	g, err := s.store.get(ctx, id)
	if err != nil {
		return zero, domain.StoreFailure(op, err)
	}
	if g == nil {
		return zero, domain.NotFound(op, id)
	}
	doc, err := s.store.decode(g.Source)
	if err != nil {
		return zero, domain.StoreFailure(op, err)
	}
	return doc, nil
}

func (s *session[T]) Query(ctx context.Context, q repository.Query) ([]T, error) {
	const op = "elasticsearch.Query"
	if s.closed {
		return nil, domain.StoreFailure(op, errSessionClosed)
	}
	from := max(q.Offset, 0)
	size := q.Limit
	if size <= 0 || from+size > maxWindow {
		size = max(maxWindow-from, 0)
	}
	body, err := json.Marshal(map[string]any{
		"query": map[string]any{
			"term": map[string]any{"terms": q.Term.Key()},
		},
		"sort": []any{map[string]any{"doc_id": "asc"}},
		"from": from,
		"size": size,
	})
	if err != nil {
		return nil, domain.StoreFailure(op, err)
	}

	res, err := esapi.SearchRequest{Index: []string{s.store.index}, Body: bytes.NewReader(body)}.Do(ctx, s.store.es)
	if err != nil {
		return nil, domain.StoreFailure(op, err)
	}
	defer drain(res)
	if res.StatusCode == http.StatusNotFound {
		return []T{}, nil
	}
	if res.IsError() {
		return nil, domain.StoreFailure(op, fmt.Errorf("search %s: %s", s.store.index, res.Status()))
	}
	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, domain.StoreFailure(op, err)
	}
	out := make([]T, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		doc, err := s.store.decode(h.Source)
		if err != nil {
			return nil, domain.StoreFailure(op, err)
		}
		out = append(out, doc)
	}
	return out, nil
}

// SaveChanges writes the staged documents in order. Checked writes are
// conditional on the sequence number read just before.
func (s *session[T]) SaveChanges(ctx context.Context) error {
	const op = "elasticsearch.SaveChanges"
	if s.closed {
		return domain.StoreFailure(op, errSessionClosed)
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	for i, p := range s.pending {
		if err := s.write(ctx, p); err != nil {
			for _, rest := range s.pending[i:] {
				if !rest.Deleted {
					rest.Doc.SetDocumentVersion(rest.Expected)
				}
			}
			s.pending = s.pending[i:]
			return domain.StoreFailure(op, err)
		}
	}
	s.pending = nil
	return nil
}

func (s *session[T]) write(ctx context.Context, p repository.Pending[T]) error {
	const op = "elasticsearch.SaveChanges"
	st := s.store
	if p.Deleted {
		res, err := esapi.DeleteRequest{Index: st.index, DocumentID: p.ID, Refresh: refresh}.Do(ctx, st.es)
		if err != nil {
			return err
		}
		defer drain(res)
		if res.IsError() && res.StatusCode != http.StatusNotFound {
			return fmt.Errorf("delete %s/%s: %s", st.index, p.ID, res.Status())
		}
		return nil
	}

	current, err := st.get(ctx, p.ID)
	if err != nil {
		return err
	}
	var stored int64
	if current != nil {
		stored = current.Source.Version
	}
	if p.Check && stored != p.Expected {
		return domain.Conflict(op, p.ID, p.Expected, stored)
	}

	next := repository.NextVersion(p, stored)
	p.Doc.SetDocumentVersion(next)
	raw, err := json.Marshal(p.Doc)
	if err != nil {
		return err
	}
	body, err := json.Marshal(source{DocID: p.ID, Version: next, Terms: repository.Keys(p.Doc.IndexTerms()), Body: raw})
	if err != nil {
		return err
	}

	req := esapi.IndexRequest{Index: st.index, DocumentID: p.ID, Body: bytes.NewReader(body), Refresh: refresh}
	if p.Check {
		if current == nil {
			req.OpType = "create"
		} else {
			seq, term := current.SeqNo, current.PrimaryTerm
			req.IfSeqNo, req.IfPrimaryTerm = &seq, &term
		}
	}
	res, err := req.Do(ctx, st.es)
	if err != nil {
		return err
	}
	defer drain(res)
	if res.StatusCode == http.StatusConflict {
		return &domain.Error{Kind: domain.KindConflict, Op: op, Msg: "document " + p.ID + " changed during commit"}
	}
	if res.IsError() {
		return fmt.Errorf("index %s/%s: %s", st.index, p.ID, res.Status())
	}
	return nil
}

func (s *session[T]) Close() error {
	s.closed = true
	s.pending = nil
	return nil
}

func drain(res *esapi.Response) {
	if res != nil && res.Body != nil {
		_, _ = io.Copy(io.Discard, res.Body)
		_ = res.Body.Close()
	}
}

func readAll(res *esapi.Response) string {
	b, _ := io.ReadAll(res.Body)
	return string(b)
}
