package elasticsearch_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"sync"
)

type fakeDoc struct {
	source json.RawMessage
	seqNo  int
}

// fakeES answers the handful of endpoints the store calls, keeping
// documents in memory.
type fakeES struct {
	mu       sync.Mutex
	indices  map[string]map[string]*fakeDoc
	mappings map[string]string
	seq      int
	refresh  []string

	// beforeIndex runs before a document write is applied.
	beforeIndex func(index, id string)
	// fail forces this status on every request when non-zero.
	fail int
}

func newFakeES() *fakeES {
	return &fakeES{indices: map[string]map[string]*fakeDoc{}, mappings: map[string]string{}}
}

func (f *fakeES) Perform(req *http.Request) (*http.Response, error) {
	var body []byte
	if req.Body != nil {
		body, _ = io.ReadAll(req.Body)
	}
	if hook := f.beforeIndex; hook != nil && req.Method == http.MethodPut {
		if parts := split(req.URL.Path); len(parts) == 3 {
			hook(parts[0], parts[2])
		}
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail != 0 {
		return reply(f.fail, map[string]any{"error": "forced"}), nil
	}
	if r := req.URL.Query().Get("refresh"); r != "" {
		f.refresh = append(f.refresh, r)
	}

	parts := split(req.URL.Path)
	switch {
	case len(parts) == 1 && req.Method == http.MethodHead:
		if _, ok := f.indices[parts[0]]; ok {
			return reply(http.StatusOK, nil), nil
		}
		return reply(http.StatusNotFound, nil), nil
	case len(parts) == 1 && req.Method == http.MethodPut:
		if _, ok := f.indices[parts[0]]; ok {
			return reply(http.StatusBadRequest, map[string]any{"error": map[string]any{"type": "resource_already_exists_exception"}}), nil
		}
		f.indices[parts[0]] = map[string]*fakeDoc{}
		f.mappings[parts[0]] = string(body)
		return reply(http.StatusOK, map[string]any{"acknowledged": true}), nil
	case len(parts) == 2 && parts[1] == "_search":
		return f.search(parts[0], body), nil
	case len(parts) == 3 && parts[1] == "_doc":
		return f.doc(req, parts[0], parts[2], body), nil
	}
	return reply(http.StatusBadRequest, map[string]any{"error": "unsupported " + req.Method + " " + req.URL.Path}), nil
}

// Touch simulates another writer touching the document.
func (f *fakeES) Touch(index, id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if d, ok := f.indices[index][id]; ok {
		f.seq++
		d.seqNo = f.seq
	}
}

func (f *fakeES) doc(req *http.Request, index, id string, body []byte) *http.Response {
	docs, ok := f.indices[index]
	if !ok {
		return reply(http.StatusNotFound, map[string]any{"error": "index_not_found_exception"})
	}
	current := docs[id]
	switch req.Method {
	case http.MethodGet:
		if current == nil {
			return reply(http.StatusNotFound, map[string]any{"found": false})
		}
		return reply(http.StatusOK, map[string]any{
			"found": true, "_seq_no": current.seqNo, "_primary_term": 1, "_source": current.source,
		})
	case http.MethodDelete:
		if current == nil {
			return reply(http.StatusNotFound, map[string]any{"result": "not_found"})
		}
		delete(docs, id)
		return reply(http.StatusOK, map[string]any{"result": "deleted"})
	case http.MethodPut:
		q := req.URL.Query()
		if q.Get("op_type") == "create" && current != nil {
			return reply(http.StatusConflict, map[string]any{"error": "version_conflict_engine_exception"})
		}
		if s := q.Get("if_seq_no"); s != "" {
			want, _ := strconv.Atoi(s)
			if current == nil || current.seqNo != want {
				return reply(http.StatusConflict, map[string]any{"error": "version_conflict_engine_exception"})
			}
		}
		f.seq++
		docs[id] = &fakeDoc{source: body, seqNo: f.seq}
		if current == nil {
			return reply(http.StatusCreated, map[string]any{"result": "created"})
		}
		return reply(http.StatusOK, map[string]any{"result": "updated"})
	}
	return reply(http.StatusMethodNotAllowed, nil)
}

func (f *fakeES) search(index string, body []byte) *http.Response {
	docs, ok := f.indices[index]
	if !ok {
		return reply(http.StatusNotFound, map[string]any{"error": "index_not_found_exception"})
	}
	var q struct {
		Query struct {
			Term struct {
				Terms string `json:"terms"`
			} `json:"term"`
		} `json:"query"`
		From int `json:"from"`
		Size int `json:"size"`
	}
	if err := json.Unmarshal(body, &q); err != nil {
		return reply(http.StatusBadRequest, map[string]any{"error": err.Error()})
	}

	var ids []string
	for id, d := range docs {
		var src struct {
			Terms []string `json:"terms"`
		}
		_ = json.Unmarshal(d.source, &src)
		for _, t := range src.Terms {
			if t == q.Query.Term.Terms {
				ids = append(ids, id)
				break
			}
		}
	}
	sort.Strings(ids)
	if q.From < len(ids) {
		ids = ids[q.From:]
	} else {
		ids = nil
	}
	if q.Size < len(ids) {
		ids = ids[:q.Size]
	}
	hits := make([]map[string]any, 0, len(ids))
	for _, id := range ids {
		hits = append(hits, map[string]any{"_id": id, "_source": docs[id].source})
	}
	return reply(http.StatusOK, map[string]any{"hits": map[string]any{"hits": hits}})
}

func split(path string) []string {
	return strings.Split(strings.Trim(path, "/"), "/")
}

func reply(status int, v any) *http.Response {
	var b []byte
	if v != nil {
		b, _ = json.Marshal(v)
	}
	return &http.Response{
		StatusCode: status,
		Status:     strconv.Itoa(status) + " " + http.StatusText(status),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(bytes.NewReader(b)),
	}
}
