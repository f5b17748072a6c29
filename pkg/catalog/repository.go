package catalog

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"time"

	"github.com/platinummonkey/mockapi/pkg/apierrors"
	"github.com/platinummonkey/mockapi/pkg/paging"
	"github.com/sirupsen/logrus"
)

// Record is one item of a collection as found in the data document
type Record map[string]interface{}

// ID returns the canonical string form of the record id
func (r Record) ID() string {
	return canonicalID(r["id"])
}

// StringField returns the value of key when it is a string
func (r Record) StringField(key string) string {
	s, _ := r[key].(string)
	return s
}

// canonicalID renders ids so that 1, 1.0 and "1" compare equal
func canonicalID(v interface{}) string {
	switch id := v.(type) {
	case nil:
		return ""
	case string:
		return id
	case json.Number:
		if n, err := id.Int64(); err == nil {
			return strconv.FormatInt(n, 10)
		}
		if f, err := id.Float64(); err == nil {
			return strconv.FormatFloat(f, 'f', -1, 64)
		}
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int:
		return strconv.Itoa(id)
	case int64:
		return strconv.FormatInt(id, 10)
	default:
		return fmt.Sprint(id)
	}
}

// ItemList is a window of a collection plus its total size
type ItemList struct {
	Items []Record
	Count int
}

// PageResult is one page of a collection
type PageResult struct {
	Items      []Record
	Count      int
	PageNumber int
	PageSize   int
	TotalPages int
}

// Page returns the resolved page description
func (p *PageResult) Page() paging.Page {
	return paging.Page{
		Number:     p.PageNumber,
		Size:       p.PageSize,
		TotalPages: p.TotalPages,
		Total:      p.Count,
	}
}

// Repository is an immutable, in-memory view of the catalog document
type Repository struct {
	collections map[Collection][]Record
	index       map[Collection]map[string]int
	source      string
	loadedAt    time.Time
}

// New decodes a catalog document. A missing collection key yields an empty
// collection and a warning; a malformed document is ServiceUnavailable.
func New(data []byte, source string, log *logrus.Logger) (*Repository, error) {
	if log == nil {
		log = logrus.StandardLogger()
	}

	doc, err := decodeDocument(data)
	if err != nil {
		log.WithError(err).WithField("source", source).Error("Invalid catalog data document")
		return nil, apierrors.Unavailable("Invalid data file format", err)
	}

	repo := &Repository{
		collections: make(map[Collection][]Record, len(collectionTable)),
		index:       make(map[Collection]map[string]int, len(collectionTable)),
		source:      source,
		loadedAt:    time.Now(),
	}

	for _, c := range All() {
		raw, key := lookup(doc, c)
		if raw == nil {
			log.WithFields(logrus.Fields{"collection": c.String(), "source": source}).Warn("Collection missing from data document")
			repo.collections[c] = []Record{}
			repo.index[c] = map[string]int{}
			continue
		}

		var items []Record
		d := json.NewDecoder(bytes.NewReader(raw))
		d.UseNumber()
		if err := d.Decode(&items); err != nil {
			log.WithError(err).WithField("key", key).Error("Invalid catalog collection")
			return nil, apierrors.Unavailable("Invalid data file format", fmt.Errorf("collection %s: %w", key, err))
		}
		if items == nil {
			items = []Record{}
		}

		idx := make(map[string]int, len(items))
		for i, item := range items {
			id := item.ID()
			if _, dup := idx[id]; !dup {
				idx[id] = i
			}
		}
		repo.collections[c] = items
		repo.index[c] = idx
	}

	log.WithFields(logrus.Fields{"source": source, "collections": len(repo.collections)}).Debug("Loaded catalog")
	return repo, nil
}

// decodeDocument requires data to hold exactly one JSON object
func decodeDocument(data []byte) (map[string]json.RawMessage, error) {
	var doc map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	if doc == nil {
		return nil, errors.New("data document is not a JSON object")
	}
	var extra json.RawMessage
	if err := dec.Decode(&extra); err != io.EOF {
		return nil, errors.New("unexpected data after the JSON document")
	}
	return doc, nil
}

func lookup(doc map[string]json.RawMessage, c Collection) (json.RawMessage, string) {
	for _, key := range c.lookupKeys() {
		if raw, ok := doc[key]; ok && !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
			return raw, key
		}
	}
	return nil, ""
}

// Source describes where the repository was loaded from
func (r *Repository) Source() string {
	return r.source
}

// LoadedAt returns the time the document was decoded
func (r *Repository) LoadedAt() time.Time {
	return r.loadedAt
}

func (r *Repository) items(c Collection) ([]Record, error) {
	if !c.Valid() {
		return nil, apierrors.NotFound("Collection %d not found", int(c))
	}
	return r.collections[c], nil
}

// GetAll returns the window [skip, skip+limit) of c and its total size
func (r *Repository) GetAll(c Collection, skip, limit int) (*ItemList, error) {
	items, err := r.items(c)
	if err != nil {
		return nil, err
	}
	return &ItemList{
		Items: paging.Slice(items, skip, limit),
		Count: len(items),
	}, nil
}

// GetAllPaginated returns page pageNumber of c. The page number is clamped
// to [1, totalPages].
func (r *Repository) GetAllPaginated(c Collection, pageNumber, pageSize int) (*PageResult, error) {
	items, err := r.items(c)
	if err != nil {
		return nil, err
	}
	page := paging.Resolve(pageNumber, pageSize, len(items))
	return &PageResult{
		Items:      paging.Slice(items, page.Offset(), page.Size),
		Count:      len(items),
		PageNumber: page.Number,
		PageSize:   page.Size,
		TotalPages: page.TotalPages,
	}, nil
}

// GetByID returns the first record of c whose canonical id equals id
func (r *Repository) GetByID(c Collection, id string) (Record, error) {
	if !c.Valid() {
		return nil, apierrors.NotFound("Item with ID %s not found in %s", id, c)
	}
	i, ok := r.index[c][id]
	if !ok {
		// numeric path ids match in canonical form, so "1.0" finds id 1
		if _, err := strconv.ParseFloat(id, 64); err == nil {
			i, ok = r.index[c][canonicalID(json.Number(id))]
		}
	}
	if !ok {
		return nil, apierrors.NotFound("Item with ID %s not found in %s", id, c)
	}
	return r.collections[c][i], nil
}

// FindUser returns the first record in users, then integration-users, whose
// email equals email exactly.
func (r *Repository) FindUser(email string) (Record, Collection, bool) {
	for _, c := range []Collection{Users, IntegrationUsers} {
		for _, rec := range r.collections[c] {
			if rec.StringField("email") == email {
				return rec, c, true
			}
		}
	}
	return nil, 0, false
}

// Counts returns the number of records per collection
func (r *Repository) Counts() map[Collection]int {
	out := make(map[Collection]int, len(r.collections))
	for c, items := range r.collections {
		out[c] = len(items)
	}
	return out
}
