package resources

import (
	"sync"

	"github.com/platinummonkey/mockapi/pkg/apierrors"
	"github.com/platinummonkey/mockapi/pkg/paging"
	"github.com/sirupsen/logrus"
)

// Repository provides CRUD over a CSV file of resources.
//
// Every call reads the whole file. Mutations rewrite it in full. Calls are
// serialized within the process; separate processes sharing the file still
// race and the last writer wins.
type Repository struct {
	path     string
	log      *logrus.Logger
	recorder Recorder
	mu       sync.Mutex
}

// Option configures a Repository
type Option func(*Repository)

// WithLogger sets the repository logger
func WithLogger(log *logrus.Logger) Option {
	return func(r *Repository) {
		if log != nil {
			r.log = log
		}
	}
}

// WithRecorder sets the operation recorder
func WithRecorder(rec Recorder) Option {
	return func(r *Repository) {
		if rec != nil {
			r.recorder = rec
		}
	}
}

// NewRepository creates a repository backed by the file at path. The file
// is not touched until EnsureFile or the first operation.
func NewRepository(path string, opts ...Option) *Repository {
	r := &Repository{
		path:     path,
		log:      logrus.StandardLogger(),
		recorder: nopRecorder{},
	}
	for _, opt := range opts {
		opt(r)
	}
	r.log.WithField("path", path).Debug("Initialized resource repository")
	return r
}

// Path returns the backing file path
func (r *Repository) Path() string {
	return r.path
}

// EnsureFile creates the file with only a header row when it does not exist
func (r *Repository) EnsureFile() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.ensure()
}

func (r *Repository) ensure() error {
	created, err := ensureFile(r.path)
	if err != nil {
		return apierrors.Internal("Internal server error", err)
	}
	if created {
		r.log.WithFields(logrus.Fields{"path": r.path, "columns": Columns}).Info("Created resources file")
	}
	return nil
}

// load reads the file, repairing missing columns. Callers hold mu.
func (r *Repository) load() (*table, error) {
	if err := r.ensure(); err != nil {
		return nil, err
	}
	t, err := readTable(r.path)
	if err != nil {
		r.log.WithError(err).WithField("path", r.path).Error("Error reading resources file")
		return nil, apierrors.Internal("Internal server error", err)
	}
	if len(t.missing) > 0 {
		r.log.WithField("columns", t.missing).Warn("Missing columns in resources file")
		if err := r.store(t.rows); err != nil {
			return nil, err
		}
		r.log.WithField("columns", t.missing).Info("Added missing columns to resources file")
		t.missing = nil
	}
	return t, nil
}

func (r *Repository) store(rows []Resource) error {
	if err := writeTable(r.path, rows); err != nil {
		r.log.WithError(err).WithField("path", r.path).Error("Error writing resources file")
		return apierrors.Internal("Internal server error", err)
	}
	r.log.WithFields(logrus.Fields{"path": r.path, "rows": len(rows)}).Debug("Wrote resources file")
	return nil
}

func (r *Repository) record(op string, err error) {
	outcome := "success"
	switch apierrors.KindOf(err) {
	case apierrors.KindNotFound:
		outcome = "not_found"
	case apierrors.KindConflict:
		outcome = "conflict"
	case apierrors.KindInternal:
		if err != nil {
			outcome = "error"
		}
	}
	r.recorder.RecordResourceOperation(op, outcome)
}

// GetAll returns the window [skip, skip+limit) and the total count
func (r *Repository) GetAll(skip, limit int) (list *List, err error) {
	defer func() { r.record("get_all", err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.load()
	if err != nil {
		return nil, err
	}
	return &List{
		Resources: paging.Slice(t.rows, skip, limit),
		Count:     len(t.rows),
	}, nil
}

// GetByID returns the resource whose id equals id exactly
func (r *Repository) GetByID(id string) (res *Resource, err error) {
	defer func() { r.record("get", err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.load()
	if err != nil {
		return nil, err
	}
	i := t.indexOf(id)
	if i < 0 {
		r.log.WithField("id", id).Warn("Resource not found")
		return nil, apierrors.NotFound("Resource with ID %s not found", id)
	}
	found := t.rows[i]
	return &found, nil
}

// Create appends res and returns it unchanged. The id must not be in use.
func (r *Repository) Create(res Resource) (out *Resource, err error) {
	defer func() { r.record("create", err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.load()
	if err != nil {
		return nil, err
	}
	if t.indexOf(res.ID) >= 0 {
		r.log.WithField("id", res.ID).Warn("Resource already exists")
		return nil, apierrors.Conflict("Resource with ID %s already exists", res.ID)
	}
	if err := r.store(append(t.rows, res)); err != nil {
		return nil, err
	}
	r.log.WithField("id", res.ID).Info("Created resource")
	return &res, nil
}

// Update applies the non-nil fields of patch to the resource with id
func (r *Repository) Update(id string, patch Patch) (out *Resource, err error) {
	defer func() { r.record("update", err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.load()
	if err != nil {
		return nil, err
	}
	i := t.indexOf(id)
	if i < 0 {
		r.log.WithField("id", id).Warn("Resource not found")
		return nil, apierrors.NotFound("Resource with ID %s not found", id)
	}
	patch.Apply(&t.rows[i])
	if err := r.store(t.rows); err != nil {
		return nil, err
	}
	r.log.WithField("id", id).Info("Updated resource")
	updated := t.rows[i]
	return &updated, nil
}

// Delete removes the resource with id
func (r *Repository) Delete(id string) (out *DeleteResult, err error) {
	defer func() { r.record("delete", err) }()

	r.mu.Lock()
	defer r.mu.Unlock()

	t, err := r.load()
	if err != nil {
		return nil, err
	}
	i := t.indexOf(id)
	if i < 0 {
		r.log.WithField("id", id).Warn("Resource not found")
		return nil, apierrors.NotFound("Resource with ID %s not found", id)
	}
	rows := append(t.rows[:i:i], t.rows[i+1:]...)
	if err := r.store(rows); err != nil {
		return nil, err
	}
	r.log.WithField("id", id).Info("Deleted resource")
	return &DeleteResult{Message: "Resource with ID " + id + " deleted successfully"}, nil
}
