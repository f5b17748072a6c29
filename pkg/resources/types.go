package resources

// Columns is the CSV header, in file order
var Columns = []string{"id", "title", "description", "access_count", "student_count"}

// Resource is a single row of the resources file
type Resource struct {
	ID           string  `json:"id"`
	Title        string  `json:"title"`
	Description  *string `json:"description"`
	AccessCount  int     `json:"access_count"`
	StudentCount int     `json:"student_count"`
}

// List is a window of resources plus the total number stored
type List struct {
	Resources []Resource `json:"resources"`
	Count     int        `json:"count"`
}

// Patch carries the fields of a partial update. Nil fields are left untouched.
type Patch struct {
	Title        *string `json:"title"`
	Description  *string `json:"description"`
	AccessCount  *int    `json:"access_count"`
	StudentCount *int    `json:"student_count"`
}

// Apply copies the non-nil patch fields onto r. The id is never changed.
func (p Patch) Apply(r *Resource) {
	if p.Title != nil {
		r.Title = *p.Title
	}
	if p.Description != nil {
		d := *p.Description
		r.Description = &d
	}
	if p.AccessCount != nil {
		r.AccessCount = *p.AccessCount
	}
	if p.StudentCount != nil {
		r.StudentCount = *p.StudentCount
	}
}

// DeleteResult is returned by a successful delete
type DeleteResult struct {
	Message string `json:"message"`
}

// Recorder observes repository operations. Outcomes are "success",
// "not_found", "conflict" and "error".
type Recorder interface {
	RecordResourceOperation(operation, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordResourceOperation(string, string) {}
