package leads

import (
	"time"

	"github.com/google/uuid"

	"github.com/academykit/intake-bot/internal/catalog"
)

// Status labels written to the lead store.
const (
	StatusNewLead    = "NEW LEAD"
	StatusInterested = "Interested"
)

// timestampLayout is the spreadsheet-friendly format used by row exports.
const timestampLayout = "2006-01-02 15:04:05"

// LeadRecord is the immutable snapshot of one completed intake. It is built
// once when a conversation finishes and never mutated afterwards.
type LeadRecord struct {
	ID           uuid.UUID `json:"id"`
	CreatedAt    time.Time `json:"created_at"`
	Sender       string    `json:"sender"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	Phone        string    `json:"phone"`
	CourseName   string    `json:"course_name"`
	CourseFee    string    `json:"course_fee"`
	CourseTiming string    `json:"course_timing,omitempty"`
	Status       string    `json:"status"`
	Note         string    `json:"note,omitempty"`
}

// NewRecord builds a lead record for a completed intake. Phone is kept
// exactly as the sender typed it. When the course publishes a batch timing
// it doubles as the default note so spreadsheet exports keep the fixed
// nine-column order.
func NewRecord(sender, name, email, phone string, course catalog.Course) *LeadRecord {
	note := ""
	if course.Timing != "" {
		note = "Batch timing: " + course.Timing
	}
	return &LeadRecord{
		ID:           uuid.New(),
		CreatedAt:    time.Now().UTC(),
		Sender:       sender,
		Name:         name,
		Email:        email,
		Phone:        phone,
		CourseName:   course.Name,
		CourseFee:    course.Fee,
		CourseTiming: course.Timing,
		Status:       StatusNewLead,
		Note:         note,
	}
}

// Validate checks the minimal invariants before a record is appended.
func (r *LeadRecord) Validate() error {
	if r.Sender == "" {
		return ErrMissingSender
	}
	if r.Name == "" {
		return ErrMissingName
	}
	return nil
}

// Row renders the record in the fixed column order expected by
// spreadsheet-style stores: timestamp, sender, name, email, phone,
// course name, course fee, status, note.
func (r *LeadRecord) Row() []any {
	return []any{
		r.CreatedAt.Format(timestampLayout),
		r.Sender,
		r.Name,
		r.Email,
		r.Phone,
		r.CourseName,
		r.CourseFee,
		r.Status,
		r.Note,
	}
}
