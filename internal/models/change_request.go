package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"
)

// EditableFields lists the submission fields an owner may request to change.
var EditableFields = []string{
	"businessName", "description", "street", "city", "postalCode",
	"country", "phone", "whatsapp", "website",
}

// ChangeSet is a sparse field→value diff. A nil value means the owner wants
// the field cleared.
type ChangeSet map[string]*string

// Value marshals the change set to JSON for persistence.
func (c ChangeSet) Value() (driver.Value, error) {
	if c == nil {
		c = ChangeSet{}
	}
	data, err := json.Marshal(c)
	if err != nil {
		return nil, fmt.Errorf("marshal change set: %w", err)
	}
	return data, nil
}

// Scan unmarshals JSON payloads into the change set.
func (c *ChangeSet) Scan(value interface{}) error {
	return scanJSON(value, c, "ChangeSet")
}

// ChangeRequestStatus captures the review lifecycle of a change request.
type ChangeRequestStatus string

const (
	ChangeRequestPending  ChangeRequestStatus = "pending"
	ChangeRequestApproved ChangeRequestStatus = "approved"
	ChangeRequestDeclined ChangeRequestStatus = "declined"
)

// BusinessChangeRequest records an owner's requested edits to an approved
// listing. Requests are reviewed out of band; there is no automatic apply.
type BusinessChangeRequest struct {
	ID           string              `db:"id" json:"id"`
	OwnerID      string              `db:"owner_id" json:"owner_id"`
	SubmissionID string              `db:"submission_id" json:"submission_id"`
	Changes      ChangeSet           `db:"changes" json:"changes"`
	Status       ChangeRequestStatus `db:"status" json:"status"`
	CreatedAt    time.Time           `db:"created_at" json:"created_at"`
}
