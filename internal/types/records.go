package types

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
)

// dateLayouts are the upstream date formats accepted, most precise first.
var dateLayouts = []string{"2006-01-02", "2006-01", "2006"}

// CompanyRecord is a company as returned by the directory provider.
type CompanyRecord struct {
	ID            string `json:"id" validate:"required"`
	Name          string `json:"name" validate:"required"`
	Industry      string `json:"industry,omitempty"`
	EmployeeCount int    `json:"employee_count,omitempty" validate:"gte=0"`
}

// PositionRecord is one raw experience entry as returned by the directory provider.
// Dates are strings in YYYY-MM-DD, YYYY-MM, or YYYY form; empty means unknown (start) or ongoing (end).
type PositionRecord struct {
	CompanyID   string `json:"company_id,omitempty"`
	CompanyName string `json:"company_name" validate:"required"`
	Title       string `json:"title,omitempty"`
	StartDate   string `json:"start_date,omitempty" validate:"omitempty,partialdate"`
	EndDate     string `json:"end_date,omitempty" validate:"omitempty,partialdate"`
}

// PersonRecord is a person with raw experience entries as returned by the directory provider.
type PersonRecord struct {
	ID         string           `json:"id" validate:"required"`
	FullName   string           `json:"full_name,omitempty"`
	Experience []PositionRecord `json:"experience"`
}

// RecordError describes an upstream record rejected at the ingestion boundary.
type RecordError struct {
	Kind    string
	Key     string
	Message string
	Cause   error
}

func (e *RecordError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("invalid %s record %q: %s: %v", e.Kind, e.Key, e.Message, e.Cause)
	}
	return fmt.Sprintf("invalid %s record %q: %s", e.Kind, e.Key, e.Message)
}

func (e *RecordError) Unwrap() error {
	return e.Cause
}

// newValidator returns a validator with the partialdate rule registered.
func newValidator() *validator.Validate {
	validate := validator.New()
	_ = validate.RegisterValidation("partialdate", func(fl validator.FieldLevel) bool {
		_, err := ParseDate(fl.Field().String())
		return err == nil
	})
	return validate
}

// ParseDate parses an upstream date string. Partial dates resolve to the first day of the period.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Validate validates the CompanyRecord using the validator.
func (r *CompanyRecord) Validate() error {
	if err := newValidator().Struct(r); err != nil {
		return &RecordError{Kind: "company", Key: r.ID, Message: "failed validation", Cause: err}
	}
	return nil
}

// Ref returns the CompanyRef for the record.
func (r *CompanyRecord) Ref() CompanyRef {
	return CompanyRef{ID: r.ID, Name: strings.TrimSpace(r.Name)}
}

// ToPosition validates the record and converts it into a Position.
// Missing title stays empty, a missing start date stays unknown, and a missing end date means ongoing.
func (r *PositionRecord) ToPosition() (Position, error) {
	return r.toPosition(newValidator())
}

func (r *PositionRecord) toPosition(validate *validator.Validate) (Position, error) {
	if err := validate.Struct(r); err != nil {
		return Position{}, &RecordError{Kind: "position", Key: r.CompanyName, Message: "failed validation", Cause: err}
	}

	pos := Position{
		Company: CompanyRef{ID: strings.TrimSpace(r.CompanyID), Name: strings.TrimSpace(r.CompanyName)},
		Title:   strings.TrimSpace(r.Title),
	}
	if r.StartDate != "" {
		start, _ := ParseDate(r.StartDate)
		pos.StartDate = &start
	}
	if r.EndDate != "" {
		end, _ := ParseDate(r.EndDate)
		pos.EndDate = &end
	}
	if pos.StartDate != nil && pos.EndDate != nil && pos.EndDate.Before(*pos.StartDate) {
		return Position{}, &RecordError{Kind: "position", Key: r.CompanyName, Message: "end date precedes start date"}
	}
	return pos, nil
}

// ToPerson validates the record and converts it into a Person.
// Malformed positions are dropped and reported; the person is rejected only when the record itself is invalid.
func (r *PersonRecord) ToPerson() (*Person, []error) {
	validate := newValidator()
	if err := validate.Struct(r); err != nil {
		return nil, []error{&RecordError{Kind: "person", Key: r.ID, Message: "failed validation", Cause: err}}
	}

	person := &Person{
		ID:        r.ID,
		FullName:  strings.TrimSpace(r.FullName),
		Positions: make([]Position, 0, len(r.Experience)),
	}
	var rejected []error
	for i := range r.Experience {
		pos, err := r.Experience[i].toPosition(validate)
		if err != nil {
			rejected = append(rejected, err)
			continue
		}
		person.Positions = append(person.Positions, pos)
	}
	return person, rejected
}
