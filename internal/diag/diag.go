// Package diag collects SQLSTATE status records produced while a statement runs.
package diag

import (
	"errors"
	"fmt"
	"sync"

	"github.com/joacominatel/sitewisedb/internal/logging"
)

// SQLState is a five character SQLSTATE code.
type SQLState string

const (
	GeneralWarning              SQLState = "01000"
	StringDataRightTruncated    SQLState = "01004"
	FractionalTruncation        SQLState = "01S07"
	RestrictedDataTypeViolation SQLState = "07006"
	InvalidDescriptorIndex      SQLState = "07009"
	UnableToEstablishConnection SQLState = "08001"
	IndicatorNeeded             SQLState = "22002"
	InvalidCursorState          SQLState = "24000"
	GeneralError                SQLState = "HY000"
	OperationCanceled           SQLState = "HY008"
	InvalidUseOfNullPointer     SQLState = "HY009"
	SequenceError               SQLState = "HY010"
)

// Severity tells warnings from errors.
type Severity int

const (
	SeverityError Severity = iota
	SeverityWarning
)

func (s Severity) String() string {
	if s == SeverityWarning {
		return "warning"
	}
	return "error"
}

// Record is one status record.
type Record struct {
	State    SQLState
	Message  string
	Severity Severity
	Row      int64
	Column   int32
}

func (r Record) Error() string {
	return fmt.Sprintf("[%s] %s", r.State, r.Message)
}

// Diagnostics is the status record list of one statement.
type Diagnostics struct {
	mu      sync.Mutex
	records []Record
}

// New creates an empty diagnostics list.
func New() *Diagnostics {
	return &Diagnostics{}
}

// AddStatusRecord appends an error record.
func (d *Diagnostics) AddStatusRecord(state SQLState, message string) {
	d.add(Record{State: state, Message: message, Severity: SeverityError})
}

// AddWarning appends a warning record.
func (d *Diagnostics) AddWarning(state SQLState, message string) {
	d.add(Record{State: state, Message: message, Severity: SeverityWarning})
}

// AddRecord appends r as is.
func (d *Diagnostics) AddRecord(r Record) {
	d.add(r)
}

func (d *Diagnostics) add(r Record) {
	d.mu.Lock()
	d.records = append(d.records, r)
	d.mu.Unlock()

	log := logging.WithComponent("diag")
	if r.Severity == SeverityWarning {
		log.Warn(r.Message, "sqlstate", string(r.State))
	} else {
		log.Error(r.Message, "sqlstate", string(r.State))
	}
}

// Records returns a copy of the collected records.
func (d *Diagnostics) Records() []Record {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]Record, len(d.records))
	copy(out, d.records)
	return out
}

// Len returns the number of records.
func (d *Diagnostics) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.records)
}

// Last returns the most recent record.
func (d *Diagnostics) Last() (Record, bool) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if len(d.records) == 0 {
		return Record{}, false
	}
	return d.records[len(d.records)-1], true
}

// HasState reports whether a record with state was collected.
func (d *Diagnostics) HasState(state SQLState) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, r := range d.records {
		if r.State == state {
			return true
		}
	}
	return false
}

// Err joins every error-severity record, or returns nil when there are none.
func (d *Diagnostics) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var errs []error
	for _, r := range d.records {
		if r.Severity == SeverityError {
			errs = append(errs, r)
		}
	}
	return errors.Join(errs...)
}

// Warnings returns the messages of warning records.
func (d *Diagnostics) Warnings() []string {
	d.mu.Lock()
	defer d.mu.Unlock()
	var out []string
	for _, r := range d.records {
		if r.Severity == SeverityWarning {
			out = append(out, r.Message)
		}
	}
	return out
}

// Clear drops every record.
func (d *Diagnostics) Clear() {
	d.mu.Lock()
	d.records = nil
	d.mu.Unlock()
}
