package stock

import "fmt"

// DocStatus is the document lifecycle state of a reservation entry
type DocStatus int

const (
	DocStatusDraft     DocStatus = 0
	DocStatusSubmitted DocStatus = 1
	DocStatusCancelled DocStatus = 2
)

// IsValid checks if the value is a known DocStatus
func (d DocStatus) IsValid() bool {
	switch d {
	case DocStatusDraft, DocStatusSubmitted, DocStatusCancelled:
		return true
	}
	return false
}

// String returns a human readable name
func (d DocStatus) String() string {
	switch d {
	case DocStatusDraft:
		return "Draft"
	case DocStatusSubmitted:
		return "Submitted"
	case DocStatusCancelled:
		return "Cancelled"
	}
	return fmt.Sprintf("DocStatus(%d)", int(d))
}

// CanTransitionTo reports whether the lifecycle allows moving to target.
// Draft -> Submitted -> Cancelled; Cancelled is terminal.
func (d DocStatus) CanTransitionTo(target DocStatus) bool {
	switch d {
	case DocStatusDraft:
		return target == DocStatusSubmitted
	case DocStatusSubmitted:
		return target == DocStatusCancelled
	}
	return false
}
