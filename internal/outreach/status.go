// Package outreach tracks where each lead sits in the outreach pipeline.
//
// Status set:
//
//	to_be_outreached   outreached   followed_up   replied
//
// The set is flat: any status may move to any other, including back to
// to_be_outreached. New leads always start at to_be_outreached.
package outreach

import "fmt"

// Status is the outreach stage of a lead.
type Status string

const (
	StatusToBeOutreached Status = "to_be_outreached"
	StatusOutreached     Status = "outreached"
	StatusFollowedUp     Status = "followed_up"
	StatusReplied        Status = "replied"
)

// InitialStatus is assigned to every newly assembled lead.
const InitialStatus = StatusToBeOutreached

// AllStatuses returns every status in pipeline order.
func AllStatuses() []Status {
	return []Status{StatusToBeOutreached, StatusOutreached, StatusFollowedUp, StatusReplied}
}

// ParseStatus converts a raw string to a Status, returning an error for
// unknown values. Matching is exact: no case folding, no trimming.
func ParseStatus(s string) (Status, error) {
	st := Status(s)
	switch st {
	case StatusToBeOutreached, StatusOutreached, StatusFollowedUp, StatusReplied:
		return st, nil
	}
	return "", fmt.Errorf("unknown lead status %q", s)
}

// IsTransitionAllowed reports whether a lead may move from → to. Both ends
// must be known statuses; beyond that every move is allowed.
func IsTransitionAllowed(from, to Status) bool {
	if _, err := ParseStatus(string(from)); err != nil {
		return false
	}
	_, err := ParseStatus(string(to))
	return err == nil
}
