package model

import (
	"slices"
	"time"
)

// RequestStatus describes the lifecycle state of a donation request.
type RequestStatus string

// Donation request statuses. A request is created as pending; donors
// and requesters move it through the remaining states.
const (
	RequestStatusPending    RequestStatus = "pending"
	RequestStatusInProgress RequestStatus = "inprogress"
	RequestStatusDone       RequestStatus = "done"
	RequestStatusCanceled   RequestStatus = "canceled"
)

// TransitionStatuses are the statuses a caller may move an existing
// request to. "pending" is reserved for creation. Any-to-any movement
// within this set is allowed; there is no adjacency restriction.
var TransitionStatuses = []RequestStatus{
	RequestStatusInProgress,
	RequestStatusDone,
	RequestStatusCanceled,
}

// IsValidTransitionStatus reports whether s may be assigned through a
// status update.
func IsValidTransitionStatus(s RequestStatus) bool {
	return slices.Contains(TransitionStatuses, s)
}

// Donor identifies the donor who claimed a request.
type Donor struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

// DonationRequest represents a plea for blood at a specific place and
// time. The donor field stays null until a donor claims the request.
type DonationRequest struct {
	ID                string        `json:"id"`
	RequesterName     string        `json:"requesterName,omitempty"`
	RequesterEmail    string        `json:"requesterEmail"`
	RecipientName     string        `json:"recipientName,omitempty"`
	RecipientDistrict string        `json:"recipientDistrict,omitempty"`
	RecipientUpazila  string        `json:"recipientUpazila,omitempty"`
	HospitalName      string        `json:"hospitalName,omitempty"`
	FullAddress       string        `json:"fullAddress,omitempty"`
	BloodGroup        string        `json:"bloodGroup,omitempty"`
	DonationDate      string        `json:"donationDate,omitempty"`
	DonationTime      string        `json:"donationTime,omitempty"`
	RequestMessage    string        `json:"requestMessage,omitempty"`
	Status            RequestStatus `json:"status"`
	Donor             *Donor        `json:"donor"`
	CreatedAt         time.Time     `json:"createdAt"`
}
