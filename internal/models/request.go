package models

import "time"

type RequestStatus string

const (
	RequestPending  RequestStatus = "pending"
	RequestAccepted RequestStatus = "accepted"
	RequestDeclined RequestStatus = "declined"
)

// Request is a single ask for points. Status is monotonic: pending may move
// to accepted or declined (both terminal) or be deleted while still pending.
// DonorID is set exactly when the request leaves pending.
type Request struct {
	ID              string        `json:"id"`
	RequesterID     string        `json:"requester_id"`
	DonorID         *string       `json:"donor_id"`
	Location        string        `json:"location"`
	PointsRequested int64         `json:"points_requested"`
	Message         *string       `json:"message"`
	Status          RequestStatus `json:"status"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`

	Requester *UserRef `json:"requester,omitempty"`
	Donor     *UserRef `json:"donor,omitempty"`
}
