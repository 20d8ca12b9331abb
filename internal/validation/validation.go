// Package validation holds the pure preconditions for the request lifecycle.
// Rules do no I/O and return a Result instead of an error so callers can
// translate to the HTTP surface; check order is part of the contract.
package validation

import (
	"math"
	"strings"

	"github.com/slugpoints/slugpoints-backend/internal/models"
)

type Result struct {
	Valid  bool
	Err    string
	Status int
}

func ok() Result { return Result{Valid: true} }

func invalid(msg string, status int) Result {
	return Result{Valid: false, Err: msg, Status: status}
}

// CreateRequestInput is the typed form of a create body. It only exists as
// the output of ParseCreateRequest, so anything holding one is fully
// validated.
type CreateRequestInput struct {
	Location        string
	PointsRequested int64
	Message         *string
}

// asInteger reports whether v is a numeric value holding an integer.
// JSON bodies decode numbers as float64; string-typed digits are not numeric.
func asInteger(v any) (int64, bool) {
	switch n := v.(type) {
	case float64:
		if n != math.Trunc(n) || n > math.MaxInt64 || n < math.MinInt64 {
			return 0, false
		}
		return int64(n), true
	case int:
		return int64(n), true
	case int64:
		return n, true
	}
	return 0, false
}

// ValidateCreateRequest checks the raw create inputs: location must be a
// non-empty string after trimming, pointsRequested a positive integer with
// numeric type.
func ValidateCreateRequest(location, pointsRequested any) Result {
	s, isString := location.(string)
	if !isString || strings.TrimSpace(s) == "" {
		return invalid("Location is required", 400)
	}

	n, isInt := asInteger(pointsRequested)
	if !isInt || n <= 0 {
		return invalid("Points requested must be a positive integer", 400)
	}

	return ok()
}

// ParseCreateRequest validates and converts raw create inputs. Location and
// message are trimmed; an empty message becomes nil.
func ParseCreateRequest(location, pointsRequested, message any) (CreateRequestInput, Result) {
	if res := ValidateCreateRequest(location, pointsRequested); !res.Valid {
		return CreateRequestInput{}, res
	}

	in := CreateRequestInput{
		Location: strings.TrimSpace(location.(string)),
	}
	in.PointsRequested, _ = asInteger(pointsRequested)

	if s, isString := message.(string); isString {
		if trimmed := strings.TrimSpace(s); trimmed != "" {
			in.Message = &trimmed
		}
	}
	return in, ok()
}

// ValidateDeleteRequest gates removal of a request. Order matters: a caller
// cannot learn ownership or status of a record that does not exist, so
// not-found comes first, then ownership, then status. req == nil means the
// request was not found.
func ValidateDeleteRequest(req *models.Request, userID string) Result {
	if req == nil {
		return invalid("Request not found", 404)
	}
	if req.RequesterID != userID {
		return invalid("You can only delete your own requests", 403)
	}
	if req.Status != models.RequestPending {
		return invalid("You can only delete pending requests", 400)
	}
	return ok()
}

// ValidateAcceptRequest gates a donor accepting a request. Fixed order:
// existence, self-accept, pending status, balance sufficiency. A donor
// balance exactly equal to the requested points is sufficient.
func ValidateAcceptRequest(req *models.Request, userID string, donorBalance int64) Result {
	if req == nil {
		return invalid("Request not found", 404)
	}
	if req.RequesterID == userID {
		return invalid("You cannot accept your own request", 400)
	}
	if req.Status != models.RequestPending {
		return invalid("Request is no longer pending", 400)
	}
	if donorBalance < req.PointsRequested {
		return invalid("Insufficient points balance", 400)
	}
	return ok()
}

// ValidateDeclineRequest mirrors accept minus the balance check.
func ValidateDeclineRequest(req *models.Request, userID string) Result {
	if req == nil {
		return invalid("Request not found", 404)
	}
	if req.RequesterID == userID {
		return invalid("You cannot decline your own request", 400)
	}
	if req.Status != models.RequestPending {
		return invalid("Request is no longer pending", 400)
	}
	return ok()
}

// ValidateSetBalance checks an explicit balance overwrite: numeric type,
// integral, non-negative.
func ValidateSetBalance(balance any) (int64, Result) {
	n, isInt := asInteger(balance)
	if !isInt || n < 0 {
		return 0, invalid("Balance must be a non-negative number", 400)
	}
	return n, ok()
}
