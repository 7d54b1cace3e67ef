package km

import "fmt"

// APIError is a backend failure reported inside an otherwise valid
// HTTP 200 response.
type APIError struct {
	Code    int32
	Message string
}

func (e *APIError) Error() string {
	msg := e.Message
	if msg == "" {
		msg = "unknown error"
	}
	return fmt.Sprintf("api error %d: %s", e.Code, msg)
}

// NotEnoughPointsError is returned when a bulk purchase precheck finds
// the wallet short, before any request is made.
type NotEnoughPointsError struct {
	PointsNeeded uint64
	PointsHave   uint64
}

func (e *NotEnoughPointsError) Error() string {
	return fmt.Sprintf("not enough points: need %d, have %d", e.PointsNeeded, e.PointsHave)
}
