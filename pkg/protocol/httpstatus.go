package protocol

import "net/http"

// HTTPStatus maps a protocol Kind to the status code the receiver server
// replies with, per the procedures in spec §4.3.
func HTTPStatus(k Kind) int {
	switch k {
	case InvalidToken, Rejected:
		return http.StatusForbidden
	case InvalidFile:
		return http.StatusNotFound
	case SessionBlocked:
		return http.StatusConflict
	case InvalidPin, PinRequired:
		return http.StatusUnauthorized
	case RateLimited:
		return http.StatusTooManyRequests
	case IO:
		return http.StatusInternalServerError
	case InvalidDevice, InvalidState:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
