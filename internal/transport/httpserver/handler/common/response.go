package common

import (
	"encoding/json"
	"errors"
	"net/http"

	"booknook-go/internal/domain/club"
	"booknook-go/internal/domain/media"
	"booknook-go/pkg/logger"
)

type errorEnvelope struct {
	Error errorBody `json:"error"`
}

type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorEnvelope{Error: errorBody{Code: code, Message: message}})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func WriteError(w http.ResponseWriter, status int, code, message string) {
	writeError(w, status, code, message)
}

func WriteJSON(w http.ResponseWriter, status int, payload interface{}) {
	writeJSON(w, status, payload)
}

func DecodeJSON(r *http.Request, dst interface{}) error {
	return decodeJSON(r, dst)
}

// Rule maps a domain error to a status and error code. The error text
// becomes the message.
type Rule struct {
	Match  func(error) bool
	Status int
	Code   string
}

func Is(target error) func(error) bool {
	return func(err error) bool {
		return errors.Is(err, target)
	}
}

func As[T error]() func(error) bool {
	return func(err error) bool {
		var target T
		return errors.As(err, &target)
	}
}

// ClubPolicy covers the membership and role checks shared by every
// club-scoped route.
var ClubPolicy = []Rule{
	{Match: Is(club.ErrClubNotFound), Status: http.StatusNotFound, Code: "club_not_found"},
	{Match: Is(club.ErrNotMember), Status: http.StatusForbidden, Code: "not_member"},
	{Match: Is(club.ErrForbidden), Status: http.StatusForbidden, Code: "forbidden"},
}

var MediaRules = []Rule{
	{Match: Is(media.ErrEmptyUpload), Status: http.StatusBadRequest, Code: "empty_upload"},
	{Match: Is(media.ErrUnsupportedImage), Status: http.StatusBadRequest, Code: "unsupported_image"},
	{Match: Is(media.ErrImageTooLarge), Status: http.StatusRequestEntityTooLarge, Code: "image_too_large"},
}

// Fail writes the first matching rule as a business error and anything
// else as a 500.
func Fail(w http.ResponseWriter, log logger.Logger, op string, err error, rules []Rule, args ...any) {
	for _, rule := range rules {
		if rule.Match(err) {
			log.BusinessError(op, err, args...)
			writeError(w, rule.Status, rule.Code, err.Error())
			return
		}
	}
	log.InternalError(op, err, args...)
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}

func Rules(groups ...[]Rule) []Rule {
	var merged []Rule
	for _, group := range groups {
		merged = append(merged, group...)
	}
	return merged
}
