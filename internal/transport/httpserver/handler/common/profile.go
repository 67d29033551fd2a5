package common

import (
	"io"
	"net/http"
	"time"

	"booknook-go/internal/domain/media"
	userdomain "booknook-go/internal/domain/user"
)

type profileResponse struct {
	ID        string    `json:"id"`
	Username  string    `json:"username"`
	Email     *string   `json:"email"`
	Bio       *string   `json:"bio"`
	PhotoURL  *string   `json:"photo_url"`
	ClubURL   *string   `json:"club_url"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

type updateProfileRequest struct {
	Username *string `json:"username"`
	Email    *string `json:"email"`
	Bio      *string `json:"bio"`
	ClubURL  *string `json:"club_url"`
}

var profileRules = []Rule{
	{Match: Is(userdomain.ErrProfileNotFound), Status: http.StatusNotFound, Code: "profile_not_found"},
	{Match: As[userdomain.ValidationError](), Status: http.StatusBadRequest, Code: "invalid_request"},
}

func toProfileResponse(profile *userdomain.Profile) profileResponse {
	return profileResponse{
		ID:        profile.ID,
		Username:  profile.Username,
		Email:     profile.Email,
		Bio:       profile.Bio,
		PhotoURL:  profile.PhotoURL,
		ClubURL:   profile.ClubURL,
		CreatedAt: profile.CreatedAt,
		UpdatedAt: profile.UpdatedAt,
	}
}

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(w, r)
	if !ok {
		return
	}

	profile, err := h.Users.GetProfile(r.Context(), user.ID)
	if err != nil {
		Fail(w, h.log, "profile.get: get profile failed", err, profileRules, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := CurrentUser(w, r)
	if !ok {
		return
	}

	profile, err := h.Users.UpdateProfile(r.Context(), user.ID, userdomain.UpdateProfileInput{
		Username: req.Username,
		Email:    req.Email,
		Bio:      req.Bio,
		ClubURL:  req.ClubURL,
	})
	if err != nil {
		Fail(w, h.log, "profile.update: update profile failed", err, profileRules, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

func (h *Handlers) UpdatePhoto(w http.ResponseWriter, r *http.Request) {
	user, ok := CurrentUser(w, r)
	if !ok {
		return
	}

	upload, ok := ReadUpload(w, r, "file", true, h.maxUploadBytes)
	if !ok {
		return
	}

	profile, err := h.Users.UpdatePhoto(r.Context(), user.ID, *upload)
	if err != nil {
		Fail(w, h.log, "profile.photo: upload photo failed", err, Rules(MediaRules, profileRules), "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, toProfileResponse(profile))
}

// ReadUpload reads one multipart file field. A missing optional field yields
// (nil, true).
func ReadUpload(w http.ResponseWriter, r *http.Request, field string, required bool, limit int64) (*media.Upload, bool) {
	if limit <= 0 {
		limit = media.DefaultMaxBytes
	}
	if r.MultipartForm == nil {
		r.Body = http.MaxBytesReader(w, r.Body, limit+(1<<20))
		if err := r.ParseMultipartForm(limit); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_multipart", "invalid multipart body")
			return nil, false
		}
	}

	file, header, err := r.FormFile(field)
	if err != nil {
		if !required && err == http.ErrMissingFile {
			return nil, true
		}
		writeError(w, http.StatusBadRequest, "invalid_request", field+" is required")
		return nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid_request", "could not read upload")
		return nil, false
	}
	if int64(len(data)) > limit {
		writeError(w, http.StatusRequestEntityTooLarge, "image_too_large", media.ErrImageTooLarge.Error())
		return nil, false
	}

	return &media.Upload{
		Filename:    header.Filename,
		ContentType: header.Header.Get("Content-Type"),
		Data:        data,
	}, true
}
