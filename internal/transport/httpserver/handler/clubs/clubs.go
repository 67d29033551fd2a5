package clubs

import (
	"net/http"
	"strings"
	"time"

	clubdomain "booknook-go/internal/domain/club"
	commonhandler "booknook-go/internal/transport/httpserver/handler/common"
	"github.com/go-chi/chi/v5"
)

type createClubRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type joinClubRequest struct {
	Code string `json:"code"`
}

type updateClubRequest struct {
	Name        *string `json:"name"`
	Description *string `json:"description"`
	URL         *string `json:"url"`
}

type transferRequest struct {
	UserID string `json:"user_id"`
}

type setRoleRequest struct {
	Role string `json:"role"`
}

type clubResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	URL         *string   `json:"url"`
	JoinCode    *string   `json:"join_code,omitempty"`
	Role        string    `json:"role,omitempty"`
	OwnerID     string    `json:"owner_id,omitempty"`
	MemberCount *int64    `json:"member_count,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type discussionPreviewResponse struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	CreatedAt time.Time `json:"created_at"`
}

type clubSummaryResponse struct {
	clubResponse
	LatestDiscussion *discussionPreviewResponse `json:"latest_discussion"`
}

type memberResponse struct {
	UserID   string    `json:"user_id"`
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
	Username *string   `json:"username"`
	Email    *string   `json:"email"`
	PhotoURL *string   `json:"photo_url"`
}

var clubRules = commonhandler.Rules(commonhandler.ClubPolicy, []commonhandler.Rule{
	{Match: commonhandler.Is(clubdomain.ErrInvalidJoinCode), Status: http.StatusNotFound, Code: "invalid_join_code"},
	{Match: commonhandler.Is(clubdomain.ErrAlreadyMember), Status: http.StatusConflict, Code: "already_member"},
	{Match: commonhandler.Is(clubdomain.ErrMemberNotFound), Status: http.StatusNotFound, Code: "member_not_found"},
	{Match: commonhandler.Is(clubdomain.ErrOwnerMustTransfer), Status: http.StatusConflict, Code: "owner_must_transfer"},
	{Match: commonhandler.Is(clubdomain.ErrCannotRemoveOwner), Status: http.StatusForbidden, Code: "cannot_remove_owner"},
	{Match: commonhandler.Is(clubdomain.ErrCannotTargetSelf), Status: http.StatusBadRequest, Code: "cannot_target_self"},
	{Match: commonhandler.Is(clubdomain.ErrInvalidRole), Status: http.StatusBadRequest, Code: "invalid_role"},
	{Match: commonhandler.As[clubdomain.ValidationError](), Status: http.StatusBadRequest, Code: "invalid_request"},
})

func toClubResponse(club clubdomain.Club, role clubdomain.Role) clubResponse {
	response := clubResponse{
		ID:          club.ID,
		Name:        club.Name,
		Description: club.Description,
		URL:         club.URL,
		Role:        string(role),
		CreatedAt:   club.CreatedAt,
		UpdatedAt:   club.UpdatedAt,
	}
	if clubdomain.CanSeeJoinCode(role) {
		code := club.JoinCode
		response.JoinCode = &code
	}
	return response
}

func (h *Handlers) fail(w http.ResponseWriter, op string, err error, args ...any) {
	commonhandler.Fail(w, h.log, op, err, clubRules, args...)
}

func (h *Handlers) ListClubs(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}

	summaries, err := h.Clubs.ListClubsForUser(r.Context(), user.ID)
	if err != nil {
		h.fail(w, "clubs.list: list clubs failed", err, "user_id", user.ID)
		return
	}

	response := make([]clubSummaryResponse, 0, len(summaries))
	for _, summary := range summaries {
		item := clubSummaryResponse{clubResponse: toClubResponse(summary.Club, summary.Role)}
		count := summary.MemberCount
		item.MemberCount = &count
		if summary.LatestDiscussion != nil {
			item.LatestDiscussion = &discussionPreviewResponse{
				ID:        summary.LatestDiscussion.ID,
				Title:     summary.LatestDiscussion.Title,
				CreatedAt: summary.LatestDiscussion.CreatedAt,
			}
		}
		response = append(response, item)
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) CreateClub(w http.ResponseWriter, r *http.Request) {
	var req createClubRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}

	club, err := h.Clubs.CreateClub(r.Context(), user.ID, req.Name, req.Description)
	if err != nil {
		h.fail(w, "clubs.create: create club failed", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusCreated, toClubResponse(*club, clubdomain.RoleOwner))
}

func (h *Handlers) JoinClub(w http.ResponseWriter, r *http.Request) {
	var req joinClubRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "code is required")
		return
	}

	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}

	club, err := h.Clubs.JoinClub(r.Context(), user.ID, req.Code)
	if err != nil {
		h.fail(w, "clubs.join: join club failed", err, "user_id", user.ID, "code", req.Code)
		return
	}
	writeJSON(w, http.StatusOK, toClubResponse(*club, clubdomain.RoleMember))
}

func (h *Handlers) GetClub(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")

	details, err := h.Clubs.GetClub(r.Context(), user.ID, clubID)
	if err != nil {
		h.fail(w, "clubs.get: get club failed", err, "user_id", user.ID, "club_id", clubID)
		return
	}

	response := toClubResponse(details.Club, details.Role)
	response.OwnerID = details.OwnerID
	count := details.MemberCount
	response.MemberCount = &count
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) UpdateClub(w http.ResponseWriter, r *http.Request) {
	var req updateClubRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")

	club, err := h.Clubs.UpdateClub(r.Context(), user.ID, clubID, clubdomain.UpdateClubInput{
		Name:        req.Name,
		Description: req.Description,
		URL:         req.URL,
	})
	if err != nil {
		h.fail(w, "clubs.update: update club failed", err, "user_id", user.ID, "club_id", clubID)
		return
	}
	writeJSON(w, http.StatusOK, toClubResponse(*club, clubdomain.RoleAdmin))
}

func (h *Handlers) DeleteClub(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")

	if err := h.Clubs.DeleteClub(r.Context(), user.ID, clubID); err != nil {
		h.fail(w, "clubs.delete: delete club failed", err, "user_id", user.ID, "club_id", clubID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) LeaveClub(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")

	if err := h.Clubs.LeaveClub(r.Context(), user.ID, clubID); err != nil {
		h.fail(w, "clubs.leave: leave club failed", err, "user_id", user.ID, "club_id", clubID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) TransferOwnership(w http.ResponseWriter, r *http.Request) {
	var req transferRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.UserID = strings.TrimSpace(req.UserID)
	if req.UserID == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "user_id is required")
		return
	}

	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")

	if err := h.Clubs.TransferOwnership(r.Context(), user.ID, clubID, req.UserID); err != nil {
		h.fail(w, "clubs.transfer: transfer ownership failed", err, "user_id", user.ID, "club_id", clubID, "target_id", req.UserID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ListMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")

	members, err := h.Clubs.ListMembers(r.Context(), user.ID, clubID)
	if err != nil {
		h.fail(w, "clubs.list_members: list members failed", err, "user_id", user.ID, "club_id", clubID)
		return
	}

	response := make([]memberResponse, 0, len(members))
	for _, member := range members {
		response = append(response, memberResponse{
			UserID:   member.UserID,
			Role:     string(member.Role),
			JoinedAt: member.JoinedAt,
			Username: member.Username,
			Email:    member.Email,
			PhotoURL: member.PhotoURL,
		})
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *Handlers) SetMemberRole(w http.ResponseWriter, r *http.Request) {
	var req setRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	role, valid := clubdomain.ParseRole(req.Role)
	if !valid {
		writeError(w, http.StatusBadRequest, "invalid_role", "role must be admin or member")
		return
	}

	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")
	targetID := chi.URLParam(r, "user_id")

	if err := h.Clubs.SetMemberRole(r.Context(), user.ID, clubID, targetID, role); err != nil {
		h.fail(w, "clubs.set_role: set member role failed", err, "user_id", user.ID, "club_id", clubID, "target_id", targetID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) RemoveMember(w http.ResponseWriter, r *http.Request) {
	user, ok := commonhandler.CurrentUser(w, r)
	if !ok {
		return
	}
	clubID := chi.URLParam(r, "club_id")
	targetID := chi.URLParam(r, "user_id")

	if err := h.Clubs.RemoveMember(r.Context(), user.ID, clubID, targetID); err != nil {
		h.fail(w, "clubs.remove_member: remove member failed", err, "user_id", user.ID, "club_id", clubID, "target_id", targetID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
