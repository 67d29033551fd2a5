package club

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"booknook-go/internal/domain/notification"
)

type fakeClubRepo struct {
	clubs   map[string]*Club
	members map[string]*Member

	allCodesTaken  bool
	addMemberErr   error
	roleUpdateErrs map[string]error
	deletedClubs   []string
}

func newFakeClubRepo() *fakeClubRepo {
	return &fakeClubRepo{
		clubs:          make(map[string]*Club),
		members:        make(map[string]*Member),
		roleUpdateErrs: make(map[string]error),
	}
}

func memberKey(clubID, userID string) string {
	return clubID + "|" + userID
}

func (r *fakeClubRepo) snapshot() (map[string]Club, map[string]Member) {
	clubs := make(map[string]Club, len(r.clubs))
	for id, club := range r.clubs {
		clubs[id] = *club
	}
	members := make(map[string]Member, len(r.members))
	for key, member := range r.members {
		members[key] = *member
	}
	return clubs, members
}

func (r *fakeClubRepo) restore(clubs map[string]Club, members map[string]Member) {
	r.clubs = make(map[string]*Club, len(clubs))
	for id, club := range clubs {
		copied := club
		r.clubs[id] = &copied
	}
	r.members = make(map[string]*Member, len(members))
	for key, member := range members {
		copied := member
		r.members[key] = &copied
	}
}

func (r *fakeClubRepo) Transaction(ctx context.Context, fn func(Repository) error) error {
	clubs, members := r.snapshot()
	if err := fn(r); err != nil {
		r.restore(clubs, members)
		return err
	}
	return nil
}

func (r *fakeClubRepo) GetClub(ctx context.Context, clubID string) (*Club, error) {
	club, ok := r.clubs[clubID]
	if !ok {
		return nil, ErrClubNotFound
	}
	copied := *club
	return &copied, nil
}

func (r *fakeClubRepo) GetClubByCode(ctx context.Context, code string) (*Club, error) {
	for _, club := range r.clubs {
		if club.JoinCode == code {
			copied := *club
			return &copied, nil
		}
	}
	return nil, ErrInvalidJoinCode
}

func (r *fakeClubRepo) GetMember(ctx context.Context, clubID, userID string) (*Member, error) {
	member, ok := r.members[memberKey(clubID, userID)]
	if !ok {
		return nil, ErrMemberNotFound
	}
	copied := *member
	return &copied, nil
}

func (r *fakeClubRepo) GetOwner(ctx context.Context, clubID string) (*Member, error) {
	for _, member := range r.members {
		if member.ClubID == clubID && member.Role == RoleOwner {
			copied := *member
			return &copied, nil
		}
	}
	return nil, ErrMemberNotFound
}

func (r *fakeClubRepo) ListMembersWithProfiles(ctx context.Context, clubID string) ([]MemberProfile, error) {
	result := make([]MemberProfile, 0)
	for _, member := range r.members {
		if member.ClubID == clubID {
			result = append(result, MemberProfile{UserID: member.UserID, Role: member.Role, JoinedAt: member.JoinedAt})
		}
	}
	return result, nil
}

func (r *fakeClubRepo) ListClubsForUser(ctx context.Context, userID string) ([]ClubSummary, error) {
	result := make([]ClubSummary, 0)
	for _, member := range r.members {
		if member.UserID != userID {
			continue
		}
		count, _ := r.CountMembers(ctx, member.ClubID)
		result = append(result, ClubSummary{Club: *r.clubs[member.ClubID], Role: member.Role, MemberCount: count})
	}
	return result, nil
}

func (r *fakeClubRepo) CreateClub(ctx context.Context, club *Club) error {
	now := time.Now().UTC()
	club.CreatedAt = now
	club.UpdatedAt = now
	copied := *club
	r.clubs[club.ID] = &copied
	return nil
}

func (r *fakeClubRepo) AddMember(ctx context.Context, member *Member) error {
	if r.addMemberErr != nil {
		return r.addMemberErr
	}
	key := memberKey(member.ClubID, member.UserID)
	if _, ok := r.members[key]; ok {
		return ErrAlreadyMember
	}
	member.JoinedAt = time.Now().UTC()
	copied := *member
	r.members[key] = &copied
	return nil
}

func (r *fakeClubRepo) UpdateClub(ctx context.Context, club *Club) error {
	if _, ok := r.clubs[club.ID]; !ok {
		return ErrClubNotFound
	}
	club.UpdatedAt = time.Now().UTC()
	copied := *club
	r.clubs[club.ID] = &copied
	return nil
}

func (r *fakeClubRepo) UpdateMemberRole(ctx context.Context, clubID, userID string, role Role) error {
	if err := r.roleUpdateErrs[userID]; err != nil {
		return err
	}
	member, ok := r.members[memberKey(clubID, userID)]
	if !ok {
		return ErrMemberNotFound
	}
	member.Role = role
	return nil
}

func (r *fakeClubRepo) DeleteMember(ctx context.Context, clubID, userID string) error {
	delete(r.members, memberKey(clubID, userID))
	return nil
}

func (r *fakeClubRepo) DeleteClubCascade(ctx context.Context, clubID string) error {
	for key, member := range r.members {
		if member.ClubID == clubID {
			delete(r.members, key)
		}
	}
	delete(r.clubs, clubID)
	r.deletedClubs = append(r.deletedClubs, clubID)
	return nil
}

func (r *fakeClubRepo) CountMembers(ctx context.Context, clubID string) (int64, error) {
	var count int64
	for _, member := range r.members {
		if member.ClubID == clubID {
			count++
		}
	}
	return count, nil
}

func (r *fakeClubRepo) IsCodeTaken(ctx context.Context, code string) (bool, error) {
	if r.allCodesTaken {
		return true, nil
	}
	for _, club := range r.clubs {
		if club.JoinCode == code {
			return true, nil
		}
	}
	return false, nil
}

type recordingAnnouncer struct {
	announcements []notification.Announcement
}

func (a *recordingAnnouncer) Announce(ctx context.Context, announcement notification.Announcement) {
	a.announcements = append(a.announcements, announcement)
}

func seedClub(repo *fakeClubRepo, members map[string]Role) {
	repo.clubs["club-1"] = &Club{ID: "club-1", Name: "Mystery Lovers", JoinCode: "ABC123"}
	for userID, role := range members {
		repo.members[memberKey("club-1", userID)] = &Member{ClubID: "club-1", UserID: userID, Role: role}
	}
}

func countOwners(repo *fakeClubRepo, clubID string) int {
	owners := 0
	for _, member := range repo.members {
		if member.ClubID == clubID && member.Role == RoleOwner {
			owners++
		}
	}
	return owners
}

func TestCreateClubSuccess(t *testing.T) {
	repo := newFakeClubRepo()
	svc := NewService(repo, nil)

	result, err := svc.CreateClub(context.Background(), "alice", "  Mystery Lovers  ", " whodunits ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.Name != "Mystery Lovers" || result.Description != "whodunits" {
		t.Fatalf("expected trimmed fields, got %+v", result)
	}
	if len(result.JoinCode) != 6 {
		t.Fatalf("expected code length 6, got %q", result.JoinCode)
	}
	for _, r := range result.JoinCode {
		if !strings.ContainsRune(joinCodeAlphabet, r) {
			t.Fatalf("unexpected code character %q in %q", r, result.JoinCode)
		}
	}
	member, ok := repo.members[memberKey(result.ID, "alice")]
	if !ok || member.Role != RoleOwner {
		t.Fatalf("expected owner membership, got %+v", member)
	}
}

func TestCreateClubRollsBackWhenOwnerInsertFails(t *testing.T) {
	repo := newFakeClubRepo()
	repo.addMemberErr = errors.New("insert failed")
	svc := NewService(repo, nil)

	_, err := svc.CreateClub(context.Background(), "alice", "Mystery Lovers", "")
	if err == nil {
		t.Fatalf("expected error")
	}
	if len(repo.clubs) != 0 {
		t.Fatalf("expected club rolled back, got %d clubs", len(repo.clubs))
	}
	if len(repo.members) != 0 {
		t.Fatalf("expected no memberships, got %d", len(repo.members))
	}
}

func TestCreateClubValidation(t *testing.T) {
	svc := NewService(newFakeClubRepo(), nil)

	_, err := svc.CreateClub(context.Background(), "alice", "   ", "")
	var validation ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError, got %v", err)
	}

	_, err = svc.CreateClub(context.Background(), "alice", strings.Repeat("x", 101), "")
	if !errors.As(err, &validation) {
		t.Fatalf("expected ValidationError for long name, got %v", err)
	}
}

func TestCreateClubCodeExhausted(t *testing.T) {
	repo := newFakeClubRepo()
	repo.allCodesTaken = true
	svc := NewService(repo, nil)

	_, err := svc.CreateClub(context.Background(), "alice", "Mystery Lovers", "")
	if !errors.Is(err, ErrCodeGenerationFailed) {
		t.Fatalf("expected ErrCodeGenerationFailed, got %v", err)
	}
}

func TestJoinClubNormalizesCode(t *testing.T) {
	repo := newFakeClubRepo()
	seedClub(repo, map[string]Role{"alice": RoleOwner})
	announcer := &recordingAnnouncer{}
	svc := NewService(repo, announcer)

	result, err := svc.JoinClub(context.Background(), "bob", " abc123 ")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.ID != "club-1" {
		t.Fatalf("expected club-1, got %s", result.ID)
	}
	member := repo.members[memberKey("club-1", "bob")]
	if member == nil || member.Role != RoleMember {
		t.Fatalf("expected member role, got %+v", member)
	}
	if len(announcer.announcements) != 1 || announcer.announcements[0].Type != notification.TypeMemberJoined {
		t.Fatalf("expected member_joined announcement, got %+v", announcer.announcements)
	}
}

func TestJoinClubInvalidCode(t *testing.T) {
	repo := newFakeClubRepo()
	seedClub(repo, map[string]Role{"alice": RoleOwner})
	svc := NewService(repo, nil)

	_, err := svc.JoinClub(context.Background(), "bob", "ZZZZZZ")
	if !errors.Is(err, ErrInvalidJoinCode) {
		t.Fatalf("expected ErrInvalidJoinCode, got %v", err)
	}
	if len(repo.members) != 1 {
		t.Fatalf("expected no new membership, got %d", len(repo.members))
	}
}

func TestJoinClubAlreadyMember(t *testing.T) {
	repo := newFakeClubRepo()
	seedClub(repo, map[string]Role{"alice": RoleOwner, "bob": RoleMember})
	svc := NewService(repo, nil)

	_, err := svc.JoinClub(context.Background(), "bob", "ABC123")
	if !errors.Is(err, ErrAlreadyMember) {
		t.Fatalf("expected ErrAlreadyMember, got %v", err)
	}
}

func TestLeaveClubMember(t *testing.T) {
	repo := newFakeClubRepo()
	seedClub(repo, map[string]Role{"alice": RoleOwner, "bob": RoleMember})
	svc := NewService(repo, nil)

	if err := svc.LeaveClub(context.Background(), "bob", "club-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := repo.members[memberKey("club-1", "bob")]; ok {
		t.Fatalf("expected membership removed")
	}
	if _, ok := repo.clubs["club-1"]; !ok {
		t.Fatalf("expected club to remain")
	}
}

func TestLeaveClubOwnerMustTransfer(t *testing.T) {
	repo := newFakeClubRepo()
	seedClub(repo, map[string]Role{"alice": RoleOwner, "bob": RoleMember})
	svc := NewService(repo, nil)

	err := svc.LeaveClub(context.Background(), "alice", "club-1")
	if !errors.Is(err, ErrOwnerMustTransfer) {
		t.Fatalf("expected ErrOwnerMustTransfer, got %v", err)
	}
	if countOwners(repo, "club-1") != 1 {
		t.Fatalf("expected owner to remain")
	}
}

func TestLeaveClubSoleOwnerDeletesClub(t *testing.T) {
	repo := newFakeClubRepo()
	seedClub(repo, map[string]Role{"alice": RoleOwner})
	svc := NewService(repo, nil)

	if err := svc.LeaveClub(context.Background(), "alice", "club-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, ok := repo.clubs["club-1"]; ok {
		t.Fatalf("expected club deleted")
	}
}

func TestDeleteClubRequiresOwner(t *testing.T) {
	repo := newFakeClubRepo()
	seedClub(repo, map[string]Role{"alice": RoleOwner, "bob": RoleAdmin})
	svc := NewService(repo, nil)

	if err := svc.DeleteClub(context.Background(), "bob", "club-1"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
	if err := svc.DeleteClub(context.Background(), "mallory", "club-1"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
	if err := svc.DeleteClub(context.Background(), "alice", "missing"); !errors.Is(err, ErrClubNotFound) {
		t.Fatalf("expected ErrClubNotFound, got %v", err)
	}
	if err := svc.DeleteClub(context.Background(), "alice", "club-1"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(repo.members) != 0 || len(repo.deletedClubs) != 1 {
		t.Fatalf("expected club and memberships deleted")
	}
}

func TestTransferOwnership(t *testing.T) {
	repo := newFakeClubRepo()
	seedClub(repo, map[string]Role{"alice": RoleOwner, "bob": RoleMember})
	svc := NewService(repo, nil)

	if err := svc.TransferOwnership(context.Background(), "alice", "club-1", "bob"); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.members[memberKey("club-1", "alice")].Role != RoleAdmin {
		t.Fatalf("expected alice demoted to admin")
	}
	if repo.members[memberKey("club-1", "bob")].Role != RoleOwner {
		t.Fatalf("expected bob promoted to owner")
	}
	if countOwners(repo, "club-1") != 1 {
		t.Fatalf("expected exactly one owner")
	}
}

func TestTransferOwnershipRollsBack(t *testing.T) {
	repo := newFakeClubRepo()
	seedClub(repo, map[string]Role{"alice": RoleOwner, "bob": RoleMember})
	repo.roleUpdateErrs["bob"] = errors.New("write failed")
	svc := NewService(repo, nil)

	if err := svc.TransferOwnership(context.Background(), "alice", "club-1", "bob"); err == nil {
		t.Fatalf("expected error")
	}
	if repo.members[memberKey("club-1", "alice")].Role != RoleOwner {
		t.Fatalf("expected alice to stay owner after rollback")
	}
	if countOwners(repo, "club-1") != 1 {
		t.Fatalf("expected exactly one owner")
	}
}

func TestTransferOwnershipRejectsInvalidTargets(t *testing.T) {
	repo := newFakeClubRepo()
	seedClub(repo, map[string]Role{"alice": RoleOwner, "bob": RoleAdmin})
	svc := NewService(repo, nil)

	if err := svc.TransferOwnership(context.Background(), "alice", "club-1", "alice"); !errors.Is(err, ErrCannotTargetSelf) {
		t.Fatalf("expected ErrCannotTargetSelf, got %v", err)
	}
	if err := svc.TransferOwnership(context.Background(), "alice", "club-1", "stranger"); !errors.Is(err, ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
	if err := svc.TransferOwnership(context.Background(), "bob", "club-1", "alice"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}
}

func TestSetMemberRole(t *testing.T) {
	repo := newFakeClubRepo()
	seedClub(repo, map[string]Role{"alice": RoleOwner, "bob": RoleMember, "carol": RoleAdmin})
	svc := NewService(repo, nil)

	if err := svc.SetMemberRole(context.Background(), "alice", "club-1", "bob", RoleAdmin); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if repo.members[memberKey("club-1", "bob")].Role != RoleAdmin {
		t.Fatalf("expected bob promoted")
	}
	if err := svc.SetMemberRole(context.Background(), "carol", "club-1", "bob", RoleMember); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for admin, got %v", err)
	}
	if err := svc.SetMemberRole(context.Background(), "alice", "club-1", "bob", RoleOwner); !errors.Is(err, ErrInvalidRole) {
		t.Fatalf("expected ErrInvalidRole, got %v", err)
	}
	if err := svc.SetMemberRole(context.Background(), "alice", "club-1", "alice", RoleMember); !errors.Is(err, ErrCannotTargetSelf) {
		t.Fatalf("expected ErrCannotTargetSelf, got %v", err)
	}
}

func TestRemoveMember(t *testing.T) {
	repo := newFakeClubRepo()
	seedClub(repo, map[string]Role{"alice": RoleOwner, "bob": RoleAdmin, "carol": RoleAdmin, "dave": RoleMember, "erin": RoleMember})
	svc := NewService(repo, nil)
	ctx := context.Background()

	if err := svc.RemoveMember(ctx, "dave", "club-1", "erin"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for member, got %v", err)
	}
	if err := svc.RemoveMember(ctx, "bob", "club-1", "carol"); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden for admin removing admin, got %v", err)
	}
	if err := svc.RemoveMember(ctx, "bob", "club-1", "alice"); !errors.Is(err, ErrCannotRemoveOwner) {
		t.Fatalf("expected ErrCannotRemoveOwner, got %v", err)
	}
	if err := svc.RemoveMember(ctx, "bob", "club-1", "bob"); !errors.Is(err, ErrCannotTargetSelf) {
		t.Fatalf("expected ErrCannotTargetSelf, got %v", err)
	}
	if err := svc.RemoveMember(ctx, "bob", "club-1", "dave"); err != nil {
		t.Fatalf("expected admin to remove member, got %v", err)
	}
	if err := svc.RemoveMember(ctx, "alice", "club-1", "carol"); err != nil {
		t.Fatalf("expected owner to remove admin, got %v", err)
	}
	if len(repo.members) != 3 {
		t.Fatalf("expected 3 members left, got %d", len(repo.members))
	}
}

func TestUpdateClubAnnouncesURLChange(t *testing.T) {
	repo := newFakeClubRepo()
	seedClub(repo, map[string]Role{"alice": RoleOwner, "bob": RoleAdmin, "dave": RoleMember})
	announcer := &recordingAnnouncer{}
	svc := NewService(repo, announcer)
	ctx := context.Background()

	url := "https://meet.example.com/mystery"
	if _, err := svc.UpdateClub(ctx, "dave", "club-1", UpdateClubInput{URL: &url}); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected ErrForbidden, got %v", err)
	}

	result, err := svc.UpdateClub(ctx, "bob", "club-1", UpdateClubInput{URL: &url})
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if result.URL == nil || *result.URL != url {
		t.Fatalf("expected url stored, got %v", result.URL)
	}
	if len(announcer.announcements) != 1 {
		t.Fatalf("expected 1 announcement, got %d", len(announcer.announcements))
	}
	got := announcer.announcements[0]
	if got.Type != notification.TypeURLChanged || got.Title != "Meeting URL Updated" {
		t.Fatalf("unexpected announcement %+v", got)
	}
	want := "Mystery Lovers: The club meeting URL has been changed to: " + url
	if got.Description != want {
		t.Fatalf("expected description %q, got %q", want, got.Description)
	}

	name := "Cozy Mysteries"
	if _, err := svc.UpdateClub(ctx, "alice", "club-1", UpdateClubInput{Name: &name, URL: &url}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(announcer.announcements) != 1 {
		t.Fatalf("expected no announcement for unchanged url, got %d", len(announcer.announcements))
	}
}

func TestGetClubDerivesOwner(t *testing.T) {
	repo := newFakeClubRepo()
	seedClub(repo, map[string]Role{"alice": RoleOwner, "bob": RoleMember})
	svc := NewService(repo, nil)

	details, err := svc.GetClub(context.Background(), "bob", "club-1")
	if err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if details.OwnerID != "alice" || details.Role != RoleMember || details.MemberCount != 2 {
		t.Fatalf("unexpected details %+v", details)
	}
	if CanSeeJoinCode(details.Role) {
		t.Fatalf("members must not see the join code")
	}
	if _, err := svc.GetClub(context.Background(), "stranger", "club-1"); !errors.Is(err, ErrNotMember) {
		t.Fatalf("expected ErrNotMember, got %v", err)
	}
}

func TestParseRole(t *testing.T) {
	role, ok := ParseRole(" Host ")
	if !ok || role != RoleOwner {
		t.Fatalf("expected host to map to owner, got %q", role)
	}
	if _, ok := ParseRole("superuser"); ok {
		t.Fatalf("expected unknown role to be rejected")
	}
	if !RoleOwner.AtLeast(RoleAdmin) || RoleMember.AtLeast(RoleAdmin) || Role("").AtLeast(RoleMember) {
		t.Fatalf("unexpected role ordering")
	}
}
