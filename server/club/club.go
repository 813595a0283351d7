// Package club owns club and membership state: creation, updates, join
// requests, applicant decisions, leadership transfer and exits. Capacity and
// role rules are checked inside a single transaction per mutation, existence
// before domain state before authorization.
package club

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gatherhq/gather-server/server/cascade"
	"github.com/gatherhq/gather-server/server/domain"
)

type Engine struct {
	store   domain.Store
	cascade *cascade.Coordinator
	now     func() time.Time
}

func New(store domain.Store, coordinator *cascade.Coordinator) *Engine {
	return &Engine{
		store:   store,
		cascade: coordinator,
		now:     time.Now,
	}
}

type CreateParams struct {
	Name        string
	Description string
	MaxPeople   int
}

type UpdateParams struct {
	Name        string
	Description string
	MaxPeople   int
}

// Create creates the club together with its implicit LEADER membership for
// the principal.
func (e *Engine) Create(ctx context.Context, principal domain.Principal, params CreateParams) (*domain.Club, error) {
	var club *domain.Club
	err := e.store.InTx(ctx, func(tx domain.Store) error {
		created, err := tx.CreateClub(ctx, domain.Club{
			HostID:      principal.ID,
			Name:        params.Name,
			Description: params.Description,
			MaxPeople:   params.MaxPeople,
		})
		if err != nil {
			return fmt.Errorf("failed to create club: %w", err)
		}

		if _, err = tx.CreateClubMember(ctx, domain.ClubMember{
			ClubID: created.ID,
			UserID: principal.ID,
			Status: domain.MemberStatusLeader,
		}); err != nil {
			return fmt.Errorf("failed to create leader membership: %w", err)
		}

		club = created
		return nil
	})
	if err != nil {
		return nil, err
	}
	return club, nil
}

// List returns all clubs.
func (e *Engine) List(ctx context.Context) ([]domain.Club, error) {
	return e.store.ListClubs(ctx)
}

// Update mutates name, description and capacity. Only the host may update,
// and the new capacity may not drop below the current approved headcount.
func (e *Engine) Update(ctx context.Context, principal domain.Principal, clubID int64, params UpdateParams) (*domain.Club, error) {
	var club *domain.Club
	err := e.store.InTx(ctx, func(tx domain.Store) error {
		current, err := tx.GetClubForUpdate(ctx, clubID)
		if err != nil {
			return fmt.Errorf("failed to get club: %w", err)
		}
		if current == nil {
			return domain.NotFoundf("club %d does not exist", clubID)
		}
		if current.HostID != principal.ID {
			return domain.Forbiddenf("only the club host can update the club")
		}

		headcount, err := approvedHeadcount(ctx, tx, clubID)
		if err != nil {
			return err
		}
		if params.MaxPeople < headcount {
			return domain.Conflictf("max people cannot be less than the current member count %d", headcount)
		}

		current.Name = params.Name
		current.Description = params.Description
		current.MaxPeople = params.MaxPeople

		club, err = tx.UpdateClub(ctx, *current)
		if err != nil {
			return fmt.Errorf("failed to update club: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return club, nil
}

// Delete tears the club down: dependent events are reconciled by the cascade
// coordinator, then all memberships and the club row are removed, in one
// transaction.
func (e *Engine) Delete(ctx context.Context, principal domain.Principal, clubID int64) error {
	return e.store.InTx(ctx, func(tx domain.Store) error {
		club, err := tx.GetClubForUpdate(ctx, clubID)
		if err != nil {
			return fmt.Errorf("failed to get club: %w", err)
		}
		if club == nil {
			return domain.NotFoundf("club %d does not exist", clubID)
		}
		if club.HostID != principal.ID {
			return domain.Forbiddenf("only the club host can delete the club")
		}

		if err = e.cascade.OnClubDelete(ctx, tx, clubID, e.now()); err != nil {
			return err
		}
		if err = tx.DeleteClubMembers(ctx, clubID); err != nil {
			return fmt.Errorf("failed to delete club members: %w", err)
		}
		if err = tx.DeleteClub(ctx, clubID); err != nil {
			return fmt.Errorf("failed to delete club: %w", err)
		}
		return nil
	})
}

// Join files a PENDING membership request. Applicants do not consume capacity
// until approved, but the request itself is refused once the club is full.
func (e *Engine) Join(ctx context.Context, principal domain.Principal, clubID int64) error {
	err := e.store.InTx(ctx, func(tx domain.Store) error {
		club, err := tx.GetClubForUpdate(ctx, clubID)
		if err != nil {
			return fmt.Errorf("failed to get club: %w", err)
		}
		if club == nil {
			return domain.NotFoundf("club %d does not exist", clubID)
		}

		member, err := tx.GetClubMember(ctx, clubID, principal.ID)
		if err != nil {
			return fmt.Errorf("failed to get club member: %w", err)
		}
		if member != nil {
			if member.Status == domain.MemberStatusPending {
				return domain.Forbiddenf("join request already pending")
			}
			return domain.Forbiddenf("already a member of this club")
		}

		headcount, err := approvedHeadcount(ctx, tx, clubID)
		if err != nil {
			return err
		}
		if headcount >= club.MaxPeople {
			return domain.Conflictf("club is full")
		}

		if _, err = tx.CreateClubMember(ctx, domain.ClubMember{
			ClubID: clubID,
			UserID: principal.ID,
			Status: domain.MemberStatusPending,
		}); err != nil {
			if errors.Is(err, domain.ErrDuplicate) {
				return domain.Conflictf("join request already exists")
			}
			return fmt.Errorf("failed to create club member: %w", err)
		}
		return nil
	})
	return err
}

// Applicants lists members awaiting a decision. Host only.
func (e *Engine) Applicants(ctx context.Context, principal domain.Principal, clubID int64) ([]domain.ClubMember, error) {
	club, err := e.store.GetClub(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to get club: %w", err)
	}
	if club == nil {
		return nil, domain.NotFoundf("club %d does not exist", clubID)
	}
	if club.HostID != principal.ID {
		return nil, domain.Forbiddenf("only the club host can view applicants")
	}

	return e.store.ListClubMembers(ctx, clubID, domain.MemberStatusPending)
}

// Approve transitions the given PENDING applicants to APPROVED. Approving
// must not raise the approved headcount above the club capacity; on overflow
// the reported count is (pending+approved) - maxPeople.
func (e *Engine) Approve(ctx context.Context, principal domain.Principal, clubID int64, userIDs []int64) error {
	return e.store.InTx(ctx, func(tx domain.Store) error {
		club, err := e.checkApplicantDecision(ctx, tx, principal, clubID, userIDs)
		if err != nil {
			return err
		}

		headcount, err := approvedHeadcount(ctx, tx, clubID)
		if err != nil {
			return err
		}
		if len(userIDs)+headcount > club.MaxPeople {
			overflow := len(userIDs) + headcount - club.MaxPeople
			return domain.Conflictf("approving exceeds the club capacity by %d", overflow)
		}

		if err = tx.UpdateClubMemberStatuses(ctx, clubID, userIDs, domain.MemberStatusApproved); err != nil {
			return fmt.Errorf("failed to approve applicants: %w", err)
		}
		return nil
	})
}

// Reject removes the given PENDING applicants.
func (e *Engine) Reject(ctx context.Context, principal domain.Principal, clubID int64, userIDs []int64) error {
	return e.store.InTx(ctx, func(tx domain.Store) error {
		if _, err := e.checkApplicantDecision(ctx, tx, principal, clubID, userIDs); err != nil {
			return err
		}

		if err := tx.DeleteClubMembersByUserIDs(ctx, clubID, userIDs); err != nil {
			return fmt.Errorf("failed to reject applicants: %w", err)
		}
		return nil
	})
}

// checkApplicantDecision validates the shared preconditions of Approve and
// Reject: the club exists, every target is currently PENDING and not
// soft-deleted, and the principal is the host.
func (e *Engine) checkApplicantDecision(ctx context.Context, tx domain.Store, principal domain.Principal, clubID int64, userIDs []int64) (*domain.Club, error) {
	club, err := tx.GetClubForUpdate(ctx, clubID)
	if err != nil {
		return nil, fmt.Errorf("failed to get club: %w", err)
	}
	if club == nil {
		return nil, domain.NotFoundf("club %d does not exist", clubID)
	}

	members, err := tx.ListClubMembersByUserIDs(ctx, clubID, userIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to list club members: %w", err)
	}
	pending := make(map[int64]bool, len(members))
	for _, member := range members {
		if member.Status == domain.MemberStatusPending {
			pending[member.UserID] = true
		}
	}
	for _, userID := range userIDs {
		if !pending[userID] {
			return nil, domain.Conflictf("user %d has no pending join request", userID)
		}
	}

	if club.HostID != principal.ID {
		return nil, domain.Forbiddenf("only the club host can decide on applicants")
	}

	return club, nil
}

// TransferHost hands leadership to an APPROVED member: the old host becomes
// APPROVED, the target becomes LEADER and the club's host id is swapped, all
// atomically.
func (e *Engine) TransferHost(ctx context.Context, principal domain.Principal, clubID, nextUserID int64) (*domain.Club, error) {
	var club *domain.Club
	err := e.store.InTx(ctx, func(tx domain.Store) error {
		current, err := tx.GetClubForUpdate(ctx, clubID)
		if err != nil {
			return fmt.Errorf("failed to get club: %w", err)
		}
		if current == nil {
			return domain.NotFoundf("club %d does not exist", clubID)
		}
		if current.HostID != principal.ID {
			return domain.Forbiddenf("only the club host can transfer leadership")
		}

		next, err := tx.GetClubMember(ctx, clubID, nextUserID)
		if err != nil {
			return fmt.Errorf("failed to get club member: %w", err)
		}
		if next == nil || next.Status != domain.MemberStatusApproved {
			return domain.Conflictf("leadership can only be transferred to an approved member")
		}

		if err = tx.UpdateClubMemberStatus(ctx, clubID, current.HostID, domain.MemberStatusApproved); err != nil {
			return fmt.Errorf("failed to demote current host: %w", err)
		}
		if err = tx.UpdateClubMemberStatus(ctx, clubID, nextUserID, domain.MemberStatusLeader); err != nil {
			return fmt.Errorf("failed to promote next host: %w", err)
		}

		current.HostID = nextUserID
		club, err = tx.UpdateClub(ctx, *current)
		if err != nil {
			return fmt.Errorf("failed to update club host: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return club, nil
}

// Out removes the principal's membership. The host must transfer leadership
// first. Leaving also drops the user's participation in the club's upcoming
// events via the cascade coordinator.
func (e *Engine) Out(ctx context.Context, principal domain.Principal, clubID int64) error {
	return e.store.InTx(ctx, func(tx domain.Store) error {
		club, err := tx.GetClubForUpdate(ctx, clubID)
		if err != nil {
			return fmt.Errorf("failed to get club: %w", err)
		}
		if club == nil {
			return domain.NotFoundf("club %d does not exist", clubID)
		}
		if club.HostID == principal.ID {
			return domain.Forbiddenf("the club host must transfer leadership before leaving")
		}

		member, err := tx.GetClubMember(ctx, clubID, principal.ID)
		if err != nil {
			return fmt.Errorf("failed to get club member: %w", err)
		}
		if member == nil {
			return domain.Conflictf("not a member of this club")
		}

		if err = tx.DeleteClubMember(ctx, clubID, principal.ID); err != nil {
			return fmt.Errorf("failed to delete club member: %w", err)
		}

		return e.cascade.OnMemberExit(ctx, tx, clubID, principal.ID, e.now())
	})
}

func approvedHeadcount(ctx context.Context, tx domain.Store, clubID int64) (int, error) {
	count, err := tx.CountClubMembers(ctx, clubID, domain.MemberStatusApproved, domain.MemberStatusLeader)
	if err != nil {
		return 0, fmt.Errorf("failed to count club members: %w", err)
	}
	return count, nil
}
