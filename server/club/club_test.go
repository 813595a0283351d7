package club

import (
	"context"
	"testing"
	"time"

	"github.com/gatherhq/gather-server/internal/storetest"
	"github.com/gatherhq/gather-server/server/cascade"
	"github.com/gatherhq/gather-server/server/domain"
)

var testNow = time.Date(2025, 5, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(store *storetest.Store) *Engine {
	engine := New(store, cascade.New())
	engine.now = func() time.Time {
		return testNow
	}
	return engine
}

func requireKind(t *testing.T, err error, kind domain.ErrorKind) {
	t.Helper()
	if err == nil {
		t.Fatalf("expected %s error, got nil", kind)
	}
	if got := domain.KindOf(err); got != kind {
		t.Fatalf("expected %s error, got %s: %v", kind, got, err)
	}
}

func TestEngineCreate(t *testing.T) {
	store := storetest.New()
	engine := newTestEngine(store)

	club, err := engine.Create(context.Background(), domain.Principal{ID: 1}, CreateParams{
		Name:      "hikers",
		MaxPeople: 10,
	})
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if club.HostID != 1 {
		t.Errorf("expected host 1, got %d", club.HostID)
	}

	member, err := store.GetClubMember(context.Background(), club.ID, 1)
	if err != nil {
		t.Fatalf("get member failed: %v", err)
	}
	if member == nil || member.Status != domain.MemberStatusLeader {
		t.Errorf("expected leader membership for the creator, got %+v", member)
	}
}

func TestEngineList(t *testing.T) {
	store := storetest.New()
	first := store.SeedClub(domain.Club{HostID: 1, Name: "hikers", MaxPeople: 10})
	second := store.SeedClub(domain.Club{HostID: 2, Name: "runners", MaxPeople: 5})
	engine := newTestEngine(store)

	clubs, err := engine.List(context.Background())
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(clubs) != 2 || clubs[0].ID != first.ID || clubs[1].ID != second.ID {
		t.Errorf("unexpected clubs: %+v", clubs)
	}
}

func TestEngineUpdate(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		engine := newTestEngine(storetest.New())
		_, err := engine.Update(ctx, domain.Principal{ID: 1}, 42, UpdateParams{Name: "x", MaxPeople: 5})
		requireKind(t, err, domain.KindNotFound)
	})

	t.Run("non-host", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, Name: "hikers", MaxPeople: 10})
		engine := newTestEngine(store)

		_, err := engine.Update(ctx, domain.Principal{ID: 2}, club.ID, UpdateParams{Name: "x", MaxPeople: 5})
		requireKind(t, err, domain.KindForbidden)
	})

	t.Run("capacity below headcount", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, Name: "hikers", MaxPeople: 10})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 2, Status: domain.MemberStatusApproved})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 3, Status: domain.MemberStatusApproved})
		engine := newTestEngine(store)

		_, err := engine.Update(ctx, domain.Principal{ID: 1}, club.ID, UpdateParams{Name: "hikers", MaxPeople: 2})
		requireKind(t, err, domain.KindConflict)
	})

	t.Run("success", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, Name: "hikers", MaxPeople: 10})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
		engine := newTestEngine(store)

		updated, err := engine.Update(ctx, domain.Principal{ID: 1}, club.ID, UpdateParams{
			Name:        "trail runners",
			Description: "weekly runs",
			MaxPeople:   4,
		})
		if err != nil {
			t.Fatalf("update failed: %v", err)
		}
		if updated.Name != "trail runners" || updated.MaxPeople != 4 {
			t.Errorf("unexpected club after update: %+v", updated)
		}
	})
}

func TestEngineJoin(t *testing.T) {
	ctx := context.Background()

	t.Run("not found", func(t *testing.T) {
		engine := newTestEngine(storetest.New())
		err := engine.Join(ctx, domain.Principal{ID: 2}, 42)
		requireKind(t, err, domain.KindNotFound)
	})

	t.Run("pending request", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 2, Status: domain.MemberStatusPending})
		engine := newTestEngine(store)

		err := engine.Join(ctx, domain.Principal{ID: 2}, club.ID)
		requireKind(t, err, domain.KindForbidden)
	})

	t.Run("already a member", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 2, Status: domain.MemberStatusApproved})
		engine := newTestEngine(store)

		err := engine.Join(ctx, domain.Principal{ID: 2}, club.ID)
		requireKind(t, err, domain.KindForbidden)
	})

	t.Run("club full", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 1})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
		engine := newTestEngine(store)

		err := engine.Join(ctx, domain.Principal{ID: 2}, club.ID)
		requireKind(t, err, domain.KindConflict)
	})

	t.Run("soft-deleted members free their seat", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 2})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 3, Status: domain.MemberStatusApproved})
		store.DeletedUsers[3] = true
		engine := newTestEngine(store)

		if err := engine.Join(ctx, domain.Principal{ID: 2}, club.ID); err != nil {
			t.Fatalf("join failed: %v", err)
		}
	})

	t.Run("stale member check falls back to the unique constraint", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 2, Status: domain.MemberStatusPending})
		engine := New(staleMemberCheckStore{Store: store}, cascade.New())
		engine.now = func() time.Time {
			return testNow
		}

		err := engine.Join(ctx, domain.Principal{ID: 2}, club.ID)
		requireKind(t, err, domain.KindConflict)
	})

	t.Run("success", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
		engine := newTestEngine(store)

		if err := engine.Join(ctx, domain.Principal{ID: 2}, club.ID); err != nil {
			t.Fatalf("join failed: %v", err)
		}

		member, err := store.GetClubMember(ctx, club.ID, 2)
		if err != nil {
			t.Fatalf("get member failed: %v", err)
		}
		if member == nil || member.Status != domain.MemberStatusPending {
			t.Errorf("expected pending membership, got %+v", member)
		}
	})
}

// staleMemberCheckStore reports no existing membership even when one is
// recorded, modelling a second join request landing between the check and the
// insert.
type staleMemberCheckStore struct {
	*storetest.Store
}

func (s staleMemberCheckStore) InTx(_ context.Context, fn func(domain.Store) error) error {
	return fn(s)
}

func (s staleMemberCheckStore) GetClubMember(context.Context, int64, int64) (*domain.ClubMember, error) {
	return nil, nil
}

func TestEngineApplicants(t *testing.T) {
	ctx := context.Background()
	store := storetest.New()
	club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
	store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
	store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 2, Status: domain.MemberStatusApproved})
	store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 3, Status: domain.MemberStatusPending})
	engine := newTestEngine(store)

	_, err := engine.Applicants(ctx, domain.Principal{ID: 2}, club.ID)
	requireKind(t, err, domain.KindForbidden)

	applicants, err := engine.Applicants(ctx, domain.Principal{ID: 1}, club.ID)
	if err != nil {
		t.Fatalf("applicants failed: %v", err)
	}
	if len(applicants) != 1 || applicants[0].UserID != 3 {
		t.Errorf("expected only user 3 pending, got %+v", applicants)
	}
}

func TestEngineApprove(t *testing.T) {
	ctx := context.Background()

	t.Run("success", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 2, Status: domain.MemberStatusPending})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 3, Status: domain.MemberStatusPending})
		engine := newTestEngine(store)

		if err := engine.Approve(ctx, domain.Principal{ID: 1}, club.ID, []int64{2, 3}); err != nil {
			t.Fatalf("approve failed: %v", err)
		}
		for _, userID := range []int64{2, 3} {
			member, err := store.GetClubMember(ctx, club.ID, userID)
			if err != nil {
				t.Fatalf("get member failed: %v", err)
			}
			if member == nil || member.Status != domain.MemberStatusApproved {
				t.Errorf("expected user %d approved, got %+v", userID, member)
			}
		}
	})

	t.Run("overflow by one", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 2})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 2, Status: domain.MemberStatusPending})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 3, Status: domain.MemberStatusPending})
		engine := newTestEngine(store)

		err := engine.Approve(ctx, domain.Principal{ID: 1}, club.ID, []int64{2, 3})
		requireKind(t, err, domain.KindConflict)
		if want := "approving exceeds the club capacity by 1"; err.Error() != want {
			t.Errorf("expected %q, got %q", want, err.Error())
		}
	})

	t.Run("target not pending", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 2, Status: domain.MemberStatusApproved})
		engine := newTestEngine(store)

		err := engine.Approve(ctx, domain.Principal{ID: 1}, club.ID, []int64{2})
		requireKind(t, err, domain.KindConflict)
	})

	t.Run("non-host after valid targets", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 3, Status: domain.MemberStatusPending})
		engine := newTestEngine(store)

		err := engine.Approve(ctx, domain.Principal{ID: 2}, club.ID, []int64{3})
		requireKind(t, err, domain.KindForbidden)
	})
}

func TestEngineReject(t *testing.T) {
	ctx := context.Background()
	store := storetest.New()
	club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
	store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
	store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 2, Status: domain.MemberStatusPending})
	engine := newTestEngine(store)

	if err := engine.Reject(ctx, domain.Principal{ID: 1}, club.ID, []int64{2}); err != nil {
		t.Fatalf("reject failed: %v", err)
	}

	member, err := store.GetClubMember(ctx, club.ID, 2)
	if err != nil {
		t.Fatalf("get member failed: %v", err)
	}
	if member != nil {
		t.Errorf("expected membership removed, got %+v", member)
	}
}

func TestEngineTransferHost(t *testing.T) {
	ctx := context.Background()

	t.Run("target not approved", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 2, Status: domain.MemberStatusPending})
		engine := newTestEngine(store)

		_, err := engine.TransferHost(ctx, domain.Principal{ID: 1}, club.ID, 2)
		requireKind(t, err, domain.KindConflict)
	})

	t.Run("non-host", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 2, Status: domain.MemberStatusApproved})
		engine := newTestEngine(store)

		_, err := engine.TransferHost(ctx, domain.Principal{ID: 2}, club.ID, 2)
		requireKind(t, err, domain.KindForbidden)
	})

	t.Run("success", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 2, Status: domain.MemberStatusApproved})
		engine := newTestEngine(store)

		updated, err := engine.TransferHost(ctx, domain.Principal{ID: 1}, club.ID, 2)
		if err != nil {
			t.Fatalf("transfer failed: %v", err)
		}
		if updated.HostID != 2 {
			t.Errorf("expected host 2, got %d", updated.HostID)
		}

		old, _ := store.GetClubMember(ctx, club.ID, 1)
		if old == nil || old.Status != domain.MemberStatusApproved {
			t.Errorf("expected old host demoted to approved, got %+v", old)
		}
		next, _ := store.GetClubMember(ctx, club.ID, 2)
		if next == nil || next.Status != domain.MemberStatusLeader {
			t.Errorf("expected new host promoted to leader, got %+v", next)
		}
	})
}

func TestEngineOut(t *testing.T) {
	ctx := context.Background()

	t.Run("host cannot leave", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
		engine := newTestEngine(store)

		err := engine.Out(ctx, domain.Principal{ID: 1}, club.ID)
		requireKind(t, err, domain.KindForbidden)
	})

	t.Run("not a member", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
		engine := newTestEngine(store)

		err := engine.Out(ctx, domain.Principal{ID: 2}, club.ID)
		requireKind(t, err, domain.KindConflict)
	})

	t.Run("leaving drops upcoming participation", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 2, Status: domain.MemberStatusApproved})

		// Upcoming club event hosted by someone else, user 2 attends.
		upcoming := store.SeedEvent(domain.Event{
			HostID: 1, ClubID: &club.ID, MaxPeople: 10,
			StartTime: testNow.Add(time.Hour), EndTime: testNow.Add(2 * time.Hour),
		})
		store.SeedJoin(upcoming.ID, 1)
		store.SeedJoin(upcoming.ID, 2)

		// Upcoming club event hosted by user 2, taken down entirely.
		hosted := store.SeedEvent(domain.Event{
			HostID: 2, ClubID: &club.ID, MaxPeople: 10,
			StartTime: testNow.Add(time.Hour), EndTime: testNow.Add(2 * time.Hour),
		})
		store.SeedJoin(hosted.ID, 2)
		store.SeedJoin(hosted.ID, 1)

		// Finished club event stays as history.
		past := store.SeedEvent(domain.Event{
			HostID: 1, ClubID: &club.ID, MaxPeople: 10,
			StartTime: testNow.Add(-2 * time.Hour), EndTime: testNow.Add(-time.Hour),
		})
		store.SeedJoin(past.ID, 2)

		engine := newTestEngine(store)
		if err := engine.Out(ctx, domain.Principal{ID: 2}, club.ID); err != nil {
			t.Fatalf("out failed: %v", err)
		}

		if member, _ := store.GetClubMember(ctx, club.ID, 2); member != nil {
			t.Errorf("expected membership removed, got %+v", member)
		}
		if joined, _ := store.HasEventJoin(ctx, upcoming.ID, 2); joined {
			t.Error("expected upcoming event join removed")
		}
		if event, _ := store.GetEvent(ctx, hosted.ID); event != nil {
			t.Errorf("expected hosted upcoming event deleted, got %+v", event)
		}
		if joined, _ := store.HasEventJoin(ctx, past.ID, 2); !joined {
			t.Error("expected finished event join kept")
		}
	})
}

func TestEngineDelete(t *testing.T) {
	ctx := context.Background()

	t.Run("non-host", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
		engine := newTestEngine(store)

		err := engine.Delete(ctx, domain.Principal{ID: 2}, club.ID)
		requireKind(t, err, domain.KindForbidden)
	})

	t.Run("cascade", func(t *testing.T) {
		store := storetest.New()
		club := store.SeedClub(domain.Club{HostID: 1, MaxPeople: 10})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 1, Status: domain.MemberStatusLeader})
		store.SeedMember(domain.ClubMember{ClubID: club.ID, UserID: 2, Status: domain.MemberStatusApproved})

		future := store.SeedEvent(domain.Event{
			HostID: 1, ClubID: &club.ID, MaxPeople: 10,
			StartTime: testNow.Add(time.Hour), EndTime: testNow.Add(2 * time.Hour),
		})
		store.SeedJoin(future.ID, 1)

		running := store.SeedEvent(domain.Event{
			HostID: 1, ClubID: &club.ID, MaxPeople: 10,
			StartTime: testNow.Add(-time.Hour), EndTime: testNow.Add(time.Hour),
		})
		store.SeedJoin(running.ID, 2)

		past := store.SeedEvent(domain.Event{
			HostID: 1, ClubID: &club.ID, MaxPeople: 10,
			StartTime: testNow.Add(-3 * time.Hour), EndTime: testNow.Add(-2 * time.Hour),
		})

		engine := newTestEngine(store)
		if err := engine.Delete(ctx, domain.Principal{ID: 1}, club.ID); err != nil {
			t.Fatalf("delete failed: %v", err)
		}

		if got, _ := store.GetClub(ctx, club.ID); got != nil {
			t.Errorf("expected club deleted, got %+v", got)
		}
		if member, _ := store.GetClubMember(ctx, club.ID, 2); member != nil {
			t.Errorf("expected memberships deleted, got %+v", member)
		}
		if event, _ := store.GetEvent(ctx, future.ID); event != nil {
			t.Errorf("expected future event deleted, got %+v", event)
		}
		if joined, _ := store.HasEventJoin(ctx, future.ID, 1); joined {
			t.Error("expected future event joins deleted")
		}

		archived, _ := store.GetEvent(ctx, running.ID)
		if archived == nil || !archived.IsArchived || archived.ClubID != nil {
			t.Errorf("expected running event archived and detached, got %+v", archived)
		}
		if joined, _ := store.HasEventJoin(ctx, running.ID, 2); !joined {
			t.Error("expected running event joins kept")
		}

		finished, _ := store.GetEvent(ctx, past.ID)
		if finished == nil || finished.IsArchived {
			t.Errorf("expected finished event untouched, got %+v", finished)
		}
	})
}
