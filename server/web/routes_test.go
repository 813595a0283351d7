package web

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/gatherhq/gather-server/internal/storetest"
	"github.com/gatherhq/gather-server/server"
	"github.com/gatherhq/gather-server/server/auth"
	"github.com/gatherhq/gather-server/server/cascade"
	"github.com/gatherhq/gather-server/server/club"
	"github.com/gatherhq/gather-server/server/domain"
	"github.com/gatherhq/gather-server/server/event"
	"github.com/gatherhq/gather-server/server/review"
)

func signToken(t *testing.T, secret string, userID string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub": userID,
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("failed to sign token: %v", err)
	}
	return token
}

func TestRoutes(t *testing.T) {
	store := storetest.New()
	seeded := store.SeedClub(domain.Club{HostID: 1, Name: "hikers", MaxPeople: 10})
	store.SeedMember(domain.ClubMember{ClubID: seeded.ID, UserID: 1, Status: domain.MemberStatusLeader})
	store.SeedEvent(domain.Event{HostID: 1, Title: "morning run", MaxPeople: 5})

	srv := &server.Server{
		Verifier: auth.NewVerifier(auth.Config{Secret: "secret"}),
		Clubs:    club.New(store, cascade.New()),
		Events:   event.New(store),
		Reviews:  review.New(store),
	}
	routes := Routes(srv)
	token := signToken(t, "secret", "1")

	get := func(t *testing.T, path string, authorized bool) *httptest.ResponseRecorder {
		t.Helper()
		r := httptest.NewRequest(http.MethodGet, path, nil)
		if authorized {
			r.Header.Set("Authorization", "Bearer "+token)
		}
		w := httptest.NewRecorder()
		routes.ServeHTTP(w, r)
		return w
	}

	t.Run("missing token", func(t *testing.T) {
		if w := get(t, "/api/clubs", false); w.Code != http.StatusUnauthorized {
			t.Errorf("expected 401, got %d: %s", w.Code, w.Body)
		}
	})

	t.Run("list clubs", func(t *testing.T) {
		w := get(t, "/api/clubs", true)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
		}
		var clubs []clubResponse
		if err := json.Unmarshal(w.Body.Bytes(), &clubs); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(clubs) != 1 || clubs[0].Name != "hikers" {
			t.Errorf("unexpected clubs: %+v", clubs)
		}
	})

	t.Run("list events", func(t *testing.T) {
		w := get(t, "/api/events", true)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
		}
		var events []eventResponse
		if err := json.Unmarshal(w.Body.Bytes(), &events); err != nil {
			t.Fatalf("failed to decode response: %v", err)
		}
		if len(events) != 1 || events[0].Title != "morning run" {
			t.Errorf("unexpected events: %+v", events)
		}
	})

	t.Run("list reviews", func(t *testing.T) {
		w := get(t, "/api/reviews", true)
		if w.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", w.Code, w.Body)
		}
	})

	t.Run("unknown route", func(t *testing.T) {
		if w := get(t, "/api/nope", true); w.Code != http.StatusNotFound {
			t.Errorf("expected 404, got %d: %s", w.Code, w.Body)
		}
	})
}
