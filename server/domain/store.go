package domain

import (
	"context"
	"time"
)

// EventFilter narrows event listings. Nil fields are ignored.
type EventFilter struct {
	HostID     *int64
	CategoryID *int64
	CityID     *int64
	ClubID     *int64
}

// ReviewFilter narrows review listings. Nil fields are ignored.
type ReviewFilter struct {
	EventID *int64
	UserID  *int64
}

// Store is the transactional persistence surface the engines run on. Lookups
// return (nil, nil) when the row is absent so engines own the user-facing
// NotFound message. All membership, join and headcount reads exclude
// soft-deleted users.
//
// InTx runs fn against a store bound to a single transaction; calling InTx on
// an already transaction-bound store reuses the open transaction. ForUpdate
// variants take a row lock so capacity checks and the mutation they guard
// observe the same state.
type Store interface {
	// Clubs
	GetClub(ctx context.Context, clubID int64) (*Club, error)
	GetClubForUpdate(ctx context.Context, clubID int64) (*Club, error)
	ListClubs(ctx context.Context) ([]Club, error)
	CreateClub(ctx context.Context, club Club) (*Club, error)
	UpdateClub(ctx context.Context, club Club) (*Club, error)
	DeleteClub(ctx context.Context, clubID int64) error

	// Club members
	GetClubMember(ctx context.Context, clubID, userID int64) (*ClubMember, error)
	ListClubMembers(ctx context.Context, clubID int64, status MemberStatus) ([]ClubMember, error)
	ListClubMembersByUserIDs(ctx context.Context, clubID int64, userIDs []int64) ([]ClubMember, error)
	CountClubMembers(ctx context.Context, clubID int64, statuses ...MemberStatus) (int, error)
	CreateClubMember(ctx context.Context, member ClubMember) (*ClubMember, error)
	UpdateClubMemberStatus(ctx context.Context, clubID, userID int64, status MemberStatus) error
	UpdateClubMemberStatuses(ctx context.Context, clubID int64, userIDs []int64, status MemberStatus) error
	DeleteClubMember(ctx context.Context, clubID, userID int64) error
	DeleteClubMembersByUserIDs(ctx context.Context, clubID int64, userIDs []int64) error
	DeleteClubMembers(ctx context.Context, clubID int64) error
	IsClubMember(ctx context.Context, clubID, userID int64) (bool, error)
	ListJoinedClubIDs(ctx context.Context, userID int64) ([]int64, error)

	// Events
	GetEvent(ctx context.Context, eventID int64) (*Event, error)
	GetEventForUpdate(ctx context.Context, eventID int64) (*Event, error)
	ListEvents(ctx context.Context, filter EventFilter) ([]Event, error)
	ListEventsByIDs(ctx context.Context, eventIDs []int64) ([]Event, error)
	ListClubEvents(ctx context.Context, clubID int64) ([]Event, error)
	ListFutureClubEventsHostedBy(ctx context.Context, clubID, hostID int64, after time.Time) ([]Event, error)
	ListJoinedEvents(ctx context.Context, userID int64) ([]Event, error)
	CreateEvent(ctx context.Context, event Event) (*Event, error)
	UpdateEvent(ctx context.Context, event Event) (*Event, error)
	ArchiveEvent(ctx context.Context, eventID int64) error
	DeleteEvent(ctx context.Context, eventID int64) error

	// Event joins
	HasEventJoin(ctx context.Context, eventID, userID int64) (bool, error)
	ListJoinedEventIDs(ctx context.Context, eventIDs []int64, userID int64) ([]int64, error)
	CountEventJoins(ctx context.Context, eventID int64) (int, error)
	CreateEventJoin(ctx context.Context, eventID, userID int64) error
	DeleteEventJoin(ctx context.Context, eventID, userID int64) error
	DeleteEventJoins(ctx context.Context, eventID int64) error
	DeleteFutureClubEventJoins(ctx context.Context, clubID, userID int64, after time.Time) error

	// Reviews
	GetReview(ctx context.Context, reviewID int64) (*Review, error)
	ListReviews(ctx context.Context, filter ReviewFilter) ([]Review, error)
	HasReview(ctx context.Context, eventID, userID int64) (bool, error)
	CreateReview(ctx context.Context, review Review) (*Review, error)
	UpdateReview(ctx context.Context, review Review) (*Review, error)
	DeleteReview(ctx context.Context, reviewID int64) error

	// Reference data
	GetCategory(ctx context.Context, categoryID int64) (*Category, error)
	ListCategories(ctx context.Context) ([]Category, error)
	ListCitiesByIDs(ctx context.Context, cityIDs []int64) ([]City, error)
	ListCities(ctx context.Context) ([]City, error)

	InTx(ctx context.Context, fn func(tx Store) error) error
}
