package domain

import (
	"time"
)

// Principal is the verified identity attached to every request by the
// external identity layer.
type Principal struct {
	ID int64
}

type MemberStatus string

const (
	MemberStatusPending  MemberStatus = "PENDING"
	MemberStatusApproved MemberStatus = "APPROVED"
	MemberStatusLeader   MemberStatus = "LEADER"
)

type Club struct {
	ID          int64
	HostID      int64
	Name        string
	Description string
	MaxPeople   int
}

type ClubMember struct {
	ID     int64
	ClubID int64
	UserID int64
	Status MemberStatus
}

type Event struct {
	ID          int64
	HostID      int64
	Title       string
	Description string
	CategoryID  int64
	ClubID      *int64
	CityIDs     []int64
	StartTime   time.Time
	EndTime     time.Time
	MaxPeople   int
	IsArchived  bool
}

// Started reports whether the event has begun at the given instant.
func (e Event) Started(now time.Time) bool {
	return e.StartTime.Before(now)
}

// Ended reports whether the event has finished at the given instant.
func (e Event) Ended(now time.Time) bool {
	return e.EndTime.Before(now)
}

type EventJoin struct {
	ID      int64
	EventID int64
	UserID  int64
}

type Review struct {
	ID          int64
	UserID      int64
	EventID     int64
	Score       int
	Title       string
	Description *string
}

type Category struct {
	ID   int64
	Name string
}

type City struct {
	ID   int64
	Name string
}

type User struct {
	ID        int64
	DeletedAt *time.Time
}
