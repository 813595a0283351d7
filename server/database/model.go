package database

import (
	"database/sql"
	"time"

	"github.com/gatherhq/gather-server/server/domain"
)

type clubRow struct {
	ID          int64  `db:"id"`
	HostID      int64  `db:"host_id"`
	Name        string `db:"name"`
	Description string `db:"description"`
	MaxPeople   int    `db:"max_people"`
}

func (r clubRow) toDomain() domain.Club {
	return domain.Club{
		ID:          r.ID,
		HostID:      r.HostID,
		Name:        r.Name,
		Description: r.Description,
		MaxPeople:   r.MaxPeople,
	}
}

type clubMemberRow struct {
	ID     int64  `db:"id"`
	ClubID int64  `db:"club_id"`
	UserID int64  `db:"user_id"`
	Status string `db:"status"`
}

func (r clubMemberRow) toDomain() domain.ClubMember {
	return domain.ClubMember{
		ID:     r.ID,
		ClubID: r.ClubID,
		UserID: r.UserID,
		Status: domain.MemberStatus(r.Status),
	}
}

type eventRow struct {
	ID          int64         `db:"id"`
	HostID      int64         `db:"host_id"`
	Title       string        `db:"title"`
	Description string        `db:"description"`
	CategoryID  int64         `db:"category_id"`
	ClubID      sql.NullInt64 `db:"club_id"`
	StartTime   time.Time     `db:"start_time"`
	EndTime     time.Time     `db:"end_time"`
	MaxPeople   int           `db:"max_people"`
	IsArchived  bool          `db:"is_archived"`
}

func (r eventRow) toDomain(cityIDs []int64) domain.Event {
	event := domain.Event{
		ID:          r.ID,
		HostID:      r.HostID,
		Title:       r.Title,
		Description: r.Description,
		CategoryID:  r.CategoryID,
		CityIDs:     cityIDs,
		StartTime:   r.StartTime,
		EndTime:     r.EndTime,
		MaxPeople:   r.MaxPeople,
		IsArchived:  r.IsArchived,
	}
	if r.ClubID.Valid {
		clubID := r.ClubID.Int64
		event.ClubID = &clubID
	}
	return event
}

type eventCityRow struct {
	EventID int64 `db:"event_id"`
	CityID  int64 `db:"city_id"`
}

type reviewRow struct {
	ID          int64          `db:"id"`
	UserID      int64          `db:"user_id"`
	EventID     int64          `db:"event_id"`
	Score       int            `db:"score"`
	Title       string         `db:"title"`
	Description sql.NullString `db:"description"`
}

func (r reviewRow) toDomain() domain.Review {
	review := domain.Review{
		ID:      r.ID,
		UserID:  r.UserID,
		EventID: r.EventID,
		Score:   r.Score,
		Title:   r.Title,
	}
	if r.Description.Valid {
		description := r.Description.String
		review.Description = &description
	}
	return review
}

type categoryRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}

type cityRow struct {
	ID   int64  `db:"id"`
	Name string `db:"name"`
}
