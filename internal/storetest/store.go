// Package storetest provides an in-memory domain.Store for engine tests.
// Rows live in plain maps, ids are handed out sequentially and InTx runs the
// callback against the same store, so tests assert on end state only.
package storetest

import (
	"context"
	"slices"
	"time"

	"github.com/gatherhq/gather-server/server/domain"
)

var _ domain.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		Clubs:        map[int64]domain.Club{},
		Members:      map[int64]domain.ClubMember{},
		Events:       map[int64]domain.Event{},
		Joins:        map[int64]domain.EventJoin{},
		Reviews:      map[int64]domain.Review{},
		Categories:   map[int64]domain.Category{},
		Cities:       map[int64]domain.City{},
		DeletedUsers: map[int64]bool{},
	}
}

type Store struct {
	nextID       int64
	Clubs        map[int64]domain.Club
	Members      map[int64]domain.ClubMember
	Events       map[int64]domain.Event
	Joins        map[int64]domain.EventJoin
	Reviews      map[int64]domain.Review
	Categories   map[int64]domain.Category
	Cities       map[int64]domain.City
	DeletedUsers map[int64]bool
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

// userVisible mirrors the soft-delete join the SQL queries apply to every
// membership and participation read.
func (s *Store) userVisible(userID int64) bool {
	return !s.DeletedUsers[userID]
}

func (s *Store) SeedClub(club domain.Club) domain.Club {
	if club.ID == 0 {
		club.ID = s.id()
	}
	s.Clubs[club.ID] = club
	return club
}

func (s *Store) SeedMember(member domain.ClubMember) domain.ClubMember {
	if member.ID == 0 {
		member.ID = s.id()
	}
	s.Members[member.ID] = member
	return member
}

func (s *Store) SeedEvent(event domain.Event) domain.Event {
	if event.ID == 0 {
		event.ID = s.id()
	}
	s.Events[event.ID] = event
	return event
}

func (s *Store) SeedJoin(eventID, userID int64) domain.EventJoin {
	join := domain.EventJoin{ID: s.id(), EventID: eventID, UserID: userID}
	s.Joins[join.ID] = join
	return join
}

func (s *Store) SeedReview(review domain.Review) domain.Review {
	if review.ID == 0 {
		review.ID = s.id()
	}
	s.Reviews[review.ID] = review
	return review
}

func (s *Store) SeedCategory(name string) domain.Category {
	category := domain.Category{ID: s.id(), Name: name}
	s.Categories[category.ID] = category
	return category
}

func (s *Store) SeedCity(name string) domain.City {
	city := domain.City{ID: s.id(), Name: name}
	s.Cities[city.ID] = city
	return city
}

func (s *Store) GetClub(_ context.Context, clubID int64) (*domain.Club, error) {
	club, ok := s.Clubs[clubID]
	if !ok {
		return nil, nil
	}
	return &club, nil
}

func (s *Store) GetClubForUpdate(ctx context.Context, clubID int64) (*domain.Club, error) {
	return s.GetClub(ctx, clubID)
}

func (s *Store) ListClubs(_ context.Context) ([]domain.Club, error) {
	clubs := make([]domain.Club, 0, len(s.Clubs))
	for _, club := range s.Clubs {
		clubs = append(clubs, club)
	}
	slices.SortFunc(clubs, func(a, b domain.Club) int {
		return int(a.ID - b.ID)
	})
	return clubs, nil
}

func (s *Store) CreateClub(_ context.Context, club domain.Club) (*domain.Club, error) {
	club.ID = s.id()
	s.Clubs[club.ID] = club
	return &club, nil
}

func (s *Store) UpdateClub(_ context.Context, club domain.Club) (*domain.Club, error) {
	s.Clubs[club.ID] = club
	return &club, nil
}

func (s *Store) DeleteClub(_ context.Context, clubID int64) error {
	delete(s.Clubs, clubID)
	return nil
}

func (s *Store) GetClubMember(_ context.Context, clubID, userID int64) (*domain.ClubMember, error) {
	for _, member := range s.Members {
		if member.ClubID == clubID && member.UserID == userID && s.userVisible(userID) {
			return &member, nil
		}
	}
	return nil, nil
}

func (s *Store) ListClubMembers(_ context.Context, clubID int64, status domain.MemberStatus) ([]domain.ClubMember, error) {
	var members []domain.ClubMember
	for _, member := range s.Members {
		if member.ClubID == clubID && member.Status == status && s.userVisible(member.UserID) {
			members = append(members, member)
		}
	}
	slices.SortFunc(members, func(a, b domain.ClubMember) int {
		return int(a.ID - b.ID)
	})
	return members, nil
}

func (s *Store) ListClubMembersByUserIDs(_ context.Context, clubID int64, userIDs []int64) ([]domain.ClubMember, error) {
	var members []domain.ClubMember
	for _, member := range s.Members {
		if member.ClubID == clubID && slices.Contains(userIDs, member.UserID) && s.userVisible(member.UserID) {
			members = append(members, member)
		}
	}
	slices.SortFunc(members, func(a, b domain.ClubMember) int {
		return int(a.ID - b.ID)
	})
	return members, nil
}

func (s *Store) CountClubMembers(_ context.Context, clubID int64, statuses ...domain.MemberStatus) (int, error) {
	var count int
	for _, member := range s.Members {
		if member.ClubID == clubID && slices.Contains(statuses, member.Status) && s.userVisible(member.UserID) {
			count++
		}
	}
	return count, nil
}

func (s *Store) CreateClubMember(_ context.Context, member domain.ClubMember) (*domain.ClubMember, error) {
	for _, existing := range s.Members {
		if existing.ClubID == member.ClubID && existing.UserID == member.UserID {
			return nil, domain.ErrDuplicate
		}
	}
	member.ID = s.id()
	s.Members[member.ID] = member
	return &member, nil
}

func (s *Store) UpdateClubMemberStatus(_ context.Context, clubID, userID int64, status domain.MemberStatus) error {
	for id, member := range s.Members {
		if member.ClubID == clubID && member.UserID == userID {
			member.Status = status
			s.Members[id] = member
		}
	}
	return nil
}

func (s *Store) UpdateClubMemberStatuses(_ context.Context, clubID int64, userIDs []int64, status domain.MemberStatus) error {
	for id, member := range s.Members {
		if member.ClubID == clubID && slices.Contains(userIDs, member.UserID) {
			member.Status = status
			s.Members[id] = member
		}
	}
	return nil
}

func (s *Store) DeleteClubMember(_ context.Context, clubID, userID int64) error {
	for id, member := range s.Members {
		if member.ClubID == clubID && member.UserID == userID {
			delete(s.Members, id)
		}
	}
	return nil
}

func (s *Store) DeleteClubMembersByUserIDs(_ context.Context, clubID int64, userIDs []int64) error {
	for id, member := range s.Members {
		if member.ClubID == clubID && slices.Contains(userIDs, member.UserID) {
			delete(s.Members, id)
		}
	}
	return nil
}

func (s *Store) DeleteClubMembers(_ context.Context, clubID int64) error {
	for id, member := range s.Members {
		if member.ClubID == clubID {
			delete(s.Members, id)
		}
	}
	return nil
}

func (s *Store) IsClubMember(_ context.Context, clubID, userID int64) (bool, error) {
	for _, member := range s.Members {
		if member.ClubID == clubID && member.UserID == userID && s.userVisible(userID) &&
			(member.Status == domain.MemberStatusApproved || member.Status == domain.MemberStatusLeader) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListJoinedClubIDs(_ context.Context, userID int64) ([]int64, error) {
	var clubIDs []int64
	for _, member := range s.Members {
		if member.UserID == userID && s.userVisible(userID) &&
			(member.Status == domain.MemberStatusApproved || member.Status == domain.MemberStatusLeader) {
			clubIDs = append(clubIDs, member.ClubID)
		}
	}
	slices.Sort(clubIDs)
	return clubIDs, nil
}

func (s *Store) GetEvent(_ context.Context, eventID int64) (*domain.Event, error) {
	event, ok := s.Events[eventID]
	if !ok {
		return nil, nil
	}
	return &event, nil
}

func (s *Store) GetEventForUpdate(ctx context.Context, eventID int64) (*domain.Event, error) {
	return s.GetEvent(ctx, eventID)
}

func (s *Store) ListEvents(_ context.Context, filter domain.EventFilter) ([]domain.Event, error) {
	var events []domain.Event
	for _, event := range s.Events {
		if filter.HostID != nil && event.HostID != *filter.HostID {
			continue
		}
		if filter.CategoryID != nil && event.CategoryID != *filter.CategoryID {
			continue
		}
		if filter.ClubID != nil && (event.ClubID == nil || *event.ClubID != *filter.ClubID) {
			continue
		}
		if filter.CityID != nil && !slices.Contains(event.CityIDs, *filter.CityID) {
			continue
		}
		events = append(events, event)
	}
	sortEvents(events)
	return events, nil
}

func (s *Store) ListEventsByIDs(_ context.Context, eventIDs []int64) ([]domain.Event, error) {
	var events []domain.Event
	for _, event := range s.Events {
		if slices.Contains(eventIDs, event.ID) {
			events = append(events, event)
		}
	}
	sortEvents(events)
	return events, nil
}

func (s *Store) ListClubEvents(_ context.Context, clubID int64) ([]domain.Event, error) {
	var events []domain.Event
	for _, event := range s.Events {
		if event.ClubID != nil && *event.ClubID == clubID {
			events = append(events, event)
		}
	}
	sortEvents(events)
	return events, nil
}

func (s *Store) ListFutureClubEventsHostedBy(_ context.Context, clubID, hostID int64, after time.Time) ([]domain.Event, error) {
	var events []domain.Event
	for _, event := range s.Events {
		if event.ClubID != nil && *event.ClubID == clubID && event.HostID == hostID && event.StartTime.After(after) {
			events = append(events, event)
		}
	}
	sortEvents(events)
	return events, nil
}

func (s *Store) ListJoinedEvents(_ context.Context, userID int64) ([]domain.Event, error) {
	var events []domain.Event
	for _, join := range s.Joins {
		if join.UserID != userID {
			continue
		}
		if event, ok := s.Events[join.EventID]; ok {
			events = append(events, event)
		}
	}
	sortEvents(events)
	return events, nil
}

func (s *Store) CreateEvent(_ context.Context, event domain.Event) (*domain.Event, error) {
	event.ID = s.id()
	s.Events[event.ID] = event
	return &event, nil
}

func (s *Store) UpdateEvent(_ context.Context, event domain.Event) (*domain.Event, error) {
	s.Events[event.ID] = event
	return &event, nil
}

func (s *Store) ArchiveEvent(_ context.Context, eventID int64) error {
	event, ok := s.Events[eventID]
	if !ok {
		return nil
	}
	event.ClubID = nil
	event.IsArchived = true
	s.Events[eventID] = event
	return nil
}

func (s *Store) DeleteEvent(_ context.Context, eventID int64) error {
	delete(s.Events, eventID)
	return nil
}

func (s *Store) HasEventJoin(_ context.Context, eventID, userID int64) (bool, error) {
	for _, join := range s.Joins {
		if join.EventID == eventID && join.UserID == userID && s.userVisible(userID) {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) ListJoinedEventIDs(_ context.Context, eventIDs []int64, userID int64) ([]int64, error) {
	var joinedIDs []int64
	for _, join := range s.Joins {
		if join.UserID == userID && slices.Contains(eventIDs, join.EventID) && s.userVisible(userID) {
			joinedIDs = append(joinedIDs, join.EventID)
		}
	}
	slices.Sort(joinedIDs)
	return joinedIDs, nil
}

func (s *Store) CountEventJoins(_ context.Context, eventID int64) (int, error) {
	var count int
	for _, join := range s.Joins {
		if join.EventID == eventID && s.userVisible(join.UserID) {
			count++
		}
	}
	return count, nil
}

func (s *Store) CreateEventJoin(_ context.Context, eventID, userID int64) error {
	for _, join := range s.Joins {
		if join.EventID == eventID && join.UserID == userID {
			return domain.ErrDuplicate
		}
	}
	join := domain.EventJoin{ID: s.id(), EventID: eventID, UserID: userID}
	s.Joins[join.ID] = join
	return nil
}

func (s *Store) DeleteEventJoin(_ context.Context, eventID, userID int64) error {
	for id, join := range s.Joins {
		if join.EventID == eventID && join.UserID == userID {
			delete(s.Joins, id)
		}
	}
	return nil
}

func (s *Store) DeleteEventJoins(_ context.Context, eventID int64) error {
	for id, join := range s.Joins {
		if join.EventID == eventID {
			delete(s.Joins, id)
		}
	}
	return nil
}

func (s *Store) DeleteFutureClubEventJoins(_ context.Context, clubID, userID int64, after time.Time) error {
	for id, join := range s.Joins {
		if join.UserID != userID {
			continue
		}
		event, ok := s.Events[join.EventID]
		if !ok || event.ClubID == nil || *event.ClubID != clubID {
			continue
		}
		if event.StartTime.After(after) {
			delete(s.Joins, id)
		}
	}
	return nil
}

func (s *Store) GetReview(_ context.Context, reviewID int64) (*domain.Review, error) {
	review, ok := s.Reviews[reviewID]
	if !ok {
		return nil, nil
	}
	return &review, nil
}

func (s *Store) ListReviews(_ context.Context, filter domain.ReviewFilter) ([]domain.Review, error) {
	var reviews []domain.Review
	for _, review := range s.Reviews {
		if filter.EventID != nil && review.EventID != *filter.EventID {
			continue
		}
		if filter.UserID != nil && review.UserID != *filter.UserID {
			continue
		}
		reviews = append(reviews, review)
	}
	slices.SortFunc(reviews, func(a, b domain.Review) int {
		return int(a.ID - b.ID)
	})
	return reviews, nil
}

func (s *Store) HasReview(_ context.Context, eventID, userID int64) (bool, error) {
	for _, review := range s.Reviews {
		if review.EventID == eventID && review.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) CreateReview(_ context.Context, review domain.Review) (*domain.Review, error) {
	for _, existing := range s.Reviews {
		if existing.EventID == review.EventID && existing.UserID == review.UserID {
			return nil, domain.ErrDuplicate
		}
	}
	review.ID = s.id()
	s.Reviews[review.ID] = review
	return &review, nil
}

func (s *Store) UpdateReview(_ context.Context, review domain.Review) (*domain.Review, error) {
	s.Reviews[review.ID] = review
	return &review, nil
}

func (s *Store) DeleteReview(_ context.Context, reviewID int64) error {
	delete(s.Reviews, reviewID)
	return nil
}

func (s *Store) GetCategory(_ context.Context, categoryID int64) (*domain.Category, error) {
	category, ok := s.Categories[categoryID]
	if !ok {
		return nil, nil
	}
	return &category, nil
}

func (s *Store) ListCategories(_ context.Context) ([]domain.Category, error) {
	categories := make([]domain.Category, 0, len(s.Categories))
	for _, category := range s.Categories {
		categories = append(categories, category)
	}
	slices.SortFunc(categories, func(a, b domain.Category) int {
		return int(a.ID - b.ID)
	})
	return categories, nil
}

func (s *Store) ListCitiesByIDs(_ context.Context, cityIDs []int64) ([]domain.City, error) {
	var cities []domain.City
	for _, city := range s.Cities {
		if slices.Contains(cityIDs, city.ID) {
			cities = append(cities, city)
		}
	}
	slices.SortFunc(cities, func(a, b domain.City) int {
		return int(a.ID - b.ID)
	})
	return cities, nil
}

func (s *Store) ListCities(_ context.Context) ([]domain.City, error) {
	cities := make([]domain.City, 0, len(s.Cities))
	for _, city := range s.Cities {
		cities = append(cities, city)
	}
	slices.SortFunc(cities, func(a, b domain.City) int {
		return int(a.ID - b.ID)
	})
	return cities, nil
}

func (s *Store) InTx(_ context.Context, fn func(tx domain.Store) error) error {
	return fn(s)
}

func sortEvents(events []domain.Event) {
	slices.SortFunc(events, func(a, b domain.Event) int {
		if c := a.StartTime.Compare(b.StartTime); c != 0 {
			return c
		}
		return int(a.ID - b.ID)
	})
}
