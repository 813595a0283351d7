package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/gatherhq/gather-server/server/domain"
)

func (q queries) GetClubMember(ctx context.Context, clubID, userID int64) (*domain.ClubMember, error) {
	query := `
		SELECT cm.*
		FROM club_members cm
		JOIN users u ON u.id = cm.user_id AND u.deleted_at IS NULL
		WHERE cm.club_id = $1 AND cm.user_id = $2
	`

	var row clubMemberRow
	if err := sqlx.GetContext(ctx, q.ext, &row, query, clubID, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get club member: %w", err)
	}

	member := row.toDomain()
	return &member, nil
}

func (q queries) ListClubMembers(ctx context.Context, clubID int64, status domain.MemberStatus) ([]domain.ClubMember, error) {
	query := `
		SELECT cm.*
		FROM club_members cm
		JOIN users u ON u.id = cm.user_id AND u.deleted_at IS NULL
		WHERE cm.club_id = $1 AND cm.status = $2
		ORDER BY cm.id
	`

	var rows []clubMemberRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, clubID, string(status)); err != nil {
		return nil, fmt.Errorf("failed to list club members: %w", err)
	}

	return clubMembersToDomain(rows), nil
}

func (q queries) ListClubMembersByUserIDs(ctx context.Context, clubID int64, userIDs []int64) ([]domain.ClubMember, error) {
	query := `
		SELECT cm.*
		FROM club_members cm
		JOIN users u ON u.id = cm.user_id AND u.deleted_at IS NULL
		WHERE cm.club_id = $1 AND cm.user_id = ANY($2)
		ORDER BY cm.id
	`

	var rows []clubMemberRow
	if err := sqlx.SelectContext(ctx, q.ext, &rows, query, clubID, pq.Array(userIDs)); err != nil {
		return nil, fmt.Errorf("failed to list club members by user ids: %w", err)
	}

	return clubMembersToDomain(rows), nil
}

func (q queries) CountClubMembers(ctx context.Context, clubID int64, statuses ...domain.MemberStatus) (int, error) {
	query := `
		SELECT COUNT(*)
		FROM club_members cm
		JOIN users u ON u.id = cm.user_id AND u.deleted_at IS NULL
		WHERE cm.club_id = $1 AND cm.status = ANY($2)
	`

	values := make([]string, 0, len(statuses))
	for _, status := range statuses {
		values = append(values, string(status))
	}

	var count int
	if err := sqlx.GetContext(ctx, q.ext, &count, query, clubID, pq.Array(values)); err != nil {
		return 0, fmt.Errorf("failed to count club members: %w", err)
	}
	return count, nil
}

func (q queries) CreateClubMember(ctx context.Context, member domain.ClubMember) (*domain.ClubMember, error) {
	query := `
		INSERT INTO club_members (club_id, user_id, status)
		VALUES ($1, $2, $3)
		RETURNING *
	`

	var row clubMemberRow
	if err := sqlx.GetContext(ctx, q.ext, &row, query, member.ClubID, member.UserID, string(member.Status)); err != nil {
		return nil, fmt.Errorf("failed to create club member: %w", convertErr(err))
	}

	created := row.toDomain()
	return &created, nil
}

func (q queries) UpdateClubMemberStatus(ctx context.Context, clubID, userID int64, status domain.MemberStatus) error {
	query := "UPDATE club_members SET status = $3 WHERE club_id = $1 AND user_id = $2"

	if _, err := q.ext.ExecContext(ctx, query, clubID, userID, string(status)); err != nil {
		return fmt.Errorf("failed to update club member status: %w", err)
	}
	return nil
}

func (q queries) UpdateClubMemberStatuses(ctx context.Context, clubID int64, userIDs []int64, status domain.MemberStatus) error {
	query := "UPDATE club_members SET status = $3 WHERE club_id = $1 AND user_id = ANY($2)"

	if _, err := q.ext.ExecContext(ctx, query, clubID, pq.Array(userIDs), string(status)); err != nil {
		return fmt.Errorf("failed to update club member statuses: %w", err)
	}
	return nil
}

func (q queries) DeleteClubMember(ctx context.Context, clubID, userID int64) error {
	query := "DELETE FROM club_members WHERE club_id = $1 AND user_id = $2"

	if _, err := q.ext.ExecContext(ctx, query, clubID, userID); err != nil {
		return fmt.Errorf("failed to delete club member: %w", err)
	}
	return nil
}

func (q queries) DeleteClubMembersByUserIDs(ctx context.Context, clubID int64, userIDs []int64) error {
	query := "DELETE FROM club_members WHERE club_id = $1 AND user_id = ANY($2)"

	if _, err := q.ext.ExecContext(ctx, query, clubID, pq.Array(userIDs)); err != nil {
		return fmt.Errorf("failed to delete club members by user ids: %w", err)
	}
	return nil
}

func (q queries) DeleteClubMembers(ctx context.Context, clubID int64) error {
	if _, err := q.ext.ExecContext(ctx, "DELETE FROM club_members WHERE club_id = $1", clubID); err != nil {
		return fmt.Errorf("failed to delete club members: %w", err)
	}
	return nil
}

func (q queries) IsClubMember(ctx context.Context, clubID, userID int64) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1
			FROM club_members cm
			JOIN users u ON u.id = cm.user_id AND u.deleted_at IS NULL
			WHERE cm.club_id = $1 AND cm.user_id = $2 AND cm.status IN ('APPROVED', 'LEADER')
		)
	`

	var exists bool
	if err := sqlx.GetContext(ctx, q.ext, &exists, query, clubID, userID); err != nil {
		return false, fmt.Errorf("failed to check club membership: %w", err)
	}
	return exists, nil
}

func (q queries) ListJoinedClubIDs(ctx context.Context, userID int64) ([]int64, error) {
	query := `
		SELECT cm.club_id
		FROM club_members cm
		JOIN users u ON u.id = cm.user_id AND u.deleted_at IS NULL
		WHERE cm.user_id = $1 AND cm.status IN ('APPROVED', 'LEADER')
	`

	var clubIDs []int64
	if err := sqlx.SelectContext(ctx, q.ext, &clubIDs, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list joined club ids: %w", err)
	}
	return clubIDs, nil
}

func clubMembersToDomain(rows []clubMemberRow) []domain.ClubMember {
	members := make([]domain.ClubMember, 0, len(rows))
	for _, row := range rows {
		members = append(members, row.toDomain())
	}
	return members
}
