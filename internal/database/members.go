package database

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

// MemberCopyColumns is the column order used by CopyMembers.
var MemberCopyColumns = []string{
	"id", "first_name", "last_name", "contact_1", "contact_2",
	"gender", "email", "category", "created_at", "updated_at",
}

const memberColumns = `id, first_name, last_name, contact_1, contact_2, gender, email, category, created_at, updated_at`

// CopyMembers bulk-loads members with the COPY protocol. Callers wanting
// all-or-nothing semantics run it inside InTx.
func (q *Queries) CopyMembers(ctx context.Context, members []Member) (int64, error) {
	n, err := q.db.CopyFrom(ctx, pgx.Identifier{"members"}, MemberCopyColumns,
		pgx.CopyFromSlice(len(members), func(i int) ([]any, error) {
			m := members[i]
			return []any{
				m.ID, m.FirstName, m.LastName, m.Contact1, m.Contact2,
				m.Gender, m.Email, m.Category, m.CreatedAt, m.UpdatedAt,
			}, nil
		}))
	if err != nil {
		return 0, fmt.Errorf("copy members: %w", err)
	}
	return n, nil
}

const createMember = `INSERT INTO members (` + memberColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

func (q *Queries) CreateMember(ctx context.Context, m Member) error {
	_, err := q.db.Exec(ctx, createMember,
		m.ID, m.FirstName, m.LastName, m.Contact1, m.Contact2,
		m.Gender, m.Email, m.Category, m.CreatedAt, m.UpdatedAt,
	)
	return err
}

type SearchMembersParams struct {
	Query    string
	GroupID  pgtype.UUID
	Category string
	Limit    int32
}

const searchMembers = `SELECT ` + memberColumns + `
FROM members m
WHERE ($1::text = '' OR
       m.first_name ILIKE '%' || $1 || '%' OR
       m.last_name ILIKE '%' || $1 || '%' OR
       m.contact_1 ILIKE '%' || $1 || '%' OR
       m.contact_2 ILIKE '%' || $1 || '%' OR
       m.email ILIKE '%' || $1 || '%')
  AND ($2::uuid IS NULL OR EXISTS (
       SELECT 1 FROM group_members gm WHERE gm.member_id = m.id AND gm.group_id = $2))
  AND ($3::text = '' OR m.category = $3)
ORDER BY m.created_at DESC, m.id
LIMIT $4`

// SearchMembers returns members newest first, filtered by free text, group
// and category. Empty filters match everything.
func (q *Queries) SearchMembers(ctx context.Context, arg SearchMembersParams) ([]Member, error) {
	rows, err := q.db.Query(ctx, searchMembers, arg.Query, arg.GroupID, arg.Category, arg.Limit)
	if err != nil {
		return nil, err
	}
	return collectMembers(rows)
}

const listMembersByIDs = `SELECT ` + memberColumns + `
FROM members
WHERE id = ANY($1::uuid[])
ORDER BY created_at DESC, id`

func (q *Queries) ListMembersByIDs(ctx context.Context, ids []uuid.UUID) ([]Member, error) {
	rows, err := q.db.Query(ctx, listMembersByIDs, ids)
	if err != nil {
		return nil, err
	}
	return collectMembers(rows)
}

const listAllMembers = `SELECT ` + memberColumns + `
FROM members
ORDER BY created_at DESC, id`

func (q *Queries) ListAllMembers(ctx context.Context) ([]Member, error) {
	rows, err := q.db.Query(ctx, listAllMembers)
	if err != nil {
		return nil, err
	}
	return collectMembers(rows)
}

const countMembers = `SELECT count(*) FROM members`

func (q *Queries) CountMembers(ctx context.Context) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countMembers).Scan(&n)
	return n, err
}

const countMembersByCategory = `SELECT count(*) FROM members WHERE category = $1`

func (q *Queries) CountMembersByCategory(ctx context.Context, category string) (int64, error) {
	var n int64
	err := q.db.QueryRow(ctx, countMembersByCategory, category).Scan(&n)
	return n, err
}

func collectMembers(rows pgx.Rows) ([]Member, error) {
	defer rows.Close()

	var items []Member
	for rows.Next() {
		var m Member
		if err := rows.Scan(
			&m.ID, &m.FirstName, &m.LastName, &m.Contact1, &m.Contact2,
			&m.Gender, &m.Email, &m.Category, &m.CreatedAt, &m.UpdatedAt,
		); err != nil {
			return nil, err
		}
		items = append(items, m)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}
