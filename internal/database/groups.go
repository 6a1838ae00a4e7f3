package database

import (
	"context"

	"github.com/google/uuid"
)

const createGroup = `INSERT INTO groups (id, name, description, leader, created_at)
VALUES ($1, $2, $3, $4, $5)`

func (q *Queries) CreateGroup(ctx context.Context, g Group) error {
	_, err := q.db.Exec(ctx, createGroup, g.ID, g.Name, g.Description, g.Leader, g.CreatedAt)
	return err
}

const listGroupsWithCounts = `SELECT g.id, g.name, g.description, g.leader, g.created_at, count(gm.member_id)
FROM groups g
LEFT JOIN group_members gm ON gm.group_id = g.id
GROUP BY g.id
ORDER BY g.name`

func (q *Queries) ListGroupsWithCounts(ctx context.Context) ([]GroupWithCount, error) {
	rows, err := q.db.Query(ctx, listGroupsWithCounts)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []GroupWithCount
	for rows.Next() {
		var g GroupWithCount
		if err := rows.Scan(&g.ID, &g.Name, &g.Description, &g.Leader, &g.CreatedAt, &g.MemberCount); err != nil {
			return nil, err
		}
		items = append(items, g)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const addGroupMembers = `INSERT INTO group_members (group_id, member_id)
SELECT $1, unnest($2::uuid[])
ON CONFLICT DO NOTHING`

// AddGroupMembers links members to a group, ignoring existing links.
// Returns the number of new links.
func (q *Queries) AddGroupMembers(ctx context.Context, groupID uuid.UUID, memberIDs []uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, addGroupMembers, groupID, memberIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
