package database

import (
	"context"
	"time"

	"github.com/google/uuid"
)

const createCommunicationLog = `INSERT INTO communication_logs (id, sender, communication_type, subject, message, sent_at)
VALUES ($1, $2, $3, $4, $5, $6)`

func (q *Queries) CreateCommunicationLog(ctx context.Context, c CommunicationLog) error {
	_, err := q.db.Exec(ctx, createCommunicationLog,
		c.ID, c.Sender, c.CommunicationType, c.Subject, c.Message, c.SentAt,
	)
	return err
}

const addCommunicationRecipients = `INSERT INTO communication_recipients (communication_id, member_id)
SELECT $1, unnest($2::uuid[])
ON CONFLICT DO NOTHING`

func (q *Queries) AddCommunicationRecipients(ctx context.Context, communicationID uuid.UUID, memberIDs []uuid.UUID) (int64, error) {
	tag, err := q.db.Exec(ctx, addCommunicationRecipients, communicationID, memberIDs)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

const listCommunicationLogs = `SELECT c.id, c.sender, c.communication_type, c.subject, c.message, c.sent_at,
       COALESCE(array_agg(m.first_name || ' ' || m.last_name ORDER BY m.last_name, m.first_name)
                FILTER (WHERE m.id IS NOT NULL), '{}')::text[]
FROM communication_logs c
LEFT JOIN communication_recipients r ON r.communication_id = c.id
LEFT JOIN members m ON m.id = r.member_id
GROUP BY c.id
ORDER BY c.sent_at DESC, c.id`

func (q *Queries) ListCommunicationLogs(ctx context.Context) ([]CommunicationLogRow, error) {
	rows, err := q.db.Query(ctx, listCommunicationLogs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []CommunicationLogRow
	for rows.Next() {
		var c CommunicationLogRow
		if err := rows.Scan(
			&c.ID, &c.Sender, &c.CommunicationType, &c.Subject, &c.Message, &c.SentAt,
			&c.RecipientNames,
		); err != nil {
			return nil, err
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const countCommunicationsByType = `SELECT communication_type, count(*)
FROM communication_logs
GROUP BY communication_type
ORDER BY communication_type`

func (q *Queries) CountCommunicationsByType(ctx context.Context) ([]TypeCount, error) {
	rows, err := q.db.Query(ctx, countCommunicationsByType)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var items []TypeCount
	for rows.Next() {
		var tc TypeCount
		if err := rows.Scan(&tc.CommunicationType, &tc.Count); err != nil {
			return nil, err
		}
		items = append(items, tc)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return items, nil
}

const deleteCommunicationLogsBefore = `DELETE FROM communication_logs WHERE sent_at < $1`

// DeleteCommunicationLogsBefore removes logs sent before cutoff. Recipient
// links go with them via ON DELETE CASCADE.
func (q *Queries) DeleteCommunicationLogsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	tag, err := q.db.Exec(ctx, deleteCommunicationLogsBefore, cutoff)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
