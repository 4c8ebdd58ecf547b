package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/mmynk/tripsplit/internal/models"
)

// AddParticipant inserts a participant and, for groups, its member names.
func (s *SQLiteStore) AddParticipant(ctx context.Context, p *models.Participant) error {
	if !p.Kind.Valid() {
		return fmt.Errorf("invalid participant kind %q", p.Kind)
	}
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	if p.CreatedAt == 0 {
		p.CreatedAt = time.Now().Unix()
	}

	var email any
	if p.Email != "" {
		email = p.Email
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO participants (id, trip_id, kind, display_name, email, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		p.ID, p.TripID, string(p.Kind), p.DisplayName, email, p.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert participant: %w", err)
	}

	if p.Kind == models.KindGroup {
		for _, name := range p.Members {
			_, err = tx.ExecContext(ctx,
				"INSERT OR IGNORE INTO group_members (participant_id, kind, name) VALUES (?, ?, ?)",
				p.ID, string(models.KindGroup), name,
			)
			if err != nil {
				return fmt.Errorf("failed to insert group member: %w", err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}
	return nil
}

// ListParticipants returns a trip's participants in the order they were added.
func (s *SQLiteStore) ListParticipants(ctx context.Context, tripID string) ([]*models.Participant, error) {
	return listParticipants(ctx, s.db, tripID)
}

func listParticipants(ctx context.Context, q queryer, tripID string) ([]*models.Participant, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, trip_id, kind, display_name, email, created_at
		 FROM participants WHERE trip_id = ? ORDER BY created_at, rowid`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list participants: %w", err)
	}
	defer rows.Close()

	var participants []*models.Participant
	groups := make(map[string]*models.Participant)
	for rows.Next() {
		p := &models.Participant{}
		var kind string
		var email sql.NullString
		if err := rows.Scan(&p.ID, &p.TripID, &kind, &p.DisplayName, &email, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan participant: %w", err)
		}
		p.Kind = models.ParticipantKind(kind)
		if email.Valid {
			p.Email = email.String
		}
		if p.Kind == models.KindGroup {
			groups[p.ID] = p
		}
		participants = append(participants, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate participants: %w", err)
	}
	rows.Close()

	if len(groups) == 0 {
		return participants, nil
	}

	memberRows, err := q.QueryContext(ctx,
		`SELECT gm.participant_id, gm.name
		 FROM group_members gm
		 JOIN participants p ON p.id = gm.participant_id AND p.kind = gm.kind
		 WHERE p.trip_id = ? ORDER BY gm.rowid`,
		tripID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to get group members: %w", err)
	}
	defer memberRows.Close()

	for memberRows.Next() {
		var groupID, name string
		if err := memberRows.Scan(&groupID, &name); err != nil {
			return nil, fmt.Errorf("failed to scan group member: %w", err)
		}
		if g, ok := groups[groupID]; ok {
			g.Members = append(g.Members, name)
		}
	}
	if err := memberRows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate group members: %w", err)
	}

	return participants, nil
}
