package sqlite

import (
	"context"
	"database/sql"
	"errors"

	"github.com/aretw0/arbor/pkg/ports"
)

// Profiles implements ports.ProfileRepository.
type Profiles struct {
	db *sql.DB
}

var _ ports.ProfileRepository = (*Profiles)(nil)

// NewProfiles initializes the profile schema in db.
func NewProfiles(db *sql.DB) (*Profiles, error) {
	p := &Profiles{db: db}
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS profiles (
			user_id INTEGER PRIMARY KEY,
			name TEXT NOT NULL,
			age INTEGER NOT NULL,
			role TEXT NOT NULL,
			subject TEXT NOT NULL DEFAULT ''
		);`,
	)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Profiles) Get(ctx context.Context, userID int64) (ports.Profile, error) {
	prof := ports.Profile{UserID: userID}
	err := p.db.QueryRowContext(ctx,
		`SELECT name, age, role, subject FROM profiles WHERE user_id = ?`, userID,
	).Scan(&prof.Name, &prof.Age, &prof.Role, &prof.Subject)
	if errors.Is(err, sql.ErrNoRows) {
		return ports.Profile{}, ports.ErrProfileNotFound
	}
	if err != nil {
		return ports.Profile{}, err
	}
	return prof, nil
}

func (p *Profiles) Save(ctx context.Context, prof ports.Profile) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO profiles (user_id, name, age, role, subject)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT (user_id) DO UPDATE SET
			name = excluded.name, age = excluded.age, role = excluded.role, subject = excluded.subject`,
		prof.UserID, prof.Name, prof.Age, prof.Role, prof.Subject,
	)
	return err
}
