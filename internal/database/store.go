package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jason-s-yu/courtside/internal/directory"
	"github.com/jason-s-yu/courtside/internal/models"
)

const uniqueViolation = "23505"

// Store implements directory.Store on Postgres.
type Store struct {
	pool *pgxpool.Pool
}

var _ directory.Store = (*Store)(nil)

// NewStore wraps pool. Call Migrate first on a fresh database.
func NewStore(pool *pgxpool.Pool) *Store {
	return &Store{pool: pool}
}

const courtColumns = `id, name, address, surface_type, hours, lat, lng, amenities, description, image_url`

func scanCourt(row pgx.Row, extra ...any) (*models.Court, error) {
	var c models.Court
	dest := []any{
		&c.ID, &c.Name, &c.Address, &c.SurfaceType, &c.Hours,
		&c.Lat, &c.Lng, &c.Amenities, &c.Description, &c.ImageURL,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrNotFound
		}
		return nil, err
	}
	return &c, nil
}

func (s *Store) Courts(ctx context.Context) ([]models.Court, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+courtColumns+` FROM courts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query courts: %w", err)
	}
	defer rows.Close()

	var out []models.Court
	for rows.Next() {
		c, err := scanCourt(rows)
		if err != nil {
			return nil, fmt.Errorf("scan court: %w", err)
		}
		out = append(out, *c)
	}
	return out, rows.Err()
}

func (s *Store) Court(ctx context.Context, id string) (*models.Court, error) {
	row := s.pool.QueryRow(ctx, `SELECT `+courtColumns+` FROM courts WHERE id=$1`, id)
	return scanCourt(row)
}

// AddCourt inserts or replaces a catalogue court, keeping its position.
func (s *Store) AddCourt(ctx context.Context, c models.Court) error {
	q := `
	INSERT INTO courts (` + courtColumns + `)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	ON CONFLICT (id) DO UPDATE SET
		name = EXCLUDED.name, address = EXCLUDED.address,
		surface_type = EXCLUDED.surface_type, hours = EXCLUDED.hours,
		lat = EXCLUDED.lat, lng = EXCLUDED.lng, amenities = EXCLUDED.amenities,
		description = EXCLUDED.description, image_url = EXCLUDED.image_url
	`
	_, err := s.pool.Exec(ctx, q,
		c.ID, c.Name, c.Address, c.SurfaceType, c.Hours,
		c.Lat, c.Lng, amenities(c.Amenities), c.Description, c.ImageURL,
	)
	if err != nil {
		return fmt.Errorf("upsert court %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) SaveDiscoveredCourt(ctx context.Context, c models.Court) error {
	q := `
	INSERT INTO discovered_courts (` + courtColumns + `, player_count)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	ON CONFLICT (id) DO NOTHING
	`
	_, err := s.pool.Exec(ctx, q,
		c.ID, c.Name, c.Address, c.SurfaceType, c.Hours,
		c.Lat, c.Lng, amenities(c.Amenities), c.Description, c.ImageURL, c.PlayerCount,
	)
	if err != nil {
		return fmt.Errorf("insert discovered court %s: %w", c.ID, err)
	}
	return nil
}

func (s *Store) DiscoveredCourt(ctx context.Context, id string) (*models.Court, error) {
	var count int
	row := s.pool.QueryRow(ctx, `SELECT `+courtColumns+`, player_count FROM discovered_courts WHERE id=$1`, id)
	c, err := scanCourt(row, &count)
	if err != nil {
		return nil, err
	}
	c.PlayerCount = count
	c.Discovered = true
	return c, nil
}

const userColumns = `id, name, phone_number, skill_level, bio, location, joined_at, avatar_url`

func scanUser(row pgx.Row) (*models.User, error) {
	var u models.User
	err := row.Scan(
		&u.ID, &u.Name, &u.PhoneNumber, &u.SkillLevel,
		&u.Bio, &u.Location, &u.JoinedAt, &u.AvatarURL,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, directory.ErrNotFound
		}
		return nil, err
	}
	u.JoinedAt = u.JoinedAt.UTC()
	return &u, nil
}

func (s *Store) Users(ctx context.Context) ([]models.User, error) {
	rows, err := s.pool.Query(ctx, `SELECT `+userColumns+` FROM users ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query users: %w", err)
	}
	defer rows.Close()

	var out []models.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *Store) User(ctx context.Context, id string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id=$1`, id))
}

func (s *Store) UserByPhone(ctx context.Context, phone string) (*models.User, error) {
	return scanUser(s.pool.QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE phone_number=$1`, phone))
}

func (s *Store) CreateUser(ctx context.Context, u models.User) error {
	q := `INSERT INTO users (` + userColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`

	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		_, execErr := tx.Exec(ctx, q,
			u.ID, u.Name, u.PhoneNumber, u.SkillLevel,
			u.Bio, u.Location, u.JoinedAt, u.AvatarURL,
		)
		return execErr
	})
	if isUniqueViolation(err) {
		return directory.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u models.User) error {
	q := `
	UPDATE users
	SET name=$2, phone_number=$3, skill_level=$4, bio=$5, location=$6, avatar_url=$7
	WHERE id=$1
	`
	tag, err := s.pool.Exec(ctx, q,
		u.ID, u.Name, u.PhoneNumber, u.SkillLevel, u.Bio, u.Location, u.AvatarURL,
	)
	if isUniqueViolation(err) {
		return directory.ErrAlreadyExists
	}
	if err != nil {
		return fmt.Errorf("failed to update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return directory.ErrNotFound
	}
	return nil
}

func (s *Store) CheckIns(ctx context.Context, since time.Time) ([]models.CheckIn, error) {
	q := `
	SELECT user_id, court_id, checked_in_at
	FROM checkins
	WHERE checked_in_at > $1
	ORDER BY checked_in_at, id
	`
	rows, err := s.pool.Query(ctx, q, since)
	if err != nil {
		return nil, fmt.Errorf("query checkins: %w", err)
	}
	return collectCheckIns(rows)
}

func (s *Store) AppendCheckIn(ctx context.Context, ci models.CheckIn) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO checkins (user_id, court_id, checked_in_at) VALUES ($1, $2, $3)`,
		ci.UserID, ci.CourtID, ci.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("insert checkin: %w", err)
	}
	return nil
}

// ReplaceActiveCheckIn serializes writers for the same user on a transaction
// scoped advisory lock, so concurrent check-ins from other server instances
// cannot leave two active rows behind.
func (s *Store) ReplaceActiveCheckIn(ctx context.Context, ci models.CheckIn, since time.Time) ([]models.CheckIn, error) {
	var retired []models.CheckIn
	err := pgx.BeginTxFunc(ctx, s.pool, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext($1))`, ci.UserID); err != nil {
			return fmt.Errorf("lock user: %w", err)
		}
		rows, err := tx.Query(ctx, `
			DELETE FROM checkins
			WHERE user_id=$1 AND checked_in_at > $2
			RETURNING user_id, court_id, checked_in_at
		`, ci.UserID, since)
		if err != nil {
			return fmt.Errorf("retire checkins: %w", err)
		}
		retired, err = collectCheckIns(rows)
		if err != nil {
			return err
		}
		_, err = tx.Exec(ctx,
			`INSERT INTO checkins (user_id, court_id, checked_in_at) VALUES ($1, $2, $3)`,
			ci.UserID, ci.CourtID, ci.Timestamp,
		)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("replace active checkin: %w", err)
	}
	return retired, nil
}

func collectCheckIns(rows pgx.Rows) ([]models.CheckIn, error) {
	out, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (models.CheckIn, error) {
		var ci models.CheckIn
		err := row.Scan(&ci.UserID, &ci.CourtID, &ci.Timestamp)
		return ci, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan checkins: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolation
}

func amenities(a []string) []string {
	if a == nil {
		return []string{}
	}
	return a
}
