package directory

import (
	"context"
	"time"

	"github.com/jason-s-yu/courtside/internal/models"
)

// Store is the backing repository of the directory. Implementations must be
// safe for concurrent use.
type Store interface {
	// Courts returns the catalogue in a stable order.
	Courts(ctx context.Context) ([]models.Court, error)
	// Court returns a catalogue court or ErrNotFound.
	Court(ctx context.Context, id string) (*models.Court, error)
	AddCourt(ctx context.Context, c models.Court) error

	// SaveDiscoveredCourt keeps a synthesized court outside the searchable catalogue.
	SaveDiscoveredCourt(ctx context.Context, c models.Court) error
	DiscoveredCourt(ctx context.Context, id string) (*models.Court, error)

	Users(ctx context.Context) ([]models.User, error)
	User(ctx context.Context, id string) (*models.User, error)
	UserByPhone(ctx context.Context, phone string) (*models.User, error)
	// CreateUser returns ErrAlreadyExists when the phone number is taken.
	CreateUser(ctx context.Context, u models.User) error
	UpdateUser(ctx context.Context, u models.User) error

	// CheckIns returns every check-in stamped strictly after since, oldest first.
	CheckIns(ctx context.Context, since time.Time) ([]models.CheckIn, error)
	AppendCheckIn(ctx context.Context, ci models.CheckIn) error
	// ReplaceActiveCheckIn atomically removes the user's check-ins stamped after
	// since and appends ci. It returns the removed entries.
	ReplaceActiveCheckIn(ctx context.Context, ci models.CheckIn, since time.Time) ([]models.CheckIn, error)
}
