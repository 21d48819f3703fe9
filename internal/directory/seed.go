package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jason-s-yu/courtside/internal/models"
)

var seedCourts = []models.Court{
	{
		ID:          "c1",
		Name:        "Central Park Tennis Center",
		Address:     "Central Park West & 96th St, New York, NY 10024",
		SurfaceType: models.SurfaceHard,
		Hours:       "6am - 10pm",
		Coordinate:  models.Coordinate{Lat: 40.793, Lng: -73.964},
		Amenities:   []string{"Lights", "Pro Shop", "Restrooms", "Water"},
		Description: "Iconic public courts in the heart of the city. High traffic, great for pick-up games.",
		ImageURL:    "https://picsum.photos/800/400?random=1",
	},
	{
		ID:          "c2",
		Name:        "Golden Gate Park Courts",
		Address:     "Golden Gate Park, San Francisco, CA 94117",
		SurfaceType: models.SurfaceClay,
		Hours:       "Dawn - Dusk",
		Coordinate:  models.Coordinate{Lat: 37.769, Lng: -122.457},
		Amenities:   []string{"Restrooms", "Water Fountain", "Parking"},
		Description: "Beautiful setting within the park. Clay courts require reservation.",
		ImageURL:    "https://picsum.photos/800/400?random=2",
	},
	{
		ID:          "c3",
		Name:        "Venice Beach Tennis",
		Address:     "1800 Ocean Front Walk, Venice, CA 90291",
		SurfaceType: models.SurfaceHard,
		Hours:       "6am - 9pm",
		Coordinate:  models.Coordinate{Lat: 33.985, Lng: -118.473},
		Amenities:   []string{"Lights", "Beach View", "Parking"},
		Description: "Play right next to the ocean. Windy conditions but amazing views.",
		ImageURL:    "https://picsum.photos/800/400?random=3",
	},
	{
		ID:          "c4",
		Name:        "Wimbledon Common",
		Address:     "London, UK SW19 4UH",
		SurfaceType: models.SurfaceGrass,
		Hours:       "8am - 8pm",
		Coordinate:  models.Coordinate{Lat: 51.435, Lng: -0.214},
		Amenities:   []string{"Grass Courts", "Traditional", "Clubhouse"},
		Description: "Experience the traditional grass courts.",
		ImageURL:    "https://picsum.photos/800/400?random=4",
	},
	{
		ID:          "c5",
		Name:        "Flamingo Park Tennis",
		Address:     "1200 Meridian Ave, Miami Beach, FL 33139",
		SurfaceType: models.SurfaceClay,
		Hours:       "7am - 9pm",
		Coordinate:  models.Coordinate{Lat: 25.782, Lng: -80.137},
		Amenities:   []string{"17 Courts", "Vending Machines", "Pro Shop"},
		Description: "One of the premier tennis centers in South Beach.",
		ImageURL:    "https://picsum.photos/800/400?random=5",
	},
	{
		ID:          "c6",
		Name:        "Caswell Tennis Center",
		Address:     "2312 Shoal Creek Blvd, Austin, TX 78705",
		SurfaceType: models.SurfaceHard,
		Hours:       "8am - 10pm",
		Coordinate:  models.Coordinate{Lat: 30.291, Lng: -97.749},
		Amenities:   []string{"Lights", "Pro Shop", "Showers"},
		Description: "Historical tennis center serving the Austin community since 1946.",
		ImageURL:    "https://picsum.photos/800/400?random=6",
	},
}

var seedUsers = []models.User{
	{
		ID:          "u1",
		Name:        "Alice Williams",
		PhoneNumber: "+15550101",
		SkillLevel:  models.SkillAdvanced,
		Bio:         "Played college tennis. Looking for hitting partners on weekends.",
		JoinedAt:    time.Date(2023, time.May, 12, 0, 0, 0, 0, time.UTC),
		AvatarURL:   "https://picsum.photos/100/100?random=10",
	},
	{
		ID:          "u2",
		Name:        "Bob Chen",
		PhoneNumber: "+15550102",
		SkillLevel:  models.SkillIntermediate,
		Bio:         "Improving my backhand. Love doubles.",
		JoinedAt:    time.Date(2023, time.August, 20, 0, 0, 0, 0, time.UTC),
		AvatarURL:   "https://picsum.photos/100/100?random=11",
	},
}

// Seed loads the demo catalogue, players and check-ins into store. Running it
// again against a persistent store is harmless.
func Seed(ctx context.Context, store Store, now time.Time) error {
	for _, c := range seedCourts {
		if err := store.AddCourt(ctx, c); err != nil {
			return fmt.Errorf("seed court %s: %w", c.ID, err)
		}
	}
	for _, u := range seedUsers {
		if err := store.CreateUser(ctx, u); err != nil && !errors.Is(err, ErrAlreadyExists) {
			return fmt.Errorf("seed user %s: %w", u.ID, err)
		}
	}

	// yesterday's visit stays in the log but is outside the active window
	if err := store.AppendCheckIn(ctx, models.CheckIn{UserID: "u1", CourtID: "c3", Timestamp: now.Add(-24 * time.Hour)}); err != nil {
		return fmt.Errorf("seed check-in: %w", err)
	}
	since := now.Add(-ActiveWindow)
	for _, ci := range []models.CheckIn{
		{UserID: "u1", CourtID: "c1", Timestamp: now},
		{UserID: "u2", CourtID: "c1", Timestamp: now},
	} {
		if _, err := store.ReplaceActiveCheckIn(ctx, ci, since); err != nil {
			return fmt.Errorf("seed check-in: %w", err)
		}
	}
	return nil
}
