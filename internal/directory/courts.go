package directory

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"regexp"
	"sort"
	"strings"

	"github.com/jason-s-yu/courtside/internal/geo"
	"github.com/jason-s-yu/courtside/internal/models"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/sirupsen/logrus"
)

// DiscoveredPrefix starts the id of every court synthesized from a postal-code search.
const DiscoveredPrefix = "discovered-"

var postalCode = regexp.MustCompile(`^[0-9]{5}$`)

// ListCourts returns the catalogue with live player counts. A non-empty query
// keeps courts whose name or address contains it, ignoring case. A postal code
// that matches nothing yields a single freshly discovered court.
func (s *Service) ListCourts(ctx context.Context, query string) ([]models.Court, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	courts, err := s.store.Courts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list courts: %w", err)
	}
	counts, err := s.playerCounts(ctx)
	if err != nil {
		return nil, err
	}
	for i := range courts {
		courts[i].PlayerCount = counts[courts[i].ID]
	}

	q := strings.TrimSpace(query)
	if q == "" {
		return courts, nil
	}

	needle := strings.ToLower(q)
	matched := courts[:0]
	for _, c := range courts {
		if strings.Contains(strings.ToLower(c.Name), needle) || strings.Contains(strings.ToLower(c.Address), needle) {
			matched = append(matched, c)
		}
	}
	if len(matched) > 0 || !postalCode.MatchString(q) {
		s.logger.WithFields(logrus.Fields{"query": q, "matches": len(matched)}).Debug("courts searched")
		return matched, nil
	}

	d, err := s.discoverCourt(q)
	if err != nil {
		return nil, err
	}
	if err := s.store.SaveDiscoveredCourt(ctx, d); err != nil {
		return nil, fmt.Errorf("save discovered court: %w", err)
	}
	s.logger.WithFields(logrus.Fields{"query": q, "court_id": d.ID}).Info("discovered court for postal code")
	return []models.Court{d}, nil
}

// GetCourtByID returns a court with its live player count. Ids shaped like a
// discovered court resolve to the saved record or, failing that, to a stable
// placeholder.
func (s *Service) GetCourtByID(ctx context.Context, id string) (*models.Court, error) {
	if err := s.simulateLatency(ctx); err != nil {
		return nil, err
	}
	c, err := s.lookupCourt(ctx, id)
	if err != nil {
		return nil, err
	}
	counts, err := s.playerCounts(ctx)
	if err != nil {
		return nil, err
	}
	if c.Discovered {
		// the synthesized estimate stands in for players we cannot see
		c.PlayerCount += counts[c.ID]
	} else {
		c.PlayerCount = counts[c.ID]
	}
	return c, nil
}

// NearbyCourts orders the catalogue by distance from origin. A limit of zero
// or less returns every court.
func (s *Service) NearbyCourts(ctx context.Context, origin models.Coordinate, limit int) ([]models.NearbyCourt, error) {
	courts, err := s.ListCourts(ctx, "")
	if err != nil {
		return nil, err
	}
	out := make([]models.NearbyCourt, 0, len(courts))
	for _, c := range courts {
		out = append(out, models.NearbyCourt{Court: c, DistanceKm: geo.DistanceKm(origin, c.Coordinate)})
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].DistanceKm < out[j].DistanceKm })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *Service) lookupCourt(ctx context.Context, id string) (*models.Court, error) {
	c, err := s.store.Court(ctx, id)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get court %s: %w", id, err)
	}
	if !strings.HasPrefix(id, DiscoveredPrefix) {
		return nil, fmt.Errorf("court %s: %w", id, ErrNotFound)
	}

	c, err = s.store.DiscoveredCourt(ctx, id)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, ErrNotFound) {
		return nil, fmt.Errorf("get discovered court %s: %w", id, err)
	}
	p := placeholderCourt(id)
	return &p, nil
}

func (s *Service) discoverCourt(zip string) (models.Court, error) {
	suffix, err := gonanoid.New(12)
	if err != nil {
		return models.Court{}, fmt.Errorf("generate court id: %w", err)
	}
	return models.Court{
		ID:          DiscoveredPrefix + suffix,
		Name:        fmt.Sprintf("Public Courts near %s", zip),
		Address:     fmt.Sprintf("Near ZIP %s", zip),
		SurfaceType: models.SurfaceHard,
		Hours:       "Dawn - Dusk",
		Coordinate: models.Coordinate{
			Lat: geo.DefaultCoordinate.Lat + (rand.Float64()-0.5)*0.04,
			Lng: geo.DefaultCoordinate.Lng + (rand.Float64()-0.5)*0.04,
		},
		Amenities:   []string{"Public Access"},
		Description: "Discovered from your search. Details have not been verified yet.",
		ImageURL:    "https://picsum.photos/800/400?random=99",
		PlayerCount: rand.Intn(5),
		Discovered:  true,
	}, nil
}

func placeholderCourt(id string) models.Court {
	return models.Court{
		ID:          id,
		Name:        "Discovered Court",
		Address:     "Location details pending",
		SurfaceType: models.SurfaceHard,
		Hours:       "Dawn - Dusk",
		Coordinate:  geo.DefaultCoordinate,
		Amenities:   []string{"Public Access"},
		Description: "This court was found through a search and has not been verified yet.",
		ImageURL:    "https://picsum.photos/800/400?random=99",
		Discovered:  true,
	}
}
