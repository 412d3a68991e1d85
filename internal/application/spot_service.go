package application

import (
	"math"
	"sort"
	"time"

	"context"

	"github.com/google/uuid"
	"go.uber.org/zap"

	bookingDomain "github.com/Parastud/ParkEase/internal/domain/booking"
	ownerDomain "github.com/Parastud/ParkEase/internal/domain/owner"
	spotDomain "github.com/Parastud/ParkEase/internal/domain/spot"
	"github.com/Parastud/ParkEase/internal/pkg/domain"
)

// nearbyScanLimit bounds how many spots a radius search considers.
const nearbyScanLimit = 500

// SpotRequest holds the data for creating or editing a parking spot.
type SpotRequest struct {
	Title             string              `json:"title" binding:"required"`
	Description       string              `json:"description"`
	Address           string              `json:"address"`
	Latitude          float64             `json:"latitude" binding:"required"`
	Longitude         float64             `json:"longitude" binding:"required"`
	PricePerHourCents int64               `json:"price_per_hour_cents"`
	TotalSpots        int                 `json:"total_spots" binding:"required"`
	RequiresApproval  bool                `json:"requires_approval"`
	Features          spotDomain.Features `json:"features"`
	ImageURLs         []string            `json:"image_urls"`
}

// SpotDTO is the response representation of a parking spot.
type SpotDTO struct {
	ID                uuid.UUID           `json:"id"`
	OwnerID           uuid.UUID           `json:"owner_id"`
	Title             string              `json:"title"`
	Description       string              `json:"description"`
	Address           string              `json:"address"`
	Latitude          float64             `json:"latitude"`
	Longitude         float64             `json:"longitude"`
	PricePerHourCents int64               `json:"price_per_hour_cents"`
	Currency          string              `json:"currency"`
	TotalSpots        int                 `json:"total_spots"`
	AvailableSpots    int                 `json:"available_spots"`
	RequiresApproval  bool                `json:"requires_approval"`
	Features          spotDomain.Features `json:"features"`
	ImageURLs         []string            `json:"image_urls"`
	DistanceKm        *float64            `json:"distance_km,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
}

// SpotService manages the parking-spot catalog: owner CRUD and
// driver-facing discovery. Availability is read here but only ever
// written through the ledger.
type SpotService struct {
	spots    spotDomain.SpotRepository
	bookings bookingDomain.BookingRepository
	owners   ownerDomain.ProfileRepository
	logger   *zap.Logger
	clock    func() time.Time
}

// NewSpotService creates a new SpotService.
func NewSpotService(
	spots spotDomain.SpotRepository,
	bookings bookingDomain.BookingRepository,
	owners ownerDomain.ProfileRepository,
	logger *zap.Logger,
	clock func() time.Time,
) *SpotService {
	return &SpotService{
		spots:    spots,
		bookings: bookings,
		owners:   owners,
		logger:   logger,
		clock:    clock,
	}
}

// CreateSpot lists a new parking spot. The owner must have a
// registered business profile.
func (s *SpotService) CreateSpot(ctx context.Context, ownerID uuid.UUID, req SpotRequest) (*SpotDTO, error) {
	if err := s.requireOwnerProfile(ctx, ownerID); err != nil {
		return nil, err
	}

	sp, err := spotDomain.NewSpot(
		s.clock(),
		ownerID,
		req.Title,
		req.Description,
		req.Address,
		spotDomain.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude},
		req.PricePerHourCents,
		req.TotalSpots,
		req.RequiresApproval,
		req.Features,
		req.ImageURLs,
	)
	if err != nil {
		return nil, err
	}

	if err := s.spots.Save(ctx, sp); err != nil {
		return nil, err
	}

	s.logger.Info("spot created",
		zap.String("spot_id", sp.ID().String()),
		zap.String("owner_id", ownerID.String()),
		zap.Int("total_spots", sp.TotalSpots()),
	)

	result := toSpotDTO(sp, nil)
	return &result, nil
}

// UpdateSpot applies an owner edit, including capacity resizes.
func (s *SpotService) UpdateSpot(ctx context.Context, ownerID, spotID uuid.UUID, req SpotRequest) (*SpotDTO, error) {
	sp, err := s.loadOwnedSpot(ctx, ownerID, spotID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	if err := sp.UpdateDetails(
		now,
		req.Title,
		req.Description,
		req.Address,
		spotDomain.Coordinate{Latitude: req.Latitude, Longitude: req.Longitude},
		req.PricePerHourCents,
		req.RequiresApproval,
		req.Features,
		req.ImageURLs,
	); err != nil {
		return nil, err
	}
	if req.TotalSpots != sp.TotalSpots() {
		if err := sp.ChangeCapacity(now, req.TotalSpots); err != nil {
			return nil, err
		}
	}

	sp.IncrementVersion(now)
	if err := s.spots.Update(ctx, sp); err != nil {
		return nil, err
	}

	result := toSpotDTO(sp, nil)
	return &result, nil
}

// DeleteSpot removes a spot. Refused while any booking still holds one
// of its capacity units.
func (s *SpotService) DeleteSpot(ctx context.Context, ownerID, spotID uuid.UUID) error {
	if _, err := s.loadOwnedSpot(ctx, ownerID, spotID); err != nil {
		return err
	}

	holding, err := s.bookings.CountHoldingBySpotID(ctx, spotID)
	if err != nil {
		return err
	}
	if holding > 0 {
		return domain.NewConflictError("spot has active bookings")
	}

	return s.spots.Delete(ctx, spotID)
}

// GetSpot retrieves a single spot.
func (s *SpotService) GetSpot(ctx context.Context, spotID uuid.UUID) (*SpotDTO, error) {
	sp, err := s.spots.FindByID(ctx, spotID)
	if err != nil {
		return nil, err
	}
	result := toSpotDTO(sp, nil)
	return &result, nil
}

// GetOwnerSpots retrieves all spots listed by an owner.
func (s *SpotService) GetOwnerSpots(ctx context.Context, ownerID uuid.UUID) ([]SpotDTO, error) {
	spots, err := s.spots.FindByOwnerID(ctx, ownerID)
	if err != nil {
		return nil, err
	}

	dtos := make([]SpotDTO, len(spots))
	for i, sp := range spots {
		dtos[i] = toSpotDTO(sp, nil)
	}
	return dtos, nil
}

// ListSpots retrieves all spots with pagination.
func (s *SpotService) ListSpots(ctx context.Context, page, limit int) (*domain.PaginatedResult[SpotDTO], error) {
	spots, total, err := s.spots.ListAll(ctx, page, limit)
	if err != nil {
		return nil, err
	}

	dtos := make([]SpotDTO, len(spots))
	for i, sp := range spots {
		dtos[i] = toSpotDTO(sp, nil)
	}
	result := domain.NewPaginatedResult(dtos, total, page, limit)
	return &result, nil
}

// NearbySpots returns spots within radiusKm of the given position,
// closest first.
func (s *SpotService) NearbySpots(ctx context.Context, lat, lng, radiusKm float64) ([]SpotDTO, error) {
	if radiusKm <= 0 {
		return nil, domain.NewValidationError("radius must be positive")
	}
	center := spotDomain.Coordinate{Latitude: lat, Longitude: lng}
	if !center.Valid() {
		return nil, domain.NewValidationError("coordinate must be a finite latitude/longitude pair")
	}

	spots, _, err := s.spots.ListAll(ctx, 1, nearbyScanLimit)
	if err != nil {
		return nil, err
	}

	var dtos []SpotDTO
	for _, sp := range spots {
		d := haversineDistance(lat, lng, sp.Coordinate().Latitude, sp.Coordinate().Longitude)
		if d <= radiusKm {
			distance := d
			dtos = append(dtos, toSpotDTO(sp, &distance))
		}
	}

	sort.Slice(dtos, func(i, j int) bool {
		return *dtos[i].DistanceKm < *dtos[j].DistanceKm
	})
	return dtos, nil
}

// --- Helpers ---

func (s *SpotService) requireOwnerProfile(ctx context.Context, ownerID uuid.UUID) error {
	if _, err := s.owners.FindByUserID(ctx, ownerID); err != nil {
		if domain.IsNotFound(err) {
			return domain.NewForbiddenError("owner profile registration required")
		}
		return err
	}
	return nil
}

func (s *SpotService) loadOwnedSpot(ctx context.Context, ownerID, spotID uuid.UUID) (*spotDomain.Spot, error) {
	sp, err := s.spots.FindByID(ctx, spotID)
	if err != nil {
		return nil, err
	}
	if sp.OwnerID() != ownerID {
		return nil, domain.NewForbiddenError("spot does not belong to this owner")
	}
	return sp, nil
}

func toSpotDTO(sp *spotDomain.Spot, distanceKm *float64) SpotDTO {
	return SpotDTO{
		ID:                sp.ID(),
		OwnerID:           sp.OwnerID(),
		Title:             sp.Title(),
		Description:       sp.Description(),
		Address:           sp.Address(),
		Latitude:          sp.Coordinate().Latitude,
		Longitude:         sp.Coordinate().Longitude,
		PricePerHourCents: sp.PricePerHourCents(),
		Currency:          sp.Currency(),
		TotalSpots:        sp.TotalSpots(),
		AvailableSpots:    sp.AvailableSpots(),
		RequiresApproval:  sp.RequiresApproval(),
		Features:          sp.Features(),
		ImageURLs:         sp.ImageURLs(),
		DistanceKm:        distanceKm,
		CreatedAt:         sp.CreatedAt(),
	}
}

// haversineDistance calculates the distance between two coordinates in kilometers.
func haversineDistance(lat1, lng1, lat2, lng2 float64) float64 {
	const earthRadiusKm = 6371.0

	dLat := degreesToRadians(lat2 - lat1)
	dLng := degreesToRadians(lng2 - lng1)

	lat1Rad := degreesToRadians(lat1)
	lat2Rad := degreesToRadians(lat2)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Sin(dLng/2)*math.Sin(dLng/2)*math.Cos(lat1Rad)*math.Cos(lat2Rad)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadiusKm * c
}

func degreesToRadians(deg float64) float64 {
	return deg * math.Pi / 180.0
}
