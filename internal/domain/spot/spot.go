package spot

import (
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Parastud/ParkEase/internal/pkg/domain"
)

// Coordinate is a geographic position. Both components are required
// and must be finite.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether the coordinate is finite and within range.
func (c Coordinate) Valid() bool {
	if math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0) {
		return false
	}
	if math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0) {
		return false
	}
	return c.Latitude >= -90 && c.Latitude <= 90 && c.Longitude >= -180 && c.Longitude <= 180
}

// Features are the amenity flags a spot advertises.
type Features struct {
	Security       bool `json:"security"`
	Covered        bool `json:"covered"`
	DisabledAccess bool `json:"disabled_access"`
	EVCharging     bool `json:"ev_charging"`
}

// Spot is the aggregate root for a parking location. The available
// count is never mutated through this aggregate; only the
// AvailabilityLedger changes it, in lockstep with booking transitions.
type Spot struct {
	id                uuid.UUID
	ownerID           uuid.UUID
	title             string
	description       string
	address           string
	coordinate        Coordinate
	pricePerHourCents int64
	currency          string
	totalSpots        int
	availableSpots    int
	requiresApproval  bool
	features          Features
	imageURLs         []string
	version           int64
	createdAt         time.Time
	updatedAt         time.Time
}

// NewSpot creates a new Spot aggregate with full availability.
func NewSpot(
	now time.Time,
	ownerID uuid.UUID,
	title string,
	description string,
	address string,
	coordinate Coordinate,
	pricePerHourCents int64,
	totalSpots int,
	requiresApproval bool,
	features Features,
	imageURLs []string,
) (*Spot, error) {
	if ownerID == uuid.Nil {
		return nil, domain.NewValidationError("owner ID is required")
	}
	if title == "" {
		return nil, domain.NewValidationError("title is required")
	}
	if !coordinate.Valid() {
		return nil, domain.NewValidationError("coordinate must be a finite latitude/longitude pair")
	}
	if pricePerHourCents < 0 {
		return nil, domain.NewValidationError("price per hour cannot be negative")
	}
	if totalSpots <= 0 {
		return nil, domain.NewValidationError("total spots must be positive")
	}

	return &Spot{
		id:                uuid.New(),
		ownerID:           ownerID,
		title:             title,
		description:       description,
		address:           address,
		coordinate:        coordinate,
		pricePerHourCents: pricePerHourCents,
		currency:          domain.CurrencyINR,
		totalSpots:        totalSpots,
		availableSpots:    totalSpots,
		requiresApproval:  requiresApproval,
		features:          features,
		imageURLs:         imageURLs,
		version:           1,
		createdAt:         now,
		updatedAt:         now,
	}, nil
}

// ReconstructSpot rebuilds a Spot from persistence data (no validation).
func ReconstructSpot(
	id uuid.UUID,
	ownerID uuid.UUID,
	title string,
	description string,
	address string,
	coordinate Coordinate,
	pricePerHourCents int64,
	currency string,
	totalSpots int,
	availableSpots int,
	requiresApproval bool,
	features Features,
	imageURLs []string,
	version int64,
	createdAt time.Time,
	updatedAt time.Time,
) *Spot {
	return &Spot{
		id:                id,
		ownerID:           ownerID,
		title:             title,
		description:       description,
		address:           address,
		coordinate:        coordinate,
		pricePerHourCents: pricePerHourCents,
		currency:          currency,
		totalSpots:        totalSpots,
		availableSpots:    availableSpots,
		requiresApproval:  requiresApproval,
		features:          features,
		imageURLs:         imageURLs,
		version:           version,
		createdAt:         createdAt,
		updatedAt:         updatedAt,
	}
}

// ID returns the spot's unique identifier.
func (s *Spot) ID() uuid.UUID { return s.id }

// OwnerID returns the owning user's ID.
func (s *Spot) OwnerID() uuid.UUID { return s.ownerID }

// Title returns the display title.
func (s *Spot) Title() string { return s.title }

// Description returns the description text.
func (s *Spot) Description() string { return s.description }

// Address returns the street address.
func (s *Spot) Address() string { return s.address }

// Coordinate returns the geographic position.
func (s *Spot) Coordinate() Coordinate { return s.coordinate }

// PricePerHourCents returns the hourly price in cents.
func (s *Spot) PricePerHourCents() int64 { return s.pricePerHourCents }

// Currency returns the price currency code.
func (s *Spot) Currency() string { return s.currency }

// TotalSpots returns the fixed capacity.
func (s *Spot) TotalSpots() int { return s.totalSpots }

// AvailableSpots returns the live available count.
func (s *Spot) AvailableSpots() int { return s.availableSpots }

// RequiresApproval reports whether bookings against this spot need
// owner approval before confirmation.
func (s *Spot) RequiresApproval() bool { return s.requiresApproval }

// Features returns the amenity flags.
func (s *Spot) Features() Features { return s.features }

// ImageURLs returns the spot's image references.
func (s *Spot) ImageURLs() []string { return s.imageURLs }

// Version returns the entity version for optimistic locking.
func (s *Spot) Version() int64 { return s.version }

// CreatedAt returns the creation timestamp.
func (s *Spot) CreatedAt() time.Time { return s.createdAt }

// UpdatedAt returns the last-updated timestamp.
func (s *Spot) UpdatedAt() time.Time { return s.updatedAt }

// HasAvailability reports whether at least one unit can be held.
func (s *Spot) HasAvailability() bool { return s.availableSpots > 0 }

// UpdateDetails applies an owner edit. Capacity and availability are
// excluded; capacity changes go through ChangeCapacity.
func (s *Spot) UpdateDetails(
	now time.Time,
	title string,
	description string,
	address string,
	coordinate Coordinate,
	pricePerHourCents int64,
	requiresApproval bool,
	features Features,
	imageURLs []string,
) error {
	if title == "" {
		return domain.NewValidationError("title is required")
	}
	if !coordinate.Valid() {
		return domain.NewValidationError("coordinate must be a finite latitude/longitude pair")
	}
	if pricePerHourCents < 0 {
		return domain.NewValidationError("price per hour cannot be negative")
	}

	s.title = title
	s.description = description
	s.address = address
	s.coordinate = coordinate
	s.pricePerHourCents = pricePerHourCents
	s.requiresApproval = requiresApproval
	s.features = features
	s.imageURLs = imageURLs
	s.updatedAt = now
	return nil
}

// ChangeCapacity resizes the spot, shifting the available count by the
// same delta so held units stay held. The result is clamped to
// 0 <= available <= total.
func (s *Spot) ChangeCapacity(now time.Time, newTotal int) error {
	if newTotal <= 0 {
		return domain.NewValidationError("total spots must be positive")
	}

	delta := newTotal - s.totalSpots
	s.totalSpots = newTotal
	s.availableSpots += delta
	if s.availableSpots < 0 {
		s.availableSpots = 0
	}
	if s.availableSpots > s.totalSpots {
		s.availableSpots = s.totalSpots
	}
	s.updatedAt = now
	return nil
}

// IncrementVersion bumps the version for optimistic locking.
func (s *Spot) IncrementVersion(now time.Time) {
	s.version++
	s.updatedAt = now
}
