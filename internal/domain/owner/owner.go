package owner

import (
	"time"

	"github.com/google/uuid"

	"github.com/Parastud/ParkEase/internal/pkg/domain"
)

// Profile is the business profile a user registers before listing
// spots. One profile per user; owner-only operations are gated on its
// existence.
type Profile struct {
	userID       uuid.UUID
	businessName string
	address      string
	city         string
	state        string
	postalCode   string
	phoneNumber  string
	taxID        string
	description  string
	verified     bool
	createdAt    time.Time
	updatedAt    time.Time
}

// NewProfile creates a new owner profile for the given user.
func NewProfile(
	now time.Time,
	userID uuid.UUID,
	businessName string,
	address string,
	city string,
	state string,
	postalCode string,
	phoneNumber string,
	taxID string,
	description string,
) (*Profile, error) {
	if userID == uuid.Nil {
		return nil, domain.NewValidationError("user ID is required")
	}
	if businessName == "" {
		return nil, domain.NewValidationError("business name is required")
	}
	if address == "" {
		return nil, domain.NewValidationError("address is required")
	}
	if city == "" {
		return nil, domain.NewValidationError("city is required")
	}
	if state == "" {
		return nil, domain.NewValidationError("state is required")
	}
	if phoneNumber == "" {
		return nil, domain.NewValidationError("phone number is required")
	}

	return &Profile{
		userID:       userID,
		businessName: businessName,
		address:      address,
		city:         city,
		state:        state,
		postalCode:   postalCode,
		phoneNumber:  phoneNumber,
		taxID:        taxID,
		description:  description,
		createdAt:    now,
		updatedAt:    now,
	}, nil
}

// Reconstruct rebuilds a Profile from persistence.
func Reconstruct(
	userID uuid.UUID,
	businessName string,
	address string,
	city string,
	state string,
	postalCode string,
	phoneNumber string,
	taxID string,
	description string,
	verified bool,
	createdAt time.Time,
	updatedAt time.Time,
) *Profile {
	return &Profile{
		userID:       userID,
		businessName: businessName,
		address:      address,
		city:         city,
		state:        state,
		postalCode:   postalCode,
		phoneNumber:  phoneNumber,
		taxID:        taxID,
		description:  description,
		verified:     verified,
		createdAt:    createdAt,
		updatedAt:    updatedAt,
	}
}

// Getters.
func (p *Profile) UserID() uuid.UUID    { return p.userID }
func (p *Profile) BusinessName() string { return p.businessName }
func (p *Profile) Address() string      { return p.address }
func (p *Profile) City() string         { return p.city }
func (p *Profile) State() string        { return p.state }
func (p *Profile) PostalCode() string   { return p.postalCode }
func (p *Profile) PhoneNumber() string  { return p.phoneNumber }
func (p *Profile) TaxID() string        { return p.taxID }
func (p *Profile) Description() string  { return p.description }
func (p *Profile) Verified() bool       { return p.verified }
func (p *Profile) CreatedAt() time.Time { return p.createdAt }
func (p *Profile) UpdatedAt() time.Time { return p.updatedAt }

// UpdateDetails applies an owner edit to the profile.
func (p *Profile) UpdateDetails(
	now time.Time,
	businessName string,
	address string,
	city string,
	state string,
	postalCode string,
	phoneNumber string,
	taxID string,
	description string,
) error {
	if businessName == "" {
		return domain.NewValidationError("business name is required")
	}
	if phoneNumber == "" {
		return domain.NewValidationError("phone number is required")
	}

	p.businessName = businessName
	p.address = address
	p.city = city
	p.state = state
	p.postalCode = postalCode
	p.phoneNumber = phoneNumber
	p.taxID = taxID
	p.description = description
	p.updatedAt = now
	return nil
}

// MarkVerified flags the profile as verified (admin operation).
func (p *Profile) MarkVerified(now time.Time) {
	p.verified = true
	p.updatedAt = now
}
