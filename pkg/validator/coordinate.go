package validator

import (
	"errors"
	"strconv"
	"strings"

	playground "github.com/go-playground/validator/v10"
)

var (
	// ErrMissingCoordinate indicates lat or lng was not supplied
	ErrMissingCoordinate = errors.New("lat and lng are required")

	// ErrCoordinateFormat indicates lat or lng is not a number
	ErrCoordinateFormat = errors.New("lat and lng must be decimal numbers")

	// ErrLatitudeRange indicates latitude is outside [-90, 90]
	ErrLatitudeRange = errors.New("latitude must be between -90 and 90")

	// ErrLongitudeRange indicates longitude is outside [-180, 180]
	ErrLongitudeRange = errors.New("longitude must be between -180 and 180")
)

// point is validated with the library's latitude/longitude tags
type point struct {
	Lat float64 `validate:"latitude"`
	Lng float64 `validate:"longitude"`
}

// CoordinateValidator handles WGS84 coordinate validation
type CoordinateValidator struct {
	validate *playground.Validate
}

// NewCoordinateValidator creates a new coordinate validator instance
func NewCoordinateValidator() *CoordinateValidator {
	return &CoordinateValidator{validate: playground.New()}
}

// Validate checks that lat/lng are within range
func (v *CoordinateValidator) Validate(lat, lng float64) error {
	err := v.validate.Struct(point{Lat: lat, Lng: lng})
	if err == nil {
		return nil
	}

	var fieldErrs playground.ValidationErrors
	if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 && fieldErrs[0].Field() == "Lng" {
		return ErrLongitudeRange
	}
	return ErrLatitudeRange
}

// ValidatePresent checks a lat/lng pair decoded from a request body, where
// either value may be absent
func (v *CoordinateValidator) ValidatePresent(lat, lng *float64) error {
	if lat == nil || lng == nil {
		return ErrMissingCoordinate
	}
	return v.Validate(*lat, *lng)
}

// Parse converts query string values into a validated lat/lng pair
func (v *CoordinateValidator) Parse(latStr, lngStr string) (float64, float64, error) {
	latStr, lngStr = strings.TrimSpace(latStr), strings.TrimSpace(lngStr)
	if latStr == "" || lngStr == "" {
		return 0, 0, ErrMissingCoordinate
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return 0, 0, ErrCoordinateFormat
	}
	lng, err := strconv.ParseFloat(lngStr, 64)
	if err != nil {
		return 0, 0, ErrCoordinateFormat
	}

	if err := v.Validate(lat, lng); err != nil {
		return 0, 0, err
	}
	return lat, lng, nil
}
