package model

import (
	"fmt"
	"math"
)

// Coordinate is a point on the earth in float degrees.
type Coordinate struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Validate fails with ErrInvalidArgument for NaN, infinite or out-of-range values.
func (c Coordinate) Validate() error {
	switch {
	case math.IsNaN(c.Latitude) || math.IsInf(c.Latitude, 0):
		return fmt.Errorf("%w: latitude is not finite", ErrInvalidArgument)
	case math.IsNaN(c.Longitude) || math.IsInf(c.Longitude, 0):
		return fmt.Errorf("%w: longitude is not finite", ErrInvalidArgument)
	case c.Latitude < -90 || c.Latitude > 90:
		return fmt.Errorf("%w: latitude %v out of range [-90, 90]", ErrInvalidArgument, c.Latitude)
	case c.Longitude < -180 || c.Longitude > 180:
		return fmt.Errorf("%w: longitude %v out of range [-180, 180]", ErrInvalidArgument, c.Longitude)
	}
	return nil
}
