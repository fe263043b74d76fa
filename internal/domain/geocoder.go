package domain

import "context"

// Geocoder resolves a postal code to coordinates.
type Geocoder interface {
	// Geocode looks up a postal code. found is false when the service
	// answered but knows no such postal code; err covers transport and
	// decoding failures.
	Geocode(ctx context.Context, postalCode string) (geo Geo, found bool, err error)
}
