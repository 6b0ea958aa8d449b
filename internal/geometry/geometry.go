package geometry

import (
	"errors"
	"fmt"

	"github.com/paulmach/orb"
)

// A ring needs at least four positions: three distinct vertices plus the
// closing repeat of the first.
const minRingLen = 4

// Common errors for geometry handling.
var (
	ErrUnsupportedGeometry = errors.New("geometry is not a polygon or multi-polygon")
	ErrUnrepairable        = errors.New("geometry is invalid and could not be repaired")
)

// Normalize converts a decoded geometry into the canonical multi-polygon
// representation. Plain polygons are wrapped; any other geometry type is
// rejected.
func Normalize(geom orb.Geometry) (orb.MultiPolygon, error) {
	switch g := geom.(type) {
	case orb.Polygon:
		return orb.MultiPolygon{g}, nil
	case orb.MultiPolygon:
		return g, nil
	default:
		return nil, fmt.Errorf("%w: got %s", ErrUnsupportedGeometry, geom.GeoJSONType())
	}
}

// Validate checks that every ring of the multi-polygon is closed and carries
// enough positions to enclose an area.
func Validate(mp orb.MultiPolygon) error {
	if len(mp) == 0 {
		return fmt.Errorf("%w: no polygons", ErrUnrepairable)
	}
	for pi, poly := range mp {
		if len(poly) == 0 {
			return fmt.Errorf("%w: polygon %d has no rings", ErrUnrepairable, pi)
		}
		for ri, ring := range poly {
			if len(ring) < minRingLen {
				return fmt.Errorf("%w: polygon %d ring %d has %d positions", ErrUnrepairable, pi, ri, len(ring))
			}
			if !ring.Closed() {
				return fmt.Errorf("%w: polygon %d ring %d is not closed", ErrUnrepairable, pi, ri)
			}
		}
	}
	return nil
}

// Repair attempts to fix an invalid multi-polygon: unclosed rings are closed
// by repeating the first position, and rings or polygons too degenerate to
// enclose an area are dropped. This is the lookup-side equivalent of the
// buffer-by-zero fix applied during ingestion. Returns ErrUnrepairable when
// nothing usable remains.
func Repair(mp orb.MultiPolygon) (orb.MultiPolygon, error) {
	repaired := make(orb.MultiPolygon, 0, len(mp))
	for _, poly := range mp {
		fixed := make(orb.Polygon, 0, len(poly))
		for _, ring := range poly {
			if !ring.Closed() && len(ring) >= minRingLen-1 {
				// Close into a fresh ring: appending in place can write through
				// spare capacity of the caller's backing array.
				closed := make(orb.Ring, len(ring)+1)
				copy(closed, ring)
				closed[len(ring)] = ring[0]
				ring = closed
			}
			if len(ring) < minRingLen {
				continue
			}
			fixed = append(fixed, ring)
		}
		// An interior ring without its exterior is meaningless; only keep
		// polygons whose first (exterior) ring survived.
		if len(fixed) > 0 && len(poly) > 0 && ringSurvived(poly[0], fixed[0]) {
			repaired = append(repaired, fixed)
		}
	}
	if len(repaired) == 0 {
		return nil, ErrUnrepairable
	}
	return repaired, nil
}

func ringSurvived(original, kept orb.Ring) bool {
	if len(kept) == 0 || len(original) == 0 {
		return false
	}
	return kept[0].Equal(original[0])
}

// Sanitize validates a multi-polygon and falls back to Repair when validation
// fails. Both the boundary stores and the ingestion pipeline share this path,
// so a record is either served with usable geometry or discarded consistently.
func Sanitize(mp orb.MultiPolygon) (orb.MultiPolygon, error) {
	if err := Validate(mp); err == nil {
		return mp, nil
	}
	return Repair(mp)
}
