package booking

import "time"

// Interval represents a reserved [Start, End) window on a place.
type Interval struct {
	ReservationID string
	PlaceID       string
	Start         time.Time
	End           time.Time
}

// Overlaps reports whether the half-open intervals [aStart, aEnd) and
// [bStart, bEnd) intersect. Back-to-back intervals that share a boundary
// instant do not overlap.
func Overlaps(aStart, aEnd, bStart, bEnd time.Time) bool {
	return aStart.Before(bEnd) && bStart.Before(aEnd)
}

// FindConflict scans existing intervals for one that overlaps the candidate
// window, skipping the reservation identified by excludeID (used when
// revalidating an update against the record's own prior interval). It returns
// the id of the first conflicting reservation and whether one was found.
//
// The scan is linear; per-place reservation lists are small. Callers depend
// only on this signature, so an indexed interval structure can replace the
// scan without touching them.
func FindConflict(existing []Interval, start, end time.Time, excludeID string) (string, bool) {
	for _, iv := range existing {
		if excludeID != "" && iv.ReservationID == excludeID {
			continue
		}
		if Overlaps(iv.Start, iv.End, start, end) {
			return iv.ReservationID, true
		}
	}
	return "", false
}
