package pipeline

import (
	"math"
	"time"

	"github.com/fleetops/fuel-ingest-service/internal/domain"
)

// LitresTolerance is how far apart two litre readings may be while
// still describing the same purchase. Absorbs extraction rounding
// without masking genuinely distinct same-day fill-ups.
const LitresTolerance = 0.5

// Reconcile decides whether a resolved candidate duplicates an already
// persisted record or an earlier candidate in the same batch. Two
// records are the same real-world purchase when vehicle, date and
// litres (within tolerance) all agree. Checked database-first so a
// persisted match wins over a within-batch one; candidates whose
// vehicle could not be resolved skip duplicate checking entirely since
// identity cannot be established.
func Reconcile(candidate domain.ResolvedCandidate, existing domain.ExistingRecordIndex, priorInBatch []domain.ResolvedCandidate) domain.ReconciledCandidate {
	reconciled := domain.ReconciledCandidate{
		ResolvedCandidate: candidate,
		Duplicate: domain.DuplicateVerdict{
			IsDuplicate: false,
			MatchKind:   domain.MatchNone,
		},
	}

	if candidate.VehicleID == nil {
		return reconciled
	}

	for _, record := range existing {
		if record.VehicleID == *candidate.VehicleID &&
			sameDay(record.Date, candidate.Date) &&
			math.Abs(record.Litres-candidate.Litres) < LitresTolerance {
			reconciled.Duplicate = domain.DuplicateVerdict{
				IsDuplicate:      true,
				MatchKind:        domain.MatchDatabase,
				MatchedRecordRef: record.RecordID,
			}
			return reconciled
		}
	}

	// Earlier candidates are checked in original order so the first
	// occurrence of a repeated row stays canonical
	for _, prior := range priorInBatch {
		if prior.VehicleID == nil {
			continue
		}
		if *prior.VehicleID == *candidate.VehicleID &&
			sameDay(prior.Date, candidate.Date) &&
			math.Abs(prior.Litres-candidate.Litres) < LitresTolerance {
			reconciled.Duplicate = domain.DuplicateVerdict{
				IsDuplicate: true,
				MatchKind:   domain.MatchWithinBatch,
			}
			return reconciled
		}
	}

	return reconciled
}

// sameDay reports whether two timestamps fall on the same calendar day
func sameDay(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}
