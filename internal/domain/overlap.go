package domain

import "time"

// RangesOverlap reports whether the closed intervals [aStart, aEnd] and [bStart, bEnd] intersect.
func RangesOverlap(aStart, aEnd, bStart, bEnd time.Time) bool {
	return !aStart.After(bEnd) && !aEnd.Before(bStart)
}

// FindOverlap returns the first existing service whose date range intersects candidate.
// The candidate itself, matched by id, is skipped so that edits do not collide with their
// own stored range.
func FindOverlap(candidate DigitalService, existing []DigitalService) (DigitalService, bool) {
	for _, svc := range existing {
		if candidate.DigitalServiceID != "" && svc.DigitalServiceID == candidate.DigitalServiceID {
			continue
		}
		if RangesOverlap(candidate.ServiceStartDate.Time, candidate.ServiceEndDate.Time, svc.ServiceStartDate.Time, svc.ServiceEndDate.Time) {
			return svc, true
		}
	}
	return DigitalService{}, false
}

// CheckOverlap validates candidate against the customer's existing services and reports
// a conflict as a field error on the start date.
func CheckOverlap(candidate DigitalService, existing []DigitalService) FieldErrors {
	fe := FieldErrors{}
	if conflict, ok := FindOverlap(candidate, existing); ok {
		fe.Add("serviceStartDate", "The service period overlaps an existing service ("+
			conflict.ServiceStartDate.FormValue()+" to "+conflict.ServiceEndDate.FormValue()+").")
	}
	return fe
}
