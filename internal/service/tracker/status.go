package tracker

import (
	"fmt"
	"time"

	"github.com/mamadbah2/challans/internal/domain/models"
)

// DueSoonDays is the inclusive horizon within which an unreturned item is due soon.
const DueSoonDays = 3

// StatusOf derives the due state of item as seen on the calendar day of now.
// Cases are evaluated in order; a returned item is always Returned.
func StatusOf(item models.Item, now time.Time) models.ItemStatus {
	if item.ReturnedDate != "" {
		return models.ItemStatus{Status: models.StatusReturned, Label: "Returned on " + item.ReturnedDate}
	}

	daysLeft, ok := DaysLeft(item, now)
	if !ok {
		return models.ItemStatus{Status: models.StatusNoReturnDate, Label: "No return date"}
	}

	switch {
	case daysLeft < 0:
		return models.ItemStatus{Status: models.StatusOverdue, Days: -daysLeft, Label: fmt.Sprintf("Overdue by %s", days(-daysLeft))}
	case daysLeft <= DueSoonDays:
		label := "Due today"
		if daysLeft > 0 {
			label = fmt.Sprintf("Due in %s", days(daysLeft))
		}
		return models.ItemStatus{Status: models.StatusDueSoon, Days: daysLeft, Label: label}
	default:
		return models.ItemStatus{Status: models.StatusPending, Days: daysLeft, Label: fmt.Sprintf("Due in %s", days(daysLeft))}
	}
}

// DaysLeft returns the signed number of calendar days from now until the
// expected return date. ok is false when the date is missing or unparsable.
func DaysLeft(item models.Item, now time.Time) (int, bool) {
	if item.ExpectedReturnDate == "" {
		return 0, false
	}
	expected, err := models.ParseDate(item.ExpectedReturnDate)
	if err != nil {
		return 0, false
	}
	return daysBetween(expected, now), true
}

// daysBetween counts whole calendar days from the date of now to the date of target.
func daysBetween(target, now time.Time) int {
	t := time.Date(target.Year(), target.Month(), target.Day(), 0, 0, 0, 0, time.UTC)
	n := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	return int(t.Sub(n).Hours() / 24)
}

// Summarize computes the per challan counters for items.
//
// DueSoonItems counts 0 < daysLeft <= DueSoonDays while StatusOf uses
// 0 <= daysLeft; items due today land in DueTodayItems instead.
func Summarize(items []models.ReturnableItem, now time.Time) models.GroupSummary {
	var s models.GroupSummary
	s.TotalItems = len(items)

	for _, item := range items {
		if item.ReturnedDate != "" {
			s.ReturnedItems++
			continue
		}
		daysLeft, ok := DaysLeft(item.Item, now)
		if !ok {
			continue
		}
		switch {
		case daysLeft < 0:
			s.OverdueItems++
		case daysLeft == 0:
			s.DueTodayItems++
		case daysLeft <= DueSoonDays:
			s.DueSoonItems++
		}
	}
	s.PendingItems = s.TotalItems - s.ReturnedItems
	s.BoundaryMismatch = s.DueTodayItems > 0

	switch {
	case s.OverdueItems > 0:
		s.Badge = models.BadgeDanger
	case s.DueSoonItems > 0:
		s.Badge = models.BadgeWarning
	default:
		s.Badge = models.BadgeInfo
	}
	return s
}

func days(n int) string {
	if n == 1 {
		return "1 day"
	}
	return fmt.Sprintf("%d days", n)
}
