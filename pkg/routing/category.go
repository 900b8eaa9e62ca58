package routing

import "fmt"

// Category identifies one downstream capability a query can route to.
// The set is closed; the active prototype catalog is versioned against it.
type Category string

const (
	CategoryOpeningHours    Category = "opening-hours"
	CategoryRoomBooking     Category = "room-booking"
	CategorySubjectMatching Category = "subject-matching"
	CategoryDocumentSearch  Category = "document-search"
	CategoryEquipmentLoan   Category = "equipment-loan"
	CategoryTechSupport     Category = "tech-support"
	CategoryHumanHandoff    Category = "human-handoff"
)

// categoryLabels are the human-readable names used in clarification choices.
var categoryLabels = map[Category]string{
	CategoryOpeningHours:    "Opening hours and schedules",
	CategoryRoomBooking:     "Booking a study room",
	CategorySubjectMatching: "Finding a subject librarian",
	CategoryDocumentSearch:  "Searching the catalog",
	CategoryEquipmentLoan:   "Borrowing a laptop or equipment",
	CategoryTechSupport:     "Campus IT support",
	CategoryHumanHandoff:    "Talking to a librarian",
}

// AllCategories returns the closed enumeration in stable order.
func AllCategories() []Category {
	return []Category{
		CategoryOpeningHours,
		CategoryRoomBooking,
		CategorySubjectMatching,
		CategoryDocumentSearch,
		CategoryEquipmentLoan,
		CategoryTechSupport,
		CategoryHumanHandoff,
	}
}

// ParseCategory validates an id coming from an external boundary
// (route hint, model output, catalog row, config file).
func ParseCategory(id string) (Category, error) {
	c := Category(id)
	if !c.Valid() {
		return "", fmt.Errorf("unknown category: %q", id)
	}
	return c, nil
}

func (c Category) Valid() bool {
	_, ok := categoryLabels[c]
	return ok
}

func (c Category) String() string {
	return string(c)
}

// Label returns the user-facing name for clarification choices.
// Falls back to the raw id so a future category never renders empty.
func (c Category) Label() string {
	if label, ok := categoryLabels[c]; ok {
		return label
	}
	return string(c)
}
