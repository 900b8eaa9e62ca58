package specification

import "gorm.io/gorm"

// Specification is a composable query fragment. Repositories fold any number
// of them over a base query.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
