package specification

import "gorm.io/gorm"

// Specification is a composable query constraint. Repositories apply any
// number of them to a base query before executing it.
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
