package specification

import "gorm.io/gorm"

// Specification narrows a note or user query. Time-based specifications take
// the instant explicitly so reads and sweeps agree on "now".
type Specification interface {
	Apply(db *gorm.DB) *gorm.DB
}
