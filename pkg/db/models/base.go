package models

import "github.com/google/uuid"

// assignID fills an unset primary key; ids are generated in Go so every
// dialect behaves the same.
func assignID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
