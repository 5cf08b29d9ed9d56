// Copyright (c) 2026 Atelier. All rights reserved.
// Author: tai.buivan.jp@gmail.com

/*
Package uuid provides time-ordered identifiers for catalog assets and zones.

It wraps google/uuid to generate Version 7 values.

  - Sortable: Naturally ordered by creation time (millisecond precision), so
    newest-first listings follow the primary key.
  - Portable: Stored as native 'uuid' in PostgreSQL and as text in SQLite.
*/
package uuid

import "github.com/google/uuid"

// # Generators

// New generates a new UUIDv7 string.
func New() string {
	id, err := uuid.NewV7()

	// entropy failure is an unrecoverable system-level error
	if err != nil {
		panic("uuid: failed to generate UUIDv7: " + err.Error())
	}

	return id.String()
}

