/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package testmodels holds value-object types for the storagetest catalog.
package testmodels

import (
	"time"

	"github.com/go-openapi/strfmt"
)

// Person is a row of the storagetest person table.
type Person struct {

	// Store-assigned identity, never part of a snapshot.
	UID int64 `column:"uid,omitempty"`

	// Display name.
	// Required: true
	Name string `column:"name"`

	// Age in years.
	Age *int64 `column:"age"`

	// Score.
	Score *float64 `column:"score"`

	// Whether the person is active.
	Active bool `column:"active"`

	// Date of birth.
	// Format: date-time
	Born *time.Time `column:"born"`

	// Contact address.
	// Format: email
	Email strfmt.Email `column:"email,omitempty"`
}

// Team is a row of the storagetest team table.
type Team struct {
	TeamID int64  `column:"team_id,omitempty"`
	Label  string `column:"label"`
}
