package domain

import "time"

// Draft is the persisted snapshot of an in-progress guided intake.
type Draft struct {
	SchemaVersion string
	SavedAt       time.Time
	Form          IntakeForm
}
