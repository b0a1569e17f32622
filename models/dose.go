package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Dose holds the structure for the doses collection in mongo. GenKey is the
// deterministic "capsuleID:date:slot" key backed by a unique index, which is
// what makes schedule generation idempotent. Date and Slot are civil values;
// ScheduledAt is the same moment resolved to a UTC instant in the owning
// capsule's timezone so the sweep can filter server-side. TakenAt is the
// actual-taken instant.
type Dose struct {
	ID                    primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	CapsuleID             primitive.ObjectID `json:"capsuleID" bson:"capsuleID"`
	UserID                string             `json:"userID" bson:"userID"`
	GenKey                string             `json:"genKey" bson:"genKey"`
	Date                  string             `json:"date" bson:"date"`
	Slot                  string             `json:"slot" bson:"slot"`
	Dosage                string             `json:"dosage" bson:"dosage"`
	Status                string             `json:"status" bson:"status"`
	ScheduledAt           primitive.DateTime `json:"scheduledAt" bson:"scheduledAt"`
	SnoozeUntil           string             `json:"snoozeUntil,omitempty" bson:"snoozeUntil,omitempty"`
	SnoozeUntilAt         primitive.DateTime `json:"snoozeUntilAt,omitempty" bson:"snoozeUntilAt,omitempty"`
	TakenAt               primitive.DateTime `json:"takenAt,omitempty" bson:"takenAt,omitempty"`
	Notes                 string             `json:"notes,omitempty" bson:"notes,omitempty"`
	ReminderSentAt        primitive.DateTime `json:"reminderSentAt,omitempty" bson:"reminderSentAt,omitempty"`
	SnoozeReminderSentAt  primitive.DateTime `json:"snoozeReminderSentAt,omitempty" bson:"snoozeReminderSentAt,omitempty"`
	CreatedAt             primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt             primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// DoseUpdatedResponse is returned by the dose transition endpoints. Capsule
// is populated on taken-transitions, where stock and lastTakenAt change.
type DoseUpdatedResponse struct {
	Dose    Dose     `json:"dose"`
	Capsule *Capsule `json:"capsule,omitempty"`
}

// SnoozeRequest is the body for the snooze endpoint
type SnoozeRequest struct {
	Until string `json:"until"`
}

// DoseStatusTotals aggregates dose counts per status for one capsule
type DoseStatusTotals struct {
	Status string `bson:"_id"`
	Count  int64  `bson:"count"`
}
