package models

import (
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Capsule holds the structure for the capsules collection in mongo
type Capsule struct {
	ID      primitive.ObjectID `json:"_id" bson:"_id,omitempty"`
	Details CapsuleDetails     `json:"capsule" bson:"capsule"`
	Version int32              `json:"__v" bson:"__v"`
}

// CapsuleDetails holds the inner capsule document. Scheduled dates and time
// slots are civil values ("2006-01-02" / "15:04") interpreted in Timezone;
// LastTakenAt is a true instant.
type CapsuleDetails struct {
	UserID       string             `json:"userID" bson:"userID"`
	Name         string             `json:"name" bson:"name"`
	Dosage       string             `json:"dosage" bson:"dosage"`
	DoseUnit     string             `json:"doseUnit" bson:"doseUnit"`
	Frequency    string             `json:"frequency" bson:"frequency"`
	TimeSlots    []string           `json:"timeSlots" bson:"timeSlots"`
	Stock        int                `json:"stock" bson:"stock"`
	PillsPerDose int                `json:"pillsPerDose" bson:"pillsPerDose"`
	Prescriber   string             `json:"prescriber" bson:"prescriber"`
	Condition    string             `json:"condition" bson:"condition"`
	Instructions string             `json:"instructions" bson:"instructions"`
	SideEffects  string             `json:"sideEffects" bson:"sideEffects"`
	StartDate    string             `json:"startDate" bson:"startDate"`
	EndDate      string             `json:"endDate" bson:"endDate"`
	Timezone     string             `json:"timezone" bson:"timezone"`
	RefillDate   string             `json:"refillDate" bson:"refillDate"`
	LastTakenAt  primitive.DateTime `json:"lastTakenAt,omitempty" bson:"lastTakenAt,omitempty"`
	CreatedAt    primitive.DateTime `json:"createdAt" bson:"createdAt"`
	UpdatedAt    primitive.DateTime `json:"updatedAt" bson:"updatedAt"`
}

// CapsuleCreatedResponse is returned after a capsule and its dose schedule
// have been persisted
type CapsuleCreatedResponse struct {
	Capsule   Capsule `json:"capsule"`
	DoseCount int     `json:"doseCount"`
}

// CapsuleWithDoses annotates a capsule with the subset of its dose instances
// scheduled for the current civil date
type CapsuleWithDoses struct {
	Capsule    Capsule `json:"capsule"`
	TodayDoses []Dose  `json:"todayDoses"`
}

// CapsuleHistoryEntry annotates an ended capsule with totals computed over
// its full dose set
type CapsuleHistoryEntry struct {
	Capsule      Capsule `json:"capsule"`
	TakenCount   int64   `json:"takenCount"`
	MissedCount  int64   `json:"missedCount"`
	SkippedCount int64   `json:"skippedCount"`
}
