package models

import (
	"time"

	"github.com/google/uuid"
)

// ModelSnapshotRecord is a persisted, serialized fulfillment model
type ModelSnapshotRecord struct {
	Version     uuid.UUID `json:"version"`
	TrainedAt   time.Time `json:"trained_at"`
	SampleCount int       `json:"sample_count"`
	Payload     []byte    `json:"-"`
	CreatedAt   time.Time `json:"created_at"`
}
