package readings

import "github.com/farmtech/irrigation/pkg/models"

// Event topics published by the readings module.
const (
	TopicReadingCreated = "readings.reading.created"
	TopicReadingUpdated = "readings.reading.updated"
	TopicReadingDeleted = "readings.reading.deleted"
)

// CreatedEvent is the payload of TopicReadingCreated.
type CreatedEvent struct {
	Reading models.SensorReading `json:"reading"`
	Source  string               `json:"source"`
}

// UpdatedEvent is the payload of TopicReadingUpdated.
type UpdatedEvent struct {
	Reading models.SensorReading `json:"reading"`
	Field   Field                `json:"field"`
}

// DeletedEvent is the payload of TopicReadingDeleted.
type DeletedEvent struct {
	ID int64 `json:"id"`
}
