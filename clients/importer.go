package clients

import (
	"context"
	"log"

	"fitbackend/models"
)

// LoggingWorkoutImporter is a stand-in importer used until the workout
// domain wires its own implementation. It logs and reports every activity
// as imported.
type LoggingWorkoutImporter struct{}

// NewLoggingWorkoutImporter creates a new logging workout importer
func NewLoggingWorkoutImporter() *LoggingWorkoutImporter {
	return &LoggingWorkoutImporter{}
}

// ImportActivity logs the activity and reports it as imported
func (i *LoggingWorkoutImporter) ImportActivity(ctx context.Context, userID string, activity models.ProviderActivity) (bool, error) {
	log.Printf("📋 Imported %s activity %s for user %s (%s, %sm)",
		activity.Provider, activity.ExternalID, userID, activity.SportType, activity.DistanceM.String())
	return true, nil
}
