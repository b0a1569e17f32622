package handlers

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/morphsync/med-station-api/databases"
	"github.com/morphsync/med-station-api/dosing"
)

// subjectLocation resolves the timezone "today" is computed in for a subject:
// the subject's stored timezone when one is on file, the server default
// otherwise. Unknown subjects and bad zone names fall back rather than fail;
// a listing must not break over a timezone record.
func subjectLocation(ctx context.Context, db databases.UserDatabase, userID, fallback string) *time.Location {
	tz := fallback
	if objectID, err := primitive.ObjectIDFromHex(userID); err == nil {
		if user, err := db.FindOne(ctx, bson.M{"_id": objectID}); err == nil && user.Details.Timezone != "" {
			tz = user.Details.Timezone
		}
	}

	loc, err := dosing.LoadLocation(tz)
	if err != nil {
		zap.S().Warnw("invalid subject timezone, falling back to UTC", "timezone", tz)
		return time.UTC
	}
	return loc
}
