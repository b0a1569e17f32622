package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.uber.org/zap"

	"github.com/morphsync/med-station-api/config"
	"github.com/morphsync/med-station-api/databases"
	"github.com/morphsync/med-station-api/dosing"
	"github.com/morphsync/med-station-api/models"
)

// reminderLeadWindow is how far ahead of a dose's scheduled moment the
// upcoming reminder fires. The trail side of the window is dosing.SweepGrace.
const reminderLeadWindow = 5 * time.Minute

// Scheduler runs the periodic dose reminder and refill jobs
type Scheduler struct {
	cron   *cron.Cron
	DoseDB databases.DoseDatabase
	CDB    databases.CapsuleDatabase
	UDB    databases.UserDatabase
	PTDB   databases.PushTokenDatabase

	sendgridAPIKey  string
	defaultTimezone string
}

// New creates a scheduler over the shared database connection
func New(conf *config.Config, db databases.DatabaseHelper) *Scheduler {
	return &Scheduler{
		cron:            cron.New(cron.WithLocation(time.UTC)),
		DoseDB:          databases.NewDoseDatabase(db),
		CDB:             databases.NewCapsuleDatabase(db),
		UDB:             databases.NewUserDatabase(db),
		PTDB:            databases.NewPushTokenDatabase(db),
		sendgridAPIKey:  conf.SendgridAPIKey,
		defaultTimezone: conf.DefaultTimezone,
	}
}

// Start begins the scheduler with all registered jobs
func (s *Scheduler) Start() {
	// reminder tick every minute
	_, err := s.cron.AddFunc("* * * * *", s.reminderTick)
	if err != nil {
		zap.S().Errorw("failed to register reminder tick", "error", err)
	}

	// refill check daily at 8 AM UTC
	_, err = s.cron.AddFunc("0 8 * * *", s.refillCheck)
	if err != nil {
		zap.S().Errorw("failed to register refill check job", "error", err)
	}

	s.cron.Start()
	zap.S().Info("Dose reminder scheduler started")
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	zap.S().Info("Dose reminder scheduler stopped")
}

// reminderTick pushes reminders for doses inside the lead/trail window,
// reconciles stale doses to missed through the same sweep the read path
// uses, and reminds snoozed doses whose target has arrived
func (s *Scheduler) reminderTick() {
	ctx, cancel := context.WithTimeout(context.Background(), 45*time.Second)
	defer cancel()

	now := time.Now()
	names := map[string]string{}

	due, err := s.DoseDB.FindDueForReminder(ctx, dosing.StaleCutoff(now), now.Add(reminderLeadWindow))
	if err != nil {
		zap.S().Errorw("failed to find doses due for reminder", "error", err)
	}
	for _, dose := range due {
		body := fmt.Sprintf("%s is due at %s", s.capsuleName(ctx, names, dose), dose.Slot)
		s.notify(ctx, dose, "Dose reminder", body)
		if err := s.DoseDB.MarkReminderSent(ctx, dose.ID.Hex(), now, false); err != nil {
			zap.S().Errorw("failed to mark reminder sent", "doseID", dose.ID.Hex(), "error", err)
		}
	}

	missed, err := s.DoseDB.ReconcileStale(ctx, "", dosing.StaleCutoff(now))
	if err != nil {
		zap.S().Errorw("failed to reconcile stale doses", "error", err)
	}
	for _, dose := range missed {
		body := fmt.Sprintf("%s scheduled for %s was missed", s.capsuleName(ctx, names, dose), dose.Slot)
		s.notify(ctx, dose, "Dose missed", body)
	}

	snoozed, err := s.DoseDB.FindSnoozeDue(ctx, now)
	if err != nil {
		zap.S().Errorw("failed to find snoozed doses due", "error", err)
	}
	for _, dose := range snoozed {
		body := fmt.Sprintf("Snoozed dose of %s is now due", s.capsuleName(ctx, names, dose))
		s.notify(ctx, dose, "Snoozed dose", body)
		if err := s.DoseDB.MarkReminderSent(ctx, dose.ID.Hex(), now, true); err != nil {
			zap.S().Errorw("failed to mark snooze reminder sent", "doseID", dose.ID.Hex(), "error", err)
		}
	}

	if len(due)+len(missed)+len(snoozed) > 0 {
		zap.S().Infow("Reminder tick complete",
			"reminders", len(due),
			"reconciledMissed", len(missed),
			"snoozeReminders", len(snoozed),
		)
	}
}

func (s *Scheduler) capsuleName(ctx context.Context, cache map[string]string, dose models.Dose) string {
	key := dose.CapsuleID.Hex()
	if name, ok := cache[key]; ok {
		return name
	}
	name := "Your medication"
	if capsule, err := s.CDB.GetCapsuleByID(ctx, key); err == nil {
		name = capsule.Details.Name
	}
	cache[key] = name
	return name
}

func (s *Scheduler) notify(ctx context.Context, dose models.Dose, title, body string) {
	deviceTokens, err := s.PTDB.FindByUserID(ctx, dose.UserID)
	if err != nil {
		zap.S().Errorw("failed to look up push tokens", "userID", dose.UserID, "error", err)
		return
	}

	tokens := make([]string, 0, len(deviceTokens))
	for _, t := range deviceTokens {
		tokens = append(tokens, t.Token)
	}

	if err := SendExpoPushNotifications(tokens, title, body, map[string]interface{}{
		"doseId":    dose.ID.Hex(),
		"capsuleId": dose.CapsuleID.Hex(),
	}); err != nil {
		zap.S().Errorw("failed to send push notification", "doseID", dose.ID.Hex(), "error", err)
	}
}

// refillCheck emails and pushes a refill alert for every still-active
// capsule whose stock has dropped below the refill threshold
func (s *Scheduler) refillCheck() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	now := time.Now()
	loc, err := dosing.LoadLocation(s.defaultTimezone)
	if err != nil {
		loc = time.UTC
	}

	low, err := s.CDB.FindLowStock(ctx, dosing.LowStockThreshold, dosing.Today(now, loc))
	if err != nil {
		zap.S().Errorw("failed to find low stock capsules", "error", err)
		return
	}
	if len(low) == 0 {
		return
	}

	// one batched token lookup across every affected subject
	userIDs := make([]string, 0, len(low))
	seen := map[string]bool{}
	for _, capsule := range low {
		if !seen[capsule.Details.UserID] {
			seen[capsule.Details.UserID] = true
			userIDs = append(userIDs, capsule.Details.UserID)
		}
	}
	deviceTokens, err := s.PTDB.FindByUserIDs(ctx, userIDs)
	if err != nil {
		zap.S().Errorw("failed to look up push tokens", "error", err)
	}
	tokensByUser := map[string][]string{}
	for _, t := range deviceTokens {
		tokensByUser[t.UserID] = append(tokensByUser[t.UserID], t.Token)
	}

	for _, capsule := range low {
		s.sendRefillAlert(ctx, capsule, tokensByUser[capsule.Details.UserID])
	}

	zap.S().Infow("Refill check complete", "lowStockCapsules", len(low))
}

func (s *Scheduler) sendRefillAlert(ctx context.Context, capsule models.Capsule, tokens []string) {
	email, name := s.getUserEmail(ctx, capsule.Details.UserID)
	if email != "" {
		if err := s.sendRefillEmail(email, name, capsule); err != nil {
			zap.S().Errorw("failed to send refill email",
				"capsuleID", capsule.ID.Hex(), "error", err)
		}
	}

	body := fmt.Sprintf("%s is down to %d pills. Time to request a refill.",
		capsule.Details.Name, capsule.Details.Stock)
	if err := SendExpoPushNotifications(tokens, "Refill needed", body, map[string]interface{}{
		"capsuleId": capsule.ID.Hex(),
	}); err != nil {
		zap.S().Errorw("failed to send refill push", "capsuleID", capsule.ID.Hex(), "error", err)
	}
}

func (s *Scheduler) getUserEmail(ctx context.Context, userID string) (email, name string) {
	objectID, err := primitive.ObjectIDFromHex(userID)
	if err != nil {
		return "", ""
	}
	user, err := s.UDB.FindOne(ctx, bson.M{"_id": objectID})
	if err != nil || user.Details.Email == "" {
		return "", ""
	}
	return user.Details.Email, user.Details.Name
}

func (s *Scheduler) sendRefillEmail(toEmail, toName string, capsule models.Capsule) error {
	from := mail.NewEmail("MorphSync Med-Station", "no-reply@morphsync-medstation.com")
	to := mail.NewEmail(toName, toEmail)
	subject := fmt.Sprintf("Refill needed: %s", capsule.Details.Name)
	plainText := fmt.Sprintf(
		"Hello %s,\n\n%s is down to %d pills. Contact %s to request a refill.\n\nMorphSync Med-Station",
		toName, capsule.Details.Name, capsule.Details.Stock, capsule.Details.Prescriber)
	htmlContent := fmt.Sprintf(
		"<p>Hello %s,</p><p><strong>%s</strong> is down to <strong>%d</strong> pills. Contact %s to request a refill.</p><p>MorphSync Med-Station</p>",
		toName, capsule.Details.Name, capsule.Details.Stock, capsule.Details.Prescriber)

	message := mail.NewSingleEmail(from, subject, to, plainText, htmlContent)
	client := sendgrid.NewSendClient(s.sendgridAPIKey)
	response, err := client.Send(message)
	if err != nil {
		return err
	}
	if response.StatusCode >= 400 {
		zap.S().Errorw("sendgrid returned error status", "status", response.StatusCode, "body", response.Body)
	}
	return nil
}
