package handlers

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"github.com/morphsync/med-station-api/api"
	"github.com/morphsync/med-station-api/api/scheduler"
	"github.com/morphsync/med-station-api/config"
	"github.com/morphsync/med-station-api/databases"
	"github.com/morphsync/med-station-api/models"
)

// App stores the router and db connection, so it can be reused
type App struct {
	Router    *mux.Router
	Config    config.Config
	Scheduler *scheduler.Scheduler
	dbHelper  databases.DatabaseHelper
}

// New creates a new mux router and all the routes
func (a *App) New() *mux.Router {
	// setup go-guardian for middleware
	m := api.MiddlewareDB{DB: databases.NewUserDatabase(a.dbHelper)}
	m.SetupGoGuardian()

	r := mux.NewRouter()
	r.Use(api.MetricsMiddleware)
	r.Use(api.TimeoutMiddleware(30 * time.Second))

	capDB := databases.NewCapsuleDatabase(a.dbHelper)
	doseDB := databases.NewDoseDatabase(a.dbHelper)
	userDB := databases.NewUserDatabase(a.dbHelper)
	pushDB := databases.NewPushTokenDatabase(a.dbHelper)

	c := Capsule{DB: capDB, DoseDB: doseDB, UDB: userDB, DefaultTimezone: a.Config.DefaultTimezone}
	d := Dose{DB: doseDB, CDB: capDB, UDB: userDB, DefaultTimezone: a.Config.DefaultTimezone}
	i := Insights{DB: capDB, DoseDB: doseDB, UDB: userDB, DefaultTimezone: a.Config.DefaultTimezone}
	u := User{DB: userDB}
	login := Auth{DB: userDB, JWTSecret: a.Config.JWTSecret}
	pt := PushToken{DB: pushDB}

	// healthchex
	r.HandleFunc("/health", healthCheckHandler)

	apiCreate := r.PathPrefix("/api/v1").Subrouter()

	apiCreate.Handle("/auth/token", http.HandlerFunc(m.CreateToken)).Methods("POST")
	apiCreate.Handle("/auth/login", http.HandlerFunc(login.LoginHandler)).Methods("POST")
	apiCreate.Handle("/auth/logout", api.Middleware(http.HandlerFunc(api.RevokeToken))).Methods("DELETE")

	apiCreate.Handle("/user/create-user", http.HandlerFunc(u.UserCreateHandler)).Methods("POST")

	apiCreate.Handle("/capsule", api.Middleware(http.HandlerFunc(c.CreateCapsuleHandler))).Methods("POST")
	apiCreate.Handle("/capsule/{capsule_id}", api.Middleware(http.HandlerFunc(c.CapsuleByIDHandler))).Methods("GET")
	apiCreate.Handle("/capsule/{capsule_id}", api.Middleware(http.HandlerFunc(c.UpdateCapsuleHandler))).Methods("PUT")
	apiCreate.Handle("/capsule/{capsule_id}", api.Middleware(http.HandlerFunc(c.DeleteCapsuleHandler))).Methods("DELETE")
	apiCreate.Handle("/capsules/user/{user_id}", api.Middleware(http.HandlerFunc(c.CapsulesByUserIDHandler))).Methods("GET")
	apiCreate.Handle("/capsules/user/{user_id}/history", api.Middleware(http.HandlerFunc(c.CapsuleHistoryHandler))).Methods("GET")

	apiCreate.Handle("/dose/{dose_id}/taken", api.Middleware(http.HandlerFunc(d.MarkTakenHandler))).Methods("PUT")
	apiCreate.Handle("/dose/{dose_id}/missed", api.Middleware(http.HandlerFunc(d.MarkMissedHandler))).Methods("PUT")
	apiCreate.Handle("/dose/{dose_id}/snooze", api.Middleware(http.HandlerFunc(d.SnoozeDoseHandler))).Methods("PUT")
	apiCreate.Handle("/doses/user/{user_id}", api.Middleware(http.HandlerFunc(d.DosesByUserIDHandler))).Methods("GET")

	apiCreate.Handle("/insights/user/{user_id}/recommendations", api.Middleware(http.HandlerFunc(i.RecommendationsHandler))).Methods("GET")
	apiCreate.Handle("/insights/user/{user_id}/adherence", api.Middleware(http.HandlerFunc(i.AdherenceReportHandler))).Methods("GET")

	apiCreate.Handle("/push/register", api.Middleware(http.HandlerFunc(pt.RegisterPushTokenHandler))).Methods("POST")
	apiCreate.Handle("/push/unregister", api.Middleware(http.HandlerFunc(pt.UnregisterPushTokenHandler))).Methods("DELETE")

	adminOnly := api.RequireRole(a.Config.JWTSecret, models.RoleAdmin)
	apiCreate.Handle("/admin/metrics", adminOnly(http.HandlerFunc(adminMetricsHandler))).Methods("GET")

	return r
}

// Initialize is invoked by main to connect with the database and create a router
func (a *App) Initialize() error {

	client, err := databases.NewClient(&a.Config)
	if err != nil {
		// if we fail to create a new database client, then kill the pod
		zap.S().With(err).Error("failed to create new client")
		return err
	}

	a.dbHelper = databases.NewDatabase(&a.Config, client)
	err = client.Connect()
	if err != nil {
		// if we fail to connect to the database, then kill the pod
		zap.S().With(err).Error("failed to connect to database")
		return err
	}
	zap.S().Info("med-station-api has connected to the database")

	// the unique generation-key index is what makes schedule generation
	// idempotent, so it must exist before the first request
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := databases.NewDoseDatabase(a.dbHelper).EnsureIndexes(ctx); err != nil {
		zap.S().With(err).Error("failed to ensure dose indexes")
		return err
	}

	// initialize api router
	a.initializeRoutes()

	// start the reminder and refill jobs
	a.Scheduler = scheduler.New(&a.Config, a.dbHelper)
	a.Scheduler.Start()

	return nil
}

func (a *App) initializeRoutes() {
	a.Router = a.New()
}

func healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	b, _ := json.Marshal(models.HealthCheckResponse{
		Alive: true,
	})
	_, _ = io.WriteString(w, string(b))
}

func adminMetricsHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	b, err := json.Marshal(api.GetMetrics().Snapshot())
	if err != nil {
		config.ErrorStatus("failed to marshal response", http.StatusInternalServerError, w, err)
		return
	}
	w.WriteHeader(http.StatusOK)
	w.Write(b)
}
