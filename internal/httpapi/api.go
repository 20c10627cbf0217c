// Package httpapi exposes the back-office workflow over a JSON HTTP API
// under /api/v1. Every route except login requires the operator bearer
// token.
package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"windykator/internal/clientflags"
	"windykator/internal/logging"
	"windykator/internal/models"
	"windykator/internal/services"
	"windykator/internal/syncer"
)

// TokenIssuer authenticates the operator. *auth.Authenticator satisfies it.
type TokenIssuer interface {
	Login(login, password string) (string, error)
	Verify(token string) (string, error)
}

// FlagManager lists mirrored clients and reads and rewrites client
// workflow flags.
type FlagManager interface {
	ListClients(ctx context.Context) ([]*models.Client, error)
	GetFlags(ctx context.Context, clientID int64) (clientflags.Flags, error)
	SetFlags(ctx context.Context, clientID int64, upd clientflags.Update) (clientflags.Flags, error)
}

// ReminderRunner executes reminder runs and the per-invoice stop switch.
type ReminderRunner interface {
	Run(ctx context.Context, now time.Time, dryRun bool) (*services.ReminderReport, error)
	SetStop(ctx context.Context, invoiceID int64, stop bool) error
}

// LetterManager drives the registered-letter stage.
type LetterManager interface {
	Candidates(ctx context.Context) ([]*services.LetterCandidate, error)
	MarkSent(ctx context.Context, clientID int64, invoiceIDs []int64, date time.Time, doc []byte, contentType string) (string, error)
	MarkIgnored(ctx context.Context, invoiceID int64, now time.Time) error
	Restore(ctx context.Context, invoiceID int64) error
	DocumentURL(ctx context.Context, key string) (string, error)
}

// CollectionsLister reports handoff-ready invoices.
type CollectionsLister interface {
	Candidates(ctx context.Context, now time.Time) ([]*services.CollectionsCandidate, error)
}

// SyncRunner runs a full SaaS-to-mirror sync pass.
type SyncRunner interface {
	Sync(ctx context.Context, now time.Time) (*syncer.Report, error)
}

// API bundles the handlers and their dependencies.
type API struct {
	auth        TokenIssuer
	flags       FlagManager
	reminders   ReminderRunner
	letters     LetterManager
	collections CollectionsLister
	syncer      SyncRunner
	logger      logging.Logger

	// now is a clock seam for tests.
	now func() time.Time
}

// New constructs the API.
func New(auth TokenIssuer, flags FlagManager, reminders ReminderRunner,
	letters LetterManager, collections CollectionsLister, sync SyncRunner,
	logger logging.Logger) *API {
	return &API{
		auth:        auth,
		flags:       flags,
		reminders:   reminders,
		letters:     letters,
		collections: collections,
		syncer:      sync,
		logger:      logger,
		now:         time.Now,
	}
}

// Router builds the full /api/v1 handler with CORS applied.
func (a *API) Router() http.Handler {
	router := mux.NewRouter().PathPrefix("/api/v1").Subrouter()

	router.HandleFunc("/login", a.handleLogin).Methods("POST", "OPTIONS")

	protected := router.NewRoute().Subrouter()
	protected.Use(a.authMiddleware)

	protected.HandleFunc("/sync", a.handleSync).Methods("POST", "OPTIONS")

	protected.HandleFunc("/clients", a.handleListClients).Methods("GET", "OPTIONS")
	protected.HandleFunc("/clients/{id:[0-9]+}/flags", a.handleGetFlags).Methods("GET", "OPTIONS")
	protected.HandleFunc("/clients/{id:[0-9]+}/flags", a.handleSetFlags).Methods("PUT", "OPTIONS")

	protected.HandleFunc("/reminders/run", a.handleReminderRun).Methods("POST", "OPTIONS")
	protected.HandleFunc("/invoices/{id:[0-9]+}/stop", a.handleSetStop).Methods("POST", "OPTIONS")

	protected.HandleFunc("/letters/candidates", a.handleLetterCandidates).Methods("GET", "OPTIONS")
	protected.HandleFunc("/letters/sent", a.handleLetterSent).Methods("POST", "OPTIONS")
	protected.HandleFunc("/letters/document", a.handleLetterDocument).Methods("GET", "OPTIONS")
	protected.HandleFunc("/invoices/{id:[0-9]+}/letter/ignore", a.handleLetterIgnore).Methods("POST", "OPTIONS")
	protected.HandleFunc("/invoices/{id:[0-9]+}/letter/restore", a.handleLetterRestore).Methods("POST", "OPTIONS")

	protected.HandleFunc("/collections/candidates", a.handleCollectionsCandidates).Methods("GET", "OPTIONS")

	mainRouter := mux.NewRouter()
	mainRouter.PathPrefix("/api/v1").Handler(router)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	})
	return c.Handler(mainRouter)
}
