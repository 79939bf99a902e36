// Package api implements the REST surface of the application: accounts,
// journaling, the community feed, meeting rooms and the external
// recovery resources. The signaling relay is mounted separately.
package api

import (
	"regexp"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/soberline/soberline/internal/auth"
	"github.com/soberline/soberline/internal/config"
	"github.com/soberline/soberline/internal/meetingguide"
	"github.com/soberline/soberline/internal/metrics"
	"github.com/soberline/soberline/internal/ratelimit"
	"github.com/soberline/soberline/internal/reflection"
	"github.com/soberline/soberline/internal/store"
)

type API struct {
	cfg         config.Config
	store       *store.Store
	tokens      *auth.TokenService
	reflections *reflection.Service
	meetings    *meetingguide.Client
	metrics     *metrics.Metrics
	log         zerolog.Logger
	validate    *validator.Validate

	authLimiter *ratelimit.WindowLimiter
	apiLimiter  *ratelimit.WindowLimiter

	now func() time.Time
}

func New(
	cfg config.Config,
	st *store.Store,
	tokens *auth.TokenService,
	reflections *reflection.Service,
	meetings *meetingguide.Client,
	m *metrics.Metrics,
	log zerolog.Logger,
) *API {
	a := &API{
		cfg:         cfg,
		store:       st,
		tokens:      tokens,
		reflections: reflections,
		meetings:    meetings,
		metrics:     m,
		log:         log,
		validate:    newValidator(),
		authLimiter: ratelimit.NewWindowLimiter(nil, cfg.AuthRateWindow, cfg.AuthRateMax),
		apiLimiter:  ratelimit.NewWindowLimiter(nil, cfg.APIRateWindow, cfg.APIRateMax),
		now:         time.Now,
	}
	return a
}

var (
	usernameRe  = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)
	lowercaseRe = regexp.MustCompile(`[a-z]`)
	uppercaseRe = regexp.MustCompile(`[A-Z]`)
	digitRe     = regexp.MustCompile(`[0-9]`)
)

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
		return usernameRe.MatchString(fl.Field().String())
	})
	_ = v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
		pw := fl.Field().String()
		return len(pw) >= 8 &&
			lowercaseRe.MatchString(pw) &&
			uppercaseRe.MatchString(pw) &&
			digitRe.MatchString(pw)
	})
	return v
}

// Routes builds the router mounted under /api.
func (a *API) Routes() chi.Router {
	r := chi.NewRouter()

	r.Route("/auth", func(r chi.Router) {
		r.Use(a.rateLimit(a.authLimiter))
		r.Post("/register", a.handleRegister)
		r.Post("/login", a.handleLogin)
		r.Post("/refresh", a.handleRefresh)
		r.Post("/logout", a.handleLogout)
	})

	r.Group(func(r chi.Router) {
		r.Use(a.rateLimit(a.apiLimiter))

		// Public resources.
		r.Get("/meeting-rooms", a.handleListRooms)
		r.Get("/meeting-rooms/{roomID}/messages", a.handleListMessages)
		r.Post("/meeting-rooms/{roomID}/voice-call/join", a.handleJoinVoiceCall)
		r.Get("/aa-meetings", a.handleAAMeetings)
		r.Get("/aa-daily-reflection", a.handleDailyReflection)

		// Everything else needs a valid access token.
		r.Group(func(r chi.Router) {
			r.Use(a.requireAuth)

			r.Route("/journal", func(r chi.Router) {
				r.Get("/", a.handleListJournal)
				r.Post("/", a.handleCreateJournalEntry)
				r.Put("/{id}", a.handleUpdateJournalEntry)
				r.Delete("/{id}", a.handleDeleteJournalEntry)
			})

			r.Route("/posts", func(r chi.Router) {
				r.Get("/", a.handleListPosts)
				r.Post("/", a.handleCreatePost)
				r.Post("/{id}/comments", a.handleCreateComment)
			})

			r.Post("/meeting-rooms/{roomID}/messages", a.handleSendMessage)
			r.Get("/meeting-rooms/{roomID}/queue", a.handleListQueue)
			r.Post("/meeting-rooms/{roomID}/queue", a.handleJoinQueue)
			r.Delete("/meeting-rooms/{roomID}/queue/{author}", a.handleLeaveQueue)

			r.Route("/fourth-step", func(r chi.Router) {
				r.Get("/", a.handleListInventory)
				r.Post("/", a.handleCreateInventoryEntry)
				r.Delete("/{id}", a.handleDeleteInventoryEntry)
			})

			r.Get("/sobriety-date", a.handleGetSobrietyDate)
			r.Put("/sobriety-date", a.handleSetSobrietyDate)
		})
	})

	return r
}

func (a *API) timestamp() string {
	return a.now().UTC().Format(time.RFC3339)
}
