package server

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/medscan/apiserver/config"
	"github.com/medscan/apiserver/internal/classifier"
	"github.com/medscan/apiserver/internal/db"
	"github.com/medscan/apiserver/internal/handlers"
	"github.com/medscan/apiserver/internal/mq"
	"github.com/medscan/apiserver/internal/services"
	"github.com/medscan/apiserver/internal/storage"
	"github.com/medscan/apiserver/internal/store"
	"github.com/rs/zerolog"
)

// Server wraps the HTTP server, router, and shared resources.
type Server struct {
	httpServer *http.Server
	router     *chi.Mux
	db         *sql.DB
	broker     *mq.MQ
}

// New constructs a fully wired Server: database, object storage, broker,
// classifier, services, and routes. It also seeds the admin account when
// configured.
func New(ctx context.Context, cfg config.Config, logger zerolog.Logger) (*Server, error) {
	dbConn, err := db.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}

	objectStorage, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	if err := objectStorage.EnsureBucket(ctx); err != nil {
		_ = dbConn.Close()
		return nil, err
	}

	backend, err := mq.NewBackend(ctx, cfg.Broker)
	if err != nil {
		_ = dbConn.Close()
		return nil, err
	}
	var broker *mq.MQ
	if backend != nil {
		broker = mq.New(backend)
	} else {
		logger.Warn().Msg("no broker configured; domain events disabled")
	}
	events := mq.NewEvents(broker, logger)

	var imageClassifier classifier.Classifier
	if strings.TrimSpace(cfg.Classifier.URL) != "" {
		imageClassifier, err = classifier.NewHTTPClient(cfg.Classifier)
		if err != nil {
			_ = dbConn.Close()
			return nil, err
		}
	} else {
		if cfg.Production() {
			_ = dbConn.Close()
			return nil, errors.New("CLASSIFIER_URL is required in production")
		}
		logger.Warn().Msg("no classifier configured; using static stub")
		imageClassifier = classifier.Static{Result: classifier.Result{Label: "unclassified"}}
	}

	accountRepo := store.NewAccountRepository(dbConn)
	counterRepo := store.NewCounterRepository(dbConn)
	doctorRepo := store.NewDoctorRepository(dbConn)
	diagnosisRepo := store.NewDiagnosisRepository(dbConn)
	reportRepo := store.NewReportRepository(dbConn)
	appointmentRepo := store.NewAppointmentRepository(dbConn)
	paymentRepo := store.NewPaymentRepository(dbConn)
	messageRepo := store.NewMessageRepository(dbConn)

	accountService := services.NewAccountService(accountRepo, counterRepo, doctorRepo, logger)
	doctorService := services.NewDoctorService(doctorRepo, accountRepo, events, logger)
	diagnosisService := services.NewDiagnosisService(diagnosisRepo, objectStorage, imageClassifier, logger)
	reportService := services.NewReportService(reportRepo, diagnosisRepo, accountRepo, doctorRepo, objectStorage, events, logger)
	appointmentService := services.NewAppointmentService(appointmentRepo, accountRepo, events)
	paymentService := services.NewPaymentService(paymentRepo, appointmentRepo, doctorRepo)
	messageService := services.NewMessageService(messageRepo, diagnosisRepo, accountRepo)

	if err := accountService.EnsureAdmin(ctx, cfg.Admin); err != nil {
		_ = dbConn.Close()
		return nil, fmt.Errorf("admin seeding: %w", err)
	}

	jwtSecret := strings.TrimSpace(os.Getenv("JWT_SECRET"))
	if jwtSecret == "" {
		_ = dbConn.Close()
		return nil, errors.New("JWT_SECRET is required")
	}

	authMiddleware := handlers.RequireAuth(jwtSecret)
	production := cfg.Production()

	doctorHandler := handlers.NewDoctorHandler(
		doctorService, accountService, diagnosisService, reportService,
		appointmentService, paymentService, messageService, logger, production,
	)
	patientHandler := handlers.NewPatientHandler(
		accountService, doctorService, diagnosisService, reportService,
		appointmentService, paymentService, messageService, logger, production,
	)
	adminHandler := handlers.NewAdminHandler(doctorService, accountService, logger, production)

	router := chi.NewRouter()
	router.Use(
		middleware.RequestID,
		middleware.RealIP,
		middleware.Recoverer,
		requestLogger(logger),
		middleware.Timeout(60*time.Second),
	)
	router.Get("/healthz", handlers.Healthz)
	router.Route("/auth", func(r chi.Router) {
		handlers.AuthRouter(r, accountService, jwtSecret, logger, production)
	})
	router.Route("/doctors", func(r chi.Router) {
		doctorHandler.DoctorRouter(r, authMiddleware)
	})
	router.Route("/admin", func(r chi.Router) {
		adminHandler.AdminRouter(r, authMiddleware)
	})
	patientHandler.PatientRouter(router, authMiddleware)

	port := cfg.ServerPort
	if port == 0 {
		port = 8080
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return &Server{
		httpServer: httpServer,
		router:     router,
		db:         dbConn,
		broker:     broker,
	}, nil
}

// Router exposes the chi router for route registration.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// Start runs the HTTP server.
func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

// Shutdown attempts a graceful shutdown.
func (s *Server) Shutdown() error {
	if s.db != nil {
		_ = s.db.Close()
	}
	if s.broker != nil {
		_ = s.broker.Close()
	}
	return s.httpServer.Close()
}
