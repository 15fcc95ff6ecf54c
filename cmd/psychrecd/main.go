package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	api "github.com/mindline-health/psychrec/internal/api/http"
	"github.com/mindline-health/psychrec/internal/assessment"
	"github.com/mindline-health/psychrec/internal/audit"
	"github.com/mindline-health/psychrec/internal/auth"
	"github.com/mindline-health/psychrec/internal/config"
	"github.com/mindline-health/psychrec/internal/db"
	"github.com/mindline-health/psychrec/internal/dsm5"
	"github.com/mindline-health/psychrec/internal/export"
	"github.com/mindline-health/psychrec/internal/logging"
	"github.com/mindline-health/psychrec/internal/patient"
	"github.com/mindline-health/psychrec/internal/rbac"
	"github.com/mindline-health/psychrec/internal/scale"
)

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	log, err := logging.New(cfg.LogLevel, cfg.Env)
	if err != nil {
		panic(err)
	}
	defer func() { _ = log.Sync() }()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatal("db open failed", zap.Error(err))
	}
	defer dbh.Close()

	catalog, err := scale.NewCatalog()
	if err != nil {
		log.Fatal("scale catalog failed", zap.Error(err))
	}
	dsm5Catalog, err := dsm5.NewCatalog()
	if err != nil {
		log.Fatal("dsm5 catalog failed", zap.Error(err))
	}

	if err := seedAdmin(ctx, dbh, cfg); err != nil {
		log.Fatal("seed admin failed", zap.Error(err))
	}

	patients := patient.NewSQLStore(dbh)
	assessments := assessment.NewSQLStore(dbh, catalog)
	trail := audit.NewRepo(dbh)
	exporter := &export.Exporter{Patients: patients, Assessments: assessments}
	authSvc := auth.NewAuthService(cfg.AuthSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Recoverer)
	r.Use(logging.RequestLogger(log))
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, dbh))
	r.Get("/healthz", api.HealthzHandler())
	r.Get("/readyz", api.ReadyzHandler(dbh))

	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("scale:view")).
			Get("/scales", api.ListScalesHandler(catalog))
		pr.With(rbac.Require("scale:view")).
			Get("/scales/{name}", api.GetScaleHandler(catalog))
		pr.With(rbac.Require("scale:view")).
			Get("/dsm5", api.DSM5Handler(dsm5Catalog))

		pr.With(rbac.Require("patient:edit")).
			Post("/patients", api.CreatePatientHandler(patients, trail))
		pr.With(rbac.Require("patient:view")).
			Get("/patients", api.ListPatientsHandler(patients))
		pr.With(rbac.Require("patient:view")).
			Get("/patients/{patientID}", api.GetPatientHandler(patients))
		pr.With(rbac.Require("patient:edit")).
			Put("/patients/{patientID}", api.UpdatePatientHandler(patients, trail))

		pr.With(rbac.Require("record:edit")).
			Post("/patients/{patientID}/medications", api.AddMedicationHandler(patients))
		pr.With(rbac.Require("record:view")).
			Get("/patients/{patientID}/medications", api.ListMedicationsHandler(patients))
		pr.With(rbac.Require("record:edit")).
			Post("/patients/{patientID}/substance-use", api.AddSubstanceUseHandler(patients))
		pr.With(rbac.Require("record:view")).
			Get("/patients/{patientID}/substance-use", api.ListSubstanceUseHandler(patients))
		pr.With(rbac.Require("record:edit")).
			Post("/patients/{patientID}/lab-results", api.AddLabResultHandler(patients))
		pr.With(rbac.Require("record:view")).
			Get("/patients/{patientID}/lab-results", api.ListLabResultsHandler(patients))
		pr.With(rbac.Require("record:edit")).
			Post("/patients/{patientID}/symptom-assessments", api.AddSymptomAssessmentHandler(patients))
		pr.With(rbac.Require("record:view")).
			Get("/patients/{patientID}/symptom-assessments", api.ListSymptomAssessmentsHandler(patients))

		pr.With(rbac.Require("assessment:create")).
			Post("/assessments", api.StartAssessmentHandler(assessments, trail))
		pr.With(rbac.Require("assessment:save")).
			Post("/assessments/{assessmentID}/responses", api.SaveAssessmentResponsesHandler(assessments))
		pr.With(rbac.Require("assessment:submit")).
			Post("/assessments/{assessmentID}/submit", api.SubmitAssessmentHandler(assessments, trail))
		pr.With(rbac.Require("assessment:view")).
			Get("/assessments", api.ListAssessmentsHandler(assessments))
		pr.With(rbac.Require("assessment:view")).
			Get("/assessments/{assessmentID}", api.GetAssessmentHandler(assessments))
		pr.With(rbac.Require("assessment:delete")).
			Delete("/assessments/{assessmentID}", api.DeleteAssessmentHandler(assessments, trail))

		pr.With(rbac.Require("export:run")).
			Get("/patients/{patientID}/export", api.ExportPatientHandler(exporter, trail))

		pr.With(rbac.Require("users:bulk_upsert")).
			Post("/users/bulk", api.BulkUpsertUsersHandler(dbh))
		pr.With(rbac.Require("users:list")).
			Get("/users", api.ListUsersHandler(dbh))
		pr.With(rbac.Require("user:change_password")).
			Post("/users/change-password", api.ChangePasswordHandler(dbh))

		pr.With(rbac.Require("audit:view")).
			Get("/audit", api.ListAuditHandler(trail))
	})

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: r}

	go func() {
		log.Info("listening", zap.String("addr", cfg.HTTPAddr), zap.String("db", cfg.DBDriver))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server failed", zap.Error(err))
		}
	}()

	stop, cancelStop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancelStop()
	<-stop.Done()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Warn("shutdown", zap.Error(err))
	}
	log.Info("stopped")
}

// seedAdmin guarantees an admin login exists on first boot. The hash comes
// from ADMIN_PASS_HASH; when unset no account is created.
func seedAdmin(ctx context.Context, dbh *sql.DB, cfg config.Config) error {
	if cfg.AdminUser == "" || cfg.AdminPassHash == "" {
		return nil
	}
	var one int
	err := dbh.QueryRowContext(ctx, `SELECT 1 FROM users WHERE username=$1`, cfg.AdminUser).Scan(&one)
	if err == nil {
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return err
	}
	_, err = dbh.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, role, created_at) VALUES ($1,$2,$3,$4,$5)`,
		uuid.NewString(), cfg.AdminUser, cfg.AdminPassHash, "admin", time.Now().Unix())
	return err
}
