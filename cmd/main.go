package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"
	_ "time/tzdata"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"

	"github.com/poofware/society-service/internal/app"
	"github.com/poofware/society-service/internal/config"
	"github.com/poofware/society-service/internal/constants"
	"github.com/poofware/society-service/internal/controllers"
	"github.com/poofware/society-service/internal/metrics"
	"github.com/poofware/society-service/internal/routes"
	"github.com/poofware/society-service/internal/services"
	internal_utils "github.com/poofware/society-service/internal/utils"
	"github.com/poofware/society-service/pkg/middleware"
	"github.com/poofware/society-service/pkg/utils"
)

func main() {
	utils.InitLogger(config.AppName)
	cfg := config.LoadConfig()
	defer cfg.Close()

	application, err := app.NewApp(cfg)
	if err != nil {
		utils.Logger.Fatal("Failed to initialize society-service:", err)
	}
	defer application.Close()

	m := metrics.New(prometheus.DefaultRegisterer)

	repo := application.SubmissionRepository()
	allocator := application.SequenceAllocator(repo)
	registry := services.NewNOCTypeRegistry()

	mailer := internal_utils.NewSendgridMailer(
		cfg.SendgridAPIKey,
		cfg.OrganizationName,
		cfg.LDFlag_SendgridFromEmail,
		cfg.LDFlag_SendgridSandboxMode,
	)
	dispatcherOpts := []services.DispatcherOption{
		services.WithAsyncDelivery(cfg.LDFlag_AsyncNotifications),
	}
	if cfg.LDFlag_SendSMSStatusUpdates {
		dispatcherOpts = append(dispatcherOpts, services.WithSMS(
			internal_utils.NewTwilioSMSSender(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromPhone),
		))
	}
	dispatcher := services.NewNotificationDispatcher(mailer, m, cfg.OrganizationName, dispatcherOpts...)

	committee := cfg.Committee.CCList()
	lifecycle := services.NewLifecycleService(repo, dispatcher, registry, m, committee, cfg.LDFlag_SendSMSStatusUpdates)
	acks := services.NewAckNumberService(allocator, cfg.BusinessLocation)
	submissionService := services.NewSubmissionService(repo, registry, acks, lifecycle, m)

	if cfg.LDFlag_DailyDigestEnabled {
		digest := services.NewDigestService(services.NewStatisticsService(repo), dispatcher, committee, cfg.BusinessLocation)
		c, err := digest.Start(constants.DailyDigestCronSpec)
		if err != nil {
			utils.Logger.WithError(err).Fatal("Failed to schedule daily digest cron")
		}
		defer c.Stop()
	}

	submissionsController := controllers.NewSubmissionsController(submissionService)
	staffController := controllers.NewStaffController(submissionService)
	healthController := controllers.NewHealthController(application)

	router := mux.NewRouter()

	// Public
	router.HandleFunc(routes.Health, healthController.HealthCheckHandler).Methods(http.MethodGet)
	router.Handle(routes.Metrics, promhttp.Handler()).Methods(http.MethodGet)
	router.HandleFunc(routes.NOCTypes, submissionsController.NOCTypesHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.SubmissionsTrack, submissionsController.TrackSubmissionHandler).Methods(http.MethodGet)
	router.HandleFunc(routes.SubmissionsCheck, submissionsController.CheckPendingHandler).Methods(http.MethodPost)
	router.HandleFunc(routes.SubmissionsCreate, submissionsController.CreateSubmissionHandler).Methods(http.MethodPost)

	// Staff
	staff := router.NewRoute().Subrouter()
	staff.Use(middleware.StaffAuthMiddleware(cfg.StaffPublicKey))

	staff.HandleFunc(routes.StaffSubmissions, staffController.ListSubmissionsHandler).Methods(http.MethodGet)
	staff.HandleFunc(routes.StaffSubmission, staffController.GetSubmissionHandler).Methods(http.MethodGet)
	staff.HandleFunc(routes.StaffSubmission, staffController.DeleteSubmissionHandler).Methods(http.MethodDelete)
	staff.HandleFunc(routes.StaffSubmissionHistory, staffController.HistoryHandler).Methods(http.MethodGet)
	staff.HandleFunc(routes.StaffEnclosures, staffController.EnclosuresHandler).Methods(http.MethodGet)
	staff.HandleFunc(routes.StaffTransitionStatus, staffController.TransitionStatusHandler).Methods(http.MethodPatch, http.MethodPut)
	staff.HandleFunc(routes.StaffNOCPayment, staffController.UpdatePaymentHandler).Methods(http.MethodPatch, http.MethodPut)
	staff.HandleFunc(routes.StaffStatistics, staffController.StatisticsHandler).Methods(http.MethodGet)
	staff.HandleFunc(routes.StaffKindStatistics, staffController.KindStatisticsHandler).Methods(http.MethodGet)

	allowedOrigins := []string{cfg.AppUrl}
	if !cfg.LDFlag_CORSHighSecurity {
		allowedOrigins = append(allowedOrigins, utils.CORSLowSecurityAllowedOriginLocalhost)
	}

	co := cors.New(cors.Options{
		AllowedOrigins:   allowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	srv := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           co.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		utils.Logger.Infof("Starting %s on port: %s", cfg.AppName, cfg.AppPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			utils.Logger.Fatal("society-service failed to start:", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	utils.Logger.Info("Shutting down society-service")
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		utils.Logger.WithError(err).Error("HTTP server shutdown failed")
	}
	dispatcher.Wait()
	utils.Logger.Info("Pending notifications drained")
}
