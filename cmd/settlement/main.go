package main

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"gorm.io/gorm"

	"github.com/tair/gym-settlement/internal/settlement"
	"github.com/tair/gym-settlement/internal/settlement/handler"
	"github.com/tair/gym-settlement/internal/settlement/usecase/command"
	"github.com/tair/gym-settlement/kafka"
	"github.com/tair/gym-settlement/pkg/database"
	"github.com/tair/gym-settlement/pkg/logger"
	"github.com/tair/gym-settlement/pkg/tracing"
)

// @title Gym Settlement Service API
// @version 1.0
// @description Session settlement, refunds, credit ledger and shift cash reporting.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
func main() {
	// Initialize logger
	serviceName := getEnv("OTEL_SERVICE_NAME", "settlement-service")
	isDevelopment := getEnv("ENVIRONMENT", "development") == "development"
	logger.Init(serviceName, isDevelopment)

	logger.Logger.Info().
		Str("service", serviceName).
		Str("environment", getEnv("ENVIRONMENT", "development")).
		Msg("Starting settlement service")

	// Initialize tracer
	tp, err := tracing.InitTracer(serviceName)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize tracer")
	} else {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := tracing.Shutdown(ctx, tp); err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to shutdown tracer")
			}
		}()
	}

	// Load database configuration
	dbConfig := database.Config{
		Host:     getEnv("DB_HOST", "localhost"),
		Port:     getEnv("DB_PORT", "5432"),
		User:     getEnv("DB_USER", "postgres"),
		Password: getEnv("DB_PASSWORD", "postgres"),
		DBName:   getEnv("DB_NAME", "settlementdb"),
		SSLMode:  getEnv("DB_SSLMODE", "disable"),
	}

	// Connect to database; migrations run inside the unit of work constructor.
	db, err := database.NewGormConnection(dbConfig)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to connect to database")
	}

	sqlDB, err := db.DB()
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to get database instance")
	}
	defer sqlDB.Close()

	// Kafka publisher is optional; without brokers events are skipped.
	var events command.EventPublisher
	var publisher *kafka.Publisher
	if brokers := getEnv("KAFKA_BROKERS", ""); brokers != "" {
		brokerList := strings.Split(brokers, ",")
		publisher, err = kafka.NewPublisher(brokerList)
		if err != nil {
			logger.Logger.Error().Err(err).Msg("Failed to initialize Kafka publisher, continuing without events")
		} else {
			events = publisher
			defer publisher.Close()
		}

		// Optional event tap: consume the settlement topics and log every
		// event with its trace context, for ops and downstream debugging.
		if group := getEnv("KAFKA_CONSUMER_GROUP", ""); group != "" {
			tap, err := startEventTap(brokerList, group)
			if err != nil {
				logger.Logger.Error().Err(err).Msg("Failed to start event tap, continuing without it")
			} else {
				defer tap.Close()
			}
		}
	}

	// Initialize handler with Wire DI
	settlementHandler, err := settlement.InitializeHandler(db, events)
	if err != nil {
		logger.Logger.Fatal().Err(err).Msg("Failed to initialize handler")
	}

	// Background sweep for sessions whose scheduled end has passed.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	startOverdueSweep(sweepCtx, db, events)

	// Start HTTP server
	httpPort := getEnv("HTTP_PORT", "8084")
	startHTTPServer(settlementHandler, db, httpPort)

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Logger.Info().Msg("Shutting down server...")
}

func startEventTap(brokers []string, group string) (*kafka.Consumer, error) {
	consumer, err := kafka.NewConsumer(brokers, group, []string{
		kafka.TopicPaymentRecorded,
		kafka.TopicAppointmentCompleted,
		kafka.TopicRefundIssued,
	})
	if err != nil {
		return nil, err
	}

	consumer.RegisterHandler(kafka.EventTypePaymentRecorded, func(ctx context.Context, payload []byte) error {
		var e kafka.PaymentRecordedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return err
		}
		logger.Info(ctx).
			Uint("payment_id", e.PaymentID).
			Float64("amount", e.Amount).
			Str("method", e.Method).
			Str("receipt", e.ReceiptNumber).
			Msg("Payment recorded")
		return nil
	})
	consumer.RegisterHandler(kafka.EventTypeAppointmentCompleted, func(ctx context.Context, payload []byte) error {
		var e kafka.AppointmentCompletedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return err
		}
		logger.Info(ctx).
			Uint("appointment_id", e.AppointmentID).
			Float64("session_price", e.SessionPrice).
			Float64("coach_commission", e.CoachCommission).
			Msg("Appointment settled")
		return nil
	})
	consumer.RegisterHandler(kafka.EventTypeRefundIssued, func(ctx context.Context, payload []byte) error {
		var e kafka.RefundIssuedEvent
		if err := json.Unmarshal(payload, &e); err != nil {
			return err
		}
		logger.Info(ctx).
			Uint("refund_id", e.RefundID).
			Uint("payment_id", e.PaymentID).
			Float64("amount", e.Amount).
			Bool("goodwill", e.Goodwill).
			Msg("Refund issued")
		return nil
	})

	if err := consumer.Start(context.Background()); err != nil {
		consumer.Close()
		return nil, err
	}
	return consumer, nil
}

func startOverdueSweep(ctx context.Context, db *gorm.DB, events command.EventPublisher) {
	sweeper, err := settlement.InitializeOverdueSweeper(db, events)
	if err != nil {
		logger.Logger.Error().Err(err).Msg("Failed to initialize overdue sweeper")
		return
	}

	interval := 5 * time.Minute
	if v := os.Getenv("AUTO_COMPLETE_INTERVAL"); v != "" {
		if d, err := time.ParseDuration(v); err == nil && d > 0 {
			interval = d
		}
	}

	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := sweeper.Handle(ctx, command.AutoCompleteOverdueCommand{
					Grace: 15 * time.Minute,
				}); err != nil {
					logger.Logger.Error().Err(err).Msg("Overdue sweep failed")
				}
			}
		}
	}()

	logger.Logger.Info().
		Dur("interval", interval).
		Msg("Overdue appointment sweep scheduled")
}

func startHTTPServer(settlementHandler *handler.SettlementHandler, db *gorm.DB, port string) {
	// Setup router
	router := mux.NewRouter()

	metrics := handler.NewMetrics()
	handler.RegisterMiddlewares(router, handler.DefaultMiddlewareConfig(metrics))

	// Register routes
	settlementHandler.RegisterRoutes(router)

	// Health check endpoint
	settlementHandler.RegisterHealthCheck(router, db)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Swagger UI
	handler.RegisterSwaggerDocs(router, httpSwagger.Handler())

	// CORS middleware
	c := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"*"},
		AllowCredentials: true,
	})

	logger.Logger.Info().
		Str("port", port).
		Str("metrics_endpoint", "/metrics").
		Msg("HTTP server started")

	go func() {
		if err := http.ListenAndServe(":"+port, c.Handler(router)); err != nil {
			logger.Logger.Fatal().Err(err).Msg("Failed to start HTTP server")
		}
	}()
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
