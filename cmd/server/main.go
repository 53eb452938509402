package main

import (
	"os"

	"maitred/internal/audit"
	availabilityhandler "maitred/internal/availability/handler"
	availabilityservice "maitred/internal/availability/service"
	reservationhandler "maitred/internal/reservations/handler"
	reservationrepository "maitred/internal/reservations/repository"
	reservationservice "maitred/internal/reservations/service"
	reservationvalidator "maitred/internal/reservations/validator"
	"maitred/internal/sweeper"
	sweephandler "maitred/internal/sweeper/handler"
	tablehandler "maitred/internal/tables/handler"
	tablerepository "maitred/internal/tables/repository"
	tableservice "maitred/internal/tables/service"
	tablevalidator "maitred/internal/tables/validator"
	tenanthandler "maitred/internal/tenants/handler"
	tenantrepository "maitred/internal/tenants/repository"
	tenantservice "maitred/internal/tenants/service"
	tenantvalidator "maitred/internal/tenants/validator"
	"maitred/pkg/app"
	"maitred/pkg/config"
	"maitred/pkg/contracts"
	"maitred/pkg/kafka"
	kafka_config "maitred/pkg/kafka/config"
)

const ServiceName = "server"

const (
	auditTopic    = "maitred.audit"
	auditDLQTopic = "maitred.audit.dlq"
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting reservation platform")

	recorder, producer := initAudit(cfg)
	if producer != nil {
		defer producer.Close()
	}

	services := initServices(cfg, recorder)

	serverApp := app.NewApplication(cfg)
	serverApp.SetApp(
		[]contracts.Handler{
			reservationhandler.NewVoiceWebhookHandler(services.reservations, services.availability, cfg.Log),
		},
		tenanthandler.NewTenantHandler(services.tenants, cfg.Log),
		tablehandler.NewTableHandler(services.tables, cfg.Log),
		reservationhandler.NewReservationHandler(services.reservations, cfg.Log),
		availabilityhandler.NewAvailabilityHandler(services.availability, cfg.Log),
		sweephandler.NewSweepHandler(services.sweeps, cfg.Log),
	)
	serverApp.Run()
}

type platformServices struct {
	tenants      tenantservice.TenantService
	tables       tableservice.TableService
	reservations reservationservice.ReservationService
	availability availabilityservice.AvailabilityService
	sweeps       sweeper.SweepService
}

func initServices(cfg *config.Config, recorder *audit.Recorder) *platformServices {
	tenantRepo := tenantrepository.NewMongoTenantRepository(cfg)
	tableRepo := tablerepository.NewMongoTableRepository(cfg)
	reservationRepo := reservationrepository.NewMongoReservationRepository(cfg)
	lockRepo := reservationrepository.NewReservationLockRepository(cfg)

	tenants := tenantservice.NewTenantService(
		tenantRepo,
		tenantvalidator.NewTenantValidator(cfg.Log),
		cfg,
	)
	tables := tableservice.NewTableService(
		tableRepo,
		tenants,
		tablevalidator.NewTableValidator(),
		cfg,
	)
	reservations := reservationservice.NewReservationService(
		reservationRepo,
		lockRepo,
		reservationvalidator.NewReservationValidator(cfg.Log),
		tenants,
		tables,
		recorder,
		cfg,
	)
	availability := availabilityservice.NewAvailabilityService(
		tenants,
		tableRepo,
		reservationRepo,
		cfg,
	)
	sweeps := sweeper.NewSweepService(tenants, tables, reservations, recorder, cfg)

	cfg.Log.Info("Platform services initialized", "database", cfg.MongoDatabaseName)
	return &platformServices{
		tenants:      tenants,
		tables:       tables,
		reservations: reservations,
		availability: availability,
		sweeps:       sweeps,
	}
}

// initAudit builds the Kafka-backed audit recorder. Without KAFKA_BROKERS
// the recorder runs in log-only mode, so a single-binary deployment needs
// no broker.
func initAudit(cfg *config.Config) (*audit.Recorder, *kafka.Producer) {
	if os.Getenv(kafka_config.EnvKafkaBrokers) == "" {
		cfg.Log.Info("KAFKA_BROKERS not set; audit events will be logged only")
		return audit.NewRecorder(nil, ServiceName, cfg.Log), nil
	}

	kafkaCfg := kafka_config.Load()
	kafkaCfg.LogConfiguration(cfg.Log.Info)

	producer, err := kafka.NewProducer(kafkaCfg, auditTopic, auditDLQTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to create Kafka producer", "error", err)
	}

	cfg.Log.Info("Audit trail enabled", "topic", auditTopic, "dlq_topic", auditDLQTopic)
	return audit.NewRecorder(producer, ServiceName, cfg.Log), producer
}
