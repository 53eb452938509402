package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"maitred/internal/audit"
	reservationrepository "maitred/internal/reservations/repository"
	reservationservice "maitred/internal/reservations/service"
	reservationvalidator "maitred/internal/reservations/validator"
	"maitred/internal/sweeper"
	tablerepository "maitred/internal/tables/repository"
	tableservice "maitred/internal/tables/service"
	tablevalidator "maitred/internal/tables/validator"
	tenantrepository "maitred/internal/tenants/repository"
	tenantservice "maitred/internal/tenants/service"
	tenantvalidator "maitred/internal/tenants/validator"
	"maitred/pkg/config"
	"maitred/pkg/kafka"
	kafka_config "maitred/pkg/kafka/config"
)

const ServiceName = "sweeper"

const (
	auditTopic    = "maitred.audit"
	auditDLQTopic = "maitred.audit.dlq"
)

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	recorder, producer := initAudit(cfg)
	if producer != nil {
		defer producer.Close()
	}

	sweeps := initSweeper(cfg, recorder)

	cfg.Log.Info("Starting auto-release sweeper", "interval", cfg.SweepInterval)

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	ticker := time.NewTicker(cfg.SweepInterval)
	defer ticker.Stop()

	runSweep(cfg, sweeps)
	for {
		select {
		case <-ticker.C:
			runSweep(cfg, sweeps)
		case sig := <-shutdown:
			cfg.Log.Info("Shutdown signal received", "signal", sig)
			return
		}
	}
}

func runSweep(cfg *config.Config, sweeps sweeper.SweepService) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.SweepInterval)
	defer cancel()

	report, err := sweeps.Sweep(ctx, "")
	if err != nil {
		cfg.Log.Error("Sweep run failed", "error", err)
		return
	}

	cfg.Log.Info("Sweep run completed",
		"tenants_swept", report.TenantsSwept,
		"tables_checked", report.TablesChecked,
		"tables_released", report.TablesReleased,
		"failures", report.Failures,
	)
}

func initSweeper(cfg *config.Config, recorder *audit.Recorder) sweeper.SweepService {
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

	return sweeper.NewSweepService(tenants, tables, reservations, recorder, cfg)
}

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
