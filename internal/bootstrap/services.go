package bootstrap

import (
	"database/sql"
	"log/slog"

	"github.com/redis/go-redis/v9"

	"github.com/afyacare/hms/config"
	"github.com/afyacare/hms/internal/data"
	"github.com/afyacare/hms/internal/service"
)

// ServiceContainer holds the constructed application services.
type ServiceContainer struct {
	Auth         *service.AuthService
	Admin        *service.UserAdminService
	Patients     *service.PatientService
	Appointments *service.AppointmentService
	Audit        *service.AuditService
	Monitor      *service.SessionMonitor
}

// ServicesConfig contains the dependencies needed to build services.
type ServicesConfig struct {
	Config      config.AppConfig
	DB          *sql.DB
	RedisClient redis.UniversalClient
	Logger      *slog.Logger
}

// BuildServices constructs every application service and wires them together.
func BuildServices(cfg ServicesConfig) (ServiceContainer, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	authParts, err := BuildAuthComponents(cfg.Config, cfg.RedisClient, logger)
	if err != nil {
		return ServiceContainer{}, err
	}

	profiles := data.NewProfileRepo(cfg.DB)
	audit := service.NewAuditService(data.NewAuditRepo(cfg.DB), logger)

	auth := service.NewAuthService(service.AuthServiceOptions{
		Provider: authParts.Provider,
		SSO:      authParts.SSO,
		Sessions: authParts.Sessions,
		Profiles: profiles,
		Roles:    authParts.Roles,
		Audit:    audit,
		Logger:   logger,
	})

	monitor := service.NewSessionMonitor(service.SessionMonitorOptions{
		Sessions:      authParts.Sessions,
		Auth:          auth,
		Logger:        logger,
		CheckInterval: cfg.Config.Session.CheckInterval,
		WarnThreshold: cfg.Config.Session.WarnThreshold,
	})

	return ServiceContainer{
		Auth:         auth,
		Admin:        service.NewUserAdminService(authParts.Provider, profiles, audit, logger),
		Patients:     service.NewPatientService(data.NewPatientRepo(cfg.DB), audit, logger),
		Appointments: service.NewAppointmentService(data.NewAppointmentRepo(cfg.DB), audit, nil, logger),
		Audit:        audit,
		Monitor:      monitor,
	}, nil
}
