package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cmlabs-hris/hris-attendance-go/internal/config"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/attendance"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/employee"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/leave"
	"github.com/cmlabs-hris/hris-attendance-go/internal/domain/notification"
	appHTTP "github.com/cmlabs-hris/hris-attendance-go/internal/handler/http"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/chat"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/clock"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/cron"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/database"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/jwt"
	"github.com/cmlabs-hris/hris-attendance-go/internal/pkg/sse"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/memory"
	"github.com/cmlabs-hris/hris-attendance-go/internal/repository/postgresql"
	attendanceService "github.com/cmlabs-hris/hris-attendance-go/internal/service/attendance"
	leaveService "github.com/cmlabs-hris/hris-attendance-go/internal/service/leave"
	notificationService "github.com/cmlabs-hris/hris-attendance-go/internal/service/notification"
	reportService "github.com/cmlabs-hris/hris-attendance-go/internal/service/report"
	"github.com/go-chi/httplog/v3"
)

const version = "v1.0.0"

// repositories is the storage a driver provides.
type repositories struct {
	tx            database.Transactor
	attendance    attendance.AttendanceRepository
	leaves        leave.LeaveRequestRepository
	employees     employee.EmployeeRepository
	notifications notification.Repository
	close         func()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Println("Error loading config:", err)
		os.Exit(1)
	}

	logFormat := httplog.SchemaECS.Concise(cfg.App.Env != "production")
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level:       cfg.SlogLevel(),
		ReplaceAttr: logFormat.ReplaceAttr,
	})).With(
		slog.String("app", "hris-attendance"),
		slog.String("version", version),
		slog.String("env", cfg.App.Env),
	)
	slog.SetDefault(logger)

	if err := run(cfg, logger); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run(cfg *config.Config, logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	loc := cfg.App.Timezone
	clk := clock.New(loc)
	policy := attendance.Policy{
		LateAfter:    cfg.Attendance.LateAfter,
		HalfDayHours: cfg.Attendance.HalfDayHours,
	}

	repos, err := openStorage(ctx, cfg, loc)
	if err != nil {
		return err
	}
	defer repos.close()

	hub := sse.NewHub(32)
	notifSvc := notificationService.NewNotificationService(repos.notifications, hub, notificationService.Config{
		BatchSize:     cfg.Notification.BatchSize,
		FlushInterval: cfg.Notification.FlushInterval,
		WorkerCount:   cfg.Notification.Workers,
	})
	defer notifSvc.Stop()
	notifier := notificationService.NewNotifier(notifSvc, repos.employees,
		chat.New(cfg.Notification.SlackBotToken, cfg.Notification.SlackChannelID))
	defer notifier.Wait()

	JWTService := jwt.NewJWTService(cfg.JWT.Secret, cfg.JWT.AccessExpiration)
	attendanceSvc := attendanceService.NewAttendanceService(repos.tx, repos.attendance, clk, policy)
	leaveSvc := leaveService.NewLeaveService(repos.tx, repos.leaves, repos.employees,
		leaveService.NewAttendanceSideEffector(repos.attendance), notifier, clk)
	reportSvc := reportService.NewReportService(repos.attendance, repos.leaves, repos.employees, clk, policy)

	scheduler := cron.NewScheduler(loc)
	jobs := cron.NewAttendanceJobs(repos.tx, repos.attendance, repos.leaves, repos.employees, notifier, clk,
		cron.AttendanceJobsConfig{
			MarkAbsentSpec: cfg.Attendance.MarkAbsentCron,
			SkipWeekends:   cfg.Attendance.SkipWeekends,
		})
	if err := jobs.RegisterJobs(scheduler); err != nil {
		return err
	}
	scheduler.Start()
	defer scheduler.Stop()

	router := appHTTP.NewRouter(
		appHTTP.RouterOptions{
			Logger:         logger,
			LogLevel:       cfg.SlogLevel(),
			AllowedOrigins: cfg.App.AllowedOrigins,
		},
		JWTService,
		appHTTP.NewAttendanceHandler(attendanceSvc, reportSvc),
		appHTTP.NewLeaveHandler(leaveSvc),
		appHTTP.NewReportHandler(reportSvc),
		appHTTP.NewDashboardHandler(reportSvc),
		appHTTP.NewNotificationHandler(notifSvc, notifier),
	)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("server running", "addr", server.Addr, "storage", cfg.App.StorageDriver, "timezone", loc.String())
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	slog.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	// SSE streams never finish on their own; Shutdown gives up on them at the deadline.
	if err := server.Shutdown(shutdownCtx); err != nil {
		slog.Warn("graceful shutdown incomplete", "error", err)
	}
	return nil
}

func openStorage(ctx context.Context, cfg *config.Config, loc *time.Location) (repositories, error) {
	switch cfg.App.StorageDriver {
	case config.StorageDriverMemory:
		store := memory.NewStore(loc)
		if cfg.App.SeedFile != "" {
			n, err := seedEmployees(store, cfg.App.SeedFile)
			if err != nil {
				return repositories{}, err
			}
			slog.Info("memory store seeded", "employees", n)
		} else {
			slog.Warn("memory store has no employees; set MEMORY_SEED_FILE")
		}
		return repositories{
			tx:            store.Transactor(),
			attendance:    store.Attendance(),
			leaves:        store.Leaves(),
			employees:     store.Employees(),
			notifications: store.Notifications(),
			close:         func() {},
		}, nil

	default:
		db, err := database.NewPostgreSQLDB(cfg.DatabaseURL())
		if err != nil {
			return repositories{}, fmt.Errorf("failed to connect to database: %w", err)
		}
		if cfg.App.AutoMigrate {
			if err := postgresql.Migrate(ctx, db); err != nil {
				db.Close()
				return repositories{}, err
			}
		}
		return repositories{
			tx:            postgresql.NewTransactor(db),
			attendance:    postgresql.NewAttendanceRepository(db, loc),
			leaves:        postgresql.NewLeaveRequestRepository(db, loc),
			employees:     postgresql.NewEmployeeRepository(db),
			notifications: postgresql.NewNotificationRepository(db),
			close:         db.Close,
		}, nil
	}
}
