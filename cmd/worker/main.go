package main

import (
	"context"
	"log"
	"time"

	"bauflow/internal/pkg/logger"
	"bauflow/internal/platform/config"
	"bauflow/internal/platform/database"
	"bauflow/internal/platform/mailer"
	"bauflow/internal/platform/repositories"
	"bauflow/internal/workers"
)

func main() {
	cfg, err := config.Load("configs/config.yaml")
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logger.Init(cfg.Logging)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	worker := workers.New(
		repositories.NewInvitationRepository(db),
		repositories.NewAppointmentRepository(db),
		repositories.NewEmployeeRepository(db),
		repositories.NewCompanyRepository(db),
		mailer.New(cfg.Email, cfg.Auth),
	)

	log.Println("Starting Bauflow background workers...")

	go runInvitationRetryWorker(worker, cfg.Worker.InvitationRetryInterval)
	go runReminderWorker(worker, cfg.Worker.ReminderInterval, cfg.Worker.ReminderWindow)

	// Keep process alive
	select {}
}

func runInvitationRetryWorker(worker *workers.Worker, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		worker.RetryUnsentInvitationEmails(context.Background())
	}
}

func runReminderWorker(worker *workers.Worker, interval, window time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for range ticker.C {
		worker.SendAppointmentReminders(context.Background(), window)
	}
}
