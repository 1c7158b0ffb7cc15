package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/devjohxylon/waitlist-api/internal/config"
	"github.com/devjohxylon/waitlist-api/internal/infrastructure/dynamo"
	jwtinfra "github.com/devjohxylon/waitlist-api/internal/infrastructure/jwt"
	s3infra "github.com/devjohxylon/waitlist-api/internal/infrastructure/s3"
	"github.com/devjohxylon/waitlist-api/internal/infrastructure/smtp"
	"github.com/devjohxylon/waitlist-api/internal/infrastructure/sns"
	"github.com/devjohxylon/waitlist-api/internal/pkg/admission"
	transporthttp "github.com/devjohxylon/waitlist-api/internal/transport/http"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, reading from environment")
	}

	cfg := config.Load()

	// Bootstrap DynamoDB tables (creates them if they don't exist).
	dynamoClient := dynamo.NewClient(cfg)
	dynamo.Bootstrap(context.Background(), dynamoClient, cfg.DynamoTables)

	// JWT provider (optional; admin login falls back to key-only auth).
	var jwtProvider *jwtinfra.Provider
	if p, err := jwtinfra.NewProvider(cfg); err == nil {
		jwtProvider = p
	} else {
		log.Printf("WARN: JWT provider not available: %v", err)
	}

	// S3 store for CSV exports.
	s3Client := s3infra.NewClient(cfg)
	s3Store := s3infra.NewStore(s3Client, cfg.S3BucketName)

	// SMTP mailer.
	mailer := smtp.NewMailer(cfg)

	// SNS alert publisher (optional; bulk sends just skip the summary).
	var alerts sns.AlertPublisher
	if p, err := sns.NewPublisher(cfg); err == nil {
		alerts = p
	} else {
		log.Printf("WARN: SNS publisher not available: %v", err)
	}

	deps := &transporthttp.Deps{
		WaitlistRepo: dynamo.NewWaitlistRepo(dynamoClient, cfg.DynamoTables.Waitlist, cfg.DynamoTables.ReferralCodes),
		AdminKeyRepo: dynamo.NewAdminKeyRepo(dynamoClient, cfg.DynamoTables.AdminKeys),
		S3Store:      s3Store,
		Mailer:       mailer,
		Alerts:       alerts,
		JWTProvider:  jwtProvider,
		Gate:         admission.NewGate(cfg.SignupWindow, cfg.SignupMax),
	}

	router := transporthttp.NewRouter(cfg, deps)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.AppPort),
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("Server starting on :%s (env=%s)", cfg.AppPort, cfg.AppEnv)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("Shutting down server...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalf("forced shutdown: %v", err)
	}
	log.Println("Server stopped")
}
