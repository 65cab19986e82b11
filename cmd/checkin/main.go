// Command checkin submits one attendance check-in from a terminal: it signs
// in, takes the selfie from an image file, reads the position and posts the
// form to the API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"

	"absensi/internal/capture"

	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()

	var (
		api      = flag.String("api", envOr("ABSENSI_API", "http://localhost:8080"), "API base URL")
		nip      = flag.String("nip", os.Getenv("ABSENSI_NIP"), "employee number")
		password = flag.String("password", os.Getenv("ABSENSI_PASSWORD"), "password")
		photo    = flag.String("photo", "", "selfie image file")
		lat      = flag.Float64("lat", 0, "latitude")
		lon      = flag.Float64("lon", 0, "longitude")
		shift    = flag.String("shift", "", "shift")
		area     = flag.String("area", "", "work area")
	)
	flag.Parse()

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	if *nip == "" || *password == "" || *photo == "" || *shift == "" || *area == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := run(ctx, logger, *api, *nip, *password, capture.FileCamera{Path: *photo},
		capture.FixedLocator{Latitude: *lat, Longitude: *lon}, *shift, *area); err != nil {
		logger.Error("check-in failed", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, logger *slog.Logger, api, nip, password string, cam capture.Camera, loc capture.Locator, shift, area string) error {
	client := capture.NewClient(api)

	landing, err := client.Login(ctx, nip, password)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	logger.Info("signed in", "nip", nip, "landing", landing)

	jpeg, err := capture.TakePhoto(ctx, cam)
	if err != nil {
		return err
	}

	pos, err := capture.Locate(ctx, loc)
	if err != nil {
		return err
	}

	receipt, err := client.Submit(ctx, capture.CheckIn{Shift: shift, Area: area, Position: pos, Photo: jpeg})
	if errors.Is(err, capture.ErrAlreadySubmitted) {
		logger.Warn("already checked in today")
		return nil
	}
	if err != nil {
		return err
	}

	logger.Info("checked in", "status", receipt.Status, "date", receipt.Record.Date, "time", receipt.Record.Time)
	return nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
