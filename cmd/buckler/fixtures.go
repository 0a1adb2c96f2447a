package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"buckler/internal/app/commands"
	"buckler/internal/app/dto"
	catalogapp "buckler/internal/app/handlers/catalog"
)

// catalogFixtures seeds listings and tours through the command bus so
// fixtures go through the same validation as API writes.
type catalogFixtures struct {
	Listings []catalogapp.UpsertListingCommand `json:"listings"`
	Tours    []catalogapp.UpsertTourCommand    `json:"tours"`
}

func loadCatalogFixtures(ctx context.Context, bus commands.Bus, path string, logger *slog.Logger) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			logger.Info("catalog fixtures file not found, skipping", "path", path)
			return nil
		}
		return fmt.Errorf("read fixtures: %w", err)
	}
	var fixtures catalogFixtures
	if err := json.Unmarshal(data, &fixtures); err != nil {
		return fmt.Errorf("decode fixtures: %w", err)
	}
	for _, cmd := range fixtures.Listings {
		if _, err := commands.Dispatch[catalogapp.UpsertListingCommand, *dto.Listing](ctx, bus, cmd); err != nil {
			logger.Error("fixture listing rejected", "listing_id", cmd.ListingID, "error", err)
			continue
		}
		logger.Info("fixture listing imported", "listing_id", cmd.ListingID)
	}
	for _, cmd := range fixtures.Tours {
		if _, err := commands.Dispatch[catalogapp.UpsertTourCommand, *dto.Tour](ctx, bus, cmd); err != nil {
			logger.Error("fixture tour rejected", "tour_id", cmd.TourID, "error", err)
			continue
		}
		logger.Info("fixture tour imported", "tour_id", cmd.TourID)
	}
	return nil
}
