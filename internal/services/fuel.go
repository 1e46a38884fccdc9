package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"evecorpbot/internal/domain"
	"evecorpbot/internal/render"
)

func (s *pollService) runFuel(ctx context.Context, logger *slog.Logger) (*domain.PollReport, error) {
	st, err := s.State.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bot state: %w", err)
	}
	if st.FuelChannelID == "" {
		return nil, fmt.Errorf("fuel channel unset: %w", domain.ErrNotConfigured)
	}
	userID, pair, ok := st.FirstLinkedUser()
	if !ok {
		return nil, fmt.Errorf("no linked character: %w", domain.ErrNotLinked)
	}

	refreshed, err := s.OAuth.Refresh(ctx, pair.RefreshToken)
	if err != nil {
		return nil, fmt.Errorf("refresh token for %s: %w: %w", userID, domain.ErrRemoteFetchFailed, err)
	}
	refreshed = keepIdentity(refreshed, pair)

	structures, err := s.Structures.FetchStructures(ctx, refreshed.AccessToken)
	if err != nil {
		return nil, fmt.Errorf("fetch structures: %w: %w", domain.ErrRemoteFetchFailed, err)
	}

	now := s.Clock.Now()
	stations := StationSnapshot(structures, now)
	low := LowFuel(stations, s.FuelThreshold)
	report := &domain.PollReport{Kind: domain.PollFuel, Checked: len(stations)}

	var messageID string
	if len(low) > 0 {
		content := render.FuelAlert(low, s.FuelThreshold)
		messageID, err = s.deliverAlert(ctx, logger, st.FuelChannelID, st.FuelAlertMessageID, content)
		if err != nil {
			logger.Error("fuel alert not delivered", "err", err)
		}
		lines := make([]string, len(low))
		for i, station := range low {
			report.Alerting = append(report.Alerting, station.Name)
			lines[i] = fmt.Sprintf("%s: %s remaining", station.Name, render.FuelRemaining(station.FuelRemaining))
		}
		s.mailAlert(ctx, logger, &domain.AlertEmailData{
			Kind:    domain.PollFuel,
			Title:   "Low structure fuel",
			Lines:   lines,
			Content: content,
		})
	} else {
		logger.Info("all structures have sufficient fuel")
	}
	report.MessageID = messageID

	err = s.State.Update(ctx, func(cur *domain.BotState) error {
		if cur.Tokens == nil {
			cur.Tokens = map[string]domain.TokenPair{}
		}
		cur.Tokens[userID] = refreshed
		cur.Stations = stations
		if messageID != "" {
			cur.FuelAlertMessageID = messageID
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save fuel snapshot: %w", err)
	}
	return report, nil
}

// StationSnapshot converts fetched structures into stored station statuses.
// Remaining fuel is clamped at zero and left nil when the expiry is unknown.
func StationSnapshot(structures []domain.CorporationStructure, now time.Time) []domain.StationStatus {
	stations := make([]domain.StationStatus, len(structures))
	for i, cs := range structures {
		station := domain.StationStatus{
			ID:          cs.StructureID,
			Name:        cs.Name,
			FuelExpires: cs.FuelExpires,
			LastChecked: now,
		}
		if cs.FuelExpires != nil {
			remaining := max(cs.FuelExpires.Sub(now), 0)
			station.FuelRemaining = &remaining
		}
		stations[i] = station
	}
	return stations
}

// LowFuel returns the stations with a known remaining duration below threshold.
func LowFuel(stations []domain.StationStatus, threshold time.Duration) []domain.StationStatus {
	var low []domain.StationStatus
	for _, station := range stations {
		if station.FuelRemaining != nil && *station.FuelRemaining < threshold {
			low = append(low, station)
		}
	}
	return low
}

// keepIdentity carries the character identity and link time of the previous
// pair over to a refreshed one when the token endpoint omits them.
func keepIdentity(refreshed, previous domain.TokenPair) domain.TokenPair {
	if refreshed.CharacterID == "" {
		refreshed.CharacterID = previous.CharacterID
	}
	if refreshed.CharacterName == "" {
		refreshed.CharacterName = previous.CharacterName
	}
	if refreshed.RefreshToken == "" {
		refreshed.RefreshToken = previous.RefreshToken
	}
	refreshed.LinkedAt = previous.LinkedAt
	return refreshed
}
