package services

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"evecorpbot/internal/domain"
	"evecorpbot/internal/render"
)

func (s *pollService) runSovereignty(ctx context.Context, logger *slog.Logger) (*domain.PollReport, error) {
	st, err := s.State.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("load bot state: %w", err)
	}
	if st.FuelChannelID == "" {
		return nil, fmt.Errorf("alert channel unset: %w", domain.ErrNotConfigured)
	}
	report := &domain.PollReport{Kind: domain.PollSovereignty}
	if len(st.Systems) == 0 {
		logger.Warn("no systems configured for sovereignty check")
		return report, nil
	}

	feed, err := s.Sovereignty.FetchSovereignty(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch sovereignty: %w: %w", domain.ErrRemoteFetchFailed, err)
	}

	systems := SystemSnapshot(st.Systems, feed, s.Clock.Now())
	report.Checked = len(systems)
	var lines []string
	for _, sys := range systems {
		if sys.ADMLevel != nil && *sys.ADMLevel < s.ADMFloor {
			report.Alerting = append(report.Alerting, sys.Name)
			lines = append(lines, fmt.Sprintf("%s: ADM %s", sys.Name, render.ADM(*sys.ADMLevel)))
		}
	}

	var messageID string
	if len(report.Alerting) > 0 {
		content := render.SovereigntyReport(systems, s.ADMFloor)
		messageID, err = s.deliverAlert(ctx, logger, st.FuelChannelID, st.SovereigntyMessageID, content)
		if err != nil {
			logger.Error("sovereignty alert not delivered", "err", err)
		}
		s.mailAlert(ctx, logger, &domain.AlertEmailData{
			Kind:    domain.PollSovereignty,
			Title:   "Low system ADM",
			Lines:   lines,
			Content: content,
		})
	} else {
		logger.Info("all systems have sufficient ADM")
	}
	report.MessageID = messageID

	err = s.State.Update(ctx, func(cur *domain.BotState) error {
		cur.Systems = systems
		if messageID != "" {
			cur.SovereigntyMessageID = messageID
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("save sovereignty snapshot: %w", err)
	}
	return report, nil
}

// SystemSnapshot recomputes the status of each configured system from the
// sovereignty feed: the highest occupancy level among the system's
// structures, rounded to one decimal.
func SystemSnapshot(configured []domain.SystemStatus, feed []domain.SovereigntyStructure, now time.Time) []domain.SystemStatus {
	out := make([]domain.SystemStatus, len(configured))
	for i, sys := range configured {
		status := domain.SystemStatus{ID: sys.ID, Name: sys.Name, LastChecked: now}
		if status.Name == "" {
			status.Name = fmt.Sprintf("System ID: %d", sys.ID)
		}
		var (
			best  float64
			count int
		)
		for _, st := range feed {
			if st.SolarSystemID != sys.ID {
				continue
			}
			count++
			if st.VulnerabilityOccupancyLevel != nil && *st.VulnerabilityOccupancyLevel > best {
				best = *st.VulnerabilityOccupancyLevel
			}
		}
		if count > 0 {
			level := math.Round(best*10) / 10
			status.ADMLevel = &level
			status.StructuresCount = count
		}
		out[i] = status
	}
	return out
}
