package app

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/example/taskly/internal/ports/secondary"
)

// KeyIntroductionCompleted is the settings key recording tutorial completion.
const KeyIntroductionCompleted = "introduction_completed"

// SettingsServiceImpl implements the SettingsService interface.
type SettingsServiceImpl struct {
	settingsRepo secondary.SettingsRepository
}

// NewSettingsService creates a new SettingsService.
func NewSettingsService(settingsRepo secondary.SettingsRepository) *SettingsServiceImpl {
	return &SettingsServiceImpl{settingsRepo: settingsRepo}
}

// IntroductionCompleted reports whether the tutorial has been finished.
// An unset or unparsable flag counts as not finished.
func (s *SettingsServiceImpl) IntroductionCompleted(ctx context.Context) (bool, error) {
	value, ok, err := s.settingsRepo.Get(ctx, KeyIntroductionCompleted)
	if err != nil {
		return false, fmt.Errorf("failed to read introduction flag: %w", err)
	}
	if !ok {
		return false, nil
	}
	done, err := strconv.ParseBool(value)
	if err != nil {
		return false, nil
	}
	return done, nil
}

// SetIntroductionCompleted records tutorial completion.
func (s *SettingsServiceImpl) SetIntroductionCompleted(ctx context.Context, done bool) error {
	if err := s.settingsRepo.Set(ctx, KeyIntroductionCompleted, strconv.FormatBool(done)); err != nil {
		return fmt.Errorf("failed to write introduction flag: %w", err)
	}
	return nil
}

// MaintenanceServiceImpl implements the MaintenanceService interface.
type MaintenanceServiceImpl struct {
	maintenanceRepo secondary.MaintenanceRepository
	settingsRepo    secondary.SettingsRepository
	tx              secondary.Transactor
	logger          *slog.Logger
}

// NewMaintenanceService creates a new MaintenanceService.
func NewMaintenanceService(
	maintenanceRepo secondary.MaintenanceRepository,
	settingsRepo secondary.SettingsRepository,
	tx secondary.Transactor,
	logger *slog.Logger,
) *MaintenanceServiceImpl {
	if logger == nil {
		logger = slog.Default()
	}
	return &MaintenanceServiceImpl{
		maintenanceRepo: maintenanceRepo,
		settingsRepo:    settingsRepo,
		tx:              tx,
		logger:          logger,
	}
}

// Clean deletes items and sprints. With tutorialOnly only the tutorial
// partition is cleared and the introduction flag is reset so the tutorial
// can be replayed.
func (s *MaintenanceServiceImpl) Clean(ctx context.Context, tutorialOnly bool) error {
	err := s.tx.WithinTx(ctx, "store.clean", func(ctx context.Context) error {
		if err := s.maintenanceRepo.DeleteAll(ctx, tutorialOnly); err != nil {
			return err
		}
		if tutorialOnly {
			return s.settingsRepo.Delete(ctx, KeyIntroductionCompleted)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to clean store: %w", err)
	}

	s.logger.InfoContext(ctx, "store cleaned", "tutorial_only", tutorialOnly)
	return nil
}
