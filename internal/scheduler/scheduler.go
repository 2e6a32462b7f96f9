// Package scheduler runs the automated provider import on a cron schedule.
package scheduler

import (
	"context"
	"log"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/flexledger/flexledger/internal/service"
)

// autoImportTimeout bounds one scheduled fetch-and-import cycle.
const autoImportTimeout = 15 * time.Minute

// Scheduler triggers automated imports when auto-import is enabled in the
// stored provider configuration. The enabled flag is re-read on every tick
// so config changes take effect without a restart.
type Scheduler struct {
	cron          *cron.Cron
	importService *service.ImportService
	flexConfig    *service.FlexConfigService
}

// New creates a Scheduler that fires on the given cron spec.
func New(spec string, importService *service.ImportService, flexConfig *service.FlexConfigService) (*Scheduler, error) {
	s := &Scheduler{
		cron:          cron.New(),
		importService: importService,
		flexConfig:    flexConfig,
	}

	if _, err := s.cron.AddFunc(spec, s.tick); err != nil {
		return nil, err
	}
	return s, nil
}

// Start begins the cron loop in its own goroutine.
func (s *Scheduler) Start() {
	s.cron.Start()
}

// Stop halts the cron loop and waits for a running job to finish.
func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}

func (s *Scheduler) tick() {
	cfg, err := s.flexConfig.GetConfig()
	if err != nil {
		log.Printf("auto-import: failed to read config: %v", err)
		return
	}
	if !cfg.Configured || !cfg.AutoImportEnabled {
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), autoImportTimeout)
	defer cancel()

	result, err := s.importService.AutoImport(ctx)
	if err != nil {
		log.Printf("auto-import failed: %v", err)
		return
	}
	log.Printf("auto-import completed: %d activities imported, %d failed", result.Imported, len(result.Failed))
}
