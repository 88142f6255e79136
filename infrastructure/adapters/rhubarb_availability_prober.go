package adapters

import (
	"context"
	"fmt"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/domain"
	"golang.org/x/sync/singleflight"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

const rhubarbReleasesURL = "https://github.com/DanielSWolf/rhubarb-lip-sync/releases"

type RhubarbAvailabilityParams struct {
	RhubarbPath  string
	ModelDir     string
	VerifyModels bool
}

type rhubarbAvailabilityProber struct {
	logger     outbound.LoggerPort
	metrics    outbound.PipelineMetricsPort
	downloader ModelDownloader
	params     RhubarbAvailabilityParams

	probeGroup singleflight.Group
	mu         sync.RWMutex
	status     domain.CapabilityStatus
	// generation increments on Invalidate; results of older probes are not cached.
	generation uint64
}

func NewRhubarbAvailabilityProber(logger outbound.LoggerPort, metrics outbound.PipelineMetricsPort,
	downloader ModelDownloader, params RhubarbAvailabilityParams) outbound.CapabilityProberPort {
	return &rhubarbAvailabilityProber{
		logger:     logger,
		metrics:    metrics,
		downloader: downloader,
		params:     params,
	}
}

func (p *rhubarbAvailabilityProber) Probe(ctx context.Context) domain.CapabilityStatus {
	status, generation, ok := p.cached()
	if ok {
		return status
	}

	// The computation outlives any single caller, so it must not inherit a cancellation.
	probeCtx := context.WithoutCancel(ctx)
	key := fmt.Sprintf("probe-%d", generation)
	result, _, _ := p.probeGroup.Do(key, func() (interface{}, error) {
		if status, _, ok := p.cached(); ok {
			return status, nil
		}
		status := p.compute(probeCtx)

		p.mu.Lock()
		if p.generation != generation {
			p.mu.Unlock()
			return status, nil
		}
		p.status = status
		p.mu.Unlock()

		p.metrics.SetCapability(status)
		p.logger.InfoWithFields("Lip sync capability determined", map[string]interface{}{
			"status": status,
		})
		return status, nil
	})

	return result.(domain.CapabilityStatus)
}

func (p *rhubarbAvailabilityProber) Invalidate() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.status = ""
	p.generation++
}

func (p *rhubarbAvailabilityProber) cached() (domain.CapabilityStatus, uint64, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status, p.generation, p.status != ""
}

func (p *rhubarbAvailabilityProber) compute(ctx context.Context) domain.CapabilityStatus {
	info, err := os.Stat(p.params.RhubarbPath)
	if err != nil || info.IsDir() {
		p.logger.WarnWithFields("Rhubarb Lip Sync is not installed, using basic lip sync. "+
			"Download the release for your platform and extract it into the bin directory", map[string]interface{}{
			"expectedPath": p.params.RhubarbPath,
			"releases":     rhubarbReleasesURL,
		})
		return domain.CapabilityBasic
	}
	if runtime.GOOS != "windows" && info.Mode().Perm()&0o111 == 0 {
		p.logger.WarnWithFields("Rhubarb Lip Sync is not executable, using basic lip sync. Run chmod +x on it", map[string]interface{}{
			"path": p.params.RhubarbPath,
		})
		return domain.CapabilityBasic
	}

	if !p.params.VerifyModels {
		return domain.CapabilityFull
	}

	missing := p.missingModelFiles()
	if len(missing) == 0 {
		return domain.CapabilityFull
	}

	p.logger.WarnWithFields("Acoustic model files are missing, downloading", map[string]interface{}{
		"dir":     p.params.ModelDir,
		"missing": missing,
	})
	if err := p.downloader.Download(ctx, missing); err != nil {
		p.logger.Error(err, "Failed to download acoustic model files, using basic lip sync")
		return domain.CapabilityBasic
	}

	if missing := p.missingModelFiles(); len(missing) > 0 {
		p.logger.WarnWithFields("Acoustic model files still missing after download", map[string]interface{}{
			"missing": missing,
		})
		return domain.CapabilityBasic
	}

	return domain.CapabilityFull
}

func (p *rhubarbAvailabilityProber) missingModelFiles() []string {
	var missing []string
	for _, name := range AcousticModelFiles {
		if _, err := os.Stat(filepath.Join(p.params.ModelDir, name)); err != nil {
			missing = append(missing, name)
		}
	}
	return missing
}
