package adapters

import (
	"context"
	"fmt"
	"github.com/dustin/go-humanize"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AcousticModelFiles are the PocketSphinx files rhubarb loads for phonetic recognition.
var AcousticModelFiles = []string{
	"mdef",
	"means",
	"mixture_weights",
	"noisedict",
	"sendump",
	"transition_matrices",
	"variances",
	"feat.params",
}

type ModelDownloader interface {
	Download(ctx context.Context, fileNames []string) error
}

type acousticModelDownloader struct {
	logger   outbound.LoggerPort
	client   *http.Client
	baseURL  string
	modelDir string
	inflight singleflight.Group
}

func NewAcousticModelDownloader(logger outbound.LoggerPort, baseURL string, modelDir string, timeout time.Duration) ModelDownloader {
	return &acousticModelDownloader{
		logger:   logger,
		client:   &http.Client{Timeout: timeout},
		baseURL:  strings.TrimSuffix(baseURL, "/"),
		modelDir: modelDir,
	}
}

// Download fetches every missing file concurrently. Concurrent calls for the same
// file share one transfer, and a file only appears under its final name once complete.
func (d *acousticModelDownloader) Download(ctx context.Context, fileNames []string) error {
	if err := os.MkdirAll(d.modelDir, 0o755); err != nil {
		d.logger.ErrorWithFields(err, "Failed to create acoustic model directory", map[string]interface{}{
			"dir": d.modelDir,
		})
		return err
	}

	g, gCtx := errgroup.WithContext(ctx)
	for _, name := range fileNames {
		fileName := name
		g.Go(func() error {
			_, err, _ := d.inflight.Do(fileName, func() (interface{}, error) {
				return nil, d.downloadFile(gCtx, fileName)
			})
			return err
		})
	}

	return g.Wait()
}

func (d *acousticModelDownloader) downloadFile(ctx context.Context, fileName string) error {
	target := filepath.Join(d.modelDir, fileName)
	if _, err := os.Stat(target); err == nil {
		return nil
	}

	url := d.baseURL + "/" + fileName
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	d.logger.InfoWithFields("Downloading acoustic model file", map[string]interface{}{
		"file": fileName,
		"URL":  url,
	})

	res, err := d.client.Do(req)
	if err != nil {
		d.logger.ErrorWithFields(err, "Failed to download acoustic model file", map[string]interface{}{
			"file": fileName,
		})
		return err
	}
	defer func(Body io.ReadCloser) {
		if err := Body.Close(); err != nil {
			d.logger.Error(err, "Failed to close the response body")
		}
	}(res.Body)

	if res.StatusCode != http.StatusOK {
		return fmt.Errorf("downloading %s: unexpected status %d", fileName, res.StatusCode)
	}

	tmp, err := os.CreateTemp(d.modelDir, fileName+".*.part")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()

	size, err := io.Copy(tmp, res.Body)
	closeErr := tmp.Close()
	if err == nil {
		err = closeErr
	}
	if err == nil {
		err = os.Rename(tmpName, target)
	}
	if err != nil {
		_ = os.Remove(tmpName)
		d.logger.ErrorWithFields(err, "Failed to store acoustic model file", map[string]interface{}{
			"file": fileName,
		})
		return err
	}

	d.logger.InfoWithFields("Downloaded acoustic model file", map[string]interface{}{
		"file": fileName,
		"size": humanize.Bytes(uint64(size)),
	})

	return nil
}
