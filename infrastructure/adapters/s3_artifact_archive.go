package adapters

import (
	"context"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/dustin/go-humanize"
	"github.com/dzhechko/pu-3d-avatar/application/ports/outbound"
	"github.com/dzhechko/pu-3d-avatar/config"
	"os"
	"path"
	"path/filepath"
)

type s3ArtifactArchive struct {
	logger   outbound.LoggerPort
	s3Svc    s3iface.S3API
	s3Config *config.S3Config
}

func NewS3ArtifactArchive(logger outbound.LoggerPort, s3Svc s3iface.S3API, s3Config *config.S3Config) outbound.ArtifactArchivePort {
	return &s3ArtifactArchive{
		logger:   logger,
		s3Svc:    s3Svc,
		s3Config: s3Config,
	}
}

// Archive uploads a copy of the artifact; the local file is left for the caller to clean up.
func (s *s3ArtifactArchive) Archive(ctx context.Context, req outbound.ArchiveArtifactRequest) (string, error) {
	itemPath := path.Join(s.s3Config.KeyPrefix, req.RunID, filepath.Base(req.FileName))

	file, err := os.Open(req.FileName)
	if err != nil {
		s.logger.Error(err, "Failed to open artifact file")
		return "", err
	}
	defer func(file *os.File) {
		if err := file.Close(); err != nil {
			s.logger.Error(err, "Failed to close artifact file")
		}
	}(file)

	putInput := &s3.PutObjectInput{
		Bucket: aws.String(s.s3Config.BucketName),
		Key:    aws.String(itemPath),
		Body:   file,
	}

	_, err = s.s3Svc.PutObjectWithContext(ctx, putInput)
	if err != nil {
		s.logger.ErrorWithFields(err, "Failed to upload artifact to S3", map[string]interface{}{
			"key": itemPath,
		})
		return "", err
	}

	fields := map[string]interface{}{
		"bucket": s.s3Config.BucketName,
		"key":    itemPath,
	}
	if info, err := file.Stat(); err == nil {
		fields["size"] = humanize.Bytes(uint64(info.Size()))
	}
	s.logger.InfoWithFields("Archived lip sync artifact", fields)

	return itemPath, nil
}

type noopArtifactArchive struct{}

func NewNoopArtifactArchive() outbound.ArtifactArchivePort {
	return noopArtifactArchive{}
}

func (noopArtifactArchive) Archive(context.Context, outbound.ArchiveArtifactRequest) (string, error) {
	return "", nil
}
