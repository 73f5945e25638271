package cloudinary

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/cloudinary/cloudinary-go/v2"
	"github.com/cloudinary/cloudinary-go/v2/api/uploader"
	"github.com/rs/zerolog"
)

// Config contains credentials required to talk to Cloudinary.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
}

// Service stores documents as raw Cloudinary assets.
type Service struct {
	client *cloudinary.Cloudinary
	folder string
	logger zerolog.Logger
}

// New constructs a Cloudinary service instance.
func New(cfg Config, logger zerolog.Logger) (*Service, error) {
	if cfg.CloudName == "" || cfg.APIKey == "" || cfg.APISecret == "" {
		return nil, fmt.Errorf("cloudinary credentials must be provided")
	}

	cld, err := cloudinary.NewFromParams(cfg.CloudName, cfg.APIKey, cfg.APISecret)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize cloudinary: %w", err)
	}

	return &Service{
		client: cld,
		folder: strings.Trim(cfg.Folder, "/"),
		logger: logger.With().Str("component", "cloudinary").Logger(),
	}, nil
}

// Save uploads the document under name and returns its secure URL and the bytes sent.
func (s *Service) Save(ctx context.Context, name string, reader io.Reader) (string, int64, error) {
	overwrite := false
	params := uploader.UploadParams{
		Folder:       s.folder,
		PublicID:     name,
		ResourceType: "raw",
		Overwrite:    &overwrite,
	}

	counter := &countingReader{reader: reader}
	result, err := s.client.Upload.Upload(ctx, counter, params)
	if err != nil {
		return "", 0, fmt.Errorf("failed to upload asset: %w", err)
	}
	if result.Error.Message != "" {
		return "", 0, fmt.Errorf("failed to upload asset: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", result.PublicID).Int64("bytes", counter.n).Msg("document uploaded to cloudinary")
	return result.SecureURL, counter.n, nil
}

type countingReader struct {
	reader io.Reader
	n      int64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.reader.Read(p)
	c.n += int64(n)
	return n, err
}

// Delete destroys the asset behind a URL returned by Save.
func (s *Service) Delete(ctx context.Context, location string) error {
	publicID := s.publicID(location)
	if publicID == "" {
		return nil
	}

	result, err := s.client.Upload.Destroy(ctx, uploader.DestroyParams{
		PublicID:     publicID,
		ResourceType: "raw",
	})
	if err != nil {
		return fmt.Errorf("failed to delete asset: %w", err)
	}
	if result.Error.Message != "" {
		return fmt.Errorf("failed to delete asset: %s", result.Error.Message)
	}

	s.logger.Info().Str("public_id", publicID).Str("result", result.Result).Msg("document deleted from cloudinary")
	return nil
}

func (s *Service) publicID(location string) string {
	name := path.Base(strings.TrimSpace(location))
	if name == "" || name == "." || name == "/" {
		return ""
	}
	if s.folder == "" {
		return name
	}
	return s.folder + "/" + name
}
