package config

import (
	"fmt"
	"os"
	"strings"
)

type ServerConfig struct {
	Port string
	// PublicBaseURL is the externally reachable address of this service,
	// used to turn local reference image paths into URLs the provider can
	// fetch.
	PublicBaseURL string
	// ImageDir is the only directory the serve-image endpoint reads from;
	// that endpoint is unauthenticated, so paths outside it are rejected.
	ImageDir string
}

func GetServerConfig() (*ServerConfig, error) {
	port := os.Getenv("PORT")
	if port == "" {
		port = "8080"
	}

	baseURL := os.Getenv("PUBLIC_BASE_URL")
	if baseURL == "" {
		baseURL = "http://localhost:" + port
	}
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		return nil, fmt.Errorf("PUBLIC_BASE_URL must be an absolute http(s) URL")
	}

	imageDir := os.Getenv("IMAGE_DIR")
	if imageDir == "" {
		imageDir = "/tmp"
	}

	return &ServerConfig{
		Port:          port,
		PublicBaseURL: strings.TrimSuffix(baseURL, "/"),
		ImageDir:      strings.TrimSuffix(imageDir, "/"),
	}, nil
}
