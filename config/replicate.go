package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// ReplicateConfig is the immutable provider configuration injected into the
// submitter, poller and prediction client at construction.
type ReplicateConfig struct {
	ApiUrl   string
	ApiToken string

	ImageModel string
	VideoModel string

	AspectRatio     string
	OutputFormat    string
	OutputQuality   int
	SafetyTolerance int

	VideoDuration   int
	VideoResolution string

	ConditioningScale float64

	MaxSubmitAttempts int
	SubmitBackoff     time.Duration
	RequestTimeout    time.Duration

	ImagePollInterval time.Duration
	ImagePollTimeout  time.Duration
	VideoPollInterval time.Duration
	VideoPollTimeout  time.Duration
	MaxPollAttempts   int
}

func GetReplicateConfig() (*ReplicateConfig, error) {
	apiToken := os.Getenv("REPLICATE_API_TOKEN")
	if apiToken == "" {
		return nil, fmt.Errorf("REPLICATE_API_TOKEN must be set")
	}

	apiUrl := os.Getenv("REPLICATE_API_URL")
	if apiUrl == "" {
		apiUrl = "https://api.replicate.com"
	}

	imageModel := os.Getenv("REPLICATE_IMAGE_MODEL")
	if imageModel == "" {
		imageModel = "black-forest-labs/flux-1.1-pro"
	}

	duration := 5
	if v := os.Getenv("VIDEO_DURATION"); v != "" {
		parsed, err := strconv.Atoi(v)
		if err != nil {
			return nil, fmt.Errorf("failed to parse VIDEO_DURATION: %w", err)
		}
		duration = parsed
	}

	resolution := os.Getenv("VIDEO_RESOLUTION")
	if resolution == "" {
		resolution = "720p"
	}

	return &ReplicateConfig{
		ApiUrl:            apiUrl,
		ApiToken:          apiToken,
		ImageModel:        imageModel,
		VideoModel:        resolveVideoModel(os.Getenv("REPLICATE_VIDEO_MODEL")),
		AspectRatio:       "16:9",
		OutputFormat:      "png",
		OutputQuality:     90,
		SafetyTolerance:   2,
		VideoDuration:     duration,
		VideoResolution:   resolution,
		ConditioningScale: 1.0,
		MaxSubmitAttempts: 3,
		SubmitBackoff:     time.Second,
		RequestTimeout:    30 * time.Second,
		ImagePollInterval: 2 * time.Second,
		ImagePollTimeout:  5 * time.Minute,
		VideoPollInterval: 2 * time.Second,
		VideoPollTimeout:  10 * time.Minute,
		MaxPollAttempts:   300,
	}, nil
}

// resolveVideoModel expands short model aliases to full provider
// identifiers; unrecognized values pass through unchanged.
func resolveVideoModel(envModel string) string {
	if envModel == "" {
		return "wan-video/wan-2.2-i2v-fast"
	}

	switch strings.ToLower(strings.TrimSpace(envModel)) {
	case "wan2.5", "wan-2.5":
		return "wan-video/wan-2.5-i2v-fast:5be8b80ffe74f3d3a731693ddd98e7ee94100a0f4ae704bd58e93565977670f9"
	case "wan2.2", "wan-2.2":
		return "wan-video/wan-2.2-i2v-fast"
	case "veo", "veo-3.1":
		return "google/veo-3.1"
	case "veo-fast", "veo-3.1-fast":
		return "google/veo-3.1-fast"
	case "luma", "ray":
		return "luma/ray"
	default:
		return envModel
	}
}
