package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"prompt-to-video/application/ports/outbound"
	"prompt-to-video/config"
)

type replicatePredictionRequest struct {
	Version string                   `json:"version,omitempty"`
	Input   replicatePredictionInput `json:"input"`
}

type replicatePredictionInput struct {
	Prompt          string   `json:"prompt"`
	Image           string   `json:"image,omitempty"`
	IPAdapterImages []string `json:"ip_adapter_images,omitempty"`
	IPAdapterScale  float64  `json:"ip_adapter_scale,omitempty"`
	AspectRatio     string   `json:"aspect_ratio,omitempty"`
	OutputFormat    string   `json:"output_format,omitempty"`
	OutputQuality   int      `json:"output_quality,omitempty"`
	SafetyTolerance int      `json:"safety_tolerance,omitempty"`
	Duration        int      `json:"duration,omitempty"`
	Resolution      string   `json:"resolution,omitempty"`
}

type replicatePredictionResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Output json.RawMessage `json:"output"`
	Error  *string         `json:"error"`
}

type replicateClient struct {
	ContentFetcher
	logger          outbound.LoggerPort
	replicateConfig *config.ReplicateConfig
}

func NewReplicateClient(contentFetcher ContentFetcher, replicateConfig *config.ReplicateConfig,
	logger outbound.LoggerPort) outbound.PredictionClientPort {
	return &replicateClient{
		ContentFetcher:  contentFetcher,
		logger:          logger,
		replicateConfig: replicateConfig,
	}
}

func (r *replicateClient) CreatePrediction(ctx context.Context, input outbound.PredictionInput) (string, error) {
	req, err := r.createRequest(ctx, input)
	if err != nil {
		r.logger.Error(err, "failed to create the prediction request")
		return "", err
	}

	rawRes, err := r.FetchContent(req)
	if err != nil {
		return "", err
	}

	var prediction replicatePredictionResponse
	if err := json.Unmarshal(rawRes, &prediction); err != nil {
		r.logger.Error(err, "failed to unmarshal the prediction response")
		return "", err
	}
	if prediction.ID == "" {
		return "", fmt.Errorf("provider response carried no prediction id")
	}

	return prediction.ID, nil
}

func (r *replicateClient) GetPrediction(ctx context.Context, id string) (*outbound.PredictionState, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet,
		r.replicateConfig.ApiUrl+"/v1/predictions/"+id, nil)
	if err != nil {
		r.logger.Error(err, "failed to create the status request")
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+r.replicateConfig.ApiToken)

	rawRes, err := r.FetchContent(req)
	if err != nil {
		return nil, err
	}

	var prediction replicatePredictionResponse
	if err := json.Unmarshal(rawRes, &prediction); err != nil {
		r.logger.Error(err, "failed to unmarshal the status response")
		return nil, err
	}

	state := &outbound.PredictionState{
		ID:        prediction.ID,
		Status:    prediction.Status,
		OutputURL: extractOutputURL(prediction.Output),
	}
	if prediction.Error != nil {
		state.ErrorDetail = *prediction.Error
	}

	return state, nil
}

// createRequest picks the endpoint for the model reference: pinned versions
// ("owner/name:hash") go through /v1/predictions with a version field,
// everything else through the model-scoped route.
func (r *replicateClient) createRequest(ctx context.Context, input outbound.PredictionInput) (*http.Request, error) {
	body := replicatePredictionRequest{
		Input: replicatePredictionInput{
			Prompt:          input.Prompt,
			Image:           input.SeedImageURL,
			IPAdapterImages: input.ConditioningImageURLs,
			IPAdapterScale:  input.ConditioningScale,
			AspectRatio:     input.AspectRatio,
			OutputFormat:    input.OutputFormat,
			OutputQuality:   input.OutputQuality,
			SafetyTolerance: input.SafetyTolerance,
			Duration:        input.Duration,
			Resolution:      input.Resolution,
		},
	}

	endpoint := r.replicateConfig.ApiUrl + "/v1/models/" + input.Model + "/predictions"
	if idx := strings.Index(input.Model, ":"); idx >= 0 {
		body.Version = input.Model[idx+1:]
		endpoint = r.replicateConfig.ApiUrl + "/v1/predictions"
	}

	jsonPayload, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewBuffer(jsonPayload))
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+r.replicateConfig.ApiToken)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}

// extractOutputURL handles the two output shapes the provider uses: a single
// URL string or a list of URL strings.
func extractOutputURL(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return single
	}

	var many []string
	if err := json.Unmarshal(raw, &many); err == nil && len(many) > 0 {
		return many[0]
	}

	return ""
}
