package dto

type SubmitJobResponse struct {
	JobID  string `json:"job_id"`
	Status string `json:"status"`
}

type JobStatusResponse struct {
	JobID       string `json:"job_id"`
	Status      string `json:"status"`
	ArtifactURL string `json:"artifact_url,omitempty"`
	Error       string `json:"error,omitempty"`
}

type StitchVideosResponse struct {
	FinalVideoPath string `json:"final_video_path"`
	RemoteURL      string `json:"remote_url,omitempty"`
	RemoteKey      string `json:"remote_key,omitempty"`
}

// ErrorResponse is the classified-error triple every failed call returns.
type ErrorResponse struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	Retryable bool   `json:"retryable"`
}
