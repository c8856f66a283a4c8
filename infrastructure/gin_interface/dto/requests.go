package dto

type GenerateImageRequest struct {
	Prompt             string   `json:"prompt" binding:"required"`
	ProjectID          string   `json:"project_id" binding:"required"`
	SceneIndex         int      `json:"scene_index" binding:"min=0,max=4"`
	SeedImage          string   `json:"seed_image,omitempty"`
	ReferenceImageURLs []string `json:"reference_image_urls,omitempty"`
	ContinuityFrame    string   `json:"continuity_frame,omitempty"`
}

type GenerateVideoRequest struct {
	ImageURL   string `json:"image_url" binding:"required"`
	Prompt     string `json:"prompt" binding:"required"`
	ProjectID  string `json:"project_id" binding:"required"`
	SceneIndex int    `json:"scene_index" binding:"min=0,max=4"`
}

type StitchVideosRequest struct {
	VideoPaths []string `json:"video_paths" binding:"required,min=1"`
	ProjectID  string   `json:"project_id" binding:"required"`
	Upload     bool     `json:"upload,omitempty"`
}

type GenerateRequest struct {
	Prompt             string   `json:"prompt" binding:"required"`
	ReferenceImageURLs []string `json:"reference_image_urls,omitempty"`
	Upload             bool     `json:"upload,omitempty"`
}
