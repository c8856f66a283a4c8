package config

import (
	"fmt"
	"os"
)

type StoryboardConfig struct {
	ApiUrl     string
	ApiKey     string
	Model      string
	SceneCount int
}

func GetStoryboardConfig() (*StoryboardConfig, error) {
	apiUrl := os.Getenv("STORYBOARD_API_URL")
	if apiUrl == "" {
		return nil, fmt.Errorf("STORYBOARD_API_URL must be set")
	}
	apiKey := os.Getenv("STORYBOARD_API_KEY")
	if apiKey == "" {
		return nil, fmt.Errorf("STORYBOARD_API_KEY must be set")
	}
	model := os.Getenv("STORYBOARD_MODEL")
	if model == "" {
		model = "openai/gpt-4o-mini"
	}

	return &StoryboardConfig{
		ApiUrl:     apiUrl,
		ApiKey:     apiKey,
		Model:      model,
		SceneCount: 5,
	}, nil
}
