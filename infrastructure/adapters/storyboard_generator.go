package adapters

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"prompt-to-video/application/ports/outbound"
	"prompt-to-video/config"

	"github.com/donovanhide/eventsource"
)

const DoneSignal = "[DONE]"
const MaxStreamRetries = 3

type chatRequest struct {
	Stream   bool          `json:"stream"`
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatChunkBody struct {
	Choices []chatResponseChoice `json:"choices"`
}

type chatResponseChoice struct {
	Index int `json:"index"`
	Delta struct {
		Content string `json:"content"`
	} `json:"delta"`
}

type storyboardGenerator struct {
	logger           outbound.LoggerPort
	storyboardConfig *config.StoryboardConfig
	workerPool       outbound.TaskDispatcher
}

func NewStoryboardGenerator(storyboardConfig *config.StoryboardConfig, workerPool outbound.TaskDispatcher,
	logger outbound.LoggerPort) outbound.StoryboardGeneratorPort {
	return &storyboardGenerator{
		logger:           logger,
		storyboardConfig: storyboardConfig,
		workerPool:       workerPool,
	}
}

// Generate streams storyboard text chunks from the chat completion endpoint.
// The consumer reassembles the chunks and splits them into scenes.
func (s *storyboardGenerator) Generate(ctx context.Context, genReq outbound.GenerateStoryboardRequest) (<-chan string, <-chan error) {
	out := make(chan string)
	errCh := make(chan error)

	retryCount := 0

	newCtx, cancel := context.WithCancel(ctx)

	err := s.workerPool.Submit(func() {
		defer close(out)
		defer close(errCh)
		defer cancel()
		req, err := s.createRequest(newCtx, genReq.Prompt, genReq.SceneCount)
		if err != nil {
			s.logger.Error(err, "failed to create HTTP request for storyboard stream")
			errCh <- err
			return
		}

		stream, err := eventsource.SubscribeWithRequest("", req)
		if err != nil {
			s.logger.Error(err, "failed to subscribe to storyboard stream")
			errCh <- err
			return
		}
		for {
			select {
			case <-newCtx.Done():
				return
			case ev := <-stream.Events:
				if ev.Data() != DoneSignal {
					payload, err := s.extractPayload(ev)
					if err != nil {
						errCh <- err
						cancel()
						return
					}
					out <- payload
				}
				retryCount = 0
			case err := <-stream.Errors:
				if err == io.EOF {
					s.logger.Info("storyboard stream closed")
					return
				} else if retryCount < MaxStreamRetries {
					s.logger.ErrorWithFields(err, "error occurred during streaming, retrying", map[string]interface{}{
						"retry_count": retryCount})
					retryCount++
					continue
				}
				s.logger.Error(err, "error occurred during streaming, max retries reached")
				errCh <- err
				cancel()
				return
			}
		}
	})
	if err != nil {
		s.logger.Error(err, "failed to submit task to worker pool")
		errCh <- err
	}

	return out, errCh
}

func (s *storyboardGenerator) extractPayload(event eventsource.Event) (string, error) {
	var chunkBody chatChunkBody
	err := json.Unmarshal([]byte(event.Data()), &chunkBody)
	if err != nil {
		s.logger.Error(err, "failed to unmarshal event data")
		return "", err
	}
	if len(chunkBody.Choices) == 0 {
		return "", nil
	}

	return chunkBody.Choices[0].Delta.Content, nil
}

func (s *storyboardGenerator) createRequest(ctx context.Context, prompt string, sceneCount int) (*http.Request, error) {
	promptMessage := chatMessage{
		Role: "system",
		Content: fmt.Sprintf("Write a storyboard for a short product video about: %s.\n"+
			"Produce exactly %d scene descriptions, one per line, numbered 1 to %d.\n"+
			"Each description:\n"+
			"- Should describe a single camera shot in one sentence\n"+
			"- Should mention location, lighting and mood\n"+
			"- Should not contain dialogue or on-screen text\n"+
			"Do not output anything besides the numbered lines.", prompt, sceneCount, sceneCount),
	}

	promptReq := chatRequest{
		Stream:   true,
		Model:    s.storyboardConfig.Model,
		Messages: []chatMessage{promptMessage},
	}

	payloadBytes, err := json.Marshal(promptReq)
	if err != nil {
		s.logger.Error(err, "failed to marshal the request body")
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, "POST", s.storyboardConfig.ApiUrl, bytes.NewBuffer(payloadBytes))
	if err != nil {
		s.logger.Error(err, "failed to create the HTTP request")
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+s.storyboardConfig.ApiKey)
	req.Header.Set("Content-Type", "application/json")

	return req, nil
}
