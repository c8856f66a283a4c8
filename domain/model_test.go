package domain

import (
	"errors"
	"sort"
	"testing"
)

func TestNewGenerationRequest(t *testing.T) {
	req, err := NewGenerationRequest("a city street at dusk", 2, "", []string{"https://example.com/ref.png"}, "https://example.com/prev.png")
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if req.SceneIndex != 2 {
		t.Errorf("scene index = %d, want 2", req.SceneIndex)
	}
	if req.ContinuityFrameURL == "" {
		t.Error("continuity frame must survive construction")
	}
}

func TestNewGenerationRequest_Invalid(t *testing.T) {
	cases := []struct {
		name            string
		prompt          string
		sceneIndex      int
		seedImage       string
		references      []string
		continuityFrame string
	}{
		{name: "empty prompt", prompt: "", sceneIndex: 0},
		{name: "index below range", prompt: "p", sceneIndex: -1},
		{name: "index above range", prompt: "p", sceneIndex: 5},
		{name: "seed and references together", prompt: "p", sceneIndex: 1,
			seedImage: "https://example.com/seed.png", references: []string{"https://example.com/ref.png"}},
		{name: "continuity frame on initial scene", prompt: "p", sceneIndex: 0,
			continuityFrame: "https://example.com/prev.png"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := NewGenerationRequest(tc.prompt, tc.sceneIndex, tc.seedImage, tc.references, tc.continuityFrame)
			if err == nil {
				t.Fatal("expected an error")
			}
			var validation *ValidationError
			if !errors.As(err, &validation) {
				t.Errorf("error type = %T, want *ValidationError", err)
			}
		})
	}
}

func TestNewConditioningSet_ScaleBounds(t *testing.T) {
	for _, scale := range []float64{0.0, 0.5, 1.0} {
		if _, err := NewConditioningSet([]string{"https://example.com/a.png"}, scale); err != nil {
			t.Errorf("scale %.2f rejected: %v", scale, err)
		}
	}
	for _, scale := range []float64{-0.1, 1.1} {
		if _, err := NewConditioningSet(nil, scale); err == nil {
			t.Errorf("scale %.2f accepted, want error", scale)
		}
	}
}

func TestBuildConditioning_Order(t *testing.T) {
	req, err := NewGenerationRequest("p", 3, "",
		[]string{"https://example.com/ref1.png", "https://example.com/ref2.png"},
		"https://example.com/prev.png")
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	conditioning, err := BuildConditioning(req, 1.0)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	want := []string{
		"https://example.com/ref1.png",
		"https://example.com/ref2.png",
		"https://example.com/prev.png",
	}
	if len(conditioning.ImageURLs) != len(want) {
		t.Fatalf("got %d urls, want %d", len(conditioning.ImageURLs), len(want))
	}
	for i, url := range want {
		if conditioning.ImageURLs[i] != url {
			t.Errorf("url[%d] = %s, want %s", i, conditioning.ImageURLs[i], url)
		}
	}
}

func TestBuildConditioning_Empty(t *testing.T) {
	req, err := NewGenerationRequest("p", 0, "https://example.com/seed.png", nil, "")
	if err != nil {
		t.Fatal("unexpected error:", err)
	}

	conditioning, err := BuildConditioning(req, 1.0)
	if err != nil {
		t.Fatal("unexpected error:", err)
	}
	if !conditioning.Empty() {
		t.Error("a seed-only request must produce an empty conditioning set")
	}
}

func TestJobState_IsTerminal(t *testing.T) {
	terminal := map[JobState]bool{
		JobStarting:   false,
		JobProcessing: false,
		JobSucceeded:  true,
		JobFailed:     true,
	}
	for state, want := range terminal {
		if state.IsTerminal() != want {
			t.Errorf("%s.IsTerminal() = %v, want %v", state, state.IsTerminal(), want)
		}
	}
}

func TestVideoAssetsSortBySceneIndex(t *testing.T) {
	assets := []VideoAsset{
		{SceneIndex: 3, FileName: "/tmp/d.mp4"},
		{SceneIndex: 0, FileName: "/tmp/a.mp4"},
		{SceneIndex: 2, FileName: "/tmp/c.mp4"},
		{SceneIndex: 1, FileName: "/tmp/b.mp4"},
	}
	sort.Sort(VideoAssetsAscBySceneIndex(assets))
	for i, asset := range assets {
		if asset.SceneIndex != i {
			t.Errorf("position %d holds scene %d", i, asset.SceneIndex)
		}
	}
}
