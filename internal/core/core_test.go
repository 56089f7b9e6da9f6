package core

import (
	"errors"
	"testing"
)

func TestTopicKeys(t *testing.T) {
	topic := Topic{Source: "news", Text: "SpaceX launches new rocket", URL: "https://x.com/1"}

	if got := topic.Key(); got != "news:SpaceX launches new rocket" {
		t.Errorf("Key() = %q", got)
	}
	if got := topic.URLKey(); got != "news:https://x.com/1" {
		t.Errorf("URLKey() = %q", got)
	}

	topic.URL = "  "
	if got := topic.URLKey(); got != "" {
		t.Errorf("expected empty URLKey for blank url, got %q", got)
	}
}

func TestSEOReportKeywords(t *testing.T) {
	report := SEOReport{Keywords: []KeywordCount{
		{Word: "rocket", Count: 5},
		{Word: "launch", Count: 3},
		{Word: "orbit", Count: 2},
		{Word: "fuel", Count: 1},
	}}

	top := report.TopKeywords(3)
	if len(top) != 3 || top[0] != "rocket" || top[2] != "orbit" {
		t.Errorf("unexpected top keywords: %v", top)
	}

	if got := report.KeywordMap()["launch"]; got != 3 {
		t.Errorf("KeywordMap()[launch] = %d, want 3", got)
	}

	if got := (SEOReport{}).TopKeywords(3); len(got) != 0 {
		t.Errorf("expected no keywords from empty report, got %v", got)
	}
}

func TestStageErrorsUnwrap(t *testing.T) {
	root := errors.New("quota exceeded")

	var genErr *GenerationError
	if err := error(&GenerationError{Provider: "gemini", Err: root}); !errors.As(err, &genErr) || !errors.Is(err, root) {
		t.Error("GenerationError should support errors.As and errors.Is")
	}

	var pubErr *PublishError
	if err := error(&PublishError{Platform: "blogger", Err: root}); !errors.As(err, &pubErr) || !errors.Is(err, root) {
		t.Error("PublishError should support errors.As and errors.Is")
	}

	imgErr := &ImageError{Provider: "unsplash", Err: root}
	if !errors.Is(imgErr, root) {
		t.Error("ImageError should unwrap to its cause")
	}
	if imgErr.Error() == "" {
		t.Error("expected a message")
	}
}
