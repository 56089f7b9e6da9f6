package core

import (
	"errors"
	"fmt"
)

var (
	// ErrNoTopicsAvailable is returned when the topic source yields nothing to write about
	ErrNoTopicsAvailable = errors.New("no trending topics found")

	// ErrDuplicateTopicExhaustion marks the fallback path taken when every candidate is a duplicate
	ErrDuplicateTopicExhaustion = errors.New("all candidate topics are recent duplicates")

	// ErrRunInProgress is returned when a run is requested while another is executing
	ErrRunInProgress = errors.New("an automation run is already in progress")
)

// GenerationError wraps an upstream content generation failure or an empty result.
type GenerationError struct {
	Provider string
	Err      error
}

func (e *GenerationError) Error() string {
	if e.Provider == "" {
		return fmt.Sprintf("content generation failed: %v", e.Err)
	}
	return fmt.Sprintf("content generation failed (%s): %v", e.Provider, e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

// PublishError wraps a publishing collaborator failure.
type PublishError struct {
	Platform string
	Err      error
}

func (e *PublishError) Error() string {
	return fmt.Sprintf("failed to publish to %s: %v", e.Platform, e.Err)
}

func (e *PublishError) Unwrap() error { return e.Err }

// ImageError wraps an image provider failure. It is never fatal to a run.
type ImageError struct {
	Provider string
	Err      error
}

func (e *ImageError) Error() string {
	return fmt.Sprintf("image from %s unavailable: %v", e.Provider, e.Err)
}

func (e *ImageError) Unwrap() error { return e.Err }
