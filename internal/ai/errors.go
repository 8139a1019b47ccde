package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// ErrOverloaded matches any GenerationError caused by the provider reporting overload.
var ErrOverloaded = errors.New("model provider overloaded")

// StatusOverloaded is the non-standard status Anthropic uses for overload.
const StatusOverloaded = 529

type EmbeddingServiceError struct {
	StatusCode int
	Err        error
}

func (e *EmbeddingServiceError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("embedding service error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("embedding service error: %v", e.Err)
}

func (e *EmbeddingServiceError) Unwrap() error { return e.Err }

type GenerationError struct {
	StatusCode int
	Overloaded bool
	Err        error
}

func (e *GenerationError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("generation error (status %d): %v", e.StatusCode, e.Err)
	}
	return fmt.Sprintf("generation error: %v", e.Err)
}

func (e *GenerationError) Unwrap() error { return e.Err }

func (e *GenerationError) Is(target error) bool {
	return target == ErrOverloaded && e.Overloaded
}

func IsOverloaded(err error) bool {
	return errors.Is(err, ErrOverloaded)
}

func isOverloadStatus(code int) bool {
	return code == http.StatusServiceUnavailable || code == StatusOverloaded
}

func newGenerationError(status int, err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return &GenerationError{StatusCode: status, Overloaded: isOverloadStatus(status), Err: err}
}
