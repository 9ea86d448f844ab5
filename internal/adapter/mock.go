package adapter

import (
	"context"
	"fmt"
	"time"

	"github.com/mlorentedev/doctran/internal/prompt"
)

// MockProvider returns a tagged copy of the source text after an optional
// delay. Used for development and testing without a real backend.
type MockProvider struct {
	Delay time.Duration
}

func (m *MockProvider) Name() string { return "Mock" }

func (m *MockProvider) Translate(ctx context.Context, req prompt.Request) (Response, error) {
	if m.Delay > 0 {
		select {
		case <-time.After(m.Delay):
		case <-ctx.Done():
			return Response{}, Classify("mock", fmt.Errorf("mock: %w", ctx.Err()))
		}
	}
	return newResponse(m.Name(), "[mock:"+req.TargetLanguage+"] "+req.SourceText), nil
}

func (m *MockProvider) Available() bool { return true }
