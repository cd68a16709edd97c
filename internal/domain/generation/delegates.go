package generation

import "context"

// RefinementInput is the merged instruction payload handed to the refinement delegate.
type RefinementInput struct {
	SessionID    string
	UserID       string
	Category     Category
	StyleKey     string
	Instructions string
	Images       []NormalizedImage
}

// RefinementEvent is one item of a refinement stream. Final marks the terminal response.
type RefinementEvent struct {
	Author string
	Text   string
	Final  bool
	Err    error
}

// RefinementStream is consumed once, in order, until io.EOF.
type RefinementStream interface {
	Recv() (RefinementEvent, error)
	Close() error
}

// Refiner turns user intent plus media into a refined prompt.
type Refiner interface {
	Refine(ctx context.Context, input RefinementInput) (RefinementStream, error)
}

// SynthesisRequest carries everything the image model needs for one call.
type SynthesisRequest struct {
	Prompt       string
	Images       []NormalizedImage
	OutputFormat OutputFormat
	AspectRatio  AspectRatio
	Size         ImageSize
}

// SynthesisResult is the raw image returned by the model.
type SynthesisResult struct {
	Data        []byte
	ContentType string
}

// Synthesizer produces image bytes from a refined prompt.
type Synthesizer interface {
	Synthesize(ctx context.Context, req SynthesisRequest) (*SynthesisResult, error)
}
