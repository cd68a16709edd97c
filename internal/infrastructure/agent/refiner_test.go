package agent

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	einoagent "github.com/cloudwego/eino/flow/agent"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"jan-server/services/image-api/internal/domain/generation"
	"jan-server/services/image-api/internal/domain/style"
)

type fakeStreamer struct {
	messages []*schema.Message
	err      error
	streamFn func() *schema.StreamReader[*schema.Message]
	input    []*schema.Message
}

func (f *fakeStreamer) Stream(_ context.Context, input []*schema.Message, _ ...einoagent.AgentOption) (*schema.StreamReader[*schema.Message], error) {
	f.input = input
	if f.err != nil {
		return nil, f.err
	}
	if f.streamFn != nil {
		return f.streamFn(), nil
	}
	return schema.StreamReaderFromArray(f.messages), nil
}

func drain(t *testing.T, stream generation.RefinementStream) []generation.RefinementEvent {
	t.Helper()
	var events []generation.RefinementEvent
	for {
		ev, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return events
		}
		require.NoError(t, err)
		events = append(events, ev)
	}
}

func TestRefinerStreamsPartialsThenFinal(t *testing.T) {
	fake := &fakeStreamer{messages: []*schema.Message{
		schema.AssistantMessage("A breathtaking ", nil),
		{Role: schema.Tool, Content: `{"found":true}`},
		schema.AssistantMessage("sunset over mountains", nil),
	}}
	refiner := newRefiner(map[generation.Category]namedAgent{
		generation.CategoryCreativity: {name: "default_agent", streamer: fake},
	}, zerolog.Nop())

	stream, err := refiner.Refine(context.Background(), generation.RefinementInput{
		Category:     generation.CategoryCreativity,
		Instructions: "ImageCategory: creativity\nUserPrompt: sunset",
	})
	require.NoError(t, err)
	defer stream.Close()

	events := drain(t, stream)
	require.Len(t, events, 3)
	assert.False(t, events[0].Final)
	assert.Equal(t, "default_agent", events[0].Author)
	assert.True(t, events[2].Final)
	assert.Equal(t, "A breathtaking sunset over mountains", events[2].Text)

	_, err = stream.Recv()
	assert.ErrorIs(t, err, io.EOF)

	require.Len(t, fake.input, 1)
	assert.Equal(t, schema.User, fake.input[0].Role)
	assert.Equal(t, "ImageCategory: creativity\nUserPrompt: sunset", fake.input[0].Content)
}

func TestRefinerEmptyStreamHasNoFinal(t *testing.T) {
	fake := &fakeStreamer{messages: []*schema.Message{{Role: schema.Assistant, Content: ""}}}
	refiner := newRefiner(map[generation.Category]namedAgent{
		generation.CategoryCreativity: {name: "default_agent", streamer: fake},
	}, zerolog.Nop())

	stream, err := refiner.Refine(context.Background(), generation.RefinementInput{Category: generation.CategoryCreativity})
	require.NoError(t, err)
	assert.Empty(t, drain(t, stream))
}

func TestRefinerFallsBackToCreativityAgent(t *testing.T) {
	fallback := &fakeStreamer{messages: []*schema.Message{schema.AssistantMessage("ok", nil)}}
	refiner := newRefiner(map[generation.Category]namedAgent{
		generation.CategoryCreativity: {name: "default_agent", streamer: fallback},
	}, zerolog.Nop())

	stream, err := refiner.Refine(context.Background(), generation.RefinementInput{Category: generation.CategoryFit})
	require.NoError(t, err)
	events := drain(t, stream)
	require.Len(t, events, 2)
	assert.Equal(t, "default_agent", events[1].Author)
}

func TestRefinerPropagatesErrors(t *testing.T) {
	t.Run("start", func(t *testing.T) {
		refiner := newRefiner(map[generation.Category]namedAgent{
			generation.CategoryCreativity: {name: "default_agent", streamer: &fakeStreamer{err: errors.New("quota")}},
		}, zerolog.Nop())
		_, err := refiner.Refine(context.Background(), generation.RefinementInput{Category: generation.CategoryCreativity})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "quota")
	})

	t.Run("mid stream", func(t *testing.T) {
		fake := &fakeStreamer{streamFn: func() *schema.StreamReader[*schema.Message] {
			sr, sw := schema.Pipe[*schema.Message](2)
			sw.Send(schema.AssistantMessage("partial", nil), nil)
			sw.Send(nil, errors.New("connection reset"))
			sw.Close()
			return sr
		}}
		refiner := newRefiner(map[generation.Category]namedAgent{
			generation.CategoryCreativity: {name: "default_agent", streamer: fake},
		}, zerolog.Nop())

		stream, err := refiner.Refine(context.Background(), generation.RefinementInput{Category: generation.CategoryCreativity})
		require.NoError(t, err)
		ev, err := stream.Recv()
		require.NoError(t, err)
		assert.Equal(t, "partial", ev.Text)
		_, err = stream.Recv()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "connection reset")
		_, err = stream.Recv()
		assert.ErrorIs(t, err, io.EOF)
	})
}

func TestUserMessageAttachesImages(t *testing.T) {
	msg := userMessage(generation.RefinementInput{
		Instructions: "ReferenceImages: 1",
		Images:       []generation.NormalizedImage{{MimeType: "image/png", Data: []byte{0x89, 'P', 'N', 'G'}}},
	})
	require.Len(t, msg.MultiContent, 2)
	assert.Equal(t, schema.ChatMessagePartTypeText, msg.MultiContent[0].Type)
	assert.Equal(t, "ReferenceImages: 1", msg.MultiContent[0].Text)
	require.NotNil(t, msg.MultiContent[1].ImageURL)
	assert.True(t, strings.HasPrefix(msg.MultiContent[1].ImageURL.URL, "data:image/png;base64,"))
}

func TestStyleTool(t *testing.T) {
	lookup := lookupStyle(style.NewCatalog())

	out, err := lookup(context.Background(), &StyleLookupInput{Style: " Polaroid "})
	require.NoError(t, err)
	assert.True(t, out.Found)
	assert.Equal(t, "polaroid", out.Style)
	assert.NotEmpty(t, out.Prompt)

	out, err = lookup(context.Background(), &StyleLookupInput{Style: "vaporwave"})
	require.NoError(t, err)
	assert.False(t, out.Found)

	styleTool, err := NewStyleTool(style.NewCatalog())
	require.NoError(t, err)
	info, err := styleTool.Info(context.Background())
	require.NoError(t, err)
	assert.Equal(t, styleToolName, info.Name)
}

func TestSpecialistsCoverEveryCategory(t *testing.T) {
	for _, c := range []generation.Category{
		generation.CategoryCreativity, generation.CategoryTemplate, generation.CategoryFit, generation.CategoryLightbox,
	} {
		s := specialistFor(c)
		assert.NotEmpty(t, s.name, c)
		assert.Contains(t, systemPrompt(s), globalInstruction, c)
	}
}

func recordSpans(t *testing.T) *tracetest.SpanRecorder {
	t.Helper()
	recorder := tracetest.NewSpanRecorder()
	previous := otel.GetTracerProvider()
	otel.SetTracerProvider(sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder)))
	t.Cleanup(func() { otel.SetTracerProvider(previous) })
	return recorder
}

func TestRefineSpanCoversTheWholeStream(t *testing.T) {
	recorder := recordSpans(t)
	fake := &fakeStreamer{messages: []*schema.Message{
		schema.AssistantMessage("misty ", nil),
		schema.AssistantMessage("harbour", nil),
	}}
	refiner := newRefiner(map[generation.Category]namedAgent{
		generation.CategoryCreativity: {name: "default_agent", streamer: fake},
	}, zerolog.Nop())

	stream, err := refiner.Refine(context.Background(), generation.RefinementInput{Category: generation.CategoryCreativity})
	require.NoError(t, err)
	assert.Empty(t, recorder.Ended(), "span must stay open while events are pending")

	events := drain(t, stream)
	require.Len(t, events, 3)
	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, "agent.Refine", recorder.Ended()[0].Name())

	require.NoError(t, stream.Close())
	assert.Len(t, recorder.Ended(), 1)
}

func TestRefineSpanRecordsStreamError(t *testing.T) {
	recorder := recordSpans(t)
	fake := &fakeStreamer{streamFn: func() *schema.StreamReader[*schema.Message] {
		sr, sw := schema.Pipe[*schema.Message](1)
		sw.Send(nil, errors.New("connection reset"))
		sw.Close()
		return sr
	}}
	refiner := newRefiner(map[generation.Category]namedAgent{
		generation.CategoryCreativity: {name: "default_agent", streamer: fake},
	}, zerolog.Nop())

	stream, err := refiner.Refine(context.Background(), generation.RefinementInput{Category: generation.CategoryCreativity})
	require.NoError(t, err)
	_, err = stream.Recv()
	require.Error(t, err)

	require.Len(t, recorder.Ended(), 1)
	assert.Equal(t, codes.Error, recorder.Ended()[0].Status().Code)
}

func TestRefineSpanEndsOnEarlyClose(t *testing.T) {
	recorder := recordSpans(t)
	fake := &fakeStreamer{messages: []*schema.Message{schema.AssistantMessage("never read", nil)}}
	refiner := newRefiner(map[generation.Category]namedAgent{
		generation.CategoryCreativity: {name: "default_agent", streamer: fake},
	}, zerolog.Nop())

	stream, err := refiner.Refine(context.Background(), generation.RefinementInput{Category: generation.CategoryCreativity})
	require.NoError(t, err)
	require.NoError(t, stream.Close())
	assert.Len(t, recorder.Ended(), 1)
}
