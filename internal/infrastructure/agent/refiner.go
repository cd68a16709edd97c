package agent

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/tool"
	"github.com/cloudwego/eino/compose"
	einoagent "github.com/cloudwego/eino/flow/agent"
	"github.com/cloudwego/eino/flow/agent/react"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"jan-server/services/image-api/internal/config"
	"jan-server/services/image-api/internal/domain/generation"
	"jan-server/services/image-api/internal/infrastructure/observability"
)

// messageStreamer is the part of a react agent the refiner uses.
type messageStreamer interface {
	Stream(ctx context.Context, input []*schema.Message, opts ...einoagent.AgentOption) (*schema.StreamReader[*schema.Message], error)
}

type namedAgent struct {
	name     string
	streamer messageStreamer
}

// Refiner rewrites prompts with one eino react agent per category.
type Refiner struct {
	agents map[generation.Category]namedAgent
	log    zerolog.Logger
}

func NewRefiner(ctx context.Context, cfg *config.Config, chatModel model.ToolCallingChatModel, styles StyleResolver, log zerolog.Logger) (*Refiner, error) {
	styleTool, err := NewStyleTool(styles)
	if err != nil {
		return nil, fmt.Errorf("create style tool: %w", err)
	}
	maxSteps := cfg.RefinerMaxSteps
	if maxSteps <= 0 {
		maxSteps = 6
	}

	agents := make(map[generation.Category]namedAgent, len(specialists))
	for category, sp := range specialists {
		system := systemPrompt(sp)
		a, err := react.NewAgent(ctx, &react.AgentConfig{
			ToolCallingModel: chatModel,
			ToolsConfig: compose.ToolsNodeConfig{
				Tools: []tool.BaseTool{styleTool},
			},
			MessageModifier: func(ctx context.Context, input []*schema.Message) []*schema.Message {
				res := make([]*schema.Message, 0, len(input)+1)
				res = append(res, schema.SystemMessage(system))
				return append(res, input...)
			},
			MaxStep: maxSteps,
		})
		if err != nil {
			return nil, fmt.Errorf("create %s: %w", sp.name, err)
		}
		agents[category] = namedAgent{name: sp.name, streamer: a}
	}

	return newRefiner(agents, log), nil
}

func newRefiner(agents map[generation.Category]namedAgent, log zerolog.Logger) *Refiner {
	return &Refiner{
		agents: agents,
		log:    log.With().Str("component", "refiner").Logger(),
	}
}

// Refine starts the category specialist and returns its output as refinement events.
func (r *Refiner) Refine(ctx context.Context, input generation.RefinementInput) (generation.RefinementStream, error) {
	a, ok := r.agents[input.Category]
	if !ok {
		a, ok = r.agents[generation.CategoryCreativity]
	}
	if !ok {
		return nil, fmt.Errorf("no refinement agent for category %q", input.Category)
	}

	ctx, span := observability.StartSpan(ctx, "agent.Refine", attribute.String("agent", a.name))

	reader, err := a.streamer.Stream(ctx, []*schema.Message{userMessage(input)})
	if err == nil && reader == nil {
		err = errors.New("agent returned nil stream reader")
	}
	if err != nil {
		observability.RecordError(ctx, err)
		span.End()
		return nil, fmt.Errorf("start %s stream: %w", a.name, err)
	}

	r.log.Debug().
		Str("agent", a.name).
		Str("session_id", input.SessionID).
		Int("images", len(input.Images)).
		Msg("refinement started")
	return &messageStream{reader: reader, author: a.name, span: span}, nil
}

// userMessage carries the instruction payload and any reference images.
func userMessage(input generation.RefinementInput) *schema.Message {
	if len(input.Images) == 0 {
		return schema.UserMessage(input.Instructions)
	}
	parts := make([]schema.ChatMessagePart, 0, len(input.Images)+1)
	parts = append(parts, schema.ChatMessagePart{Type: schema.ChatMessagePartTypeText, Text: input.Instructions})
	for _, img := range input.Images {
		parts = append(parts, schema.ChatMessagePart{
			Type: schema.ChatMessagePartTypeImageURL,
			ImageURL: &schema.ChatMessageImageURL{
				URL:      "data:" + img.MimeType + ";base64," + base64.StdEncoding.EncodeToString(img.Data),
				MIMEType: img.MimeType,
			},
		})
	}
	return &schema.Message{Role: schema.User, MultiContent: parts}
}

// messageStream turns an agent message stream into refinement events.
// Each assistant chunk becomes a partial event; the accumulated text is emitted as the
// final event when the agent stream ends. An empty stream ends with io.EOF and no final event.
// The refinement span stays open until the stream ends or is closed.
type messageStream struct {
	reader  *schema.StreamReader[*schema.Message]
	author  string
	span    trace.Span
	content strings.Builder
	done    bool
	endOnce sync.Once
}

func (s *messageStream) Recv() (generation.RefinementEvent, error) {
	if s.done {
		return generation.RefinementEvent{}, io.EOF
	}
	for {
		msg, err := s.reader.Recv()
		if errors.Is(err, io.EOF) {
			s.done = true
			s.endSpan(nil)
			text := strings.TrimSpace(s.content.String())
			if text == "" {
				return generation.RefinementEvent{}, io.EOF
			}
			return generation.RefinementEvent{Author: s.author, Text: text, Final: true}, nil
		}
		if err != nil {
			s.done = true
			s.endSpan(err)
			return generation.RefinementEvent{}, err
		}
		if msg == nil || msg.Content == "" || (msg.Role != schema.Assistant && msg.Role != "") {
			continue
		}
		s.content.WriteString(msg.Content)
		return generation.RefinementEvent{Author: s.author, Text: msg.Content}, nil
	}
}

func (s *messageStream) Close() error {
	s.reader.Close()
	s.endSpan(nil)
	return nil
}

func (s *messageStream) endSpan(err error) {
	if s.span == nil {
		return
	}
	s.endOnce.Do(func() {
		if err != nil {
			s.span.RecordError(err)
			s.span.SetStatus(codes.Error, err.Error())
		}
		s.span.SetAttributes(attribute.Int("refined_length", s.content.Len()))
		s.span.End()
	})
}
