package generation

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"

	"jan-server/services/image-api/internal/config"
	"jan-server/services/image-api/internal/domain/asset"
	"jan-server/services/image-api/internal/domain/guardrail"
	"jan-server/services/image-api/internal/domain/session"
	"jan-server/services/image-api/internal/domain/style"
	"jan-server/services/image-api/internal/infrastructure/metrics"
	"jan-server/services/image-api/internal/infrastructure/observability"
	"jan-server/services/image-api/internal/utils/platformerrors"
)

const (
	AuthorUser = "user"

	stageSession   = "session"
	stageNormalize = "normalize"
	stagePrompt    = "prompt"
	stageGuardrail = "guardrail"
	stageRefine    = "refine"
	stageSynthesis = "synthesize"
	stagePersist   = "persist"
	stageComplete  = "complete"
)

// AssetService is the subset of the asset service the workflow depends on.
type AssetService interface {
	UploadAndTrackMedia(ctx context.Context, params asset.UploadParams) (*asset.Asset, error)
	LoadModelAssets(ctx context.Context, userID string, ids []string) ([]asset.ModelImage, error)
	FindStyleReference(ctx context.Context, presetKey string) (*asset.Asset, error)
	GenerateStorageFilename(original, contentType string) string
	DeleteAsset(ctx context.Context, userID, id string) error
}

// StyleResolver resolves a style key to a preset.
type StyleResolver interface {
	Resolve(style string) style.Resolution
}

// Guardrail screens user text before any model call.
type Guardrail interface {
	Check(texts ...string) guardrail.Verdict
}

// Orchestrator runs one generation request as an ordered workflow with failure compensation.
type Orchestrator struct {
	appName     string
	maxFiles    int
	assets      AssetService
	sessions    session.Store
	styles      StyleResolver
	guard       Guardrail
	refiner     Refiner
	synthesizer Synthesizer
	log         zerolog.Logger
}

func NewOrchestrator(
	cfg *config.Config,
	assets AssetService,
	sessions session.Store,
	styles StyleResolver,
	guard Guardrail,
	refiner Refiner,
	synthesizer Synthesizer,
	log zerolog.Logger,
) *Orchestrator {
	maxFiles := cfg.MaxUploadFiles
	if maxFiles <= 0 {
		maxFiles = 3
	}
	return &Orchestrator{
		appName:     cfg.AgentAppName,
		maxFiles:    maxFiles,
		assets:      assets,
		sessions:    sessions,
		styles:      styles,
		guard:       guard,
		refiner:     refiner,
		synthesizer: synthesizer,
		log:         log.With().Str("component", "generation-orchestrator").Logger(),
	}
}

// AppName is the application scope used for every session.
func (o *Orchestrator) AppName() string {
	return o.appName
}

type parsedRequest struct {
	prompt        string
	files         []UploadFile
	modelAssetIDs []string
	styleKey      string
	sessionID     string
	category      Category
	size          ImageSize
	aspect        AspectRatio
	format        OutputFormat
}

type turn struct {
	req     parsedRequest
	userID  string
	session *session.Session
	stage   string
	stored  *asset.Asset
	log     zerolog.Logger
}

// GenerateImage executes one image generation request for userID.
func (o *Orchestrator) GenerateImage(ctx context.Context, req ImageRequest, userID string) (*ImageResponse, error) {
	ctx, span := observability.StartSpan(ctx, "generation.GenerateImage", attribute.String("user_id", userID))
	defer span.End()

	parsed, err := o.parse(ctx, req, userID)
	if err != nil {
		metrics.RecordWorkflow(strings.ToLower(strings.TrimSpace(req.Category)), "rejected")
		observability.RecordError(ctx, err)
		return nil, err
	}

	t := &turn{req: parsed, userID: userID, stage: stageSession}
	if err := o.startTurn(ctx, t); err != nil {
		metrics.RecordWorkflow(string(parsed.category), "rejected")
		observability.RecordError(ctx, err)
		return nil, err
	}
	observability.AddSpanAttributes(ctx,
		attribute.String("session_id", t.session.ID),
		attribute.String("category", string(parsed.category)),
	)

	resp, err := o.run(ctx, t)
	if err != nil {
		return nil, o.fail(ctx, t, err)
	}
	return resp, nil
}

// parse validates the request shape before any external call.
func (o *Orchestrator) parse(ctx context.Context, req ImageRequest, userID string) (parsedRequest, error) {
	if strings.TrimSpace(userID) == "" {
		return parsedRequest{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeUnauthorized,
			"user id is required", ErrValidation, "d7b6f39b-b2ea-4560-a4ac-4a6c2ef5c79d")
	}

	modelIDs := make([]string, 0, len(req.ModelAssetIDs))
	for _, id := range req.ModelAssetIDs {
		if id = strings.TrimSpace(id); id != "" {
			modelIDs = append(modelIDs, id)
		}
	}

	parsed := parsedRequest{
		prompt:        strings.TrimSpace(req.Prompt),
		files:         req.Files,
		modelAssetIDs: modelIDs,
		styleKey:      strings.TrimSpace(req.Style),
		sessionID:     strings.TrimSpace(req.SessionID),
	}

	if parsed.prompt == "" && len(parsed.files) == 0 && len(parsed.modelAssetIDs) == 0 {
		return parsedRequest{}, validationError(ctx, "either prompt or files must be provided", "e8c7a4ac-c3fb-4671-b5bd-5b7d3f06d8ae")
	}
	if total := len(parsed.files) + len(parsed.modelAssetIDs); total > o.maxFiles {
		return parsedRequest{}, validationError(ctx,
			fmt.Sprintf("at most %d images are allowed across files and model_asset_ids, got %d", o.maxFiles, total),
			"f9d8b5bd-d40c-4782-86ce-6c8e4017e9bf")
	}

	var ok bool
	if parsed.category, ok = ParseCategory(req.Category); !ok {
		return parsedRequest{}, validationError(ctx, fmt.Sprintf("unsupported category %q", req.Category), "0ae9c6ce-e51d-4893-97df-7d9f5128fac0")
	}
	if parsed.size, ok = ParseImageSize(req.Size); !ok {
		return parsedRequest{}, validationError(ctx, fmt.Sprintf("unsupported size %q", req.Size), "1bfad7df-f62e-49a4-a8e0-8eaf6239abd1")
	}
	if parsed.aspect, ok = ParseAspectRatio(req.AspectRatio); !ok {
		return parsedRequest{}, validationError(ctx, fmt.Sprintf("unsupported aspect_ratio %q", req.AspectRatio), "2c0be8e0-073f-4ab5-b9f1-9fb04a7abce2")
	}
	if parsed.format, ok = ParseOutputFormat(req.OutputFormat); !ok {
		return parsedRequest{}, validationError(ctx, fmt.Sprintf("unsupported output_format %q", req.OutputFormat), "3d1cf9f1-1840-4bc6-8a02-a0c15b8bcdf3")
	}
	return parsed, nil
}

// startTurn resolves the session, bumps its turn state and records turn_started.
func (o *Orchestrator) startTurn(ctx context.Context, t *turn) error {
	var (
		sess *session.Session
		err  error
	)
	if t.req.sessionID != "" {
		sess, err = o.sessions.GetSession(ctx, o.appName, t.userID, t.req.sessionID)
	} else {
		sess, err = o.sessions.CreateSession(ctx, o.appName, t.userID, map[string]any{"turn_count": 0})
	}
	if err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to resolve session")
	}
	t.session = sess
	t.log = o.log.With().
		Str("session_id", sess.ID).
		Str("user_id", t.userID).
		Str("category", string(t.req.category)).
		Logger()

	delta := map[string]any{
		"turn_count":    session.Increment(1),
		"last_category": string(t.req.category),
		"last_style":    t.req.styleKey,
	}
	if err := o.sessions.UpdateState(ctx, o.appName, t.userID, sess.ID, delta); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update session state")
	}

	event := &session.Event{
		SessionID: sess.ID,
		AppName:   o.appName,
		UserID:    t.userID,
		Author:    AuthorUser,
		Type:      session.EventTurnStarted,
		Status:    session.StatusProcessing,
		Payload: map[string]any{
			"category":    string(t.req.category),
			"style":       t.req.styleKey,
			"prompt":      t.req.prompt,
			"image_count": len(t.req.files) + len(t.req.modelAssetIDs),
		},
	}
	if err := o.sessions.AppendEvent(ctx, event); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to record turn start")
	}
	t.log.Info().Msg("generation turn started")
	return nil
}

// run executes normalization through completion. Any error it returns is compensated by fail.
func (o *Orchestrator) run(ctx context.Context, t *turn) (*ImageResponse, error) {
	t.stage = stageNormalize
	images, err := o.normalizeUploads(ctx, t)
	if err != nil {
		return nil, err
	}

	t.stage = stagePrompt
	resolution := o.styles.Resolve(t.req.styleKey)
	if resolution.Found {
		ref, err := o.assets.FindStyleReference(ctx, resolution.Preset.Key)
		if err != nil {
			return nil, err
		}
		if ref != nil {
			resolution.Preset.ReferenceAssetID = ref.ID
		}
	} else if t.req.styleKey != "" {
		t.log.Debug().Str("style", t.req.styleKey).Msg("unknown style, continuing without preset")
	}
	plan := BuildPromptPlan(t.req.category, resolution, t.req.prompt, t.req.aspect, t.req.size, len(images))

	t.stage = stageGuardrail
	if verdict := o.guard.Check(t.req.prompt, t.req.styleKey); verdict.Blocked {
		return o.block(ctx, t, verdict)
	}

	t.stage = stageRefine
	refined, err := o.refine(ctx, t, plan, images)
	if err != nil {
		return nil, err
	}

	t.stage = stageSynthesis
	result, err := o.synthesize(ctx, t, refined, images)
	if err != nil {
		return nil, err
	}

	t.stage = stagePersist
	stored, err := o.persist(ctx, t, refined, result, images, resolution)
	if err != nil {
		return nil, err
	}
	t.stored = stored

	// The asset is committed; a caller disconnect must not turn this turn into a failure.
	t.stage = stageComplete
	if err := o.complete(context.WithoutCancel(ctx), t, refined, stored); err != nil {
		return nil, err
	}

	metrics.RecordWorkflow(string(t.req.category), string(session.StatusCompleted))
	return &ImageResponse{
		Status:          session.StatusCompleted,
		OutputFile:      dataURI(result.ContentType, result.Data),
		RefinedPrompt:   refined,
		SessionID:       t.session.ID,
		UserID:          t.userID,
		Category:        t.req.category,
		Style:           resolution.NormalizedKey,
		Size:            t.req.size,
		AspectRatio:     t.req.aspect,
		OutputFormat:    t.req.format,
		Asset:           stored,
		MediaObjectPath: stored.ObjectPath,
	}, nil
}

func (o *Orchestrator) normalizeUploads(ctx context.Context, t *turn) ([]NormalizedImage, error) {
	images := make([]NormalizedImage, 0, len(t.req.files)+len(t.req.modelAssetIDs))

	if len(t.req.modelAssetIDs) > 0 {
		models, err := o.assets.LoadModelAssets(ctx, t.userID, t.req.modelAssetIDs)
		if err != nil {
			return nil, err
		}
		for _, m := range models {
			img, err := normalizeImage(ctx, m.Filename, m.Data)
			if err != nil {
				return nil, err
			}
			img.SourceAssetID = m.AssetID
			images = append(images, img)
		}
	}

	for _, f := range t.req.files {
		img, err := normalizeImage(ctx, f.Filename, f.Data)
		if err != nil {
			return nil, err
		}
		images = append(images, img)
	}

	if len(images) > o.maxFiles {
		return nil, validationError(ctx, fmt.Sprintf("at most %d images are allowed, got %d", o.maxFiles, len(images)),
			"4e2d0a02-2951-4cd7-9b13-b1d26c9cde04")
	}
	return images, nil
}

// normalizeImage trusts the content, not the client supplied name or type.
func normalizeImage(ctx context.Context, filename string, data []byte) (NormalizedImage, error) {
	info, err := asset.Inspect(data)
	if err != nil {
		return NormalizedImage{}, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeValidation,
			fmt.Sprintf("file %q is not a supported PNG or JPEG image", filename),
			errors.Join(ErrValidation, err), "5f3e1b13-3a62-4de8-8c24-c2e37dadef15")
	}
	return NormalizedImage{
		Filename: filename,
		MimeType: info.MimeType,
		Data:     data,
		Width:    info.Width,
		Height:   info.Height,
	}, nil
}

func (o *Orchestrator) block(ctx context.Context, t *turn, verdict guardrail.Verdict) (*ImageResponse, error) {
	payload := map[string]any{"violation_token": verdict.Token}
	if verdict.Category != "" {
		payload["violation_category"] = string(verdict.Category)
	}
	event := &session.Event{
		SessionID: t.session.ID,
		AppName:   o.appName,
		UserID:    t.userID,
		Author:    o.appName,
		Type:      session.EventBlocked,
		Status:    session.StatusBlocked,
		Payload:   payload,
	}
	if err := o.sessions.AppendEvent(ctx, event); err != nil {
		return nil, platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to record guardrail block")
	}

	metrics.RecordGuardrailBlock(string(verdict.Category))
	metrics.RecordWorkflow(string(t.req.category), string(session.StatusBlocked))
	observability.AddSpanEvent(ctx, "guardrail.blocked", attribute.String("token", verdict.Token))
	t.log.Warn().Str("violation_token", verdict.Token).Msg("prompt blocked by guardrail")

	resp := BlockedResponse(t.session.ID, t.userID, t.req.category)
	resp.Size, resp.AspectRatio, resp.OutputFormat = t.req.size, t.req.aspect, t.req.format
	resp.Guardrail = &verdict
	return resp, nil
}

func (o *Orchestrator) refine(ctx context.Context, t *turn, plan PromptPlan, images []NormalizedImage) (string, error) {
	start := time.Now()
	text, err := o.consumeRefinement(ctx, t, plan, images)
	metrics.RecordStage(stageRefine, stageStatus(err), time.Since(start).Seconds())
	return text, err
}

func (o *Orchestrator) consumeRefinement(ctx context.Context, t *turn, plan PromptPlan, images []NormalizedImage) (string, error) {
	stream, err := o.refiner.Refine(ctx, RefinementInput{
		SessionID:    t.session.ID,
		UserID:       t.userID,
		Category:     plan.Category,
		StyleKey:     plan.Style.NormalizedKey,
		Instructions: plan.Instructions,
		Images:       images,
	})
	if err != nil {
		return "", refinementFailure(ctx, err)
	}
	defer stream.Close()

	for {
		event, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
				"refinement stream ended without a final response", ErrRefinementIncomplete,
				"6a4f2c24-4b73-4ef9-9d35-d3f48ebef026")
		}
		if err != nil {
			return "", refinementFailure(ctx, err)
		}
		if event.Err != nil {
			return "", refinementFailure(ctx, event.Err)
		}
		if !event.Final {
			continue
		}

		text := strings.TrimSpace(event.Text)
		if text == "" {
			return "", platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
				"refinement final response was empty", ErrRefinementIncomplete,
				"7b5a3d35-5c84-4f0a-8e46-e4a59fcf0137")
		}
		t.log.Debug().Str("author", event.Author).Int("length", len(text)).Msg("refined prompt received")
		return text, nil
	}
}

func refinementFailure(ctx context.Context, err error) error {
	if isCancellation(err) || ctx.Err() != nil {
		return cancelledError(ctx, stageRefine, err)
	}
	return platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
		"prompt refinement failed", errors.Join(ErrRefinementFailed, err), "8c6b4e46-6d95-401b-9f57-f5b6a0d01248")
}

func (o *Orchestrator) synthesize(ctx context.Context, t *turn, refined string, images []NormalizedImage) (*SynthesisResult, error) {
	start := time.Now()
	result, err := o.synthesizer.Synthesize(ctx, SynthesisRequest{
		Prompt:       refined,
		Images:       images,
		OutputFormat: t.req.format,
		AspectRatio:  t.req.aspect,
		Size:         t.req.size,
	})
	if err == nil && (result == nil || len(result.Data) == 0) {
		err = errors.New("model returned no image data")
	}
	metrics.RecordStage(stageSynthesis, stageStatus(err), time.Since(start).Seconds())

	if err != nil {
		if isCancellation(err) || ctx.Err() != nil {
			return nil, cancelledError(ctx, stageSynthesis, err)
		}
		return nil, platformerrors.NewError(ctx, platformerrors.LayerDomain, platformerrors.ErrorTypeExternal,
			"image synthesis failed", errors.Join(ErrSynthesisFailure, err), "9d7c5f57-7ea6-412c-8a68-06c7b1e12359")
	}

	if result.ContentType == "" {
		if info, inspectErr := asset.Inspect(result.Data); inspectErr == nil {
			result.ContentType = info.MimeType
		} else {
			result.ContentType = string(t.req.format)
		}
	}
	return result, nil
}

func (o *Orchestrator) persist(ctx context.Context, t *turn, refined string, result *SynthesisResult, images []NormalizedImage, resolution style.Resolution) (*asset.Asset, error) {
	if err := ctx.Err(); err != nil {
		return nil, cancelledError(ctx, stagePersist, err)
	}

	sourceModels := make([]string, 0, len(images))
	for _, img := range images {
		if img.SourceAssetID != "" {
			sourceModels = append(sourceModels, img.SourceAssetID)
		}
	}
	var sourceStyle *string
	if ref := resolution.Preset.ReferenceAssetID; ref != "" {
		sourceStyle = &ref
	}
	sessionID := t.session.ID

	start := time.Now()
	stored, err := o.assets.UploadAndTrackMedia(ctx, asset.UploadParams{
		UserID:         t.userID,
		Filename:       o.assets.GenerateStorageFilename(string(t.req.category), result.ContentType),
		Data:           result.Data,
		ContentType:    result.ContentType,
		SessionID:      &sessionID,
		RefinedPrompt:  refined,
		SourceModelIDs: sourceModels,
		SourceStyleID:  sourceStyle,
	})
	metrics.RecordStage(stagePersist, stageStatus(err), time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}
	return stored, nil
}

func (o *Orchestrator) complete(ctx context.Context, t *turn, refined string, stored *asset.Asset) error {
	delta := map[string]any{
		"refined_prompt": refined,
		"last_asset_id":  stored.ID,
	}
	if err := o.sessions.UpdateState(ctx, o.appName, t.userID, t.session.ID, delta); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to update session state")
	}

	event := &session.Event{
		SessionID: t.session.ID,
		AppName:   o.appName,
		UserID:    t.userID,
		Author:    o.appName,
		Type:      session.EventTurnFinished,
		Status:    session.StatusCompleted,
		Payload: map[string]any{
			"asset_id":    stored.ID,
			"object_path": stored.ObjectPath,
		},
	}
	if err := o.sessions.AppendEvent(ctx, event); err != nil {
		return platformerrors.AsError(ctx, platformerrors.LayerDomain, err, "failed to record turn completion")
	}
	t.log.Info().Str("asset_id", stored.ID).Msg("generation turn completed")
	return nil
}

// fail records exactly one failed turn_finished event and returns the error to the caller.
// An asset already stored by this turn is soft deleted so a failed turn leaves none behind.
func (o *Orchestrator) fail(ctx context.Context, t *turn, err error) error {
	o.discardStored(ctx, t)
	cancelled := isCancellation(err) || ctx.Err() != nil
	if cancelled && !errors.Is(err, ErrCancelledWorkflow) {
		err = cancelledError(ctx, t.stage, errors.Join(err, ctx.Err()))
	}
	kind := KindName(err)

	event := &session.Event{
		SessionID:    t.session.ID,
		AppName:      o.appName,
		UserID:       t.userID,
		Author:       o.appName,
		Type:         session.EventTurnFinished,
		Status:       session.StatusFailed,
		ErrorType:    kind,
		ErrorMessage: err.Error(),
		Payload:      map[string]any{"stage": t.stage},
	}
	// The request context may already be cancelled; the failure must still be recorded.
	if appendErr := o.sessions.AppendEvent(context.WithoutCancel(ctx), event); appendErr != nil {
		t.log.Error().Err(appendErr).Msg("failed to record turn failure")
	}

	var platformErr *platformerrors.PlatformError
	switch {
	case cancelled:
		t.log.Warn().Err(err).Str("stage", t.stage).Str("error_type", kind).Msg("generation turn cancelled")
	case errors.As(err, &platformErr):
		platformerrors.LogError(t.log.With().Str("stage", t.stage).Str("error_kind", kind).Logger(), platformErr)
	default:
		t.log.Error().Err(err).Str("stage", t.stage).Str("error_type", kind).Msg("generation turn failed")
	}

	outcome := string(session.StatusFailed)
	if cancelled {
		outcome = "cancelled"
	}
	metrics.RecordWorkflow(string(t.req.category), outcome)
	observability.RecordError(ctx, err)
	return err
}

func (o *Orchestrator) discardStored(ctx context.Context, t *turn) {
	if t.stored == nil {
		return
	}
	if err := o.assets.DeleteAsset(context.WithoutCancel(ctx), t.userID, t.stored.ID); err != nil {
		t.log.Error().Err(err).Str("asset_id", t.stored.ID).Msg("failed to discard asset of failed turn")
		return
	}
	t.log.Warn().Str("asset_id", t.stored.ID).Str("stage", t.stage).Msg("discarded asset of failed turn")
	t.stored = nil
}

func stageStatus(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}

func dataURI(contentType string, data []byte) string {
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}
