// FILE: internal/service/router_service.go
package service

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"ai-deskmate-be/internal/config"
	"ai-deskmate-be/internal/dto"
	"ai-deskmate-be/internal/entity"
	"ai-deskmate-be/internal/pkg/logger"
	"ai-deskmate-be/internal/repository/memory"
	"ai-deskmate-be/internal/repository/unitofwork"
	"ai-deskmate-be/pkg/embedding"
	"ai-deskmate-be/pkg/events"
	"ai-deskmate-be/pkg/llm"
	"ai-deskmate-be/pkg/metrics"
	pktNats "ai-deskmate-be/pkg/nats"
	"ai-deskmate-be/pkg/prototype"
	"ai-deskmate-be/pkg/routing"
	"ai-deskmate-be/pkg/routing/arbiter"
	"ai-deskmate-be/pkg/routing/decision"
	"ai-deskmate-be/pkg/routing/dialogue"
	"ai-deskmate-be/pkg/routing/gate"
	"ai-deskmate-be/pkg/routing/matcher"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// decisionCacheTTL bounds how long an identical query can reuse a decision.
// Short on purpose: a catalog or threshold change bumps the key anyway, but
// conversation context should not be frozen for long.
const decisionCacheTTL = 60 * time.Second

// DecisionStream pushes finished decisions to watching admin consoles.
// Typically implemented by the WebSocket Hub.
type DecisionStream interface {
	BroadcastDecision(res *dto.RouteResponse)
}

type IRouterService interface {
	// Route runs one turn. It has no error return: every failure inside the
	// pipeline degrades into a valid decision instead of propagating.
	Route(ctx context.Context, req *dto.RouteRequest) *dto.RouteResponse
	Pending(ctx context.Context, conversationId string) (*dto.PendingClarificationResponse, error)
}

type routerService struct {
	uowFactory     unitofwork.RepositoryFactory
	policies       *config.PolicyHolder
	prototypes     *prototype.Store
	embedder       embedding.EmbeddingProvider
	llmProvider    llm.LLMProvider
	dialogue       *dialogue.Machine
	pendingStore   *memory.ClarificationRepository
	cache          *redis.Client
	eventPublisher *pktNats.Publisher
	stream         DecisionStream
	logger         logger.ILogger
}

func NewRouterService(
	uowFactory unitofwork.RepositoryFactory,
	policies *config.PolicyHolder,
	prototypes *prototype.Store,
	embedder embedding.EmbeddingProvider,
	llmProvider llm.LLMProvider,
	dialogueMachine *dialogue.Machine,
	pendingStore *memory.ClarificationRepository,
	cache *redis.Client,
	eventPublisher *pktNats.Publisher,
	stream DecisionStream,
	log logger.ILogger,
) IRouterService {
	return &routerService{
		uowFactory:     uowFactory,
		policies:       policies,
		prototypes:     prototypes,
		embedder:       embedder,
		llmProvider:    llmProvider,
		dialogue:       dialogueMachine,
		pendingStore:   pendingStore,
		cache:          cache,
		eventPublisher: eventPublisher,
		stream:         stream,
		logger:         log,
	}
}

// queryEmbedder adapts the embedding provider to the matcher, pinning the
// query task type.
type queryEmbedder struct {
	provider embedding.EmbeddingProvider
}

func (e queryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := e.provider.Generate(ctx, text, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return res.Embedding.Values, nil
}

// turnOutcome bundles what the pipeline produced for the common tail.
type turnOutcome struct {
	decision    routing.RoutingDecision
	effective   string
	gateEffects string
	degraded    bool
}

func (s *routerService) Route(ctx context.Context, req *dto.RouteRequest) *dto.RouteResponse {
	start := time.Now()
	turn := s.dialogue.Begin(req.ConversationId)

	// 1. Route hint: the caller already knows the capability.
	if req.RouteHint != "" {
		if category, err := routing.ParseCategory(req.RouteHint); err == nil {
			return s.finish(ctx, turn, req, start, turnOutcome{
				decision:  routing.DirectDecision(category, routing.TierHigh, nil, routing.ReasonRouteHint),
				effective: req.Query,
			})
		}
		// Unknown hints never fail the request; the pipeline decides instead.
		s.logger.Warn("RouterService", "Unknown route hint, ignoring", map[string]interface{}{
			"conversation_id": req.ConversationId,
			"route_hint":      req.RouteHint,
		})
	}

	// 2. Dialogue: is this message an answer to an open question?
	consumption := turn.Consume(req.Query, req.ChoiceId)
	if consumption.InvalidState {
		s.logger.Warn("RouterService", "Reply referenced missing clarification state, treating as fresh query", map[string]interface{}{
			"conversation_id": req.ConversationId,
			"choice_id":       req.ChoiceId,
		})
	}

	switch consumption.Kind {
	case dialogue.ConsumeChoice:
		metrics.ClarificationOutcomes.WithLabelValues("choice").Inc()
		return s.finish(ctx, turn, req, start, turnOutcome{
			decision:  routing.DirectDecision(consumption.Category, routing.TierHigh, nil, routing.ReasonClarificationChoice),
			effective: consumption.Query,
		})
	case dialogue.ConsumeSentinel:
		metrics.ClarificationOutcomes.WithLabelValues("sentinel").Inc()
		clarification := routing.Clarification{
			Question: "Got it. Tell me in your own words what you need help with.",
		}
		return s.finish(ctx, turn, req, start, turnOutcome{
			decision:  routing.ClarifyDecision(clarification, nil, routing.ReasonElaborationRequested),
			effective: consumption.Query,
		})
	case dialogue.ConsumeElaboration:
		metrics.ClarificationOutcomes.WithLabelValues("elaboration").Inc()
	case dialogue.ConsumeStale:
		if consumption.InvalidState {
			metrics.ClarificationOutcomes.WithLabelValues("stale").Inc()
		} else {
			metrics.ClarificationOutcomes.WithLabelValues("abandoned").Inc()
		}
	}

	// The elaborated or raw text is what the pipeline classifies from here on.
	effective := consumption.Query
	return s.runPipeline(ctx, turn, req, start, effective)
}

func (s *routerService) runPipeline(ctx context.Context, turn *dialogue.Turn, req *dto.RouteRequest, start time.Time, effective string) *dto.RouteResponse {
	policy := s.policies.Current()

	// 3. Heuristic gate: rules first, vectors second.
	gateResult := policy.Gate.Evaluate(effective)
	if gateResult.ShortCircuited() {
		metrics.GateEffects.WithLabelValues(string(gate.EffectShortCircuit), gateResult.Reason).Inc()
		return s.finish(ctx, turn, req, start, turnOutcome{
			decision:    routing.DirectDecision(gateResult.ShortCircuit, routing.TierHigh, nil, "gate:"+gateResult.Reason),
			effective:   effective,
			gateEffects: "short-circuit:" + gateResult.Reason,
		})
	}
	var gateEffects string
	if len(gateResult.Vetoed) > 0 {
		metrics.GateEffects.WithLabelValues(string(gate.EffectVeto), gateResult.Reason).Inc()
		gateEffects = gateResult.Reason
	}
	if gateResult.ForceArbitration {
		metrics.GateEffects.WithLabelValues(string(gate.EffectForceArbitration), gateResult.Reason).Inc()
		gateEffects = gateResult.Reason
	}

	// Identical query, identical catalog, identical policy: the decision is
	// deterministic, so reuse it. Only clean direct decisions are cached.
	cacheKey := s.decisionCacheKey(effective)
	if cached, ok := s.cachedDecision(ctx, cacheKey); ok {
		metrics.DecisionCache.WithLabelValues("hit").Inc()
		return s.finish(ctx, turn, req, start, turnOutcome{
			decision:    cached,
			effective:   effective,
			gateEffects: gateEffects,
		})
	}
	metrics.DecisionCache.WithLabelValues("miss").Inc()

	// 4. Similarity matcher. Failures degrade, they never abort the turn.
	m := matcher.New(
		queryEmbedder{provider: s.embedder},
		s.prototypes,
		policy.Raw.Matcher.TopK,
		policy.Raw.MatcherTimeout(),
	)
	matchStart := time.Now()
	match := m.Match(ctx, effective, gateResult.Vetoed)
	metrics.MatcherLatency.Observe(time.Since(matchStart).Seconds())
	if match.Degraded {
		metrics.MatcherDegraded.Inc()
		s.logger.Warn("RouterService", "Matcher degraded, routing without similarity signal", map[string]interface{}{
			"conversation_id": req.ConversationId,
			"error":           fmt.Sprint(match.Err),
		})
	}

	// 5. Confidence regimes.
	outcome := decision.Decide(policy.Thresholds, match.Candidates, decision.Flags{
		ForceArbitration: gateResult.ForceArbitration,
		Degraded:         match.Degraded,
	})

	out := turnOutcome{
		effective:   effective,
		gateEffects: gateEffects,
		degraded:    match.Degraded,
	}

	switch outcome.Action {
	case decision.ActionDirect:
		out.decision = routing.DirectDecision(match.Candidates[0].Category, outcome.Tier, match.Candidates, outcome.Reason)
		if !match.Degraded {
			s.fillCache(ctx, cacheKey, out.decision)
		}
		return s.finish(ctx, turn, req, start, out)

	case decision.ActionArbitrate:
		gen := arbiter.New(s.llmProvider, policy.Raw.ArbitrationTimeout(), policy.Raw.ClarifyTimeout(), policy.Raw.Arbiter.Model)
		llmStart := time.Now()
		pick := gen.Arbitrate(ctx, effective, match.Candidates)
		metrics.LLMLatency.WithLabelValues("arbitration").Observe(time.Since(llmStart).Seconds())

		if pick.Fallback {
			metrics.ArbitrationOutcomes.WithLabelValues("fallback").Inc()
			out.decision = routing.DirectDecision(pick.Category, routing.TierLow, match.Candidates, routing.ReasonArbitrationFallback)
		} else {
			metrics.ArbitrationOutcomes.WithLabelValues("model").Inc()
			out.decision = routing.DirectDecision(pick.Category, routing.TierMedium, match.Candidates, routing.ReasonArbitration)
		}
		return s.finish(ctx, turn, req, start, out)

	default: // decision.ActionClarify
		gen := arbiter.New(s.llmProvider, policy.Raw.ArbitrationTimeout(), policy.Raw.ClarifyTimeout(), policy.Raw.Arbiter.Model)
		llmStart := time.Now()
		clarified := gen.Clarify(ctx, effective, match.Candidates)
		metrics.LLMLatency.WithLabelValues("clarify").Observe(time.Since(llmStart).Seconds())

		reason := clarifyReason(outcome.Reason)
		if clarified.Fallback {
			reason = routing.ReasonClarifyFallback
		}
		out.decision = routing.ClarifyDecision(clarified.Clarification, match.Candidates, reason)

		// The question only counts once it is stored; a superseded turn must
		// not replace state owned by a newer message.
		if err := turn.CommitPending(effective, clarified.Clarification.Question, clarified.Clarification.Choices); err != nil {
			if errors.Is(err, dialogue.ErrSuperseded) {
				return s.finish(ctx, turn, req, start, out)
			}
			s.logger.Error("RouterService", "Failed to store pending clarification", map[string]interface{}{
				"conversation_id": req.ConversationId,
				"error":           err,
			})
		}
		return s.finish(ctx, turn, req, start, out)
	}
}

// clarifyReason maps the engine's regime cause to the decision vocabulary.
// Most causes share their string already; forced arbitration surfaces as a
// forced clarification once the question is actually asked.
func clarifyReason(engineReason string) string {
	if engineReason == decision.ReasonForceArbitration {
		return routing.ReasonForcedClarification
	}
	return engineReason
}

// finish is the common tail of every turn: supersession check, metrics,
// audit row, event publish, stream broadcast. Side effects are best effort
// and never fail the response.
func (s *routerService) finish(ctx context.Context, turn *dialogue.Turn, req *dto.RouteRequest, start time.Time, out turnOutcome) *dto.RouteResponse {
	latency := time.Since(start)

	if turn.Superseded() {
		// A newer message owns this conversation now. The late caller still
		// gets its answer, but nothing about this turn is recorded.
		metrics.SupersededTurns.Inc()
		out.decision.Reason = routing.ReasonSuperseded
		res := toRouteResponse(req.ConversationId, out.decision, out.degraded, latency)
		metrics.RouteRequests.WithLabelValues(string(out.decision.Mode), out.decision.Reason, string(out.decision.Category)).Inc()
		metrics.RouteLatency.WithLabelValues(string(out.decision.Mode)).Observe(latency.Seconds())
		return res
	}

	res := toRouteResponse(req.ConversationId, out.decision, out.degraded, latency)

	metrics.RouteRequests.WithLabelValues(res.Mode, res.Reason, res.Category).Inc()
	metrics.RouteLatency.WithLabelValues(res.Mode).Observe(latency.Seconds())
	if s.pendingStore != nil {
		metrics.ClarificationsOpen.Set(float64(s.pendingStore.Count()))
	}

	s.auditDecision(ctx, req, out, latency)

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypeRoutingDecisionMade,
			Data: map[string]interface{}{
				"conversation_id": req.ConversationId,
				"mode":            res.Mode,
				"category":        res.Category,
				"confidence_tier": res.ConfidenceTier,
				"reason":          res.Reason,
				"degraded":        res.Degraded,
				"latency_ms":      res.LatencyMs,
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("RouterService", "Failed to publish decision event", map[string]interface{}{"error": err})
		}
	}

	if s.stream != nil {
		s.stream.BroadcastDecision(res)
	}

	return res
}

func (s *routerService) auditDecision(ctx context.Context, req *dto.RouteRequest, out turnOutcome, latency time.Duration) {
	record := &entity.DecisionRecord{
		Id:             uuid.New(),
		ConversationId: req.ConversationId,
		Query:          req.Query,
		Mode:           string(out.decision.Mode),
		Tier:           string(out.decision.ConfidenceTier),
		Reason:         out.decision.Reason,
		Candidates:     out.decision.Candidates,
		GateEffects:    out.gateEffects,
		Degraded:       out.degraded,
		LatencyMs:      int(latency.Milliseconds()),
		CreatedAt:      time.Now(),
	}
	if out.effective != req.Query {
		record.EffectiveQuery = out.effective
	}
	if out.decision.Mode == routing.ModeDirect {
		category := string(out.decision.Category)
		record.Category = &category
	}
	if out.decision.Clarification != nil {
		question := out.decision.Clarification.Question
		record.Question = &question
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.DecisionLogRepository().Create(ctx, record); err != nil {
		s.logger.Error("RouterService", "Failed to write decision audit row", map[string]interface{}{
			"conversation_id": req.ConversationId,
			"error":           err,
		})
	}
}

func (s *routerService) Pending(ctx context.Context, conversationId string) (*dto.PendingClarificationResponse, error) {
	pending, ok := s.dialogue.Pending(conversationId)
	if !ok {
		return nil, nil
	}

	ttl := s.policies.Current().Raw.ClarificationTTL()
	if s.pendingStore != nil {
		ttl = s.pendingStore.TTL()
	}
	remaining := int(ttl.Seconds()) - int(time.Since(pending.CreatedAt).Seconds())
	if remaining < 0 {
		remaining = 0
	}

	return &dto.PendingClarificationResponse{
		ConversationId:   pending.ConversationId,
		Question:         pending.Question,
		Choices:          toChoiceDTOs(pending.Choices),
		Phase:            string(pending.Phase),
		CreatedAt:        pending.CreatedAt,
		ExpiresInSeconds: remaining,
	}, nil
}

// --- Decision cache ---

func (s *routerService) decisionCacheKey(effective string) string {
	digest := sha256.Sum256([]byte(strings.ToLower(strings.TrimSpace(effective))))
	return fmt.Sprintf("route:%x:%s:%d", digest[:12], s.prototypes.Snapshot().Version(), s.policies.Generation())
}

func (s *routerService) cachedDecision(ctx context.Context, key string) (routing.RoutingDecision, bool) {
	var empty routing.RoutingDecision
	if s.cache == nil {
		return empty, false
	}
	data, err := s.cache.Get(ctx, key).Bytes()
	if err != nil {
		return empty, false
	}
	var cached routing.RoutingDecision
	if err := json.Unmarshal(data, &cached); err != nil {
		return empty, false
	}
	return cached, true
}

func (s *routerService) fillCache(ctx context.Context, key string, d routing.RoutingDecision) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(d)
	if err != nil {
		return
	}
	if err := s.cache.Set(ctx, key, data, decisionCacheTTL).Err(); err != nil {
		s.logger.Debug("RouterService", "Decision cache write failed", map[string]interface{}{"error": err})
	}
}

// --- DTO mapping ---

func toRouteResponse(conversationId string, d routing.RoutingDecision, degraded bool, latency time.Duration) *dto.RouteResponse {
	res := &dto.RouteResponse{
		ConversationId: conversationId,
		Mode:           string(d.Mode),
		Category:       string(d.Category),
		ConfidenceTier: string(d.ConfidenceTier),
		Reason:         d.Reason,
		Candidates:     toCandidateDTOs(d.Candidates),
		Degraded:       degraded,
		LatencyMs:      latency.Milliseconds(),
	}
	if d.Clarification != nil {
		res.Clarification = &dto.ClarificationDTO{
			Question: d.Clarification.Question,
			Choices:  toChoiceDTOs(d.Clarification.Choices),
		}
	}
	return res
}

func toCandidateDTOs(candidates []routing.Candidate) []dto.CandidateDTO {
	out := make([]dto.CandidateDTO, len(candidates))
	for i, c := range candidates {
		out[i] = dto.CandidateDTO{
			Category:    string(c.Category),
			Score:       c.Score,
			MatchedText: c.MatchedText,
		}
	}
	return out
}

func toChoiceDTOs(choices []routing.ClarificationChoice) []dto.ClarificationChoiceDTO {
	out := make([]dto.ClarificationChoiceDTO, len(choices))
	for i, choice := range choices {
		out[i] = dto.ClarificationChoiceDTO{
			Id:    choice.Id,
			Label: choice.Label,
		}
		if choice.Category != nil {
			category := string(*choice.Category)
			out[i].Category = &category
		}
	}
	return out
}
