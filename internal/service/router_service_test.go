package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-deskmate-be/internal/config"
	"ai-deskmate-be/internal/dto"
	"ai-deskmate-be/internal/entity"
	"ai-deskmate-be/internal/pkg/logger"
	"ai-deskmate-be/internal/repository/contract"
	"ai-deskmate-be/internal/repository/memory"
	"ai-deskmate-be/internal/repository/specification"
	"ai-deskmate-be/internal/repository/unitofwork"
	"ai-deskmate-be/pkg/embedding"
	"ai-deskmate-be/pkg/llm"
	"ai-deskmate-be/pkg/prototype"
	"ai-deskmate-be/pkg/routing"
	"ai-deskmate-be/pkg/routing/dialogue"

	"github.com/google/uuid"
)

// --- fakes ---

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }
func (nopLogger) GetLogs(level string, limit, offset int) ([]logger.LogEntry, error) {
	return nil, nil
}
func (nopLogger) GetLogById(id string) (*logger.LogEntry, error) { return nil, nil }

type fakeDecisionLog struct {
	mu      sync.Mutex
	records []*entity.DecisionRecord
}

func (f *fakeDecisionLog) Create(ctx context.Context, record *entity.DecisionRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.records = append(f.records, record)
	return nil
}

func (f *fakeDecisionLog) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.DecisionRecord, error) {
	return nil, nil
}

func (f *fakeDecisionLog) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	return 0, nil
}

func (f *fakeDecisionLog) FindByConversation(ctx context.Context, conversationId string, limit int) ([]*entity.DecisionRecord, error) {
	return nil, nil
}

func (f *fakeDecisionLog) VolumeSince(ctx context.Context, since time.Time) ([]contract.CategoryVolume, error) {
	return nil, nil
}

func (f *fakeDecisionLog) all() []*entity.DecisionRecord {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.DecisionRecord, len(f.records))
	copy(out, f.records)
	return out
}

type fakeUow struct {
	decisions  *fakeDecisionLog
	operators  *fakeOperatorRepo
	settings   *fakeSettingRepo
	prototypes *fakePrototypeRepo
}

func (f *fakeUow) Begin(ctx context.Context) error { return nil }
func (f *fakeUow) Commit() error                   { return nil }
func (f *fakeUow) Rollback() error                 { return nil }

func (f *fakeUow) PrototypeRepository() contract.PrototypeRepository {
	if f.prototypes == nil {
		return nil
	}
	return f.prototypes
}

func (f *fakeUow) DecisionLogRepository() contract.DecisionLogRepository { return f.decisions }

func (f *fakeUow) OperatorRepository() contract.OperatorRepository {
	if f.operators == nil {
		return nil
	}
	return f.operators
}

func (f *fakeUow) RoutingSettingRepository() contract.RoutingSettingRepository {
	if f.settings == nil {
		return nil
	}
	return f.settings
}

type fakeUowFactory struct {
	uow *fakeUow
}

func (f *fakeUowFactory) NewUnitOfWork(ctx context.Context) unitofwork.UnitOfWork { return f.uow }

// stubEmbedder maps exact query text to a prepared vector. Unknown text is an
// error, which the matcher surfaces as a degraded turn; tests register every
// text they expect the pipeline to embed.
type stubEmbedder struct {
	mu      sync.Mutex
	vectors map[string][]float32
	err     error
	calls   int
}

func (s *stubEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	s.mu.Lock()
	s.calls++
	err := s.err
	vec, ok := s.vectors[text]
	s.mu.Unlock()

	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("no stub vector for %q", text)
	}
	return &embedding.EmbeddingResponse{
		Embedding: embedding.EmbeddingResponseEmbedding{Values: vec},
	}, nil
}

func (s *stubEmbedder) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type stubLLM struct {
	mu       sync.Mutex
	response string
	err      error
	calls    int
}

func (s *stubLLM) answer() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.response, s.err
}

func (s *stubLLM) Chat(ctx context.Context, history []llm.Message, options ...llm.Option) (string, error) {
	return s.answer()
}

func (s *stubLLM) Generate(ctx context.Context, prompt string, options ...llm.Option) (string, error) {
	return s.answer()
}

func (s *stubLLM) callCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

type captureStream struct {
	mu        sync.Mutex
	broadcast []*dto.RouteResponse
}

func (c *captureStream) BroadcastDecision(res *dto.RouteResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.broadcast = append(c.broadcast, res)
}

func (c *captureStream) count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.broadcast)
}

// --- vector fixtures ---

// The test snapshot anchors each category on its own axis of an 8-dim space;
// the 8th axis absorbs leftover mass. queryVector then produces a unit vector
// whose cosine against each category is exactly the requested score.
func categoryAxis(category routing.Category) int {
	for i, c := range routing.AllCategories() {
		if c == category {
			return i
		}
	}
	return -1
}

func axisVector(category routing.Category) []float32 {
	vec := make([]float32, 8)
	vec[categoryAxis(category)] = 1
	return vec
}

func queryVector(scores map[routing.Category]float64) []float32 {
	vec := make([]float32, 8)
	var sumsq float64
	for category, score := range scores {
		vec[categoryAxis(category)] = float32(score)
		sumsq += score * score
	}
	vec[7] = float32(math.Sqrt(1 - sumsq))
	return vec
}

func testSnapshot(t *testing.T) *prototype.Snapshot {
	t.Helper()
	examples := make([]prototype.Example, 0, len(routing.AllCategories()))
	for _, category := range routing.AllCategories() {
		examples = append(examples, prototype.Example{
			Category:  category,
			Text:      "proto " + string(category),
			Embedding: axisVector(category),
			Weight:    1,
		})
	}
	snap, err := prototype.NewSnapshot("test-v1", examples)
	if err != nil {
		t.Fatalf("test snapshot: %v", err)
	}
	return snap
}

// --- fixture ---

type routerFixture struct {
	svc       IRouterService
	embedder  *stubEmbedder
	llm       *stubLLM
	decisions *fakeDecisionLog
	machine   *dialogue.Machine
	pending   *memory.ClarificationRepository
	stream    *captureStream
}

func newRouterFixture(t *testing.T) *routerFixture {
	embedder := &stubEmbedder{vectors: map[string][]float32{}}
	return newRouterFixtureWith(t, embedder)
}

func newRouterFixtureWith(t *testing.T, embedder *stubEmbedder) *routerFixture {
	t.Helper()

	store, err := prototype.NewStore(testSnapshot(t))
	if err != nil {
		t.Fatalf("prototype store: %v", err)
	}

	compiled, err := config.CompilePolicy(config.DefaultRoutingPolicy())
	if err != nil {
		t.Fatalf("compile policy: %v", err)
	}
	holder, err := config.NewPolicyHolder(compiled)
	if err != nil {
		t.Fatalf("policy holder: %v", err)
	}

	pendingStore := memory.NewClarificationRepository(2*time.Second, nil)
	machine := dialogue.NewMachine(pendingStore)
	t.Cleanup(machine.Close)

	llmStub := &stubLLM{err: errors.New("model offline")}
	decisions := &fakeDecisionLog{}
	stream := &captureStream{}

	svc := NewRouterService(
		&fakeUowFactory{uow: &fakeUow{decisions: decisions}},
		holder,
		store,
		embedder,
		llmStub,
		machine,
		pendingStore,
		nil,
		nil,
		stream,
		nopLogger{},
	)

	return &routerFixture{
		svc:       svc,
		embedder:  embedder,
		llm:       llmStub,
		decisions: decisions,
		machine:   machine,
		pending:   pendingStore,
		stream:    stream,
	}
}

func (f *routerFixture) route(conversationId, query string) *dto.RouteResponse {
	return f.svc.Route(context.Background(), &dto.RouteRequest{
		ConversationId: conversationId,
		Query:          query,
	})
}

// --- tests ---

func TestRouteHighConfidenceDirect(t *testing.T) {
	fix := newRouterFixture(t)
	query := "can i get a charger for my dell"
	fix.embedder.vectors[query] = queryVector(map[routing.Category]float64{
		routing.CategoryEquipmentLoan: 0.90,
		routing.CategoryTechSupport:   0.30,
	})

	res := fix.route("conv-high", query)

	if res.Mode != "direct" {
		t.Fatalf("mode = %s, want direct", res.Mode)
	}
	if res.Category != "equipment-loan" {
		t.Errorf("category = %s, want equipment-loan", res.Category)
	}
	if res.ConfidenceTier != "high" {
		t.Errorf("tier = %s, want high", res.ConfidenceTier)
	}
	if res.Reason != routing.ReasonHighConfidence {
		t.Errorf("reason = %s, want %s", res.Reason, routing.ReasonHighConfidence)
	}
	if len(res.Candidates) == 0 {
		t.Error("expected candidates on a matcher-backed decision")
	}
	if fix.llm.callCount() != 0 {
		t.Errorf("llm called %d times on a confident turn", fix.llm.callCount())
	}

	records := fix.decisions.all()
	if len(records) != 1 {
		t.Fatalf("audit rows = %d, want 1", len(records))
	}
	if records[0].Category == nil || *records[0].Category != "equipment-loan" {
		t.Errorf("audit category = %v, want equipment-loan", records[0].Category)
	}
	if records[0].EffectiveQuery != "" {
		t.Errorf("effective query should be empty when it equals the query, got %q", records[0].EffectiveQuery)
	}
	if fix.stream.count() != 1 {
		t.Errorf("broadcasts = %d, want 1", fix.stream.count())
	}
}

func TestRouteHintBypassesPipeline(t *testing.T) {
	fix := newRouterFixture(t)

	res := fix.svc.Route(context.Background(), &dto.RouteRequest{
		ConversationId: "conv-hint",
		Query:          "whatever the text says",
		RouteHint:      "room-booking",
	})

	if res.Mode != "direct" || res.Category != "room-booking" {
		t.Fatalf("got mode=%s category=%s, want direct room-booking", res.Mode, res.Category)
	}
	if res.Reason != routing.ReasonRouteHint {
		t.Errorf("reason = %s, want %s", res.Reason, routing.ReasonRouteHint)
	}
	if fix.embedder.callCount() != 0 {
		t.Errorf("embedder called %d times, hint must not touch the matcher", fix.embedder.callCount())
	}
}

func TestUnknownRouteHintFallsThrough(t *testing.T) {
	fix := newRouterFixture(t)
	query := "what can i read about glaciers"
	fix.embedder.vectors[query] = queryVector(map[routing.Category]float64{
		routing.CategoryDocumentSearch: 0.88,
	})

	res := fix.svc.Route(context.Background(), &dto.RouteRequest{
		ConversationId: "conv-bad-hint",
		Query:          query,
		RouteHint:      "basketball",
	})

	if res.Category != "document-search" || res.Reason != routing.ReasonHighConfidence {
		t.Fatalf("got category=%s reason=%s, want the pipeline verdict", res.Category, res.Reason)
	}
}

func TestGateShortCircuitSkipsEmbedding(t *testing.T) {
	fix := newRouterFixture(t)

	res := fix.route("conv-gate", "i got a parking ticket on campus")

	if res.Mode != "direct" || res.Category != "human-handoff" {
		t.Fatalf("got mode=%s category=%s, want direct human-handoff", res.Mode, res.Category)
	}
	if res.Reason != "gate:campus-administrative" {
		t.Errorf("reason = %s, want gate:campus-administrative", res.Reason)
	}
	if res.ConfidenceTier != "high" {
		t.Errorf("tier = %s, want high", res.ConfidenceTier)
	}
	if fix.embedder.callCount() != 0 {
		t.Errorf("embedder called %d times on a short-circuited turn", fix.embedder.callCount())
	}
	if fix.llm.callCount() != 0 {
		t.Errorf("llm called %d times on a short-circuited turn", fix.llm.callCount())
	}
}

func TestNearTieClarifiesWithModelQuestion(t *testing.T) {
	fix := newRouterFixture(t)
	query := "something about a laptop"
	fix.embedder.vectors[query] = queryVector(map[routing.Category]float64{
		routing.CategoryEquipmentLoan: 0.70,
		routing.CategoryTechSupport:   0.68,
	})
	fix.llm.response = `{"question":"Do you want to take a laptop home, or is yours misbehaving?","options":[{"label":"Take one home","category":"equipment-loan"},{"label":"Mine is misbehaving","category":"tech-support"}]}`
	fix.llm.err = nil

	res := fix.route("conv-tie", query)

	if res.Mode != "clarify" {
		t.Fatalf("mode = %s, want clarify", res.Mode)
	}
	if res.Reason != routing.ReasonNearTie {
		t.Errorf("reason = %s, want %s", res.Reason, routing.ReasonNearTie)
	}
	if res.Clarification == nil {
		t.Fatal("clarify response carries no clarification")
	}
	if res.Clarification.Question != "Do you want to take a laptop home, or is yours misbehaving?" {
		t.Errorf("unexpected question %q", res.Clarification.Question)
	}

	choices := res.Clarification.Choices
	if len(choices) != 3 {
		t.Fatalf("choices = %d, want 2 substantive + sentinel", len(choices))
	}
	last := choices[len(choices)-1]
	if last.Id != routing.SentinelChoiceId || last.Category != nil {
		t.Errorf("last choice = %+v, want the sentinel with nil category", last)
	}

	pending, ok := fix.machine.Pending("conv-tie")
	if !ok {
		t.Fatal("no pending clarification stored")
	}
	if pending.Phase != dialogue.PhasePending {
		t.Errorf("phase = %s, want %s", pending.Phase, dialogue.PhasePending)
	}
	if pending.OriginalQuery != query {
		t.Errorf("original query = %q, want %q", pending.OriginalQuery, query)
	}
}

func TestClarifyFallsBackWhenModelFails(t *testing.T) {
	fix := newRouterFixture(t)
	query := "something about a laptop"
	fix.embedder.vectors[query] = queryVector(map[routing.Category]float64{
		routing.CategoryEquipmentLoan: 0.70,
		routing.CategoryTechSupport:   0.68,
	})
	// fixture default: llm errors

	res := fix.route("conv-tie-fb", query)

	if res.Mode != "clarify" {
		t.Fatalf("mode = %s, want clarify", res.Mode)
	}
	if res.Reason != routing.ReasonClarifyFallback {
		t.Errorf("reason = %s, want %s", res.Reason, routing.ReasonClarifyFallback)
	}
	if res.Clarification == nil || res.Clarification.Question == "" {
		t.Fatal("fallback clarification must still carry a question")
	}
	if res.Clarification.Choices[0].Category == nil || *res.Clarification.Choices[0].Category != "equipment-loan" {
		t.Errorf("first template choice = %+v, want the top candidate", res.Clarification.Choices[0])
	}
	if _, ok := fix.machine.Pending("conv-tie-fb"); !ok {
		t.Error("fallback clarification was not stored as pending")
	}
}

func TestUncertainArbitration(t *testing.T) {
	scores := map[routing.Category]float64{
		routing.CategoryDocumentSearch:  0.55,
		routing.CategorySubjectMatching: 0.40,
	}

	t.Run("model pick", func(t *testing.T) {
		fix := newRouterFixture(t)
		query := "i am stuck with my thesis sources"
		fix.embedder.vectors[query] = queryVector(scores)
		fix.llm.response = `{"category":"subject-matching","justification":"they need a librarian, not a search box"}`
		fix.llm.err = nil

		res := fix.route("conv-arb", query)

		if res.Mode != "direct" || res.Category != "subject-matching" {
			t.Fatalf("got mode=%s category=%s, want direct subject-matching", res.Mode, res.Category)
		}
		if res.ConfidenceTier != "medium" {
			t.Errorf("tier = %s, want medium", res.ConfidenceTier)
		}
		if res.Reason != routing.ReasonArbitration {
			t.Errorf("reason = %s, want %s", res.Reason, routing.ReasonArbitration)
		}
		if fix.llm.callCount() != 1 {
			t.Errorf("llm calls = %d, want 1", fix.llm.callCount())
		}
	})

	t.Run("fallback to top candidate", func(t *testing.T) {
		fix := newRouterFixture(t)
		query := "i am stuck with my thesis sources"
		fix.embedder.vectors[query] = queryVector(scores)

		res := fix.route("conv-arb-fb", query)

		if res.Mode != "direct" || res.Category != "document-search" {
			t.Fatalf("got mode=%s category=%s, want direct document-search", res.Mode, res.Category)
		}
		if res.ConfidenceTier != "low" {
			t.Errorf("tier = %s, want low", res.ConfidenceTier)
		}
		if res.Reason != routing.ReasonArbitrationFallback {
			t.Errorf("reason = %s, want %s", res.Reason, routing.ReasonArbitrationFallback)
		}
	})
}

func TestChoiceReplyRoutesWithoutPipeline(t *testing.T) {
	fix := newRouterFixture(t)
	query := "something about a laptop"
	fix.embedder.vectors[query] = queryVector(map[routing.Category]float64{
		routing.CategoryEquipmentLoan: 0.70,
		routing.CategoryTechSupport:   0.68,
	})

	first := fix.route("conv-choice", query)
	if first.Mode != "clarify" {
		t.Fatalf("setup: mode = %s, want clarify", first.Mode)
	}
	embedsAfterClarify := fix.embedder.callCount()

	res := fix.svc.Route(context.Background(), &dto.RouteRequest{
		ConversationId: "conv-choice",
		Query:          "",
		ChoiceId:       first.Clarification.Choices[0].Id,
	})

	if res.Mode != "direct" || res.Category != "equipment-loan" {
		t.Fatalf("got mode=%s category=%s, want direct equipment-loan", res.Mode, res.Category)
	}
	if res.ConfidenceTier != "high" {
		t.Errorf("tier = %s, want high", res.ConfidenceTier)
	}
	if res.Reason != routing.ReasonClarificationChoice {
		t.Errorf("reason = %s, want %s", res.Reason, routing.ReasonClarificationChoice)
	}
	if fix.embedder.callCount() != embedsAfterClarify {
		t.Error("a choice reply must not re-run the matcher")
	}
	if _, ok := fix.machine.Pending("conv-choice"); ok {
		t.Error("pending clarification should be consumed by the choice")
	}

	records := fix.decisions.all()
	if len(records) != 2 {
		t.Fatalf("audit rows = %d, want 2", len(records))
	}
	if records[1].EffectiveQuery != query {
		t.Errorf("choice turn effective query = %q, want the stored original %q", records[1].EffectiveQuery, query)
	}
}

func TestSentinelThenElaborationReroutesMergedQuery(t *testing.T) {
	fix := newRouterFixture(t)
	query := "laptops"
	fix.embedder.vectors[query] = queryVector(map[routing.Category]float64{
		routing.CategoryEquipmentLoan: 0.70,
		routing.CategoryTechSupport:   0.68,
	})

	first := fix.route("conv-sentinel", query)
	if first.Mode != "clarify" {
		t.Fatalf("setup: mode = %s, want clarify", first.Mode)
	}

	second := fix.svc.Route(context.Background(), &dto.RouteRequest{
		ConversationId: "conv-sentinel",
		Query:          "",
		ChoiceId:       routing.SentinelChoiceId,
	})
	if second.Mode != "clarify" {
		t.Fatalf("sentinel turn mode = %s, want clarify", second.Mode)
	}
	if second.Reason != routing.ReasonElaborationRequested {
		t.Errorf("sentinel reason = %s, want %s", second.Reason, routing.ReasonElaborationRequested)
	}
	pending, ok := fix.machine.Pending("conv-sentinel")
	if !ok || pending.Phase != dialogue.PhaseAwaitingElaboration {
		t.Fatalf("pending after sentinel = %+v ok=%v, want phase %s", pending, ok, dialogue.PhaseAwaitingElaboration)
	}

	elaboration := "i want to take one home for the weekend"
	merged := query + ". " + elaboration
	fix.embedder.vectors[merged] = queryVector(map[routing.Category]float64{
		routing.CategoryEquipmentLoan: 0.92,
	})

	third := fix.route("conv-sentinel", elaboration)
	if third.Mode != "direct" || third.Category != "equipment-loan" {
		t.Fatalf("elaborated turn = mode=%s category=%s, want direct equipment-loan", third.Mode, third.Category)
	}

	records := fix.decisions.all()
	last := records[len(records)-1]
	if last.EffectiveQuery != merged {
		t.Errorf("effective query = %q, want merged %q", last.EffectiveQuery, merged)
	}
	if last.Query != elaboration {
		t.Errorf("query = %q, want the raw message %q", last.Query, elaboration)
	}
}

func TestFreeTextOverPendingAbandonsIt(t *testing.T) {
	fix := newRouterFixture(t)
	query := "something about a laptop"
	fix.embedder.vectors[query] = queryVector(map[routing.Category]float64{
		routing.CategoryEquipmentLoan: 0.70,
		routing.CategoryTechSupport:   0.68,
	})

	if res := fix.route("conv-abandon", query); res.Mode != "clarify" {
		t.Fatalf("setup: mode = %s, want clarify", res.Mode)
	}

	fresh := "what are your opening hours"
	res := fix.route("conv-abandon", fresh)

	// The gate's fast path answers this one; the point is the pending record
	// is gone and the new text was processed as a brand-new query.
	if res.Mode != "direct" || res.Category != "opening-hours" {
		t.Fatalf("got mode=%s category=%s, want direct opening-hours", res.Mode, res.Category)
	}
	if _, ok := fix.machine.Pending("conv-abandon"); ok {
		t.Error("abandoned clarification still pending")
	}
}

func TestStaleChoiceWithoutPendingRunsPipeline(t *testing.T) {
	fix := newRouterFixture(t)
	query := "what can i read about glaciers"
	fix.embedder.vectors[query] = queryVector(map[routing.Category]float64{
		routing.CategoryDocumentSearch: 0.88,
	})

	res := fix.svc.Route(context.Background(), &dto.RouteRequest{
		ConversationId: "conv-stale",
		Query:          query,
		ChoiceId:       "choice-1",
	})

	if res.Mode != "direct" || res.Category != "document-search" {
		t.Fatalf("got mode=%s category=%s, want the pipeline verdict", res.Mode, res.Category)
	}
	if res.Reason != routing.ReasonHighConfidence {
		t.Errorf("reason = %s, want %s", res.Reason, routing.ReasonHighConfidence)
	}
}

func TestDegradedEmbedderClarifiesGenerically(t *testing.T) {
	fix := newRouterFixture(t)
	fix.embedder.err = errors.New("embedding backend down")

	res := fix.route("conv-degraded", "where do i find old newspapers")

	if res.Mode != "clarify" {
		t.Fatalf("mode = %s, want clarify", res.Mode)
	}
	if !res.Degraded {
		t.Error("degraded flag not set")
	}
	// The zero-evidence question is the canned one, so it reports as fallback.
	if res.Reason != routing.ReasonClarifyFallback {
		t.Errorf("reason = %s, want %s", res.Reason, routing.ReasonClarifyFallback)
	}
	if res.Clarification == nil || len(res.Clarification.Choices) == 0 {
		t.Fatal("degraded turn must still ask a usable question")
	}
	if fix.llm.callCount() != 0 {
		t.Errorf("llm calls = %d, the zero-evidence fallback needs no model", fix.llm.callCount())
	}
	if _, ok := fix.machine.Pending("conv-degraded"); !ok {
		t.Error("degraded clarification was not stored as pending")
	}
}

// blockingEmbedder parks the first Generate call until released; later calls
// pass straight through. This freezes one in-flight turn while a newer one
// overtakes it.
type blockingEmbedder struct {
	inner   *stubEmbedder
	mu      sync.Mutex
	blocked bool
	entered chan struct{}
	release chan struct{}
}

func (b *blockingEmbedder) Generate(ctx context.Context, text string, taskType string) (*embedding.EmbeddingResponse, error) {
	b.mu.Lock()
	first := !b.blocked
	b.blocked = true
	b.mu.Unlock()
	if first {
		close(b.entered)
		<-b.release
	}
	return b.inner.Generate(ctx, text, taskType)
}

func TestSupersededTurnIsNotRecorded(t *testing.T) {
	slowQuery := "what can i read about glaciers"
	fastQuery := "can i get a charger for my dell"
	inner := &stubEmbedder{vectors: map[string][]float32{
		slowQuery: queryVector(map[routing.Category]float64{routing.CategoryDocumentSearch: 0.88}),
		fastQuery: queryVector(map[routing.Category]float64{routing.CategoryEquipmentLoan: 0.90}),
	}}
	blocking := &blockingEmbedder{
		inner:   inner,
		entered: make(chan struct{}),
		release: make(chan struct{}),
	}

	fix := newRouterFixtureWith(t, inner)
	// Swap in the blocking wrapper around the same stub.
	fix.svc = NewRouterService(
		&fakeUowFactory{uow: &fakeUow{decisions: fix.decisions}},
		mustPolicies(t),
		mustStore(t),
		blocking,
		fix.llm,
		fix.machine,
		fix.pending,
		nil,
		nil,
		fix.stream,
		nopLogger{},
	)

	done := make(chan *dto.RouteResponse, 1)
	go func() {
		done <- fix.route("conv-race", slowQuery)
	}()
	<-blocking.entered

	fast := fix.route("conv-race", fastQuery)
	close(blocking.release)
	slow := <-done

	if fast.Reason != routing.ReasonHighConfidence || fast.Category != "equipment-loan" {
		t.Fatalf("fast turn = reason=%s category=%s, want the normal verdict", fast.Reason, fast.Category)
	}
	if slow.Reason != routing.ReasonSuperseded {
		t.Errorf("slow turn reason = %s, want %s", slow.Reason, routing.ReasonSuperseded)
	}

	records := fix.decisions.all()
	if len(records) != 1 {
		t.Fatalf("audit rows = %d, want only the fast turn", len(records))
	}
	if records[0].Query != fastQuery {
		t.Errorf("recorded query = %q, want %q", records[0].Query, fastQuery)
	}
	if fix.stream.count() != 1 {
		t.Errorf("broadcasts = %d, superseded turns must not reach the stream", fix.stream.count())
	}
}

func mustPolicies(t *testing.T) *config.PolicyHolder {
	t.Helper()
	compiled, err := config.CompilePolicy(config.DefaultRoutingPolicy())
	if err != nil {
		t.Fatalf("compile policy: %v", err)
	}
	holder, err := config.NewPolicyHolder(compiled)
	if err != nil {
		t.Fatalf("policy holder: %v", err)
	}
	return holder
}

func mustStore(t *testing.T) *prototype.Store {
	t.Helper()
	store, err := prototype.NewStore(testSnapshot(t))
	if err != nil {
		t.Fatalf("prototype store: %v", err)
	}
	return store
}

func TestPendingReportsOpenClarification(t *testing.T) {
	fix := newRouterFixture(t)
	query := "something about a laptop"
	fix.embedder.vectors[query] = queryVector(map[routing.Category]float64{
		routing.CategoryEquipmentLoan: 0.70,
		routing.CategoryTechSupport:   0.68,
	})

	if res := fix.route("conv-pending", query); res.Mode != "clarify" {
		t.Fatalf("setup: mode = %s, want clarify", res.Mode)
	}

	pending, err := fix.svc.Pending(context.Background(), "conv-pending")
	if err != nil {
		t.Fatalf("pending: %v", err)
	}
	if pending == nil {
		t.Fatal("pending = nil, want the open clarification")
	}
	if pending.Question == "" || len(pending.Choices) == 0 {
		t.Errorf("pending = %+v, missing question or choices", pending)
	}
	if pending.Phase != string(dialogue.PhasePending) {
		t.Errorf("phase = %s, want %s", pending.Phase, dialogue.PhasePending)
	}
	if pending.ExpiresInSeconds <= 0 || pending.ExpiresInSeconds > 2 {
		t.Errorf("expires in = %d, want within the 2s ttl", pending.ExpiresInSeconds)
	}

	none, err := fix.svc.Pending(context.Background(), "conv-without-pending")
	if err != nil {
		t.Fatalf("pending on empty conversation: %v", err)
	}
	if none != nil {
		t.Errorf("pending = %+v, want nil for a conversation without state", none)
	}
}

func TestAuditRowCarriesGateAndQuestion(t *testing.T) {
	fix := newRouterFixture(t)
	// "broken" trips the ambiguity trigger, "printer" has no strong anchor.
	query := "my printer thing is broken"
	fix.embedder.vectors[query] = queryVector(map[routing.Category]float64{
		routing.CategoryTechSupport:   0.55,
		routing.CategoryEquipmentLoan: 0.40,
	})

	res := fix.route("conv-audit", query)

	if res.Mode != "clarify" {
		t.Fatalf("mode = %s, want clarify (forced by the gate)", res.Mode)
	}
	if res.Reason != routing.ReasonClarifyFallback {
		t.Errorf("reason = %s, want %s (model offline)", res.Reason, routing.ReasonClarifyFallback)
	}

	records := fix.decisions.all()
	if len(records) != 1 {
		t.Fatalf("audit rows = %d, want 1", len(records))
	}
	row := records[0]
	if row.GateEffects != "symptom-without-action" {
		t.Errorf("gate effects = %q, want the matched rule name", row.GateEffects)
	}
	if row.Question == nil || *row.Question == "" {
		t.Error("clarify audit row carries no question")
	}
	if row.Category != nil {
		t.Errorf("clarify audit row category = %v, want nil", *row.Category)
	}
	if strings.HasPrefix(row.Reason, "gate:") {
		t.Errorf("reason %q looks like a short-circuit, the gate only forced arbitration here", row.Reason)
	}
	if row.Id == uuid.Nil {
		t.Error("audit row id not assigned")
	}
}
