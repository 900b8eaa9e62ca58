package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"ai-deskmate-be/internal/config"
	"ai-deskmate-be/internal/dto"
	"ai-deskmate-be/internal/entity"
	"ai-deskmate-be/internal/repository/contract"
	"ai-deskmate-be/internal/repository/specification"
	"ai-deskmate-be/pkg/prototype"
	"ai-deskmate-be/pkg/routing"
	"ai-deskmate-be/pkg/routing/decision"
	"ai-deskmate-be/pkg/routing/gate"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

// --- in-memory repositories ---

type fakeOperatorRepo struct {
	mu   sync.Mutex
	rows []*entity.Operator
}

func (f *fakeOperatorRepo) Create(ctx context.Context, operator *entity.Operator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, operator)
	return nil
}

func (f *fakeOperatorRepo) Update(ctx context.Context, operator *entity.Operator) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, row := range f.rows {
		if row.Id == operator.Id {
			f.rows[i] = operator
			return nil
		}
	}
	return errors.New("operator not found")
}

func (f *fakeOperatorRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, row := range f.rows {
		if row.Id == id {
			f.rows = append(f.rows[:i], f.rows[i+1:]...)
			return nil
		}
	}
	return errors.New("operator not found")
}

func (f *fakeOperatorRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.Operator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if operatorMatches(row, specs) {
			return row, nil
		}
	}
	return nil, nil
}

func (f *fakeOperatorRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.Operator, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.Operator
	for _, row := range f.rows {
		if operatorMatches(row, specs) {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakeOperatorRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	rows, err := f.FindAll(ctx, specs...)
	return int64(len(rows)), err
}

func operatorMatches(operator *entity.Operator, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if operator.Id != s.ID {
				return false
			}
		case specification.ByEmail:
			if operator.Email != s.Email {
				return false
			}
		case specification.FilterBy:
			switch s.Field {
			case "role":
				if string(operator.Role) != fmt.Sprint(s.Value) {
					return false
				}
			case "status":
				if string(operator.Status) != fmt.Sprint(s.Value) {
					return false
				}
			}
		}
	}
	return true
}

type fakeSettingRepo struct {
	mu        sync.Mutex
	rows      map[string]*entity.RoutingSetting
	upsertErr error
}

func (f *fakeSettingRepo) Upsert(ctx context.Context, setting *entity.RoutingSetting) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if f.rows == nil {
		f.rows = map[string]*entity.RoutingSetting{}
	}
	f.rows[setting.Key] = setting
	return nil
}

func (f *fakeSettingRepo) FindByKey(ctx context.Context, key string) (*entity.RoutingSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.rows[key], nil
}

func (f *fakeSettingRepo) FindAll(ctx context.Context) ([]*entity.RoutingSetting, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]*entity.RoutingSetting, 0, len(f.rows))
	for _, row := range f.rows {
		out = append(out, row)
	}
	return out, nil
}

func (f *fakeSettingRepo) DeleteByKey(ctx context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.rows, key)
	return nil
}

type fakePrototypeRepo struct {
	mu      sync.Mutex
	rows    []*entity.PrototypeExample
	similar []*contract.ScoredPrototype
}

func (f *fakePrototypeRepo) Create(ctx context.Context, example *entity.PrototypeExample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, example)
	return nil
}

func (f *fakePrototypeRepo) CreateBulk(ctx context.Context, examples []*entity.PrototypeExample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.rows = append(f.rows, examples...)
	return nil
}

func (f *fakePrototypeRepo) Update(ctx context.Context, example *entity.PrototypeExample) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i, row := range f.rows {
		if row.Id == example.Id {
			f.rows[i] = example
			return nil
		}
	}
	return errors.New("prototype not found")
}

func (f *fakePrototypeRepo) Delete(ctx context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if row.Id == id {
			now := time.Now()
			row.IsDeleted = true
			row.DeletedAt = &now
			return nil
		}
	}
	return errors.New("prototype not found")
}

func (f *fakePrototypeRepo) FindOne(ctx context.Context, specs ...specification.Specification) (*entity.PrototypeExample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, row := range f.rows {
		if prototypeMatches(row, specs) {
			return row, nil
		}
	}
	return nil, nil
}

func (f *fakePrototypeRepo) FindAll(ctx context.Context, specs ...specification.Specification) ([]*entity.PrototypeExample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.PrototypeExample
	for _, row := range f.rows {
		if prototypeMatches(row, specs) {
			out = append(out, row)
		}
	}
	for _, spec := range specs {
		if p, ok := spec.(specification.Pagination); ok {
			if p.Offset >= len(out) {
				return nil, nil
			}
			out = out[p.Offset:]
			if p.Limit > 0 && len(out) > p.Limit {
				out = out[:p.Limit]
			}
		}
	}
	return out, nil
}

func (f *fakePrototypeRepo) Count(ctx context.Context, specs ...specification.Specification) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var n int64
	for _, row := range f.rows {
		if prototypeMatches(row, specs) {
			n++
		}
	}
	return n, nil
}

func (f *fakePrototypeRepo) FindActive(ctx context.Context) ([]*entity.PrototypeExample, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*entity.PrototypeExample
	for _, row := range f.rows {
		if row.Active && !row.IsDeleted {
			out = append(out, row)
		}
	}
	return out, nil
}

func (f *fakePrototypeRepo) SearchSimilar(ctx context.Context, embedding []float32, limit int) ([]*contract.ScoredPrototype, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.similar, nil
}

func prototypeMatches(row *entity.PrototypeExample, specs []specification.Specification) bool {
	for _, spec := range specs {
		switch s := spec.(type) {
		case specification.ByID:
			if row.Id != s.ID {
				return false
			}
		case specification.ByCategory:
			if row.Category != s.Category {
				return false
			}
		case specification.ActiveOnly:
			if !row.Active {
				return false
			}
		case specification.NotDeleted:
			if row.IsDeleted {
				return false
			}
		case specification.TextContains:
			if !strings.Contains(strings.ToLower(row.Text), strings.ToLower(s.Needle)) {
				return false
			}
		}
	}
	return true
}

type capturePublisher struct {
	mu       sync.Mutex
	payloads [][]byte
}

func (c *capturePublisher) Publish(ctx context.Context, payload []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, payload)
	return nil
}

func (c *capturePublisher) all() [][]byte {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([][]byte, len(c.payloads))
	copy(out, c.payloads)
	return out
}

// --- fixture ---

type adminFixture struct {
	svc        IAdminService
	operators  *fakeOperatorRepo
	settings   *fakeSettingRepo
	protoRepo  *fakePrototypeRepo
	refreshes  *capturePublisher
	store      *prototype.Store
	holder     *config.PolicyHolder
	embedder   *stubEmbedder
	policyPath string
}

func newAdminFixture(t *testing.T) *adminFixture {
	t.Helper()

	embedder := &stubEmbedder{vectors: map[string][]float32{}}

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

	operators := &fakeOperatorRepo{}
	settings := &fakeSettingRepo{}
	protoRepo := &fakePrototypeRepo{}
	factory := &fakeUowFactory{uow: &fakeUow{
		decisions:  &fakeDecisionLog{},
		operators:  operators,
		settings:   settings,
		prototypes: protoRepo,
	}}

	refreshes := &capturePublisher{}
	catalog := NewCatalogService(factory, embedder, store, nopLogger{})
	policyPath := filepath.Join(t.TempDir(), "routing.yaml")

	svc := NewAdminService(factory, holder, policyPath, store, catalog, refreshes, nil, embedder, "test-instance", nopLogger{})

	return &adminFixture{
		svc:        svc,
		operators:  operators,
		settings:   settings,
		protoRepo:  protoRepo,
		refreshes:  refreshes,
		store:      store,
		holder:     holder,
		embedder:   embedder,
		policyPath: policyPath,
	}
}

func seedOperatorRow(t *testing.T, f *adminFixture, email string, role entity.OperatorRole) *entity.Operator {
	t.Helper()
	hash := "seeded"
	operator := &entity.Operator{
		Id:           uuid.New(),
		Email:        email,
		PasswordHash: &hash,
		FullName:     "Seeded Operator",
		Role:         role,
		Status:       entity.OperatorStatusActive,
		CreatedAt:    time.Now(),
	}
	if err := f.operators.Create(context.Background(), operator); err != nil {
		t.Fatalf("seed operator: %v", err)
	}
	return operator
}

func seedPrototypeRow(t *testing.T, f *adminFixture, category routing.Category, text string) *entity.PrototypeExample {
	t.Helper()
	row := &entity.PrototypeExample{
		Id:        uuid.New(),
		Category:  string(category),
		Text:      text,
		Weight:    1,
		Active:    true,
		CreatedAt: time.Now(),
	}
	if err := f.protoRepo.Create(context.Background(), row); err != nil {
		t.Fatalf("seed prototype: %v", err)
	}
	return row
}

// --- operators ---

func TestCreateOperatorStoresBcryptHash(t *testing.T) {
	f := newAdminFixture(t)

	res, err := f.svc.CreateOperator(context.Background(), &dto.CreateOperatorRequest{
		Email:    "desk@library.edu",
		Password: "super-secret-1",
		FullName: "Front Desk",
		Role:     "admin",
	})
	if err != nil {
		t.Fatalf("CreateOperator: %v", err)
	}

	stored, err := f.operators.FindOne(context.Background(), specification.ByID{ID: res.Id})
	if err != nil || stored == nil {
		t.Fatalf("stored operator missing: %v", err)
	}
	if stored.PasswordHash == nil || *stored.PasswordHash == "super-secret-1" {
		t.Fatal("password reached the store unhashed")
	}
	if err := bcrypt.CompareHashAndPassword([]byte(*stored.PasswordHash), []byte("super-secret-1")); err != nil {
		t.Errorf("stored hash does not verify: %v", err)
	}
	if stored.Status != entity.OperatorStatusActive {
		t.Errorf("Status = %s, want active", stored.Status)
	}
}

func TestCreateOperatorRejectsDuplicateEmail(t *testing.T) {
	f := newAdminFixture(t)
	seedOperatorRow(t, f, "desk@library.edu", entity.OperatorRoleAdmin)

	_, err := f.svc.CreateOperator(context.Background(), &dto.CreateOperatorRequest{
		Email:    "desk@library.edu",
		Password: "super-secret-1",
		FullName: "Second Account",
		Role:     "viewer",
	})
	if err == nil {
		t.Fatal("expected duplicate email rejection")
	}
}

func TestDeleteOperatorRefusesLastAdmin(t *testing.T) {
	f := newAdminFixture(t)
	admin := seedOperatorRow(t, f, "admin@library.edu", entity.OperatorRoleAdmin)
	viewer := seedOperatorRow(t, f, "viewer@library.edu", entity.OperatorRoleViewer)

	err := f.svc.DeleteOperator(context.Background(), admin.Id)
	if err == nil {
		t.Fatal("expected the last-admin guard to reject the delete")
	}
	if !strings.Contains(err.Error(), "last active admin") {
		t.Errorf("err = %v, want a last-admin message", err)
	}

	// Viewers never trip the guard.
	if err := f.svc.DeleteOperator(context.Background(), viewer.Id); err != nil {
		t.Fatalf("delete viewer: %v", err)
	}

	// A second admin lifts it.
	seedOperatorRow(t, f, "backup@library.edu", entity.OperatorRoleAdmin)
	if err := f.svc.DeleteOperator(context.Background(), admin.Id); err != nil {
		t.Fatalf("delete with a second admin present: %v", err)
	}
}

func TestUpdateOperatorRefusesDemotingLastAdmin(t *testing.T) {
	f := newAdminFixture(t)
	admin := seedOperatorRow(t, f, "admin@library.edu", entity.OperatorRoleAdmin)

	_, err := f.svc.UpdateOperator(context.Background(), admin.Id, &dto.UpdateOperatorRequest{Role: "viewer"})
	if err == nil {
		t.Fatal("expected the last-admin guard to reject the demotion")
	}
	stored, _ := f.operators.FindOne(context.Background(), specification.ByID{ID: admin.Id})
	if stored.Role != entity.OperatorRoleAdmin {
		t.Errorf("Role = %s after rejected demotion, want admin", stored.Role)
	}

	seedOperatorRow(t, f, "backup@library.edu", entity.OperatorRoleAdmin)
	if _, err := f.svc.UpdateOperator(context.Background(), admin.Id, &dto.UpdateOperatorRequest{Role: "viewer"}); err != nil {
		t.Fatalf("demote with a second admin present: %v", err)
	}
	stored, _ = f.operators.FindOne(context.Background(), specification.ByID{ID: admin.Id})
	if stored.Role != entity.OperatorRoleViewer {
		t.Errorf("Role = %s after demotion, want viewer", stored.Role)
	}
}

func TestUpdateOperatorRefusesDisablingLastAdmin(t *testing.T) {
	f := newAdminFixture(t)
	admin := seedOperatorRow(t, f, "admin@library.edu", entity.OperatorRoleAdmin)

	// Disabling is the same lockout as demoting.
	if _, err := f.svc.UpdateOperator(context.Background(), admin.Id, &dto.UpdateOperatorRequest{Status: "disabled"}); err == nil {
		t.Fatal("expected the last-admin guard to reject the disable")
	}

	// A disabled second admin does not lift the guard; an active one does.
	backup := seedOperatorRow(t, f, "backup@library.edu", entity.OperatorRoleAdmin)
	backup.Status = entity.OperatorStatusDisabled
	if _, err := f.svc.UpdateOperator(context.Background(), admin.Id, &dto.UpdateOperatorRequest{Status: "disabled"}); err == nil {
		t.Fatal("a disabled admin must not count as coverage")
	}

	backup.Status = entity.OperatorStatusActive
	if _, err := f.svc.UpdateOperator(context.Background(), admin.Id, &dto.UpdateOperatorRequest{Status: "disabled"}); err != nil {
		t.Fatalf("disable with a second active admin present: %v", err)
	}
}

// --- thresholds ---

func TestUpdateThresholdsSwapsLiveAndPersists(t *testing.T) {
	f := newAdminFixture(t)

	res, err := f.svc.UpdateThresholds(context.Background(), &dto.UpdateThresholdsRequest{
		HighScore:     0.8,
		HighMargin:    0.25,
		MediumScore:   0.65,
		MediumMargin:  0.12,
		NearTieMargin: 0.04,
	}, "admin@library.edu")
	if err != nil {
		t.Fatalf("UpdateThresholds: %v", err)
	}
	if res.HighScore != 0.8 || res.NearTieMargin != 0.04 {
		t.Errorf("response = %+v", res)
	}

	live := f.holder.Current().Thresholds
	if live.HighScore != 0.8 || live.MediumMargin != 0.12 {
		t.Errorf("live thresholds not swapped: %+v", live)
	}
	if f.holder.Generation() == 0 {
		t.Error("policy generation did not advance")
	}

	row, err := f.settings.FindByKey(context.Background(), entity.RoutingSettingKeyThresholds)
	if err != nil || row == nil {
		t.Fatalf("override row not persisted: %v", err)
	}
	var persisted decision.Thresholds
	if err := json.Unmarshal([]byte(row.Value), &persisted); err != nil {
		t.Fatalf("persisted thresholds unreadable: %v", err)
	}
	want := decision.Thresholds{HighScore: 0.8, HighMargin: 0.25, MediumScore: 0.65, MediumMargin: 0.12, NearTieMargin: 0.04}
	if persisted != want {
		t.Errorf("persisted = %+v, want %+v", persisted, want)
	}
	if row.UpdatedBy == nil || *row.UpdatedBy != "admin@library.edu" {
		t.Error("override row should record who changed it")
	}
}

func TestUpdateThresholdsRejectsBadOrdering(t *testing.T) {
	f := newAdminFixture(t)

	// high below medium violates the regime ordering.
	_, err := f.svc.UpdateThresholds(context.Background(), &dto.UpdateThresholdsRequest{
		HighScore:     0.5,
		HighMargin:    0.25,
		MediumScore:   0.65,
		MediumMargin:  0.12,
		NearTieMargin: 0.04,
	}, "admin@library.edu")
	if err == nil {
		t.Fatal("expected validation rejection")
	}

	if got := f.holder.Current().Thresholds; got != decision.DefaultThresholds() {
		t.Errorf("rejected update leaked into the live policy: %+v", got)
	}
	if row, _ := f.settings.FindByKey(context.Background(), entity.RoutingSettingKeyThresholds); row != nil {
		t.Error("rejected update was persisted")
	}
}

func TestUpdateThresholdsStaysLiveWhenPersistFails(t *testing.T) {
	f := newAdminFixture(t)
	f.settings.upsertErr = errors.New("db down")

	_, err := f.svc.UpdateThresholds(context.Background(), &dto.UpdateThresholdsRequest{
		HighScore:     0.8,
		HighMargin:    0.25,
		MediumScore:   0.65,
		MediumMargin:  0.12,
		NearTieMargin: 0.04,
	}, "admin@library.edu")
	if err == nil {
		t.Fatal("expected a persistence error")
	}
	if !strings.Contains(err.Error(), "not persisted") {
		t.Errorf("err = %v, should say the values are live but unpersisted", err)
	}
	if f.holder.Current().Thresholds.HighScore != 0.8 {
		t.Error("thresholds should stay live despite the failed persist")
	}
}

func TestResetThresholdsRestoresFileValues(t *testing.T) {
	f := newAdminFixture(t)

	fileYaml := strings.Join([]string{
		"thresholds:",
		"  high_score: 0.9",
		"  high_margin: 0.3",
		"  medium_score: 0.7",
		"  medium_margin: 0.15",
		"  near_tie_margin: 0.06",
	}, "\n")
	if err := os.WriteFile(f.policyPath, []byte(fileYaml), 0o644); err != nil {
		t.Fatalf("write policy file: %v", err)
	}

	if _, err := f.svc.UpdateThresholds(context.Background(), &dto.UpdateThresholdsRequest{
		HighScore:     0.8,
		HighMargin:    0.25,
		MediumScore:   0.65,
		MediumMargin:  0.12,
		NearTieMargin: 0.04,
	}, "admin@library.edu"); err != nil {
		t.Fatalf("UpdateThresholds: %v", err)
	}

	res, err := f.svc.ResetThresholds(context.Background())
	if err != nil {
		t.Fatalf("ResetThresholds: %v", err)
	}
	if res.HighScore != 0.9 {
		t.Errorf("HighScore = %v after reset, want the file value 0.9", res.HighScore)
	}
	if f.holder.Current().Thresholds.MediumScore != 0.7 {
		t.Error("live thresholds should come back from the file")
	}
	if row, _ := f.settings.FindByKey(context.Background(), entity.RoutingSettingKeyThresholds); row != nil {
		t.Error("the override row should be gone after reset")
	}
}

func TestApplyStoredOverridesLayersThresholdsAndRules(t *testing.T) {
	f := newAdminFixture(t)

	thresholds, _ := json.Marshal(decision.Thresholds{
		HighScore: 0.85, HighMargin: 0.22, MediumScore: 0.66, MediumMargin: 0.11, NearTieMargin: 0.03,
	})
	if err := f.settings.Upsert(context.Background(), &entity.RoutingSetting{
		Key:       entity.RoutingSettingKeyThresholds,
		Value:     string(thresholds),
		ValueType: entity.RoutingSettingValueTypeJSON,
	}); err != nil {
		t.Fatalf("seed thresholds override: %v", err)
	}

	rules, _ := json.Marshal([]gate.RuleSpec{{
		Name:       "break-glass block bookings",
		Effect:     gate.EffectVeto,
		Categories: []string{string(routing.CategoryRoomBooking)},
		AnyOf:      []string{"room"},
	}})
	if err := f.settings.Upsert(context.Background(), &entity.RoutingSetting{
		Key:       entity.RoutingSettingKeyGateRules,
		Value:     string(rules),
		ValueType: entity.RoutingSettingValueTypeJSON,
	}); err != nil {
		t.Fatalf("seed gate rules override: %v", err)
	}

	if err := f.svc.ApplyStoredOverrides(context.Background()); err != nil {
		t.Fatalf("ApplyStoredOverrides: %v", err)
	}

	live := f.holder.Current()
	if live.Thresholds.HighScore != 0.85 {
		t.Errorf("thresholds override not applied: %+v", live.Thresholds)
	}
	if len(live.Raw.GateRules) != 1 || live.Raw.GateRules[0].Name != "break-glass block bookings" {
		t.Errorf("gate rules override not applied: %+v", live.Raw.GateRules)
	}
}

func TestApplyStoredOverridesRejectsCorruptRow(t *testing.T) {
	f := newAdminFixture(t)

	if err := f.settings.Upsert(context.Background(), &entity.RoutingSetting{
		Key:       entity.RoutingSettingKeyThresholds,
		Value:     "{not json",
		ValueType: entity.RoutingSettingValueTypeJSON,
	}); err != nil {
		t.Fatalf("seed corrupt override: %v", err)
	}

	if err := f.svc.ApplyStoredOverrides(context.Background()); err == nil {
		t.Fatal("expected a corrupt override to fail startup")
	}
	if f.holder.Generation() != 0 {
		t.Error("corrupt override must not replace the live policy")
	}
}

// --- prototype catalog ---

func TestCreatePrototypeQueuesRefresh(t *testing.T) {
	f := newAdminFixture(t)

	res, err := f.svc.CreatePrototype(context.Background(), &dto.CreatePrototypeRequest{
		Category: string(routing.CategoryEquipmentLoan),
		Text:     "can i rent a charger",
	})
	if err != nil {
		t.Fatalf("CreatePrototype: %v", err)
	}

	stored, _ := f.protoRepo.FindOne(context.Background(), specification.ByID{ID: res.Id})
	if stored == nil {
		t.Fatal("row not stored")
	}
	if stored.Weight != 1 || !stored.Active {
		t.Errorf("defaults not applied: weight=%d active=%v", stored.Weight, stored.Active)
	}
	if len(stored.Embedding) != 0 {
		t.Error("embedding must be left to the refresh worker, not computed inline")
	}

	msgs := f.refreshes.all()
	if len(msgs) != 1 {
		t.Fatalf("refresh messages = %d, want 1", len(msgs))
	}
	var msg dto.PrototypeRefreshMessage
	if err := json.Unmarshal(msgs[0], &msg); err != nil {
		t.Fatalf("refresh payload: %v", err)
	}
	if msg.Action != "create" || msg.PrototypeId != res.Id {
		t.Errorf("refresh message = %+v", msg)
	}
}

func TestCreatePrototypeRejectsUnknownCategory(t *testing.T) {
	f := newAdminFixture(t)

	_, err := f.svc.CreatePrototype(context.Background(), &dto.CreatePrototypeRequest{
		Category: "snack-bar",
		Text:     "where are the vending machines",
	})
	if err == nil {
		t.Fatal("expected category rejection")
	}
	if len(f.refreshes.all()) != 0 {
		t.Error("rejected create must not queue a refresh")
	}
}

func TestDeletePrototypeKeepsCategoryCovered(t *testing.T) {
	f := newAdminFixture(t)
	only := seedPrototypeRow(t, f, routing.CategoryRoomBooking, "book a study room")

	err := f.svc.DeletePrototype(context.Background(), only.Id)
	if err == nil {
		t.Fatal("expected the coverage guard to reject deleting the only active example")
	}

	seedPrototypeRow(t, f, routing.CategoryRoomBooking, "reserve a group room")
	if err := f.svc.DeletePrototype(context.Background(), only.Id); err != nil {
		t.Fatalf("delete with remaining coverage: %v", err)
	}

	gone, _ := f.protoRepo.FindOne(context.Background(), specification.ByID{ID: only.Id}, specification.NotDeleted{})
	if gone != nil {
		t.Error("deleted row still visible through NotDeleted")
	}

	msgs := f.refreshes.all()
	if len(msgs) != 1 {
		t.Fatalf("refresh messages = %d, want only the successful delete", len(msgs))
	}
	var msg dto.PrototypeRefreshMessage
	if err := json.Unmarshal(msgs[0], &msg); err != nil {
		t.Fatalf("refresh payload: %v", err)
	}
	if msg.Action != "delete" {
		t.Errorf("Action = %s, want delete", msg.Action)
	}
}

func TestUpdatePrototypeTextInvalidatesEmbedding(t *testing.T) {
	f := newAdminFixture(t)
	row := seedPrototypeRow(t, f, routing.CategoryOpeningHours, "when do you open")
	row.Embedding = axisVector(routing.CategoryOpeningHours)

	_, err := f.svc.UpdatePrototype(context.Background(), &dto.UpdatePrototypeRequest{
		Id:   row.Id,
		Text: "what are the weekend hours",
	})
	if err != nil {
		t.Fatalf("UpdatePrototype: %v", err)
	}

	stored, _ := f.protoRepo.FindOne(context.Background(), specification.ByID{ID: row.Id})
	if stored.Text != "what are the weekend hours" {
		t.Errorf("Text = %q", stored.Text)
	}
	if len(stored.Embedding) != 0 {
		t.Error("stale embedding must be dropped when the text changes")
	}
}

func TestUpdatePrototypeRefusesDeactivatingLastExample(t *testing.T) {
	f := newAdminFixture(t)
	row := seedPrototypeRow(t, f, routing.CategorySubjectMatching, "talk to a librarian about sources")

	off := false
	_, err := f.svc.UpdatePrototype(context.Background(), &dto.UpdatePrototypeRequest{Id: row.Id, Active: &off})
	if err == nil {
		t.Fatal("expected the coverage guard to reject deactivating the only example")
	}
	stored, _ := f.protoRepo.FindOne(context.Background(), specification.ByID{ID: row.Id})
	if !stored.Active {
		t.Error("row deactivated despite the guard")
	}
}

func TestGetPrototypesFiltersByCategory(t *testing.T) {
	f := newAdminFixture(t)
	seedPrototypeRow(t, f, routing.CategoryOpeningHours, "when do you open")
	seedPrototypeRow(t, f, routing.CategoryOpeningHours, "sunday opening times")
	seedPrototypeRow(t, f, routing.CategoryRoomBooking, "book a room")

	res, err := f.svc.GetPrototypes(context.Background(), &dto.PrototypeListRequest{
		Category: string(routing.CategoryOpeningHours),
	})
	if err != nil {
		t.Fatalf("GetPrototypes: %v", err)
	}
	if res.Total != 2 || len(res.Items) != 2 {
		t.Fatalf("total=%d items=%d, want 2 of each", res.Total, len(res.Items))
	}
	for _, item := range res.Items {
		if item.Category != string(routing.CategoryOpeningHours) {
			t.Errorf("unfiltered item leaked through: %+v", item)
		}
	}
}

// --- curation probe ---

func TestTestQueryReportsDegradedEmbedder(t *testing.T) {
	f := newAdminFixture(t)

	// No stub vector registered: the embedder fails like a dead provider.
	res, err := f.svc.TestQuery(context.Background(), &dto.TestQueryRequest{Query: "anything"})
	if err != nil {
		t.Fatalf("TestQuery: %v", err)
	}
	if !res.SnapshotDegraded {
		t.Error("expected the degraded flag, not an error")
	}
	if res.SnapshotVersion == "" {
		t.Error("snapshot version should be reported even when degraded")
	}
}

func TestTestQueryComparesSnapshotAndCatalog(t *testing.T) {
	f := newAdminFixture(t)
	f.embedder.vectors["laptop to borrow"] = queryVector(map[routing.Category]float64{
		routing.CategoryEquipmentLoan: 0.9,
	})
	catalogRow := seedPrototypeRow(t, f, routing.CategoryEquipmentLoan, "can i borrow a laptop")
	f.protoRepo.similar = []*contract.ScoredPrototype{{Example: catalogRow, Similarity: 0.91}}

	res, err := f.svc.TestQuery(context.Background(), &dto.TestQueryRequest{Query: "laptop to borrow"})
	if err != nil {
		t.Fatalf("TestQuery: %v", err)
	}
	if res.SnapshotDegraded {
		t.Fatal("unexpected degraded flag")
	}
	if len(res.SnapshotCandidates) == 0 || res.SnapshotCandidates[0].Category != string(routing.CategoryEquipmentLoan) {
		t.Errorf("snapshot candidates = %+v", res.SnapshotCandidates)
	}
	if len(res.CatalogMatches) != 1 || res.CatalogMatches[0].Score != 0.91 {
		t.Errorf("catalog matches = %+v", res.CatalogMatches)
	}
}
