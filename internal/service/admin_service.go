package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"ai-deskmate-be/internal/config"
	"ai-deskmate-be/internal/dto"
	"ai-deskmate-be/internal/entity"
	"ai-deskmate-be/internal/pkg/logger"
	"ai-deskmate-be/internal/repository/contract"
	"ai-deskmate-be/internal/repository/specification"
	"ai-deskmate-be/internal/repository/unitofwork"
	"ai-deskmate-be/pkg/embedding"
	"ai-deskmate-be/pkg/events"
	pktNats "ai-deskmate-be/pkg/nats"
	"ai-deskmate-be/pkg/prototype"
	"ai-deskmate-be/pkg/routing"
	"ai-deskmate-be/pkg/routing/decision"
	"ai-deskmate-be/pkg/routing/gate"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

type IAdminService interface {
	// Operator Management
	GetAllOperators(ctx context.Context) ([]*dto.OperatorResponse, error)
	CreateOperator(ctx context.Context, req *dto.CreateOperatorRequest) (*dto.OperatorResponse, error)
	UpdateOperator(ctx context.Context, id uuid.UUID, req *dto.UpdateOperatorRequest) (*dto.OperatorResponse, error)
	DeleteOperator(ctx context.Context, id uuid.UUID) error

	// Prototype Catalog
	GetPrototypes(ctx context.Context, req *dto.PrototypeListRequest) (*dto.PrototypeListResponse, error)
	CreatePrototype(ctx context.Context, req *dto.CreatePrototypeRequest) (*dto.PrototypeMutationResponse, error)
	UpdatePrototype(ctx context.Context, req *dto.UpdatePrototypeRequest) (*dto.PrototypeMutationResponse, error)
	DeletePrototype(ctx context.Context, id uuid.UUID) error
	TestQuery(ctx context.Context, req *dto.TestQueryRequest) (*dto.TestQueryResponse, error)
	ReloadCatalog(ctx context.Context) (*dto.ReloadResponse, error)

	// Confidence Thresholds
	GetThresholds(ctx context.Context) (*dto.ThresholdsResponse, error)
	UpdateThresholds(ctx context.Context, req *dto.UpdateThresholdsRequest, updatedBy string) (*dto.ThresholdsResponse, error)
	// ResetThresholds drops the stored override so the routing.yaml values
	// become live again.
	ResetThresholds(ctx context.Context) (*dto.ThresholdsResponse, error)
	// ApplyStoredOverrides layers database overrides on top of the file
	// policy. Called once at startup, after the file loads.
	ApplyStoredOverrides(ctx context.Context) error

	// Decision Audit
	GetDecisions(ctx context.Context, req *dto.DecisionListRequest) (*dto.DecisionListResponse, error)
	GetDecisionVolume(ctx context.Context, days int) ([]*dto.CategoryVolumeResponse, error)

	// System Logs
	GetSystemLogs(ctx context.Context, level string, limit, offset int) ([]logger.LogEntry, error)
	GetLogDetail(ctx context.Context, logId string) (*logger.LogEntry, error)
}

type adminService struct {
	uowFactory     unitofwork.RepositoryFactory
	policies       *config.PolicyHolder
	policyPath     string
	prototypes     *prototype.Store
	catalog        ICatalogService
	publisher      IPublisherService
	eventPublisher *pktNats.Publisher
	embedder       embedding.EmbeddingProvider
	instanceId     string
	logger         logger.ILogger
}

func NewAdminService(
	uowFactory unitofwork.RepositoryFactory,
	policies *config.PolicyHolder,
	policyPath string,
	prototypes *prototype.Store,
	catalog ICatalogService,
	publisher IPublisherService,
	eventPublisher *pktNats.Publisher,
	embedder embedding.EmbeddingProvider,
	instanceId string,
	log logger.ILogger,
) IAdminService {
	return &adminService{
		uowFactory:     uowFactory,
		policies:       policies,
		policyPath:     policyPath,
		prototypes:     prototypes,
		catalog:        catalog,
		publisher:      publisher,
		eventPublisher: eventPublisher,
		embedder:       embedder,
		instanceId:     instanceId,
		logger:         log,
	}
}

// --- Operator Management ---

func (s *adminService) GetAllOperators(ctx context.Context) ([]*dto.OperatorResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	operators, err := uow.OperatorRepository().FindAll(ctx, specification.OrderBy{Field: "created_at"})
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.OperatorResponse, len(operators))
	for i, operator := range operators {
		responses[i] = toOperatorResponse(operator)
	}
	return responses, nil
}

func (s *adminService) CreateOperator(ctx context.Context, req *dto.CreateOperatorRequest) (*dto.OperatorResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	existing, err := uow.OperatorRepository().FindOne(ctx, specification.ByEmail{Email: req.Email})
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, errors.New("email already registered")
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, errors.New("failed to hash password")
	}
	hash := string(hashed)

	operator := &entity.Operator{
		Id:           uuid.New(),
		Email:        req.Email,
		PasswordHash: &hash,
		FullName:     req.FullName,
		Role:         entity.OperatorRole(req.Role),
		Status:       entity.OperatorStatusActive,
		CreatedAt:    time.Now(),
		UpdatedAt:    time.Now(),
	}
	if err := uow.OperatorRepository().Create(ctx, operator); err != nil {
		return nil, err
	}
	return toOperatorResponse(operator), nil
}

func (s *adminService) UpdateOperator(ctx context.Context, id uuid.UUID, req *dto.UpdateOperatorRequest) (*dto.OperatorResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	operator, err := uow.OperatorRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return nil, err
	}
	if operator == nil {
		return nil, errors.New("operator not found")
	}

	// Demoting or disabling the last active admin locks everyone out the
	// same way deleting them would.
	demoting := req.Role != "" && entity.OperatorRole(req.Role) != entity.OperatorRoleAdmin
	disabling := req.Status != "" && entity.OperatorStatus(req.Status) != entity.OperatorStatusActive
	if (demoting || disabling) && operator.Role == entity.OperatorRoleAdmin && operator.Status == entity.OperatorStatusActive {
		admins, err := s.activeAdminCount(ctx, uow.OperatorRepository())
		if err != nil {
			return nil, err
		}
		if admins <= 1 {
			return nil, errors.New("cannot demote the last active admin")
		}
	}

	if req.FullName != "" {
		operator.FullName = req.FullName
	}
	if req.Role != "" {
		operator.Role = entity.OperatorRole(req.Role)
	}
	if req.Status != "" {
		operator.Status = entity.OperatorStatus(req.Status)
	}
	operator.UpdatedAt = time.Now()

	if err := uow.OperatorRepository().Update(ctx, operator); err != nil {
		return nil, err
	}
	return toOperatorResponse(operator), nil
}

func (s *adminService) DeleteOperator(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	operator, err := uow.OperatorRepository().FindOne(ctx, specification.ByID{ID: id})
	if err != nil {
		return err
	}
	if operator == nil {
		return errors.New("operator not found")
	}

	// Losing the last active admin locks everyone out of the dashboard.
	if operator.Role == entity.OperatorRoleAdmin && operator.Status == entity.OperatorStatusActive {
		admins, err := s.activeAdminCount(ctx, uow.OperatorRepository())
		if err != nil {
			return err
		}
		if admins <= 1 {
			return errors.New("cannot delete the last active admin")
		}
	}

	return uow.OperatorRepository().Delete(ctx, id)
}

func (s *adminService) activeAdminCount(ctx context.Context, repo contract.OperatorRepository) (int64, error) {
	return repo.Count(ctx,
		specification.FilterBy{Field: "role", Value: string(entity.OperatorRoleAdmin)},
		specification.FilterBy{Field: "status", Value: string(entity.OperatorStatusActive)},
	)
}

func toOperatorResponse(operator *entity.Operator) *dto.OperatorResponse {
	return &dto.OperatorResponse{
		Id:          operator.Id,
		Email:       operator.Email,
		FullName:    operator.FullName,
		Role:        string(operator.Role),
		Status:      string(operator.Status),
		LastLoginAt: operator.LastLoginAt,
		CreatedAt:   operator.CreatedAt,
	}
}

// --- Prototype Catalog ---

func (s *adminService) GetPrototypes(ctx context.Context, req *dto.PrototypeListRequest) (*dto.PrototypeListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 100 {
		limit = 20
	}

	filters := []specification.Specification{specification.NotDeleted{}}
	if req.Category != "" {
		filters = append(filters, specification.ByCategory{Category: req.Category})
	}
	if req.Search != "" {
		filters = append(filters, specification.TextContains{Needle: req.Search})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.PrototypeRepository()

	total, err := repo.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	listSpecs := append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	rows, err := repo.FindAll(ctx, listSpecs...)
	if err != nil {
		return nil, err
	}

	items := make([]dto.PrototypeResponse, len(rows))
	for i, row := range rows {
		items[i] = dto.PrototypeResponse{
			Id:           row.Id,
			Category:     row.Category,
			Text:         row.Text,
			Weight:       row.Weight,
			Active:       row.Active,
			HasEmbedding: len(row.Embedding) > 0,
			CreatedAt:    row.CreatedAt,
			UpdatedAt:    row.UpdatedAt,
		}
	}

	return &dto.PrototypeListResponse{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

func (s *adminService) CreatePrototype(ctx context.Context, req *dto.CreatePrototypeRequest) (*dto.PrototypeMutationResponse, error) {
	if _, err := routing.ParseCategory(req.Category); err != nil {
		return nil, err
	}

	weight := req.Weight
	if weight == 0 {
		weight = 1
	}
	active := true
	if req.Active != nil {
		active = *req.Active
	}

	row := &entity.PrototypeExample{
		Id:        uuid.New(),
		Category:  req.Category,
		Text:      req.Text,
		Weight:    weight,
		Active:    active,
		CreatedAt: time.Now(),
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.PrototypeRepository().Create(ctx, row); err != nil {
		return nil, err
	}

	s.publishRefresh(ctx, row.Id, "create")
	return &dto.PrototypeMutationResponse{Id: row.Id}, nil
}

func (s *adminService) UpdatePrototype(ctx context.Context, req *dto.UpdatePrototypeRequest) (*dto.PrototypeMutationResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.PrototypeRepository()

	row, err := repo.FindOne(ctx, specification.ByID{ID: req.Id}, specification.NotDeleted{})
	if err != nil {
		return nil, err
	}
	if row == nil {
		return nil, errors.New("prototype not found")
	}

	if req.Category != "" && req.Category != row.Category {
		if _, err := routing.ParseCategory(req.Category); err != nil {
			return nil, err
		}
		if err := s.ensureCategoryCoverage(ctx, repo, row); err != nil {
			return nil, err
		}
		row.Category = req.Category
	}
	if req.Text != "" && req.Text != row.Text {
		row.Text = req.Text
		// The old vector no longer describes the text; the rebuild worker
		// embeds it again.
		row.Embedding = nil
	}
	if req.Weight > 0 {
		row.Weight = req.Weight
	}
	if req.Active != nil {
		if !*req.Active && row.Active {
			if err := s.ensureCategoryCoverage(ctx, repo, row); err != nil {
				return nil, err
			}
		}
		row.Active = *req.Active
	}
	now := time.Now()
	row.UpdatedAt = &now

	if err := repo.Update(ctx, row); err != nil {
		return nil, err
	}

	s.publishRefresh(ctx, row.Id, "update")
	return &dto.PrototypeMutationResponse{Id: row.Id}, nil
}

func (s *adminService) DeletePrototype(ctx context.Context, id uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.PrototypeRepository()

	row, err := repo.FindOne(ctx, specification.ByID{ID: id}, specification.NotDeleted{})
	if err != nil {
		return err
	}
	if row == nil {
		return errors.New("prototype not found")
	}

	if err := s.ensureCategoryCoverage(ctx, repo, row); err != nil {
		return err
	}

	if err := repo.Delete(ctx, id); err != nil {
		return err
	}

	s.publishRefresh(ctx, id, "delete")
	return nil
}

// ensureCategoryCoverage rejects a mutation that would leave row's category
// without any active example. A category with no anchors can never win a
// match, and the snapshot builder refuses it outright.
func (s *adminService) ensureCategoryCoverage(ctx context.Context, repo contract.PrototypeRepository, row *entity.PrototypeExample) error {
	if !row.Active {
		return nil
	}
	count, err := repo.Count(ctx,
		specification.ByCategory{Category: row.Category},
		specification.ActiveOnly{},
		specification.NotDeleted{},
	)
	if err != nil {
		return err
	}
	if count <= 1 {
		return fmt.Errorf("category %s would be left without active examples", row.Category)
	}
	return nil
}

func (s *adminService) publishRefresh(ctx context.Context, id uuid.UUID, action string) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(dto.PrototypeRefreshMessage{PrototypeId: id, Action: action})
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, payload); err != nil {
		// The row is saved; a manual reload still picks it up.
		s.logger.Warn("AdminService", "Failed to queue catalog refresh", map[string]interface{}{
			"prototype_id": id,
			"action":       action,
			"error":        err,
		})
	}
}

func (s *adminService) TestQuery(ctx context.Context, req *dto.TestQueryRequest) (*dto.TestQueryResponse, error) {
	snap := s.prototypes.Snapshot()
	res := &dto.TestQueryResponse{SnapshotVersion: snap.Version()}

	embedRes, err := s.embedder.Generate(ctx, req.Query, "RETRIEVAL_QUERY")
	if err != nil {
		// Same shape a degraded routing turn would see.
		res.SnapshotDegraded = true
		return res, nil
	}
	vector := embedRes.Embedding.Values

	topK := s.policies.Current().Raw.Matcher.TopK
	candidates, err := s.prototypes.Search(ctx, vector, nil, topK)
	if err != nil {
		res.SnapshotDegraded = true
	} else {
		res.SnapshotCandidates = toCandidateDTOs(candidates)
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	scored, err := uow.PrototypeRepository().SearchSimilar(ctx, vector, 10)
	if err != nil {
		return nil, err
	}
	res.CatalogMatches = make([]dto.CatalogMatchDTO, len(scored))
	for i, match := range scored {
		res.CatalogMatches[i] = dto.CatalogMatchDTO{
			Id:       match.Example.Id,
			Category: match.Example.Category,
			Text:     match.Example.Text,
			Score:    match.Similarity,
		}
	}
	return res, nil
}

func (s *adminService) ReloadCatalog(ctx context.Context) (*dto.ReloadResponse, error) {
	snap, err := s.catalog.Rebuild(ctx)
	if err != nil {
		return nil, err
	}

	if s.eventPublisher != nil {
		evt := events.BaseEvent{
			Type: events.TypePrototypeCatalogUpdated,
			Data: map[string]interface{}{
				"instance_id":      s.instanceId,
				"snapshot_version": snap.Version(),
				"examples":         snap.Count(),
				"trigger_action":   "reload",
			},
			OccurredAt: time.Now(),
		}
		if err := s.eventPublisher.Publish(ctx, evt); err != nil {
			s.logger.Warn("AdminService", "Failed to publish catalog update event", map[string]interface{}{"error": err})
		}
	}

	return &dto.ReloadResponse{
		SnapshotVersion: snap.Version(),
		PrototypeCount:  snap.Count(),
		Categories:      len(routing.AllCategories()),
	}, nil
}

// --- Confidence Thresholds ---

func (s *adminService) GetThresholds(ctx context.Context) (*dto.ThresholdsResponse, error) {
	t := s.policies.Current().Thresholds
	return toThresholdsResponse(t), nil
}

func (s *adminService) UpdateThresholds(ctx context.Context, req *dto.UpdateThresholdsRequest, updatedBy string) (*dto.ThresholdsResponse, error) {
	next := *s.policies.Current().Raw
	next.Thresholds = decision.Thresholds{
		HighScore:     req.HighScore,
		HighMargin:    req.HighMargin,
		MediumScore:   req.MediumScore,
		MediumMargin:  req.MediumMargin,
		NearTieMargin: req.NearTieMargin,
	}

	compiled, err := config.CompilePolicy(&next)
	if err != nil {
		return nil, err
	}
	if err := s.policies.Replace(compiled); err != nil {
		return nil, err
	}

	payload, err := json.Marshal(next.Thresholds)
	if err != nil {
		return nil, err
	}
	setting := &entity.RoutingSetting{
		Key:         entity.RoutingSettingKeyThresholds,
		Value:       string(payload),
		ValueType:   entity.RoutingSettingValueTypeJSON,
		Description: "confidence thresholds",
		UpdatedBy:   &updatedBy,
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.RoutingSettingRepository().Upsert(ctx, setting); err != nil {
		// The new thresholds are already live; they just will not survive
		// a restart, which the operator needs to know.
		return nil, fmt.Errorf("thresholds applied but not persisted: %w", err)
	}

	s.logger.Info("AdminService", "Confidence thresholds updated", map[string]interface{}{
		"updated_by": updatedBy,
		"thresholds": next.Thresholds,
	})
	return toThresholdsResponse(next.Thresholds), nil
}

func (s *adminService) ResetThresholds(ctx context.Context) (*dto.ThresholdsResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	if err := uow.RoutingSettingRepository().DeleteByKey(ctx, entity.RoutingSettingKeyThresholds); err != nil {
		return nil, err
	}

	// Other stored overrides (gate rules) stay layered; only the thresholds
	// come back from the file.
	filePolicy, err := config.LoadRoutingPolicy(s.policyPath)
	if err != nil {
		return nil, fmt.Errorf("reload policy file: %w", err)
	}
	next := *s.policies.Current().Raw
	next.Thresholds = filePolicy.Thresholds

	compiled, err := config.CompilePolicy(&next)
	if err != nil {
		return nil, err
	}
	if err := s.policies.Replace(compiled); err != nil {
		return nil, err
	}

	s.logger.Info("AdminService", "Confidence thresholds reset to file values", map[string]interface{}{
		"path": s.policyPath,
	})
	return toThresholdsResponse(next.Thresholds), nil
}

func (s *adminService) ApplyStoredOverrides(ctx context.Context) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)
	settings, err := uow.RoutingSettingRepository().FindAll(ctx)
	if err != nil {
		return err
	}
	if len(settings) == 0 {
		return nil
	}

	next := *s.policies.Current().Raw
	var applied []string
	for _, setting := range settings {
		switch setting.Key {
		case entity.RoutingSettingKeyThresholds:
			var t decision.Thresholds
			if err := json.Unmarshal([]byte(setting.Value), &t); err != nil {
				return fmt.Errorf("stored thresholds are corrupt: %w", err)
			}
			next.Thresholds = t
			applied = append(applied, setting.Key)
		case entity.RoutingSettingKeyGateRules:
			var rules []gate.RuleSpec
			if err := json.Unmarshal([]byte(setting.Value), &rules); err != nil {
				return fmt.Errorf("stored gate rules are corrupt: %w", err)
			}
			next.GateRules = rules
			applied = append(applied, setting.Key)
		}
	}
	if len(applied) == 0 {
		return nil
	}

	compiled, err := config.CompilePolicy(&next)
	if err != nil {
		return fmt.Errorf("stored policy overrides rejected: %w", err)
	}
	if err := s.policies.Replace(compiled); err != nil {
		return err
	}

	s.logger.Info("AdminService", "Applied stored policy overrides", map[string]interface{}{
		"keys": applied,
	})
	return nil
}

func toThresholdsResponse(t decision.Thresholds) *dto.ThresholdsResponse {
	return &dto.ThresholdsResponse{
		HighScore:     t.HighScore,
		HighMargin:    t.HighMargin,
		MediumScore:   t.MediumScore,
		MediumMargin:  t.MediumMargin,
		NearTieMargin: t.NearTieMargin,
	}
}

// --- Decision Audit ---

func (s *adminService) GetDecisions(ctx context.Context, req *dto.DecisionListRequest) (*dto.DecisionListResponse, error) {
	page := req.Page
	if page < 1 {
		page = 1
	}
	limit := req.Limit
	if limit < 1 || limit > 200 {
		limit = 50
	}

	var filters []specification.Specification
	if req.Mode != "" {
		filters = append(filters, specification.ByMode{Mode: req.Mode})
	}
	if req.Category != "" {
		filters = append(filters, specification.ByCategory{Category: req.Category})
	}
	if req.Reason != "" {
		filters = append(filters, specification.ByReason{Reason: req.Reason})
	}
	if req.ConversationId != "" {
		filters = append(filters, specification.ByConversationId{ConversationId: req.ConversationId})
	}
	if req.SinceHours > 0 {
		filters = append(filters, specification.CreatedAfter{Time: time.Now().Add(-time.Duration(req.SinceHours) * time.Hour)})
	}

	uow := s.uowFactory.NewUnitOfWork(ctx)
	repo := uow.DecisionLogRepository()

	total, err := repo.Count(ctx, filters...)
	if err != nil {
		return nil, err
	}

	listSpecs := append(filters,
		specification.OrderBy{Field: "created_at", Desc: true},
		specification.Pagination{Limit: limit, Offset: (page - 1) * limit},
	)
	records, err := repo.FindAll(ctx, listSpecs...)
	if err != nil {
		return nil, err
	}

	items := make([]dto.DecisionLogResponse, len(records))
	for i, record := range records {
		items[i] = dto.DecisionLogResponse{
			Id:             record.Id,
			ConversationId: record.ConversationId,
			Query:          record.Query,
			EffectiveQuery: record.EffectiveQuery,
			Mode:           record.Mode,
			Category:       record.Category,
			ConfidenceTier: record.Tier,
			Reason:         record.Reason,
			Candidates:     toCandidateDTOs(record.Candidates),
			Question:       record.Question,
			GateEffects:    record.GateEffects,
			Degraded:       record.Degraded,
			LatencyMs:      int64(record.LatencyMs),
			CreatedAt:      record.CreatedAt,
		}
	}

	return &dto.DecisionListResponse{
		Items: items,
		Total: total,
		Page:  page,
		Limit: limit,
	}, nil
}

func (s *adminService) GetDecisionVolume(ctx context.Context, days int) ([]*dto.CategoryVolumeResponse, error) {
	if days < 1 || days > 90 {
		days = 7
	}
	since := time.Now().AddDate(0, 0, -days)

	uow := s.uowFactory.NewUnitOfWork(ctx)
	rows, err := uow.DecisionLogRepository().VolumeSince(ctx, since)
	if err != nil {
		return nil, err
	}

	responses := make([]*dto.CategoryVolumeResponse, len(rows))
	for i, row := range rows {
		responses[i] = &dto.CategoryVolumeResponse{
			Category: row.Category,
			Mode:     row.Mode,
			Total:    row.Total,
		}
	}
	return responses, nil
}

// --- System Logs ---

func (s *adminService) GetSystemLogs(ctx context.Context, level string, limit, offset int) ([]logger.LogEntry, error) {
	if limit < 1 || limit > 500 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}
	return s.logger.GetLogs(level, limit, offset)
}

func (s *adminService) GetLogDetail(ctx context.Context, logId string) (*logger.LogEntry, error) {
	return s.logger.GetLogById(logId)
}
