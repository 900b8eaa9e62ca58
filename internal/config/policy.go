package config

import (
	"fmt"
	"os"
	"sync/atomic"
	"time"

	"gopkg.in/yaml.v3"

	"ai-deskmate-be/pkg/routing/decision"
	"ai-deskmate-be/pkg/routing/gate"
)

// RoutingPolicy is the operator-tunable part of the router, loaded from
// routing.yaml. Fields left out of the file keep their defaults.
type RoutingPolicy struct {
	Thresholds    decision.Thresholds `yaml:"thresholds" json:"thresholds"`
	GateRules     []gate.RuleSpec     `yaml:"gate_rules" json:"gate_rules"`
	Matcher       MatcherPolicy       `yaml:"matcher" json:"matcher"`
	Arbiter       ArbiterPolicy       `yaml:"arbiter" json:"arbiter"`
	Clarification ClarifyPolicy       `yaml:"clarification" json:"clarification"`
}

type MatcherPolicy struct {
	TopK      int `yaml:"top_k" json:"top_k"`
	TimeoutMs int `yaml:"timeout_ms" json:"timeout_ms"`
}

type ArbiterPolicy struct {
	ArbitrationTimeoutMs int `yaml:"arbitration_timeout_ms" json:"arbitration_timeout_ms"`
	ClarifyTimeoutMs     int `yaml:"clarify_timeout_ms" json:"clarify_timeout_ms"`
	// Model overrides the provider's default chat model for arbiter calls
	// only. Empty uses the provider default.
	Model string `yaml:"model,omitempty" json:"model,omitempty"`
}

type ClarifyPolicy struct {
	TTLSeconds int `yaml:"ttl_seconds" json:"ttl_seconds"`
}

func DefaultRoutingPolicy() *RoutingPolicy {
	return &RoutingPolicy{
		Thresholds: decision.DefaultThresholds(),
		GateRules:  gate.DefaultRules(),
		Matcher: MatcherPolicy{
			TopK:      5,
			TimeoutMs: 2000,
		},
		Arbiter: ArbiterPolicy{
			ArbitrationTimeoutMs: 8000,
			ClarifyTimeoutMs:     10000,
		},
		Clarification: ClarifyPolicy{
			TTLSeconds: 120,
		},
	}
}

// LoadRoutingPolicy reads path over the defaults. A missing file is not an
// error; a present but invalid file is, so a bad deploy fails at startup
// instead of routing with half a policy.
func LoadRoutingPolicy(path string) (*RoutingPolicy, error) {
	policy := DefaultRoutingPolicy()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return policy, nil
		}
		return nil, fmt.Errorf("read routing policy %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, policy); err != nil {
		return nil, fmt.Errorf("parse routing policy %s: %w", path, err)
	}

	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid routing policy %s: %w", path, err)
	}
	return policy, nil
}

func (p *RoutingPolicy) Validate() error {
	if err := p.Thresholds.Validate(); err != nil {
		return err
	}
	if _, err := gate.Compile(p.GateRules); err != nil {
		return err
	}
	if p.Matcher.TopK < 1 {
		return fmt.Errorf("matcher.top_k must be at least 1, got %d", p.Matcher.TopK)
	}
	if p.Matcher.TimeoutMs < 100 {
		return fmt.Errorf("matcher.timeout_ms must be at least 100, got %d", p.Matcher.TimeoutMs)
	}
	if p.Arbiter.ArbitrationTimeoutMs < 500 || p.Arbiter.ClarifyTimeoutMs < 500 {
		return fmt.Errorf("arbiter timeouts must be at least 500ms")
	}
	if p.Clarification.TTLSeconds < 10 {
		return fmt.Errorf("clarification.ttl_seconds must be at least 10, got %d", p.Clarification.TTLSeconds)
	}
	return nil
}

func (p *RoutingPolicy) MatcherTimeout() time.Duration {
	return time.Duration(p.Matcher.TimeoutMs) * time.Millisecond
}

func (p *RoutingPolicy) ArbitrationTimeout() time.Duration {
	return time.Duration(p.Arbiter.ArbitrationTimeoutMs) * time.Millisecond
}

func (p *RoutingPolicy) ClarifyTimeout() time.Duration {
	return time.Duration(p.Arbiter.ClarifyTimeoutMs) * time.Millisecond
}

func (p *RoutingPolicy) ClarificationTTL() time.Duration {
	return time.Duration(p.Clarification.TTLSeconds) * time.Second
}

// CompiledPolicy pairs the raw policy with its compiled gate so the hot path
// never recompiles regexes.
type CompiledPolicy struct {
	Raw        *RoutingPolicy
	Gate       *gate.Gate
	Thresholds decision.Thresholds
}

func CompilePolicy(p *RoutingPolicy) (*CompiledPolicy, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	compiled, err := gate.Compile(p.GateRules)
	if err != nil {
		return nil, err
	}
	return &CompiledPolicy{
		Raw:        p,
		Gate:       compiled,
		Thresholds: p.Thresholds,
	}, nil
}

// PolicyHolder publishes the active policy to the hot path. Readers get a
// consistent snapshot; Replace swaps the whole thing at once.
type PolicyHolder struct {
	current atomic.Pointer[CompiledPolicy]
	gen     atomic.Uint64
}

func NewPolicyHolder(initial *CompiledPolicy) (*PolicyHolder, error) {
	if initial == nil {
		return nil, fmt.Errorf("initial policy is required")
	}
	h := &PolicyHolder{}
	h.current.Store(initial)
	return h, nil
}

func (h *PolicyHolder) Current() *CompiledPolicy {
	return h.current.Load()
}

func (h *PolicyHolder) Replace(next *CompiledPolicy) error {
	if next == nil {
		return fmt.Errorf("policy must not be nil")
	}
	h.current.Store(next)
	h.gen.Add(1)
	return nil
}

// Generation increments on every Replace. Cache keys derived from policy
// output embed it so a policy change invalidates them wholesale.
func (h *PolicyHolder) Generation() uint64 {
	return h.gen.Load()
}
