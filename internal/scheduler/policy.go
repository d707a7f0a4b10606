package scheduler

import (
	"os"
	"time"

	"github.com/rotisserie/eris"
	"gopkg.in/yaml.v3"

	"github.com/sells-group/resume-orchestrator/internal/model"
)

// Policy holds the scheduler's tunable knobs: per-field minimum budgets and
// attempt ceilings. Zero values fall back to the field table's built-ins.
type Policy struct {
	Defaults PolicyDefaults               `yaml:"defaults"`
	Fields   map[string]FieldPolicyConfig `yaml:"fields"`
}

// PolicyDefaults holds global scheduling defaults.
type PolicyDefaults struct {
	MinBudgetSeconds int `yaml:"min_budget_seconds"`
	MaxAttempts      int `yaml:"max_attempts"`
}

// FieldPolicyConfig overrides scheduling behavior for one field.
type FieldPolicyConfig struct {
	MinBudgetSeconds int `yaml:"min_budget_seconds"`
	MaxAttempts      int `yaml:"max_attempts"`
}

// LoadPolicy reads a scheduling policy from a YAML file.
func LoadPolicy(path string) (*Policy, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, eris.Wrapf(err, "scheduler: read policy %s", path)
	}

	// The YAML has a top-level "scheduling" key
	var wrapper struct {
		Scheduling Policy `yaml:"scheduling"`
	}
	if err := yaml.Unmarshal(data, &wrapper); err != nil {
		return nil, eris.Wrap(err, "scheduler: parse policy")
	}
	return &wrapper.Scheduling, nil
}

// MinBudget resolves the minimum worthwhile budget for a field: field
// override, then policy default, then the built-in table value.
func (p *Policy) MinBudget(f model.Field) time.Duration {
	if p != nil {
		if fc, ok := p.Fields[string(f)]; ok && fc.MinBudgetSeconds > 0 {
			return time.Duration(fc.MinBudgetSeconds) * time.Second
		}
		if p.Defaults.MinBudgetSeconds > 0 {
			return time.Duration(p.Defaults.MinBudgetSeconds) * time.Second
		}
	}
	return f.MinBudget()
}

// MaxAttempts resolves the attempt ceiling for a field.
func (p *Policy) MaxAttempts(f model.Field) int {
	if p != nil {
		if fc, ok := p.Fields[string(f)]; ok && fc.MaxAttempts > 0 {
			return fc.MaxAttempts
		}
		if p.Defaults.MaxAttempts > 0 {
			return p.Defaults.MaxAttempts
		}
	}
	return f.DefaultMaxAttempts()
}
