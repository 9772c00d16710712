package engine

import (
	"context"
	"fmt"
	"os"

	"github.com/open-policy-agent/opa/v1/ast"
	"github.com/open-policy-agent/opa/v1/rego"
	"go.uber.org/zap"

	userdomain "account-service/internal/user/domain"
)

const resetQuery = "data.account.password_reset.invalidate_prior_codes"

// DefaultResetPolicy keeps prior codes valid. Deployments override it with RESET_POLICY_FILE.
const DefaultResetPolicy = `package account.password_reset

default invalidate_prior_codes = false
`

// OPAEvaluator evaluates the password reset policy with OPA Rego.
// The policy is compiled once at construction.
type OPAEvaluator struct {
	query rego.PreparedEvalQuery
	log   *zap.Logger
}

// NewOPAEvaluator compiles module (DefaultResetPolicy when empty).
func NewOPAEvaluator(ctx context.Context, module string, log *zap.Logger) (*OPAEvaluator, error) {
	if module == "" {
		module = DefaultResetPolicy
	}
	if log == nil {
		log = zap.NewNop()
	}
	q, err := prepare(ctx, module)
	if err != nil {
		return nil, err
	}
	return &OPAEvaluator{query: q, log: log}, nil
}

// NewOPAEvaluatorFromFile reads a Rego module from path. An empty path selects the default policy.
func NewOPAEvaluatorFromFile(ctx context.Context, path string, log *zap.Logger) (*OPAEvaluator, error) {
	if path == "" {
		return NewOPAEvaluator(ctx, "", log)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read reset policy: %w", err)
	}
	return NewOPAEvaluator(ctx, string(b), log)
}

func prepare(ctx context.Context, module string) (rego.PreparedEvalQuery, error) {
	compiler, err := ast.CompileModules(map[string]string{"password_reset.rego": module})
	if err != nil {
		return rego.PreparedEvalQuery{}, fmt.Errorf("compile reset policy: %w", err)
	}
	q, err := rego.New(rego.Query(resetQuery), rego.Compiler(compiler)).PrepareForEval(ctx)
	if err != nil {
		return rego.PreparedEvalQuery{}, fmt.Errorf("prepare reset policy: %w", err)
	}
	return q, nil
}

// HealthCheck verifies that the default policy compiles and evaluates. Does not touch the database.
func (e *OPAEvaluator) HealthCheck(ctx context.Context) error {
	q, err := prepare(ctx, DefaultResetPolicy)
	if err != nil {
		return err
	}
	rs, err := q.Eval(ctx, rego.EvalInput(buildInput(nil, "email")))
	if err != nil {
		return fmt.Errorf("eval default policy: %w", err)
	}
	if len(rs) == 0 || len(rs[0].Expressions) == 0 {
		return fmt.Errorf("policy query returned no result")
	}
	return nil
}

// EvaluateReset returns the policy decision. On evaluation failure it logs and
// returns DefaultResetDecision with a nil error so a broken policy cannot block resets.
func (e *OPAEvaluator) EvaluateReset(ctx context.Context, user *userdomain.User, channel string) (ResetDecision, error) {
	rs, err := e.query.Eval(ctx, rego.EvalInput(buildInput(user, channel)))
	if err != nil {
		e.log.Warn("reset policy evaluation failed, using defaults", zap.Error(err))
		return DefaultResetDecision, nil
	}
	out := DefaultResetDecision
	if len(rs) > 0 && len(rs[0].Expressions) > 0 {
		if v, ok := rs[0].Expressions[0].Value.(bool); ok {
			out.InvalidatePriorCodes = v
		}
	}
	return out, nil
}

func buildInput(user *userdomain.User, channel string) map[string]interface{} {
	u := map[string]interface{}{
		"id":        "",
		"has_email": false,
		"has_phone": false,
		"is_staff":  false,
	}
	if user != nil {
		u["id"] = user.ID
		u["has_email"] = user.Email != ""
		u["has_phone"] = user.Phone != ""
		u["is_staff"] = user.IsStaff
	}
	return map[string]interface{}{
		"user":    u,
		"channel": channel,
	}
}
