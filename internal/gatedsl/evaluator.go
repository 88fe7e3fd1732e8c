// Copyright (c) 2025 Open Swarm Contributors
//
// This software is released under the MIT License.
// See LICENSE file in the repository for details.

package gatedsl

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/openswarm/orchestrator-core/internal/capability"
	"github.com/openswarm/orchestrator-core/internal/schema"
	"github.com/openswarm/orchestrator-core/internal/telemetry"
)

const tracerName = "orchestrator-core/gatedsl"

// DefaultGlobalTimeout bounds evaluation of a full gate across every check
// combined (spec.md §4.2); exceeding it yields passed=false with a
// "timeout" blocker and whatever partial results were already recorded.
const DefaultGlobalTimeout = 5 * time.Minute

// DefaultPredicateTimeoutMs is the caller-supplied default for subprocess
// predicate runs (typecheck/tests) absent an explicit override.
const DefaultPredicateTimeoutMs = 30000

// testsPassedPattern extracts a pass count that precedes the word "pass" in
// test runner output, e.g. "15 passed, 2 failed" or "12 tests passing".
var testsPassedPattern = regexp.MustCompile(`(?i)(\d+)\s*(?:tests?\s*)?pass(?:ed|ing)?`)

// EvalContext supplies everything the evaluator needs beyond the AST: the
// capability object for shelling out and chain lookups, the commands that
// back typecheck/tests, and the traceability/memory inputs that come from
// the session's current Plan/Prompt rather than the filesystem directly.
type EvalContext struct {
	Capability         capability.Capability
	SessionID          string
	TypecheckCommand   string
	TestCommand        string
	PredicateTimeoutMs int
	MemoryFiles        []string
	Traceability       map[string]string
	ChainCoverage      map[string]int // chain id -> coveragePercent, precomputed by the caller
}

// EvalResult is the structured outcome of evaluating a gate.
type EvalResult struct {
	Passed   bool                 `json:"passed"`
	Results  []schema.CheckResult `json:"results"`
	Blockers []string             `json:"blockers"`
}

// EvaluateGate asynchronously evaluates ast against ec, honoring AND/OR
// short-circuiting and the global timeout tracker. Only checks that are
// actually evaluated append a CheckResult — short-circuited checks leave no
// trace, per spec.md §4.2's explicit observable contract.
func EvaluateGate(ctx context.Context, ast *Node, ec *EvalContext) *EvalResult {
	spanCtx, span := telemetry.StartSpan(ctx, tracerName, "gate.evaluate")
	defer span.End()
	telemetry.AddAttributes(spanCtx, telemetry.SessionAttrs(ec.SessionID, "", "")...)

	deadline, cancel := context.WithTimeout(spanCtx, DefaultGlobalTimeout)
	defer cancel()

	res := &EvalResult{}
	passed, timedOut := evalNode(deadline, ast, ec, res)

	if timedOut {
		res.Passed = false
		res.Blockers = append(res.Blockers, "timeout")
		telemetry.RecordError(spanCtx, context.DeadlineExceeded)
		telemetry.AddAttributes(spanCtx, telemetry.GateAttrs(ast.String(), false)...)
		return res
	}

	res.Passed = passed
	for _, r := range res.Results {
		if !r.Passed {
			msg := r.Message
			if msg == "" {
				msg = r.Check
			}
			res.Blockers = append(res.Blockers, msg)
		}
	}
	telemetry.AddAttributes(spanCtx, telemetry.GateAttrs(ast.String(), res.Passed)...)
	if !res.Passed {
		telemetry.AddEvent(spanCtx, "gate.blocked", telemetry.AttrGateCheck.StringSlice(res.Blockers))
	}
	return res
}

// evalNode returns (passed, timedOut). timedOut short-circuits the whole
// evaluation once the global deadline has already elapsed.
func evalNode(ctx context.Context, n *Node, ec *EvalContext, res *EvalResult) (bool, bool) {
	if ctx.Err() != nil {
		return false, true
	}

	switch n.Kind {
	case KindCheck:
		cr := evalCheck(ctx, n.Check, ec)
		res.Results = append(res.Results, cr)
		return cr.Passed, false

	case KindNot:
		passed, timedOut := evalNode(ctx, n.Left, ec, res)
		if timedOut {
			return false, true
		}
		return !passed, false

	case KindAnd:
		left, timedOut := evalNode(ctx, n.Left, ec, res)
		if timedOut {
			return false, true
		}
		if !left {
			return false, false // short-circuit: right is never evaluated
		}
		return evalNode(ctx, n.Right, ec, res)

	case KindOr:
		left, timedOut := evalNode(ctx, n.Left, ec, res)
		if timedOut {
			return false, true
		}
		if left {
			return true, false // short-circuit: right is never evaluated
		}
		return evalNode(ctx, n.Right, ec, res)

	default:
		return false, false
	}
}

func evalCheck(ctx context.Context, c *Check, ec *EvalContext) schema.CheckResult {
	switch c.Kind {
	case CheckSimple:
		switch strings.ToLower(c.Name) {
		case "typecheck":
			return runPredicateCommand(ctx, ec, "typecheck", ec.TypecheckCommand)
		case "tests":
			return runPredicateCommand(ctx, ec, "tests", ec.TestCommand)
		default:
			// A bare PATTERN check is shorthand for a memory-store lookup.
			return evalMemory(c, ec)
		}

	case CheckMemory:
		return evalMemory(c, ec)

	case CheckTraceability:
		val, ok := ec.Traceability[c.Name]
		passed := ok && val != ""
		msg := ""
		if !passed {
			msg = fmt.Sprintf("traceability field %q is empty or missing", c.Name)
		}
		return schema.CheckResult{Check: c.String(), Passed: passed, Message: msg}

	case CheckEvidenceExists:
		ids, err := ec.Capability.ChainIDs(ec.SessionID)
		if err != nil {
			return schema.CheckResult{Check: c.String(), Passed: false, Message: err.Error()}
		}
		for _, id := range ids {
			if id == c.Name {
				return schema.CheckResult{Check: c.String(), Passed: true}
			}
		}
		return schema.CheckResult{Check: c.String(), Passed: false, Message: fmt.Sprintf("no evidence chain %q", c.Name)}

	case CheckEvidenceCoverage, CheckCoverage:
		min := minCoverage(ec.ChainCoverage)
		passed := compare(float64(min), c.Op, c.Value)
		msg := ""
		if !passed {
			msg = fmt.Sprintf("coverage %d%% does not satisfy %s %s", min, c.Op, c.numberString())
		}
		return schema.CheckResult{Check: c.String(), Passed: passed, Message: msg}

	case CheckThreshold:
		return evalThreshold(ctx, c, ec)

	default:
		return schema.CheckResult{Check: c.String(), Passed: false, Message: "unknown check kind"}
	}
}

func evalMemory(c *Check, ec *EvalContext) schema.CheckResult {
	passed := false
	for _, f := range ec.MemoryFiles {
		if ec.Capability.MatchPattern(f, c.Name) {
			passed = true
			break
		}
	}
	msg := ""
	if !passed {
		msg = fmt.Sprintf("no memory file matches pattern %q", c.Name)
	}
	return schema.CheckResult{Check: c.String(), Passed: passed, Message: msg}
}

func evalThreshold(ctx context.Context, c *Check, ec *EvalContext) schema.CheckResult {
	if strings.EqualFold(c.Subject, "tests") && strings.EqualFold(c.Field, "passed") {
		stdout, timedOut := runCommandOutput(ctx, ec, ec.TestCommand)
		if timedOut {
			return schema.CheckResult{Check: c.String(), Passed: false, Message: "timeout"}
		}
		count := parseTestsPassed(stdout)
		passed := compare(float64(count), c.Op, c.Value)
		msg := ""
		if !passed {
			msg = fmt.Sprintf("tests[passed]=%d does not satisfy %s %s", count, c.Op, trimFloat(c.Value))
		}
		return schema.CheckResult{Check: c.String(), Passed: passed, Message: msg}
	}
	if strings.EqualFold(c.Field, "coverage") && (strings.EqualFold(c.Subject, "evidence") || strings.EqualFold(c.Subject, "coverage")) {
		min := minCoverage(ec.ChainCoverage)
		passed := compare(float64(min), c.Op, c.Value)
		msg := ""
		if !passed {
			msg = fmt.Sprintf("%s[coverage]=%d%% does not satisfy %s %s", c.Subject, min, c.Op, trimFloat(c.Value))
		}
		return schema.CheckResult{Check: c.String(), Passed: passed, Message: msg}
	}
	return schema.CheckResult{Check: c.String(), Passed: false, Message: fmt.Sprintf("unsupported threshold check %s[%s]", c.Subject, c.Field)}
}

// runCommandOutput runs cmd and returns its stdout, ignoring exit code —
// callers like evalThreshold care about parsing output, not pass/fail.
func runCommandOutput(ctx context.Context, ec *EvalContext, cmd string) (stdout string, timedOut bool) {
	if cmd == "" {
		return "", false
	}
	timeoutMs := ec.PredicateTimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = DefaultPredicateTimeoutMs
	}
	result, _ := ec.Capability.RunCommandSandboxed(ctx, cmd, timeoutMs)
	if ctx.Err() == context.DeadlineExceeded {
		return "", true
	}
	return result.Stdout, false
}

func runPredicateCommand(ctx context.Context, ec *EvalContext, name, cmd string) schema.CheckResult {
	if cmd == "" {
		return schema.CheckResult{Check: name, Passed: false, Message: fmt.Sprintf("no command configured for %s", name)}
	}

	timeoutMs := ec.PredicateTimeoutMs
	if timeoutMs <= 0 {
		timeoutMs = DefaultPredicateTimeoutMs
	}

	result, err := ec.Capability.RunCommandSandboxed(ctx, cmd, timeoutMs)
	if ctx.Err() == context.DeadlineExceeded {
		return schema.CheckResult{Check: name, Passed: false, Message: "timeout"}
	}
	if err != nil || result.ExitCode != 0 {
		msg := ""
		if err != nil {
			msg = err.Error()
		}
		return schema.CheckResult{Check: name, Passed: false, Message: msg}
	}
	return schema.CheckResult{Check: name, Passed: true}
}

func parseTestsPassed(output string) int {
	m := testsPassedPattern.FindStringSubmatch(output)
	if len(m) < 2 {
		return 0
	}
	var n int
	fmt.Sscanf(m[1], "%d", &n)
	return n
}

func minCoverage(coverage map[string]int) int {
	if len(coverage) == 0 {
		return 0
	}
	min := -1
	for _, v := range coverage {
		if min == -1 || v < min {
			min = v
		}
	}
	return min
}

func compare(lhs float64, op string, rhs float64) bool {
	switch op {
	case ">=":
		return lhs >= rhs
	case "<=":
		return lhs <= rhs
	case ">":
		return lhs > rhs
	case "<":
		return lhs < rhs
	case "=":
		return lhs == rhs
	default:
		return false
	}
}
