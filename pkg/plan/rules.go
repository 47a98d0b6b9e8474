// Package plan classifies physical-plan nodes by their free-text
// descriptions.
//
// Classification is an ordered list of (predicate, label) rules
// evaluated independently per node: a node may receive multiple labels.
// The rule set is versioned so report consumers can tell which policy
// produced a classification.
package plan

import (
	"regexp"
	"strings"
)

// RulesVersion identifies the active classification policy.
const RulesVersion = 1

// Label is the classification a rule assigns.
type Label string

const (
	// LabelDatasetOp marks closure/lambda-expressed operations.
	LabelDatasetOp Label = "dataset-op"

	// LabelPotentialIssue marks constructs known to complicate
	// acceleration, such as user-defined functions.
	LabelPotentialIssue Label = "potential-issue"
)

// Rule is one classification predicate.
type Rule struct {
	// Name identifies the rule in diagnostics.
	Name string

	// Label is assigned when Match reports true.
	Label Label

	// Reason is the report-facing reason string for issue labels.
	Reason string

	// Match evaluates the node description.
	Match func(desc string) bool
}

var lambdaCallSite = regexp.MustCompile(`\$Lambda\$\d+`)

// DefaultRules returns the built-in rule set, in evaluation order.
//
// Dataset-style detection covers generated lambda call sites, Scala
// anonymous functions, and the functional-apply suffix left by typed
// Dataset operations. The UDF rule is independent of all three.
func DefaultRules() []Rule {
	return []Rule{
		{
			Name:  "lambda-call-site",
			Label: LabelDatasetOp,
			Match: func(desc string) bool {
				return lambdaCallSite.MatchString(desc)
			},
		},
		{
			Name:  "anonymous-function",
			Label: LabelDatasetOp,
			Match: func(desc string) bool {
				return strings.Contains(desc, "$anonfun$")
			},
		},
		{
			Name:  "functional-apply",
			Label: LabelDatasetOp,
			Match: func(desc string) bool {
				return strings.HasSuffix(strings.TrimSpace(desc), ".apply")
			},
		},
		{
			Name:   "udf-marker",
			Label:  LabelPotentialIssue,
			Reason: "UDF",
			Match: func(desc string) bool {
				return strings.Contains(desc, "UDF")
			},
		},
	}
}
