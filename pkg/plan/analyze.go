package plan

import (
	"github.com/sparkqual/sparkqual/pkg/store"
)

// maxCapturedDesc bounds the description captured on diagnostic flags.
const maxCapturedDesc = 100

// Analyzer walks plan trees and records diagnostic flags on the store.
type Analyzer struct {
	rules []Rule
}

// NewAnalyzer builds an analyzer over the given rule set.
// A nil or empty rule set falls back to DefaultRules.
func NewAnalyzer(rules []Rule) *Analyzer {
	if len(rules) == 0 {
		rules = DefaultRules()
	}
	return &Analyzer{rules: rules}
}

// Analyze runs classification over every SQL execution in the store.
//
// Runs once after correlation; running it again resets and recomputes
// the same flags. In accelerated mode every dataset-style node is also
// recorded as an unsupported plan node, since lambda-expressed
// operations cannot be lowered to the accelerated path.
func (a *Analyzer) Analyze(st *store.Store) {
	st.Flags = nil
	for _, sq := range st.SQLs {
		sq.HasDatasetOp = false
		sq.PotentialProblems = nil
		a.analyzeNode(st, sq, &sq.Plan)
	}
}

func (a *Analyzer) analyzeNode(st *store.Store, sq *store.SQLExecution, node *store.PlanNode) {
	desc := node.SimpleString
	if desc == "" {
		desc = node.NodeName
	}

	// Labels are independent and additive, but a node that matches
	// several dataset rules is still one dataset-style node.
	dataset := false
	for _, r := range a.rules {
		if !r.Match(desc) {
			continue
		}
		switch r.Label {
		case LabelDatasetOp:
			dataset = true
		case LabelPotentialIssue:
			sq.PotentialProblems = append(sq.PotentialProblems, r.Reason)
			st.AddFlag(&store.DiagnosticFlag{
				SQLID:       sq.SQLID,
				NodeID:      node.NodeID,
				Kind:        store.FlagPotentialIssue,
				NodeName:    node.NodeName,
				Description: truncateDesc(desc),
			})
		}
	}

	if dataset {
		sq.HasDatasetOp = true
		st.AddFlag(&store.DiagnosticFlag{
			SQLID:       sq.SQLID,
			NodeID:      node.NodeID,
			Kind:        store.FlagDatasetOp,
			NodeName:    node.NodeName,
			Description: truncateDesc(desc),
		})
		if st.Accelerated {
			st.AddFlag(&store.DiagnosticFlag{
				SQLID:       sq.SQLID,
				NodeID:      node.NodeID,
				Kind:        store.FlagUnsupportedNode,
				NodeName:    node.NodeName,
				Description: truncateDesc(desc),
			})
		}
	}

	for i := range node.Children {
		a.analyzeNode(st, sq, &node.Children[i])
	}
}

func truncateDesc(s string) string {
	if len(s) <= maxCapturedDesc {
		return s
	}
	return s[:maxCapturedDesc]
}
