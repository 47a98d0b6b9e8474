package report

import (
	"sort"
	"strconv"
	"strings"

	"github.com/sparkqual/sparkqual/pkg/store"
)

// PlanDescriptions returns each SQL execution's physical-plan text
// keyed by sqlId, for collaborators that write per-execution files.
func PlanDescriptions(st *store.Store) map[int64]string {
	out := make(map[int64]string, len(st.SQLs))
	for _, sq := range st.SQLs {
		out[sq.SQLID] = sq.PhysicalPlanDescription
	}
	return out
}

// PlanGraphDOT renders one SQL execution's plan tree in DOT form,
// annotating nodes with their aggregated accumulator values. Returns
// the empty string when the execution is unknown.
func PlanGraphDOT(st *store.Store, sqlID int64) string {
	sq := st.SQLByID(sqlID)
	if sq == nil {
		return ""
	}

	values := make(map[int64]int64, len(st.AccumValues))
	for _, v := range st.AccumValues {
		if v.SQLID == sqlID {
			values[v.AccumulatorID] = v.Value
		}
	}

	var b strings.Builder
	b.WriteString("digraph \"plan_sql_" + strconv.FormatInt(sqlID, 10) + "\" {\n")
	b.WriteString("  node [shape=box];\n")
	writeDOTNode(&b, &sq.Plan, values)
	b.WriteString("}\n")
	return b.String()
}

func writeDOTNode(b *strings.Builder, node *store.PlanNode, values map[int64]int64) {
	label := node.NodeName
	if len(node.Metrics) > 0 {
		var lines []string
		for _, m := range node.Metrics {
			if v, ok := values[m.AccumulatorID]; ok {
				lines = append(lines, m.Name+": "+strconv.FormatInt(v, 10))
			}
		}
		sort.Strings(lines)
		if len(lines) > 0 {
			label += "\\n" + strings.Join(lines, "\\n")
		}
	}

	id := "n" + strconv.Itoa(node.NodeID)
	b.WriteString("  " + id + " [label=\"" + escapeDOT(label) + "\"];\n")
	for i := range node.Children {
		child := &node.Children[i]
		b.WriteString("  " + id + " -> n" + strconv.Itoa(child.NodeID) + ";\n")
		writeDOTNode(b, child, values)
	}
}

func escapeDOT(s string) string {
	s = strings.ReplaceAll(s, `"`, `\"`)
	return strings.ReplaceAll(s, "\n", "\\n")
}
