package gfs

import "github.com/onnimonni/gridscan/internal/plan"

// PushLimit walks the plan and, for every limit whose child chain reaches
// this table's scan through projection nodes only, writes the limit's
// constant bound into the scan descriptor. A limit above a join or filter
// stays where it is; those operators can change row counts, so pushing
// through them would truncate the wrong stream.
//
// The scan keeps reporting its inflated cardinality estimate either way.
// The estimate biases planning, the pushed bound stops execution, and the
// two must stay separate.
func PushLimit(root plan.Node) {
	plan.Walk(root, func(n plan.Node) {
		limit, ok := n.(*plan.LimitNode)
		if !ok || !limit.Constant {
			return
		}
		child := limit.Input
		for {
			proj, ok := child.(*plan.ProjectionNode)
			if !ok {
				break
			}
			child = proj.Input
		}
		scan, ok := child.(*plan.ScanNode)
		if !ok {
			return
		}
		table, ok := scan.Table.(*Table)
		if !ok || table.Name() != TableName {
			return
		}
		table.Descriptor().RowLimit = limit.Bound
	})
}
