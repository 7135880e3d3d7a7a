package observability

import (
	"context"

	"github.com/samber/lo"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const TreeMeterName = "xrbtree/tree"

var (
	attrApplied    = attribute.Key("applied")
	attrHit        = attribute.Key("hit")
	attrViolation  = attribute.Key("kind")
	appliedOptions = [2]metric.AddOption{
		metric.WithAttributes(attrApplied.Bool(false)),
		metric.WithAttributes(attrApplied.Bool(true)),
	}
	hitOptions = [2]metric.AddOption{
		metric.WithAttributes(attrHit.Bool(false)),
		metric.WithAttributes(attrHit.Bool(true)),
	}
)

// TreeStats counts the tree operations issued by the shell and the
// soak checker. A nil *TreeStats records nothing.
type TreeStats struct {
	inserts    metric.Int64Counter
	deletes    metric.Int64Counter
	searches   metric.Int64Counter
	violations metric.Int64Counter
}

func b2i(b bool) int {
	if b {
		return 1
	}
	return 0
}

func (s *TreeStats) Inserted(ctx context.Context, applied bool) {
	if s == nil {
		return
	}
	s.inserts.Add(ctx, 1, appliedOptions[b2i(applied)])
}

func (s *TreeStats) Deleted(ctx context.Context, applied bool) {
	if s == nil {
		return
	}
	s.deletes.Add(ctx, 1, appliedOptions[b2i(applied)])
}

func (s *TreeStats) Searched(ctx context.Context, hit bool) {
	if s == nil {
		return
	}
	s.searches.Add(ctx, 1, hitOptions[b2i(hit)])
}

func (s *TreeStats) Violated(ctx context.Context, kind string) {
	if s == nil {
		return
	}
	s.violations.Add(ctx, 1, metric.WithAttributes(attrViolation.String(kind)))
}

// NewTreeStats uses the global meter provider if meter is nil.
func NewTreeStats(meter metric.Meter) *TreeStats {
	if meter == nil {
		meter = otel.Meter(TreeMeterName)
	}
	return &TreeStats{
		inserts: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"rbtree.ops.insert",
			metric.WithDescription("Insert calls, applied is false for duplicates."),
		)),
		deletes: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"rbtree.ops.delete",
			metric.WithDescription("Delete calls, applied is false for absent keys."),
		)),
		searches: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"rbtree.ops.search",
			metric.WithDescription("Search calls by hit."),
		)),
		violations: lo.Must[metric.Int64Counter](meter.Int64Counter(
			"rbtree.violations",
			metric.WithDescription("Tree rule violations found by the soak checker."),
		)),
	}
}
