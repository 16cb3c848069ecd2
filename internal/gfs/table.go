package gfs

import (
	"context"
	"log/slog"

	"github.com/onnimonni/gridscan/internal/fetch"
	"github.com/onnimonni/gridscan/internal/grib"
	"github.com/onnimonni/gridscan/internal/plan"
)

// TableName is how the forecast table is addressed in plans.
const TableName = "gfs_forecast"

// EstimatedScanRows is the cardinality reported to the planner. It is
// deliberately inflated so the planner keeps a limit adjacent to the scan
// instead of materializing; the real bound is Descriptor.RowLimit and this
// constant must never size buffers or row counts.
const EstimatedScanRows uint64 = 10_000_000

var tableColumns = []plan.Column{
	{Name: "latitude", Type: plan.TypeDouble},
	{Name: "longitude", Type: plan.TypeDouble},
	{Name: "value", Type: plan.TypeDouble},
	{Name: "unit", Type: plan.TypeVarchar},
	{Name: "variable", Type: plan.TypeVarchar},
	{Name: "level", Type: plan.TypeVarchar},
	{Name: "forecast_hour", Type: plan.TypeInteger},
	{Name: "run_date", Type: plan.TypeVarchar},
	{Name: "run_hour", Type: plan.TypeInteger},
}

// Table exposes the forecast feed as a scannable virtual table. One Table
// carries one descriptor, so each logical query binds its own instance.
type Table struct {
	desc    *Descriptor
	baseURL string
	fetcher fetch.Fetcher
	opener  grib.Opener
	log     *slog.Logger
}

func NewTable(log *slog.Logger, desc *Descriptor, baseURL string, fetcher fetch.Fetcher, opener grib.Opener) *Table {
	if log == nil {
		log = slog.Default()
	}
	return &Table{desc: desc, baseURL: baseURL, fetcher: fetcher, opener: opener, log: log}
}

func (t *Table) Name() string { return TableName }

func (t *Table) Columns() []plan.Column { return tableColumns }

// Descriptor exposes the bound query descriptor for the limit rewrite.
func (t *Table) Descriptor() *Descriptor { return t.desc }

// PushDownFilters resolves what it can into the descriptor and returns
// the predicates the executor still has to apply.
func (t *Table) PushDownFilters(filters []plan.Expr) []plan.Expr {
	return Translate(t.desc, filters)
}

func (t *Table) EstimatedRows() uint64 { return EstimatedScanRows }

func (t *Table) Open(ctx context.Context) (plan.Cursor, error) {
	if err := t.desc.Validate(); err != nil {
		return nil, err
	}
	return NewCursor(t.log, t.desc, t.baseURL, t.fetcher, t.opener), nil
}
