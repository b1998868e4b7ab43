package exec

import (
	"github.com/google/uuid"
	"github.com/spirit-labs/tekagg/conf"
	"github.com/spirit-labs/tekagg/tablestore"
	"github.com/spirit-labs/tekagg/uda"
)

// ExecState is shared by every node of one query.
type ExecState struct {
	QueryID    uuid.UUID
	Registry   *uda.Registry
	TableStore *tablestore.TableStore
	Config     conf.Config
	funcCtx    *uda.FunctionContext
}

func NewExecState(config conf.Config, registry *uda.Registry, tableStore *tablestore.TableStore) *ExecState {
	config.ApplyDefaults()
	queryID := uuid.New()
	return &ExecState{
		QueryID:    queryID,
		Registry:   registry,
		TableStore: tableStore,
		Config:     config,
		funcCtx:    uda.NewFunctionContext(queryID),
	}
}

// FunctionContext is passed to every aggregate function call made for the query.
func (e *ExecState) FunctionContext() *uda.FunctionContext {
	return e.funcCtx
}
