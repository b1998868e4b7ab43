// Copyright 2024 The Tektite Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/alecthomas/kong"
	konghcl "github.com/alecthomas/kong-hcl/v2"
	"github.com/charmbracelet/lipgloss"
	"github.com/spirit-labs/tekagg/common"
	"github.com/spirit-labs/tekagg/conf"
	"github.com/spirit-labs/tekagg/errors"
	"github.com/spirit-labs/tekagg/evbatch"
	"github.com/spirit-labs/tekagg/exec"
	log "github.com/spirit-labs/tekagg/logger"
	"github.com/spirit-labs/tekagg/metrics"
	"github.com/spirit-labs/tekagg/plan"
	"github.com/spirit-labs/tekagg/tablestore"
	"github.com/spirit-labs/tekagg/uda"
)

const (
	inputTableName  = "input"
	outputTableName = "output"
)

type arguments struct {
	Config kong.ConfigFlag `help:"Path to config file" type:"existingfile"`
	Plan   string          `help:"Path to a JSON5 aggregate plan" type:"existingfile"`
	Query  string          `help:"Aggregate in compact form, e.g. 'aggregate sum(amount) by customer'"`
	Schema string          `help:"Schema of the input rows, e.g. 'customer:string,amount:int'" required:""`
	Input  string          `help:"Path to a JSON lines input file. Reads stdin if not set" type:"existingfile"`
	Agg    conf.Config     `help:"Aggregation configuration" embed:"" prefix:""`
	Log    log.Config      `help:"Configuration for the logger" embed:"" prefix:"log-"`
}

var headerStyle = lipgloss.NewStyle().Bold(true)

func main() {
	defer common.PanicHandler()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	r := &runner{stdin: os.Stdin, stdout: os.Stdout}
	cfg, err := r.loadConfig(os.Args[1:])
	if err != nil {
		log.Errorf(err.Error())
		os.Exit(1)
	}
	if err := r.run(ctx, cfg); err != nil {
		// engine errors are reported as is, anything else only by reference
		log.Errorf(common.LogInternalError(err).Error())
		os.Exit(1)
	}
}

type runner struct {
	stdin      io.Reader
	stdout     io.Writer
	tableStore *tablestore.TableStore
}

func (r *runner) loadConfig(args []string) (*arguments, error) {
	cfg := arguments{}
	opts := append([]kong.Option{kong.Configuration(konghcl.Loader)}, optionalMappers()...)
	parser, err := kong.New(&cfg, opts...)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	if _, err = parser.Parse(args); err != nil {
		return nil, errors.WithStack(err)
	}
	if (cfg.Plan == "") == (cfg.Query == "") {
		return nil, errors.New("exactly one of --plan or --query must be specified")
	}
	if err := cfg.Log.Configure(); err != nil {
		return nil, errors.WithStack(err)
	}
	cfg.Agg.ApplyDefaults()
	if err := cfg.Agg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (r *runner) loadAggregate(cfg *arguments, schema *evbatch.EventSchema) (*plan.AggregateOperator, error) {
	if cfg.Plan != "" {
		return plan.LoadOperatorFile(cfg.Plan)
	}
	return plan.ParseAggregate(cfg.Query, schema)
}

func (r *runner) loadInput(cfg *arguments, schema *evbatch.EventSchema) (*tablestore.Table, error) {
	in := r.stdin
	if cfg.Input != "" {
		f, err := os.Open(cfg.Input)
		if err != nil {
			return nil, errors.WithStack(err)
		}
		defer func() {
			if err := f.Close(); err != nil {
				log.Warnf("failed to close %s: %v", cfg.Input, err)
			}
		}()
		in = f
	}
	return tablestore.LoadJSONLines(in, schema, *cfg.Agg.MaxBatchRows)
}

// run loads the input into a table, aggregates it into the output table and prints the output.
func (r *runner) run(ctx context.Context, cfg *arguments) error {
	schema, err := evbatch.ParseEventSchema(cfg.Schema)
	if err != nil {
		return err
	}
	aggOp, err := r.loadAggregate(cfg, schema)
	if err != nil {
		return err
	}
	input, err := r.loadInput(cfg, schema)
	if err != nil {
		return err
	}
	r.tableStore = tablestore.NewTableStore()
	if err := r.tableStore.AddTable(inputTableName, input); err != nil {
		return err
	}
	registry, err := uda.NewRegistryWithBuiltins(*cfg.Agg.RegistryCacheSize)
	if err != nil {
		return err
	}

	metricsServer := metrics.NewServer(cfg.Agg)
	if err := metricsServer.Start(); err != nil {
		return err
	}
	defer func() {
		if err := metricsServer.Stop(); err != nil {
			log.Warnf("failed to stop metrics server: %v", err)
		}
	}()

	windowRows := 0
	if aggOp.Windowed {
		windowRows = *cfg.Agg.WindowRows
	}
	state := exec.NewExecState(cfg.Agg, registry, r.tableStore)
	log.Debugf("query %s aggregating %d rows from %s", state.QueryID, input.NumRows(), inputTableName)
	source := exec.NewMemorySourceNode(&plan.MemorySourceOperator{TableName: inputTableName, WindowRows: windowRows})
	sink := exec.NewMemorySinkNode(&plan.MemorySinkOperator{TableName: outputTableName})
	if err := exec.NewPipeline(state, source, exec.NewAggNode(aggOp), sink).Run(ctx); err != nil {
		return err
	}
	return r.printOutput(aggOp.Windowed)
}

func (r *runner) printOutput(windowed bool) error {
	output := r.tableStore.GetTable(outputTableName)
	for i, batch := range output.Batches() {
		title := "result"
		if windowed {
			title = fmt.Sprintf("window %d", i)
		}
		header := fmt.Sprintf("%s (%d rows)\n%s", title, batch.RowCount,
			strings.Join(batch.Schema.ColumnNames(), ", "))
		if _, err := fmt.Fprintln(r.stdout, headerStyle.Render(header)); err != nil {
			return errors.WithStack(err)
		}
		for row := 0; row < batch.RowCount; row++ {
			if _, err := fmt.Fprintln(r.stdout, evbatch.FormatRow(batch.Row(row))); err != nil {
				return errors.WithStack(err)
			}
		}
	}
	return nil
}
