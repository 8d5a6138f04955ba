package hcl

import (
	"github.com/hashicorp/hcl/v2"
)

// fileRoot decodes every top-level block a file may hold.
type fileRoot struct {
	Executions []*executionBlock `hcl:"execution,block"`
	DataNodes  []*dataNodeBlock  `hcl:"data_node,block"`
	Tasks      []*taskBlock      `hcl:"task,block"`
	Scenarios  []*scenarioBlock  `hcl:"scenario,block"`
}

type executionBlock struct {
	Mode       *string   `hcl:"mode,optional"`
	MaxWorkers *int      `hcl:"max_workers,optional"`
	DefRange   hcl.Range `hcl:",def_range"`
}

type dataNodeBlock struct {
	ID             string         `hcl:"id,label"`
	Default        hcl.Expression `hcl:"default,optional"`
	ValidityPeriod *string        `hcl:"validity_period,optional"`
	DefRange       hcl.Range      `hcl:",def_range"`
}

type taskBlock struct {
	ID        string    `hcl:"id,label"`
	Function  string    `hcl:"function"`
	Inputs    []string  `hcl:"inputs,optional"`
	Outputs   []string  `hcl:"outputs,optional"`
	Skippable bool      `hcl:"skippable,optional"`
	DefRange  hcl.Range `hcl:",def_range"`
}

type scenarioBlock struct {
	ID        string           `hcl:"id,label"`
	Tasks     []string         `hcl:"tasks"`
	Sequences []*sequenceBlock `hcl:"sequence,block"`
	DefRange  hcl.Range        `hcl:",def_range"`
}

type sequenceBlock struct {
	Name  string   `hcl:"name,label"`
	Tasks []string `hcl:"tasks"`
}
