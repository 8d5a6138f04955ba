// Package hcl implements config.Loader for HCL files.
//
// A project is any number of .hcl files holding these top-level blocks:
//
//	execution {
//	  mode        = "standalone"
//	  max_workers = 4
//	}
//
//	data_node "raw" {
//	  default         = "hello"
//	  validity_period = "1h"
//	}
//
//	task "shout" {
//	  function  = "transform.upper"
//	  inputs    = ["raw"]
//	  outputs   = ["loud"]
//	  skippable = true
//	}
//
//	scenario "pipeline" {
//	  tasks = ["shout"]
//
//	  sequence "head" {
//	    tasks = ["shout"]
//	  }
//	}
//
// Blocks may be spread across files in any order; references between them are
// resolved later by the builder.
package hcl
