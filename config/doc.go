// Package config provides a stage registry and human-readable pipeline configuration.
//
// Register stage functions by name, then define pipelines in YAML (or structs) that
// reference those names and optional modifiers (advisory, timeout):
//
//	pipelines:
//	  ingest:
//	    stages:
//	      - fetch
//	      - name: enrich
//	        advisory: true
//	        timeout: 60s
//	      - validate
//	    observers: [log, db]
//
// A file may also hold a single pipeline (name, stages, observers at the top level).
// LoadFile validates the document against the JSON schema in schema.json before
// decoding it. Build a pipeline with BuildPipeline(registry, config, opts), and its
// observers with BuildObserver.
package config
