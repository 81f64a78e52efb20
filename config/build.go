package config

import (
	"fmt"

	"github.com/dcshock/runstate/pipeline"
)

// BuildOptions configures how a pipeline is built from config.
type BuildOptions struct {
	// ObserverRegistry is used when PipelineConfig.Observers is set. BuildObserver returns pipeline.MultiObserver of the looked-up observers.
	ObserverRegistry *ObserverRegistry
}

// BuildPipeline builds a pipeline.Pipeline from config and registry. Stage names in config must be registered.
func BuildPipeline(reg *Registry, cfg *PipelineConfig, opts *BuildOptions) (*pipeline.Pipeline, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is nil")
	}
	stages := make([]pipeline.Stage, 0, len(cfg.Stages))
	for i, ref := range cfg.Stages {
		if ref.Name == "" {
			return nil, fmt.Errorf("stage %d: name required", i)
		}
		fn, ok := reg.Get(ref.Name)
		if !ok {
			return nil, fmt.Errorf("stage %d: %q not in registry", i, ref.Name)
		}
		stages = append(stages, wrapStage(fn, ref))
	}
	return &pipeline.Pipeline{Name: cfg.Name, Stages: stages}, nil
}

// BuildObserver returns a pipeline.Observer for the config's Observers list by looking up each name
// in BuildOptions.ObserverRegistry and combining them with pipeline.MultiObserver.
// If cfg.Observers is empty or opts.ObserverRegistry is nil, returns (nil, nil); the caller
// can pass their own observer in RunOptions. If any observer name is not registered, returns an error.
func BuildObserver(cfg *PipelineConfig, opts *BuildOptions) (pipeline.Observer, error) {
	if cfg == nil || len(cfg.Observers) == 0 || opts == nil || opts.ObserverRegistry == nil {
		return nil, nil
	}
	list := make([]pipeline.Observer, 0, len(cfg.Observers))
	for i, name := range cfg.Observers {
		obs, ok := opts.ObserverRegistry.Get(name)
		if !ok {
			return nil, fmt.Errorf("observer %d: %q not in registry", i, name)
		}
		list = append(list, obs)
	}
	return pipeline.MultiObserver(list...), nil
}

func wrapStage(fn pipeline.StageFunc, ref StageRef) pipeline.Stage {
	if ref.Timeout > 0 {
		fn = pipeline.WithTimeout(fn, ref.Timeout.Duration())
	}
	return pipeline.Stage{Name: ref.Name, Run: fn, Advisory: ref.Advisory}
}

// BuildAllPipelines builds a pipeline.Pipeline for each entry in multi. Keys are pipeline names.
// If a pipeline config's Name is empty, the map key is used as the pipeline name.
func BuildAllPipelines(reg *Registry, multi *MultiPipelineConfig, opts *BuildOptions) (map[string]*pipeline.Pipeline, error) {
	if multi == nil {
		return nil, fmt.Errorf("MultiPipelineConfig is nil")
	}
	out := make(map[string]*pipeline.Pipeline, len(multi.Pipelines))
	for name, cfg := range multi.Pipelines {
		if cfg.Name == "" {
			cfg.Name = name
		}
		p, err := BuildPipeline(reg, &cfg, opts)
		if err != nil {
			return nil, fmt.Errorf("pipeline %q: %w", name, err)
		}
		out[name] = p
	}
	return out, nil
}
