package graph

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"

	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/graph/nodes"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/graph/observers"
	"github.com/Chative-core-poc-v1/agentic-rag/internal/agent/model"
	logx "github.com/Chative-core-poc-v1/agentic-rag/pkg/logger"
)

// maxRunSteps bounds every route; the longest route has seven nodes.
const maxRunSteps = 20

// Runner executes one route of the pipeline over a pass.
type Runner interface {
	Run(ctx context.Context, route model.Route, in *model.Pass) (*model.Pass, error)
}

type graphRunner struct {
	routes map[model.Route]compose.Runnable[*model.Pass, *model.Pass]
}

func (r *graphRunner) Run(ctx context.Context, route model.Route, in *model.Pass) (*model.Pass, error) {
	runnable, ok := r.routes[route]
	if !ok {
		return nil, fmt.Errorf("unknown route %q", route)
	}
	ctx, failure := nodes.WithFailure(ctx)
	out, err := runnable.Invoke(ctx, in, compose.WithCallbacks(observers.NewAllCallbacks()))
	if err != nil {
		// Report the node's own error rather than the engine's wrapping.
		if cause := failure.Err(); cause != nil {
			return nil, cause
		}
		return nil, err
	}
	if out == nil {
		return nil, fmt.Errorf("route %q returned no pass", route)
	}
	return out, nil
}

// routeSpec lists the linear part of a route. Routes that evaluate end in
// the sufficiency branch; the others end at their last node.
type routeSpec struct {
	chain    []string
	evaluate bool
}

var routeSpecs = map[model.Route]routeSpec{
	model.RouteQuery: {
		chain:    []string{nodes.NodeRefine, nodes.NodePreAnalysis, nodes.NodeRetrieve, nodes.NodeGenerate, nodes.NodeEvaluate},
		evaluate: true,
	},
	model.RouteFeedback: {
		chain:    []string{nodes.NodeRefineFeedback, nodes.NodeRetrieve, nodes.NodeGenerate, nodes.NodeEvaluate},
		evaluate: true,
	},
	model.RouteWebEnhance: {
		chain:    []string{nodes.NodeEnhance, nodes.NodeEvaluate},
		evaluate: true,
	},
	model.RouteReevaluate: {
		chain:    []string{nodes.NodeEvaluate},
		evaluate: true,
	},
	model.RouteAccept: {
		chain: []string{nodes.NodeFinalize},
	},
}

// GraphBuilder constructs the graph of one route.
type GraphBuilder struct {
	deps  *nodes.Deps
	route model.Route
	graph *compose.Graph[*model.Pass, *model.Pass]
	added map[string]bool
}

// BuildRunner compiles every route against deps.
func BuildRunner(ctx context.Context, deps *nodes.Deps) (Runner, error) {
	if deps == nil || deps.Oracle == nil || deps.Registry == nil || deps.Log == nil || deps.Chunks == nil {
		return nil, fmt.Errorf("graph deps are not properly initialized")
	}

	routes := make(map[model.Route]compose.Runnable[*model.Pass, *model.Pass], len(routeSpecs))
	for route, spec := range routeSpecs {
		b := &GraphBuilder{
			deps:  deps,
			route: route,
			graph: compose.NewGraph[*model.Pass, *model.Pass](),
			added: map[string]bool{},
		}
		runnable, err := b.build(ctx, spec)
		if err != nil {
			return nil, err
		}
		routes[route] = runnable
	}
	logx.Debug().Int("routes", len(routes)).Msg("Workflow graphs compiled successfully")
	return &graphRunner{routes: routes}, nil
}

func (b *GraphBuilder) build(ctx context.Context, spec routeSpec) (compose.Runnable[*model.Pass, *model.Pass], error) {
	for _, key := range spec.chain {
		if err := b.addNode(key); err != nil {
			return nil, err
		}
	}

	prev := compose.START
	for _, key := range spec.chain {
		if err := b.graph.AddEdge(prev, key); err != nil {
			return nil, fmt.Errorf("route %s: edge %s -> %s: %w", b.route, prev, key, err)
		}
		prev = key
	}

	if !spec.evaluate {
		if err := b.graph.AddEdge(prev, compose.END); err != nil {
			return nil, fmt.Errorf("route %s: edge %s -> end: %w", b.route, prev, err)
		}
		return b.compile(ctx)
	}

	if err := b.addSufficiencyBranch(prev); err != nil {
		return nil, err
	}
	return b.compile(ctx)
}

// addSufficiencyBranch routes the evaluation to finalize or suspend; both end
// the run.
func (b *GraphBuilder) addSufficiencyBranch(from string) error {
	for _, key := range []string{nodes.NodeFinalize, nodes.NodeSuspend} {
		if err := b.addNode(key); err != nil {
			return err
		}
		if err := b.graph.AddEdge(key, compose.END); err != nil {
			return fmt.Errorf("route %s: edge %s -> end: %w", b.route, key, err)
		}
	}

	branch := compose.NewGraphBranch(
		nodes.NewSufficiencyCondition(b.deps),
		map[string]bool{
			nodes.NodeFinalize: true,
			nodes.NodeSuspend:  true,
		},
	)
	if err := b.graph.AddBranch(from, branch); err != nil {
		logx.Error().Err(err).Str("route", string(b.route)).Msg("Error adding sufficiency branch")
		return fmt.Errorf("error adding sufficiency branch: %w", err)
	}
	return nil
}

func (b *GraphBuilder) addNode(key string) error {
	if b.added[key] {
		return nil
	}
	var lambda *compose.Lambda
	switch key {
	case nodes.NodeRefine:
		lambda = nodes.NewRefineNode(b.deps)
	case nodes.NodeRefineFeedback:
		lambda = nodes.NewRefineFeedbackNode(b.deps)
	case nodes.NodePreAnalysis:
		lambda = nodes.NewPreAnalysisNode(b.deps)
	case nodes.NodeRetrieve:
		lambda = nodes.NewRetrieveNode(b.deps)
	case nodes.NodeGenerate:
		lambda = nodes.NewGenerateNode(b.deps)
	case nodes.NodeEnhance:
		lambda = nodes.NewEnhanceNode(b.deps)
	case nodes.NodeEvaluate:
		lambda = nodes.NewEvaluateNode(b.deps)
	case nodes.NodeFinalize:
		lambda = nodes.NewFinalizeNode(b.deps)
	case nodes.NodeSuspend:
		lambda = nodes.NewSuspendNode()
	default:
		return fmt.Errorf("route %s: unknown node %q", b.route, key)
	}
	if err := b.graph.AddLambdaNode(key, lambda, compose.WithNodeName(key)); err != nil {
		return fmt.Errorf("route %s: add node %s: %w", b.route, key, err)
	}
	b.added[key] = true
	return nil
}

func (b *GraphBuilder) compile(ctx context.Context) (compose.Runnable[*model.Pass, *model.Pass], error) {
	runnable, err := b.graph.Compile(ctx,
		compose.WithGraphName(string(b.route)),
		compose.WithMaxRunSteps(maxRunSteps),
	)
	if err != nil {
		logx.Error().Err(err).Str("route", string(b.route)).Msg("Error compiling graph")
		return nil, fmt.Errorf("error compiling %s graph: %w", b.route, err)
	}
	return runnable, nil
}
