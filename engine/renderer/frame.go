package renderer

import (
	"fmt"

	"github.com/Carmen-Shannon/prism-go/engine/graph"
	"github.com/Carmen-Shannon/prism-go/engine/pipeline"
)

// indexStride is the byte size of one index; index buffers hold 32-bit indices.
const indexStride = 4

// CommandKind discriminates the commands of a frame plan.
type CommandKind int

const (
	// CommandSetPipeline switches the active pipeline.
	CommandSetPipeline CommandKind = iota

	// CommandSetBindGroup binds a group at a group index.
	CommandSetBindGroup

	// CommandSetVertexBuffer binds a buffer at a vertex slot.
	CommandSetVertexBuffer

	// CommandSetIndexBuffer binds the index buffer.
	CommandSetIndexBuffer

	// CommandDraw issues one instanced draw, indexed when the pipeline declares an
	// index buffer.
	CommandDraw
)

// Command is one name-level step of a pass plan. Which fields are meaningful depends
// on Kind.
type Command struct {
	// Kind selects the step.
	Kind CommandKind

	// Pipeline is the pipeline name for CommandSetPipeline.
	Pipeline string

	// Group and GroupIndex identify the binding for CommandSetBindGroup.
	Group      string
	GroupIndex uint32

	// Buffer and Slot identify the binding for CommandSetVertexBuffer and
	// CommandSetIndexBuffer.
	Buffer string
	Slot   uint32

	// Draw carries the draw parameters for CommandDraw. When Indexed is false the
	// pipeline has no index buffer and Draw.IndexRange is treated as a vertex range.
	Draw    graph.DrawCall
	Indexed bool
}

// PassPlan is the validated, deduplicated command list for one pass.
type PassPlan struct {
	// Pass is the pass declaration the plan renders.
	Pass graph.Pass

	// Commands are the steps to encode, in order.
	Commands []Command
}

// BuildFramePlan validates one frame's draw data against the model and the built
// pipelines, then produces per-pass command lists in schedule order. Every check runs
// before any plan is returned, so a frame either plans completely or not at all.
// Redundant state changes are elided: a pipeline, bind group, or buffer binding
// already in effect within a pass is not re-bound.
//
// Parameters:
//   - m: the validated model
//   - order: the pass schedule
//   - pipelines: the compiled pipelines by name
//   - drawData: the draw calls per pass name
//
// Returns:
//   - []PassPlan: one plan per scheduled pass, empty passes included
//   - error: an unknown-pass, unknown-pipeline, or draw-range error
func BuildFramePlan(m *graph.Model, order []string, pipelines map[string]pipeline.Pipeline, drawData map[string][]graph.DrawCall) ([]PassPlan, error) {
	scheduled := make(map[string]bool, len(order))
	for _, name := range order {
		scheduled[name] = true
	}
	for passName := range drawData {
		if !scheduled[passName] {
			return nil, fmt.Errorf("draw data for pass %q: %w", passName, graph.ErrUnknownPass)
		}
	}

	plans := make([]PassPlan, 0, len(order))
	for _, passName := range order {
		pass, ok := m.PassByName(passName)
		if !ok {
			return nil, fmt.Errorf("scheduled pass %q: %w", passName, graph.ErrUnknownPass)
		}
		plan, err := buildPassPlan(m, pass, pipelines, drawData[passName])
		if err != nil {
			return nil, err
		}
		plans = append(plans, plan)
	}
	return plans, nil
}

func buildPassPlan(m *graph.Model, pass graph.Pass, pipelines map[string]pipeline.Pipeline, draws []graph.DrawCall) (PassPlan, error) {
	allowed := make(map[string]bool, len(pass.Pipelines))
	for _, name := range pass.Pipelines {
		allowed[name] = true
	}

	plan := PassPlan{Pass: pass}
	currentPipeline := ""
	boundGroups := map[uint32]string{}
	boundVertex := map[uint32]string{}
	boundIndex := ""

	for _, draw := range draws {
		if !allowed[draw.PipelineName] {
			return PassPlan{}, fmt.Errorf("pass %q draw references pipeline %q: %w", pass.Name, draw.PipelineName, graph.ErrUnknownPipeline)
		}
		p, ok := pipelines[draw.PipelineName]
		if !ok {
			return PassPlan{}, fmt.Errorf("pipeline %q not built: %w", draw.PipelineName, graph.ErrUnknownPipeline)
		}
		if err := checkDrawRanges(m, p, draw); err != nil {
			return PassPlan{}, err
		}

		if currentPipeline != p.Key() {
			plan.Commands = append(plan.Commands, Command{Kind: CommandSetPipeline, Pipeline: p.Key()})
			currentPipeline = p.Key()
		}
		for i, group := range p.BindGroups() {
			index := uint32(i)
			if boundGroups[index] != group {
				plan.Commands = append(plan.Commands, Command{Kind: CommandSetBindGroup, Group: group, GroupIndex: index})
				boundGroups[index] = group
			}
		}
		for i, buffer := range p.InputBuffers() {
			slot := uint32(i)
			if boundVertex[slot] != buffer {
				plan.Commands = append(plan.Commands, Command{Kind: CommandSetVertexBuffer, Buffer: buffer, Slot: slot})
				boundVertex[slot] = buffer
			}
		}
		if p.IndexBuffer() != "" && boundIndex != p.IndexBuffer() {
			plan.Commands = append(plan.Commands, Command{Kind: CommandSetIndexBuffer, Buffer: p.IndexBuffer()})
			boundIndex = p.IndexBuffer()
		}
		plan.Commands = append(plan.Commands, Command{Kind: CommandDraw, Draw: draw, Indexed: p.IndexBuffer() != ""})
	}
	return plan, nil
}

// checkDrawRanges verifies the draw's index range against the pipeline's index buffer
// and its instance range against every instance-stepped input buffer.
func checkDrawRanges(m *graph.Model, p pipeline.Pipeline, draw graph.DrawCall) error {
	if p.IndexBuffer() != "" {
		buf, ok := m.BufferByName(p.IndexBuffer())
		if !ok {
			return fmt.Errorf("index buffer %q: %w", p.IndexBuffer(), graph.ErrUnknownPipeline)
		}
		available := uint32(buf.Size / indexStride)
		if draw.IndexRange.End > available {
			return fmt.Errorf("pipeline %q draw indices [%d, %d) exceed %d available: %w",
				p.Key(), draw.IndexRange.Start, draw.IndexRange.End, available, graph.ErrIndexOutOfRange)
		}
	}
	decl, ok := m.PipelineByName(p.Key())
	if !ok {
		return nil
	}
	for _, in := range decl.InputBuffers {
		if in.StepMode != graph.StepModeInstance || in.Stride == 0 {
			continue
		}
		buf, ok := m.BufferByName(in.BufferName)
		if !ok {
			continue
		}
		available := uint32(buf.Size / in.Stride)
		if draw.InstanceRange.End > available {
			return fmt.Errorf("pipeline %q draw instances [%d, %d) exceed %d available in %q: %w",
				p.Key(), draw.InstanceRange.Start, draw.InstanceRange.End, available, in.BufferName, graph.ErrIndexOutOfRange)
		}
	}
	return nil
}
