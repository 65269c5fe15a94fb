package renderer

import (
	"fmt"

	"github.com/cogentcore/webgpu/wgpu"

	"github.com/Carmen-Shannon/prism-go/common"
	"github.com/Carmen-Shannon/prism-go/engine/binding"
	"github.com/Carmen-Shannon/prism-go/engine/graph"
	"github.com/Carmen-Shannon/prism-go/engine/pipeline"
	"github.com/Carmen-Shannon/prism-go/engine/registry"
)

// EncodedCommand is one pass-plan step with its names resolved to GPU handles.
type EncodedCommand struct {
	// Kind selects the step, matching the name-level plan.
	Kind CommandKind

	// Pipeline is the handle for CommandSetPipeline.
	Pipeline *wgpu.RenderPipeline

	// Group and GroupIndex carry the binding for CommandSetBindGroup.
	Group      *wgpu.BindGroup
	GroupIndex uint32

	// Buffer and Slot carry the binding for CommandSetVertexBuffer and
	// CommandSetIndexBuffer.
	Buffer *wgpu.Buffer
	Slot   uint32

	// Draw carries the draw parameters for CommandDraw; Indexed selects between
	// indexed and plain draws.
	Draw    graph.DrawCall
	Indexed bool
}

// EncodedPass is a fully resolved pass: attachments as views, commands as handles.
// The backend encodes it without consulting any registry.
type EncodedPass struct {
	// Label is the pass name, used for the GPU debug label.
	Label string

	// RegionOffset and RegionSize carry the attachment sub-region the pass renders
	// into, applied as viewport and scissor. A zero RegionSize means the full target.
	RegionOffset common.Size2d
	RegionSize   common.Size2d

	// Color are the resolved color attachments, in declaration order.
	Color []wgpu.RenderPassColorAttachment

	// Depth is the resolved depth attachment, nil when the pass declares none.
	Depth *wgpu.RenderPassDepthStencilAttachment

	// Commands are the resolved steps to encode, in order.
	Commands []EncodedCommand
}

// resolvePlans turns name-level pass plans into encoded passes by resolving every
// attachment, pipeline, bind group, and buffer reference to its live handle. Any
// failure aborts the whole frame before encoding starts.
func resolvePlans(m *graph.Model, plans []PassPlan, reg registry.Registry, res binding.Resolver, pipelines map[string]pipeline.Pipeline, surfaceView *wgpu.TextureView) ([]*EncodedPass, error) {
	encoded := make([]*EncodedPass, 0, len(plans))
	for i := range plans {
		pass, err := resolvePass(m, &plans[i], reg, res, pipelines, surfaceView)
		if err != nil {
			return nil, err
		}
		encoded = append(encoded, pass)
	}
	return encoded, nil
}

func resolvePass(m *graph.Model, plan *PassPlan, reg registry.Registry, res binding.Resolver, pipelines map[string]pipeline.Pipeline, surfaceView *wgpu.TextureView) (*EncodedPass, error) {
	out := &EncodedPass{Label: plan.Pass.Name}

	for _, att := range plan.Pass.Attachments {
		// Validation guarantees every non-zero attachment region in a pass agrees.
		if !att.Size.IsZero() {
			out.RegionOffset = att.Offset
			out.RegionSize = att.Size
		}

		view := surfaceView
		isDepth := false
		if !att.Window {
			_, texView, desc, err := reg.Texture(att.Texture)
			if err != nil {
				return nil, fmt.Errorf("pass %q: %w", plan.Pass.Name, err)
			}
			view = texView
			isDepth = desc.Format.IsDepth()
		}

		loadOp := wgpu.LoadOpClear
		if att.LoadOp == graph.LoadOpLoad {
			loadOp = wgpu.LoadOpLoad
		}
		storeOp := wgpu.StoreOpStore
		if !att.Store {
			storeOp = wgpu.StoreOpDiscard
		}

		if isDepth {
			out.Depth = &wgpu.RenderPassDepthStencilAttachment{
				View:            view,
				DepthLoadOp:     loadOp,
				DepthStoreOp:    storeOp,
				DepthClearValue: float32(att.ClearColor[0]),
			}
			continue
		}
		out.Color = append(out.Color, wgpu.RenderPassColorAttachment{
			View:    view,
			LoadOp:  loadOp,
			StoreOp: storeOp,
			ClearValue: wgpu.Color{
				R: att.ClearColor[0],
				G: att.ClearColor[1],
				B: att.ClearColor[2],
				A: att.ClearColor[3],
			},
		})
	}

	for _, cmd := range plan.Commands {
		resolved := EncodedCommand{Kind: cmd.Kind, GroupIndex: cmd.GroupIndex, Slot: cmd.Slot, Draw: cmd.Draw, Indexed: cmd.Indexed}
		switch cmd.Kind {
		case CommandSetPipeline:
			p, ok := pipelines[cmd.Pipeline]
			if !ok {
				return nil, fmt.Errorf("pipeline %q not built: %w", cmd.Pipeline, graph.ErrUnknownPipeline)
			}
			resolved.Pipeline = p.Handle()
		case CommandSetBindGroup:
			group, err := res.Group(cmd.Group)
			if err != nil {
				return nil, fmt.Errorf("pass %q: %w", plan.Pass.Name, err)
			}
			resolved.Group = group.Handle
		case CommandSetVertexBuffer, CommandSetIndexBuffer:
			handle, _, err := reg.Buffer(cmd.Buffer)
			if err != nil {
				return nil, fmt.Errorf("pass %q: %w", plan.Pass.Name, err)
			}
			resolved.Buffer = handle
		}
		out.Commands = append(out.Commands, resolved)
	}
	return out, nil
}
