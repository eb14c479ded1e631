package gfx

// Slice is the range of vertices [Start, End) a draw consumes.
type Slice struct {
	Start uint32
	End   uint32
}

func (s Slice) Count() uint32 {
	if s.End < s.Start {
		return 0
	}
	return s.End - s.Start
}

// Command is one recorded GPU operation.
type Command interface {
	command()
}

type ClearColorCmd struct {
	Target *RenderTarget
	Value  [4]float32
}

type ClearDepthCmd struct {
	Target *DepthTarget
	Value  float32
}

type ClearStencilCmd struct {
	Target *DepthTarget
	Value  uint8
}

// DrawCmd draws Slice of the bound vertex buffer. Data is a snapshot taken
// when the command was recorded.
type DrawCmd struct {
	Slice    Slice
	Pipeline *PipelineState
	Data     Bindings
}

func (ClearColorCmd) command()   {}
func (ClearDepthCmd) command()   {}
func (ClearStencilCmd) command() {}
func (DrawCmd) command()         {}

// CommandList records commands in call order for a later Device.Submit.
// Draws retain their vertex buffer until Reset.
type CommandList struct {
	cmds []Command
}

func (cl *CommandList) ClearColor(t *RenderTarget, value [4]float32) {
	cl.cmds = append(cl.cmds, ClearColorCmd{Target: t, Value: value})
}

func (cl *CommandList) ClearDepth(t *DepthTarget, value float32) {
	cl.cmds = append(cl.cmds, ClearDepthCmd{Target: t, Value: value})
}

func (cl *CommandList) ClearStencil(t *DepthTarget, value uint8) {
	cl.cmds = append(cl.cmds, ClearStencilCmd{Target: t, Value: value})
}

func (cl *CommandList) Draw(slice Slice, pso *PipelineState, data *Bindings) {
	snap := data.Clone()
	if snap.VertexBuffer != nil {
		snap.VertexBuffer.Retain()
	}
	cl.cmds = append(cl.cmds, DrawCmd{Slice: slice, Pipeline: pso, Data: snap})
}

// Commands returns the recorded commands. The slice is owned by cl.
func (cl *CommandList) Commands() []Command {
	return cl.cmds
}

func (cl *CommandList) Len() int {
	return len(cl.cmds)
}

// Reset empties the list and drops the references its draws held.
func (cl *CommandList) Reset() {
	for _, c := range cl.cmds {
		if d, ok := c.(DrawCmd); ok && d.Data.VertexBuffer != nil {
			d.Data.VertexBuffer.Release()
		}
	}
	cl.cmds = cl.cmds[:0]
}
