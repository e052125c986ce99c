/*
Package interp is a compiler backend interpreting DSP graphs described in
HCL. It needs no native libraries, which makes it handy for tests and tools.

A graph declares its channel counts, its controls and a process expression:

    inputs  = 1
    outputs = 1

    hgroup "main" {
      hslider "Gain" {
        init = 0.5
        min  = 0
        max  = 1
        step = 0.01
        meta = { unit = "lin" }
      }
    }

    process = [in[0] * ctl.Gain]

Control blocks are button, checkbox, vslider, hslider and nentry. Group
blocks are tgroup, hgroup and vgroup and can be nested. The process
expression is evaluated for every frame with the following variables:

    in - tuple of input samples of the frame;
    ctl - object of control values keyed by label;
    sr - sample rate.

It must produce a tuple with one number per output. Control values are
read once per block. The interpreter keeps no state between frames.
*/
package interp

import (
	"fmt"
	"math"
	"sort"

	"github.com/hashicorp/hcl/v2"
	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclsyntax"
	"github.com/zclconf/go-cty/cty"
	"github.com/zclconf/go-cty/cty/function"
	"github.com/zclconf/go-cty/cty/function/stdlib"
	"github.com/zclconf/go-cty/cty/gocty"

	"pipelined.dev/faust/compiler"
	"pipelined.dev/faust/param"
)

// trialSampleRate is used to evaluate process once at compile time.
const trialSampleRate = 44100

type (
	// Compiler interprets HCL graphs. Zero value is ready to use.
	Compiler struct{}

	program struct {
		inputs  int
		outputs int
		process hcl.Expression
		nodes   []node
		widgets []node
	}

	// node is a group or a widget declaration.
	node struct {
		op       param.Op
		label    string
		init     float64
		min      float64
		max      float64
		step     float64
		meta     map[string]string
		children []node
	}

	buttonConfig struct {
		Meta map[string]string `hcl:"meta,optional"`
	}

	sliderConfig struct {
		Init float64           `hcl:"init,optional"`
		Min  float64           `hcl:"min,optional"`
		Max  float64           `hcl:"max,optional"`
		Step float64           `hcl:"step,optional"`
		Meta map[string]string `hcl:"meta,optional"`
	}
)

var (
	groupOps = map[string]param.Op{
		"tgroup": param.OpenTabBox,
		"hgroup": param.OpenHorizontalBox,
		"vgroup": param.OpenVerticalBox,
	}

	widgetOps = map[string]param.Op{
		"button":   param.AddButton,
		"checkbox": param.AddCheckButton,
		"vslider":  param.AddVerticalSlider,
		"hslider":  param.AddHorizontalSlider,
		"nentry":   param.AddNumEntry,
	}

	functions = map[string]function.Function{
		"abs":   stdlib.AbsoluteFunc,
		"ceil":  stdlib.CeilFunc,
		"floor": stdlib.FloorFunc,
		"log":   stdlib.LogFunc,
		"max":   stdlib.MaxFunc,
		"min":   stdlib.MinFunc,
		"pow":   stdlib.PowFunc,
		"sign":  stdlib.SignumFunc,
		"cos":   mathFunc(math.Cos),
		"exp":   mathFunc(math.Exp),
		"sin":   mathFunc(math.Sin),
		"sqrt":  mathFunc(math.Sqrt),
		"tanh":  mathFunc(math.Tanh),
	}
)

// Compile implements compiler.Compiler. Optimization level is ignored.
func (Compiler) Compile(name, source string, optLevel int) (compiler.Factory, string) {
	p, diags := parse(name, source)
	if diags.HasErrors() {
		return nil, diags.Error()
	}
	return p, ""
}

func parse(name, source string) (*program, hcl.Diagnostics) {
	file, diags := hclsyntax.ParseConfig([]byte(source), name, hcl.InitialPos)
	if diags.HasErrors() {
		return nil, diags
	}
	body := file.Body.(*hclsyntax.Body)

	p := &program{}
	for attrName, attr := range body.Attributes {
		switch attrName {
		case "inputs":
			diags = append(diags, decodeChannels(attr, &p.inputs)...)
		case "outputs":
			diags = append(diags, decodeChannels(attr, &p.outputs)...)
		case "process":
			p.process = attr.Expr
		default:
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported argument",
				Detail:   fmt.Sprintf("An argument named %q is not expected here.", attrName),
				Subject:  attr.NameRange.Ptr(),
			})
		}
	}
	if p.process == nil {
		diags = append(diags, &hcl.Diagnostic{
			Severity: hcl.DiagError,
			Summary:  "Missing process",
			Detail:   "The process expression is required.",
			Subject:  body.SrcRange.Ptr(),
		})
	}

	var blockDiags hcl.Diagnostics
	p.nodes, blockDiags = decodeBlocks(body.Blocks)
	diags = append(diags, blockDiags...)
	if diags.HasErrors() {
		return nil, diags
	}
	p.widgets = collectWidgets(p.nodes, nil)
	diags = append(diags, p.trial()...)
	if diags.HasErrors() {
		return nil, diags
	}
	return p, diags
}

func decodeChannels(attr *hclsyntax.Attribute, dst *int) hcl.Diagnostics {
	v, diags := attr.Expr.Value(nil)
	if diags.HasErrors() {
		return diags
	}
	if err := gocty.FromCtyValue(v, dst); err != nil || *dst < 0 {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid channel count",
			Detail:   fmt.Sprintf("The %s argument must be a non-negative whole number.", attr.Name),
			Subject:  attr.Expr.Range().Ptr(),
		}}
	}
	return nil
}

func decodeBlocks(blocks hclsyntax.Blocks) ([]node, hcl.Diagnostics) {
	var (
		nodes []node
		diags hcl.Diagnostics
	)
	for _, block := range blocks {
		if len(block.Labels) != 1 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Invalid " + block.Type + " block",
				Detail:   "Exactly one label is expected.",
				Subject:  block.DefRange().Ptr(),
			})
			continue
		}
		n := node{label: block.Labels[0]}
		if op, ok := groupOps[block.Type]; ok {
			n.op = op
			for name, attr := range block.Body.Attributes {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Unsupported argument",
					Detail:   fmt.Sprintf("An argument named %q is not expected in a group.", name),
					Subject:  attr.NameRange.Ptr(),
				})
			}
			children, childDiags := decodeBlocks(block.Body.Blocks)
			n.children = children
			diags = append(diags, childDiags...)
			nodes = append(nodes, n)
			continue
		}

		op, ok := widgetOps[block.Type]
		if !ok {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unsupported block type",
				Detail:   fmt.Sprintf("Blocks of type %q are not expected here.", block.Type),
				Subject:  block.DefRange().Ptr(),
			})
			continue
		}
		n.op = op
		if len(block.Body.Blocks) > 0 {
			diags = append(diags, &hcl.Diagnostic{
				Severity: hcl.DiagError,
				Summary:  "Unexpected nested block",
				Detail:   "Controls cannot contain blocks.",
				Subject:  block.Body.Blocks[0].DefRange().Ptr(),
			})
			continue
		}
		switch op {
		case param.AddButton, param.AddCheckButton:
			var cfg buttonConfig
			diags = append(diags, gohcl.DecodeBody(block.Body, nil, &cfg)...)
			n.max, n.step, n.meta = 1, 1, cfg.Meta
		default:
			var cfg sliderConfig
			decodeDiags := gohcl.DecodeBody(block.Body, nil, &cfg)
			diags = append(diags, decodeDiags...)
			if !decodeDiags.HasErrors() && cfg.Min > cfg.Max {
				diags = append(diags, &hcl.Diagnostic{
					Severity: hcl.DiagError,
					Summary:  "Invalid range",
					Detail:   fmt.Sprintf("Control %q has min %g greater than max %g.", n.label, cfg.Min, cfg.Max),
					Subject:  block.DefRange().Ptr(),
				})
			}
			n.init, n.min, n.max, n.step, n.meta = cfg.Init, cfg.Min, cfg.Max, cfg.Step, cfg.Meta
		}
		nodes = append(nodes, n)
	}
	return nodes, diags
}

func collectWidgets(nodes []node, widgets []node) []node {
	for _, n := range nodes {
		if isGroup(n.op) {
			widgets = collectWidgets(n.children, widgets)
			continue
		}
		widgets = append(widgets, n)
	}
	return widgets
}

func isGroup(op param.Op) bool {
	return op == param.OpenTabBox || op == param.OpenHorizontalBox || op == param.OpenVerticalBox
}

// trial evaluates process once with silent input and initial control
// values to check its shape.
func (p *program) trial() hcl.Diagnostics {
	values := make([]float64, len(p.widgets))
	for i, w := range p.widgets {
		values[i] = w.init
	}
	ctx := p.evalContext(trialSampleRate, values)
	ctx.Variables["in"] = inputTuple(make([]float64, p.inputs))
	v, diags := p.process.Value(ctx)
	if diags.HasErrors() {
		return diags
	}
	if _, err := outputValues(v, make([]float64, p.outputs)); err != nil {
		return hcl.Diagnostics{{
			Severity: hcl.DiagError,
			Summary:  "Invalid process result",
			Detail:   err.Error(),
			Subject:  p.process.Range().Ptr(),
		}}
	}
	return nil
}

func (p *program) evalContext(sampleRate int, values []float64) *hcl.EvalContext {
	ctl := make(map[string]cty.Value, len(values))
	for i, w := range p.widgets {
		ctl[w.label] = cty.NumberFloatVal(values[i])
	}
	return &hcl.EvalContext{
		Variables: map[string]cty.Value{
			"ctl": cty.ObjectVal(ctl),
			"sr":  cty.NumberIntVal(int64(sampleRate)),
		},
		Functions: functions,
	}
}

// Instantiate implements compiler.Factory.
func (p *program) Instantiate() compiler.Instance {
	cells := make([]*param.Cell, len(p.widgets))
	for i := range cells {
		cells[i] = new(param.Cell)
	}
	return &instance{
		program:  p,
		cells:    cells,
		values:   make([]float64, len(cells)),
		inFrame:  make([]float64, p.inputs),
		outFrame: make([]float64, p.outputs),
	}
}

// Release implements compiler.Factory.
func (p *program) Release() {}

type instance struct {
	*program
	sampleRate int
	cells      []*param.Cell
	values     []float64
	inFrame    []float64
	outFrame   []float64
}

func (i *instance) Init(sampleRate int) {
	i.sampleRate = sampleRate
	for n, w := range i.widgets {
		i.cells[n].Store(w.init)
	}
}

func (i *instance) NumInputs() int {
	return i.inputs
}

func (i *instance) NumOutputs() int {
	return i.outputs
}

// Compute evaluates process for every frame. Missing input channels are
// silent, frames failing to evaluate produce silence. A NaN control value
// silences the whole block.
func (i *instance) Compute(frames int, in, out [][]float64) {
	for n, c := range i.cells {
		i.values[n] = c.Load()
		if math.IsNaN(i.values[n]) {
			for ch := range out {
				clear(out[ch][:frames])
			}
			return
		}
	}
	ctx := i.evalContext(i.sampleRate, i.values)
	for f := 0; f < frames; f++ {
		for c := range i.inFrame {
			i.inFrame[c] = 0
			if c < len(in) {
				i.inFrame[c] = in[c][f]
			}
		}
		ctx.Variables["in"] = inputTuple(i.inFrame)
		if err := i.eval(ctx); err != nil {
			clear(i.outFrame)
		}
		for c := range out {
			if c < len(i.outFrame) {
				out[c][f] = i.outFrame[c]
			}
		}
	}
}

// eval computes one frame into outFrame. Arithmetic on infinities can
// panic inside big.Float, such frames are reported as errors.
func (i *instance) eval(ctx *hcl.EvalContext) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("evaluate process: %v", r)
		}
	}()
	v, diags := i.process.Value(ctx)
	if diags.HasErrors() {
		return diags
	}
	_, err = outputValues(v, i.outFrame)
	return err
}

// BuildUserInterface declares groups and widgets in source order.
func (i *instance) BuildUserInterface(ui param.UI) {
	n := 0
	i.declare(ui, i.nodes, &n)
}

func (i *instance) declare(ui param.UI, nodes []node, n *int) {
	for _, node := range nodes {
		if isGroup(node.op) {
			ui(param.Control{Op: node.op, Label: node.label})
			i.declare(ui, node.children, n)
			ui(param.Control{Op: param.CloseBox})
			continue
		}
		zone := i.cells[*n]
		*n++
		keys := make([]string, 0, len(node.meta))
		for k := range node.meta {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			ui(param.Control{Op: param.Declare, Zone: zone, Key: k, Value: node.meta[k]})
		}
		ui(param.Control{
			Op:    node.op,
			Label: node.label,
			Zone:  zone,
			Init:  node.init,
			Min:   node.min,
			Max:   node.max,
			Step:  node.step,
		})
	}
}

func (i *instance) Release() {}

func inputTuple(samples []float64) cty.Value {
	if len(samples) == 0 {
		return cty.EmptyTupleVal
	}
	values := make([]cty.Value, len(samples))
	for i, s := range samples {
		if math.IsNaN(s) || math.IsInf(s, 0) {
			s = 0
		}
		values[i] = cty.NumberFloatVal(s)
	}
	return cty.TupleVal(values)
}

// outputValues converts process result into dst.
func outputValues(v cty.Value, dst []float64) ([]float64, error) {
	t := v.Type()
	if !t.IsTupleType() && !t.IsListType() {
		return nil, fmt.Errorf("process must be a tuple of numbers, got %s", t.FriendlyName())
	}
	if v.IsNull() || !v.IsWhollyKnown() {
		return nil, fmt.Errorf("process result is not known")
	}
	if n := v.LengthInt(); n != len(dst) {
		return nil, fmt.Errorf("process produces %d outputs, %d declared", n, len(dst))
	}
	for i, e := range v.AsValueSlice() {
		if e.IsNull() || !e.Type().Equals(cty.Number) {
			return nil, fmt.Errorf("output %d is not a number", i)
		}
		dst[i], _ = e.AsBigFloat().Float64()
	}
	return dst, nil
}

func mathFunc(f func(float64) float64) function.Function {
	return function.New(&function.Spec{
		Params: []function.Parameter{
			{Name: "x", Type: cty.Number},
		},
		Type: function.StaticReturnType(cty.Number),
		Impl: func(args []cty.Value, retType cty.Type) (cty.Value, error) {
			x, _ := args[0].AsBigFloat().Float64()
			r := f(x)
			if math.IsNaN(r) || math.IsInf(r, 0) {
				return cty.NilVal, fmt.Errorf("result is not a finite number")
			}
			return cty.NumberFloatVal(r), nil
		},
	})
}
