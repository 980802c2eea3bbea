// Package refgraph builds graphs of what refers to which object slot in a
// decoded effect.
package refgraph

import (
	"fmt"

	"github.com/zboralski/lattice"
	"github.com/zboralski/lattice/render"

	"fxinspect/internal/effect"
)

// ParameterNode names the node of parameter i.
func ParameterNode(fx *effect.Effect, i int) string {
	return "param:" + fx.Parameters[i].Value.NameOr(fmt.Sprintf("#%d", i))
}

// TechniqueNode names the node of technique t.
func TechniqueNode(fx *effect.Effect, t int) string {
	return "technique:" + nameOr(fx.Techniques[t].Name, fmt.Sprintf("#%d", t))
}

// PassNode names the node of pass p of technique t.
func PassNode(fx *effect.Effect, t, p int) string {
	tech := fx.Techniques[t]
	return nameOr(tech.Name, fmt.Sprintf("#%d", t)) + "/" + nameOr(tech.Passes[p].Name, fmt.Sprintf("#%d", p))
}

// ObjectNode names the node of object slot id.
func ObjectNode(fx *effect.Effect, id uint32) string {
	if int64(id) < int64(len(fx.Objects)) && fx.Objects[id] != nil {
		return fmt.Sprintf("object[%d]:%s", id, fx.Objects[id].Type)
	}
	return fmt.Sprintf("object[%d]", id)
}

// Build returns the reference graph: parameters and passes point at the
// objects their values reference, techniques point at their passes.
func Build(fx *effect.Effect) *lattice.Graph {
	g := &lattice.Graph{}
	link := func(from string, v *effect.Value) {
		for _, id := range Refs(v) {
			g.Edges = append(g.Edges, lattice.Edge{Caller: from, Callee: ObjectNode(fx, id)})
		}
	}
	annotations := func(from string, a effect.Annotated) {
		for _, v := range a.AnnotationList() {
			link(from, v)
		}
	}

	for i, p := range fx.Parameters {
		name := ParameterNode(fx, i)
		g.Nodes = append(g.Nodes, name)
		link(name, p.Value)
		annotations(name, p)
	}
	for t, tech := range fx.Techniques {
		name := TechniqueNode(fx, t)
		g.Nodes = append(g.Nodes, name)
		annotations(name, tech)
		for p, pass := range tech.Passes {
			pname := PassNode(fx, t, p)
			g.Nodes = append(g.Nodes, pname)
			g.Edges = append(g.Edges, lattice.Edge{Caller: name, Callee: pname})
			annotations(pname, pass)
			for _, st := range pass.States {
				link(pname, st.Value)
			}
		}
	}
	for id, obj := range fx.Objects {
		if obj != nil {
			g.Nodes = append(g.Nodes, ObjectNode(fx, uint32(id)))
		}
	}
	g.Dedup()
	return g
}

// Refs collects the object indices a value references, including those
// reached through sampler states and struct members.
func Refs(v *effect.Value) []uint32 {
	if v == nil {
		return nil
	}
	switch d := v.Data.(type) {
	case effect.ObjectRefs:
		return append([]uint32(nil), d...)
	case effect.SamplerStates:
		var out []uint32
		for _, st := range d {
			out = append(out, Refs(st.Value)...)
		}
		return out
	case effect.Members:
		var out []uint32
		for _, m := range d {
			out = append(out, Refs(m)...)
		}
		return out
	}
	return nil
}

// Techniques returns one control-flow style graph per technique: each pass
// is a block that falls through to the next and lists its state bindings
// as calls.
func Techniques(fx *effect.Effect) *lattice.CFGGraph {
	cg := &lattice.CFGGraph{}
	for t, tech := range fx.Techniques {
		fn := &lattice.FuncCFG{Name: TechniqueNode(fx, t)}
		for p, pass := range tech.Passes {
			b := &lattice.BasicBlock{
				ID:    p,
				Start: p,
				End:   p + 1,
				Term:  p == len(tech.Passes)-1,
			}
			if !b.Term {
				b.Succs = append(b.Succs, lattice.Successor{BlockID: p + 1})
			}
			for s, st := range pass.States {
				for _, id := range Refs(st.Value) {
					b.Calls = append(b.Calls, lattice.CallSite{
						Offset: s,
						Callee: fmt.Sprintf("%s=%s", st.Type, ObjectNode(fx, id)),
					})
				}
			}
			fn.Blocks = append(fn.Blocks, b)
		}
		cg.Funcs = append(cg.Funcs, fn)
	}
	return cg
}

// DOT renders the reference graph.
func DOT(fx *effect.Effect, title string) string {
	return render.DOT(Build(fx), title)
}

// TechniquesDOT renders the per-technique pass graphs.
func TechniquesDOT(fx *effect.Effect, title string) string {
	return render.DOTCFG(Techniques(fx), title)
}

func nameOr(s *string, def string) string {
	if s == nil || *s == "" {
		return def
	}
	return *s
}
