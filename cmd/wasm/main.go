//go:build js && wasm

package main

import (
	"encoding/json"
	"syscall/js"

	"github.com/hyyve/flowcanvas/internal/engine"
	"github.com/hyyve/flowcanvas/internal/geom"
	"github.com/hyyve/flowcanvas/internal/graph"
	"github.com/hyyve/flowcanvas/internal/interaction"
	"github.com/hyyve/flowcanvas/internal/seed"
	"github.com/hyyve/flowcanvas/internal/viewport"
)

var eng *engine.Engine

func main() {
	eng = engine.New()

	// Create the engine API object
	canvasEngine := js.Global().Get("Object").New()

	// --- Commands (frontend → engine) ---
	canvasEngine.Set("loadSnapshot", js.FuncOf(loadSnapshot))
	canvasEngine.Set("loadTemplate", js.FuncOf(loadTemplate))
	canvasEngine.Set("clear", js.FuncOf(clearGraph))
	canvasEngine.Set("addNode", js.FuncOf(addNode))
	canvasEngine.Set("dropNode", js.FuncOf(dropNode))
	canvasEngine.Set("moveNode", js.FuncOf(moveNode))
	canvasEngine.Set("setNodeData", js.FuncOf(setNodeData))
	canvasEngine.Set("removeNode", js.FuncOf(removeNode))
	canvasEngine.Set("addEdge", js.FuncOf(addEdge))
	canvasEngine.Set("removeEdge", js.FuncOf(removeEdge))
	canvasEngine.Set("setSelection", js.FuncOf(setSelection))
	canvasEngine.Set("deleteSelection", js.FuncOf(deleteSelection))
	canvasEngine.Set("setViewport", js.FuncOf(setViewport))
	canvasEngine.Set("setScreenSize", js.FuncOf(setScreenSize))
	canvasEngine.Set("zoomIn", js.FuncOf(zoomIn))
	canvasEngine.Set("zoomOut", js.FuncOf(zoomOut))
	canvasEngine.Set("fitView", js.FuncOf(fitView))
	canvasEngine.Set("minimapNavigate", js.FuncOf(minimapNavigate))
	canvasEngine.Set("pointerDown", js.FuncOf(pointerDown))
	canvasEngine.Set("pointerMove", js.FuncOf(pointerMove))
	canvasEngine.Set("pointerUp", js.FuncOf(pointerUp))
	canvasEngine.Set("wheel", js.FuncOf(wheel))
	canvasEngine.Set("pinch", js.FuncOf(pinch))
	canvasEngine.Set("keyDown", js.FuncOf(keyDown))
	canvasEngine.Set("subscribe", js.FuncOf(subscribe))

	// --- Queries (frontend ← engine) ---
	canvasEngine.Set("render", js.FuncOf(render))
	canvasEngine.Set("hitTest", js.FuncOf(hitTest))
	canvasEngine.Set("validateConnection", js.FuncOf(validateConnection))
	canvasEngine.Set("getSnapshot", js.FuncOf(getSnapshot))
	canvasEngine.Set("getViewport", js.FuncOf(getViewport))
	canvasEngine.Set("getSelection", js.FuncOf(getSelection))
	canvasEngine.Set("getState", js.FuncOf(getState))
	canvasEngine.Set("getMinimap", js.FuncOf(getMinimap))
	canvasEngine.Set("getNodeTypes", js.FuncOf(getNodeTypes))

	// Register on global scope
	js.Global().Set("flowCanvasEngine", canvasEngine)

	// Signal that WASM is ready
	js.Global().Set("flowCanvasWasmReady", js.ValueOf(true))

	// Keep Go runtime alive
	select {}
}

func result(err error) interface{} {
	if err != nil {
		return js.ValueOf(map[string]interface{}{"error": err.Error()})
	}
	return js.ValueOf(map[string]interface{}{"ok": true})
}

func resultID(id string, err error) interface{} {
	if err != nil {
		return result(err)
	}
	return js.ValueOf(map[string]interface{}{"ok": true, "id": id})
}

func missing(what string) interface{} {
	return js.ValueOf(map[string]interface{}{"error": "missing " + what})
}

func jsonValue(v any) interface{} {
	data, err := json.Marshal(v)
	if err != nil {
		return js.ValueOf("null")
	}
	return js.ValueOf(string(data))
}

func point(args []js.Value, i int) geom.Point {
	return geom.Pt(args[i].Float(), args[i+1].Float())
}

func stringArray(v js.Value) []string {
	if v.Type() != js.TypeObject {
		return nil
	}
	out := make([]string, v.Length())
	for i := range out {
		out[i] = v.Index(i).String()
	}
	return out
}

// --- Command Handlers ---

func loadSnapshot(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("snapshot JSON")
	}
	return result(eng.LoadJSON([]byte(args[0].String())))
}

func loadTemplate(this js.Value, args []js.Value) interface{} {
	name := seed.TemplateModule
	if len(args) > 0 && args[0].Type() == js.TypeString {
		name = args[0].String()
	}
	s, err := seed.ByName(name)
	if err != nil {
		return result(err)
	}
	if err := eng.Load(s); err != nil {
		return result(err)
	}
	eng.FitView()
	return result(nil)
}

func clearGraph(this js.Value, args []js.Value) interface{} {
	return result(eng.Clear())
}

func addNode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("node JSON")
	}
	var n graph.Node
	if err := json.Unmarshal([]byte(args[0].String()), &n); err != nil {
		return result(err)
	}
	return resultID(eng.AddNode(n))
}

// dropNode(type, screenX, screenY, dataJSON?)
func dropNode(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("type and position")
	}
	var data json.RawMessage
	if len(args) > 3 && args[3].Type() == js.TypeString {
		data = json.RawMessage(args[3].String())
	}
	return resultID(eng.DropNode(args[0].String(), point(args, 1), data))
}

func moveNode(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return missing("id and position")
	}
	return result(eng.MoveNode(args[0].String(), point(args, 1)))
}

func setNodeData(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return missing("id and data JSON")
	}
	return result(eng.SetNodeData(args[0].String(), json.RawMessage(args[1].String())))
}

func removeNode(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("id")
	}
	return result(eng.RemoveNode(args[0].String()))
}

func addEdge(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("edge JSON")
	}
	var e graph.Edge
	if err := json.Unmarshal([]byte(args[0].String()), &e); err != nil {
		return result(err)
	}
	id, err := eng.AddEdge(e)
	if reason, ok := graph.RejectionReason(err); ok {
		return js.ValueOf(map[string]interface{}{"error": err.Error(), "reason": string(reason)})
	}
	return resultID(id, err)
}

func removeEdge(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("id")
	}
	return result(eng.RemoveEdge(args[0].String()))
}

// setSelection(nodeIds, edgeIds?)
func setSelection(this js.Value, args []js.Value) interface{} {
	var nodes, edges []string
	if len(args) > 0 {
		nodes = stringArray(args[0])
	}
	if len(args) > 1 {
		edges = stringArray(args[1])
	}
	return result(eng.SetSelection(nodes, edges))
}

func deleteSelection(this js.Value, args []js.Value) interface{} {
	return result(eng.RemoveSelected())
}

func setViewport(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.SetViewport(viewport.Viewport{PanX: args[0].Float(), PanY: args[1].Float(), Zoom: args[2].Float()})
	return nil
}

func setScreenSize(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return nil
	}
	eng.SetScreenSize(geom.Sz(args[0].Float(), args[1].Float()))
	return nil
}

func zoomIn(this js.Value, args []js.Value) interface{} {
	eng.ZoomIn()
	return nil
}

func zoomOut(this js.Value, args []js.Value) interface{} {
	eng.ZoomOut()
	return nil
}

func fitView(this js.Value, args []js.Value) interface{} {
	eng.FitView()
	return nil
}

// minimapNavigate(width, height, x, y)
func minimapNavigate(this js.Value, args []js.Value) interface{} {
	if len(args) < 4 {
		return nil
	}
	eng.MinimapNavigate(geom.Sz(args[0].Float(), args[1].Float()), point(args, 2))
	return nil
}

// pointer args: x, y, button, {shift, ctrl, meta, alt}?
func pointerEvent(args []js.Value) (interaction.PointerEvent, bool) {
	if len(args) < 2 {
		return interaction.PointerEvent{}, false
	}
	ev := interaction.PointerEvent{Point: point(args, 0)}
	if len(args) > 2 {
		ev.Button = args[2].Int()
	}
	if len(args) > 3 && args[3].Type() == js.TypeObject {
		m := args[3]
		ev.Mods = interaction.Modifiers{
			Shift: m.Get("shift").Truthy(),
			Ctrl:  m.Get("ctrl").Truthy(),
			Meta:  m.Get("meta").Truthy(),
			Alt:   m.Get("alt").Truthy(),
		}
	}
	return ev, true
}

func pointerDown(this js.Value, args []js.Value) interface{} {
	ev, ok := pointerEvent(args)
	if !ok {
		return missing("pointer position")
	}
	return result(eng.PointerDown(ev))
}

func pointerMove(this js.Value, args []js.Value) interface{} {
	ev, ok := pointerEvent(args)
	if !ok {
		return missing("pointer position")
	}
	return result(eng.PointerMove(ev))
}

func pointerUp(this js.Value, args []js.Value) interface{} {
	ev, ok := pointerEvent(args)
	if !ok {
		return missing("pointer position")
	}
	err := eng.PointerUp(ev)
	if reason, ok := graph.RejectionReason(err); ok {
		return js.ValueOf(map[string]interface{}{"error": err.Error(), "reason": string(reason)})
	}
	return result(err)
}

// wheel(x, y, deltaY, deltaMode)
func wheel(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	mode := viewport.WheelPixel
	if len(args) > 3 {
		mode = viewport.WheelMode(args[3].Int())
	}
	eng.Wheel(point(args, 0), args[2].Float(), mode)
	return nil
}

func pinch(this js.Value, args []js.Value) interface{} {
	if len(args) < 3 {
		return nil
	}
	eng.Pinch(point(args, 0), args[2].Float())
	return nil
}

func keyDown(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return nil
	}
	return result(eng.KeyDown(args[0].String()))
}

// subscribe(callback) calls callback with each event as JSON and returns an
// unsubscribe function.
func subscribe(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 || args[0].Type() != js.TypeFunction {
		return missing("callback")
	}
	fn := args[0]
	cancel := eng.Subscribe(func(ev engine.Event) {
		fn.Invoke(jsonValue(ev))
	})
	var unsubscribe js.Func
	unsubscribe = js.FuncOf(func(js.Value, []js.Value) interface{} {
		cancel()
		unsubscribe.Release()
		return nil
	})
	return unsubscribe
}

// --- Query Handlers ---

func render(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.RenderJSON())
}

// hitTest(screenX, screenY)
func hitTest(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return jsonValue(interaction.Target{})
	}
	return jsonValue(eng.HitTestScreen(point(args, 0)))
}

func validateConnection(this js.Value, args []js.Value) interface{} {
	if len(args) < 1 {
		return missing("edge JSON")
	}
	var e graph.Edge
	if err := json.Unmarshal([]byte(args[0].String()), &e); err != nil {
		return result(err)
	}
	err := eng.ValidateConnection(e)
	if reason, ok := graph.RejectionReason(err); ok {
		return js.ValueOf(map[string]interface{}{"error": err.Error(), "reason": string(reason)})
	}
	return result(err)
}

func getSnapshot(this js.Value, args []js.Value) interface{} {
	return jsonValue(eng.Snapshot())
}

func getViewport(this js.Value, args []js.Value) interface{} {
	return jsonValue(eng.Viewport())
}

func getSelection(this js.Value, args []js.Value) interface{} {
	return jsonValue(eng.Selection())
}

func getState(this js.Value, args []js.Value) interface{} {
	return js.ValueOf(eng.State().String())
}

// getMinimap(width, height)
func getMinimap(this js.Value, args []js.Value) interface{} {
	if len(args) < 2 {
		return js.ValueOf("null")
	}
	return jsonValue(eng.Minimap(geom.Sz(args[0].Float(), args[1].Float())))
}

func getNodeTypes(this js.Value, args []js.Value) interface{} {
	return jsonValue(eng.Registry().Descriptors())
}
