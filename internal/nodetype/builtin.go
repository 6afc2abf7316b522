package nodetype

import "github.com/hyyve/flowcanvas/internal/geom"

// Default handle ids used by single-input / single-output node kinds.
const (
	HandleIn  = "in"
	HandleOut = "out"
)

const (
	CategoryModule  = "module"
	CategoryChatbot = "chatbot"
)

var (
	in  = Handle{ID: HandleIn, Role: RoleInput, Side: SideLeft}
	out = Handle{ID: HandleOut, Role: RoleOutput, Side: SideRight}
)

// ModuleTypes are the workflow nodes of the module builder.
func ModuleTypes() []Descriptor {
	return []Descriptor{
		{Type: "trigger", Label: "Input Trigger", Category: CategoryModule, DefaultSize: geom.Sz(200, 110), Handles: []Handle{out}, Render: "card", Accent: "#8b5cf6"},
		{Type: "llm", Label: "LLM Processing", Category: CategoryModule, DefaultSize: geom.Sz(240, 150), Handles: []Handle{in, out}, Render: "card", Accent: "#5048e5"},
		{Type: "branch", Label: "Branch", Category: CategoryModule, DefaultSize: geom.Sz(200, 120), Handles: []Handle{
			in,
			{ID: "success", Role: RoleOutput, Side: SideRight, Offset: 0.33},
			{ID: "failure", Role: RoleOutput, Side: SideRight, Offset: 0.66},
		}, Render: "card", Accent: "#f59e0b"},
		{Type: "integration", Label: "Integration", Category: CategoryModule, DefaultSize: geom.Sz(200, 100), Handles: []Handle{in}, Render: "card", Accent: "#10b981"},
		{Type: "action", Label: "Action", Category: CategoryModule, DefaultSize: geom.Sz(200, 100), Handles: []Handle{in, out}, Render: "card", Accent: "#0ea5e9"},
	}
}

// ChatbotTypes are the conversation nodes of the chatbot builder.
// "action" is shared with the module builder and registered once.
func ChatbotTypes() []Descriptor {
	return []Descriptor{
		{Type: "start", Label: "Start", Category: CategoryChatbot, DefaultSize: geom.Sz(100, 60), Handles: []Handle{out}, Render: "pill", Accent: "#5048e5"},
		{Type: "decision", Label: "Decision", Category: CategoryChatbot, DefaultSize: geom.Sz(250, 120), Handles: []Handle{in, out}, Render: "card", Accent: "#fbbf24"},
		{Type: "bot_says", Label: "Bot Says", Category: CategoryChatbot, DefaultSize: geom.Sz(280, 140), Handles: []Handle{in, out}, Render: "card", Accent: "#5048e5"},
		{Type: "user_input", Label: "User Input", Category: CategoryChatbot, DefaultSize: geom.Sz(250, 120), Handles: []Handle{in, out}, Render: "card", Accent: "#22d3ee"},
		{Type: "end", Label: "End", Category: CategoryChatbot, DefaultSize: geom.Sz(100, 60), Handles: []Handle{in}, Render: "pill", Accent: "#ef4444"},
	}
}

// NewBuiltinRegistry returns a registry with both builders' node kinds.
func NewBuiltinRegistry() *Registry {
	r := NewRegistry()
	for _, set := range [][]Descriptor{ModuleTypes(), ChatbotTypes()} {
		for _, d := range set {
			if err := r.Register(d.Type, d); err != nil {
				panic(err)
			}
		}
	}
	return r
}
