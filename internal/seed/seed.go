// Package seed builds the starter graphs shown when a builder opens.
package seed

import (
	"encoding/json"
	"fmt"

	"github.com/hyyve/flowcanvas/internal/geom"
	"github.com/hyyve/flowcanvas/internal/graph"
	"github.com/hyyve/flowcanvas/internal/nodetype"
)

// Template names accepted by ByName.
const (
	TemplateModule  = "module"
	TemplateChatbot = "chatbot"
	TemplateEmpty   = "empty"
)

// ByName returns the seed for a template name.
func ByName(name string) (graph.Snapshot, error) {
	switch name {
	case TemplateModule:
		return ModuleWorkflow(), nil
	case TemplateChatbot:
		return ChatbotFlow(), nil
	case TemplateEmpty, "":
		return graph.Snapshot{Nodes: []graph.Node{}, Edges: []graph.Edge{}}, nil
	}
	return graph.Snapshot{}, fmt.Errorf("unknown template %q", name)
}

func node(id, typ string, x, y float64, data map[string]any) graph.Node {
	raw, _ := json.Marshal(data)
	return graph.Node{ID: id, Type: typ, Position: geom.Pt(x, y), Data: raw}
}

func edge(id, src, srcHandle, dst, typ, label string) graph.Edge {
	e := graph.Edge{
		ID:     id,
		Source: graph.HandleRef{NodeID: src, HandleID: srcHandle},
		Target: graph.HandleRef{NodeID: dst, HandleID: nodetype.HandleIn},
		Type:   typ,
	}
	if label != "" {
		e.Data, _ = json.Marshal(map[string]string{"label": label})
	}
	return e
}

// ModuleWorkflow is the module builder's sample: a webhook trigger feeding an
// LLM, branching on the result and notifying Slack on success.
func ModuleWorkflow() graph.Snapshot {
	return graph.Snapshot{
		Nodes: []graph.Node{
			node("trigger-1", "trigger", 80, 100, map[string]any{
				"label":  "Input Trigger",
				"config": map[string]any{"webhookUrl": "/api/v1/trigger", "method": "POST"},
			}),
			node("llm-1", "llm", 420, 80, map[string]any{
				"label": "LLM Processing",
				"config": map[string]any{
					"model":        "GPT-4-Turbo",
					"temperature":  0.7,
					"maxTokens":    2048,
					"contextFiles": []string{"Product_Manual.pdf"},
				},
			}),
			node("branch-1", "branch", 740, 90, map[string]any{
				"label": "Branch Logic",
				"config": map[string]any{"conditions": []map[string]string{
					{"path": "success", "condition": "response.success === true"},
					{"path": "failure", "condition": "response.success === false"},
				}},
			}),
			node("slack-1", "integration", 1000, 230, map[string]any{
				"label":  "Slack Notify",
				"config": map[string]any{"channel": "#alerts-ai", "messageTemplate": "Workflow completed: {{result}}"},
			}),
		},
		Edges: []graph.Edge{
			edge("edge-1", "trigger-1", nodetype.HandleOut, "llm-1", "", ""),
			edge("edge-2", "llm-1", nodetype.HandleOut, "branch-1", "", ""),
			edge("edge-3", "branch-1", "success", "slack-1", "success", ""),
		},
	}
}

// ChatbotFlow is the chatbot builder's sample: intent detection routing to
// two canned responses.
func ChatbotFlow() graph.Snapshot {
	return graph.Snapshot{
		Nodes: []graph.Node{
			node("start-1", "start", 20, 370, map[string]any{"label": "Start"}),
			node("decision-1", "decision", 280, 340, map[string]any{
				"label":  "Identify Intent",
				"config": map[string]any{"waitForInput": true},
			}),
			node("bot-greeting", "bot_says", 630, 180, map[string]any{
				"label": "Greeting Response",
				"config": map[string]any{
					"trigger": "#greeting",
					"message": "Hi there! Welcome to Hyyve Retail Support. How can I help you today?",
				},
			}),
			node("bot-order", "bot_says", 630, 480, map[string]any{
				"label": "Order Status Response",
				"config": map[string]any{
					"trigger": "#order_status",
					"message": "Sure, I can help with that. Please provide your order ID.",
				},
			}),
		},
		Edges: []graph.Edge{
			edge("edge-1", "start-1", nodetype.HandleOut, "decision-1", "", ""),
			edge("edge-2", "decision-1", nodetype.HandleOut, "bot-greeting", "", "#greeting"),
			edge("edge-3", "decision-1", nodetype.HandleOut, "bot-order", "", "#order_status"),
		},
	}
}
