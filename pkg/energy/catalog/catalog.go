package catalog

import (
	"sort"

	"ai-toolkit-be/internal/entity"
)

// Tool describes one costed AI tool. The catalog is static reference data:
// the ledger only reads it to resolve a debit amount, it never changes it.
type Tool struct {
	Name        string `json:"name"`
	DisplayName string `json:"display_name"`
	Cost        int64  `json:"cost"`
}

type Catalog struct {
	tools map[string]Tool
}

// defaultTools is the built-in tool set. Costs are whole energy units.
var defaultTools = []Tool{
	{Name: "developer_tool", DisplayName: "Developer Tool", Cost: 10},
	{Name: "brainstorm", DisplayName: "Brainstorm Assistant", Cost: 5},
	{Name: "summarizer", DisplayName: "Summarizer", Cost: 3},
	{Name: "translator", DisplayName: "Translator", Cost: 2},
	{Name: "image_prompt", DisplayName: "Image Prompt Builder", Cost: 8},
}

func New() *Catalog {
	return NewWithTools(defaultTools)
}

func NewWithTools(tools []Tool) *Catalog {
	m := make(map[string]Tool, len(tools))
	for _, t := range tools {
		m[t.Name] = t
	}
	return &Catalog{tools: m}
}

// Cost resolves the energy cost of a tool, or entity.ErrUnknownTool.
func (c *Catalog) Cost(name string) (int64, error) {
	tool, ok := c.tools[name]
	if !ok {
		return 0, entity.ErrUnknownTool
	}
	return tool.Cost, nil
}

func (c *Catalog) Lookup(name string) (Tool, bool) {
	tool, ok := c.tools[name]
	return tool, ok
}

// List returns the catalog sorted by tool name for stable output.
func (c *Catalog) List() []Tool {
	tools := make([]Tool, 0, len(c.tools))
	for _, t := range c.tools {
		tools = append(tools, t)
	}
	sort.Slice(tools, func(i, j int) bool { return tools[i].Name < tools[j].Name })
	return tools
}
