package agent

// In this file: tool schema conversion between function-calling formats.

import (
	mcplib "github.com/mark3labs/mcp-go/mcp"
)

// TransformTools converts Claude-style function declarations into the
// OpenAI function-calling format. Each input item must be a map with
// "type" and "function" keys, and the function must carry "name" and
// "description"; items missing any of these are dropped. The function's
// "input_schema" becomes "parameters", keeping only type, properties and
// required. Extra fields are discarded.
func TransformTools(in []map[string]any) []map[string]any {
	result := make([]map[string]any, 0, len(in))

	for _, item := range in {
		if _, ok := item["type"]; !ok {
			continue
		}
		oldFunc, ok := item["function"].(map[string]any)
		if !ok {
			continue
		}
		name, ok := oldFunc["name"].(string)
		if !ok {
			continue
		}
		description, ok := oldFunc["description"].(string)
		if !ok {
			continue
		}

		params := map[string]any{}
		if schema, ok := oldFunc["input_schema"].(map[string]any); ok {
			typ, ok := schema["type"].(string)
			if !ok || typ == "" {
				typ = "object"
			}
			params["type"] = typ
			if props, ok := schema["properties"]; ok {
				params["properties"] = props
			} else {
				params["properties"] = map[string]any{}
			}
			if required, ok := schema["required"]; ok {
				params["required"] = required
			}
		}

		result = append(result, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        name,
				"description": description,
				"parameters":  params,
			},
		})
	}

	return result
}

// OpenAIDecls builds OpenAI function-calling declarations directly from
// MCP tool listings, for handing the advertised tools to a chat model.
func OpenAIDecls(tools []mcplib.Tool) []map[string]any {
	decls := make([]map[string]any, 0, len(tools))
	for _, t := range tools {
		params := map[string]any{
			"type":       t.InputSchema.Type,
			"properties": t.InputSchema.Properties,
		}
		if params["type"] == "" {
			params["type"] = "object"
		}
		if params["properties"] == nil {
			params["properties"] = map[string]any{}
		}
		if len(t.InputSchema.Required) > 0 {
			params["required"] = t.InputSchema.Required
		}
		decls = append(decls, map[string]any{
			"type": "function",
			"function": map[string]any{
				"name":        t.Name,
				"description": t.Description,
				"parameters":  params,
			},
		})
	}
	return decls
}
