package server

import "github.com/modelcontextprotocol/go-sdk/mcp"

// Tool names.
const (
	ToolSnapshot     = "drawing_snapshot"
	ToolDetectBorder = "drawing_detect_border"
	ToolClean        = "drawing_clean"
	ToolCleanFolder  = "drawing_clean_folder"
	ToolPreview      = "drawing_preview"
	ToolHistory      = "history_recent"
	ToolHistoryRun   = "history_run"
)

func inputSchema(properties map[string]any, required []string) map[string]any {
	s := map[string]any{
		"type":       "object",
		"properties": properties,
	}
	if len(required) > 0 {
		s["required"] = required
	}
	return s
}

var pathProperty = map[string]any{
	"type":        "string",
	"description": "Absolute path to the drawing document",
}

// GetToolDefinitions returns all available tools. The history tools are
// listed only when withHistory is set.
func GetToolDefinitions(withHistory bool) []*mcp.Tool {
	tools := []*mcp.Tool{
		// Inspection
		{
			Name:        ToolSnapshot,
			Description: "Read a drawing's model space and summarize its entities by category and layer. Nothing is modified.",
			InputSchema: inputSchema(map[string]any{
				"path": pathProperty,
				"include_entities": map[string]any{
					"type":        "boolean",
					"description": "Also return every materialized entity (default: false)",
				},
			}, []string{"path"}),
		},
		{
			Name:        ToolDetectBorder,
			Description: "Run the border detectors on a drawing and report every candidate, the chosen frame and the entities that would be removed. Nothing is modified.",
			InputSchema: inputSchema(map[string]any{
				"path": pathProperty,
			}, []string{"path"}),
		},
		{
			Name:        ToolPreview,
			Description: "Render a PNG preview of a drawing showing the detected frame, kept entities and entities that would be removed. Returns base64-encoded PNG.",
			InputSchema: inputSchema(map[string]any{
				"path": pathProperty,
				"size": map[string]any{
					"type":        "integer",
					"description": "Longest side of the preview in pixels (default: 1024)",
				},
				"grid": map[string]any{
					"type":        "number",
					"description": "Rule a coordinate grid every N drawing units (default: no grid)",
				},
				"grid_labels": map[string]any{
					"type":        "boolean",
					"description": "Label grid lines with their coordinates (default: true when grid is set)",
				},
			}, []string{"path"}),
		},

		// Cleaning
		{
			Name:        ToolClean,
			Description: "Remove everything outside the detected frame of one drawing and save the result. The input file is never overwritten.",
			InputSchema: inputSchema(map[string]any{
				"path": pathProperty,
				"output_dir": map[string]any{
					"type":        "string",
					"description": "Folder for the cleaned drawing (default: CLEAN next to the input)",
				},
			}, []string{"path"}),
		},
		{
			Name:        ToolCleanFolder,
			Description: "Clean every drawing in a folder, one at a time, and write the CSV and HTML reports into the output folder.",
			InputSchema: inputSchema(map[string]any{
				"path": map[string]any{
					"type":        "string",
					"description": "Absolute path to the folder of drawings",
				},
			}, []string{"path"}),
		},
	}

	if withHistory {
		tools = append(tools,
			&mcp.Tool{
				Name:        ToolHistory,
				Description: "List recent cleaning runs with their totals, newest first.",
				InputSchema: inputSchema(map[string]any{
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum number of runs (default: 10)",
					},
				}, nil),
			},
			&mcp.Tool{
				Name:        ToolHistoryRun,
				Description: "Get one recorded run with the outcome of every file.",
				InputSchema: inputSchema(map[string]any{
					"id": map[string]any{
						"type":        "string",
						"description": "Run id as returned by history_recent or a clean tool",
					},
				}, []string{"id"}),
			},
		)
	}
	return tools
}
