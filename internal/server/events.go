package server

// EventDefinition describes one JSON-RPC method a client can call on its
// session.
type EventDefinition struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	InputSchema map[string]interface{} `json:"inputSchema"`
}

func emptySchema() map[string]interface{} {
	return map[string]interface{}{
		"type":       "object",
		"properties": map[string]interface{}{},
	}
}

// GetEventDefinitions returns every session method.
func GetEventDefinitions() []EventDefinition {
	rangeSchema := map[string]interface{}{
		"type":        "array",
		"items":       map[string]interface{}{"type": "number"},
		"minItems":    2,
		"maxItems":    2,
		"description": "[from, to] in image pixels; y ranges may be top-down",
	}

	return []EventDefinition{
		// Session
		{
			Name:        "session/state",
			Description: "Return the current session state without changing it.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "session/restore",
			Description: "Replace the markers of the current image with a previously serialized state.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"state": map[string]interface{}{
						"type":        "array",
						"description": "Markers as returned in the state field of any result",
					},
				},
				"required": []string{"state"},
			},
		},

		// Annotation
		{
			Name:        "event/click",
			Description: "Place a marker for the active label at the clicked point, then advance to the next label. Ignored once the active label has a marker.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"x": map[string]interface{}{
						"type":        "number",
						"description": "X coordinate in image pixels",
					},
					"y": map[string]interface{}{
						"type":        "number",
						"description": "Y coordinate in image pixels",
					},
				},
				"required": []string{"x", "y"},
			},
		},
		{
			Name:        "event/drag",
			Description: "Replace the outline of a marker after it was moved or reshaped.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"shape_index": map[string]interface{}{
						"type":        "integer",
						"description": "Index of the marker in placement order",
					},
					"path": map[string]interface{}{
						"type":        "string",
						"description": "Closed SVG path, e.g. \"M 10,0 L 0,10 L -10,0 Z\"",
					},
				},
				"required": []string{"shape_index", "path"},
			},
		},
		{
			Name:        "event/resize",
			Description: "Redraw every marker around its fitted center with a new radius. The radius also applies to future clicks and is clamped to the configured bounds.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"radius": map[string]interface{}{
						"type":        "number",
						"description": "Marker radius in pixels",
					},
				},
				"required": []string{"radius"},
			},
		},
		{
			Name:        "event/select",
			Description: "Make a label of this session active.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"label": map[string]interface{}{
						"type":        "string",
						"description": "One of the labels returned by catalog/list",
					},
				},
				"required": []string{"label"},
			},
		},
		{
			Name:        "event/clear",
			Description: "Remove every marker from the current image and reset the active label.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "event/save",
			Description: "Fit the center of every marker and record them. Markers that cannot be fitted are skipped with a warning.",
			InputSchema: emptySchema(),
		},

		// Navigation and display
		{
			Name:        "event/navigate",
			Description: "Move to the next or previous image, wrapping around. Markers are discarded.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"direction": map[string]interface{}{
						"type": "string",
						"enum": []string{"next", "previous"},
					},
				},
				"required": []string{"direction"},
			},
		},
		{
			Name:        "event/viewport",
			Description: "Zoom to a region or return to the full image. Display only.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"kind": map[string]interface{}{
						"type": "string",
						"enum": []string{"zoom", "autorange"},
					},
					"x_range": rangeSchema,
					"y_range": rangeSchema,
				},
				"required": []string{"kind"},
			},
		},
		{
			Name:        "event/noop",
			Description: "Return the current state. Sent when the surface reports nothing actionable.",
			InputSchema: emptySchema(),
		},
		{
			Name:        "image/render",
			Description: "Render the current image with its markers, cropped to the viewport, as base64.",
			InputSchema: map[string]interface{}{
				"type": "object",
				"properties": map[string]interface{}{
					"format": map[string]interface{}{
						"type":    "string",
						"enum":    []string{"png", "webp"},
						"default": "png",
					},
				},
			},
		},
	}
}

// handleEventsList returns the list of session methods
func (s *Server) handleEventsList(req *RPCRequest) *RPCResponse {
	return s.resultResponse(req.ID, map[string]interface{}{
		"events": GetEventDefinitions(),
	})
}
