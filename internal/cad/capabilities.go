package cad

// Capabilities describes what a backend can actually do. The tool surface
// consults these flags to fail fast instead of round-tripping a command that
// the execution environment will reject anyway.
type Capabilities struct {
	ReadDrawing    bool `json:"can_read_drawing"`
	ModifyEntities bool `json:"can_modify_entities"`
	CreateEntities bool `json:"can_create_entities"`
	Screenshot     bool `json:"can_screenshot"`
	Save           bool `json:"can_save"`
	PlotPDF        bool `json:"can_plot_pdf"`
	Zoom           bool `json:"can_zoom"`
	QueryEntities  bool `json:"can_query_entities"`
	FileOperations bool `json:"can_file_operations"`
	Undo           bool `json:"can_undo"`
}
