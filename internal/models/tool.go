package models

// Tool definitions are also read from YAML or JSON files by the CLI.
type Tool struct {
	Name         string         `json:"name" yaml:"name"`
	Description  string         `json:"description" yaml:"description"`
	Category     string         `json:"category,omitempty" yaml:"category,omitempty"`
	Domains      []string       `json:"domains,omitempty" yaml:"domains,omitempty"`
	InputSchema  map[string]any `json:"input_schema,omitempty" yaml:"input_schema,omitempty"`
	OutputSchema map[string]any `json:"output_schema,omitempty" yaml:"output_schema,omitempty"`
	Version      string         `json:"version,omitempty" yaml:"version,omitempty"`
}

type Conversation struct {
	ID       string         `json:"conversation_id"`
	SeedID   string         `json:"seed_id,omitempty"`
	Domain   string         `json:"domain,omitempty"`
	Language string         `json:"language,omitempty"`
	Turns    []Turn         `json:"turns"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

type Turn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type KnowledgeDocument struct {
	ID        string `json:"id"`
	Filename  string `json:"filename"`
	Domain    string `json:"domain,omitempty"`
	Chunks    int    `json:"chunk_count"`
	SizeBytes int64  `json:"size_bytes,omitempty"`
}
