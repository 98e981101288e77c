package model

// Output formats accepted by Config.OutputFormat.
const (
	FormatHuman       = "human"
	FormatJSON        = "json"
	FormatJSONCompact = "json-compact"
	FormatYAML        = "yaml"
)

// Config is the persisted configuration document.
type Config struct {
	OutputFormat string `json:"OutputFormat" validate:"required,oneof=human json json-compact yaml"`
}
