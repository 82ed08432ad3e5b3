// Package config loads and hot-reloads the runtime's configuration file
// (spec §6 "Configuration options").
package config

import "fmt"

// Config is the root configuration for the ikigai runtime. Every field here
// corresponds to one of the options listed in spec §6; empty strings and
// zero values mean "use the documented default" rather than a literal zero.
type Config struct {
	DataDir string `json:"data_dir,omitempty"`

	DefaultProvider string `json:"default_provider,omitempty"` // "openai" default; IKIGAI_DEFAULT_PROVIDER overrides it, see Load

	OpenAIModel               string  `json:"openai_model,omitempty"`
	OpenAITemperature         float64 `json:"openai_temperature,omitempty"`
	OpenAIMaxCompletionTokens int     `json:"openai_max_completion_tokens,omitempty"`
	OpenAISystemMessage       string  `json:"openai_system_message"` // nullable: "" falls through to file then default

	ListenAddress string `json:"listen_address,omitempty"`
	ListenPort    int    `json:"listen_port,omitempty"`

	DBHost string `json:"db_host,omitempty"`
	DBPort int    `json:"db_port,omitempty"`
	DBName string `json:"db_name,omitempty"`
	DBUser string `json:"db_user,omitempty"`
	DBPass string `json:"-"` // secret; env only, never persisted to config.json5

	AnthropicAPIKey string `json:"-"` // secret; env only
	AnthropicAPIBase string `json:"anthropic_api_base,omitempty"`
	OpenAIAPIKey    string `json:"-"` // secret; env only

	MaxToolTurns  int `json:"max_tool_turns,omitempty"`
	MaxOutputSize int `json:"max_output_size,omitempty"`
	HistorySize   int `json:"history_size,omitempty"`

	// PinnedDocuments lists paths resolved through the document cache and
	// assembled into the effective system prompt ahead of the prompt file
	// and openai_system_message tiers (spec §4.7).
	PinnedDocuments []string `json:"pinned_documents,omitempty"`
}

// DSN builds the Postgres connection string from the db_* fields, following
// the defaults in spec §6: db_host=localhost, db_port=5432, db_name=ikigai,
// db_user=ikigai. DBPass comes only from the environment (see Load).
func (c *Config) DSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
		c.DBUser, c.DBPass, c.DBHost, c.DBPort, c.DBName)
}
