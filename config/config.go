// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


// Package config reads deployment configuration from INVOICIT_* environment
// variables, optionally seeded from a dotenv file. Every variable has a
// default except the API key; validation of the resulting combination is
// left to the consumers (ai.Config, the storage backend).
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"

	"github.com/poiesic/invoicit/ai"
)

// Environment variable names.
const (
	EnvDBPath         = "INVOICIT_DB"
	EnvHTTPAddr       = "INVOICIT_HTTP_ADDR"
	EnvChatHost       = "INVOICIT_CHAT_HOST"
	EnvChatModel      = "INVOICIT_CHAT_MODEL"
	EnvEmbeddingHost  = "INVOICIT_EMBEDDING_HOST"
	EnvEmbeddingModel = "INVOICIT_EMBEDDING_MODEL"
	EnvAPIKey         = "INVOICIT_API_KEY"
	EnvPackManifest   = "INVOICIT_PACK_MANIFEST"
	EnvRegistry       = "INVOICIT_REGISTRY"
	EnvLogLevel       = "INVOICIT_LOG_LEVEL"
)

// Defaults applied when a variable is unset or empty.
const (
	DefaultDBPath         = "./invoicit.db"
	DefaultHTTPAddr       = ":8080"
	DefaultChatHost       = "http://localhost:11434"
	DefaultChatModel      = "qwen2.5:3b"
	DefaultEmbeddingHost  = "http://localhost:11434"
	DefaultEmbeddingModel = "embeddinggemma"
	DefaultPackManifest   = "./packs.txt"
	DefaultRegistry       = "./registry"
	DefaultLogLevel       = "info"
)

// Config is the deployment configuration for one invoicit process.
type Config struct {
	// DBPath is the badger database directory.
	DBPath string

	// HTTPAddr is the listen address of the web interface.
	HTTPAddr string

	// ChatHost and ChatModel select the chat completion service.
	ChatHost  string
	ChatModel string

	// EmbeddingHost and EmbeddingModel select the embedding service.
	EmbeddingHost  string
	EmbeddingModel string

	// APIKey is the bearer token for both AI services. It has no
	// default; local OpenAI-compatible servers accept any value.
	APIKey string

	// PackManifest is the path of the pack dependency manifest.
	PackManifest string

	// Registry locates the pack registry: a local directory or an
	// http(s) base URL.
	Registry string

	// LogLevel is the textual slog level (debug, info, warn, error).
	LogLevel string

	set map[string]bool
}

// Load reads the environment into a Config. When envFile is non-empty its
// dotenv contents are loaded first; a missing file is not an error, so a
// deployment without a dotenv file runs on plain environment variables.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("failed to load env file %s: %w", envFile, err)
		}
	}

	c := &Config{set: make(map[string]bool)}
	c.DBPath = c.read(EnvDBPath, DefaultDBPath)
	c.HTTPAddr = c.read(EnvHTTPAddr, DefaultHTTPAddr)
	c.ChatHost = c.read(EnvChatHost, DefaultChatHost)
	c.ChatModel = c.read(EnvChatModel, DefaultChatModel)
	c.EmbeddingHost = c.read(EnvEmbeddingHost, DefaultEmbeddingHost)
	c.EmbeddingModel = c.read(EnvEmbeddingModel, DefaultEmbeddingModel)
	c.APIKey = c.read(EnvAPIKey, "")
	c.PackManifest = c.read(EnvPackManifest, DefaultPackManifest)
	c.Registry = c.read(EnvRegistry, DefaultRegistry)
	c.LogLevel = c.read(EnvLogLevel, DefaultLogLevel)
	return c, nil
}

// read resolves one variable, recording whether the environment supplied
// it. Empty values count as unset.
func (c *Config) read(name, fallback string) string {
	value, ok := os.LookupEnv(name)
	if !ok || value == "" {
		return fallback
	}
	c.set[name] = true
	return value
}

// AIConfig converts the deployment configuration into an AI service
// configuration. An unset API key keeps the AI default.
func (c *Config) AIConfig() *ai.Config {
	opts := []ai.ConfigOption{
		ai.WithChatHost(c.ChatHost),
		ai.WithChatModel(c.ChatModel),
		ai.WithEmbeddingHost(c.EmbeddingHost),
		ai.WithEmbeddingModel(c.EmbeddingModel),
	}
	if c.APIKey != "" {
		opts = append(opts, ai.WithAPIKey(c.APIKey))
	}
	return ai.NewConfig(opts...)
}

// VarStatus describes one configuration variable for status reporting.
type VarStatus struct {
	Name    string `json:"name"`
	Value   string `json:"value,omitempty"`
	Set     bool   `json:"set"`
	Default string `json:"default,omitempty"`
}

// Status reports every variable as set or defaulted, in declaration order.
// The API key value is never included, only whether it is present.
func (c *Config) Status() []VarStatus {
	mask := func(value string) string {
		if value == "" {
			return ""
		}
		return "********"
	}

	return []VarStatus{
		{Name: EnvDBPath, Value: c.DBPath, Set: c.set[EnvDBPath], Default: DefaultDBPath},
		{Name: EnvHTTPAddr, Value: c.HTTPAddr, Set: c.set[EnvHTTPAddr], Default: DefaultHTTPAddr},
		{Name: EnvChatHost, Value: c.ChatHost, Set: c.set[EnvChatHost], Default: DefaultChatHost},
		{Name: EnvChatModel, Value: c.ChatModel, Set: c.set[EnvChatModel], Default: DefaultChatModel},
		{Name: EnvEmbeddingHost, Value: c.EmbeddingHost, Set: c.set[EnvEmbeddingHost], Default: DefaultEmbeddingHost},
		{Name: EnvEmbeddingModel, Value: c.EmbeddingModel, Set: c.set[EnvEmbeddingModel], Default: DefaultEmbeddingModel},
		{Name: EnvAPIKey, Value: mask(c.APIKey), Set: c.set[EnvAPIKey]},
		{Name: EnvPackManifest, Value: c.PackManifest, Set: c.set[EnvPackManifest], Default: DefaultPackManifest},
		{Name: EnvRegistry, Value: c.Registry, Set: c.set[EnvRegistry], Default: DefaultRegistry},
		{Name: EnvLogLevel, Value: c.LogLevel, Set: c.set[EnvLogLevel], Default: DefaultLogLevel},
	}
}
