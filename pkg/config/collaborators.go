package config

import (
	"github.com/inkguard/inkguard/pkg/dataset"
	"github.com/inkguard/inkguard/pkg/extract/llm"
)

// Files resolves the three dataset files.
func (d DataConfig) Files() dataset.Files {
	return dataset.Files{
		Products: d.Path(d.Products),
		Reviews:  d.Path(d.Reviews),
		Sellers:  d.Path(d.Sellers),
	}
}

// Client builds the language model client, resolving the API key from
// config, environment or keyring.
func (c LLMConfig) Client() (*llm.Client, error) {
	key, err := c.ResolveAPIKey()
	if err != nil {
		return nil, err
	}
	return llm.New(key,
		llm.WithBaseURL(c.BaseURL),
		llm.WithModel(c.Model),
		llm.WithTimeout(c.Timeout),
		llm.WithMaxRetries(c.MaxRetries),
		llm.WithJSONMode(c.JSONMode),
		llm.WithMaxDescriptionChars(c.MaxDescriptionChars),
	), nil
}
