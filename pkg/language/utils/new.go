// Package languageutils is the language service utility package
package languageutils

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/packratco/packrat/pkg/language"
	"github.com/packratco/packrat/pkg/language/ollama"
)

type NewServiceOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	Logger       *zap.Logger
}

func NewService(o *NewServiceOpts) (language.Service, error) {
	switch o.ProviderType {
	case "ollama":
		return ollama.NewService(ollama.Config{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		}, o.Logger)
	default:
		return nil, fmt.Errorf("unsupported language provider: %s", o.ProviderType)
	}
}
