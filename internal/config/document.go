package config

import (
	"errors"
	"log"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
)

const (
	PDFProviderRemote = "remote"
	PDFProviderLocal  = "local"
)

// DocumentConfig controls the paperwork generation pipeline.
type DocumentConfig struct {
	TemplatePath     string        `mapstructure:"templatePath"`
	MediaRoot        string        `mapstructure:"mediaRoot"`
	Provider         string        `mapstructure:"provider"`
	ConverterURL     string        `mapstructure:"converterUrl"`
	ConverterTimeout time.Duration `mapstructure:"converterTimeout"`
}

func DefaultDocumentConfig() DocumentConfig {
	return DocumentConfig{
		TemplatePath:     "templates/documents/application_template.docx",
		MediaRoot:        "media",
		Provider:         PDFProviderLocal,
		ConverterTimeout: 30 * time.Second,
	}
}

type DocumentConfigHolder struct {
	current atomic.Value // holds DocumentConfig
}

func NewDocumentConfigHolder() (*DocumentConfigHolder, error) {
	v := viper.New()

	v.SetConfigName("document")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/forwarding")
	v.AddConfigPath(".")

	v.SetEnvPrefix("FORWARDING")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		defaults := DefaultDocumentConfig()
		v.SetDefault("document.templatePath", defaults.TemplatePath)
		v.SetDefault("document.mediaRoot", defaults.MediaRoot)
		v.SetDefault("document.provider", defaults.Provider)
		v.SetDefault("document.converterUrl", defaults.ConverterURL)
		v.SetDefault("document.converterTimeout", defaults.ConverterTimeout)
	}

	var cfg DocumentConfig
	if err := v.UnmarshalKey("document", &cfg); err != nil {
		return nil, err
	}
	if err := validateDocumentConfig(cfg); err != nil {
		return nil, err
	}

	holder := &DocumentConfigHolder{}
	holder.current.Store(cfg)

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated DocumentConfig
		if err := v.UnmarshalKey("document", &updated); err != nil {
			log.Printf("[document-config] reload failed: %v", err)
			return
		}
		if err := validateDocumentConfig(updated); err != nil {
			log.Printf("[document-config] invalid config ignored: %v", err)
			return
		}
		holder.current.Store(updated)
		log.Printf("[document-config] reloaded from %s", e.Name)
	})

	return holder, nil
}

func (h *DocumentConfigHolder) Get() DocumentConfig {
	return h.current.Load().(DocumentConfig)
}

// NewStaticDocumentConfigHolder wraps a fixed config, for tests and tooling.
func NewStaticDocumentConfigHolder(cfg DocumentConfig) *DocumentConfigHolder {
	holder := &DocumentConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func validateDocumentConfig(cfg DocumentConfig) error {
	if strings.TrimSpace(cfg.TemplatePath) == "" {
		return errors.New("document.templatePath cannot be empty")
	}
	if strings.TrimSpace(cfg.MediaRoot) == "" {
		return errors.New("document.mediaRoot cannot be empty")
	}
	switch cfg.Provider {
	case PDFProviderRemote:
		if strings.TrimSpace(cfg.ConverterURL) == "" {
			return errors.New("document.converterUrl is required for the remote provider")
		}
	case PDFProviderLocal:
	default:
		return errors.New("document.provider must be remote or local")
	}
	return nil
}
