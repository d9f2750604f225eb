package config

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/language/display"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateEngine(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return c.validateNotifications()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		return errors.New("paths.input_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		return errors.New("paths.state_dir must be set")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if strings.TrimSpace(c.Transcription.Language) == "" {
		return errors.New("transcription.language must be set")
	}
	switch c.Transcription.Engine {
	case EngineWhisperCPP, EngineOpenAI:
	default:
		return fmt.Errorf("transcription.engine must be %q or %q, got %q", EngineWhisperCPP, EngineOpenAI, c.Transcription.Engine)
	}
	switch c.Transcription.Device {
	case DeviceAuto, DeviceCPU, DeviceCUDA:
	default:
		return fmt.Errorf("transcription.device must be one of auto, cpu, cuda; got %q", c.Transcription.Device)
	}
	return nil
}

func (c *Config) validateEngine() error {
	switch c.Transcription.Engine {
	case EngineWhisperCPP:
		if strings.TrimSpace(c.WhisperCPP.Binary) == "" {
			return errors.New("whispercpp.binary must be set")
		}
		if strings.TrimSpace(c.WhisperCPP.ModelDir) == "" {
			return errors.New("whispercpp.model_dir must be set")
		}
	case EngineOpenAI:
		if !strings.HasPrefix(c.OpenAI.BaseURL, "http://") && !strings.HasPrefix(c.OpenAI.BaseURL, "https://") {
			return fmt.Errorf("openai.base_url must be an http(s) URL, got %q", c.OpenAI.BaseURL)
		}
		if c.OpenAI.TimeoutSeconds <= 0 {
			return errors.New("openai.timeout_seconds must be positive")
		}
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Format {
	case "console", "json":
	default:
		return fmt.Errorf("logging.format must be console or json, got %q", c.Logging.Format)
	}
	switch c.Logging.Level {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("logging.level must be one of debug, info, warn, error; got %q", c.Logging.Level)
	}
	return nil
}

// LanguageName returns the English display name for the configured language.
func (c *Config) LanguageName() string {
	tag, err := language.Parse(c.Transcription.Language)
	if err != nil {
		return c.Transcription.Language
	}
	return displayName(tag)
}

func displayName(tag language.Tag) string {
	name := display.English.Tags().Name(tag)
	if name == "" {
		return tag.String()
	}
	return name
}

func (c *Config) validateNotifications() error {
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	if !strings.HasPrefix(topic, "http://") && !strings.HasPrefix(topic, "https://") {
		return fmt.Errorf("notifications.ntfy_topic must be a full http(s) URL, got %q", topic)
	}
	return nil
}
