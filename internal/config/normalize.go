package config

import (
	"fmt"
	"os"
	"strings"

	"golang.org/x/text/language"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeTranscription(); err != nil {
		return err
	}
	if err := c.normalizeWhisperCPP(); err != nil {
		return err
	}
	c.normalizeOpenAI()
	c.normalizeLogging()
	c.normalizeNotifications()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if value, ok := os.LookupEnv("BATCHSCRIBE_INPUT_DIR"); ok && strings.TrimSpace(value) != "" {
		c.Paths.InputDir = strings.TrimSpace(value)
	}
	if strings.TrimSpace(c.Paths.InputDir) == "" {
		c.Paths.InputDir = defaultInputDir
	}
	if c.Paths.InputDir, err = expandPath(c.Paths.InputDir); err != nil {
		return fmt.Errorf("paths.input_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir()
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscription() error {
	lang, err := NormalizeLanguage(c.Transcription.Language)
	if err != nil {
		return err
	}
	c.Transcription.Language = lang
	c.Transcription.Engine = strings.ToLower(strings.TrimSpace(c.Transcription.Engine))
	if c.Transcription.Engine == "" {
		c.Transcription.Engine = defaultEngine
	}
	c.Transcription.Device = strings.ToLower(strings.TrimSpace(c.Transcription.Device))
	if c.Transcription.Device == "" {
		c.Transcription.Device = defaultDevice
	}
	return nil
}

// NormalizeLanguage canonicalizes a BCP 47 tag (or English name such as
// "english") to the base language subtag the engines expect, e.g. "en-US" -> "en".
func NormalizeLanguage(value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return defaultLanguage, nil
	}
	if strings.EqualFold(value, "auto") {
		return "", fmt.Errorf("transcription.language: a fixed language is required, %q is not supported", value)
	}
	tag, err := language.Parse(value)
	if err != nil {
		if named, ok := languageByName(value); ok {
			tag = named
		} else {
			return "", fmt.Errorf("transcription.language: %q is not a recognized language tag: %w", value, err)
		}
	}
	base, confidence := tag.Base()
	if confidence == language.No {
		return "", fmt.Errorf("transcription.language: %q has no base language", value)
	}
	return base.String(), nil
}

var namedLanguages = []language.Tag{
	language.English, language.Spanish, language.French, language.German,
	language.Italian, language.Portuguese, language.Japanese, language.Korean,
	language.Chinese, language.Russian, language.Arabic, language.Hindi,
	language.Dutch, language.Polish, language.Swedish, language.Danish,
	language.Norwegian, language.Finnish,
}

func languageByName(value string) (language.Tag, bool) {
	for _, tag := range namedLanguages {
		if strings.EqualFold(displayName(tag), value) {
			return tag, true
		}
	}
	return language.Und, false
}

func (c *Config) normalizeWhisperCPP() error {
	var err error
	c.WhisperCPP.Binary = strings.TrimSpace(c.WhisperCPP.Binary)
	if c.WhisperCPP.Binary == "" {
		c.WhisperCPP.Binary = defaultWhisperBinary
	}
	if strings.TrimSpace(c.WhisperCPP.ModelDir) == "" {
		c.WhisperCPP.ModelDir = defaultWhisperModelDir
	}
	if value, ok := os.LookupEnv("WHISPER_MODEL_DIR"); ok && strings.TrimSpace(value) != "" {
		c.WhisperCPP.ModelDir = strings.TrimSpace(value)
	}
	if c.WhisperCPP.ModelDir, err = expandPath(c.WhisperCPP.ModelDir); err != nil {
		return fmt.Errorf("whispercpp.model_dir: %w", err)
	}
	if c.WhisperCPP.Threads < 0 {
		c.WhisperCPP.Threads = 0
	}
	return nil
}

func (c *Config) normalizeOpenAI() {
	c.OpenAI.BaseURL = strings.TrimRight(strings.TrimSpace(c.OpenAI.BaseURL), "/")
	if c.OpenAI.BaseURL == "" {
		c.OpenAI.BaseURL = defaultOpenAIBaseURL
	}
	c.OpenAI.Model = strings.TrimSpace(c.OpenAI.Model)
	if c.OpenAI.Model == "" {
		c.OpenAI.Model = defaultOpenAIModel
	}
	if value, ok := os.LookupEnv("OPENAI_API_KEY"); ok && strings.TrimSpace(value) != "" {
		c.OpenAI.APIKey = strings.TrimSpace(value)
	}
	c.OpenAI.APIKey = strings.TrimSpace(c.OpenAI.APIKey)
	if c.OpenAI.TimeoutSeconds <= 0 {
		c.OpenAI.TimeoutSeconds = defaultOpenAITimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeout <= 0 {
		c.Notifications.RequestTimeout = defaultNtfyTimeout
	}
}
