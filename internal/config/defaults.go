package config

const (
	defaultConfigPath       = "~/.config/batchscribe/config.toml"
	defaultInputDir         = "~/Transcribe"
	defaultLogDir           = "~/.local/share/batchscribe/logs"
	defaultStateDirFallback = "~/.local/state/batchscribe"
	defaultLanguage         = "en"
	defaultEngine           = EngineWhisperCPP
	defaultDevice           = DeviceAuto
	defaultWhisperBinary    = "whisper-cli"
	defaultWhisperModelDir  = "~/.local/share/batchscribe/models"
	defaultOpenAIBaseURL    = "https://api.openai.com/v1"
	defaultOpenAIModel      = "whisper-1"
	defaultOpenAITimeout    = 120
	defaultFFmpegBinary     = "ffmpeg"
	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
	defaultNtfyTimeout      = 10
)

// Engine backend identifiers.
const (
	EngineWhisperCPP = "whispercpp"
	EngineOpenAI     = "openai"
)

// Device placement identifiers.
const (
	DeviceAuto = "auto"
	DeviceCPU  = "cpu"
	DeviceCUDA = "cuda"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			InputDir: defaultInputDir,
			LogDir:   defaultLogDir,
			StateDir: defaultStateDir(),
		},
		Transcription: Transcription{
			Language: defaultLanguage,
			Engine:   defaultEngine,
			Device:   defaultDevice,
		},
		WhisperCPP: WhisperCPP{
			Binary:   defaultWhisperBinary,
			ModelDir: defaultWhisperModelDir,
		},
		OpenAI: OpenAI{
			BaseURL:        defaultOpenAIBaseURL,
			Model:          defaultOpenAIModel,
			TimeoutSeconds: defaultOpenAITimeout,
		},
		FFmpeg: FFmpeg{
			Binary: defaultFFmpegBinary,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
		History: History{
			Enabled: true,
		},
		Progress: Progress{
			TerminalTitle: true,
			Bar:           true,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNtfyTimeout,
		},
	}
}
