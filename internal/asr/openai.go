package asr

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"batchscribe/internal/audio"
	"batchscribe/internal/logging"
	"batchscribe/internal/textutil"
)

// OpenAIConfig configures an OpenAI-compatible transcription endpoint.
type OpenAIConfig struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// OpenAI posts each chunk as a WAV upload to <base>/audio/transcriptions.
type OpenAI struct {
	cfg     OpenAIConfig
	client  *http.Client
	workDir string
	logger  *slog.Logger
}

// NewOpenAI builds the HTTP backend.
func NewOpenAI(cfg OpenAIConfig, logger *slog.Logger) (*OpenAI, error) {
	if strings.TrimSpace(cfg.BaseURL) == "" {
		cfg.BaseURL = "https://api.openai.com/v1"
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if strings.TrimSpace(cfg.Model) == "" {
		cfg.Model = "whisper-1"
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	workDir, err := os.MkdirTemp("", "batchscribe-upload-*")
	if err != nil {
		return nil, fmt.Errorf("create upload scratch directory: %w", err)
	}
	return &OpenAI{
		cfg:     cfg,
		client:  &http.Client{Timeout: cfg.Timeout},
		workDir: workDir,
		logger:  logging.NewComponentLogger(logger, "openai"),
	}, nil
}

// WithHTTPClient overrides the HTTP client (for testing).
func (o *OpenAI) WithHTTPClient(client *http.Client) *OpenAI {
	o.client = client
	return o
}

// Name implements Engine.
func (o *OpenAI) Name() string {
	return "openai:" + o.cfg.Model
}

type transcriptionResponse struct {
	Text string `json:"text"`
}

type apiError struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}

// Transcribe implements Engine. Only the chunk's own samples are uploaded;
// trimming to InputSamples still applies.
func (o *OpenAI) Transcribe(ctx context.Context, chunk Chunk, opts Options) (string, error) {
	samples := chunk.Samples
	if len(samples) > InputSamples {
		samples = samples[:InputSamples]
	}
	rate := chunk.SampleRate
	if rate <= 0 {
		rate = audio.SampleRate
	}
	wavPath := filepath.Join(o.workDir, fmt.Sprintf("chunk-%05d.wav", chunk.Index))
	if err := audio.WritePCM(wavPath, samples, rate); err != nil {
		return "", fmt.Errorf("write chunk wav: %w", err)
	}
	defer os.Remove(wavPath)

	body, contentType, err := o.buildForm(wavPath, opts)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, o.cfg.BaseURL+"/audio/transcriptions", body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	if o.cfg.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+o.cfg.APIKey)
	}

	start := time.Now()
	resp, err := o.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("openai %s: %w", chunk, err)
	}
	defer resp.Body.Close()
	payload, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return "", fmt.Errorf("read response: %w", err)
	}
	o.logger.Debug("transcription response",
		logging.Int("status", resp.StatusCode),
		logging.Duration("request_duration", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var apiErr apiError
		msg := strings.TrimSpace(string(payload))
		if json.Unmarshal(payload, &apiErr) == nil && apiErr.Error.Message != "" {
			msg = apiErr.Error.Message
		}
		if len(msg) > 200 {
			msg = msg[:200]
		}
		return "", fmt.Errorf("openai %s: status %d: %s", chunk, resp.StatusCode, msg)
	}

	var result transcriptionResponse
	if err := json.Unmarshal(payload, &result); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	return textutil.CleanTranscript(result.Text), nil
}

func (o *OpenAI) buildForm(wavPath string, opts Options) (io.Reader, string, error) {
	pr, pw := io.Pipe()
	writer := multipart.NewWriter(pw)
	go func() {
		err := writeForm(writer, wavPath, o.cfg.Model, opts)
		if cerr := writer.Close(); err == nil {
			err = cerr
		}
		pw.CloseWithError(err)
	}()
	return pr, writer.FormDataContentType(), nil
}

func writeForm(writer *multipart.Writer, wavPath, model string, opts Options) error {
	file, err := os.Open(wavPath)
	if err != nil {
		return err
	}
	defer file.Close()

	part, err := writer.CreateFormFile("file", filepath.Base(wavPath))
	if err != nil {
		return fmt.Errorf("create form file: %w", err)
	}
	if _, err := io.Copy(part, file); err != nil {
		return fmt.Errorf("write form file: %w", err)
	}
	fields := [][2]string{
		{"model", model},
		{"response_format", "json"},
		{"temperature", strconv.FormatFloat(opts.Temperature, 'f', -1, 64)},
	}
	if opts.Language != "" {
		fields = append(fields, [2]string{"language", opts.Language})
	}
	for _, f := range fields {
		if err := writer.WriteField(f[0], f[1]); err != nil {
			return errors.Join(fmt.Errorf("write field %s", f[0]), err)
		}
	}
	return nil
}

// Close removes the upload scratch directory.
func (o *OpenAI) Close() error {
	return os.RemoveAll(o.workDir)
}
