package asr

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"batchscribe/internal/config"
	"batchscribe/internal/services"
	"batchscribe/internal/tier"
)

func TestPadOrTrim(t *testing.T) {
	short := []float32{1, 2, 3}
	got := PadOrTrim(short, 5)
	if !reflect.DeepEqual(got, []float32{1, 2, 3, 0, 0}) {
		t.Fatalf("pad: %v", got)
	}
	long := []float32{1, 2, 3, 4, 5, 6}
	got = PadOrTrim(long, 4)
	if !reflect.DeepEqual(got, []float32{1, 2, 3, 4}) {
		t.Fatalf("trim: %v", got)
	}
	got[0] = 99
	if long[0] != 1 {
		t.Fatal("PadOrTrim must not alias its input")
	}
	if len(PadOrTrim(nil, InputSamples)) != InputSamples {
		t.Fatal("expected full window of silence")
	}
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions("en", tier.Large)
	if opts.Task != TaskTranscribe || opts.Temperature != 0 || !opts.NoFallback || opts.MelBins != 128 || opts.Language != "en" {
		t.Fatalf("unexpected options %+v", opts)
	}
}

func TestProbeDevice(t *testing.T) {
	ctx := context.Background()
	gpu := func(context.Context, string, ...string) (string, error) {
		return "NVIDIA GeForce RTX 3090, 24576\n", nil
	}
	missing := func(context.Context, string, ...string) (string, error) {
		return "", errors.New("executable file not found")
	}

	dev, err := ProbeDevice(ctx, config.DeviceAuto, gpu)
	if err != nil || !dev.CUDA || dev.Name != "NVIDIA GeForce RTX 3090" || dev.MemoryBytes != 24576*1024*1024 {
		t.Fatalf("auto with gpu: %+v %v", dev, err)
	}
	if got := dev.Describe(); got != "GPU: NVIDIA GeForce RTX 3090 (24 GiB memory)" {
		t.Fatalf("unexpected description %q", got)
	}

	dev, err = ProbeDevice(ctx, config.DeviceAuto, missing)
	if err != nil || dev.CUDA {
		t.Fatalf("auto without gpu: %+v %v", dev, err)
	}
	if dev.Describe() != "No GPU available, using CPU." {
		t.Fatalf("unexpected cpu description %q", dev.Describe())
	}

	if _, err := ProbeDevice(ctx, config.DeviceCUDA, missing); !errors.Is(err, ErrNoGPU) {
		t.Fatalf("cuda without gpu should fail, got %v", err)
	}

	called := false
	dev, err = ProbeDevice(ctx, config.DeviceCPU, func(context.Context, string, ...string) (string, error) {
		called = true
		return "", nil
	})
	if err != nil || dev.CUDA || called {
		t.Fatalf("cpu preference must not probe: %+v %v called=%v", dev, err, called)
	}
}

func writeModel(t *testing.T, dir string, tr tier.Tier) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, ModelFile(tr)), []byte("ggml"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestWhisperCPPMissingModelIsConfigurationError(t *testing.T) {
	_, err := NewWhisperCPP(WhisperCPPConfig{ModelDir: t.TempDir()}, tier.Base, CPU, nil)
	if !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestWhisperCPPTranscribe(t *testing.T) {
	modelDir := t.TempDir()
	writeModel(t, modelDir, tier.Large)
	engine, err := NewWhisperCPP(WhisperCPPConfig{Binary: "whisper-cli", ModelDir: modelDir, Threads: 4}, tier.Large, CPU, nil)
	if err != nil {
		t.Fatalf("NewWhisperCPP: %v", err)
	}
	defer engine.Close()

	var gotArgs []string
	engine.WithCommandRunner(func(_ context.Context, name string, args ...string) error {
		if name != "whisper-cli" {
			t.Fatalf("unexpected binary %q", name)
		}
		gotArgs = args
		var wavPath, outBase string
		for i := 0; i+1 < len(args); i++ {
			switch args[i] {
			case "-f":
				wavPath = args[i+1]
			case "-of":
				outBase = args[i+1]
			}
		}
		info, err := os.Stat(wavPath)
		if err != nil {
			t.Fatalf("chunk wav missing: %v", err)
		}
		// 44-byte header plus 480000 16-bit samples.
		if info.Size() < int64(InputSamples*2) {
			t.Fatalf("chunk wav should be padded to a full window, size=%d", info.Size())
		}
		return os.WriteFile(outBase+".txt", []byte(" [BLANK_AUDIO]\n hello world \n"), 0o644)
	})

	text, err := engine.Transcribe(context.Background(), Chunk{Index: 2, Start: 60, End: 75, Samples: make([]float32, 16000*15), SampleRate: 16000}, DefaultOptions("de", tier.Large))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "hello world" {
		t.Fatalf("unexpected text %q", text)
	}
	joined := strings.Join(gotArgs, " ")
	for _, want := range []string{"-m " + filepath.Join(modelDir, "ggml-large-v3.bin"), "-l de", "-nf", "-ng", "-t 4", "-otxt", "-tp 0"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in args: %s", want, joined)
		}
	}
	if strings.Contains(joined, "-tr") {
		t.Fatalf("transcribe task must not translate: %s", joined)
	}
	entries, _ := os.ReadDir(engine.workDir)
	if len(entries) != 0 {
		t.Fatalf("scratch files should be removed after each chunk, found %d", len(entries))
	}
}

func TestWhisperCPPGPUOmitsNoGPUFlag(t *testing.T) {
	modelDir := t.TempDir()
	writeModel(t, modelDir, tier.Small)
	engine, err := NewWhisperCPP(WhisperCPPConfig{ModelDir: modelDir}, tier.Small, Device{CUDA: true, Name: "gpu"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()
	args := engine.buildArgs("a.wav", "a", DefaultOptions("en", tier.Small))
	for _, a := range args {
		if a == "-ng" {
			t.Fatal("cuda device must not pass -ng")
		}
	}
}

func TestWhisperCPPFailure(t *testing.T) {
	modelDir := t.TempDir()
	writeModel(t, modelDir, tier.Tiny)
	engine, err := NewWhisperCPP(WhisperCPPConfig{ModelDir: modelDir}, tier.Tiny, CPU, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()
	engine.WithCommandRunner(func(context.Context, string, ...string) error { return errors.New("segfault") })
	if _, err := engine.Transcribe(context.Background(), Chunk{Samples: make([]float32, 10), SampleRate: 16000}, DefaultOptions("en", tier.Tiny)); err == nil {
		t.Fatal("expected error")
	}
}

func TestOpenAITranscribe(t *testing.T) {
	var gotAuth, gotModel, gotLang string
	var gotFileSize int
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/audio/transcriptions" || r.Method != http.MethodPost {
			http.NotFound(w, r)
			return
		}
		gotAuth = r.Header.Get("Authorization")
		if err := r.ParseMultipartForm(8 << 20); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		gotModel = r.FormValue("model")
		gotLang = r.FormValue("language")
		file, _, err := r.FormFile("file")
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		data, _ := io.ReadAll(file)
		gotFileSize = len(data)
		_ = json.NewEncoder(w).Encode(map[string]string{"text": "  bonjour tout le monde "})
	}))
	defer server.Close()

	engine, err := NewOpenAI(OpenAIConfig{BaseURL: server.URL + "/v1/", APIKey: "sk-test", Model: "whisper-large"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()

	text, err := engine.Transcribe(context.Background(), Chunk{Samples: make([]float32, 1600), SampleRate: 16000}, DefaultOptions("fr", tier.Medium))
	if err != nil {
		t.Fatalf("Transcribe: %v", err)
	}
	if text != "bonjour tout le monde" {
		t.Fatalf("unexpected text %q", text)
	}
	if gotAuth != "Bearer sk-test" || gotModel != "whisper-large" || gotLang != "fr" {
		t.Fatalf("unexpected request auth=%q model=%q lang=%q", gotAuth, gotModel, gotLang)
	}
	if gotFileSize != 44+1600*2 {
		t.Fatalf("unexpected upload size %d", gotFileSize)
	}
}

func TestOpenAIErrorStatus(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"invalid api key"}}`))
	}))
	defer server.Close()

	engine, err := NewOpenAI(OpenAIConfig{BaseURL: server.URL}, nil)
	if err != nil {
		t.Fatal(err)
	}
	defer engine.Close()
	_, err = engine.Transcribe(context.Background(), Chunk{Samples: make([]float32, 16), SampleRate: 16000}, DefaultOptions("en", tier.Base))
	if err == nil || !strings.Contains(err.Error(), "invalid api key") {
		t.Fatalf("expected api error message, got %v", err)
	}
}

func TestNewLoaderSelectsBackend(t *testing.T) {
	cfg := config.Default()
	cfg.Transcription.Engine = config.EngineOpenAI
	engine, err := NewLoader(&cfg, nil).Load(context.Background(), tier.Base, CPU)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	defer engine.Close()
	if engine.Name() != "openai:whisper-1" {
		t.Fatalf("unexpected engine %q", engine.Name())
	}

	cfg.Transcription.Engine = config.EngineWhisperCPP
	cfg.WhisperCPP.ModelDir = t.TempDir()
	if _, err := NewLoader(&cfg, nil).Load(context.Background(), tier.Base, CPU); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing model, got %v", err)
	}
}
