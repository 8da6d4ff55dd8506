package stt

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	openai "github.com/openai/openai-go/v3"
	"github.com/openai/openai-go/v3/option"

	"healthvoice/pkg/audioconv"
)

// OpenAI transcribes through the hosted transcription API. The daemon
// falls back to it when no local whisper model is configured.
type OpenAI struct {
	client openai.Client
	model  string
}

// NewOpenAI builds the hosted backend. httpClient may be nil, which
// uses the default transport; pass a proxied client when the API is
// only reachable through SOCKS.
func NewOpenAI(apiKey, model string, httpClient *http.Client) *OpenAI {
	if model == "" {
		model = string(openai.AudioModelWhisper1)
	}
	opts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if httpClient != nil {
		opts = append(opts, option.WithHTTPClient(httpClient))
	}
	return &OpenAI{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

func (o *OpenAI) Name() string { return "openai" }

func (o *OpenAI) Close() error { return nil }

func (o *OpenAI) Transcribe(ctx context.Context, pcm16k []float32) (Transcript, error) {
	if len(pcm16k) == 0 {
		return Transcript{}, fmt.Errorf("no audio samples provided")
	}

	// The API wants a container format, so round-trip through a WAV file.
	tmp, err := os.CreateTemp("", "utterance-*.wav")
	if err != nil {
		return Transcript{}, fmt.Errorf("temp wav: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := audioconv.EncodeWAV(tmp, pcm16k, audioconv.TargetRate); err != nil {
		tmp.Close()
		return Transcript{}, fmt.Errorf("encode wav: %w", err)
	}
	if _, err := tmp.Seek(0, 0); err != nil {
		tmp.Close()
		return Transcript{}, err
	}
	defer tmp.Close()

	resp, err := o.client.Audio.Transcriptions.New(ctx, openai.AudioTranscriptionNewParams{
		File:     tmp,
		Model:    openai.AudioModel(o.model),
		Language: openai.String("en"),
	})
	if err != nil {
		return Transcript{}, fmt.Errorf("transcription request: %w", err)
	}

	return Transcript{
		Text:       resp.Text,
		CapturedAt: time.Now(),
		Engine:     o.Name(),
	}, nil
}
