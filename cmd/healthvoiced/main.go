package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"time"

	cli "github.com/spf13/pflag"

	"github.com/lmittmann/tint"
	log "log/slog"

	"healthvoice/internal/api"
	"healthvoice/internal/audio"
	"healthvoice/internal/config"
	"healthvoice/internal/dispatch"
	"healthvoice/internal/food"
	"healthvoice/internal/ipc"
	"healthvoice/internal/nlu"
	"healthvoice/internal/notify"
	"healthvoice/internal/pipeline"
	"healthvoice/internal/proxy"
	"healthvoice/internal/tts"
	"healthvoice/internal/wake"
	"healthvoice/pkg/audioconv"
	"healthvoice/pkg/stt"
)

var logLevelMap = map[string]log.Level{
	"debug": log.LevelDebug,
	"info":  log.LevelInfo,
	"warn":  log.LevelWarn,
	"error": log.LevelError,
}

func main() {
	envFile := cli.StringP("env", "e", ".env", "Env file path")
	logLevel := cli.StringP("log", "l", "info", "Log level")
	noWake := cli.Bool("no-wake", false, "Skip the wake hub, rely on IPC triggers only")
	single := cli.Bool("single", false, "Run one capture cycle and exit")
	transcribeFile := cli.String("transcribe", "", "Run the pipeline on an audio file and exit")
	cli.Parse()

	log.SetDefault(log.New(tint.NewHandler(os.Stdout, &tint.Options{
		Level: logLevelMap[*logLevel],
	})))

	log.Info("Booting up")

	cfg := config.Load(*envFile)

	client, err := api.NewClient(api.Config{
		BaseURL: cfg.APIBaseURL,
		Timeout: cfg.APITimeout,
	})
	if err != nil {
		log.Error("Bad API config", "err", err)
		os.Exit(1)
	}

	registry := nlu.NewRegistry()
	if err := refreshRegistry(client, registry); err != nil {
		log.Error("Failed to load custom metrics", "err", err)
		os.Exit(1)
	}
	log.Debug("Loaded metric registry", "metrics", registry.Snapshot().Len())

	var resolver food.Resolver
	if cfg.FoodDBPath != "" {
		store, err := food.OpenStore(cfg.FoodDBPath)
		if err != nil {
			log.Error("Failed to open food database", "path", cfg.FoodDBPath, "err", err)
			os.Exit(1)
		}
		defer store.Close()
		resolver = store
		log.Debug("Using offline food database", "path", cfg.FoodDBPath)
	} else {
		resolver = food.NewAPIResolver(client)
	}

	engine, err := newEngine(cfg)
	if err != nil {
		log.Error("Failed to init transcription engine", "err", err)
		os.Exit(1)
	}
	defer engine.Close()
	log.Debug("Loaded transcription engine", "engine", engine.Name())

	deps := pipeline.Deps{
		Engine:   engine,
		Registry: registry,
		Router:   dispatch.NewRouter(resolver),
		Executor: dispatch.NewDispatcher(client),
		Speak:    tts.Speak,
		Beep:     func() error { return notify.Beep(cfg.TonePath) },
		CaptureOpts: audio.CaptureOptions{
			SilenceRMS:      cfg.SilenceRMS,
			TrailingSilence: cfg.TrailingSilence,
			MaxUtterance:    cfg.MaxUtterance,
		},
		Refractory: cfg.Refractory,
	}

	if *transcribeFile != "" {
		// file mode never touches the microphone
		runFile(pipeline.New(deps), engine, *transcribeFile)
		return
	}

	rec := audio.NewRecorder()
	if err := rec.Init(); err != nil {
		log.Error("Failed to init audio", "err", err)
		os.Exit(1)
	}
	defer rec.Close()
	log.Debug("Loaded recorder")

	deps.Recorder = rec
	deps.Ducker = audio.NewDucker([]string{"healthvoice"}, 10)
	orc := pipeline.New(deps)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go orc.Run(ctx)

	if *single {
		orc.Trigger()
		waitIdle(orc)
		return
	}

	if err := ipc.StartServer(cfg.IPCSocket, func(msg ipc.ControlMessage) {
		switch msg.Cmd {
		case "trigger":
			if orc.Trigger() {
				notify.Notify("Listening...")
			}
		case "text":
			orc.TriggerText(msg.Arg)
		case "refresh":
			if err := refreshRegistry(client, registry); err != nil {
				log.Warn("Metric refresh failed", "err", err)
			}
		case "say":
			if err := tts.Speak(msg.Arg); err != nil {
				log.Warn("TTS failed", "err", err)
			}
		default:
			log.Warn("Unknown command", "cmd", msg.Cmd)
		}
	}); err != nil {
		log.Error("Failed ipc server", "err", err)
		os.Exit(1)
	}

	if !*noWake && cfg.WakeURL != "" {
		sub := wake.NewSubscriber(cfg.WakeURL, 0, func(ev wake.Event) {
			switch ev.Kind {
			case "wake":
				if orc.Trigger() {
					notify.Notify("Listening...")
				}
			case "text":
				orc.TriggerText(ev.Text)
			}
		})
		go sub.Run(ctx)
	}

	go refreshLoop(ctx, client, registry, cfg.RegistryRefresh)

	log.Info("Boot up - successful")
	select {}
}

func newEngine(cfg config.Config) (stt.Engine, error) {
	switch cfg.STTEngine {
	case "openai":
		if cfg.OpenAIKey == "" {
			return nil, fmt.Errorf("OPENAI_API_KEY not set")
		}
		var httpClient *http.Client
		if cfg.SocksProxy != "" {
			var err error
			httpClient, err = proxy.NewSocksClient(cfg.SocksProxy)
			if err != nil {
				return nil, fmt.Errorf("dial socks proxy %s: %w", cfg.SocksProxy, err)
			}
		}
		return stt.NewOpenAI(cfg.OpenAIKey, cfg.OpenAIModel, httpClient), nil
	case "whisper":
		return stt.NewWhisper(cfg.WhisperModel, stt.WhisperOptions{})
	}
	return nil, fmt.Errorf("unknown STT engine %q", cfg.STTEngine)
}

func refreshRegistry(client *api.Client, registry *nlu.Registry) error {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	metrics, err := client.ListCustomMetrics(ctx)
	if err != nil {
		return err
	}
	defs := make([]nlu.MetricDefinition, 0, len(metrics))
	for _, m := range metrics {
		defs = append(defs, nlu.MetricDefinition{
			Kind:    nlu.KindCustom,
			ID:      m.ID,
			Keyword: m.Name,
			Name:    m.Name,
		})
	}
	return registry.Refresh(defs)
}

func refreshLoop(ctx context.Context, client *api.Client, registry *nlu.Registry, every time.Duration) {
	if every <= 0 {
		return
	}
	t := time.NewTicker(every)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if err := refreshRegistry(client, registry); err != nil {
				log.Warn("Periodic metric refresh failed", "err", err)
			}
		}
	}
}

func runFile(orc *pipeline.Orchestrator, engine stt.Engine, path string) {
	pcm, err := audioconv.DecodeFile(path, audioconv.Options{})
	if err != nil {
		log.Error("Failed to decode audio file", "path", path, "err", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	tr, err := engine.Transcribe(ctx, pcm)
	if err != nil {
		log.Error("Transcription failed", "err", err)
		os.Exit(1)
	}
	log.Info("Transcribed", "text", tr.Text)

	go orc.Run(ctx)
	orc.TriggerText(tr.Text)
	waitIdle(orc)
}

func waitIdle(orc *pipeline.Orchestrator) {
	// single-cycle modes exit once the pipeline drains
	for orc.Phase() != pipeline.PhaseIdle {
		time.Sleep(50 * time.Millisecond)
	}
}
