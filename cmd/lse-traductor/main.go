package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"syscall"

	"go.uber.org/zap"

	"github.com/dukecorse1972/LSE-traductorv1/internal/app"
	"github.com/dukecorse1972/LSE-traductorv1/internal/capture"
	"github.com/dukecorse1972/LSE-traductorv1/internal/classifier"
	"github.com/dukecorse1972/LSE-traductorv1/internal/config"
	"github.com/dukecorse1972/LSE-traductorv1/internal/detector"
	"github.com/dukecorse1972/LSE-traductorv1/internal/gesture"
	"github.com/dukecorse1972/LSE-traductorv1/internal/logger"
	"github.com/dukecorse1972/LSE-traductorv1/internal/plugin"
	"github.com/dukecorse1972/LSE-traductorv1/internal/presenter"
	"github.com/dukecorse1972/LSE-traductorv1/internal/server"
	"github.com/dukecorse1972/LSE-traductorv1/internal/server/api"
	"github.com/dukecorse1972/LSE-traductorv1/internal/store"
	"github.com/dukecorse1972/LSE-traductorv1/internal/tray"
)

var errAudioDisabled = errors.New("audio cues disabled")

func main() {
	configPath := flag.String("config", "", "path to the YAML configuration file")
	addr := flag.String("addr", "", "HTTP listen address (overrides server.addr)")
	headless := flag.Bool("headless", false, "run without the system tray")
	autostart := flag.Bool("start", false, "start a recognition session immediately")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "lse-traductor: %v\n", err)
			os.Exit(1)
		}
		cfg = loaded
	}
	if *addr != "" {
		cfg.Server.Addr = *addr
	}

	if err := logger.Init(cfg.LoggerOptions()); err != nil {
		fmt.Fprintf(os.Stderr, "lse-traductor: init logger: %v\n", err)
		os.Exit(1)
	}
	defer logger.Sync()

	if err := run(cfg, *configPath, *headless, *autostart); err != nil {
		logger.L().Error("exiting", zap.Error(err))
		logger.Sync()
		os.Exit(1)
	}
}

func run(cfg config.Config, configPath string, headless, autostart bool) error {
	log := logger.L()

	table, err := gesture.NewTable(cfg.Gestures)
	if err != nil {
		return fmt.Errorf("gestures: %w", err)
	}
	recCfg, err := cfg.RecognizerConfig()
	if err != nil {
		return err
	}

	st, err := store.New(cfg.Store.Path)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()
	if n, err := st.Sessions().CloseDangling(); err != nil {
		log.Warn("failed to close dangling sessions", zap.Error(err))
	} else if n > 0 {
		log.Info("closed sessions left open by a previous run", zap.Int64("count", n))
	}

	var clf classifier.Classifier
	var clfErr error
	if onnx, err := classifier.LoadONNX(cfg.Model.Path, recCfg.SequenceLength, table.Len(), log); err != nil {
		log.Warn("classifier unavailable, recognitions will be skipped", zap.String("model", cfg.Model.Path), zap.Error(err))
		clfErr = err
	} else {
		clf = onnx
		defer onnx.Close()
	}

	// Fall back to a detector that never sees hands so the rest of the
	// application stays usable.
	var det detector.Detector
	var detErr error
	if mp, err := detector.NewMediaPipeDetector(cfg.DetectorConfig(), log); err != nil {
		log.Warn("hand landmarker unavailable", zap.Error(err))
		det = detector.NewMockDetector()
		detErr = err
	} else {
		det = mp
	}
	defer det.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hub := server.NewHub(log)
	sinks := presenter.Multi{hub, store.NewRecorder(st, log)}

	var t *tray.Tray
	if !headless {
		t = tray.New()
		sinks = append(sinks, t)
	}

	audioErr := errAudioDisabled
	if cfg.Audio.Enabled {
		var audio *presenter.AudioSink
		audio, audioErr = startAudio(ctx, cfg, configPath, log)
		if audio != nil {
			defer audio.Close()
			sinks = append(sinks, audio)
		}
	}

	a, err := app.New(app.Config{
		Recognition: recCfg,
		Gestures:    table,
		Camera: capture.NewCamera(capture.Options{
			DeviceID: cfg.Camera.DeviceID,
			FPS:      cfg.Camera.FPS,
			Width:    cfg.Camera.Width,
			Height:   cfg.Camera.Height,
			Mirror:   cfg.Camera.Mirror,
		}),
		Detector:      det,
		Classifier:    clf,
		Sink:          sinks,
		Store:         st,
		Preview:       capture.NewPreview(),
		DetectorErr:   detErr,
		ClassifierErr: clfErr,
		AudioErr:      audioErr,
		OnStatus: func(s api.Status) {
			hub.PublishStatus(s)
			if t != nil {
				t.SetActive(s.SessionActive)
			}
		},
		Log: log,
	})
	if err != nil {
		return err
	}

	appDone := make(chan struct{})
	go func() {
		a.Run(ctx)
		close(appDone)
	}()

	srv := server.New(server.Config{
		StaticDir: findWebDir(cfg.Server.StaticDir),
		Store:     st,
		Gestures:  table,
		Sessions:  a,
		Status:    a,
		Preview:   a.Preview(),
		Hub:       hub,
		Log:       log,
	})
	srvErr := make(chan error, 1)
	go func() {
		srvErr <- srv.ListenAndServe(ctx, cfg.Server.Addr)
		stop()
	}()

	if autostart {
		if _, err := a.StartSession(ctx); err != nil {
			log.Warn("failed to start session", zap.Error(err))
		}
	}

	if t != nil {
		t.OnToggle(func(active bool) error {
			if active {
				_, err := a.StartSession(ctx)
				return err
			}
			_, err := a.StopSession(ctx)
			return err
		})
		t.OnOpen(func() { openBrowser(viewerURL(cfg.Server.Addr), log) })
		t.OnQuit(stop)
		go func() {
			<-ctx.Done()
			t.Quit()
		}()
		t.Run()
		stop()
	} else {
		<-ctx.Done()
	}

	<-appDone
	return <-srvErr
}

func startAudio(ctx context.Context, cfg config.Config, configPath string, log *zap.Logger) (*presenter.AudioSink, error) {
	mgr := plugin.NewManager(cfg.Audio.PluginDir, log)
	if err := mgr.Discover(); err != nil {
		log.Warn("plugin discovery failed", zap.String("dir", cfg.Audio.PluginDir), zap.Error(err))
		return nil, err
	}
	if _, err := mgr.Get(cfg.Audio.Plugin); err != nil {
		log.Warn("audio plugin not found", zap.String("plugin", cfg.Audio.Plugin), zap.Error(err))
		return nil, err
	}

	// Cue paths in the config are relative to the config file.
	cueDir := ""
	if configPath != "" {
		cueDir = filepath.Dir(configPath)
	}

	audio := presenter.NewAudioSink(mgr, plugin.NewExecutor(cfg.AudioTimeout()), cfg.Audio.Plugin, cueDir, log)
	audio.Start(ctx)
	return audio, nil
}

// findWebDir returns the first existing directory among dir, "web",
// "../web" and ~/.lse-traductor/web, or "" if none exists.
func findWebDir(dir string) string {
	candidates := []string{dir, "web", filepath.Join("..", "web")}
	if home, err := os.UserHomeDir(); err == nil {
		candidates = append(candidates, filepath.Join(home, ".lse-traductor", "web"))
	}

	for _, p := range candidates {
		if p == "" {
			continue
		}
		if info, err := os.Stat(p); err == nil && info.IsDir() {
			if abs, err := filepath.Abs(p); err == nil {
				return abs
			}
			return p
		}
	}
	return ""
}

func viewerURL(addr string) string {
	if strings.HasPrefix(addr, ":") {
		addr = "localhost" + addr
	}
	return "http://" + addr + "/"
}

func openBrowser(url string, log *zap.Logger) {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		cmd = exec.Command("xdg-open", url)
	}
	if err := cmd.Start(); err != nil {
		log.Warn("failed to open browser", zap.String("url", url), zap.Error(err))
		return
	}
	go cmd.Wait()
}
