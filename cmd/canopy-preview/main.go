// Canopy-preview opens a layout file in a window for designers to try out
// window transitions.
//
// Number keys 1-9 show the windows in declaration order, Enter confirms the
// top window (submit sound, then close), Backspace closes it and Escape goes
// back.
//
// Usage:
//
//	canopy-preview --layout ui.yaml [flags]
package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/audio"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/phanxgames/canopy"
	"github.com/phanxgames/canopy/layout"
)

const sampleRate = 44100

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

var (
	layoutPath string
	logLevel   string
	width      int
	height     int
	title      string
	showFPS    bool
)

var rootCmd = &cobra.Command{
	Use:   "canopy-preview",
	Short: "Preview a canopy window layout",
	Long: `Open a canopy layout file in an Ebitengine window.

Windows are shown with the number keys in the order the layout declares them.
Enter confirms the top window with the submit sound and closes it, Backspace
closes it without the submit sound and Escape goes back.`,
	Example: `  # Preview a layout
  canopy-preview --layout ui.yaml

  # Watch transition decisions in the log
  canopy-preview --layout ui.yaml --log-level debug`,
	SilenceUsage: true,
	RunE:         runPreview,
}

func init() {
	rootCmd.Flags().StringVar(&layoutPath, "layout", "", "Path to the layout YAML file")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (debug, info, warn, error); empty is silent")
	rootCmd.Flags().IntVar(&width, "width", 0, "Window width (default: layout screen width or 640)")
	rootCmd.Flags().IntVar(&height, "height", 0, "Window height (default: layout screen height or 480)")
	rootCmd.Flags().StringVar(&title, "title", "canopy preview", "Window title")
	rootCmd.Flags().BoolVar(&showFPS, "fps", false, "Show FPS and TPS")
	_ = rootCmd.MarkFlagRequired("layout")
}

func runPreview(cmd *cobra.Command, args []string) error {
	logger, err := newLogger(logLevel)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	f, err := layout.Load(layoutPath)
	if err != nil {
		return err
	}
	if width <= 0 {
		width = orDefault(f.Screen.Width, 640)
	}
	if height <= 0 {
		height = orDefault(f.Screen.Height, 480)
	}
	if f.Screen.Width == 0 || f.Screen.Height == 0 {
		f.Screen = layout.Size{Width: width, Height: height}
	}

	cfg, err := f.Config(logger)
	if err != nil {
		return err
	}
	cfg.ControllerPresent = canopy.GamepadPresent

	cues, err := f.SoundCues(filepath.Dir(layoutPath))
	if err != nil {
		return err
	}
	if len(cues) > 0 {
		sounds := canopy.NewAudioCues(audio.NewContext(sampleRate), logger)
		for cue, path := range cues {
			if err := loadCue(sounds, cue, path); err != nil {
				return err
			}
		}
		cfg.Sounds = sounds
	}

	m, err := canopy.NewManager(cfg)
	if err != nil {
		return err
	}
	m.OnTopWindowChanged.Subscribe(func(w *canopy.Window) {
		if w != nil {
			logger.Info("top window", zap.String("window", w.ID()))
		}
	})

	ids := make([]string, 0, len(cfg.Windows))
	for _, w := range cfg.Windows {
		ids = append(ids, w.ID())
	}
	logger.Info("layout loaded",
		zap.String("path", layoutPath), zap.Int("windows", len(ids)), zap.Int("layers", len(m.Layers())))

	return canopy.Run(m, canopy.RunConfig{
		Title:      title,
		Width:      width,
		Height:     height,
		ClearColor: canopy.Color{R: 0.118, G: 0.118, B: 0.157, A: 1},
		ShowFPS:    showFPS,
		UpdateFunc: func() error {
			handleKeys(m, ids, logger)
			return nil
		},
	})
}

var numberKeys = []ebiten.Key{
	ebiten.Key1, ebiten.Key2, ebiten.Key3, ebiten.Key4, ebiten.Key5,
	ebiten.Key6, ebiten.Key7, ebiten.Key8, ebiten.Key9,
}

func handleKeys(m *canopy.Manager, ids []string, logger *zap.Logger) {
	for i, k := range numberKeys {
		if i >= len(ids) {
			break
		}
		if inpututil.IsKeyJustPressed(k) {
			if err := m.ShowWindow(ids[i]); err != nil {
				logger.Warn("show failed", zap.String("window", ids[i]), zap.Error(err))
			}
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyEnter) {
		if top := m.TopWindow(); top != nil {
			m.PlayCue(canopy.CueSubmit)
			if err := top.Close(); err != nil {
				logger.Warn("close failed", zap.String("window", top.ID()), zap.Error(err))
			}
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		if top := m.TopWindow(); top != nil {
			if err := top.Close(); err != nil {
				logger.Warn("close failed", zap.String("window", top.ID()), zap.Error(err))
			}
		}
	}
}

func loadCue(sounds *canopy.AudioCues, cue canopy.SoundCue, path string) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("sound %s: %w", cue, err)
	}
	defer file.Close()
	return sounds.LoadWAV(cue, file)
}

// newLogger builds a console logger for level. An empty level is silent.
func newLogger(level string) (*zap.Logger, error) {
	if level == "" {
		return zap.NewNop(), nil
	}
	var zapLevel zapcore.Level
	switch level {
	case "debug":
		zapLevel = zapcore.DebugLevel
	case "info":
		zapLevel = zapcore.InfoLevel
	case "warn":
		zapLevel = zapcore.WarnLevel
	case "error":
		zapLevel = zapcore.ErrorLevel
	default:
		return nil, fmt.Errorf("unknown log level %q", level)
	}

	config := zap.Config{
		Level:            zap.NewAtomicLevelAt(zapLevel),
		Encoding:         "console",
		EncoderConfig:    zap.NewDevelopmentEncoderConfig(),
		OutputPaths:      []string{"stdout"},
		ErrorOutputPaths: []string{"stderr"},
	}
	config.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	config.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	logger, err := config.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return logger, nil
}

func orDefault(v, def int) int {
	if v > 0 {
		return v
	}
	return def
}
