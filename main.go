// Command ocho runs CHIP-8 programs.
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/retroenv/retrogolib/log"

	"github.com/nf/ocho/chip8"
	"github.com/nf/ocho/vip"
)

func main() {
	def := vip.DefaultConfig()
	var (
		termFlag   = flag.Bool("term", false, "run in the terminal instead of a window")
		devFlag    = flag.Bool("dev", false, "enable developer mode (reload the ROM when the file changes)")
		cyclesFlag = flag.Int("cycles", def.CyclesPerFrame, "instructions executed per `frame`")
		scaleFlag  = flag.Int("scale", def.Scale, "window `pixels` per CHIP-8 pixel")
		fgFlag     = flag.String("fg", "#006994", "foreground `colour`, #rrggbb or a name")
		bgFlag     = flag.String("bg", "#f4e8d1", "background `colour`, #rrggbb or a name")
		pcmFlag    = flag.String("pcm", "", "stream buzzer audio to `file` as 44.1kHz signed 16-bit mono PCM")
		debugFlag  = flag.Bool("debug", false, "enable debug logging")
		quietFlag  = flag.Bool("q", false, "only log errors")

		cpuProfileFlag = flag.String("cpu_profile", "", "write CPU profile to `file`")
	)

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s [flags] <program.ch8>\n", os.Args[0])
		flag.PrintDefaults()
		os.Exit(2)
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
	}

	logger := createLogger(*debugFlag, *quietFlag, os.Stdout)

	cfg := def
	cfg.CyclesPerFrame = *cyclesFlag
	cfg.Scale = *scaleFlag
	cfg.Dev = *devFlag
	pal, err := parsePalette(*fgFlag, *bgFlag)
	if err != nil {
		logger.Error("Invalid palette", err)
		os.Exit(1)
	}
	cfg.Palette = pal

	var cpuProfile io.Closer
	if prof := *cpuProfileFlag; prof != "" {
		f, err := os.Create(prof)
		if err != nil {
			logger.Error("Creating CPU profile file failed", err)
			os.Exit(1)
		}
		if err := pprof.StartCPUProfile(f); err != nil {
			logger.Error("Starting CPU profile failed", err)
			os.Exit(1)
		}
		cpuProfile = f
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err = run(ctx, options{
		romFile: flag.Arg(0),
		cfg:     cfg,
		term:    *termFlag,
		pcmFile: *pcmFlag,
		debug:   *debugFlag,
		quiet:   *quietFlag,
	})
	stop()

	if f := cpuProfile; f != nil {
		pprof.StopCPUProfile()
		f.Close()
	}

	if err != nil {
		logger.Error("Running ROM failed", err)
		os.Exit(1)
	}
}

// createLogger creates a logger writing to out, at debug level if debug
// is set, or logging only errors if quiet is set.
func createLogger(debug, quiet bool, out io.Writer) *log.Logger {
	cfg := log.DefaultConfig()
	cfg.Output = out
	if debug {
		cfg.Level = log.DebugLevel
	} else if quiet {
		cfg.Level = log.ErrorLevel
	}
	return log.NewWithConfig(cfg)
}

func parsePalette(fg, bg string) (vip.Palette, error) {
	var (
		p   vip.Palette
		err error
	)
	if p.FG, err = vip.ParseColor(fg); err != nil {
		return p, fmt.Errorf("foreground: %w", err)
	}
	if p.BG, err = vip.ParseColor(bg); err != nil {
		return p, fmt.Errorf("background: %w", err)
	}
	return p, nil
}

type options struct {
	romFile string
	cfg     vip.Config
	term    bool
	pcmFile string
	debug   bool
	quiet   bool
}

type frontend interface {
	Run(ctx context.Context) error
}

func run(ctx context.Context, opts options) error {
	rom, err := readROM(opts.romFile)
	if err != nil {
		return err
	}

	var watcher *romWatcher
	if opts.cfg.Dev {
		if watcher, err = watchROM(opts.romFile); err != nil {
			return err
		}
		defer watcher.Close()
	}

	var (
		keys = &vip.Keypad{}
		beep = &vip.Beeper{}
		scr  = vip.NewScreen()
	)

	// The terminal UI owns the tty, so logs go to its log pane.
	var (
		fe     frontend
		term   *vip.Term
		logOut io.Writer = os.Stdout
	)
	if opts.term {
		term = vip.NewTerm(scr, keys, beep, opts.cfg, opts.romFile)
		logOut = term.LogWriter()
		fe = term
	}
	logger := createLogger(opts.debug, opts.quiet, logOut)
	if fe == nil {
		fe = vip.NewGUI(scr, keys, opts.cfg, logger)
	}

	m := chip8.NewMachine()
	m.Logger = logger
	if err := m.Load(rom); err != nil {
		return err
	}
	logger.Info("Loaded ROM",
		log.String("file", opts.romFile),
		log.Int("size", len(rom)))

	r := vip.NewRunner(m, opts.cfg, keys, beep, logger)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	runErr := make(chan error, 1)
	go func() {
		runErr <- r.Run(ctx, scr)
		cancel()
	}()

	if watcher != nil {
		go watcher.Run(ctx, r, logger)
	}

	if opts.pcmFile != "" {
		f, err := os.Create(opts.pcmFile)
		if err != nil {
			return err
		}
		defer f.Close()
		go func() {
			if err := beep.Stream(ctx, f, opts.cfg.FrameRate); err != nil {
				logger.Error("Audio output failed", err)
			}
		}()
	}

	// The terminal rings its bell instead.
	if term == nil {
		go func() {
			if err := beep.Play(ctx); err != nil {
				logger.Warn("Audio device unavailable", log.Err(err))
			}
		}()
	}

	feErr := fe.Run(ctx)
	cancel()

	if err := <-runErr; err != nil {
		return err
	}
	return feErr
}

// readROM reads a ROM image from file.
func readROM(file string) ([]byte, error) {
	f, err := os.Open(file)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	rom, err := chip8.ReadROM(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return rom, nil
}
