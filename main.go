package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	_ "net/http/pprof"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"time"

	"rabble/audio"
	"rabble/config"
	"rabble/encoder"
	"rabble/face"
	"rabble/log"
	"rabble/shutdown"
	"rabble/transcriber"
	"rabble/waveform"
	"rabble/words"

	tea "github.com/charmbracelet/bubbletea"
)

var version = "dev"

// cellWidthPx approximates one rendered character in display pixel space,
// used to size scrolling words.
const cellWidthPx = 10

var (
	tuiProgram *tea.Program
	tuiMu      sync.Mutex
	guiMode    bool
)

var shutdownOnce sync.Once

type app struct {
	cfg      *config.Config
	capture  audio.CaptureDevice
	queue    *audio.Queue
	pipeline *transcriber.Pipeline
	archive  *encoder.Archive
	sess     *session
}

func (a *app) shutdown() {
	shutdownOnce.Do(func() {
		if a.capture != nil {
			a.capture.Stop()
		}
		if a.queue != nil {
			a.queue.Close()
		}
		if a.pipeline != nil {
			a.pipeline.Stop()
			select {
			case <-a.pipeline.Done():
			case <-time.After(5 * time.Second):
				log.Warn("transcription worker did not exit in time")
			}
		}
		if a.archive != nil {
			if err := a.archive.Close(); err != nil {
				log.Errorf("session archive: %v", err)
			} else {
				log.Info("session audio archived to " + a.archive.Path())
			}
		}
		log.SessionEnd(a.sess.count())
		log.Close()
	})
}

func deviceLineText(dev *audio.DeviceInfo) string {
	name := "system default"
	if dev != nil {
		name = dev.Name
		if audio.IsBluetooth(dev.Name) {
			name += " (BT!)"
		}
	}
	return name
}

func initialEmotion(cfg *config.Config) string {
	if _, ok := cfg.Emotions["IDLE"]; ok {
		return "IDLE"
	}
	return cfg.EmotionNames()[0]
}

func run() {
	configFlag := flag.String("config", "", "config directory containing .rabl files (default: ./config next to the binary)")
	logPathFlag := flag.String("logpath", "", "log directory path (default: OS-specific location, use ./ for current dir)")
	setupFlag := flag.Bool("setup", false, "Select microphone device (otherwise uses system default)")
	deviceFlag := flag.String("device", "", "Use named microphone device")
	listFlag := flag.Bool("list-devices", false, "List capture devices and exit")
	fakeFlag := flag.String("fake", "", "Replay a WAV file instead of the microphone ('tone' for a synthesized 440 Hz tone)")
	archiveFlag := flag.Bool("archive", false, "Record the session's transcription audio to a FLAC file in the log directory")
	versionFlag := flag.Bool("version", false, "Print version and exit")
	crashFlag := flag.Bool("crash", false, "Trigger synthetic panic for testing crash logging")
	profileFlag := flag.String("profile", "", "Enable pprof profiling server (e.g., :6060 or localhost:6060)")
	flag.Bool("gui", false, "Run the Fyne window instead of the terminal UI (needs a -tags gui build)")
	flag.Parse()

	// Resolve log directory early
	logPath, err := log.ResolveDir(*logPathFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: failed to resolve log directory: %v\n", err)
		os.Exit(1)
	}
	log.SetDir(logPath)
	if err := log.EnsureDir(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not create log directory: %v\n", err)
	}

	crashPath := filepath.Join(log.Dir(), "crash_log.txt")
	crashFile, err := os.OpenFile(crashPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err == nil {
		fmt.Fprintf(crashFile, "\n=== Session %s [pid=%d] ===\n", time.Now().Format("2006-01-02 15:04:05"), os.Getpid())
		debug.SetCrashOutput(crashFile, debug.CrashOptions{})
	}

	if *profileFlag != "" {
		go func() {
			fmt.Fprintf(os.Stderr, "pprof server listening on http://%s/debug/pprof/\n", *profileFlag)
			if err := http.ListenAndServe(*profileFlag, nil); err != nil {
				fmt.Fprintf(os.Stderr, "pprof server error: %v\n", err)
			}
		}()
	}

	if *crashFlag {
		panic("TEST CRASH: synthetic panic to verify crash logging")
	}

	if *versionFlag {
		fmt.Printf("rabble %s\n", version)
		os.Exit(0)
	}

	configDir, err := config.ResolveDir(*configFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving config directory: %v\n", err)
		os.Exit(1)
	}
	cfg, err := config.Load(configDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	if err := log.Init(); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: could not init logging: %v\n", err)
	}

	// Audio source: real microphone or canned replay.
	var audioCtx audio.Context
	switch {
	case *fakeFlag == "tone":
		audioCtx = audio.NewToneContext(440, 10, 0.5, cfg.Audio.SampleRate, true)
	case *fakeFlag != "":
		audioCtx, err = audio.NewFakeContext(*fakeFlag, true)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading WAV: %v\n", err)
			os.Exit(1)
		}
	default:
		audioCtx, err = audio.NewContext()
		if err != nil {
			log.Errorf("audio context init error: %v", err)
			fmt.Fprintf(os.Stderr, "Error initializing audio context: %v\n", err)
			os.Exit(1)
		}
	}
	defer audioCtx.Close()

	if *listFlag {
		devices, err := audioCtx.Devices()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error enumerating devices: %v\n", err)
			os.Exit(1)
		}
		for _, d := range devices {
			fmt.Println(d.Name)
		}
		os.Exit(0)
	}

	var selectedDevice *audio.DeviceInfo
	if *deviceFlag != "" {
		if devices, err := audioCtx.Devices(); err == nil {
			for i := range devices {
				if devices[i].Name == *deviceFlag {
					selectedDevice = &devices[i]
					break
				}
			}
		}
		if selectedDevice == nil {
			fmt.Fprintf(os.Stderr, "Warning: device %q not found, using default\n", *deviceFlag)
		}
	} else if *setupFlag {
		selectedDevice, err = audio.SelectDevice(audioCtx)
		if err != nil {
			log.Warnf("device selection failed: %v", err)
			fmt.Printf("Warning: device selection failed: %v\n", err)
			fmt.Println("Falling back to default device")
			selectedDevice = nil
		}
	}

	capture, err := audioCtx.NewCapture(selectedDevice, audio.CaptureConfig{
		SampleRate: uint32(cfg.Audio.SampleRate),
		Channels:   uint32(cfg.Audio.Channels),
		ChunkSize:  uint32(cfg.Audio.ChunkSize),
	})
	if err != nil {
		log.Errorf("capture device init error: %v", err)
		fmt.Fprintf(os.Stderr, "Error initializing capture device: %v\n", err)
		os.Exit(1)
	}
	defer capture.Close()

	backend, err := transcriber.New(cfg.Transcription)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tc := cfg.Transcription
	feed := words.New(float64(tc.WordDisplayIntervalMs), tc.ScrollSpeed, float64(cfg.Display.Width), cellWidthPx)
	sess := &session{}
	queue := audio.NewQueue()
	pipeline := transcriber.NewPipeline(backend, queue, tc, cfg.Audio.SampleRate, newSegmentSink(feed, sess))

	a := &app{cfg: cfg, capture: capture, queue: queue, pipeline: pipeline, sess: sess}
	defer a.shutdown()

	distributor := audio.NewDistributor(cfg.Audio.GainFactor, queue, pipeline.Ready())
	if *archiveFlag {
		arc, err := encoder.NewArchive(log.Dir(), log.SessionStamp(), cfg.Audio.SampleRate)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error creating session archive: %v\n", err)
			os.Exit(1)
		}
		a.archive = arc
		distributor.SetTap(arc.Write)
	}

	if err := pipeline.Start(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	capture.SetCallback(func(data []byte, frameCount uint32) {
		distributor.Distribute(data)
	})
	if err := capture.Start(); err != nil {
		log.Errorf("capture start error: %v", err)
		fmt.Fprintf(os.Stderr, "Error starting capture: %v\n", err)
		os.Exit(1)
	}

	log.SessionStart(backend.Name(), deviceLineText(selectedDevice), cfg.Audio.SampleRate)

	f, err := face.New(cfg.Emotions, initialEmotion(cfg))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	renderer := waveform.New(
		float64(cfg.Display.Width)/2,
		float64(cfg.Display.Height)/2+float64(cfg.Face.MouthYOffset),
		cfg.Face.MouthWidth,
		cfg.Face.MaxAmplitude,
		cfg.Waveform,
	)

	if guiMode {
		if err := runGUI(cfg, f, renderer, feed, pipeline, distributor.Viz()); err != nil {
			log.Errorf("GUI error: %v", err)
			fmt.Fprintf(os.Stderr, "GUI error: %v\n", err)
			os.Exit(1)
		}
		return
	}

	tuiMu.Lock()
	tuiProgram = NewTUIProgram(cfg, f, renderer, feed, pipeline, distributor.Viz(), sess, deviceLineText(selectedDevice))
	tuiMu.Unlock()

	sigCh := make(chan os.Signal, 1)
	shutdown.Notify(sigCh)
	go func() {
		<-sigCh
		tuiMu.Lock()
		p := tuiProgram
		tuiMu.Unlock()
		if p != nil {
			p.Quit()
		}
	}()

	// Surface a model load failure in the UI instead of spinning forever on
	// "loading model".
	go func() {
		if err, ok := <-pipeline.Err(); ok && err != nil {
			log.Errorf("%v", err)
			tuiMu.Lock()
			p := tuiProgram
			tuiMu.Unlock()
			if p != nil {
				p.Send(fatalMsg{err: err})
			}
		}
	}()

	if _, err := tuiProgram.Run(); err != nil {
		log.Errorf("TUI error: %v", err)
		fmt.Fprintf(os.Stderr, "TUI error: %v\n", err)
		os.Exit(1)
	}
}
