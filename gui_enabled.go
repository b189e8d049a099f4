//go:build gui

package main

import (
	"runtime"

	"rabble/config"
	"rabble/face"
	"rabble/gui"
	"rabble/log"
	"rabble/transcriber"
	"rabble/waveform"
	"rabble/words"
)

func initGUI() {
	guiMode = true

	// Fyne/GLFW needs the main thread.
	runtime.LockOSThread()
	run()
}

func runGUI(cfg *config.Config, f *face.Face, r *waveform.Renderer, feed *words.Feed, p *transcriber.Pipeline, viz <-chan []float64) error {
	app := gui.NewApp(cfg, f, r, feed, p, viz)
	// Transcription death is not fatal to the window; the face keeps
	// animating on raw amplitude.
	go func() {
		if err := <-p.Err(); err != nil {
			log.Errorf("%v", err)
		}
	}()
	return gui.Run(app)
}
