//go:build gui

// Package gui is the optional Fyne window rendering the same face the
// terminal UI draws, at full pixel resolution. Built with -tags gui.
package gui

import (
	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/app"

	"rabble/config"
	"rabble/face"
	"rabble/transcriber"
	"rabble/waveform"
	"rabble/words"
)

type App struct {
	fyneApp fyne.App
	window  fyne.Window
	widget  *FaceWidget

	cfg      *config.Config
	face     *face.Face
	pipeline *transcriber.Pipeline

	emotions   []string
	emotionIdx int
}

func NewApp(cfg *config.Config, f *face.Face, r *waveform.Renderer, feed *words.Feed, p *transcriber.Pipeline, viz <-chan []float64) *App {
	a := &App{
		cfg:      cfg,
		face:     f,
		pipeline: p,
		emotions: cfg.EmotionNames(),
	}
	for i, name := range a.emotions {
		if name == f.Emotion() {
			a.emotionIdx = i
		}
	}
	a.widget = NewFaceWidget(cfg, f, r, feed, viz)
	return a
}

// Run blocks in the Fyne main loop; call it from the main thread.
func Run(a *App) error {
	a.fyneApp = app.NewWithID("io.rabble.gui")
	a.fyneApp.Settings().SetTheme(&darkTheme{bg: a.cfg.Display.BackgroundColor})

	a.window = a.fyneApp.NewWindow("rabble")
	a.window.SetContent(a.widget)
	a.window.Resize(fyne.NewSize(float32(a.cfg.Display.Width), float32(a.cfg.Display.Height)))
	a.window.SetFixedSize(true)

	a.window.Canvas().SetOnTypedRune(func(r rune) {
		switch r {
		case 'm':
			a.emotionIdx = (a.emotionIdx + 1) % len(a.emotions)
			a.face.SetEmotion(a.emotions[a.emotionIdx])
		case 't':
			a.face.ToggleEyelids()
		case 'p':
			if a.pipeline != nil {
				a.pipeline.TogglePause()
			}
		case 'q':
			a.fyneApp.Quit()
		}
	})

	a.window.Show()
	a.fyneApp.Run()
	a.widget.Stop()
	return nil
}

func (a *App) Quit() {
	if a.fyneApp != nil {
		a.fyneApp.Quit()
	}
}
