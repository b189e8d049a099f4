//go:build !gui

package main

import (
	"rabble/config"
	"rabble/face"
	"rabble/transcriber"
	"rabble/waveform"
	"rabble/words"
)

func initGUI() {
	panic("rabble: built without GUI support (rebuild with -tags gui)")
}

// Never reached: guiMode stays false without the gui tag.
func runGUI(*config.Config, *face.Face, *waveform.Renderer, *words.Feed, *transcriber.Pipeline, <-chan []float64) error {
	panic("rabble: built without GUI support")
}
