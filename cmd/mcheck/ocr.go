//go:build !notesseract

package main

import (
	"github.com/John-Robertt/mcheck/internal/capture"
	"github.com/John-Robertt/mcheck/internal/capture/tesseract"
	"github.com/John-Robertt/mcheck/internal/config"
)

func newRecognizer(o config.EffectiveOCR) (capture.Recognizer, error) {
	return tesseract.New(o.Languages, o.Tessdata)
}
