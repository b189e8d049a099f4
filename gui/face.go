//go:build gui

package gui

import (
	"image/color"
	"sync"
	"time"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/canvas"
	"fyne.io/fyne/v2/widget"

	"rabble/config"
	"rabble/face"
	"rabble/waveform"
	"rabble/words"
)

// maxWordObjects bounds the canvas.Text pool for the scrolling word line.
const maxWordObjects = 32

// FaceWidget animates the face at ~30 fps: eyes from the blink state,
// mouth from the waveform renderer, words from the display feed.
type FaceWidget struct {
	widget.BaseWidget
	mu sync.Mutex

	cfg      *config.Config
	face     *face.Face
	renderer *waveform.Renderer
	feed     *words.Feed
	viz      <-chan []float64

	frame  []float64
	start  time.Time
	stopCh chan struct{}
}

func NewFaceWidget(cfg *config.Config, f *face.Face, r *waveform.Renderer, feed *words.Feed, viz <-chan []float64) *FaceWidget {
	w := &FaceWidget{
		cfg:      cfg,
		face:     f,
		renderer: r,
		feed:     feed,
		viz:      viz,
		start:    time.Now(),
		stopCh:   make(chan struct{}),
	}
	w.ExtendBaseWidget(w)
	go w.animate()
	return w
}

func (w *FaceWidget) Stop() {
	select {
	case <-w.stopCh:
	default:
		close(w.stopCh)
	}
}

func (w *FaceWidget) nowMs() float64 {
	return float64(time.Since(w.start).Microseconds()) / 1000.0
}

func (w *FaceWidget) animate() {
	ticker := time.NewTicker(33 * time.Millisecond)
	defer ticker.Stop()
	for {
		select {
		case <-w.stopCh:
			return
		case <-ticker.C:
			w.mu.Lock()
		drain:
			for {
				select {
				case f := <-w.viz:
					w.frame = f
				default:
					break drain
				}
			}
			w.mu.Unlock()
			w.feed.Advance(w.nowMs())
			fyne.Do(func() {
				w.Refresh()
			})
		}
	}
}

func (w *FaceWidget) MinSize() fyne.Size {
	return fyne.NewSize(float32(w.cfg.Display.Width), float32(w.cfg.Display.Height))
}

func (w *FaceWidget) CreateRenderer() fyne.WidgetRenderer {
	r := &faceRenderer{w: w}

	eyeCol := rgba(w.cfg.Colors.EyeColor)
	r.leftEye = canvas.NewCircle(eyeCol)
	r.rightEye = canvas.NewCircle(eyeCol)

	mouthCol := rgba(w.cfg.Colors.WaveformColor)
	r.mouth = make([]*canvas.Line, w.renderer.Width()-1)
	for i := range r.mouth {
		l := canvas.NewLine(mouthCol)
		l.StrokeWidth = float32(w.cfg.Waveform.LineWidth)
		r.mouth[i] = l
	}

	textCol := rgba(w.cfg.Display.TextColor)
	r.words = make([]*canvas.Text, maxWordObjects)
	for i := range r.words {
		t := canvas.NewText("", textCol)
		t.Hide()
		r.words[i] = t
	}
	return r
}

type faceRenderer struct {
	w        *FaceWidget
	leftEye  *canvas.Circle
	rightEye *canvas.Circle
	mouth    []*canvas.Line
	words    []*canvas.Text
}

func (r *faceRenderer) Layout(fyne.Size) {}

func (r *faceRenderer) MinSize() fyne.Size {
	return r.w.MinSize()
}

func (r *faceRenderer) Refresh() {
	now := r.w.nowMs()
	st := r.w.face.State(now)

	cfg := r.w.cfg
	cx := float32(cfg.Display.Width) / 2
	cy := float32(cfg.Display.Height) / 2
	er := float32(cfg.Face.EyeRadius)
	ex := float32(cfg.Face.EyeOffsetX)
	ey := float32(cfg.Face.EyeOffsetY)

	placeEye(r.leftEye, cx-ex, cy-ey, er, st.LeftOpen, st.LeftEyelid)
	placeEye(r.rightEye, cx+ex, cy-ey, er, st.RightOpen, st.RightEyelid)
	r.leftEye.Refresh()
	r.rightEye.Refresh()

	r.w.mu.Lock()
	frame := r.w.frame
	r.w.mu.Unlock()
	pts := r.w.renderer.Points(frame, st.Profile, now)
	for i, l := range r.mouth {
		if i+1 < len(pts) {
			l.Position1 = fyne.NewPos(float32(pts[i].X), float32(pts[i].Y))
			l.Position2 = fyne.NewPos(float32(pts[i+1].X), float32(pts[i+1].Y))
			l.Show()
		} else {
			l.Hide()
		}
		l.Refresh()
	}

	wordY := cy + float32(cfg.Face.MouthYOffset) + float32(cfg.Transcription.DisplayTextYOffset)
	active := r.w.feed.Words()
	for i, t := range r.words {
		if i < len(active) {
			t.Text = active[i].Text
			t.Move(fyne.NewPos(float32(active[i].X), wordY))
			t.Show()
		} else {
			t.Hide()
		}
		t.Refresh()
	}
}

// placeEye sizes the eye ellipse by blink openness. A top eyelid squashes
// the ellipse downward from its upper edge, a bottom lid upward.
func placeEye(c *canvas.Circle, x, y, r float32, open float64, lid face.EyelidPosition) {
	h := 2 * r * float32(open)
	top := y - r
	if lid == face.EyelidTop {
		top = y + r - h
	}
	c.Move(fyne.NewPos(x-r, top))
	c.Resize(fyne.NewSize(2*r, h))
}

func (r *faceRenderer) Objects() []fyne.CanvasObject {
	objs := make([]fyne.CanvasObject, 0, 2+len(r.mouth)+len(r.words))
	objs = append(objs, r.leftEye, r.rightEye)
	for _, l := range r.mouth {
		objs = append(objs, l)
	}
	for _, t := range r.words {
		objs = append(objs, t)
	}
	return objs
}

func (r *faceRenderer) Destroy() {
	r.w.Stop()
}

func rgba(c config.RGB) color.Color {
	return color.RGBA{R: c[0], G: c[1], B: c[2], A: 255}
}
