package main

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/atotto/clipboard"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"rabble/config"
	"rabble/face"
	"rabble/log"
	"rabble/transcriber"
	"rabble/waveform"
	"rabble/words"
)

type tickMsg time.Time
type fatalMsg struct{ err error }

// Pixel classes for the half-block canvas.
const (
	pxEmpty = iota
	pxEye
	pxMouth
)

type tuiModel struct {
	cfg      *config.Config
	face     *face.Face
	renderer *waveform.Renderer
	feed     *words.Feed
	pipeline *transcriber.Pipeline // nil when transcription is disabled
	viz      <-chan []float64
	sess     *session
	device   string

	start      time.Time
	frame      []float64 // last visualization window, kept across empty polls
	width      int
	height     int
	emotions   []string
	emotionIdx int

	inputMode bool
	inputBuf  string
	copiedAt  time.Time
	fatal     error

	// Pre-computed styles: plain foreground per pixel class, plus
	// foreground-over-background pairs for split half-block cells.
	fgStyles [3]lipgloss.Style
	bgStyles [3][3]lipgloss.Style
	text     lipgloss.Style
	status   lipgloss.Style
	dim      lipgloss.Style
}

func rgbColor(c config.RGB) lipgloss.Color {
	return lipgloss.Color(fmt.Sprintf("#%02X%02X%02X", c[0], c[1], c[2]))
}

func newTUIModel(cfg *config.Config, f *face.Face, r *waveform.Renderer, feed *words.Feed, p *transcriber.Pipeline, viz <-chan []float64, sess *session, device string) tuiModel {
	m := tuiModel{
		cfg:      cfg,
		face:     f,
		renderer: r,
		feed:     feed,
		pipeline: p,
		viz:      viz,
		sess:     sess,
		device:   device,
		start:    time.Now(),
		emotions: cfg.EmotionNames(),
	}
	for i, name := range m.emotions {
		if name == f.Emotion() {
			m.emotionIdx = i
		}
	}

	eyeCol := rgbColor(cfg.Colors.EyeColor)
	mouthCol := rgbColor(cfg.Colors.WaveformColor)
	colors := [3]lipgloss.Color{"", eyeCol, mouthCol}
	for i := 1; i < 3; i++ {
		m.fgStyles[i] = lipgloss.NewStyle().Foreground(colors[i])
		for j := 1; j < 3; j++ {
			m.bgStyles[i][j] = lipgloss.NewStyle().Foreground(colors[i]).Background(colors[j])
		}
	}
	m.text = lipgloss.NewStyle().Foreground(rgbColor(cfg.Display.TextColor))
	m.status = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	m.dim = lipgloss.NewStyle().Foreground(lipgloss.Color("239"))
	return m
}

// NewTUIProgram wires the face, waveform and word feed into a Bubble Tea
// program. The render loop polls the visualization channel without blocking,
// so animation stays smooth through transcription latency spikes.
func NewTUIProgram(cfg *config.Config, f *face.Face, r *waveform.Renderer, feed *words.Feed, p *transcriber.Pipeline, viz <-chan []float64, sess *session, device string) *tea.Program {
	m := newTUIModel(cfg, f, r, feed, p, viz, sess, device)
	return tea.NewProgram(m, tea.WithAltScreen())
}

// 33 ms tick, roughly 30 fps.
func tuiTick() tea.Cmd {
	return tea.Tick(33*time.Millisecond, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m tuiModel) Init() tea.Cmd {
	return tuiTick()
}

func (m tuiModel) nowMs() float64 {
	return float64(time.Since(m.start).Microseconds()) / 1000.0
}

func (m tuiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

	case tickMsg:
		// Keep only the freshest frame; hold the previous one when the
		// channel is empty.
	drain:
		for {
			select {
			case f := <-m.viz:
				m.frame = f
			default:
				break drain
			}
		}
		m.feed.Advance(m.nowMs())
		return m, tuiTick()

	case fatalMsg:
		// Transcription is dead, but the face keeps animating on raw
		// amplitude alone.
		m.fatal = msg.err

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m tuiModel) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if m.inputMode {
		switch msg.Type {
		case tea.KeyEsc:
			m.inputMode = false
			m.inputBuf = ""
		case tea.KeyEnter:
			if m.inputBuf != "" {
				m.feed.Add(m.inputBuf)
				m.inputBuf = ""
			}
		case tea.KeyBackspace:
			if len(m.inputBuf) > 0 {
				rs := []rune(m.inputBuf)
				m.inputBuf = string(rs[:len(rs)-1])
			}
		case tea.KeyCtrlC:
			return m, tea.Quit
		case tea.KeySpace:
			m.inputBuf += " "
		case tea.KeyRunes:
			m.inputBuf += string(msg.Runes)
		}
		return m, nil
	}

	switch msg.String() {
	case "ctrl+c", "q":
		return m, tea.Quit
	case "m":
		m.emotionIdx = (m.emotionIdx + 1) % len(m.emotions)
		if err := m.face.SetEmotion(m.emotions[m.emotionIdx]); err != nil {
			log.Warnf("emotion change: %v", err)
		}
	case "t":
		m.face.ToggleEyelids()
	case "p":
		if m.pipeline != nil {
			m.pipeline.TogglePause()
		}
	case "i":
		m.inputMode = true
	case "c":
		if text := m.sess.transcript(); text != "" {
			if err := clipboard.WriteAll(text); err != nil {
				log.Warnf("clipboard: %v", err)
			} else {
				m.copiedAt = time.Now()
			}
		}
	}
	return m, nil
}

func (m tuiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	canvasRows := m.height - 4 // status, words, input/help, spare
	if canvasRows < 6 {
		canvasRows = 6
	}
	canvas := m.renderFace(m.width, canvasRows)

	var b strings.Builder
	b.WriteString(m.statusLine())
	b.WriteString("\n")
	b.WriteString(canvas)
	b.WriteString(m.wordLine())
	b.WriteString("\n")
	if m.inputMode {
		b.WriteString(m.text.Render("> " + m.inputBuf + "_"))
	} else {
		b.WriteString(m.helpLine())
	}
	return b.String()
}

func (m tuiModel) statusLine() string {
	state := "viz only"
	if m.fatal != nil {
		state = "transcription dead: " + m.fatal.Error()
	} else if m.pipeline != nil {
		state = m.pipeline.State().String()
	}
	line := fmt.Sprintf("[%s] %s | mic: %s | words: %d",
		m.face.Emotion(), state, m.device, m.feed.Total())
	if !m.copiedAt.IsZero() && time.Since(m.copiedAt) < 2*time.Second {
		line += " [copied]"
	}
	return m.status.Render(line)
}

func (m tuiModel) helpLine() string {
	return m.dim.Render("m emotion  t eyelids  p pause  i type  c copy  q quit")
}

// wordLine places the active words at their scaled x positions on one row.
func (m tuiModel) wordLine() string {
	row := make([]rune, m.width)
	for i := range row {
		row[i] = ' '
	}
	scale := float64(m.width) / float64(m.cfg.Display.Width)
	for _, w := range m.feed.Words() {
		col := int(math.Round(w.X * scale))
		for i, r := range []rune(w.Text) {
			at := col + i
			if at >= 0 && at < m.width {
				row[at] = r
			}
		}
	}
	return m.text.Render(strings.TrimRight(string(row), " "))
}

// renderFace rasterizes eyes and mouth into a half-block cell grid. Each
// terminal cell is one pixel wide and two pixels tall.
func (m tuiModel) renderFace(cols, rows int) string {
	pixW, pixH := cols, rows*2
	pixels := make([][]int, pixH)
	for i := range pixels {
		pixels[i] = make([]int, pixW)
	}

	sx := float64(pixW) / float64(m.cfg.Display.Width)
	sy := float64(pixH) / float64(m.cfg.Display.Height)
	now := m.nowMs()
	st := m.face.State(now)

	m.drawEyes(pixels, st, sx, sy)
	m.drawMouth(pixels, st, now, sx, sy)

	var b strings.Builder
	for cy := 0; cy < rows; cy++ {
		for cx := 0; cx < cols; cx++ {
			top := pixels[cy*2][cx]
			bot := pixels[cy*2+1][cx]
			switch {
			case top == pxEmpty && bot == pxEmpty:
				b.WriteString(" ")
			case top == bot:
				b.WriteString(m.fgStyles[top].Render("█"))
			case bot == pxEmpty:
				b.WriteString(m.fgStyles[top].Render("▀"))
			case top == pxEmpty:
				b.WriteString(m.fgStyles[bot].Render("▄"))
			default:
				b.WriteString(m.bgStyles[top][bot].Render("▀"))
			}
		}
		b.WriteString("\n")
	}
	return b.String()
}

// drawEyes fills two ellipses, clipped by each eye's blink openness. A top
// eyelid hides pixels from the top edge down, a bottom lid from the bottom
// up.
func (m *tuiModel) drawEyes(pixels [][]int, st face.State, sx, sy float64) {
	fc := m.cfg.Face
	cx := float64(m.cfg.Display.Width) / 2
	cy := float64(m.cfg.Display.Height) / 2
	r := float64(fc.EyeRadius)

	type eyeSpec struct {
		x, y float64
		open float64
		lid  face.EyelidPosition
	}
	eyes := []eyeSpec{
		{cx - float64(fc.EyeOffsetX), cy - float64(fc.EyeOffsetY), st.LeftOpen, st.LeftEyelid},
		{cx + float64(fc.EyeOffsetX), cy - float64(fc.EyeOffsetY), st.RightOpen, st.RightEyelid},
	}

	for _, e := range eyes {
		rx, ry := r*sx, r*sy
		ex, ey := e.x*sx, e.y*sy
		// Visible vertical band after the eyelid cut.
		minY, maxY := ey-ry, ey+ry
		covered := 2 * ry * (1 - e.open)
		if e.lid == face.EyelidTop {
			minY += covered
		} else {
			maxY -= covered
		}
		for py := int(ey - ry); py <= int(ey+ry); py++ {
			if float64(py) < minY || float64(py) > maxY {
				continue
			}
			for px := int(ex - rx); px <= int(ex+rx); px++ {
				dx := (float64(px) - ex) / rx
				dy := (float64(py) - ey) / ry
				if dx*dx+dy*dy <= 1 {
					setPixel(pixels, px, py, pxEye)
				}
			}
		}
	}
}

// drawMouth rasterizes the waveform points, connecting consecutive points
// vertically so the line stays unbroken at steep slopes.
func (m *tuiModel) drawMouth(pixels [][]int, st face.State, now float64, sx, sy float64) {
	pts := m.renderer.Points(m.frame, st.Profile, now)
	if len(pts) == 0 {
		return
	}

	thickness := int(math.Round(float64(m.cfg.Waveform.LineWidth) * sy / 2))
	if thickness < 1 {
		thickness = 1
	}

	prevY := int(pts[0].Y * sy)
	for _, p := range pts {
		px := int(p.X * sx)
		py := int(p.Y * sy)
		lo, hi := min(py, prevY), max(py, prevY)
		for y := lo; y <= hi; y++ {
			for t := 0; t < thickness; t++ {
				setPixel(pixels, px, y+t, pxMouth)
			}
		}
		prevY = py
	}
}

func setPixel(pixels [][]int, x, y, class int) {
	if y >= 0 && y < len(pixels) && x >= 0 && x < len(pixels[y]) {
		pixels[y][x] = class
	}
}
