package main

import (
	"fmt"
	"math"

	"github.com/akmonengine/planar/snapshot"
	"github.com/gdamore/tcell/v2"
	"github.com/go-gl/mathgl/mgl64"
)

var (
	styleFixed     = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleKinematic = tcell.StyleDefault.Foreground(tcell.ColorBlue)
	styleAwake     = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleAsleep    = tcell.StyleDefault.Foreground(tcell.NewRGBColor(0, 110, 0))
	styleTrigger   = tcell.StyleDefault.Foreground(tcell.ColorYellow)
	styleContact   = tcell.StyleDefault.Foreground(tcell.ColorRed).Bold(true)
	styleStatus    = tcell.StyleDefault.Foreground(tcell.ColorWhite).Reverse(true)
)

// view draws snapshots as polygon outlines. Terminal cells are about twice as
// tall as they are wide, so x is stretched by two.
type view struct {
	screen tcell.Screen
	events chan tcell.Event
}

func newView() (*view, error) {
	screen, err := tcell.NewScreen()
	if err != nil {
		return nil, err
	}
	if err := screen.Init(); err != nil {
		return nil, err
	}
	screen.HideCursor()

	v := &view{screen: screen, events: make(chan tcell.Event, 100)}
	go func() {
		for {
			ev := screen.PollEvent()
			if ev == nil {
				return
			}
			v.events <- ev
		}
	}()
	return v, nil
}

func (v *view) close() {
	v.screen.Fini()
}

// quit drains pending input and reports whether the user asked to leave.
func (v *view) quit() bool {
	for {
		select {
		case ev := <-v.events:
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if ev.Key() == tcell.KeyEscape || ev.Key() == tcell.KeyCtrlC ||
					(ev.Key() == tcell.KeyRune && ev.Rune() == 'q') {
					return true
				}
			case *tcell.EventResize:
				v.screen.Sync()
			}
		default:
			return false
		}
	}
}

type projection struct {
	origin mgl64.Vec2
	scale  float64
}

func (p projection) cell(point mgl64.Vec2) (int, int) {
	d := point.Sub(p.origin)
	return int(math.Round(d.X() * p.scale * 2)), int(math.Round(d.Y() * p.scale))
}

// fit frames every geom in a width x height area.
func fit(snap snapshot.Snapshot, width, height int) projection {
	if len(snap.Geoms) == 0 || width < 2 || height < 2 {
		return projection{scale: 1}
	}

	lo, hi := snap.Geoms[0].Min, snap.Geoms[0].Max
	for _, g := range snap.Geoms[1:] {
		lo = mgl64.Vec2{math.Min(lo.X(), g.Min.X()), math.Min(lo.Y(), g.Min.Y())}
		hi = mgl64.Vec2{math.Max(hi.X(), g.Max.X()), math.Max(hi.Y(), g.Max.Y())}
	}
	size := hi.Sub(lo)
	scale := math.Min(float64(width-1)/(2*math.Max(size.X(), 1e-3)), float64(height-1)/math.Max(size.Y(), 1e-3))
	return projection{origin: lo, scale: scale}
}

func geomStyle(g snapshot.Geom) tcell.Style {
	switch {
	case g.Trigger:
		return styleTrigger
	case g.BodyType == "dynamic" && g.Awake:
		return styleAwake
	case g.BodyType == "dynamic":
		return styleAsleep
	case g.BodyType == "kinematic":
		return styleKinematic
	}
	return styleFixed
}

func (v *view) draw(snap snapshot.Snapshot) {
	v.screen.Clear()
	width, height := v.screen.Size()
	p := fit(snap, width, height-1)

	for _, g := range snap.Geoms {
		style := geomStyle(g)
		for i, a := range g.Polygon {
			b := g.Polygon[(i+1)%len(g.Polygon)]
			ax, ay := p.cell(a)
			bx, by := p.cell(b)
			v.line(ax, ay, bx, by, '·', style)
		}
		for _, point := range g.Polygon {
			x, y := p.cell(point)
			v.screen.SetContent(x, y, '+', nil, style)
		}
	}
	for _, c := range snap.Contacts {
		for _, point := range c.Points {
			x, y := p.cell(point)
			v.screen.SetContent(x, y, 'x', nil, styleContact)
		}
	}

	status := fmt.Sprintf(" step %d  t=%.2fs  contacts %d  digest %016x  [Esc] quit ",
		snap.Step, snap.Time, len(snap.Contacts), snap.Digest())
	for i, r := range status {
		if i >= width {
			break
		}
		v.screen.SetContent(i, height-1, r, nil, styleStatus)
	}
	v.screen.Show()
}

// line plots a segment with Bresenham's algorithm.
func (v *view) line(x0, y0, x1, y1 int, r rune, style tcell.Style) {
	dx, dy := abs(x1-x0), -abs(y1-y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		v.screen.SetContent(x0, y0, r, nil, style)
		if x0 == x1 && y0 == y1 {
			return
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
