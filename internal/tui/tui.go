// Package tui is a terminal front end for one factory session.
package tui

import (
	"context"
	"fmt"
	"strings"
	"time"

	"candyworks/internal/session"
	"candyworks/internal/tycoon"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const (
	maxLog      = 8
	frameRate   = 100 * time.Millisecond
	floorWidth  = 48
	floorHeight = 9
)

var (
	styleTitle  = tcell.StyleDefault.Foreground(tcell.ColorHotPink).Bold(true)
	styleLabel  = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleValue  = tcell.StyleDefault.Foreground(tcell.ColorWhite)
	styleBought = tcell.StyleDefault.Foreground(tcell.ColorGreen)
	styleNext   = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleLocked = tcell.StyleDefault.Foreground(tcell.ColorDarkGray)
	styleCandy  = tcell.StyleDefault.Foreground(tcell.ColorPink)
	styleStatus = tcell.StyleDefault.Foreground(tcell.ColorAqua)
)

// App owns the screen and translates keys into session commands.
type App struct {
	session *session.Session
	screen  tcell.Screen
	status  string
	log     []string
}

func New(s *session.Session, screen tcell.Screen) *App {
	return &App{session: s, screen: screen, status: "b buy next · c collect · r rebirth · q quit"}
}

// Run draws until the user quits or ctx ends. The caller owns screen.Fini.
func (a *App) Run(ctx context.Context) {
	events, unsubscribe := a.session.Subscribe(64)
	defer unsubscribe()

	input := make(chan tcell.Event, 16)
	go func() {
		for {
			ev := a.screen.PollEvent()
			if ev == nil {
				close(input)
				return
			}
			input <- ev
		}
	}()

	frame := time.NewTicker(frameRate)
	defer frame.Stop()
	a.Draw()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-input:
			if !ok {
				return
			}
			switch ev := ev.(type) {
			case *tcell.EventKey:
				if a.HandleKey(ev) {
					return
				}
			case *tcell.EventResize:
				a.screen.Sync()
			}
			a.Draw()
		case ev := <-events:
			a.Record(ev)
		case <-frame.C:
			a.Draw()
		}
	}
}

// HandleKey runs the command bound to ev and reports whether to quit.
func (a *App) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return true
	case tcell.KeyRune:
	default:
		return false
	}

	switch ev.Rune() {
	case 'q':
		return true
	case 'b':
		st := a.session.Snapshot()
		next, ok := st.NextOffer()
		if !ok {
			a.status = "every offer is bought"
			return false
		}
		switch a.session.Purchase(next.ID) {
		case tycoon.RefusalNone:
			a.status = "bought " + next.Name
		case tycoon.RefusalInsufficientFunds:
			a.status = fmt.Sprintf("%s costs %d, you have %d", next.Name, next.Cost, st.Money)
		default:
			a.status = "cannot buy " + next.Name
		}
	case 'c':
		if amount, ok := a.session.Collect(); ok {
			a.status = fmt.Sprintf("collected %d", amount)
		} else {
			a.status = "collector is cooling down"
		}
	case 'r':
		if a.session.Rebirth() {
			st := a.session.Snapshot()
			a.status = fmt.Sprintf("reborn, multiplier x%.1f", st.RebirthMultiplier)
		} else {
			a.status = "not enough money to rebirth"
		}
	}
	return false
}

// Record appends a notable event to the on-screen log.
func (a *App) Record(ev tycoon.Event) {
	if ev.Type == tycoon.EventIncome || ev.Type == tycoon.EventSale || ev.Type == tycoon.EventUpgrade {
		return
	}
	a.log = append(a.log, ev.Message)
	if len(a.log) > maxLog {
		a.log = a.log[len(a.log)-maxLog:]
	}
}

func (a *App) Draw() {
	st := a.session.Snapshot()
	a.screen.Clear()

	y := 0
	put(a.screen, 0, y, styleTitle, "CANDYWORKS · "+st.Layout)
	y += 2

	y = a.drawEconomy(st, y)
	y++
	a.drawFloor(st, 0, y)
	y += floorHeight + 1

	put(a.screen, 0, y, styleLabel, "offers")
	next, hasNext := st.NextOffer()
	for i, o := range st.Offers {
		style, mark := styleLocked, "  "
		switch {
		case o.Purchased:
			style, mark = styleBought, "✓ "
		case hasNext && o.ID == next.ID:
			style, mark = styleNext, "> "
		}
		put(a.screen, 0, y+1+i, style, fmt.Sprintf("%s%-20s %10d", mark, o.Name, o.Cost))
	}

	logX := floorWidth + 4
	put(a.screen, logX, 2, styleLabel, "events")
	for i, line := range a.log {
		put(a.screen, logX, 3+i, styleValue, line)
	}

	_, h := a.screen.Size()
	put(a.screen, 0, h-1, styleStatus, a.status)
	a.screen.Show()
}

func (a *App) drawEconomy(st *tycoon.State, y int) int {
	rows := [][2]string{
		{"money", fmt.Sprintf("%d", st.Money)},
		{"income", fmt.Sprintf("%d/s", st.MoneyPerSecond)},
		{"candies", fmt.Sprintf("%d", len(st.Candies))},
		{"rebirths", fmt.Sprintf("%d (x%.1f, next at %d)", st.Rebirths, st.RebirthMultiplier, st.RebirthCost)},
		{"sold", fmt.Sprintf("%d of %d made", st.Stats.CandiesSold, st.Stats.CandiesCreated)},
	}
	for _, r := range rows {
		put(a.screen, 0, y, styleLabel, r[0])
		put(a.screen, 10, y, styleValue, r[1])
		y++
	}
	return y
}

// drawFloor plots stations and candies on a fixed grid centred on the origin.
func (a *App) drawFloor(st *tycoon.State, x0, y0 int) {
	border := strings.Repeat("─", floorWidth)
	put(a.screen, x0, y0, styleLabel, border)
	put(a.screen, x0, y0+floorHeight-1, styleLabel, border)

	plot := func(p tycoon.Vec2, r rune, style tcell.Style) {
		x := x0 + floorWidth/2 + int(p.X*2)
		y := y0 + floorHeight/2 + int(p.Z)
		if x < x0 || x >= x0+floorWidth || y <= y0 || y >= y0+floorHeight-1 {
			return
		}
		a.screen.SetContent(x, y, r, nil, style)
	}

	for _, c := range st.Conveyors {
		if c.Unlocked {
			for _, w := range c.Waypoints {
				plot(w, '·', styleLabel)
			}
		}
	}
	for _, d := range st.Droppers {
		if d.Unlocked {
			plot(d.Position, 'D', styleValue)
		}
	}
	for _, u := range st.Upgraders {
		if u.Unlocked {
			plot(u.Position, 'U', styleNext)
		}
	}
	for _, f := range st.Fusers {
		if f.Unlocked {
			plot(f.Position, 'F', styleTitle)
		}
	}
	for _, s := range st.Sellers {
		if s.Unlocked {
			plot(s.Position, '$', styleBought)
		}
	}
	for _, c := range st.Candies {
		plot(c.Position, 'o', styleCandy)
	}
}

// put writes s at (x, y), advancing by each rune's display width.
func put(s tcell.Screen, x, y int, style tcell.Style, text string) {
	for _, r := range text {
		s.SetContent(x, y, r, nil, style)
		x += runewidth.RuneWidth(r)
	}
}
