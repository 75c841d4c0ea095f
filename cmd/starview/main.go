package main

import (
	"context"
	"fmt"
	"log"
	"math"
	"os"
	"sync"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/spacehole-rogue/starview/internal/camera"
	"github.com/spacehole-rogue/starview/internal/config"
	"github.com/spacehole-rogue/starview/internal/coordinator"
	"github.com/spacehole-rogue/starview/internal/dataservice"
	"github.com/spacehole-rogue/starview/internal/hud"
	"github.com/spacehole-rogue/starview/internal/levels"
	"github.com/spacehole-rogue/starview/internal/logging"
	"github.com/spacehole-rogue/starview/internal/overlay"
	"github.com/spacehole-rogue/starview/internal/palette"
	"github.com/spacehole-rogue/starview/internal/render"
	"github.com/spacehole-rogue/starview/internal/scene"
	"github.com/spacehole-rogue/starview/internal/world"
)

const (
	lineHeight = render.GlyphHeight + 2
	commsMax   = 6 // max visible messages
	dragSlop   = 4 // pixels before a press becomes a drag
	wheelStep  = 1.1
	helpText   = "Click: enter  Drag: pan  Wheel: zoom  Bksp: up  1-4: level  Z: reset  O: owner filter  F5: new backend  ESC: quit"
)

var levelKeys = map[ebiten.Key]world.ViewLevel{
	ebiten.KeyDigit1: world.LevelUniverse,
	ebiten.KeyDigit2: world.LevelGalaxy,
	ebiten.KeyDigit3: world.LevelRegion,
	ebiten.KeyDigit4: world.LevelSystem,
}

// Game is the Ebitengine game struct. It owns the backend, input and the
// status lines; everything shown on the map lives behind the coordinator.
type Game struct {
	cfg    *config.Config
	log    logging.Log
	server string
	atlas  *render.Atlas

	backend *render.Backend
	handle  *scene.Handle
	camera  *camera.Camera
	coord   *coordinator.Coordinator
	comms   *hud.Log

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	width, height int
	pressX        int
	pressY        int
	lastX, lastY  int
	dragging      bool
	ownerFilter   bool

	mu      sync.Mutex
	hovered string
}

func NewGame(cfg *config.Config, logger logging.Log) (*Game, error) {
	svc, server, err := newService(cfg.Data, logger)
	if err != nil {
		return nil, err
	}

	g := &Game{
		cfg:         cfg,
		log:         logger.With(logging.Component("host")),
		server:      server,
		atlas:       render.NewAtlas(),
		comms:       hud.NewLog(commsMax, 90),
		width:       cfg.Window.Width,
		height:      cfg.Window.Height,
		ownerFilter: cfg.Player.OwnerFilter != "",
	}
	g.ctx, g.cancel = context.WithCancel(context.Background())
	g.backend = g.newBackend()
	g.handle = scene.NewHandle(g.backend)

	w, h := float64(g.width), float64(g.height)
	g.camera = camera.New(g.handle, cfg.Camera, w, h, logger)

	o := levels.Options{Handle: g.handle, Service: svc, View: g.camera, Layout: cfg.Layout, Log: logger}
	region := levels.NewRegion(o)
	ov := overlay.New(overlay.Options{
		Handle:   g.handle,
		Service:  svc,
		View:     g.camera,
		Resolver: region,
		Config:   cfg.Overlay,
		Log:      logger,
	})
	g.coord, err = coordinator.New(coordinator.Options{
		Handle:      g.handle,
		Camera:      g.camera,
		Renderers:   []levels.Renderer{levels.NewUniverse(o), levels.NewGalaxy(o), region, levels.NewSystem(o)},
		Overlay:     ov,
		OwnerFilter: cfg.Player.OwnerFilter,
		Log:         logger,
	})
	if err != nil {
		return nil, err
	}
	g.coord.OnSelectLocation(g.onSelect)
	g.coord.OnHoverLocation(g.onHover)

	g.comms.Add(fmt.Sprintf("Connected to %s (%s data)", server, cfg.Data.Source), hud.Info)
	g.run("enter universe", func(ctx context.Context) error {
		return g.coord.Enter(ctx, world.ServerAddress(server))
	})
	return g, nil
}

// newService picks the data source named in the config. The returned
// server name is the one every address is rooted at.
func newService(cfg config.DataConfig, logger logging.Log) (dataservice.Service, string, error) {
	switch cfg.Source {
	case config.SourceHTTP:
		return dataservice.NewClient(cfg, logger), cfg.Server, nil
	case config.SourceFixture:
		data, err := os.ReadFile(cfg.FixturePath)
		if err != nil {
			return nil, "", fmt.Errorf("read fixture: %w", err)
		}
		f, err := dataservice.LoadFixture(data)
		if err != nil {
			return nil, "", err
		}
		return dataservice.NewStaticService(f), f.Server, nil
	default:
		return dataservice.NewStaticService(dataservice.Generate(cfg.Server, cfg.Seed)), cfg.Server, nil
	}
}

func (g *Game) newBackend() *render.Backend {
	return render.NewBackend(render.Options{
		Width:     float64(g.width),
		Height:    float64(g.height),
		Animation: g.cfg.Camera.AnimationDuration,
		Atlas:     g.atlas,
		Log:       g.log,
	})
}

// run performs a blocking coordinator call off the game loop. Failures
// end up in the comms log.
func (g *Game) run(what string, fn func(ctx context.Context) error) {
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		if err := fn(g.ctx); err != nil && g.ctx.Err() == nil {
			g.log.Warn(what+" failed", logging.Err(err))
			g.comms.Add(fmt.Sprintf("%s failed: %v", what, err), hud.Warning)
		}
	}()
}

func (g *Game) onSelect(loc world.Location) {
	switch {
	case loc.EntityID != "":
		g.comms.Add(fmt.Sprintf("%s at %s", loc.Name, loc.Address), hud.Selected)
	case loc.Level == world.LevelSystem:
		g.comms.Add(fmt.Sprintf("%s [%s]", loc.Name, loc.Address), hud.Selected)
	default:
		g.comms.Add("Entering "+loc.Name, hud.Info)
		g.run("enter "+loc.Name, func(ctx context.Context) error {
			return g.coord.Enter(ctx, loc.Address)
		})
	}
}

func (g *Game) onHover(loc *world.Location) {
	text := ""
	if loc != nil {
		text = fmt.Sprintf("%s  [%s]", loc.Name, loc.Address)
	}
	g.mu.Lock()
	g.hovered = text
	g.mu.Unlock()
}

// swapBackend replaces the render backend the way a host that lost its
// graphics context would. The old backend is closed once everything is
// bound to the new one.
func (g *Game) swapBackend() {
	old := g.backend
	g.backend = g.newBackend()
	g.handle = scene.NewHandle(g.backend)
	h := g.handle
	g.comms.Add("Render backend recreated", hud.Warning)
	g.run("rebind", func(ctx context.Context) error {
		defer old.Close()
		return g.coord.UpdateAllEngines(ctx, h)
	})
}

func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}

	now := time.Now()
	g.backend.ViewportState().Update(now)
	g.coord.Frame(now)

	g.handleKeys()
	g.handleMouse()
	return nil
}

func (g *Game) handleKeys() {
	for key, level := range levelKeys {
		if inpututil.IsKeyJustPressed(key) {
			g.run("show "+level.String(), func(ctx context.Context) error {
				return g.coord.SetCurrentView(ctx, level)
			})
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBackspace) {
		g.run("navigate up", g.coord.NavigateUp)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyZ) {
		g.camera.SetZoom(1, true)
		g.camera.CenterOn(float64(g.width)/2, float64(g.height)/2, true)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyO) && g.cfg.Player.OwnerFilter != "" {
		g.ownerFilter = !g.ownerFilter
		filter := ""
		if g.ownerFilter {
			filter = g.cfg.Player.OwnerFilter
		}
		g.coord.SetOwnerFilter(filter)
		g.comms.Add(fmt.Sprintf("Owner filter: %q (next refresh)", filter), hud.Info)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyF5) {
		g.swapBackend()
	}
}

func (g *Game) handleMouse() {
	mx, my := ebiten.CursorPosition()
	if _, dy := ebiten.Wheel(); dy != 0 {
		g.camera.ZoomAt(math.Pow(wheelStep, dy), float64(mx), float64(my))
	}

	switch {
	case inpututil.IsMouseButtonJustPressed(ebiten.MouseButtonLeft):
		g.pressX, g.pressY = mx, my
		g.lastX, g.lastY = mx, my
		g.dragging = false
	case ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft):
		if !g.dragging && (abs(mx-g.pressX) > dragSlop || abs(my-g.pressY) > dragSlop) {
			g.dragging = true
		}
		if g.dragging {
			g.camera.PanBy(float64(mx-g.lastX), float64(my-g.lastY))
		}
		g.lastX, g.lastY = mx, my
	case inpututil.IsMouseButtonJustReleased(ebiten.MouseButtonLeft):
		if !g.dragging {
			g.coord.PointerDown(float64(mx), float64(my))
		}
		g.dragging = false
	}

	g.coord.PointerMove(float64(mx), float64(my))
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}

func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(palette.CGA[palette.Black])
	g.backend.Draw(screen)
	g.drawHUD(screen)
}

func (g *Game) drawHUD(screen *ebiten.Image) {
	white := palette.CGA[palette.White]
	gray := palette.CGA[palette.DarkGray]
	shade := palette.Alpha(palette.CGA[palette.Black], 200)

	band := func(y float64) {
		render.FillRect(screen, 0, y, float64(g.width), lineHeight, shade)
	}

	band(0)
	title := fmt.Sprintf("%s  [ %s ]", g.cfg.Window.Title, g.coord.Address())
	render.DrawText(screen, g.atlas, title, 8, 1, white)
	level := g.coord.Current().String()
	render.DrawText(screen, g.atlas, level, float64(g.width)-render.TextWidth(level)-8, 1, palette.CGA[palette.LightCyan])

	g.mu.Lock()
	hovered := g.hovered
	g.mu.Unlock()
	if hovered != "" {
		band(lineHeight)
		render.DrawText(screen, g.atlas, hovered, 8, lineHeight+1, palette.CGA[palette.Yellow])
	}

	msgs := g.comms.Recent(commsMax)
	top := float64(g.height) - float64(len(msgs)+1)*lineHeight
	for i, msg := range msgs {
		y := top + float64(i)*lineHeight
		band(y)
		render.DrawText(screen, g.atlas, msg.Text, 8, y+1, msg.Priority.Color())
	}

	y := float64(g.height) - lineHeight
	band(y)
	render.DrawText(screen, g.atlas, helpText, 8, y+1, gray)
	fps := fmt.Sprintf("FPS: %.0f  TPS: %.0f", ebiten.ActualFPS(), ebiten.ActualTPS())
	render.DrawText(screen, g.atlas, fps, float64(g.width)-render.TextWidth(fps)-8, y+1, gray)
}

// Layout follows the window. A size change re-lays out the shown level.
func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	if outsideWidth != g.width || outsideHeight != g.height {
		g.width, g.height = outsideWidth, outsideHeight
		g.camera.Resize(float64(g.width), float64(g.height))
		h := g.handle
		g.run("relayout", func(ctx context.Context) error {
			return g.coord.UpdateAllEngines(ctx, h)
		})
	}
	return g.width, g.height
}

// Close stops background work and releases the scene.
func (g *Game) Close() {
	g.cancel()
	g.wg.Wait()
	g.coord.Destroy()
	g.backend.Close()
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logger, err := logging.New(logging.Options{
		Level:   logging.ParseLevel(cfg.Logging.Level),
		JSON:    cfg.Logging.JSONFormat,
		Enabled: cfg.Logging.Enabled,
	})
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ebiten.SetWindowSize(cfg.Window.Width, cfg.Window.Height)
	ebiten.SetWindowTitle(cfg.Window.Title)
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	game, err := NewGame(cfg, logger)
	if err != nil {
		log.Fatalf("start: %v", err)
	}
	defer game.Close()
	if err := ebiten.RunGame(game); err != nil {
		logger.Error("game loop ended", logging.Err(err))
	}
}
