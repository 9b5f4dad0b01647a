package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"sync"
	"time"

	"tiltpaddle/internal/ahrs"
	"tiltpaddle/internal/command"
	"tiltpaddle/internal/config"
	"tiltpaddle/internal/control"
	"tiltpaddle/internal/display"
	"tiltpaddle/internal/fixed"
	"tiltpaddle/internal/game"
	"tiltpaddle/internal/i2c"
	"tiltpaddle/internal/imu"
	"tiltpaddle/internal/paddle"
	"tiltpaddle/internal/replay"
	"tiltpaddle/internal/sched"
	"tiltpaddle/internal/sensors/mpu6050"
	"tiltpaddle/internal/sim"
	"tiltpaddle/internal/state"
	"tiltpaddle/internal/telemetry"
	"tiltpaddle/internal/udp"
	"tiltpaddle/internal/web"
)

// liveRuntime owns everything brought up from one config: hardware
// handles, shared state, tasks and the two workers.
type liveRuntime struct {
	cfg     config.Config
	geom    paddle.Geometry
	started time.Time

	board *state.Board
	tun   *state.Tunables

	frames *display.Frames
	draw   display.Driver
	term   *display.Terminal

	bus    *i2c.Bus
	rec    *replay.Recorder
	vsync  io.Closer
	serial io.Closer
	sender *udp.Broadcaster

	law       control.Law
	tracker   *game.Tracker
	bouncer   *game.Bouncer
	cmdTask   *command.Task
	telemTask *telemetry.Task

	stream *web.BoardBroadcaster
	logs   *web.LogBuffer

	workerA *sched.Worker
	workerB *sched.Worker
}

// logs, if non-nil, is served on the web UI; the caller has already
// pointed the logger at it.
func newLiveRuntime(ctx context.Context, cfg config.Config, logs *web.LogBuffer) (*liveRuntime, error) {
	c := cfg
	if err := config.DefaultAndValidate(&c); err != nil {
		return nil, err
	}

	geom := paddle.Geometry{
		Width:        c.Screen.Width,
		Height:       c.Screen.Height,
		PaddleLength: c.Screen.PaddleLength,
		PaddleWidth:  c.Screen.PaddleWidth,
		LeftX:        c.Screen.LeftX,
		RightX:       c.Screen.RightX,
	}
	if err := geom.Validate(); err != nil {
		return nil, err
	}

	r := &liveRuntime{
		cfg:     c,
		geom:    geom,
		started: time.Now(),
		board:   &state.Board{},
		tun:     &state.Tunables{},
		frames:  display.NewFrames(),
		logs:    logs,
	}
	// Initial tunables are stored before any worker starts.
	r.tun.Kp.Store(fixed.FromFloat(c.Control.Kp))
	r.tun.Ki.Store(fixed.FromFloat(c.Control.Ki))
	r.tun.Kd.Store(fixed.FromFloat(c.Control.Kd))
	r.tun.Level.Store(fixed.FromFloat(c.Control.LevelDeg))
	r.tun.SetThresholdMicros(int32(c.Scheduler.ThresholdUS))

	ok := false
	defer func() {
		if !ok {
			r.Close()
		}
	}()

	src, err := r.openSensor()
	if err != nil {
		return nil, err
	}
	if err := r.openDisplay(); err != nil {
		return nil, err
	}

	var law control.Law = control.RateLaw{}
	if c.Control.Law == "pid" {
		law = control.NewPID(r.tun, fixed.FromFloat(c.Control.VelocityLimit), ahrs.TickPeriod)
	}

	r.law = law
	r.tracker = game.NewTracker(geom, src, law, r.draw, r.board)
	r.bouncer = game.NewBouncer(geom, fixed.FromFloat(c.Bounce.Speed), r.draw, r.board)

	var gateA, gateB *sched.Semaphore
	if c.Display.FrameSync {
		gateA = r.frames.Subscribe()
		gateB = r.frames.Subscribe()
	}
	tasksA := []sched.Task{sched.Paced(sched.Gated(r.tracker, gateA), r.tun.Threshold)}
	tasksB := []sched.Task{sched.Paced(sched.Gated(r.bouncer, gateB), r.tun.Threshold)}

	lines, out, err := r.openCommand(ctx)
	if err != nil {
		return nil, err
	}
	if lines != nil {
		r.cmdTask = command.NewTask(lines, out, r.tun)
		tasksA = append(tasksA, r.cmdTask)
	}

	if c.Telemetry.Enable {
		b, err := udp.NewBroadcaster(c.Telemetry.Dest)
		if err != nil {
			return nil, err
		}
		r.sender = b
		r.telemTask = telemetry.NewTask(r.board, r.tun, b)
		interval := c.Telemetry.Interval
		tasksB = append(tasksB, sched.Paced(r.telemTask, func() time.Duration { return interval }))
	}

	if c.Web.Enable {
		r.stream = web.NewBoardBroadcaster()
		interval := c.Web.StreamInterval
		tasksB = append(tasksB, sched.Paced(web.NewPublishTask(r.board, r.stream), func() time.Duration { return interval }))
	}

	r.workerA = sched.NewWorker("A", c.Scheduler.Idle, tasksA...)
	r.workerB = sched.NewWorker("B", c.Scheduler.Idle, tasksB...)

	ok = true
	return r, nil
}

func (r *liveRuntime) openSensor() (imu.Source, error) {
	src, err := r.openSensorSource()
	if err != nil || r.cfg.Sensor.RecordPath == "" {
		return src, err
	}
	w, err := replay.CreateWriter(r.cfg.Sensor.RecordPath)
	if err != nil {
		return nil, fmt.Errorf("sensor: record: %w", err)
	}
	r.rec = replay.NewRecorder(src, w)
	log.Printf("sensor: recording to %s", r.cfg.Sensor.RecordPath)
	return r.rec, nil
}

func (r *liveRuntime) openSensorSource() (imu.Source, error) {
	switch r.cfg.Sensor.Source {
	case "mpu6050":
		bus, err := i2c.OpenBus(r.cfg.Sensor.I2CBus)
		if err != nil {
			return nil, fmt.Errorf("sensor: %w", err)
		}
		r.bus = bus
		dev, err := mpu6050.New(bus.Dev(uint16(r.cfg.Sensor.Address)))
		if err != nil {
			return nil, fmt.Errorf("sensor: %w", err)
		}
		log.Printf("sensor: mpu6050 on %s addr=0x%02x", bus.Path(), r.cfg.Sensor.Address)
		return dev, nil
	case "replay":
		recs, err := replay.ReadFile(r.cfg.Sensor.ReplayPath)
		if err != nil {
			return nil, fmt.Errorf("sensor: replay: %w", err)
		}
		src, err := replay.NewSource(recs, r.cfg.Sensor.ReplayLoop)
		if err != nil {
			return nil, fmt.Errorf("sensor: %w", err)
		}
		log.Printf("sensor: replay %s samples=%d loop=%v", r.cfg.Sensor.ReplayPath, src.Len(), r.cfg.Sensor.ReplayLoop)
		return src, nil
	default:
		log.Printf("sensor: sim period=%s amplitude=%.1fdeg", r.cfg.Sensor.SimPeriod, r.cfg.Sensor.SimAmplitudeDeg)
		return sim.NewSource(sim.TiltSim{
			Period:       r.cfg.Sensor.SimPeriod,
			AmplitudeDeg: r.cfg.Sensor.SimAmplitudeDeg,
		}), nil
	}
}

func (r *liveRuntime) openDisplay() error {
	d := r.cfg.Display
	if d.Backend == "terminal" {
		t, err := display.NewTerminal(r.cfg.Screen.Width, r.cfg.Screen.Height)
		if err != nil {
			return err
		}
		r.term = t
		r.draw = t
	} else {
		r.draw = &display.Null{}
	}

	if d.VSync.Enable {
		closer, err := display.WatchVSync(display.VSyncConfig{
			Chip:     d.VSync.Chip,
			LineName: d.VSync.Line,
			Offset:   d.VSync.Offset,
		}, r.frames)
		if err != nil {
			return err
		}
		r.vsync = closer
		log.Printf("display: vsync on %s line=%q offset=%d", d.VSync.Chip, d.VSync.Line, d.VSync.Offset)
	}
	return nil
}

// openCommand returns a nil channel when command input is off.
func (r *liveRuntime) openCommand(ctx context.Context) (<-chan string, io.Writer, error) {
	switch r.cfg.Command.Source {
	case "stdin":
		return command.ReadLines(ctx, os.Stdin, 0), os.Stdout, nil
	case "serial":
		port, err := command.OpenSerial(r.cfg.Command.Device, r.cfg.Command.Baud)
		if err != nil {
			return nil, nil, err
		}
		r.serial = port
		log.Printf("command: serial %s baud=%d", r.cfg.Command.Device, r.cfg.Command.Baud)
		return command.ReadLines(ctx, port, 0), port, nil
	default:
		return nil, nil, nil
	}
}

// Run drives both workers, plus whatever produces frames, until ctx ends
// or the operator quits the terminal.
func (r *liveRuntime) Run(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for _, w := range []*sched.Worker{r.workerA, r.workerB} {
		wg.Add(1)
		go func(w *sched.Worker) {
			defer wg.Done()
			_ = w.Run(ctx)
		}(w)
	}

	if r.stream != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			log.Printf("web: listening on %s", r.cfg.Web.Listen)
			if err := web.Serve(ctx, r.cfg.Web.Listen, web.Handler(r.status, r.stream, r.logs)); err != nil && ctx.Err() == nil {
				log.Printf("web: %v", err)
			}
		}()
	}

	// With vsync the GPIO line is the frame source; the terminal only shows.
	frames := r.frames
	if r.vsync != nil {
		frames = nil
	}
	switch {
	case r.term != nil:
		_ = r.term.Run(ctx, r.cfg.Display.FrameInterval, frames, r.statusLine, cancel)
		cancel()
	case frames != nil && r.cfg.Display.FrameSync:
		_ = frames.Tick(ctx, r.cfg.Display.FrameInterval)
	default:
		<-ctx.Done()
	}

	wg.Wait()
	return nil
}

func (r *liveRuntime) statusLine() string {
	s := r.board.Snapshot()
	return fmt.Sprintf("angle %6.2f  left %5.1f  right %5.1f  kp %s  level %s  threshold %dus  frames %d",
		s.Angle.Float(), s.Paddle1.Float(), s.Paddle2.Float(),
		r.tun.Kp.Load(), r.tun.Level.Load(), r.tun.ThresholdMicros(), r.frames.Count())
}

func (r *liveRuntime) status(now time.Time) web.StatusSnapshot {
	b := r.board.Snapshot()
	return web.StatusSnapshot{
		Service:   "tiltpaddle",
		NowUTC:    now.Format(time.RFC3339Nano),
		UptimeSec: int64(now.Sub(r.started) / time.Second),
		Board: web.BoardSnapshot{
			AngleDeg: b.Angle.Float(),
			Paddle1Y: b.Paddle1.Float(),
			Paddle2Y: b.Paddle2.Float(),
		},
		Kp:          r.tun.Kp.Load().Float(),
		Ki:          r.tun.Ki.Load().Float(),
		Kd:          r.tun.Kd.Load().Float(),
		LevelDeg:    r.tun.Level.Load().Float(),
		ThresholdUS: r.tun.ThresholdMicros(),
		Frames:      r.frames.Count(),
		Workers: map[string]uint64{
			r.workerA.Name(): r.workerA.Steps(),
			r.workerB.Name(): r.workerB.Steps(),
		},
	}
}

func (r *liveRuntime) Close() {
	if r == nil {
		return
	}
	if r.term != nil {
		r.term.Close()
		r.term = nil
	}
	if r.vsync != nil {
		r.vsync.Close()
		r.vsync = nil
	}
	if r.serial != nil {
		r.serial.Close()
		r.serial = nil
	}
	if r.sender != nil {
		r.sender.Close()
		r.sender = nil
	}
	if r.rec != nil {
		if err := r.rec.Close(); err != nil {
			log.Printf("sensor: record close: %v", err)
		}
		r.rec = nil
	}
	if r.bus != nil {
		r.bus.Close()
		r.bus = nil
	}
}
