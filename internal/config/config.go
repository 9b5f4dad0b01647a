package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

type Config struct {
	Screen    ScreenConfig    `yaml:"screen"`
	Sensor    SensorConfig    `yaml:"sensor"`
	Display   DisplayConfig   `yaml:"display"`
	Control   ControlConfig   `yaml:"control"`
	Bounce    BounceConfig    `yaml:"bounce"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Command   CommandConfig   `yaml:"command"`
	Telemetry TelemetryConfig `yaml:"telemetry"`
	Web       WebConfig       `yaml:"web"`
}

// ScreenConfig is the logical raster, in pixels.
type ScreenConfig struct {
	Width        int `yaml:"width"`
	Height       int `yaml:"height"`
	PaddleLength int `yaml:"paddle_length"`
	PaddleWidth  int `yaml:"paddle_width"`
	LeftX        int `yaml:"left_x"`
	RightX       int `yaml:"right_x"`
}

type SensorConfig struct {
	// Source is "sim", "mpu6050" or "replay".
	Source          string        `yaml:"source"`
	I2CBus          int           `yaml:"i2c_bus"`
	Address         int           `yaml:"address"`
	SimPeriod       time.Duration `yaml:"sim_period"`
	SimAmplitudeDeg float64       `yaml:"sim_amplitude_deg"`
	ReplayPath      string        `yaml:"replay_path"`
	ReplayLoop      bool          `yaml:"replay_loop"`
	// RecordPath, if set, logs every sample read for later replay.
	RecordPath string `yaml:"record_path"`
}

type DisplayConfig struct {
	// Backend is "terminal" or "none".
	Backend       string        `yaml:"backend"`
	FrameInterval time.Duration `yaml:"frame_interval"`
	FrameSync     bool          `yaml:"frame_sync"`
	VSync         VSyncConfig   `yaml:"vsync"`
}

type VSyncConfig struct {
	Enable bool   `yaml:"enable"`
	Chip   string `yaml:"chip"`
	Line   string `yaml:"line"`
	Offset int    `yaml:"offset"`
}

type ControlConfig struct {
	// Law is "rate" ((angle-90)/10) or "pid".
	Law           string  `yaml:"law"`
	Kp            float64 `yaml:"kp"`
	Ki            float64 `yaml:"ki"`
	Kd            float64 `yaml:"kd"`
	LevelDeg      float64 `yaml:"level_deg"`
	VelocityLimit float64 `yaml:"velocity_limit"`
}

type BounceConfig struct {
	Speed float64 `yaml:"speed"`
}

type SchedulerConfig struct {
	ThresholdUS int           `yaml:"threshold_us"`
	Idle        time.Duration `yaml:"idle"`
}

type CommandConfig struct {
	// Source is "none", "stdin" or "serial".
	Source string `yaml:"source"`
	Device string `yaml:"device"`
	Baud   int    `yaml:"baud"`
}

type TelemetryConfig struct {
	Enable   bool          `yaml:"enable"`
	Dest     string        `yaml:"dest"`
	Interval time.Duration `yaml:"interval"`
}

type WebConfig struct {
	Enable         bool          `yaml:"enable"`
	Listen         string        `yaml:"listen"`
	StreamInterval time.Duration `yaml:"stream_interval"`
	LogLines       int           `yaml:"log_lines"`
}

func Load(path string) (Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return Config{}, err
	}

	var cfg Config
	dec := yaml.NewDecoder(bytes.NewReader(b))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return Config{}, fmt.Errorf("config %s: %w", path, err)
	}
	if err := DefaultAndValidate(&cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// DefaultAndValidate fills zero fields with defaults and rejects invalid
// combinations. An empty Config comes out as a runnable headless simulator.
func DefaultAndValidate(cfg *Config) error {
	if cfg == nil {
		return fmt.Errorf("config is nil")
	}

	s := &cfg.Screen
	if s.Width == 0 {
		s.Width = 640
	}
	if s.Height == 0 {
		s.Height = 480
	}
	if s.PaddleLength == 0 {
		s.PaddleLength = 40
	}
	if s.PaddleWidth == 0 {
		s.PaddleWidth = 10
	}
	if s.LeftX == 0 {
		s.LeftX = 40
	}
	if s.RightX == 0 {
		s.RightX = 590
	}
	if s.Width < 0 || s.Height < 0 {
		return fmt.Errorf("screen.width and screen.height must be > 0")
	}
	if s.PaddleLength < 0 || s.PaddleLength > s.Height {
		return fmt.Errorf("screen.paddle_length must be in (0, screen.height]")
	}
	if s.PaddleWidth < 0 {
		return fmt.Errorf("screen.paddle_width must be > 0")
	}
	if s.LeftX < 0 || s.LeftX+s.PaddleWidth > s.Width {
		return fmt.Errorf("screen.left_x must keep the paddle on screen")
	}
	if s.RightX < 0 || s.RightX+s.PaddleWidth > s.Width {
		return fmt.Errorf("screen.right_x must keep the paddle on screen")
	}

	if cfg.Sensor.Source == "" {
		cfg.Sensor.Source = "sim"
	}
	switch cfg.Sensor.Source {
	case "sim":
		if cfg.Sensor.SimPeriod <= 0 {
			cfg.Sensor.SimPeriod = 4 * time.Second
		}
		if cfg.Sensor.SimAmplitudeDeg == 0 {
			cfg.Sensor.SimAmplitudeDeg = 60
		}
		if cfg.Sensor.SimAmplitudeDeg < 0 || cfg.Sensor.SimAmplitudeDeg > 90 {
			return fmt.Errorf("sensor.sim_amplitude_deg must be in (0, 90]")
		}
	case "mpu6050":
		if cfg.Sensor.I2CBus == 0 {
			cfg.Sensor.I2CBus = 1
		}
		if cfg.Sensor.Address == 0 {
			cfg.Sensor.Address = 0x68
		}
		if cfg.Sensor.I2CBus < 0 {
			return fmt.Errorf("sensor.i2c_bus must be >= 0")
		}
		if cfg.Sensor.Address < 0x03 || cfg.Sensor.Address > 0x77 {
			return fmt.Errorf("sensor.address must be a 7-bit i2c address")
		}
	case "replay":
		if cfg.Sensor.ReplayPath == "" {
			return fmt.Errorf("sensor.replay_path is required when sensor.source is 'replay'")
		}
		if cfg.Sensor.RecordPath != "" {
			return fmt.Errorf("sensor.record_path cannot be used with sensor.source 'replay'")
		}
	default:
		return fmt.Errorf("sensor.source must be 'sim', 'mpu6050' or 'replay'")
	}

	if cfg.Display.Backend == "" {
		cfg.Display.Backend = "none"
	}
	if cfg.Display.Backend != "none" && cfg.Display.Backend != "terminal" {
		return fmt.Errorf("display.backend must be 'terminal' or 'none'")
	}
	if cfg.Display.FrameInterval <= 0 {
		cfg.Display.FrameInterval = 16 * time.Millisecond
	}
	if cfg.Display.VSync.Enable {
		if cfg.Display.VSync.Chip == "" {
			cfg.Display.VSync.Chip = "gpiochip0"
		}
		if cfg.Display.VSync.Line == "" && cfg.Display.VSync.Offset <= 0 {
			return fmt.Errorf("display.vsync.line or display.vsync.offset is required when display.vsync.enable is true")
		}
	}

	c := &cfg.Control
	if c.Law == "" {
		c.Law = "rate"
	}
	if c.Law != "rate" && c.Law != "pid" {
		return fmt.Errorf("control.law must be 'rate' or 'pid'")
	}
	if c.Law == "pid" && c.Kp == 0 && c.Ki == 0 && c.Kd == 0 {
		c.Kp = 0.005
	}
	if c.LevelDeg == 0 {
		c.LevelDeg = 90
	}
	if c.LevelDeg < 0 || c.LevelDeg > 180 {
		return fmt.Errorf("control.level_deg must be in [0, 180]")
	}
	if c.VelocityLimit == 0 {
		c.VelocityLimit = 0.9
	}
	if c.VelocityLimit < 0 {
		return fmt.Errorf("control.velocity_limit must be > 0")
	}

	if cfg.Bounce.Speed == 0 {
		cfg.Bounce.Speed = 5
	}
	if cfg.Bounce.Speed < 0 || cfg.Bounce.Speed > float64(s.Height-s.PaddleLength) {
		return fmt.Errorf("bounce.speed must be in (0, screen.height - screen.paddle_length]")
	}

	if cfg.Scheduler.ThresholdUS == 0 {
		cfg.Scheduler.ThresholdUS = 10
	}
	if cfg.Scheduler.ThresholdUS < 0 || cfg.Scheduler.ThresholdUS > 1_000_000 {
		return fmt.Errorf("scheduler.threshold_us must be in [0, 1000000]")
	}
	if cfg.Scheduler.Idle <= 0 {
		cfg.Scheduler.Idle = 500 * time.Microsecond
	}

	if cfg.Command.Source == "" {
		cfg.Command.Source = "none"
	}
	switch cfg.Command.Source {
	case "none":
	case "stdin":
		if cfg.Display.Backend == "terminal" {
			return fmt.Errorf("command.source 'stdin' cannot be used with display.backend 'terminal'")
		}
	case "serial":
		if cfg.Command.Device == "" {
			return fmt.Errorf("command.device is required when command.source is 'serial'")
		}
		if cfg.Command.Baud == 0 {
			cfg.Command.Baud = 115200
		}
		if cfg.Command.Baud < 0 {
			return fmt.Errorf("command.baud must be > 0")
		}
	default:
		return fmt.Errorf("command.source must be 'none', 'stdin' or 'serial'")
	}

	if cfg.Telemetry.Enable {
		if cfg.Telemetry.Dest == "" {
			return fmt.Errorf("telemetry.dest is required when telemetry.enable is true")
		}
		if cfg.Telemetry.Interval <= 0 {
			cfg.Telemetry.Interval = 100 * time.Millisecond
		}
	}

	if cfg.Web.Enable {
		if cfg.Web.Listen == "" {
			cfg.Web.Listen = ":8080"
		}
		if cfg.Web.StreamInterval <= 0 {
			cfg.Web.StreamInterval = 50 * time.Millisecond
		}
		if cfg.Web.LogLines == 0 {
			cfg.Web.LogLines = 2000
		}
		if cfg.Web.LogLines < 0 {
			return fmt.Errorf("web.log_lines must be > 0")
		}
	}

	return nil
}
