package scape

import (
	"context"
	"errors"
	"fmt"
	"math"

	"rewire/internal/replica"
)

// Ray is one proximity sensor: a channel name and its mounting angle in
// radians relative to the heading.
type Ray struct {
	Channel string  `yaml:"channel" json:"channel"`
	Angle   float64 `yaml:"angle" json:"angle"`
}

// CorridorConfig describes a differential-drive robot in a closed
// rectangular corridor.
type CorridorConfig struct {
	Length float64 `yaml:"length" json:"length"`
	Width  float64 `yaml:"width" json:"width"`
	// Range is the distance at which proximity readings drop to zero.
	Range    float64 `yaml:"range" json:"range"`
	MaxSpeed float64 `yaml:"max_speed" json:"max_speed"`
	Axle     float64 `yaml:"axle" json:"axle"`
	Radius   float64 `yaml:"radius" json:"radius"`
	TimeStep float64 `yaml:"time_step" json:"time_step"`
	// Budget is the number of steps after which the simulation ends. Zero
	// runs forever.
	Budget int `yaml:"budget" json:"budget"`
	// SafeHalfWidth bounds the band around the centre line outside of which
	// the floor is forbidden.
	SafeHalfWidth float64 `yaml:"safe_half_width" json:"safe_half_width"`
	Rays          []Ray   `yaml:"rays" json:"rays"`
	LeftMotor     string  `yaml:"left_motor" json:"left_motor"`
	RightMotor    string  `yaml:"right_motor" json:"right_motor"`
}

// DefaultCorridorConfig mounts eight proximity sensors the way a small
// two-wheeled robot carries them.
func DefaultCorridorConfig() CorridorConfig {
	angles := []float64{-0.30, -0.80, -1.57, -2.64, 2.64, 1.57, 0.80, 0.30}
	rays := make([]Ray, len(angles))
	for i, a := range angles {
		rays[i] = Ray{Channel: fmt.Sprintf("ps%d", i), Angle: a}
	}
	return CorridorConfig{
		Length:        4,
		Width:         1,
		Range:         0.3,
		MaxSpeed:      0.12,
		Axle:          0.053,
		Radius:        0.035,
		TimeStep:      0.064,
		Budget:        0,
		SafeHalfWidth: 0.35,
		Rays:          rays,
		LeftMotor:     "left",
		RightMotor:    "right",
	}
}

func (c CorridorConfig) Validate() error {
	if c.Length <= 0 || c.Width <= 0 {
		return errors.New("corridor dimensions must be > 0")
	}
	if c.Radius <= 0 || 2*c.Radius >= math.Min(c.Length, c.Width) {
		return errors.New("robot radius must be > 0 and fit the corridor")
	}
	if c.Range <= 0 || c.MaxSpeed <= 0 || c.Axle <= 0 || c.TimeStep <= 0 {
		return errors.New("range, max speed, axle and time step must be > 0")
	}
	if c.Budget < 0 {
		return errors.New("step budget must be >= 0")
	}
	if len(c.Rays) == 0 {
		return errors.New("at least one proximity ray is required")
	}
	seen := map[string]struct{}{}
	for _, name := range append(c.Sensors(), c.LeftMotor, c.RightMotor) {
		if name == "" {
			return errors.New("channel names must not be empty")
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("duplicate channel %s", name)
		}
		seen[name] = struct{}{}
	}
	return nil
}

func (c CorridorConfig) Sensors() []string {
	out := make([]string, len(c.Rays))
	for i, r := range c.Rays {
		out[i] = r.Channel
	}
	return out
}

func (c CorridorConfig) Actuators() []string {
	return []string{c.LeftMotor, c.RightMotor}
}

// Corridor is a kinematic robot simulation. Wheel commands are normalized to
// [0, 1] with 0.5 meaning stop.
type Corridor struct {
	cfg     CorridorConfig
	x, y    float64
	heading float64
	left    float64
	right   float64
	elapsed int
}

func NewCorridor(cfg CorridorConfig) (*Corridor, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	c := &Corridor{cfg: cfg}
	c.place()
	return c, nil
}

func (c *Corridor) Name() string {
	return CorridorName
}

func (c *Corridor) Channels() (sensors, actuators []string) {
	return c.cfg.Sensors(), c.cfg.Actuators()
}

func (c *Corridor) place() {
	c.x = c.cfg.Radius + c.cfg.Range
	c.y = c.cfg.Width / 2
	c.heading = 0
	c.left, c.right = 0.5, 0.5
}

// Reset puts the robot back at the start of the corridor. The step budget is
// a property of the simulation and is not refilled.
func (c *Corridor) Reset(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	c.place()
	return nil
}

func (c *Corridor) Step(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if c.cfg.Budget > 0 && c.elapsed >= c.cfg.Budget {
		return replica.ErrStopped
	}
	vl := (2*c.left - 1) * c.cfg.MaxSpeed
	vr := (2*c.right - 1) * c.cfg.MaxSpeed
	dt := c.cfg.TimeStep
	c.heading = math.Remainder(c.heading+(vr-vl)/c.cfg.Axle*dt, 2*math.Pi)
	v := (vl + vr) / 2
	r := c.cfg.Radius
	c.x = clamp(c.x+v*math.Cos(c.heading)*dt, r, c.cfg.Length-r)
	c.y = clamp(c.y+v*math.Sin(c.heading)*dt, r, c.cfg.Width-r)
	c.elapsed++
	return nil
}

func (c *Corridor) Sensors(ctx context.Context) (map[string]float64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	prox := c.Proximities()
	out := make(map[string]float64, len(prox))
	for i, r := range c.cfg.Rays {
		out[r.Channel] = prox[i]
	}
	return out, nil
}

func (c *Corridor) Drive(ctx context.Context, outputs map[string]float64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	left, ok := outputs[c.cfg.LeftMotor]
	if !ok {
		return fmt.Errorf("missing output for motor %s", c.cfg.LeftMotor)
	}
	right, ok := outputs[c.cfg.RightMotor]
	if !ok {
		return fmt.Errorf("missing output for motor %s", c.cfg.RightMotor)
	}
	c.left, c.right = clamp(left, 0, 1), clamp(right, 0, 1)
	return nil
}

// Proximities returns one reading per ray in mounting order, 1 at the body
// surface and 0 at or beyond the sensing range.
func (c *Corridor) Proximities() []float64 {
	out := make([]float64, len(c.cfg.Rays))
	for i, r := range c.cfg.Rays {
		d := c.wallDistance(c.heading+r.Angle) - c.cfg.Radius
		out[i] = clamp(1-d/c.cfg.Range, 0, 1)
	}
	return out
}

func (c *Corridor) WheelSpeeds() (left, right float64) {
	return c.left, c.right
}

func (c *Corridor) Position() (x, y float64) {
	return c.x, c.y
}

func (c *Corridor) OnForbiddenArea() bool {
	return math.Abs(c.y-c.cfg.Width/2) > c.cfg.SafeHalfWidth
}

// wallDistance casts a ray from the robot centre to the first wall.
func (c *Corridor) wallDistance(angle float64) float64 {
	dx, dy := math.Cos(angle), math.Sin(angle)
	best := math.Inf(1)
	if dx > 1e-12 {
		best = math.Min(best, (c.cfg.Length-c.x)/dx)
	} else if dx < -1e-12 {
		best = math.Min(best, -c.x/dx)
	}
	if dy > 1e-12 {
		best = math.Min(best, (c.cfg.Width-c.y)/dy)
	} else if dy < -1e-12 {
		best = math.Min(best, -c.y/dy)
	}
	return best
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
