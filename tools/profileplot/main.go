// profileplot renders the velocity curve the motion planner would command
// for a given move, useful for eyeballing accel tuning before flashing.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/fogleman/gg"

	"gantry/core"
)

const (
	width  = 900
	height = 500
	margin = 50.0
)

func main() {
	steps := flag.Int("steps", 4000, "move distance in steps")
	speed := flag.Float64("speed", core.MaxSpeedH, "speed limit in steps/s")
	accel := flag.Float64("accel", core.AccelH, "acceleration in steps/s^2")
	out := flag.String("o", "profile.png", "output PNG path")
	flag.Parse()

	times, speeds := simulate(int32(*steps), *speed, *accel)
	if len(times) == 0 {
		fmt.Fprintln(os.Stderr, "profileplot: move produced no motion")
		os.Exit(1)
	}

	dc := gg.NewContext(width, height)
	dc.SetRGB(1, 1, 1)
	dc.Clear()

	maxT := times[len(times)-1]
	maxV := 0.0
	for _, v := range speeds {
		if v > maxV {
			maxV = v
		}
	}

	x := func(t float64) float64 { return margin + t/maxT*(width-2*margin) }
	y := func(v float64) float64 { return height - margin - v/maxV*(height-2*margin) }

	// Axes.
	dc.SetRGB(0.3, 0.3, 0.3)
	dc.SetLineWidth(1)
	dc.DrawLine(margin, height-margin, width-margin, height-margin)
	dc.DrawLine(margin, margin, margin, height-margin)
	dc.Stroke()

	// Speed limit reference line.
	dc.SetRGB(0.8, 0.2, 0.2)
	dc.SetLineWidth(1)
	dc.DrawLine(margin, y(*speed), width-margin, y(*speed))
	dc.Stroke()

	// The profile itself.
	dc.SetRGB(0, 0.2, 0.8)
	dc.SetLineWidth(2)
	dc.MoveTo(x(times[0]), y(speeds[0]))
	for i := 1; i < len(times); i++ {
		dc.LineTo(x(times[i]), y(speeds[i]))
	}
	dc.Stroke()

	dc.SetRGB(0, 0, 0)
	dc.DrawString(fmt.Sprintf("%d steps, limit %.0f steps/s, accel %.0f steps/s², %.3fs",
		*steps, *speed, *accel, maxT), margin, margin-15)
	dc.DrawString("0", margin-15, height-margin+15)
	dc.DrawString(fmt.Sprintf("%.0f", maxV), 5, y(maxV)+5)
	dc.DrawString(fmt.Sprintf("%.3fs", maxT), width-margin-20, height-margin+20)

	if err := dc.SavePNG(*out); err != nil {
		fmt.Fprintf(os.Stderr, "profileplot: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %s (%d samples, peak %.0f steps/s)\n", *out, len(times), maxV)
}

// simulate runs the planner at its real tick rate, integrating position from
// the commanded speed, and returns (time, speed) samples.
func simulate(steps int32, maxSpeed, accel float64) (times, speeds []float64) {
	var p core.Profile
	p.Setup(0, steps, maxSpeed, accel)

	const dt = 1.0 / core.ProfileTickRate
	pos := 0.0
	t := 0.0
	for p.IsActive() {
		v := p.Update(int32(pos))
		if v == 0 {
			break
		}
		times = append(times, t)
		speeds = append(speeds, v)
		pos += v * dt
		if pos > float64(steps) {
			pos = float64(steps)
		}
		t += dt
	}
	times = append(times, t)
	speeds = append(speeds, 0)
	return times, speeds
}
