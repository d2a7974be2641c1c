// Command imu-gen generates synthetic IMU sample lines in the reader's CSV
// wire format, for fixtures.txt and for exercising the ingest path.
package main

import (
	"bufio"
	"flag"
	"fmt"
	"log"
	"math"
	"math/rand"
	"os"

	"github.com/banshee-data/vibration.report/internal/units"
)

func main() {
	output := flag.String("o", "-", "output path, - for stdout")
	count := flag.Int("n", 200, "number of samples")
	rate := flag.Float64("rate", 20, "sample rate in Hz")
	toneHz := flag.Float64("tone", 5, "vibration tone frequency in Hz on the ax channel")
	toneG := flag.Float64("amp", 0.12, "tone amplitude in g")
	noiseG := flag.Float64("noise", 0.005, "gaussian noise sigma in g")
	seed := flag.Int64("seed", 1, "random seed")
	flag.Parse()

	out := os.Stdout
	if *output != "-" {
		f, err := os.Create(*output)
		if err != nil {
			log.Fatalf("failed to create output file: %v", err)
		}
		defer f.Close()
		out = f
	}

	rng := rand.New(rand.NewSource(*seed))
	w := bufio.NewWriter(out)
	defer w.Flush()

	dt := 1000.0 / *rate
	for i := 0; i < *count; i++ {
		t := float64(i) / *rate
		ts := int64(1000 + float64(i)*dt)

		// gravity on ax plus the tone and a little noise; the other channels
		// carry slow drift so plots aren't flat lines
		ax := 0.98 + *toneG*math.Sin(2*math.Pi**toneHz*t) + *noiseG*rng.NormFloat64()
		ay := 0.02*math.Sin(2*math.Pi*1.5*t) + *noiseG*rng.NormFloat64()
		az := 0.05 + 0.01*math.Cos(2*math.Pi*2*t) + *noiseG*rng.NormFloat64()
		gx := 1.5 * math.Sin(2*math.Pi*0.5*t)
		gy := -0.8 * math.Cos(2*math.Pi*0.7*t)
		gz := 0.3 * math.Sin(2*math.Pi*0.2*t)

		fmt.Fprintf(w, "%d,%d,%d,%d,%d,%d,%d\n", ts,
			toRawAccel(ax), toRawAccel(ay), toRawAccel(az),
			toRawGyro(gx), toRawGyro(gy), toRawGyro(gz))
	}

	if *output != "-" {
		log.Printf("✓ Wrote %d samples to %s", *count, *output)
	}
}

func toRawAccel(g float64) int64 {
	return int64(math.Round(g * units.AccelScale))
}

func toRawGyro(dps float64) int64 {
	return int64(math.Round(dps * units.GyroScale))
}
