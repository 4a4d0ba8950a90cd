// Command oxybloom applies the mipmap bloom filter to an image file on the CPU.
//
//	oxybloom -in photo.jpg -out bloom.png -gain 4 -quality high -levels 6
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"runtime"

	"github.com/Carmen-Shannon/oxy-bloom/common"
	"github.com/Carmen-Shannon/oxy-bloom/engine/bloom"
	"github.com/Carmen-Shannon/oxy-bloom/engine/imageio"
	"github.com/Carmen-Shannon/oxy-bloom/engine/profiler"
	"github.com/Carmen-Shannon/oxy-bloom/engine/renderer/software"
	"github.com/pkg/profile"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		if !errors.Is(err, flag.ErrHelp) {
			fmt.Fprintf(os.Stderr, "oxybloom: %v\n", err)
		}
		os.Exit(2)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	cfg, err := parseFlags(args, stderr)
	if err != nil {
		return err
	}
	if cfg.cpuProfile != "" {
		defer profile.Start(profile.CPUProfile, profile.ProfilePath(cfg.cpuProfile), profile.NoShutdownHook).Stop()
	}

	logger := common.NewWriterLogger("oxybloom", cfg.debug, stdout, stderr)
	prof := profiler.NewProfiler(profiler.WithLogger(logger), profiler.WithInterval(0))

	src, err := imageio.Load(cfg.in, float32(cfg.gain), cfg.width, cfg.height)
	if err != nil {
		return err
	}
	logger.Debugf("loaded %s %dx%d, gain %g", cfg.in, src.Width, src.Height, cfg.gain)

	workers := cfg.workers
	if workers < 1 {
		workers = runtime.NumCPU()
	}
	dev := software.NewDevice(software.WithWorkers(workers), software.WithLogger(logger))
	scene, err := dev.Upload(src.Width, src.Height, src.Pixels)
	if err != nil {
		return err
	}
	defer dev.ReleaseTexture(scene)

	opts := []bloom.FilterBuilderOption{bloom.WithParameters(cfg.params), bloom.WithLogger(logger)}
	if cfg.glowMap != "" {
		mask, err := imageio.Load(cfg.glowMap, 1, src.Width, src.Height)
		if err != nil {
			return err
		}
		maskTex, err := dev.Upload(mask.Width, mask.Height, mask.Pixels)
		if err != nil {
			return err
		}
		defer dev.ReleaseTexture(maskTex)
		opts = append(opts, bloom.WithGlowRenderer(newGlowMask(maskTex)))
	}

	filter, err := bloom.NewFilter(opts...)
	if err != nil {
		return err
	}
	if err := prof.Measure("init", func() error { return filter.Init(dev, src.Width, src.Height) }); err != nil {
		return err
	}
	defer filter.Cleanup()

	var out common.TextureStagingData
	err = prof.Measure("render", func() error {
		tex, err := filter.Render(bloom.SceneInput{Color: scene})
		if err != nil {
			return err
		}
		out, err = dev.ReadPixels(tex)
		return err
	})
	if err != nil {
		return err
	}

	img, err := imageio.ToImage(out, float32(cfg.exposure), cfg.tonemap)
	if err != nil {
		return err
	}
	if err := prof.Measure("encode", func() error { return imageio.Save(cfg.out, img) }); err != nil {
		return err
	}

	prof.Tick()
	logger.Infof("wrote %s (%d passes, %s tonemap)", cfg.out, len(filter.Passes()), cfg.tonemap)
	return nil
}
