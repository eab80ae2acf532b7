// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package rasterize

import (
	"bytes"
	"context"
	"fmt"
	"image"

	"github.com/pdiddy/pdf-extract/pkg/types"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// runtime is a container runtime binary. Docker and Podman share the same
// logic; they differ only in binary name and the subcommand used to check
// image existence.
type runtime struct {
	bin           string
	imageCheckCmd []string // e.g. ["image", "inspect"] for docker
	exec          executor
}

func (r *runtime) Name() string { return r.bin }

// Available reports whether the runtime binary exists on PATH and responds
// to an info command.
func (r *runtime) Available(ctx context.Context) bool {
	if _, err := r.exec.LookPath(r.bin); err != nil {
		return false
	}
	return r.exec.RunSilent(ctx, r.bin, "info") == nil
}

// ImageExists checks whether the named image exists locally.
func (r *runtime) ImageExists(ctx context.Context, image string) error {
	args := make([]string, 0, len(r.imageCheckCmd)+1)
	args = append(args, r.imageCheckCmd...)
	args = append(args, image)

	if err := r.exec.RunSilent(ctx, r.bin, args...); err != nil {
		return fmt.Errorf("image %s not found in %s: %w", image, r.bin, err)
	}
	return nil
}

func newDockerRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binDocker,
		imageCheckCmd: []string{"image", "inspect"},
		exec:          exec,
	}
}

func newPodmanRuntime(exec executor) *runtime {
	return &runtime{
		bin:           binPodman,
		imageCheckCmd: []string{"image", "exists"},
		exec:          exec,
	}
}

// detectRuntime tries docker first, falls back to podman.
func detectRuntime(ctx context.Context, exec executor) (*runtime, error) {
	docker := newDockerRuntime(exec)
	if docker.Available(ctx) {
		return docker, nil
	}

	podman := newPodmanRuntime(exec)
	if podman.Available(ctx) {
		return podman, nil
	}

	return nil, fmt.Errorf(
		"no container runtime available: neither %s nor %s found or operational",
		binDocker, binPodman,
	)
}

// Containerized runs pdftoppm inside a container image, piping the document
// through stdin.
type Containerized struct {
	rt  *runtime
	cfg types.RasterConfig
}

// newContainerized verifies that cfg.Image exists locally before returning.
func newContainerized(ctx context.Context, rt *runtime, cfg types.RasterConfig) (*Containerized, error) {
	if err := rt.ImageExists(ctx, cfg.Image); err != nil {
		return nil, fmt.Errorf("rasterizer image not available in %s: %w", rt.Name(), err)
	}
	return &Containerized{rt: rt, cfg: cfg}, nil
}

func (c *Containerized) Name() string {
	return c.rt.Name() + ":" + c.cfg.Image
}

func (c *Containerized) Rasterize(ctx context.Context, pdf []byte) ([]image.Image, error) {
	args := append([]string{"run", "--rm", "-i", c.cfg.Image, "pdftoppm"}, pdftoppmArgs(c.cfg)...)

	var out bytes.Buffer
	if err := c.rt.exec.RunPiped(ctx, c.rt.bin, args, bytes.NewReader(pdf), &out); err != nil {
		return nil, fmt.Errorf("running pdftoppm in %s container %s: %w", c.rt.bin, c.cfg.Image, err)
	}
	return decode(c.cfg.Format, &out)
}
