// SPDX-License-Identifier: Unlicense OR MIT

// Command phantasml constructs a PBRRN or a binary reinforcement hierarchy
// from a YAML config, steps it for a fixed number of iterations logging
// periodic progress, and optionally serves a live debug visualiser.
package main

import (
	"flag"
	"fmt"
	"log"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"github.com/ey6es/phantasml-sub002/brh"
	"github.com/ey6es/phantasml-sub002/pbrrn"
	"github.com/ey6es/phantasml-sub002/visualiser"
)

func main() {
	configPath := flag.String("config", "phantasml.yaml", "path to a YAML config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		log.Fatal(err)
	}

	switch cfg.Mode {
	case "brh":
		if err := runBRH(cfg); err != nil {
			log.Fatal(err)
		}
	default:
		if err := runPBRRN(cfg); err != nil {
			log.Fatal(err)
		}
	}
}

func runPBRRN(cfg *Config) error {
	if cfg.PBRRN == nil {
		return fmt.Errorf("phantasml: mode=pbrrn requires a pbrrn: block")
	}
	engine, err := pbrrn.New(cfg.PBRRN.Options())
	if err != nil {
		return fmt.Errorf("phantasml: constructing engine: %w", err)
	}
	defer engine.Dispose()

	if cfg.Debug.Enabled {
		stop, err := serveDebug(cfg, engine)
		if err != nil {
			return err
		}
		defer stop()
	}

	for step := 1; step <= cfg.Steps; step++ {
		if err := engine.Step(cfg.Reward); err != nil {
			return fmt.Errorf("phantasml: step %d: %w", step, err)
		}
		if step%cfg.PrintEvery == 0 || step == cfg.Steps {
			if err := logLocations(engine, cfg.Debug.Locations, step); err != nil {
				return err
			}
		}
	}
	return nil
}

func runBRH(cfg *Config) error {
	if len(cfg.BRH) == 0 {
		return fmt.Errorf("phantasml: mode=brh requires a brh: level list")
	}
	levels := make([]brh.Level, len(cfg.BRH))
	for i, lc := range cfg.BRH {
		levels[i] = brh.Level{
			Options:          lc.Options(),
			ParentInputBits:  lc.ParentInputBits,
			ParentOutputBits: lc.ParentOutputBits,
		}
	}
	tree, err := brh.New(levels)
	if err != nil {
		return fmt.Errorf("phantasml: constructing tree: %w", err)
	}
	defer tree.Dispose()

	if cfg.Debug.Enabled {
		target := tree.Root()
		if cfg.Debug.NodePath != "" {
			byPath := tree.NodesByPath()
			n, ok := byPath[cfg.Debug.NodePath]
			if !ok {
				return fmt.Errorf("phantasml: debug.nodePath %q not found; known paths: %v",
					cfg.Debug.NodePath, sortedKeys(byPath))
			}
			target = n
		}
		stop, err := serveDebug(cfg, target.Engine())
		if err != nil {
			return err
		}
		defer stop()
	}

	for step := 1; step <= cfg.Steps; step++ {
		if err := tree.Step(cfg.Reward); err != nil {
			return fmt.Errorf("phantasml: step %d: %w", step, err)
		}
		if step%cfg.PrintEvery == 0 || step == cfg.Steps {
			if err := logTree(tree, step); err != nil {
				return err
			}
		}
	}
	return nil
}

// logLocations prints the current binary state of every debug-tracked
// location; with none configured it logs nothing.
func logLocations(engine *pbrrn.Engine, locations []LocationConfig, step int) error {
	for _, loc := range locations {
		v, err := engine.GetState(loc.X, loc.Y)
		if err != nil {
			return fmt.Errorf("phantasml: reading (%d,%d): %w", loc.X, loc.Y, err)
		}
		log.Printf("step %d: cell (%d,%d) = %v", step, loc.X, loc.Y, v)
	}
	return nil
}

// logTree prints every node's central-cell state, visited in a stable
// path order (root first, then shallowest-to-deepest, lexicographic within
// a depth) so repeated runs produce diffable output.
func logTree(tree *brh.Tree, step int) error {
	byPath := tree.NodesByPath()
	for _, path := range sortedKeys(byPath) {
		n := byPath[path]
		v, err := n.Engine().GetState(n.Engine().Width()/2, n.Engine().Height()/2)
		if err != nil {
			return fmt.Errorf("phantasml: reading node %q central cell: %w", path, err)
		}
		label := path
		if label == "" {
			label = "root"
		}
		log.Printf("step %d: node %s central = %v", step, label, v)
	}
	return nil
}

// sortedKeys returns m's keys in a stable order, shortest (shallowest
// node) first and lexicographic within a length.
func sortedKeys(m map[string]*brh.Node) []string {
	keys := maps.Keys(m)
	slices.SortFunc(keys, func(a, b string) bool {
		if len(a) != len(b) {
			return len(a) < len(b)
		}
		return a < b
	})
	return keys
}

// serveDebug starts the visualiser websocket server in a background
// goroutine and returns a stop func that does nothing: the HTTP server has
// no shutdown hook here and runs until the process exits, matching the
// teacher's debug tooling.
func serveDebug(cfg *Config, engine *pbrrn.Engine) (stop func(), err error) {
	locations := make([]visualiser.Location, len(cfg.Debug.Locations))
	for i, l := range cfg.Debug.Locations {
		locations[i] = visualiser.Location{X: l.X, Y: l.Y}
	}
	if len(locations) == 0 {
		locations = []visualiser.Location{{X: engine.Width() / 2, Y: engine.Height() / 2}}
	}
	sv, err := visualiser.NewStateVisualiser(engine, locations, 256)
	if err != nil {
		return nil, fmt.Errorf("phantasml: building state visualiser: %w", err)
	}

	var tv *visualiser.TextureVisualiser
	if cfg.Debug.TextureTap != "" {
		mode, err := parseTextureMode(cfg.Debug.TextureTap)
		if err != nil {
			return nil, err
		}
		tv = visualiser.NewTextureVisualiser(engine, mode, engine.Width(), engine.Height())
	}

	stream := visualiser.NewStream(sv, tv)
	server := visualiser.NewServer(cfg.Debug.Addr, stream, 0)
	go func() {
		if err := server.ListenAndServe(); err != nil {
			log.Println("phantasml: debug server:", err)
		}
	}()
	return func() {}, nil
}

func parseTextureMode(s string) (visualiser.TextureMode, error) {
	switch s {
	case "connection":
		return visualiser.ModeConnection, nil
	case "probability":
		return visualiser.ModeProbability, nil
	case "history":
		return visualiser.ModeHistory, nil
	default:
		return 0, fmt.Errorf("phantasml: unknown debug.textureTap %q", s)
	}
}
