package main

import (
	"flag"
	"log"
	"os"
	"strings"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/scene_core/config"
	"github.com/mogaika/scene_core/scene"
	"github.com/mogaika/scene_core/utils"
	"github.com/mogaika/scene_core/web"
)

func buildDemoScene() *scene.Graph {
	var rng utils.RandomNameGenerator
	g := scene.NewGraph()

	sun := scene.NewNode(scene.LightKind(&scene.Light{
		Color:  mgl32.Vec3{1, 0.96, 0.88},
		Radius: 500,
	}))
	sun.SetName("Sun")
	sun.LocalTransform().SetPosition(mgl32.Vec3{0, 100, 0})
	g.Add(g.Root(), sun)

	camera := scene.NewNode(scene.CameraKind(nil))
	camera.SetName("MainCamera")
	camera.LocalTransform().SetPosition(mgl32.Vec3{0, 2, -8})
	g.Add(g.Root(), camera)

	terrain := scene.NewNode(scene.MeshKind(&scene.Mesh{
		Surfaces: []scene.Surface{{
			Positions: []mgl32.Vec3{
				{-50, 0, -50}, {50, 0, -50}, {50, 0, 50}, {-50, 0, 50},
			},
			Indices: []uint32{0, 1, 2, 0, 2, 3},
		}},
	}))
	terrain.SetName("Terrain")
	terrainHandle, _ := g.Add(g.Root(), terrain)

	campfire := scene.NewNode(scene.ParticleSystemKind(nil))
	campfire.SetName(rng.RandomName())
	campfire.LocalTransform().SetPosition(mgl32.Vec3{3, 0, 2})
	campfireHandle, _ := g.Add(terrainHandle, campfire)

	glow := scene.NewNode(scene.LightKind(&scene.Light{
		Color:  mgl32.Vec3{1, 0.55, 0.2},
		Radius: 6,
	}))
	glow.SetName(rng.RandomName())
	glow.LocalTransform().SetPosition(mgl32.Vec3{0, 0.5, 0})
	g.Add(campfireHandle, glow)

	g.UpdateHierarchicalData()
	return g
}

func main() {
	var addr, scenePath, settingsPath, encoding string
	var allowUpload bool
	flag.StringVar(&addr, "i", "", "Address of server (overrides settings)")
	flag.StringVar(&scenePath, "scene", "", "Path to scene file (empty for demo scene)")
	flag.StringVar(&settingsPath, "settings", "", "Path to yaml settings file")
	flag.StringVar(&encoding, "encoding", "", "String encoding of legacy scene files")
	flag.BoolVar(&allowUpload, "allowupload", false, "Allow scene uploads over http")
	flag.Parse()

	settings, err := web.LoadSettings(settingsPath)
	if err != nil {
		log.Fatal(err)
	}
	if addr != "" {
		settings.Addr = addr
	}
	if encoding != "" {
		settings.Encoding = encoding
	}
	if allowUpload {
		settings.AllowUpload = true
	}

	if settings.Encoding != "" {
		if err := config.SetEncoding(settings.Encoding); err != nil {
			log.Fatalf("Unknown encoding %q, supported: %v",
				settings.Encoding, strings.Join(config.ListEncodings(), ", "))
		}
	}

	var g *scene.Graph
	if scenePath != "" {
		f, err := os.Open(scenePath)
		if err != nil {
			log.Fatal(err)
		}
		g = scene.NewGraph()
		if err := g.Load(f); err != nil {
			f.Close()
			log.Fatalf("Failed to load scene %q: %v", scenePath, err)
		}
		f.Close()
		log.Printf("[scene] Loaded %q (%d nodes)", scenePath, g.Len())
	} else {
		g = buildDemoScene()
		log.Printf("[scene] Using demo scene (%d nodes)", g.Len())
	}

	if err := web.StartServer(settings.Addr, web.NewSceneServer(g, settings.AllowUpload)); err != nil {
		log.Fatal(err)
	}
}
