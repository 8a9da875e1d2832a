package web

import (
	"bytes"
	"fmt"
	"log"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/pkg/errors"

	"github.com/mogaika/scene_core/export"
	"github.com/mogaika/scene_core/pool"
	"github.com/mogaika/scene_core/scene"
	"github.com/mogaika/scene_core/status"
	"github.com/mogaika/scene_core/utils"
	"github.com/mogaika/scene_core/webutils"
)

type transformJson struct {
	Position [3]float32 `json:"position" yaml:"position"`
	Rotation [4]float32 `json:"rotation" yaml:"rotation"`
	Scale    [3]float32 `json:"scale" yaml:"scale"`
}

type nodeJson struct {
	Index            uint32        `json:"index" yaml:"index"`
	Generation       uint32        `json:"generation" yaml:"generation"`
	Name             string        `json:"name" yaml:"name"`
	KindId           uint8         `json:"kindId" yaml:"kind_id"`
	Visibility       bool          `json:"visibility" yaml:"visibility"`
	GlobalVisibility bool          `json:"globalVisibility" yaml:"global_visibility"`
	Transform        transformJson `json:"transform" yaml:"transform"`
	Global           transformJson `json:"global" yaml:"global"`
	ResourcePath     string        `json:"resourcePath,omitempty" yaml:"resource_path,omitempty"`
	Children         []*nodeJson   `json:"children,omitempty" yaml:"children,omitempty"`
}

type sceneJson struct {
	Revision uint64    `json:"revision" yaml:"revision"`
	Root     *nodeJson `json:"root" yaml:"root"`
}

func nodeToJson(g *scene.Graph, h pool.Handle[scene.Node], recursive bool) (*nodeJson, error) {
	n, err := g.Get(h)
	if err != nil {
		return nil, err
	}

	t := n.LocalTransform()
	rotation := t.Rotation()
	gPosition, gRotation, gScale := utils.DecomposeTRS(n.GlobalTransform())
	nj := &nodeJson{
		Index:            h.Index(),
		Generation:       h.Generation(),
		Name:             n.Name(),
		KindId:           n.Kind().Id(),
		Visibility:       n.Visibility(),
		GlobalVisibility: n.GlobalVisibility(),
		Transform: transformJson{
			Position: t.Position(),
			Rotation: rotation.V.Vec4(rotation.W),
			Scale:    t.Scale(),
		},
		Global: transformJson{
			Position: gPosition,
			Rotation: gRotation.V.Vec4(gRotation.W),
			Scale:    gScale,
		},
		ResourcePath: n.ResourcePath(),
	}

	if recursive {
		for _, c := range n.Children() {
			cj, err := nodeToJson(g, c, true)
			if err != nil {
				return nil, err
			}
			nj.Children = append(nj.Children, cj)
		}
	}
	return nj, nil
}

func HandlerSceneJson(w http.ResponseWriter, r *http.Request) {
	err := server.Read(func(g *scene.Graph) error {
		root, err := nodeToJson(g, g.Root(), true)
		if err != nil {
			return err
		}
		webutils.WriteJson(w, &sceneJson{Revision: g.Revision(), Root: root})
		return nil
	})
	if err != nil {
		webutils.WriteError(w, err)
	}
}

func handleFromVars(r *http.Request, indexKey, generationKey string) (pool.Handle[scene.Node], error) {
	index, err := strconv.ParseUint(mux.Vars(r)[indexKey], 10, 32)
	if err != nil {
		return pool.NoneHandle[scene.Node](), errors.Wrapf(err, "Invalid %v", indexKey)
	}
	generation, err := strconv.ParseUint(mux.Vars(r)[generationKey], 10, 32)
	if err != nil {
		return pool.NoneHandle[scene.Node](), errors.Wrapf(err, "Invalid %v", generationKey)
	}
	return pool.MakeHandle[scene.Node](uint32(index), uint32(generation)), nil
}

func HandlerNodeJson(w http.ResponseWriter, r *http.Request) {
	h, err := handleFromVars(r, "index", "generation")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	err = server.Read(func(g *scene.Graph) error {
		nj, err := nodeToJson(g, h, false)
		if err != nil {
			return err
		}
		webutils.WriteJson(w, nj)
		return nil
	})
	if err != nil {
		webutils.WriteError(w, err)
	}
}

func HandlerDumpNode(w http.ResponseWriter, r *http.Request) {
	h, err := handleFromVars(r, "index", "generation")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	err = server.Read(func(g *scene.Graph) error {
		n, err := g.Get(h)
		if err != nil {
			return err
		}
		w.Header().Set("Content-Type", "text/plain")
		webutils.WriteResult(w, []byte(utils.SDump(n)))
		return nil
	})
	if err != nil {
		webutils.WriteError(w, err)
	}
}

func HandlerDumpSceneYaml(w http.ResponseWriter, r *http.Request) {
	err := server.Read(func(g *scene.Graph) error {
		root, err := nodeToJson(g, g.Root(), true)
		if err != nil {
			return err
		}
		webutils.WriteYamlFile(w, &sceneJson{Revision: g.Revision(), Root: root}, "scene")
		return nil
	})
	if err != nil {
		webutils.WriteError(w, err)
	}
}

func HandlerDownloadScene(w http.ResponseWriter, r *http.Request) {
	err := server.Read(func(g *scene.Graph) error {
		var buf bytes.Buffer
		if err := g.Save(&buf); err != nil {
			return errors.Wrapf(err, "Failed to serialize scene")
		}
		webutils.WriteFile(w, &buf, "scene.scg")
		return nil
	})
	if err != nil {
		webutils.WriteError(w, err)
	}
}

func HandlerDownloadSceneGltf(w http.ResponseWriter, r *http.Request) {
	err := server.Read(func(g *scene.Graph) error {
		doc, err := export.BuildDocument(g)
		if err != nil {
			return errors.Wrapf(err, "Failed to build gltf")
		}
		webutils.WriteFileHeaders(w, "scene.glb")
		return export.ExportBinary(w, doc)
	})
	if err != nil {
		webutils.WriteError(w, err)
	}
}

func HandlerNodeRename(w http.ResponseWriter, r *http.Request) {
	h, err := handleFromVars(r, "index", "generation")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	name := r.FormValue("name")
	if name == "" {
		webutils.WriteError(w, errors.Errorf("Empty node name"))
		return
	}

	err = server.Edit("node renamed", func(g *scene.Graph) error {
		n, err := g.Get(h)
		if err != nil {
			return err
		}
		n.SetName(name)
		return nil
	})
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, map[string]string{"name": name})
}

func HandlerNodeRemove(w http.ResponseWriter, r *http.Request) {
	h, err := handleFromVars(r, "index", "generation")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	var removedCount int
	err = server.Edit("node removed", func(g *scene.Graph) error {
		removed, err := g.Remove(h)
		removedCount = len(removed)
		return err
	})
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, map[string]int{"removed": removedCount})
}

func HandlerNodeReparent(w http.ResponseWriter, r *http.Request) {
	h, err := handleFromVars(r, "index", "generation")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	newParent, err := handleFromVars(r, "pindex", "pgeneration")
	if err != nil {
		webutils.WriteError(w, err)
		return
	}

	err = server.Edit("node reparented", func(g *scene.Graph) error {
		return g.Reparent(h, newParent)
	})
	if err != nil {
		webutils.WriteError(w, err)
		return
	}
	webutils.WriteJson(w, map[string]bool{"reparented": true})
}

func HandlerUploadScene(w http.ResponseWriter, r *http.Request) {
	if !server.allowUpload {
		webutils.WriteError(w, errors.Errorf("Uploads disabled"))
		return
	}

	status.Progress("Reading uploaded scene", 0)
	data, err := webutils.ReadFormFile(r, "scene")
	if err != nil {
		status.Error(err.Error())
		webutils.WriteError(w, err)
		return
	}

	status.Progress("Parsing uploaded scene", 0.5)
	g := scene.NewGraph()
	if err := g.Load(bytes.NewReader(data)); err != nil {
		err = errors.Wrapf(err, "Failed to load scene")
		status.Error(err.Error())
		webutils.WriteError(w, err)
		return
	}

	server.Replace("scene uploaded", g)
	status.Info(fmt.Sprintf("Scene replaced (%d nodes)", g.Len()))
	webutils.WriteJson(w, map[string]int{"nodes": g.Len()})
}

var wsUpgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

func HandlerWsStatus(w http.ResponseWriter, r *http.Request) {
	conn, err := wsUpgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[web] ws upgrade error: %v", err)
		return
	}
	status.NewClient(conn)
}
