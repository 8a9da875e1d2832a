package web

import (
	"log"
	"net/http"
	"os"
	"sync"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/mogaika/scene_core/scene"
	"github.com/mogaika/scene_core/status"
)

type Settings struct {
	Addr        string `yaml:"addr"`
	AllowUpload bool   `yaml:"allow_upload"`
	Encoding    string `yaml:"encoding"`
}

func DefaultSettings() *Settings {
	return &Settings{Addr: ":8000"}
}

func LoadSettings(path string) (*Settings, error) {
	s := DefaultSettings()
	if path == "" {
		return s, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "Failed to read settings %q", path)
	}
	if err := yaml.Unmarshal(data, s); err != nil {
		return nil, errors.Wrapf(err, "Failed to parse settings %q", path)
	}
	return s, nil
}

// SceneServer layers the single-writer/many-reader discipline on top of a
// graph; the core itself leaves locking to callers.
type SceneServer struct {
	mu          sync.RWMutex
	graph       *scene.Graph
	allowUpload bool
}

func NewSceneServer(g *scene.Graph, allowUpload bool) *SceneServer {
	g.UpdateHierarchicalData()
	return &SceneServer{graph: g, allowUpload: allowUpload}
}

func (s *SceneServer) Read(f func(g *scene.Graph) error) error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return f(s.graph)
}

// Edit runs a mutation under the writer lock, recomputes hierarchical data
// and notifies websocket viewers.
func (s *SceneServer) Edit(what string, f func(g *scene.Graph) error) error {
	s.mu.Lock()
	err := f(s.graph)
	if err == nil {
		s.graph.UpdateHierarchicalData()
	}
	s.mu.Unlock()

	if err == nil {
		status.SceneChanged(what)
	}
	return err
}

func (s *SceneServer) Replace(what string, g *scene.Graph) {
	s.mu.Lock()
	g.UpdateHierarchicalData()
	s.graph = g
	s.mu.Unlock()
	status.SceneChanged(what)
}

var server *SceneServer

func newRouter() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/json/scene", HandlerSceneJson)
	r.HandleFunc("/json/node/{index}/{generation}", HandlerNodeJson)
	r.HandleFunc("/dump/scene", HandlerDumpSceneYaml)
	r.HandleFunc("/dump/node/{index}/{generation}", HandlerDumpNode)
	r.HandleFunc("/download/scene", HandlerDownloadScene)
	r.HandleFunc("/download/scene.glb", HandlerDownloadSceneGltf)
	r.HandleFunc("/upload/scene", HandlerUploadScene)
	r.HandleFunc("/action/node/{index}/{generation}/rename", HandlerNodeRename)
	r.HandleFunc("/action/node/{index}/{generation}/remove", HandlerNodeRemove)
	r.HandleFunc("/action/node/{index}/{generation}/reparent/{pindex}/{pgeneration}", HandlerNodeReparent)
	r.HandleFunc("/ws/status", HandlerWsStatus)
	return r
}

func StartServer(addr string, ss *SceneServer) error {
	server = ss

	h := handlers.RecoveryHandler()(newRouter())
	h = handlers.LoggingHandler(os.Stdout, h)

	log.Printf("[web] Starting server %v", addr)

	return http.ListenAndServe(addr, h)
}
