package web

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-gl/mathgl/mgl32"

	"github.com/mogaika/scene_core/pool"
	"github.com/mogaika/scene_core/scene"
)

func addTestNode(t *testing.T, g *scene.Graph, parent pool.Handle[scene.Node], name string) pool.Handle[scene.Node] {
	t.Helper()
	n := scene.NewNode(scene.BaseKind())
	n.SetName(name)
	h, err := g.Add(parent, n)
	if err != nil {
		t.Fatal(err)
	}
	return h
}

func TestEditRecomputesGlobals(t *testing.T) {
	g := scene.NewGraph()
	h := addTestNode(t, g, pool.NoneHandle[scene.Node](), "A")
	ss := NewSceneServer(g, false)

	err := ss.Edit("move A", func(g *scene.Graph) error {
		n, err := g.Get(h)
		if err != nil {
			return err
		}
		n.LocalTransform().SetPosition(mgl32.Vec3{1, 2, 3})
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	ss.Read(func(g *scene.Graph) error {
		n, err := g.Get(h)
		if err != nil {
			t.Fatal(err)
		}
		if got := n.GlobalPosition(); got != (mgl32.Vec3{1, 2, 3}) {
			t.Errorf("global position after edit: %v", got)
		}
		return nil
	})

	// errors from the mutation must surface
	if err := ss.Edit("bad", func(g *scene.Graph) error {
		_, err := g.Remove(g.Root())
		return err
	}); err == nil {
		t.Error("expected edit error")
	}
}

func TestActionHandlers(t *testing.T) {
	g := scene.NewGraph()
	a := addTestNode(t, g, pool.NoneHandle[scene.Node](), "A")
	b := addTestNode(t, g, a, "B")

	server = NewSceneServer(g, false)
	router := newRouter()

	do := func(target, body string) *httptest.ResponseRecorder {
		var req *http.Request
		if body != "" {
			req = httptest.NewRequest("POST", target, strings.NewReader(body))
			req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
		} else {
			req = httptest.NewRequest("POST", target, nil)
		}
		w := httptest.NewRecorder()
		router.ServeHTTP(w, req)
		return w
	}

	w := do(fmt.Sprintf("/action/node/%d/%d/rename", a.Index(), a.Generation()), "name=Renamed")
	if w.Code != http.StatusOK {
		t.Fatalf("rename: %d %s", w.Code, w.Body.String())
	}
	server.Read(func(g *scene.Graph) error {
		n, err := g.Get(a)
		if err != nil {
			t.Fatal(err)
		}
		if n.Name() != "Renamed" {
			t.Errorf("name after rename: %q", n.Name())
		}
		return nil
	})

	root := g.Root()
	w = do(fmt.Sprintf("/action/node/%d/%d/reparent/%d/%d",
		b.Index(), b.Generation(), root.Index(), root.Generation()), "")
	if w.Code != http.StatusOK {
		t.Fatalf("reparent: %d %s", w.Code, w.Body.String())
	}
	server.Read(func(g *scene.Graph) error {
		n, err := g.Get(b)
		if err != nil {
			t.Fatal(err)
		}
		if !n.Parent().Equal(root) {
			t.Error("B not reparented under root")
		}
		return nil
	})

	// reparent under a descendant must fail with an error response
	w = do(fmt.Sprintf("/action/node/%d/%d/reparent/%d/%d",
		root.Index(), root.Generation(), b.Index(), b.Generation()), "")
	if w.Code != http.StatusInternalServerError {
		t.Errorf("root reparent: %d", w.Code)
	}

	w = do(fmt.Sprintf("/action/node/%d/%d/remove", a.Index(), a.Generation()), "")
	if w.Code != http.StatusOK {
		t.Fatalf("remove: %d %s", w.Code, w.Body.String())
	}
	server.Read(func(g *scene.Graph) error {
		if g.IsValidHandle(a) {
			t.Error("A survived remove")
		}
		if g.Len() != 2 { // root + B
			t.Errorf("len after remove: %d", g.Len())
		}
		return nil
	})
}

func TestUploadDisabled(t *testing.T) {
	server = NewSceneServer(scene.NewGraph(), false)
	router := newRouter()

	req := httptest.NewRequest("POST", "/upload/scene", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("upload while disabled: %d", w.Code)
	}
}
