//go:build e2e

package e2e_test

import (
	"crypto/sha512"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
)

type fakeFile struct {
	Hashes   map[string]string `json:"hashes"`
	URL      string            `json:"url"`
	Filename string            `json:"filename"`
	Primary  bool              `json:"primary"`
	Size     int64             `json:"size"`
}

type fakeDependency struct {
	ProjectID      string `json:"project_id"`
	DependencyType string `json:"dependency_type"`
}

type fakeVersion struct {
	ID            string           `json:"id"`
	ProjectID     string           `json:"project_id"`
	VersionNumber string           `json:"version_number"`
	VersionType   string           `json:"version_type"`
	DatePublished string           `json:"date_published"`
	Files         []fakeFile       `json:"files"`
	Dependencies  []fakeDependency `json:"dependencies"`
}

type fakeProject struct {
	ID    string `json:"id"`
	Slug  string `json:"slug"`
	Title string `json:"title"`
}

// registry is a minimal Modrinth v2 API with two projects and their artifacts.
type registry struct {
	projects map[string]fakeProject
	versions map[string][]fakeVersion
	byHash   map[string]fakeVersion
	bodies   map[string]string
}

func newRegistry(baseURL string) *registry {
	r := &registry{
		projects: make(map[string]fakeProject),
		versions: make(map[string][]fakeVersion),
		byHash:   make(map[string]fakeVersion),
		bodies:   make(map[string]string),
	}
	r.add(baseURL, fakeProject{ID: "P7dR8mSH", Slug: "fabric-api", Title: "Fabric API"}, "0.100.0", "fabric api classes\n")
	r.add(baseURL, fakeProject{ID: "AANobbMI", Slug: "sodium", Title: "Sodium"}, "0.6.0", "sodium classes\n",
		fakeDependency{ProjectID: "P7dR8mSH", DependencyType: "required"},
		fakeDependency{ProjectID: "YL57xq9U", DependencyType: "optional"},
	)
	return r
}

func (r *registry) add(baseURL string, p fakeProject, number, body string, deps ...fakeDependency) {
	sum := sha512.Sum512([]byte(body))
	hash := hex.EncodeToString(sum[:])
	name := p.Slug + "-" + number + ".jar"
	v := fakeVersion{
		ID:            p.ID + "-" + number,
		ProjectID:     p.ID,
		VersionNumber: number,
		VersionType:   "release",
		DatePublished: "2024-08-01T12:00:00Z",
		Files: []fakeFile{{
			Hashes:   map[string]string{"sha512": hash, "sha1": "unused"},
			URL:      baseURL + "/cdn/" + name,
			Filename: name,
			Primary:  true,
			Size:     int64(len(body)),
		}},
		Dependencies: deps,
	}

	r.projects[p.ID] = p
	r.projects[p.Slug] = p
	r.versions[p.ID] = []fakeVersion{v}
	r.byHash[hash] = v
	r.bodies[name] = body
}

func (r *registry) routes() http.Handler {
	mux := chi.NewRouter()
	mux.Get("/project/{id}", func(w http.ResponseWriter, req *http.Request) {
		p, ok := r.projects[chi.URLParam(req, "id")]
		if !ok {
			http.NotFound(w, req)
			return
		}
		writeJSON(w, p)
	})
	mux.Get("/project/{id}/version", func(w http.ResponseWriter, req *http.Request) {
		if !strings.Contains(req.URL.Query().Get("game_versions"), "1.21.1") {
			writeJSON(w, []fakeVersion{})
			return
		}
		writeJSON(w, r.versions[chi.URLParam(req, "id")])
	})
	mux.Get("/version_file/{hash}", func(w http.ResponseWriter, req *http.Request) {
		v, ok := r.byHash[strings.ToLower(chi.URLParam(req, "hash"))]
		if !ok {
			http.NotFound(w, req)
			return
		}
		writeJSON(w, v)
	})
	mux.Get("/cdn/{name}", func(w http.ResponseWriter, req *http.Request) {
		body, ok := r.bodies[chi.URLParam(req, "name")]
		if !ok {
			http.NotFound(w, req)
			return
		}
		_, _ = w.Write([]byte(body))
	})
	return mux
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
