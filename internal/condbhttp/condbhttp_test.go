// Copyright 2026 Canonical.

package condbhttp_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	qt "github.com/frankban/quicktest"
	"github.com/go-chi/chi/v5"
	"github.com/juju/clock/testclock"

	"github.com/condb/condb/internal/condb"
	"github.com/condb/condb/internal/condbhttp"
	"github.com/condb/condb/internal/condbtest"
	"github.com/condb/condb/internal/model"
	"github.com/condb/condb/internal/solve"
)

// An api is the assembled HTTP router backed by an in-memory engine,
// mirroring the route tree the server command builds.
type api struct {
	router chi.Router
	clk    *testclock.Clock
}

func newAPI(c *qt.C) *api {
	engine, clk := condbtest.NewConDB()

	databases := condbhttp.NewDatabaseHandler(engine)
	branches := condbhttp.NewBranchHandler(engine)
	workingCommits := condbhttp.NewWorkingCommitHandler(engine)
	commits := condbhttp.NewCommitHandler(engine)
	schema := condbhttp.NewSchemaHandler(engine)
	branchSchema := condbhttp.NewSchemaHandler(engine)
	solves := condbhttp.NewSolveHandler(engine)
	debug := condbhttp.NewDebugHandler(map[string]condbhttp.StatusCheck{
		"start_time": condbhttp.ServerStartTime,
	})

	branchRoutes := branches.Routes()
	branches.Router.Mount("/{branch}/working-commit", workingCommits.Routes())
	branches.Router.Mount("/{branch}", branchSchema.Routes())

	router := chi.NewRouter()
	router.Use(condbhttp.MeasureResponseTime)
	router.Use(condbhttp.IdentityMiddleware)
	router.Mount("/debug", debug.Routes())
	router.Route("/databases", func(r chi.Router) {
		r.Get("/", databases.List)
		r.Post("/", databases.Add)
		r.Route("/{database}", func(r chi.Router) {
			r.Get("/", databases.Get)
			r.Delete("/", databases.Delete)
			r.Mount("/branches", branchRoutes)
			r.Mount("/commits", commits.Routes())
			r.Post("/solve", solves.Solve)
			r.Get("/artifacts", solves.ListArtifacts)
			r.Get("/artifacts/{artifact}", solves.GetArtifact)
			r.Get("/artifacts/{artifact}/summary", solves.GetArtifactSummary)
			r.Mount("/", schema.Routes())
		})
	})
	return &api{router: router, clk: clk}
}

// do performs a request, asserts the response status and decodes the
// response body into resp when given. A non-empty user is sent as the
// request's audit headers.
func (a *api) do(c *qt.C, method, path, user string, body interface{}, wantStatus int, resp interface{}) {
	var buf bytes.Buffer
	if body != nil {
		err := json.NewEncoder(&buf).Encode(body)
		c.Assert(err, qt.IsNil)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if user != "" {
		req.Header.Set("X-User-Id", user)
		req.Header.Set("X-User-Email", user+"@canonical.com")
	}
	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)
	c.Assert(rec.Code, qt.Equals, wantStatus, qt.Commentf("%s %s: %s", method, path, rec.Body))
	if resp != nil {
		c.Assert(json.Unmarshal(rec.Body.Bytes(), resp), qt.IsNil)
	}
}

// createDatabase creates the bike-store database and returns its id.
func (a *api) createDatabase(c *qt.C) string {
	var created condbhttp.Database
	a.do(c, "POST", "/databases", "alice", condbhttp.AddDatabaseRequest{Name: "bike-store"}, http.StatusCreated, &created)
	return created.ID
}

// seed stages the bike-store schema and instances on the default branch
// and commits them, returning the commit.
func (a *api) seed(c *qt.C, dbID string) condbhttp.Commit {
	for _, class := range []model.ClassDef{wheelClass(), bikeClass()} {
		a.do(c, "POST", "/databases/"+dbID+"/schema/classes", "alice", class, http.StatusCreated, nil)
	}
	for _, inst := range []model.Instance{wheel("w1", 320), wheel("w2", 480), bike("b1", "w1", "w2")} {
		a.do(c, "POST", "/databases/"+dbID+"/instances", "alice", inst, http.StatusCreated, nil)
	}
	return a.commit(c, dbID, "main", "add the initial catalogue")
}

// commit advances the clock and commits the branch's draft.
func (a *api) commit(c *qt.C, dbID, branch, message string) condbhttp.Commit {
	a.clk.Advance(time.Minute)
	var commit condbhttp.Commit
	a.do(c, "POST", "/databases/"+dbID+"/branches/"+branch+"/working-commit/commit", "alice",
		condbhttp.CommitWorkingCommitRequest{Message: message}, http.StatusCreated, &commit)
	return commit
}

func wheelClass() model.ClassDef {
	return model.ClassDef{
		ID:   "c-wheel",
		Name: "wheel",
		Properties: []model.PropertyDef{
			{ID: "p-price", Name: "price", DataType: model.TypeNumber, Required: true},
		},
	}
}

func bikeClass() model.ClassDef {
	return model.ClassDef{
		ID:   "c-bike",
		Name: "bike",
		Properties: []model.PropertyDef{
			{ID: "p-assembly", Name: "assembly", DataType: model.TypeNumber},
		},
		Relationships: []model.RelationshipDef{{
			ID:          "r-wheels",
			Name:        "wheels",
			Targets:     []string{"wheel"},
			Quantifier:  model.Exactly(2),
			Selection:   model.SelectionManual,
			DefaultPool: model.DefaultPool{Mode: model.PoolAll},
		}},
		Derived: []model.DerivedDef{{
			ID:   "d-total",
			Name: "total_price",
			Expr: model.Sum("wheels", "price"),
		}},
	}
}

func wheel(id string, price float64) model.Instance {
	return model.Instance{
		ID:    id,
		Class: "wheel",
		Properties: map[string]model.PropertyValue{
			"price": model.LiteralValue(model.NumberValue(price)),
		},
	}
}

func bike(id string, wheels ...string) model.Instance {
	return model.Instance{
		ID:    id,
		Class: "bike",
		Relationships: map[string]model.RelationshipSelection{
			"wheels": model.SelectIDs(wheels...),
		},
	}
}

func TestDatabases(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)

	// Mutations without an X-User-Id header are rejected.
	var errResp struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	a.do(c, "POST", "/databases", "", condbhttp.AddDatabaseRequest{Name: "bike-store"}, http.StatusUnauthorized, &errResp)
	c.Check(errResp.Code, qt.Equals, "unauthorized")

	var created condbhttp.Database
	a.do(c, "POST", "/databases", "alice", condbhttp.AddDatabaseRequest{
		Name:        "bike-store",
		Description: "bicycle catalogue",
	}, http.StatusCreated, &created)
	c.Check(created.ID, qt.Not(qt.Equals), "")
	c.Check(created.DefaultBranchName, qt.Equals, "main")

	a.do(c, "POST", "/databases", "alice", condbhttp.AddDatabaseRequest{}, http.StatusBadRequest, nil)

	var listed []condbhttp.Database
	a.do(c, "GET", "/databases", "", nil, http.StatusOK, &listed)
	c.Assert(listed, qt.HasLen, 1)
	c.Check(listed[0].ID, qt.Equals, created.ID)

	var got condbhttp.Database
	a.do(c, "GET", "/databases/"+created.ID, "", nil, http.StatusOK, &got)
	c.Check(got.Name, qt.Equals, "bike-store")
	c.Check(got.Description, qt.Equals, "bicycle catalogue")

	a.do(c, "DELETE", "/databases/"+created.ID, "alice", nil, http.StatusNoContent, nil)
	a.do(c, "GET", "/databases/"+created.ID, "", nil, http.StatusNotFound, nil)
}

func TestStageAndCommit(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	dbID := a.createDatabase(c)

	// A fresh branch has no draft.
	a.do(c, "GET", "/databases/"+dbID+"/branches/main/working-commit", "", nil, http.StatusNotFound, nil)

	var class model.ClassDef
	a.do(c, "POST", "/databases/"+dbID+"/schema/classes", "alice", wheelClass(), http.StatusCreated, &class)
	c.Check(class.ID, qt.Equals, "c-wheel")
	a.do(c, "POST", "/databases/"+dbID+"/schema/classes", "alice", bikeClass(), http.StatusCreated, nil)
	for _, inst := range []model.Instance{wheel("w1", 320), wheel("w2", 480), bike("b1", "w1", "w2")} {
		a.do(c, "POST", "/databases/"+dbID+"/instances", "alice", inst, http.StatusCreated, nil)
	}

	// Staging opened a draft carrying the pending changes.
	var wc condbhttp.WorkingCommit
	a.do(c, "GET", "/databases/"+dbID+"/branches/main/working-commit", "", nil, http.StatusOK, &wc)
	c.Check(wc.Status, qt.Equals, "active")
	c.Assert(wc.Payload, qt.Not(qt.IsNil))
	c.Check(wc.Payload.Instances, qt.HasLen, 3)
	c.Assert(wc.Changes, qt.Not(qt.IsNil))
	c.Check(wc.Changes.AddedInstances, qt.DeepEquals, []string{"w1", "w2", "b1"})

	commit := a.commit(c, dbID, "main", "add the initial catalogue")
	c.Check(commit.Hash, qt.HasLen, 64)
	c.Check(commit.Author, qt.Equals, "alice")
	c.Check(commit.InstancesCount, qt.Equals, 3)
	c.Check(commit.ParentHash, qt.Equals, "")

	var commits []condbhttp.Commit
	a.do(c, "GET", "/databases/"+dbID+"/commits", "", nil, http.StatusOK, &commits)
	c.Assert(commits, qt.HasLen, 1)
	c.Check(commits[0].Hash, qt.Equals, commit.Hash)

	// Committing again without staged changes is rejected.
	a.clk.Advance(time.Minute)
	a.do(c, "POST", "/databases/"+dbID+"/branches/main/working-commit/commit", "alice",
		condbhttp.CommitWorkingCommitRequest{Message: "nothing"}, http.StatusNotFound, nil)

	var wheels []model.Instance
	a.do(c, "GET", "/databases/"+dbID+"/instances?class=wheel", "", nil, http.StatusOK, &wheels)
	c.Assert(wheels, qt.HasLen, 2)

	var iv condb.InstanceView
	a.do(c, "GET", "/databases/"+dbID+"/instances/b1?expand=true", "", nil, http.StatusOK, &iv)
	c.Check(iv.Instance.ID, qt.Equals, "b1")
	c.Check(iv.Relationships["wheels"].Resolved, qt.IsTrue)
	c.Check(iv.Relationships["wheels"].IDs, qt.DeepEquals, []string{"w1", "w2"})

	var validation condbhttp.ValidationResponse
	a.do(c, "GET", "/databases/"+dbID+"/branches/main/validate", "", nil, http.StatusOK, &validation)
	c.Check(validation.Ref, qt.Equals, "main")
	c.Check(validation.Result.Valid, qt.IsTrue)

	a.do(c, "GET", "/databases/"+dbID+"/instances/b1/validate", "", nil, http.StatusOK, &validation)
	c.Check(validation.Result.Valid, qt.IsTrue)
	a.do(c, "GET", "/databases/"+dbID+"/instances/nope/validate", "", nil, http.StatusNotFound, nil)
}

func TestAbandonWorkingCommit(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	dbID := a.createDatabase(c)
	a.seed(c, dbID)

	var wc condbhttp.WorkingCommit
	a.do(c, "POST", "/databases/"+dbID+"/branches/main/working-commit", "alice", struct{}{}, http.StatusCreated, &wc)
	c.Check(wc.Status, qt.Equals, "active")
	c.Check(wc.BasedOnHash, qt.HasLen, 64)

	a.do(c, "DELETE", "/databases/"+dbID+"/branches/main/working-commit", "alice", nil, http.StatusNoContent, nil)
	a.do(c, "GET", "/databases/"+dbID+"/branches/main/working-commit", "", nil, http.StatusNotFound, nil)
}

func TestBranchesAndMerge(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	dbID := a.createDatabase(c)
	seed := a.seed(c, dbID)

	var feature condbhttp.Branch
	a.do(c, "POST", "/databases/"+dbID+"/branches", "alice", condbhttp.AddBranchRequest{Name: "feature"}, http.StatusCreated, &feature)
	c.Check(feature.ParentBranchName, qt.Equals, "main")
	c.Check(feature.CurrentCommitHash, qt.Equals, seed.Hash)
	c.Check(feature.Status, qt.Equals, "active")

	// The branch's schema routes stage changes on the branch itself.
	a.do(c, "POST", "/databases/"+dbID+"/branches/feature/instances", "alice", wheel("w3", 150), http.StatusCreated, nil)
	a.commit(c, dbID, "feature", "add a budget wheel")

	a.do(c, "POST", "/databases/"+dbID+"/branches/feature/merge", "", condbhttp.MergeRequest{TargetBranch: "main"}, http.StatusUnauthorized, nil)
	a.do(c, "POST", "/databases/"+dbID+"/branches/feature/merge", "alice", condbhttp.MergeRequest{}, http.StatusBadRequest, nil)

	var result condb.MergeResult
	a.do(c, "POST", "/databases/"+dbID+"/branches/feature/merge", "alice", condbhttp.MergeRequest{TargetBranch: "main"}, http.StatusOK, &result)
	c.Check(result.Completed, qt.IsTrue)
	c.Check(result.CommitHash, qt.HasLen, 64)
	c.Check(result.Conflicts, qt.HasLen, 0)

	var all []model.Instance
	a.do(c, "GET", "/databases/"+dbID+"/instances", "", nil, http.StatusOK, &all)
	c.Check(all, qt.HasLen, 4)

	var merged []condbhttp.Branch
	a.do(c, "GET", "/databases/"+dbID+"/branches?status=merged", "", nil, http.StatusOK, &merged)
	c.Assert(merged, qt.HasLen, 1)
	c.Check(merged[0].Name, qt.Equals, "feature")
}

func TestMergeConflictOverHTTP(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	dbID := a.createDatabase(c)
	a.seed(c, dbID)

	a.do(c, "POST", "/databases/"+dbID+"/branches", "alice", condbhttp.AddBranchRequest{Name: "feature"}, http.StatusCreated, nil)
	a.do(c, "PUT", "/databases/"+dbID+"/branches/feature/instances/w1", "alice", wheel("w1", 300), http.StatusOK, nil)
	a.commit(c, dbID, "feature", "discount the front wheel")
	a.do(c, "PUT", "/databases/"+dbID+"/instances/w1", "alice", wheel("w1", 350), http.StatusOK, nil)
	a.commit(c, dbID, "main", "raise the front wheel price")

	var check condb.MergeCheck
	a.do(c, "POST", "/databases/"+dbID+"/branches/feature/validate-merge", "", condbhttp.MergeRequest{TargetBranch: "main"}, http.StatusOK, &check)
	c.Check(check.CanMerge, qt.IsFalse)
	c.Check(check.AffectedInstances, qt.DeepEquals, []string{"w1"})

	var result condb.MergeResult
	a.do(c, "POST", "/databases/"+dbID+"/branches/feature/merge", "alice", condbhttp.MergeRequest{TargetBranch: "main"}, http.StatusOK, &result)
	c.Check(result.Completed, qt.IsFalse)
	c.Assert(result.Conflicts, qt.HasLen, 1)
	c.Check(result.Conflicts[0].ID, qt.Equals, "w1")

	// The merge draft on the target branch carries the conflicts.
	var wc condbhttp.WorkingCommit
	a.do(c, "GET", "/databases/"+dbID+"/branches/main/working-commit/raw", "", nil, http.StatusOK, &wc)
	c.Check(wc.Status, qt.Equals, "merging")
	c.Assert(wc.Conflicts, qt.HasLen, 1)

	a.clk.Advance(time.Minute)
	var resolved condb.MergeResult
	a.do(c, "POST", "/databases/"+dbID+"/branches/main/resolve-conflicts", "alice", struct{}{}, http.StatusOK, &resolved)
	c.Check(resolved.Completed, qt.IsTrue)

	var iv condb.InstanceView
	a.do(c, "GET", "/databases/"+dbID+"/instances/w1", "", nil, http.StatusOK, &iv)
	price, ok := iv.Instance.LiteralProperty("price")
	c.Assert(ok, qt.IsTrue)
	c.Check(price, qt.Equals, 300.0)
}

func TestAbortMergeOverHTTP(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	dbID := a.createDatabase(c)
	a.seed(c, dbID)

	a.do(c, "POST", "/databases/"+dbID+"/branches", "alice", condbhttp.AddBranchRequest{Name: "feature"}, http.StatusCreated, nil)
	a.do(c, "PUT", "/databases/"+dbID+"/branches/feature/instances/w1", "alice", wheel("w1", 300), http.StatusOK, nil)
	a.commit(c, dbID, "feature", "discount the front wheel")
	a.do(c, "PUT", "/databases/"+dbID+"/instances/w1", "alice", wheel("w1", 350), http.StatusOK, nil)
	a.commit(c, dbID, "main", "raise the front wheel price")

	var result condb.MergeResult
	a.do(c, "POST", "/databases/"+dbID+"/branches/feature/merge", "alice", condbhttp.MergeRequest{TargetBranch: "main"}, http.StatusOK, &result)
	c.Check(result.Completed, qt.IsFalse)

	a.do(c, "POST", "/databases/"+dbID+"/branches/main/abort-merge", "alice", struct{}{}, http.StatusNoContent, nil)
	a.do(c, "GET", "/databases/"+dbID+"/branches/main/working-commit", "", nil, http.StatusNotFound, nil)
}

func TestSolveAndArtifacts(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	dbID := a.createDatabase(c)
	a.seed(c, dbID)

	a.do(c, "POST", "/databases/"+dbID+"/solve", "", condbhttp.SolveRequest{}, http.StatusUnauthorized, nil)

	var art solve.Artifact
	a.do(c, "POST", "/databases/"+dbID+"/solve", "alice", condbhttp.SolveRequest{Ref: "main"}, http.StatusCreated, &art)
	c.Check(art.ID, qt.Not(qt.Equals), "")
	c.Check(art.Validation.Valid, qt.IsTrue)
	c.Assert(art.Configuration, qt.HasLen, 3)
	bike := art.Configuration[2]
	c.Check(bike.ID, qt.Equals, "b1")
	c.Check(bike.Relationships["wheels"].IDs, qt.DeepEquals, []string{"w1", "w2"})
	c.Check(bike.Properties["total_price"], qt.Equals, 800.0)

	var got solve.Artifact
	a.do(c, "GET", "/databases/"+dbID+"/artifacts/"+art.ID, "", nil, http.StatusOK, &got)
	c.Check(got.ID, qt.Equals, art.ID)

	var summaries []condb.ArtifactSummary
	a.do(c, "GET", "/databases/"+dbID+"/artifacts", "", nil, http.StatusOK, &summaries)
	c.Assert(summaries, qt.HasLen, 1)
	c.Check(summaries[0].ID, qt.Equals, art.ID)

	var summary condb.ArtifactSummary
	a.do(c, "GET", "/databases/"+dbID+"/artifacts/"+art.ID+"/summary", "", nil, http.StatusOK, &summary)
	c.Check(summary.Valid, qt.IsTrue)
	c.Check(summary.Statistics.TotalInstances, qt.Equals, 3)

	a.do(c, "GET", "/databases/"+dbID+"/artifacts/no-such-artifact", "", nil, http.StatusNotFound, nil)
}

func TestSolveValidationAbortOverHTTP(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	dbID := a.createDatabase(c)
	a.seed(c, dbID)

	// Stage a wheel without its required price and solve the draft.
	a.do(c, "POST", "/databases/"+dbID+"/instances", "alice", model.Instance{ID: "w9", Class: "wheel"}, http.StatusCreated, nil)
	var wc condbhttp.WorkingCommit
	a.do(c, "GET", "/databases/"+dbID+"/branches/main/working-commit", "", nil, http.StatusOK, &wc)

	a.do(c, "POST", "/databases/"+dbID+"/solve", "alice", condbhttp.SolveRequest{Ref: wc.ID}, http.StatusConflict, nil)

	var summaries []condb.ArtifactSummary
	a.do(c, "GET", "/databases/"+dbID+"/artifacts", "", nil, http.StatusOK, &summaries)
	c.Check(summaries, qt.HasLen, 0)

	var art solve.Artifact
	a.do(c, "POST", "/databases/"+dbID+"/solve", "alice", condbhttp.SolveRequest{Ref: wc.ID, Force: true}, http.StatusCreated, &art)
	c.Check(art.Validation.Valid, qt.IsFalse)

	a.do(c, "GET", "/databases/"+dbID+"/artifacts", "", nil, http.StatusOK, &summaries)
	c.Assert(summaries, qt.HasLen, 1)
	c.Check(summaries[0].Valid, qt.IsFalse)
}

func TestCommitTagsOverHTTP(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	dbID := a.createDatabase(c)
	seed := a.seed(c, dbID)

	var tag condbhttp.CommitTag
	a.do(c, "POST", "/databases/"+dbID+"/commits/"+seed.Hash+"/tags", "alice", condbhttp.AddCommitTagRequest{
		TagType: "version",
		TagName: "v1.2.3",
	}, http.StatusCreated, &tag)
	c.Check(tag.TagName, qt.Equals, "v1.2.3")
	c.Check(tag.CreatedBy, qt.Equals, "alice")
	// JSON numbers decode as floats.
	c.Check(tag.Metadata["major"], qt.Equals, 1.0)
	c.Check(tag.Metadata["minor"], qt.Equals, 2.0)
	c.Check(tag.Metadata["patch"], qt.Equals, 3.0)

	a.do(c, "POST", "/databases/"+dbID+"/commits/"+seed.Hash+"/tags", "alice", condbhttp.AddCommitTagRequest{
		TagType: "version",
		TagName: "not-a-version",
	}, http.StatusBadRequest, nil)

	var tags []condbhttp.CommitTag
	a.do(c, "GET", "/databases/"+dbID+"/commits/"+seed.Hash+"/tags", "", nil, http.StatusOK, &tags)
	c.Assert(tags, qt.HasLen, 1)

	a.do(c, "DELETE", "/databases/"+dbID+"/commits/"+seed.Hash+"/tags/v1.2.3", "alice", nil, http.StatusNoContent, nil)
	a.do(c, "DELETE", "/databases/"+dbID+"/commits/"+seed.Hash+"/tags/v1.2.3", "alice", nil, http.StatusNotFound, nil)
}

func TestCommitHistoryOverHTTP(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)
	dbID := a.createDatabase(c)
	seed := a.seed(c, dbID)
	a.do(c, "POST", "/databases/"+dbID+"/instances", "alice", wheel("w3", 150), http.StatusCreated, nil)
	second := a.commit(c, dbID, "main", "add a budget wheel")

	var got condbhttp.Commit
	a.do(c, "GET", "/databases/"+dbID+"/commits/"+second.Hash, "", nil, http.StatusOK, &got)
	c.Check(got.ParentHash, qt.Equals, seed.Hash)

	var history []condbhttp.Commit
	a.do(c, "GET", "/databases/"+dbID+"/commits/"+second.Hash+"/history", "", nil, http.StatusOK, &history)
	c.Assert(history, qt.HasLen, 2)
	c.Check(history[0].Hash, qt.Equals, second.Hash)
	c.Check(history[1].Hash, qt.Equals, seed.Hash)

	a.do(c, "GET", "/databases/"+dbID+"/commits/"+second.Hash+"/history?limit=1", "", nil, http.StatusOK, &history)
	c.Check(history, qt.HasLen, 1)
	a.do(c, "GET", "/databases/"+dbID+"/commits/"+second.Hash+"/history?limit=bogus", "", nil, http.StatusBadRequest, nil)
}

func TestDebugEndpoints(t *testing.T) {
	c := qt.New(t)
	a := newAPI(c)

	var info struct {
		GitCommit string
		Version   string
	}
	a.do(c, "GET", "/debug/info", "", nil, http.StatusOK, &info)
	c.Check(info.Version, qt.Not(qt.Equals), "")

	var status map[string]struct {
		Name   string
		Passed bool
	}
	a.do(c, "GET", "/debug/status", "", nil, http.StatusOK, &status)
	c.Assert(status["start_time"].Passed, qt.IsTrue)
	c.Check(status["start_time"].Name, qt.Equals, "server start time")
}
