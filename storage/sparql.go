package storage

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/deiu/rdf2go"
	"github.com/knakk/rdf"
	"github.com/knakk/sparql"

	"github.com/VRK-YTI/yti-datamodel-api-sub003/errs"
	"github.com/VRK-YTI/yti-datamodel-api-sub003/graph"
)

//go:embed queries.sparql
var queryBankSource string

const sparqlComponent = "storage.sparql"

// SPARQLConfig locates a SPARQL 1.1 store.
type SPARQLConfig struct {
	// QueryEndpoint accepts SPARQL queries.
	QueryEndpoint string
	// DataEndpoint is the Graph Store Protocol endpoint used for writes.
	DataEndpoint string
	Timeout      time.Duration
}

// SPARQLRepository reads through SPARQL queries and writes whole partitions
// through the Graph Store Protocol. It does not support revisions.
type SPARQLRepository struct {
	repo   *sparql.Repo
	bank   sparql.Bank
	data   string
	client *http.Client
}

// NewSPARQLRepository creates a repository for cfg.
func NewSPARQLRepository(cfg SPARQLConfig) (*SPARQLRepository, error) {
	if cfg.Timeout == 0 {
		cfg.Timeout = 30 * time.Second
	}
	repo, err := sparql.NewRepo(cfg.QueryEndpoint, sparql.Timeout(cfg.Timeout))
	if err != nil {
		return nil, fmt.Errorf("create sparql repo: %w", err)
	}
	bank, err := sparql.LoadBank(strings.NewReader(queryBankSource))
	if err != nil {
		return nil, fmt.Errorf("load query bank: %w", err)
	}
	return &SPARQLRepository{
		repo:   repo,
		bank:   bank,
		data:   cfg.DataEndpoint,
		client: &http.Client{Timeout: cfg.Timeout},
	}, nil
}

// Fetch implements Repository.
func (r *SPARQLRepository) Fetch(ctx context.Context, graphURI string) (*Partition, error) {
	ok, err := r.Exists(ctx, graphURI)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, ErrNotFound
	}
	q, err := r.bank.Prepare("fetch", struct{ Graph string }{graphURI})
	if err != nil {
		return nil, errs.RepositoryFatal(sparqlComponent, "fetch", err)
	}
	triples, err := r.repo.Construct(q)
	if err != nil {
		return nil, errs.Repository(sparqlComponent, "fetch", fmt.Errorf("construct %s: %w", graphURI, err))
	}
	g := graph.New(graphURI)
	addTriples(g, triples)
	return &Partition{URI: graphURI, Graph: g}, nil
}

// Put implements Repository.
func (r *SPARQLRepository) Put(ctx context.Context, graphURI string, g *rdf2go.Graph) error {
	data, err := graph.EncodeNTriples(g)
	if err != nil {
		return errs.RepositoryFatal(sparqlComponent, "put", fmt.Errorf("encode %s: %w", graphURI, err))
	}
	if err := r.graphStore(ctx, http.MethodPut, graphURI, data); err != nil {
		return errs.Repository(sparqlComponent, "put", err)
	}
	return nil
}

// PutIfUnchanged implements Repository. The graph store has no revisions,
// so only the existence precondition of revision 0 is checked.
func (r *SPARQLRepository) PutIfUnchanged(ctx context.Context, graphURI string, g *rdf2go.Graph, revision uint64) error {
	if revision == 0 {
		exists, err := r.Exists(ctx, graphURI)
		if err != nil {
			return err
		}
		if exists {
			return fmt.Errorf("put %s: %w", graphURI, errs.ErrConflict)
		}
	}
	return r.Put(ctx, graphURI, g)
}

// Delete implements Repository.
func (r *SPARQLRepository) Delete(ctx context.Context, graphURI string) error {
	if err := r.graphStore(ctx, http.MethodDelete, graphURI, nil); err != nil {
		return errs.Repository(sparqlComponent, "delete", err)
	}
	return nil
}

func (r *SPARQLRepository) graphStore(ctx context.Context, method, graphURI string, body []byte) error {
	endpoint := r.data + "?graph=" + url.QueryEscape(graphURI)
	req, err := http.NewRequestWithContext(ctx, method, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/n-triples")
	}
	resp, err := r.client.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, graphURI, err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if method == http.MethodDelete && resp.StatusCode == http.StatusNotFound {
		return nil
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%s %s: unexpected status %d", method, graphURI, resp.StatusCode)
	}
	return nil
}

// Exists implements Repository.
func (r *SPARQLRepository) Exists(_ context.Context, graphURI string) (bool, error) {
	return r.askBank("exists", struct{ Graph string }{graphURI})
}

// ResourceExists implements Repository.
func (r *SPARQLRepository) ResourceExists(_ context.Context, graphURI, resourceURI string, includeVersions bool) (bool, error) {
	graphs := []string{graphURI}
	subjects := []string{resourceURI}
	if includeVersions {
		q, err := r.bank.Prepare("release-graphs", struct{ Graph string }{graphURI})
		if err != nil {
			return false, errs.RepositoryFatal(sparqlComponent, "resource-exists", err)
		}
		res, err := r.repo.Query(q)
		if err != nil {
			return false, errs.Repository(sparqlComponent, "resource-exists", err)
		}
		local := strings.TrimPrefix(resourceURI, graphURI)
		for _, row := range res.Solutions() {
			name := row["g"].String()
			if isReleaseOf(name, graphURI) {
				graphs = append(graphs, name)
				subjects = append(subjects, name+local)
			}
		}
	}
	return r.askBank("resource-exists", struct {
		Graphs   []string
		Subjects []string
	}{graphs, subjects})
}

// Ask implements Repository.
func (r *SPARQLRepository) Ask(_ context.Context, q AskQuery) (bool, error) {
	switch q := q.(type) {
	case PathQuery:
		return r.askPath(q)
	case *PathQuery:
		return r.askPath(*q)
	case ReferenceQuery:
		return r.askBank("ask-reference", referenceData{q, ownedPattern(q.Resource, ownedDepth)})
	case *ReferenceQuery:
		return r.askBank("ask-reference", referenceData{*q, ownedPattern(q.Resource, ownedDepth)})
	default:
		return false, fmt.Errorf("unsupported ask query %T", q)
	}
}

// ownedDepth bounds the blank-node nesting the reference query treats as
// owned by the resource. Restrictions with list members stay well inside it.
const ownedDepth = 8

type referenceData struct {
	ReferenceQuery
	Owned string
}

// ownedPattern matches ?s when it is a blank node reachable from resource
// through blank nodes only. Property paths cannot constrain intermediate
// nodes, so the chains are spelled out up to depth.
func ownedPattern(resource string, depth int) string {
	branches := make([]string, 0, depth)
	for n := 0; n < depth; n++ {
		var b strings.Builder
		prev := "<" + resource + ">"
		var blanks []string
		for i := 1; i <= n; i++ {
			node := fmt.Sprintf("?b%d", i)
			fmt.Fprintf(&b, "%s ?o%d %s . ", prev, i-1, node)
			blanks = append(blanks, "isBlank("+node+")")
			prev = node
		}
		fmt.Fprintf(&b, "%s ?o%d ?s .", prev, n)
		if len(blanks) > 0 {
			fmt.Fprintf(&b, " FILTER(%s)", strings.Join(blanks, " && "))
		}
		branches = append(branches, "{ "+b.String()+" }")
	}
	return strings.Join(branches, "\n      UNION ")
}

// askPath evaluates the path over the union of the partitions, so that
// chains crossing models are followed. Without explicit graphs the union
// covers every partition that uses the predicate.
func (r *SPARQLRepository) askPath(q PathQuery) (bool, error) {
	if q.From == q.To {
		return true, nil
	}
	if len(q.Graphs) == 0 {
		graphs, err := r.predicateGraphs(q.Predicate)
		if err != nil {
			return false, err
		}
		if len(graphs) == 0 {
			return false, nil
		}
		q.Graphs = graphs
	}
	return r.askBank("ask-path", q)
}

func (r *SPARQLRepository) predicateGraphs(predicate string) ([]string, error) {
	q, err := r.bank.Prepare("predicate-graphs", struct{ Predicate string }{predicate})
	if err != nil {
		return nil, errs.RepositoryFatal(sparqlComponent, "ask-path", err)
	}
	res, err := r.repo.Query(q)
	if err != nil {
		return nil, errs.Repository(sparqlComponent, "ask-path", err)
	}
	var graphs []string
	for _, row := range res.Solutions() {
		if g, ok := row["g"]; ok {
			graphs = append(graphs, g.String())
		}
	}
	return graphs, nil
}

// askBank runs a bank query shaped as SELECT ... LIMIT 1 and reports
// whether it produced a solution.
func (r *SPARQLRepository) askBank(key string, data any) (bool, error) {
	q, err := r.bank.Prepare(key, data)
	if err != nil {
		return false, errs.RepositoryFatal(sparqlComponent, key, err)
	}
	res, err := r.repo.Query(q)
	if err != nil {
		return false, errs.Repository(sparqlComponent, key, err)
	}
	return len(res.Solutions()) > 0, nil
}

// patternData renders a Pattern for the construct and select templates.
type patternData struct {
	Graphs   []string
	S, P, O  string
	Describe bool
	Binds    string
}

func renderPattern(p Pattern) (patternData, error) {
	d := patternData{Graphs: p.Graphs, Describe: p.Describe}
	var binds []string
	for _, pos := range []struct {
		term rdf2go.Term
		name string
		dst  *string
	}{
		{p.Subject, "s", &d.S},
		{p.Predicate, "p", &d.P},
		{p.Object, "o", &d.O},
	} {
		if pos.term == nil {
			*pos.dst = "?" + pos.name
			continue
		}
		t, err := graph.ToKnakk(pos.term)
		if err != nil {
			return patternData{}, err
		}
		*pos.dst = t.Serialize(rdf.NTriples)
		binds = append(binds, fmt.Sprintf("BIND(%s AS ?%s)", *pos.dst, pos.name))
	}
	d.Binds = strings.Join(binds, "\n  ")
	return d, nil
}

// Construct implements Repository.
func (r *SPARQLRepository) Construct(_ context.Context, p Pattern) (*rdf2go.Graph, error) {
	d, err := renderPattern(p)
	if err != nil {
		return nil, errs.RepositoryFatal(sparqlComponent, "construct", err)
	}
	q, err := r.bank.Prepare("construct", d)
	if err != nil {
		return nil, errs.RepositoryFatal(sparqlComponent, "construct", err)
	}
	triples, err := r.repo.Construct(q)
	if err != nil {
		return nil, errs.Repository(sparqlComponent, "construct", err)
	}
	g := graph.New("")
	addTriples(g, triples)
	return g, nil
}

// Select implements Repository.
func (r *SPARQLRepository) Select(_ context.Context, p Pattern) ([]Row, error) {
	d, err := renderPattern(p)
	if err != nil {
		return nil, errs.RepositoryFatal(sparqlComponent, "select", err)
	}
	q, err := r.bank.Prepare("select", d)
	if err != nil {
		return nil, errs.RepositoryFatal(sparqlComponent, "select", err)
	}
	res, err := r.repo.Query(q)
	if err != nil {
		return nil, errs.Repository(sparqlComponent, "select", err)
	}
	solutions := res.Solutions()
	rows := make([]Row, 0, len(solutions))
	for _, sol := range solutions {
		row := Row{}
		for name, term := range sol {
			row[name] = graph.FromKnakk(term)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

func addTriples(g *rdf2go.Graph, triples []rdf.Triple) {
	for _, t := range triples {
		graph.Add(g, graph.FromKnakk(t.Subj), graph.FromKnakk(t.Pred), graph.FromKnakk(t.Obj))
	}
}
