package extstyle

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/npillmayer/extstyle/dom"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const page = `<html><head>
<style>.ad { background-color: red; }</style>
</head><body>
<div x id="target">promoted</div>
<div class="ad" id="banner">sponsored</div>
<p id="text">article</p>
</body></html>`

func buildDoc(t *testing.T) *dom.Document {
	doc, err := dom.FromString(page)
	if err != nil {
		t.Fatalf("cannot parse test page: %v", err)
	}
	return doc
}

func elemByID(t *testing.T, doc *dom.Document, id string) *html.Node {
	nodes, err := doc.QuerySelectorAll("#" + id)
	if err != nil || len(nodes) != 1 {
		t.Fatalf("cannot find #%s: %v", id, err)
	}
	return nodes[0]
}

// settle waits out the reconciliation quiescence window after a burst of
// structural mutations.
func settle() {
	time.Sleep(6 * quiescence)
}

// poke performs one structural mutation, to trigger a reconciliation.
func poke(doc *dom.Document) {
	body := dom.FindElement(atom.Body, doc.Root())
	span := dom.NewElement("span")
	doc.AppendChild(body, span)
	doc.RemoveChild(body, span)
}

func TestApplyAndRevertScenario(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	e, err := New(doc, `div[x] { display: none !important; }`)
	if err != nil {
		t.Fatalf("engine construction failed: %v", err)
	}
	e.Apply()
	defer e.Dispose()

	target := elemByID(t, doc, "target")
	if got := doc.InlineStyle(target); !strings.Contains(got, "display: none !important") {
		t.Fatalf("expected display:none override, inline style is %q", got)
	}
	doc.RemoveAttribute(target, "x")
	poke(doc)
	settle()
	if got := doc.InlineStyle(target); got != "" {
		t.Errorf("expected reversion to empty pre-apply style, got %q", got)
	}
}

func TestReversionExactness(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	target := elemByID(t, doc, "target")
	doc.SetInlineStyle(target, "color: blue")

	e, err := New(doc, `div[x] { display: none !important; }`)
	if err != nil {
		t.Fatal(err)
	}
	e.Apply()
	defer e.Dispose()

	if got := doc.InlineStyle(target); !strings.Contains(got, "display: none !important") {
		t.Fatalf("override missing: %q", got)
	}
	doc.RemoveAttribute(target, "x")
	poke(doc)
	settle()
	if got := doc.InlineStyle(target); got != "color: blue" {
		t.Errorf("expected byte-exact snapshot restore 'color: blue', got %q", got)
	}
}

func TestAtMostOneAffectedElementPerNode(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	e, err := New(doc, `
		div.ad { display: none !important; }
		#banner { visibility: hidden; }
	`)
	if err != nil {
		t.Fatal(err)
	}
	e.Apply()
	defer e.Dispose()

	if n := len(e.AffectedElements()); n != 1 {
		t.Errorf("two rules matching one node must share one entry, got %d", n)
	}
	poke(doc)
	settle()
	if n := len(e.AffectedElements()); n != 1 {
		t.Errorf("re-application must not duplicate entries, got %d", n)
	}
}

func TestIdempotentReapplication(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	e, err := New(doc, `div[x] { display: none !important; }`)
	if err != nil {
		t.Fatal(err)
	}
	e.Apply()
	defer e.Dispose()

	target := elemByID(t, doc, "target")
	first := doc.InlineStyle(target)
	poke(doc)
	settle()
	poke(doc)
	settle()
	if got := doc.InlineStyle(target); got != first {
		t.Errorf("repeated application changed the style: %q -> %q", first, got)
	}
}

func TestImportanceForcedOverSourcePriority(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	e, err := New(doc, `#text { opacity: 0.5; }`)
	if err != nil {
		t.Fatal(err)
	}
	e.Apply()
	defer e.Dispose()

	text := elemByID(t, doc, "text")
	if got := doc.InlineStyle(text); got != "opacity: 0.5 !important;" {
		t.Errorf("expected forced importance regardless of source priority, got %q", got)
	}
}

func TestUnknownPropertiesAreSkipped(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	e, err := New(doc, `#text { frobnicate-mode: on; opacity: 0; }`)
	if err != nil {
		t.Fatal(err)
	}
	e.Apply()
	defer e.Dispose()

	text := elemByID(t, doc, "text")
	got := doc.InlineStyle(text)
	if strings.Contains(got, "frobnicate") {
		t.Errorf("unknown property leaked into inline style: %q", got)
	}
	if !strings.Contains(got, "opacity: 0 !important") {
		t.Errorf("known property in same rule must still apply, got %q", got)
	}
}

func TestStyleProtectionCeiling(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	e, err := New(doc, `div[x] { display: none !important; }`)
	if err != nil {
		t.Fatal(err)
	}
	e.Apply()
	defer e.Dispose()

	target := elemByID(t, doc, "target")
	engineStyle := doc.InlineStyle(target)

	for i := 0; i < maxProtectionRestores; i++ {
		doc.SetInlineStyle(target, "width: 100px")
		if got := doc.InlineStyle(target); got != engineStyle {
			t.Fatalf("overwrite %d was not restored: %q", i+1, got)
		}
	}
	// the ceiling is exhausted; the next overwrite sticks
	doc.SetInlineStyle(target, "width: 100px")
	if got := doc.InlineStyle(target); got != "width: 100px" {
		t.Errorf("expected 51st overwrite to stick, got %q", got)
	}
}

func TestDebounceCoalescing(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	e, err := New(doc, `div.ad { display: none; debug: true; }`)
	if err != nil {
		t.Fatal(err)
	}
	e.Apply()
	defer e.Dispose()

	affected := e.AffectedElements()
	if len(affected) != 1 {
		t.Fatalf("expected the banner to be tracked, got %d", len(affected))
	}
	stats := affected[0].Rule.Stats
	if stats == nil || stats.Count != 1 {
		t.Fatalf("expected exactly one evaluation after Apply, stats = %v", stats)
	}
	body := dom.FindElement(atom.Body, doc.Root())
	for i := 0; i < 10; i++ {
		doc.AppendChild(body, dom.NewElement("span"))
	}
	settle()
	if stats.Count != 2 {
		t.Errorf("10 mutations in one burst must yield 1 pass, evaluations = %d", stats.Count)
	}
}

func TestPropertiesRuleEndToEnd(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	e, err := New(doc, `div:properties(background-color: rgb(255, 0, 0)) { display: none !important; }`)
	if err != nil {
		t.Fatal(err)
	}
	e.Apply()
	defer e.Dispose()

	banner := elemByID(t, doc, "banner")
	if got := doc.InlineStyle(banner); !strings.Contains(got, "display: none !important") {
		t.Errorf("expected :properties rule to hide the .ad div, got %q", got)
	}
	target := elemByID(t, doc, "target")
	if got := doc.InlineStyle(target); got != "" {
		t.Errorf("expected unrelated div untouched, got %q", got)
	}
}

func TestPropertiesRuleFollowsSheetMutation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	e, err := New(doc, `div:properties(background-color: rgb(255, 0, 0)) { display: none !important; }`)
	if err != nil {
		t.Fatal(err)
	}
	e.Apply()
	defer e.Dispose()

	banner := elemByID(t, doc, "banner")
	if got := doc.InlineStyle(banner); got == "" {
		t.Fatal("precondition: banner must be hidden")
	}
	// the backing rule stops matching the filter; the element reverts
	styleElem := dom.FindElement(atom.Style, doc.Root())
	doc.SetElementText(styleElem, ".ad { background-color: white; }")
	poke(doc)
	settle()
	if got := doc.InlineStyle(banner); got != "" {
		t.Errorf("expected reversion after sheet mutation, got %q", got)
	}
}

func TestLoadCompletionPass(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	doc.MarkLoading()
	e, err := New(doc, `div.late { display: none; }`)
	if err != nil {
		t.Fatal(err)
	}
	e.Apply()
	defer e.Dispose()

	body := dom.FindElement(atom.Body, doc.Root())
	late := dom.NewElement("div")
	doc.AppendChild(body, late)
	doc.SetAttribute(late, "class", "late")

	doc.FinishLoading()
	// the load-completion pass is immediate, no debounce wait needed
	if got := doc.InlineStyle(late); !strings.Contains(got, "display: none !important") {
		t.Errorf("expected load-completion pass to style late content, got %q", got)
	}
}

func TestDisposeRevertsEverything(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	e, err := New(doc, `div[x] { display: none !important; }`)
	if err != nil {
		t.Fatal(err)
	}
	e.Apply()

	target := elemByID(t, doc, "target")
	if doc.InlineStyle(target) == "" {
		t.Fatal("precondition: target must be styled")
	}
	e.Dispose()
	if got := doc.InlineStyle(target); got != "" {
		t.Errorf("expected unconditional reversion on dispose, got %q", got)
	}
	if n := len(e.AffectedElements()); n != 0 {
		t.Errorf("expected empty tracked set after dispose, got %d", n)
	}
	// observation has stopped: new matches are not picked up
	body := dom.FindElement(atom.Body, doc.Root())
	fresh := dom.NewElement("div")
	doc.AppendChild(body, fresh)
	doc.SetAttribute(fresh, "x", "")
	settle()
	if got := doc.InlineStyle(fresh); got != "" {
		t.Errorf("disposed engine must not style new nodes, got %q", got)
	}
}

func TestStaticQuery(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	nodes, elapsed, err := Query(doc, `div:properties(background-color: rgb(255, 0, 0))`)
	if err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if len(nodes) != 1 || dom.GetAttribute(nodes[0], "id") != "banner" {
		t.Errorf("expected the banner, got %d matches", len(nodes))
	}
	if elapsed < 0 {
		t.Error("elapsed time must be reported")
	}
	// no residue: a second one-shot query starts from scratch and agrees
	again, _, err := Query(doc, `div:properties(background-color: rgb(255, 0, 0))`)
	if err != nil || len(again) != 1 {
		t.Errorf("repeated query disagrees: %d matches, err=%v", len(again), err)
	}
}

func TestDroppedRulesDoNotPreventOthers(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	e, err := New(doc, `
		div[[broken { color: red; }
		div[x] { display: none !important; }
	`)
	if err != nil {
		t.Fatalf("one bad rule must not fail construction: %v", err)
	}
	e.Apply()
	defer e.Dispose()

	target := elemByID(t, doc, "target")
	if got := doc.InlineStyle(target); !strings.Contains(got, "display: none") {
		t.Errorf("expected surviving rule to be enforced, got %q", got)
	}
}

func TestConcurrentMutationDuringReconciliation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	e, err := New(doc, `div:properties(background-color: rgb(255, 0, 0)) { display: none !important; }`)
	if err != nil {
		t.Fatal(err)
	}
	e.Apply()
	defer e.Dispose()

	// hammer the mutation surface while reconciliation passes and cache
	// rescans run on their own goroutines
	body := dom.FindElement(atom.Body, doc.Root())
	styleElem := dom.FindElement(atom.Style, doc.Root())
	stop := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		for i := 0; ; i++ {
			select {
			case <-stop:
				return
			default:
			}
			span := dom.NewElement("span")
			doc.AppendChild(body, span)
			doc.SetAttribute(span, "class", "noise")
			doc.RemoveChild(body, span)
			if i%16 == 0 {
				doc.SetElementText(styleElem, ".ad { background-color: red; }")
			}
		}
	}()
	time.Sleep(250 * time.Millisecond)
	close(stop)
	wg.Wait()
	settle()

	banner := elemByID(t, doc, "banner")
	if got := doc.InlineStyle(banner); !strings.Contains(got, "display: none !important") {
		t.Errorf("expected the banner to stay hidden through the mutation storm, got %q", got)
	}
}

func TestEngineWithPollingStrategy(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	doc.SetWatcherStrategy(dom.ObserveByPolling(5 * time.Millisecond))
	e, err := New(doc, `div[x] { display: none !important; }`)
	if err != nil {
		t.Fatal(err)
	}
	e.Apply()
	defer e.Dispose()

	target := elemByID(t, doc, "target")
	if got := doc.InlineStyle(target); !strings.Contains(got, "display: none !important") {
		t.Fatalf("the initial pass must not depend on the watcher strategy, got %q", got)
	}
	body := dom.FindElement(atom.Body, doc.Root())
	fresh := dom.NewElement("div", html.Attribute{Key: "x"})
	doc.AppendChild(body, fresh)
	settle()
	if got := doc.InlineStyle(fresh); !strings.Contains(got, "display: none !important") {
		t.Errorf("expected polled change detection to pick up the new node, got %q", got)
	}
}

func TestDumpAffected(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.engine")
	defer teardown()
	//
	doc := buildDoc(t)
	e, err := New(doc, `div.ad { display: none; }`)
	if err != nil {
		t.Fatal(err)
	}
	e.Apply()
	defer e.Dispose()

	dump := e.DumpAffected()
	if !strings.Contains(dump, "div#banner.ad") || !strings.Contains(dump, "div.ad") {
		t.Errorf("dump misses tracked node or rule:\n%s", dump)
	}
}
