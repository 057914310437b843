package propfilter

import (
	"testing"

	"github.com/npillmayer/extstyle/dom"
	"github.com/npillmayer/extstyle/dom/style/cssom/douceuradapter"
	"github.com/npillmayer/schuko/tracing/gotestingadapter"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

const page = `<html><head>
<style>.ad { background-color: red; }</style>
</head><body>
<div class="ad">sponsored</div>
</body></html>`

func buildDoc(t *testing.T) *dom.Document {
	doc, err := dom.FromString(page)
	require.NoError(t, err, "cannot parse test page")
	return doc
}

func TestCanonicalDeclarationDeterminism(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.cache")
	defer teardown()
	//
	a, err := douceuradapter.Parse(".x { color: red; display: none !important; }")
	require.NoError(t, err)
	b, err := douceuradapter.Parse(".x { display: none !important; color: red; }")
	require.NoError(t, err)
	canonA := canonicalDeclaration(a.Rules()[0])
	canonB := canonicalDeclaration(b.Rules()[0])
	if canonA != canonB {
		t.Errorf("declaration order leaked into canonical form:\n%q\n%q", canonA, canonB)
	}
	want := "color: rgb(255, 0, 0) display: none !important"
	if canonA != want {
		t.Errorf("canonical form = %q, expected %q", canonA, want)
	}
}

func TestFilterParsing(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.cache")
	defer teardown()
	//
	literal, err := parseFilter("background-color: rgb(255, 0, 0)")
	require.NoError(t, err)
	if !literal.matches("background-color: rgb(255, 0, 0) color: black") {
		t.Error("literal filter should match as substring")
	}
	if literal.matches("background-color: rgb(0, 255, 0)") {
		t.Error("literal filter must not match different declarations")
	}
	re, err := parseFilter(`/background-color: rgb\(\d+, 0, 0\)/`)
	require.NoError(t, err)
	if !re.matches("background-color: rgb(128, 0, 0)") {
		t.Error("regex filter should match")
	}
	if _, err := parseFilter("/((/"); err == nil {
		t.Error("expected malformed regex filter to error")
	}
}

func TestInitializeWithoutFilters(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.cache")
	defer teardown()
	//
	c := New(buildDoc(t))
	ok, err := c.Initialize(nil)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if ok {
		t.Error("expected Initialize to report false with zero registered filters")
	}
}

func TestInitializeTwiceIsFatal(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.cache")
	defer teardown()
	//
	c := New(buildDoc(t))
	require.NoError(t, c.RegisterFilter("display: none"))
	ok, err := c.Initialize(nil)
	require.NoError(t, err)
	require.True(t, ok)
	if _, err := c.Initialize(nil); err != ErrAlreadyInitialized {
		t.Errorf("expected ErrAlreadyInitialized, got %v", err)
	}
	c.Clear()
}

func TestSelectorsMatchesColorFilter(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.cache")
	defer teardown()
	//
	doc := buildDoc(t)
	c := New(doc)
	require.NoError(t, c.RegisterFilter("background-color: rgb(255, 0, 0)"))
	ok, err := c.Initialize(nil)
	require.NoError(t, err)
	require.True(t, ok)
	defer c.Clear()

	sels := c.Selectors("background-color: rgb(255, 0, 0)")
	if len(sels) != 1 || sels[0] != ".ad" {
		t.Errorf("expected ['.ad'], got %v", sels)
	}
}

func TestSelectorsFreshAfterSheetMutation(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.cache")
	defer teardown()
	//
	doc := buildDoc(t)
	c := New(doc)
	require.NoError(t, c.RegisterFilter("display: none"))
	ok, err := c.Initialize(nil)
	require.NoError(t, err)
	require.True(t, ok)
	defer c.Clear()

	if sels := c.Selectors("display: none"); len(sels) != 0 {
		t.Fatalf("expected no match before mutation, got %v", sels)
	}
	styleElem := dom.FindElement(atom.Style, doc.Root())
	doc.SetElementText(styleElem, ".banner { display: none; }")
	// the very next call must reflect the new content, not a call after that
	sels := c.Selectors("display: none")
	if len(sels) != 1 || sels[0] != ".banner" {
		t.Errorf("expected ['.banner'] immediately after mutation, got %v", sels)
	}
}

func TestFreshStyleElementIsScanned(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.cache")
	defer teardown()
	//
	doc := buildDoc(t)
	c := New(doc)
	require.NoError(t, c.RegisterFilter("opacity: 0"))
	_, err := c.Initialize(nil)
	require.NoError(t, err)
	defer c.Clear()

	head := dom.FindElement(atom.Head, doc.Root())
	fresh := dom.NewElement("style")
	fresh.AppendChild(dom.NewText(".ghost { opacity: 0; }"))
	doc.AppendChild(head, fresh)

	sels := c.Selectors("opacity: 0")
	if len(sels) != 1 || sels[0] != ".ghost" {
		t.Errorf("expected ['.ghost'] from freshly inserted style, got %v", sels)
	}
}

func TestRemovedStyleElementDropsOut(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.cache")
	defer teardown()
	//
	doc := buildDoc(t)
	c := New(doc)
	require.NoError(t, c.RegisterFilter("background-color: rgb(255, 0, 0)"))
	_, err := c.Initialize(nil)
	require.NoError(t, err)
	defer c.Clear()

	require.Len(t, c.Selectors("background-color: rgb(255, 0, 0)"), 1)
	styleElem := dom.FindElement(atom.Style, doc.Root())
	doc.RemoveChild(styleElem.Parent, styleElem)
	if sels := c.Selectors("background-color: rgb(255, 0, 0)"); len(sels) != 0 {
		t.Errorf("expected removed sheet to drop out, got %v", sels)
	}
}

func TestLinkLoadIsScanned(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.cache")
	defer teardown()
	//
	doc := buildDoc(t)
	c := New(doc)
	require.NoError(t, c.RegisterFilter("visibility: hidden"))
	_, err := c.Initialize(nil)
	require.NoError(t, err)
	defer c.Clear()

	head := dom.FindElement(atom.Head, doc.Root())
	link := dom.NewElement("link")
	doc.AppendChild(head, link)
	doc.SetAttribute(link, "rel", "stylesheet")
	doc.FinishLink(link, ".cloaked { visibility: hidden; }")

	sels := c.Selectors("visibility: hidden")
	if len(sels) != 1 || sels[0] != ".cloaked" {
		t.Errorf("expected ['.cloaked'] after link load, got %v", sels)
	}
}

func TestCrossOriginSheetStaysAbsent(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.cache")
	defer teardown()
	//
	doc := buildDoc(t)
	c := New(doc)
	require.NoError(t, c.RegisterFilter("background-color: rgb(255, 0, 0)"))
	_, err := c.Initialize(nil)
	require.NoError(t, err)
	defer c.Clear()

	head := dom.FindElement(atom.Head, doc.Root())
	link := dom.NewElement("link")
	doc.AppendChild(head, link)
	doc.SetAttribute(link, "rel", "stylesheet")
	doc.FinishLinkCrossOrigin(link)

	// same-origin sheet still answers; the cross-origin one contributes nothing
	sels := c.Selectors("background-color: rgb(255, 0, 0)")
	if len(sels) != 1 || sels[0] != ".ad" {
		t.Errorf("expected cross-origin sheet to be silently skipped, got %v", sels)
	}
}

func TestIgnoredSheetIsNeverScanned(t *testing.T) {
	teardown := gotestingadapter.QuickConfig(t, "extstyle.cache")
	defer teardown()
	//
	doc := buildDoc(t)
	styleElem := dom.FindElement(atom.Style, doc.Root())
	c := New(doc)
	require.NoError(t, c.RegisterFilter("background-color: rgb(255, 0, 0)"))
	ok, err := c.Initialize([]*html.Node{styleElem})
	require.NoError(t, err)
	require.True(t, ok)
	defer c.Clear()

	if sels := c.Selectors("background-color: rgb(255, 0, 0)"); len(sels) != 0 {
		t.Errorf("expected ignored sheet to contribute nothing, got %v", sels)
	}
}
