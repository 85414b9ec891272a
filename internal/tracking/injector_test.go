package tracking

import (
	"net/url"
	"strings"
	"testing"
)

func TestInjectRewritesLinks(t *testing.T) {
	inj := NewInjector("https://track.acme.test/")
	body := `<html><body><a href="https://example.com/offer?x=1">Offer</a></body></html>`

	out := inj.Inject(body, "att-1")

	wantHref := `href="https://track.acme.test/t/c/att-1?u=` + url.QueryEscape("https://example.com/offer?x=1") + `"`
	if !strings.Contains(out, wantHref) {
		t.Errorf("rewritten link missing, got:\n%s", out)
	}
	if strings.Contains(out, `href="https://example.com/offer?x=1"`) {
		t.Error("original link should have been rewritten")
	}
}

func TestInjectAppendsPixelBeforeBodyClose(t *testing.T) {
	inj := NewInjector("https://track.acme.test")
	out := inj.Inject(`<html><body><p>hi</p></body></html>`, "att-2")

	pixel := `<img src="https://track.acme.test/t/o/att-2"`
	idx := strings.Index(out, pixel)
	if idx < 0 {
		t.Fatalf("pixel missing, got:\n%s", out)
	}
	if idx > strings.Index(out, "</body>") {
		t.Error("pixel should be inserted before </body>")
	}
}

func TestInjectNoBodyTag(t *testing.T) {
	inj := NewInjector("https://track.acme.test")
	out := inj.Inject(`<p>plain fragment</p>`, "att-3")
	if !strings.HasSuffix(out, `style="display:none">`) {
		t.Errorf("pixel should be appended at the end, got:\n%s", out)
	}
}

func TestInjectLeavesRelativeAndMailtoLinks(t *testing.T) {
	inj := NewInjector("https://track.acme.test")
	body := `<a href="/local">x</a> <a href="mailto:a@b.c">y</a>`
	out := inj.Inject(body, "att-4")
	if !strings.Contains(out, `href="/local"`) || !strings.Contains(out, `href="mailto:a@b.c"`) {
		t.Errorf("non-http links should pass through, got:\n%s", out)
	}
}

func TestInjectSkipsAlreadyTrackedLinks(t *testing.T) {
	inj := NewInjector("https://track.acme.test")
	body := `<a href="https://track.acme.test/t/c/old?u=x">x</a>`
	out := inj.Inject(body, "att-5")
	if strings.Count(out, "/t/c/") != 1 {
		t.Errorf("tracked link should not be double-wrapped, got:\n%s", out)
	}
}

func TestInjectDisabled(t *testing.T) {
	var inj *Injector
	if inj.Enabled() {
		t.Error("nil injector should be disabled")
	}
	inj = NewInjector("")
	body := `<a href="https://example.com">x</a>`
	if got := inj.Inject(body, "att-6"); got != body {
		t.Errorf("disabled injector should pass body through, got:\n%s", got)
	}
}
