package markup_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/surrealdb/sitecontent/pkg/markup"
)

const sampleIcon = `<svg width="32" height="32" className="icon" fill="none"><path d="M12 2L2 7l10 5 10-5-10-5z" stroke-width="2"/></svg>`

func TestIsValid(t *testing.T) {
	assert.True(t, markup.IsValid(sampleIcon))
	assert.True(t, markup.IsValid("  \n<svg></svg>\t"))
	assert.False(t, markup.IsValid("<div>not svg</div>"))
	assert.False(t, markup.IsValid("<svg><path/>"))
	assert.False(t, markup.IsValid(""))
	assert.False(t, markup.IsValid("svg"))
}

func TestNormalize(t *testing.T) {
	t.Run("invalid input yields empty output", func(t *testing.T) {
		for _, in := range []string{"", "<div>not svg</div>", "<svg>", "<?xml version=\"1.0\"?><svg></svg>"} {
			assert.Equal(t, "", markup.Normalize(in), "input %q", in)
		}
	})

	t.Run("root rewrites", func(t *testing.T) {
		out := markup.Normalize(sampleIcon)
		require.NotEmpty(t, out)

		root := out[:strings.Index(out, ">")+1]
		assert.Contains(t, root, `xmlns="http://www.w3.org/2000/svg"`)
		assert.Contains(t, root, `viewBox="0 0 24 24"`)
		assert.Contains(t, root, `style="width:100%;height:100%"`)
		assert.Contains(t, root, `class="icon"`)
		assert.NotContains(t, root, "width=")
		assert.NotContains(t, root, "height=")
		assert.NotContains(t, out, "className")
		assert.Contains(t, out, `stroke-width="2"`, "child attributes are kept")
	})

	t.Run("existing namespace and viewBox are kept", func(t *testing.T) {
		in := `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 48 48"><circle cx="24" cy="24" r="20"/></svg>`
		out := markup.Normalize(in)
		assert.Equal(t, 1, strings.Count(out, "xmlns="))
		assert.Contains(t, out, `viewBox="0 0 48 48"`)
		assert.NotContains(t, out, defaultViewBoxAttr())
	})

	t.Run("style keeps other declarations", func(t *testing.T) {
		out := markup.Normalize(`<svg style="color: red; width: 10px"></svg>`)
		assert.Contains(t, out, `style="color: red;width:100%;height:100%"`)
	})

	t.Run("child sizes are not stripped", func(t *testing.T) {
		out := markup.Normalize(`<svg><rect width="10" height="4"/></svg>`)
		assert.Contains(t, out, `<rect width="10" height="4"></rect>`)
	})

	t.Run("executable constructs are removed", func(t *testing.T) {
		in := `<svg onload="alert(1)"><script>alert(2)</script><!-- note -->` +
			`<a href=" javascript:alert(3)"><text onclick="x()">hi</text></a>` +
			`<foreignObject><div><b>html</b></div></foreignObject>` +
			`<use xlink:href="#ok"/></svg>`
		out := markup.Normalize(in)
		require.NotEmpty(t, out)
		assert.NotContains(t, out, "alert")
		assert.NotContains(t, out, "onload")
		assert.NotContains(t, out, "onclick")
		assert.NotContains(t, out, "note")
		assert.NotContains(t, out, "html")
		assert.Contains(t, out, `<use xlink:href="#ok"></use>`)
		assert.Contains(t, out, "<text>hi</text>")
	})

	t.Run("html hidden in text elements is removed", func(t *testing.T) {
		for _, in := range []string{
			`<svg><style><img src=x onerror=alert(1)></style></svg>`,
			`<svg><title><img src=x onerror=alert(1)></title></svg>`,
			`<svg><textarea><img src=x onerror=alert(1)></textarea></svg>`,
			`<svg><desc><iframe src="javascript:alert(1)"></iframe></desc></svg>`,
			`<svg><script/><a href="javascript:alert(1)" onclick="alert(2)">x</a></svg>`,
			`<svg><set attributeName="href" to="javascript:alert(1)"/><animate values="#a;javascript:alert(1)"/></svg>`,
		} {
			out := markup.Normalize(in)
			assert.NotContains(t, out, "alert", "input %q", in)
			assert.NotContains(t, out, "<img", "input %q", in)
			assert.Equal(t, out, markup.Normalize(out), "input %q", in)
		}

		out := markup.Normalize(`<svg><script/><a href="javascript:alert(1)" onclick="alert(2)">x</a></svg>`)
		assert.Contains(t, out, "<a>x</a>")
	})

	t.Run("single root element", func(t *testing.T) {
		for _, in := range []string{
			`<svg></svg><iframe src="https://evil.example/"></iframe><form action="https://evil.example"><input name=p></form><svg></svg>`,
			`<svg></svg><svg></svg>`,
			`<svg></svg> text <svg></svg>`,
			`<svg><p>breaks out</p></svg>`,
		} {
			assert.Equal(t, "", markup.Normalize(in), "input %q", in)
		}
	})

	t.Run("svg casing survives", func(t *testing.T) {
		out := markup.Normalize(`<svg viewBox="0 0 8 8"><linearGradient id="g"></linearGradient><clipPath id="c"></clipPath></svg>`)
		assert.Contains(t, out, `viewBox="0 0 8 8"`)
		assert.Contains(t, out, "<linearGradient")
		assert.Contains(t, out, "<clipPath")
	})

	t.Run("idempotent", func(t *testing.T) {
		inputs := []string{
			sampleIcon,
			`<svg></svg>`,
			`<svg style='fill:"a"' class="a" className="b"><g className='x'/></svg>`,
			`  <svg width=10 height=10 data-flag><title>T &amp; C</title></svg>  `,
			`<svg><style>.a{fill:red}</style><script>x</script></svg>`,
			`<div>not svg</div>`,
			`<svg viewbox="0 0 10 10"><path d="M0 0"></path></svg>`,
		}
		for _, in := range inputs {
			once := markup.Normalize(in)
			assert.Equal(t, once, markup.Normalize(once), "input %q", in)
		}
	})
}

func TestRender(t *testing.T) {
	assert.Equal(t, markup.Placeholder, markup.Render(""))
	assert.Equal(t, markup.Placeholder, markup.Render("<div>not svg</div>"))

	got := string(markup.Render("<svg><path/></svg>"))
	assert.True(t, strings.HasPrefix(got, "<svg"))
	assert.Contains(t, got, "xmlns=")
}

func FuzzNormalize(f *testing.F) {
	for _, seed := range []string{
		sampleIcon,
		`<svg></svg>`,
		`<svg><style><img src=x onerror=alert(1)></style></svg>`,
		`<svg><title><img src=x onerror=alert(1)></title></svg>`,
		`<svg><textarea><img src=x onerror=alert(1)></textarea></svg>`,
		`<svg><script/><a href="javascript:alert(1)" onclick="alert(2)">x</a></svg>`,
		`<svg></svg><iframe src="https://evil.example/"></iframe><form action="https://evil.example"><input name=p></form><svg></svg>`,
		`<svg><foreignObject><div onclick="x()">a</div></foreignObject></svg>`,
		`<svg><a xlink:href=" java	script:alert(1)">x</a></svg>`,
		`<svg><![CDATA[<b>]]><text>&lt;&amp;</text></svg>`,
	} {
		f.Add(seed)
	}

	f.Fuzz(func(t *testing.T, in string) {
		out := markup.Normalize(in)
		if !markup.IsValid(in) {
			require.Equal(t, "", out)
			return
		}
		require.Equal(t, out, markup.Normalize(out), "not idempotent")
		if out == "" {
			return
		}
		nodes, err := html.ParseFragment(strings.NewReader(out), &html.Node{Type: html.ElementNode, Data: "body", DataAtom: atom.Body})
		require.NoError(t, err)
		require.Len(t, nodes, 1)
		assertInert(t, nodes[0])
	})
}

// assertInert fails when n or a descendant could run script once embedded.
func assertInert(t *testing.T, n *html.Node) {
	t.Helper()
	if n.Type == html.ElementNode {
		require.Equal(t, "svg", n.Namespace, "element %q outside svg", n.Data)
		require.NotEqual(t, "script", strings.ToLower(n.Data))
		require.NotEqual(t, "foreignobject", strings.ToLower(n.Data))
		for _, a := range n.Attr {
			require.False(t, strings.HasPrefix(strings.ToLower(a.Key), "on"), "handler %q", a.Key)
			for _, part := range strings.Split(a.Val, ";") {
				require.False(t, strings.HasPrefix(compactLower(part), "javascript:"), "script uri in %q", a.Key)
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		assertInert(t, c)
	}
}

func compactLower(s string) string {
	return strings.ToLower(strings.Map(func(r rune) rune {
		if r <= ' ' {
			return -1
		}
		return r
	}, s))
}

func defaultViewBoxAttr() string {
	return `viewBox="` + markup.DefaultViewBox + `"`
}
