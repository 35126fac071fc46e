package attachment

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

type stubSaver struct {
	calls int
	url   string
}

func (s *stubSaver) SaveInlineImage(ctx context.Context, data []byte, subtype string) (string, error) {
	s.calls++
	return s.url, nil
}

// TestProcessContentExtractsInlineImage mirrors spec scenario 5: an inline
// data: URI image is extracted, saved, and its bare <img> wrapped in a link
// to the saved URL.
func TestProcessContentExtractsInlineImage(t *testing.T) {
	saver := &stubSaver{url: "/attachments/2026/07/29/1-inline-4-0.png"}
	raw := `<p><img src="data:image/png;base64,iVBORw0KGgo="></p>`

	out, err := ProcessContent(context.Background(), raw, saver)
	require.NoError(t, err)
	require.Equal(t, 1, saver.calls)
	require.Contains(t, out, `<a href="`+saver.url+`"`)
	require.Contains(t, out, `src="`+saver.url+`"`)
}

// TestProcessContentDoesNotDoubleWrapExistingLink confirms an <img> that is
// already inside an <a> is not wrapped a second time (§4.7 step 2e).
func TestProcessContentDoesNotDoubleWrapExistingLink(t *testing.T) {
	saver := &stubSaver{url: "/attachments/x.png"}
	raw := `<a href="somewhere"><img src="data:image/png;base64,iVBORw0KGgo="></a>`

	out, err := ProcessContent(context.Background(), raw, saver)
	require.NoError(t, err)
	require.Equal(t, 1, saver.calls)
	require.Equal(t, 1, countOccurrences(out, "<a"))
}

// TestProcessContentStripsScriptAndEventHandlers exercises the sanitiser
// contract (§4.7 step 3): <script>/<style> and event-handler attributes are
// removed, but a plain formatting tag and its style attribute survive.
func TestProcessContentStripsScriptAndEventHandlers(t *testing.T) {
	saver := &stubSaver{}
	raw := `<p style="color:red" onclick="evil()">hi</p><script>bad()</script><style>body{}</style>`

	out, err := ProcessContent(context.Background(), raw, saver)
	require.NoError(t, err)
	require.NotContains(t, out, "<script")
	require.NotContains(t, out, "<style")
	require.NotContains(t, out, "onclick")
	require.Contains(t, out, `style="color:red"`)
}

// TestProcessContentPlainTextPassesThrough checks that content with no
// markup and no inline images comes out of the pipeline intact, with no
// attachment saved and no error.
func TestProcessContentPlainTextPassesThrough(t *testing.T) {
	saver := &stubSaver{}
	out, err := ProcessContent(context.Background(), "plain text, no tags", saver)
	require.NoError(t, err)
	require.Equal(t, 0, saver.calls)
	require.Contains(t, out, "plain text, no tags")
}

func TestDecodeDataURIRejectsNonImage(t *testing.T) {
	_, _, ok := decodeDataURI("data:text/plain;base64,aGVsbG8=")
	require.False(t, ok)
}

func TestDecodeDataURITolerantOfMissingPadding(t *testing.T) {
	_, data, ok := decodeDataURI("data:image/png;base64,aGVsbG8")
	require.True(t, ok)
	require.Equal(t, []byte("hello"), data)
}

func countOccurrences(s, sub string) int {
	count := 0
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			count++
		}
	}
	return count
}
