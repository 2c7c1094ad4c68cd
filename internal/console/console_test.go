package console

import (
	"bytes"
	"context"
	"image"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/local/pageviewer/internal/document"
	"github.com/local/pageviewer/internal/document/documenttest"
	"github.com/local/pageviewer/internal/viewer"
)

func TestParseKeys(t *testing.T) {
	got := ParseKeys([]byte("\x1b[C\x1b[D+=-x\x1b[Aq"))
	assert.Equal(t, []string{"right", "left", "+", "=", "-", "quit"}, got)
	assert.Empty(t, ParseKeys([]byte("\x1b")))
	assert.Equal(t, []string{"quit"}, ParseKeys([]byte{0x03}))
}

type discard struct{}

func (discard) OnImageReady(image.Image, string) {}
func (discard) OnError(viewer.ErrorKind, string) {}

func TestServeAppliesKeysUntilQuit(t *testing.T) {
	dec := documenttest.NewDecoder()
	dec.Add("a.pdf", documenttest.NewDoc(4))
	v := viewer.New(discard{}, viewer.Options{Session: document.Options{Decoder: dec}})
	defer v.Close()
	require.NoError(t, v.Open(context.Background(), "a.pdf"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := viewer.NewLoop(v)
	go loop.Run(ctx)

	var out bytes.Buffer
	c := New(nil, &out, loop)
	input := bytes.NewReader([]byte("\x1b[C\x1b[C+q\x1b[C"))
	require.NoError(t, c.serve(ctx, input))

	var st viewer.Status
	loop.Do(ctx, func(_ context.Context, v *viewer.Viewer) { st = v.Status() })
	assert.Equal(t, 2, st.Page)
	assert.InDelta(t, 1.2, st.Zoom, 1e-9)
	assert.Contains(t, out.String(), "Page: 3/4")
}
