package transcript

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sampleSRT = `1
00:00:00,000 --> 00:00:01,830
I'm happy to
have you here today.

2
00:00:01,910 --> 00:00:03,610 X1:40 X2:600
As I'm sure you're all

3
00:00:50,000 --> 00:01:10,500
topic X
`

func TestParseSRT(t *testing.T) {
	segs, err := ParseSRT("lec1", strings.NewReader(sampleSRT))
	require.NoError(t, err)
	require.Len(t, segs, 3)

	assert.Equal(t, "lec1", segs[0].VideoID)
	assert.Equal(t, time.Duration(0), segs[0].Start)
	assert.Equal(t, 1830*time.Millisecond, segs[0].End)
	assert.Equal(t, "I'm happy to have you here today.", segs[0].Text)

	assert.Equal(t, 1910*time.Millisecond, segs[1].Start)
	assert.Equal(t, 50*time.Second, segs[2].Start)
	assert.Equal(t, 70500*time.Millisecond, segs[2].End)
	assert.Equal(t, "topic X", segs[2].Text)
}

func TestParseSRT_Errors(t *testing.T) {
	_, err := ParseSRT("v", strings.NewReader("1\nbad --> 00:00:01,000\nx\n"))
	assert.Error(t, err)

	_, err = ParseSRT("v", strings.NewReader("hello without cue\n"))
	assert.Error(t, err)

	segs, err := ParseSRT("v", strings.NewReader(""))
	require.NoError(t, err)
	assert.Empty(t, segs)
}

func TestParseJSON(t *testing.T) {
	v, err := ParseJSON("fallback", []byte(`{"video_id":"abc","title":"Intro","segments":[{"start":0,"end":"00:00:05","text":"hi"}]}`))
	require.NoError(t, err)
	assert.Equal(t, "abc", v.ID)
	assert.Equal(t, "Intro", v.Title)
	require.Len(t, v.Segments, 1)
	assert.Equal(t, "abc", v.Segments[0].VideoID)
	assert.Equal(t, 5*time.Second, v.Segments[0].End)

	v, err = ParseJSON("fallback", []byte(`[{"start":1.5,"end":2,"text":"x"}]`))
	require.NoError(t, err)
	assert.Equal(t, "fallback", v.ID)
	assert.Equal(t, 1500*time.Millisecond, v.Segments[0].Start)

	_, err = ParseJSON("f", []byte("  "))
	assert.Error(t, err)
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b-video.srt"), []byte(sampleSRT), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a-video.json"), []byte(`[{"start":0,"end":3,"text":"a"}]`), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	videos, err := LoadDir(dir)
	require.NoError(t, err)
	require.Len(t, videos, 2)
	assert.Equal(t, "a-video", videos[0].ID)
	assert.Equal(t, "b-video", videos[1].ID)
	assert.Len(t, videos[1].Segments, 3)
}
