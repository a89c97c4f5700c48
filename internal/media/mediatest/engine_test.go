package mediatest_test

import (
	"testing"

	"github.com/kartoza/kartoza-webcam-viewer/internal/graph"
	"github.com/kartoza/kartoza-webcam-viewer/internal/media/mediatest"
	"github.com/kartoza/kartoza-webcam-viewer/internal/models"
	"github.com/kartoza/kartoza-webcam-viewer/internal/recorder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLaunch_CapsFilter(t *testing.T) {
	e := mediatest.NewEngine()
	_, err := e.ParseLaunch(graph.Config{Source: "videotestsrc"}.Description())
	require.NoError(t, err)

	p := e.Pipelines()[0]
	caps := p.Child("capsfilter0")
	require.NotNil(t, caps)
	assert.Equal(t, "capsfilter", caps.Factory())
	assert.Equal(t, "video/x-raw,format=RGBA", caps.Prop("caps"))
	assert.NotNil(t, p.Child(graph.SinkName))
	assert.NotNil(t, p.Child(graph.TeeName))
}

func TestParseBin_RecordingBranches(t *testing.T) {
	for _, format := range []models.RecordFormat{models.RecordH264MP4, models.RecordVP8WebM} {
		t.Run(string(format), func(t *testing.T) {
			desc, _ := recorder.Description(format)
			_, err := mediatest.NewEngine().ParseBin(desc)
			assert.NoError(t, err)
		})
	}
}

func TestParse_Rejects(t *testing.T) {
	e := mediatest.NewEngine()
	for _, desc := range []string{
		"format=RGBA ! appsink",
		"nosuchelement ! appsink",
		"videotestsrc ! ! appsink",
	} {
		_, err := e.ParseLaunch(desc)
		assert.Error(t, err, desc)
	}
}
