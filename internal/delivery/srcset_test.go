package delivery_test

import (
	"strings"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taibuivan/atelier/internal/delivery"
)

func TestBuilder_BuildCandidateSet(t *testing.T) {
	builder := newBuilder()

	got := builder.BuildCandidateSet("weddings/vows.jpg", delivery.PurposeGallery, []int{320, 640, 1024})

	entries := strings.Split(got, ", ")
	require.Len(t, entries, 3)
	assert.True(t, strings.HasSuffix(entries[0], " 320w"))
	assert.True(t, strings.HasSuffix(entries[1], " 640w"))
	assert.True(t, strings.HasSuffix(entries[2], " 1024w"))

	want := []string{
		cdnBase + "f_auto,q_auto,c_crop,g_auto,w_320,h_240/weddings/vows.jpg 320w",
		cdnBase + "f_auto,q_auto,c_crop,g_auto,w_640,h_480/weddings/vows.jpg 640w",
		cdnBase + "f_auto,q_auto,c_crop,g_auto,w_1024,h_768/weddings/vows.jpg 1024w",
	}
	if diff := cmp.Diff(want, entries); diff != "" {
		t.Errorf("candidate set mismatch (-want +got):\n%s", diff)
	}
}

func TestBuilder_Candidates_ProportionalOmitsHeight(t *testing.T) {
	builder := newBuilder()

	candidates := builder.Candidates("portfolio/a.jpg", delivery.PurposePortfolio, []int{640})
	require.Len(t, candidates, 1)
	assert.Equal(t, cdnBase+"f_auto,q_auto,c_scale,w_640/portfolio/a.jpg", candidates[0].URL)
	assert.Equal(t, 640, candidates[0].Width)
}

func TestBuilder_Candidates_DefaultBreakpoints(t *testing.T) {
	builder := newBuilder()

	for _, breakpoints := range [][]int{nil, {}, {0, -10}} {
		candidates := builder.Candidates("a.jpg", delivery.PurposeHero, breakpoints)

		widths := make([]int, len(candidates))
		for i, c := range candidates {
			widths[i] = c.Width
		}
		assert.Equal(t, delivery.DefaultBreakpoints, widths)
	}
}

func TestNormalizeBreakpoints(t *testing.T) {
	assert.Equal(t, []int{320, 640, 1024}, delivery.NormalizeBreakpoints([]int{1024, 320, 640, 320, -1, 0}))

	// The package default is never aliased.
	defaults := delivery.NormalizeBreakpoints(nil)
	defaults[0] = 1
	assert.Equal(t, 320, delivery.DefaultBreakpoints[0])
}

func TestBuilder_ExternalSourceDegrades(t *testing.T) {
	builder := newBuilder()
	external := "https://images.example.com/guest-upload.jpg"

	assert.Empty(t, builder.BuildCandidateSet(external, delivery.PurposeGallery, nil))
	assert.Equal(t, external, builder.BuildPlaceholder(external))
}

func TestBuilder_BuildPlaceholder(t *testing.T) {
	builder := newBuilder()

	assert.Equal(t, cdnBase+"f_auto,q_auto,c_scale,w_10/weddings/vows.jpg", builder.BuildPlaceholder("weddings/vows.jpg"))

	cdnURL := cdnBase + "f_auto,q_auto,c_scale,w_800/weddings/vows.jpg"
	assert.Equal(t, cdnURL, builder.BuildPlaceholder(cdnURL))
}
