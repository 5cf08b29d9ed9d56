package delivery_test

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/taibuivan/atelier/internal/delivery"
)

func TestBuilder_Render(t *testing.T) {
	builder := newBuilder()
	width := 1000

	markup := builder.Render(delivery.RenderInput{
		Source:      delivery.StorageKey("weddings/vows.jpg"),
		Purpose:     delivery.PurposeGallery,
		Width:       640,
		Overrides:   delivery.Overrides{Width: &width, ObjectFit: "contain"},
		Breakpoints: []int{320, 640},
		Alt:         "Exchanging vows",
	})

	assert.Equal(t, cdnBase+"f_auto,q_auto,c_crop,g_auto,w_1000,h_750/weddings/vows.jpg", markup.Src)
	assert.Equal(t,
		cdnBase+"f_auto,q_auto,c_crop,g_auto,w_320,h_240/weddings/vows.jpg 320w, "+
			cdnBase+"f_auto,q_auto,c_crop,g_auto,w_640,h_480/weddings/vows.jpg 640w",
		markup.SrcSet)
	assert.Equal(t, delivery.DefaultSizes, markup.Sizes)
	assert.Equal(t, delivery.LoadingLazy, markup.Loading)
	assert.Equal(t, cdnBase+"f_auto,q_auto,c_scale,w_10/weddings/vows.jpg", markup.Placeholder)
	assert.Equal(t, 1000, markup.Width)
	assert.Equal(t, 750, markup.Height)
	assert.Equal(t, "contain", markup.ObjectFit)
}

func TestBuilder_Render_PriorityExternal(t *testing.T) {
	builder := newBuilder()
	external := "https://images.example.com/a.jpg"

	markup := builder.Render(delivery.RenderInput{
		Source:   delivery.ExternalURL(external),
		Purpose:  delivery.PurposeHero,
		Sizes:    "(min-width: 1024px) 50vw, 100vw",
		Priority: true,
	})

	assert.Equal(t, external, markup.Src)
	assert.Empty(t, markup.SrcSet)
	assert.Equal(t, external, markup.Placeholder)
	assert.Equal(t, delivery.LoadingEager, markup.Loading)
	assert.Equal(t, "(min-width: 1024px) 50vw, 100vw", markup.Sizes)
}

func TestMarkup_HTML(t *testing.T) {
	markup := delivery.Markup{
		Src:         "https://cdn.test/a.jpg",
		SrcSet:      "https://cdn.test/a.jpg 320w",
		Sizes:       "100vw",
		Loading:     delivery.LoadingEager,
		Placeholder: "https://cdn.test/p.jpg",
		Width:       800,
		Height:      600,
		Alt:         `Bride & groom "first look"`,
	}

	got := markup.HTML()
	assert.True(t, strings.HasPrefix(got, `<img src="https://cdn.test/a.jpg" srcset="https://cdn.test/a.jpg 320w" sizes="100vw"`))
	assert.Contains(t, got, `width="800" height="600" loading="eager" fetchpriority="high"`)
	assert.Contains(t, got, `alt="Bride &amp; groom &#34;first look&#34;"`)
	assert.True(t, strings.HasSuffix(got, `data-placeholder="https://cdn.test/p.jpg">`))
}
