// Package raster turns rendered SVG frames into bitmaps.
//
// Browser drives a headless Chrome through chromedp and is the reference
// renderer: it screenshots the SVG document and can measure label text
// exactly. StaticPNG draws the final frame with gonum/plot when no browser
// is available.
package raster

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"sync"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/chromedp"

	"github.com/buffos/go-linerace/internal/chart"
	"github.com/buffos/go-linerace/internal/monitoring"
)

// Browser keeps one headless Chrome alive across frames. It is safe for
// concurrent use; calls are serialized.
type Browser struct {
	mu            sync.Mutex
	scale         float64
	ctx           context.Context
	measureCtx    context.Context
	cancelAlloc   context.CancelFunc
	cancelCtx     context.CancelFunc
	cancelMeasure context.CancelFunc
}

// NewBrowser launches Chrome. scale is the device pixel ratio of
// screenshots (1 when <= 0). Extra allocator options are appended to the
// chromedp defaults.
func NewBrowser(ctx context.Context, scale float64, extra ...chromedp.ExecAllocatorOption) (*Browser, error) {
	if scale <= 0 {
		scale = 1
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Headless)
	opts = append(opts, extra...)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	browserCtx, cancelCtx := chromedp.NewContext(allocCtx)

	// The first Run starts the browser.
	if err := chromedp.Run(browserCtx); err != nil {
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("starting chrome: %w", err)
	}

	measureCtx, cancelMeasure := chromedp.NewContext(browserCtx)
	if err := chromedp.Run(measureCtx, chromedp.Navigate("about:blank")); err != nil {
		cancelMeasure()
		cancelCtx()
		cancelAlloc()
		return nil, fmt.Errorf("opening measurement tab: %w", err)
	}
	monitoring.Logf("raster: chrome started")

	return &Browser{
		scale:         scale,
		ctx:           browserCtx,
		measureCtx:    measureCtx,
		cancelAlloc:   cancelAlloc,
		cancelCtx:     cancelCtx,
		cancelMeasure: cancelMeasure,
	}, nil
}

// Close shuts the browser down.
func (b *Browser) Close() {
	b.cancelMeasure()
	b.cancelCtx()
	b.cancelAlloc()
}

// Screenshot renders svg and returns the PNG of its root element.
func (b *Browser) Screenshot(svg string) ([]byte, error) {
	b.mu.Lock()
	defer b.mu.Unlock()

	// A data URI avoids writing a temp file per frame.
	dataURI := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))

	var buf []byte
	tasks := chromedp.Tasks{
		// Width and height 0 keep the window size and only change the ratio.
		emulation.SetDeviceMetricsOverride(0, 0, b.scale, false),
		chromedp.Navigate(dataURI),
		chromedp.WaitVisible(`svg`, chromedp.ByQuery),
		chromedp.Screenshot(`svg`, &buf, chromedp.ByQuery),
	}
	if err := chromedp.Run(b.ctx, tasks); err != nil {
		return nil, fmt.Errorf("chromedp execution failed: %w", err)
	}
	if len(buf) == 0 {
		return nil, fmt.Errorf("screenshot buffer is empty, screenshot failed")
	}
	return buf, nil
}

// Rasterize screenshots svg and writes it to w in format.
func (b *Browser) Rasterize(svg string, format Format, w io.Writer) error {
	shot, err := b.Screenshot(svg)
	if err != nil {
		return err
	}
	return Encode(bytes.NewReader(shot), format, w)
}

const measureScript = `(() => {
	const ns = 'http://www.w3.org/2000/svg';
	let svg = document.getElementById('__measure');
	if (!svg) {
		svg = document.createElementNS(ns, 'svg');
		svg.id = '__measure';
		svg.setAttribute('style', 'position:absolute;visibility:hidden');
		document.body.appendChild(svg);
	}
	const t = document.createElementNS(ns, 'text');
	t.setAttribute('font-family', 'Arial, sans-serif');
	t.setAttribute('font-size', %s);
	t.textContent = %s;
	svg.appendChild(t);
	const box = t.getBBox();
	svg.removeChild(t);
	return [box.width, box.height];
})()`

// Measure implements label.Measurer with the browser's text layout. On
// failure it reports an empty size, which callers replace with a fallback.
func (b *Browser) Measure(text string, fontSize float64) chart.Size {
	b.mu.Lock()
	defer b.mu.Unlock()

	quoted, err := json.Marshal(text)
	if err != nil {
		return chart.Size{}
	}
	size, _ := json.Marshal(fontSize)
	var out []float64
	if err := chromedp.Run(b.measureCtx, chromedp.Evaluate(fmt.Sprintf(measureScript, size, quoted), &out)); err != nil {
		monitoring.Logf("raster: measuring %q: %v", text, err)
		return chart.Size{}
	}
	if len(out) != 2 {
		return chart.Size{}
	}
	return chart.Size{Width: out[0], Height: out[1]}
}
