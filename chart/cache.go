package chart

import (
	"math"
	"strconv"
	"strings"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"gonum.org/v1/plot/vg"

	"github.com/YuminosukeSato/bcpredict/pkg/errors"
)

// keyPrecision is the resolution at which radii are considered equal.
const keyPrecision = 1e-6

// Cache keeps recently rendered SVGs. Slider interactions tend to revisit
// the same positions, and rendering is the slowest step of a request.
type Cache struct {
	lru    *lru.Cache[string, []byte]
	width  vg.Length
	height vg.Length

	hits   atomic.Int64
	misses atomic.Int64
}

// NewCache returns a cache holding up to size SVGs rendered at width×height.
func NewCache(size int, width, height vg.Length) (*Cache, error) {
	c, err := lru.New[string, []byte](size)
	if err != nil {
		return nil, errors.Wrap(err, "create chart cache")
	}
	return &Cache{lru: c, width: width, height: height}, nil
}

// SVG returns the rendered chart, drawing it on a miss.
func (c *Cache) SVG(chart RadarChart) ([]byte, error) {
	key := cacheKey(chart)
	if svg, ok := c.lru.Get(key); ok {
		c.hits.Add(1)
		return svg, nil
	}
	c.misses.Add(1)

	svg, err := RenderSVG(chart, c.width, c.height)
	if err != nil {
		return nil, err
	}
	c.lru.Add(key, svg)
	return svg, nil
}

// Stats returns the hit and miss counts.
func (c *Cache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

// Len returns the number of cached SVGs.
func (c *Cache) Len() int {
	return c.lru.Len()
}

func cacheKey(chart RadarChart) string {
	var b strings.Builder
	for _, t := range chart.Traces {
		b.WriteString(t.Color)
		for _, r := range t.R {
			b.WriteByte(',')
			b.WriteString(strconv.FormatInt(int64(math.Round(r/keyPrecision)), 36))
		}
		b.WriteByte(';')
	}
	b.WriteString(strconv.FormatFloat(chart.RadialRange[0], 'g', -1, 64))
	b.WriteByte(':')
	b.WriteString(strconv.FormatFloat(chart.RadialRange[1], 'g', -1, 64))
	return b.String()
}
