package accel

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fuabioo/xlcodec/internal/parts"
)

func loaded(t *testing.T) *Bridge {
	t.Helper()
	b := New()
	if err := b.EnsureLoaded(context.Background()); err != nil {
		t.Skipf("accelerator not available in this build: %v", err)
	}
	return b
}

func TestDisabled(t *testing.T) {
	b := Disabled()
	assert.ErrorIs(t, b.EnsureLoaded(context.Background()), ErrUnavailable)
	assert.False(t, b.Available())

	_, ok := b.ParseWorksheet(probeWorksheet)
	assert.False(t, ok)
	_, ok = b.ParseSharedStrings(probeSharedStrings)
	assert.False(t, ok)
	_, ok = b.ParseStyles(probeStyles)
	assert.False(t, ok)
	_, ok = b.ParseWorkbook(probeWorkbook)
	assert.False(t, ok)
	_, ok = b.ParseRelationships(probeRelationships)
	assert.False(t, ok)
}

func TestUnavailableUntilLoaded(t *testing.T) {
	b := New()
	_, ok := b.ParseWorksheet(probeWorksheet)
	assert.False(t, ok, "parse before EnsureLoaded must fall back")
}

func TestEnsureLoadedCanceled(t *testing.T) {
	b := New()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, b.EnsureLoaded(ctx), context.Canceled)
	assert.False(t, b.Available())
}

func TestEnsureLoadedConcurrent(t *testing.T) {
	b := New()
	first := b.EnsureLoaded(context.Background())

	var wg sync.WaitGroup
	errs := make([]error, 16)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = b.EnsureLoaded(context.Background())
		}(i)
	}
	wg.Wait()

	for _, err := range errs {
		assert.Equal(t, first, err)
	}
	assert.Equal(t, first == nil, b.Available())
}

func TestEquivalence(t *testing.T) {
	b := loaded(t)

	worksheets := []string{
		probeWorksheet,
		`<worksheet><sheetData/></worksheet>`,
		`<worksheet><sheetData><row><c t="inlineStr"><is><t>a</t><rPh><t>b</t></rPh></is></c></row></sheetData></worksheet>`,
		`<worksheet><sheetViews><sheetView workbookViewId="0"/></sheetViews><sheetData><row r="7"><c r="C7" s="3"/></row></sheetData></worksheet>`,
	}
	for _, doc := range worksheets {
		got, ok := b.ParseWorksheet(doc)
		require.True(t, ok)
		assert.Equal(t, parts.ParseWorksheet(doc), got)
	}

	sst, ok := b.ParseSharedStrings(probeSharedStrings)
	require.True(t, ok)
	assert.Equal(t, parts.ParseSharedStrings(probeSharedStrings), sst)

	ss, ok := b.ParseStyles(probeStyles)
	require.True(t, ok)
	assert.Equal(t, parts.ParseStyles(probeStyles), ss)
	assert.Len(t, ss.Fonts, 2)
	assert.Len(t, ss.CellXfs, 3)

	info, ok := b.ParseWorkbook(probeWorkbook)
	require.True(t, ok)
	assert.Equal(t, parts.ParseWorkbook(probeWorkbook), info)
	assert.Equal(t, "A & B", info.Sheets[0].Name)

	rels, ok := b.ParseRelationships(probeRelationships)
	require.True(t, ok)
	assert.Equal(t, parts.ParseRelationships(probeRelationships), rels)
}

func TestUnbalancedDocument(t *testing.T) {
	_, err := parseWorksheet(`</row>`)
	assert.Error(t, err)

	b := loaded(t)
	_, ok := b.ParseWorksheet(`</row>`)
	assert.False(t, ok)
}
