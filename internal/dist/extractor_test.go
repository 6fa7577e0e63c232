package dist

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"edigen/pkg/config"
	"edigen/pkg/logger"
)

const ref850 = "ISA*00*          *00*          *ZZ*SENDER_ID       *ZZ*RECEIVER_ID     *250901*1200*U*00400*000000001*0*P*:~" +
	"GS*PO*SENDER*RECEIVER*20250901*1200*12345*X*004010~" +
	"ST*850*0001~" +
	"BEG*00*SA*PO-REF-1*20250815~" +
	"PO1*1*100*EA*40****SKU-10001~" +
	"PO1*2*200*EA*60****SKU-10002~" +
	"SE*5*0001~GE*1*12345~IEA*1*000000001~"

func newTestExtractor(t *testing.T) *Extractor {
	t.Helper()
	return NewExtractor(&config.Default().Gen, logger.NopLogger{})
}

func TestExtractMissingDirFallsBack(t *testing.T) {
	e := newTestExtractor(t)
	st := e.Extract(context.Background(), "/nonexistent/reference/dir")
	assert.Equal(t, Defaults(e.cfg), st)
}

func TestExtractEmptyDirFallsBack(t *testing.T) {
	e := newTestExtractor(t)
	st := e.Extract(context.Background(), t.TempDir())
	assert.Equal(t, Defaults(e.cfg), st)
}

func TestExtractStatsFromReferenceDocs(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ref1.850"), []byte(ref850), 0o644))
	// 干扰文件：非 850、二进制扩展名、损坏内容
	require.NoError(t, os.WriteFile(filepath.Join(dir, "junk.pdf"), []byte{0x25, 0x50}, 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not an edi file"), 0o644))

	e := newTestExtractor(t)
	st := e.Extract(context.Background(), dir)

	assert.Equal(t, 2, st.AvgLines)
	assert.InDelta(t, 150.0, st.QtyMean, 1e-9)
	assert.InDelta(t, 50.0, st.QtyStd, 1e-9)
	assert.InDelta(t, 50.0, st.PriceMean, 1e-9)
	assert.InDelta(t, 10.0, st.PriceStd, 1e-9)
}

func TestExtractUnparseableQuantitiesSkipped(t *testing.T) {
	dir := t.TempDir()
	doc := "ST*850*0001~BEG*00*SA*PO-REF-2*20250815~" +
		"PO1*1*abc*EA*xyz****SKU-10001~" +
		"PO1*2*50*EA*20****SKU-10002~SE*4*0001~"
	require.NoError(t, os.WriteFile(filepath.Join(dir, "ref2.850"), []byte(doc), 0o644))

	e := newTestExtractor(t)
	st := e.Extract(context.Background(), dir)

	// 不可解析的数值按兜底跳过，只统计有效行
	assert.InDelta(t, 50.0, st.QtyMean, 1e-9)
	assert.InDelta(t, 20.0, st.PriceMean, 1e-9)
}

func TestSafeFloat(t *testing.T) {
	assert.Equal(t, 12.5, safeFloat(" 12.5 "))
	assert.Equal(t, 0.0, safeFloat("abc"))
	assert.Equal(t, 0.0, safeFloat(""))
}
