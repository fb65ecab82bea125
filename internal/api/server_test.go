package api

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/color"
	"image/draw"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"panel-segmenter/internal/contour"
	"panel-segmenter/internal/gridcut"
	"panel-segmenter/internal/segment"
	"panel-segmenter/pkg/geometry"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// splitExtractor reports one horizontal cut through the middle of the page
// and no contours.
type splitExtractor struct{}

func (splitExtractor) EdgeContours(image.Image) ([]contour.Contour, error) { return nil, nil }

func (splitExtractor) ThresholdContours(image.Image, int, int) ([]contour.Contour, error) {
	return nil, nil
}

func (splitExtractor) DetectLines(img image.Image, _ gridcut.Params) ([]geometry.Segment, error) {
	b := img.Bounds()
	return []geometry.Segment{geometry.Seg(0, b.Dy()/2, b.Dx()-1, b.Dy()/2)}, nil
}

func pageBase64(t *testing.T) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, 200, 300))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.White), image.Point{}, draw.Src)
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func newRouter(t *testing.T) *gin.Engine {
	t.Helper()
	s, err := NewServer(splitExtractor{}, segment.ImprovedParams(), nil)
	require.NoError(t, err)
	return s.Router()
}

func post(t *testing.T, r http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/segment", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestHealth(t *testing.T) {
	w := httptest.NewRecorder()
	newRouter(t).ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"preset":"improved"`)
}

func TestHealthReportsDefaultPreset(t *testing.T) {
	s, err := NewServer(splitExtractor{}, segment.ClassicParams().WithJPEGQuality(70), nil)
	require.NoError(t, err)
	assert.Equal(t, 70, s.pipelines[segment.PresetImproved].Params().JPEGQuality)

	w := httptest.NewRecorder()
	s.Router().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Contains(t, w.Body.String(), `"preset":"classic"`)
}

func TestSegment(t *testing.T) {
	body, err := json.Marshal(Request{Image: pageBase64(t)})
	require.NoError(t, err)

	w := post(t, newRouter(t), string(body))
	require.Equal(t, http.StatusOK, w.Code)

	var res segment.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.Empty(t, res.Error)
	assert.Equal(t, segment.StrategyLines, res.Strategy)
	assert.Equal(t, 2, res.TotalPanels)
	assert.Equal(t, []int{0, 1}, res.ReadingOrder)
	assert.Equal(t, segment.Size{Width: 200, Height: 300}, res.OriginalImage)
	assert.Equal(t, 0, res.Panels[0].BoundingBox.Y)
}

func TestSegmentMatchesPipeline(t *testing.T) {
	img := pageBase64(t)
	body, err := json.Marshal(Request{Image: img, Preset: segment.PresetClassic})
	require.NoError(t, err)

	w := post(t, newRouter(t), string(body))
	require.Equal(t, http.StatusOK, w.Code)

	p, err := segment.New(splitExtractor{}, segment.ClassicParams())
	require.NoError(t, err)
	want, err := json.Marshal(p.SegmentBase64(img))
	require.NoError(t, err)
	assert.JSONEq(t, string(want), w.Body.String())
}

func TestSegmentErrors(t *testing.T) {
	r := newRouter(t)

	w := post(t, r, "{not json")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = post(t, r, `{"preset":"classic"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code, "image is required")

	w = post(t, r, `{"image":"AAAA","preset":"fancy"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "unknown preset")

	// Undecodable images are reported in the envelope.
	w = post(t, r, `{"image":"%%%"}`)
	assert.Equal(t, http.StatusOK, w.Code)
	var res segment.Result
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.NotEmpty(t, res.Error)
	assert.Empty(t, res.Panels)
}

func TestSegmentStream(t *testing.T) {
	srv := httptest.NewServer(newRouter(t))
	defer srv.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws/segment", nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(Request{Image: pageBase64(t)}))
	var res segment.Result
	require.NoError(t, conn.ReadJSON(&res))
	assert.Empty(t, res.Error)
	assert.Equal(t, 2, res.TotalPanels)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("garbage")))
	res = segment.Result{}
	require.NoError(t, conn.ReadJSON(&res))
	assert.Contains(t, res.Error, "invalid request")

	require.NoError(t, conn.WriteJSON(Request{Image: pageBase64(t), Preset: "fancy"}))
	res = segment.Result{}
	require.NoError(t, conn.ReadJSON(&res))
	assert.Contains(t, res.Error, "unknown preset")
}

func TestNewServerRejectsUnknownDefault(t *testing.T) {
	params := segment.ImprovedParams()
	params.Name = "fancy"
	_, err := NewServer(splitExtractor{}, params, nil)
	assert.ErrorIs(t, err, segment.ErrUnknownPreset)
}
